package marketplace

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"herd-marketplace/internal/domain/geo"
	"herd-marketplace/internal/domain/weights"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/projects/{projectID}/marketplace/status", enrichHandler(svc))
	r.Post("/projects/{projectID}/listings", createListingHandler(svc))

	r.Route("/marketplace", func(mr chi.Router) {
		mr.Get("/listings", browseHandler(svc))
		mr.Post("/refresh", refreshHandler(svc))
		mr.Get("/distance", distanceHandler())

		mr.Delete("/listings/{listingID}", withdrawHandler(svc))
		mr.Patch("/listings/{listingID}/status", updateStatusHandler(svc))
		mr.Post("/listings/{listingID}/purchase-requests", purchaseRequestHandler(svc))
	})
}

type createListingRequest struct {
	ListingType    ListingType  `json:"listing_type" enums:"individual,batch"`
	AnimalID       string       `json:"animal_id"`
	BatchID        string       `json:"batch_id"`
	PricePerKg     float64      `json:"price_per_kg"`
	ManualWeightKg *float64     `json:"manual_weight_kg"`
	Location       geo.Location `json:"location"`
	Photos         []string     `json:"photos"`
}

type updateStatusRequest struct {
	Status ListingStatus `json:"status" enums:"reserved,sold"`
}

type refreshResponse struct {
	Listings  int       `json:"listings"`
	Claimed   int       `json:"claimed_animals"`
	Conflicts int       `json:"conflicts"`
	BuiltAt   time.Time `json:"built_at"`
}

type distanceResponse struct {
	DistanceKm float64 `json:"distance_km"`
}

// enrichHandler godoc
// @Summary Estado de marketplace del cheptel
// @Description Para cada animal del proyecto: available/reserved (con listing_id), sold o none.
// @Tags marketplace
// @Produce json
// @Param projectID path string true "ID del proyecto"
// @Success 200 {array} Enrichment
// @Failure 502 {string} string "upstream error"
// @Router /projects/{projectID}/marketplace/status [get]
func enrichHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Enrich(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// createListingHandler godoc
// @Summary Publicar anuncio
// @Description Resuelve el peso (override manual, última pesada, peso de entrada, promedio del lote), crea el anuncio remoto y sube las fotos. Si falla alguna foto el anuncio se mantiene y partial=true.
// @Tags marketplace
// @Accept json
// @Produce json
// @Param projectID path string true "ID del proyecto"
// @Param payload body createListingRequest true "Anuncio"
// @Success 201 {object} CreateListingResult
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 409 {string} string "animal already listed"
// @Failure 422 {string} string "weight unavailable / subject not active"
// @Failure 502 {string} string "upstream error"
// @Router /projects/{projectID}/listings [post]
func createListingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		res, err := svc.CreateListing(r.Context(), chi.URLParam(r, "projectID"), CreateListingInput{
			Type:           ListingType(strings.ToLower(strings.TrimSpace(string(req.ListingType)))),
			AnimalID:       req.AnimalID,
			BatchID:        req.BatchID,
			PricePerKg:     req.PricePerKg,
			ManualWeightKg: req.ManualWeightKg,
			Location:       req.Location,
			Photos:         req.Photos,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// browseHandler godoc
// @Summary Buscar anuncios cercanos
// @Description Anuncios disponibles ordenados por distancia. Sin lat/lon se devuelven en el orden del marketplace.
// @Tags marketplace
// @Produce json
// @Param lat query number false "Latitud del comprador"
// @Param lon query number false "Longitud del comprador"
// @Param radius_km query number false "Radio máximo en km (0 = sin límite)"
// @Param exclude_project query string false "Excluir anuncios de este proyecto"
// @Success 200 {array} BrowseItem
// @Failure 400 {string} string "invalid coordinates"
// @Failure 502 {string} string "upstream error"
// @Router /marketplace/listings [get]
func browseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		origin, err := parseOptionalPoint(q.Get("lat"), q.Get("lon"))
		if err != nil {
			http.Error(w, "invalid coordinates", http.StatusBadRequest)
			return
		}

		var radius float64
		if raw := strings.TrimSpace(q.Get("radius_km")); raw != "" {
			radius, err = strconv.ParseFloat(raw, 64)
			if err != nil || radius < 0 {
				http.Error(w, "invalid radius_km", http.StatusBadRequest)
				return
			}
		}

		items, err := svc.Browse(r.Context(), BrowseQuery{
			Origin:         origin,
			RadiusKm:       radius,
			ExcludeProject: strings.TrimSpace(q.Get("exclude_project")),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func refreshHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Refresh(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, refreshResponse{
			Listings:  len(snap.Listings),
			Claimed:   snap.Index.Len(),
			Conflicts: snap.Index.Conflicts(),
			BuiltAt:   snap.BuiltAt,
		})
	}
}

func withdrawHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Withdraw(r.Context(), chi.URLParam(r, "listingID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "listingID")
		var (
			l   Listing
			err error
		)
		switch req.Status {
		case ListingReserved:
			l, err = svc.MarkReserved(r.Context(), id)
		case ListingSold:
			l, err = svc.MarkSold(r.Context(), id)
		default:
			http.Error(w, "status must be reserved or sold", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// purchaseRequestHandler godoc
// @Summary Solicitud de compra
// @Tags marketplace
// @Accept json
// @Produce json
// @Param listingID path string true "ID del anuncio"
// @Param payload body PurchaseRequest true "Solicitud"
// @Success 201 {object} PurchaseRequest
// @Failure 400 {string} string "invalid json / buyer_name is required"
// @Failure 404 {string} string "listing not found"
// @Failure 502 {string} string "upstream error"
// @Router /marketplace/listings/{listingID}/purchase-requests [post]
func purchaseRequestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PurchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		out, err := svc.RequestPurchase(r.Context(), chi.URLParam(r, "listingID"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// distanceHandler godoc
// @Summary Distancia entre dos puntos
// @Description Haversine sobre radio medio 6371 km, redondeado a 1 decimal.
// @Tags marketplace
// @Produce json
// @Param from_lat query number true "Latitud origen"
// @Param from_lon query number true "Longitud origen"
// @Param to_lat query number true "Latitud destino"
// @Param to_lon query number true "Longitud destino"
// @Success 200 {object} distanceResponse
// @Failure 400 {string} string "invalid coordinates"
// @Router /marketplace/distance [get]
func distanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, err1 := parseOptionalPoint(q.Get("from_lat"), q.Get("from_lon"))
		to, err2 := parseOptionalPoint(q.Get("to_lat"), q.Get("to_lon"))
		if err1 != nil || err2 != nil || from == nil || to == nil {
			http.Error(w, "invalid coordinates", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, distanceResponse{DistanceKm: geo.DistanceKm(*from, *to)})
	}
}

var errBadCoordinates = errors.New("bad coordinates")

// parseOptionalPoint: ambos vacíos = sin punto; uno solo o fuera de rango = error.
func parseOptionalPoint(lat, lon string) (*geo.Point, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" && lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, errBadCoordinates
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, errBadCoordinates
	}
	p := geo.Point{Lat: la, Lon: lo}
	if !validLocation(p) {
		return nil, errBadCoordinates
	}
	return &p, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownListingType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnknownSubject), errors.Is(err, ErrListingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyListed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, weights.ErrWeightUnavailable), errors.Is(err, ErrSubjectInactive):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrRemote):
		http.Error(w, "upstream error", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
