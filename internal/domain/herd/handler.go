package herd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/projects/{projectID}/animals", func(ar chi.Router) {
		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))

		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Delete("/{animalID}", removeAnimalHandler(svc))
		ar.Patch("/{animalID}/status", changeStatusHandler(svc))
		ar.Put("/{animalID}/parents", setParentsHandler(svc))

		ar.Post("/{animalID}/weighings", recordWeighingHandler(svc))
		ar.Get("/{animalID}/weighings", listWeighingsHandler(svc))
	})

	r.Route("/projects/{projectID}/batches", func(br chi.Router) {
		br.Post("/", createBatchHandler(svc))
		br.Get("/", listBatchesHandler(svc))
		br.Get("/{batchID}", getBatchHandler(svc))
	})
}

type createAnimalRequest struct {
	Code          string  `json:"code"`
	Breed         string  `json:"breed"`
	Sex           Sex     `json:"sex" enums:"male,female,unknown"`
	IsBreeder     bool    `json:"is_breeder"`
	FatherID      *string `json:"father_id"`
	MotherID      *string `json:"mother_id"`
	EntryWeightKg float64 `json:"entry_weight_kg"`
	BirthDate     string  `json:"birth_date"` // YYYY-MM-DD opcional
}

type animalResponse struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	Code          string     `json:"code"`
	Breed         string     `json:"breed"`
	Sex           Sex        `json:"sex"`
	IsBreeder     bool       `json:"is_breeder"`
	FatherID      *string    `json:"father_id"`
	MotherID      *string    `json:"mother_id"`
	Status        Status     `json:"status"`
	EntryWeightKg float64    `json:"entry_weight_kg"`
	BatchID       *string    `json:"batch_id,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type changeStatusRequest struct {
	Status Status `json:"status" enums:"active,dead,sold,given,other"`
}

type setParentsRequest struct {
	FatherID *string `json:"father_id"`
	MotherID *string `json:"mother_id"`
}

type recordWeighingRequest struct {
	Date     string  `json:"date"` // YYYY-MM-DD o RFC3339; vacío = ahora
	WeightKg float64 `json:"weight_kg"`
}

type weighingResponse struct {
	ID        string    `json:"id"`
	AnimalID  string    `json:"animal_id"`
	Date      time.Time `json:"date"`
	WeightKg  float64   `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
}

type createBatchRequest struct {
	Name            string   `json:"name"`
	MemberIDs       []string `json:"member_ids"`
	AverageWeightKg float64  `json:"average_weight_kg"`
}

type batchResponse struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	MemberIDs       []string  `json:"member_ids"`
	AverageWeightKg float64   `json:"average_weight_kg"`
	CreatedAt       time.Time `json:"created_at"`
}

// createAnimalHandler godoc
// @Summary Registrar animal
// @Description Alta de un animal en el cheptel del proyecto. father_id/mother_id son referencias por id.
// @Tags herd
// @Accept json
// @Produce json
// @Param projectID path string true "ID del proyecto"
// @Param payload body createAnimalRequest true "Datos del animal"
// @Success 201 {object} animalResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Router /projects/{projectID}/animals [post]
func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		a, err := svc.CreateAnimal(r.Context(), chi.URLParam(r, "projectID"), CreateAnimalInput{
			Code:          req.Code,
			Breed:         req.Breed,
			Sex:           req.Sex,
			IsBreeder:     req.IsBreeder,
			FatherID:      req.FatherID,
			MotherID:      req.MotherID,
			EntryWeightKg: req.EntryWeightKg,
			BirthDate:     bd,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a))
	}
}

func listAnimalsHandler(svc *Service) http.HandlerFunc {
	// ?include_archived=true para ver los borrados lógicos
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAnimals(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}

		includeArchived := strings.EqualFold(r.URL.Query().Get("include_archived"), "true")
		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			if a.ArchivedAt != nil && !includeArchived {
				continue
			}
			out = append(out, toAnimalResponse(a))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAnimal(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

// removeAnimalHandler godoc
// @Summary Eliminar animal
// @Description Borrado físico, o lógico (archived) si el animal es padre/madre de otro.
// @Tags herd
// @Param projectID path string true "ID del proyecto"
// @Param animalID path string true "ID del animal"
// @Success 200 {object} map[string]bool
// @Failure 404 {string} string "animal not found"
// @Router /projects/{projectID}/animals/{animalID} [delete]
func removeAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logical, err := svc.RemoveAnimal(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"archived": logical})
	}
}

func changeStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.ChangeStatus(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "animalID"), req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

func setParentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setParentsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.SetParents(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "animalID"), req.FatherID, req.MotherID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a))
	}
}

func recordWeighingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordWeighingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD or RFC3339", http.StatusBadRequest)
			return
		}

		wg, err := svc.RecordWeighing(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "animalID"), date, req.WeightKg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toWeighingResponse(wg))
	}
}

func listWeighingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListWeighings(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "animalID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]weighingResponse, 0, len(items))
		for _, wg := range items {
			out = append(out, toWeighingResponse(wg))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createBatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		b, err := svc.CreateBatch(r.Context(), chi.URLParam(r, "projectID"), CreateBatchInput{
			Name:            req.Name,
			MemberIDs:       req.MemberIDs,
			AverageWeightKg: req.AverageWeightKg,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBatchResponse(b))
	}
}

func listBatchesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListBatches(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]batchResponse, 0, len(items))
		for _, b := range items {
			out = append(out, toBatchResponse(b))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getBatchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.GetBatch(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "batchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBatchResponse(b))
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func toAnimalResponse(a Animal) animalResponse {
	return animalResponse{
		ID:            a.ID,
		ProjectID:     a.ProjectID,
		Code:          a.Code,
		Breed:         a.Breed,
		Sex:           a.Sex,
		IsBreeder:     a.IsBreeder,
		FatherID:      a.FatherID,
		MotherID:      a.MotherID,
		Status:        a.Status,
		EntryWeightKg: a.EntryWeightKg,
		BatchID:       a.BatchID,
		BirthDate:     a.BirthDate,
		ArchivedAt:    a.ArchivedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toWeighingResponse(w Weighing) weighingResponse {
	return weighingResponse{
		ID:        w.ID,
		AnimalID:  w.AnimalID,
		Date:      w.Date,
		WeightKg:  w.WeightKg,
		CreatedAt: w.CreatedAt,
	}
}

func toBatchResponse(b Batch) batchResponse {
	members := b.MemberIDs
	if members == nil {
		members = []string{}
	}
	return batchResponse{
		ID:              b.ID,
		ProjectID:       b.ProjectID,
		Name:            b.Name,
		MemberIDs:       members,
		AverageWeightKg: b.AverageWeightKg,
		CreatedAt:       b.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidLink):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
