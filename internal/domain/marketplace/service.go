// Package marketplace reconcilia los anuncios del marketplace remoto con el cheptel local
// y arma el pipeline de publicación.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"herd-marketplace/internal/cache"
	"herd-marketplace/internal/domain/geo"
	"herd-marketplace/internal/domain/herd"
	"herd-marketplace/internal/domain/weights"
	"herd-marketplace/internal/platform/logger"
)

const (
	DefaultMaxListings = 200
	// concurrencia para traer pesadas de los miembros de un lote
	memberFetchLimit = 8
)

// HerdReader es lo que el marketplace necesita del cheptel local.
type HerdReader interface {
	ListAnimals(ctx context.Context, projectID string) ([]herd.Animal, error)
	GetAnimal(ctx context.Context, projectID, animalID string) (herd.Animal, error)
	ListWeighings(ctx context.Context, projectID, animalID string) ([]herd.Weighing, error)
	GetBatch(ctx context.Context, projectID, batchID string) (herd.Batch, error)
}

type Options struct {
	MaxListings int // tope de anuncios que Browse guarda en cache
	Logger      logger.Logger
	Resolver    *weights.Resolver
}

type Service struct {
	source     ListingSource
	herd       HerdReader
	listings   *cache.Cache[Listing]
	reconciler *Reconciler
	resolver   *weights.Resolver
	log        logger.Logger

	maxListings int
}

func NewService(source ListingSource, herdReader HerdReader, backend *cache.Backend, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = weights.NewResolver()
	}
	maxListings := opts.MaxListings
	if maxListings <= 0 {
		maxListings = DefaultMaxListings
	}

	s := &Service{
		source:      source,
		herd:        herdReader,
		listings:    cache.New[Listing](backend),
		resolver:    resolver,
		log:         log.With(map[string]any{"component": "marketplace"}),
		maxListings: maxListings,
	}
	s.reconciler = NewReconciler(s.loadActive, s.log)
	return s
}

func activeListingsScope() cache.Scope {
	return cache.NewScope("listings", "state", "active")
}

// loadActive trae todos los anuncios activos del remoto. El índice se arma siempre sobre
// la lista completa; el tope de maxListings aplica solo al cache de Browse.
func (s *Service) loadActive(ctx context.Context) ([]Listing, error) {
	items, err := s.source.ListActive(ctx)
	if err != nil {
		return nil, remoteErr(err)
	}
	return items, nil
}

func (s *Service) Reconciler() *Reconciler { return s.reconciler }

// Refresh descarta el cache de anuncios y reconstruye el índice desde el remoto. Una
// carga que estaba en curso queda vieja y no se publica.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.reconciler.Invalidate()
	s.listings.Invalidate(ctx, activeListingsScope())
	return s.reconciler.Refresh(ctx)
}

// afterMutation invalida y reindexa. Un fallo acá no deshace la mutación remota.
func (s *Service) afterMutation(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		s.log.Warn("reindex after mutation failed", map[string]any{"error": err})
	}
}

// browseListings lee del cache y, en un miss, del snapshot vigente. Lo que se guarda en
// cache se corta en maxListings.
func (s *Service) browseListings(ctx context.Context) ([]Listing, error) {
	scope := activeListingsScope()
	if items, ok := s.listings.Get(ctx, scope); ok {
		return items, nil
	}

	gen := s.reconciler.generation()
	snap, err := s.reconciler.Current(ctx)
	if err != nil {
		return nil, err
	}

	items := snap.Listings
	if len(items) > s.maxListings {
		s.log.Warn("browse listings capped", map[string]any{
			"listings": len(items),
			"max":      s.maxListings,
		})
		items = items[:s.maxListings]
	}
	s.reconciler.ifCurrent(gen, func() {
		s.listings.Set(ctx, scope, items, s.maxListings)
	})
	return items, nil
}

// ---------------------------------------------------------------------
// Enriquecimiento
// ---------------------------------------------------------------------

// Enrich devuelve el estado de marketplace de cada animal del proyecto.
func (s *Service) Enrich(ctx context.Context, projectID string) ([]Enrichment, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, ErrInvalidInput
	}

	var (
		animals []herd.Animal
		snap    *Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		animals, err = s.herd.ListAnimals(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = s.reconciler.Current(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snap.Index.Enrich(animals), nil
}

// ---------------------------------------------------------------------
// Browse
// ---------------------------------------------------------------------

type BrowseQuery struct {
	Origin         *geo.Point
	RadiusKm       float64
	ExcludeProject string
}

type BrowseItem struct {
	Listing    Listing  `json:"listing"`
	DistanceKm *float64 `json:"distance_km"`
}

// Browse lista los anuncios disponibles ordenados por distancia al comprador.
// Sin origen se conserva el orden recibido y DistanceKm queda vacío.
func (s *Service) Browse(ctx context.Context, q BrowseQuery) ([]BrowseItem, error) {
	listings, err := s.browseListings(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if l.Status != ListingAvailable {
			continue
		}
		if q.ExcludeProject != "" && l.ProjectID == q.ExcludeProject {
			continue
		}
		candidates = append(candidates, l)
	}

	locate := func(l Listing) *geo.Point {
		p := l.Location.Point
		return &p
	}
	candidates = geo.WithinRadius(q.Origin, candidates, locate, q.RadiusKm)
	candidates = geo.SortByDistance(q.Origin, candidates, locate)

	out := make([]BrowseItem, 0, len(candidates))
	for _, l := range candidates {
		item := BrowseItem{Listing: l}
		if q.Origin != nil {
			d := geo.DistanceKm(*q.Origin, l.Location.Point)
			item.DistanceKm = &d
		}
		out = append(out, item)
	}
	return out, nil
}

// ---------------------------------------------------------------------
// Publicación
// ---------------------------------------------------------------------

type CreateListingInput struct {
	Type           ListingType
	AnimalID       string
	BatchID        string
	PricePerKg     float64
	ManualWeightKg *float64
	Location       geo.Location
	Photos         []string // URIs locales (file:// o ruta)
}

type PhotoFailure struct {
	URI   string `json:"uri"`
	Error string `json:"error"`
}

// CreateListingResult: Partial=true si el anuncio se creó pero alguna foto falló.
// El anuncio no se revierte.
type CreateListingResult struct {
	Listing        Listing            `json:"listing"`
	Weight         weights.Resolution `json:"weight"`
	UploadedPhotos []string           `json:"uploaded_photos"`
	FailedPhotos   []PhotoFailure     `json:"failed_photos"`
	Partial        bool               `json:"partial"`
}

// CreateListing es un pipeline secuencial: sujeto -> peso -> alta remota -> fotos.
// Una vez emitida el alta remota no hay cancelación ni compensación.
func (s *Service) CreateListing(ctx context.Context, projectID string, in CreateListingInput) (CreateListingResult, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" || in.PricePerKg <= 0 || !validLocation(in.Location.Point) {
		return CreateListingResult{}, ErrInvalidInput
	}

	subject, weightIn, err := s.loadSubject(ctx, projectID, in)
	if err != nil {
		return CreateListingResult{}, err
	}

	snap, err := s.reconciler.Current(ctx)
	if err != nil {
		return CreateListingResult{}, err
	}
	for _, id := range subject.AnimalIDs() {
		if l, ok := snap.Index.Lookup(id); ok {
			s.log.Info("listing refused, animal already listed", map[string]any{
				"animal_id": id, "listing_id": l.ID,
			})
			return CreateListingResult{}, ErrAlreadyListed
		}
	}

	weightIn.ManualOverrideKg = in.ManualWeightKg
	res, err := s.resolver.Resolve(weightIn)
	if err != nil {
		return CreateListingResult{}, err
	}

	created, err := s.source.Create(ctx, NewListing{
		ProjectID:      projectID,
		Subject:        subject,
		PricePerKg:     in.PricePerKg,
		WeightKg:       res.WeightKg,
		Location:       in.Location,
		LastWeightDate: res.LastWeightDate,
	})
	if err != nil {
		return CreateListingResult{}, remoteErr(err)
	}

	out := CreateListingResult{
		Listing:        created,
		Weight:         res,
		UploadedPhotos: []string{},
		FailedPhotos:   []PhotoFailure{},
	}
	for _, uri := range in.Photos {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		url, err := s.source.UploadPhoto(ctx, created.ID, uri)
		if err != nil {
			out.FailedPhotos = append(out.FailedPhotos, PhotoFailure{URI: uri, Error: err.Error()})
			continue
		}
		out.UploadedPhotos = append(out.UploadedPhotos, url)
	}
	out.Partial = len(out.FailedPhotos) > 0
	if len(out.UploadedPhotos) > 0 {
		out.Listing.Photos = append(out.Listing.Photos, out.UploadedPhotos...)
	}

	s.log.Info("listing created", map[string]any{
		"listing_id":    created.ID,
		"project_id":    projectID,
		"listing_type":  string(subject.Type()),
		"weight_kg":     res.WeightKg,
		"weight_source": string(res.Source),
		"photos_failed": len(out.FailedPhotos),
	})

	s.afterMutation(ctx)
	return out, nil
}

// loadSubject resuelve el sujeto local y arma la entrada del resolver de peso.
// Miembros de lote desconocidos se ignoran; no se inventan animales.
func (s *Service) loadSubject(ctx context.Context, projectID string, in CreateListingInput) (Subject, weights.Input, error) {
	switch in.Type {
	case TypeIndividual:
		a, err := s.herd.GetAnimal(ctx, projectID, strings.TrimSpace(in.AnimalID))
		if err != nil {
			return nil, weights.Input{}, herdErr(err)
		}
		if a.Status != herd.StatusActive || a.ArchivedAt != nil {
			return nil, weights.Input{}, ErrSubjectInactive
		}
		ws, err := s.herd.ListWeighings(ctx, projectID, a.ID)
		if err != nil {
			return nil, weights.Input{}, herdErr(err)
		}
		return IndividualSubject{AnimalID: a.ID}, weights.Input{Weighings: ws, EntryWeightKg: a.EntryWeightKg}, nil

	case TypeBatch:
		b, err := s.herd.GetBatch(ctx, projectID, strings.TrimSpace(in.BatchID))
		if err != nil {
			return nil, weights.Input{}, herdErr(err)
		}
		animals, err := s.herd.ListAnimals(ctx, projectID)
		if err != nil {
			return nil, weights.Input{}, err
		}
		idx := herd.Index(animals)

		members := make([]herd.Animal, 0, len(b.MemberIDs))
		for _, id := range b.MemberIDs {
			a, ok := idx[id]
			if !ok {
				continue
			}
			if a.Status != herd.StatusActive || a.ArchivedAt != nil {
				return nil, weights.Input{}, ErrSubjectInactive
			}
			members = append(members, a)
		}
		if len(members) == 0 {
			return nil, weights.Input{}, ErrUnknownSubject
		}

		memberInputs, err := s.memberWeights(ctx, projectID, members)
		if err != nil {
			return nil, weights.Input{}, err
		}

		ids := make([]string, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.ID)
		}
		return BatchSubject{BatchID: b.ID, MemberIDs: ids},
			weights.Input{Batch: &weights.BatchInput{AverageWeightKg: b.AverageWeightKg, Members: memberInputs}},
			nil

	default:
		return nil, weights.Input{}, ErrUnknownListingType
	}
}

func (s *Service) memberWeights(ctx context.Context, projectID string, members []herd.Animal) ([]weights.Input, error) {
	out := make([]weights.Input, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberFetchLimit)
	for i, m := range members {
		g.Go(func() error {
			ws, err := s.herd.ListWeighings(gctx, projectID, m.ID)
			if err != nil {
				return herdErr(err)
			}
			out[i] = weights.Input{Weighings: ws, EntryWeightKg: m.EntryWeightKg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------
// Operaciones sobre anuncios existentes
// ---------------------------------------------------------------------

func (s *Service) RequestPurchase(ctx context.Context, listingID string, in PurchaseRequest) (PurchaseRequest, error) {
	listingID = strings.TrimSpace(listingID)
	in.BuyerName = strings.TrimSpace(in.BuyerName)
	if listingID == "" || in.BuyerName == "" {
		return PurchaseRequest{}, ErrInvalidInput
	}
	if in.OfferPerKg != nil && *in.OfferPerKg <= 0 {
		return PurchaseRequest{}, ErrInvalidInput
	}
	in.ListingID = listingID

	out, err := s.source.CreatePurchaseRequest(ctx, in)
	if err != nil {
		return PurchaseRequest{}, remoteErr(err)
	}
	return out, nil
}

func (s *Service) Withdraw(ctx context.Context, listingID string) error {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return ErrInvalidInput
	}
	if err := s.source.Withdraw(ctx, listingID); err != nil {
		return remoteErr(err)
	}
	s.log.Info("listing withdrawn", map[string]any{"listing_id": listingID})
	s.afterMutation(ctx)
	return nil
}

func (s *Service) MarkReserved(ctx context.Context, listingID string) (Listing, error) {
	return s.updateStatus(ctx, listingID, ListingReserved)
}

func (s *Service) MarkSold(ctx context.Context, listingID string) (Listing, error) {
	return s.updateStatus(ctx, listingID, ListingSold)
}

func (s *Service) updateStatus(ctx context.Context, listingID string, status ListingStatus) (Listing, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return Listing{}, ErrInvalidInput
	}
	l, err := s.source.UpdateStatus(ctx, listingID, status)
	if err != nil {
		return Listing{}, remoteErr(err)
	}
	s.log.Info("listing status changed", map[string]any{"listing_id": listingID, "status": string(status)})
	s.afterMutation(ctx)
	return l, nil
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

func validLocation(p geo.Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// remoteErr marca como ErrRemote todo lo que no sea un "no existe".
func remoteErr(err error) error {
	if err == nil || errors.Is(err, ErrListingNotFound) || errors.Is(err, ErrRemote) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRemote, err)
}

func herdErr(err error) error {
	if errors.Is(err, herd.ErrNotFound) {
		return ErrUnknownSubject
	}
	if errors.Is(err, herd.ErrInvalidInput) {
		return ErrInvalidInput
	}
	return err
}
