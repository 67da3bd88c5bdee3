package herd

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/zerr"

	"herd-marketplace/internal/cache"
	"herd-marketplace/internal/platform/logger"
)

var (
	ErrInvalidInput = zerr.New("invalid input")
	ErrNotFound     = zerr.New("not found")
	ErrInvalidLink  = zerr.New("invalid pedigree link")
)

// Topes por entrada de cache.
const (
	maxCachedAnimals   = 5000
	maxCachedWeighings = 500
	maxCachedBatches   = 500
)

const (
	collectionAnimals   = "animals"
	collectionWeighings = "weighings"
	collectionBatches   = "batches"
)

type Service struct {
	repo Repository

	animals   *cache.Cache[Animal]
	weighings *cache.Cache[Weighing]
	batches   *cache.Cache[Batch]

	log   logger.Logger
	now   func() time.Time
	newID func() string
}

func NewService(repo Repository, backend *cache.Backend, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:      repo,
		animals:   cache.New[Animal](backend),
		weighings: cache.New[Weighing](backend),
		batches:   cache.New[Batch](backend),
		log:       log.With(map[string]any{"component": "herd"}),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func animalsScope(projectID string) cache.Scope {
	return cache.NewScope(collectionAnimals, "project", projectID)
}

func weighingsScope(animalID string) cache.Scope {
	return cache.NewScope(collectionWeighings, "animal", animalID)
}

func batchesScope(projectID string) cache.Scope {
	return cache.NewScope(collectionBatches, "project", projectID)
}

// -------------------------
// Animals
// -------------------------

type CreateAnimalInput struct {
	Code          string
	Breed         string
	Sex           Sex
	IsBreeder     bool
	FatherID      *string
	MotherID      *string
	EntryWeightKg float64
	BirthDate     *time.Time
}

func (s *Service) CreateAnimal(ctx context.Context, projectID string, in CreateAnimalInput) (Animal, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" || strings.TrimSpace(in.Code) == "" {
		return Animal{}, ErrInvalidInput
	}
	if in.EntryWeightKg < 0 {
		return Animal{}, ErrInvalidInput
	}
	sex, ok := parseSex(in.Sex)
	if !ok {
		return Animal{}, ErrInvalidInput
	}
	fatherID := normalizeRef(in.FatherID)
	motherID := normalizeRef(in.MotherID)
	if fatherID != nil && motherID != nil && *fatherID == *motherID {
		return Animal{}, ErrInvalidLink
	}

	now := s.now()
	a := Animal{
		ID:            s.newID(),
		ProjectID:     projectID,
		Code:          strings.TrimSpace(in.Code),
		Breed:         strings.TrimSpace(in.Breed),
		Sex:           sex,
		IsBreeder:     in.IsBreeder,
		FatherID:      fatherID,
		MotherID:      motherID,
		Status:        StatusActive,
		EntryWeightKg: in.EntryWeightKg,
		BirthDate:     in.BirthDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateAnimal(ctx, a); err != nil {
		return Animal{}, err
	}
	s.animals.Invalidate(ctx, animalsScope(projectID))
	return a, nil
}

// ListAnimals devuelve todo el cheptel del proyecto (incluye archivados: el pedigrí los necesita).
func (s *Service) ListAnimals(ctx context.Context, projectID string) ([]Animal, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, ErrInvalidInput
	}
	return s.animals.GetOrLoad(ctx, animalsScope(projectID), maxCachedAnimals, func(ctx context.Context) ([]Animal, error) {
		return s.repo.ListAnimals(ctx, projectID)
	})
}

func (s *Service) GetAnimal(ctx context.Context, projectID, animalID string) (Animal, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return Animal{}, ErrInvalidInput
	}
	a, err := s.repo.GetAnimal(ctx, animalID)
	if err != nil {
		return Animal{}, err
	}
	if a.ProjectID != strings.TrimSpace(projectID) {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) ChangeStatus(ctx context.Context, projectID, animalID string, status Status) (Animal, error) {
	if !status.Valid() {
		return Animal{}, ErrInvalidInput
	}
	a, err := s.GetAnimal(ctx, projectID, animalID)
	if err != nil {
		return Animal{}, err
	}
	if a.Status == status {
		return a, nil
	}

	a.Status = status
	a.UpdatedAt = s.now()
	if err := s.repo.UpdateAnimal(ctx, a); err != nil {
		return Animal{}, err
	}
	s.animals.Invalidate(ctx, animalsScope(a.ProjectID))

	s.log.Info("animal status changed", map[string]any{
		"project_id": a.ProjectID,
		"animal_id":  a.ID,
		"status":     string(status),
	})
	return a, nil
}

// SetParents re-asigna padre/madre (raro: corrección de registro).
// Rechaza auto-referencias y ciclos directos (el padre propuesto es hijo del animal).
func (s *Service) SetParents(ctx context.Context, projectID, animalID string, fatherID, motherID *string) (Animal, error) {
	a, err := s.GetAnimal(ctx, projectID, animalID)
	if err != nil {
		return Animal{}, err
	}
	fatherID = normalizeRef(fatherID)
	motherID = normalizeRef(motherID)

	for _, ref := range []*string{fatherID, motherID} {
		if ref == nil {
			continue
		}
		if *ref == a.ID {
			return Animal{}, ErrInvalidLink
		}
		if parent, err := s.repo.GetAnimal(ctx, *ref); err == nil && a.IsParentOf(parent) {
			return Animal{}, ErrInvalidLink
		}
	}
	if fatherID != nil && motherID != nil && *fatherID == *motherID {
		return Animal{}, ErrInvalidLink
	}

	a.FatherID = fatherID
	a.MotherID = motherID
	a.UpdatedAt = s.now()
	if err := s.repo.UpdateAnimal(ctx, a); err != nil {
		return Animal{}, err
	}
	s.animals.Invalidate(ctx, animalsScope(a.ProjectID))
	return a, nil
}

// RemoveAnimal borra físicamente salvo que algún animal lo tenga como padre/madre:
// en ese caso solo marca ArchivedAt (borrado lógico) para no romper el pedigrí.
// Devuelve logical=true si fue borrado lógico.
func (s *Service) RemoveAnimal(ctx context.Context, projectID, animalID string) (logical bool, err error) {
	a, err := s.GetAnimal(ctx, projectID, animalID)
	if err != nil {
		return false, err
	}

	all, err := s.repo.ListAnimals(ctx, a.ProjectID)
	if err != nil {
		return false, err
	}
	referenced := slices.ContainsFunc(all, func(child Animal) bool {
		return child.ID != a.ID && a.IsParentOf(child)
	})

	if referenced {
		if a.ArchivedAt == nil {
			now := s.now()
			a.ArchivedAt = &now
			a.UpdatedAt = now
			if err := s.repo.UpdateAnimal(ctx, a); err != nil {
				return false, err
			}
		}
		logical = true
	} else if err := s.repo.DeleteAnimal(ctx, a.ID); err != nil {
		return false, err
	}

	s.animals.Invalidate(ctx, animalsScope(a.ProjectID))
	s.weighings.Invalidate(ctx, weighingsScope(a.ID))
	return logical, nil
}

// -------------------------
// Weighings
// -------------------------

func (s *Service) RecordWeighing(ctx context.Context, projectID, animalID string, date time.Time, weightKg float64) (Weighing, error) {
	if weightKg <= 0 {
		return Weighing{}, ErrInvalidInput
	}
	a, err := s.GetAnimal(ctx, projectID, animalID)
	if err != nil {
		return Weighing{}, err
	}

	now := s.now()
	if date.IsZero() {
		date = now
	}
	w := Weighing{
		ID:        s.newID(),
		AnimalID:  a.ID,
		Date:      date,
		WeightKg:  weightKg,
		CreatedAt: now,
	}
	if err := s.repo.AddWeighing(ctx, w); err != nil {
		return Weighing{}, err
	}
	s.weighings.Invalidate(ctx, weighingsScope(a.ID))
	return w, nil
}

// ListWeighings devuelve el historial en orden de fecha asc (inserción para empates).
// Si hay más de maxCachedWeighings se conservan las más recientes.
func (s *Service) ListWeighings(ctx context.Context, projectID, animalID string) ([]Weighing, error) {
	a, err := s.GetAnimal(ctx, projectID, animalID)
	if err != nil {
		return nil, err
	}
	return s.weighings.GetOrLoad(ctx, weighingsScope(a.ID), maxCachedWeighings, func(ctx context.Context) ([]Weighing, error) {
		ws, err := s.repo.ListWeighings(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if len(ws) > maxCachedWeighings {
			ws = ws[len(ws)-maxCachedWeighings:]
		}
		return ws, nil
	})
}

// -------------------------
// Batches
// -------------------------

type CreateBatchInput struct {
	Name            string
	MemberIDs       []string
	AverageWeightKg float64
}

// CreateBatch crea la bande y marca BatchID en cada miembro.
func (s *Service) CreateBatch(ctx context.Context, projectID string, in CreateBatchInput) (Batch, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" || strings.TrimSpace(in.Name) == "" || in.AverageWeightKg < 0 {
		return Batch{}, ErrInvalidInput
	}

	members := dedupe(in.MemberIDs)
	if len(members) == 0 {
		return Batch{}, ErrInvalidInput
	}

	animals := make([]Animal, 0, len(members))
	for _, id := range members {
		a, err := s.GetAnimal(ctx, projectID, id)
		if errors.Is(err, ErrNotFound) {
			return Batch{}, ErrInvalidInput
		}
		if err != nil {
			return Batch{}, err
		}
		animals = append(animals, a)
	}

	now := s.now()
	b := Batch{
		ID:              s.newID(),
		ProjectID:       projectID,
		Name:            strings.TrimSpace(in.Name),
		MemberIDs:       members,
		AverageWeightKg: in.AverageWeightKg,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateBatch(ctx, b); err != nil {
		return Batch{}, err
	}

	for _, a := range animals {
		batchID := b.ID
		a.BatchID = &batchID
		a.UpdatedAt = now
		if err := s.repo.UpdateAnimal(ctx, a); err != nil {
			s.log.Warn("batch member update failed", map[string]any{
				"batch_id":  b.ID,
				"animal_id": a.ID,
				"err":       err,
			})
		}
	}

	s.batches.Invalidate(ctx, batchesScope(projectID))
	s.animals.Invalidate(ctx, animalsScope(projectID))
	return b, nil
}

func (s *Service) ListBatches(ctx context.Context, projectID string) ([]Batch, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, ErrInvalidInput
	}
	return s.batches.GetOrLoad(ctx, batchesScope(projectID), maxCachedBatches, func(ctx context.Context) ([]Batch, error) {
		return s.repo.ListBatches(ctx, projectID)
	})
}

func (s *Service) GetBatch(ctx context.Context, projectID, batchID string) (Batch, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return Batch{}, ErrInvalidInput
	}
	b, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return Batch{}, err
	}
	if b.ProjectID != strings.TrimSpace(projectID) {
		return Batch{}, ErrNotFound
	}
	return b, nil
}

func parseSex(in Sex) (Sex, bool) {
	switch Sex(strings.ToLower(strings.TrimSpace(string(in)))) {
	case "":
		return SexUnknown, true
	case SexMale:
		return SexMale, true
	case SexFemale:
		return SexFemale, true
	case SexUnknown:
		return SexUnknown, true
	}
	return "", false
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := strings.TrimSpace(*ref)
	if v == "" {
		return nil
	}
	return &v
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
