package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"herd-marketplace/internal/domain/herd"
)

type herdRepo struct {
	mu sync.RWMutex

	animals   map[string]herd.Animal
	weighings map[string][]herd.Weighing // animalID -> en orden de inserción
	batches   map[string]herd.Batch
}

func NewHerdRepo() herd.Repository {
	return &herdRepo{
		animals:   make(map[string]herd.Animal),
		weighings: make(map[string][]herd.Weighing),
		batches:   make(map[string]herd.Batch),
	}
}

func (r *herdRepo) CreateAnimal(ctx context.Context, a herd.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.animals[a.ID]; exists {
		return errors.New("animal already exists")
	}
	r.animals[a.ID] = a
	return nil
}

func (r *herdRepo) UpdateAnimal(ctx context.Context, a herd.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.animals[a.ID]; !exists {
		return herd.ErrNotFound
	}
	r.animals[a.ID] = a
	return nil
}

func (r *herdRepo) DeleteAnimal(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.animals[id]; !exists {
		return herd.ErrNotFound
	}
	delete(r.animals, id)
	delete(r.weighings, id)
	return nil
}

func (r *herdRepo) GetAnimal(ctx context.Context, id string) (herd.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.animals[id]
	if !ok {
		return herd.Animal{}, herd.ErrNotFound
	}
	return a, nil
}

func (r *herdRepo) ListAnimals(ctx context.Context, projectID string) ([]herd.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]herd.Animal, 0)
	for _, a := range r.animals {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}

	// Orden estable por created_at asc, id como desempate
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *herdRepo) AddWeighing(ctx context.Context, w herd.Weighing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(w.ID) == "" {
		return errors.New("weighing id required")
	}
	if _, ok := r.animals[w.AnimalID]; !ok {
		return herd.ErrNotFound
	}
	r.weighings[w.AnimalID] = append(r.weighings[w.AnimalID], w)
	return nil
}

func (r *herdRepo) ListWeighings(ctx context.Context, animalID string) ([]herd.Weighing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := slices.Clone(r.weighings[animalID])
	if out == nil {
		out = make([]herd.Weighing, 0)
	}
	// SliceStable: fechas iguales conservan orden de inserción
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *herdRepo) CreateBatch(ctx context.Context, b herd.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(b.ID) == "" {
		return errors.New("batch id required")
	}
	if _, exists := r.batches[b.ID]; exists {
		return errors.New("batch already exists")
	}
	b.MemberIDs = slices.Clone(b.MemberIDs)
	r.batches[b.ID] = b
	return nil
}

func (r *herdRepo) GetBatch(ctx context.Context, id string) (herd.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.batches[id]
	if !ok {
		return herd.Batch{}, herd.ErrNotFound
	}
	b.MemberIDs = slices.Clone(b.MemberIDs)
	return b, nil
}

func (r *herdRepo) ListBatches(ctx context.Context, projectID string) ([]herd.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]herd.Batch, 0)
	for _, b := range r.batches {
		if b.ProjectID == projectID {
			b.MemberIDs = slices.Clone(b.MemberIDs)
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
