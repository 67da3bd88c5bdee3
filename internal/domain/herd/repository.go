package herd

import "context"

type Repository interface {
	CreateAnimal(ctx context.Context, a Animal) error
	UpdateAnimal(ctx context.Context, a Animal) error
	DeleteAnimal(ctx context.Context, id string) error
	GetAnimal(ctx context.Context, id string) (Animal, error)
	ListAnimals(ctx context.Context, projectID string) ([]Animal, error)

	// AddWeighing es append-only; ListWeighings devuelve orden de fecha asc,
	// y orden de inserción para fechas iguales.
	AddWeighing(ctx context.Context, w Weighing) error
	ListWeighings(ctx context.Context, animalID string) ([]Weighing, error)

	CreateBatch(ctx context.Context, b Batch) error
	GetBatch(ctx context.Context, id string) (Batch, error)
	ListBatches(ctx context.Context, projectID string) ([]Batch, error)
}
