package commands

import "context"

//go:generate mockgen -source=application.go -destination=mocks/mock_application.go -package=mocks

// Application es lo que el CLI necesita del servicio.
type Application interface {
	// Serve levanta el API HTTP y bloquea hasta que ctx se cancela.
	Serve(ctx context.Context) error
	// Migrate aplica el esquema del cheptel en Postgres.
	Migrate(ctx context.Context) error
	// CompactCache borra entradas vencidas o sobrantes del cache persistente.
	CompactCache(ctx context.Context) error
}
