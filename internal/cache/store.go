package cache

import "context"

// Store es el key-value store persistente que respalda el cache.
// Claves y payloads son strings; los adapters deben ser seguros para uso concurrente.
type Store interface {
	// Get devuelve (value, true, nil) si existe, ("", false, nil) si no.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) error
	ListKeys(ctx context.Context) ([]string, error)
}
