// Package cache implementa un cache read-through/write-through con TTL fijo
// y tamaño acotado, respaldado por un key-value store.
//
// El cache es una optimización, no fuente de verdad: cualquier error del store
// (I/O, payload corrupto) se trata como miss y se loguea, nunca se devuelve.
package cache

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"herd-marketplace/internal/platform/logger"
)

const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 20
	DefaultMaxItems   = 500
)

type Options struct {
	TTL        time.Duration
	MaxEntries int // techo global de entradas (todas las colecciones)
	MaxItems   int // tope por entrada cuando Set recibe maxItems <= 0
	Logger     logger.Logger
	Now        func() time.Time
}

// Backend es el estado compartido por todos los Cache[T]: store, TTL y techo global.
// Es el singleton de proceso; los tests lo crean con un store en memoria.
type Backend struct {
	store      Store
	ttl        time.Duration
	maxEntries int
	maxItems   int
	log        logger.Logger
	now        func() time.Time
}

func NewBackend(store Store, opts Options) *Backend {
	b := &Backend{
		store:      store,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		maxItems:   opts.MaxItems,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if b.ttl <= 0 {
		b.ttl = DefaultTTL
	}
	if b.maxEntries <= 0 {
		b.maxEntries = DefaultMaxEntries
	}
	if b.maxItems <= 0 {
		b.maxItems = DefaultMaxItems
	}
	if b.log == nil {
		b.log = logger.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.log = b.log.With(map[string]any{"component": "cache"})
	return b
}

func (b *Backend) TTL() time.Duration { return b.ttl }

// header es la parte de la entrada que no depende de T (compactación).
type header struct {
	Scope     Scope     `json:"scope"`
	WrittenAt time.Time `json:"written_at"`
}

type entry[T any] struct {
	Scope     Scope     `json:"scope"`
	WrittenAt time.Time `json:"written_at"`
	Payload   []T       `json:"payload"`
}

// Cache es la vista tipada sobre un Backend.
type Cache[T any] struct {
	b *Backend
}

func New[T any](b *Backend) *Cache[T] {
	return &Cache[T]{b: b}
}

// Get devuelve el payload si la entrada existe, no venció (edad <= TTL)
// y su scope coincide con el pedido. Si no, la elimina y devuelve miss.
// Check-then-evict no es atómico: dos llamadas pueden evictar la misma clave, es idempotente.
func (c *Cache[T]) Get(ctx context.Context, scope Scope) ([]T, bool) {
	key := scope.Key()

	raw, ok, err := c.b.store.Get(ctx, key)
	if err != nil {
		c.b.log.Warn("cache read failed", map[string]any{"key": key, "err": err})
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var e entry[T]
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.b.log.Warn("cache entry corrupt, evicting", map[string]any{"key": key, "err": err})
		c.b.evict(ctx, key)
		return nil, false
	}

	if !e.Scope.Equal(scope) {
		c.b.log.Warn("cache scope mismatch, evicting", map[string]any{"key": key})
		c.b.evict(ctx, key)
		return nil, false
	}

	if c.b.now().Sub(e.WrittenAt) > c.b.ttl {
		c.b.log.Debug("cache entry expired", map[string]any{"key": key})
		c.b.evict(ctx, key)
		return nil, false
	}

	return e.Payload, true
}

// Set guarda payload (truncado a maxItems) con timestamp nuevo y luego compacta.
// maxItems <= 0 usa el tope por defecto del backend.
func (c *Cache[T]) Set(ctx context.Context, scope Scope, payload []T, maxItems int) {
	if maxItems <= 0 {
		maxItems = c.b.maxItems
	}
	if len(payload) > maxItems {
		payload = payload[:maxItems]
	}
	if payload == nil {
		payload = []T{}
	}

	key := scope.Key()
	raw, err := json.Marshal(entry[T]{
		Scope:     scope,
		WrittenAt: c.b.now(),
		Payload:   payload,
	})
	if err != nil {
		c.b.log.Warn("cache marshal failed", map[string]any{"key": key, "err": err})
		return
	}

	if err := c.b.store.Set(ctx, key, string(raw)); err != nil {
		c.b.log.Warn("cache write failed", map[string]any{"key": key, "err": err})
		return
	}

	c.b.Compact(ctx)
}

// GetOrLoad es el camino read-through: hit => cache; miss => load + Set.
// Los errores de load (remotos) se devuelven tal cual; no hay reintentos.
func (c *Cache[T]) GetOrLoad(ctx context.Context, scope Scope, maxItems int, load func(ctx context.Context) ([]T, error)) ([]T, error) {
	if v, ok := c.Get(ctx, scope); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, scope, v, maxItems)
	if maxItems <= 0 {
		maxItems = c.b.maxItems
	}
	if len(v) > maxItems {
		v = v[:maxItems]
	}
	return v, nil
}

// Invalidate elimina la entrada del scope. Se usa después de mutaciones locales.
func (c *Cache[T]) Invalidate(ctx context.Context, scope Scope) {
	c.b.evict(ctx, scope.Key())
}

// InvalidatePrefix elimina todas las entradas cuya clave (sin KeyPrefix) empieza con prefix.
func (c *Cache[T]) InvalidatePrefix(ctx context.Context, prefix string) {
	c.b.InvalidatePrefix(ctx, prefix)
}

func (b *Backend) InvalidatePrefix(ctx context.Context, prefix string) {
	keys, err := b.store.ListKeys(ctx)
	if err != nil {
		b.log.Error("cache list keys failed", map[string]any{"prefix": prefix, "err": err})
		return
	}

	full := KeyPrefix + prefix
	matched := make([]string, 0)
	for _, k := range keys {
		if strings.HasPrefix(k, full) {
			matched = append(matched, k)
		}
	}
	if len(matched) == 0 {
		return
	}
	if err := b.store.RemoveMany(ctx, matched); err != nil {
		b.log.Error("cache invalidate prefix failed", map[string]any{"prefix": prefix, "err": err})
	}
}

// Compact evicta las entradas vencidas y luego las más viejas (por written_at) que exceden
// el techo global. Las lecturas no refrescan recencia. Entradas ilegibles se eliminan siempre.
func (b *Backend) Compact(ctx context.Context) {
	keys, err := b.store.ListKeys(ctx)
	if err != nil {
		b.log.Warn("cache compaction skipped", map[string]any{"err": err})
		return
	}

	type tracked struct {
		key       string
		writtenAt time.Time
	}

	now := b.now()
	live := make([]tracked, 0, len(keys))
	drop := make([]string, 0)

	for _, k := range keys {
		if !strings.HasPrefix(k, KeyPrefix) {
			continue
		}
		raw, ok, err := b.store.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		var h header
		if err := json.Unmarshal([]byte(raw), &h); err != nil {
			drop = append(drop, k)
			continue
		}
		if now.Sub(h.WrittenAt) > b.ttl {
			drop = append(drop, k)
			continue
		}
		live = append(live, tracked{key: k, writtenAt: h.WrittenAt})
	}

	if excess := len(live) - b.maxEntries; excess > 0 {
		slices.SortStableFunc(live, func(x, y tracked) int {
			if c := x.writtenAt.Compare(y.writtenAt); c != 0 {
				return c
			}
			return cmp.Compare(x.key, y.key)
		})
		for _, t := range live[:excess] {
			drop = append(drop, t.key)
		}
	}

	if len(drop) == 0 {
		return
	}
	if err := b.store.RemoveMany(ctx, drop); err != nil {
		b.log.Warn("cache compaction failed", map[string]any{"err": err, "keys": len(drop)})
		return
	}
	b.log.Debug("cache compacted", map[string]any{"evicted": len(drop)})
}

func (b *Backend) evict(ctx context.Context, key string) {
	if err := b.store.Remove(ctx, key); err != nil {
		b.log.Error("cache evict failed", map[string]any{"key": key, "err": err})
	}
}
