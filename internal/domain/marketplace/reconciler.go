package marketplace

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"

	"herd-marketplace/internal/domain/herd"
	"herd-marketplace/internal/platform/logger"
)

// Index mapea animal-id -> anuncio activo que lo reclama. Varios animales pueden apuntar
// al mismo anuncio de lote. Es inmutable una vez construido.
type Index struct {
	byAnimal  map[string]Listing
	conflicts int
}

// BuildIndex recorre una sola vez los anuncios activos (available/reserved).
// Si dos anuncios reclaman el mismo animal gana el creado más recientemente
// (empate: el id mayor) y el conflicto se loguea.
func BuildIndex(listings []Listing, log logger.Logger) Index {
	if log == nil {
		log = logger.NewNop()
	}
	idx := Index{byAnimal: make(map[string]Listing, len(listings))}

	for _, l := range listings {
		if !l.Status.Active() || l.Subject == nil {
			continue
		}
		for _, animalID := range l.Subject.AnimalIDs() {
			if animalID == "" {
				continue
			}
			prev, claimed := idx.byAnimal[animalID]
			if !claimed {
				idx.byAnimal[animalID] = l
				continue
			}
			if prev.ID == l.ID {
				continue
			}

			idx.conflicts++
			kept, dropped := prev, l
			if newer(l, prev) {
				kept, dropped = l, prev
			}
			idx.byAnimal[animalID] = kept

			log.Warn("duplicate listing claim", map[string]any{
				"animal_id":       animalID,
				"kept_listing":    kept.ID,
				"dropped_listing": dropped.ID,
			})
		}
	}

	return idx
}

func newer(a, b Listing) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (ix Index) Lookup(animalID string) (Listing, bool) {
	l, ok := ix.byAnimal[animalID]
	return l, ok
}

func (ix Index) Len() int { return len(ix.byAnimal) }

// Conflicts es la cantidad de reclamos duplicados resueltos al construir.
func (ix Index) Conflicts() int { return ix.conflicts }

// Enrich es un lookup puro; nunca crea animales a partir de anuncios.
func (ix Index) Enrich(animals []herd.Animal) []Enrichment {
	out := make([]Enrichment, 0, len(animals))
	for _, a := range animals {
		out = append(out, ix.enrichOne(a))
	}
	return out
}

func (ix Index) enrichOne(a herd.Animal) Enrichment {
	if l, ok := ix.byAnimal[a.ID]; ok {
		st := EnrichAvailable
		if l.Status == ListingReserved {
			st = EnrichReserved
		}
		return Enrichment{AnimalID: a.ID, Status: st, ListingID: l.ID}
	}
	if a.Status == herd.StatusSold {
		return Enrichment{AnimalID: a.ID, Status: EnrichSold}
	}
	return Enrichment{AnimalID: a.ID, Status: EnrichNone}
}

// Snapshot es el resultado de un rebuild completo.
type Snapshot struct {
	Index    Index
	Listings []Listing
	BuiltAt  time.Time
}

// LoadFunc trae los anuncios activos (normalmente a través del cache).
type LoadFunc func(ctx context.Context) ([]Listing, error)

// errStaleRebuild: la carga terminó después de un Invalidate y su resultado se descarta.
var errStaleRebuild = zerr.New("marketplace rebuild superseded")

// Reconciler mantiene el último índice construido. Cada rebuild es completo, sin parches
// incrementales. Refrescos superpuestos de la misma generación se agrupan en uno solo.
type Reconciler struct {
	load LoadFunc
	log  logger.Logger
	now  func() time.Time

	// mu protege gen y la publicación del snapshot
	mu      sync.Mutex
	gen     uint64
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

func NewReconciler(load LoadFunc, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{
		load: load,
		log:  log,
		now:  time.Now,
	}
}

// Snapshot devuelve el último índice o nil si nunca se construyó.
func (r *Reconciler) Snapshot() *Snapshot {
	return r.current.Load()
}

// Current devuelve el índice vigente, construyéndolo si todavía no existe.
func (r *Reconciler) Current(ctx context.Context) (*Snapshot, error) {
	if s := r.current.Load(); s != nil {
		return s, nil
	}
	return r.Refresh(ctx)
}

// Invalidate abre una generación nueva. Una carga que empezó antes no publica su
// resultado, aunque termine después.
func (r *Reconciler) Invalidate() {
	r.mu.Lock()
	r.gen++
	r.mu.Unlock()
}

func (r *Reconciler) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// ifCurrent corre fn solo si no hubo Invalidate desde gen.
func (r *Reconciler) ifCurrent(gen uint64, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return false
	}
	fn()
	return true
}

// Refresh reconstruye el índice. Llamadas concurrentes de la misma generación comparten
// el rebuild; si la carga queda vieja se descarta y se vuelve a cargar.
func (r *Reconciler) Refresh(ctx context.Context) (*Snapshot, error) {
	for {
		gen := r.generation()
		v, err, shared := r.group.Do("rebuild-"+strconv.FormatUint(gen, 10), func() (any, error) {
			listings, err := r.load(context.WithoutCancel(ctx))
			if err != nil {
				return nil, err
			}

			s := &Snapshot{
				Index:    BuildIndex(listings, r.log),
				Listings: listings,
				BuiltAt:  r.now(),
			}
			if !r.ifCurrent(gen, func() { r.current.Store(s) }) {
				return nil, errStaleRebuild
			}
			return s, nil
		})
		if errors.Is(err, errStaleRebuild) {
			r.log.Debug("marketplace rebuild superseded", map[string]any{"generation": gen})
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			r.log.Error("marketplace reindex failed", map[string]any{"error": err})
			return nil, err
		}

		s := v.(*Snapshot)
		r.log.Debug("marketplace reindexed", map[string]any{
			"listings":  len(s.Listings),
			"claimed":   s.Index.Len(),
			"conflicts": s.Index.Conflicts(),
			"shared":    shared,
		})
		return s, nil
	}
}

// Poller dispara un refresh a intervalo fijo hasta que se lo detiene.
type Poller struct {
	interval time.Duration
	refresh  func(ctx context.Context) error
	log      logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(interval time.Duration, refresh func(ctx context.Context) error, log logger.Logger) *Poller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Poller{interval: interval, refresh: refresh, log: log}
}

// Start lanza la goroutine de polling. interval <= 0 deshabilita el poller.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 || p.done != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go p.run(ctx)
}

// Stop cancela el polling y espera a que la goroutine termine.
func (p *Poller) Stop() {
	if p.done == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.refresh(ctx); err != nil {
				p.log.Warn("marketplace poll failed", map[string]any{"error": err})
			}
		}
	}
}
