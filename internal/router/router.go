package router

import (
	"database/sql"
	"net/http"

	"herd-marketplace/internal/adapters/marketplace/remote"
	mem "herd-marketplace/internal/adapters/storage/memory"
	pg "herd-marketplace/internal/adapters/storage/postgres"
	"herd-marketplace/internal/cache"
	_ "herd-marketplace/internal/docs"
	"herd-marketplace/internal/domain/herd"
	"herd-marketplace/internal/domain/marketplace"
	"herd-marketplace/internal/domain/pedigree"
	"herd-marketplace/internal/middleware"
	"herd-marketplace/internal/platform/config"
	"herd-marketplace/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Config config.Config
	Logger logger.Logger // nil => Nop

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: store del cache (sqlite). Si no, in-memory.
	KVStore cache.Store

	// Opcional: fuente de anuncios. Si no, cliente remoto según Config.Marketplace.
	Source marketplace.ListingSource
}

// App expone lo que main necesita además del handler (poller de refresh).
type App struct {
	Handler     http.Handler
	Herd        *herd.Service
	Marketplace *marketplace.Service
}

func New(opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var store cache.Store = mem.NewKVStore()
	if opts.KVStore != nil {
		store = opts.KVStore
	}
	backend := cache.NewBackend(store, cache.Options{
		TTL:        opts.Config.Cache.TTL,
		MaxEntries: opts.Config.Cache.MaxEntries,
		Logger:     log,
	})

	var herdRepo herd.Repository
	if opts.DB != nil {
		herdRepo = pg.NewHerdRepo(opts.DB)
	} else {
		herdRepo = mem.NewHerdRepo()
	}

	source := opts.Source
	if source == nil {
		mc := opts.Config.Marketplace
		client, err := remote.NewClient(remote.Config{
			BaseURL:  mc.BaseURL,
			APIKey:   mc.APIKey,
			Timeout:  mc.Timeout,
			PageSize: mc.ListingsMaxItems,
		}, log)
		if err != nil {
			return nil, err
		}
		if !client.IsConfigured() {
			log.Warn("marketplace client not configured", map[string]any{"base_url": mc.BaseURL})
		}
		source = client
	}

	// Services por módulo
	herdSvc := herd.NewService(herdRepo, backend, log)
	marketSvc := marketplace.NewService(source, herdSvc, backend, marketplace.Options{
		MaxListings: opts.Config.Marketplace.ListingsMaxItems,
		Logger:      log,
	})

	// Rutas por módulo
	herd.RegisterRoutes(r, herdSvc)
	pedigree.RegisterRoutes(r, herdSvc)
	marketplace.RegisterRoutes(r, marketSvc)

	return &App{Handler: r, Herd: herdSvc, Marketplace: marketSvc}, nil
}

// NewRouter arma el handler con defaults in-memory; falla solo si la config del
// marketplace es inválida.
func NewRouter(opts Options) (http.Handler, error) {
	app, err := New(opts)
	if err != nil {
		return nil, err
	}
	return app.Handler, nil
}
