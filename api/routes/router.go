package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pricesync/api/controllers"
	"github.com/angelmondragon/pricesync/api/middleware"
	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/internal/prices"
	"github.com/angelmondragon/pricesync/internal/relationships"
	"github.com/angelmondragon/pricesync/internal/settings"
	"github.com/angelmondragon/pricesync/pkg/config"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

type syncEngine interface {
	controllers.SyncEngine
	controllers.PriceRefresher
}

// RouterParams lists the dependencies of the HTTP surface. Redis may be nil.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         controllers.Pinger
	Gatherer      prometheus.Gatherer
	Catalog       catalog.Service
	Relationships relationships.Service
	Prices        prices.Service
	Settings      settings.Service
	Engine        syncEngine
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/relationships", func(r chi.Router) {
			r.Get("/", controllers.RelationshipsList(p.Relationships, logg))
			r.Post("/", controllers.RelationshipsAdd(p.Relationships, p.Engine, logg))
			r.Delete("/", controllers.RelationshipsBulkDelete(p.Relationships, p.Engine, logg))
			r.Get("/available-sources", controllers.RelationshipsAvailableSources(p.Catalog, p.Relationships, logg))
			r.Patch("/{relationshipId}/active", controllers.RelationshipsToggleActive(p.Relationships, logg))
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/", controllers.PricesList(p.Prices, logg))
			r.Get("/{slaveProductId}", controllers.PricesGet(p.Prices, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsFilter(p.Catalog, p.Relationships, logg))
			r.Delete("/{productId}", controllers.ProductsDelete(p.Catalog, logg))
			r.Get("/{productId}/price-history", controllers.ProductsPriceHistory(p.Catalog, logg))
		})

		r.Get("/categories", controllers.CategoriesList(p.Catalog, logg))

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", controllers.SyncRun(p.Engine, logg))
			r.Get("/last", controllers.SyncLast(p.Engine, logg))
			r.Post("/products/{productId}", controllers.SyncProduct(p.Engine, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/schedule", controllers.ScheduleGet(p.Settings, logg))
			r.Put("/schedule", controllers.ScheduleSave(p.Settings, logg))
		})
	})

	return r
}
