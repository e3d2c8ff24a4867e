package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshlane/marketplace-backend/api/controllers"
	"github.com/freshlane/marketplace-backend/api/middleware"
	catalogsvc "github.com/freshlane/marketplace-backend/internal/catalog"
	commissionsvc "github.com/freshlane/marketplace-backend/internal/commission"
	payoutsvc "github.com/freshlane/marketplace-backend/internal/payouts"
	pricingsvc "github.com/freshlane/marketplace-backend/internal/pricing"
	qualitysvc "github.com/freshlane/marketplace-backend/internal/quality"
	reservationsvc "github.com/freshlane/marketplace-backend/internal/reservation"
	"github.com/freshlane/marketplace-backend/pkg/config"
	"github.com/freshlane/marketplace-backend/pkg/logger"
	"github.com/freshlane/marketplace-backend/pkg/redis"
)

// Pinger is a backing-store health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the router wires into handlers.
type Services struct {
	Catalog     catalogsvc.Service
	Pricing     pricingsvc.Service
	Reservation reservationsvc.Service
	Commission  commissionsvc.Service
	Payouts     payoutsvc.Service
	Quality     qualitysvc.Service
}

// NewRouter assembles the HTTP surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Idempotency(redisClient, logg),
	)

	readyDeps := map[string]controllers.HealthPinger{
		"postgres": dbPinger,
		"redis":    redisClient,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(svcs.Catalog, logg))
		r.Get("/products/prices", controllers.GetProductPrices(svcs.Pricing, logg))
		r.Get("/products/{id}", controllers.GetProduct(svcs.Catalog, logg))
		r.Get("/products/{id}/price", controllers.GetProductPrice(svcs.Pricing, logg))
		r.Get("/sellers/{sellerId}/price-insights", controllers.GetSellerPriceInsights(svcs.Pricing, logg))

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", controllers.CreateReservations(svcs.Reservation, logg))
			r.Put("/", controllers.UpdateReservations(svcs.Reservation, logg))
			r.Delete("/expired", controllers.SweepExpiredReservations(svcs.Reservation, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Get("/offers", controllers.ListSellerOffers(svcs.Catalog, logg))
			r.Post("/offers", controllers.CreateSellerOffer(svcs.Catalog, logg))
			r.Put("/offers/{id}", controllers.UpdateSellerOffer(svcs.Catalog, logg))
			r.Get("/payouts", controllers.ListSellerPayouts(svcs.Payouts, logg))
		})

		r.Route("/complaints", func(r chi.Router) {
			r.Post("/", controllers.CreateComplaint(svcs.Quality, logg))
			r.Put("/{id}", controllers.ResolveComplaint(svcs.Quality, logg))
		})

		r.Get("/orders/{id}/net", controllers.GetOrderNet(svcs.Quality, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/commission", func(r chi.Router) {
			r.Get("/", controllers.GetCommission(svcs.Commission, logg))
			r.Put("/", controllers.UpdateCommission(svcs.Commission, logg))
			r.Get("/tiers", controllers.ListCommissionTiers(svcs.Commission, logg))
			r.Put("/tiers", controllers.UpsertCommissionTier(svcs.Commission, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(svcs.Catalog, logg))
			r.Put("/{id}", controllers.AdminUpdateProduct(svcs.Catalog, logg))
			r.Delete("/{id}", controllers.AdminDeleteProduct(svcs.Catalog, logg))
		})

		r.Put("/payouts/{id}", controllers.AdminUpdatePayout(svcs.Payouts, logg))
	})

	r.Route("/internal/v1", func(r chi.Router) {
		r.Use(middleware.InternalToken(cfg.Internal.PayoutTriggerSecret, logg))
		r.Post("/payouts/generate", controllers.GeneratePayouts(svcs.Payouts, logg))
	})

	return r
}
