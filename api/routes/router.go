package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RogerEliel/evento-clique-digital-sub000/api/controllers"
	webhookcontrollers "github.com/RogerEliel/evento-clique-digital-sub000/api/controllers/webhooks"
	"github.com/RogerEliel/evento-clique-digital-sub000/api/middleware"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/auth"
	checkoutsvc "github.com/RogerEliel/evento-clique-digital-sub000/internal/checkout"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/gallery"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/guests"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/orders"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/auth/session"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/config"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/metrics"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/stripe"
)

// Deps carries everything the HTTP surface needs. Nil optional members
// (metrics registry, webhook guard) degrade the matching endpoints gracefully.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Cache    controllers.Pinger
	Sessions session.AccessSessionChecker

	AuthService     *auth.Service
	EventsService   *events.Service
	GuestsService   *guests.Service
	PhotosService   *photos.Service
	GalleryService  *gallery.Service
	CheckoutService *checkoutsvc.Service
	OrdersService   *orders.Service

	StripeClient *stripe.Client
	WebhookSvc   webhookcontrollers.StripeWebhookService
	WebhookGuard webhookcontrollers.StripeWebhookGuard

	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if d.HTTPMetrics != nil {
		r.Use(middleware.Metrics(d.HTTPMetrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Cache, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.WebhookSvc, d.StripeClient, d.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(d.AuthService, logg))
	})

	// Token-scoped guest surface. The opaque token in the path is the only
	// credential a guest ever holds.
	r.Route("/gallery/{token}", func(r chi.Router) {
		r.Get("/", controllers.GalleryView(d.GalleryService, logg))
		r.Get("/photos", controllers.GalleryPhotos(d.GalleryService, logg))
		r.Post("/checkout", controllers.CheckoutStart(d.CheckoutService, logg))
		r.Get("/orders", controllers.GalleryOrders(d.GalleryService, d.OrdersService, logg))
		r.Get("/orders/{orderId}/download", controllers.GalleryOrderDownload(d.GalleryService, d.OrdersService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.EventCreate(d.EventsService, logg))
			r.Get("/", controllers.EventList(d.EventsService, logg))
			r.Route("/{eventId}", func(r chi.Router) {
				r.Get("/", controllers.EventGet(d.EventsService, logg))
				r.Patch("/", controllers.EventUpdate(d.EventsService, logg))

				r.Route("/guests", func(r chi.Router) {
					r.Post("/", controllers.GuestInvite(d.GuestsService, logg))
					r.Get("/", controllers.GuestList(d.GuestsService, logg))
					r.Post("/{guestId}/revoke", controllers.GuestRevoke(d.GuestsService, logg))
					r.Post("/{guestId}/reinvite", controllers.GuestReinvite(d.GuestsService, logg))
				})

				r.Route("/photos", func(r chi.Router) {
					r.Post("/presign", controllers.PhotoPresign(d.PhotosService, logg))
					r.Post("/", controllers.PhotoRegister(d.PhotosService, logg))
					r.Get("/", controllers.PhotoList(d.PhotosService, logg))
				})
			})
		})

		r.Get("/orders", controllers.OrdersList(d.OrdersService, logg))
	})

	return r
}
