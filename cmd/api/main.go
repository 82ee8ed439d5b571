package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/RogerEliel/evento-clique-digital-sub000/api/routes"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/auth"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/checkout"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/events"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/gallery"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/guests"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/mailer"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/orders"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/photos"
	stripewebhook "github.com/RogerEliel/evento-clique-digital-sub000/internal/webhooks/stripe"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/auth/session"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/config"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/metrics"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/migrate"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/redis"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/storage/gcs"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}
	checkoutClient := stripe.NewCheckoutClient(stripeClient)

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gcs client", err)
		os.Exit(1)
	}

	var inviteSender mailer.Sender
	if cfg.Mail.SMTPHost != "" {
		inviteSender, err = mailer.NewSMTPSender(cfg.Mail, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create mail sender", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "smtp host not configured, gallery invites will not be mailed")
	}

	usersRepo := auth.NewRepository(dbClient.DB())
	eventsRepo := events.NewRepository(dbClient.DB())
	guestsRepo := guests.NewRepository(dbClient.DB())
	photosRepo := photos.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		Repo:     usersRepo,
		Sessions: sessionManager,
		JWT:      cfg.JWT,
		Password: cfg.Password,
	})
	requireService(logg, "auth", err)

	eventsService, err := events.NewService(events.ServiceParams{Repo: eventsRepo})
	requireService(logg, "events", err)

	guestsService, err := guests.NewService(guests.ServiceParams{
		Repo:       guestsRepo,
		EventsRepo: eventsRepo,
		Mailer:     inviteSender,
		BaseURL:    cfg.App.BaseURL,
		InviteTTL:  cfg.Gallery.InviteTTL,
		Logger:     logg,
	})
	requireService(logg, "guests", err)

	photosService, err := photos.NewService(photos.ServiceParams{
		Repo:       photosRepo,
		EventsRepo: eventsRepo,
		Signer:     gcsClient,
		UploadTTL:  cfg.GCS.UploadURLExpiry,
	})
	requireService(logg, "photos", err)

	galleryService, err := gallery.NewService(gallery.ServiceParams{
		GuestsRepo: guestsRepo,
		EventsRepo: eventsRepo,
		PhotosRepo: photosRepo,
	})
	requireService(logg, "gallery", err)

	checkoutProvider, err := checkout.NewStripeProvider(checkoutClient, cfg.App.BaseURL)
	requireService(logg, "checkout provider", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Gallery:           galleryService,
		PhotosRepo:        photosRepo,
		OrdersRepo:        ordersRepo,
		Provider:          checkoutProvider,
		TransactionRunner: dbClient,
		DefaultPriceCents: cfg.Checkout.DefaultPhotoPriceCents,
		Currency:          cfg.Checkout.Currency,
		Logger:            logg,
	})
	requireService(logg, "checkout", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        ordersRepo,
		PhotosRepo:  photosRepo,
		Signer:      gcsClient,
		DownloadTTL: cfg.GCS.DownloadURLExpiry,
	})
	requireService(logg, "orders", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		EventsRepo:        eventsRepo,
		StripeClient:      checkoutClient,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	requireService(logg, "stripe webhook", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookReplayTTL, "stripe")
	requireService(logg, "webhook guard", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	handler := routes.NewRouter(routes.Deps{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Cache:           redisClient,
		Sessions:        sessionManager,
		AuthService:     authService,
		EventsService:   eventsService,
		GuestsService:   guestsService,
		PhotosService:   photosService,
		GalleryService:  galleryService,
		CheckoutService: checkoutService,
		OrdersService:   ordersService,
		StripeClient:    stripeClient,
		WebhookSvc:      webhookService,
		WebhookGuard:    webhookGuard,
		Registry:        registry,
		HTTPMetrics:     httpMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name+" service", err)
		os.Exit(1)
	}
}
