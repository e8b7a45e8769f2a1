package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mariet12/Electro-sub001/internal/domain/cart"
	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
	"github.com/Mariet12/Electro-sub001/internal/domain/order"
	"github.com/Mariet12/Electro-sub001/internal/handler"
	"github.com/Mariet12/Electro-sub001/internal/push"
	"github.com/Mariet12/Electro-sub001/internal/repository"
	"github.com/Mariet12/Electro-sub001/pkg/health"
	"github.com/Mariet12/Electro-sub001/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the push
// forwarder, and handles graceful shutdown. It is the single wiring point
// for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := repository.NewCatalogRepository(pool)
	bannerRepo := repository.NewBannerRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// Order number generator, seeded with every number issued so far.
	issued, err := orderRepo.Numbers(ctx)
	if err != nil {
		return errors.Wrap(err, "load order numbers")
	}
	numbers := order.NewNumberGenerator(issued)

	// Domain services.
	dispatcher := notification.NewDispatcher(notificationRepo, cfg.Notifications.Operators, lg.Named("notify"))
	cartService := cart.NewService(cartRepo, catalogRepo, bannerRepo)
	checkoutService := order.NewCheckoutService(orderRepo, cartRepo, catalogRepo, bannerRepo, numbers, dispatcher)
	lifecycleService := order.NewLifecycleService(orderRepo, dispatcher)

	// HTTP handlers.
	h := handler.New(
		catalogRepo,
		bannerRepo,
		cartService,
		checkoutService,
		lifecycleService,
		orderRepo,
		notificationRepo,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "electro-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-User-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Push forwarder. Without a configured provider notifications stay in
	// the store and only the in-app feed sees them.
	if cfg.Push.ProviderURL != "" {
		pusher := push.NewProvider(cfg.Push.ProviderURL, cfg.Push.APIKey)
		poller := push.NewPoller(notificationRepo, pusher, lg.Named("push"), cfg.Push.Interval, cfg.Push.BatchSize)
		g.Go(func() error {
			return poller.Run(gCtx)
		})
	} else {
		lg.Info("Push provider not configured, skipping push delivery")
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
