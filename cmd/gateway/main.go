package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/auth"
	"github.com/fjod/ixplor/internal/cache"
	"github.com/fjod/ixplor/internal/config"
	h "github.com/fjod/ixplor/internal/http"
	"github.com/fjod/ixplor/internal/logger"
	"github.com/fjod/ixplor/internal/notify"
	"github.com/fjod/ixplor/internal/poller"
	"github.com/fjod/ixplor/internal/service"
	"github.com/fjod/ixplor/internal/viewport"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log := logger.New(cfg.LogLevel, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("gateway stopped")
	}
	log.Info("gateway exited")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := initTracing(log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	// Sessions
	tokens, err := auth.NewTokenStore(cfg.TokenDBPath)
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}
	defer tokens.Close()
	if err := tokens.RunMigrations(); err != nil {
		return fmt.Errorf("migrate token store: %w", err)
	}
	sessions := auth.NewManager(tokens, log)

	client := api.NewClient(api.Config{
		BaseURL:          cfg.APIBaseURL,
		Timeout:          cfg.RequestTimeout,
		RateLimit:        cfg.RateLimit,
		RateBurst:        cfg.RateBurst,
		BreakerFailures:  cfg.BreakerFailures,
		BreakerOpenDelay: cfg.BreakerOpenDelay,
	}, sessions, log)
	sessions.SetClient(client)

	// Caches
	var (
		carts  cache.CartCache = cache.NewMemoryCartCache(nil, 0)
		shared cache.VendorStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("redis ping succeeded")

		carts = cache.NewRedisCartCache(redisClient)
		shared = cache.NewRedisVendorStore(redisClient, cfg.VendorCacheTTL)
	}

	vendors := cache.NewVendorCache(client, shared, nil, cfg.VendorCacheTTL, log)
	activities := cache.NewActivityCache(client, nil, cfg.VendorCacheTTL, log)

	// Notifications
	notifier := notify.Notifier(notify.NewLogNotifier(log))
	if cfg.KafkaEnabled() {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.KafkaBrokers...)
		defer kafkaNotifier.Close()
		notifier = notify.Multi{notifier, kafkaNotifier}
	}

	// Services
	cartService := service.NewCartService(client, client, carts, notifier, sessions, log)
	recordsService := service.NewRecordsService(client, sessions, log)
	checkoutService := service.NewCheckoutService(client, cartService, log)
	nearbyService := service.NewNearbyService(vendors, activities)

	hub := viewport.NewHub[service.NearbyResult](viewport.Config{
		Debounce:      cfg.Viewport.Debounce,
		MinDistanceKm: cfg.Viewport.MinDistanceKm,
		MinZoomDelta:  cfg.Viewport.MinZoomDelta,
	}, func(ctx context.Context, v viewport.Viewport) (service.NearbyResult, error) {
		return nearbyService.Nearby(ctx, v.Center, v.RadiusMeters)
	}, cfg.Viewport.IdleTimeout, log)
	defer hub.Close()
	go hub.Run(ctx)

	if cfg.KafkaEnabled() {
		p := poller.NewPoller(vendors, log, cfg.KafkaBrokers...)
		defer p.Close()
		go p.Run(ctx)
	}

	// Setup router
	r := h.NewRouter(h.Deps{
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxRequestBodySize,
		Vendors:        vendors,
		Activities:     activities,
		Nearby:         nearbyService,
		ClearCaches: func(ctx context.Context) {
			vendors.Clear(ctx)
			activities.Clear()
		},
		Directory: client,
		Viewports: hub,
		Carts:     cartService,
		Records:   recordsService,
		Checkout:  checkoutService,
		Sessions:  sessions,
		Profiles:  client,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "ixplor-gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Admin gRPC server: health and reflection only
	lis, err := net.Listen("tcp", ":"+cfg.AdminPort)
	if err != nil {
		return fmt.Errorf("listen admin port: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	errCh := make(chan error, 2)
	go func() {
		log.WithField("port", cfg.AdminPort).Info("admin gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("admin server: %w", err)
		}
	}()
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("gateway starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown
	log.Info("shutting down server...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	grpcServer.GracefulStop()
	return nil
}

func initTracing(log logrus.FieldLogger) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	log.Info("tracing provider initialized (no exporter configured)")
	return tp
}
