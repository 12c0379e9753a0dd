package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/streamkart/storefront/internal/broadcast"
	"github.com/streamkart/storefront/internal/catalog"
	"github.com/streamkart/storefront/internal/checkout"
	"github.com/streamkart/storefront/internal/config"
	"github.com/streamkart/storefront/internal/controller"
	"github.com/streamkart/storefront/internal/guestcart"
	"github.com/streamkart/storefront/internal/httpapi"
	"github.com/streamkart/storefront/internal/orders"
	"github.com/streamkart/storefront/internal/publisher"
	"github.com/streamkart/storefront/internal/repository"
	"github.com/streamkart/storefront/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("storefront exited")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Log.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "storefront").Logger()
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := &repository.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	catalogRepo, err := catalog.NewRepository(cfg.Catalog.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		return fmt.Errorf("run catalog migrations: %w", err)
	}

	broadcaster, err := newBroadcaster(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(repo.DB(), logger)

	cartSvc := service.NewCartService(repo, logger)
	guestStore := guestcart.NewFileStore(cfg.GuestCartPath, catalogRepo, logger)
	guestSvc := service.NewCartService(guestStore, logger)

	userControllers := controller.NewRegistry(cartSvc, broadcaster, logger)
	defer userControllers.Close()
	guestControllers := controller.NewRegistry(guestSvc, broadcaster, logger)
	defer guestControllers.Close()

	// Checkout is authenticated-only, so it always reads the user-backed carts.
	checkoutSvc := checkout.NewService(cartSvc, ordersRepo, logger)

	if len(cfg.Kafka.Brokers) > 0 {
		writer := publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		defer writer.Close()
		poller := publisher.NewOutboxPoller(ordersRepo, writer, logger)
		go poller.Run(ctx)
	} else {
		logger.Warn().Msg("no kafka brokers configured, order events stay in the outbox")
	}

	requestTimeout := time.Duration(cfg.HTTPServer.RequestTimeout) * time.Second
	router := httpapi.NewRouter(
		httpapi.RouterConfig{
			JWTSecret:      cfg.Auth.JWTSecret,
			RequestTimeout: requestTimeout,
		},
		httpapi.Handlers{
			Cart:     httpapi.NewCartHandler(&controllerRouter{users: userControllers, guests: guestControllers}, catalogRepo),
			Checkout: httpapi.NewCheckoutHandler(checkoutSvc),
			Orders:   httpapi.NewOrdersHandler(ordersRepo),
			Catalog:  httpapi.NewCatalogHandler(catalogRepo),
			Admin:    httpapi.NewAdminHandler(ordersRepo, catalogRepo, 5*time.Second),
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  2 * requestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func newBroadcaster(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (broadcast.Broadcaster, error) {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("no redis configured, cart updates broadcast in-process only")
		return broadcast.NewMemoryHub(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return broadcast.NewRedisBroadcaster(client, logger), nil
}

// controllerRouter sends guest traffic to the file-backed cart and
// everyone else to Postgres.
type controllerRouter struct {
	users  *controller.Registry
	guests *controller.Registry
}

func (r *controllerRouter) For(userID string) *controller.Controller {
	if userID == guestcart.GuestUserID {
		return r.guests.For(userID)
	}
	return r.users.For(userID)
}
