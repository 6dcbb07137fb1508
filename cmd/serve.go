package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Tijndh/Mallow/internal/cache"
	"github.com/Tijndh/Mallow/internal/catalog"
	"github.com/Tijndh/Mallow/internal/config"
	h "github.com/Tijndh/Mallow/internal/http"
	"github.com/Tijndh/Mallow/internal/metrics"
	"github.com/Tijndh/Mallow/internal/notifier"
	"github.com/Tijndh/Mallow/internal/provider"
	"github.com/Tijndh/Mallow/internal/publisher"
	"github.com/Tijndh/Mallow/internal/repository"
	s "github.com/Tijndh/Mallow/internal/service"
)

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(dctx); err != nil {
			log.Printf("mongo disconnect error: %v", err)
		}
	}()
	log.Printf("connected to MongoDB database %s", cfg.MongoDBName)

	if err := repository.CreateIndexes(ctx, mongoDB); err != nil {
		return err
	}

	var (
		cartCache cache.CartCache    = cache.NoopCache{}
		deduper   cache.EventDeduper = cache.NoopDeduper{}
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
		log.Printf("redis ping succeeded")
		cartCache = cache.NewRedisCache(redisClient)
		deduper = cache.NewRedisDeduper(redisClient, cache.DefaultDedupTTL)
	} else {
		log.Printf("REDIS_ADDR not set, cart cache and webhook dedup disabled")
	}

	var pub publisher.Publisher = publisher.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := publisher.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer kp.Close()
		pub = kp
		log.Printf("publishing payment events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}

	var mailer notifier.Notifier = notifier.LogNotifier{}
	if cfg.SendGridAPIKey != "" {
		sg, err := notifier.NewSendGridNotifier(notifier.SendGridConfig{
			APIKey:   cfg.SendGridAPIKey,
			From:     cfg.ContactFromEmail,
			FromName: cfg.ContactFromName,
			To:       cfg.ContactInboxEmail,
		})
		if err != nil {
			return err
		}
		mailer = sg
	}

	var checkoutProvider provider.CheckoutProvider
	switch cfg.PaymentProvider {
	case config.ProviderFake:
		log.Printf("using fake payment provider")
		checkoutProvider = provider.NewFake(cfg.FakeWebhookSecret, provider.RandomOutcome{})
	default:
		checkoutProvider = provider.NewStripe(provider.StripeConfig{
			APIKey:        cfg.StripeAPIKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		})
	}
	checkoutProvider = provider.NewBreaker(checkoutProvider, provider.DefaultBreakerSettings(cfg.PaymentProvider))

	srvMetrics := metrics.NewServerMetrics("api", nil)

	shop := catalog.Default()
	cartService := s.NewCartService(repository.NewMongoCartRepository(mongoDB), cartCache, shop)
	checkoutService := s.NewCheckoutService(
		cartService,
		repository.NewMongoPaymentRepository(mongoDB),
		checkoutProvider,
		deduper,
		pub,
		s.CheckoutConfig{
			Currency:      cfg.Currency,
			PublicBaseURL: cfg.PublicBaseURL,
			Description:   cfg.CheckoutDescription,
		},
	).WithObserver(srvMetrics)
	contactService := s.NewContactService(repository.NewMongoContactRepository(mongoDB), mailer)

	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(shop),
		Carts:    h.NewCartHandler(cartService, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout),
		Contact:  h.NewContactHandler(contactService, cfg.RequestTimeout),
	}, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CORSOrigins:        cfg.CORSOrigins,
		Metrics:            srvMetrics,
		MetricsHandler:     metrics.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "mallow-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Mallow API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	case <-ctx.Done():
	}

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
