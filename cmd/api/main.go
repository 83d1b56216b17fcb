package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"parra-checkout/internal/config"
	"parra-checkout/internal/db"
	"parra-checkout/internal/events"
	"parra-checkout/internal/httpserver"
	"parra-checkout/internal/metrics"
	"parra-checkout/internal/payment"
	"parra-checkout/internal/redisx"
	cartrepo "parra-checkout/internal/repository/cart"
	orderrepo "parra-checkout/internal/repository/order"
	productrepo "parra-checkout/internal/repository/product"
	stockrepo "parra-checkout/internal/repository/stock"
	cartsvc "parra-checkout/internal/service/cart"
	checkoutsvc "parra-checkout/internal/service/checkout"
	"parra-checkout/internal/service/fulfillment"
	mergesvc "parra-checkout/internal/service/merge"
	reservationsvc "parra-checkout/internal/service/reservation"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	producer := events.NewProducer(cfg.KafkaBrokers, logger)
	producer.Start(workerCtx)

	checkoutMetrics := metrics.New(prometheus.DefaultRegisterer)

	stockRepo := stockrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)

	reservationService := reservationsvc.New(stockRepo, checkoutMetrics, logger)
	releaseQueue := cartsvc.NewReleaseQueue(reservationService, cfg.ReleaseQueueSize, cfg.ReleaseMaxRetries, logger)
	releaseQueue.Start(workerCtx)

	notifier := redisx.NewCartNotifier(rdb, logger)
	cartService := cartsvc.New(cartRepo, productRepo, reservationService, releaseQueue, notifier, logger)
	mergeService := mergesvc.New(cartRepo, logger)

	gateway := payment.NewClient(cfg.PaymentAPIBase, cfg.PaymentAPIKey)
	checkoutService := checkoutsvc.New(cartRepo, productRepo, gateway, logger)
	processor := fulfillment.New(orderRepo, stockRepo, gateway, producer, checkoutMetrics, cfg.PaymentWebhookSecret, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Cart:        cartService,
		Reservation: reservationService,
		Merge:       mergeService,
		Checkout:    checkoutService,
		Fulfillment: processor,
		Orders:      orderRepo,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}

	// Drain pending releases and events before exiting.
	stopWorkers()
	releaseQueue.Wait()
	producer.Close()
}
