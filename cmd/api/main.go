package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prithwi32/Ecommerce-Backend/internal/cart"
	"github.com/Prithwi32/Ecommerce-Backend/internal/catalog"
	"github.com/Prithwi32/Ecommerce-Backend/internal/config"
	"github.com/Prithwi32/Ecommerce-Backend/internal/db"
	"github.com/Prithwi32/Ecommerce-Backend/internal/events"
	"github.com/Prithwi32/Ecommerce-Backend/internal/httpapi"
	"github.com/Prithwi32/Ecommerce-Backend/internal/order"
	"github.com/Prithwi32/Ecommerce-Backend/internal/payment"
	"github.com/Prithwi32/Ecommerce-Backend/internal/redisx"
	"github.com/Prithwi32/Ecommerce-Backend/internal/stock"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	// --- Redis ---
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// --- AMQP ---
	conn := events.MustDial(cfg.RabbitURL)
	defer conn.Close()

	publisher, err := events.NewPublisher(conn)
	if err != nil {
		logger.Fatalf("events publisher: %v", err)
	}
	defer publisher.Close()

	// --- wiring ---
	productRepo := catalog.NewPostgresRepository(pool)
	cartRepo := cart.NewPostgresRepository(pool)
	orderRepo := order.NewPostgresRepository(pool)
	ledger := stock.NewLedger()

	cartSvc := cart.NewService(cartRepo, productRepo)
	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	orderSvc := order.NewService(pool, orderRepo, productRepo, ledger, gateway, cartSvc, publisher, logger)
	reconciler := payment.NewReconciler(cfg.RazorpayKeySecret, orderSvc, redisx.NewPaymentStore(rdb), logger)

	// --- HTTP ---
	router := httpapi.NewRouter(cartSvc, orderSvc, reconciler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	logger.Printf("shutdown complete")
}
