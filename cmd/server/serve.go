package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/storefront/internal/config"
	"github.com/Lixing-Zhang/storefront/internal/coupon"
	"github.com/Lixing-Zhang/storefront/internal/handlers"
	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/internal/storage"
)

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("starting storefront api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
	)

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// Coupon lists are optional. An empty validator rejects every code.
	coupons := coupon.NewValidator()
	if len(cfg.Coupon.Files) > 0 {
		log.Info("loading coupon data...", "sources", len(cfg.Coupon.Files))
		if err := coupons.Load(ctx, cfg.Coupon.Files); err != nil {
			return fmt.Errorf("failed to load coupon data: %w", err)
		}
		stats := coupons.GetStats()
		log.Info("coupon data loaded successfully",
			"total_files", stats["total_files"],
			"total_coupons", stats["total_coupons"],
		)
	} else {
		log.Warn("COUPON_FILES not set, all discount codes will be rejected")
	}

	images, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("configure image storage: %w", err)
	}

	var checkouts service.CheckoutProvider
	if cfg.Polar.AccessToken != "" {
		checkouts = payment.NewClient(cfg.Polar.APIURL, cfg.Polar.AccessToken)
	} else {
		log.Warn("POLAR_ACCESS_TOKEN not set, checkout is disabled")
	}

	var verifier *payment.Verifier
	if cfg.Polar.WebhookSecret != "" {
		if verifier, err = payment.NewVerifier(cfg.Polar.WebhookSecret); err != nil {
			return fmt.Errorf("configure webhook verifier: %w", err)
		}
	} else {
		log.Warn("POLAR_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	// Initialize services
	auth := service.NewAuthService(store.Profiles, cfg.Auth)
	products := service.NewProductService(store.Products, store.Categories, images)
	orders := service.NewOrderService(store.Orders)
	checkout := service.NewCheckoutService(store, checkouts, coupons, cfg.Polar.SuccessURL, log)

	api := &handlers.API{
		Health:     handlers.NewHealthHandler(store, log),
		Auth:       handlers.NewAuthHandler(auth, store.Addresses, log),
		Products:   handlers.NewProductHandler(products, log),
		Categories: handlers.NewCategoryHandler(service.NewCategoryService(store.Categories), log),
		Reviews:    handlers.NewReviewHandler(service.NewReviewService(store.Reviews, store.Products), log),
		Cart:       handlers.NewCartHandler(service.NewCartService(store), log),
		Orders:     handlers.NewOrderHandler(orders, checkout, auth, log),
		Coupons:    handlers.NewCouponHandler(coupons, log),
		Webhooks:   handlers.NewWebhookHandler(verifier, service.NewWebhookService(store, log), log),
		Tokens:     auth,
		Profiles:   auth,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	api.Register(r)

	if local, ok := images.(*storage.LocalStore); ok {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir()))))
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}
