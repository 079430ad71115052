package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/couponvault/couponvault/docs" // Swagger docs (generated)
	"github.com/couponvault/couponvault/internal/auth"
	"github.com/couponvault/couponvault/internal/config"
	"github.com/couponvault/couponvault/internal/coupon"
	"github.com/couponvault/couponvault/internal/database"
	httpServer "github.com/couponvault/couponvault/internal/http"
	"github.com/couponvault/couponvault/internal/logging"
	"github.com/couponvault/couponvault/internal/user"
)

// @title           CouponVault API
// @version         1.0
// @description     Bearer-token authentication and exclusive claiming of a shared pool of expiring coupons.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)
	if cfg.Auth.UsesDevSecret() {
		logger.Warn("TOKEN_SECRET not set, using insecure development key")
	}

	// The signing key and the connection pool are created once here and
	// passed down read-only; nothing else is shared process-wide
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	pasetoService, err := auth.NewPasetoService(cfg.Auth.TokenSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	userRepo := user.NewRepository(db)
	couponRepo := coupon.NewRepository(db)

	authService := auth.NewService(userRepo, pasetoService, cfg.Auth.TokenDuration)
	couponService := coupon.NewService(couponRepo)

	authHandler := auth.NewHandler(authService)
	couponHandler := coupon.NewHandler(couponService)
	authMiddleware := auth.NewMiddleware(pasetoService, userRepo)

	router := httpServer.NewRouter(cfg, authHandler, couponHandler, authMiddleware, logger)

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
