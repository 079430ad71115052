package http

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/couponvault/couponvault/internal/auth"
	"github.com/couponvault/couponvault/internal/config"
	"github.com/couponvault/couponvault/internal/coupon"
	"github.com/couponvault/couponvault/internal/httputil"
	"github.com/couponvault/couponvault/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	couponHandler *coupon.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	// Every route sees Authenticate so anonymous and identified callers
	// share one resolution path; the role requirements come per group
	r.Use(authMiddleware.Authenticate)

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/me", authHandler.Me)
	})

	// Coupon routes
	r.Route("/coupons", func(r chi.Router) {
		// Public reads
		r.Get("/", couponHandler.List)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireUser)
			r.Get("/mine", couponHandler.Mine)
			r.Post("/{code}/claim", couponHandler.Claim)
			r.Post("/{code}/release", couponHandler.Release)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireUser)
			r.Use(authMiddleware.RequireAdmin)
			r.Post("/", couponHandler.Create)
			r.Patch("/{code}", couponHandler.Update)
			r.Delete("/{code}", couponHandler.Delete)
		})

		// Registered after /mine so the literal route wins
		r.Get("/{code}", couponHandler.Get)
	})

	// Bearer-gated end-to-end check of the token path
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireUser)
		r.Get("/secret", handleSecret)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

// handleSecret acknowledges a valid bearer token by naming its subject,
// independent of the coupon surface
// @Summary      Token check
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /secret [get]
func handleSecret(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	httputil.RespondJSON(w, map[string]string{
		"message": fmt.Sprintf("Welcome, user %s. This is the locked page.", userID),
	}, http.StatusOK)
}
