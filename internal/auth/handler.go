package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/couponvault/couponvault/internal/httputil"
	"github.com/couponvault/couponvault/internal/logging"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token; empty on failure
type LoginResponse struct {
	Token string `json:"token"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a user account. Registering an existing email returns that account unchanged. The first account ever created is the admin.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      201 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	u, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailRequired) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordRequired) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidEmailFormat) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered", "user_id", u.ID, "is_admin", u.IsAdmin)

	httputil.RespondJSON(w, UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive a short-lived bearer token. Unknown email and wrong password are indistinguishable.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	// One generic rejection for every failure cause
	if token == "" {
		logger.Warn("login rejected", "email", req.Email)
		httputil.RespondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		return
	}

	logger.Info("user logged in", "email", req.Email)
	httputil.RespondJSON(w, LoginResponse{Token: token}, http.StatusOK)
}

// Me returns the authenticated user, or null for anonymous callers
// @Summary      Current user
// @Description  Returns the account behind the presented token, or null when no valid token was sent.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondJSON(w, nil, http.StatusOK)
		return
	}

	u, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("failed to load current user", "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if u == nil {
		httputil.RespondJSON(w, nil, http.StatusOK)
		return
	}

	httputil.RespondJSON(w, UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}, http.StatusOK)
}
