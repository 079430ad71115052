package coupon

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/couponvault/couponvault/internal/auth"
	"github.com/couponvault/couponvault/internal/httputil"
	"github.com/couponvault/couponvault/internal/logging"
)

// Handler contains HTTP handlers for coupon endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateRequest represents the coupon creation request body
type CreateRequest struct {
	Code          string     `json:"code"`
	Description   string     `json:"description"`
	Service       string     `json:"service"`
	ExpiresInDays int        `json:"expires_in_days"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
}

// UpdateRequest represents a partial coupon update. Omitted fields are left
// unchanged. Setting owner_id assigns an owner; clear_owner without owner_id
// clears it; giving neither leaves the owner alone.
type UpdateRequest struct {
	Description   *string    `json:"description,omitempty"`
	Service       *string    `json:"service,omitempty"`
	ExpiresInDays *int       `json:"expires_in_days,omitempty"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
	ClearOwner    bool       `json:"clear_owner,omitempty"`
}

// List handles the public coupon listing
// @Summary      List coupons
// @Description  All coupons newest first. active=false includes expired ones.
// @Tags         coupons
// @Produce      json
// @Param        active query bool false "Only unexpired coupons (default true)"
// @Success      200 {array} Coupon
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /coupons [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"

	coupons, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("failed to list coupons", "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, coupons, http.StatusOK)
}

// Get handles fetching a single coupon by code
// @Summary      Get coupon
// @Tags         coupons
// @Produce      json
// @Param        code path string true "Coupon code"
// @Success      200 {object} Coupon
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /coupons/{code} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	c, err := h.service.Get(r.Context(), code)
	if err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("failed to get coupon", "code", code, "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if c == nil {
		httputil.RespondError(w, "coupon not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	httputil.RespondJSON(w, c, http.StatusOK)
}

// Mine lists the caller's active owned coupons
// @Summary      My coupons
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Coupon
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /coupons/mine [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	coupons, err := h.service.ListOwned(r.Context(), userID)
	if err != nil {
		logger := logging.GetLoggerFromContext(r.Context())
		logger.Error("failed to list owned coupons", "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, coupons, http.StatusOK)
}

// Claim handles the atomic claim of an unowned, unexpired coupon
// @Summary      Claim coupon
// @Description  Exactly one of any number of concurrent claims wins. The failure response does not say whether the code was missing, owned or expired.
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Coupon code"
// @Success      200 {object} Coupon
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      409 {object} httputil.ErrorResponse "Coupon unavailable"
// @Router       /coupons/{code}/claim [post]
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	code := chi.URLParam(r, "code")
	userID, _ := auth.GetUserIDFromContext(r.Context())

	c, err := h.service.Claim(r.Context(), code, userID)
	if err != nil {
		logger.Error("claim failed: internal error", "code", code, "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if c == nil {
		logger.Info("claim rejected", "code", code, "user_id", userID)
		httputil.RespondError(w, "coupon unavailable", httputil.CodeCouponUnavailable, http.StatusConflict)
		return
	}

	logger.Info("coupon claimed", "code", code, "user_id", userID)
	httputil.RespondJSON(w, c, http.StatusOK)
}

// Release handles giving a claimed coupon back
// @Summary      Release coupon
// @Tags         coupons
// @Security     BearerAuth
// @Param        code path string true "Coupon code"
// @Success      204 "Released"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      409 {object} httputil.ErrorResponse "Coupon unavailable"
// @Router       /coupons/{code}/release [post]
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	code := chi.URLParam(r, "code")
	userID, _ := auth.GetUserIDFromContext(r.Context())

	ok, err := h.service.Release(r.Context(), code, userID)
	if err != nil {
		logger.Error("release failed: internal error", "code", code, "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if !ok {
		logger.Info("release rejected", "code", code, "user_id", userID)
		httputil.RespondError(w, "coupon unavailable", httputil.CodeCouponUnavailable, http.StatusConflict)
		return
	}

	logger.Info("coupon released", "code", code, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// Create handles admin coupon creation
// @Summary      Create coupon
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Coupon"
// @Success      201 {object} Coupon
// @Failure      400 {object} httputil.ErrorResponse "Invalid request"
// @Failure      403 {object} httputil.ErrorResponse "Admin required"
// @Failure      409 {object} httputil.ErrorResponse "Code already exists"
// @Router       /coupons [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		httputil.RespondError(w, "code is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	c, err := h.service.Create(r.Context(), req.Code, req.Description, req.Service, req.ExpiresInDays, req.OwnerID)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			logger.Warn("create rejected: duplicate code", "code", req.Code)
			httputil.RespondError(w, "coupon code already exists", httputil.CodeCouponExists, http.StatusConflict)
			return
		}
		if errors.Is(err, ErrInvalidExpiry) {
			httputil.RespondError(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return
		}
		logger.Error("create failed: internal error", "code", req.Code, "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("coupon created", "code", c.Code)
	httputil.RespondJSON(w, c, http.StatusCreated)
}

// Update handles admin partial updates
// @Summary      Update coupon
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        code path string true "Coupon code"
// @Param        request body UpdateRequest true "Fields to change"
// @Success      204 "Updated"
// @Failure      400 {object} httputil.ErrorResponse "Invalid request"
// @Failure      403 {object} httputil.ErrorResponse "Admin required"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /coupons/{code} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	code := chi.URLParam(r, "code")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	patch := Patch{
		Description:   req.Description,
		Service:       req.Service,
		ExpiresInDays: req.ExpiresInDays,
	}
	// An explicit owner wins over clear_owner; neither means hands off
	switch {
	case req.OwnerID != nil:
		patch.OwnerOp = OwnerAssign
		patch.OwnerID = *req.OwnerID
	case req.ClearOwner:
		patch.OwnerOp = OwnerClear
	}

	ok, err := h.service.Update(r.Context(), code, patch)
	if err != nil {
		if errors.Is(err, ErrInvalidExpiry) {
			httputil.RespondError(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return
		}
		logger.Error("update failed: internal error", "code", code, "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if !ok {
		httputil.RespondError(w, "coupon not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	logger.Info("coupon updated", "code", code)
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles admin coupon deletion
// @Summary      Delete coupon
// @Tags         admin
// @Security     BearerAuth
// @Param        code path string true "Coupon code"
// @Success      204 "Deleted"
// @Failure      403 {object} httputil.ErrorResponse "Admin required"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /coupons/{code} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	code := chi.URLParam(r, "code")

	ok, err := h.service.Delete(r.Context(), code)
	if err != nil {
		logger.Error("delete failed: internal error", "code", code, "error", err.Error())
		httputil.RespondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if !ok {
		httputil.RespondError(w, "coupon not found", httputil.CodeNotFound, http.StatusNotFound)
		return
	}

	logger.Info("coupon deleted", "code", code)
	w.WriteHeader(http.StatusNoContent)
}
