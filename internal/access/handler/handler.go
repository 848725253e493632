package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"accessgate/internal/access/models"
	"accessgate/internal/eligibility"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/httputil"
	"accessgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// ModuleService reads and overrides per-user module state.
type ModuleService interface {
	ListModuleStatuses(ctx context.Context, userID id.UserID) ([]models.ModuleCompliance, error)
	IsCompliant(ctx context.Context, userID id.UserID, module models.ModuleName) (bool, error)
	SetBypass(ctx context.Context, userID id.UserID, module models.ModuleName, bypassed bool) error
	BypassAll(ctx context.Context, userID id.UserID, bypassed bool) error
}

// TierService explains tier decisions and feeds downstream provisioning.
type TierService interface {
	Explain(ctx context.Context, userID id.UserID) ([]eligibility.TierStatus, error)
	ListChangedSince(ctx context.Context, since time.Time, limit int) ([]*models.UserAccessTier, error)
}

type Handler struct {
	logger  *slog.Logger
	modules ModuleService
	tiers   TierService
}

func New(modules ModuleService, tiers TierService, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, modules: modules, tiers: tiers}
}

// Register mounts the read routes on r and the override routes on admin.
func (h *Handler) Register(r chi.Router, admin chi.Router) {
	r.Get("/users/{userID}/tiers", h.handleGetTiers)
	r.Get("/users/{userID}/modules", h.handleGetModules)
	r.Get("/users/{userID}/modules/{module}/compliance", h.handleModuleCompliance)
	r.Get("/tiers/changes", h.handleTierChanges)

	admin.Put("/users/{userID}/modules/bypass", h.handleBypassAll)
	admin.Put("/users/{userID}/modules/{module}/bypass", h.handleBypassModule)
}

type bypassRequest struct {
	Bypassed *bool `json:"bypassed"`
}

func (req bypassRequest) validate() error {
	if req.Bypassed == nil {
		return dErrors.New(dErrors.CodeValidation, "bypassed is required")
	}
	return nil
}

type tiersResponse struct {
	UserID id.UserID                `json:"user_id"`
	Tiers  []eligibility.TierStatus `json:"tiers"`
}

type modulesResponse struct {
	UserID  id.UserID                 `json:"user_id"`
	Modules []models.ModuleCompliance `json:"modules"`
}

type complianceResponse struct {
	UserID    id.UserID         `json:"user_id"`
	Module    models.ModuleName `json:"module"`
	Compliant bool              `json:"compliant"`
}

type tierChangesResponse struct {
	Changes []*models.UserAccessTier `json:"changes"`
}

func (h *Handler) handleGetTiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tiers, err := h.tiers.Explain(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to explain tiers", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tiersResponse{UserID: userID, Tiers: tiers})
}

func (h *Handler) handleGetModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	statuses, err := h.modules.ListModuleStatuses(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to list module statuses", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, modulesResponse{UserID: userID, Modules: statuses})
}

func (h *Handler) handleModuleCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	module := models.ModuleName(chi.URLParam(r, "module"))
	if !module.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown module: "+module.String()))
		return
	}
	compliant, err := h.modules.IsCompliant(ctx, userID, module)
	if err != nil {
		h.logFailure(ctx, "failed to check module compliance", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, complianceResponse{UserID: userID, Module: module, Compliant: compliant})
}

func (h *Handler) handleTierChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	raw := q.Get("since")
	if raw == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "since is required"))
		return
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "since must be RFC3339"))
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
	}

	changes, err := h.tiers.ListChangedSince(ctx, since, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list tier changes",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if changes == nil {
		changes = []*models.UserAccessTier{}
	}
	httputil.WriteJSON(w, http.StatusOK, tierChangesResponse{Changes: changes})
}

func (h *Handler) handleBypassModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	module := models.ModuleName(chi.URLParam(r, "module"))
	if !module.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown module: "+module.String()))
		return
	}
	var req bypassRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.modules.SetBypass(ctx, userID, module, *req.Bypassed); err != nil {
		h.logFailure(ctx, "failed to set module bypass", userID, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBypassAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req bypassRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.modules.BypassAll(ctx, userID, *req.Bypassed); err != nil {
		h.logFailure(ctx, "failed to bypass all modules", userID, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(ctx context.Context, msg string, userID id.UserID, err error) {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"user_id", userID.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
