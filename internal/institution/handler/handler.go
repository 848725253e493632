package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"accessgate/internal/institution/matcher"
	"accessgate/internal/institution/models"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/httputil"
	"accessgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines institution and affiliation management.
type Service interface {
	CreateInstitution(ctx context.Context, shortName, displayName string, bypassCredits bool) (*models.Institution, error)
	GetInstitution(ctx context.Context, instID id.InstitutionID) (*models.Institution, error)
	DeleteInstitution(ctx context.Context, instID id.InstitutionID) error
	SetTierRequirement(ctx context.Context, instID id.InstitutionID, tier string, kind models.RequirementKind, domains, addresses []string) (*models.TierRequirement, error)
	ValidateAffiliation(ctx context.Context, contactEmail string, instID id.InstitutionID, tier string) (matcher.Result, error)
	SetAffiliation(ctx context.Context, userID id.UserID, instID id.InstitutionID, role string) (*models.Affiliation, error)
	GetAffiliation(ctx context.Context, userID id.UserID) (*models.Affiliation, error)
}

type Handler struct {
	logger       *slog.Logger
	institutions Service
}

func New(institutions Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, institutions: institutions}
}

// Register mounts affiliation reads on r; everything else is admin only.
func (h *Handler) Register(r chi.Router, admin chi.Router) {
	r.Get("/users/{userID}/affiliation", h.handleGetAffiliation)

	admin.Post("/institutions", h.handleCreate)
	admin.Get("/institutions/{institutionID}", h.handleGet)
	admin.Delete("/institutions/{institutionID}", h.handleDelete)
	admin.Put("/institutions/{institutionID}/tiers/{tier}", h.handleSetTierRequirement)
	admin.Post("/institutions/{institutionID}/tiers/{tier}/validate", h.handleValidate)
	admin.Put("/users/{userID}/affiliation", h.handleSetAffiliation)
}

type createRequest struct {
	ShortName               string `json:"short_name"`
	DisplayName             string `json:"display_name"`
	BypassCreditsExpiration bool   `json:"bypass_credits_expiration"`
}

type tierRequirementRequest struct {
	Kind      models.RequirementKind `json:"kind"`
	Domains   []string               `json:"domains"`
	Addresses []string               `json:"addresses"`
}

type validateRequest struct {
	ContactEmail string `json:"contact_email"`
}

type validateResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

type affiliationRequest struct {
	InstitutionID string `json:"institution_id"`
	Role          string `json:"role"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	inst, err := h.institutions.CreateInstitution(ctx, req.ShortName, req.DisplayName, req.BypassCreditsExpiration)
	if err != nil {
		h.logFailure(ctx, "failed to create institution", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inst)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instID, err := httputil.InstitutionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	inst, err := h.institutions.GetInstitution(ctx, instID)
	if err != nil {
		h.logFailure(ctx, "failed to load institution", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inst)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instID, err := httputil.InstitutionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.institutions.DeleteInstitution(ctx, instID); err != nil {
		h.logFailure(ctx, "failed to delete institution", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetTierRequirement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instID, err := httputil.InstitutionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req tierRequirementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !req.Kind.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "kind must be DOMAIN_MATCH or ADDRESS_LIST_MATCH"))
		return
	}

	requirement, err := h.institutions.SetTierRequirement(ctx, instID, chi.URLParam(r, "tier"), req.Kind, req.Domains, req.Addresses)
	if err != nil {
		h.logFailure(ctx, "failed to set tier requirement", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requirement)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	instID, err := httputil.InstitutionIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req validateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.institutions.ValidateAffiliation(ctx, req.ContactEmail, instID, chi.URLParam(r, "tier"))
	if err != nil {
		h.logFailure(ctx, "failed to validate affiliation", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validateResponse{Eligible: res.Eligible, Reason: res.Reason})
}

func (h *Handler) handleSetAffiliation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req affiliationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	instID, err := id.ParseInstitutionID(req.InstitutionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	aff, err := h.institutions.SetAffiliation(ctx, userID, instID, req.Role)
	if err != nil {
		h.logFailure(ctx, "failed to set affiliation", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, aff)
}

func (h *Handler) handleGetAffiliation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	aff, err := h.institutions.GetAffiliation(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to load affiliation", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, aff)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if de, ok := dErrors.From(err); ok && de.Code != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
