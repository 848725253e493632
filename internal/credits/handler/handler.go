package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"accessgate/internal/credits/models"
	"accessgate/internal/credits/service"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/httputil"
	"accessgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the initial-credits operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, userID id.UserID) (*models.InitialCredits, error)
	Extend(ctx context.Context, userID id.UserID) (*models.InitialCredits, error)
	SetBypassed(ctx context.Context, userID id.UserID, bypassed bool) (*models.InitialCredits, error)
	Describe(ctx context.Context, userID id.UserID) (*service.View, error)
	CheckExpiration(ctx context.Context) (service.SweepResult, error)
}

type Handler struct {
	logger  *slog.Logger
	credits Service
}

func New(credits Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, credits: credits}
}

func (h *Handler) Register(r chi.Router, admin chi.Router) {
	r.Post("/users/{userID}/credits", h.handleCreate)
	r.Post("/users/{userID}/credits/extend", h.handleExtend)
	r.Get("/users/{userID}/credits", h.handleDescribe)

	admin.Put("/users/{userID}/credits/bypass", h.handleSetBypassed)
	admin.Post("/credits/check-expiration", h.handleCheckExpiration)
}

type bypassRequest struct {
	Bypassed *bool `json:"bypassed"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "failed to create initial credits", h.credits.Create)
}

func (h *Handler) handleExtend(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "failed to extend initial credits", h.credits.Extend)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, msg string, op func(context.Context, id.UserID) (*models.InitialCredits, error)) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	credits, err := op(ctx, userID)
	if err != nil {
		h.logFailure(ctx, msg, userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, credits)
}

func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.credits.Describe(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to describe initial credits", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSetBypassed(w http.ResponseWriter, r *http.Request) {
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
	if req.Bypassed == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "bypassed is required"))
		return
	}

	credits, err := h.credits.SetBypassed(ctx, userID, *req.Bypassed)
	if err != nil {
		h.logFailure(ctx, "failed to set initial credits bypass", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, credits)
}

func (h *Handler) handleCheckExpiration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.credits.CheckExpiration(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "initial credits sweep failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) logFailure(ctx context.Context, msg string, userID id.UserID, err error) {
	de, ok := dErrors.From(err)
	if ok && de.Code != dErrors.CodeInternal {
		h.logger.InfoContext(ctx, msg,
			"user_id", userID.String(),
			"reason", de.Message,
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"user_id", userID.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
