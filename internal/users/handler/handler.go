package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	accessmodels "accessgate/internal/access/models"
	"accessgate/internal/users/models"
	id "accessgate/pkg/domain"
	dErrors "accessgate/pkg/domain-errors"
	"accessgate/pkg/platform/httputil"
	"accessgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the user account operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, userID id.UserID, contactEmail string, serviceAccount bool) (*models.User, error)
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	SetDisabled(ctx context.Context, userID id.UserID, disabled bool) (*models.User, error)
	UpdateContactEmail(ctx context.Context, userID id.UserID, contactEmail string) (*models.User, error)
	SignCodeOfConduct(ctx context.Context, userID id.UserID, version int) (*models.User, error)
	ConfirmProfile(ctx context.Context, userID id.UserID) (*accessmodels.UserAccessModule, error)
	ConfirmPublications(ctx context.Context, userID id.UserID) (*accessmodels.UserAccessModule, error)
}

type Handler struct {
	logger *slog.Logger
	users  Service
}

func New(users Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, users: users}
}

func (h *Handler) Register(r chi.Router, admin chi.Router) {
	r.Get("/users/{userID}", h.handleGet)
	r.Put("/users/{userID}/contact-email", h.handleUpdateContactEmail)
	r.Post("/users/{userID}/code-of-conduct", h.handleSignCodeOfConduct)
	r.Post("/users/{userID}/profile-confirmation", h.handleConfirm(h.users.ConfirmProfile))
	r.Post("/users/{userID}/publication-confirmation", h.handleConfirm(h.users.ConfirmPublications))

	admin.Post("/users", h.handleRegister)
	admin.Put("/users/{userID}/disabled", h.handleSetDisabled)
}

type registerRequest struct {
	UserID         string `json:"user_id"`
	ContactEmail   string `json:"contact_email"`
	ServiceAccount bool   `json:"service_account"`
}

type disabledRequest struct {
	Disabled *bool `json:"disabled"`
}

type contactEmailRequest struct {
	ContactEmail string `json:"contact_email"`
}

type signRequest struct {
	Version int `json:"version"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID := id.NewUserID()
	if req.UserID != "" {
		parsed, err := id.ParseUserID(req.UserID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		userID = parsed
	}

	u, err := h.users.Register(ctx, userID, req.ContactEmail, req.ServiceAccount)
	if err != nil {
		h.logFailure(ctx, "failed to register user", userID, err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "user registered",
		"user_id", u.ID.String(),
		"service_account", u.ServiceAccount,
		"actor_id", requestcontext.ActorID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.users.Get(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to load user", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleSetDisabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req disabledRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Disabled == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "disabled is required"))
		return
	}

	u, err := h.users.SetDisabled(ctx, userID, *req.Disabled)
	if err != nil {
		h.logFailure(ctx, "failed to set disabled flag", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleUpdateContactEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req contactEmailRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.users.UpdateContactEmail(ctx, userID, req.ContactEmail)
	if err != nil {
		h.logFailure(ctx, "failed to update contact email", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleSignCodeOfConduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := httputil.UserIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req signRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.users.SignCodeOfConduct(ctx, userID, req.Version)
	if err != nil {
		h.logFailure(ctx, "failed to sign code of conduct", userID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleConfirm(confirm func(context.Context, id.UserID) (*accessmodels.UserAccessModule, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := httputil.UserIDParam(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		rec, err := confirm(ctx, userID)
		if err != nil {
			h.logFailure(ctx, "failed to record confirmation", userID, err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) logFailure(ctx context.Context, msg string, userID id.UserID, err error) {
	if de, ok := dErrors.From(err); ok && de.Code != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"user_id", userID.String(),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
