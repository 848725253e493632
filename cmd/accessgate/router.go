package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	accesshandler "accessgate/internal/access/handler"
	creditshandler "accessgate/internal/credits/handler"
	institutionhandler "accessgate/internal/institution/handler"
	jwttoken "accessgate/internal/jwt_token"
	"accessgate/internal/platform/metrics"
	"accessgate/internal/platform/middleware"
	userhandler "accessgate/internal/users/handler"
	"accessgate/pkg/platform/httputil"
)

const tokenIssuer = "accessgate"

// newRouter mounts every module's routes. Routes under /admin require an
// admin bearer token.
func newRouter(a *app) http.Handler {
	httpMetrics := metrics.NewWithRegisterer(a.registry)
	tokens := jwttoken.NewJWTService(a.cfg.Server.AdminJWTSecret, tokenIssuer)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(a.logger, httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if a.db != nil {
			if err := a.db.PingContext(req.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.HandlerFor(a.registry))

	admin := chi.NewRouter()
	admin.Use(middleware.RequireAdmin(tokens, a.logger))

	accesshandler.New(a.access, a.evaluator, a.logger).Register(r, admin)
	creditshandler.New(a.credits, a.logger).Register(r, admin)
	userhandler.New(a.users, a.logger).Register(r, admin)
	institutionhandler.New(a.institutions, a.logger).Register(r, admin)

	r.Mount("/admin", admin)
	return r
}
