// Command compliance-source is a local stand-in for the external compliance
// systems. It serves the same HTTP API the accessgate httpsource adapter
// reads, answering from a YAML fixture.
//
//	compliance-source -fixture fixture.yaml -addr :9090 -fail-every 5
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

type registration struct {
	LinkedUsername string     `yaml:"linked_username" json:"linked_username"`
	LinkExpiresAt  *time.Time `yaml:"link_expires_at" json:"link_expires_at"`
}

type user struct {
	TrainingID   string               `yaml:"training_id"`
	TwoFactor    bool                 `yaml:"two_factor"`
	Registration *registration        `yaml:"registration"`
	Identity     map[string]time.Time `yaml:"identity"`
}

type credential struct {
	Name      string     `yaml:"name" json:"name"`
	IssuedAt  *time.Time `yaml:"issued_at" json:"issued_at"`
	ExpiresAt *time.Time `yaml:"expires_at" json:"expires_at"`
}

type fixture struct {
	Users    map[string]user         `yaml:"users"`
	Accounts map[string][]credential `yaml:"accounts"`
}

type server struct {
	data      fixture
	failEvery int64
	calls     atomic.Int64
	logger    *slog.Logger
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	path := flag.String("fixture", "fixture.yaml", "YAML fixture")
	failEvery := flag.Int64("fail-every", 0, "answer every nth request with 503 (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	raw, err := os.ReadFile(*path)
	if err != nil {
		logger.Error("failed to read fixture", "error", err)
		os.Exit(1)
	}
	s := &server{failEvery: *failEvery, logger: logger}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		logger.Error("failed to parse fixture", "error", err)
		os.Exit(1)
	}

	logger.Info("compliance source listening", "addr", *addr, "users", len(s.data.Users))
	if err := http.ListenAndServe(*addr, s.routes()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.chaos)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/training/users/{userID}", s.handleExternalID)
		r.Get("/training/accounts/{account}/credentials/{name}", s.handleCredential)
		r.Get("/registration/users/{userID}/link", s.handleLink)
		r.Get("/two-factor/users/{userID}", s.handleTwoFactor)
		r.Get("/identity/users/{userID}/logins/{provider}", s.handleIdentity)
	})
	return r
}

// chaos fails every nth request so the caller's retries and breaker can be
// observed locally.
func (s *server) chaos(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.calls.Add(1)
		if s.failEvery > 0 && n%s.failEvery == 0 {
			s.logger.Info("injected failure", "path", r.URL.Path)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) lookup(w http.ResponseWriter, r *http.Request) (user, bool) {
	u, ok := s.data.Users[chi.URLParam(r, "userID")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
	}
	return u, ok
}

func (s *server) handleExternalID(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if u.TrainingID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"external_id": u.TrainingID})
}

func (s *server) handleCredential(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, c := range s.data.Accounts[chi.URLParam(r, "account")] {
		if c.Name == name {
			writeJSON(w, c)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *server) handleLink(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if u.Registration == nil {
		writeJSON(w, registration{})
		return
	}
	writeJSON(w, u.Registration)
}

func (s *server) handleTwoFactor(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]bool{"enrolled": u.TwoFactor})
}

func (s *server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(w, r)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")
	verifiedAt, found := u.Identity[provider]
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"provider": provider, "verified_at": verifiedAt})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
