package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessgate/internal/compliance"
	id "accessgate/pkg/domain"
)

func newServer(t *testing.T) (*httptest.Server, id.UserID) {
	t.Helper()
	userID := id.NewUserID()
	r := chi.NewRouter()
	r.Get("/v1/training/users/{userID}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "userID") != userID.String() {
			http.NotFound(w, req)
			return
		}
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"external_id":"ext-42"}`))
	})
	r.Get("/v1/training/accounts/{ext}/credentials/{name}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "name") != compliance.CredentialRegisteredTraining {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write([]byte(`{"name":"registered_tier_training","issued_at":"2026-01-01T00:00:00Z","expires_at":"2027-01-01T00:00:00Z"}`))
	})
	r.Get("/v1/registration/users/{userID}/link", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Get("/v1/two-factor/users/{userID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	r.Get("/v1/identity/users/{userID}/logins/{provider}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, userID
}

func TestClient(t *testing.T) {
	srv, userID := newServer(t)
	c := New(srv.URL, WithBearerToken("secret"), WithHTTPClient(srv.Client()))
	ctx := context.Background()

	t.Run("training lookup and credential", func(t *testing.T) {
		ext, ok, err := c.LookupExternalID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "ext-42", ext)

		cred, err := c.GetCredential(ctx, ext, compliance.CredentialRegisteredTraining)
		require.NoError(t, err)
		require.NotNil(t, cred.ExpiresAt)
		assert.True(t, cred.ExpiresAt.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
		require.NotNil(t, cred.IssuedAt)
		assert.True(t, cred.IssuedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("unknown training account is absent", func(t *testing.T) {
		_, ok, err := c.LookupExternalID(ctx, id.NewUserID())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing credential is not_found", func(t *testing.T) {
		_, err := c.GetCredential(ctx, "ext-42", compliance.CredentialControlledTraining)
		assert.True(t, compliance.IsNotFound(err))
		assert.False(t, compliance.IsRetryable(err))
	})

	t.Run("status codes map to categories", func(t *testing.T) {
		_, err := c.GetLinkStatus(ctx, userID)
		assert.Equal(t, compliance.CategoryOutage, compliance.CategoryOf(err))
		assert.True(t, compliance.IsRetryable(err))

		_, err = c.GetEnrollment(ctx, userID)
		assert.Equal(t, compliance.CategoryRateLimited, compliance.CategoryOf(err))

		_, err = c.GetIdentityLogin(ctx, userID, compliance.ProviderIDMe)
		assert.Equal(t, compliance.CategoryBadData, compliance.CategoryOf(err))
		assert.False(t, compliance.IsRetryable(err))
	})

	t.Run("unreachable endpoint is an outage", func(t *testing.T) {
		dead := New("http://127.0.0.1:1")
		_, err := dead.GetEnrollment(ctx, userID)
		assert.True(t, compliance.IsRetryable(err))
	})
}
