// Package httpsource reads every compliance source from one JSON gateway
// that fronts the vendor systems.
package httpsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"accessgate/internal/compliance"
	id "accessgate/pkg/domain"
)

const sourceName = "http"

type Client struct {
	endpoint string
	client   *http.Client
	token    string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithBearerToken sets the Authorization header on every request.
func WithBearerToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type externalIDResponse struct {
	ExternalID string `json:"external_id"`
}

type credentialResponse struct {
	Name      string     `json:"name"`
	IssuedAt  *time.Time `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type linkResponse struct {
	LinkedUsername string     `json:"linked_username"`
	LinkExpiresAt  *time.Time `json:"link_expires_at"`
}

type enrollmentResponse struct {
	Enrolled bool `json:"enrolled"`
}

type identityLoginResponse struct {
	Provider   string    `json:"provider"`
	VerifiedAt time.Time `json:"verified_at"`
}

// LookupExternalID maps a 404 to ok=false.
func (c *Client) LookupExternalID(ctx context.Context, userID id.UserID) (string, bool, error) {
	var out externalIDResponse
	err := c.get(ctx, "/v1/training/users/"+url.PathEscape(userID.String()), &out)
	if compliance.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out.ExternalID, true, nil
}

func (c *Client) GetCredential(ctx context.Context, externalID, credentialName string) (*compliance.TrainingCredential, error) {
	var out credentialResponse
	path := fmt.Sprintf("/v1/training/accounts/%s/credentials/%s", url.PathEscape(externalID), url.PathEscape(credentialName))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &compliance.TrainingCredential{Name: out.Name, IssuedAt: out.IssuedAt, ExpiresAt: out.ExpiresAt}, nil
}

func (c *Client) GetLinkStatus(ctx context.Context, userID id.UserID) (*compliance.LinkStatus, error) {
	var out linkResponse
	if err := c.get(ctx, "/v1/registration/users/"+url.PathEscape(userID.String())+"/link", &out); err != nil {
		return nil, err
	}
	return &compliance.LinkStatus{LinkedUsername: out.LinkedUsername, LinkExpiresAt: out.LinkExpiresAt}, nil
}

func (c *Client) GetEnrollment(ctx context.Context, userID id.UserID) (*compliance.Enrollment, error) {
	var out enrollmentResponse
	if err := c.get(ctx, "/v1/two-factor/users/"+url.PathEscape(userID.String()), &out); err != nil {
		return nil, err
	}
	return &compliance.Enrollment{Enrolled: out.Enrolled}, nil
}

func (c *Client) GetIdentityLogin(ctx context.Context, userID id.UserID, provider compliance.IdentityProvider) (*compliance.IdentityLogin, error) {
	var out identityLoginResponse
	path := fmt.Sprintf("/v1/identity/users/%s/logins/%s", url.PathEscape(userID.String()), url.PathEscape(string(provider)))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &compliance.IdentityLogin{Provider: compliance.IdentityProvider(out.Provider), VerifiedAt: out.VerifiedAt}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return compliance.NewSourceError(compliance.CategoryInternal, sourceName, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if category, failed := classifyStatus(resp.StatusCode); failed {
		return compliance.NewSourceError(category, sourceName, fmt.Sprintf("%s returned status %d", path, resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return compliance.NewSourceError(compliance.CategoryBadData, sourceName, "failed to decode response", err)
	}
	return nil
}

func classifyStatus(status int) (compliance.ErrorCategory, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusNotFound:
		return compliance.CategoryNotFound, true
	case status == http.StatusTooManyRequests:
		return compliance.CategoryRateLimited, true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return compliance.CategoryAuthentication, true
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return compliance.CategoryTimeout, true
	case status >= 500:
		return compliance.CategoryOutage, true
	default:
		return compliance.CategoryBadData, true
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return compliance.NewSourceError(compliance.CategoryTimeout, sourceName, "request timed out", err)
	}
	return compliance.NewSourceError(compliance.CategoryOutage, sourceName, "request failed", err)
}
