package identity

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/emplo-ai/emplo/internal/core/domain"
	"github.com/emplo-ai/emplo/internal/infra/buildinfo"
	"github.com/emplo-ai/emplo/internal/telemetry/logger"
	"github.com/emplo-ai/emplo/internal/telemetry/metric"
)

// Operation names, used in errors, logs and metrics.
const (
	OpResolveIdentity = "resolve_identity"
	OpRegister        = "register"
	OpAuthenticate    = "authenticate"
	OpUpdateIdentity  = "update_identity"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

var defaultMessages = map[string]string{
	OpResolveIdentity: "Failed to fetch profile",
	OpRegister:        "Sign up failed",
	OpAuthenticate:    "Login failed",
	OpUpdateIdentity:  "Failed to update profile",
}

// Client talks to the identity service.
type Client struct {
	baseURL   string
	userAgent string
	logger    logger.Logger
	metrics   *metric.Registry

	mu     sync.RWMutex
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithTLSConfig sets the TLS configuration of the transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.client.Transport = newTransport(cfg)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request counts and latency into r.
func WithMetrics(r *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	// Ensure baseURL has a scheme
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: buildinfo.UserAgent(),
		logger:    logger.Discard(),
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTLSConfig swaps the transport for one using cfg. Requests already in
// flight finish on the old transport.
func (c *Client) SetTLSConfig(cfg *tls.Config) {
	c.mu.Lock()
	old := c.client
	c.client = &http.Client{
		Timeout:   old.Timeout,
		Transport: newTransport(cfg),
	}
	c.mu.Unlock()

	if t, ok := old.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}

func newTransport(cfg *tls.Config) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = cfg
	return t
}

// ResolveIdentity returns the identity that token belongs to (GET /me).
func (c *Client) ResolveIdentity(ctx context.Context, token string) (domain.Identity, error) {
	var id domain.Identity
	err := c.call(ctx, OpResolveIdentity, http.MethodGet, "/me", token, nil, func(body []byte) (err error) {
		id, err = decodeIdentity(body)
		return err
	})
	return id, err
}

// Register creates an account (POST /profile). It does not sign in.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (Ack, error) {
	req := wireRegistration{
		Email:    reg.Email,
		Password: reg.Password,
		UserType: string(reg.Role),
		Name:     reg.Name(),
	}
	var ack Ack
	err := c.call(ctx, OpRegister, http.MethodPost, "/profile", "", req, func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		var w wireAck
		if err := json.Unmarshal(body, &w); err != nil {
			return err
		}
		ack = Ack{ID: string(w.ID), Email: w.Email}
		return nil
	})
	return ack, err
}

// Authenticate exchanges credentials for a token (POST /login).
func (c *Client) Authenticate(ctx context.Context, creds domain.Credentials) (Grant, error) {
	req := wireCredentials{Email: creds.Email, Password: creds.Password}
	var grant Grant
	err := c.call(ctx, OpAuthenticate, http.MethodPost, "/login", "", req, func(body []byte) (err error) {
		grant, err = decodeGrant(body)
		return err
	})
	if err != nil {
		return Grant{}, err
	}
	if grant.Identity.Email == "" {
		grant.Identity.Email = creds.Email
	}
	return grant, nil
}

// UpdateIdentity sends the present fields of patch (PUT /profile) and
// returns the fields the service reports back.
func (c *Client) UpdateIdentity(ctx context.Context, token string, patch domain.IdentityPatch) (domain.IdentityPatch, error) {
	var returned domain.IdentityPatch
	err := c.call(ctx, OpUpdateIdentity, http.MethodPut, "/profile", token, encodePatch(patch), func(body []byte) (err error) {
		returned, err = decodePatch(body)
		return err
	})
	return returned, err
}

// call performs one request and hands the body of a 2xx response to
// decode. Any other outcome, including a decode failure, is returned as a
// *RemoteError.
func (c *Client) call(ctx context.Context, op, method, path, token string, payload any, decode func([]byte) error) error {
	requestID := logger.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = ulid.Make().String()
	}
	log := c.logger.With("op", op, "request_id", requestID)
	start := time.Now()

	status, body, err := c.roundTrip(ctx, op, method, path, token, requestID, payload)
	if err == nil {
		if derr := decode(body); derr != nil {
			err = malformedError(op, status, derr)
		}
	}

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(op, outcome(err), elapsed)
	if err != nil {
		log.Debug("identity request failed", "method", method, "path", path, "status", status, "duration", elapsed, "error", err)
		return err
	}
	log.Debug("identity request", "method", method, "path", path, "status", status, "duration", elapsed)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path, token, requestID string, payload any) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, transportError(op, fmt.Errorf("marshal body: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, transportError(op, fmt.Errorf("create request: %w", err))
	}
	c.addHeaders(req, token, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	hc := c.client
	c.mu.RUnlock()

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(body)
		if msg == "" {
			msg = defaultMessages[op]
		}
		return resp.StatusCode, nil, rejectedError(op, resp.StatusCode, msg)
	}
	return resp.StatusCode, body, nil
}

// addHeaders adds authentication and common headers.
func (c *Client) addHeaders(req *http.Request, token, requestID string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
}
