package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	cerrors "github.com/voxlane/console-core/internal/errors"
)

const maxHTTPErrorBodyBytes = 4096

// TokenSource supplies the bearer token for each request. The persisted flag
// store implements this so a cleared session immediately stops authenticating.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed token, used by tests and one-shot
// CLI invocations.
type StaticToken string

// Token returns the fixed token.
func (t StaticToken) Token() string { return string(t) }

// Config holds configuration for the console API client.
type Config struct {
	BaseURL            string
	Tokens             TokenSource
	Timeout            time.Duration
	InsecureSkipVerify bool
	Logger             zerolog.Logger
}

// Client is the typed HTTP client over the Voxlane console backend.
type Client struct {
	cfg        Config
	httpClient *http.Client
	configErr  error
}

// New creates a new console API client.
func New(cfg Config) *Client {
	cfg, cfgErr := normalizeConfig(cfg)

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.InsecureSkipVerify {
		//nolint:gosec // Insecure mode is explicitly user-controlled.
		tlsConfig.InsecureSkipVerify = true
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsConfig,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return fmt.Errorf("server returned redirect to %s", req.URL)
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		configErr:  cfgErr,
	}
}

func normalizeConfig(cfg Config) (Config, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Tokens == nil {
		cfg.Tokens = StaticToken("")
	}
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return cfg, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	return cfg, nil
}

// GetProfile fetches the authenticated user's profile (the whoami call).
func (c *Client) GetProfile(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.getJSON(ctx, "get_profile", "/api/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListMyWorkspaces lists the workspaces the authenticated user belongs to.
// The first entry is the primary workspace.
func (c *Client) ListMyWorkspaces(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	if err := c.getJSON(ctx, "list_workspaces", "/api/workspaces", &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// GetWorkspaceDetails fetches the full record of one workspace.
func (c *Client) GetWorkspaceDetails(ctx context.Context, workspaceID string) (*WorkspaceDetails, error) {
	var details WorkspaceDetails
	path := "/api/workspaces/" + url.PathEscape(workspaceID)
	if err := c.getJSON(ctx, "get_workspace_details", path, &details); err != nil {
		return nil, wrapWorkspace(err, workspaceID)
	}
	return &details, nil
}

// GetSubscription fetches the subscription status of one workspace.
func (c *Client) GetSubscription(ctx context.Context, workspaceID string) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	path := "/api/workspaces/" + url.PathEscape(workspaceID) + "/subscription"
	if err := c.getJSON(ctx, "get_subscription", path, &status); err != nil {
		return nil, wrapWorkspace(err, workspaceID)
	}
	return &status, nil
}

// ListAgents lists the configured calling agents of one workspace.
func (c *Client) ListAgents(ctx context.Context, workspaceID string) ([]Agent, error) {
	var agents []Agent
	path := "/api/workspaces/" + url.PathEscape(workspaceID) + "/agents"
	if err := c.getJSON(ctx, "list_agents", path, &agents); err != nil {
		return nil, wrapWorkspace(err, workspaceID)
	}
	return agents, nil
}

// GetUsageStatus fetches the current usage snapshot of one workspace.
func (c *Client) GetUsageStatus(ctx context.Context, workspaceID string) (*UsageStatus, error) {
	var status UsageStatus
	path := "/api/workspaces/" + url.PathEscape(workspaceID) + "/usage"
	if err := c.getJSON(ctx, "get_usage_status", path, &status); err != nil {
		return nil, wrapWorkspace(err, workspaceID)
	}
	return &status, nil
}

func wrapWorkspace(err error, workspaceID string) error {
	var re *cerrors.ResolveError
	if errors.As(err, &re) {
		return re.WithWorkspace(workspaceID)
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	if c.configErr != nil {
		return cerrors.NewResolveError(cerrors.ErrorTypeValidation, op, c.configErr)
	}

	endpointURL := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return cerrors.NewResolveError(cerrors.ErrorTypeValidation, op, fmt.Errorf("create request: %w", err))
	}

	if token := c.cfg.Tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "voxlane-console-core")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errType := cerrors.ErrorTypeConnection
		if ctx.Err() != nil {
			errType = cerrors.ErrorTypeTimeout
		}
		return cerrors.NewResolveError(errType, op, fmt.Errorf("do request: %w", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.cfg.Logger.Warn().Err(closeErr).Str("op", op).Msg("Failed to close response body")
		}
	}()

	if resp.StatusCode >= 300 {
		return c.statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return cerrors.NewResolveError(cerrors.ErrorTypeAPI, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxHTTPErrorBodyBytes))
	detail := strings.TrimSpace(string(body))
	if readErr != nil && detail == "" {
		detail = fmt.Sprintf("(unreadable body: %v)", readErr)
	}

	errType := cerrors.ErrorTypeAPI
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		errType = cerrors.ErrorTypeAuth
	case resp.StatusCode == http.StatusNotFound:
		errType = cerrors.ErrorTypeNotFound
	case resp.StatusCode == http.StatusRequestTimeout:
		errType = cerrors.ErrorTypeTimeout
	}

	err := fmt.Errorf("unexpected status %d", resp.StatusCode)
	if detail != "" {
		err = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)
	}
	return cerrors.NewResolveError(errType, op, err).WithStatusCode(resp.StatusCode)
}
