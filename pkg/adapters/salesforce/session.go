package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/forceql/forceql/pkg/core"
)

// DefaultLoginHost is used when no host is configured. Sandboxes use
// test.salesforce.com.
const DefaultLoginHost = "https://login.salesforce.com"

// session holds OAuth state: it authenticates on demand with the
// username-password flow and caches the access token until it is
// invalidated by an expired-session response.
type session struct {
	cfg    core.ConnectionConfig
	http   *http.Client
	logger *slog.Logger

	mu          sync.Mutex
	accessToken string
	instanceURL string
}

func newSession(cfg core.ConnectionConfig, httpClient *http.Client, logger *slog.Logger) *session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &session{cfg: cfg, http: httpClient, logger: logger}
}

// loginURL normalizes the configured host to a full token endpoint URL.
func (s *session) loginURL() string {
	host := s.cfg.Host
	if host == "" {
		host = DefaultLoginHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimSuffix(host, "/") + "/services/oauth2/token"
}

// tokenResponse is the OAuth token endpoint's success payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
	IssuedAt    string `json:"issued_at"`
}

// token returns a valid access token and the instance URL, logging in if
// no token is cached.
func (s *session) token(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken != "" {
		return s.accessToken, s.instanceURL, nil
	}
	if err := s.loginLocked(ctx); err != nil {
		return "", "", err
	}
	return s.accessToken, s.instanceURL, nil
}

// invalidate clears the cached token if it still matches tok. The matching
// guard keeps concurrent requests from discarding a fresh token after one
// of them already re-logged in.
func (s *session) invalidate(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == tok {
		s.accessToken = ""
	}
}

// loginLocked performs the OAuth username-password flow. Callers hold s.mu.
func (s *session) loginLocked(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {s.cfg.ConsumerKey},
		"client_secret": {s.cfg.ConsumerSecret},
		"username":      {s.cfg.Username},
		"password":      {s.cfg.Password + s.cfg.SecurityToken},
	}

	endpoint := s.loginURL()
	s.logger.Debug("logging in", slog.String("endpoint", endpoint), slog.String("user", s.cfg.Username))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var authErr AuthError
		if json.Unmarshal(body, &authErr) == nil && authErr.Code != "" {
			return &authErr
		}
		return fmt.Errorf("login failed with HTTP %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if tok.AccessToken == "" || tok.InstanceURL == "" {
		return fmt.Errorf("login response missing token or instance URL")
	}

	s.accessToken = tok.AccessToken
	s.instanceURL = strings.TrimSuffix(tok.InstanceURL, "/")
	s.logger.Debug("login succeeded", slog.String("instance", s.instanceURL))
	return nil
}

// connected reports whether a token is currently cached.
func (s *session) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != ""
}

// close drops the cached token.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.instanceURL = ""
}
