package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/forceql/forceql/pkg/quirks"
)

// client is the authenticated REST client. It injects the bearer token,
// retries transient failures with exponential backoff and re-authenticates
// once when the session has expired.
type client struct {
	session *session
	http    *http.Client
	logger  *slog.Logger
	version string
	quirks  *quirks.Registry

	// callOptions is sent as the Sforce-Call-Options header when set,
	// e.g. to route updates through edge servers.
	callOptions string
}

// basePath is the versioned REST prefix, e.g. /services/data/v59.0.
func (c *client) basePath() string {
	return "/services/data/v" + c.version
}

// get issues a GET and decodes the JSON response into out.
func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do issues one REST request with retries. path is relative to the instance
// URL and must start with /services.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	backoff := retry.WithMaxRetries(4, retry.NewExponential(250*time.Millisecond))
	reauthed := false

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.attempt(ctx, method, path, query, payload, out)
		switch {
		case err == nil:
			return nil
		case isSessionExpired(err) && !reauthed:
			reauthed = true
			c.logger.Debug("session expired, re-authenticating")
			return retry.RetryableError(err)
		case isRetryable(err):
			c.logger.Debug("transient API error, retrying", slog.Any("error", err))
			return retry.RetryableError(err)
		default:
			return err
		}
	})
}

// attempt performs a single HTTP round trip.
func (c *client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, out any) error {
	tok, instance, err := c.session.token(ctx)
	if err != nil {
		return err
	}

	u := instance + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.callOptions != "" {
		req.Header.Set("Sforce-Call-Options", c.callOptions)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if usage := resp.Header.Get("Sforce-Limit-Info"); usage != "" {
		c.logger.Debug("API usage", slog.String("limit_info", usage))
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, &apiErr.Errors); err != nil {
			apiErr.Errors = []RemoteError{{Message: strings.TrimSpace(string(respBody))}}
		}
		if isSessionExpired(apiErr) {
			c.session.invalidate(tok)
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// noteQuirk reports err against the known-bug registry when it matches one.
// The original error is returned unchanged.
func (c *client) noteQuirk(err error, object string) error {
	if err == nil || c.quirks == nil {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if bug, ok := c.quirks.Match(apiErr.Code(), object); ok {
			c.quirks.Report(bug, err)
		}
	}
	return err
}
