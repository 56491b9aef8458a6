package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"go.elastic.co/apm/module/apmhttp"
	"go.uber.org/zap"
)

// SessionRefresher renews the backend session. Implemented by the auth
// session store; injected after construction to break the store -> client ->
// store cycle.
type SessionRefresher interface {
	RefreshSession(ctx context.Context) error
}

// APIClientConfig options for creating an APIClient
type APIClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	EnableAPM bool
}

// APIClient credential-bearing request client for the backend REST API.
//
// All requests go through a cookie jar, so the backend session cookie rides
// along automatically. On a 401 for any endpoint other than login/refresh the
// client asks the session refresher for a renewed session and retries the
// original request exactly once; if the refresh fails it reports the lost
// session and gives up. A rejected call therefore does not imply that no
// state changed.
type APIClient struct {
	base      string
	client    *http.Client
	logger    *zap.Logger
	ids       infra.UUIDGenerator
	refresher SessionRefresher
	onLost    func()
}

// NewAPIClient create an APIClient instance
func NewAPIClient(cfg *APIClientConfig, ids infra.UUIDGenerator, logger *zap.Logger) *APIClient {
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{
		Jar:     jar,
		Timeout: cfg.Timeout,
	}
	if cfg.EnableAPM {
		hc = apmhttp.WrapClient(hc)
	}
	return &APIClient{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: hc,
		ids:    ids,
		logger: logger,
	}
}

// SetSessionRefresher install the refresher used by the 401 interceptor
func (ac *APIClient) SetSessionRefresher(r SessionRefresher) {
	ac.refresher = r
}

// OnSessionLost register a callback fired when a refresh-after-401 fails.
// The UI uses it to redirect to the sign-in route.
func (ac *APIClient) OnSessionLost(fn func()) {
	ac.onLost = fn
}

// HTTPClient expose the underlying client so collaborators (identity
// provider) can share the jar and APM wrapping
func (ac *APIClient) HTTPClient() *http.Client {
	return ac.client
}

// Get issue a GET request, decoding the data envelope into out
func (ac *APIClient) Get(ctx context.Context, path string, out interface{}) error {
	return ac.do(ctx, http.MethodGet, path, nil, out)
}

// Post issue a POST request with a JSON body
func (ac *APIClient) Post(ctx context.Context, path string, body, out interface{}) error {
	return ac.do(ctx, http.MethodPost, path, body, out)
}

// Put issue a PUT request with a JSON body
func (ac *APIClient) Put(ctx context.Context, path string, body, out interface{}) error {
	return ac.do(ctx, http.MethodPut, path, body, out)
}

// Delete issue a DELETE request
func (ac *APIClient) Delete(ctx context.Context, path string) error {
	return ac.do(ctx, http.MethodDelete, path, nil, nil)
}

// login and refresh never go through the retry path, otherwise a rejected
// login would trigger a refresh of a session that does not exist
func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/login") || strings.HasPrefix(path, "/auth/refresh")
}

func (ac *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	err := ac.send(ctx, method, path, body, out)
	if err == nil {
		return nil
	}

	ae, ok := err.(*infra.APIError)
	if !ok || !ae.Unauthorized() || isAuthPath(path) || ac.refresher == nil {
		return err
	}

	if rerr := ac.refresher.RefreshSession(ctx); rerr != nil {
		ac.logger.Warn("Session refresh after 401 failed",
			zap.String("url.path", path),
			zap.Error(rerr),
		)
		if ac.onLost != nil {
			ac.onLost()
		}
		return domain.ErrSessionExpired
	}
	// retry exactly once with the renewed session
	return ac.send(ctx, method, path, body, out)
}

func (ac *APIClient) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, ac.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID, err := ac.ids.Generate(); err == nil {
		req.Header.Set("X-Request-ID", traceID)
	}

	resp, err := ac.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	ac.logger.Debug("API response",
		zap.String("http.request.method", method),
		zap.String("url.path", path),
		zap.Int("http.response.status_code", resp.StatusCode),
	)

	if resp.StatusCode >= 400 {
		return infra.DecodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if envelope.Data == nil {
		// some endpoints reply with a bare object
		return json.Unmarshal(raw, out)
	}
	return json.Unmarshal(envelope.Data, out)
}
