package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
)

// Credential an issued identity credential. The app treats the provider as an
// opaque token source: nothing but the ID token ever leaves this package.
type Credential struct {
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider opaque email/password token source
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	// IDToken returns the current ID token, refreshing it first when force
	// is set or the cached token is expired
	IDToken(ctx context.Context, force bool) (string, error)
	SignOut()
}

// RESTProvider Provider implementation against a Firebase-style REST identity
// endpoint
type RESTProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client

	mu   sync.Mutex
	cred *Credential
}

var _ Provider = (*RESTProvider)(nil)

// NewRESTProvider create a RESTProvider
func NewRESTProvider(endpoint, apiKey string, client *http.Client) *RESTProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RESTProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
	}
}

type tokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"` // seconds, as a decimal string
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn exchange email/password for a credential
func (p *RESTProvider) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	res, err := p.post(ctx, "/v1/accounts:signInWithPassword", body)
	if err != nil {
		return nil, err
	}
	cred := p.toCredential(res)

	p.mu.Lock()
	p.cred = cred
	p.mu.Unlock()
	return cred, nil
}

// IDToken return the cached ID token, minting a fresh one when force is set
// or the cached one has expired
func (p *RESTProvider) IDToken(ctx context.Context, force bool) (string, error) {
	p.mu.Lock()
	cred := p.cred
	p.mu.Unlock()

	if cred == nil {
		return "", domain.ErrNoSession
	}
	if !force && time.Now().Before(cred.ExpiresAt) {
		return cred.IDToken, nil
	}

	body, _ := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": cred.RefreshToken,
	})
	res, err := p.post(ctx, "/v1/token", body)
	if err != nil {
		return "", err
	}
	fresh := p.toCredential(res)

	p.mu.Lock()
	p.cred = fresh
	p.mu.Unlock()
	return fresh.IDToken, nil
}

// SignOut drop the cached credential
func (p *RESTProvider) SignOut() {
	p.mu.Lock()
	p.cred = nil
	p.mu.Unlock()
}

func (p *RESTProvider) post(ctx context.Context, path string, body []byte) (*tokenResponse, error) {
	url := fmt.Sprintf("%s%s?key=%s", p.endpoint, path, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	res := new(tokenResponse)
	if err := json.Unmarshal(raw, res); err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 || res.Error != nil {
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrInvalidCredentials
		}
		if res.Error != nil {
			return nil, fmt.Errorf("identity provider: %s", res.Error.Message)
		}
		return nil, fmt.Errorf("identity provider: status %d", resp.StatusCode)
	}
	return res, nil
}

func (p *RESTProvider) toCredential(res *tokenResponse) *Credential {
	ttl := time.Hour
	if d, err := time.ParseDuration(res.ExpiresIn + "s"); err == nil {
		ttl = d
	}
	// prefer the exp claim when the token decodes, the expiresIn field is
	// advisory
	expiresAt := time.Now().Add(ttl)
	if claims, err := DecodeIDToken(res.IDToken); err == nil && claims.ExpiresAt > 0 {
		expiresAt = time.Unix(claims.ExpiresAt, 0)
	}
	return &Credential{
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}
