package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/event"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/identity"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// staticProvider identity.Provider stand-in issuing a fixed token
type staticProvider struct {
	token string
}

func (p *staticProvider) SignIn(context.Context, string, string) (*identity.Credential, error) {
	return &identity.Credential{IDToken: p.token}, nil
}

func (p *staticProvider) IDToken(context.Context, bool) (string, error) { return p.token, nil }
func (p *staticProvider) SignOut()                                      {}

// refreshBackend counts /auth/refresh calls and hands out hour-long sessions
type refreshBackend struct {
	mu        sync.Mutex
	refreshes int
}

func (b *refreshBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}

func (b *refreshBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.refreshes++
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"expiresAt": time.Now().Add(time.Hour)},
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newKeeperHarness(t *testing.T, cfg KeeperConfig, remaining time.Duration) (*refreshBackend, *SessionStore, *Keeper) {
	t.Helper()
	backend := new(refreshBackend)
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	api := driver.NewAPIClient(&driver.APIClientConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, infra.NewNanoIDGenerator(8), zap.NewNop())
	store := NewSessionStore(api, &staticProvider{token: "token"}, validate.NewValidator(), event.NewBus(), Config{}, zap.NewNop())

	store.mu.Lock()
	store.session = &domain.SessionModel{UserID: "user-1", ExpiresAt: time.Now().Add(remaining)}
	store.mu.Unlock()

	keeper := NewKeeper(store, cfg, zap.NewNop())
	t.Cleanup(keeper.Stop)
	return backend, store, keeper
}

func TestTouchOutsideRefreshWindow(t *testing.T) {
	backend, _, keeper := newKeeperHarness(t, KeeperConfig{
		RefreshWindow:   10 * time.Minute,
		RefreshDebounce: 10 * time.Millisecond,
	}, time.Hour)

	keeper.Touch()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, backend.count(), "activity far from expiry must not refresh")
}

func TestTouchDebouncesToOneRefresh(t *testing.T) {
	backend, store, keeper := newKeeperHarness(t, KeeperConfig{
		RefreshWindow:   10 * time.Minute,
		RefreshDebounce: 40 * time.Millisecond,
	}, 5*time.Minute)

	for i := 0; i < 5; i++ {
		keeper.Touch()
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return backend.count() == 1 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, backend.count(), "a burst of activity collapses into a single refresh")

	session := store.Session()
	require.NotNil(t, session)
	assert.Greater(t, session.TimeRemaining(), 30*time.Minute, "the refreshed session runs a full hour")
}

func TestTouchWhileAnonymous(t *testing.T) {
	backend, store, keeper := newKeeperHarness(t, KeeperConfig{
		RefreshWindow:   10 * time.Minute,
		RefreshDebounce: 10 * time.Millisecond,
	}, 5*time.Minute)
	store.clearSession()

	assert.NotPanics(t, keeper.Touch)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, backend.count())
}

func TestPeriodicCheckWarnsNearExpiry(t *testing.T) {
	_, _, keeper := newKeeperHarness(t, KeeperConfig{
		RefreshWindow: time.Second, // keep Touch out of the picture
		WarnLead:      5 * time.Minute,
		CheckInterval: 20 * time.Millisecond,
	}, 2*time.Minute)

	warned := make(chan time.Duration, 1)
	keeper.OnWarn = func(remaining time.Duration) {
		select {
		case warned <- remaining:
		default:
		}
	}
	keeper.Start()

	select {
	case remaining := <-warned:
		assert.Greater(t, remaining, time.Duration(0))
		assert.LessOrEqual(t, remaining, 5*time.Minute)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an expiry warning")
	}
}

func TestPeriodicCheckLogsOutExpiredSession(t *testing.T) {
	_, store, keeper := newKeeperHarness(t, KeeperConfig{
		RefreshWindow: time.Second,
		CheckInterval: 20 * time.Millisecond,
	}, -time.Second)

	keeper.Start()
	require.Eventually(t, func() bool {
		return store.State() == StateAnonymous
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartStopIdempotent(t *testing.T) {
	_, _, keeper := newKeeperHarness(t, KeeperConfig{CheckInterval: 20 * time.Millisecond}, time.Hour)
	assert.NotPanics(t, func() {
		keeper.Start()
		keeper.Start()
		keeper.Stop()
		keeper.Stop()
		keeper.Start()
		keeper.Stop()
	})
}
