package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/event"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/identity"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/validate"
	"github.com/JawadJisan/coursepilot/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	backend *stub.Server
	store   *SessionStore
	bus     *event.Bus
	idp     *identity.RESTProvider
}

func newHarness(t *testing.T, cfg Config, sessionTTL time.Duration) *harness {
	t.Helper()
	backend := stub.NewServer(stub.Config{SessionTTL: sessionTTL}, zap.NewNop())
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	api := driver.NewAPIClient(&driver.APIClientConfig{
		BaseURL: srv.URL + "/api",
		Timeout: 5 * time.Second,
	}, infra.NewNanoIDGenerator(8), zap.NewNop())
	idp := identity.NewRESTProvider(srv.URL+"/identity", "test-key", api.HTTPClient())
	bus := event.NewBus()
	store := NewSessionStore(api, idp, validate.NewValidator(), bus, cfg, zap.NewNop())
	api.SetSessionRefresher(store)
	return &harness{backend: backend, store: store, bus: bus, idp: idp}
}

func demoLogin(t *testing.T, h *harness) *domain.SessionModel {
	t.Helper()
	session, err := h.store.Login(context.Background(), &domain.LoginForm{
		Email:    stub.DemoEmail,
		Password: stub.DemoPassword,
	})
	require.NoError(t, err)
	return session
}

func TestLoginEstablishesSession(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	session := demoLogin(t, h)

	assert.Equal(t, StateActive, h.store.State())
	assert.Equal(t, stub.DemoEmail, session.Email)
	assert.Greater(t, session.TimeRemaining(), 50*time.Minute)

	require.True(t, h.store.PendingLogout())
	wantDeadline := session.ExpiresAt.Add(-30 * time.Second)
	assert.WithinDuration(t, wantDeadline, h.store.LogoutDeadline(), time.Second)

	user := h.store.User()
	require.NotNil(t, user, "login re-fetches the full user record")
	assert.Equal(t, stub.DemoEmail, user.Email)
	assert.NotEmpty(t, user.PhotoURL)
}

func TestLoginValidatesForm(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	_, err := h.store.Login(context.Background(), &domain.LoginForm{Email: "not-an-email", Password: "123"})

	fe := new(FormError)
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe.Fields, 2)
	assert.Equal(t, StateAnonymous, h.store.State())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	_, err := h.store.Login(context.Background(), &domain.LoginForm{
		Email:    stub.DemoEmail,
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, StateAnonymous, h.store.State())
}

func TestLogout(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	ended := false
	h.bus.Subscribe(event.TopicSessionEnded, func(interface{}) { ended = true })
	demoLogin(t, h)

	h.store.Logout(context.Background())
	assert.Equal(t, StateAnonymous, h.store.State())
	assert.Nil(t, h.store.Session())
	assert.Nil(t, h.store.User())
	assert.False(t, h.store.PendingLogout())
	assert.True(t, ended)
}

func TestLogoutWhileAnonymous(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	assert.NotPanics(t, func() { h.store.Logout(context.Background()) })
	assert.Equal(t, StateAnonymous, h.store.State())
}

func TestRefreshSessionExtendsExpiry(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	session := demoLogin(t, h)
	before := session.ExpiresAt

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, h.store.RefreshSession(context.Background()))

	renewed := h.store.Session()
	require.NotNil(t, renewed)
	assert.True(t, renewed.ExpiresAt.After(before), "refresh must push the expiry forward")
	assert.Equal(t, session.UserID, renewed.UserID, "only the expiry changes")
	assert.WithinDuration(t, renewed.ExpiresAt.Add(-30*time.Second), h.store.LogoutDeadline(), time.Second)
}

func TestRefreshSessionWhileAnonymous(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	err := h.store.RefreshSession(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestFetchUserWhileAnonymous(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	_, err := h.store.FetchUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

// the backend session lapsing under an active client is healed by the 401
// interceptor: refresh once, retry once
func TestExpiredBackendSessionIsRefreshedAndRetried(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	demoLogin(t, h)
	h.backend.ExpireSessions()

	user, err := h.store.FetchUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stub.DemoEmail, user.Email)
	assert.Equal(t, StateActive, h.store.State())
}

func TestFailedRefreshAfter401LogsOut(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	demoLogin(t, h)

	// drop the identity credential so the refresh leg cannot succeed
	h.idp.SignOut()
	h.backend.ExpireSessions()

	_, err := h.store.FetchUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, StateAnonymous, h.store.State())
}

func TestScheduleLogoutReplacesPendingTimer(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	demoLogin(t, h)

	later := time.Now().Add(2 * time.Hour)
	h.store.ScheduleLogout(later)
	require.True(t, h.store.PendingLogout())
	assert.WithinDuration(t, later.Add(-30*time.Second), h.store.LogoutDeadline(), time.Second)
}

func TestLogoutTimerFires(t *testing.T) {
	h := newHarness(t, Config{LogoutLead: 100 * time.Millisecond}, 150*time.Millisecond)
	demoLogin(t, h)

	require.Eventually(t, func() bool {
		return h.store.State() == StateAnonymous
	}, 2*time.Second, 10*time.Millisecond, "the timer signs out ahead of the backend expiry")
	assert.False(t, h.store.PendingLogout())
}

func TestRegister(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	err := h.store.Register(context.Background(), &domain.RegisterForm{
		Name:     "New Learner",
		Email:    "new@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, StateAnonymous, h.store.State(), "signup does not auto-login")

	// the account exists now, signing in works
	_, err = h.store.Login(context.Background(), &domain.LoginForm{
		Email:    "new@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	err := h.store.Register(context.Background(), &domain.RegisterForm{
		Name:     "Copycat",
		Email:    stub.DemoEmail,
		Password: "password123",
	})
	ae := new(infra.APIError)
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 409, ae.Status)
}

func TestRegisterValidatesForm(t *testing.T) {
	h := newHarness(t, Config{}, time.Hour)
	err := h.store.Register(context.Background(), &domain.RegisterForm{
		Name:     "X",
		Email:    "x@example.com",
		Password: "123",
	})
	fe := new(FormError)
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe.Fields, 2)
}
