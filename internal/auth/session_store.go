package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/JawadJisan/coursepilot/internal/event"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/identity"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/validate"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// session lifecycle states
const (
	StateAnonymous = "anonymous"
	StateActive    = "active"
)

// FormError local validation failure, raised before any network call
type FormError struct {
	Fields []*validate.FieldError
}

func (fe *FormError) Error() string {
	msgs := make([]string, 0, len(fe.Fields))
	for _, f := range fe.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Domain, f.Reason))
	}
	return strings.Join(msgs, "; ")
}

// Config session store options
type Config struct {
	// LogoutLead how long before actual expiry the logout timer fires, so
	// the app signs out ahead of the backend invalidating the session
	LogoutLead time.Duration
	// LoginFetchDelay fixed wait between a successful login and the user
	// re-fetch, allowing the session cookie to propagate. A deliberate
	// wait, not a retry loop.
	LoginFetchDelay time.Duration
}

type loginResponse struct {
	User      domain.UserModel `json:"user"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

type refreshResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore owns the authenticated-user record and its logout timer.
//
// Lifecycle: anonymous -> (login success) -> active -> (logout | refresh
// failure | timer fire) -> anonymous. There is no intermediate "refreshing"
// state: refresh is fire-and-forget from the caller's perspective.
type SessionStore struct {
	api       *driver.APIClient
	idp       identity.Provider
	validator validate.Validator
	bus       *event.Bus
	logger    *zap.Logger
	cfg       Config

	mu          sync.Mutex
	session     *domain.SessionModel
	user        *domain.UserModel
	logoutTimer *time.Timer
	logoutAt    time.Time
}

var _ domain.SessionStore = (*SessionStore)(nil)
var _ driver.SessionRefresher = (*SessionStore)(nil)

// NewSessionStore create a SessionStore instance
func NewSessionStore(
	api *driver.APIClient,
	idp identity.Provider,
	validator validate.Validator,
	bus *event.Bus,
	cfg Config,
	logger *zap.Logger,
) *SessionStore {
	if cfg.LogoutLead == 0 {
		cfg.LogoutLead = 30 * time.Second
	}
	return &SessionStore{
		api:       api,
		idp:       idp,
		validator: validator,
		bus:       bus,
		logger:    logger,
		cfg:       cfg,
	}
}

// State current lifecycle state
func (st *SessionStore) State() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.session == nil {
		return StateAnonymous
	}
	return StateActive
}

// Session current session record, nil while anonymous
func (st *SessionStore) Session() *domain.SessionModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session
}

// User last fetched user record
func (st *SessionStore) User() *domain.UserModel {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.user
}

// Login authenticate against the identity provider, exchange the credential
// for a backend session, schedule the logout timer and re-fetch the full
// user record
func (st *SessionStore) Login(ctx context.Context, form *domain.LoginForm) (*domain.SessionModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "SessionStore.Login", "store")
	defer apmSpan.End()

	if fields := st.validator.Struct(form); fields != nil {
		return nil, &FormError{Fields: fields}
	}

	cred, err := st.idp.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}

	var res loginResponse
	if err := st.api.Post(ctx, "/auth/login", map[string]string{"idToken": cred.IDToken}, &res); err != nil {
		return nil, err
	}

	session := &domain.SessionModel{
		UserID:    res.User.ID,
		Email:     res.User.Email,
		Name:      res.User.Name,
		ExpiresAt: res.ExpiresAt,
	}
	st.mu.Lock()
	st.session = session
	st.user = &res.User
	st.mu.Unlock()
	st.ScheduleLogout(res.ExpiresAt)
	st.logger.Info("Session established",
		zap.String("user.id", session.UserID),
		zap.Time("session.expires_at", session.ExpiresAt),
	)

	// let the session cookie settle before asking for the full record
	if st.cfg.LoginFetchDelay > 0 {
		select {
		case <-time.After(st.cfg.LoginFetchDelay):
		case <-ctx.Done():
			return session, nil
		}
	}
	if _, err := st.FetchUser(ctx); err != nil {
		st.logger.Warn("User re-fetch after login failed", zap.Error(err))
	}
	return session, nil
}

// Register call the backend signup endpoint. Does not auto-login.
func (st *SessionStore) Register(ctx context.Context, form *domain.RegisterForm) error {
	apmSpan, ctx := apm.StartSpan(ctx, "SessionStore.Register", "store")
	defer apmSpan.End()

	if fields := st.validator.Struct(form); fields != nil {
		return &FormError{Fields: fields}
	}
	return st.api.Post(ctx, "/auth/signup", form, nil)
}

// Logout end the session. Backend invalidation is best effort and skipped
// when no local session exists; the identity provider sign-out and the local
// teardown always happen. Never fails user-visibly.
func (st *SessionStore) Logout(ctx context.Context) {
	apmSpan, ctx := apm.StartSpan(ctx, "SessionStore.Logout", "store")
	defer apmSpan.End()

	st.mu.Lock()
	hadSession := st.session != nil
	st.mu.Unlock()

	if hadSession {
		if err := st.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
			st.logger.Warn("Backend logout failed", zap.Error(err))
		}
	}
	st.idp.SignOut()
	st.clearSession()
	if st.bus != nil {
		st.bus.Publish(event.TopicSessionEnded, nil)
	}
	st.logger.Info("Session ended")
}

// RefreshSession force a fresh identity credential, exchange it for a renewed
// backend session and reschedule the logout timer. Only the expiry field of
// the session changes. Any failure forces a logout instead of propagating.
func (st *SessionStore) RefreshSession(ctx context.Context) error {
	apmSpan, ctx := apm.StartSpan(ctx, "SessionStore.RefreshSession", "store")
	defer apmSpan.End()

	idToken, err := st.idp.IDToken(ctx, true)
	if err != nil {
		st.forceLogout(ctx, err)
		return err
	}

	var res refreshResponse
	if err := st.api.Post(ctx, "/auth/refresh", map[string]string{"idToken": idToken}, &res); err != nil {
		st.forceLogout(ctx, err)
		return err
	}

	st.mu.Lock()
	if st.session == nil {
		st.mu.Unlock()
		return domain.ErrNoSession
	}
	session := *st.session
	session.ExpiresAt = res.ExpiresAt
	st.session = &session
	st.mu.Unlock()

	st.ScheduleLogout(res.ExpiresAt)
	st.logger.Debug("Session refreshed", zap.Time("session.expires_at", res.ExpiresAt))
	return nil
}

// FetchUser retrieve the full user record. No-op while anonymous, guards
// against unsolicited fetches. A 401 specifically logs the user out; other
// errors are left to the caller.
func (st *SessionStore) FetchUser(ctx context.Context) (*domain.UserModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "SessionStore.FetchUser", "store")
	defer apmSpan.End()

	st.mu.Lock()
	hasSession := st.session != nil
	st.mu.Unlock()
	if !hasSession {
		return nil, domain.ErrNoSession
	}

	var user domain.UserModel
	if err := st.api.Get(ctx, "/auth/me", &user); err != nil {
		var ae *infra.APIError
		if errors.As(err, &ae) && ae.Unauthorized() || errors.Is(err, domain.ErrSessionExpired) {
			st.Logout(ctx)
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}

	st.mu.Lock()
	// the session may have ended while the request was in flight, do not
	// resurrect it with stale data
	if st.session != nil {
		st.user = &user
	}
	st.mu.Unlock()
	return &user, nil
}

// ScheduleLogout arm the logout timer to fire LogoutLead before expiresAt.
// Single-timer discipline: any previous timer is cleared first, so at most
// one timer is ever pending.
func (st *SessionStore) ScheduleLogout(expiresAt time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.logoutTimer != nil {
		st.logoutTimer.Stop()
		st.logoutTimer = nil
	}
	st.logoutAt = expiresAt.Add(-st.cfg.LogoutLead)
	delay := time.Until(st.logoutAt)
	if delay < 0 {
		delay = 0
	}
	st.logoutTimer = time.AfterFunc(delay, func() {
		st.logger.Info("Session expiring, logging out ahead of the backend")
		st.Logout(context.Background())
	})
}

// LogoutDeadline when the pending logout timer fires, zero while anonymous
func (st *SessionStore) LogoutDeadline() time.Time {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.logoutAt
}

// PendingLogout report whether a logout timer is armed
func (st *SessionStore) PendingLogout() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.logoutTimer != nil
}

func (st *SessionStore) forceLogout(ctx context.Context, cause error) {
	st.logger.Warn("Session refresh failed, forcing logout", zap.Error(cause))
	st.idp.SignOut()
	st.clearSession()
	if st.bus != nil {
		st.bus.Publish(event.TopicSessionEnded, nil)
	}
}

func (st *SessionStore) clearSession() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.logoutTimer != nil {
		st.logoutTimer.Stop()
		st.logoutTimer = nil
	}
	st.logoutAt = time.Time{}
	st.session = nil
	st.user = nil
}
