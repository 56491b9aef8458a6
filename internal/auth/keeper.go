package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// KeeperConfig session keeper options
type KeeperConfig struct {
	// RefreshWindow activity closer to expiry than this schedules a refresh
	RefreshWindow time.Duration
	// RefreshDebounce quiet period between an interaction and the refresh
	// call, so a burst of activity produces a single request
	RefreshDebounce time.Duration
	// WarnLead remaining lifetime at which OnWarn fires
	WarnLead time.Duration
	// CheckInterval how often the expiry check runs
	CheckInterval time.Duration
}

// Keeper best-effort session extension. Interaction events reported through
// Touch extend the session when it is close to expiry; a periodic check warns
// about imminent expiry and logs out at zero remaining time. If the app is
// idle the session lapses on schedule.
//
// Explicit lifecycle: the owner calls Start and Stop, there are no implicit
// mount hooks.
type Keeper struct {
	store  *SessionStore
	logger *zap.Logger
	cfg    KeeperConfig

	// OnWarn invoked when the session is within WarnLead of expiry, with
	// the remaining time
	OnWarn func(remaining time.Duration)

	mu            sync.Mutex
	debounceTimer *time.Timer
	done          chan struct{}
}

// NewKeeper create a Keeper for the given store
func NewKeeper(store *SessionStore, cfg KeeperConfig, logger *zap.Logger) *Keeper {
	if cfg.RefreshWindow == 0 {
		cfg.RefreshWindow = 10 * time.Minute
	}
	if cfg.RefreshDebounce == 0 {
		cfg.RefreshDebounce = time.Second
	}
	if cfg.WarnLead == 0 {
		cfg.WarnLead = 5 * time.Minute
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	return &Keeper{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// Start run the periodic expiry check until Stop is called
func (k *Keeper) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done != nil {
		return
	}
	k.done = make(chan struct{})
	go k.run(k.done)
}

// Stop halt the expiry check and drop any pending refresh
func (k *Keeper) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done != nil {
		close(k.done)
		k.done = nil
	}
	if k.debounceTimer != nil {
		k.debounceTimer.Stop()
		k.debounceTimer = nil
	}
}

// Touch record a user interaction. Inside the refresh window this debounces a
// RefreshSession call; outside it the interaction is ignored.
func (k *Keeper) Touch() {
	session := k.store.Session()
	if session == nil {
		return
	}
	if session.TimeRemaining() > k.cfg.RefreshWindow {
		return
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	// single pending refresh at a time
	if k.debounceTimer != nil {
		k.debounceTimer.Stop()
	}
	k.debounceTimer = time.AfterFunc(k.cfg.RefreshDebounce, func() {
		if err := k.store.RefreshSession(context.Background()); err != nil {
			k.logger.Warn("Activity-driven session refresh failed", zap.Error(err))
		}
	})
}

func (k *Keeper) run(done chan struct{}) {
	ticker := time.NewTicker(k.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			k.check()
		}
	}
}

func (k *Keeper) check() {
	session := k.store.Session()
	if session == nil {
		return
	}
	remaining := session.TimeRemaining()
	if remaining <= 0 {
		k.logger.Info("Session reached zero remaining time, logging out")
		k.store.Logout(context.Background())
		return
	}
	if remaining <= k.cfg.WarnLead && k.OnWarn != nil {
		k.OnWarn(remaining)
	}
}
