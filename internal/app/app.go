// Package app wires the stores into one explicit container constructed at
// startup and passed down, instead of module-level singletons.
package app

import (
	"fmt"

	"github.com/JawadJisan/coursepilot/internal/auth"
	"github.com/JawadJisan/coursepilot/internal/course"
	"github.com/JawadJisan/coursepilot/internal/event"
	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/driver"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/identity"
	"github.com/JawadJisan/coursepilot/internal/infrastructure/validate"
	"github.com/JawadJisan/coursepilot/internal/interview"
	"github.com/JawadJisan/coursepilot/internal/progress"
	"github.com/JawadJisan/coursepilot/internal/voice"
	"go.uber.org/zap"
)

// App the client application: one instance of every store plus the shared
// plumbing. There is exactly one writer per state slice; cross-store effects
// travel over the event bus.
type App struct {
	API      *driver.APIClient
	Identity identity.Provider
	Device   driver.KeyValueDB
	Bus      *event.Bus

	Sessions   *auth.SessionStore
	Keeper     *auth.Keeper
	Courses    *course.Store
	Progress   *progress.Store
	Interviews *interview.Store
	Feedback   *interview.FeedbackStoreImpl
	Voice      *voice.Client

	logger *zap.Logger
}

// New build the application from config. The device store is injected so
// tests can run on a MemoryStore.
func New(option *infra.AppConfig, device driver.KeyValueDB, logger *zap.Logger) *App {
	bus := event.NewBus()
	ids := infra.NewNanoIDGenerator(16)
	validator := validate.NewValidator()

	api := driver.NewAPIClient(&driver.APIClientConfig{
		BaseURL:   option.API.BaseURL,
		Timeout:   option.API.Timeout,
		EnableAPM: option.DevOP.APM,
	}, ids, logger)
	// identity calls share the jar and APM wrapping with API calls
	idp := identity.NewRESTProvider(option.Identity.Endpoint, option.Identity.APIKey, api.HTTPClient())

	sessions := auth.NewSessionStore(api, idp, validator, bus, auth.Config{
		LogoutLead:      option.Session.LogoutLead,
		LoginFetchDelay: option.Session.LoginFetchDelay,
	}, logger)
	api.SetSessionRefresher(sessions)

	keeper := auth.NewKeeper(sessions, auth.KeeperConfig{
		RefreshWindow:   option.Session.RefreshWindow,
		RefreshDebounce: option.Session.RefreshDebounce,
	}, logger)

	return &App{
		API:        api,
		Identity:   idp,
		Device:     device,
		Bus:        bus,
		Sessions:   sessions,
		Keeper:     keeper,
		Courses:    course.NewStore(api, logger),
		Progress:   progress.NewStore(api, logger),
		Interviews: interview.NewStore(api, bus, logger),
		Feedback:   interview.NewFeedbackStore(api, validator, bus, logger),
		Voice:      voice.NewClient(option.Voice.GatewayURL, logger),
		logger:     logger,
	}
}

// OpenDeviceStore open the configured device store backend
func OpenDeviceStore(option *infra.AppConfig) (driver.KeyValueDB, error) {
	switch option.Store.Backend {
	case "sqlite":
		return driver.NewSQLiteStore(option.Store.Path)
	case "redis":
		return driver.NewRedisClient(option.Store.Host, option.Store.Port, option.Store.Password), nil
	default:
		return nil, fmt.Errorf("unknown device store backend: %s", option.Store.Backend)
	}
}

// Close release the device store
func (a *App) Close() error {
	a.Keeper.Stop()
	a.Voice.Stop()
	if a.Device != nil {
		return a.Device.Close()
	}
	return nil
}
