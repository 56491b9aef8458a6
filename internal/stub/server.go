// Package stub is a self-contained stand-in for the CoursePilot backend and
// its identity provider, good enough for local development and for the
// integration tests. It is not production code: state lives in memory and
// tokens are signed with a throwaway secret.
package stub

import (
	"fmt"
	"strings"
	"sync"
	"time"

	infra "github.com/JawadJisan/coursepilot/internal/infrastructure"
	"github.com/labstack/echo/v4"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

// Config stub server options
type Config struct {
	// SessionTTL backend session lifetime
	SessionTTL time.Duration
	// RetakeCooldown how long a completed interview blocks a retake
	RetakeCooldown time.Duration
	// EnableAPM attach apm middleware
	EnableAPM bool
}

type session struct {
	userID    string
	expiresAt time.Time
}

// Server in-memory backend: fixture users and courses, cookie sessions,
// per-user progress and interview state
type Server struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	users    map[string]*user    // by id
	emails   map[string]string   // email -> user id
	refresh  map[string]string   // refresh token -> user id
	sessions map[string]*session // cookie token -> session
	courses  []*course           // fixture catalog
	// userID -> courseID -> lessonID
	completed map[string]map[string]map[string]bool
	// userID -> courseID
	interviews map[string]map[string]*interview
	feedbacks  map[string]*feedback // by id
}

// NewServer create a Server seeded with fixture data
func NewServer(cfg Config, logger *zap.Logger) *Server {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.RetakeCooldown == 0 {
		cfg.RetakeCooldown = 7 * 24 * time.Hour
	}
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		users:      make(map[string]*user),
		emails:     make(map[string]string),
		refresh:    make(map[string]string),
		sessions:   make(map[string]*session),
		completed:  make(map[string]map[string]map[string]bool),
		interviews: make(map[string]map[string]*interview),
		feedbacks:  make(map[string]*feedback),
	}
	s.seed()
	return s
}

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

type apiGroup struct {
	prefix string
	auth   bool
	routes []*route
}

// Handler build the echo application serving the API and identity surfaces
func (s *Server) Handler() *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.Use(s.loggingMiddleware())
	if s.cfg.EnableAPM {
		app.Use(apmechov4.Middleware())
	}

	groups := []*apiGroup{
		{
			prefix: "/identity/v1",
			routes: []*route{
				{"POST", "/accounts:signInWithPassword", s.handleIdentitySignIn},
				{"POST", "/token", s.handleIdentityRefresh},
			},
		},
		{
			prefix: "/api/auth",
			routes: []*route{
				{"POST", "/login", s.handleLogin},
				{"POST", "/signup", s.handleSignup},
				{"POST", "/refresh", s.handleRefresh},
			},
		},
		{
			prefix: "/api/auth",
			auth:   true,
			routes: []*route{
				{"POST", "/logout", s.handleLogout},
				{"GET", "/me", s.handleMe},
			},
		},
		{
			prefix: "/api/course",
			auth:   true,
			routes: []*route{
				{"GET", "/all-courses", s.handleAllCourses},
				{"GET", "/my-courses", s.handleMyCourses},
				{"GET", "/:id", s.handleCourse},
			},
		},
		{
			prefix: "/api/progress",
			auth:   true,
			routes: []*route{
				{"GET", "/courses", s.handleAllProgress},
				{"GET", "/courses/:id", s.handleCourseProgress},
				{"POST", "/courses/:id/lessons/:lessonId", s.handleCompleteLesson},
			},
		},
		{
			prefix: "/api/interviews",
			auth:   true,
			routes: []*route{
				{"POST", "/generate", s.handleGenerateInterview},
				{"GET", "/status/:courseId", s.handleInterviewStatus},
				{"GET", "/user", s.handleUserInterviews},
			},
		},
		{
			prefix: "/api/feedback",
			auth:   true,
			routes: []*route{
				{"POST", "/generate", s.handleGenerateFeedback},
				{"GET", "/user/all", s.handleUserFeedback},
				{"GET", "/:id", s.handleFeedback},
			},
		},
	}
	for _, group := range groups {
		g := app.Group(group.prefix)
		if group.auth {
			g.Use(s.requireSession)
		}
		for _, r := range group.routes {
			g.Add(r.method, r.path, r.handler)
		}
	}
	return app
}

// Start serve on the given address, blocking
func (s *Server) Start(host string, port int) error {
	return s.Handler().Start(fmt.Sprintf("%s:%d", host, port))
}

func (s *Server) loggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			s.logger.Debug("stub request",
				zap.String("http.request.method", c.Request().Method),
				zap.String("url.path", c.Request().RequestURI),
				zap.Int("http.response.status_code", c.Response().Status),
			)
			return err
		}
	}
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := s.sessionFrom(c)
		if sess == nil {
			return unauthorized(c)
		}
		c.Set("userID", sess.userID)
		return next(c)
	}
}

func (s *Server) sessionFrom(c echo.Context) *session {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[cookie.Value]
	if !ok || time.Now().After(sess.expiresAt) {
		return nil
	}
	return sess
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{"data": data}
}

func unauthorized(c echo.Context) error {
	return c.JSON(401, map[string]string{"error": "Unauthorized"})
}

func notFound(c echo.Context, what string) error {
	return c.JSON(404, map[string]string{"error": what + " not found"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(400, map[string]string{"message": msg})
}

func cooldown(c echo.Context, retakeAt time.Time) error {
	return c.JSON(403, map[string]string{
		"code":       infra.CodeRetakeCooldown,
		"retakeDate": retakeAt.Format(time.RFC3339),
	})
}

func slugify(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
