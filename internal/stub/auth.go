package stub

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookie = "cp_session"

// throwaway signing secret, the stub is never exposed beyond localhost
var tokenSecret = []byte("coursepilot-stub-secret")

type idTokenClaims struct {
	UID   string `json:"user_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.StandardClaims
}

func (s *Server) issueIDToken(u *user) (string, error) {
	claims := &idTokenClaims{
		UID:   u.ID,
		Email: u.Email,
		Name:  u.Name,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokenSecret)
}

func (s *Server) userFromIDToken(tokenStr string) *user {
	claims := new(idTokenClaims)
	if _, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return tokenSecret, nil
	}); err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[claims.UID]
}

func identityError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{
		"error": map[string]string{"message": message},
	})
}

func (s *Server) handleIdentitySignIn(c echo.Context) error {
	post := new(struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if err := c.Bind(post); err != nil {
		return identityError(c, http.StatusBadRequest, "INVALID_PAYLOAD")
	}

	s.mu.Lock()
	userID, ok := s.emails[post.Email]
	u := s.users[userID]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(post.Password)) != nil {
		return identityError(c, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
	}

	idToken, err := s.issueIDToken(u)
	if err != nil {
		return err
	}
	refreshToken, _ := gonanoid.Nanoid(24)
	s.mu.Lock()
	s.refresh[refreshToken] = u.ID
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{
		"idToken":      idToken,
		"refreshToken": refreshToken,
		"expiresIn":    "3600",
	})
}

func (s *Server) handleIdentityRefresh(c echo.Context) error {
	post := new(struct {
		GrantType    string `json:"grant_type"`
		RefreshToken string `json:"refresh_token"`
	})
	if err := c.Bind(post); err != nil {
		return identityError(c, http.StatusBadRequest, "INVALID_PAYLOAD")
	}

	s.mu.Lock()
	userID, ok := s.refresh[post.RefreshToken]
	u := s.users[userID]
	s.mu.Unlock()
	if !ok {
		return identityError(c, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
	}

	idToken, err := s.issueIDToken(u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"idToken":      idToken,
		"refreshToken": post.RefreshToken,
		"expiresIn":    "3600",
	})
}

func (s *Server) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	post := new(struct {
		IDToken string `json:"idToken"`
	})
	if err := c.Bind(post); err != nil {
		return badRequest(c, "Failed to bind login payload")
	}
	u := s.userFromIDToken(post.IDToken)
	if u == nil {
		return unauthorized(c)
	}

	token, _ := gonanoid.Nanoid(24)
	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	s.mu.Lock()
	s.sessions[token] = &session{userID: u.ID, expiresAt: expiresAt}
	s.mu.Unlock()
	s.setSessionCookie(c, token, expiresAt)

	return c.JSON(http.StatusOK, envelope(map[string]interface{}{
		"user":      s.userModel(u),
		"expiresAt": expiresAt,
	}))
}

func (s *Server) handleSignup(c echo.Context) error {
	post := new(struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if err := c.Bind(post); err != nil {
		return badRequest(c, "Failed to bind signup payload")
	}
	if post.Name == "" || post.Email == "" || len(post.Password) < 6 {
		return badRequest(c, "Name, email and a password of at least 6 characters are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emails[post.Email]; exists {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Email is already registered"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(post.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	id, _ := gonanoid.Nanoid(12)
	u := &user{
		ID:           "user-" + id,
		Name:         post.Name,
		Email:        post.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return c.JSON(http.StatusCreated, envelope(s.userModel(u)))
}

func (s *Server) handleRefresh(c echo.Context) error {
	post := new(struct {
		IDToken string `json:"idToken"`
	})
	if err := c.Bind(post); err != nil {
		return badRequest(c, "Failed to bind refresh payload")
	}
	u := s.userFromIDToken(post.IDToken)
	if u == nil {
		return unauthorized(c)
	}

	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	s.mu.Lock()
	// renew the existing cookie session when present, otherwise mint one
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions[cookie.Value]; ok && sess.userID == u.ID {
			sess.expiresAt = expiresAt
			s.mu.Unlock()
			s.setSessionCookie(c, cookie.Value, expiresAt)
			return c.JSON(http.StatusOK, envelope(map[string]interface{}{"expiresAt": expiresAt}))
		}
	}
	token, _ := gonanoid.Nanoid(24)
	s.sessions[token] = &session{userID: u.ID, expiresAt: expiresAt}
	s.mu.Unlock()
	s.setSessionCookie(c, token, expiresAt)
	return c.JSON(http.StatusOK, envelope(map[string]interface{}{"expiresAt": expiresAt}))
}

func (s *Server) handleLogout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	s.setSessionCookie(c, "", time.Now())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMe(c echo.Context) error {
	userID := c.Get("userID").(string)
	s.mu.Lock()
	u := s.users[userID]
	s.mu.Unlock()
	if u == nil {
		return notFound(c, "user")
	}
	return c.JSON(http.StatusOK, envelope(s.userModel(u)))
}

func (s *Server) userModel(u *user) *domain.UserModel {
	return &domain.UserModel{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		PhotoURL:  fmt.Sprintf("https://avatars.example.com/%s.png", u.ID),
		CreatedAt: u.CreatedAt,
	}
}

// ExpireSessions force every active session past its expiry, for tests
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.expiresAt = time.Now().Add(-time.Minute)
	}
}
