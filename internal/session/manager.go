package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/legalbook/legalbook/config"
	"github.com/legalbook/legalbook/internal/domain"
	"github.com/legalbook/legalbook/internal/repository"
	"go.uber.org/zap"
)

const (
	// TokenCookie mirrors the access token for the route gate.
	TokenCookie = "token"
	// IDCookie carries the durable session id.
	IDCookie = "lb_session"
)

// Manager is the single mutation point for session state. Issue and Clear
// update the durable store and the cookie mirror together so the two can
// never fall out of sync.
type Manager struct {
	repo   repository.SessionRepository
	maxAge time.Duration
	secure bool
	log    *zap.Logger
}

func NewManager(repo repository.SessionRepository, cfg config.SessionConfig, log *zap.Logger) *Manager {
	maxAge := time.Duration(cfg.CookieMaxAgeSeconds) * time.Second
	if maxAge == 0 {
		maxAge = 24 * time.Hour
	}
	return &Manager{repo: repo, maxAge: maxAge, secure: cfg.CookieSecure, log: log}
}

// Issue persists a fresh session and mirrors it into cookies. The durable row
// is written first; cookies are only set once the row exists.
func (m *Manager) Issue(c *gin.Context, tokens *domain.TokenPair) (*domain.Session, error) {
	session := &domain.Session{
		ID:           uuid.NewString(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    time.Now().Add(m.maxAge),
	}
	if err := m.repo.Create(c.Request.Context(), session); err != nil {
		return nil, err
	}

	maxAge := int(m.maxAge.Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, session.AccessToken, maxAge, "/", "", m.secure, false)
	c.SetCookie(IDCookie, session.ID, maxAge, "/", "", m.secure, true)
	return session, nil
}

// Clear drops the durable row and expires both cookies. Used by logout and by
// the forced-logout path on a gateway 401.
func (m *Manager) Clear(c *gin.Context) error {
	id, err := c.Cookie(IDCookie)
	if err == nil && id != "" {
		if err := m.repo.Delete(c.Request.Context(), id); err != nil {
			m.log.Warn("delete session row", zap.String("session_id", id), zap.Error(err))
		}
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", m.secure, false)
	c.SetCookie(IDCookie, "", -1, "/", "", m.secure, true)
	return nil
}

// Current resolves the request's session from the id cookie.
func (m *Manager) Current(c *gin.Context) (*domain.Session, error) {
	id, err := c.Cookie(IDCookie)
	if err != nil || id == "" {
		return nil, domain.ErrSessionNotFound
	}
	return m.repo.GetByID(c.Request.Context(), id)
}
