package admin

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSessionTTL = 12 * time.Hour

var (
	errMissingCredentials = errors.New("admin: credentials are required")
	errMissingMarkerStore = errors.New("admin: marker store is required")
)

// Credentials is the single static admin credential pair.
type Credentials struct {
	Username string
	Password string
}

// GuardConfig describes the session guard dependencies.
type GuardConfig struct {
	Credentials Credentials
	Markers     *MarkerStore
	SessionTTL  time.Duration
	Clock       func() time.Time
	Logger      *zap.Logger
}

// Guard tracks the process-wide admin session: a boolean plus the moment it
// was established. Successful authentication persists a durable marker so the
// session survives restarts until logout or expiry.
type Guard struct {
	credentials Credentials
	markers     *MarkerStore
	sessionTTL  time.Duration
	clock       func() time.Time
	logger      *zap.Logger

	mu            sync.Mutex
	authenticated bool
	establishedAt time.Time
}

// NewGuard constructs a session guard with validated configuration.
func NewGuard(cfg GuardConfig) (*Guard, error) {
	if strings.TrimSpace(cfg.Credentials.Username) == "" || cfg.Credentials.Password == "" {
		return nil, errMissingCredentials
	}
	if cfg.Markers == nil {
		return nil, errMissingMarkerStore
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		credentials: cfg.Credentials,
		markers:     cfg.Markers,
		sessionTTL:  sessionTTL,
		clock:       clock,
		logger:      logger,
	}, nil
}

// Authenticate compares the pair against the configured credentials. On a
// match it establishes the session and persists the durable marker; on a
// mismatch state is left unchanged. It never returns an error: a failed
// marker write is logged and the in-memory session stands.
func (g *Guard) Authenticate(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(g.credentials.Username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(g.credentials.Password)) == 1
	if !usernameMatch || !passwordMatch {
		return false
	}

	now := g.clock()
	g.mu.Lock()
	g.authenticated = true
	g.establishedAt = now
	g.mu.Unlock()

	if err := g.markers.Save(SessionMarker{
		LoggedIn:      true,
		EstablishedAt: now,
		ExpiresAt:     now.Add(g.sessionTTL),
	}); err != nil {
		g.logger.Warn("failed to persist session marker", zap.Error(err))
	}
	g.logger.Info("admin session established")
	return true
}

// IsAuthenticated reports the in-memory session state.
func (g *Guard) IsAuthenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

// EstablishedAt returns when the current session began, if one is active.
func (g *Guard) EstablishedAt() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.establishedAt, g.authenticated
}

// Logout clears the in-memory session and the durable marker.
func (g *Guard) Logout() {
	g.mu.Lock()
	g.authenticated = false
	g.establishedAt = time.Time{}
	g.mu.Unlock()

	if err := g.markers.Clear(); err != nil {
		g.logger.Warn("failed to clear session marker", zap.Error(err))
	}
	g.logger.Info("admin session cleared")
}

// RestoreSession rehydrates the in-memory state from the durable marker.
// Run once at startup, before any admin-gated action is attempted. Expired
// or absent markers leave the guard logged out.
func (g *Guard) RestoreSession() {
	marker, found, err := g.markers.Load()
	if err != nil {
		g.logger.Warn("failed to load session marker", zap.Error(err))
		return
	}
	if !found || !marker.LoggedIn {
		return
	}
	if !marker.ExpiresAt.IsZero() && g.clock().After(marker.ExpiresAt) {
		g.logger.Info("stored admin session expired")
		if err := g.markers.Clear(); err != nil {
			g.logger.Warn("failed to clear expired session marker", zap.Error(err))
		}
		return
	}

	g.mu.Lock()
	g.authenticated = true
	g.establishedAt = marker.EstablishedAt
	g.mu.Unlock()
	g.logger.Info("admin session restored")
}
