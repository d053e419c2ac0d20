package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/justestif/emolyrics/internal/session"
)

const (
	sessionCookieName = "session_id"

	defaultSessionTTL   = 24 * time.Hour
	defaultAnalyzeRate  = rate.Limit(2)
	defaultAnalyzeBurst = 5
)

// BrowserSession is the server-side state behind one session cookie.
type BrowserSession struct {
	ID       string
	State    *session.Session
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionTTL expires sessions idle for longer than ttl.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithAnalyzeLimit bounds analyses per session to r per second with the given burst.
func WithAnalyzeLimit(r float64, burst int) SessionOption {
	return func(s *SessionStore) {
		if r > 0 && burst > 0 {
			s.limit = rate.Limit(r)
			s.burst = burst
		}
	}
}

// WithSessionClock sets the clock used for expiry, rate limiting and version timestamps.
func WithSessionClock(c clockwork.Clock) SessionOption {
	return func(s *SessionStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// SessionStore keeps browser sessions in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*BrowserSession

	clock clockwork.Clock
	ttl   time.Duration
	limit rate.Limit
	burst int
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore(opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*BrowserSession),
		clock:    clockwork.NewRealClock(),
		ttl:      defaultSessionTTL,
		limit:    defaultAnalyzeRate,
		burst:    defaultAnalyzeBurst,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live session for id and refreshes its idle timer.
func (s *SessionStore) Get(id string) (*BrowserSession, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	bs, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(bs.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	bs.lastSeen = now
	return bs, true
}

// GetFromRequest returns the session named by the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) (*BrowserSession, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, false
	}
	return s.Get(cookie.Value)
}

// Create starts a new session. Expired sessions are pruned first.
func (s *SessionStore) Create() (*BrowserSession, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	bs := &BrowserSession{
		ID:       id,
		State:    session.New(session.WithClock(s.clock)),
		limiter:  rate.NewLimiter(s.limit, s.burst),
		lastSeen: s.clock.Now(),
	}

	s.Prune()

	s.mu.Lock()
	s.sessions[id] = bs
	s.mu.Unlock()

	return bs, nil
}

// Resolve returns the request's session, creating one when the cookie is
// missing or stale. created reports whether the caller must send a cookie.
func (s *SessionStore) Resolve(r *http.Request) (bs *BrowserSession, created bool, err error) {
	if existing, ok := s.GetFromRequest(r); ok {
		return existing, false, nil
	}
	bs, err = s.Create()
	if err != nil {
		return nil, false, err
	}
	return bs, true, nil
}

// GetOrCreate resolves the request's session and sets the cookie for new ones.
func (s *SessionStore) GetOrCreate(w http.ResponseWriter, r *http.Request) (*BrowserSession, error) {
	bs, created, err := s.Resolve(r)
	if err != nil {
		return nil, err
	}
	if created {
		http.SetCookie(w, s.Cookie(bs))
	}
	return bs, nil
}

// Allow reports whether the session may run another analysis now.
func (s *SessionStore) Allow(bs *BrowserSession) bool {
	return bs.limiter.AllowN(s.clock.Now(), 1)
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Prune drops every expired session and returns how many were removed.
func (s *SessionStore) Prune() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, bs := range s.sessions {
		if now.Sub(bs.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cookie builds the session cookie for bs.
func (s *SessionStore) Cookie(bs *BrowserSession) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    bs.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	}
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
