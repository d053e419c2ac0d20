// Package session holds the per-user analysis state and saved versions.
//
// A Session is owned by exactly one browser session. It is created by the
// caller and passed explicitly into every operation; there is no package
// level state.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/justestif/emolyrics/internal/emotion"
)

// Common errors.
var (
	// ErrNothingToSave is returned when a save is attempted before any analysis.
	ErrNothingToSave = errors.New("run an analysis first before saving a version")

	// ErrVersionNotFound is returned when no version has the requested ID.
	ErrVersionNotFound = errors.New("version not found")

	// ErrIDCollision is returned when the ID generator keeps repeating taken IDs.
	ErrIDCollision = errors.New("could not generate a unique version id")
)

// Version is an immutable, user-named copy of a past analysis.
type Version struct {
	ID      uuid.UUID      `json:"id"`
	Title   string         `json:"title"`
	Lyrics  string         `json:"lyrics"`
	Scores  emotion.Scores `json:"scores"`
	SavedAt time.Time      `json:"saved_at"`
}

// Session holds the current snapshot and the ordered list of saved versions.
type Session struct {
	clock clockwork.Clock
	newID func() uuid.UUID

	mu       sync.RWMutex
	lyrics   string
	scores   emotion.Scores
	versions []Version
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to stamp saved versions.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator replaces the version ID generator.
func WithIDGenerator(f func() uuid.UUID) Option {
	return func(s *Session) {
		if f != nil {
			s.newID = f
		}
	}
}

// New creates an empty session: zero scores, empty lyrics, no versions.
func New(opts ...Option) *Session {
	s := &Session{
		clock: clockwork.NewRealClock(),
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentScores returns the scores of the most recent analysis.
func (s *Session) CurrentScores() emotion.Scores {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores
}

// CurrentLyrics returns the lyrics of the most recent analysis.
func (s *Session) CurrentLyrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lyrics
}

// Snapshot returns the current lyrics and scores as one consistent pair.
func (s *Session) Snapshot() (string, emotion.Scores) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lyrics, s.scores
}

// SetCurrentAnalysis replaces the current lyrics and scores together.
func (s *Session) SetCurrentAnalysis(lyrics string, scores emotion.Scores) {
	s.mu.Lock()
	s.lyrics = lyrics
	s.scores = scores
	s.mu.Unlock()
}

// hasAnalysis reports whether the snapshot can be saved. Caller holds mu.
func (s *Session) hasAnalysis() bool {
	return strings.TrimSpace(s.lyrics) != "" && !s.scores.IsZero()
}

// HasAnalysis reports whether an analysis has run in this session.
func (s *Session) HasAnalysis() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasAnalysis()
}
