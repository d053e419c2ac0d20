package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Versions returns a copy of the saved versions in save order.
func (s *Session) Versions() []Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Version, len(s.versions))
	copy(out, s.versions)
	return out
}

// Len returns the number of saved versions.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.versions)
}

// Version retrieves a saved version by ID.
func (s *Session) Version(id uuid.UUID) (Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
}

// Select returns the versions whose IDs appear in ids, in save order.
// Unknown and repeated IDs are ignored.
func (s *Session) Select(ids []uuid.UUID) []Version {
	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Version
	for _, v := range s.versions {
		if _, ok := wanted[v.ID]; ok {
			out = append(out, v)
		}
	}
	return out
}

// DefaultTitle returns the title suggested for the next save: "Version N".
func (s *Session) DefaultTitle() string {
	return defaultTitle(s.Len())
}

func defaultTitle(saved int) string {
	return fmt.Sprintf("Version %d", saved+1)
}

// SaveVersion stores a copy of the current snapshot under title.
// A blank title falls back to DefaultTitle. Titles need not be unique.
// Returns ErrNothingToSave if no analysis has run yet, and ErrIDCollision
// if no free ID could be drawn.
func (s *Session) SaveVersion(title string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasAnalysis() {
		return Version{}, ErrNothingToSave
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle(len(s.versions))
	}

	id, err := s.uniqueID()
	if err != nil {
		return Version{}, err
	}

	v := Version{
		ID:      id,
		Title:   title,
		Lyrics:  s.lyrics,
		Scores:  s.scores,
		SavedAt: s.clock.Now(),
	}
	s.versions = append(s.versions, v)
	return v, nil
}

// maxIDAttempts bounds how often a colliding version ID is regenerated.
const maxIDAttempts = 8

// uniqueID draws IDs until one is free. Caller holds mu.
func (s *Session) uniqueID() (uuid.UUID, error) {
	for range maxIDAttempts {
		if id := s.newID(); !s.hasID(id) {
			return id, nil
		}
	}
	return uuid.Nil, ErrIDCollision
}

// hasID reports whether id is already taken. Caller holds mu.
func (s *Session) hasID(id uuid.UUID) bool {
	for _, v := range s.versions {
		if v.ID == id {
			return true
		}
	}
	return false
}
