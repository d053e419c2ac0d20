// Package blocks serves named markup fragments from a single document.
//
// Blocks are delimited with HTML comments:
//
//	<!-- HEADER_TEMPLATE_START --> ... <!-- HEADER_TEMPLATE_END -->
package blocks

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/justestif/emolyrics/internal/emotion"
)

// Block names the application renders.
const (
	HeaderBlock     = "HEADER_TEMPLATE"
	ResultCardBlock = "RESULT_CARD_TEMPLATE"
)

// ErrBlockNotFound is returned when a block's markers are missing, including
// when the document itself could not be loaded.
var ErrBlockNotFound = errors.New("template block not found")

// Store reads one markup document on first use and keeps it for its lifetime.
type Store struct {
	fsys fs.FS
	name string

	once    sync.Once
	doc     string
	loadErr error
}

// New creates a Store for the document name inside fsys. Nothing is read
// until Load or Block is called.
func New(fsys fs.FS, name string) *Store {
	return &Store{fsys: fsys, name: name}
}

// Load reads the document. Only the first call does any work; later calls
// return the first result. A missing document leaves the store empty, so
// every block lookup fails with ErrBlockNotFound, and the read error is
// returned for the caller to report.
func (s *Store) Load() error {
	s.once.Do(func() {
		if s.fsys == nil {
			s.loadErr = fmt.Errorf("reading %s: no filesystem", s.name)
			return
		}
		data, err := fs.ReadFile(s.fsys, s.name)
		if err != nil {
			s.loadErr = fmt.Errorf("reading %s: %w", s.name, err)
			return
		}
		s.doc = string(data)
	})
	return s.loadErr
}

// Block returns the trimmed text between the block's start and end markers.
func (s *Store) Block(name string) (string, error) {
	_ = s.Load()

	start := "<!-- " + name + "_START -->"
	end := "<!-- " + name + "_END -->"

	_, rest, ok := strings.Cut(s.doc, start)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBlockNotFound, name)
	}
	body, _, ok := strings.Cut(rest, end)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrBlockNotFound, name)
	}
	return strings.TrimSpace(body), nil
}

// Header returns the page header markup.
func (s *Store) Header() (string, error) {
	return s.Block(HeaderBlock)
}

// ResultCard fills the result card block for the winning emotion.
func (s *Store) ResultCard(label emotion.Label, score float64) (string, error) {
	tmpl, err := s.Block(ResultCardBlock)
	if err != nil {
		return "", err
	}
	return FillResultCard(tmpl, label, score), nil
}

// FillResultCard substitutes the result card placeholders by literal replace.
func FillResultCard(tmpl string, label emotion.Label, score float64) string {
	return strings.NewReplacer(
		"{{EMOTION_CLASS}}", string(label),
		"{{EMOTION_NAME}}", strings.ToUpper(string(label)),
		"{{SCORE}}", emotion.FormatPercent(score),
	).Replace(tmpl)
}
