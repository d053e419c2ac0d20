// Package analysis runs a lyric analysis against a session: validate, score,
// animate from the previous snapshot, then commit.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/justestif/emolyrics/internal/animation"
	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/scoring"
	"github.com/justestif/emolyrics/internal/session"
)

// Defaults for the animated transition.
const (
	DefaultSteps      = 25
	DefaultFrameDelay = 10 * time.Millisecond
)

// ErrEmptyInput is returned when the lyrics are blank.
var ErrEmptyInput = errors.New("please enter or upload some lyrics before running the analysis")

// FrameFunc receives each intermediate frame of the transition.
// Returning an error aborts the analysis without committing it.
type FrameFunc func(ctx context.Context, frame emotion.Scores) error

// Service handles lyric analysis for sessions.
type Service struct {
	scorer     scoring.Scorer
	steps      int
	frameDelay time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSteps sets the number of animation steps.
func WithSteps(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.steps = n
		}
	}
}

// WithFrameDelay sets the pause between frames. Zero disables pacing.
func WithFrameDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.frameDelay = d
		}
	}
}

// WithClock sets the clock used to pace frames.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new analysis service.
func New(scorer scoring.Scorer, opts ...Option) *Service {
	s := &Service{
		scorer:     scorer,
		steps:      DefaultSteps,
		frameDelay: DefaultFrameDelay,
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Steps returns the configured number of animation steps.
func (s *Service) Steps() int {
	return s.steps
}

// CheckInput returns ErrEmptyInput when lyrics are blank.
func CheckInput(lyrics string) error {
	if strings.TrimSpace(lyrics) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Analyze scores lyrics and stores the result as the session's current
// analysis. When onFrame is non-nil, every frame of the eased transition
// from the previous scores is delivered to it first, paced by the frame
// delay. The session is only written once, after the last frame; a
// cancelled context or failing onFrame leaves it untouched.
func (s *Service) Analyze(ctx context.Context, sess *session.Session, lyrics string, onFrame FrameFunc) (emotion.Scores, error) {
	if err := CheckInput(lyrics); err != nil {
		return emotion.Scores{}, err
	}

	previous := sess.CurrentScores()

	next, err := s.scorer.Score(ctx, lyrics)
	if err != nil {
		return emotion.Scores{}, fmt.Errorf("scoring lyrics: %w", err)
	}

	if onFrame != nil {
		if err := s.animate(ctx, previous, next, onFrame); err != nil {
			s.logger.DebugContext(ctx, "analysis abandoned during animation", "error", err)
			return emotion.Scores{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return emotion.Scores{}, err
	}

	sess.SetCurrentAnalysis(lyrics, next)

	top, score := next.Top()
	s.logger.InfoContext(ctx, "lyrics analyzed",
		"chars", len(lyrics),
		"top_emotion", string(top),
		"top_score", score,
	)
	return next, nil
}

// animate delivers the transition frames, pausing between them.
func (s *Service) animate(ctx context.Context, from, to emotion.Scores, onFrame FrameFunc) error {
	first := true
	for frame := range animation.Interpolate(from, to, s.steps) {
		if !first {
			if err := s.pause(ctx); err != nil {
				return err
			}
		}
		first = false

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onFrame(ctx, frame); err != nil {
			return fmt.Errorf("delivering frame: %w", err)
		}
	}
	return nil
}

// pause waits for the frame delay or until ctx is done.
func (s *Service) pause(ctx context.Context) error {
	if s.frameDelay <= 0 {
		return nil
	}
	select {
	case <-s.clock.After(s.frameDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
