package analysis

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/emolyrics/internal/compare"
	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/scoring"
	"github.com/justestif/emolyrics/internal/session"
)

func fixedScorer(s emotion.Scores) scoring.Scorer {
	return scoring.ScorerFunc(func(context.Context, string) (emotion.Scores, error) {
		return s, nil
	})
}

func TestAnalyze_EmptyInput(t *testing.T) {
	svc := New(fixedScorer(emotion.Scores{1, 0, 0, 0, 0, 0}), WithFrameDelay(0))

	for _, lyrics := range []string{"", "   ", "\n\t "} {
		sess := session.New()
		_, err := svc.Analyze(context.Background(), sess, lyrics, nil)
		assert.True(t, errors.Is(err, ErrEmptyInput), "lyrics %q: got %v", lyrics, err)
		assert.True(t, sess.CurrentScores().IsZero())
		assert.Empty(t, sess.CurrentLyrics())
	}
}

func TestCheckInput(t *testing.T) {
	assert.ErrorIs(t, CheckInput(" \n"), ErrEmptyInput)
	assert.NoError(t, CheckInput("la la"))
}

func TestAnalyze_CommitsWithoutFrames(t *testing.T) {
	want := emotion.Scores{0.1, 0.1, 0.5, 0.1, 0.1, 0.1}
	svc := New(fixedScorer(want))
	sess := session.New()

	got, err := svc.Analyze(context.Background(), sess, "I feel joy", nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	lyrics, scores := sess.Snapshot()
	assert.Equal(t, "I feel joy", lyrics)
	assert.Equal(t, want, scores)
}

func TestAnalyze_StreamsFramesFromPreviousSnapshot(t *testing.T) {
	previous := emotion.Scores{1, 0, 0, 0, 0, 0}
	next := emotion.Scores{0, 0, 1, 0, 0, 0}
	svc := New(fixedScorer(next), WithSteps(4), WithFrameDelay(0))

	sess := session.New()
	sess.SetCurrentAnalysis("old", previous)

	var frames []emotion.Scores
	_, err := svc.Analyze(context.Background(), sess, "new", func(_ context.Context, f emotion.Scores) error {
		// No frame is ever written back into the session.
		assert.Equal(t, previous, sess.CurrentScores())
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, frames, 5)
	assert.Equal(t, previous, frames[0])
	assert.Equal(t, next, frames[4])
	assert.Equal(t, next, sess.CurrentScores())
}

func TestAnalyze_FrameErrorAbortsWithoutCommit(t *testing.T) {
	svc := New(fixedScorer(emotion.Scores{0, 0, 1, 0, 0, 0}), WithFrameDelay(0))
	sess := session.New()
	sess.SetCurrentAnalysis("old", emotion.Scores{1, 0, 0, 0, 0, 0})

	errGone := errors.New("client went away")
	calls := 0
	_, err := svc.Analyze(context.Background(), sess, "new", func(context.Context, emotion.Scores) error {
		calls++
		if calls == 3 {
			return errGone
		}
		return nil
	})

	assert.True(t, errors.Is(err, errGone))
	assert.Equal(t, 3, calls)
	assert.Equal(t, "old", sess.CurrentLyrics())
	assert.Equal(t, emotion.Scores{1, 0, 0, 0, 0, 0}, sess.CurrentScores())
}

func TestAnalyze_CancelDuringPause(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc := New(fixedScorer(emotion.Scores{0, 0, 1, 0, 0, 0}),
		WithClock(clock),
		WithFrameDelay(10*time.Millisecond),
	)
	sess := session.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	frames := make(chan emotion.Scores, 64)
	go func() {
		_, err := svc.Analyze(ctx, sess, "lyrics", func(_ context.Context, f emotion.Scores) error {
			frames <- f
			return nil
		})
		done <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	// First frame goes out immediately, then the service waits on the clock.
	<-frames
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(10 * time.Millisecond)
	<-frames
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.True(t, sess.CurrentScores().IsZero())
	assert.Empty(t, sess.CurrentLyrics())
}

func TestAnalyze_ScorerError(t *testing.T) {
	errModel := errors.New("model unavailable")
	svc := New(scoring.ScorerFunc(func(context.Context, string) (emotion.Scores, error) {
		return emotion.Scores{}, errModel
	}))
	sess := session.New()

	_, err := svc.Analyze(context.Background(), sess, "lyrics", nil)
	assert.True(t, errors.Is(err, errModel))
	assert.False(t, sess.HasAnalysis())
}

// Analyze, save, then try to compare a single version.
func TestScenario_AnalyzeSaveCompare(t *testing.T) {
	svc := New(scoring.NewRandom(rand.NewPCG(3, 4)), WithFrameDelay(0))
	sess := session.New()

	scores, err := svc.Analyze(context.Background(), sess, "I feel joy", nil)
	require.NoError(t, err)
	assert.Len(t, emotion.Labels(), emotion.Count)
	assert.InDelta(t, 1.0, scores.Sum(), 1e-9)

	v, err := sess.SaveVersion("Test")
	require.NoError(t, err)

	versions := sess.Versions()
	require.Len(t, versions, 1)
	assert.Equal(t, "Test", versions[0].Title)
	assert.Equal(t, scores, versions[0].Scores)

	_, err = compare.Build(sess.Select([]uuid.UUID{v.ID}))
	assert.True(t, errors.Is(err, compare.ErrInsufficientSelection))
}
