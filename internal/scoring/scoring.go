// Package scoring turns lyrics into emotion scores.
//
// Scorer is the only seam a real model plugs into. Nothing else in the
// application assumes anything about how scores are produced beyond the
// shape of emotion.Scores.
package scoring

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/justestif/emolyrics/internal/emotion"
)

// Scorer computes emotion scores for a lyric. Implementations must not touch
// session state. Callers trim and validate the lyric before calling.
type Scorer interface {
	Score(ctx context.Context, lyrics string) (emotion.Scores, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, lyrics string) (emotion.Scores, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, lyrics string) (emotion.Scores, error) {
	return f(ctx, lyrics)
}

// Random is a placeholder Scorer returning a normalized random distribution.
// It stands in for a trained model and ignores the lyric text.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a Random scorer. A nil source seeds from the runtime.
func NewRandom(src rand.Source) *Random {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Random{rng: rand.New(src)}
}

// Score draws one uniform value per label and divides each by their sum.
func (r *Random) Score(ctx context.Context, _ string) (emotion.Scores, error) {
	if err := ctx.Err(); err != nil {
		return emotion.Scores{}, err
	}

	var raw emotion.Scores
	r.mu.Lock()
	for i := range raw {
		raw[i] = r.rng.Float64()
	}
	r.mu.Unlock()

	return raw.Normalize(), nil
}

var _ Scorer = (*Random)(nil)
