// Package animation computes eased transitions between two score snapshots.
package animation

import (
	"iter"
	"math"

	"github.com/justestif/emolyrics/internal/emotion"
)

// EaseOutCubic maps linear progress t in [0,1] to 1 - (1-t)^3,
// which starts fast and decelerates into the target.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Interpolate yields steps+1 frames moving from start to end.
// Frame i sits at eased progress EaseOutCubic(i/steps); the first frame is
// start and the last is end, both exactly. A steps value below 1 is treated
// as 1. The sequence is lazy and may be ranged over any number of times.
func Interpolate(start, end emotion.Scores, steps int) iter.Seq[emotion.Scores] {
	if steps < 1 {
		steps = 1
	}
	return func(yield func(emotion.Scores) bool) {
		for i := 0; i <= steps; i++ {
			if !yield(Frame(start, end, i, steps)) {
				return
			}
		}
	}
}

// Frame returns frame i of a steps-long transition from start to end.
func Frame(start, end emotion.Scores, i, steps int) emotion.Scores {
	switch {
	case i <= 0:
		return start
	case i >= steps:
		return end
	}

	eased := EaseOutCubic(float64(i) / float64(steps))
	var out emotion.Scores
	for k := range out {
		out[k] = start[k] + (end[k]-start[k])*eased
	}
	return out
}
