// Package emotion defines the fixed emotion label set and score snapshots.
package emotion

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Label names one emotion.
type Label string

// The emotions scored for every lyric, in display order.
const (
	Anger    Label = "Anger"
	Fear     Label = "Fear"
	Joy      Label = "Joy"
	Love     Label = "Love"
	Sadness  Label = "Sadness"
	Surprise Label = "Surprise"
)

// Count is the number of labels in a Scores snapshot.
const Count = 6

var order = [Count]Label{Anger, Fear, Joy, Love, Sadness, Surprise}

var colors = map[Label]string{
	Anger:    "#E63946",
	Fear:     "#F4A261",
	Joy:      "#2A9D8F",
	Love:     "#E76F51",
	Sadness:  "#457B9D",
	Surprise: "#8D99AE",
}

// Labels returns the labels in display order.
func Labels() []Label {
	out := make([]Label, Count)
	copy(out, order[:])
	return out
}

// Index returns the position of l in display order.
func Index(l Label) (int, bool) {
	for i, o := range order {
		if o == l {
			return i, true
		}
	}
	return 0, false
}

// Color returns the chart color for the label.
func (l Label) Color() string {
	return colors[l]
}

// Scores holds one value per label, indexed by display order.
// Being an array, a Scores value is copied on assignment.
type Scores [Count]float64

// Get returns the score for l, or 0 for an unknown label.
func (s Scores) Get(l Label) float64 {
	i, ok := Index(l)
	if !ok {
		return 0
	}
	return s[i]
}

// Set stores v for l. Unknown labels are ignored.
func (s *Scores) Set(l Label, v float64) {
	if i, ok := Index(l); ok {
		s[i] = v
	}
}

// Sum returns the total of all scores.
func (s Scores) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// IsZero reports whether no analysis has produced these scores yet.
func (s Scores) IsZero() bool {
	return s.Sum() == 0
}

// Top returns the first label holding the highest score.
func (s Scores) Top() (Label, float64) {
	best := 0
	for i := 1; i < Count; i++ {
		if s[i] > s[best] {
			best = i
		}
	}
	return order[best], s[best]
}

// Max returns the highest score.
func (s Scores) Max() float64 {
	_, v := s.Top()
	return v
}

// Normalize divides every score by the total. A zero total is treated as 1.
func (s Scores) Normalize() Scores {
	total := s.Sum()
	if total == 0 {
		total = 1
	}
	var out Scores
	for i, v := range s {
		out[i] = v / total
	}
	return out
}

// AxisLimit returns the upper bound of the chart value axis:
// 1.2 times the highest score, capped at 1. An all-zero snapshot uses 0.1
// as its highest score so the empty chart still has a visible scale.
func (s Scores) AxisLimit() float64 {
	return AxisLimitFor(s.Max())
}

// AxisLimitFor is AxisLimit for an arbitrary highest score.
func AxisLimitFor(highest float64) float64 {
	if highest == 0 {
		highest = 0.1
	}
	return min(highest*1.2, 1.0)
}

// Map returns the scores keyed by label name.
func (s Scores) Map() map[string]float64 {
	m := make(map[string]float64, Count)
	for i, l := range order {
		m[string(l)] = s[i]
	}
	return m
}

// FromMap builds Scores from a label-keyed map. Every label must be present
// and no other key is accepted.
func FromMap(m map[string]float64) (Scores, error) {
	var s Scores
	if len(m) != Count {
		return s, fmt.Errorf("expected %d emotions, got %d", Count, len(m))
	}
	for i, l := range order {
		v, ok := m[string(l)]
		if !ok {
			return s, fmt.Errorf("missing emotion %q", l)
		}
		s[i] = v
	}
	return s, nil
}

// MarshalJSON encodes the scores as an object keyed by label.
func (s Scores) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalJSON decodes a label-keyed object, rejecting unknown or missing labels.
func (s *Scores) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for k := range m {
		if _, ok := Index(Label(k)); !ok {
			known := make([]string, 0, Count)
			for _, l := range order {
				known = append(known, string(l))
			}
			sort.Strings(known)
			return fmt.Errorf("unknown emotion %q (want one of %s)", k, strings.Join(known, ", "))
		}
	}
	parsed, err := FromMap(m)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FormatPercent formats a score in [0,1] as a percentage with one decimal, e.g. "80.0%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
