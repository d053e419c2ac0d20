// Package compare aggregates saved versions for side-by-side comparison.
package compare

import (
	"errors"
	"fmt"

	"github.com/muesli/clusters"

	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/session"
)

// MinSelection is the fewest versions a comparison accepts.
const MinSelection = 2

// ErrInsufficientSelection is returned when fewer than MinSelection versions are selected.
var ErrInsufficientSelection = errors.New("select at least two versions to see the comparison")

// Point is one (version, emotion, score) triple of the long-form table.
type Point struct {
	VersionID string        `json:"version_id"`
	Title     string        `json:"title"`
	Emotion   emotion.Label `json:"emotion"`
	Score     float64       `json:"score"`
}

// Row is one emotion of the wide-form table, one cell per selected version.
type Row struct {
	Emotion emotion.Label `json:"emotion"`
	Color   string        `json:"color"`
	Cells   []string      `json:"cells"`
}

// Table is the wide-form view: emotions as rows, versions as columns.
// Columns are positional because titles may repeat.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Comparison is the read-only aggregate over the selected versions.
type Comparison struct {
	Versions []session.Version `json:"versions"`
	Points   []Point           `json:"points"`
	Table    Table             `json:"table"`

	// Distances[i] is how far Versions[i] lies from Versions[0] in score space.
	Distances []float64 `json:"distances"`

	// Groups partitions Versions into mood groups. Empty unless grouping
	// was requested and enough versions were selected.
	Groups [][]session.Version `json:"groups,omitempty"`
}

type options struct {
	groups int
}

// Option configures Build.
type Option func(*options)

// WithGroups requests k mood groups when more than k versions are selected.
func WithGroups(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.groups = k
		}
	}
}

// Build aggregates the selected versions, which must already be in the
// order they should be displayed.
func Build(selected []session.Version, opts ...Option) (*Comparison, error) {
	if len(selected) < MinSelection {
		return nil, ErrInsufficientSelection
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Comparison{
		Versions:  selected,
		Points:    LongForm(selected),
		Table:     WideForm(selected),
		Distances: Distances(selected),
	}

	if o.groups > 0 && len(selected) > o.groups {
		groups, err := Group(selected, o.groups)
		if err == nil {
			c.Groups = groups
		}
	}

	return c, nil
}

// LongForm returns one point per version and emotion, versions first.
func LongForm(versions []session.Version) []Point {
	labels := emotion.Labels()
	points := make([]Point, 0, len(versions)*len(labels))
	for _, v := range versions {
		for _, l := range labels {
			points = append(points, Point{
				VersionID: v.ID.String(),
				Title:     v.Title,
				Emotion:   l,
				Score:     v.Scores.Get(l),
			})
		}
	}
	return points
}

// WideForm returns the emotion-by-version table of formatted percentages.
func WideForm(versions []session.Version) Table {
	t := Table{
		Columns: make([]string, len(versions)),
	}
	for i, v := range versions {
		t.Columns[i] = v.Title
	}

	for _, l := range emotion.Labels() {
		row := Row{
			Emotion: l,
			Color:   l.Color(),
			Cells:   make([]string, len(versions)),
		}
		for i, v := range versions {
			row.Cells[i] = FormatCell(v.Scores.Get(l))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FormatCell renders a score as a percentage rounded to one decimal, e.g. "80.0 %".
func FormatCell(score float64) string {
	return fmt.Sprintf("%.1f %%", score*100)
}

// Distances returns each version's distance from the first one.
func Distances(versions []session.Version) []float64 {
	if len(versions) == 0 {
		return nil
	}
	origin := coordinates(versions[0].Scores)
	out := make([]float64, len(versions))
	for i, v := range versions {
		out[i] = coordinates(v.Scores).Distance(origin)
	}
	return out
}

// coordinates converts scores into a point in emotion space.
func coordinates(s emotion.Scores) clusters.Coordinates {
	c := make(clusters.Coordinates, len(s))
	for i, v := range s {
		c[i] = v
	}
	return c
}
