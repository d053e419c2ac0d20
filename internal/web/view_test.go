package web

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/emolyrics/internal/compare"
	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/session"
)

func TestChartFor(t *testing.T) {
	chart := chartFor(joyful)

	assert.InDelta(t, 0.72, chart.AxisLimit, 1e-9)
	require.Len(t, chart.Bars, emotion.Count)
	for i, l := range emotion.Labels() {
		assert.Equal(t, l, chart.Bars[i].Label)
		assert.Equal(t, l.Color(), chart.Bars[i].Color)
	}

	joy := chart.Bars[2]
	assert.InDelta(t, 0.6/0.72*100, joy.Width, 1e-9)
}

func TestChartFor_Empty(t *testing.T) {
	chart := chartFor(emotion.Scores{})

	assert.InDelta(t, 0.12, chart.AxisLimit, 1e-9)
	for _, b := range chart.Bars {
		assert.Zero(t, b.Width)
	}
}

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	got := parseIDs([]string{a.String(), "nope", " " + b.String() + " ", ""})
	assert.Equal(t, []uuid.UUID{a, b}, got)
}

func TestScatterFor(t *testing.T) {
	versions := []session.Version{
		{ID: uuid.New(), Title: "A", Scores: joyful},
		{ID: uuid.New(), Title: "B", Scores: emotion.Scores{0.5, 0.1, 0.1, 0.1, 0.1, 0.1}},
	}
	c, err := compare.Build(versions)
	require.NoError(t, err)

	sd := scatterFor(c)

	require.Len(t, sd.Series, 2)
	assert.Len(t, sd.Axis, emotion.Count)
	assert.Len(t, sd.Gridlines, 5)
	assert.Equal(t, "A", sd.Series[0].Title)
	assert.NotEqual(t, sd.Series[0].Color, sd.Series[1].Color)

	for _, s := range sd.Series {
		require.Len(t, s.Points, emotion.Count)
		assert.True(t, strings.HasPrefix(s.Path, "M"))
		assert.Equal(t, emotion.Count-1, strings.Count(s.Path, "L"))
		for _, p := range s.Points {
			assert.GreaterOrEqual(t, p.Y, float64(plotPadding))
			assert.LessOrEqual(t, p.Y, float64(plotHeight-plotPadding))
		}
	}

	// Highest score sits highest on the plot.
	joy := sd.Series[0].Points[2]
	for _, p := range sd.Series[0].Points {
		assert.GreaterOrEqual(t, p.Y, joy.Y)
	}
}

func TestVersionsFor(t *testing.T) {
	a := session.Version{ID: uuid.New(), Title: "A", Scores: joyful}
	b := session.Version{ID: uuid.New(), Title: "B", Scores: joyful}

	got := versionsFor([]session.Version{a, b}, map[uuid.UUID]bool{b.ID: true})

	require.Len(t, got, 2)
	assert.False(t, got[0].Selected)
	assert.True(t, got[1].Selected)
	assert.Equal(t, emotion.Joy, got[0].TopEmotion)
	assert.InDelta(t, 0.6, got[0].TopScore, 1e-12)
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "Select at least two versions to see the comparison.", sentence(compare.ErrInsufficientSelection))
}
