package web

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/justestif/emolyrics/internal/compare"
	"github.com/justestif/emolyrics/internal/emotion"
	"github.com/justestif/emolyrics/internal/session"
)

// Scatter plot geometry in SVG user units.
const (
	plotWidth   = 640
	plotHeight  = 320
	plotPadding = 40
)

// seriesColors cycles per compared version.
var seriesColors = []string{
	"#264653", "#E9C46A", "#9B5DE5", "#00BBF9", "#F15BB5", "#00F5D4", "#6D597A", "#B5838D",
}

// chartFor scales bars so the largest fills the axis limit rather than 100%.
func chartFor(scores emotion.Scores) ChartData {
	limit := scores.AxisLimit()
	chart := ChartData{AxisLimit: limit}
	for _, l := range emotion.Labels() {
		v := scores.Get(l)
		chart.Bars = append(chart.Bars, BarData{
			Label: l,
			Color: l.Color(),
			Score: v,
			Width: v / limit * 100,
		})
	}
	return chart
}

func versionsFor(versions []session.Version, selected map[uuid.UUID]bool) []VersionData {
	out := make([]VersionData, 0, len(versions))
	for _, v := range versions {
		top, score := v.Scores.Top()
		out = append(out, VersionData{
			ID:         v.ID.String(),
			Title:      v.Title,
			TopEmotion: top,
			TopScore:   score,
			SavedAt:    v.SavedAt,
			Selected:   selected[v.ID],
		})
	}
	return out
}

func tableFor(t compare.Table) *TableData {
	td := &TableData{Columns: t.Columns}
	for _, r := range t.Rows {
		td.Rows = append(td.Rows, TableRow{Emotion: r.Emotion, Color: r.Color, Cells: r.Cells})
	}
	return td
}

func distancesFor(c *compare.Comparison) []DistanceData {
	out := make([]DistanceData, len(c.Versions))
	for i, v := range c.Versions {
		out[i] = DistanceData{Title: v.Title, Distance: c.Distances[i]}
	}
	return out
}

func groupsFor(c *compare.Comparison) [][]string {
	out := make([][]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		titles := make([]string, len(g))
		for i, v := range g {
			titles[i] = v.Title
		}
		out = append(out, titles)
	}
	return out
}

// scatterFor lays out the long-form points: one column per emotion, score
// rising from the bottom edge, each version joined in label order.
func scatterFor(c *compare.Comparison) *ScatterData {
	labels := emotion.Labels()
	innerW := float64(plotWidth - 2*plotPadding)
	innerH := float64(plotHeight - 2*plotPadding)

	highest := 0.0
	for _, p := range c.Points {
		highest = max(highest, p.Score)
	}
	limit := emotion.AxisLimitFor(highest)

	column := make(map[emotion.Label]float64, len(labels))
	sd := &ScatterData{Width: plotWidth, Height: plotHeight}
	for i, l := range labels {
		x := plotPadding + innerW*(float64(i)+0.5)/float64(len(labels))
		column[l] = x
		sd.Axis = append(sd.Axis, AxisTick{X: x, Label: l})
	}

	yFor := func(score float64) float64 {
		return plotPadding + innerH*(1-score/limit)
	}
	for i := 0; i <= 4; i++ {
		v := limit * float64(i) / 4
		sd.Gridlines = append(sd.Gridlines, Gridline{Y: yFor(v), Label: fmt.Sprintf("%.0f%%", v*100)})
	}

	series := make(map[string]*SeriesData)
	var order []string
	for _, p := range c.Points {
		s, ok := series[p.VersionID]
		if !ok {
			s = &SeriesData{Title: p.Title, Color: seriesColors[len(order)%len(seriesColors)]}
			series[p.VersionID] = s
			order = append(order, p.VersionID)
		}
		s.Points = append(s.Points, PlotPoint{X: column[p.Emotion], Y: yFor(p.Score), Emotion: p.Emotion, Score: p.Score})
	}

	for _, id := range order {
		s := series[id]
		var b strings.Builder
		for i, pt := range s.Points {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s%.1f %.1f ", cmd, pt.X, pt.Y)
		}
		s.Path = strings.TrimSpace(b.String())
		sd.Series = append(sd.Series, *s)
	}
	return sd
}

// parseIDs parses version ids, skipping malformed ones.
func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(strings.TrimSpace(r))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
