package emotion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels_Order(t *testing.T) {
	want := []Label{Anger, Fear, Joy, Love, Sadness, Surprise}
	assert.Equal(t, want, Labels())

	// Callers get their own copy.
	got := Labels()
	got[0] = "Boredom"
	assert.Equal(t, Anger, Labels()[0])
}

func TestLabel_Color(t *testing.T) {
	for _, l := range Labels() {
		assert.NotEmpty(t, l.Color(), "label %s has no color", l)
	}
	assert.Equal(t, "#2A9D8F", Joy.Color())
	assert.Empty(t, Label("Boredom").Color())
}

func TestScores_GetSet(t *testing.T) {
	var s Scores
	s.Set(Joy, 0.5)
	s.Set(Label("Boredom"), 0.9)

	assert.Equal(t, 0.5, s.Get(Joy))
	assert.Equal(t, 0.0, s.Get(Label("Boredom")))
	assert.InDelta(t, 0.5, s.Sum(), 1e-12)
}

func TestScores_Top(t *testing.T) {
	tests := []struct {
		name      string
		scores    Scores
		wantLabel Label
		wantScore float64
	}{
		{
			name:      "zero scores pick first label",
			scores:    Scores{},
			wantLabel: Anger,
			wantScore: 0,
		},
		{
			name:      "clear winner",
			scores:    Scores{0.1, 0.1, 0.5, 0.1, 0.1, 0.1},
			wantLabel: Joy,
			wantScore: 0.5,
		},
		{
			name:      "tie keeps label order",
			scores:    Scores{0, 0.4, 0, 0.4, 0.2, 0},
			wantLabel: Fear,
			wantScore: 0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, v := tt.scores.Top()
			assert.Equal(t, tt.wantLabel, l)
			assert.Equal(t, tt.wantScore, v)
		})
	}
}

func TestScores_Normalize(t *testing.T) {
	s := Scores{1, 1, 2, 0, 0, 0}.Normalize()
	assert.InDelta(t, 1.0, s.Sum(), 1e-12)
	assert.InDelta(t, 0.5, s.Get(Joy), 1e-12)

	zero := Scores{}.Normalize()
	assert.True(t, zero.IsZero())
}

func TestScores_AxisLimit(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   float64
	}{
		{name: "empty chart", scores: Scores{}, want: 0.12},
		{name: "headroom above max", scores: Scores{0.5, 0.1}, want: 0.6},
		{name: "capped at one", scores: Scores{0.9}, want: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.scores.AxisLimit(), 1e-12)
		})
	}
}

func TestScores_JSON(t *testing.T) {
	s := Scores{0.1, 0.2, 0.3, 0.1, 0.2, 0.1}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Anger":0.1,"Fear":0.2,"Joy":0.3,"Love":0.1,"Sadness":0.2,"Surprise":0.1}`, string(data))

	var decoded Scores
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)
}

func TestScores_UnmarshalRejectsWrongLabelSet(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing label", input: `{"Anger":0.1,"Fear":0.2,"Joy":0.3,"Love":0.1,"Sadness":0.3}`},
		{name: "unknown label", input: `{"Anger":0.1,"Fear":0.2,"Joy":0.3,"Love":0.1,"Sadness":0.2,"Boredom":0.1}`},
		{name: "extra label", input: `{"Anger":0.1,"Fear":0.2,"Joy":0.3,"Love":0.1,"Sadness":0.2,"Surprise":0.1,"Boredom":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Scores
			assert.Error(t, json.Unmarshal([]byte(tt.input), &s))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "80.0%", FormatPercent(0.8))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "33.3%", FormatPercent(1.0/3))
}
