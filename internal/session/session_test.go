package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/emolyrics/internal/emotion"
)

var joyful = emotion.Scores{0.05, 0.05, 0.6, 0.2, 0.05, 0.05}

func TestNew_Defaults(t *testing.T) {
	s := New()

	assert.True(t, s.CurrentScores().IsZero())
	assert.Empty(t, s.CurrentLyrics())
	assert.Empty(t, s.Versions())
	assert.False(t, s.HasAnalysis())
	assert.Equal(t, "Version 1", s.DefaultTitle())
}

func TestSetCurrentAnalysis(t *testing.T) {
	s := New()
	s.SetCurrentAnalysis("I feel joy", joyful)

	lyrics, scores := s.Snapshot()
	assert.Equal(t, "I feel joy", lyrics)
	assert.Equal(t, joyful, scores)
	assert.Equal(t, joyful, s.CurrentScores())
	assert.Equal(t, "I feel joy", s.CurrentLyrics())
	assert.True(t, s.HasAnalysis())
}

func TestSaveVersion_NothingToSave(t *testing.T) {
	tests := []struct {
		name   string
		lyrics string
		scores emotion.Scores
	}{
		{name: "no analysis yet", lyrics: "", scores: emotion.Scores{}},
		{name: "whitespace lyrics", lyrics: "  \n\t", scores: joyful},
		{name: "zero scores", lyrics: "some words", scores: emotion.Scores{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetCurrentAnalysis(tt.lyrics, tt.scores)

			_, err := s.SaveVersion("Draft")
			assert.True(t, errors.Is(err, ErrNothingToSave), "got %v", err)
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestSaveVersion_CopiesSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s := New(WithClock(clock))
	s.SetCurrentAnalysis("first draft", joyful)

	v, err := s.SaveVersion("Test")
	require.NoError(t, err)
	assert.Equal(t, "Test", v.Title)
	assert.Equal(t, "first draft", v.Lyrics)
	assert.Equal(t, joyful, v.Scores)
	assert.Equal(t, clock.Now(), v.SavedAt)
	assert.NotEqual(t, uuid.Nil, v.ID)

	// A later analysis must not change what was saved.
	s.SetCurrentAnalysis("second draft", emotion.Scores{1, 0, 0, 0, 0, 0})

	stored, err := s.Version(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "first draft", stored.Lyrics)
	assert.Equal(t, joyful, stored.Scores)
}

func TestSaveVersion_DuplicateTitles(t *testing.T) {
	s := New()
	s.SetCurrentAnalysis("lyrics", joyful)

	a, err := s.SaveVersion("Same")
	require.NoError(t, err)
	b, err := s.SaveVersion("Same")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)

	versions := s.Versions()
	require.Len(t, versions, 2)
	assert.Equal(t, a.ID, versions[0].ID)
	assert.Equal(t, b.ID, versions[1].ID)
}

func TestSaveVersion_DefaultTitle(t *testing.T) {
	s := New()
	s.SetCurrentAnalysis("lyrics", joyful)

	first, err := s.SaveVersion("")
	require.NoError(t, err)
	assert.Equal(t, "Version 1", first.Title)

	second, err := s.SaveVersion("   ")
	require.NoError(t, err)
	assert.Equal(t, "Version 2", second.Title)

	assert.Equal(t, "Version 3", s.DefaultTitle())
}

func TestSaveVersion_RegeneratesCollidingID(t *testing.T) {
	fixed := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	other := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ids := []uuid.UUID{fixed, fixed, other}
	s := New(WithIDGenerator(func() uuid.UUID {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	s.SetCurrentAnalysis("lyrics", joyful)

	a, err := s.SaveVersion("A")
	require.NoError(t, err)
	b, err := s.SaveVersion("B")
	require.NoError(t, err)

	assert.Equal(t, fixed, a.ID)
	assert.Equal(t, other, b.ID)
}

func TestSaveVersion_ConstantIDGeneratorFails(t *testing.T) {
	fixed := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	s := New(WithIDGenerator(func() uuid.UUID { return fixed }))
	s.SetCurrentAnalysis("lyrics", joyful)

	_, err := s.SaveVersion("A")
	require.NoError(t, err)

	_, err = s.SaveVersion("B")
	assert.ErrorIs(t, err, ErrIDCollision)
	assert.Equal(t, 1, s.Len())
}

func TestVersion_NotFound(t *testing.T) {
	_, err := New().Version(uuid.New())
	assert.True(t, errors.Is(err, ErrVersionNotFound))
}

func TestVersions_ReturnsCopy(t *testing.T) {
	s := New()
	s.SetCurrentAnalysis("lyrics", joyful)
	_, err := s.SaveVersion("Original")
	require.NoError(t, err)

	list := s.Versions()
	list[0].Title = "Changed"

	assert.Equal(t, "Original", s.Versions()[0].Title)
}

func TestSelect(t *testing.T) {
	s := New()
	s.SetCurrentAnalysis("lyrics", joyful)

	var saved []Version
	for _, title := range []string{"A", "B", "C"} {
		v, err := s.SaveVersion(title)
		require.NoError(t, err)
		saved = append(saved, v)
	}

	tests := []struct {
		name string
		ids  []uuid.UUID
		want []string
	}{
		{name: "none", ids: nil, want: nil},
		{name: "save order regardless of request order", ids: []uuid.UUID{saved[2].ID, saved[0].ID}, want: []string{"A", "C"}},
		{name: "unknown ids ignored", ids: []uuid.UUID{uuid.New(), saved[1].ID}, want: []string{"B"}},
		{name: "duplicates collapse", ids: []uuid.UUID{saved[1].ID, saved[1].ID}, want: []string{"B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var titles []string
			for _, v := range s.Select(tt.ids) {
				titles = append(titles, v.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestSetCurrentAnalysis_ReadersSeeConsistentPairs(t *testing.T) {
	s := New()
	a := emotion.Scores{1, 0, 0, 0, 0, 0}
	b := emotion.Scores{0, 0, 0, 0, 0, 1}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				s.SetCurrentAnalysis("a", a)
			} else {
				s.SetCurrentAnalysis("b", b)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			lyrics, scores := s.Snapshot()
			switch lyrics {
			case "a":
				assert.Equal(t, a, scores)
			case "b":
				assert.Equal(t, b, scores)
			}
		}
	}()
	wg.Wait()
}
