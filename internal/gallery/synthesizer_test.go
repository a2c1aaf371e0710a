package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maru/internal/hours"
)

func newSynth() *Synthesizer {
	return New(hours.NewResolver(hours.Config{}))
}

func TestSynthesizeWeekRange(t *testing.T) {
	// 2025-03-03 is a Monday, 2025-03-08 a Saturday. The prep day walks
	// back over Sunday 2025-03-02 to Saturday 2025-03-01.
	plan, err := newSynth().Synthesize("2025-03-03", "2025-03-08")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", plan.PrepDate)
	require.Len(t, plan.Sessions, 7)

	prep := plan.Sessions[0]
	assert.Equal(t, "2025-03-01", prep.Date)
	assert.True(t, prep.IsPrepDay)
	assert.Equal(t, "09:00", prep.StartTime)
	assert.Equal(t, "13:00", prep.EndTime) // saturday morning window

	dates := make([]string, 0, len(plan.Sessions))
	for _, s := range plan.Sessions {
		dates = append(dates, s.Date)
	}
	assert.Equal(t, []string{
		"2025-03-01",
		"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07", "2025-03-08",
	}, dates)

	weekday := plan.Sessions[1]
	assert.False(t, weekday.IsPrepDay)
	assert.Equal(t, "09:00", weekday.StartTime)
	assert.Equal(t, "22:00", weekday.EndTime)

	saturday := plan.Sessions[6]
	assert.Equal(t, "2025-03-08", saturday.Date)
	assert.Equal(t, "13:00", saturday.EndTime)
}

func TestSynthesizeSkipsSundaysInRange(t *testing.T) {
	// 2025-03-07 Friday through 2025-03-10 Monday spans Sunday 2025-03-09.
	plan, err := newSynth().Synthesize("2025-03-07", "2025-03-10")
	require.NoError(t, err)

	for _, s := range plan.Sessions {
		assert.NotEqual(t, "2025-03-09", s.Date)
	}
	assert.Equal(t, "2025-03-06", plan.PrepDate)
	assert.Len(t, plan.Sessions, 4) // prep + Fri + Sat + Mon
}

func TestSynthesizeSingleDay(t *testing.T) {
	plan, err := newSynth().Synthesize("2025-03-04", "2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", plan.PrepDate)
	assert.Len(t, plan.Sessions, 2)
}

func TestSynthesizeDeterministic(t *testing.T) {
	s := newSynth()
	first, err := s.Synthesize("2025-03-03", "2025-03-15")
	require.NoError(t, err)
	second, err := s.Synthesize("2025-03-03", "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSynthesizeRejectsBadInput(t *testing.T) {
	s := newSynth()

	_, err := s.Synthesize("2025-03-10", "2025-03-03")
	assert.Error(t, err)

	_, err = s.Synthesize("03/03/2025", "2025-03-10")
	assert.Error(t, err)

	_, err = s.Synthesize("2025-03-03", "")
	assert.Error(t, err)

	_, err = s.Synthesize("2024-01-01", "2026-01-01")
	assert.Error(t, err) // beyond the expansion cap
}

func TestPrepDate(t *testing.T) {
	tests := []struct {
		name      string
		startDate string
		want      string
	}{
		{"plain weekday start", "2025-03-05", "2025-03-04"},
		{"monday start walks over sunday", "2025-03-03", "2025-03-01"},
		{"tuesday start uses monday", "2025-03-04", "2025-03-03"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepDate(tt.startDate)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PrepDate("bogus")
	assert.Error(t, err)
}
