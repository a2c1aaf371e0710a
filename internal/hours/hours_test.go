package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"maru/internal/model"
)

func TestWindowsForWeekday(t *testing.T) {
	r := NewResolver(Config{})

	t.Run("sunday is closed for every category", func(t *testing.T) {
		for _, cat := range []model.RoomCategory{model.CategoryLecture, model.CategoryStudio, model.CategoryGallery} {
			assert.Empty(t, r.WindowsForWeekday(time.Sunday, cat))
		}
	})

	t.Run("regular weekday has one day window", func(t *testing.T) {
		windows := r.WindowsForWeekday(time.Monday, model.CategoryLecture)
		assert.Len(t, windows, 1)
		assert.Equal(t, "09:00", windows[0].Start)
		assert.Equal(t, "18:00", windows[0].End)
	})

	t.Run("wednesday adds the evening window", func(t *testing.T) {
		windows := r.WindowsForWeekday(time.Wednesday, model.CategoryStudio)
		assert.Len(t, windows, 2)
		assert.Equal(t, "18:00", windows[1].Start)
		assert.Equal(t, "22:00", windows[1].End)
	})

	t.Run("saturday is mornings only", func(t *testing.T) {
		windows := r.WindowsForWeekday(time.Saturday, model.CategoryLecture)
		assert.Len(t, windows, 1)
		assert.Equal(t, "09:00", windows[0].Start)
		assert.Equal(t, "13:00", windows[0].End)
	})

	t.Run("gallery runs one long window on weekdays", func(t *testing.T) {
		for _, wd := range []time.Weekday{time.Monday, time.Wednesday, time.Friday} {
			windows := r.WindowsForWeekday(wd, model.CategoryGallery)
			assert.Len(t, windows, 1)
			assert.Equal(t, "09:00", windows[0].Start)
			assert.Equal(t, "22:00", windows[0].End)
		}
	})
}

func TestFitsWindow(t *testing.T) {
	r := NewResolver(Config{})

	// 2025-03-03 Monday, 2025-03-05 Wednesday, 2025-03-08 Saturday,
	// 2025-03-02 Sunday.
	tests := []struct {
		name       string
		date       string
		cat        model.RoomCategory
		start, end string
		want       bool
	}{
		{"weekday inside day window", "2025-03-03", model.CategoryLecture, "10:00", "12:00", true},
		{"weekday exact window bounds", "2025-03-03", model.CategoryLecture, "09:00", "18:00", true},
		{"weekday past close", "2025-03-03", model.CategoryLecture, "17:00", "19:00", false},
		{"weekday evening on non-evening day", "2025-03-04", model.CategoryLecture, "18:00", "20:00", false},
		{"wednesday evening window", "2025-03-05", model.CategoryLecture, "18:00", "20:00", true},
		{"wednesday straddling the window gap", "2025-03-05", model.CategoryLecture, "17:00", "19:00", false},
		{"saturday morning", "2025-03-08", model.CategoryStudio, "09:00", "12:00", true},
		{"saturday afternoon", "2025-03-08", model.CategoryStudio, "13:00", "15:00", false},
		{"sunday never fits", "2025-03-02", model.CategoryLecture, "10:00", "11:00", false},
		{"gallery evening weekday single window", "2025-03-05", model.CategoryGallery, "17:00", "21:00", true},
		{"inverted range", "2025-03-03", model.CategoryLecture, "12:00", "10:00", false},
		{"empty range", "2025-03-03", model.CategoryLecture, "10:00", "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.FitsWindow(tt.date, tt.cat, tt.start, tt.end)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitsWindowErrors(t *testing.T) {
	r := NewResolver(Config{})

	_, err := r.FitsWindow("2025-13-01", model.CategoryLecture, "10:00", "11:00")
	assert.Error(t, err)

	_, err = r.FitsWindow("2025-03-03", model.CategoryLecture, "ten", "11:00")
	assert.Error(t, err)
}

func TestApplyDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{WeekdayClose: "17:00"}
	cfg.ApplyDefaults()
	assert.Equal(t, "17:00", cfg.WeekdayClose)
	assert.Equal(t, "09:00", cfg.WeekdayOpen)
	assert.Equal(t, time.Wednesday, cfg.EveningWeekday)
}
