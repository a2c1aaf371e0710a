// Package hours resolves the operating windows a room category offers on a
// given date. Windows are configuration with compiled-in defaults: regular
// weekdays get one day window, the designated evening weekday additionally
// gets a disjoint evening window (lecture/studio only; the gallery runs a
// single long window instead), Saturday is mornings only and Sunday is
// closed for everyone.
package hours

import (
	"time"

	"maru/internal/calendar"
	"maru/internal/model"
)

// Config parametrizes the weekly window table.
type Config struct {
	WeekdayOpen    string       `yaml:"weekday_open"`
	WeekdayClose   string       `yaml:"weekday_close"`
	SaturdayOpen   string       `yaml:"saturday_open"`
	SaturdayClose  string       `yaml:"saturday_close"`
	EveningWeekday time.Weekday `yaml:"evening_weekday"`
	EveningOpen    string       `yaml:"evening_open"`
	EveningClose   string       `yaml:"evening_close"`
	GalleryClose   string       `yaml:"gallery_close"`
}

// DefaultConfig returns the standard facility hours.
func DefaultConfig() Config {
	return Config{
		WeekdayOpen:    "09:00",
		WeekdayClose:   "18:00",
		SaturdayOpen:   "09:00",
		SaturdayClose:  "13:00",
		EveningWeekday: time.Wednesday,
		EveningOpen:    "18:00",
		EveningClose:   "22:00",
		GalleryClose:   "22:00",
	}
}

// ApplyDefaults fills empty fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.WeekdayOpen == "" {
		c.WeekdayOpen = def.WeekdayOpen
	}
	if c.WeekdayClose == "" {
		c.WeekdayClose = def.WeekdayClose
	}
	if c.SaturdayOpen == "" {
		c.SaturdayOpen = def.SaturdayOpen
	}
	if c.SaturdayClose == "" {
		c.SaturdayClose = def.SaturdayClose
	}
	if c.EveningWeekday == 0 {
		c.EveningWeekday = def.EveningWeekday
	}
	if c.EveningOpen == "" {
		c.EveningOpen = def.EveningOpen
	}
	if c.EveningClose == "" {
		c.EveningClose = def.EveningClose
	}
	if c.GalleryClose == "" {
		c.GalleryClose = def.GalleryClose
	}
}

// Resolver answers which windows exist for a date or weekday.
type Resolver struct {
	cfg Config
}

// NewResolver builds a resolver; empty config fields fall back to defaults.
func NewResolver(cfg Config) *Resolver {
	cfg.ApplyDefaults()
	return &Resolver{cfg: cfg}
}

// WindowsForWeekday returns the operating windows for a weekday and
// category. Sunday always yields nil.
func (r *Resolver) WindowsForWeekday(wd time.Weekday, cat model.RoomCategory) []model.OperatingWindow {
	switch wd {
	case time.Sunday:
		return nil
	case time.Saturday:
		return []model.OperatingWindow{{Start: r.cfg.SaturdayOpen, End: r.cfg.SaturdayClose, Label: "오전"}}
	}

	if cat == model.CategoryGallery {
		// The gallery keeps one continuous window even on the evening
		// weekday; exhibitions occupy the whole day.
		return []model.OperatingWindow{{Start: r.cfg.WeekdayOpen, End: r.cfg.GalleryClose, Label: "전일"}}
	}

	day := model.OperatingWindow{Start: r.cfg.WeekdayOpen, End: r.cfg.WeekdayClose, Label: "주간"}
	if wd == r.cfg.EveningWeekday {
		return []model.OperatingWindow{
			day,
			{Start: r.cfg.EveningOpen, End: r.cfg.EveningClose, Label: "야간"},
		}
	}
	return []model.OperatingWindow{day}
}

// WindowsFor resolves the windows for a concrete date.
func (r *Resolver) WindowsFor(date string, cat model.RoomCategory) ([]model.OperatingWindow, error) {
	wd, err := calendar.Weekday(date)
	if err != nil {
		return nil, err
	}
	return r.WindowsForWeekday(wd, cat), nil
}

// FitsWindow reports whether [start, end) is fully contained in at least
// one window for the date. A session that merely overlaps a window, or
// straddles the gap between the day and evening windows, does not fit.
func (r *Resolver) FitsWindow(date string, cat model.RoomCategory, start, end string) (bool, error) {
	windows, err := r.WindowsFor(date, cat)
	if err != nil {
		return false, err
	}
	s, err := calendar.ToMinutes(start)
	if err != nil {
		return false, err
	}
	e, err := calendar.ToMinutes(end)
	if err != nil {
		return false, err
	}
	if s >= e {
		return false, nil
	}
	for _, w := range windows {
		ws, err := calendar.ToMinutes(w.Start)
		if err != nil {
			continue
		}
		we, err := calendar.ToMinutes(w.End)
		if err != nil {
			continue
		}
		if s >= ws && e <= we {
			return true, nil
		}
	}
	return false, nil
}
