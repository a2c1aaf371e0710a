package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"maru/internal/backup"
	"maru/internal/fee"
	"maru/internal/hours"
	"maru/internal/model"
)

// Config is the service configuration, loaded from YAML with ${ENV_VAR}
// placeholder support. The room directory and operating-hour parameters
// live here so the engine never knows where they come from.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		// Driver selects the store adapter: "sqlite", "sheets" or
		// "memory".
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"database"`

	Sheets struct {
		SpreadsheetID   string  `yaml:"spreadsheet_id"`
		CredentialsFile string  `yaml:"credentials_file"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
	} `yaml:"sheets"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		MinSessionMinutes    int `yaml:"min_session_minutes"`
		IncrementMinutes     int `yaml:"increment_minutes"`
		DefaultDurationHours int `yaml:"default_duration_hours"`
		MaxBatchSessions     int `yaml:"max_batch_sessions"`
		MaxGalleryRangeDays  int `yaml:"max_gallery_range_days"`
	} `yaml:"booking"`

	Backup backup.Config `yaml:"backup"`
	Hours  hours.Config  `yaml:"hours"`
	Fees   fee.Tiers     `yaml:"fees"`
	Rooms  []model.Room  `yaml:"rooms"`
}

// Load reads the config file at path (default configs/config.yaml) and
// applies defaults. A missing file yields the pure default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// run on defaults
	case err != nil:
		return nil, err
	default:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration used by tests and the
// zero-config dev run.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/maru.db"
	}
	if c.Sheets.RatePerSecond == 0 {
		c.Sheets.RatePerSecond = 1
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Booking.MinSessionMinutes == 0 {
		c.Booking.MinSessionMinutes = 60
	}
	if c.Booking.IncrementMinutes == 0 {
		c.Booking.IncrementMinutes = 30
	}
	if c.Booking.DefaultDurationHours == 0 {
		c.Booking.DefaultDurationHours = 6
	}
	if c.Booking.MaxBatchSessions == 0 {
		c.Booking.MaxBatchSessions = 20
	}
	if c.Booking.MaxGalleryRangeDays == 0 {
		c.Booking.MaxGalleryRangeDays = 30
	}
	c.Hours.ApplyDefaults()
	def := fee.DefaultTiers()
	if c.Fees.GalleryWeekdayKRW == 0 {
		c.Fees.GalleryWeekdayKRW = def.GalleryWeekdayKRW
	}
	if c.Fees.GallerySaturdayKRW == 0 {
		c.Fees.GallerySaturdayKRW = def.GallerySaturdayKRW
	}
	if len(c.Rooms) == 0 {
		c.Rooms = DefaultRooms()
	}
	for i := range c.Rooms {
		if c.Rooms[i].DurationLimitHours == 0 {
			c.Rooms[i].DurationLimitHours = c.Booking.DefaultDurationHours
		}
	}
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Rooms))
	for _, r := range c.Rooms {
		if r.ID == "" {
			return fmt.Errorf("room with empty id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate room id %q", r.ID)
		}
		seen[r.ID] = true
		if !r.Category.Valid() {
			return fmt.Errorf("room %s: unknown category %q", r.ID, r.Category)
		}
	}
	return nil
}

// DefaultRooms is the built-in room directory.
func DefaultRooms() []model.Room {
	return []model.Room{
		{
			ID:           "lecture-1",
			Name:         "제1강의실",
			Category:     model.CategoryLecture,
			HourlyFeeKRW: 70000,
			EquipmentPrices: map[string]int64{
				"beam_projector": 30000,
				"sound_system":   20000,
				"microphone":     10000,
			},
			DurationLimitHours: 6,
		},
		{
			ID:           "lecture-2",
			Name:         "제2강의실",
			Category:     model.CategoryLecture,
			HourlyFeeKRW: 50000,
			EquipmentPrices: map[string]int64{
				"beam_projector": 30000,
				"microphone":     10000,
			},
			DurationLimitHours: 6,
		},
		{
			ID:           "studio-1",
			Name:         "스튜디오",
			Category:     model.CategoryStudio,
			HourlyFeeKRW: 40000,
			EquipmentPrices: map[string]int64{
				"sound_system": 20000,
				"lighting":     15000,
			},
			DurationLimitHours: 6,
		},
		{
			ID:       "gallery",
			Name:     "전시실",
			Category: model.CategoryGallery,
			// Gallery pricing is per-day tiers, not hourly.
			HourlyFeeKRW:       0,
			DurationLimitHours: 0,
		},
	}
}

// RoomByID looks a room up in the directory.
func (c *Config) RoomByID(id string) (*model.Room, bool) {
	for i := range c.Rooms {
		if c.Rooms[i].ID == id {
			return &c.Rooms[i], true
		}
	}
	return nil, false
}
