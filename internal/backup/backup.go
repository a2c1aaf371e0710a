// Package backup copies the sqlite database file aside on a fixed
// interval and prunes copies older than the retention window. Only the
// sqlite driver has a file to copy; the other store adapters skip it.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Config parametrizes the backup loop.
type Config struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"storage_path"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
}

// Service runs the periodic backup loop for one database file.
type Service struct {
	dbPath string
	cfg    Config
	logger *zerolog.Logger
}

// New builds a backup service over the database at dbPath.
func New(dbPath string, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.StoragePath == "" {
		cfg.StoragePath = "backups"
	}
	if cfg.IntervalHours <= 0 {
		cfg.IntervalHours = 24
	}
	return &Service{dbPath: dbPath, cfg: cfg, logger: logger}
}

// Start runs the backup loop until the context is cancelled. The first
// backup runs immediately.
func (s *Service) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("database backups disabled")
		return
	}
	s.logger.Info().
		Str("path", s.cfg.StoragePath).
		Int("interval_hours", s.cfg.IntervalHours).
		Msg("backup loop started")

	ticker := time.NewTicker(time.Duration(s.cfg.IntervalHours) * time.Hour)
	defer ticker.Stop()

	if err := s.Run(); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Run(); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.prune()
		}
	}
}

// Run copies the database file into the storage directory once.
func (s *Service) Run() error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("maru_%s.db", time.Now().Format("20060102_150405"))
	dest := filepath.Join(s.cfg.StoragePath, name)

	src, err := os.Open(s.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	s.logger.Info().Str("file", dest).Msg("backup written")
	return nil
}

// prune removes backups older than the retention window.
func (s *Service) prune() {
	if s.cfg.RetentionDays <= 0 {
		return
	}
	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup directory failed")
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", e.Name()).Msg("removing expired backup")
			_ = os.Remove(filepath.Join(s.cfg.StoragePath, e.Name()))
		}
	}
}
