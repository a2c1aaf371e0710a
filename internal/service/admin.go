package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"maru/internal/calendar"
	"maru/internal/model"
)

// ErrInvalidInput marks malformed staff input on schedules and blocks.
var ErrInvalidInput = errors.New("invalid input")

// Schedules lists the recurring class schedules.
func (s *Service) Schedules(ctx context.Context) ([]model.ClassSchedule, error) {
	return s.store.ListSchedules(ctx)
}

// CreateSchedule registers a recurring class schedule. Schedules are
// immutable once created; staff delete and recreate to change one.
func (s *Service) CreateSchedule(ctx context.Context, sched model.ClassSchedule) (*model.ClassSchedule, error) {
	if err := s.checkRoomRef(sched.RoomID); err != nil {
		return nil, err
	}
	if sched.DayOfWeek < 0 || sched.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week must be 0-6", ErrInvalidInput)
	}
	if err := checkClockRange(sched.StartTime, sched.EndTime); err != nil {
		return nil, err
	}
	for _, d := range []string{sched.EffectiveFrom, sched.EffectiveTo} {
		if d != "" && !calendar.ValidDate(d) {
			return nil, fmt.Errorf("%w: effective dates must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	sched.ID = uuid.NewString()
	sched.CreatedAt = time.Now()
	if err := s.store.CreateSchedule(ctx, &sched); err != nil {
		return nil, err
	}
	s.logger.Info().Str("schedule", sched.ID).Str("room", sched.RoomID).Msg("class schedule created")
	return &sched, nil
}

// DeleteSchedule removes a recurring class schedule.
func (s *Service) DeleteSchedule(ctx context.Context, id string) error {
	return s.store.DeleteSchedule(ctx, id)
}

// Blocks lists the ad-hoc blocks.
func (s *Service) Blocks(ctx context.Context) ([]model.BlockedSlot, error) {
	return s.store.ListBlocks(ctx)
}

// CreateBlock registers an ad-hoc block. EndDate may extend the block over
// multiple days, which staff use to block whole gallery periods.
func (s *Service) CreateBlock(ctx context.Context, b model.BlockedSlot) (*model.BlockedSlot, error) {
	if err := s.checkRoomRef(b.RoomID); err != nil {
		return nil, err
	}
	if !calendar.ValidDate(b.Date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if b.EndDate != "" {
		if !calendar.ValidDate(b.EndDate) {
			return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		if b.EndDate < b.Date {
			return nil, fmt.Errorf("%w: end_date before date", ErrInvalidInput)
		}
	}
	if err := checkClockRange(b.StartTime, b.EndTime); err != nil {
		return nil, err
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	if err := s.store.CreateBlock(ctx, &b); err != nil {
		return nil, err
	}
	s.logger.Info().Str("block", b.ID).Str("room", b.RoomID).Str("date", b.Date).Msg("block created")
	return &b, nil
}

// DeleteBlock removes an ad-hoc block.
func (s *Service) DeleteBlock(ctx context.Context, id string) error {
	return s.store.DeleteBlock(ctx, id)
}

func (s *Service) checkRoomRef(roomID string) error {
	if roomID == model.RoomAll {
		return nil
	}
	if _, ok := s.cfg.RoomByID(roomID); !ok {
		return ErrRoomNotFound
	}
	return nil
}

func checkClockRange(start, end string) error {
	a, err := calendar.ToMinutes(start)
	if err != nil {
		return fmt.Errorf("%w: start_time must be HH:MM", ErrInvalidInput)
	}
	b, err := calendar.ToMinutes(end)
	if err != nil {
		return fmt.Errorf("%w: end_time must be HH:MM", ErrInvalidInput)
	}
	if a >= b {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidInput)
	}
	return nil
}
