package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maru/internal/model"
	"maru/internal/store"
)

func TestCreateSchedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSchedule(ctx, model.ClassSchedule{
		RoomID:    "lecture-1",
		Title:     "서예 교실",
		DayOfWeek: 1,
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	listed, err := svc.Schedules(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestCreateScheduleValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		sched model.ClassSchedule
		want  error
	}{
		{
			name:  "unknown room",
			sched: model.ClassSchedule{RoomID: "attic", DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00"},
			want:  ErrRoomNotFound,
		},
		{
			name:  "day of week out of range",
			sched: model.ClassSchedule{RoomID: "lecture-1", DayOfWeek: 7, StartTime: "10:00", EndTime: "12:00"},
			want:  ErrInvalidInput,
		},
		{
			name:  "inverted times",
			sched: model.ClassSchedule{RoomID: "lecture-1", DayOfWeek: 1, StartTime: "12:00", EndTime: "10:00"},
			want:  ErrInvalidInput,
		},
		{
			name:  "bad effective date",
			sched: model.ClassSchedule{RoomID: "lecture-1", DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00", EffectiveFrom: "next week"},
			want:  ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSchedule(ctx, tt.sched)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateScheduleWildcardRoom(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.CreateSchedule(context.Background(), model.ClassSchedule{
		RoomID: model.RoomAll, DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoomAll, created.RoomID)
}

func TestDeleteSchedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSchedule(ctx, model.ClassSchedule{
		RoomID: "lecture-1", DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSchedule(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteSchedule(ctx, created.ID), store.ErrNotFound)
}

func TestCreateBlock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateBlock(ctx, model.BlockedSlot{
		RoomID:    "studio-1",
		Date:      "2025-03-03",
		EndDate:   "2025-03-05",
		StartTime: "09:00",
		EndTime:   "18:00",
		Reason:    "바닥 공사",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// The new block must refuse matching submissions.
	res, err := svc.DryRun(ctx, submitInput("studio-1",
		model.Session{Date: "2025-03-04", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)
	assert.False(t, res.Validation.OK)
	require.Len(t, res.Validation.Issues, 1)
	assert.Equal(t, model.CodeBlocked, res.Validation.Issues[0].Code)
}

func TestCreateBlockValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateBlock(ctx, model.BlockedSlot{
		RoomID: "studio-1", Date: "someday", StartTime: "09:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateBlock(ctx, model.BlockedSlot{
		RoomID: "studio-1", Date: "2025-03-05", EndDate: "2025-03-03",
		StartTime: "09:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateBlock(ctx, model.BlockedSlot{
		RoomID: "basement", Date: "2025-03-03", StartTime: "09:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDeleteBlock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateBlock(ctx, model.BlockedSlot{
		RoomID: "lecture-1", Date: "2025-03-03", StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBlock(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteBlock(ctx, created.ID), store.ErrNotFound)
}
