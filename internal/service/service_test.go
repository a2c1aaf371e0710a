package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maru/internal/availability"
	"maru/internal/calendar"
	"maru/internal/config"
	"maru/internal/fee"
	"maru/internal/gallery"
	"maru/internal/hours"
	"maru/internal/model"
	"maru/internal/store"
)

func newTestService() (*Service, *store.Memory) {
	cfg := config.Default()
	mem := store.NewMemory()
	resolver := hours.NewResolver(cfg.Hours)
	logger := zerolog.Nop()
	svc := New(cfg, mem, availability.New(resolver), gallery.New(resolver), fee.NewCalculator(cfg.Fees), &logger)
	return svc, mem
}

func submitInput(roomID string, sessions ...model.Session) SubmitInput {
	return SubmitInput{
		RoomID:        roomID,
		ApplicantName: "김민수",
		Sessions:      sessions,
	}
}

func TestSubmitSingleSession(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)
	require.True(t, res.Validation.OK)

	require.Len(t, res.Requests, 1)
	row := res.Requests[0]
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, model.StatusReceived, row.Status)
	assert.Equal(t, "김민수", row.ApplicantName)
	assert.Empty(t, row.BatchID) // singletons carry no batch id
	assert.Equal(t, row.ID, res.BatchID)

	require.NotNil(t, res.Fees)
	assert.Equal(t, int64(140000), res.Fees.TotalFeeKRW)
	assert.Equal(t, int64(140000), res.Fees.FinalFeeKRW)

	stored, err := mem.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitBatchLinksRows(t *testing.T) {
	svc, _ := newTestService()

	res, err := svc.Submit(context.Background(), submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"},
		model.Session{Date: "2025-03-04", StartTime: "10:00", EndTime: "12:00"},
		model.Session{Date: "2025-03-06", StartTime: "14:00", EndTime: "16:00"},
	))
	require.NoError(t, err)
	require.True(t, res.Validation.OK)
	require.Len(t, res.Requests, 3)

	assert.NotEmpty(t, res.BatchID)
	for i, row := range res.Requests {
		assert.Equal(t, res.BatchID, row.BatchID)
		assert.Equal(t, i+1, row.BatchSeq)
		assert.Equal(t, 3, row.BatchSize)
	}
}

func TestSubmitBatchIsAtomic(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	// One out-of-hours session rejects the whole batch.
	res, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"},
		model.Session{Date: "2025-03-04", StartTime: "19:00", EndTime: "21:00"},
	))
	require.NoError(t, err)
	assert.False(t, res.Validation.OK)
	assert.Empty(t, res.Requests)
	assert.Empty(t, res.BatchID)

	stored, err := mem.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSubmitConflictWithExisting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)
	require.True(t, first.Validation.OK)

	second, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "11:00", EndTime: "13:00"}))
	require.NoError(t, err)
	assert.False(t, second.Validation.OK)
	require.Len(t, second.Validation.Issues, 1)
	assert.Equal(t, model.CodeConflict, second.Validation.Issues[0].Code)
}

func TestDryRunPersistsNothing(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	res, err := svc.DryRun(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)
	assert.True(t, res.Validation.OK)
	require.NotNil(t, res.Fees)

	stored, err := mem.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSubmitUnknownRoom(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Submit(context.Background(), submitInput("penthouse",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"}))
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSubmitDurationRules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end string
		wantOK     bool
	}{
		{"below minimum", "10:00", "10:30", false},
		{"exactly minimum", "10:00", "11:00", true},
		{"over the daily cap", "09:00", "16:30", false},
		{"not on the half-hour grid", "10:00", "11:40", false},
		{"on the grid", "10:00", "12:30", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.DryRun(ctx, submitInput("lecture-1",
				model.Session{Date: "2025-03-03", StartTime: tt.start, EndTime: tt.end}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, res.Validation.OK)
		})
	}
}

func TestSubmitBatchSizeCap(t *testing.T) {
	svc, _ := newTestService()

	sessions := make([]model.Session, 21)
	date := "2025-03-03"
	for i := range sessions {
		sessions[i] = model.Session{Date: date, StartTime: "10:00", EndTime: "11:00"}
		date = nextWeekday(date)
	}
	res, err := svc.DryRun(context.Background(), submitInput("lecture-1", sessions...))
	require.NoError(t, err)
	assert.False(t, res.Validation.OK)
	require.Len(t, res.Validation.Issues, 1)
	assert.Equal(t, model.CodeValidationError, res.Validation.Issues[0].Code)
}

// nextWeekday steps one day forward, skipping Sundays, so generated
// batches stay inside operating hours.
func nextWeekday(date string) string {
	for {
		next, err := calendar.AddDays(date, 1)
		if err != nil {
			return date
		}
		date = next
		if !calendar.IsSunday(date) {
			return date
		}
	}
}

func TestSubmitGalleryRange(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{
		RoomID:        "gallery",
		ApplicantName: "이서연",
		StartDate:     "2025-03-03",
		EndDate:       "2025-03-08",
	})
	require.NoError(t, err)
	require.True(t, res.Validation.OK)

	// The gallery persists one range row, not per-day rows.
	require.Len(t, res.Requests, 1)
	row := res.Requests[0]
	assert.Equal(t, "2025-03-03", row.StartDate)
	assert.Equal(t, "2025-03-08", row.EndDate)
	assert.Empty(t, row.Date)
	assert.Equal(t, row.ID, res.BatchID)

	// Five weekdays at 20000 plus one Saturday at 10000; prep day free.
	require.NotNil(t, res.Fees)
	assert.Equal(t, int64(110000), res.Fees.TotalFeeKRW)

	stored, err := mem.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitGalleryRangeCeiling(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// 30 days is the ceiling; 31 is refused before any store read.
	ok, err := svc.DryRun(ctx, SubmitInput{
		RoomID: "gallery", ApplicantName: "이서연",
		StartDate: "2025-04-01", EndDate: "2025-04-30",
	})
	require.NoError(t, err)
	assert.True(t, ok.Validation.OK)

	over, err := svc.DryRun(ctx, SubmitInput{
		RoomID: "gallery", ApplicantName: "이서연",
		StartDate: "2025-04-01", EndDate: "2025-05-01",
	})
	require.NoError(t, err)
	assert.False(t, over.Validation.OK)
	require.Len(t, over.Validation.Issues, 1)
	assert.Equal(t, model.CodeValidationError, over.Validation.Issues[0].Code)
}

func TestSubmitGalleryRequiresDates(t *testing.T) {
	svc, _ := newTestService()
	res, err := svc.DryRun(context.Background(), SubmitInput{
		RoomID: "gallery", ApplicantName: "이서연",
	})
	require.NoError(t, err)
	assert.False(t, res.Validation.OK)
}

func TestGalleryRangeBlocksLaterSubmissions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{
		RoomID: "gallery", ApplicantName: "이서연",
		StartDate: "2025-03-03", EndDate: "2025-03-08",
	})
	require.NoError(t, err)

	// A second exhibition overlapping the first must be refused, and so
	// must one landing on the first one's prep day (2025-03-01).
	overlap, err := svc.Submit(ctx, SubmitInput{
		RoomID: "gallery", ApplicantName: "박지훈",
		StartDate: "2025-03-07", EndDate: "2025-03-12",
	})
	require.NoError(t, err)
	assert.False(t, overlap.Validation.OK)
}

func TestDecideTransitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)
	id := res.Requests[0].ID

	require.NoError(t, svc.Decide(ctx, id, model.StatusApproved, "확인 완료"))

	err = svc.Decide(ctx, id, model.StatusRejected, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.Decide(ctx, id, model.StatusCancelled, ""))

	err = svc.Decide(ctx, id, model.StatusApproved, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDecideUnknownRequest(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Decide(context.Background(), "missing", model.StatusApproved, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDecideInvalidStatus(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Decide(context.Background(), "whatever", model.RequestStatus("보류"), "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBundlesGroupByBatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	batch, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"},
		model.Session{Date: "2025-03-04", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)
	single, err := svc.Submit(ctx, submitInput("studio-1",
		model.Session{Date: "2025-03-03", StartTime: "14:00", EndTime: "16:00"}))
	require.NoError(t, err)

	views, err := svc.Bundles(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, batch.BatchID, views[0].BatchID)
	assert.Len(t, views[0].Requests, 2)
	assert.Equal(t, model.DisplayReceived, views[0].Analysis.DisplayStatus)

	assert.Equal(t, single.BatchID, views[1].BatchID)
	assert.Len(t, views[1].Requests, 1)
	assert.Equal(t, "studio-1", views[1].RoomID)
}

func TestBundlePartialAfterDecisions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"},
		model.Session{Date: "2025-03-04", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)

	require.NoError(t, svc.Decide(ctx, res.Requests[0].ID, model.StatusApproved, ""))
	require.NoError(t, svc.Decide(ctx, res.Requests[1].ID, model.StatusRejected, ""))

	view, err := svc.Bundle(ctx, res.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.DisplayPartial, view.Analysis.DisplayStatus)
	assert.True(t, view.Analysis.IsPartial)

	// Only the approved session is charged.
	assert.Equal(t, int64(140000), view.Fees.TotalFeeKRW)
}

func TestBundleNotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Bundle(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBundleNotFound)
}

func TestApplyDiscount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, submitInput("lecture-1",
		model.Session{Date: "2025-03-03", StartTime: "10:00", EndTime: "12:00"}))
	require.NoError(t, err)

	d := model.Discount{Mode: model.DiscountRate, RatePct: 10, Reason: "주민 할인"}
	require.NoError(t, svc.ApplyDiscount(ctx, res.BatchID, d))

	view, err := svc.Bundle(ctx, res.BatchID)
	require.NoError(t, err)
	assert.Equal(t, int64(14000), view.Fees.DiscountAmountKRW)
	assert.Equal(t, int64(126000), view.Fees.FinalFeeKRW)
}

func TestApplyDiscountGalleryRefused(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, SubmitInput{
		RoomID: "gallery", ApplicantName: "이서연",
		StartDate: "2025-03-03", EndDate: "2025-03-08",
	})
	require.NoError(t, err)

	err = svc.ApplyDiscount(ctx, res.BatchID, model.Discount{Mode: model.DiscountAmount, AmountKRW: 5000})
	assert.ErrorIs(t, err, ErrGalleryDiscount)
}

func TestApplyDiscountUnknownBundle(t *testing.T) {
	svc, _ := newTestService()
	err := svc.ApplyDiscount(context.Background(), "missing", model.Discount{Mode: model.DiscountRate, RatePct: 10})
	assert.ErrorIs(t, err, ErrBundleNotFound)
}
