// Package service orchestrates submissions and staff decisions around the
// pure engine packages: it synthesizes gallery sessions, reads a conflict
// snapshot, runs the validator and persists accepted requests, then later
// aggregates bundles and computes fees for whoever asks.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"maru/internal/availability"
	"maru/internal/bundle"
	"maru/internal/calendar"
	"maru/internal/config"
	"maru/internal/fee"
	"maru/internal/gallery"
	"maru/internal/metrics"
	"maru/internal/model"
	"maru/internal/store"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrGalleryDiscount   = errors.New("discounts do not apply to gallery requests")
	ErrBundleNotFound    = errors.New("bundle not found")
)

// Rules are the submission-side limits the validator itself does not
// enforce.
type Rules struct {
	MinSessionMinutes   int
	IncrementMinutes    int
	MaxBatchSessions    int
	MaxGalleryRangeDays int
}

// Service wires the engine to a store and a room directory.
type Service struct {
	cfg       *config.Config
	store     store.Store
	validator *availability.Validator
	synth     *gallery.Synthesizer
	calc      *fee.Calculator
	rules     Rules
	logger    *zerolog.Logger

	// roomLocks serializes same-room submissions in this process so two
	// near-simultaneous requests cannot both validate against a snapshot
	// missing the other's write. Cross-process writers remain best-effort.
	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

// New builds the service.
func New(cfg *config.Config, st store.Store, validator *availability.Validator, synth *gallery.Synthesizer, calc *fee.Calculator, logger *zerolog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		store:     st,
		validator: validator,
		synth:     synth,
		calc:      calc,
		rules: Rules{
			MinSessionMinutes:   cfg.Booking.MinSessionMinutes,
			IncrementMinutes:    cfg.Booking.IncrementMinutes,
			MaxBatchSessions:    cfg.Booking.MaxBatchSessions,
			MaxGalleryRangeDays: cfg.Booking.MaxGalleryRangeDays,
		},
		logger:    logger,
		roomLocks: make(map[string]*sync.Mutex),
	}
}

// SubmitInput is one submission: either Sessions (lecture/studio) or
// StartDate/EndDate (gallery).
type SubmitInput struct {
	RoomID         string          `json:"room_id"`
	ApplicantName  string          `json:"applicant_name"`
	ApplicantPhone string          `json:"applicant_phone"`
	Purpose        string          `json:"purpose"`
	Equipment      []string        `json:"equipment"`
	Sessions       []model.Session `json:"sessions"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
}

// SubmitResult is what the caller gets back. When Validation.OK is false
// nothing was persisted and BatchID/Requests are empty.
type SubmitResult struct {
	BatchID    string                `json:"batch_id,omitempty"`
	Requests   []model.RentalRequest `json:"requests,omitempty"`
	Validation availability.Result   `json:"validation"`
	Fees       *model.FeeBreakdown   `json:"fees,omitempty"`
}

// Submit validates a submission and, if every session passes, persists it.
// A batch is a single atomic decision: one bad session rejects them all.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	return s.run(ctx, in, true)
}

// DryRun validates a submission without persisting anything.
func (s *Service) DryRun(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	return s.run(ctx, in, false)
}

func (s *Service) run(ctx context.Context, in SubmitInput, persist bool) (*SubmitResult, error) {
	room, ok := s.cfg.RoomByID(in.RoomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	sessions, issues := s.buildSessions(room, in)
	if len(issues) > 0 {
		s.countIssues(issues)
		return &SubmitResult{Validation: availability.Result{Issues: issues, CheckedAt: time.Now()}}, nil
	}

	if persist {
		lock := s.lockFor(room.ID)
		lock.Lock()
		defer lock.Unlock()
	}

	snap, err := s.readSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read conflict snapshot: %w", err)
	}
	result := s.validator.Validate(room.ID, room.Category, sessions, snap)
	if !result.OK {
		s.countIssues(result.Issues)
		return &SubmitResult{Validation: result}, nil
	}

	rows := s.buildRows(room, in, sessions)
	fees := s.calc.ForBundle(room, rows)

	if persist {
		if err := s.store.AppendRequests(ctx, rows); err != nil {
			return nil, fmt.Errorf("persist requests: %w", err)
		}
		metrics.IncRequestSubmitted(string(room.Category))
		s.logger.Info().
			Str("room", room.ID).
			Int("sessions", len(sessions)).
			Str("applicant", in.ApplicantName).
			Msg("rental request accepted")
	}

	res := &SubmitResult{Requests: rows, Validation: result, Fees: &fees}
	if len(rows) > 0 {
		res.BatchID = rows[0].BatchID
		if res.BatchID == "" {
			res.BatchID = rows[0].ID
		}
	}
	return res, nil
}

// buildSessions turns the input into candidate sessions, applying the
// caller-side limits: batch size cap, session length and alignment for
// hourly rooms, and the exhibition-length ceiling for the gallery.
func (s *Service) buildSessions(room *model.Room, in SubmitInput) ([]model.Session, []model.Issue) {
	if room.Category == model.CategoryGallery {
		return s.buildGallerySessions(in)
	}

	if len(in.Sessions) == 0 {
		return nil, []model.Issue{{Code: model.CodeValidationError, Message: "신청할 일정이 없습니다"}}
	}
	if len(in.Sessions) > s.rules.MaxBatchSessions {
		return nil, []model.Issue{{
			Code:    model.CodeValidationError,
			Message: fmt.Sprintf("한 번에 최대 %d건까지 신청할 수 있습니다", s.rules.MaxBatchSessions),
		}}
	}

	var issues []model.Issue
	limit := room.DurationLimitHours * 60
	for _, sess := range in.Sessions {
		minutes, err := sess.DurationMinutes()
		if err != nil {
			// Let the validator produce the precise format issue.
			continue
		}
		switch {
		case minutes < s.rules.MinSessionMinutes:
			issues = append(issues, issue(sess, fmt.Sprintf("최소 이용 시간은 %d분입니다", s.rules.MinSessionMinutes)))
		case limit > 0 && minutes > limit:
			issues = append(issues, issue(sess, fmt.Sprintf("최대 이용 시간은 %d시간입니다", room.DurationLimitHours)))
		case s.rules.IncrementMinutes > 0 && minutes%s.rules.IncrementMinutes != 0:
			issues = append(issues, issue(sess, fmt.Sprintf("%d분 단위로만 신청할 수 있습니다", s.rules.IncrementMinutes)))
		}
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return in.Sessions, nil
}

func (s *Service) buildGallerySessions(in SubmitInput) ([]model.Session, []model.Issue) {
	if in.StartDate == "" || in.EndDate == "" {
		return nil, []model.Issue{{Code: model.CodeValidationError, Message: "전시 시작일과 종료일을 입력해 주세요"}}
	}
	days, err := calendar.DiffDaysInclusive(in.StartDate, in.EndDate)
	if err != nil || days < 1 {
		return nil, []model.Issue{{
			Date: in.StartDate, Code: model.CodeValidationError,
			Message: "전시 기간이 올바르지 않습니다",
		}}
	}
	if days > s.rules.MaxGalleryRangeDays {
		return nil, []model.Issue{{
			Date: in.StartDate, Code: model.CodeValidationError,
			Message: fmt.Sprintf("전시는 최대 %d일까지 신청할 수 있습니다", s.rules.MaxGalleryRangeDays),
		}}
	}
	plan, err := s.synth.Synthesize(in.StartDate, in.EndDate)
	if err != nil {
		return nil, []model.Issue{{
			Date: in.StartDate, Code: model.CodeValidationError, Message: "전시 기간이 올바르지 않습니다",
		}}
	}
	return plan.Sessions, nil
}

// buildRows materializes the rows to persist. The gallery keeps its
// single-row range encoding; hourly rooms get one row per session, linked
// by a batch id when there is more than one.
func (s *Service) buildRows(room *model.Room, in SubmitInput, sessions []model.Session) []model.RentalRequest {
	now := time.Now()
	base := model.RentalRequest{
		RoomID:         room.ID,
		ApplicantName:  in.ApplicantName,
		ApplicantPhone: in.ApplicantPhone,
		Purpose:        in.Purpose,
		Status:         model.StatusReceived,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if room.Category == model.CategoryGallery {
		row := base
		row.ID = uuid.NewString()
		row.StartDate = in.StartDate
		row.EndDate = in.EndDate
		return []model.RentalRequest{row}
	}

	batchID := ""
	if len(sessions) > 1 {
		batchID = uuid.NewString()
	}
	rows := make([]model.RentalRequest, 0, len(sessions))
	for i, sess := range sessions {
		row := base
		row.ID = uuid.NewString()
		row.Date = sess.Date
		row.StartTime = sess.StartTime
		row.EndTime = sess.EndTime
		row.Equipment = in.Equipment
		row.BatchID = batchID
		if batchID != "" {
			row.BatchSeq = i + 1
			row.BatchSize = len(sessions)
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) readSnapshot(ctx context.Context) (availability.Snapshot, error) {
	requests, err := s.store.ListRequests(ctx)
	if err != nil {
		return availability.Snapshot{}, err
	}
	schedules, err := s.store.ListSchedules(ctx)
	if err != nil {
		return availability.Snapshot{}, err
	}
	blocks, err := s.store.ListBlocks(ctx)
	if err != nil {
		return availability.Snapshot{}, err
	}
	return availability.Snapshot{
		Requests:  requests,
		Schedules: schedules,
		Blocks:    blocks,
		ReadAt:    time.Now(),
	}, nil
}

func (s *Service) lockFor(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomID] = lock
	}
	return lock
}

func (s *Service) countIssues(issues []model.Issue) {
	for _, i := range issues {
		metrics.IncValidationIssue(string(i.Code))
	}
}

func issue(sess model.Session, msg string) model.Issue {
	return model.Issue{
		Date:      sess.Date,
		StartTime: sess.StartTime,
		EndTime:   sess.EndTime,
		Code:      model.CodeValidationError,
		Message:   msg,
	}
}

// Decide applies a staff (or applicant cancellation) decision to one
// request row. The engine only checks the transition table; it never
// transitions a status by itself.
func (s *Service) Decide(ctx context.Context, requestID string, to model.RequestStatus, comment string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !model.CanTransition(req.Status, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, req.Status, to)
	}
	if err := s.store.UpdateStatus(ctx, requestID, to, comment); err != nil {
		return err
	}
	metrics.IncStaffDecision(string(to))
	s.logger.Info().
		Str("request", requestID).
		Str("from", string(req.Status)).
		Str("to", string(to)).
		Msg("request status changed")
	return nil
}

// ApplyDiscount attaches a staff discount to a bundle. Gallery bundles
// never take discounts.
func (s *Service) ApplyDiscount(ctx context.Context, batchID string, d model.Discount) error {
	view, err := s.Bundle(ctx, batchID)
	if err != nil {
		return err
	}
	room, ok := s.cfg.RoomByID(view.RoomID)
	if !ok {
		return ErrRoomNotFound
	}
	if room.Category == model.CategoryGallery {
		return ErrGalleryDiscount
	}
	return s.store.SetDiscount(ctx, batchID, d)
}

// BundleView is the aggregated list/detail view staff UIs consume.
type BundleView struct {
	BatchID  string                `json:"batch_id"`
	RoomID   string                `json:"room_id"`
	RoomName string                `json:"room_name,omitempty"`
	Requests []model.RentalRequest `json:"requests"`
	Analysis bundle.Analysis       `json:"analysis"`
	Fees     model.FeeBreakdown    `json:"fees"`
}

// Bundles groups all stored requests into bundles: rows sharing a batch id
// together, everything else (standalone rows and gallery range rows) as
// singletons keyed by their own id.
func (s *Service) Bundles(ctx context.Context) ([]BundleView, error) {
	requests, err := s.store.ListRequests(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]model.RentalRequest)
	order := make([]string, 0)
	for _, r := range requests {
		key := r.BatchID
		if key == "" {
			key = r.ID
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	views := make([]BundleView, 0, len(order))
	for _, key := range order {
		views = append(views, s.buildView(key, groups[key]))
	}
	return views, nil
}

// Bundle returns a single bundle by batch id (or standalone request id).
func (s *Service) Bundle(ctx context.Context, batchID string) (*BundleView, error) {
	requests, err := s.store.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	var rows []model.RentalRequest
	for _, r := range requests {
		if r.BatchID == batchID || (r.BatchID == "" && r.ID == batchID) {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, ErrBundleNotFound
	}
	view := s.buildView(batchID, rows)
	return &view, nil
}

func (s *Service) buildView(key string, rows []model.RentalRequest) BundleView {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BatchSeq != rows[j].BatchSeq {
			return rows[i].BatchSeq < rows[j].BatchSeq
		}
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].StartTime < rows[j].StartTime
	})

	view := BundleView{
		BatchID:  key,
		RoomID:   rows[0].RoomID,
		Requests: rows,
		Analysis: bundle.Analyze(rows),
	}
	if room, ok := s.cfg.RoomByID(view.RoomID); ok {
		view.RoomName = room.Name
		view.Fees = s.calc.ForBundle(room, rows)
	}
	return view
}
