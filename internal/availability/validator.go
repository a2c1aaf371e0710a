// Package availability decides whether a set of candidate sessions may be
// booked against a read-only snapshot of existing requests, recurring class
// schedules and ad-hoc blocks. The validator is pure: it never mutates a
// store, and accepting or refusing the booking is the caller's decision.
package availability

import (
	"fmt"
	"sort"
	"time"

	"maru/internal/calendar"
	"maru/internal/gallery"
	"maru/internal/model"
)

// Snapshot is the conflict set read from the store immediately before
// validation. There is no transactional guarantee between reading it and
// the caller persisting accepted sessions; ReadAt lets callers reason
// about how stale a decision was.
type Snapshot struct {
	Requests  []model.RentalRequest
	Schedules []model.ClassSchedule
	Blocks    []model.BlockedSlot
	ReadAt    time.Time
}

// Result is the outcome of a validation run. When OK is false, Issues
// holds one entry per refused session, with Issues[0] the representative
// error. CheckedAt echoes the snapshot read time.
type Result struct {
	OK        bool          `json:"ok"`
	Issues    []model.Issue `json:"issues,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Validator checks candidate sessions for a room.
type Validator struct {
	hours hoursResolver
}

// hoursResolver is the slice of the hours package the validator needs.
type hoursResolver interface {
	FitsWindow(date string, cat model.RoomCategory, start, end string) (bool, error)
}

// New creates a validator over the given hours resolver.
func New(res hoursResolver) *Validator {
	return &Validator{hours: res}
}

// Validate runs the rule chain over every candidate session. Rules are
// checked in a fixed precedence; the first failing rule short-circuits
// that session only, so the caller still receives issues for every bad
// session. Format failures and intra-batch overlaps abort before any
// snapshot lookup.
func (v *Validator) Validate(roomID string, cat model.RoomCategory, sessions []model.Session, snap Snapshot) Result {
	res := Result{CheckedAt: snap.ReadAt}

	if len(sessions) == 0 {
		res.Issues = append(res.Issues, model.Issue{
			Code:    model.CodeValidationError,
			Message: "신청할 일정이 없습니다",
		})
		return res
	}

	// Rule 1: shape. One malformed session rejects the whole batch.
	for _, s := range sessions {
		if issue := formatIssue(s); issue != nil {
			res.Issues = append(res.Issues, *issue)
		}
	}
	if len(res.Issues) > 0 {
		return res
	}

	// Rule 2: Sundays are closed regardless of category.
	failed := make([]bool, len(sessions))
	for i, s := range sessions {
		if calendar.IsSunday(s.Date) {
			failed[i] = true
			res.Issues = append(res.Issues, issueFor(s, model.CodeOutOfHours, "일요일은 휴관일입니다"))
		}
	}

	// Rule 3: sessions inside the submission must not overlap each other.
	// This rejects the batch before any store data is consulted.
	if issue := intraBatchOverlap(sessions); issue != nil {
		res.Issues = append(res.Issues, *issue)
		return res
	}

	for i, s := range sessions {
		if failed[i] {
			continue
		}
		if issue := v.checkSession(roomID, cat, s, snap); issue != nil {
			res.Issues = append(res.Issues, *issue)
		}
	}

	res.OK = len(res.Issues) == 0
	return res
}

// checkSession applies rules 4-7 to one session and returns the first hit.
func (v *Validator) checkSession(roomID string, cat model.RoomCategory, s model.Session, snap Snapshot) *model.Issue {
	// Rule 4: full containment in one operating window.
	fits, err := v.hours.FitsWindow(s.Date, cat, s.StartTime, s.EndTime)
	if err != nil || !fits {
		issue := issueFor(s, model.CodeOutOfHours, "운영시간 외의 신청입니다")
		return &issue
	}

	// Rule 5: pending or approved requests occupy their slots. Both the
	// per-day rows and the gallery range rows must be recognized.
	for i := range snap.Requests {
		req := &snap.Requests[i]
		if !req.Status.BlocksSlot() || req.RoomID != roomID {
			continue
		}
		if conflictsWithRequest(req, s) {
			issue := issueFor(s, model.CodeConflict, "이미 접수 또는 승인된 예약과 겹칩니다")
			return &issue
		}
	}

	// Rule 6: recurring class schedules.
	wd, err := calendar.Weekday(s.Date)
	if err != nil {
		issue := issueFor(s, model.CodeValidationError, "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)")
		return &issue
	}
	for i := range snap.Schedules {
		cs := &snap.Schedules[i]
		if !cs.AppliesToRoom(roomID) || cs.DayOfWeek != int(wd) {
			continue
		}
		if !calendar.InEffectiveRange(s.Date, cs.EffectiveFrom, cs.EffectiveTo) {
			continue
		}
		if calendar.ClockOverlaps(s.StartTime, s.EndTime, cs.StartTime, cs.EndTime) {
			issue := issueFor(s, model.CodeClassConflict, "정규 강좌 일정과 겹칩니다")
			return &issue
		}
	}

	// Rule 7: ad-hoc administrative blocks.
	for i := range snap.Blocks {
		b := &snap.Blocks[i]
		if !b.AppliesToRoom(roomID) {
			continue
		}
		if !calendar.InEffectiveRange(s.Date, b.Date, b.EffectiveEndDate()) {
			continue
		}
		if calendar.ClockOverlaps(s.StartTime, s.EndTime, b.StartTime, b.EndTime) {
			issue := issueFor(s, model.CodeBlocked, "관리자가 차단한 시간대입니다")
			return &issue
		}
	}

	return nil
}

// conflictsWithRequest compares a candidate session against one stored
// request. Ordinary rows conflict on exact date plus time overlap. A
// gallery range row owns every non-Sunday day of its period, and its prep
// day, for the whole day; the candidate's time never matters.
func conflictsWithRequest(req *model.RentalRequest, s model.Session) bool {
	if req.IsRangeRequest() {
		if req.ContainsDate(s.Date) && !calendar.IsSunday(s.Date) {
			return true
		}
		prep, err := gallery.PrepDate(req.StartDate)
		return err == nil && prep == s.Date
	}
	if req.Date != s.Date {
		return false
	}
	return calendar.ClockOverlaps(s.StartTime, s.EndTime, req.StartTime, req.EndTime)
}

// intraBatchOverlap finds a pair of same-day sessions that overlap. The
// sessions are examined sorted by date then start time so the reported
// pair is deterministic.
func intraBatchOverlap(sessions []model.Session) *model.Issue {
	sorted := make([]model.Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Date != cur.Date {
			continue
		}
		if calendar.ClockOverlaps(prev.StartTime, prev.EndTime, cur.StartTime, cur.EndTime) {
			issue := issueFor(cur, model.CodeValidationError, "신청 시간대가 서로 겹칩니다")
			return &issue
		}
	}
	return nil
}

func formatIssue(s model.Session) *model.Issue {
	if !calendar.ValidDate(s.Date) {
		issue := issueFor(s, model.CodeValidationError, "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)")
		return &issue
	}
	start, err := calendar.ToMinutes(s.StartTime)
	if err != nil {
		issue := issueFor(s, model.CodeValidationError, "시작 시각 형식이 올바르지 않습니다 (HH:MM)")
		return &issue
	}
	end, err := calendar.ToMinutes(s.EndTime)
	if err != nil {
		issue := issueFor(s, model.CodeValidationError, "종료 시각 형식이 올바르지 않습니다 (HH:MM)")
		return &issue
	}
	if start >= end {
		issue := issueFor(s, model.CodeValidationError,
			fmt.Sprintf("시작 시각(%s)이 종료 시각(%s)보다 빨라야 합니다", s.StartTime, s.EndTime))
		return &issue
	}
	return nil
}

func issueFor(s model.Session, code model.IssueCode, msg string) model.Issue {
	return model.Issue{
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Code:      code,
		Message:   msg,
	}
}
