// Package model defines the shared domain types of the rental engine.
package model

import (
	"time"

	"maru/internal/calendar"
)

// RoomCategory identifies the pricing and operating-hour rules of a room.
type RoomCategory string

const (
	CategoryLecture RoomCategory = "lecture"
	CategoryStudio  RoomCategory = "studio"
	CategoryGallery RoomCategory = "gallery"
)

// Valid reports whether c is one of the known categories.
func (c RoomCategory) Valid() bool {
	switch c {
	case CategoryLecture, CategoryStudio, CategoryGallery:
		return true
	}
	return false
}

// RoomAll is the wildcard room id used by schedules and blocks that apply
// to every room.
const RoomAll = "all"

// Room is a bookable room from the room directory.
type Room struct {
	ID                 string           `json:"id" yaml:"id"`
	Name               string           `json:"name" yaml:"name"`
	Category           RoomCategory     `json:"category" yaml:"category"`
	HourlyFeeKRW       int64            `json:"hourly_fee_krw" yaml:"hourly_fee_krw"`
	EquipmentPrices    map[string]int64 `json:"equipment_prices" yaml:"equipment_prices"`
	DurationLimitHours int              `json:"duration_limit_hours" yaml:"duration_limit_hours"`
}

// RequestStatus is the per-session lifecycle status. The Korean strings are
// the wire and storage form.
type RequestStatus string

const (
	StatusReceived  RequestStatus = "접수"
	StatusApproved  RequestStatus = "승인"
	StatusRejected  RequestStatus = "반려"
	StatusCancelled RequestStatus = "취소"
)

// Valid reports whether s is one of the four canonical statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// BlocksSlot reports whether a request in this status still occupies its
// slot for conflict checking. Rejected and cancelled requests never
// conflict.
func (s RequestStatus) BlocksSlot() bool {
	return s == StatusReceived || s == StatusApproved
}

// statusTransitions is the allowed transition table: a received request can
// be decided any way; an approved request may still be cancelled by the
// applicant; everything else is terminal.
var statusTransitions = map[RequestStatus][]RequestStatus{
	StatusReceived: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to RequestStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DisplayStatus is the aggregated bundle-level status shown in list views.
// It extends the canonical statuses with 부분처리 (partially processed).
type DisplayStatus string

const (
	DisplayReceived  DisplayStatus = DisplayStatus(StatusReceived)
	DisplayApproved  DisplayStatus = DisplayStatus(StatusApproved)
	DisplayRejected  DisplayStatus = DisplayStatus(StatusRejected)
	DisplayCancelled DisplayStatus = DisplayStatus(StatusCancelled)
	DisplayPartial   DisplayStatus = "부분처리"
)

// Session is one concrete date + time range of room usage.
type Session struct {
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
	IsPrepDay bool   `json:"is_prep_day,omitempty"`
}

// DurationMinutes returns the session length in minutes, or an error for
// malformed times.
func (s Session) DurationMinutes() (int, error) {
	start, err := calendar.ToMinutes(s.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := calendar.ToMinutes(s.EndTime)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// RentalRequest is the atomic persisted unit: one session (or, for the
// gallery, one whole exhibition period) plus applicant data and status.
//
// Exactly one shape applies to a given request:
//   - standalone single-day request: Date/StartTime/EndTime set, no BatchID
//   - batch row: Date/StartTime/EndTime set, BatchID shared with siblings
//   - gallery range row: StartDate/EndDate set, no per-day siblings
type RentalRequest struct {
	ID             string        `json:"id"`
	RoomID         string        `json:"room_id"`
	Date           string        `json:"date,omitempty"`
	StartTime      string        `json:"start_time,omitempty"`
	EndTime        string        `json:"end_time,omitempty"`
	StartDate      string        `json:"start_date,omitempty"`
	EndDate        string        `json:"end_date,omitempty"`
	IsPrepDay      bool          `json:"is_prep_day,omitempty"`
	ApplicantName  string        `json:"applicant_name"`
	ApplicantPhone string        `json:"applicant_phone"`
	Purpose        string        `json:"purpose,omitempty"`
	Equipment      []string      `json:"equipment,omitempty"`
	Status         RequestStatus `json:"status"`
	ManagerComment string        `json:"manager_comment,omitempty"`
	BatchID        string        `json:"batch_id,omitempty"`
	BatchSeq       int           `json:"batch_seq,omitempty"`
	BatchSize      int           `json:"batch_size,omitempty"`
	Discount       Discount      `json:"discount,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsRangeRequest reports whether this is the gallery single-row encoding of
// a whole exhibition period.
func (r *RentalRequest) IsRangeRequest() bool {
	return r.StartDate != "" && r.EndDate != ""
}

// ContainsDate reports whether a range request covers the given date,
// endpoints inclusive. Day requests report a simple date match.
func (r *RentalRequest) ContainsDate(date string) bool {
	if !r.IsRangeRequest() {
		return r.Date == date
	}
	return calendar.InEffectiveRange(date, r.StartDate, r.EndDate)
}

// Session returns the session view of a day request.
func (r *RentalRequest) Session() Session {
	return Session{Date: r.Date, StartTime: r.StartTime, EndTime: r.EndTime, IsPrepDay: r.IsPrepDay}
}

// ClassSchedule is a recurring weekly commitment that preempts booking on
// matching weekdays within its effective date range.
type ClassSchedule struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"` // room id or RoomAll
	Title         string    `json:"title,omitempty"`
	DayOfWeek     int       `json:"day_of_week"` // 0 = Sunday
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	EffectiveFrom string    `json:"effective_from,omitempty"`
	EffectiveTo   string    `json:"effective_to,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// BlockedSlot is an ad-hoc administrative block. EndDate lets one block
// span multiple days (used for whole-period gallery blocks).
type BlockedSlot struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"` // room id or RoomAll
	Date      string    `json:"date"`
	EndDate   string    `json:"end_date,omitempty"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveEndDate returns EndDate, falling back to Date for single-day
// blocks.
func (b *BlockedSlot) EffectiveEndDate() string {
	if b.EndDate != "" {
		return b.EndDate
	}
	return b.Date
}

// AppliesToRoom reports whether the block targets the given room.
func (b *BlockedSlot) AppliesToRoom(roomID string) bool {
	return b.RoomID == roomID || b.RoomID == RoomAll
}

// AppliesToRoom reports whether the schedule targets the given room.
func (c *ClassSchedule) AppliesToRoom(roomID string) bool {
	return c.RoomID == roomID || c.RoomID == RoomAll
}

// IssueCode classifies why a candidate session was refused.
type IssueCode string

const (
	CodeValidationError IssueCode = "VALIDATION_ERROR"
	CodeOutOfHours      IssueCode = "OUT_OF_HOURS"
	CodeConflict        IssueCode = "CONFLICT"
	CodeClassConflict   IssueCode = "CLASS_CONFLICT"
	CodeBlocked         IssueCode = "BLOCKED"
	CodeBatchConflict   IssueCode = "BATCH_CONFLICT"
)

// Issue is one per-session refusal. Message is user-facing.
type Issue struct {
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Code      IssueCode `json:"code"`
	Message   string    `json:"message"`
}

// DiscountMode selects how a discount was entered by staff.
type DiscountMode string

const (
	DiscountNone   DiscountMode = ""
	DiscountRate   DiscountMode = "rate"
	DiscountAmount DiscountMode = "amount"
)

// Discount is a staff-entered fee adjustment, normalized against a bundle
// total before it is applied. Never applicable to gallery requests.
type Discount struct {
	Mode      DiscountMode `json:"mode,omitempty"`
	RatePct   float64      `json:"rate_pct,omitempty"`
	AmountKRW int64        `json:"amount_krw,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// IsZero reports whether no discount was entered.
func (d Discount) IsZero() bool {
	return d.Mode == DiscountNone || (d.RatePct == 0 && d.AmountKRW == 0)
}

// FeeBreakdown is the money result for a session or a bundle.
// FinalFeeKRW = TotalFeeKRW - DiscountAmountKRW, never negative.
type FeeBreakdown struct {
	RentalFeeKRW      int64   `json:"rental_fee_krw"`
	EquipmentFeeKRW   int64   `json:"equipment_fee_krw"`
	TotalFeeKRW       int64   `json:"total_fee_krw"`
	DiscountRatePct   float64 `json:"discount_rate_pct"`
	DiscountAmountKRW int64   `json:"discount_amount_krw"`
	DiscountReason    string  `json:"discount_reason,omitempty"`
	FinalFeeKRW       int64   `json:"final_fee_krw"`
}

// OperatingWindow is one allowed [start, end) range within a day.
type OperatingWindow struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}
