// Package store abstracts the persistence of rental requests, class
// schedules and blocked slots behind narrow read/write interfaces. The
// engine only ever sees snapshots read through Reader; whether the backing
// store is a spreadsheet, a file or a database is an adapter concern.
package store

import (
	"context"
	"errors"

	"maru/internal/model"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Reader is the read side consumed by validation and list views. Lists
// return the full data set; filtering by room, status or date is the
// engine's job, so adapters stay dumb about the rules.
type Reader interface {
	ListRequests(ctx context.Context) ([]model.RentalRequest, error)
	ListSchedules(ctx context.Context) ([]model.ClassSchedule, error)
	ListBlocks(ctx context.Context) ([]model.BlockedSlot, error)
	GetRequest(ctx context.Context, id string) (*model.RentalRequest, error)
}

// Writer is the mutation side used after a submission is accepted or a
// staff decision is made.
type Writer interface {
	AppendRequests(ctx context.Context, requests []model.RentalRequest) error
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus, managerComment string) error
	SetDiscount(ctx context.Context, batchID string, d model.Discount) error
	CreateSchedule(ctx context.Context, s *model.ClassSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	CreateBlock(ctx context.Context, b *model.BlockedSlot) error
	DeleteBlock(ctx context.Context, id string) error
}

// Store combines both sides.
type Store interface {
	Reader
	Writer
}
