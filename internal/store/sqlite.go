package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"maru/internal/model"
)

// DB is the sqlite-backed Store.
type DB struct {
	*sql.DB
}

var _ Store = (*DB)(nil)

// NewDB opens the database at path and bootstraps the schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Rental requests. The optional columns (range dates, batch
		// linkage, discounts) arrived over the life of the original
		// system; NULLs map to zero values on scan.
		`CREATE TABLE IF NOT EXISTS rental_requests (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			date TEXT,
			start_time TEXT,
			end_time TEXT,
			start_date TEXT,
			end_date TEXT,
			is_prep_day BOOLEAN NOT NULL DEFAULT 0,
			applicant_name TEXT NOT NULL,
			applicant_phone TEXT,
			purpose TEXT,
			equipment TEXT,
			status TEXT NOT NULL,
			manager_comment TEXT,
			batch_id TEXT,
			batch_seq INTEGER,
			batch_size INTEGER,
			discount_mode TEXT,
			discount_rate REAL,
			discount_amount INTEGER,
			discount_reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS class_schedules (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			title TEXT,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			effective_from TEXT,
			effective_to TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS blocked_slots (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			date TEXT NOT NULL,
			end_date TEXT,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_requests_room_date ON rental_requests(room_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_batch ON rental_requests(batch_id)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

const requestColumns = `id, room_id, date, start_time, end_time, start_date, end_date, is_prep_day,
	applicant_name, applicant_phone, purpose, equipment, status, manager_comment,
	batch_id, batch_seq, batch_size, discount_mode, discount_rate, discount_amount, discount_reason,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.RentalRequest, error) {
	var r model.RentalRequest
	var date, startTime, endTime, startDate, endDate sql.NullString
	var phone, purpose, equipment, comment, batchID sql.NullString
	var batchSeq, batchSize sql.NullInt64
	var discountMode, discountReason sql.NullString
	var discountRate sql.NullFloat64
	var discountAmount sql.NullInt64

	err := row.Scan(
		&r.ID, &r.RoomID, &date, &startTime, &endTime, &startDate, &endDate, &r.IsPrepDay,
		&r.ApplicantName, &phone, &purpose, &equipment, &r.Status, &comment,
		&batchID, &batchSeq, &batchSize, &discountMode, &discountRate, &discountAmount, &discountReason,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Date = date.String
	r.StartTime = startTime.String
	r.EndTime = endTime.String
	r.StartDate = startDate.String
	r.EndDate = endDate.String
	r.ApplicantPhone = phone.String
	r.Purpose = purpose.String
	if equipment.String != "" {
		r.Equipment = strings.Split(equipment.String, ",")
	}
	r.ManagerComment = comment.String
	r.BatchID = batchID.String
	r.BatchSeq = int(batchSeq.Int64)
	r.BatchSize = int(batchSize.Int64)
	r.Discount = model.Discount{
		Mode:      model.DiscountMode(discountMode.String),
		RatePct:   discountRate.Float64,
		AmountKRW: discountAmount.Int64,
		Reason:    discountReason.String,
	}
	return &r, nil
}

func (db *DB) ListRequests(ctx context.Context) ([]model.RentalRequest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM rental_requests ORDER BY created_at, batch_seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.RentalRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func (db *DB) GetRequest(ctx context.Context, id string) (*model.RentalRequest, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM rental_requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (db *DB) AppendRequests(ctx context.Context, requests []model.RentalRequest) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rental_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i := range requests {
		r := &requests[i]
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, r.RoomID,
			nullable(r.Date), nullable(r.StartTime), nullable(r.EndTime),
			nullable(r.StartDate), nullable(r.EndDate), r.IsPrepDay,
			r.ApplicantName, nullable(r.ApplicantPhone), nullable(r.Purpose),
			nullable(strings.Join(r.Equipment, ",")), string(r.Status), nullable(r.ManagerComment),
			nullable(r.BatchID), r.BatchSeq, r.BatchSize,
			nullable(string(r.Discount.Mode)), r.Discount.RatePct, r.Discount.AmountKRW,
			nullable(r.Discount.Reason),
			createdAt, now,
		)
		if err != nil {
			return fmt.Errorf("insert request %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (db *DB) UpdateStatus(ctx context.Context, id string, status model.RequestStatus, managerComment string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE rental_requests
		SET status = ?, manager_comment = COALESCE(NULLIF(?, ''), manager_comment), updated_at = ?
		WHERE id = ?`,
		string(status), managerComment, time.Now(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) SetDiscount(ctx context.Context, batchID string, d model.Discount) error {
	res, err := db.ExecContext(ctx, `
		UPDATE rental_requests
		SET discount_mode = ?, discount_rate = ?, discount_amount = ?, discount_reason = ?, updated_at = ?
		WHERE batch_id = ? OR id = ?`,
		string(d.Mode), d.RatePct, d.AmountKRW, d.Reason, time.Now(), batchID, batchID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListSchedules(ctx context.Context) ([]model.ClassSchedule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, room_id, title, day_of_week, start_time, end_time, effective_from, effective_to, created_at
		FROM class_schedules ORDER BY day_of_week, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.ClassSchedule
	for rows.Next() {
		var s model.ClassSchedule
		var title, from, to sql.NullString
		if err := rows.Scan(&s.ID, &s.RoomID, &title, &s.DayOfWeek, &s.StartTime, &s.EndTime, &from, &to, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Title = title.String
		s.EffectiveFrom = from.String
		s.EffectiveTo = to.String
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (db *DB) CreateSchedule(ctx context.Context, s *model.ClassSchedule) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO class_schedules (id, room_id, title, day_of_week, start_time, end_time, effective_from, effective_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.RoomID, nullable(s.Title), s.DayOfWeek, s.StartTime, s.EndTime,
		nullable(s.EffectiveFrom), nullable(s.EffectiveTo), time.Now(),
	)
	return err
}

func (db *DB) DeleteSchedule(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "class_schedules", id)
}

func (db *DB) ListBlocks(ctx context.Context) ([]model.BlockedSlot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, room_id, date, end_date, start_time, end_time, reason, created_at
		FROM blocked_slots ORDER BY date, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.BlockedSlot
	for rows.Next() {
		var b model.BlockedSlot
		var endDate, reason sql.NullString
		if err := rows.Scan(&b.ID, &b.RoomID, &b.Date, &endDate, &b.StartTime, &b.EndTime, &reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.EndDate = endDate.String
		b.Reason = reason.String
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (db *DB) CreateBlock(ctx context.Context, b *model.BlockedSlot) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO blocked_slots (id, room_id, date, end_date, start_time, end_time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.RoomID, b.Date, nullable(b.EndDate), b.StartTime, b.EndTime, nullable(b.Reason), time.Now(),
	)
	return err
}

func (db *DB) DeleteBlock(ctx context.Context, id string) error {
	return db.deleteByID(ctx, "blocked_slots", id)
}

func (db *DB) deleteByID(ctx context.Context, table, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullable maps empty strings to NULL so the optional columns stay NULL
// instead of accumulating empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
