package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"maru/internal/model"
)

// Worksheet names inside the spreadsheet.
const (
	sheetRequests  = "requests"
	sheetSchedules = "schedules"
	sheetBlocks    = "blocks"
)

// Sheets is a Google-Sheets-backed Store: the original deployment kept all
// rental data in a spreadsheet, and this adapter keeps that option open.
// Rows map positionally; short rows (written before newer optional columns
// existed) scan with zero-value defaults. Every API call goes through a
// rate limiter to stay inside the Sheets quota.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

var _ Store = (*Sheets)(nil)

// NewSheets builds the adapter from a service-account credentials file.
func NewSheets(ctx context.Context, spreadsheetID, credentialsFile string, ratePerSecond float64) (*Sheets, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSecond), 2),
	}, nil
}

func (s *Sheets) readRows(ctx context.Context, sheet string) ([][]any, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheet+"!A2:Z").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	return resp.Values, nil
}

func (s *Sheets) appendRows(ctx context.Context, sheet string, rows [][]any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, sheet+"!A2", vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

func (s *Sheets) updateRow(ctx context.Context, sheet string, rowIdx int, row []any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	// rowIdx is zero-based over data rows; row 1 holds the header.
	rng := fmt.Sprintf("%s!A%d", sheet, rowIdx+2)
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s row %d: %w", sheet, rowIdx, err)
	}
	return nil
}

func (s *Sheets) clearRow(ctx context.Context, sheet string, rowIdx int) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:Z%d", sheet, rowIdx+2, rowIdx+2)
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s row %d: %w", sheet, rowIdx, err)
	}
	return nil
}

// cell returns column i of a possibly short row.
func cell(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func cellInt(row []any, i int) int {
	n, _ := strconv.Atoi(cell(row, i))
	return n
}

func cellInt64(row []any, i int) int64 {
	n, _ := strconv.ParseInt(cell(row, i), 10, 64)
	return n
}

func cellFloat(row []any, i int) float64 {
	f, _ := strconv.ParseFloat(cell(row, i), 64)
	return f
}

func cellBool(row []any, i int) bool {
	v := strings.ToLower(cell(row, i))
	return v == "true" || v == "1" || v == "y"
}

func cellTime(row []any, i int) time.Time {
	t, _ := time.Parse(time.RFC3339, cell(row, i))
	return t
}

func requestFromRow(row []any) model.RentalRequest {
	r := model.RentalRequest{
		ID:             cell(row, 0),
		RoomID:         cell(row, 1),
		Date:           cell(row, 2),
		StartTime:      cell(row, 3),
		EndTime:        cell(row, 4),
		StartDate:      cell(row, 5),
		EndDate:        cell(row, 6),
		IsPrepDay:      cellBool(row, 7),
		ApplicantName:  cell(row, 8),
		ApplicantPhone: cell(row, 9),
		Purpose:        cell(row, 10),
		Status:         model.RequestStatus(cell(row, 12)),
		ManagerComment: cell(row, 13),
		BatchID:        cell(row, 14),
		BatchSeq:       cellInt(row, 15),
		BatchSize:      cellInt(row, 16),
		Discount: model.Discount{
			Mode:      model.DiscountMode(cell(row, 17)),
			RatePct:   cellFloat(row, 18),
			AmountKRW: cellInt64(row, 19),
			Reason:    cell(row, 20),
		},
		CreatedAt: cellTime(row, 21),
		UpdatedAt: cellTime(row, 22),
	}
	if eq := cell(row, 11); eq != "" {
		r.Equipment = strings.Split(eq, ",")
	}
	return r
}

func requestToRow(r *model.RentalRequest) []any {
	return []any{
		r.ID, r.RoomID, r.Date, r.StartTime, r.EndTime, r.StartDate, r.EndDate,
		strconv.FormatBool(r.IsPrepDay),
		r.ApplicantName, r.ApplicantPhone, r.Purpose, strings.Join(r.Equipment, ","),
		string(r.Status), r.ManagerComment,
		r.BatchID, strconv.Itoa(r.BatchSeq), strconv.Itoa(r.BatchSize),
		string(r.Discount.Mode),
		strconv.FormatFloat(r.Discount.RatePct, 'f', -1, 64),
		strconv.FormatInt(r.Discount.AmountKRW, 10),
		r.Discount.Reason,
		r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Sheets) ListRequests(ctx context.Context) ([]model.RentalRequest, error) {
	rows, err := s.readRows(ctx, sheetRequests)
	if err != nil {
		return nil, err
	}
	requests := make([]model.RentalRequest, 0, len(rows))
	for _, row := range rows {
		if cell(row, 0) == "" {
			continue
		}
		requests = append(requests, requestFromRow(row))
	}
	return requests, nil
}

func (s *Sheets) GetRequest(ctx context.Context, id string) (*model.RentalRequest, error) {
	req, _, err := s.findRequest(ctx, id)
	return req, err
}

func (s *Sheets) findRequest(ctx context.Context, id string) (*model.RentalRequest, int, error) {
	rows, err := s.readRows(ctx, sheetRequests)
	if err != nil {
		return nil, 0, err
	}
	for i, row := range rows {
		if cell(row, 0) == id {
			r := requestFromRow(row)
			return &r, i, nil
		}
	}
	return nil, 0, ErrNotFound
}

func (s *Sheets) AppendRequests(ctx context.Context, requests []model.RentalRequest) error {
	now := time.Now()
	rows := make([][]any, 0, len(requests))
	for i := range requests {
		r := requests[i]
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		rows = append(rows, requestToRow(&r))
	}
	return s.appendRows(ctx, sheetRequests, rows)
}

func (s *Sheets) UpdateStatus(ctx context.Context, id string, status model.RequestStatus, managerComment string) error {
	req, idx, err := s.findRequest(ctx, id)
	if err != nil {
		return err
	}
	req.Status = status
	if managerComment != "" {
		req.ManagerComment = managerComment
	}
	req.UpdatedAt = time.Now()
	return s.updateRow(ctx, sheetRequests, idx, requestToRow(req))
}

func (s *Sheets) SetDiscount(ctx context.Context, batchID string, d model.Discount) error {
	rows, err := s.readRows(ctx, sheetRequests)
	if err != nil {
		return err
	}
	found := false
	for i, row := range rows {
		if cell(row, 14) != batchID && cell(row, 0) != batchID {
			continue
		}
		req := requestFromRow(row)
		req.Discount = d
		req.UpdatedAt = time.Now()
		if err := s.updateRow(ctx, sheetRequests, i, requestToRow(&req)); err != nil {
			return err
		}
		found = true
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *Sheets) ListSchedules(ctx context.Context) ([]model.ClassSchedule, error) {
	rows, err := s.readRows(ctx, sheetSchedules)
	if err != nil {
		return nil, err
	}
	schedules := make([]model.ClassSchedule, 0, len(rows))
	for _, row := range rows {
		if cell(row, 0) == "" {
			continue
		}
		schedules = append(schedules, model.ClassSchedule{
			ID:            cell(row, 0),
			RoomID:        cell(row, 1),
			Title:         cell(row, 2),
			DayOfWeek:     cellInt(row, 3),
			StartTime:     cell(row, 4),
			EndTime:       cell(row, 5),
			EffectiveFrom: cell(row, 6),
			EffectiveTo:   cell(row, 7),
			CreatedAt:     cellTime(row, 8),
		})
	}
	return schedules, nil
}

func (s *Sheets) CreateSchedule(ctx context.Context, sched *model.ClassSchedule) error {
	row := []any{
		sched.ID, sched.RoomID, sched.Title, strconv.Itoa(sched.DayOfWeek),
		sched.StartTime, sched.EndTime, sched.EffectiveFrom, sched.EffectiveTo,
		time.Now().Format(time.RFC3339),
	}
	return s.appendRows(ctx, sheetSchedules, [][]any{row})
}

func (s *Sheets) DeleteSchedule(ctx context.Context, id string) error {
	return s.deleteByID(ctx, sheetSchedules, id)
}

func (s *Sheets) ListBlocks(ctx context.Context) ([]model.BlockedSlot, error) {
	rows, err := s.readRows(ctx, sheetBlocks)
	if err != nil {
		return nil, err
	}
	blocks := make([]model.BlockedSlot, 0, len(rows))
	for _, row := range rows {
		if cell(row, 0) == "" {
			continue
		}
		blocks = append(blocks, model.BlockedSlot{
			ID:        cell(row, 0),
			RoomID:    cell(row, 1),
			Date:      cell(row, 2),
			EndDate:   cell(row, 3),
			StartTime: cell(row, 4),
			EndTime:   cell(row, 5),
			Reason:    cell(row, 6),
			CreatedAt: cellTime(row, 7),
		})
	}
	return blocks, nil
}

func (s *Sheets) CreateBlock(ctx context.Context, b *model.BlockedSlot) error {
	row := []any{
		b.ID, b.RoomID, b.Date, b.EndDate, b.StartTime, b.EndTime, b.Reason,
		time.Now().Format(time.RFC3339),
	}
	return s.appendRows(ctx, sheetBlocks, [][]any{row})
}

func (s *Sheets) DeleteBlock(ctx context.Context, id string) error {
	return s.deleteByID(ctx, sheetBlocks, id)
}

func (s *Sheets) deleteByID(ctx context.Context, sheet, id string) error {
	rows, err := s.readRows(ctx, sheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, 0) == id {
			return s.clearRow(ctx, sheet, i)
		}
	}
	return ErrNotFound
}
