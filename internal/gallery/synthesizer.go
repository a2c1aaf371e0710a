// Package gallery expands an exhibition date range into the per-day
// sessions the validator and fee calculator work with. The gallery is the
// only category booked by range: one session per open day, plus one free
// preparation day immediately before the start.
package gallery

import (
	"fmt"
	"sort"

	"maru/internal/calendar"
	"maru/internal/hours"
	"maru/internal/model"
)

// maxExpansionDays is a defensive cap against runaway loops only. The
// business ceiling on exhibition length is enforced by the caller.
const maxExpansionDays = 366

// Plan is the result of expanding an exhibition range.
type Plan struct {
	// PrepDate is the free setup day, always strictly before the start
	// date and never a Sunday. Empty when no valid prep day exists.
	PrepDate string
	// Sessions is ordered by date then start time; the prep session, if
	// any, comes first and is flagged IsPrepDay.
	Sessions []model.Session
}

// Synthesizer derives gallery sessions from a date range.
type Synthesizer struct {
	res *hours.Resolver
}

// New creates a synthesizer over the given hours resolver.
func New(res *hours.Resolver) *Synthesizer {
	return &Synthesizer{res: res}
}

// PrepDate walks backward from the day before startDate, skipping Sundays,
// and returns the first open day. Used both when synthesizing a new plan
// and when checking a candidate date against a stored range row.
func PrepDate(startDate string) (string, error) {
	day, err := calendar.AddDays(startDate, -1)
	if err != nil {
		return "", err
	}
	for i := 0; i < 7; i++ {
		if !calendar.IsSunday(day) {
			return day, nil
		}
		day, err = calendar.AddDays(day, -1)
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no prep day found before %s", startDate)
}

// Synthesize expands [startDate, endDate] into one session per open day
// plus the prep session. Sundays inside the range are skipped. Running it
// twice with the same inputs yields identical, ordered session lists.
func (s *Synthesizer) Synthesize(startDate, endDate string) (*Plan, error) {
	if _, err := calendar.ParseDate(startDate); err != nil {
		return nil, err
	}
	if _, err := calendar.ParseDate(endDate); err != nil {
		return nil, err
	}
	if endDate < startDate {
		return nil, fmt.Errorf("end date %s before start date %s", endDate, startDate)
	}
	days, err := calendar.DiffDaysInclusive(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if days > maxExpansionDays {
		return nil, fmt.Errorf("range of %d days exceeds expansion cap", days)
	}

	var sessions []model.Session
	day := startDate
	for i := 0; i < days; i++ {
		if !calendar.IsSunday(day) {
			sess, err := s.sessionFor(day, false)
			if err != nil {
				return nil, err
			}
			sessions = append(sessions, sess)
		}
		day, err = calendar.AddDays(day, 1)
		if err != nil {
			return nil, err
		}
	}

	plan := &Plan{}
	prep, err := PrepDate(startDate)
	if err == nil && prep < startDate {
		sess, err := s.sessionFor(prep, true)
		if err != nil {
			return nil, err
		}
		plan.PrepDate = prep
		sessions = append(sessions, sess)
	}

	plan.Sessions = dedupe(sessions)
	sort.Slice(plan.Sessions, func(i, j int) bool {
		a, b := plan.Sessions[i], plan.Sessions[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})
	return plan, nil
}

func (s *Synthesizer) sessionFor(date string, prep bool) (model.Session, error) {
	windows, err := s.res.WindowsFor(date, model.CategoryGallery)
	if err != nil {
		return model.Session{}, err
	}
	if len(windows) == 0 {
		return model.Session{}, fmt.Errorf("no gallery window on %s", date)
	}
	w := windows[0]
	return model.Session{Date: date, StartTime: w.Start, EndTime: w.End, IsPrepDay: prep}, nil
}

func dedupe(sessions []model.Session) []model.Session {
	seen := make(map[string]bool, len(sessions))
	out := sessions[:0]
	for _, sess := range sessions {
		key := sess.Date + " " + sess.StartTime + " " + sess.EndTime
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sess)
	}
	return out
}
