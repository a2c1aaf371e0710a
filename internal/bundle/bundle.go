// Package bundle aggregates the heterogeneous per-session statuses of a
// batch into one display status and picks the fee-basis subset. A bundle
// is a derived view: the rows sharing a batch id, or a singleton.
package bundle

import "maru/internal/model"

// Analysis is the aggregated view of a bundle's statuses.
type Analysis struct {
	ApprovedCount  int                 `json:"approved_count"`
	RejectedCount  int                 `json:"rejected_count"`
	PendingCount   int                 `json:"pending_count"`
	CancelledCount int                 `json:"cancelled_count"`
	DisplayStatus  model.DisplayStatus `json:"display_status"`
	// StatusForFilter collapses DisplayStatus onto the four canonical
	// statuses for list-filter UIs.
	StatusForFilter model.RequestStatus `json:"status_for_filter"`
	IsPartial       bool                `json:"is_partial"`
}

// Analyze derives the bundle status from its rows.
//
// Uniform sets map to their own status. A set containing at least one
// approved row and anything else is 부분처리 (partial). A set with no
// approved rows, in any mix of rejected, cancelled and pending, stays
// 접수: until staff approves something, nothing has been partially
// granted and the applicant still sees the request as pending.
func Analyze(requests []model.RentalRequest) Analysis {
	a := Analysis{}
	for _, r := range requests {
		switch r.Status {
		case model.StatusApproved:
			a.ApprovedCount++
		case model.StatusRejected:
			a.RejectedCount++
		case model.StatusCancelled:
			a.CancelledCount++
		default:
			a.PendingCount++
		}
	}

	n := len(requests)
	switch {
	case n == 0:
		a.DisplayStatus = model.DisplayReceived
	case a.ApprovedCount == n:
		a.DisplayStatus = model.DisplayApproved
	case a.RejectedCount == n:
		a.DisplayStatus = model.DisplayRejected
	case a.CancelledCount == n:
		a.DisplayStatus = model.DisplayCancelled
	case a.ApprovedCount > 0:
		a.DisplayStatus = model.DisplayPartial
		a.IsPartial = true
	default:
		a.DisplayStatus = model.DisplayReceived
	}

	switch a.DisplayStatus {
	case model.DisplayPartial:
		// Partial bundles filter as approved when anything was approved.
		if a.ApprovedCount > 0 {
			a.StatusForFilter = model.StatusApproved
		} else {
			a.StatusForFilter = model.StatusReceived
		}
	default:
		a.StatusForFilter = model.RequestStatus(a.DisplayStatus)
	}
	return a
}

// FeeBasis returns the subset of rows the payable amount is computed
// over. Once some but not all rows are approved, only the approved subset
// is charged; otherwise the full list stands in, both for the
// nothing-decided-yet full estimate and for uniformly decided bundles.
func FeeBasis(requests []model.RentalRequest) []model.RentalRequest {
	approved := make([]model.RentalRequest, 0, len(requests))
	for _, r := range requests {
		if r.Status == model.StatusApproved {
			approved = append(approved, r)
		}
	}
	if len(approved) > 0 && len(approved) < len(requests) {
		return approved
	}
	return requests
}
