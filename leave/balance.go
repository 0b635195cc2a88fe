/*
balance.go - Vacation balance accounting

PURPOSE:
  Two different "remaining" figures exist on purpose:

  USED / REMAINING (reporting)
    Only approved vacation counts. The figure an employee sees shrinks when a
    request is approved, not when it is submitted.

  RESERVED / AVAILABLE (acceptance gate)
    Pending and approved vacation count. A pending request holds its days
    against the entitlement immediately, so two pending requests cannot
    jointly exceed it.

  All sums are in working days (generic.WorkingDays) against the engine's
  holiday calendar. Sick leave never touches the balance.

SEE ALSO:
  - request.go: Uses AvailableVacationDaysForRequests as the create/update gate
*/
package leave

import (
	"github.com/shopspring/decimal"

	"github.com/warp/leave-planner/generic"
)

// BalanceEngine computes vacation figures from a user's request history.
// It is a pure calculator; callers supply the request collection.
type BalanceEngine struct {
	Calendar generic.HolidayCalendar
}

// WorkingDays counts working days in [start, end] on the engine's calendar.
func (b *BalanceEngine) WorkingDays(start, end generic.TimePoint) int {
	return generic.WorkingDays(b.Calendar, start, end)
}

// RequestDays is the working-day cost of a request.
func (b *BalanceEngine) RequestDays(r LeaveRequest) int {
	return generic.WorkingDaysIn(b.Calendar, r.Period())
}

func (b *BalanceEngine) sum(requests []LeaveRequest, userID, excludingID string, include func(LeaveRequest) bool) int {
	total := 0
	for _, r := range requests {
		if r.User.ID != userID || r.Type != TypeVacation {
			continue
		}
		if excludingID != "" && r.ID == excludingID {
			continue
		}
		if include(r) {
			total += b.RequestDays(r)
		}
	}
	return total
}

// UsedVacationDays sums approved vacation.
func (b *BalanceEngine) UsedVacationDays(requests []LeaveRequest, user User) int {
	return b.sum(requests, user.ID, "", func(r LeaveRequest) bool {
		return r.Status == StatusApproved
	})
}

// ReservedVacationDays sums pending and approved vacation, optionally
// leaving out one request (an edit is checked without its own prior hold).
func (b *BalanceEngine) ReservedVacationDays(requests []LeaveRequest, user User, excludingID string) int {
	return b.sum(requests, user.ID, excludingID, LeaveRequest.Counts)
}

// RemainingLeaveDays is the entitlement minus approved usage, floored at zero.
func (b *BalanceEngine) RemainingLeaveDays(requests []LeaveRequest, user User) int {
	return max(user.AnnualLeaveDays-b.UsedVacationDays(requests, user), 0)
}

// AvailableVacationDaysForRequests is the entitlement minus reserved days,
// floored at zero. New and edited vacation must fit into it.
func (b *BalanceEngine) AvailableVacationDaysForRequests(requests []LeaveRequest, user User, excludingID string) int {
	return max(user.AnnualLeaveDays-b.ReservedVacationDays(requests, user, excludingID), 0)
}

// =============================================================================
// BALANCE SUMMARY - What the user sees
// =============================================================================

// BalanceSummary is the user-facing balance view.
type BalanceSummary struct {
	UserID      string          `json:"user_id"`
	Entitlement int             `json:"entitlement"`
	Used        int             `json:"used"`
	Reserved    int             `json:"reserved"`
	Pending     int             `json:"pending"`
	Remaining   int             `json:"remaining"`
	Available   int             `json:"available"`
	SickDays    int             `json:"sick_days"`
	Utilization decimal.Decimal `json:"utilization_percent"`
}

// Summary collects every figure for one user.
func (b *BalanceEngine) Summary(requests []LeaveRequest, user User) BalanceSummary {
	used := b.UsedVacationDays(requests, user)
	reserved := b.ReservedVacationDays(requests, user, "")

	sick := 0
	for _, r := range requests {
		if r.User.ID == user.ID && r.Type == TypeSick && r.Counts() {
			sick += b.RequestDays(r)
		}
	}

	return BalanceSummary{
		UserID:      user.ID,
		Entitlement: user.AnnualLeaveDays,
		Used:        used,
		Reserved:    reserved,
		Pending:     reserved - used,
		Remaining:   b.RemainingLeaveDays(requests, user),
		Available:   b.AvailableVacationDaysForRequests(requests, user, ""),
		SickDays:    sick,
		Utilization: utilization(used, user.AnnualLeaveDays),
	}
}

// utilization is used/entitlement in percent, two decimal places. A zero
// entitlement reports zero.
func utilization(used, entitlement int) decimal.Decimal {
	if entitlement <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(used)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(entitlement))).
		Round(2)
}
