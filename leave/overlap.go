package leave

import "github.com/warp/leave-planner/generic"

// FindOverlap returns the first request in existing that blocks [start, end]
// for userID and leaveType, or nil. A request blocks when it belongs to the
// user, is not excludingID, is not rejected, has the same type, and shares at
// least one calendar day with the range. Sick leave never blocks vacation and
// vice versa.
func FindOverlap(existing []LeaveRequest, userID string, start, end generic.TimePoint, leaveType LeaveType, excludingID string) *LeaveRequest {
	proposed := generic.NewPeriod(start, end)
	for i := range existing {
		r := &existing[i]
		if r.User.ID != userID || (excludingID != "" && r.ID == excludingID) {
			continue
		}
		if !r.Counts() || r.Type != leaveType {
			continue
		}
		if r.Period().Overlaps(proposed) {
			return r
		}
	}
	return nil
}

// HasOverlap reports whether FindOverlap finds a conflict.
func HasOverlap(existing []LeaveRequest, userID string, start, end generic.TimePoint, leaveType LeaveType, excludingID string) bool {
	return FindOverlap(existing, userID, start, end, leaveType, excludingID) != nil
}

func overlapError(leaveType LeaveType, start, end generic.TimePoint, existing *LeaveRequest) *OverlapError {
	return &OverlapError{
		Type:       leaveType,
		SingleDay:  start.Equal(end),
		ExistingID: existing.ID,
	}
}
