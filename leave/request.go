/*
request.go - Leave request lifecycle

PURPOSE:
  Manager is the only component that mutates the request collection. Every
  mutation follows the same shape:

    1. Check the actor (ErrNoActiveUser, ErrForbidden)
    2. Load the full collection
    3. Validate (balance, overlap) against what was loaded
    4. Replace the full collection (write-through)

  Steps 2-4 run under one mutex so two concurrent creates cannot both pass
  the balance check against the same snapshot. A failed check or a failed
  write leaves the stored collection untouched.

STATE MACHINE:
  pending  -> approved | rejected
  approved -> pending  | rejected
  rejected -> pending  | approved
  Sick leave is created approved and stays approved.

  Status changes do not re-run the balance check, with one exception:
  reactivating a rejected request. A rejected request holds no days, so
  bringing it back must fit into what is available at that moment.

SEE ALSO:
  - balance.go:    The balance gate
  - overlap.go:    The overlap gate
  - permission.go: CanEditOrDelete
*/
package leave

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/i18n"
	"github.com/warp/leave-planner/metrics"
)

// Manager orchestrates create, update, status change and delete of leave
// requests under the balance and overlap rules.
type Manager struct {
	Requests RequestStore
	Balance  *BalanceEngine
	Logger   zerolog.Logger
	Now      func() time.Time

	mu sync.Mutex
}

// NewManager creates a manager on the given store and calendar.
func NewManager(requests RequestStore, cal generic.HolidayCalendar, logger zerolog.Logger) *Manager {
	return &Manager{
		Requests: requests,
		Balance:  &BalanceEngine{Calendar: cal},
		Logger:   logger,
		Now:      time.Now,
	}
}

// Outcome is the result of a successful mutation: the stored request and a
// short localized confirmation for display.
type Outcome struct {
	Request *LeaveRequest `json:"request,omitempty"`
	Message string        `json:"message"`
}

// CreateInput describes a new request. Actor is the logged-in user; when nil
// the target acts on their own behalf. ApproveImmediately only takes effect
// for admin actors.
type CreateInput struct {
	Start              generic.TimePoint
	End                generic.TimePoint
	Type               LeaveType
	Reason             string
	Target             *User
	Actor              *User
	ApproveImmediately bool
}

// =============================================================================
// CREATE
// =============================================================================

// Create validates and stores a new request.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Outcome, error) {
	actor := in.Actor
	if actor == nil {
		actor = in.Target
	}
	if actor == nil {
		return nil, m.fail("create", in.Type, ErrNoActiveUser)
	}
	if in.Target == nil {
		return nil, m.fail("create", in.Type, invalid("target user is required"))
	}
	if !canActFor(actor, in.Target) {
		return nil, m.fail("create", in.Type, ErrForbidden)
	}
	if err := validateRange(in.Type, in.Start, in.End); err != nil {
		return nil, m.fail("create", in.Type, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return nil, m.fail("create", in.Type, fmt.Errorf("load requests: %w", err))
	}

	requested := 0
	if in.Type == TypeVacation {
		requested = m.Balance.WorkingDays(in.Start, in.End)
		if err := m.checkBalance(existing, *in.Target, requested, ""); err != nil {
			return nil, m.fail("create", in.Type, err)
		}
	}
	if conflict := FindOverlap(existing, in.Target.ID, in.Start, in.End, in.Type, ""); conflict != nil {
		return nil, m.fail("create", in.Type, overlapError(in.Type, in.Start, in.End, conflict))
	}

	status := StatusPending
	switch {
	case in.Type == TypeSick:
		status = StatusApproved
	case in.ApproveImmediately && actor.IsAdmin():
		status = StatusApproved
	}

	r := LeaveRequest{
		ID:              NewID(),
		User:            snapshotOf(*in.Target),
		StartDate:       in.Start,
		EndDate:         in.End,
		Type:            in.Type,
		Reason:          in.Reason,
		Status:          status,
		CreatedAt:       m.Now(),
		CreatedByUserID: actor.ID,
	}

	if err := m.Requests.ReplaceRequests(ctx, append(existing, r)); err != nil {
		return nil, m.fail("create", in.Type, fmt.Errorf("save requests: %w", err))
	}

	m.succeed("create", r.Type)
	if r.Type == TypeVacation {
		metrics.RequestedWorkingDays.Observe(float64(requested))
	}
	m.Logger.Info().
		Str("request_id", r.ID).
		Str("user_id", r.User.ID).
		Str("actor_id", actor.ID).
		Str("type", string(r.Type)).
		Str("status", string(r.Status)).
		Stringer("start", r.StartDate).
		Stringer("end", r.EndDate).
		Msg("leave request created")

	return &Outcome{Request: &r, Message: createdMessage(ctx, r)}, nil
}

// CreateForSelf is the self-service form of Create: the user requests for
// themselves and the request is never auto-approved.
func (m *Manager) CreateForSelf(ctx context.Context, start, end generic.TimePoint, leaveType LeaveType, reason string, user *User) (*Outcome, error) {
	return m.Create(ctx, CreateInput{
		Start:  start,
		End:    end,
		Type:   leaveType,
		Reason: reason,
		Target: user,
		Actor:  user,
	})
}

// =============================================================================
// UPDATE
// =============================================================================

// Update replaces a stored request with updated. Dates, type and reason are
// taken from updated; the owner and creation audit fields are kept from the
// stored record. Only admins may change the status this way.
func (m *Manager) Update(ctx context.Context, updated LeaveRequest, actor *User) (*Outcome, error) {
	if actor == nil {
		return nil, m.fail("update", updated.Type, ErrNoActiveUser)
	}
	if err := validateRange(updated.Type, updated.StartDate, updated.EndDate); err != nil {
		return nil, m.fail("update", updated.Type, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return nil, m.fail("update", updated.Type, fmt.Errorf("load requests: %w", err))
	}

	idx := indexOf(existing, updated.ID)
	if idx < 0 {
		return nil, m.fail("update", updated.Type, ErrRequestNotFound)
	}
	stored := existing[idx]
	if !CanEditOrDelete(stored, actor) {
		return nil, m.fail("update", updated.Type, ErrForbidden)
	}

	next := stored
	next.StartDate = updated.StartDate
	next.EndDate = updated.EndDate
	next.Type = updated.Type
	next.Reason = updated.Reason
	if actor.IsAdmin() && updated.Status != "" {
		if !updated.Status.Valid() {
			return nil, m.fail("update", updated.Type, invalid("unknown status %q", updated.Status))
		}
		next.Status = updated.Status
	}
	// Switching a pending vacation to sick leave approves it, the same as
	// deleting it and filing sick leave.
	if next.Type == TypeSick {
		next.Status = StatusApproved
	}

	if next.Counts() {
		if err := m.validate(existing, next); err != nil {
			return nil, m.fail("update", next.Type, err)
		}
	}

	now := m.Now()
	next.UpdatedAt = &now
	next.UpdatedByUserID = actor.ID

	replaced := make([]LeaveRequest, len(existing))
	copy(replaced, existing)
	replaced[idx] = next
	if err := m.Requests.ReplaceRequests(ctx, replaced); err != nil {
		return nil, m.fail("update", next.Type, fmt.Errorf("save requests: %w", err))
	}

	m.succeed("update", next.Type)
	m.Logger.Info().
		Str("request_id", next.ID).
		Str("actor_id", actor.ID).
		Stringer("start", next.StartDate).
		Stringer("end", next.EndDate).
		Msg("leave request updated")

	return &Outcome{Request: &next, Message: i18n.T(ctx, "request.updated")}, nil
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// UpdateStatus moves a request to status. Admin only.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status Status, actor *User) (*Outcome, error) {
	if actor == nil {
		return nil, m.fail("status", "", ErrNoActiveUser)
	}
	if !actor.IsAdmin() {
		return nil, m.fail("status", "", ErrForbidden)
	}
	if !status.Valid() {
		return nil, m.fail("status", "", invalid("unknown status %q", status))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return nil, m.fail("status", "", fmt.Errorf("load requests: %w", err))
	}

	idx := indexOf(existing, id)
	if idx < 0 {
		return nil, m.fail("status", "", ErrRequestNotFound)
	}
	stored := existing[idx]
	if stored.Type == TypeSick && status != StatusApproved {
		return nil, m.fail("status", stored.Type, invalid("sick leave is always approved"))
	}

	next := stored
	next.Status = status
	if !stored.Counts() && next.Counts() {
		if err := m.validate(existing, next); err != nil {
			return nil, m.fail("status", stored.Type, err)
		}
	}

	now := m.Now()
	next.UpdatedAt = &now
	next.UpdatedByUserID = actor.ID

	replaced := make([]LeaveRequest, len(existing))
	copy(replaced, existing)
	replaced[idx] = next
	if err := m.Requests.ReplaceRequests(ctx, replaced); err != nil {
		return nil, m.fail("status", stored.Type, fmt.Errorf("save requests: %w", err))
	}

	m.succeed("status", stored.Type)
	metrics.StatusTransitionsTotal.WithLabelValues(string(stored.Status), string(status)).Inc()
	m.Logger.Info().
		Str("request_id", id).
		Str("actor_id", actor.ID).
		Str("from", string(stored.Status)).
		Str("to", string(status)).
		Msg("leave request status changed")

	return &Outcome{Request: &next, Message: statusMessage(ctx, status)}, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a request. There is no soft delete.
func (m *Manager) Delete(ctx context.Context, id string, actor *User) (*Outcome, error) {
	if actor == nil {
		return nil, m.fail("delete", "", ErrNoActiveUser)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return nil, m.fail("delete", "", fmt.Errorf("load requests: %w", err))
	}

	idx := indexOf(existing, id)
	if idx < 0 {
		return nil, m.fail("delete", "", ErrRequestNotFound)
	}
	stored := existing[idx]
	if !CanEditOrDelete(stored, actor) {
		return nil, m.fail("delete", stored.Type, ErrForbidden)
	}

	remaining := make([]LeaveRequest, 0, len(existing)-1)
	remaining = append(remaining, existing[:idx]...)
	remaining = append(remaining, existing[idx+1:]...)
	if err := m.Requests.ReplaceRequests(ctx, remaining); err != nil {
		return nil, m.fail("delete", stored.Type, fmt.Errorf("save requests: %w", err))
	}

	m.succeed("delete", stored.Type)
	m.Logger.Info().
		Str("request_id", id).
		Str("actor_id", actor.ID).
		Msg("leave request deleted")

	return &Outcome{Request: &stored, Message: i18n.T(ctx, "request.deleted")}, nil
}

// =============================================================================
// USER SNAPSHOTS
// =============================================================================

// ResyncUser copies user into the snapshot of every request that user owns.
// It returns the number of requests touched.
func (m *Manager) ResyncUser(ctx context.Context, user User) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("load requests: %w", err)
	}

	touched := 0
	for i := range existing {
		if existing[i].User.ID == user.ID {
			existing[i].User = snapshotOf(user)
			touched++
		}
	}
	if touched == 0 {
		return 0, nil
	}
	if err := m.Requests.ReplaceRequests(ctx, existing); err != nil {
		return 0, fmt.Errorf("save requests: %w", err)
	}

	m.Logger.Debug().Str("user_id", user.ID).Int("requests", touched).Msg("user snapshot resynced")
	return touched, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Filter narrows List. Zero fields match everything; Window keeps requests
// sharing at least one day with it.
type Filter struct {
	UserID string
	Status Status
	Type   LeaveType
	Window *generic.Period
}

func (f Filter) matches(r LeaveRequest) bool {
	if f.UserID != "" && r.User.ID != f.UserID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Window != nil && !r.Period().Overlaps(*f.Window) {
		return false
	}
	return true
}

// List returns matching requests ordered by start date.
func (m *Manager) List(ctx context.Context, f Filter) ([]LeaveRequest, error) {
	all, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}

	out := make([]LeaveRequest, 0, len(all))
	for _, r := range all {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

// Get returns one request by id.
func (m *Manager) Get(ctx context.Context, id string) (*LeaveRequest, error) {
	all, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	idx := indexOf(all, id)
	if idx < 0 {
		return nil, ErrRequestNotFound
	}
	return &all[idx], nil
}

// UsedVacationDays is BalanceEngine.UsedVacationDays over the stored requests.
func (m *Manager) UsedVacationDays(ctx context.Context, user User) (int, error) {
	all, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("load requests: %w", err)
	}
	return m.Balance.UsedVacationDays(all, user), nil
}

// RemainingLeaveDays is BalanceEngine.RemainingLeaveDays over the stored requests.
func (m *Manager) RemainingLeaveDays(ctx context.Context, user User) (int, error) {
	all, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("load requests: %w", err)
	}
	return m.Balance.RemainingLeaveDays(all, user), nil
}

// AvailableVacationDaysForRequests is the acceptance gate over the stored requests.
func (m *Manager) AvailableVacationDaysForRequests(ctx context.Context, user User, excludingID string) (int, error) {
	all, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("load requests: %w", err)
	}
	return m.Balance.AvailableVacationDaysForRequests(all, user, excludingID), nil
}

// Summary returns every balance figure for user.
func (m *Manager) Summary(ctx context.Context, user User) (BalanceSummary, error) {
	all, err := m.Requests.LoadRequests(ctx)
	if err != nil {
		return BalanceSummary{}, fmt.Errorf("load requests: %w", err)
	}
	return m.Balance.Summary(all, user), nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// validate runs the balance (vacation only) and overlap checks for r against
// existing, ignoring r's own stored version.
func (m *Manager) validate(existing []LeaveRequest, r LeaveRequest) error {
	if r.Type == TypeVacation {
		if err := m.checkBalance(existing, r.User, m.Balance.RequestDays(r), r.ID); err != nil {
			return err
		}
	}
	if conflict := FindOverlap(existing, r.User.ID, r.StartDate, r.EndDate, r.Type, r.ID); conflict != nil {
		return overlapError(r.Type, r.StartDate, r.EndDate, conflict)
	}
	return nil
}

func (m *Manager) checkBalance(existing []LeaveRequest, user User, requested int, excludingID string) error {
	available := m.Balance.AvailableVacationDaysForRequests(existing, user, excludingID)
	if requested > available {
		return &InsufficientBalanceError{UserID: user.ID, Requested: requested, Available: available}
	}
	return nil
}

func validateRange(leaveType LeaveType, start, end generic.TimePoint) error {
	if !leaveType.Valid() {
		return invalid("unknown leave type %q", leaveType)
	}
	if start.IsZero() || end.IsZero() {
		return invalid("start and end date are required")
	}
	if end.Before(start) {
		return invalid("end date %s is before start date %s", end, start)
	}
	if generic.NewPeriod(start, end).Len() > generic.MaxPeriodDays {
		return invalid("a request may span at most %d days", generic.MaxPeriodDays)
	}
	return nil
}

// snapshotOf is the copy of u embedded in requests; credentials stay out.
func snapshotOf(u User) User {
	u.PINHash = ""
	return u
}

func indexOf(requests []LeaveRequest, id string) int {
	for i := range requests {
		if requests[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) succeed(op string, t LeaveType) {
	metrics.RequestOperationsTotal.WithLabelValues(op, string(t), "ok").Inc()
}

// fail records the failure and returns err unchanged.
func (m *Manager) fail(op string, t LeaveType, err error) error {
	kind := Kind(err)
	metrics.RequestOperationsTotal.WithLabelValues(op, string(t), kind).Inc()
	if kind == "internal" {
		m.Logger.Error().Err(err).Str("op", op).Msg("leave request operation failed")
	} else {
		m.Logger.Debug().Err(err).Str("op", op).Str("kind", kind).Msg("leave request rejected")
	}
	return err
}
