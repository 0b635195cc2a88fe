package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/holiday"
	"github.com/warp/leave-planner/leave"
	"github.com/warp/leave-planner/leave/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2025, time.May, 15, 9, 0, 0, 0, time.UTC)

func day(s string) generic.TimePoint {
	return generic.MustParseDate(s)
}

func newManager(t *testing.T) (*leave.Manager, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	m := leave.NewManager(mem, holiday.NewGerman(), zerolog.Nop())
	m.Now = func() time.Time { return fixedNow }
	return m, mem
}

func employee(id string, annual int) *leave.User {
	return &leave.User{ID: id, Name: "Employee " + id, Role: leave.RoleEmployee, AnnualLeaveDays: annual}
}

func admin() *leave.User {
	return &leave.User{ID: "admin", Name: "Chefin", Role: leave.RoleAdmin, AnnualLeaveDays: 30}
}

func mustCreate(t *testing.T, m *leave.Manager, start, end string, typ leave.LeaveType, user *leave.User) leave.LeaveRequest {
	t.Helper()
	out, err := m.CreateForSelf(context.Background(), day(start), day(end), typ, "", user)
	require.NoError(t, err)
	require.NotNil(t, out.Request)
	return *out.Request
}

func available(t *testing.T, m *leave.Manager, user *leave.User) int {
	t.Helper()
	n, err := m.AvailableVacationDaysForRequests(context.Background(), *user, "")
	require.NoError(t, err)
	return n
}

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestManager_JuneScenario(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("anna", 30)
	boss := admin()

	// GIVEN: no existing requests
	// WHEN: Anna requests Mon 2025-06-02 to Fri 2025-06-06
	first, err := m.CreateForSelf(ctx, day("2025-06-02"), day("2025-06-06"), leave.TypeVacation, "Sommer", user)

	// THEN: pending, 5 working days, 25 available afterwards
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, first.Request.Status)
	assert.Equal(t, 5, m.Balance.RequestDays(*first.Request))
	assert.Equal(t, 25, available(t, m, user))
	assert.Equal(t, "Urlaubsantrag wurde eingereicht und wartet auf Genehmigung.", first.Message)

	// WHEN: she reports sick on a day inside the pending vacation
	sick, err := m.CreateForSelf(ctx, day("2025-06-03"), day("2025-06-03"), leave.TypeSick, "", user)

	// THEN: cross-type overlap is allowed and sick leave is approved at once
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, sick.Request.Status)
	assert.Equal(t, 25, available(t, m, user), "sick leave never touches the balance")

	// WHEN: she requests vacation inside the first range
	_, err = m.CreateForSelf(ctx, day("2025-06-05"), day("2025-06-05"), leave.TypeVacation, "", user)

	// THEN: same-type overlap blocks
	require.ErrorIs(t, err, leave.ErrOverlappingRequest)
	var overlapErr *leave.OverlapError
	require.True(t, errors.As(err, &overlapErr))
	assert.Equal(t, first.Request.ID, overlapErr.ExistingID)

	// WHEN: the admin rejects the first request
	rejected, err := m.UpdateStatus(ctx, first.Request.ID, leave.StatusRejected, boss)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Request.Status)
	assert.Equal(t, "admin", rejected.Request.UpdatedByUserID)

	// THEN: the same single day now succeeds
	retry, err := m.CreateForSelf(ctx, day("2025-06-05"), day("2025-06-05"), leave.TypeVacation, "", user)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, retry.Request.Status)
	assert.Equal(t, 29, available(t, m, user))
}

func TestManager_ChristmasWorkingDays(t *testing.T) {
	m, _ := newManager(t)

	// Wed 24th is a working day, 25th and 26th are holidays
	assert.Equal(t, 1, m.Balance.WorkingDays(day("2025-12-24"), day("2025-12-26")))
}

// =============================================================================
// BALANCE GATE
// =============================================================================

func TestManager_BalanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("ben", 5)

	// GIVEN: 5 days available
	require.Equal(t, 5, available(t, m, user))

	// WHEN: one working day more than available is requested (Mon 16th to Mon 23rd)
	_, err := m.CreateForSelf(ctx, day("2025-06-16"), day("2025-06-23"), leave.TypeVacation, "", user)

	// THEN: rejected with both numbers
	require.ErrorIs(t, err, leave.ErrInsufficientBalance)
	var balanceErr *leave.InsufficientBalanceError
	require.True(t, errors.As(err, &balanceErr))
	assert.Equal(t, 6, balanceErr.Requested)
	assert.Equal(t, 5, balanceErr.Available)
	assert.Equal(t, "Nicht genügend Urlaubstage: 6 beantragt, aber nur 5 verfügbar.", leave.Describe(ctx, err))

	// WHEN: exactly the available days are requested
	_, err = m.CreateForSelf(ctx, day("2025-06-16"), day("2025-06-20"), leave.TypeVacation, "", user)

	// THEN: accepted, nothing left
	require.NoError(t, err)
	assert.Equal(t, 0, available(t, m, user))
}

func TestManager_PendingRequestsReserveDays(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("clara", 8)

	mustCreate(t, m, "2025-07-07", "2025-07-11", leave.TypeVacation, user)

	// Two pending requests cannot jointly exceed the entitlement
	_, err := m.CreateForSelf(ctx, day("2025-07-14"), day("2025-07-17"), leave.TypeVacation, "", user)
	require.ErrorIs(t, err, leave.ErrInsufficientBalance)

	used, err := m.UsedVacationDays(ctx, *user)
	require.NoError(t, err)
	assert.Equal(t, 0, used, "pending days are not used")

	remaining, err := m.RemainingLeaveDays(ctx, *user)
	require.NoError(t, err)
	assert.Equal(t, 8, remaining)
	assert.Equal(t, 3, available(t, m, user))
}

func TestManager_SickLeaveIgnoresBalance(t *testing.T) {
	m, _ := newManager(t)
	user := employee("dora", 0)

	r := mustCreate(t, m, "2025-03-03", "2025-03-14", leave.TypeSick, user)

	assert.Equal(t, leave.StatusApproved, r.Status)
}

func TestManager_LifecycleNeverExceedsEntitlement(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("emil", 10)
	boss := admin()

	// GIVEN: three requests that individually fit
	a := mustCreate(t, m, "2025-08-04", "2025-08-08", leave.TypeVacation, user) // 5
	b := mustCreate(t, m, "2025-08-11", "2025-08-13", leave.TypeVacation, user) // 3
	_, err := m.CreateForSelf(ctx, day("2025-08-18"), day("2025-08-20"), leave.TypeVacation, "", user)
	require.ErrorIs(t, err, leave.ErrInsufficientBalance, "3 more days do not fit into the remaining 2")

	// WHEN: b is rejected, freeing 3 days that a new request takes
	_, err = m.UpdateStatus(ctx, b.ID, leave.StatusRejected, boss)
	require.NoError(t, err)
	c := mustCreate(t, m, "2025-08-18", "2025-08-20", leave.TypeVacation, user)

	// AND: the admin tries to bring b back
	_, err = m.UpdateStatus(ctx, b.ID, leave.StatusPending, boss)

	// THEN: reactivation must fit into what is available now
	require.ErrorIs(t, err, leave.ErrInsufficientBalance)

	// WHEN: everything still active is approved
	for _, id := range []string{a.ID, c.ID} {
		_, err := m.UpdateStatus(ctx, id, leave.StatusApproved, boss)
		require.NoError(t, err)
	}

	// THEN: approved usage stays within the entitlement
	used, err := m.UsedVacationDays(ctx, *user)
	require.NoError(t, err)
	assert.Equal(t, 8, used)
	assert.LessOrEqual(t, used, user.AnnualLeaveDays)

	summary, err := m.Summary(ctx, *user)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Remaining)
	assert.Equal(t, "80", summary.Utilization.String())
}

func TestManager_ApprovedToPendingSkipsRecheck(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("fynn", 5)
	boss := admin()

	r := mustCreate(t, m, "2025-09-01", "2025-09-05", leave.TypeVacation, user)
	_, err := m.UpdateStatus(ctx, r.ID, leave.StatusApproved, boss)
	require.NoError(t, err)

	// Reset keeps the reservation, so no balance check applies
	out, err := m.UpdateStatus(ctx, r.ID, leave.StatusPending, boss)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, out.Request.Status)
	assert.Equal(t, "Antrag wurde auf \"offen\" zurückgesetzt.", out.Message)
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestManager_RejectedNeverBlocks(t *testing.T) {
	ctx := context.Background()
	m, mem := newManager(t)
	user := employee("greta", 30)

	// GIVEN: a rejected vacation covering the whole of October
	require.NoError(t, mem.ReplaceRequests(ctx, []leave.LeaveRequest{{
		ID:        "old",
		User:      *user,
		StartDate: day("2025-10-01"),
		EndDate:   day("2025-10-31"),
		Type:      leave.TypeVacation,
		Status:    leave.StatusRejected,
	}}))

	// WHEN/THEN: a request fully inside it succeeds
	mustCreate(t, m, "2025-10-13", "2025-10-17", leave.TypeVacation, user)
}

func TestManager_SickOverlapMessages(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("hans", 30)
	mustCreate(t, m, "2025-02-10", "2025-02-12", leave.TypeSick, user)

	_, err := m.CreateForSelf(ctx, day("2025-02-11"), day("2025-02-11"), leave.TypeSick, "", user)
	require.ErrorIs(t, err, leave.ErrOverlappingRequest)
	assert.Equal(t, "Für diesen Tag ist bereits eine Krankmeldung eingetragen.", leave.Describe(ctx, err))

	_, err = m.CreateForSelf(ctx, day("2025-02-12"), day("2025-02-14"), leave.TypeSick, "", user)
	require.ErrorIs(t, err, leave.ErrOverlappingRequest)
	assert.Equal(t, "Im gewählten Zeitraum ist bereits eine Krankmeldung eingetragen.", leave.Describe(ctx, err))
}

func TestManager_OverlapIsPerUser(t *testing.T) {
	m, _ := newManager(t)

	mustCreate(t, m, "2025-06-02", "2025-06-06", leave.TypeVacation, employee("ida", 30))
	mustCreate(t, m, "2025-06-02", "2025-06-06", leave.TypeVacation, employee("jan", 30))
}

// =============================================================================
// CREATE ON BEHALF
// =============================================================================

func TestManager_AdminApprovesImmediately(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	target := employee("karl", 30)

	out, err := m.Create(ctx, leave.CreateInput{
		Start:              day("2025-04-07"),
		End:                day("2025-04-11"),
		Type:               leave.TypeVacation,
		Target:             target,
		Actor:              admin(),
		ApproveImmediately: true,
	})

	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, out.Request.Status)
	assert.Equal(t, "admin", out.Request.CreatedByUserID)
	assert.Equal(t, "karl", out.Request.User.ID)
	assert.Equal(t, fixedNow, out.Request.CreatedAt)
	assert.Equal(t, "Urlaub wurde eingetragen und genehmigt.", out.Message)
}

func TestManager_AdminOnBehalfStillChecked(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, err := m.Create(ctx, leave.CreateInput{
		Start:              day("2025-04-07"),
		End:                day("2025-04-11"),
		Type:               leave.TypeVacation,
		Target:             employee("lena", 2),
		Actor:              admin(),
		ApproveImmediately: true,
	})

	require.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestManager_EmployeeCannotSelfApprove(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("mia", 30)

	out, err := m.Create(ctx, leave.CreateInput{
		Start:              day("2025-04-07"),
		End:                day("2025-04-07"),
		Type:               leave.TypeVacation,
		Target:             user,
		Actor:              user,
		ApproveImmediately: true,
	})

	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, out.Request.Status)
}

func TestManager_CreateActorRules(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	base := leave.CreateInput{Start: day("2025-04-07"), End: day("2025-04-07"), Type: leave.TypeVacation}

	t.Run("no actor and no target", func(t *testing.T) {
		_, err := m.Create(ctx, base)
		assert.ErrorIs(t, err, leave.ErrNoActiveUser)
	})

	t.Run("missing actor falls back to target", func(t *testing.T) {
		in := base
		in.Target = employee("nina", 30)
		out, err := m.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "nina", out.Request.CreatedByUserID)
	})

	t.Run("employee for someone else", func(t *testing.T) {
		in := base
		in.Target = employee("olaf", 30)
		in.Actor = employee("paul", 30)
		_, err := m.Create(ctx, in)
		assert.ErrorIs(t, err, leave.ErrForbidden)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := m.CreateForSelf(ctx, day("2025-04-08"), day("2025-04-07"), leave.TypeVacation, "", employee("quinn", 30))
		assert.ErrorIs(t, err, leave.ErrInvalidRequest)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := m.CreateForSelf(ctx, day("2025-04-07"), day("2025-04-07"), "parental", "", employee("rosa", 30))
		assert.ErrorIs(t, err, leave.ErrInvalidRequest)
	})

	t.Run("sick leave spanning millennia", func(t *testing.T) {
		_, err := m.CreateForSelf(ctx, day("0002-01-01"), day("9999-12-31"), leave.TypeSick, "", employee("sara", 30))
		assert.ErrorIs(t, err, leave.ErrInvalidRequest)
	})

	t.Run("one day longer than a leap year", func(t *testing.T) {
		_, err := m.CreateForSelf(ctx, day("2024-01-01"), day("2025-01-01"), leave.TypeSick, "", employee("theo", 30))
		assert.ErrorIs(t, err, leave.ErrInvalidRequest)
	})

	t.Run("a full leap year of sick leave", func(t *testing.T) {
		out, err := m.CreateForSelf(ctx, day("2024-01-01"), day("2024-12-31"), leave.TypeSick, "", employee("ulla", 30))
		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, out.Request.Status)
	})
}

// =============================================================================
// UPDATE
// =============================================================================

func TestManager_UpdateExcludesOwnReservation(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("sven", 5)
	r := mustCreate(t, m, "2025-06-16", "2025-06-20", leave.TypeVacation, user)

	// GIVEN: the full entitlement is reserved by r
	// WHEN: r is moved by one week
	updated := r
	updated.StartDate = day("2025-06-23")
	updated.EndDate = day("2025-06-27")
	out, err := m.Update(ctx, updated, user)

	// THEN: its own prior hold does not count against it
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-23"), out.Request.StartDate)
	assert.Equal(t, fixedNow, out.Request.CreatedAt)
	assert.Equal(t, "sven", out.Request.CreatedByUserID)
	require.NotNil(t, out.Request.UpdatedAt)
	assert.Equal(t, "sven", out.Request.UpdatedByUserID)
	assert.Equal(t, 0, available(t, m, user))
}

func TestManager_UpdateFailuresLeaveStoreUntouched(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("tina", 5)
	r := mustCreate(t, m, "2025-06-16", "2025-06-20", leave.TypeVacation, user)
	mustCreate(t, m, "2025-01-06", "2025-01-06", leave.TypeSick, user)

	t.Run("too long", func(t *testing.T) {
		updated := r
		updated.EndDate = day("2025-06-23")
		_, err := m.Update(ctx, updated, user)
		assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	})

	t.Run("unknown id", func(t *testing.T) {
		updated := r
		updated.ID = "missing"
		_, err := m.Update(ctx, updated, user)
		assert.ErrorIs(t, err, leave.ErrRequestNotFound)
	})

	t.Run("no actor", func(t *testing.T) {
		_, err := m.Update(ctx, r, nil)
		assert.ErrorIs(t, err, leave.ErrNoActiveUser)
	})

	t.Run("range longer than a year", func(t *testing.T) {
		updated := r
		updated.Type = leave.TypeSick
		updated.EndDate = day("2027-06-20")
		_, err := m.Update(ctx, updated, user)
		assert.ErrorIs(t, err, leave.ErrInvalidRequest)
	})

	stored, err := m.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-20"), stored.EndDate)
	assert.Nil(t, stored.UpdatedAt)
}

func TestManager_UpdateOverlapChecks(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("uwe", 30)
	r := mustCreate(t, m, "2025-06-16", "2025-06-18", leave.TypeVacation, user)
	other := mustCreate(t, m, "2025-06-23", "2025-06-24", leave.TypeVacation, user)

	// GIVEN: r covers Mon..Wed
	// WHEN: r is extended to Thu, still overlapping its own old range
	extended := r
	extended.EndDate = day("2025-06-19")
	out, err := m.Update(ctx, extended, user)

	// THEN: r does not collide with itself
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-19"), out.Request.EndDate)

	// WHEN: r is moved onto the other pending vacation
	moved := *out.Request
	moved.StartDate = day("2025-06-24")
	moved.EndDate = day("2025-06-25")
	_, err = m.Update(ctx, moved, user)

	// THEN: the overlap is reported against the other request
	require.ErrorIs(t, err, leave.ErrOverlappingRequest)
	var overlap *leave.OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, other.ID, overlap.ExistingID)

	// AND: the store still holds the extended range
	stored, err := m.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-16"), stored.StartDate)
	assert.Equal(t, day("2025-06-19"), stored.EndDate)
}

func TestManager_OwnerSwitchesVacationToSick(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("vera", 10)
	r := mustCreate(t, m, "2025-06-16", "2025-06-20", leave.TypeVacation, user)
	require.Equal(t, 5, available(t, m, user))

	// GIVEN: a pending vacation owned by an employee
	// WHEN: the employee turns it into sick leave
	updated := r
	updated.Type = leave.TypeSick
	out, err := m.Update(ctx, updated, user)

	// THEN: it is approved like any sick filing and frees the reservation
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, out.Request.Status)
	assert.Equal(t, 10, available(t, m, user))

	// AND: the employee cannot edit it any more
	assert.False(t, leave.CanEditOrDelete(*out.Request, user))
}

func TestManager_UpdateStatusRules(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("uwe", 30)
	r := mustCreate(t, m, "2025-05-05", "2025-05-09", leave.TypeVacation, user)
	sick := mustCreate(t, m, "2025-05-12", "2025-05-12", leave.TypeSick, user)

	t.Run("employee cannot approve", func(t *testing.T) {
		_, err := m.UpdateStatus(ctx, r.ID, leave.StatusApproved, user)
		assert.ErrorIs(t, err, leave.ErrForbidden)
	})

	t.Run("sick leave stays approved", func(t *testing.T) {
		_, err := m.UpdateStatus(ctx, sick.ID, leave.StatusRejected, admin())
		assert.ErrorIs(t, err, leave.ErrInvalidRequest)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := m.UpdateStatus(ctx, "missing", leave.StatusApproved, admin())
		assert.ErrorIs(t, err, leave.ErrRequestNotFound)
	})

	t.Run("employee update cannot change status", func(t *testing.T) {
		updated := r
		updated.Status = leave.StatusApproved
		out, err := m.Update(ctx, updated, user)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPending, out.Request.Status)
	})
}

// =============================================================================
// PERMISSIONS AND DELETE
// =============================================================================

func TestCanEditOrDelete(t *testing.T) {
	owner := employee("vera", 30)
	r := leave.LeaveRequest{User: *owner, Type: leave.TypeVacation, Status: leave.StatusPending}

	tests := []struct {
		name    string
		request func() leave.LeaveRequest
		actor   *leave.User
		want    bool
	}{
		{"admin any", func() leave.LeaveRequest { x := r; x.Status = leave.StatusApproved; return x }, admin(), true},
		{"owner pending vacation", func() leave.LeaveRequest { return r }, owner, true},
		{"owner approved", func() leave.LeaveRequest { x := r; x.Status = leave.StatusApproved; return x }, owner, false},
		{"owner sick", func() leave.LeaveRequest { x := r; x.Type = leave.TypeSick; return x }, owner, false},
		{"other employee", func() leave.LeaveRequest { return r }, employee("wim", 30), false},
		{"nobody", func() leave.LeaveRequest { return r }, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leave.CanEditOrDelete(tt.request(), tt.actor))
		})
	}
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("xaver", 10)
	r := mustCreate(t, m, "2025-11-03", "2025-11-07", leave.TypeVacation, user)

	_, err := m.Delete(ctx, r.ID, employee("yvonne", 10))
	require.ErrorIs(t, err, leave.ErrForbidden)

	_, err = m.Delete(ctx, r.ID, nil)
	require.ErrorIs(t, err, leave.ErrNoActiveUser)

	out, err := m.Delete(ctx, r.ID, user)
	require.NoError(t, err)
	assert.Equal(t, "Antrag wurde gelöscht.", out.Message)
	assert.Equal(t, 10, available(t, m, user))

	_, err = m.Delete(ctx, r.ID, admin())
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestManager_FailedWriteDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	m, mem := newManager(t)
	user := employee("zoe", 30)
	r := mustCreate(t, m, "2025-06-02", "2025-06-06", leave.TypeVacation, user)

	// GIVEN: the store refuses writes
	mem.FailWrites(true)

	// WHEN: any mutation is attempted
	_, createErr := m.CreateForSelf(ctx, day("2025-07-01"), day("2025-07-01"), leave.TypeVacation, "", user)
	_, statusErr := m.UpdateStatus(ctx, r.ID, leave.StatusApproved, admin())
	_, deleteErr := m.Delete(ctx, r.ID, admin())

	// THEN: the store error surfaces and nothing changed
	assert.ErrorIs(t, createErr, store.ErrInjected)
	assert.ErrorIs(t, statusErr, store.ErrInjected)
	assert.ErrorIs(t, deleteErr, store.ErrInjected)
	assert.Equal(t, "internal", leave.Kind(createErr))

	all, err := m.List(ctx, leave.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, leave.StatusPending, all[0].Status)
}

func TestManager_LoadNormalizesLegacyRecords(t *testing.T) {
	ctx := context.Background()
	m, mem := newManager(t)
	user := employee("alt", 30)

	require.NoError(t, mem.ReplaceRequests(ctx, []leave.LeaveRequest{
		{ID: "v", User: *user, StartDate: day("2024-03-04"), EndDate: day("2024-03-04"), Type: leave.TypeVacation},
		{ID: "s", User: *user, StartDate: day("2024-03-05"), EndDate: day("2024-03-05"), Type: leave.TypeSick},
	}))

	all, err := m.List(ctx, leave.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, leave.StatusPending, all[0].Status)
	assert.Equal(t, leave.StatusApproved, all[1].Status)
	assert.Equal(t, "alt", all[0].CreatedByUserID)
	assert.False(t, all[0].CreatedAt.IsZero())
}

// =============================================================================
// USER SNAPSHOTS AND QUERIES
// =============================================================================

func TestManager_ResyncUser(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("bea", 30)
	mustCreate(t, m, "2025-06-02", "2025-06-03", leave.TypeVacation, user)
	mustCreate(t, m, "2025-06-10", "2025-06-10", leave.TypeSick, user)
	mustCreate(t, m, "2025-06-02", "2025-06-03", leave.TypeVacation, employee("carl", 30))

	renamed := *user
	renamed.Name = "Bea Neu"
	renamed.AnnualLeaveDays = 28

	n, err := m.ResyncUser(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mine, err := m.List(ctx, leave.Filter{UserID: "bea"})
	require.NoError(t, err)
	for _, r := range mine {
		assert.Equal(t, "Bea Neu", r.User.Name)
		assert.Equal(t, 28, r.User.AnnualLeaveDays)
	}
}

func TestManager_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	user := employee("dirk", 30)
	late := mustCreate(t, m, "2025-09-01", "2025-09-02", leave.TypeVacation, user)
	early := mustCreate(t, m, "2025-02-03", "2025-02-04", leave.TypeVacation, user)
	mustCreate(t, m, "2025-05-05", "2025-05-05", leave.TypeSick, user)

	all, err := m.List(ctx, leave.Filter{UserID: "dirk", Type: leave.TypeVacation})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, late.ID, all[1].ID)

	window := generic.NewPeriod(day("2025-05-01"), day("2025-08-31"))
	inWindow, err := m.List(ctx, leave.Filter{Window: &window})
	require.NoError(t, err)
	require.Len(t, inWindow, 1)
	assert.Equal(t, leave.TypeSick, inWindow[0].Type)

	approved, err := m.List(ctx, leave.Filter{Status: leave.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}
