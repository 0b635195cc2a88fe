/*
scenarios.go - Demo scenario loaders for development and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the stores with realistic data.
  Each scenario creates employees, leave requests and tasks through the
  regular services, so every demo record passed the same balance and overlap
  checks as a real one.

AVAILABLE SCENARIOS:
  team-calendar:   Three employees sharing the June calendar
  tight-budget:    Employee with 5 days whose balance is fully reserved
  holiday-season:  Christmas-week vacation across the public holidays

HOW SCENARIOS WORK:
  1. Reset: drop all requests and tasks, keep only the acting admin
  2. Create employees via UserService
  3. Create requests via Manager (admin on behalf)
  4. Optionally add tasks

  Dates are placed in the current year so the calendar view shows them.

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/load  {"scenario_id": "team-calendar"}

NOTE:
  Scenarios wipe data. The routes answer 404 unless Handler.DemoEnabled is
  set, which cmd/server only does in development.

SEE ALSO:
  - handlers.go: Handler fields used here
  - leave/request.go: Manager.Create
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "team-calendar",
		Name:        "Team Calendar",
		Description: "Approved and pending vacation in the same June week plus a sick note",
	},
	{
		ID:          "tight-budget",
		Name:        "Tight Budget",
		Description: "5-day entitlement, 3 approved and 2 pending: nothing left to request",
	},
	{
		ID:          "holiday-season",
		Name:        "Holiday Season",
		Description: "Christmas-week vacation; public holidays cost no vacation days",
	},
}

var scenarioLoaders = map[string]func(h *Handler, ctx context.Context, actor *leave.User, year int) error{
	"team-calendar":  (*Handler).loadTeamCalendarScenario,
	"tight-budget":   (*Handler).loadTightBudgetScenario,
	"holiday-season": (*Handler).loadHolidaySeasonScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	if !h.DemoEnabled {
		writeDemoDisabled(w)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the data and loads a predefined scenario. Admin only.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if !h.DemoEnabled {
		writeDemoDisabled(w)
		return
	}
	actor := actorFrom(r)
	if !actor.IsAdmin() {
		h.writeLeaveError(w, r, leave.ErrForbidden)
		return
	}

	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		h.writeLeaveError(w, r, fmt.Errorf("%w: unknown scenario %q", leave.ErrInvalidRequest, req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.resetForScenario(ctx, *actor); err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	if err := load(h, ctx, actor, h.now().Year()); err != nil {
		h.writeLeaveError(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}

	h.Logger.Info().Str("scenario", req.ScenarioID).Str("actor_id", actor.ID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// resetForScenario clears requests and tasks and keeps only keep as user.
func (h *Handler) resetForScenario(ctx context.Context, keep leave.User) error {
	if err := h.Requests.Requests.ReplaceRequests(ctx, nil); err != nil {
		return fmt.Errorf("reset requests: %w", err)
	}
	if err := h.Tasks.Tasks.ReplaceTasks(ctx, nil); err != nil {
		return fmt.Errorf("reset tasks: %w", err)
	}
	if err := h.Users.Users.ReplaceUsers(ctx, []leave.User{keep}); err != nil {
		return fmt.Errorf("reset users: %w", err)
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadTeamCalendarScenario(ctx context.Context, actor *leave.User, year int) error {
	anna, err := h.createDemoUser(ctx, actor, "Anna Becker", leave.RoleEmployee, "#4f81bd", 30)
	if err != nil {
		return err
	}
	ben, err := h.createDemoUser(ctx, actor, "Ben Schulz", leave.RoleEmployee, "#c0504d", 28)
	if err != nil {
		return err
	}
	carla, err := h.createDemoUser(ctx, actor, "Carla Wagner", leave.RoleExpert, "#9bbb59", 30)
	if err != nil {
		return err
	}

	june := mondayOnOrAfter(generic.NewTimePoint(year, time.June, 1))
	if err := h.createDemoRequest(ctx, actor, anna, june, june.AddDays(4), leave.TypeVacation, "Sommerurlaub", true); err != nil {
		return err
	}
	if err := h.createDemoRequest(ctx, actor, ben, june.AddDays(2), june.AddDays(4), leave.TypeVacation, "Kurzurlaub", false); err != nil {
		return err
	}
	if err := h.createDemoRequest(ctx, actor, carla, june.AddDays(1), june.AddDays(2), leave.TypeSick, "", false); err != nil {
		return err
	}

	due := june.AddDays(-3)
	if _, err := h.Tasks.Create(ctx, leave.TaskInput{
		Title:          "Übergabe vor dem Urlaub",
		Details:        "Offene Vorgänge an Ben übergeben",
		DueDate:        &due,
		AssignedUserID: anna.ID,
	}, actor); err != nil {
		return err
	}
	return nil
}

func (h *Handler) loadTightBudgetScenario(ctx context.Context, actor *leave.User, year int) error {
	dana, err := h.createDemoUser(ctx, actor, "Dana Roth", leave.RoleEmployee, "#8064a2", 5)
	if err != nil {
		return err
	}

	march := mondayOnOrAfter(generic.NewTimePoint(year, time.March, 1))
	if err := h.createDemoRequest(ctx, actor, dana, march, march.AddDays(2), leave.TypeVacation, "", true); err != nil {
		return err
	}
	next := march.AddDays(7)
	return h.createDemoRequest(ctx, actor, dana, next, next.AddDays(1), leave.TypeVacation, "", false)
}

func (h *Handler) loadHolidaySeasonScenario(ctx context.Context, actor *leave.User, year int) error {
	emil, err := h.createDemoUser(ctx, actor, "Emil Hoffmann", leave.RoleEmployee, "#f79646", 30)
	if err != nil {
		return err
	}
	return h.createDemoRequest(ctx, actor, emil,
		generic.NewTimePoint(year, time.December, 22),
		generic.NewTimePoint(year, time.December, 31),
		leave.TypeVacation, "Weihnachten", true)
}

// =============================================================================
// HELPERS
// =============================================================================

// demoPIN is shared by all demo users.
const demoPIN = "0000"

func (h *Handler) createDemoUser(ctx context.Context, actor *leave.User, name string, role leave.Role, color string, days int) (*leave.User, error) {
	return h.Users.Create(ctx, leave.UserInput{
		Name:            name,
		Role:            role,
		PIN:             demoPIN,
		Color:           color,
		AnnualLeaveDays: days,
	}, actor)
}

func (h *Handler) createDemoRequest(ctx context.Context, actor, target *leave.User, start, end generic.TimePoint, typ leave.LeaveType, reason string, approve bool) error {
	_, err := h.Requests.Create(ctx, leave.CreateInput{
		Start:              start,
		End:                end,
		Type:               typ,
		Reason:             reason,
		Target:             target,
		Actor:              actor,
		ApproveImmediately: approve,
	})
	return err
}

func writeDemoDisabled(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, ErrorResponse{Error: "demo scenarios are disabled", Kind: "not_found"})
}

func mondayOnOrAfter(d generic.TimePoint) generic.TimePoint {
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d
}
