/*
handlers.go - HTTP request handlers for the leave planner API

PURPOSE:
  Implements all HTTP endpoint handlers. Each handler:
  1. Decodes and validates the request (dto.go, validator.go)
  2. Calls the leave services with the acting user from the context
  3. Returns a JSON response, or a localized error via writeLeaveError

  Business rules live in package leave. Handlers never re-check balances,
  overlaps or permissions themselves; they only map results to HTTP.

HANDLER ORGANIZATION:
  - Auth:     Login, Me
  - Calendar: ListHolidays, AddClosure, RemoveClosure, CountWorkingDays
  - Users:    ListUsers, GetUser, CreateUser, UpdateUser, DeleteUser, GetBalance
  - Requests: ListRequests, GetRequest, CreateRequest, UpdateRequest,
              UpdateRequestStatus, DeleteRequest
  - Tasks:    ListTasks, CreateTask, UpdateTaskStatus, DeleteTask
  - Health
  - Scenarios live in scenarios.go

ERROR HANDLING:
  Errors are mapped by leave.Kind:
  - invalid_input                   -> 400
  - no_active_user, invalid_credentials -> 401
  - forbidden                       -> 403
  - not_found                       -> 404
  - insufficient_balance, overlap   -> 422
  - internal                        -> 500 (details logged, never returned)

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/warp/leave-planner/auth"
	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/holiday"
	"github.com/warp/leave-planner/i18n"
	"github.com/warp/leave-planner/leave"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Requests *leave.Manager
	Users    *leave.UserService
	Tasks    *leave.TaskService
	Calendar *holiday.German
	Closures holiday.ClosureStore
	Tokens   *auth.Issuer
	Logger   zerolog.Logger

	// Ping reports store health; nil means always healthy.
	Ping func(ctx context.Context) error
	Now  func() time.Time

	// DemoEnabled exposes the scenario loader (scenarios.go).
	DemoEnabled bool
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// =============================================================================
// AUTH
// =============================================================================

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.UserID, req.PIN)
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	token, expires, err := h.Tokens.Issue(*user)
	if err != nil {
		h.writeLeaveError(w, r, fmt.Errorf("issue token: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires, User: *user})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actorFrom(r))
}

// =============================================================================
// CALENDAR
// =============================================================================

// ListHolidays returns public holidays and closure days of ?year (default:
// current year), sorted by date.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1583 || y > 9999 {
			h.writeLeaveError(w, r, fmt.Errorf("%w: year %q", leave.ErrInvalidRequest, s))
			return
		}
		year = y
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(h.Calendar.HolidaysInYear(year)))
}

// AddClosure declares a company closure day. Admin only.
func (h *Handler) AddClosure(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).IsAdmin() {
		h.writeLeaveError(w, r, leave.ErrForbidden)
		return
	}
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Calendar.AddClosure(r.Context(), h.Closures, req.Date, req.Name); err != nil {
		if errors.Is(err, holiday.ErrInvalidClosure) {
			err = fmt.Errorf("%w: %v", leave.ErrInvalidRequest, err)
		}
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: req.Date.String(), Name: req.Name, Custom: true})
}

// RemoveClosure deletes a closure day. Public holidays cannot be removed.
func (h *Handler) RemoveClosure(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).IsAdmin() {
		h.writeLeaveError(w, r, leave.ErrForbidden)
		return
	}
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeLeaveError(w, r, fmt.Errorf("%w: %v", leave.ErrInvalidRequest, err))
		return
	}

	if err := h.Calendar.RemoveClosure(r.Context(), h.Closures, date); err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountWorkingDays answers ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) CountWorkingDays(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WorkingDaysResponse{
		Start:       start.String(),
		End:         end.String(),
		WorkingDays: generic.WorkingDays(h.Calendar, start, end),
	})
}

// =============================================================================
// USERS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Users.Create(r.Context(), leave.UserInput{
		Name:            req.Name,
		Role:            leave.Role(req.Role),
		PIN:             req.PIN,
		Color:           req.Color,
		AnnualLeaveDays: req.AnnualLeaveDays,
	}, actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{Message: i18n.T(r.Context(), "user.created"), User: user})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Users.Update(r.Context(), chi.URLParam(r, "id"), leave.UserInput{
		Name:            req.Name,
		Role:            leave.Role(req.Role),
		PIN:             req.PIN,
		Color:           req.Color,
		AnnualLeaveDays: req.AnnualLeaveDays,
	}, actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Message: i18n.T(r.Context(), "user.updated"), User: user})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Message: i18n.T(r.Context(), "user.deleted")})
}

// GetBalance returns the balance summary. Users see their own; admins see anyone's.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := actorFrom(r)
	if actor.ID != id && !actor.IsAdmin() {
		h.writeLeaveError(w, r, leave.ErrForbidden)
		return
	}

	user, err := h.Users.Get(r.Context(), id)
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	summary, err := h.Requests.Summary(r.Context(), *user)
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// ListRequests supports ?user_id, ?status, ?type and either a ?from/?to
// window or a whole ?year.
// The calendar is shared, so every user sees every request.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := leave.Filter{
		UserID: q.Get("user_id"),
		Status: leave.Status(q.Get("status")),
		Type:   leave.LeaveType(q.Get("type")),
	}
	if f.Status != "" && !f.Status.Valid() {
		h.writeLeaveError(w, r, fmt.Errorf("%w: unknown status %q", leave.ErrInvalidRequest, f.Status))
		return
	}
	if f.Type != "" && !f.Type.Valid() {
		h.writeLeaveError(w, r, fmt.Errorf("%w: unknown type %q", leave.ErrInvalidRequest, f.Type))
		return
	}
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			h.writeLeaveError(w, r, fmt.Errorf("%w: year %q", leave.ErrInvalidRequest, s))
			return
		}
		window := generic.CalendarYear(y)
		f.Window = &window
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		start, end, err := parseRange(q.Get("from"), q.Get("to"))
		if err != nil {
			h.writeLeaveError(w, r, err)
			return
		}
		window := generic.NewPeriod(start, end)
		f.Window = &window
	}

	requests, err := h.Requests.List(r.Context(), f)
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveListResponse{Requests: requests})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Requests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// CreateRequest submits a request for the actor, or for user_id when the
// actor is an admin.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor := actorFrom(r)
	target := actor
	if req.UserID != "" && req.UserID != actor.ID {
		user, err := h.Users.Get(r.Context(), req.UserID)
		if err != nil {
			h.writeLeaveError(w, r, err)
			return
		}
		target = user
	}

	out, err := h.Requests.Create(r.Context(), leave.CreateInput{
		Start:              req.StartDate,
		End:                req.EndDate,
		Type:               leave.LeaveType(req.Type),
		Reason:             req.Reason,
		Target:             target,
		Actor:              actor,
		ApproveImmediately: req.ApproveImmediately,
	})
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, LeaveResponse{Message: out.Message, Request: out.Request})
}

func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.Requests.Update(r.Context(), leave.LeaveRequest{
		ID:        chi.URLParam(r, "id"),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Type:      leave.LeaveType(req.Type),
		Reason:    req.Reason,
		Status:    leave.Status(req.Status),
	}, actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveResponse{Message: out.Message, Request: out.Request})
}

func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.Requests.UpdateStatus(r.Context(), chi.URLParam(r, "id"), leave.Status(req.Status), actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveResponse{Message: out.Message, Request: out.Request})
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	out, err := h.Requests.Delete(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LeaveResponse{Message: out.Message, Request: out.Request})
}

// =============================================================================
// TASKS
// =============================================================================

// ListTasks supports ?assigned_to=<user id>.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context(), r.URL.Query().Get("assigned_to"))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.Tasks.Create(r.Context(), leave.TaskInput{
		Title:          req.Title,
		Details:        req.Details,
		DueDate:        req.DueDate,
		AssignedUserID: req.AssignedUserID,
	}, actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TaskResponse{Message: i18n.T(r.Context(), "task.created"), Task: task})
}

func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req TaskStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.Tasks.SetStatus(r.Context(), chi.URLParam(r, "id"), leave.TaskStatus(req.Status), actorFrom(r))
	if err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskResponse{Message: i18n.T(r.Context(), "task.updated"), Task: task})
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		h.writeLeaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskResponse{Message: i18n.T(r.Context(), "task.deleted")})
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			h.Logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads and validates a JSON body. On failure it writes the 400
// response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeLeaveError(w, r, fmt.Errorf("%w: malformed JSON body: %v", leave.ErrInvalidRequest, err))
		return false
	}
	if err := validateBody(dst); err != nil {
		h.writeLeaveError(w, r, err)
		return false
	}
	return true
}

func parseRange(startStr, endStr string) (generic.TimePoint, generic.TimePoint, error) {
	start, err := generic.ParseDate(startStr)
	if err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, fmt.Errorf("%w: start: %v", leave.ErrInvalidRequest, err)
	}
	end, err := generic.ParseDate(endStr)
	if err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, fmt.Errorf("%w: end: %v", leave.ErrInvalidRequest, err)
	}
	if err := generic.ValidatePeriod(generic.NewPeriod(start, end)); err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, fmt.Errorf("%w: %v", leave.ErrInvalidRequest, err)
	}
	return start, end, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	writeJSON(w, status, body)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind string) int {
	switch kind {
	case "invalid_input":
		return http.StatusBadRequest
	case "no_active_user", "invalid_credentials":
		return http.StatusUnauthorized
	case "forbidden":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "too_many_attempts":
		return http.StatusTooManyRequests
	case "insufficient_balance", "overlap":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeLeaveError renders err with its localized message. Internal errors
// are logged and replaced by a generic text.
func (h *Handler) writeLeaveError(w http.ResponseWriter, r *http.Request, err error) {
	kind := leave.Kind(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		h.Logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeError(w, status, ErrorResponse{Error: leave.Describe(r.Context(), err), Kind: kind})
}
