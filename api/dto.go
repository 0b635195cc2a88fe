/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Request bodies carry
  go-playground/validator tags; validateBody in validator.go runs them before
  a handler touches the services.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

DATES:
  Calendar dates travel as "YYYY-MM-DD" strings and decode straight into
  generic.TimePoint. A missing date fails the "required" tag here; the zero
  day 0001-01-01 counts as missing. Inverted and overlong ranges are
  rejected by the services.

SEE ALSO:
  - handlers.go: Uses these types
  - validator.go: Tag validation
*/
package api

import (
	"time"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	UserID string `json:"user_id" validate:"required"`
	PIN    string `json:"pin"     validate:"required,numeric,min=4,max=8"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      leave.User `json:"user"`
}

// =============================================================================
// USERS
// =============================================================================

type CreateUserRequest struct {
	Name            string `json:"name"              validate:"required,max=100"`
	Role            string `json:"role"              validate:"required,oneof=admin employee expert"`
	PIN             string `json:"pin"               validate:"required,numeric,min=4,max=8"`
	Color           string `json:"color"             validate:"omitempty,hexcolor"`
	AnnualLeaveDays int    `json:"annual_leave_days" validate:"min=0,max=366"`
}

// UpdateUserRequest leaves the PIN unchanged when it is empty.
type UpdateUserRequest struct {
	Name            string `json:"name"              validate:"required,max=100"`
	Role            string `json:"role"              validate:"required,oneof=admin employee expert"`
	PIN             string `json:"pin"               validate:"omitempty,numeric,min=4,max=8"`
	Color           string `json:"color"             validate:"omitempty,hexcolor"`
	AnnualLeaveDays int    `json:"annual_leave_days" validate:"min=0,max=366"`
}

type UserResponse struct {
	Message string      `json:"message"`
	User    *leave.User `json:"user,omitempty"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// CreateLeaveRequest submits a request. UserID empty means "for myself".
type CreateLeaveRequest struct {
	UserID             string            `json:"user_id"`
	StartDate          generic.TimePoint `json:"start_date" validate:"required"`
	EndDate            generic.TimePoint `json:"end_date"   validate:"required"`
	Type               string            `json:"type"   validate:"required,oneof=vacation sick"`
	Reason             string            `json:"reason" validate:"max=500"`
	ApproveImmediately bool              `json:"approve_immediately"`
}

type UpdateLeaveRequest struct {
	StartDate generic.TimePoint `json:"start_date" validate:"required"`
	EndDate   generic.TimePoint `json:"end_date"   validate:"required"`
	Type      string            `json:"type"       validate:"required,oneof=vacation sick"`
	Reason    string            `json:"reason" validate:"max=500"`
	Status    string            `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type LeaveResponse struct {
	Message string              `json:"message"`
	Request *leave.LeaveRequest `json:"request,omitempty"`
}

type LeaveListResponse struct {
	Requests []leave.LeaveRequest `json:"requests"`
}

// =============================================================================
// CALENDAR
// =============================================================================

type HolidayDTO struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

type CreateHolidayRequest struct {
	Date generic.TimePoint `json:"date" validate:"required"`
	Name string            `json:"name" validate:"required,max=100"`
}

type WorkingDaysResponse struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	WorkingDays int    `json:"working_days"`
}

func toHolidayDTOs(holidays []generic.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, h := range holidays {
		dtos = append(dtos, HolidayDTO{Date: h.Date.String(), Name: h.Name, Custom: h.Custom})
	}
	return dtos
}

// =============================================================================
// TASKS
// =============================================================================

type CreateTaskRequest struct {
	Title          string             `json:"title"   validate:"required,max=200"`
	Details        string             `json:"details" validate:"max=2000"`
	DueDate        *generic.TimePoint `json:"due_date"`
	AssignedUserID string             `json:"assigned_user_id"`
}

type TaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open done"`
}

type TaskResponse struct {
	Message string      `json:"message"`
	Task    *leave.Task `json:"task,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every failed call. Kind is one of the
// leave.Kind strings.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}
