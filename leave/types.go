// Package leave implements leave-request validation, balance accounting and
// the request lifecycle for a single organization.
//
// The package is built on the calendar primitives in generic and a
// HolidayCalendar (normally holiday.German). Persistence is abstracted behind
// load-all / replace-all stores so the same services run against memory,
// SQLite or MongoDB.
package leave

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/leave-planner/generic"
)

// =============================================================================
// USERS
// =============================================================================

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleExpert   Role = "expert"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleExpert:
		return true
	}
	return false
}

// User is an employee record. PINHash holds the bcrypt hash of the login PIN.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Role            Role   `json:"role"`
	PINHash         string `json:"-"`
	Color           string `json:"color,omitempty"`
	AnnualLeaveDays int    `json:"annual_leave_days"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type LeaveType string

const (
	TypeVacation LeaveType = "vacation"
	TypeSick     LeaveType = "sick"
)

func (t LeaveType) Valid() bool {
	return t == TypeVacation || t == TypeSick
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// LeaveRequest is a vacation or sick-leave entry. User is a snapshot of the
// requesting user taken at creation and refreshed by Manager.ResyncUser.
type LeaveRequest struct {
	ID        string            `json:"id"`
	User      User              `json:"user"`
	StartDate generic.TimePoint `json:"start_date"`
	EndDate   generic.TimePoint `json:"end_date"`
	Type      LeaveType         `json:"type"`
	Reason    string            `json:"reason,omitempty"`
	Status    Status            `json:"status"`

	CreatedAt       time.Time  `json:"created_at"`
	CreatedByUserID string     `json:"created_by_user_id"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	UpdatedByUserID string     `json:"updated_by_user_id,omitempty"`
}

// Period is the request's inclusive day range.
func (r LeaveRequest) Period() generic.Period {
	return generic.NewPeriod(r.StartDate, r.EndDate)
}

// Counts reports whether the request participates in overlap and balance
// calculations. Rejected requests never do.
func (r LeaveRequest) Counts() bool {
	return r.Status != StatusRejected
}

// =============================================================================
// TASKS
// =============================================================================

type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	return s == TaskOpen || s == TaskDone
}

// Task is a work item assigned to a user. It shares the persistence pattern
// of leave requests but carries no validation rules of its own.
type Task struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Details         string             `json:"details,omitempty"`
	DueDate         *generic.TimePoint `json:"due_date,omitempty"`
	Status          TaskStatus         `json:"status"`
	AssignedUserID  string             `json:"assigned_user_id"`
	CreatedByUserID string             `json:"created_by_user_id"`
	CreatedAt       time.Time          `json:"created_at"`
}

// =============================================================================
// HELPERS
// =============================================================================

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}
