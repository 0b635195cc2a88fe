/*
store.go - Persistence contract for users, leave requests and tasks

PURPOSE:
  The engine works on whole collections: load everything, decide, then write
  the full collection back (write-through after every mutation). Each
  collection has its own get/set pair so stores can be swapped per entity.

IMPLEMENTATIONS:
  - leave/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite (default)
  - store/mongo/mongo.go:   MongoDB

SCHEMA EVOLUTION:
  Records written by older versions may lack audit fields. Stores pass what
  they read through NormalizeLoaded, which fills the gaps.
*/
package leave

import (
	"context"
	"time"
)

// UserStore persists the user collection.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]User, error)
	ReplaceUsers(ctx context.Context, users []User) error
}

// RequestStore persists the leave-request collection.
type RequestStore interface {
	LoadRequests(ctx context.Context) ([]LeaveRequest, error)
	ReplaceRequests(ctx context.Context, requests []LeaveRequest) error
}

// TaskStore persists the task collection.
type TaskStore interface {
	LoadTasks(ctx context.Context) ([]Task, error)
	ReplaceTasks(ctx context.Context, tasks []Task) error
}

// Store bundles all three collections; every implementation in this repo
// satisfies it.
type Store interface {
	UserStore
	RequestStore
	TaskStore
}

// NormalizeLoaded fills audit fields missing from stored requests: a missing
// creation time becomes now, a missing creator becomes the request's own user,
// and an empty status defaults by type (sick is always approved).
func NormalizeLoaded(requests []LeaveRequest, now time.Time) []LeaveRequest {
	for i := range requests {
		r := &requests[i]
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.CreatedByUserID == "" {
			r.CreatedByUserID = r.User.ID
		}
		if r.Status == "" {
			if r.Type == TypeSick {
				r.Status = StatusApproved
			} else {
				r.Status = StatusPending
			}
		}
	}
	return requests
}

// NormalizeLoadedTasks is NormalizeLoaded for tasks.
func NormalizeLoadedTasks(tasks []Task, now time.Time) []Task {
	for i := range tasks {
		t := &tasks[i]
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.Status == "" {
			t.Status = TaskOpen
		}
	}
	return tasks
}
