package leave

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/leave-planner/generic"
)

// TaskInput describes a new task.
type TaskInput struct {
	Title          string
	Details        string
	DueDate        *generic.TimePoint
	AssignedUserID string
}

// TaskService manages the task collection. Admins manage every task; other
// users only tasks assigned to or created by them.
type TaskService struct {
	Tasks  TaskStore
	Logger zerolog.Logger
	Now    func() time.Time

	mu sync.Mutex
}

func NewTaskService(tasks TaskStore, logger zerolog.Logger) *TaskService {
	return &TaskService{Tasks: tasks, Logger: logger, Now: time.Now}
}

// List returns tasks, optionally only those assigned to assignedUserID.
// Open tasks come first, then by due date (undated last).
func (s *TaskService) List(ctx context.Context, assignedUserID string) ([]Task, error) {
	all, err := s.Tasks.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	out := make([]Task, 0, len(all))
	for _, t := range all {
		if assignedUserID == "" || t.AssignedUserID == assignedUserID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status != b.Status {
			return a.Status == TaskOpen
		}
		switch {
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})
	return out, nil
}

// Create adds an open task. Non-admins may only assign tasks to themselves.
func (s *TaskService) Create(ctx context.Context, in TaskInput, actor *User) (*Task, error) {
	if actor == nil {
		return nil, ErrNoActiveUser
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title is required")
	}
	if in.AssignedUserID == "" {
		in.AssignedUserID = actor.ID
	}
	if !actor.IsAdmin() && in.AssignedUserID != actor.ID {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.Tasks.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	t := Task{
		ID:              NewID(),
		Title:           strings.TrimSpace(in.Title),
		Details:         in.Details,
		DueDate:         in.DueDate,
		Status:          TaskOpen,
		AssignedUserID:  in.AssignedUserID,
		CreatedByUserID: actor.ID,
		CreatedAt:       s.Now(),
	}
	if err := s.Tasks.ReplaceTasks(ctx, append(tasks, t)); err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	s.Logger.Info().Str("task_id", t.ID).Str("assigned_to", t.AssignedUserID).Msg("task created")
	return &t, nil
}

// SetStatus marks a task open or done.
func (s *TaskService) SetStatus(ctx context.Context, id string, status TaskStatus, actor *User) (*Task, error) {
	if actor == nil {
		return nil, ErrNoActiveUser
	}
	if !status.Valid() {
		return nil, invalid("unknown task status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.Tasks.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	i := taskIndex(tasks, id)
	if i < 0 {
		return nil, ErrTaskNotFound
	}
	if !canManageTask(tasks[i], actor) {
		return nil, ErrForbidden
	}

	tasks[i].Status = status
	if err := s.Tasks.ReplaceTasks(ctx, tasks); err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	s.Logger.Info().Str("task_id", id).Str("status", string(status)).Msg("task status changed")
	return &tasks[i], nil
}

func (s *TaskService) Delete(ctx context.Context, id string, actor *User) error {
	if actor == nil {
		return ErrNoActiveUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.Tasks.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	i := taskIndex(tasks, id)
	if i < 0 {
		return ErrTaskNotFound
	}
	if !canManageTask(tasks[i], actor) {
		return ErrForbidden
	}

	tasks = append(tasks[:i], tasks[i+1:]...)
	if err := s.Tasks.ReplaceTasks(ctx, tasks); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}

	s.Logger.Info().Str("task_id", id).Msg("task deleted")
	return nil
}

func canManageTask(t Task, actor *User) bool {
	return actor.IsAdmin() || t.AssignedUserID == actor.ID || t.CreatedByUserID == actor.ID
}

func taskIndex(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
