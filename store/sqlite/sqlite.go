/*
Package sqlite provides the SQLite-backed leave.Store.

PURPOSE:
  The default persistence for a single-office installation. One file holds
  users, leave requests, tasks and company closure days.

REPLACE-ALL SEMANTICS:
  The services load a whole collection, decide, and write it back. Each
  Replace* call therefore deletes and re-inserts its table inside one
  database transaction: either the new collection is stored completely or
  the old one stays.

KEY TABLES:
  users:          Employee records incl. bcrypt PIN hash
  leave_requests: Requests with an embedded JSON snapshot of their user
  tasks:          Work items
  holidays:       Company closure days (public holidays are computed)

SCHEMA EVOLUTION:
  Audit columns are nullable. Rows written before they existed load with
  zero values and are completed by leave.NormalizeLoaded.

CONCURRENCY:
  sync.RWMutex around every statement. SQLite is opened in WAL mode so
  readers do not block the writer.

USAGE:
  store, err := sqlite.New("./leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/holiday"
	"github.com/warp/leave-planner/leave"
)

// Store implements leave.Store and holiday.ClosureStore using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var (
	_ leave.Store          = (*Store)(nil)
	_ holiday.ClosureStore = (*Store)(nil)
)

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every new connection would see a fresh in-memory database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		pin_hash TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		annual_leave_days INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_json TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		type TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT,
		created_at TEXT,
		created_by_user_id TEXT,
		updated_at TEXT,
		updated_by_user_id TEXT,
		position INTEGER NOT NULL DEFAULT 0
	);

	-- Overlap and balance checks scan one user's requests
	CREATE INDEX IF NOT EXISTS idx_leave_requests_user
		ON leave_requests(user_id, type, start_date);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		due_date TEXT,
		status TEXT,
		assigned_user_id TEXT NOT NULL DEFAULT '',
		created_by_user_id TEXT NOT NULL DEFAULT '',
		created_at TEXT,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_assigned
		ON tasks(assigned_user_id);

	-- Company closure days
	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// replaceAll swaps the content of table inside one transaction.
func (s *Store) replaceAll(ctx context.Context, table string, insert func(tx execer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// USERS (leave.UserStore)
// =============================================================================

func (s *Store) LoadUsers(ctx context.Context) ([]leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, pin_hash, color, annual_leave_days
		FROM users
		ORDER BY position ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []leave.User
	for rows.Next() {
		var u leave.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &role, &u.PINHash, &u.Color, &u.AnnualLeaveDays); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = leave.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ReplaceUsers(ctx context.Context, users []leave.User) error {
	return s.replaceAll(ctx, "users", func(tx execer) error {
		for i, u := range users {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO users (id, name, role, pin_hash, color, annual_leave_days, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, u.ID, u.Name, string(u.Role), u.PINHash, u.Color, u.AnnualLeaveDays, i)
			if err != nil {
				return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

// =============================================================================
// LEAVE REQUESTS (leave.RequestStore)
// =============================================================================

func (s *Store) LoadRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_json, start_date, end_date, type, reason, status,
		       created_at, created_by_user_id, updated_at, updated_by_user_id
		FROM leave_requests
		ORDER BY position ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leave.NormalizeLoaded(requests, s.now()), nil
}

func scanRequest(rows *sql.Rows) (leave.LeaveRequest, error) {
	var (
		r                            leave.LeaveRequest
		userJSON, start, end, typ    string
		status, createdAt, createdBy sql.NullString
		updatedAt, updatedBy         sql.NullString
	)
	if err := rows.Scan(&r.ID, &userJSON, &start, &end, &typ, &r.Reason, &status,
		&createdAt, &createdBy, &updatedAt, &updatedBy); err != nil {
		return r, fmt.Errorf("failed to scan leave request: %w", err)
	}

	if err := json.Unmarshal([]byte(userJSON), &r.User); err != nil {
		return r, fmt.Errorf("failed to decode user of request %s: %w", r.ID, err)
	}
	var err error
	if r.StartDate, err = generic.ParseDate(start); err != nil {
		return r, fmt.Errorf("request %s: %w", r.ID, err)
	}
	if r.EndDate, err = generic.ParseDate(end); err != nil {
		return r, fmt.Errorf("request %s: %w", r.ID, err)
	}
	r.Type = leave.LeaveType(typ)
	r.Status = leave.Status(status.String)
	r.CreatedAt = parseTime(createdAt)
	r.CreatedByUserID = createdBy.String
	if t := parseTime(updatedAt); !t.IsZero() {
		r.UpdatedAt = &t
	}
	r.UpdatedByUserID = updatedBy.String
	return r, nil
}

func (s *Store) ReplaceRequests(ctx context.Context, requests []leave.LeaveRequest) error {
	return s.replaceAll(ctx, "leave_requests", func(tx execer) error {
		for i, r := range requests {
			userJSON, err := json.Marshal(r.User)
			if err != nil {
				return fmt.Errorf("failed to encode user of request %s: %w", r.ID, err)
			}
			var updatedAt sql.NullString
			if r.UpdatedAt != nil {
				updatedAt = nullString(formatTime(*r.UpdatedAt))
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO leave_requests
				(id, user_id, user_json, start_date, end_date, type, reason, status,
				 created_at, created_by_user_id, updated_at, updated_by_user_id, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				r.ID,
				r.User.ID,
				string(userJSON),
				r.StartDate.String(),
				r.EndDate.String(),
				string(r.Type),
				r.Reason,
				nullString(string(r.Status)),
				nullString(formatTime(r.CreatedAt)),
				nullString(r.CreatedByUserID),
				updatedAt,
				nullString(r.UpdatedByUserID),
				i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert leave request %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// =============================================================================
// TASKS (leave.TaskStore)
// =============================================================================

func (s *Store) LoadTasks(ctx context.Context) ([]leave.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, details, due_date, status, assigned_user_id, created_by_user_id, created_at
		FROM tasks
		ORDER BY position ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []leave.Task
	for rows.Next() {
		var (
			t                      leave.Task
			due, status, createdAt sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Details, &due, &status,
			&t.AssignedUserID, &t.CreatedByUserID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if due.Valid && due.String != "" {
			d, err := generic.ParseDate(due.String)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.ID, err)
			}
			t.DueDate = &d
		}
		t.Status = leave.TaskStatus(status.String)
		t.CreatedAt = parseTime(createdAt)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leave.NormalizeLoadedTasks(tasks, s.now()), nil
}

func (s *Store) ReplaceTasks(ctx context.Context, tasks []leave.Task) error {
	return s.replaceAll(ctx, "tasks", func(tx execer) error {
		for i, t := range tasks {
			var due sql.NullString
			if t.DueDate != nil {
				due = nullString(t.DueDate.String())
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tasks
				(id, title, details, due_date, status, assigned_user_id, created_by_user_id, created_at, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, t.ID, t.Title, t.Details, due, nullString(string(t.Status)),
				t.AssignedUserID, t.CreatedByUserID, nullString(formatTime(t.CreatedAt)), i)
			if err != nil {
				return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// =============================================================================
// CLOSURE DAYS (holiday.ClosureStore)
// =============================================================================

func (s *Store) LoadClosures(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT date, name FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var dateStr string
		h := generic.Holiday{Custom: true}
		if err := rows.Scan(&dateStr, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		if h.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveClosure inserts or renames the closure day on h.Date.
func (s *Store) SaveClosure(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (date, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name
	`, h.Date.String(), h.Name, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) DeleteClosure(ctx context.Context, date generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE date = ?", date.String()); err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
