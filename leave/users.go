/*
users.go - Employee records and PIN login

PURPOSE:
  Users are maintained by admins. Each user logs in with a short numeric PIN
  that is stored only as a bcrypt hash.

  Leave requests embed a snapshot of their user. Update therefore fans out
  through Manager.ResyncUser so balances and calendar labels follow the
  edited record. A failed fan-out is logged and does not fail the update;
  saving the user again repairs the snapshots. Delete leaves the user's
  requests in place.

  Wrong PINs are counted per user. MaxFailedLogins misses in a row lock the
  user out for LoginLockout, during which no PIN is checked.
*/
package leave

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/leave-planner/metrics"
)

const (
	minPINLength = 4
	maxPINLength = 8

	DefaultMaxFailedLogins = 5
	DefaultLoginLockout    = 5 * time.Minute
)

// UserInput carries the editable fields of a user. An empty PIN on update
// keeps the current one.
type UserInput struct {
	Name            string
	Role            Role
	PIN             string
	Color           string
	AnnualLeaveDays int
}

// UserService manages the user collection.
type UserService struct {
	Users    UserStore
	Requests *Manager
	Logger   zerolog.Logger

	// HashCost is the bcrypt cost for new PIN hashes.
	HashCost int

	MaxFailedLogins int
	LoginLockout    time.Duration
	Now             func() time.Time

	mu sync.Mutex

	loginMu  sync.Mutex
	failures map[string]*loginFailures
}

type loginFailures struct {
	count       int
	lockedUntil time.Time
}

func NewUserService(users UserStore, requests *Manager, logger zerolog.Logger) *UserService {
	return &UserService{
		Users:    users,
		Requests: requests,
		Logger:   logger,
		HashCost: bcrypt.DefaultCost,

		MaxFailedLogins: DefaultMaxFailedLogins,
		LoginLockout:    DefaultLoginLockout,
		Now:             time.Now,
		failures:        make(map[string]*loginFailures),
	}
}

// List returns all users ordered by name.
func (s *UserService) List(ctx context.Context) ([]User, error) {
	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].Name) < strings.ToLower(users[j].Name)
	})
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*User, error) {
	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if i := userIndex(users, id); i >= 0 {
		return &users[i], nil
	}
	return nil, ErrUserNotFound
}

// Create adds a user. Admin only.
func (s *UserService) Create(ctx context.Context, in UserInput, actor *User) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateUserInput(in, true); err != nil {
		return nil, err
	}
	hash, err := s.hashPIN(in.PIN)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	u := User{
		ID:              NewID(),
		Name:            strings.TrimSpace(in.Name),
		Role:            in.Role,
		PINHash:         hash,
		Color:           in.Color,
		AnnualLeaveDays: in.AnnualLeaveDays,
	}
	if err := s.Users.ReplaceUsers(ctx, append(users, u)); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	s.Logger.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Str("actor_id", actor.ID).Msg("user created")
	return &u, nil
}

// Update changes a user and refreshes the snapshot in their requests. Admin only.
func (s *UserService) Update(ctx context.Context, id string, in UserInput, actor *User) (*User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateUserInput(in, false); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	i := userIndex(users, id)
	if i < 0 {
		return nil, ErrUserNotFound
	}

	u := users[i]
	u.Name = strings.TrimSpace(in.Name)
	u.Role = in.Role
	u.Color = in.Color
	u.AnnualLeaveDays = in.AnnualLeaveDays
	if in.PIN != "" {
		if u.PINHash, err = s.hashPIN(in.PIN); err != nil {
			return nil, err
		}
	}
	users[i] = u

	if err := s.Users.ReplaceUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}
	if s.Requests != nil {
		if _, err := s.Requests.ResyncUser(ctx, u); err != nil {
			s.Logger.Warn().Err(err).Str("user_id", u.ID).Msg("user saved but request snapshots are stale")
		}
	}

	s.Logger.Info().Str("user_id", u.ID).Str("actor_id", actor.ID).Msg("user updated")
	return &u, nil
}

// Delete removes a user. Admin only; admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string, actor *User) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return invalid("cannot delete the logged-in user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	i := userIndex(users, id)
	if i < 0 {
		return ErrUserNotFound
	}
	users = append(users[:i], users[i+1:]...)
	if err := s.Users.ReplaceUsers(ctx, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}

	s.Logger.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}

// Authenticate checks a PIN. Unknown users and wrong PINs both yield
// ErrInvalidCredentials; a locked-out user gets ErrTooManyAttempts.
func (s *UserService) Authenticate(ctx context.Context, userID, pin string) (*User, error) {
	if s.lockedOut(userID) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, ErrTooManyAttempts
	}

	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	i := userIndex(users, userID)
	if i < 0 {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		s.Logger.Debug().Str("user_id", userID).Msg("login rejected: unknown user")
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(users[i].PINHash), []byte(pin)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		s.recordFailure(userID)
		return nil, ErrInvalidCredentials
	}

	s.loginMu.Lock()
	delete(s.failures, userID)
	s.loginMu.Unlock()

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return &users[i], nil
}

func (s *UserService) lockedOut(userID string) bool {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()
	f, ok := s.failures[userID]
	return ok && s.Now().Before(f.lockedUntil)
}

// recordFailure counts a wrong PIN of a known user and starts a lockout
// once MaxFailedLogins is reached. Unknown IDs are not tracked.
func (s *UserService) recordFailure(userID string) {
	if s.MaxFailedLogins <= 0 {
		return
	}
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	if s.failures == nil {
		s.failures = make(map[string]*loginFailures)
	}
	f, ok := s.failures[userID]
	if !ok {
		f = &loginFailures{}
		s.failures[userID] = f
	}
	f.count++
	if f.count < s.MaxFailedLogins {
		s.Logger.Debug().Str("user_id", userID).Int("failures", f.count).Msg("login rejected")
		return
	}
	f.count = 0
	f.lockedUntil = s.Now().Add(s.LoginLockout)
	s.Logger.Warn().Str("user_id", userID).Time("locked_until", f.lockedUntil).Msg("login locked after repeated wrong PINs")
}

// Bootstrap creates the first admin when no users exist yet. It reports
// whether a user was created.
func (s *UserService) Bootstrap(ctx context.Context, name, pin string) (*User, bool, error) {
	if err := validatePIN(pin); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Users.LoadUsers(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load users: %w", err)
	}
	if len(users) > 0 {
		return nil, false, nil
	}

	hash, err := s.hashPIN(pin)
	if err != nil {
		return nil, false, err
	}
	u := User{ID: NewID(), Name: name, Role: RoleAdmin, PINHash: hash}
	if err := s.Users.ReplaceUsers(ctx, []User{u}); err != nil {
		return nil, false, fmt.Errorf("save users: %w", err)
	}

	s.Logger.Info().Str("user_id", u.ID).Msg("bootstrap admin created")
	return &u, true, nil
}

func (s *UserService) hashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

func requireAdmin(actor *User) error {
	if actor == nil {
		return ErrNoActiveUser
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func validateUserInput(in UserInput, pinRequired bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if !in.Role.Valid() {
		return invalid("unknown role %q", in.Role)
	}
	if in.AnnualLeaveDays < 0 {
		return invalid("annual leave days must not be negative")
	}
	if in.PIN == "" && !pinRequired {
		return nil
	}
	return validatePIN(in.PIN)
}

func validatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return invalid("PIN must have %d to %d digits", minPINLength, maxPINLength)
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return invalid("PIN must contain digits only")
		}
	}
	return nil
}

func userIndex(users []User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}
