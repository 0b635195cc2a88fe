// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

// ErrInjected is returned by writes after FailWrites(true); tests use it to
// prove that failed persistence leaves the collection unchanged.
var ErrInjected = errors.New("injected write failure")

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	users      []leave.User
	requests   []leave.LeaveRequest
	tasks      []leave.Task
	closures   map[string]generic.Holiday
	failWrites bool
}

var _ leave.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

// FailWrites makes every subsequent Replace* call fail until reset.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}

func (m *Memory) LoadUsers(_ context.Context) ([]leave.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]leave.User(nil), m.users...), nil
}

func (m *Memory) ReplaceUsers(_ context.Context, users []leave.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	m.users = append([]leave.User(nil), users...)
	return nil
}

func (m *Memory) LoadRequests(_ context.Context) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]leave.LeaveRequest, len(m.requests))
	copy(result, m.requests)
	return leave.NormalizeLoaded(result, time.Now()), nil
}

func (m *Memory) ReplaceRequests(_ context.Context, requests []leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	m.requests = append([]leave.LeaveRequest(nil), requests...)
	return nil
}

func (m *Memory) LoadTasks(_ context.Context) ([]leave.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]leave.Task, len(m.tasks))
	copy(result, m.tasks)
	return leave.NormalizeLoadedTasks(result, time.Now()), nil
}

func (m *Memory) ReplaceTasks(_ context.Context, tasks []leave.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	m.tasks = append([]leave.Task(nil), tasks...)
	return nil
}

// =============================================================================
// CLOSURE DAYS
// =============================================================================

func (m *Memory) LoadClosures(_ context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]generic.Holiday, 0, len(m.closures))
	for _, h := range m.closures {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveClosure(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	if m.closures == nil {
		m.closures = make(map[string]generic.Holiday)
	}
	h.Custom = true
	m.closures[h.Date.String()] = h
	return nil
}

func (m *Memory) DeleteClosure(_ context.Context, date generic.TimePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrInjected
	}
	delete(m.closures, date.String())
	return nil
}
