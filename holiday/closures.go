package holiday

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/leave-planner/generic"
)

// ErrInvalidClosure is returned for a closure without a date or a name.
var ErrInvalidClosure = errors.New("closure needs a date and a name")

// ClosureStore persists company closure days.
type ClosureStore interface {
	LoadClosures(ctx context.Context) ([]generic.Holiday, error)
	SaveClosure(ctx context.Context, h generic.Holiday) error
	DeleteClosure(ctx context.Context, date generic.TimePoint) error
}

// LoadClosures registers every stored closure day on the calendar.
func (c *German) LoadClosures(ctx context.Context, store ClosureStore) error {
	closures, err := store.LoadClosures(ctx)
	if err != nil {
		return fmt.Errorf("load closures: %w", err)
	}
	for _, h := range closures {
		c.AddCustomHoliday(h.Date, h.Name)
	}
	return nil
}

// AddClosure stores a closure day and then registers it.
func (c *German) AddClosure(ctx context.Context, store ClosureStore, date generic.TimePoint, name string) error {
	name = strings.TrimSpace(name)
	if date.IsZero() || name == "" {
		return ErrInvalidClosure
	}
	if err := store.SaveClosure(ctx, generic.Holiday{Date: date, Name: name, Custom: true}); err != nil {
		return fmt.Errorf("save closure: %w", err)
	}
	c.AddCustomHoliday(date, name)
	return nil
}

// RemoveClosure deletes a stored closure day and unregisters it.
func (c *German) RemoveClosure(ctx context.Context, store ClosureStore, date generic.TimePoint) error {
	if err := store.DeleteClosure(ctx, date); err != nil {
		return fmt.Errorf("delete closure: %w", err)
	}
	c.RemoveCustomHoliday(date)
	return nil
}
