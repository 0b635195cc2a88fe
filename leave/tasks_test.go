package leave_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-planner/leave"
	"github.com/warp/leave-planner/leave/store"
)

func TestTaskService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := leave.NewTaskService(store.NewMemory(), zerolog.Nop())
	boss := admin()
	anna := employee("anna", 30)
	due := day("2025-03-31")

	// GIVEN: the admin assigns a task to Anna
	task, err := svc.Create(ctx, leave.TaskInput{Title: "Inventur", DueDate: &due, AssignedUserID: anna.ID}, boss)
	require.NoError(t, err)
	assert.Equal(t, leave.TaskOpen, task.Status)
	assert.Equal(t, "admin", task.CreatedByUserID)

	// WHEN: Anna marks it done
	done, err := svc.SetStatus(ctx, task.ID, leave.TaskDone, anna)

	// THEN: the status is stored
	require.NoError(t, err)
	assert.Equal(t, leave.TaskDone, done.Status)

	// AND: someone else may not touch it
	_, err = svc.SetStatus(ctx, task.ID, leave.TaskOpen, employee("ben", 30))
	assert.ErrorIs(t, err, leave.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, task.ID, employee("ben", 30)), leave.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, task.ID, anna))
	assert.ErrorIs(t, svc.Delete(ctx, task.ID, boss), leave.ErrTaskNotFound)
}

func TestTaskService_CreateRules(t *testing.T) {
	ctx := context.Background()
	svc := leave.NewTaskService(store.NewMemory(), zerolog.Nop())
	anna := employee("anna", 30)

	_, err := svc.Create(ctx, leave.TaskInput{Title: ""}, anna)
	assert.ErrorIs(t, err, leave.ErrInvalidRequest)

	_, err = svc.Create(ctx, leave.TaskInput{Title: "x", AssignedUserID: "ben"}, anna)
	assert.ErrorIs(t, err, leave.ErrForbidden)

	_, err = svc.Create(ctx, leave.TaskInput{Title: "x"}, nil)
	assert.ErrorIs(t, err, leave.ErrNoActiveUser)

	own, err := svc.Create(ctx, leave.TaskInput{Title: "Ablage"}, anna)
	require.NoError(t, err)
	assert.Equal(t, "anna", own.AssignedUserID)

	_, err = svc.SetStatus(ctx, own.ID, "archived", anna)
	assert.ErrorIs(t, err, leave.ErrInvalidRequest)
}

func TestTaskService_ListOrder(t *testing.T) {
	ctx := context.Background()
	svc := leave.NewTaskService(store.NewMemory(), zerolog.Nop())
	boss := admin()
	early, late := day("2025-01-10"), day("2025-02-10")

	undated, err := svc.Create(ctx, leave.TaskInput{Title: "undated", AssignedUserID: "anna"}, boss)
	require.NoError(t, err)
	second, err := svc.Create(ctx, leave.TaskInput{Title: "late", DueDate: &late, AssignedUserID: "anna"}, boss)
	require.NoError(t, err)
	first, err := svc.Create(ctx, leave.TaskInput{Title: "early", DueDate: &early, AssignedUserID: "anna"}, boss)
	require.NoError(t, err)
	finished, err := svc.Create(ctx, leave.TaskInput{Title: "done", DueDate: &early, AssignedUserID: "anna"}, boss)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, finished.ID, leave.TaskDone, boss)
	require.NoError(t, err)
	_, err = svc.Create(ctx, leave.TaskInput{Title: "other", AssignedUserID: "ben"}, boss)
	require.NoError(t, err)

	tasks, err := svc.List(ctx, "anna")
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	ids := []string{tasks[0].ID, tasks[1].ID, tasks[2].ID, tasks[3].ID}
	assert.Equal(t, []string{first.ID, second.ID, undated.ID, finished.ID}, ids)
}
