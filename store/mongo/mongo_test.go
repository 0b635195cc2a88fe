package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/warp/leave-planner/generic"
	"github.com/warp/leave-planner/leave"
)

func TestRequestDoc_KeepsEveryField(t *testing.T) {
	updated := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	r := leave.LeaveRequest{
		ID:              "r1",
		User:            leave.User{ID: "a", Name: "Anna", Role: leave.RoleEmployee, AnnualLeaveDays: 30},
		StartDate:       generic.MustParseDate("2025-06-02"),
		EndDate:         generic.MustParseDate("2025-06-06"),
		Type:            leave.TypeVacation,
		Reason:          "Sommer",
		Status:          leave.StatusApproved,
		CreatedAt:       updated.Add(-time.Hour),
		CreatedByUserID: "boss",
		UpdatedAt:       &updated,
		UpdatedByUserID: "boss",
	}

	// Through BSON, as the driver would store it
	raw, err := bson.Marshal(newRequestDoc(r))
	require.NoError(t, err)
	var doc requestDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	back, err := doc.toRequest()
	require.NoError(t, err)
	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, r.User, back.User)
	assert.True(t, back.StartDate.Equal(r.StartDate))
	assert.True(t, back.EndDate.Equal(r.EndDate))
	assert.Equal(t, r.Status, back.Status)
	assert.True(t, back.CreatedAt.Equal(r.CreatedAt))
	require.NotNil(t, back.UpdatedAt)
	assert.True(t, back.UpdatedAt.Equal(updated))
}

func TestRequestDoc_RejectsBadDate(t *testing.T) {
	_, err := requestDoc{ID: "x", StartDate: "02.06.2025", EndDate: "2025-06-06"}.toRequest()
	assert.Error(t, err)
}

// TestStore_Live runs against a real server when MONGO_TEST_URI is set.
func TestStore_Live(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	s, err := New(ctx, uri, "leave_planner_test_"+time.Now().Format("20060102150405"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.collections.Database().Drop(ctx)
		_ = s.Close(ctx)
	})

	users := []leave.User{{ID: "a", Name: "Anna", Role: leave.RoleAdmin, PINHash: "h", AnnualLeaveDays: 30}}
	require.NoError(t, s.ReplaceUsers(ctx, users))
	loaded, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, loaded)

	require.NoError(t, s.ReplaceUsers(ctx, nil))
	loaded, err = s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	day := generic.MustParseDate("2025-12-24")
	require.NoError(t, s.SaveClosure(ctx, generic.Holiday{Date: day, Name: "Heiligabend"}))
	closures, err := s.LoadClosures(ctx)
	require.NoError(t, err)
	require.Len(t, closures, 1)
	assert.Equal(t, "Heiligabend", closures[0].Name)
	require.NoError(t, s.DeleteClosure(ctx, day))
}
