package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listify_echo/internal/models"
	"listify_echo/internal/testutil"
)

func TestLogInfoTask(t *testing.T) {
	db := testutil.NewDB(t)
	anna := testutil.CreateUser(t, db, "anna")
	ben := testutil.CreateUser(t, db, "ben")
	group := testutil.CreateGroup(t, db, "WG", anna, ben)
	testutil.CreateDebt(t, db, ben, anna, 12.5)
	testutil.CreateDebt(t, db, anna, ben, 2.5)

	res, err := LogInfoTask.HandleExecution(context.Background(), db, models.ScheduledTask{
		TaskName:  LogInfoTask.TaskID(),
		Arguments: map[string]interface{}{"message": "weekly check", "group_id": float64(group.ID)},
	})
	require.NoError(t, err)
	assert.Equal(t, "weekly check", res["message"])
	assert.Equal(t, int64(2), res["open_debts"])
	assert.InDelta(t, 15.0, res["outstanding"], 0.001)

	res, err = LogInfoTask.HandleExecution(context.Background(), db, models.ScheduledTask{})
	require.NoError(t, err)
	assert.Equal(t, "no message provided", res["message"])
	assert.NotContains(t, res, "open_debts")
}
