package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volticar/volticar/internal/gamesrv/db/dbtest"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

const testUser = "user-1"

func newTestWorld(t *testing.T) (*dbtest.FakeDatabase, context.Context) {
	t.Helper()
	ctx := context.Background()
	fake := dbtest.New()

	require.Nil(t, fake.CreatePlayer(ctx, &models.Player{
		UserID:      testUser,
		DisplayName: "Test Player",
		Level:       3,
	}))

	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:   "task_basic",
		Title:    "First Delivery",
		Mode:     "delivery",
		IsActive: true,
	}))
	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:   "task_elite",
		Title:    "Elite Contract",
		Mode:     "contract",
		IsActive: true,
		Requirements: models.TaskRequirements{
			RequiredPlayerLevel: 10,
		},
	}))
	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:              "task_followup",
		Title:               "Follow-up Run",
		Mode:                "delivery",
		IsActive:            true,
		PrerequisiteTaskIDs: []string{"task_basic"},
	}))
	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:   "task_retired",
		Title:    "Retired Task",
		Mode:     "delivery",
		IsActive: false,
	}))

	return fake, ctx
}

func TestListAvailable(t *testing.T) {
	fake, ctx := newTestWorld(t)

	tasks, err := ListAvailable(ctx, fake, testUser, "")
	require.Nil(t, err)
	require.Len(t, tasks, 3)

	// Retired tasks never show up.
	for _, at := range tasks {
		assert.NotEqual(t, "task_retired", at.TaskID)
	}

	tasks, err = ListAvailable(ctx, fake, testUser, "contract")
	require.Nil(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task_elite", tasks[0].TaskID)
}

func TestListAvailable_WindowEvaluatedLazily(t *testing.T) {
	fake, ctx := newTestWorld(t)

	past := time.Now().UTC().Add(-time.Hour)
	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:              "task_expired",
		Title:               "Expired Event",
		Mode:                "event",
		IsActive:            true,
		AvailabilityEndDate: &past,
	}))

	tasks, err := ListAvailable(ctx, fake, testUser, "event")
	require.Nil(t, err)
	assert.Empty(t, tasks)
}

func TestListAvailable_MarksAcceptedTasks(t *testing.T) {
	fake, ctx := newTestWorld(t)

	accepted, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)

	tasks, listErr := ListAvailable(ctx, fake, testUser, "delivery")
	require.Nil(t, listErr)
	for _, at := range tasks {
		if at.TaskID == "task_basic" {
			assert.Equal(t, accepted.PlayerTaskID, at.PlayerTaskID)
			assert.Equal(t, models.TaskStatusAccepted, at.PlayerTaskStatus)
		} else {
			assert.Empty(t, at.PlayerTaskID)
		}
	}
}

func TestListAccepted(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)

	tasks, err := ListAccepted(ctx, fake, testUser, "")
	require.Nil(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task_basic", tasks[0].TaskID)
	assert.Equal(t, "First Delivery", tasks[0].Title)
	assert.Equal(t, models.TaskStatusAccepted, tasks[0].PlayerTaskStatus)
}

func TestAccept(t *testing.T) {
	fake, ctx := newTestWorld(t)

	rsp, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)
	assert.Equal(t, "task_basic", rsp.TaskID)
	assert.Equal(t, models.TaskStatusAccepted, rsp.Status)
	assert.NotEmpty(t, rsp.PlayerTaskID)
}

func TestAccept_DuplicateConflicts(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)

	_, err = Accept(ctx, fake, testUser, "task_basic")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}

func TestAccept_LevelGate(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := Accept(ctx, fake, testUser, "task_elite")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrLevelTooLow)
}

func TestAccept_PrerequisiteGate(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := Accept(ctx, fake, testUser, "task_followup")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrPrerequisitesNotMet)

	// Completing the prerequisite unlocks it.
	pt, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)
	fake.SetPlayerTaskStatus(pt.PlayerTaskID, models.TaskStatusCompleted)

	_, err = Accept(ctx, fake, testUser, "task_followup")
	assert.Nil(t, err)
}

func TestAccept_UnknownOrInactive(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := Accept(ctx, fake, testUser, "task_missing")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = Accept(ctx, fake, testUser, "task_retired")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAbandonAndReaccept_PreservesPlayerTaskID(t *testing.T) {
	fake, ctx := newTestWorld(t)

	first, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)

	abandoned, err := Abandon(ctx, fake, testUser, first.PlayerTaskID)
	require.Nil(t, err)
	assert.Equal(t, models.TaskStatusAbandoned, abandoned.Status)

	second, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)
	assert.Equal(t, first.PlayerTaskID, second.PlayerTaskID)
	assert.Equal(t, models.TaskStatusAccepted, second.Status)
}

func TestAbandon_Rules(t *testing.T) {
	fake, ctx := newTestWorld(t)

	pt, err := Accept(ctx, fake, testUser, "task_basic")
	require.Nil(t, err)

	// Not the owner.
	require.Nil(t, fake.CreatePlayer(ctx, &models.Player{UserID: "user-2", Level: 1}))
	_, abandonErr := Abandon(ctx, fake, "user-2", pt.PlayerTaskID)
	require.NotNil(t, abandonErr)
	assert.ErrorIs(t, abandonErr, ErrPlayerTaskNotFound)

	// Linked to a running session.
	fake.SetPlayerTaskStatus(pt.PlayerTaskID, models.TaskStatusInProgress)
	_, abandonErr = Abandon(ctx, fake, testUser, pt.PlayerTaskID)
	require.NotNil(t, abandonErr)
	assert.ErrorIs(t, abandonErr, ErrLinkedToSession)

	// Terminal statuses refuse.
	fake.SetPlayerTaskStatus(pt.PlayerTaskID, models.TaskStatusCompleted)
	_, abandonErr = Abandon(ctx, fake, testUser, pt.PlayerTaskID)
	require.NotNil(t, abandonErr)
	assert.ErrorIs(t, abandonErr, ErrTerminalStatus)

	// Unknown record.
	_, abandonErr = Abandon(ctx, fake, testUser, "missing-id")
	require.NotNil(t, abandonErr)
	assert.ErrorIs(t, abandonErr, ErrPlayerTaskNotFound)
}
