package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

func TestGetSummary_NoSetup(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := GetSummary(ctx, fake, testUser)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrNoSetup)
}

func TestGetSummary_PlayerNotFound(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := GetSummary(ctx, fake, "user-unknown")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestGetSummary_CompleteSetup(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{
			{ItemID: "item_crate", Quantity: 10},
			{ItemID: "item_cell", Quantity: 2},
		},
	})
	require.Nil(t, err)
	_, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	rsp, err := GetSummary(ctx, fake, testUser)
	require.Nil(t, err)

	assert.True(t, rsp.CanStartGame)
	assert.Empty(t, rsp.StartGameWarnings)
	require.NotNil(t, rsp.SessionSummary.SelectedVehicle)
	assert.Equal(t, "veh_van", rsp.SessionSummary.SelectedVehicle.VehicleID)
	require.NotNil(t, rsp.SessionSummary.SelectedDestination)
	assert.Equal(t, "dest_open", rsp.SessionSummary.SelectedDestination.DestinationID)
	require.NotNil(t, rsp.SessionSummary.SelectedCargo)
	assert.Len(t, rsp.SessionSummary.SelectedCargo.Items, 2)
	assert.InDelta(t, 1010.0, rsp.SessionSummary.SelectedCargo.TotalWeight, 0.001)
}

func TestGetSummary_MissingPieces(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// Destination only: vehicle missing blocks start.
	_, err := SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	rsp, err := GetSummary(ctx, fake, testUser)
	require.Nil(t, err)
	assert.False(t, rsp.CanStartGame)
	assert.Contains(t, rsp.StartGameWarnings, "no vehicle selected")
}

func TestGetSummary_OverCapacityBlocksStart(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 20}},
	})
	require.Nil(t, err)
	_, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	rsp, err := GetSummary(ctx, fake, testUser)
	require.Nil(t, err)
	assert.False(t, rsp.CanStartGame)
	assert.Contains(t, rsp.StartGameWarnings, "cargo exceeds vehicle weight capacity")
}

func TestGetSummary_StaleVehicleReference(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)

	// Simulate the catalog entry disappearing after selection.
	player, getErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, getErr)
	player.SessionSetup.SelectedVehicleID = "veh_removed"
	_, updErr := fake.UpdateSessionSetup(ctx, testUser, player.SessionSetup, player.SetupVersion)
	require.Nil(t, updErr)

	rsp, err := GetSummary(ctx, fake, testUser)
	require.Nil(t, err)
	assert.False(t, rsp.CanStartGame)
	assert.Contains(t, rsp.StartGameWarnings, "selected vehicle no longer exists")
}

func TestGetSummary_TaskCompletability(t *testing.T) {
	fake, ctx := newTestWorld(t)

	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:   "task_crates",
		Title:    "Crate Run",
		Mode:     "delivery",
		IsActive: true,
		Requirements: models.TaskRequirements{
			DestinationID: "dest_open",
			DeliverItems:  []models.TaskDeliverItem{{ItemID: "item_crate", Quantity: 5}},
		},
	}))
	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:   "task_truck",
		Title:    "Heavy Haul",
		Mode:     "delivery",
		IsActive: true,
		Requirements: models.TaskRequirements{
			RequiredVehicleType: "truck",
			MinCargoValue:       5000,
		},
	}))

	for _, taskID := range []string{"task_crates", "task_truck"} {
		_, acceptErr := fake.AcceptPlayerTask(ctx, &models.PlayerTask{UserID: testUser, TaskID: taskID})
		require.Nil(t, acceptErr)
	}

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 5}},
	})
	require.Nil(t, err)
	_, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	rsp, err := GetSummary(ctx, fake, testUser)
	require.Nil(t, err)
	require.Len(t, rsp.RelatedTasks, 2)

	byTask := map[string]RelatedTaskSummary{}
	for _, rt := range rsp.RelatedTasks {
		byTask[rt.TaskID] = rt
	}

	crates := byTask["task_crates"]
	assert.True(t, crates.IsCompletableWithCurrentSetup)
	assert.Empty(t, crates.CompletionIssues)

	truck := byTask["task_truck"]
	assert.False(t, truck.IsCompletableWithCurrentSetup)
	assert.Contains(t, truck.CompletionIssues, "requires a vehicle of type truck")
	assert.Contains(t, truck.CompletionIssues, "requires cargo value of at least 5000")

	// Completability issues never block the start decision by themselves.
	assert.True(t, rsp.CanStartGame)
}
