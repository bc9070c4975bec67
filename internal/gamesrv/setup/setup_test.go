package setup

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

	require.Nil(t, fake.UpsertVehicleDefinition(ctx, &models.VehicleDefinition{
		VehicleID:        "veh_van",
		Name:             "City Van",
		Type:             "van",
		MaxLoadWeight:    1500,
		MaxLoadVolume:    10,
		AvailabilityType: models.AvailabilityRentablePerSession,
	}))
	require.Nil(t, fake.UpsertVehicleDefinition(ctx, &models.VehicleDefinition{
		VehicleID:        "veh_truck",
		Name:             "Heavy Truck",
		Type:             "truck",
		MaxLoadWeight:    5000,
		MaxLoadVolume:    30,
		AvailabilityType: models.AvailabilityOwnedOnly,
	}))

	require.Nil(t, fake.UpsertItemDefinition(ctx, &models.ItemDefinition{
		ItemID:           "item_crate",
		Name:             "Supply Crate",
		Category:         "general",
		WeightPerUnit:    100,
		VolumePerUnit:    0.5,
		BaseValuePerUnit: 10,
	}))
	require.Nil(t, fake.UpsertItemDefinition(ctx, &models.ItemDefinition{
		ItemID:           "item_cell",
		Name:             "Charging Cell",
		Category:         "electronics",
		WeightPerUnit:    5,
		VolumePerUnit:    0.1,
		BaseValuePerUnit: 200,
	}))

	require.Nil(t, fake.UpsertWarehouseItem(ctx, &models.WarehouseItem{
		UserID: testUser, ItemID: "item_crate", Quantity: 50,
	}))
	require.Nil(t, fake.UpsertWarehouseItem(ctx, &models.WarehouseItem{
		UserID: testUser, ItemID: "item_cell", Quantity: 5,
	}))

	require.Nil(t, fake.UpsertDestination(ctx, &models.Destination{
		DestinationID:       "dest_open",
		Name:                "Open Depot",
		Region:              "north",
		IsUnlockedByDefault: true,
	}))
	require.Nil(t, fake.UpsertDestination(ctx, &models.Destination{
		DestinationID:       "dest_gated",
		Name:                "Gated Port",
		Region:              "south",
		IsUnlockedByDefault: false,
		UnlockRequirements: &models.DestinationUnlockRequirements{
			RequiredPlayerLevel: 10,
		},
	}))
	require.Nil(t, fake.UpsertDestination(ctx, &models.Destination{
		DestinationID:       "dest_task_gated",
		Name:                "Contract Terminal",
		Region:              "south",
		IsUnlockedByDefault: false,
		UnlockRequirements: &models.DestinationUnlockRequirements{
			RequiredCompletedTaskID: "task_intro",
		},
	}))

	return fake, ctx
}

func TestSelectVehicle_ClearsCargo(t *testing.T) {
	fake, ctx := newTestWorld(t)

	rsp, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	assert.True(t, rsp.ClearedCargo)
	assert.Equal(t, "veh_van", rsp.SelectedVehicle.VehicleID)

	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 2}},
	})
	require.Nil(t, err)

	// Re-selecting the vehicle clears the cargo and still reports
	// cleared_cargo=true, regardless of prior state.
	rsp, err = SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	assert.True(t, rsp.ClearedCargo)

	player, getErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, getErr)
	require.NotNil(t, player.SessionSetup)
	assert.Empty(t, player.SessionSetup.SelectedCargo)
}

func TestSelectVehicle_PreservesDestination(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	_, err = SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)

	player, getErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, getErr)
	assert.Equal(t, "dest_open", player.SessionSetup.SelectedDestinationID)
	assert.Equal(t, "veh_van", player.SessionSetup.SelectedVehicleID)
}

func TestSelectVehicle_OwnershipRules(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// Owned-only vehicle without an owned instance.
	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_truck"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrVehicleNotUsable)

	// After acquiring an instance it becomes selectable.
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-1", UserID: testUser, VehicleID: "veh_truck",
	}))
	_, err = SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_truck"})
	assert.Nil(t, err)

	// Unknown vehicle.
	_, err = SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_missing"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestSelectVehicle_LevelGate(t *testing.T) {
	fake, ctx := newTestWorld(t)

	require.Nil(t, fake.UpsertVehicleDefinition(ctx, &models.VehicleDefinition{
		VehicleID:             "veh_elite",
		Name:                  "Elite Hauler",
		Type:                  "truck",
		MaxLoadWeight:         8000,
		MaxLoadVolume:         40,
		AvailabilityType:      models.AvailabilityRentablePerSession,
		RequiredLevelToUnlock: 10,
	}))

	// Player is level 3, the model unlocks at 10.
	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_elite"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrVehicleNotUsable)

	// Owning an instance does not bypass the level gate.
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-elite", UserID: testUser, VehicleID: "veh_elite",
	}))
	_, err = SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_elite"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrVehicleNotUsable)
}

func TestSelectVehicle_PrefersUnlockedInstance(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// The earliest-purchased instance is locked by an active session; a
	// later one is free, so the model stays selectable.
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-old", UserID: testUser, VehicleID: "veh_truck",
		PurchaseDate:      time.Now().UTC().Add(-48 * time.Hour),
		IsInActiveSession: true,
	}))
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-new", UserID: testUser, VehicleID: "veh_truck",
		PurchaseDate: time.Now().UTC(),
	}))

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_truck"})
	assert.Nil(t, err)
}

func TestSelectCargo_RequiresVehicle(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 1}},
	})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrNoVehicleSelected)

	// The precondition holds for an empty selection too.
	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrNoVehicleSelected)
}

func TestSelectCargo_EmptyListClears(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 2}},
	})
	require.Nil(t, err)

	rsp, err := SelectCargo(ctx, fake, testUser, &SelectCargoRequest{Items: []CargoItemSelection{}})
	require.Nil(t, err)
	assert.Equal(t, "cargo selection cleared", rsp.Message)
	assert.Empty(t, rsp.SelectedCargoSummary.Items)
	assert.True(t, rsp.SelectedCargoSummary.WeightOK)

	player, getErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, getErr)
	assert.Empty(t, player.SessionSetup.SelectedCargo)
	assert.Equal(t, "veh_van", player.SessionSetup.SelectedVehicleID)
}

func TestSelectCargo_InsufficientStockSucceedsWithReport(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)

	// Warehouse has 5 cells; request 10. The selection is stored, the
	// report marks the line insufficient.
	rsp, err := SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_cell", Quantity: 10}},
	})
	require.Nil(t, err)

	require.Len(t, rsp.SelectedCargoSummary.Items, 1)
	line := rsp.SelectedCargoSummary.Items[0]
	assert.False(t, line.SufficientQuantity)
	assert.Equal(t, 5, line.AvailableInWarehouse)
	assert.Equal(t, 10, line.SelectedQuantity)
	assert.NotEmpty(t, rsp.SelectedCargoSummary.Warnings)

	player, getErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, getErr)
	require.Len(t, player.SessionSetup.SelectedCargo, 1)
	assert.Equal(t, 10, player.SessionSetup.SelectedCargo[0].Quantity)
}

func TestSelectCargo_CapacityReport(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)

	// 20 crates x 100 = 2000 against max load 1500.
	rsp, err := SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 20}},
	})
	require.Nil(t, err)

	report := rsp.SelectedCargoSummary
	assert.InDelta(t, 2000.0, report.TotalWeight, 0.001)
	assert.False(t, report.WeightOK)
	assert.InDelta(t, 500.0, report.ExceedsWeightBy, 0.001)
	assert.True(t, report.VolumeOK)
}

func TestSelectCargo_UnknownItem(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)

	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_missing", Quantity: 1}},
	})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSelectCargo_RejectsNonPositiveQuantity(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectVehicle(ctx, fake, testUser, &SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)

	_, err = SelectCargo(ctx, fake, testUser, &SelectCargoRequest{
		Items: []CargoItemSelection{{ItemID: "item_crate", Quantity: 0}},
	})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSelectDestination_UnlockRules(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// Default-unlocked destination.
	rsp, err := SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)
	assert.Equal(t, "dest_open", rsp.SelectedDestination.DestinationID)

	// Level-gated destination: player is level 3, needs 10.
	_, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_gated"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrDestinationLocked)

	// Task-gated destination unlocks once the prerequisite is completed.
	_, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_task_gated"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrDestinationLocked)

	pt, acceptErr := fake.AcceptPlayerTask(ctx, &models.PlayerTask{UserID: testUser, TaskID: "task_intro"})
	require.Nil(t, acceptErr)
	fake.SetPlayerTaskStatus(pt.PlayerTaskID, models.TaskStatusCompleted)

	rsp, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_task_gated"})
	require.Nil(t, err)
	assert.Equal(t, "dest_task_gated", rsp.SelectedDestination.DestinationID)

	// Unknown destination.
	_, err = SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_missing"})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrDestinationNotFound)
}

func TestSelectDestination_Idempotent(t *testing.T) {
	fake, ctx := newTestWorld(t)

	_, err := SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)
	rsp, err := SelectDestination(ctx, fake, testUser, &SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)
	assert.Equal(t, "dest_open", rsp.SelectedDestination.DestinationID)

	player, getErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, getErr)
	assert.Equal(t, "dest_open", player.SessionSetup.SelectedDestinationID)
}

func TestListSelectableVehicles(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// Owned-only truck is hidden until owned; rentable van is listed.
	vehicles, err := ListSelectableVehicles(ctx, fake, testUser, AvailabilityFilterAll)
	require.Nil(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "veh_van", vehicles[0].VehicleID)
	assert.Equal(t, VehicleStatusRentable, vehicles[0].Status)

	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-1", UserID: testUser, VehicleID: "veh_truck",
	}))
	vehicles, err = ListSelectableVehicles(ctx, fake, testUser, AvailabilityFilterOwned)
	require.Nil(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "veh_truck", vehicles[0].VehicleID)
	assert.Equal(t, VehicleStatusOwned, vehicles[0].Status)
	assert.Equal(t, "inst-1", vehicles[0].PlayerVehicleID)
}

func TestListSelectableDestinations(t *testing.T) {
	fake, ctx := newTestWorld(t)

	dests, err := ListSelectableDestinations(ctx, fake, testUser)
	require.Nil(t, err)
	require.Len(t, dests, 1)
	assert.Equal(t, "dest_open", dests[0].DestinationID)
}

func TestListWarehouse(t *testing.T) {
	fake, ctx := newTestWorld(t)

	items, err := ListWarehouse(ctx, fake, testUser)
	require.Nil(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item_cell", items[0].ItemID)
	assert.Equal(t, 5, items[0].QuantityInWarehouse)
	assert.Equal(t, "item_crate", items[1].ItemID)
	assert.Equal(t, 50, items[1].QuantityInWarehouse)
}
