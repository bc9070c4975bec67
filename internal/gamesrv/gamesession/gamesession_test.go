package gamesession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volticar/volticar/internal/gamesrv/db/dbtest"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
	"github.com/volticar/volticar/internal/gamesrv/setup"
	"github.com/volticar/volticar/internal/gamesrv/task"
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
	require.Nil(t, fake.UpsertWarehouseItem(ctx, &models.WarehouseItem{
		UserID: testUser, ItemID: "item_crate", Quantity: 50,
	}))

	require.Nil(t, fake.UpsertDestination(ctx, &models.Destination{
		DestinationID:       "dest_open",
		Name:                "Open Depot",
		Region:              "north",
		IsUnlockedByDefault: true,
	}))

	return fake, ctx
}

func buildFullSetup(t *testing.T, fake *dbtest.FakeDatabase, ctx context.Context, quantity int) {
	t.Helper()
	_, err := setup.SelectVehicle(ctx, fake, testUser, &setup.SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, err)
	_, err = setup.SelectCargo(ctx, fake, testUser, &setup.SelectCargoRequest{
		Items: []setup.CargoItemSelection{{ItemID: "item_crate", Quantity: quantity}},
	})
	require.Nil(t, err)
	_, err = setup.SelectDestination(ctx, fake, testUser, &setup.SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)
}

func TestStart(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 10)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)
	assert.Equal(t, models.SessionStatusInProgress, rsp.Status)
	assert.NotEmpty(t, rsp.GameSessionID)
	assert.False(t, rsp.StartTime.IsZero())

	// Warehouse debited.
	quantities, qErr := fake.GetWarehouseQuantities(ctx, testUser, []string{"item_crate"})
	require.Nil(t, qErr)
	assert.Equal(t, 40, quantities["item_crate"])

	// Setup consumed and the session pinned on the player.
	player, pErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, pErr)
	assert.Nil(t, player.SessionSetup)
	assert.Equal(t, rsp.GameSessionID, player.ActiveGameSessionID)

	// Rented vehicle recorded by definition id.
	session, sErr := fake.GetGameSession(ctx, rsp.GameSessionID)
	require.Nil(t, sErr)
	assert.Equal(t, "veh_van", session.UsedVehicleID)
	assert.InDelta(t, 1000.0, session.TotalCargoWeightAtStart, 0.001)
	require.Len(t, session.CargoSnapshot, 1)
	assert.Equal(t, 10, session.CargoSnapshot[0].Quantity)
}

func TestStart_OwnedVehicleLocked(t *testing.T) {
	fake, ctx := newTestWorld(t)
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-1", UserID: testUser, VehicleID: "veh_truck",
	}))

	_, err := setup.SelectVehicle(ctx, fake, testUser, &setup.SelectVehicleRequest{VehicleID: "veh_truck"})
	require.Nil(t, err)
	_, err = setup.SelectDestination(ctx, fake, testUser, &setup.SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)

	session, sErr := fake.GetGameSession(ctx, rsp.GameSessionID)
	require.Nil(t, sErr)
	assert.Equal(t, "inst-1", session.UsedVehicleID)

	pvs, pvErr := fake.ListPlayerVehicles(ctx, testUser)
	require.Nil(t, pvErr)
	require.Len(t, pvs, 1)
	assert.True(t, pvs[0].IsInActiveSession)
}

func TestStart_PrefersUnlockedInstance(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// Two owned instances of the same model; the earliest purchase is
	// locked by an active session, so the later free one is used.
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-old", UserID: testUser, VehicleID: "veh_truck",
		PurchaseDate:      time.Now().UTC().Add(-48 * time.Hour),
		IsInActiveSession: true,
	}))
	require.Nil(t, fake.CreatePlayerVehicle(ctx, &models.PlayerVehicle{
		InstanceID: "inst-new", UserID: testUser, VehicleID: "veh_truck",
		PurchaseDate: time.Now().UTC(),
	}))

	_, err := setup.SelectVehicle(ctx, fake, testUser, &setup.SelectVehicleRequest{VehicleID: "veh_truck"})
	require.Nil(t, err)
	_, err = setup.SelectDestination(ctx, fake, testUser, &setup.SelectDestinationRequest{DestinationID: "dest_open"})
	require.Nil(t, err)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)

	session, sErr := fake.GetGameSession(ctx, rsp.GameSessionID)
	require.Nil(t, sErr)
	assert.Equal(t, "inst-new", session.UsedVehicleID)

	pvs, pvErr := fake.ListPlayerVehicles(ctx, testUser)
	require.Nil(t, pvErr)
	require.Len(t, pvs, 2)
	for _, pv := range pvs {
		assert.True(t, pv.IsInActiveSession, pv.InstanceID)
	}
}

func TestStart_SecondSessionConflicts(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 5)

	_, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)

	_, err = Start(ctx, fake, testUser, &StartRequest{})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrActiveSessionExists)
}

func TestStart_StockDriftAborts(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 10)

	// Stock drops after cargo selection but before start.
	require.Nil(t, fake.UpsertWarehouseItem(ctx, &models.WarehouseItem{
		UserID: testUser, ItemID: "item_crate", Quantity: 5,
	}))

	_, err := Start(ctx, fake, testUser, &StartRequest{})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing was written: stock intact, setup intact, no session.
	quantities, qErr := fake.GetWarehouseQuantities(ctx, testUser, []string{"item_crate"})
	require.Nil(t, qErr)
	assert.Equal(t, 5, quantities["item_crate"])

	player, pErr := fake.GetPlayer(ctx, testUser)
	require.Nil(t, pErr)
	assert.NotNil(t, player.SessionSetup)
	assert.Empty(t, player.ActiveGameSessionID)

	sessions, lErr := fake.ListGameSessions(ctx, testUser)
	require.Nil(t, lErr)
	assert.Empty(t, sessions)
}

func TestStart_IncompleteSetup(t *testing.T) {
	fake, ctx := newTestWorld(t)

	// No setup at all.
	_, err := Start(ctx, fake, testUser, &StartRequest{})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrIncompleteSetup)

	// Vehicle but no destination.
	_, selErr := setup.SelectVehicle(ctx, fake, testUser, &setup.SelectVehicleRequest{VehicleID: "veh_van"})
	require.Nil(t, selErr)
	_, err = Start(ctx, fake, testUser, &StartRequest{})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrIncompleteSetup)
}

func TestStart_CapacityExceeded(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 20)

	_, err := Start(ctx, fake, testUser, &StartRequest{})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestStart_StrictTaskConfirmation(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 10)

	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID:   "task_truck",
		Title:    "Heavy Haul",
		Mode:     "delivery",
		IsActive: true,
		Requirements: models.TaskRequirements{
			RequiredVehicleType: "truck",
		},
	}))
	accepted, acceptErr := task.Accept(ctx, fake, testUser, "task_truck")
	require.Nil(t, acceptErr)

	// The task needs a truck, the setup carries a van.
	_, err := Start(ctx, fake, testUser, &StartRequest{
		ConfirmedPlayerTaskIDs: []string{accepted.PlayerTaskID},
	})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrTaskNotConfirmable)
}

func TestStart_ConfirmedTaskLinked(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 10)

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
	accepted, acceptErr := task.Accept(ctx, fake, testUser, "task_crates")
	require.Nil(t, acceptErr)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{
		ConfirmedPlayerTaskIDs: []string{accepted.PlayerTaskID},
	})
	require.Nil(t, err)

	pt, ptErr := fake.GetPlayerTask(ctx, accepted.PlayerTaskID)
	require.Nil(t, ptErr)
	assert.Equal(t, models.TaskStatusInProgress, pt.Status)
	assert.Equal(t, rsp.GameSessionID, pt.LinkedGameSessionID)

	session, sErr := fake.GetGameSession(ctx, rsp.GameSessionID)
	require.Nil(t, sErr)
	assert.Equal(t, []string{accepted.PlayerTaskID}, session.AssociatedPlayerTaskIDs)
}

func TestStart_ConfirmedTaskNotOwned(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 10)

	require.Nil(t, fake.CreatePlayer(ctx, &models.Player{UserID: "user-2", Level: 1}))
	require.Nil(t, fake.UpsertTaskDefinition(ctx, &models.TaskDefinition{
		TaskID: "task_other", Title: "Other", Mode: "delivery", IsActive: true,
	}))
	other, acceptErr := task.Accept(ctx, fake, "user-2", "task_other")
	require.Nil(t, acceptErr)

	_, err := Start(ctx, fake, testUser, &StartRequest{
		ConfirmedPlayerTaskIDs: []string{other.PlayerTaskID},
	})
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrTaskNotConfirmable)
}

func TestStart_SnapshotImmuneToCatalogEdits(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 10)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)

	// Catalog edits after the commit must not bleed into the record.
	require.Nil(t, fake.UpsertVehicleDefinition(ctx, &models.VehicleDefinition{
		VehicleID:        "veh_van",
		Name:             "Renamed Van",
		Type:             "van",
		MaxLoadWeight:    1,
		MaxLoadVolume:    1,
		AvailabilityType: models.AvailabilityRentablePerSession,
	}))
	require.Nil(t, fake.UpsertItemDefinition(ctx, &models.ItemDefinition{
		ItemID: "item_crate", Name: "Renamed Crate", Category: "general",
		WeightPerUnit: 1, VolumePerUnit: 1, BaseValuePerUnit: 1,
	}))

	session, sErr := fake.GetGameSession(ctx, rsp.GameSessionID)
	require.Nil(t, sErr)
	assert.Equal(t, "City Van", session.VehicleSnapshot.Name)
	assert.InDelta(t, 1500.0, session.VehicleSnapshot.MaxLoadWeight, 0.001)
	require.Len(t, session.CargoSnapshot, 1)
	assert.Equal(t, "Supply Crate", session.CargoSnapshot[0].Name)
	assert.InDelta(t, 100.0, session.CargoSnapshot[0].WeightPerUnit, 0.001)
}

func TestGetSession_Ownership(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 5)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)

	view, err := GetSession(ctx, fake, testUser, rsp.GameSessionID)
	require.Nil(t, err)
	assert.Equal(t, rsp.GameSessionID, view.GameSessionID)

	_, err = GetSession(ctx, fake, "user-2", rsp.GameSessionID)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = GetSession(ctx, fake, testUser, "missing")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListSessions(t *testing.T) {
	fake, ctx := newTestWorld(t)
	buildFullSetup(t, fake, ctx, 5)

	rsp, err := Start(ctx, fake, testUser, &StartRequest{})
	require.Nil(t, err)

	views, err := ListSessions(ctx, fake, testUser)
	require.Nil(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, rsp.GameSessionID, views[0].GameSessionID)
}
