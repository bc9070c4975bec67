package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

type fakeCatalogStore struct {
	vehicles     map[string]*models.VehicleDefinition
	items        map[string]*models.ItemDefinition
	destinations map[string]*models.Destination
	tasks        map[string]*models.TaskDefinition
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		vehicles:     map[string]*models.VehicleDefinition{},
		items:        map[string]*models.ItemDefinition{},
		destinations: map[string]*models.Destination{},
		tasks:        map[string]*models.TaskDefinition{},
	}
}

func (f *fakeCatalogStore) UpsertVehicleDefinition(_ context.Context, def *models.VehicleDefinition) apperrors.Error {
	f.vehicles[def.VehicleID] = def
	return nil
}

func (f *fakeCatalogStore) GetVehicleDefinition(_ context.Context, id string) (*models.VehicleDefinition, apperrors.Error) {
	return f.vehicles[id], nil
}

func (f *fakeCatalogStore) ListVehicleDefinitions(_ context.Context) ([]*models.VehicleDefinition, apperrors.Error) {
	return nil, nil
}

func (f *fakeCatalogStore) UpsertItemDefinition(_ context.Context, def *models.ItemDefinition) apperrors.Error {
	f.items[def.ItemID] = def
	return nil
}

func (f *fakeCatalogStore) GetItemDefinition(_ context.Context, id string) (*models.ItemDefinition, apperrors.Error) {
	return f.items[id], nil
}

func (f *fakeCatalogStore) ListItemDefinitions(_ context.Context, _ []string) (map[string]*models.ItemDefinition, apperrors.Error) {
	return f.items, nil
}

func (f *fakeCatalogStore) UpsertDestination(_ context.Context, dest *models.Destination) apperrors.Error {
	f.destinations[dest.DestinationID] = dest
	return nil
}

func (f *fakeCatalogStore) GetDestination(_ context.Context, id string) (*models.Destination, apperrors.Error) {
	return f.destinations[id], nil
}

func (f *fakeCatalogStore) ListDestinations(_ context.Context) ([]*models.Destination, apperrors.Error) {
	return nil, nil
}

func (f *fakeCatalogStore) UpsertTaskDefinition(_ context.Context, def *models.TaskDefinition) apperrors.Error {
	f.tasks[def.TaskID] = def
	return nil
}

func (f *fakeCatalogStore) GetTaskDefinition(_ context.Context, id string) (*models.TaskDefinition, apperrors.Error) {
	return f.tasks[id], nil
}

func (f *fakeCatalogStore) ListTaskDefinitions(_ context.Context, _ string, _ *time.Time) ([]*models.TaskDefinition, apperrors.Error) {
	return nil, nil
}

const vehicleSeed = `
kind: VehicleCatalog
items:
  - vehicle_id: veh_cargo_van_01
    name: City Cargo Van
    type: van
    max_load_weight: 800
    max_load_volume: 6.5
    availability_type: rentable_per_session
    rental_price_per_session: 50
  - vehicle_id: veh_box_truck_01
    name: Box Truck
    type: truck
    max_load_weight: 3500
    max_load_volume: 22
    availability_type: owned_only
    base_price: 12000
    required_level_to_unlock: 5
`

const itemSeed = `
kind: ItemCatalog
items:
  - item_id: item_battery_pack
    name: EV Battery Pack
    category: electronics
    weight_per_unit: 120
    volume_per_unit: 0.4
    base_value_per_unit: 900
    is_fragile: true
`

const destinationSeed = `
kind: DestinationCatalog
items:
  - destination_id: dest_harbor_01
    name: Harbor Depot
    region: coastal
    coordinates:
      type: Point
      coordinates: [103.851959, 1.290270]
    is_unlocked_by_default: true
`

const taskSeed = `
kind: TaskCatalog
items:
  - task_id: task_first_delivery
    title: First Delivery
    mode: delivery
    requirements:
      deliver_items:
        - item_id: item_battery_pack
          quantity: 2
      destination_id: dest_harbor_01
    rewards:
      experience_points: 100
      currency: 50
    is_active: true
`

func writeSeedFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadSeedDir(t *testing.T) {
	ctx := context.Background()
	store := newFakeCatalogStore()

	dir := writeSeedFiles(t, map[string]string{
		"vehicles.yaml":     vehicleSeed,
		"items.yaml":        itemSeed,
		"destinations.yaml": destinationSeed,
		"tasks.yaml":        taskSeed,
		"notes.txt":         "ignored",
	})

	summary, err := LoadSeedDir(ctx, store, dir)
	require.Nil(t, err)
	assert.Equal(t, 2, summary.Vehicles)
	assert.Equal(t, 1, summary.Items)
	assert.Equal(t, 1, summary.Destinations)
	assert.Equal(t, 1, summary.Tasks)

	van := store.vehicles["veh_cargo_van_01"]
	require.NotNil(t, van)
	assert.Equal(t, "City Cargo Van", van.Name)
	assert.Equal(t, models.AvailabilityRentablePerSession, van.AvailabilityType)
	assert.InDelta(t, 800.0, van.MaxLoadWeight, 0.001)

	task := store.tasks["task_first_delivery"]
	require.NotNil(t, task)
	require.Len(t, task.Requirements.DeliverItems, 1)
	assert.Equal(t, "item_battery_pack", task.Requirements.DeliverItems[0].ItemID)
	assert.Equal(t, 100, task.Rewards.ExperiencePoints)

	dest := store.destinations["dest_harbor_01"]
	require.NotNil(t, dest)
	assert.Equal(t, "Point", dest.Coordinates.Type)
	require.Len(t, dest.Coordinates.Coordinates, 2)
}

func TestLoadSeedDir_InvalidFileAbortsLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeCatalogStore()

	// Missing required max_load_weight.
	badSeed := `
kind: VehicleCatalog
items:
  - vehicle_id: veh_bad
    name: Bad Vehicle
    type: van
    max_load_volume: 6.5
    availability_type: rentable_per_session
`
	dir := writeSeedFiles(t, map[string]string{
		"bad.yaml":   badSeed,
		"items.yaml": itemSeed,
	})

	_, err := LoadSeedDir(ctx, store, dir)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrInvalidSeed)

	// Nothing was written.
	assert.Empty(t, store.vehicles)
	assert.Empty(t, store.items)
}

func TestLoadSeedDir_UnknownKind(t *testing.T) {
	ctx := context.Background()
	store := newFakeCatalogStore()

	dir := writeSeedFiles(t, map[string]string{
		"weird.yaml": "kind: WeirdCatalog\nitems: []\n",
	})

	_, err := LoadSeedDir(ctx, store, dir)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}
