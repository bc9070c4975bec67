package setup

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// Store is the storage surface the setup aggregate needs. db.Database
// satisfies it.
type Store interface {
	GetPlayer(ctx context.Context, userID string) (*models.Player, apperrors.Error)
	UpdateSessionSetup(ctx context.Context, userID string, setup *models.SessionSetup, expectedVersion int64) (int64, apperrors.Error)

	GetVehicleDefinition(ctx context.Context, vehicleID string) (*models.VehicleDefinition, apperrors.Error)
	ListVehicleDefinitions(ctx context.Context) ([]*models.VehicleDefinition, apperrors.Error)
	GetPlayerVehicleByDefinition(ctx context.Context, userID, vehicleID string) (*models.PlayerVehicle, apperrors.Error)
	ListPlayerVehicles(ctx context.Context, userID string) ([]*models.PlayerVehicle, apperrors.Error)

	GetDestination(ctx context.Context, destinationID string) (*models.Destination, apperrors.Error)
	ListDestinations(ctx context.Context) ([]*models.Destination, apperrors.Error)

	ListItemDefinitions(ctx context.Context, itemIDs []string) (map[string]*models.ItemDefinition, apperrors.Error)
	GetWarehouseQuantities(ctx context.Context, userID string, itemIDs []string) (map[string]int, apperrors.Error)
	ListWarehouseItems(ctx context.Context, userID string) ([]*models.WarehouseItem, apperrors.Error)

	ListPlayerTasks(ctx context.Context, userID string, statuses []string) ([]*models.PlayerTask, apperrors.Error)
	GetTaskDefinition(ctx context.Context, taskID string) (*models.TaskDefinition, apperrors.Error)
	HasCompletedTask(ctx context.Context, userID, taskID string) (bool, apperrors.Error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SelectVehicleRequest selects the vehicle for the session being set up.
type SelectVehicleRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
}

// VehicleSummary is the selected vehicle echoed back in responses.
type VehicleSummary struct {
	VehicleID     string  `json:"vehicle_id"`
	Name          string  `json:"name"`
	MaxLoadWeight float64 `json:"max_load_weight"`
	MaxLoadVolume float64 `json:"max_load_volume"`
}

// SelectVehicleResponse reports the vehicle selection. ClearedCargo is always
// true: selecting a vehicle unconditionally resets the cargo selection, so
// the report does not depend on prior state.
type SelectVehicleResponse struct {
	Message         string         `json:"message"`
	SelectedVehicle VehicleSummary `json:"selected_vehicle"`
	ClearedCargo    bool           `json:"cleared_cargo"`
}

// CargoItemSelection is one requested cargo line.
type CargoItemSelection struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// SelectCargoRequest replaces the cargo selection wholesale. An empty list
// clears the selection.
type SelectCargoRequest struct {
	Items []CargoItemSelection `json:"items" validate:"dive"`
}

// CargoItemReport is the per-item validation result of a cargo selection.
type CargoItemReport struct {
	ItemID               string  `json:"item_id"`
	Name                 string  `json:"name"`
	SelectedQuantity     int     `json:"selected_quantity"`
	AvailableInWarehouse int     `json:"available_in_warehouse"`
	SufficientQuantity   bool    `json:"sufficient_quantity"`
	WeightPerUnit        float64 `json:"weight_per_unit"`
	VolumePerUnit        float64 `json:"volume_per_unit"`
	BaseValuePerUnit     int     `json:"base_value_per_unit"`
}

// CargoReport summarizes a cargo selection against warehouse stock and the
// selected vehicle's capacity.
type CargoReport struct {
	Items           []CargoItemReport `json:"items"`
	TotalWeight     float64           `json:"total_weight"`
	TotalVolume     float64           `json:"total_volume"`
	WeightOK        bool              `json:"weight_ok"`
	VolumeOK        bool              `json:"volume_ok"`
	ExceedsWeightBy float64           `json:"exceeds_weight_by,omitempty"`
	ExceedsVolumeBy float64           `json:"exceeds_volume_by,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// SelectCargoResponse reports the stored cargo selection. The selection is
// stored even when the report carries warnings; the hard failure happens at
// session start.
type SelectCargoResponse struct {
	Message              string      `json:"message"`
	SelectedCargoSummary CargoReport `json:"selected_cargo_summary"`
}

// SelectDestinationRequest selects the destination for the session.
type SelectDestinationRequest struct {
	DestinationID string `json:"destination_id" validate:"required"`
}

// DestinationSummary is the selected destination echoed back in responses.
type DestinationSummary struct {
	DestinationID string `json:"destination_id"`
	Name          string `json:"name"`
	Region        string `json:"region"`
}

// SelectDestinationResponse reports the destination selection.
type SelectDestinationResponse struct {
	Message             string             `json:"message"`
	SelectedDestination DestinationSummary `json:"selected_destination"`
}

// SummaryCargoItem is one cargo line in the session summary.
type SummaryCargoItem struct {
	ItemID        string  `json:"item_id"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	WeightPerUnit float64 `json:"weight_per_unit"`
	VolumePerUnit float64 `json:"volume_per_unit"`
}

// SummaryCargo aggregates the selected cargo in the session summary.
type SummaryCargo struct {
	Items       []SummaryCargoItem `json:"items"`
	TotalWeight float64            `json:"total_weight"`
	TotalVolume float64            `json:"total_volume"`
}

// SessionSummary is the resolved state of the current setup.
type SessionSummary struct {
	SelectedVehicle     *VehicleSummary     `json:"selected_vehicle,omitempty"`
	SelectedCargo       *SummaryCargo       `json:"selected_cargo,omitempty"`
	SelectedDestination *DestinationSummary `json:"selected_destination,omitempty"`
}

// RelatedTaskSummary reports an accepted task's completability against the
// current setup.
type RelatedTaskSummary struct {
	PlayerTaskID                  string   `json:"player_task_id"`
	TaskID                        string   `json:"task_id"`
	Title                         string   `json:"title"`
	Status                        string   `json:"status"`
	IsCompletableWithCurrentSetup bool     `json:"is_completable_with_current_setup"`
	CompletionIssues              []string `json:"completion_issues"`
}

// SummaryResponse is the full pre-start summary.
type SummaryResponse struct {
	SessionSummary    SessionSummary       `json:"session_summary"`
	RelatedTasks      []RelatedTaskSummary `json:"related_tasks"`
	CanStartGame      bool                 `json:"can_start_game"`
	StartGameWarnings []string             `json:"start_game_warnings"`
}

// Selectable vehicle statuses in browse responses.
const (
	VehicleStatusOwned    = "owned"
	VehicleStatusInUse    = "in_use"
	VehicleStatusRentable = "rentable"
)

// SelectableVehicle is one row of the vehicle browse list.
type SelectableVehicle struct {
	VehicleID       string  `json:"vehicle_id"`
	PlayerVehicleID string  `json:"player_vehicle_id,omitempty"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	MaxLoadWeight   float64 `json:"max_load_weight"`
	MaxLoadVolume   float64 `json:"max_load_volume"`
	Status          string  `json:"status"`
}

// WarehouseItemDetail is one row of the warehouse browse list, the warehouse
// ledger joined with the item definition.
type WarehouseItemDetail struct {
	ItemID              string    `json:"item_id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	Category            string    `json:"category"`
	WeightPerUnit       float64   `json:"weight_per_unit"`
	VolumePerUnit       float64   `json:"volume_per_unit"`
	BaseValuePerUnit    int       `json:"base_value_per_unit"`
	IsFragile           bool      `json:"is_fragile"`
	IsPerishable        bool      `json:"is_perishable"`
	QuantityInWarehouse int       `json:"quantity_in_warehouse"`
	UpdatedAt           time.Time `json:"updated_at"`
}
