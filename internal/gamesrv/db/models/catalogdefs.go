// Package models defines the persistence models for the game server. Catalog
// definitions are immutable reference data shared by all players; player
// records and game sessions are mutated only through the manager interfaces
// in the db package.
package models

import (
	"time"
)

// Vehicle availability types.
const (
	AvailabilityOwnedOnly           = "owned_only"
	AvailabilityRentablePerSession  = "rentable_per_session"
	AvailabilityPurchasableRentable = "purchasable_rentable"
)

/*
      Column             |          Type           | Nullable |  Default
-------------------------+-------------------------+----------+-----------
 vehicle_id              | character varying(64)   | not null |
 name                    | character varying(128)  | not null |
 type                    | character varying(64)   | not null |
 description             | character varying(1024) |          |
 max_load_weight         | double precision        | not null |
 max_load_volume         | double precision        | not null |
 base_price              | integer                 |          |
 rental_price_per_session| integer                 |          |
 availability_type       | character varying(32)   | not null |
 required_level_to_unlock| integer                 | not null | 1
 created_at              | timestamptz             | not null | now()
 updated_at              | timestamptz             | not null | now()
*/

// VehicleDefinition is an immutable catalog entry describing a vehicle model.
type VehicleDefinition struct {
	VehicleID             string    `db:"vehicle_id" json:"vehicle_id"`
	Name                  string    `db:"name" json:"name"`
	Type                  string    `db:"type" json:"type"`
	Description           string    `db:"description" json:"description,omitempty"`
	MaxLoadWeight         float64   `db:"max_load_weight" json:"max_load_weight"`
	MaxLoadVolume         float64   `db:"max_load_volume" json:"max_load_volume"`
	BasePrice             int       `db:"base_price" json:"base_price,omitempty"`
	RentalPricePerSession int       `db:"rental_price_per_session" json:"rental_price_per_session,omitempty"`
	AvailabilityType      string    `db:"availability_type" json:"availability_type"`
	RequiredLevelToUnlock int       `db:"required_level_to_unlock" json:"required_level_to_unlock"`
	CreatedAt             time.Time `db:"created_at" json:"-"`
	UpdatedAt             time.Time `db:"updated_at" json:"-"`
}

// RequiresOwnership reports whether the vehicle model can only be used by
// players who own an instance of it.
func (v *VehicleDefinition) RequiresOwnership() bool {
	return v.AvailabilityType == AvailabilityOwnedOnly
}

// Rentable reports whether the vehicle model can be used without ownership.
func (v *VehicleDefinition) Rentable() bool {
	return v.AvailabilityType == AvailabilityRentablePerSession ||
		v.AvailabilityType == AvailabilityPurchasableRentable
}

/*
    Column          |          Type           | Nullable | Default
--------------------+-------------------------+----------+---------
 item_id            | character varying(64)   | not null |
 name               | character varying(128)  | not null |
 description        | character varying(1024) |          |
 category           | character varying(64)   | not null |
 weight_per_unit    | double precision        | not null |
 volume_per_unit    | double precision        | not null |
 base_value_per_unit| integer                 | not null |
 is_fragile         | boolean                 | not null | false
 is_perishable      | boolean                 | not null | false
*/

// ItemDefinition is an immutable catalog entry describing a cargo item type.
type ItemDefinition struct {
	ItemID           string    `db:"item_id" json:"item_id"`
	Name             string    `db:"name" json:"name"`
	Description      string    `db:"description" json:"description,omitempty"`
	Category         string    `db:"category" json:"category"`
	WeightPerUnit    float64   `db:"weight_per_unit" json:"weight_per_unit"`
	VolumePerUnit    float64   `db:"volume_per_unit" json:"volume_per_unit"`
	BaseValuePerUnit int       `db:"base_value_per_unit" json:"base_value_per_unit"`
	IsFragile        bool      `db:"is_fragile" json:"is_fragile"`
	IsPerishable     bool      `db:"is_perishable" json:"is_perishable"`
	CreatedAt        time.Time `db:"created_at" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"-"`
}

// GeoCoordinates holds a destination position as [longitude, latitude].
type GeoCoordinates struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// DestinationUnlockRequirements gates destination selection. Either field may
// be unset; a destination with is_unlocked_by_default needs neither.
type DestinationUnlockRequirements struct {
	RequiredPlayerLevel     int    `json:"required_player_level,omitempty"`
	RequiredCompletedTaskID string `json:"required_completed_task_id,omitempty"`
}

/*
      Column          |          Type           | Nullable | Default
----------------------+-------------------------+----------+---------
 destination_id       | character varying(64)   | not null |
 name                 | character varying(128)  | not null |
 description          | character varying(1024) |          |
 region               | character varying(128)  | not null |
 coordinates          | jsonb                   | not null |
 is_unlocked_by_default| boolean                | not null | true
 unlock_requirements  | jsonb                   |          |
 available_services   | jsonb                   |          |
*/

// Destination is an immutable catalog entry describing a delivery endpoint.
type Destination struct {
	DestinationID       string                         `db:"destination_id" json:"destination_id"`
	Name                string                         `db:"name" json:"name"`
	Description         string                         `db:"description" json:"description,omitempty"`
	Region              string                         `db:"region" json:"region"`
	Coordinates         GeoCoordinates                 `db:"coordinates" json:"coordinates"`
	IsUnlockedByDefault bool                           `db:"is_unlocked_by_default" json:"is_unlocked_by_default"`
	UnlockRequirements  *DestinationUnlockRequirements `db:"unlock_requirements" json:"unlock_requirements,omitempty"`
	AvailableServices   []string                       `db:"available_services" json:"available_services,omitempty"`
	CreatedAt           time.Time                      `db:"created_at" json:"-"`
	UpdatedAt           time.Time                      `db:"updated_at" json:"-"`
}

// TaskDeliverItem is a single item+quantity entry in a task's delivery list.
type TaskDeliverItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// TaskRequirements describes what a player must satisfy to complete a task.
type TaskRequirements struct {
	RequiredPlayerLevel int               `json:"required_player_level,omitempty"`
	DeliverItems        []TaskDeliverItem `json:"deliver_items,omitempty"`
	PickupLocationID    string            `json:"pickup_location_id,omitempty"`
	DestinationID       string            `json:"destination_id,omitempty"`
	RequiredVehicleType string            `json:"required_vehicle_type,omitempty"`
	TimeLimitSeconds    int               `json:"time_limit_seconds,omitempty"`
	MinCargoValue       int               `json:"min_cargo_value,omitempty"`
}

// TaskRewardItem is a single item grant in a task's reward set.
type TaskRewardItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// TaskRewards describes what a player earns on task completion.
type TaskRewards struct {
	ExperiencePoints     int              `json:"experience_points"`
	Currency             int              `json:"currency,omitempty"`
	ItemRewards          []TaskRewardItem `json:"item_rewards,omitempty"`
	UnlockVehicleIDs     []string         `json:"unlock_vehicle_ids,omitempty"`
	UnlockDestinationIDs []string         `json:"unlock_destination_ids,omitempty"`
}

/*
      Column            |          Type           | Nullable | Default
------------------------+-------------------------+----------+---------
 task_id                | character varying(64)   | not null |
 title                  | character varying(256)  | not null |
 description            | character varying(2048) |          |
 mode                   | character varying(64)   | not null |
 requirements           | jsonb                   | not null |
 rewards                | jsonb                   | not null |
 is_repeatable          | boolean                 | not null | false
 repeat_cooldown_hours  | integer                 |          |
 availability_start_date| timestamptz             |          |
 availability_end_date  | timestamptz             |          |
 prerequisite_task_ids  | jsonb                   |          |
 is_active              | boolean                 | not null | true
*/

// TaskDefinition is an immutable catalog entry describing a delivery task.
// is_active and the availability window gate visibility; both are evaluated
// lazily at read time.
type TaskDefinition struct {
	TaskID                string           `db:"task_id" json:"task_id"`
	Title                 string           `db:"title" json:"title"`
	Description           string           `db:"description" json:"description,omitempty"`
	Mode                  string           `db:"mode" json:"mode"`
	Requirements          TaskRequirements `db:"requirements" json:"requirements"`
	Rewards               TaskRewards      `db:"rewards" json:"rewards"`
	IsRepeatable          bool             `db:"is_repeatable" json:"is_repeatable"`
	RepeatCooldownHours   int              `db:"repeat_cooldown_hours" json:"repeat_cooldown_hours,omitempty"`
	AvailabilityStartDate *time.Time       `db:"availability_start_date" json:"availability_start_date,omitempty"`
	AvailabilityEndDate   *time.Time       `db:"availability_end_date" json:"availability_end_date,omitempty"`
	PrerequisiteTaskIDs   []string         `db:"prerequisite_task_ids" json:"prerequisite_task_ids,omitempty"`
	IsActive              bool             `db:"is_active" json:"is_active"`
	CreatedAt             time.Time        `db:"created_at" json:"-"`
	UpdatedAt             time.Time        `db:"updated_at" json:"-"`
}

// AvailableAt reports whether the task is active and within its availability
// window at the given instant.
func (t *TaskDefinition) AvailableAt(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.AvailabilityStartDate != nil && now.Before(*t.AvailabilityStartDate) {
		return false
	}
	if t.AvailabilityEndDate != nil && now.After(*t.AvailabilityEndDate) {
		return false
	}
	return true
}
