package models

import (
	"time"
)

// CargoSelection is one line of the cargo selection in a session setup.
type CargoSelection struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// SessionSetup is a player's in-progress selection preceding a game session.
// It is stored as a JSONB document on the player row and versioned by
// Player.SetupVersion. A nil SessionSetup means the player never initialized
// a setup, which is distinct from a setup with no selections.
type SessionSetup struct {
	SelectedVehicleID     string           `json:"selected_vehicle_id,omitempty"`
	SelectedCargo         []CargoSelection `json:"selected_cargo,omitempty"`
	SelectedDestinationID string           `json:"selected_destination_id,omitempty"`
	LastUpdatedAt         time.Time        `json:"last_updated_at"`
}

/*
      Column            |          Type           | Nullable | Default
------------------------+-------------------------+----------+---------
 user_id                | character varying(64)   | not null |
 display_name           | character varying(128)  | not null |
 level                  | integer                 | not null | 1
 experience             | integer                 | not null | 0
 currency               | integer                 | not null | 0
 active_game_session_id | character varying(64)   |          |
 session_setup          | jsonb                   |          |
 setup_version          | bigint                  | not null | 0
 created_at             | timestamptz             | not null | now()
 updated_at             | timestamptz             | not null | now()
*/

// Player is the per-player root record. The session setup aggregate is
// embedded here; setup_version increments on every setup mutation and is the
// optimistic-concurrency token for the aggregate.
type Player struct {
	UserID              string        `db:"user_id"`
	DisplayName         string        `db:"display_name"`
	Level               int           `db:"level"`
	Experience          int           `db:"experience"`
	Currency            int           `db:"currency"`
	ActiveGameSessionID string        `db:"active_game_session_id"`
	SessionSetup        *SessionSetup `db:"session_setup"`
	SetupVersion        int64         `db:"setup_version"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at"`
}

/*
      Column          |          Type           | Nullable | Default
----------------------+-------------------------+----------+---------
 instance_id          | character varying(64)   | not null |
 user_id              | character varying(64)   | not null |
 vehicle_id           | character varying(64)   | not null |
 vehicle_name         | character varying(128)  |          |
 purchase_date        | timestamptz             | not null | now()
 current_condition    | double precision        | not null | 1.0
 is_in_active_session | boolean                 | not null | false
 created_at           | timestamptz             | not null | now()
 updated_at           | timestamptz             | not null | now()
*/

// PlayerVehicle is a vehicle instance owned by exactly one player.
// is_in_active_session locks the instance while a game session uses it.
type PlayerVehicle struct {
	InstanceID        string    `db:"instance_id"`
	UserID            string    `db:"user_id"`
	VehicleID         string    `db:"vehicle_id"`
	VehicleName       string    `db:"vehicle_name"`
	PurchaseDate      time.Time `db:"purchase_date"`
	CurrentCondition  float64   `db:"current_condition"`
	IsInActiveSession bool      `db:"is_in_active_session"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

/*
    Column     |          Type         | Nullable | Default
---------------+-----------------------+----------+---------
 user_id       | character varying(64) | not null |
 item_id       | character varying(64) | not null |
 quantity      | integer               | not null | 0, CHECK (quantity >= 0)
 updated_at    | timestamptz           | not null | now()

 UNIQUE (user_id, item_id)
*/

// WarehouseItem is a player's held quantity of one item type. Keyed uniquely
// by (user_id, item_id); quantity never goes below zero.
type WarehouseItem struct {
	UserID    string    `db:"user_id"`
	ItemID    string    `db:"item_id"`
	Quantity  int       `db:"quantity"`
	UpdatedAt time.Time `db:"updated_at"`
}
