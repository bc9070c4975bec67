package models

import (
	"time"

	"github.com/jackc/pgtype"
)

// GameSession statuses. Only in_progress is non-terminal.
const (
	SessionStatusInProgress         = "in_progress"
	SessionStatusCompletedSuccess   = "completed_success"
	SessionStatusFailedCargoLost    = "completed_failed_cargo_lost"
	SessionStatusFailedTimeOut      = "completed_failed_time_out"
	SessionStatusAbandonedByPlayer  = "abandoned_by_player"
)

// VehicleSnapshot captures the vehicle definition fields at session start,
// insulating the session record from later catalog edits.
type VehicleSnapshot struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	MaxLoadWeight float64 `json:"max_load_weight"`
	MaxLoadVolume float64 `json:"max_load_volume"`
}

// CargoItemSnapshot captures one committed cargo line at session start.
type CargoItemSnapshot struct {
	ItemID           string  `json:"item_id"`
	Name             string  `json:"name"`
	Quantity         int     `json:"quantity"`
	WeightPerUnit    float64 `json:"weight_per_unit"`
	VolumePerUnit    float64 `json:"volume_per_unit"`
	BaseValuePerUnit int     `json:"base_value_per_unit"`
}

// DestinationSnapshot captures the destination fields at session start.
type DestinationSnapshot struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

/*
      Column                 |          Type           | Nullable | Default
-----------------------------+-------------------------+----------+---------
 game_session_id             | character varying(64)   | not null |
 user_id                     | character varying(64)   | not null |
 used_vehicle_id             | character varying(64)   | not null |
 vehicle_snapshot            | jsonb                   | not null |
 cargo_snapshot              | jsonb                   | not null |
 total_cargo_weight_at_start | double precision        | not null |
 total_cargo_volume_at_start | double precision        | not null |
 destination_id              | character varying(64)   | not null |
 destination_snapshot        | jsonb                   | not null |
 associated_player_task_ids  | jsonb                   |          |
 start_time                  | timestamptz             | not null |
 end_time                    | timestamptz             |          |
 status                      | character varying(48)   | not null |
 outcome_summary             | jsonb                   |          |
 updated_at                  | timestamptz             | not null | now()
*/

// GameSession is an immutable-once-created record of a play run. Only status,
// outcome_summary, and end_time change after creation, and only on session
// termination, which is owned by an external collaborator.
type GameSession struct {
	GameSessionID           string              `db:"game_session_id"`
	UserID                  string              `db:"user_id"`
	UsedVehicleID           string              `db:"used_vehicle_id"`
	VehicleSnapshot         VehicleSnapshot     `db:"vehicle_snapshot"`
	CargoSnapshot           []CargoItemSnapshot `db:"cargo_snapshot"`
	TotalCargoWeightAtStart float64             `db:"total_cargo_weight_at_start"`
	TotalCargoVolumeAtStart float64             `db:"total_cargo_volume_at_start"`
	DestinationID           string              `db:"destination_id"`
	DestinationSnapshot     DestinationSnapshot `db:"destination_snapshot"`
	AssociatedPlayerTaskIDs []string            `db:"associated_player_task_ids"`
	StartTime               time.Time           `db:"start_time"`
	EndTime                 *time.Time          `db:"end_time"`
	Status                  string              `db:"status"`
	OutcomeSummary          pgtype.JSONB        `db:"outcome_summary"`
	UpdatedAt               time.Time           `db:"updated_at"`
}

// CargoDebit is one warehouse debit applied when a session commits.
type CargoDebit struct {
	ItemID   string
	Quantity int
}

// GameSessionCommit is the validated write set applied atomically when a game
// session starts. Every field was validated by the commit engine before the
// transaction; the conditional guards in the transaction protect against
// drift between validation and write.
type GameSessionCommit struct {
	Session *GameSession

	// CargoDebits are applied with a quantity >= n guard per item.
	CargoDebits []CargoDebit

	// VehicleInstanceID, when set, is the owned vehicle instance to lock.
	VehicleInstanceID string

	// PlayerTaskIDs are linked to the session; each must still be accepted.
	PlayerTaskIDs []string

	// SetupVersion is the expected setup_version of the player row; the
	// commit aborts if the setup changed since validation.
	SetupVersion int64
}
