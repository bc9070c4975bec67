package models

import (
	"time"

	"github.com/jackc/pgtype"
)

// PlayerTask statuses. Completed and failed are terminal.
const (
	TaskStatusAccepted   = "accepted"
	TaskStatusInProgress = "in_progress_linked_to_session"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
	TaskStatusAbandoned  = "abandoned"
)

// TaskStatusTerminal reports whether the given status is terminal.
func TaskStatusTerminal(status string) bool {
	return status == TaskStatusCompleted || status == TaskStatusFailed
}

/*
      Column            |          Type           | Nullable | Default
------------------------+-------------------------+----------+---------
 player_task_id         | character varying(64)   | not null |
 user_id                | character varying(64)   | not null |
 task_id                | character varying(64)   | not null |
 status                 | character varying(48)   | not null |
 accepted_at            | timestamptz             | not null | now()
 linked_game_session_id | character varying(64)   |          |
 progress               | jsonb                   |          |
 completed_at           | timestamptz             |          |
 failed_at              | timestamptz             |          |
 abandoned_at           | timestamptz             |          |
 updated_at             | timestamptz             | not null | now()
*/

// PlayerTask is a player's personal acceptance record of a TaskDefinition,
// with its own lifecycle independent of the definition. Re-accepting a task
// the player previously abandoned reuses the abandoned record in place rather
// than inserting a new one.
type PlayerTask struct {
	PlayerTaskID        string       `db:"player_task_id"`
	UserID              string       `db:"user_id"`
	TaskID              string       `db:"task_id"`
	Status              string       `db:"status"`
	AcceptedAt          time.Time    `db:"accepted_at"`
	LinkedGameSessionID string       `db:"linked_game_session_id"`
	Progress            pgtype.JSONB `db:"progress"`
	CompletedAt         *time.Time   `db:"completed_at"`
	FailedAt            *time.Time   `db:"failed_at"`
	AbandonedAt         *time.Time   `db:"abandoned_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
}
