package task

import (
	"context"
	"time"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// Store is the storage surface the task lifecycle needs. db.Database
// satisfies it.
type Store interface {
	GetPlayer(ctx context.Context, userID string) (*models.Player, apperrors.Error)

	GetTaskDefinition(ctx context.Context, taskID string) (*models.TaskDefinition, apperrors.Error)
	ListTaskDefinitions(ctx context.Context, mode string, activeAt *time.Time) ([]*models.TaskDefinition, apperrors.Error)

	AcceptPlayerTask(ctx context.Context, pt *models.PlayerTask) (*models.PlayerTask, apperrors.Error)
	GetPlayerTask(ctx context.Context, playerTaskID string) (*models.PlayerTask, apperrors.Error)
	ListPlayerTasks(ctx context.Context, userID string, statuses []string) ([]*models.PlayerTask, apperrors.Error)
	AbandonPlayerTask(ctx context.Context, userID, playerTaskID, fromStatus string, at time.Time) apperrors.Error
	HasCompletedTask(ctx context.Context, userID, taskID string) (bool, apperrors.Error)
}

// AvailableTask is one row of the task browse list. PlayerTaskID and
// PlayerTaskStatus are set when the player has a live record for the task.
type AvailableTask struct {
	TaskID           string                  `json:"task_id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description,omitempty"`
	Mode             string                  `json:"mode"`
	Requirements     models.TaskRequirements `json:"requirements"`
	Rewards          models.TaskRewards      `json:"rewards"`
	IsRepeatable     bool                    `json:"is_repeatable"`
	PlayerTaskID     string                  `json:"player_task_id,omitempty"`
	PlayerTaskStatus string                  `json:"player_task_status,omitempty"`
}

// AcceptResponse reports a freshly accepted task record.
type AcceptResponse struct {
	Message      string    `json:"message"`
	PlayerTaskID string    `json:"player_task_id"`
	TaskID       string    `json:"task_id"`
	Status       string    `json:"status"`
	AcceptedAt   time.Time `json:"accepted_at"`
}

// AbandonResponse confirms an abandoned task.
type AbandonResponse struct {
	Message      string `json:"message"`
	PlayerTaskID string `json:"player_task_id"`
	Status       string `json:"status"`
}
