package gamesession

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
	"github.com/volticar/volticar/internal/gamesrv/setup"
)

// Store is the storage surface the commit engine needs. It extends the setup
// aggregate's surface because session start re-resolves the setup the same
// way the summary endpoint does. db.Database satisfies it.
type Store interface {
	setup.Store

	GetPlayerTask(ctx context.Context, playerTaskID string) (*models.PlayerTask, apperrors.Error)
	CommitGameSession(ctx context.Context, commit *models.GameSessionCommit) apperrors.Error
	GetGameSession(ctx context.Context, gameSessionID string) (*models.GameSession, apperrors.Error)
	ListGameSessions(ctx context.Context, userID string) ([]*models.GameSession, apperrors.Error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// StartRequest starts a game session from the current setup. Confirmed tasks
// are linked to the session and must be completable with the final setup.
type StartRequest struct {
	ConfirmedPlayerTaskIDs []string `json:"confirmed_player_task_ids,omitempty" validate:"omitempty,unique,dive,required"`
}

// StartResponse reports the committed session.
type StartResponse struct {
	Message       string    `json:"message"`
	GameSessionID string    `json:"game_session_id"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
}

// SessionView is a session record as returned to clients.
type SessionView struct {
	GameSessionID           string                     `json:"game_session_id"`
	UsedVehicleID           string                     `json:"used_vehicle_id"`
	VehicleSnapshot         models.VehicleSnapshot     `json:"vehicle_snapshot"`
	CargoSnapshot           []models.CargoItemSnapshot `json:"cargo_snapshot"`
	TotalCargoWeightAtStart float64                    `json:"total_cargo_weight_at_start"`
	TotalCargoVolumeAtStart float64                    `json:"total_cargo_volume_at_start"`
	DestinationID           string                     `json:"destination_id"`
	DestinationSnapshot     models.DestinationSnapshot `json:"destination_snapshot"`
	AssociatedPlayerTaskIDs []string                   `json:"associated_player_task_ids"`
	StartTime               time.Time                  `json:"start_time"`
	EndTime                 *time.Time                 `json:"end_time,omitempty"`
	Status                  string                     `json:"status"`
}

func newSessionView(session *models.GameSession) *SessionView {
	return &SessionView{
		GameSessionID:           session.GameSessionID,
		UsedVehicleID:           session.UsedVehicleID,
		VehicleSnapshot:         session.VehicleSnapshot,
		CargoSnapshot:           session.CargoSnapshot,
		TotalCargoWeightAtStart: session.TotalCargoWeightAtStart,
		TotalCargoVolumeAtStart: session.TotalCargoVolumeAtStart,
		DestinationID:           session.DestinationID,
		DestinationSnapshot:     session.DestinationSnapshot,
		AssociatedPlayerTaskIDs: session.AssociatedPlayerTaskIDs,
		StartTime:               session.StartTime,
		EndTime:                 session.EndTime,
		Status:                  session.Status,
	}
}
