package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/common/uuid"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// AcceptPlayerTask records a task acceptance. The whole decision runs in one
// transaction under a per-player advisory lock so two concurrent accepts of
// the same task serialize:
//   - a non-terminal record for the same (player, task) fails with
//     ErrAlreadyExists
//   - the latest abandoned record is reset in place, keeping its
//     player_task_id
//   - otherwise a new record is inserted
func (tm *taskManager) AcceptPlayerTask(ctx context.Context, pt *models.PlayerTask) (result *models.PlayerTask, err apperrors.Error) {
	if pt == nil || pt.UserID == "" {
		return nil, dberror.ErrMissingUserID
	}
	if pt.TaskID == "" {
		return nil, dberror.ErrInvalidInput.Msg("task ID is required")
	}

	tx, errDb := tm.conn().BeginTx(ctx, &sql.TxOptions{})
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to start transaction")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Serialize task lifecycle writes per player.
	if _, errDb := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pt.UserID); errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to take advisory lock")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	// A live record for the same task blocks the accept.
	var liveID string
	errDb = tx.QueryRowContext(ctx, `
		SELECT player_task_id FROM player_tasks
		WHERE user_id = $1 AND task_id = $2 AND status IN ($3, $4)
		LIMIT 1;
	`, pt.UserID, pt.TaskID, models.TaskStatusAccepted, models.TaskStatusInProgress).Scan(&liveID)
	if errDb == nil {
		return nil, dberror.ErrAlreadyExists.Msg("task already accepted")
	}
	if errDb != sql.ErrNoRows {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to check for live task record")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	now := pt.AcceptedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Reuse the latest abandoned record if one exists.
	var reusedID string
	errDb = tx.QueryRowContext(ctx, `
		UPDATE player_tasks
		SET status = $3,
		    accepted_at = $4,
		    linked_game_session_id = NULL,
		    progress = NULL,
		    abandoned_at = NULL,
		    updated_at = NOW()
		WHERE player_task_id = (
			SELECT player_task_id FROM player_tasks
			WHERE user_id = $1 AND task_id = $2 AND status = $5
			ORDER BY abandoned_at DESC NULLS LAST
			LIMIT 1
		)
		RETURNING player_task_id;
	`, pt.UserID, pt.TaskID, models.TaskStatusAccepted, now, models.TaskStatusAbandoned).Scan(&reusedID)
	if errDb == nil {
		if errDb := tx.Commit(); errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Msg("failed to commit transaction")
			return nil, dberror.ErrDatabase.Err(errDb)
		}
		return &models.PlayerTask{
			PlayerTaskID: reusedID,
			UserID:       pt.UserID,
			TaskID:       pt.TaskID,
			Status:       models.TaskStatusAccepted,
			AcceptedAt:   now,
			UpdatedAt:    now,
		}, nil
	}
	if errDb != sql.ErrNoRows {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to reuse abandoned task record")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	// Fresh acceptance.
	if pt.PlayerTaskID == "" {
		pt.PlayerTaskID = uuid.NewString()
	}
	_, errDb = tx.ExecContext(ctx, `
		INSERT INTO player_tasks (player_task_id, user_id, task_id, status, accepted_at)
		VALUES ($1, $2, $3, $4, $5);
	`, pt.PlayerTaskID, pt.UserID, pt.TaskID, models.TaskStatusAccepted, now)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("task_id", pt.TaskID).Msg("failed to insert player task")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	if errDb := tx.Commit(); errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to commit transaction")
		return nil, dberror.ErrDatabase.Err(errDb)
	}
	return &models.PlayerTask{
		PlayerTaskID: pt.PlayerTaskID,
		UserID:       pt.UserID,
		TaskID:       pt.TaskID,
		Status:       models.TaskStatusAccepted,
		AcceptedAt:   now,
		UpdatedAt:    now,
	}, nil
}

func scanPlayerTask(scan func(...any) error) (*models.PlayerTask, error) {
	pt := &models.PlayerTask{}
	if err := scan(
		&pt.PlayerTaskID, &pt.UserID, &pt.TaskID, &pt.Status, &pt.AcceptedAt,
		&pt.LinkedGameSessionID, &pt.Progress, &pt.CompletedAt, &pt.FailedAt,
		&pt.AbandonedAt, &pt.UpdatedAt); err != nil {
		return nil, err
	}
	return pt, nil
}

const playerTaskColumns = `
	player_task_id, user_id, task_id, status, accepted_at,
	COALESCE(linked_game_session_id, ''), progress, completed_at, failed_at,
	abandoned_at, updated_at`

// GetPlayerTask retrieves a player task record by ID.
func (tm *taskManager) GetPlayerTask(ctx context.Context, playerTaskID string) (*models.PlayerTask, apperrors.Error) {
	query := `SELECT ` + playerTaskColumns + ` FROM player_tasks WHERE player_task_id = $1;`
	row := tm.conn().QueryRowContext(ctx, query, playerTaskID)
	pt, err := scanPlayerTask(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("player task not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("player_task_id", playerTaskID).Msg("failed to get player task")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return pt, nil
}

// ListPlayerTasks retrieves a player's task records, optionally filtered to
// the given statuses, newest acceptance first.
func (tm *taskManager) ListPlayerTasks(ctx context.Context, userID string, statuses []string) ([]*models.PlayerTask, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}

	query := `
		SELECT ` + playerTaskColumns + `
		FROM player_tasks
		WHERE user_id = $1 AND (cardinality($2::text[]) = 0 OR status = ANY($2))
		ORDER BY accepted_at DESC;
	`
	rows, err := tm.conn().QueryContext(ctx, query, userID, pq.Array(statuses))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to list player tasks")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var pts []*models.PlayerTask
	for rows.Next() {
		pt, err := scanPlayerTask(rows.Scan)
		if err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		pts = append(pts, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return pts, nil
}

// AbandonPlayerTask marks a record abandoned. The update is guarded on the
// status the caller validated against; if the record moved in the meantime
// the call fails with ErrVersionConflict.
func (tm *taskManager) AbandonPlayerTask(ctx context.Context, userID, playerTaskID, fromStatus string, at time.Time) apperrors.Error {
	if userID == "" {
		return dberror.ErrMissingUserID
	}

	query := `
		UPDATE player_tasks
		SET status = $4,
		    abandoned_at = $5,
		    linked_game_session_id = NULL,
		    updated_at = NOW()
		WHERE player_task_id = $1 AND user_id = $2 AND status = $3;
	`
	res, err := tm.conn().ExecContext(ctx, query, playerTaskID, userID, fromStatus, models.TaskStatusAbandoned, at)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("player_task_id", playerTaskID).Msg("failed to abandon player task")
		return dberror.ErrDatabase.Err(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	if affected == 0 {
		return dberror.ErrVersionConflict.Msg("task status changed concurrently")
	}
	return nil
}

// HasCompletedTask reports whether the player has any completed record for
// the given task definition.
func (tm *taskManager) HasCompletedTask(ctx context.Context, userID, taskID string) (bool, apperrors.Error) {
	if userID == "" {
		return false, dberror.ErrMissingUserID
	}

	var exists bool
	err := tm.conn().QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM player_tasks
			WHERE user_id = $1 AND task_id = $2 AND status = $3
		);
	`, userID, taskID, models.TaskStatusCompleted).Scan(&exists)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("task_id", taskID).Msg("failed to check completed task")
		return false, dberror.ErrDatabase.Err(err)
	}
	return exists, nil
}
