package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

const (
	pgSerializationFailure = "40001"
	commitRetryAttempts    = 3
)

// isSerializationFailure reports whether the error is a transient transaction
// conflict worth retrying.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgSerializationFailure
	}
	return false
}

// CommitGameSession applies the validated write set of a session start in one
// transaction. The caller validated against a snapshot; every write here is
// guarded so drift between validation and commit aborts the transaction
// rather than corrupting state:
//   - setup_version on the player row must match the validated version
//   - active_game_session_id must still be NULL
//   - every cargo debit requires quantity >= n
//   - the owned vehicle, when used, must not be locked by another session
//   - every linked task must still be in accepted status
//
// Serialization failures are retried a bounded number of times; guard
// failures are not retried since the validated snapshot is stale.
func (gm *sessionManager) CommitGameSession(ctx context.Context, commit *models.GameSessionCommit) apperrors.Error {
	if commit == nil || commit.Session == nil {
		return dberror.ErrInvalidInput.Msg("commit requires a session")
	}
	if commit.Session.UserID == "" {
		return dberror.ErrMissingUserID
	}

	err := retry.Do(
		func() error {
			return gm.commitOnce(ctx, commit)
		},
		retry.Attempts(commitRetryAttempts),
		retry.Delay(10*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(isSerializationFailure),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Uint("attempt", n+1).Err(err).Msg("retrying session commit after serialization failure")
		}),
	)
	if err != nil {
		if appErr, ok := err.(apperrors.Error); ok {
			return appErr
		}
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (gm *sessionManager) commitOnce(ctx context.Context, commit *models.GameSessionCommit) (err error) {
	session := commit.Session

	tx, errDb := gm.conn().BeginTx(ctx, &sql.TxOptions{})
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to start transaction")
		return dberror.ErrDatabase.Err(errDb)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
				log.Ctx(ctx).Error().Err(rollbackErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Serialize session starts per player.
	if _, errDb := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, session.UserID); errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to take advisory lock")
		return dberror.ErrDatabase.Err(errDb)
	}

	// Player row guards: no active session, setup unchanged since validation.
	var activeSessionID sql.NullString
	var setupVersion int64
	errDb = tx.QueryRowContext(ctx, `
		SELECT active_game_session_id, setup_version
		FROM players
		WHERE user_id = $1
		FOR UPDATE;
	`, session.UserID).Scan(&activeSessionID, &setupVersion)
	if errDb != nil {
		if errDb == sql.ErrNoRows {
			return dberror.ErrNotFound.Msg("player not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to lock player row")
		return errDb
	}
	if activeSessionID.Valid && activeSessionID.String != "" {
		return dberror.ErrActiveSession
	}
	if setupVersion != commit.SetupVersion {
		return dberror.ErrVersionConflict.Msg("session setup was modified concurrently")
	}

	// Conditional cargo debits. A zero-row update means stock dropped below
	// the validated quantity.
	for _, debit := range commit.CargoDebits {
		res, errDb := tx.ExecContext(ctx, `
			UPDATE warehouse_items
			SET quantity = quantity - $3, updated_at = NOW()
			WHERE user_id = $1 AND item_id = $2 AND quantity >= $3;
		`, session.UserID, debit.ItemID, debit.Quantity)
		if errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("item_id", debit.ItemID).Msg("failed to debit warehouse item")
			return errDb
		}
		affected, errDb := res.RowsAffected()
		if errDb != nil {
			return dberror.ErrDatabase.Err(errDb)
		}
		if affected == 0 {
			return dberror.ErrInsufficientStock.Msg("insufficient stock for item " + debit.ItemID)
		}
	}

	// Lock the owned vehicle instance, when one is used.
	if commit.VehicleInstanceID != "" {
		res, errDb := tx.ExecContext(ctx, `
			UPDATE player_vehicles
			SET is_in_active_session = true, updated_at = NOW()
			WHERE instance_id = $1 AND user_id = $2 AND NOT is_in_active_session;
		`, commit.VehicleInstanceID, session.UserID)
		if errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("instance_id", commit.VehicleInstanceID).Msg("failed to lock vehicle instance")
			return errDb
		}
		affected, errDb := res.RowsAffected()
		if errDb != nil {
			return dberror.ErrDatabase.Err(errDb)
		}
		if affected == 0 {
			return dberror.ErrGuardFailed.Msg("vehicle is already in an active session")
		}
	}

	// Insert the session record with its immutable snapshots.
	vehicleSnapshot, errJson := marshalJSONB(session.VehicleSnapshot)
	if errJson != nil {
		return dberror.ErrInvalidInput.Err(errJson)
	}
	cargoSnapshot, errJson := marshalJSONB(session.CargoSnapshot)
	if errJson != nil {
		return dberror.ErrInvalidInput.Err(errJson)
	}
	destinationSnapshot, errJson := marshalJSONB(session.DestinationSnapshot)
	if errJson != nil {
		return dberror.ErrInvalidInput.Err(errJson)
	}
	var taskIDs any
	if session.AssociatedPlayerTaskIDs != nil {
		taskIDs, errJson = marshalJSONB(session.AssociatedPlayerTaskIDs)
		if errJson != nil {
			return dberror.ErrInvalidInput.Err(errJson)
		}
	}

	_, errDb = tx.ExecContext(ctx, `
		INSERT INTO game_sessions
			(game_session_id, user_id, used_vehicle_id, vehicle_snapshot, cargo_snapshot,
			 total_cargo_weight_at_start, total_cargo_volume_at_start,
			 destination_id, destination_snapshot, associated_player_task_ids,
			 start_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`, session.GameSessionID, session.UserID, session.UsedVehicleID,
		vehicleSnapshot, cargoSnapshot,
		session.TotalCargoWeightAtStart, session.TotalCargoVolumeAtStart,
		session.DestinationID, destinationSnapshot, taskIDs,
		session.StartTime, session.Status)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("game_session_id", session.GameSessionID).Msg("failed to insert game session")
		return errDb
	}

	// Link confirmed tasks. Each must still be in accepted status.
	for _, playerTaskID := range commit.PlayerTaskIDs {
		res, errDb := tx.ExecContext(ctx, `
			UPDATE player_tasks
			SET status = $3, linked_game_session_id = $4, updated_at = NOW()
			WHERE player_task_id = $1 AND user_id = $2 AND status = $5;
		`, playerTaskID, session.UserID, models.TaskStatusInProgress,
			session.GameSessionID, models.TaskStatusAccepted)
		if errDb != nil {
			log.Ctx(ctx).Error().Err(errDb).Str("player_task_id", playerTaskID).Msg("failed to link player task")
			return errDb
		}
		affected, errDb := res.RowsAffected()
		if errDb != nil {
			return dberror.ErrDatabase.Err(errDb)
		}
		if affected == 0 {
			return dberror.ErrGuardFailed.Msg("task " + playerTaskID + " is no longer accepted")
		}
	}

	// Activate the session and clear the consumed setup.
	res, errDb := tx.ExecContext(ctx, `
		UPDATE players
		SET active_game_session_id = $2,
		    session_setup = NULL,
		    setup_version = setup_version + 1,
		    updated_at = NOW()
		WHERE user_id = $1 AND setup_version = $3;
	`, session.UserID, session.GameSessionID, commit.SetupVersion)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to activate game session")
		return errDb
	}
	affected, errDb := res.RowsAffected()
	if errDb != nil {
		return dberror.ErrDatabase.Err(errDb)
	}
	if affected == 0 {
		return dberror.ErrVersionConflict.Msg("session setup was modified concurrently")
	}

	if errDb := tx.Commit(); errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to commit transaction")
		return errDb
	}
	return nil
}

func scanGameSession(scan func(...any) error) (*models.GameSession, error) {
	session := &models.GameSession{}
	var vehicleSnapshot, cargoSnapshot, destinationSnapshot, taskIDs []byte
	if err := scan(
		&session.GameSessionID, &session.UserID, &session.UsedVehicleID,
		&vehicleSnapshot, &cargoSnapshot,
		&session.TotalCargoWeightAtStart, &session.TotalCargoVolumeAtStart,
		&session.DestinationID, &destinationSnapshot, &taskIDs,
		&session.StartTime, &session.EndTime, &session.Status,
		&session.OutcomeSummary, &session.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(vehicleSnapshot, &session.VehicleSnapshot); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(cargoSnapshot, &session.CargoSnapshot); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(destinationSnapshot, &session.DestinationSnapshot); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(taskIDs, &session.AssociatedPlayerTaskIDs); err != nil {
		return nil, err
	}
	return session, nil
}

const gameSessionColumns = `
	game_session_id, user_id, used_vehicle_id, vehicle_snapshot, cargo_snapshot,
	total_cargo_weight_at_start, total_cargo_volume_at_start,
	destination_id, destination_snapshot, associated_player_task_ids,
	start_time, end_time, status, outcome_summary, updated_at`

// GetGameSession retrieves a game session by ID.
func (gm *sessionManager) GetGameSession(ctx context.Context, gameSessionID string) (*models.GameSession, apperrors.Error) {
	query := `SELECT ` + gameSessionColumns + ` FROM game_sessions WHERE game_session_id = $1;`
	row := gm.conn().QueryRowContext(ctx, query, gameSessionID)
	session, err := scanGameSession(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("game session not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("game_session_id", gameSessionID).Msg("failed to get game session")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return session, nil
}

// ListGameSessions retrieves a player's sessions, newest first.
func (gm *sessionManager) ListGameSessions(ctx context.Context, userID string) ([]*models.GameSession, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}

	query := `
		SELECT ` + gameSessionColumns + `
		FROM game_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC;
	`
	rows, err := gm.conn().QueryContext(ctx, query, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to list game sessions")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var sessions []*models.GameSession
	for rows.Next() {
		session, err := scanGameSession(rows.Scan)
		if err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return sessions, nil
}
