package postgresql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/common/uuid"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// CreatePlayerVehicle inserts an owned vehicle instance for a player. An
// instance ID is generated if unset.
func (pm *playerManager) CreatePlayerVehicle(ctx context.Context, pv *models.PlayerVehicle) apperrors.Error {
	if pv == nil || pv.UserID == "" {
		return dberror.ErrMissingUserID
	}
	if pv.VehicleID == "" {
		return dberror.ErrInvalidInput.Msg("vehicle ID is required")
	}
	if pv.InstanceID == "" {
		pv.InstanceID = uuid.NewString()
	}
	if pv.CurrentCondition == 0 {
		pv.CurrentCondition = 1.0
	}

	query := `
		INSERT INTO player_vehicles
			(instance_id, user_id, vehicle_id, vehicle_name, current_condition, is_in_active_session)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (instance_id) DO NOTHING
		RETURNING instance_id;
	`
	var insertedID string
	err := pm.conn().QueryRowContext(ctx, query,
		pv.InstanceID, pv.UserID, pv.VehicleID, pv.VehicleName,
		pv.CurrentCondition, pv.IsInActiveSession).Scan(&insertedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return dberror.ErrAlreadyExists.Msg("vehicle instance already exists")
		}
		log.Ctx(ctx).Error().Err(err).Str("user_id", pv.UserID).Str("vehicle_id", pv.VehicleID).Msg("failed to insert player vehicle")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetPlayerVehicleByDefinition retrieves the player's owned instance of the
// given vehicle model. When the player owns several, instances not locked by
// an active session come first, earliest purchase among those.
func (pm *playerManager) GetPlayerVehicleByDefinition(ctx context.Context, userID, vehicleID string) (*models.PlayerVehicle, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}

	query := `
		SELECT instance_id, user_id, vehicle_id, COALESCE(vehicle_name, ''),
		       purchase_date, current_condition, is_in_active_session,
		       created_at, updated_at
		FROM player_vehicles
		WHERE user_id = $1 AND vehicle_id = $2
		ORDER BY is_in_active_session, purchase_date
		LIMIT 1;
	`
	pv := &models.PlayerVehicle{}
	err := pm.conn().QueryRowContext(ctx, query, userID, vehicleID).Scan(
		&pv.InstanceID, &pv.UserID, &pv.VehicleID, &pv.VehicleName,
		&pv.PurchaseDate, &pv.CurrentCondition, &pv.IsInActiveSession,
		&pv.CreatedAt, &pv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("player does not own this vehicle")
		}
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("vehicle_id", vehicleID).Msg("failed to get player vehicle")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return pv, nil
}

// ListPlayerVehicles retrieves all vehicle instances owned by the player.
func (pm *playerManager) ListPlayerVehicles(ctx context.Context, userID string) ([]*models.PlayerVehicle, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}

	query := `
		SELECT instance_id, user_id, vehicle_id, COALESCE(vehicle_name, ''),
		       purchase_date, current_condition, is_in_active_session,
		       created_at, updated_at
		FROM player_vehicles
		WHERE user_id = $1
		ORDER BY purchase_date;
	`
	rows, err := pm.conn().QueryContext(ctx, query, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to list player vehicles")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var pvs []*models.PlayerVehicle
	for rows.Next() {
		pv := &models.PlayerVehicle{}
		if err := rows.Scan(
			&pv.InstanceID, &pv.UserID, &pv.VehicleID, &pv.VehicleName,
			&pv.PurchaseDate, &pv.CurrentCondition, &pv.IsInActiveSession,
			&pv.CreatedAt, &pv.UpdatedAt); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		pvs = append(pvs, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return pvs, nil
}
