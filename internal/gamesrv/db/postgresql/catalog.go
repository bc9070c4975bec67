package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// UpsertVehicleDefinition inserts or replaces a vehicle definition. Used by
// the catalog seed loader.
func (cm *catalogManager) UpsertVehicleDefinition(ctx context.Context, def *models.VehicleDefinition) apperrors.Error {
	if def == nil || def.VehicleID == "" {
		return dberror.ErrInvalidInput.Msg("vehicle definition requires a vehicle ID")
	}

	query := `
		INSERT INTO vehicle_definitions
			(vehicle_id, name, type, description, max_load_weight, max_load_volume,
			 base_price, rental_price_per_session, availability_type, required_level_to_unlock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (vehicle_id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			max_load_weight = EXCLUDED.max_load_weight,
			max_load_volume = EXCLUDED.max_load_volume,
			base_price = EXCLUDED.base_price,
			rental_price_per_session = EXCLUDED.rental_price_per_session,
			availability_type = EXCLUDED.availability_type,
			required_level_to_unlock = EXCLUDED.required_level_to_unlock,
			updated_at = NOW();
	`
	_, err := cm.conn().ExecContext(ctx, query,
		def.VehicleID, def.Name, def.Type, def.Description,
		def.MaxLoadWeight, def.MaxLoadVolume, def.BasePrice,
		def.RentalPricePerSession, def.AvailabilityType, def.RequiredLevelToUnlock)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("vehicle_id", def.VehicleID).Msg("failed to upsert vehicle definition")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetVehicleDefinition retrieves a vehicle definition by ID.
func (cm *catalogManager) GetVehicleDefinition(ctx context.Context, vehicleID string) (*models.VehicleDefinition, apperrors.Error) {
	query := `
		SELECT vehicle_id, name, type, COALESCE(description, ''), max_load_weight, max_load_volume,
		       COALESCE(base_price, 0), COALESCE(rental_price_per_session, 0),
		       availability_type, required_level_to_unlock, created_at, updated_at
		FROM vehicle_definitions
		WHERE vehicle_id = $1;
	`
	def := &models.VehicleDefinition{}
	err := cm.conn().QueryRowContext(ctx, query, vehicleID).Scan(
		&def.VehicleID, &def.Name, &def.Type, &def.Description,
		&def.MaxLoadWeight, &def.MaxLoadVolume, &def.BasePrice,
		&def.RentalPricePerSession, &def.AvailabilityType, &def.RequiredLevelToUnlock,
		&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("vehicle definition not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("vehicle_id", vehicleID).Msg("failed to get vehicle definition")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return def, nil
}

// ListVehicleDefinitions retrieves all vehicle definitions ordered by
// required level and name.
func (cm *catalogManager) ListVehicleDefinitions(ctx context.Context) ([]*models.VehicleDefinition, apperrors.Error) {
	query := `
		SELECT vehicle_id, name, type, COALESCE(description, ''), max_load_weight, max_load_volume,
		       COALESCE(base_price, 0), COALESCE(rental_price_per_session, 0),
		       availability_type, required_level_to_unlock, created_at, updated_at
		FROM vehicle_definitions
		ORDER BY required_level_to_unlock, name;
	`
	rows, err := cm.conn().QueryContext(ctx, query)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list vehicle definitions")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var defs []*models.VehicleDefinition
	for rows.Next() {
		def := &models.VehicleDefinition{}
		if err := rows.Scan(
			&def.VehicleID, &def.Name, &def.Type, &def.Description,
			&def.MaxLoadWeight, &def.MaxLoadVolume, &def.BasePrice,
			&def.RentalPricePerSession, &def.AvailabilityType, &def.RequiredLevelToUnlock,
			&def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return defs, nil
}

// UpsertItemDefinition inserts or replaces an item definition.
func (cm *catalogManager) UpsertItemDefinition(ctx context.Context, def *models.ItemDefinition) apperrors.Error {
	if def == nil || def.ItemID == "" {
		return dberror.ErrInvalidInput.Msg("item definition requires an item ID")
	}

	query := `
		INSERT INTO item_definitions
			(item_id, name, description, category, weight_per_unit, volume_per_unit,
			 base_value_per_unit, is_fragile, is_perishable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (item_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			weight_per_unit = EXCLUDED.weight_per_unit,
			volume_per_unit = EXCLUDED.volume_per_unit,
			base_value_per_unit = EXCLUDED.base_value_per_unit,
			is_fragile = EXCLUDED.is_fragile,
			is_perishable = EXCLUDED.is_perishable,
			updated_at = NOW();
	`
	_, err := cm.conn().ExecContext(ctx, query,
		def.ItemID, def.Name, def.Description, def.Category,
		def.WeightPerUnit, def.VolumePerUnit, def.BaseValuePerUnit,
		def.IsFragile, def.IsPerishable)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("item_id", def.ItemID).Msg("failed to upsert item definition")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetItemDefinition retrieves an item definition by ID.
func (cm *catalogManager) GetItemDefinition(ctx context.Context, itemID string) (*models.ItemDefinition, apperrors.Error) {
	query := `
		SELECT item_id, name, COALESCE(description, ''), category, weight_per_unit,
		       volume_per_unit, base_value_per_unit, is_fragile, is_perishable,
		       created_at, updated_at
		FROM item_definitions
		WHERE item_id = $1;
	`
	def := &models.ItemDefinition{}
	err := cm.conn().QueryRowContext(ctx, query, itemID).Scan(
		&def.ItemID, &def.Name, &def.Description, &def.Category,
		&def.WeightPerUnit, &def.VolumePerUnit, &def.BaseValuePerUnit,
		&def.IsFragile, &def.IsPerishable, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("item definition not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("item_id", itemID).Msg("failed to get item definition")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return def, nil
}

// ListItemDefinitions retrieves the item definitions for the given IDs, keyed
// by item ID. IDs with no definition are simply absent from the result.
func (cm *catalogManager) ListItemDefinitions(ctx context.Context, itemIDs []string) (map[string]*models.ItemDefinition, apperrors.Error) {
	defs := make(map[string]*models.ItemDefinition, len(itemIDs))
	if len(itemIDs) == 0 {
		return defs, nil
	}

	query := `
		SELECT item_id, name, COALESCE(description, ''), category, weight_per_unit,
		       volume_per_unit, base_value_per_unit, is_fragile, is_perishable,
		       created_at, updated_at
		FROM item_definitions
		WHERE item_id = ANY($1);
	`
	rows, err := cm.conn().QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list item definitions")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	for rows.Next() {
		def := &models.ItemDefinition{}
		if err := rows.Scan(
			&def.ItemID, &def.Name, &def.Description, &def.Category,
			&def.WeightPerUnit, &def.VolumePerUnit, &def.BaseValuePerUnit,
			&def.IsFragile, &def.IsPerishable, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		defs[def.ItemID] = def
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return defs, nil
}

// UpsertDestination inserts or replaces a destination.
func (cm *catalogManager) UpsertDestination(ctx context.Context, dest *models.Destination) apperrors.Error {
	if dest == nil || dest.DestinationID == "" {
		return dberror.ErrInvalidInput.Msg("destination requires a destination ID")
	}

	coordinates, err := marshalJSONB(dest.Coordinates)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	var unlockReqs any
	if dest.UnlockRequirements != nil {
		unlockReqs, err = marshalJSONB(dest.UnlockRequirements)
		if err != nil {
			return dberror.ErrInvalidInput.Err(err)
		}
	}
	var services any
	if dest.AvailableServices != nil {
		services, err = marshalJSONB(dest.AvailableServices)
		if err != nil {
			return dberror.ErrInvalidInput.Err(err)
		}
	}

	query := `
		INSERT INTO destinations
			(destination_id, name, description, region, coordinates,
			 is_unlocked_by_default, unlock_requirements, available_services)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (destination_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			region = EXCLUDED.region,
			coordinates = EXCLUDED.coordinates,
			is_unlocked_by_default = EXCLUDED.is_unlocked_by_default,
			unlock_requirements = EXCLUDED.unlock_requirements,
			available_services = EXCLUDED.available_services,
			updated_at = NOW();
	`
	_, errDb := cm.conn().ExecContext(ctx, query,
		dest.DestinationID, dest.Name, dest.Description, dest.Region,
		coordinates, dest.IsUnlockedByDefault, unlockReqs, services)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("destination_id", dest.DestinationID).Msg("failed to upsert destination")
		return dberror.ErrDatabase.Err(errDb)
	}
	return nil
}

func scanDestination(scan func(...any) error) (*models.Destination, error) {
	dest := &models.Destination{}
	var coordinates, unlockReqs, services []byte
	if err := scan(
		&dest.DestinationID, &dest.Name, &dest.Description, &dest.Region,
		&coordinates, &dest.IsUnlockedByDefault, &unlockReqs, &services,
		&dest.CreatedAt, &dest.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(coordinates, &dest.Coordinates); err != nil {
		return nil, err
	}
	if len(unlockReqs) > 0 {
		dest.UnlockRequirements = &models.DestinationUnlockRequirements{}
		if err := unmarshalJSONB(unlockReqs, dest.UnlockRequirements); err != nil {
			return nil, err
		}
	}
	if err := unmarshalJSONB(services, &dest.AvailableServices); err != nil {
		return nil, err
	}
	return dest, nil
}

// GetDestination retrieves a destination by ID.
func (cm *catalogManager) GetDestination(ctx context.Context, destinationID string) (*models.Destination, apperrors.Error) {
	query := `
		SELECT destination_id, name, COALESCE(description, ''), region, coordinates,
		       is_unlocked_by_default, unlock_requirements, available_services,
		       created_at, updated_at
		FROM destinations
		WHERE destination_id = $1;
	`
	row := cm.conn().QueryRowContext(ctx, query, destinationID)
	dest, err := scanDestination(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("destination not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("destination_id", destinationID).Msg("failed to get destination")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return dest, nil
}

// ListDestinations retrieves all destinations ordered by region and name.
func (cm *catalogManager) ListDestinations(ctx context.Context) ([]*models.Destination, apperrors.Error) {
	query := `
		SELECT destination_id, name, COALESCE(description, ''), region, coordinates,
		       is_unlocked_by_default, unlock_requirements, available_services,
		       created_at, updated_at
		FROM destinations
		ORDER BY region, name;
	`
	rows, err := cm.conn().QueryContext(ctx, query)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list destinations")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var dests []*models.Destination
	for rows.Next() {
		dest, err := scanDestination(rows.Scan)
		if err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		dests = append(dests, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return dests, nil
}

// UpsertTaskDefinition inserts or replaces a task definition.
func (cm *catalogManager) UpsertTaskDefinition(ctx context.Context, def *models.TaskDefinition) apperrors.Error {
	if def == nil || def.TaskID == "" {
		return dberror.ErrInvalidInput.Msg("task definition requires a task ID")
	}

	requirements, err := marshalJSONB(def.Requirements)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	rewards, err := marshalJSONB(def.Rewards)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	var prereqs any
	if def.PrerequisiteTaskIDs != nil {
		prereqs, err = marshalJSONB(def.PrerequisiteTaskIDs)
		if err != nil {
			return dberror.ErrInvalidInput.Err(err)
		}
	}

	query := `
		INSERT INTO task_definitions
			(task_id, title, description, mode, requirements, rewards, is_repeatable,
			 repeat_cooldown_hours, availability_start_date, availability_end_date,
			 prerequisite_task_ids, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (task_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			mode = EXCLUDED.mode,
			requirements = EXCLUDED.requirements,
			rewards = EXCLUDED.rewards,
			is_repeatable = EXCLUDED.is_repeatable,
			repeat_cooldown_hours = EXCLUDED.repeat_cooldown_hours,
			availability_start_date = EXCLUDED.availability_start_date,
			availability_end_date = EXCLUDED.availability_end_date,
			prerequisite_task_ids = EXCLUDED.prerequisite_task_ids,
			is_active = EXCLUDED.is_active,
			updated_at = NOW();
	`
	_, errDb := cm.conn().ExecContext(ctx, query,
		def.TaskID, def.Title, def.Description, def.Mode, requirements, rewards,
		def.IsRepeatable, def.RepeatCooldownHours, def.AvailabilityStartDate,
		def.AvailabilityEndDate, prereqs, def.IsActive)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("task_id", def.TaskID).Msg("failed to upsert task definition")
		return dberror.ErrDatabase.Err(errDb)
	}
	return nil
}

func scanTaskDefinition(scan func(...any) error) (*models.TaskDefinition, error) {
	def := &models.TaskDefinition{}
	var requirements, rewards, prereqs []byte
	if err := scan(
		&def.TaskID, &def.Title, &def.Description, &def.Mode,
		&requirements, &rewards, &def.IsRepeatable, &def.RepeatCooldownHours,
		&def.AvailabilityStartDate, &def.AvailabilityEndDate, &prereqs,
		&def.IsActive, &def.CreatedAt, &def.UpdatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(requirements, &def.Requirements); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(rewards, &def.Rewards); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(prereqs, &def.PrerequisiteTaskIDs); err != nil {
		return nil, err
	}
	return def, nil
}

// GetTaskDefinition retrieves a task definition by ID.
func (cm *catalogManager) GetTaskDefinition(ctx context.Context, taskID string) (*models.TaskDefinition, apperrors.Error) {
	query := `
		SELECT task_id, title, COALESCE(description, ''), mode, requirements, rewards,
		       is_repeatable, COALESCE(repeat_cooldown_hours, 0),
		       availability_start_date, availability_end_date,
		       prerequisite_task_ids, is_active, created_at, updated_at
		FROM task_definitions
		WHERE task_id = $1;
	`
	row := cm.conn().QueryRowContext(ctx, query, taskID)
	def, err := scanTaskDefinition(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, dberror.ErrNotFound.Msg("task definition not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("task_id", taskID).Msg("failed to get task definition")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return def, nil
}

// ListTaskDefinitions retrieves active task definitions, optionally filtered
// by mode and by availability window at the given instant.
func (cm *catalogManager) ListTaskDefinitions(ctx context.Context, mode string, activeAt *time.Time) ([]*models.TaskDefinition, apperrors.Error) {
	query := `
		SELECT task_id, title, COALESCE(description, ''), mode, requirements, rewards,
		       is_repeatable, COALESCE(repeat_cooldown_hours, 0),
		       availability_start_date, availability_end_date,
		       prerequisite_task_ids, is_active, created_at, updated_at
		FROM task_definitions
		WHERE is_active = true
		  AND ($1 = '' OR mode = $1)
		  AND ($2::timestamptz IS NULL OR availability_start_date IS NULL OR availability_start_date <= $2)
		  AND ($2::timestamptz IS NULL OR availability_end_date IS NULL OR availability_end_date >= $2)
		ORDER BY task_id;
	`
	rows, err := cm.conn().QueryContext(ctx, query, mode, activeAt)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list task definitions")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var defs []*models.TaskDefinition
	for rows.Next() {
		def, err := scanTaskDefinition(rows.Scan)
		if err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return defs, nil
}
