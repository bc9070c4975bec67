package postgresql

import (
	"context"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// UpsertWarehouseItem sets the absolute quantity of one item in the player's
// warehouse. Used by seeding and by reward grants; session debits go through
// the session commit path.
func (pm *playerManager) UpsertWarehouseItem(ctx context.Context, item *models.WarehouseItem) apperrors.Error {
	if item == nil || item.UserID == "" {
		return dberror.ErrMissingUserID
	}
	if item.ItemID == "" {
		return dberror.ErrInvalidInput.Msg("item ID is required")
	}
	if item.Quantity < 0 {
		return dberror.ErrInvalidInput.Msg("quantity cannot be negative")
	}

	query := `
		INSERT INTO warehouse_items (user_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = NOW();
	`
	_, err := pm.conn().ExecContext(ctx, query, item.UserID, item.ItemID, item.Quantity)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", item.UserID).Str("item_id", item.ItemID).Msg("failed to upsert warehouse item")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetWarehouseQuantities retrieves held quantities for the given item IDs,
// keyed by item ID. Items the player has never held are absent from the
// result; callers treat absence as zero.
func (pm *playerManager) GetWarehouseQuantities(ctx context.Context, userID string, itemIDs []string) (map[string]int, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}
	quantities := make(map[string]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return quantities, nil
	}

	query := `
		SELECT item_id, quantity
		FROM warehouse_items
		WHERE user_id = $1 AND item_id = ANY($2);
	`
	rows, err := pm.conn().QueryContext(ctx, query, userID, pq.Array(itemIDs))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to get warehouse quantities")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		var quantity int
		if err := rows.Scan(&itemID, &quantity); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		quantities[itemID] = quantity
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return quantities, nil
}

// ListWarehouseItems retrieves the player's full warehouse ledger, including
// zero-quantity rows.
func (pm *playerManager) ListWarehouseItems(ctx context.Context, userID string) ([]*models.WarehouseItem, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}

	query := `
		SELECT user_id, item_id, quantity, updated_at
		FROM warehouse_items
		WHERE user_id = $1
		ORDER BY item_id;
	`
	rows, err := pm.conn().QueryContext(ctx, query, userID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to list warehouse items")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	var items []*models.WarehouseItem
	for rows.Next() {
		item := &models.WarehouseItem{}
		if err := rows.Scan(&item.UserID, &item.ItemID, &item.Quantity, &item.UpdatedAt); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return items, nil
}
