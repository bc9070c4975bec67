package setup

import (
	"context"
	"errors"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// Vehicle browse availability filters.
const (
	AvailabilityFilterAll      = "all"
	AvailabilityFilterOwned    = "owned"
	AvailabilityFilterRentable = "rentable"
)

// ListSelectableVehicles returns the vehicle models the player could put in a
// setup, each with its status for this player. Models the player neither owns
// nor can rent are omitted.
func ListSelectableVehicles(ctx context.Context, store Store, userID, availability string) ([]SelectableVehicle, apperrors.Error) {
	if availability == "" {
		availability = AvailabilityFilterAll
	}

	owned, err := store.ListPlayerVehicles(ctx, userID)
	if err != nil {
		return nil, err
	}
	ownedByDefinition := make(map[string]*models.PlayerVehicle, len(owned))
	for _, pv := range owned {
		if _, ok := ownedByDefinition[pv.VehicleID]; !ok {
			ownedByDefinition[pv.VehicleID] = pv
		}
	}

	defs, err := store.ListVehicleDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	result := []SelectableVehicle{}
	for _, def := range defs {
		status := ""
		instanceID := ""
		if pv, ok := ownedByDefinition[def.VehicleID]; ok {
			instanceID = pv.InstanceID
			if pv.IsInActiveSession {
				status = VehicleStatusInUse
			} else {
				status = VehicleStatusOwned
			}
		} else if def.Rentable() {
			status = VehicleStatusRentable
		} else {
			continue
		}

		switch availability {
		case AvailabilityFilterOwned:
			if status != VehicleStatusOwned && status != VehicleStatusInUse {
				continue
			}
		case AvailabilityFilterRentable:
			if status != VehicleStatusRentable {
				continue
			}
		}

		result = append(result, SelectableVehicle{
			VehicleID:       def.VehicleID,
			PlayerVehicleID: instanceID,
			Name:            def.Name,
			Type:            def.Type,
			MaxLoadWeight:   def.MaxLoadWeight,
			MaxLoadVolume:   def.MaxLoadVolume,
			Status:          status,
		})
	}
	return result, nil
}

// ListSelectableDestinations returns the destinations unlocked for the
// player.
func ListSelectableDestinations(ctx context.Context, store Store, userID string) ([]*models.Destination, apperrors.Error) {
	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	dests, err := store.ListDestinations(ctx)
	if err != nil {
		return nil, err
	}

	result := []*models.Destination{}
	for _, dest := range dests {
		unlocked, err := destinationUnlocked(ctx, store, player, dest)
		if err != nil {
			return nil, err
		}
		if unlocked {
			result = append(result, dest)
		}
	}
	return result, nil
}

// ListWarehouse returns the player's warehouse ledger joined with item
// definitions. Ledger rows whose item definition disappeared are omitted.
func ListWarehouse(ctx context.Context, store Store, userID string) ([]WarehouseItemDetail, apperrors.Error) {
	items, err := store.ListWarehouseItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []WarehouseItemDetail{}, nil
	}

	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ItemID)
	}
	defs, err := store.ListItemDefinitions(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	result := []WarehouseItemDetail{}
	for _, item := range items {
		def, ok := defs[item.ItemID]
		if !ok {
			continue
		}
		result = append(result, WarehouseItemDetail{
			ItemID:              def.ItemID,
			Name:                def.Name,
			Description:         def.Description,
			Category:            def.Category,
			WeightPerUnit:       def.WeightPerUnit,
			VolumePerUnit:       def.VolumePerUnit,
			BaseValuePerUnit:    def.BaseValuePerUnit,
			IsFragile:           def.IsFragile,
			IsPerishable:        def.IsPerishable,
			QuantityInWarehouse: item.Quantity,
			UpdatedAt:           item.UpdatedAt,
		})
	}
	return result, nil
}
