// Package setup implements the session setup aggregate: the player's
// in-progress selection of vehicle, cargo, and destination preceding a game
// session. All mutations go through the versioned setup document on the
// player row, so concurrent edits from two devices fail cleanly instead of
// interleaving.
package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// SelectVehicle sets the vehicle of the player's session setup. It always
// clears any previously selected cargo: capacity validation is meaningless
// across a vehicle change.
func SelectVehicle(ctx context.Context, store Store, userID string, req *SelectVehicleRequest) (*SelectVehicleResponse, apperrors.Error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrInvalidSelection.Msg("vehicle_id is required")
	}

	def, err := store.GetVehicleDefinition(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if err := checkVehicleUsable(ctx, store, player, def); err != nil {
		return nil, err
	}

	newSetup := &models.SessionSetup{
		SelectedVehicleID: def.VehicleID,
		LastUpdatedAt:     time.Now().UTC(),
	}
	if player.SessionSetup != nil {
		newSetup.SelectedDestinationID = player.SessionSetup.SelectedDestinationID
	}
	if _, err := store.UpdateSessionSetup(ctx, userID, newSetup, player.SetupVersion); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("vehicle_id", def.VehicleID).Msg("vehicle selected for session setup")
	return &SelectVehicleResponse{
		Message: "vehicle selected; any previously selected cargo has been cleared",
		SelectedVehicle: VehicleSummary{
			VehicleID:     def.VehicleID,
			Name:          def.Name,
			MaxLoadWeight: def.MaxLoadWeight,
			MaxLoadVolume: def.MaxLoadVolume,
		},
		ClearedCargo: true,
	}, nil
}

// checkVehicleUsable verifies the player may use the vehicle model: unlock
// level reached, plus an owned instance not locked by a session or a rentable
// model.
func checkVehicleUsable(ctx context.Context, store Store, player *models.Player, def *models.VehicleDefinition) apperrors.Error {
	if player.Level < def.RequiredLevelToUnlock {
		return ErrVehicleNotUsable.Msg("player level too low for this vehicle")
	}
	pv, err := store.GetPlayerVehicleByDefinition(ctx, player.UserID, def.VehicleID)
	if err != nil {
		if !errors.Is(err, dberror.ErrNotFound) {
			return err
		}
		if def.RequiresOwnership() {
			return ErrVehicleNotUsable.Msg("vehicle requires ownership")
		}
		return nil
	}
	if pv.IsInActiveSession {
		return ErrVehicleInUse
	}
	return nil
}

// SelectCargo replaces the cargo selection wholesale; an empty list clears
// it. The selection is stored
// even when quantities exceed warehouse stock or vehicle capacity; the
// response reports every problem per item and in aggregate, and session start
// enforces them as hard failures.
func SelectCargo(ctx context.Context, store Store, userID string, req *SelectCargoRequest) (*SelectCargoResponse, apperrors.Error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrInvalidSelection.Msg("each cargo item needs an item_id and a positive quantity")
	}

	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.SessionSetup == nil || player.SessionSetup.SelectedVehicleID == "" {
		return nil, ErrNoVehicleSelected
	}

	vehicleDef, err := store.GetVehicleDefinition(ctx, player.SessionSetup.SelectedVehicleID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrVehicleNotFound.Msg("selected vehicle no longer exists")
		}
		return nil, err
	}

	itemIDs := make([]string, 0, len(req.Items))
	for _, sel := range req.Items {
		itemIDs = append(itemIDs, sel.ItemID)
	}
	itemDefs, err := store.ListItemDefinitions(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	quantities, err := store.GetWarehouseQuantities(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}

	report := CargoReport{}
	selections := make([]models.CargoSelection, 0, len(req.Items))
	var totalWeight, totalVolume float64
	for _, sel := range req.Items {
		def, ok := itemDefs[sel.ItemID]
		if !ok {
			return nil, ErrItemNotFound.Msg("item " + sel.ItemID + " does not exist")
		}
		available := quantities[sel.ItemID]
		sufficient := available >= sel.Quantity
		if !sufficient {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"item %s: requested %d but only %d in warehouse", def.Name, sel.Quantity, available))
		}
		report.Items = append(report.Items, CargoItemReport{
			ItemID:               def.ItemID,
			Name:                 def.Name,
			SelectedQuantity:     sel.Quantity,
			AvailableInWarehouse: available,
			SufficientQuantity:   sufficient,
			WeightPerUnit:        def.WeightPerUnit,
			VolumePerUnit:        def.VolumePerUnit,
			BaseValuePerUnit:     def.BaseValuePerUnit,
		})
		totalWeight += def.WeightPerUnit * float64(sel.Quantity)
		totalVolume += def.VolumePerUnit * float64(sel.Quantity)
		selections = append(selections, models.CargoSelection{ItemID: sel.ItemID, Quantity: sel.Quantity})
	}

	report.TotalWeight = totalWeight
	report.TotalVolume = totalVolume
	report.WeightOK = totalWeight <= vehicleDef.MaxLoadWeight
	report.VolumeOK = totalVolume <= vehicleDef.MaxLoadVolume
	if !report.WeightOK {
		report.ExceedsWeightBy = totalWeight - vehicleDef.MaxLoadWeight
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"total weight %.2f exceeds vehicle capacity %.2f", totalWeight, vehicleDef.MaxLoadWeight))
	}
	if !report.VolumeOK {
		report.ExceedsVolumeBy = totalVolume - vehicleDef.MaxLoadVolume
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"total volume %.2f exceeds vehicle capacity %.2f", totalVolume, vehicleDef.MaxLoadVolume))
	}

	newSetup := &models.SessionSetup{
		SelectedVehicleID:     player.SessionSetup.SelectedVehicleID,
		SelectedCargo:         selections,
		SelectedDestinationID: player.SessionSetup.SelectedDestinationID,
		LastUpdatedAt:         time.Now().UTC(),
	}
	if _, err := store.UpdateSessionSetup(ctx, userID, newSetup, player.SetupVersion); err != nil {
		return nil, err
	}

	message := "cargo selection updated"
	switch {
	case len(req.Items) == 0:
		message = "cargo selection cleared"
	case len(report.Warnings) > 0:
		message = "cargo selection updated with warnings"
	}
	return &SelectCargoResponse{
		Message:              message,
		SelectedCargoSummary: report,
	}, nil
}

// SelectDestination sets the destination of the player's session setup.
// Re-selecting the same destination is a no-op beyond bumping the setup
// timestamp.
func SelectDestination(ctx context.Context, store Store, userID string, req *SelectDestinationRequest) (*SelectDestinationResponse, apperrors.Error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrInvalidSelection.Msg("destination_id is required")
	}

	dest, err := store.GetDestination(ctx, req.DestinationID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrDestinationNotFound
		}
		return nil, err
	}

	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	unlocked, err := destinationUnlocked(ctx, store, player, dest)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, ErrDestinationLocked
	}

	newSetup := &models.SessionSetup{
		SelectedDestinationID: dest.DestinationID,
		LastUpdatedAt:         time.Now().UTC(),
	}
	if player.SessionSetup != nil {
		newSetup.SelectedVehicleID = player.SessionSetup.SelectedVehicleID
		newSetup.SelectedCargo = player.SessionSetup.SelectedCargo
	}
	if _, err := store.UpdateSessionSetup(ctx, userID, newSetup, player.SetupVersion); err != nil {
		return nil, err
	}

	return &SelectDestinationResponse{
		Message: "destination selected",
		SelectedDestination: DestinationSummary{
			DestinationID: dest.DestinationID,
			Name:          dest.Name,
			Region:        dest.Region,
		},
	}, nil
}

// destinationUnlocked reports whether the player may select the destination:
// unlocked by default, or any stated unlock requirement satisfied.
func destinationUnlocked(ctx context.Context, store Store, player *models.Player, dest *models.Destination) (bool, apperrors.Error) {
	if dest.IsUnlockedByDefault {
		return true, nil
	}
	reqs := dest.UnlockRequirements
	if reqs == nil {
		return false, nil
	}
	if reqs.RequiredPlayerLevel > 0 && player.Level >= reqs.RequiredPlayerLevel {
		return true, nil
	}
	if reqs.RequiredCompletedTaskID != "" {
		completed, err := store.HasCompletedTask(ctx, player.UserID, reqs.RequiredCompletedTaskID)
		if err != nil {
			return false, err
		}
		if completed {
			return true, nil
		}
	}
	return false, nil
}
