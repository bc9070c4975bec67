// Package gamesession implements the session commit engine: the atomic
// transition from a validated setup to a running game session. Validation
// happens here against a consistent read; the storage layer re-checks every
// guard inside the commit transaction, so drift between validation and write
// aborts the commit instead of corrupting state.
package gamesession

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/common/uuid"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
	"github.com/volticar/volticar/internal/gamesrv/setup"
)

// Start commits the player's session setup into a game session. The setup is
// re-resolved against the live catalog; stale references, missing selections,
// capacity overruns, and stock shortfalls all abort before any write.
func Start(ctx context.Context, store Store, userID string, req *StartRequest) (*StartResponse, apperrors.Error) {
	if err := validate.Struct(req); err != nil {
		return nil, ErrGameSession.Msg("confirmed_player_task_ids must be unique and non-empty")
	}

	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.ActiveGameSessionID != "" {
		return nil, ErrActiveSessionExists
	}
	if player.SessionSetup == nil {
		return nil, ErrIncompleteSetup.Msg("no session setup in progress")
	}

	resolved, warnings, err := setup.Resolve(ctx, store, player)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		return nil, ErrIncompleteSetup.Msg(strings.Join(warnings, "; "))
	}
	if resolved.Vehicle == nil {
		return nil, ErrIncompleteSetup.Msg("no vehicle selected")
	}
	if resolved.Destination == nil {
		return nil, ErrIncompleteSetup.Msg("no destination selected")
	}
	weightOK, volumeOK := resolved.CapacityOK()
	if !weightOK || !volumeOK {
		return nil, ErrCapacityExceeded
	}

	debits, err := buildCargoDebits(ctx, store, userID, player.SessionSetup.SelectedCargo)
	if err != nil {
		return nil, err
	}

	playerTaskIDs, err := validateConfirmedTasks(ctx, store, userID, req.ConfirmedPlayerTaskIDs, resolved)
	if err != nil {
		return nil, err
	}

	// An owned instance is locked for the session and recorded by its
	// instance id. Rentals carry the definition id; there is no instance
	// to lock.
	usedVehicleID := resolved.Vehicle.VehicleID
	vehicleInstanceID := ""
	pv, err := store.GetPlayerVehicleByDefinition(ctx, userID, resolved.Vehicle.VehicleID)
	if err != nil {
		if !errors.Is(err, dberror.ErrNotFound) {
			return nil, err
		}
		if !resolved.Vehicle.Rentable() {
			return nil, ErrVehicleUnavailable.Msg("vehicle requires ownership")
		}
	} else {
		if pv.IsInActiveSession {
			return nil, ErrVehicleUnavailable
		}
		usedVehicleID = pv.InstanceID
		vehicleInstanceID = pv.InstanceID
	}

	now := time.Now().UTC()
	session := &models.GameSession{
		GameSessionID: uuid.NewString(),
		UserID:        userID,
		UsedVehicleID: usedVehicleID,
		VehicleSnapshot: models.VehicleSnapshot{
			Name:          resolved.Vehicle.Name,
			Type:          resolved.Vehicle.Type,
			MaxLoadWeight: resolved.Vehicle.MaxLoadWeight,
			MaxLoadVolume: resolved.Vehicle.MaxLoadVolume,
		},
		CargoSnapshot:           buildCargoSnapshot(player.SessionSetup.SelectedCargo, resolved),
		TotalCargoWeightAtStart: resolved.TotalWeight,
		TotalCargoVolumeAtStart: resolved.TotalVolume,
		DestinationID:           resolved.Destination.DestinationID,
		DestinationSnapshot: models.DestinationSnapshot{
			Name:   resolved.Destination.Name,
			Region: resolved.Destination.Region,
		},
		AssociatedPlayerTaskIDs: playerTaskIDs,
		StartTime:               now,
		Status:                  models.SessionStatusInProgress,
	}

	commit := &models.GameSessionCommit{
		Session:           session,
		CargoDebits:       debits,
		VehicleInstanceID: vehicleInstanceID,
		PlayerTaskIDs:     playerTaskIDs,
		SetupVersion:      player.SetupVersion,
	}
	if err := store.CommitGameSession(ctx, commit); err != nil {
		return nil, mapCommitError(err)
	}

	log.Ctx(ctx).Info().
		Str("game_session_id", session.GameSessionID).
		Str("used_vehicle_id", usedVehicleID).
		Int("task_count", len(playerTaskIDs)).
		Msg("game session started")

	return &StartResponse{
		Message:       "game session started",
		GameSessionID: session.GameSessionID,
		Status:        session.Status,
		StartTime:     session.StartTime,
	}, nil
}

// buildCargoDebits verifies warehouse stock covers every selected line and
// returns the debit set. Stock shortfalls are soft at cargo selection but
// hard here.
func buildCargoDebits(ctx context.Context, store Store, userID string, cargo []models.CargoSelection) ([]models.CargoDebit, apperrors.Error) {
	if len(cargo) == 0 {
		return nil, nil
	}
	itemIDs := make([]string, 0, len(cargo))
	for _, sel := range cargo {
		itemIDs = append(itemIDs, sel.ItemID)
	}
	quantities, err := store.GetWarehouseQuantities(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}

	debits := make([]models.CargoDebit, 0, len(cargo))
	for _, sel := range cargo {
		if quantities[sel.ItemID] < sel.Quantity {
			return nil, ErrInsufficientStock.Msg("item " + sel.ItemID + " is short in the warehouse")
		}
		debits = append(debits, models.CargoDebit{ItemID: sel.ItemID, Quantity: sel.Quantity})
	}
	return debits, nil
}

// validateConfirmedTasks checks ownership, accepted status, and strict
// completability of every confirmed task against the resolved setup.
func validateConfirmedTasks(ctx context.Context, store Store, userID string, ids []string, resolved *setup.ResolvedSetup) ([]string, apperrors.Error) {
	playerTaskIDs := []string{}
	for _, playerTaskID := range ids {
		pt, err := store.GetPlayerTask(ctx, playerTaskID)
		if err != nil {
			if errors.Is(err, dberror.ErrNotFound) {
				return nil, ErrTaskNotConfirmable.Msg("task " + playerTaskID + " not found")
			}
			return nil, err
		}
		if pt.UserID != userID {
			return nil, ErrTaskNotConfirmable.Msg("task " + playerTaskID + " not found")
		}
		if pt.Status != models.TaskStatusAccepted {
			return nil, ErrTaskNotConfirmable.Msg("task " + playerTaskID + " is not in accepted status")
		}

		def, err := store.GetTaskDefinition(ctx, pt.TaskID)
		if err != nil {
			if errors.Is(err, dberror.ErrNotFound) {
				return nil, ErrTaskNotConfirmable.Msg("task definition " + pt.TaskID + " no longer exists")
			}
			return nil, err
		}
		if issues := setup.TaskCompletionIssues(def, resolved); len(issues) > 0 {
			return nil, ErrTaskNotConfirmable.Msg(
				"task " + playerTaskID + ": " + strings.Join(issues, "; "))
		}
		playerTaskIDs = append(playerTaskIDs, playerTaskID)
	}
	return playerTaskIDs, nil
}

func buildCargoSnapshot(cargo []models.CargoSelection, resolved *setup.ResolvedSetup) []models.CargoItemSnapshot {
	snapshot := make([]models.CargoItemSnapshot, 0, len(cargo))
	for _, sel := range cargo {
		def, ok := resolved.Items[sel.ItemID]
		if !ok {
			// Resolve already reported stale items as warnings; Start
			// aborted on them before reaching here.
			continue
		}
		snapshot = append(snapshot, models.CargoItemSnapshot{
			ItemID:           def.ItemID,
			Name:             def.Name,
			Quantity:         sel.Quantity,
			WeightPerUnit:    def.WeightPerUnit,
			VolumePerUnit:    def.VolumePerUnit,
			BaseValuePerUnit: def.BaseValuePerUnit,
		})
	}
	return snapshot
}

// mapCommitError translates storage guard failures into session errors. The
// guards mirror the validations above; hitting one means state moved between
// the consistent read and the transaction.
func mapCommitError(err apperrors.Error) apperrors.Error {
	switch {
	case errors.Is(err, dberror.ErrActiveSession):
		return ErrActiveSessionExists
	case errors.Is(err, dberror.ErrVersionConflict):
		return ErrSetupConflict
	case errors.Is(err, dberror.ErrInsufficientStock):
		return ErrInsufficientStock.Msg(err.Error())
	case errors.Is(err, dberror.ErrGuardFailed):
		return ErrGameSession.Msg(err.Error())
	default:
		return err
	}
}

// GetSession fetches one of the player's session records. Other players'
// sessions read as not found.
func GetSession(ctx context.Context, store Store, userID, gameSessionID string) (*SessionView, apperrors.Error) {
	session, err := store.GetGameSession(ctx, gameSessionID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return newSessionView(session), nil
}

// ListSessions returns the player's session history, newest first.
func ListSessions(ctx context.Context, store Store, userID string) ([]*SessionView, apperrors.Error) {
	sessions, err := store.ListGameSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]*SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, newSessionView(session))
	}
	return views, nil
}
