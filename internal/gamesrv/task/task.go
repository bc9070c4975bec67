// Package task implements the task lifecycle: browsing available task
// definitions, accepting them, and abandoning accepted records. Availability
// windows are evaluated lazily at read time; no scheduler flips task state.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// ListAvailable returns task definitions active and within their availability
// window right now, optionally filtered by mode. The player's live records
// are joined in so clients can mark tasks already accepted.
func ListAvailable(ctx context.Context, store Store, userID, mode string) ([]AvailableTask, apperrors.Error) {
	now := time.Now().UTC()
	defs, err := store.ListTaskDefinitions(ctx, mode, &now)
	if err != nil {
		return nil, err
	}

	live := map[string]*models.PlayerTask{}
	if userID != "" {
		pts, err := store.ListPlayerTasks(ctx, userID,
			[]string{models.TaskStatusAccepted, models.TaskStatusInProgress})
		if err != nil {
			return nil, err
		}
		for _, pt := range pts {
			live[pt.TaskID] = pt
		}
	}

	result := []AvailableTask{}
	for _, def := range defs {
		at := AvailableTask{
			TaskID:       def.TaskID,
			Title:        def.Title,
			Description:  def.Description,
			Mode:         def.Mode,
			Requirements: def.Requirements,
			Rewards:      def.Rewards,
			IsRepeatable: def.IsRepeatable,
		}
		if pt, ok := live[def.TaskID]; ok {
			at.PlayerTaskID = pt.PlayerTaskID
			at.PlayerTaskStatus = pt.Status
		}
		result = append(result, at)
	}
	return result, nil
}

// ListAccepted returns the player's live task records joined with their
// definitions. Records whose definition disappeared from the catalog are
// still returned, without title enrichment.
func ListAccepted(ctx context.Context, store Store, userID, mode string) ([]AvailableTask, apperrors.Error) {
	pts, err := store.ListPlayerTasks(ctx, userID,
		[]string{models.TaskStatusAccepted, models.TaskStatusInProgress})
	if err != nil {
		return nil, err
	}

	result := []AvailableTask{}
	for _, pt := range pts {
		at := AvailableTask{
			TaskID:           pt.TaskID,
			PlayerTaskID:     pt.PlayerTaskID,
			PlayerTaskStatus: pt.Status,
		}
		def, err := store.GetTaskDefinition(ctx, pt.TaskID)
		if err != nil {
			if !errors.Is(err, dberror.ErrNotFound) {
				return nil, err
			}
		} else {
			if mode != "" && def.Mode != mode {
				continue
			}
			at.Title = def.Title
			at.Description = def.Description
			at.Mode = def.Mode
			at.Requirements = def.Requirements
			at.Rewards = def.Rewards
			at.IsRepeatable = def.IsRepeatable
		}
		result = append(result, at)
	}
	return result, nil
}

// Accept validates eligibility and creates (or revives) the player's record
// for the task. A previously abandoned record is reused in place, so the
// player_task_id is stable across abandon/re-accept cycles.
func Accept(ctx context.Context, store Store, userID, taskID string) (*AcceptResponse, apperrors.Error) {
	def, err := store.GetTaskDefinition(ctx, taskID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if !def.AvailableAt(time.Now().UTC()) {
		return nil, ErrTaskNotFound
	}

	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if def.Requirements.RequiredPlayerLevel > 0 && player.Level < def.Requirements.RequiredPlayerLevel {
		return nil, ErrLevelTooLow
	}

	for _, prereqID := range def.PrerequisiteTaskIDs {
		completed, err := store.HasCompletedTask(ctx, userID, prereqID)
		if err != nil {
			return nil, err
		}
		if !completed {
			return nil, ErrPrerequisitesNotMet.Msg("task " + prereqID + " must be completed first")
		}
	}

	pt, err := store.AcceptPlayerTask(ctx, &models.PlayerTask{
		UserID:     userID,
		TaskID:     taskID,
		AcceptedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, dberror.ErrAlreadyExists) {
			return nil, ErrAlreadyAccepted
		}
		return nil, err
	}

	log.Ctx(ctx).Info().Str("task_id", taskID).Str("player_task_id", pt.PlayerTaskID).Msg("task accepted")
	return &AcceptResponse{
		Message:      "task accepted",
		PlayerTaskID: pt.PlayerTaskID,
		TaskID:       pt.TaskID,
		Status:       pt.Status,
		AcceptedAt:   pt.AcceptedAt,
	}, nil
}

// Abandon moves an accepted task record to abandoned. Terminal records and
// records linked to a live session refuse.
func Abandon(ctx context.Context, store Store, userID, playerTaskID string) (*AbandonResponse, apperrors.Error) {
	pt, err := store.GetPlayerTask(ctx, playerTaskID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerTaskNotFound
		}
		return nil, err
	}
	if pt.UserID != userID {
		// Hide other players' records.
		return nil, ErrPlayerTaskNotFound
	}

	switch pt.Status {
	case models.TaskStatusAccepted:
		// fallthrough to the guarded update below
	case models.TaskStatusInProgress:
		return nil, ErrLinkedToSession
	default:
		return nil, ErrTerminalStatus
	}

	if err := store.AbandonPlayerTask(ctx, userID, playerTaskID, models.TaskStatusAccepted, time.Now().UTC()); err != nil {
		if errors.Is(err, dberror.ErrVersionConflict) {
			return nil, ErrTerminalStatus.Msg("task status changed concurrently")
		}
		return nil, err
	}

	log.Ctx(ctx).Info().Str("player_task_id", playerTaskID).Msg("task abandoned")
	return &AbandonResponse{
		Message:      "task abandoned",
		PlayerTaskID: playerTaskID,
		Status:       models.TaskStatusAbandoned,
	}, nil
}
