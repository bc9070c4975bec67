package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// ResolvedSetup is the setup document resolved against the live catalog and
// player state. Session start resolves the same way before committing, so
// summary and commit agree on what they validate.
type ResolvedSetup struct {
	Setup       *models.SessionSetup
	Vehicle     *models.VehicleDefinition
	Destination *models.Destination
	Items       map[string]*models.ItemDefinition
	PlayerLevel int

	TotalWeight float64
	TotalVolume float64
	TotalValue  int
}

// Resolve loads the catalog definitions referenced by the setup. Missing
// references are reported as warnings, not errors; setup state is allowed to
// go stale between edits.
func Resolve(ctx context.Context, store Store, player *models.Player) (*ResolvedSetup, []string, apperrors.Error) {
	setup := player.SessionSetup
	resolved := &ResolvedSetup{
		Setup:       setup,
		Items:       map[string]*models.ItemDefinition{},
		PlayerLevel: player.Level,
	}
	var warnings []string

	if setup == nil {
		return resolved, warnings, nil
	}

	if setup.SelectedVehicleID != "" {
		def, err := store.GetVehicleDefinition(ctx, setup.SelectedVehicleID)
		if err != nil {
			if !errors.Is(err, dberror.ErrNotFound) {
				return nil, nil, err
			}
			warnings = append(warnings, "selected vehicle no longer exists")
		} else {
			resolved.Vehicle = def
		}
	}

	if setup.SelectedDestinationID != "" {
		dest, err := store.GetDestination(ctx, setup.SelectedDestinationID)
		if err != nil {
			if !errors.Is(err, dberror.ErrNotFound) {
				return nil, nil, err
			}
			warnings = append(warnings, "selected destination no longer exists")
		} else {
			resolved.Destination = dest
		}
	}

	if len(setup.SelectedCargo) > 0 {
		itemIDs := make([]string, 0, len(setup.SelectedCargo))
		for _, sel := range setup.SelectedCargo {
			itemIDs = append(itemIDs, sel.ItemID)
		}
		itemDefs, err := store.ListItemDefinitions(ctx, itemIDs)
		if err != nil {
			return nil, nil, err
		}
		resolved.Items = itemDefs
		for _, sel := range setup.SelectedCargo {
			def, ok := itemDefs[sel.ItemID]
			if !ok {
				warnings = append(warnings, "selected item "+sel.ItemID+" no longer exists")
				continue
			}
			resolved.TotalWeight += def.WeightPerUnit * float64(sel.Quantity)
			resolved.TotalVolume += def.VolumePerUnit * float64(sel.Quantity)
			resolved.TotalValue += def.BaseValuePerUnit * sel.Quantity
		}
	}

	return resolved, warnings, nil
}

// CapacityOK reports whether the resolved cargo fits the resolved vehicle.
// True when no vehicle is resolved; vehicle presence is checked separately.
func (r *ResolvedSetup) CapacityOK() (weightOK, volumeOK bool) {
	if r.Vehicle == nil {
		return true, true
	}
	return r.TotalWeight <= r.Vehicle.MaxLoadWeight, r.TotalVolume <= r.Vehicle.MaxLoadVolume
}

// TaskCompletionIssues evaluates a task definition against the resolved setup
// and returns one human-readable issue per unmet requirement. An empty result
// means the task is completable with this setup.
func TaskCompletionIssues(def *models.TaskDefinition, resolved *ResolvedSetup) []string {
	var issues []string
	reqs := def.Requirements

	if reqs.RequiredPlayerLevel > 0 && resolved.PlayerLevel < reqs.RequiredPlayerLevel {
		issues = append(issues, fmt.Sprintf("requires player level %d", reqs.RequiredPlayerLevel))
	}

	if reqs.DestinationID != "" {
		selected := ""
		if resolved.Setup != nil {
			selected = resolved.Setup.SelectedDestinationID
		}
		if selected != reqs.DestinationID {
			issues = append(issues, "requires delivery to a different destination")
		}
	}

	if reqs.RequiredVehicleType != "" {
		if resolved.Vehicle == nil || resolved.Vehicle.Type != reqs.RequiredVehicleType {
			issues = append(issues, "requires a vehicle of type "+reqs.RequiredVehicleType)
		}
	}

	selectedQuantities := map[string]int{}
	if resolved.Setup != nil {
		for _, sel := range resolved.Setup.SelectedCargo {
			selectedQuantities[sel.ItemID] += sel.Quantity
		}
	}
	for _, deliver := range reqs.DeliverItems {
		if selectedQuantities[deliver.ItemID] < deliver.Quantity {
			issues = append(issues, fmt.Sprintf(
				"requires %d of item %s in cargo", deliver.Quantity, deliver.ItemID))
		}
	}

	if reqs.MinCargoValue > 0 && resolved.TotalValue < reqs.MinCargoValue {
		issues = append(issues, fmt.Sprintf("requires cargo value of at least %d", reqs.MinCargoValue))
	}

	return issues
}

// GetSummary resolves the current setup against the live catalog and reports
// whether a session can start, plus the completability of every accepted
// task. A player who never initialized a setup gets NotFound.
func GetSummary(ctx context.Context, store Store, userID string) (*SummaryResponse, apperrors.Error) {
	player, err := store.GetPlayer(ctx, userID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if player.SessionSetup == nil {
		return nil, ErrNoSetup
	}

	resolved, warnings, err := Resolve(ctx, store, player)
	if err != nil {
		return nil, err
	}

	rsp := &SummaryResponse{
		RelatedTasks:      []RelatedTaskSummary{},
		StartGameWarnings: warnings,
		CanStartGame:      len(warnings) == 0,
	}

	if resolved.Vehicle != nil {
		rsp.SessionSummary.SelectedVehicle = &VehicleSummary{
			VehicleID:     resolved.Vehicle.VehicleID,
			Name:          resolved.Vehicle.Name,
			MaxLoadWeight: resolved.Vehicle.MaxLoadWeight,
			MaxLoadVolume: resolved.Vehicle.MaxLoadVolume,
		}
	} else {
		rsp.CanStartGame = false
		rsp.StartGameWarnings = append(rsp.StartGameWarnings, "no vehicle selected")
	}

	if len(player.SessionSetup.SelectedCargo) > 0 {
		cargo := &SummaryCargo{
			Items:       []SummaryCargoItem{},
			TotalWeight: resolved.TotalWeight,
			TotalVolume: resolved.TotalVolume,
		}
		for _, sel := range player.SessionSetup.SelectedCargo {
			def, ok := resolved.Items[sel.ItemID]
			if !ok {
				continue
			}
			cargo.Items = append(cargo.Items, SummaryCargoItem{
				ItemID:        def.ItemID,
				Name:          def.Name,
				Quantity:      sel.Quantity,
				WeightPerUnit: def.WeightPerUnit,
				VolumePerUnit: def.VolumePerUnit,
			})
		}
		rsp.SessionSummary.SelectedCargo = cargo

		weightOK, volumeOK := resolved.CapacityOK()
		if !weightOK {
			rsp.CanStartGame = false
			rsp.StartGameWarnings = append(rsp.StartGameWarnings, "cargo exceeds vehicle weight capacity")
		}
		if !volumeOK {
			rsp.CanStartGame = false
			rsp.StartGameWarnings = append(rsp.StartGameWarnings, "cargo exceeds vehicle volume capacity")
		}
	}

	if resolved.Destination != nil {
		rsp.SessionSummary.SelectedDestination = &DestinationSummary{
			DestinationID: resolved.Destination.DestinationID,
			Name:          resolved.Destination.Name,
			Region:        resolved.Destination.Region,
		}
	} else {
		rsp.CanStartGame = false
		rsp.StartGameWarnings = append(rsp.StartGameWarnings, "no destination selected")
	}

	acceptedTasks, err := store.ListPlayerTasks(ctx, userID, []string{models.TaskStatusAccepted})
	if err != nil {
		return nil, err
	}
	for _, pt := range acceptedTasks {
		def, err := store.GetTaskDefinition(ctx, pt.TaskID)
		if err != nil {
			if errors.Is(err, dberror.ErrNotFound) {
				continue
			}
			return nil, err
		}
		issues := TaskCompletionIssues(def, resolved)
		rsp.RelatedTasks = append(rsp.RelatedTasks, RelatedTaskSummary{
			PlayerTaskID:                  pt.PlayerTaskID,
			TaskID:                        pt.TaskID,
			Title:                         def.Title,
			Status:                        pt.Status,
			IsCompletableWithCurrentSetup: len(issues) == 0,
			CompletionIssues:              issuesOrEmpty(issues),
		})
	}

	if rsp.StartGameWarnings == nil {
		rsp.StartGameWarnings = []string{}
	}
	return rsp, nil
}

func issuesOrEmpty(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return issues
}
