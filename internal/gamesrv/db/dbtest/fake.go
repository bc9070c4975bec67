// Package dbtest provides an in-memory implementation of db.Database for
// unit tests. It honors the same guard semantics as the PostgreSQL layer:
// setup version conflicts, conditional warehouse debits, vehicle locks, and
// the accept-with-reuse policy, so domain packages can test their transaction
// contracts without a live database.
package dbtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/common/uuid"
	"github.com/volticar/volticar/internal/gamesrv/db/dberror"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

// FakeDatabase is an in-memory db.Database. Safe for concurrent use.
type FakeDatabase struct {
	mu sync.Mutex

	vehicles     map[string]*models.VehicleDefinition
	items        map[string]*models.ItemDefinition
	destinations map[string]*models.Destination
	taskDefs     map[string]*models.TaskDefinition

	players        map[string]*models.Player
	playerVehicles map[string]*models.PlayerVehicle
	warehouse      map[string]map[string]*models.WarehouseItem
	playerTasks    map[string]*models.PlayerTask
	sessions       map[string]*models.GameSession
}

// New creates an empty FakeDatabase.
func New() *FakeDatabase {
	return &FakeDatabase{
		vehicles:       map[string]*models.VehicleDefinition{},
		items:          map[string]*models.ItemDefinition{},
		destinations:   map[string]*models.Destination{},
		taskDefs:       map[string]*models.TaskDefinition{},
		players:        map[string]*models.Player{},
		playerVehicles: map[string]*models.PlayerVehicle{},
		warehouse:      map[string]map[string]*models.WarehouseItem{},
		playerTasks:    map[string]*models.PlayerTask{},
		sessions:       map[string]*models.GameSession{},
	}
}

// Close implements db.ConnectionManager.
func (f *FakeDatabase) Close(_ context.Context) {}

// --- CatalogManager ---

func (f *FakeDatabase) UpsertVehicleDefinition(_ context.Context, def *models.VehicleDefinition) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *def
	f.vehicles[def.VehicleID] = &cp
	return nil
}

func (f *FakeDatabase) GetVehicleDefinition(_ context.Context, vehicleID string) (*models.VehicleDefinition, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	def, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("vehicle definition not found")
	}
	cp := *def
	return &cp, nil
}

func (f *FakeDatabase) ListVehicleDefinitions(_ context.Context) ([]*models.VehicleDefinition, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var defs []*models.VehicleDefinition
	for _, def := range f.vehicles {
		cp := *def
		defs = append(defs, &cp)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].RequiredLevelToUnlock != defs[j].RequiredLevelToUnlock {
			return defs[i].RequiredLevelToUnlock < defs[j].RequiredLevelToUnlock
		}
		return defs[i].Name < defs[j].Name
	})
	return defs, nil
}

func (f *FakeDatabase) UpsertItemDefinition(_ context.Context, def *models.ItemDefinition) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *def
	f.items[def.ItemID] = &cp
	return nil
}

func (f *FakeDatabase) GetItemDefinition(_ context.Context, itemID string) (*models.ItemDefinition, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	def, ok := f.items[itemID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("item definition not found")
	}
	cp := *def
	return &cp, nil
}

func (f *FakeDatabase) ListItemDefinitions(_ context.Context, itemIDs []string) (map[string]*models.ItemDefinition, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defs := make(map[string]*models.ItemDefinition, len(itemIDs))
	for _, id := range itemIDs {
		if def, ok := f.items[id]; ok {
			cp := *def
			defs[id] = &cp
		}
	}
	return defs, nil
}

func (f *FakeDatabase) UpsertDestination(_ context.Context, dest *models.Destination) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *dest
	f.destinations[dest.DestinationID] = &cp
	return nil
}

func (f *FakeDatabase) GetDestination(_ context.Context, destinationID string) (*models.Destination, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dest, ok := f.destinations[destinationID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("destination not found")
	}
	cp := *dest
	return &cp, nil
}

func (f *FakeDatabase) ListDestinations(_ context.Context) ([]*models.Destination, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var dests []*models.Destination
	for _, dest := range f.destinations {
		cp := *dest
		dests = append(dests, &cp)
	}
	sort.Slice(dests, func(i, j int) bool {
		if dests[i].Region != dests[j].Region {
			return dests[i].Region < dests[j].Region
		}
		return dests[i].Name < dests[j].Name
	})
	return dests, nil
}

func (f *FakeDatabase) UpsertTaskDefinition(_ context.Context, def *models.TaskDefinition) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *def
	f.taskDefs[def.TaskID] = &cp
	return nil
}

func (f *FakeDatabase) GetTaskDefinition(_ context.Context, taskID string) (*models.TaskDefinition, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	def, ok := f.taskDefs[taskID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("task definition not found")
	}
	cp := *def
	return &cp, nil
}

func (f *FakeDatabase) ListTaskDefinitions(_ context.Context, mode string, activeAt *time.Time) ([]*models.TaskDefinition, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var defs []*models.TaskDefinition
	for _, def := range f.taskDefs {
		if !def.IsActive {
			continue
		}
		if mode != "" && def.Mode != mode {
			continue
		}
		if activeAt != nil && !def.AvailableAt(*activeAt) {
			continue
		}
		cp := *def
		defs = append(defs, &cp)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].TaskID < defs[j].TaskID })
	return defs, nil
}

// --- PlayerManager ---

func (f *FakeDatabase) CreatePlayer(_ context.Context, player *models.Player) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if player.UserID == "" {
		return dberror.ErrMissingUserID
	}
	if _, ok := f.players[player.UserID]; ok {
		return dberror.ErrAlreadyExists.Msg("player already exists")
	}
	cp := *player
	if cp.Level == 0 {
		cp.Level = 1
	}
	f.players[player.UserID] = &cp
	return nil
}

func (f *FakeDatabase) GetPlayer(_ context.Context, userID string) (*models.Player, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getPlayerLocked(userID)
}

func (f *FakeDatabase) getPlayerLocked(userID string) (*models.Player, apperrors.Error) {
	if userID == "" {
		return nil, dberror.ErrMissingUserID
	}
	player, ok := f.players[userID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("player not found")
	}
	cp := *player
	if player.SessionSetup != nil {
		setupCp := *player.SessionSetup
		setupCp.SelectedCargo = append([]models.CargoSelection(nil), player.SessionSetup.SelectedCargo...)
		cp.SessionSetup = &setupCp
	}
	return &cp, nil
}

func (f *FakeDatabase) UpdateSessionSetup(_ context.Context, userID string, setup *models.SessionSetup, expectedVersion int64) (int64, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	player, ok := f.players[userID]
	if !ok {
		return 0, dberror.ErrNotFound.Msg("player not found")
	}
	if player.SetupVersion != expectedVersion {
		return 0, dberror.ErrVersionConflict.Msg("session setup was modified concurrently")
	}
	if setup == nil {
		player.SessionSetup = nil
	} else {
		cp := *setup
		cp.SelectedCargo = append([]models.CargoSelection(nil), setup.SelectedCargo...)
		player.SessionSetup = &cp
	}
	player.SetupVersion++
	player.UpdatedAt = time.Now().UTC()
	return player.SetupVersion, nil
}

func (f *FakeDatabase) CreatePlayerVehicle(_ context.Context, pv *models.PlayerVehicle) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pv.InstanceID == "" {
		pv.InstanceID = uuid.NewString()
	}
	if _, ok := f.playerVehicles[pv.InstanceID]; ok {
		return dberror.ErrAlreadyExists.Msg("vehicle instance already exists")
	}
	cp := *pv
	if cp.CurrentCondition == 0 {
		cp.CurrentCondition = 1.0
	}
	f.playerVehicles[pv.InstanceID] = &cp
	return nil
}

func (f *FakeDatabase) GetPlayerVehicleByDefinition(_ context.Context, userID, vehicleID string) (*models.PlayerVehicle, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Instances free of an active session come first, earliest purchase
	// among those.
	better := func(a, b *models.PlayerVehicle) bool {
		if a.IsInActiveSession != b.IsInActiveSession {
			return !a.IsInActiveSession
		}
		return a.PurchaseDate.Before(b.PurchaseDate)
	}
	var found *models.PlayerVehicle
	for _, pv := range f.playerVehicles {
		if pv.UserID == userID && pv.VehicleID == vehicleID {
			if found == nil || better(pv, found) {
				found = pv
			}
		}
	}
	if found == nil {
		return nil, dberror.ErrNotFound.Msg("player does not own this vehicle")
	}
	cp := *found
	return &cp, nil
}

func (f *FakeDatabase) ListPlayerVehicles(_ context.Context, userID string) ([]*models.PlayerVehicle, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pvs []*models.PlayerVehicle
	for _, pv := range f.playerVehicles {
		if pv.UserID == userID {
			cp := *pv
			pvs = append(pvs, &cp)
		}
	}
	sort.Slice(pvs, func(i, j int) bool { return pvs[i].PurchaseDate.Before(pvs[j].PurchaseDate) })
	return pvs, nil
}

func (f *FakeDatabase) UpsertWarehouseItem(_ context.Context, item *models.WarehouseItem) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.Quantity < 0 {
		return dberror.ErrInvalidInput.Msg("quantity cannot be negative")
	}
	if f.warehouse[item.UserID] == nil {
		f.warehouse[item.UserID] = map[string]*models.WarehouseItem{}
	}
	cp := *item
	cp.UpdatedAt = time.Now().UTC()
	f.warehouse[item.UserID][item.ItemID] = &cp
	return nil
}

func (f *FakeDatabase) GetWarehouseQuantities(_ context.Context, userID string, itemIDs []string) (map[string]int, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quantities := make(map[string]int, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := f.warehouse[userID][id]; ok {
			quantities[id] = item.Quantity
		}
	}
	return quantities, nil
}

func (f *FakeDatabase) ListWarehouseItems(_ context.Context, userID string) ([]*models.WarehouseItem, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*models.WarehouseItem
	for _, item := range f.warehouse[userID] {
		cp := *item
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items, nil
}

// --- TaskManager ---

func (f *FakeDatabase) AcceptPlayerTask(_ context.Context, pt *models.PlayerTask) (*models.PlayerTask, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := pt.AcceptedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var latestAbandoned *models.PlayerTask
	for _, existing := range f.playerTasks {
		if existing.UserID != pt.UserID || existing.TaskID != pt.TaskID {
			continue
		}
		switch existing.Status {
		case models.TaskStatusAccepted, models.TaskStatusInProgress:
			return nil, dberror.ErrAlreadyExists.Msg("task already accepted")
		case models.TaskStatusAbandoned:
			if latestAbandoned == nil ||
				(existing.AbandonedAt != nil && latestAbandoned.AbandonedAt != nil &&
					existing.AbandonedAt.After(*latestAbandoned.AbandonedAt)) {
				latestAbandoned = existing
			}
		}
	}

	if latestAbandoned != nil {
		latestAbandoned.Status = models.TaskStatusAccepted
		latestAbandoned.AcceptedAt = now
		latestAbandoned.LinkedGameSessionID = ""
		latestAbandoned.Progress.Set(nil)
		latestAbandoned.AbandonedAt = nil
		latestAbandoned.UpdatedAt = now
		cp := *latestAbandoned
		return &cp, nil
	}

	id := pt.PlayerTaskID
	if id == "" {
		id = uuid.NewString()
	}
	record := &models.PlayerTask{
		PlayerTaskID: id,
		UserID:       pt.UserID,
		TaskID:       pt.TaskID,
		Status:       models.TaskStatusAccepted,
		AcceptedAt:   now,
		UpdatedAt:    now,
	}
	f.playerTasks[id] = record
	cp := *record
	return &cp, nil
}

func (f *FakeDatabase) GetPlayerTask(_ context.Context, playerTaskID string) (*models.PlayerTask, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pt, ok := f.playerTasks[playerTaskID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("player task not found")
	}
	cp := *pt
	return &cp, nil
}

func (f *FakeDatabase) ListPlayerTasks(_ context.Context, userID string, statuses []string) ([]*models.PlayerTask, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match := func(status string) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if s == status {
				return true
			}
		}
		return false
	}
	var pts []*models.PlayerTask
	for _, pt := range f.playerTasks {
		if pt.UserID == userID && match(pt.Status) {
			cp := *pt
			pts = append(pts, &cp)
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].AcceptedAt.After(pts[j].AcceptedAt) })
	return pts, nil
}

func (f *FakeDatabase) AbandonPlayerTask(_ context.Context, userID, playerTaskID, fromStatus string, at time.Time) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pt, ok := f.playerTasks[playerTaskID]
	if !ok || pt.UserID != userID || pt.Status != fromStatus {
		return dberror.ErrVersionConflict.Msg("task status changed concurrently")
	}
	pt.Status = models.TaskStatusAbandoned
	abandonedAt := at
	pt.AbandonedAt = &abandonedAt
	pt.LinkedGameSessionID = ""
	pt.UpdatedAt = at
	return nil
}

// SetPlayerTaskStatus force-sets a task record's status. Test seam for states
// the public surface only reaches through a full session lifecycle, such as
// completed prerequisites.
func (f *FakeDatabase) SetPlayerTaskStatus(playerTaskID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pt, ok := f.playerTasks[playerTaskID]; ok {
		pt.Status = status
		pt.UpdatedAt = time.Now().UTC()
	}
}

func (f *FakeDatabase) HasCompletedTask(_ context.Context, userID, taskID string) (bool, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pt := range f.playerTasks {
		if pt.UserID == userID && pt.TaskID == taskID && pt.Status == models.TaskStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

// --- GameSessionManager ---

func (f *FakeDatabase) CommitGameSession(_ context.Context, commit *models.GameSessionCommit) apperrors.Error {
	f.mu.Lock()
	defer f.mu.Unlock()

	session := commit.Session
	player, ok := f.players[session.UserID]
	if !ok {
		return dberror.ErrNotFound.Msg("player not found")
	}
	if player.ActiveGameSessionID != "" {
		return dberror.ErrActiveSession
	}
	if player.SetupVersion != commit.SetupVersion {
		return dberror.ErrVersionConflict.Msg("session setup was modified concurrently")
	}

	// Validate everything before applying anything.
	for _, debit := range commit.CargoDebits {
		item, ok := f.warehouse[session.UserID][debit.ItemID]
		if !ok || item.Quantity < debit.Quantity {
			return dberror.ErrInsufficientStock.Msg("insufficient stock for item " + debit.ItemID)
		}
	}
	if commit.VehicleInstanceID != "" {
		pv, ok := f.playerVehicles[commit.VehicleInstanceID]
		if !ok || pv.UserID != session.UserID {
			return dberror.ErrGuardFailed.Msg("vehicle instance not found")
		}
		if pv.IsInActiveSession {
			return dberror.ErrGuardFailed.Msg("vehicle is already in an active session")
		}
	}
	for _, playerTaskID := range commit.PlayerTaskIDs {
		pt, ok := f.playerTasks[playerTaskID]
		if !ok || pt.UserID != session.UserID || pt.Status != models.TaskStatusAccepted {
			return dberror.ErrGuardFailed.Msg("task " + playerTaskID + " is no longer accepted")
		}
	}

	// Apply.
	for _, debit := range commit.CargoDebits {
		f.warehouse[session.UserID][debit.ItemID].Quantity -= debit.Quantity
	}
	if commit.VehicleInstanceID != "" {
		f.playerVehicles[commit.VehicleInstanceID].IsInActiveSession = true
	}
	for _, playerTaskID := range commit.PlayerTaskIDs {
		pt := f.playerTasks[playerTaskID]
		pt.Status = models.TaskStatusInProgress
		pt.LinkedGameSessionID = session.GameSessionID
		pt.UpdatedAt = session.StartTime
	}

	sessionCp := *session
	sessionCp.CargoSnapshot = append([]models.CargoItemSnapshot(nil), session.CargoSnapshot...)
	sessionCp.AssociatedPlayerTaskIDs = append([]string(nil), session.AssociatedPlayerTaskIDs...)
	f.sessions[session.GameSessionID] = &sessionCp

	player.ActiveGameSessionID = session.GameSessionID
	player.SessionSetup = nil
	player.SetupVersion++
	player.UpdatedAt = session.StartTime
	return nil
}

func (f *FakeDatabase) GetGameSession(_ context.Context, gameSessionID string) (*models.GameSession, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[gameSessionID]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("game session not found")
	}
	cp := *session
	cp.CargoSnapshot = append([]models.CargoItemSnapshot(nil), session.CargoSnapshot...)
	cp.AssociatedPlayerTaskIDs = append([]string(nil), session.AssociatedPlayerTaskIDs...)
	return &cp, nil
}

func (f *FakeDatabase) ListGameSessions(_ context.Context, userID string) ([]*models.GameSession, apperrors.Error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sessions []*models.GameSession
	for _, session := range f.sessions {
		if session.UserID == userID {
			cp := *session
			sessions = append(sessions, &cp)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartTime.After(sessions[j].StartTime) })
	return sessions, nil
}
