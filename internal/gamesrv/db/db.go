// Package db provides the storage interfaces and connection plumbing for the
// game server. It defines four manager interfaces:
//   - CatalogManager: immutable reference data (vehicles, items, destinations, tasks)
//   - PlayerManager: player records, owned vehicles, warehouse ledger, session setup
//   - TaskManager: player task lifecycle records
//   - GameSessionManager: game session records and the atomic session commit
//
// The catalog interface is read-mostly; writes exist only for the boot-time
// seed loader. Managers are injected into the domain packages as interfaces,
// never reached through package-level state.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/apperrors"
	"github.com/volticar/volticar/internal/gamesrv/db/dbmanager"
	"github.com/volticar/volticar/internal/gamesrv/db/models"
	"github.com/volticar/volticar/internal/gamesrv/db/postgresql"
)

// CatalogManager handles immutable catalog reference data. Upserts exist for
// the seed loader only; the rest of the server treats the catalog as
// read-only.
type CatalogManager interface {
	// Vehicle definitions
	UpsertVehicleDefinition(ctx context.Context, def *models.VehicleDefinition) apperrors.Error
	GetVehicleDefinition(ctx context.Context, vehicleID string) (*models.VehicleDefinition, apperrors.Error)
	ListVehicleDefinitions(ctx context.Context) ([]*models.VehicleDefinition, apperrors.Error)

	// Item definitions
	UpsertItemDefinition(ctx context.Context, def *models.ItemDefinition) apperrors.Error
	GetItemDefinition(ctx context.Context, itemID string) (*models.ItemDefinition, apperrors.Error)
	ListItemDefinitions(ctx context.Context, itemIDs []string) (map[string]*models.ItemDefinition, apperrors.Error)

	// Destinations
	UpsertDestination(ctx context.Context, dest *models.Destination) apperrors.Error
	GetDestination(ctx context.Context, destinationID string) (*models.Destination, apperrors.Error)
	ListDestinations(ctx context.Context) ([]*models.Destination, apperrors.Error)

	// Task definitions
	UpsertTaskDefinition(ctx context.Context, def *models.TaskDefinition) apperrors.Error
	GetTaskDefinition(ctx context.Context, taskID string) (*models.TaskDefinition, apperrors.Error)
	ListTaskDefinitions(ctx context.Context, mode string, activeAt *time.Time) ([]*models.TaskDefinition, apperrors.Error)
}

// PlayerManager handles player records, owned vehicles, the warehouse ledger,
// and the embedded session setup aggregate. Setup updates are guarded by the
// caller-supplied expected version and fail with ErrVersionConflict when the
// aggregate changed underneath.
type PlayerManager interface {
	CreatePlayer(ctx context.Context, player *models.Player) apperrors.Error
	GetPlayer(ctx context.Context, userID string) (*models.Player, apperrors.Error)

	// UpdateSessionSetup replaces the setup document. A nil setup clears it.
	// Returns the new setup version.
	UpdateSessionSetup(ctx context.Context, userID string, setup *models.SessionSetup, expectedVersion int64) (int64, apperrors.Error)

	// Owned vehicles
	CreatePlayerVehicle(ctx context.Context, pv *models.PlayerVehicle) apperrors.Error
	GetPlayerVehicleByDefinition(ctx context.Context, userID, vehicleID string) (*models.PlayerVehicle, apperrors.Error)
	ListPlayerVehicles(ctx context.Context, userID string) ([]*models.PlayerVehicle, apperrors.Error)

	// Warehouse ledger
	UpsertWarehouseItem(ctx context.Context, item *models.WarehouseItem) apperrors.Error
	GetWarehouseQuantities(ctx context.Context, userID string, itemIDs []string) (map[string]int, apperrors.Error)
	ListWarehouseItems(ctx context.Context, userID string) ([]*models.WarehouseItem, apperrors.Error)
}

// TaskManager handles player task lifecycle records.
type TaskManager interface {
	// AcceptPlayerTask applies the accept-with-reuse policy: a non-terminal
	// record for the same (player, task) fails with ErrAlreadyExists; an
	// abandoned record is reset in place; otherwise the given record is
	// inserted. Returns the effective record.
	AcceptPlayerTask(ctx context.Context, pt *models.PlayerTask) (*models.PlayerTask, apperrors.Error)

	GetPlayerTask(ctx context.Context, playerTaskID string) (*models.PlayerTask, apperrors.Error)
	ListPlayerTasks(ctx context.Context, userID string, statuses []string) ([]*models.PlayerTask, apperrors.Error)

	// AbandonPlayerTask marks the record abandoned, guarded on the status the
	// caller validated against. Fails with ErrVersionConflict on drift.
	AbandonPlayerTask(ctx context.Context, userID, playerTaskID, fromStatus string, at time.Time) apperrors.Error

	// HasCompletedTask reports whether the player has any completed record
	// for the given task definition.
	HasCompletedTask(ctx context.Context, userID, taskID string) (bool, apperrors.Error)
}

// GameSessionManager handles game session records. CommitGameSession is the
// single write path that creates sessions; it applies the full validated
// write set in one transaction.
type GameSessionManager interface {
	CommitGameSession(ctx context.Context, commit *models.GameSessionCommit) apperrors.Error
	GetGameSession(ctx context.Context, gameSessionID string) (*models.GameSession, apperrors.Error)
	ListGameSessions(ctx context.Context, userID string) ([]*models.GameSession, apperrors.Error)
}

// ConnectionManager closes the request-scoped connection.
type ConnectionManager interface {
	Close(ctx context.Context)
}

// Database combines all managers into a single interface backing one request.
type Database interface {
	CatalogManager
	PlayerManager
	TaskManager
	GameSessionManager
	ConnectionManager
}

var pool dbmanager.Pool

// Init initializes the database connection pool. Panics when the pool cannot
// be created; the server cannot run without storage.
func Init() {
	ctx := log.Logger.WithContext(context.Background())
	pg := dbmanager.NewPool(ctx, "postgresql")
	if pg == nil {
		panic("unable to create db pool")
	}
	pool = pg
}

// Conn returns a new database connection from the pool.
func Conn(ctx context.Context) (dbmanager.Conn, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	conn, err := pool.Conn(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
		return nil, err
	}
	return conn, nil
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "VolticarGameDb"

// ConnCtx adds a database connection to the context.
func ConnCtx(ctx context.Context) (context.Context, error) {
	conn, err := Conn(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, ctxDbKey, conn), nil
}

type volticarGameDb struct {
	CatalogManager
	PlayerManager
	TaskManager
	GameSessionManager
	ConnectionManager
}

// DB returns a Database bound to the connection stored in the context.
// Returns nil if no connection is found in the context.
func DB(ctx context.Context) Database {
	if conn, ok := ctx.Value(ctxDbKey).(dbmanager.Conn); ok {
		cm, pm, tm, gm, xm := postgresql.NewGameDb(conn)
		return &volticarGameDb{
			CatalogManager:     cm,
			PlayerManager:      pm,
			TaskManager:        tm,
			GameSessionManager: gm,
			ConnectionManager:  xm,
		}
	}
	log.Ctx(ctx).Error().Msg("unable to get db connection from context")
	return nil
}
