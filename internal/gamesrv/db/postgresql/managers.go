package postgresql

import (
	"context"
	"database/sql"

	"github.com/volticar/volticar/internal/gamesrv/db/dbmanager"
)

// Catalog Manager
type catalogManager struct {
	c dbmanager.Conn
}

func (cm *catalogManager) conn() *sql.Conn {
	return cm.c.Conn()
}

func newCatalogManager(c dbmanager.Conn) *catalogManager {
	return &catalogManager{c: c}
}

// Player Manager
type playerManager struct {
	c dbmanager.Conn
}

func (pm *playerManager) conn() *sql.Conn {
	return pm.c.Conn()
}

func newPlayerManager(c dbmanager.Conn) *playerManager {
	return &playerManager{c: c}
}

// Task Manager
type taskManager struct {
	c dbmanager.Conn
}

func (tm *taskManager) conn() *sql.Conn {
	return tm.c.Conn()
}

func newTaskManager(c dbmanager.Conn) *taskManager {
	return &taskManager{c: c}
}

// Session Manager
type sessionManager struct {
	c dbmanager.Conn
}

func (gm *sessionManager) conn() *sql.Conn {
	return gm.c.Conn()
}

func newSessionManager(c dbmanager.Conn) *sessionManager {
	return &sessionManager{c: c}
}

// Connection Manager
type connectionManager struct {
	c dbmanager.Conn
}

func newConnectionManager(c dbmanager.Conn) *connectionManager {
	return &connectionManager{c: c}
}

func (xm *connectionManager) Close(ctx context.Context) {
	xm.c.Close(ctx)
}
