// Package postgresql implements the db manager interfaces over PostgreSQL.
package postgresql

import (
	"github.com/volticar/volticar/internal/gamesrv/db/dbmanager"
)

type volticarGameDb struct {
	cm *catalogManager
	pm *playerManager
	tm *taskManager
	gm *sessionManager
	xm *connectionManager
}

func NewGameDb(c dbmanager.Conn) (*catalogManager, *playerManager, *taskManager, *sessionManager, *connectionManager) {
	g := &volticarGameDb{}
	g.cm = newCatalogManager(c)
	g.pm = newPlayerManager(c)
	g.tm = newTaskManager(c)
	g.gm = newSessionManager(c)
	g.xm = newConnectionManager(c)
	return g.cm, g.pm, g.tm, g.gm, g.xm
}
