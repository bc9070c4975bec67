// Package server assembles the game server: middleware chain, authenticated
// route groups, and the unauthenticated version and readiness endpoints.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/httpx"
	commonmiddleware "github.com/volticar/volticar/internal/common/middleware"
	"github.com/volticar/volticar/internal/gamesrv/auth"
	"github.com/volticar/volticar/internal/gamesrv/config"
	"github.com/volticar/volticar/internal/gamesrv/db"
	"github.com/volticar/volticar/internal/gamesrv/gamecommon"
	"github.com/volticar/volticar/internal/gamesrv/gamesession"
	"github.com/volticar/volticar/internal/gamesrv/setup"
	"github.com/volticar/volticar/internal/gamesrv/task"
)

type GameServer struct {
	Router *chi.Mux
}

func CreateNewServer() (*GameServer, error) {
	s := &GameServer{}
	s.Router = chi.NewRouter()
	return s, nil
}

func (s *GameServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(db.LoadDBMiddleware)
	if config.Config().HandleCORS {
		s.Router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.TestUserIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	s.mountResourceHandlers(s.Router)
}

func (s *GameServer) mountResourceHandlers(r chi.Router) {
	// Setup, task, and session routes share one router so chi resolves the
	// static /player/game_session/* paths before the parameterized one.
	r.Group(func(gr chi.Router) {
		gr.Use(auth.PlayerAuthMiddleware)
		setup.AddRoutes(gr)
		task.AddRoutes(gr)
		gamesession.AddRoutes(gr)
	})
	r.Get("/version", s.getVersion)
	r.Get("/ready", s.getReadiness)
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *GameServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Volticar Game Server: " + gamecommon.ServerVersion,
		ApiVersion:    gamecommon.ApiVersion,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *GameServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, err := db.ConnCtx(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("database connection failed during readiness check")
		httpx.SendJsonRsp(r.Context(), w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "database connection failed",
		})
		return
	}
	defer db.DB(ctx).Close(ctx)

	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
