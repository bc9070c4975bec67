package gamesession

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/volticar/volticar/internal/common/httpx"
	"github.com/volticar/volticar/internal/gamesrv/db"
	"github.com/volticar/volticar/internal/gamesrv/gamecommon"
)

type routeParam struct {
	Method  string
	Path    string
	Handler httpx.RequestHandler
}

var sessionRoutes = []routeParam{
	{
		Method:  http.MethodPost,
		Path:    "/player/game_session/start",
		Handler: startSessionHandler,
	},
	{
		Method:  http.MethodGet,
		Path:    "/player/game_session/{gameSessionID}",
		Handler: getSessionHandler,
	},
	{
		Method:  http.MethodGet,
		Path:    "/player/game_sessions",
		Handler: listSessionsHandler,
	},
}

// AddRoutes registers the game session endpoints on the given router.
func AddRoutes(r chi.Router) {
	for _, route := range sessionRoutes {
		r.Method(route.Method, route.Path, httpx.WrapHttpRsp(route.Handler))
	}
}

func startSessionHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	req := &StartRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	rsp, err := Start(ctx, db.DB(ctx), userID, req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/player/game_session/" + rsp.GameSessionID,
		Response:   rsp,
	}, nil
}

func getSessionHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	gameSessionID := chi.URLParam(r, "gameSessionID")
	rsp, err := GetSession(ctx, db.DB(ctx), userID, gameSessionID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func listSessionsHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	rsp, err := ListSessions(ctx, db.DB(ctx), userID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}
