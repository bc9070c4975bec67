package task

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

var taskRoutes = []routeParam{
	{
		Method:  http.MethodGet,
		Path:    "/tasks",
		Handler: listTasksHandler,
	},
	{
		Method:  http.MethodPost,
		Path:    "/tasks/{taskID}/accept",
		Handler: acceptTaskHandler,
	},
	{
		Method:  http.MethodPost,
		Path:    "/player/tasks/{playerTaskID}/abandon",
		Handler: abandonTaskHandler,
	},
}

// AddRoutes registers the task lifecycle endpoints on the given router.
func AddRoutes(r chi.Router) {
	for _, route := range taskRoutes {
		r.Method(route.Method, route.Path, httpx.WrapHttpRsp(route.Handler))
	}
}

func listTasksHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	mode := r.URL.Query().Get("mode")
	var rsp []AvailableTask
	var err error
	switch status := r.URL.Query().Get("status"); status {
	case "", "available":
		rsp, err = ListAvailable(ctx, db.DB(ctx), userID, mode)
	case "accepted":
		rsp, err = ListAccepted(ctx, db.DB(ctx), userID, mode)
	default:
		return nil, ErrInvalidStatusFilter.Msg("status must be available or accepted")
	}
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func acceptTaskHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	taskID := chi.URLParam(r, "taskID")
	rsp, err := Accept(ctx, db.DB(ctx), userID, taskID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func abandonTaskHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	playerTaskID := chi.URLParam(r, "playerTaskID")
	rsp, err := Abandon(ctx, db.DB(ctx), userID, playerTaskID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}
