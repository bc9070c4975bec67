package setup

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

var setupRoutes = []routeParam{
	{
		Method:  http.MethodPut,
		Path:    "/player/game_session/vehicle",
		Handler: selectVehicleHandler,
	},
	{
		Method:  http.MethodPut,
		Path:    "/player/game_session/cargo",
		Handler: selectCargoHandler,
	},
	{
		Method:  http.MethodPut,
		Path:    "/player/game_session/destination",
		Handler: selectDestinationHandler,
	},
	{
		Method:  http.MethodGet,
		Path:    "/player/game_session/summary",
		Handler: getSummaryHandler,
	},
	{
		Method:  http.MethodGet,
		Path:    "/player/vehicles",
		Handler: listVehiclesHandler,
	},
	{
		Method:  http.MethodGet,
		Path:    "/player/destinations",
		Handler: listDestinationsHandler,
	},
	{
		Method:  http.MethodGet,
		Path:    "/player/warehouse/items",
		Handler: listWarehouseHandler,
	},
}

// AddRoutes registers the session setup endpoints on the given router.
func AddRoutes(r chi.Router) {
	for _, route := range setupRoutes {
		r.Method(route.Method, route.Path, httpx.WrapHttpRsp(route.Handler))
	}
}

func selectVehicleHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	req := &SelectVehicleRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	rsp, err := SelectVehicle(ctx, db.DB(ctx), userID, req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func selectCargoHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	req := &SelectCargoRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	rsp, err := SelectCargo(ctx, db.DB(ctx), userID, req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func selectDestinationHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	req := &SelectDestinationRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}

	rsp, err := SelectDestination(ctx, db.DB(ctx), userID, req)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func getSummaryHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	rsp, err := GetSummary(ctx, db.DB(ctx), userID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func listVehiclesHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	availability := r.URL.Query().Get("availability")
	rsp, err := ListSelectableVehicles(ctx, db.DB(ctx), userID, availability)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func listDestinationsHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	rsp, err := ListSelectableDestinations(ctx, db.DB(ctx), userID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func listWarehouseHandler(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()
	userID := gamecommon.GetUserID(ctx)
	if userID == "" {
		return nil, httpx.ErrUnAuthorized()
	}

	rsp, err := ListWarehouse(ctx, db.DB(ctx), userID)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}
