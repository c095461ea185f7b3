package main

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// Route is a single entry of the routing table. A pattern segment starting
// with ':' captures one path segment and a last segment starting with '*'
// captures the rest of the path.
type Route struct {
	Method   string
	Pattern  string
	Handle   httprouter.Handle
	segments []string
}

// RouteTable dispatches a request to the first route, in registration order,
// matching its method and path. Requests no route accepts are handed to the
// NotFound stage which escalates them to the error stage.
type RouteTable struct {
	routes   []Route
	NotFound httprouter.Handle
}

// NewRouteTable provides an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// Handle appends a route to the table.
func (rt *RouteTable) Handle(method, pattern string, handle httprouter.Handle) {
	if len(pattern) == 0 || pattern[0] != '/' {
		panic("route pattern must begin with '/' in '" + pattern + "'")
	}
	if handle == nil {
		panic("route handle must not be nil")
	}
	segments := splitPath(pattern)
	for i, s := range segments {
		if strings.HasPrefix(s, "*") && i != len(segments)-1 {
			panic("catch-all segment must be the last one in '" + pattern + "'")
		}
	}
	rt.routes = append(rt.routes, Route{Method: method, Pattern: pattern, Handle: handle, segments: segments})
}

// GET is a shortcut for rt.Handle(http.MethodGet, pattern, handle).
func (rt *RouteTable) GET(pattern string, handle httprouter.Handle) {
	rt.Handle(http.MethodGet, pattern, handle)
}

// POST is a shortcut for rt.Handle(http.MethodPost, pattern, handle).
func (rt *RouteTable) POST(pattern string, handle httprouter.Handle) {
	rt.Handle(http.MethodPost, pattern, handle)
}

// Routes returns the registered routes in matching order.
func (rt *RouteTable) Routes() []Route {
	return rt.routes
}

// Lookup finds the first route accepting the method and path. HEAD
// requests are served by GET routes.
func (rt *RouteTable) Lookup(method, path string) (httprouter.Handle, httprouter.Params, bool) {
	segments := splitPath(path)
	for _, route := range rt.routes {
		if route.Method != method && !(method == http.MethodHead && route.Method == http.MethodGet) {
			continue
		}
		if ps, ok := route.match(segments); ok {
			return route.Handle, ps, true
		}
	}
	return nil, nil, false
}

func (route Route) match(segments []string) (httprouter.Params, bool) {
	var ps httprouter.Params
	for i, pattern := range route.segments {
		if strings.HasPrefix(pattern, "*") {
			ps = append(ps, httprouter.Param{Key: pattern[1:], Value: "/" + strings.Join(segments[i:], "/")})
			return ps, true
		}
		if i >= len(segments) {
			return nil, false
		}
		switch {
		case strings.HasPrefix(pattern, ":"):
			if segments[i] == "" {
				return nil, false
			}
			ps = append(ps, httprouter.Param{Key: pattern[1:], Value: segments[i]})
		case pattern != segments[i]:
			return nil, false
		}
	}
	if len(segments) != len(route.segments) {
		return nil, false
	}
	return ps, true
}

// splitPath cleans the path and splits it into segments.
// A trailing slash is not significant.
func splitPath(path string) []string {
	path = strings.Trim(httprouter.CleanPath(path), "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// ServeHTTP makes the table usable as the server handler.
func (rt *RouteTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if handle, ps, ok := rt.Lookup(r.Method, r.URL.Path); ok {
		handle(w, r, ps)
		return
	}
	if rt.NotFound != nil {
		rt.NotFound(w, r, nil)
		return
	}
	http.NotFound(w, r)
}

// SetupRoutes registers every route in matching order and the fallback stages.
func (api *APIHandler) SetupRoutes(router *RouteTable, m *MiddlewareMap) *RouteTable {
	api.SetupBookRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.NotFound = m.public(api.NotFoundStage)
	return router
}
