// Package router provides the pre-navigation guard that gates routes on
// the session state.
package router

// Authenticator reports whether a session is active. Satisfied by the
// session store.
type Authenticator interface {
	IsAuthenticated() bool
}

// Route names used by the guard's redirects.
const (
	RouteLogin     = "login"
	RouteDashboard = "dashboard"
)

// Route is one entry of the navigation table. The zero value of Public
// makes every route require authentication unless explicitly marked.
type Route struct {
	Name   string
	Path   string
	Public bool
}

// Decision is the outcome of resolving a navigation request.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Guard checks navigation requests against the session.
type Guard struct {
	auth   Authenticator
	routes map[string]Route
}

// NewGuard creates a guard over the given route table.
func NewGuard(auth Authenticator, routes []Route) *Guard {
	table := make(map[string]Route, len(routes))
	for _, r := range routes {
		table[r.Name] = r
	}
	return &Guard{auth: auth, routes: table}
}

// DefaultRoutes is the application's navigation table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteLogin, Path: "/login", Public: true},
		{Name: RouteDashboard, Path: "/"},
		{Name: "tasks", Path: "/tasks"},
		{Name: "users", Path: "/users"},
	}
}

// Resolve decides whether navigation to the named route is allowed.
// Protected routes redirect unauthenticated visitors to login; the
// login route redirects authenticated visitors to the dashboard.
// Unknown routes are treated as protected.
func (g *Guard) Resolve(name string) Decision {
	route, ok := g.routes[name]
	requiresAuth := !ok || !route.Public

	authenticated := g.auth.IsAuthenticated()

	if requiresAuth && !authenticated {
		return Decision{RedirectTo: RouteLogin}
	}
	if name == RouteLogin && authenticated {
		return Decision{RedirectTo: RouteDashboard}
	}
	return Decision{Allow: true}
}
