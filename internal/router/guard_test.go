package router

import "testing"

type fakeAuth bool

func (f fakeAuth) IsAuthenticated() bool { return bool(f) }

func TestGuard_Resolve(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		route         string
		wantAllow     bool
		wantRedirect  string
	}{
		{"protected route unauthenticated", false, "tasks", false, RouteLogin},
		{"dashboard unauthenticated", false, RouteDashboard, false, RouteLogin},
		{"protected route authenticated", true, "tasks", true, ""},
		{"login unauthenticated", false, RouteLogin, true, ""},
		{"login while authenticated", true, RouteLogin, false, RouteDashboard},
		{"unknown route defaults to protected", false, "settings", false, RouteLogin},
		{"unknown route authenticated", true, "settings", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(fakeAuth(tt.authenticated), DefaultRoutes())
			decision := guard.Resolve(tt.route)
			if decision.Allow != tt.wantAllow {
				t.Errorf("Allow = %v, want %v", decision.Allow, tt.wantAllow)
			}
			if decision.RedirectTo != tt.wantRedirect {
				t.Errorf("RedirectTo = %q, want %q", decision.RedirectTo, tt.wantRedirect)
			}
		})
	}
}

func TestGuard_ExplicitPublicRoute(t *testing.T) {
	routes := []Route{
		{Name: "about", Path: "/about", Public: true},
		{Name: "admin", Path: "/admin"},
	}
	guard := NewGuard(fakeAuth(false), routes)

	if d := guard.Resolve("about"); !d.Allow {
		t.Errorf("public route should allow unauthenticated access, got %+v", d)
	}
	if d := guard.Resolve("admin"); d.Allow {
		t.Errorf("zero-value route should require auth, got %+v", d)
	}
}
