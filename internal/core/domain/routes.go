package domain

// LoginPath is the page anonymous visitors are sent to.
const LoginPath = "/auth/login"

// Access describes how a page treats visitors without a session.
type Access int

const (
	// AccessPublic pages render for everyone.
	AccessPublic Access = iota
	// AccessRedirect pages send anonymous visitors to LoginPath.
	AccessRedirect
	// AccessPlaceholder pages render a "please log in" notice in place.
	AccessPlaceholder
)

// Route is one guarded portal page.
type Route struct {
	Name    string
	Path    string
	Access  Access
	Message string
	// Roles restricts the page in strict mode. Empty means any signed-in user.
	Roles []Role
}

// DecisionKind is the outcome of a guard check.
type DecisionKind string

const (
	DecisionAllow       DecisionKind = "allow"
	DecisionRedirect    DecisionKind = "redirect"
	DecisionPlaceholder DecisionKind = "placeholder"
	DecisionForbidden   DecisionKind = "forbidden"
)

// Decision is what the page should do for the current visitor.
type Decision struct {
	Kind     DecisionKind `json:"kind"`
	Location string       `json:"location,omitempty"`
	Message  string       `json:"message,omitempty"`
}

var routes = []Route{
	{Name: "dashboard", Path: "/", Access: AccessPublic},
	{Name: "events", Path: "/events", Access: AccessPublic},
	{Name: "voting", Path: "/voting", Access: AccessPublic},
	{Name: "results", Path: "/results", Access: AccessPublic},
	{Name: "login", Path: LoginPath, Access: AccessPublic},
	{Name: "admin", Path: "/admin", Access: AccessRedirect, Roles: []Role{RoleAdmin, RoleHOD}},
	{Name: "analytics", Path: "/analytics", Access: AccessRedirect, Roles: []Role{RoleAdmin, RoleHOD}},
	{Name: "register-event", Path: "/register-event", Access: AccessRedirect},
	{
		Name:    "faculty-dashboard",
		Path:    "/faculty-dashboard",
		Access:  AccessPlaceholder,
		Message: "Please log in to access the faculty dashboard",
		Roles:   []Role{RoleFaculty},
	},
	{
		Name:    "coordinator-dashboard",
		Path:    "/coordinator-dashboard",
		Access:  AccessPlaceholder,
		Message: "Please log in to access the coordinator dashboard",
		Roles:   []Role{RoleCoordinator},
	},
	{
		Name:    "event-registration",
		Path:    "/event-registration/:id",
		Access:  AccessPlaceholder,
		Message: "Please log in to register for events.",
	},
}

// Routes returns the page table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// RouteByName looks up a page by name.
func RouteByName(name string) (Route, bool) {
	for _, r := range routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Guard decides whether s may view the page. In strict mode a signed-in user
// lacking one of the page roles is forbidden; otherwise any session passes.
func (r Route) Guard(s *UserSession, strict bool) Decision {
	if r.Access == AccessPublic {
		return Decision{Kind: DecisionAllow}
	}

	if s == nil {
		if r.Access == AccessPlaceholder {
			return Decision{Kind: DecisionPlaceholder, Message: r.Message, Location: LoginPath}
		}
		return Decision{Kind: DecisionRedirect, Location: LoginPath}
	}

	if strict && len(r.Roles) > 0 && !s.HasRole(r.Roles...) {
		return Decision{Kind: DecisionForbidden, Message: ErrForbidden.Error()}
	}

	return Decision{Kind: DecisionAllow}
}
