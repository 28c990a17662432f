package domain

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var baseNav = []NavItem{
	{Path: "/", Label: "Dashboard", Icon: "home"},
	{Path: "/events", Label: "Events", Icon: "calendar"},
	{Path: "/voting", Label: "Voting", Icon: "vote"},
}

// navRules are evaluated independently and in order. A role may match more
// than one rule.
var navRules = []struct {
	roles []Role
	items []NavItem
}{
	{
		roles: []Role{RoleAdmin, RoleHOD},
		items: []NavItem{
			{Path: "/admin", Label: "Administration", Icon: "settings"},
			{Path: "/analytics", Label: "Analytics", Icon: "bar-chart"},
		},
	},
	{
		roles: []Role{RoleFaculty},
		items: []NavItem{{Path: "/faculty-dashboard", Label: "Faculty Panel", Icon: "bar-chart"}},
	},
	{
		roles: []Role{RoleCoordinator},
		items: []NavItem{{Path: "/coordinator-dashboard", Label: "Coordinator Panel", Icon: "bar-chart"}},
	},
}

// BuildNav returns the navigation list for a session. A nil session gets the
// base items only.
func BuildNav(s *UserSession) []NavItem {
	nav := make([]NavItem, 0, len(baseNav)+2)
	nav = append(nav, baseNav...)
	for _, rule := range navRules {
		if s.HasRole(rule.roles...) {
			nav = append(nav, rule.items...)
		}
	}
	return nav
}
