package models

// Permission is one of the four authorization categories a page can require.
type Permission string

const (
	PermAdmin     Permission = "admin"
	PermProject   Permission = "project"
	PermPersonal  Permission = "personal"
	PermFinancial Permission = "financial"
)

// AllPermissions lists every category in a fixed order.
var AllPermissions = [...]Permission{PermAdmin, PermProject, PermPersonal, PermFinancial}

// permissionFlags maps each category to the matching PermissionSet field.
var permissionFlags = map[Permission]func(PermissionSet) bool{
	PermAdmin:     func(p PermissionSet) bool { return p.Admin },
	PermProject:   func(p PermissionSet) bool { return p.Project },
	PermPersonal:  func(p PermissionSet) bool { return p.Personal },
	PermFinancial: func(p PermissionSet) bool { return p.Financial },
}

// Valid reports whether p is a known category.
func (p Permission) Valid() bool {
	_, ok := permissionFlags[p]
	return ok
}

// PermissionSet is the caller's authorization context for one session.
type PermissionSet struct {
	Admin     bool `json:"admin"`
	Project   bool `json:"project"`
	Personal  bool `json:"personal"`
	Financial bool `json:"financial"`
}

// Has reports whether the set grants p. Unknown categories are never granted.
func (s PermissionSet) Has(p Permission) bool {
	flag, ok := permissionFlags[p]
	return ok && flag(s)
}

// Grant returns a copy of s with p enabled.
func (s PermissionSet) Grant(p Permission) PermissionSet {
	switch p {
	case PermAdmin:
		s.Admin = true
	case PermProject:
		s.Project = true
	case PermPersonal:
		s.Personal = true
	case PermFinancial:
		s.Financial = true
	}
	return s
}

// Satisfies reports whether every permission in required is granted.
func (s PermissionSet) Satisfies(required []Permission) bool {
	for _, p := range required {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// PageDescriptor describes one navigable screen of the front end.
type PageDescriptor struct {
	Title               string       `json:"title"`
	Route               string       `json:"route"`
	RequiresLogin       bool         `json:"requires_login"`
	RequiredPermissions []Permission `json:"required_permissions"`
	Placements          []string     `json:"placements"`
	Component           string       `json:"component"`
}

// Protected reports whether the page needs an authenticated session at all.
func (d PageDescriptor) Protected() bool {
	return d.RequiresLogin || len(d.RequiredPermissions) > 0
}

// Requires reports whether the descriptor requires category p.
func (d PageDescriptor) Requires(p Permission) bool {
	for _, rp := range d.RequiredPermissions {
		if rp == p {
			return true
		}
	}
	return false
}

// PlacedIn reports whether the descriptor is listed in the given menu.
func (d PageDescriptor) PlacedIn(placement string) bool {
	for _, p := range d.Placements {
		if p == placement {
			return true
		}
	}
	return false
}
