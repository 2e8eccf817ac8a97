package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LovationAdmin/bizpanel/models"
)

var ErrInvalidPageConfig = errors.New("invalid page configuration")

// PageRegistry is the immutable table of front-end pages. It answers the two
// views the application needs: every route to mount, and the pages a caller
// may see in a given menu.
type PageRegistry struct {
	pages []models.PageDescriptor
}

// NewPageRegistry copies and validates the page table. Routes must be
// non-empty, unique, and carry at most one ":param" segment.
func NewPageRegistry(pages []models.PageDescriptor) (*PageRegistry, error) {
	seen := make(map[string]int, len(pages))
	copied := make([]models.PageDescriptor, 0, len(pages))

	for i, p := range pages {
		if strings.TrimSpace(p.Route) == "" {
			return nil, fmt.Errorf("%w: page %d (%q) has an empty route", ErrInvalidPageConfig, i, p.Title)
		}
		if !strings.HasPrefix(p.Route, "/") {
			return nil, fmt.Errorf("%w: route %q must start with /", ErrInvalidPageConfig, p.Route)
		}
		if prev, dup := seen[p.Route]; dup {
			return nil, fmt.Errorf("%w: route %q declared by pages %d and %d", ErrInvalidPageConfig, p.Route, prev, i)
		}
		seen[p.Route] = i

		if n := countParams(p.Route); n > 1 {
			return nil, fmt.Errorf("%w: route %q has %d parameters, at most 1 allowed", ErrInvalidPageConfig, p.Route, n)
		}
		for _, perm := range p.RequiredPermissions {
			if !perm.Valid() {
				return nil, fmt.Errorf("%w: route %q requires unknown permission %q", ErrInvalidPageConfig, p.Route, perm)
			}
		}

		copied = append(copied, clonePage(p))
	}

	return &PageRegistry{pages: copied}, nil
}

// MustPageRegistry is NewPageRegistry for static tables; it panics on error.
func MustPageRegistry(pages []models.PageDescriptor) *PageRegistry {
	r, err := NewPageRegistry(pages)
	if err != nil {
		panic(err)
	}
	return r
}

// MountableRoutes returns every page in declaration order. Protected pages
// are included: the guard decides access when the route is hit.
func (r *PageRegistry) MountableRoutes() []models.PageDescriptor {
	out := make([]models.PageDescriptor, 0, len(r.pages))
	for _, p := range r.pages {
		out = append(out, clonePage(p))
	}
	return out
}

// PagesForPlacement returns the pages listed in placement that the caller is
// allowed to see, keeping declaration order.
func (r *PageRegistry) PagesForPlacement(placement string, caller models.PermissionSet) []models.PageDescriptor {
	out := []models.PageDescriptor{}
	for _, p := range r.pages {
		if !p.PlacedIn(placement) {
			continue
		}
		if !allowed(p, caller) {
			continue
		}
		out = append(out, clonePage(p))
	}
	return out
}

// Lookup finds a page by its exact route pattern.
func (r *PageRegistry) Lookup(route string) (models.PageDescriptor, bool) {
	for _, p := range r.pages {
		if p.Route == route {
			return clonePage(p), true
		}
	}
	return models.PageDescriptor{}, false
}

// Placements lists the distinct menu tags in first-seen order.
func (r *PageRegistry) Placements() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range r.pages {
		for _, tag := range p.Placements {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

func (r *PageRegistry) Len() int {
	return len(r.pages)
}

// allowed checks each category the page requires against the caller.
func allowed(p models.PageDescriptor, caller models.PermissionSet) bool {
	for _, perm := range models.AllPermissions {
		if p.Requires(perm) && !caller.Has(perm) {
			return false
		}
	}
	return true
}

func countParams(route string) int {
	n := 0
	for _, seg := range strings.Split(route, "/") {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			n++
		}
	}
	return n
}

func clonePage(p models.PageDescriptor) models.PageDescriptor {
	p.RequiredPermissions = append([]models.Permission(nil), p.RequiredPermissions...)
	p.Placements = append([]string(nil), p.Placements...)
	return p
}
