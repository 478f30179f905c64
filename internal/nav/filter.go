package nav

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ownerdesk/ownerdesk/internal/identity"
)

// Filter prunes the table to the descriptors the given role may see. It is a
// pure depth-first walk: legacy-layout descriptors are dropped regardless of
// role, owner-layout descriptors require the owner role, descriptors with an
// explicit role set require membership, and everything else is denied.
// Category headers whose children all prune away are dropped with them.
func Filter(t Table, role identity.Role) Table {
	return Table{entries: filterDescriptors(t.entries, role)}
}

func filterDescriptors(entries []Descriptor, role identity.Role) []Descriptor {
	var kept []Descriptor
	for _, d := range entries {
		if d.Layout == LayoutLegacy {
			continue
		}
		if d.CategoryHeader {
			children := filterDescriptors(d.Children, role)
			if len(children) == 0 {
				continue
			}
			d.Children = children
			kept = append(kept, d)
			continue
		}
		if !admits(d, role) {
			continue
		}
		d.Children = filterDescriptors(d.Children, role)
		kept = append(kept, d)
	}
	return kept
}

func admits(d Descriptor, role identity.Role) bool {
	if d.Layout == LayoutOwner {
		return role == identity.RoleOwner
	}
	if len(d.Roles) > 0 {
		for _, allowed := range d.Roles {
			if allowed == role {
				return true
			}
		}
		return false
	}
	// Default deny: nothing admits a descriptor with no matching rule.
	return false
}

// FilterCache memoizes Filter per role so the walk runs once per role
// resolution rather than on every request. Concurrent first requests for the
// same role collapse into a single computation.
type FilterCache struct {
	table Table

	mu     sync.RWMutex
	byRole map[identity.Role]Table
	group  singleflight.Group
}

// NewFilterCache builds a cache over the given table.
func NewFilterCache(table Table) *FilterCache {
	return &FilterCache{
		table:  table,
		byRole: make(map[identity.Role]Table),
	}
}

// Visible returns the filtered table for the role.
func (c *FilterCache) Visible(role identity.Role) Table {
	c.mu.RLock()
	cached, ok := c.byRole[role]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	result, _, _ := c.group.Do(string(role), func() (any, error) {
		filtered := Filter(c.table, role)
		c.mu.Lock()
		c.byRole[role] = filtered
		c.mu.Unlock()
		return filtered, nil
	})
	return result.(Table)
}
