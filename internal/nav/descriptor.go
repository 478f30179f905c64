// Package nav defines the static route table and role-based route filtering.
package nav

import (
	"fmt"

	"github.com/ownerdesk/ownerdesk/internal/identity"
)

// Layout names a top-level routing namespace.
type Layout string

const (
	// LayoutAuth is the public authentication area.
	LayoutAuth Layout = "auth"
	// LayoutOwner is the owner-restricted area.
	LayoutOwner Layout = "owner"
	// LayoutLegacy is a retired namespace. Its descriptors are never shown
	// to any role.
	LayoutLegacy Layout = "legacy"
)

// Descriptor describes one navigable destination, a grouping header, or a
// redirect-only placeholder. Exactly one of the three holds per descriptor;
// NewTable enforces this. Insertion order is display order.
type Descriptor struct {
	Path           string          `json:"path,omitempty"`
	Layout         Layout          `json:"layout"`
	Name           string          `json:"name"`
	Icon           string          `json:"icon,omitempty"`
	Roles          []identity.Role `json:"roles,omitempty"`
	Children       []Descriptor    `json:"children,omitempty"`
	CategoryHeader bool            `json:"categoryHeader,omitempty"`
	RedirectOnly   bool            `json:"redirectOnly,omitempty"`
}

// Table is an immutable ordered list of route descriptors, built once at
// startup.
type Table struct {
	entries []Descriptor
}

// NewTable validates descriptors and freezes them into a Table.
func NewTable(entries []Descriptor) (Table, error) {
	for i, d := range entries {
		if err := validateDescriptor(d); err != nil {
			return Table{}, fmt.Errorf("nav: descriptor %d (%q): %w", i, d.Name, err)
		}
	}
	return Table{entries: cloneDescriptors(entries)}, nil
}

// MustTable is NewTable that panics on invalid configuration. Meant for the
// static table built at process start.
func MustTable(entries []Descriptor) Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy of the descriptors; callers cannot mutate the table.
func (t Table) Entries() []Descriptor {
	return cloneDescriptors(t.entries)
}

// Len returns the number of top-level descriptors.
func (t Table) Len() int {
	return len(t.entries)
}

func validateDescriptor(d Descriptor) error {
	kinds := 0
	if d.CategoryHeader {
		kinds++
		if len(d.Children) == 0 {
			return fmt.Errorf("category header without children")
		}
	}
	if d.RedirectOnly {
		kinds++
	}
	if !d.CategoryHeader && !d.RedirectOnly {
		// Leaf with a destination.
		kinds++
		if d.Path == "" {
			return fmt.Errorf("leaf without path")
		}
	}
	if kinds != 1 {
		return fmt.Errorf("descriptor must be exactly one of leaf, header, redirect")
	}
	for i, child := range d.Children {
		if err := validateDescriptor(child); err != nil {
			return fmt.Errorf("child %d (%q): %w", i, child.Name, err)
		}
	}
	return nil
}

func cloneDescriptors(src []Descriptor) []Descriptor {
	if src == nil {
		return nil
	}
	out := make([]Descriptor, len(src))
	for i, d := range src {
		d.Roles = append([]identity.Role(nil), d.Roles...)
		d.Children = cloneDescriptors(d.Children)
		out[i] = d
	}
	return out
}
