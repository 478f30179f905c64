package directory

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ownerdesk/ownerdesk/internal/shared"
)

// FilterKind selects the active list filter.
type FilterKind string

const (
	FilterAll      FilterKind = "all"
	FilterActive   FilterKind = "Active"
	FilterInactive FilterKind = "Inactive"
	FilterVerified FilterKind = "verified"
)

// ParseFilterKind maps an arbitrary value onto a known filter, defaulting to
// FilterAll.
func ParseFilterKind(raw string) FilterKind {
	switch FilterKind(raw) {
	case FilterActive, FilterInactive, FilterVerified:
		return FilterKind(raw)
	default:
		return FilterAll
	}
}

// ItemsPerPage is fixed for the directory listing.
const ItemsPerPage = 5

// ViewState is the derived, unpersisted list state. CurrentPage resets to 1
// whenever the filter or the underlying collection changes.
type ViewState struct {
	SearchTerm   string     `json:"searchTerm"`
	ActiveFilter FilterKind `json:"activeFilter"`
	CurrentPage  int        `json:"currentPage"`
}

// NewViewState returns the initial view state.
func NewViewState() ViewState {
	return ViewState{ActiveFilter: FilterAll, CurrentPage: 1}
}

// ApplyFilters derives the visible collection: filter first, then search,
// then a stable case-insensitive sort by "First Last" with email as the
// tie-break. Pure and idempotent.
func ApplyFilters(users []User, filter FilterKind, search string) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if !matchesFilter(u, filter) {
			continue
		}
		if !matchesSearch(u, search) {
			continue
		}
		out = append(out, u)
	}
	SortUsers(out)
	return out
}

// SortUsers orders users ascending by case-insensitive display name, then
// case-insensitive email.
func SortUsers(users []User) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(users, func(i, j int) bool {
		if by := c.CompareString(users[i].DisplayName(), users[j].DisplayName()); by != 0 {
			return by < 0
		}
		return c.CompareString(users[i].Email, users[j].Email) < 0
	})
}

func matchesFilter(u User, filter FilterKind) bool {
	switch filter {
	case FilterActive:
		return u.Status == StatusActive
	case FilterInactive:
		return u.Status == StatusInactive
	case FilterVerified:
		return u.IsVerified
	default:
		return true
	}
}

func matchesSearch(u User, search string) bool {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return true
	}
	for _, field := range []string{u.DisplayName(), u.Email, u.Phone} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Page slices the filtered collection for the current page.
func Page(users []User, page int) []User {
	p := shared.NewPagination(page, ItemsPerPage, len(users))
	if p.Total == 0 {
		return []User{}
	}
	start := (p.Page - 1) * p.PerPage
	end := start + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return users[start:end]
}

// Next advances to the following page; a no-op at the last page.
func (v *ViewState) Next(totalItems int) {
	p := shared.NewPagination(v.CurrentPage, ItemsPerPage, totalItems)
	if p.Page < p.TotalPages {
		v.CurrentPage = p.Page + 1
	}
}

// Prev steps back one page; a no-op at the first page.
func (v *ViewState) Prev() {
	if v.CurrentPage > 1 {
		v.CurrentPage--
	}
}

// SetPage selects a page directly; out-of-range selections are ignored.
func (v *ViewState) SetPage(page, totalItems int) {
	p := shared.NewPagination(1, ItemsPerPage, totalItems)
	if page >= 1 && page <= p.TotalPages {
		v.CurrentPage = page
	}
}
