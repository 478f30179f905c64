package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() []User {
	return []User{
		{ID: "u1", FirstName: "zoe", LastName: "Adams", Email: "zoe@example.com", Status: StatusActive},
		{ID: "u2", FirstName: "Amit", LastName: "Basu", Email: "amit@example.com", Status: StatusInactive, IsVerified: true},
		{ID: "u3", FirstName: "amit", LastName: "Basu", Email: "Aaron@example.com", Status: StatusActive},
		{ID: "u4", FirstName: "Bela", LastName: "Chan", Email: "bela@example.com", Status: StatusPending, IsVerified: true},
	}
}

func TestApplyFiltersSortOrder(t *testing.T) {
	out := ApplyFilters(sampleUsers(), FilterAll, "")
	require.Len(t, out, 4)

	// Case-insensitive by "First Last", email breaks the tie.
	assert.Equal(t, "u3", out[0].ID)
	assert.Equal(t, "u2", out[1].ID)
	assert.Equal(t, "u4", out[2].ID)
	assert.Equal(t, "u1", out[3].ID)
}

func TestApplyFiltersIdempotent(t *testing.T) {
	once := ApplyFilters(sampleUsers(), FilterAll, "")
	twice := ApplyFilters(once, FilterAll, "")
	assert.Equal(t, once, twice)
}

func TestApplyFiltersFilterThenSearch(t *testing.T) {
	users := sampleUsers()

	active := ApplyFilters(users, FilterActive, "")
	require.Len(t, active, 2)
	for _, u := range active {
		assert.Equal(t, StatusActive, u.Status)
	}

	verified := ApplyFilters(users, FilterVerified, "")
	require.Len(t, verified, 2)

	// The search applies on top of the filter.
	both := ApplyFilters(users, FilterVerified, "bela")
	require.Len(t, both, 1)
	assert.Equal(t, "u4", both[0].ID)

	none := ApplyFilters(users, FilterInactive, "zoe")
	assert.Empty(t, none)
}

func TestApplyFiltersSearchFields(t *testing.T) {
	users := []User{
		{ID: "a", FirstName: "Nina", LastName: "Rao", Email: "nina@example.com", Phone: "5550001234"},
		{ID: "b", FirstName: "Omar", LastName: "Shaikh", Email: "omar@example.com"},
	}

	assert.Len(t, ApplyFilters(users, FilterAll, "nina rao"), 1)
	assert.Len(t, ApplyFilters(users, FilterAll, "OMAR@"), 1)
	assert.Len(t, ApplyFilters(users, FilterAll, "0001"), 1)
	assert.Len(t, ApplyFilters(users, FilterAll, "  "), 2)
	assert.Empty(t, ApplyFilters(users, FilterAll, "missing"))
}

func TestParseFilterKind(t *testing.T) {
	assert.Equal(t, FilterActive, ParseFilterKind("Active"))
	assert.Equal(t, FilterVerified, ParseFilterKind("verified"))
	assert.Equal(t, FilterAll, ParseFilterKind("bogus"))
	assert.Equal(t, FilterAll, ParseFilterKind(""))
}

func thirteenUsers() []User {
	users := make([]User, 13)
	for i := range users {
		users[i] = User{
			ID:        string(rune('a' + i)),
			FirstName: string(rune('a' + i)),
			LastName:  "User",
			Email:     string(rune('a'+i)) + "@example.com",
		}
	}
	return users
}

func TestPaginationThirteenItems(t *testing.T) {
	users := thirteenUsers()
	v := NewViewState()

	p := Page(users, 3)
	assert.Len(t, p, 3)

	v.CurrentPage = 3
	v.Next(len(users))
	assert.Equal(t, 3, v.CurrentPage, "Next at the last page is a no-op")

	v.CurrentPage = 1
	v.Prev()
	assert.Equal(t, 1, v.CurrentPage, "Prev at the first page is a no-op")

	v.SetPage(2, len(users))
	assert.Equal(t, 2, v.CurrentPage)

	v.SetPage(4, len(users))
	assert.Equal(t, 2, v.CurrentPage, "out-of-range selection is ignored")
	v.SetPage(0, len(users))
	assert.Equal(t, 2, v.CurrentPage)
}

func TestPageEmpty(t *testing.T) {
	assert.Empty(t, Page(nil, 1))
	assert.Empty(t, Page([]User{}, 3))
}
