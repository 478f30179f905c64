package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

type mockAPI struct {
	mu    sync.Mutex
	users []User

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
}

func (m *mockAPI) List(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]User(nil), m.users...), nil
}

func (m *mockAPI) Create(ctx context.Context, input UserInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.users = append(m.users, User{
		ID:        "generated",
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
	})
	return nil
}

func (m *mockAPI) Update(ctx context.Context, id string, input UserInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	return m.updateErr
}

func (m *mockAPI) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	kept := m.users[:0]
	for _, u := range m.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	m.users = kept
	return nil
}

func newTestController(api API) *Controller {
	return NewController(nil, api, Options{DebounceDelay: time.Millisecond, BannerTTL: time.Minute})
}

func validInput() UserInput {
	return UserInput{
		FirstName:       "Nina",
		LastName:        "Rao",
		Email:           "nina@example.com",
		Password:        "Abcdefg1",
		ConfirmPassword: "Abcdefg1",
	}
}

func TestLoadWithoutIdentityIsNoOp(t *testing.T) {
	api := &mockAPI{users: []User{{ID: "u1", FirstName: "A", LastName: "B", Email: "a@b.c"}}}
	ctrl := newTestController(api)
	defer ctrl.Close()

	require.NoError(t, ctrl.Load(context.Background(), false))
	assert.Zero(t, api.listCalls)
	assert.Equal(t, FetchIdle, ctrl.Snapshot().FetchStatus)
}

func TestLoadSortsAndResetsPage(t *testing.T) {
	api := &mockAPI{users: []User{
		{ID: "u2", FirstName: "zoe", LastName: "Adams", Email: "zoe@example.com"},
		{ID: "u1", FirstName: "Amit", LastName: "Basu", Email: "amit@example.com"},
	}}
	ctrl := newTestController(api)
	defer ctrl.Close()

	require.NoError(t, ctrl.Load(context.Background(), true))
	ctrl.FlushFilters()

	snap := ctrl.Snapshot()
	assert.Equal(t, FetchLoaded, snap.FetchStatus)
	assert.Equal(t, 1, snap.View.CurrentPage)
	require.Len(t, snap.Users, 2)
	assert.Equal(t, "u1", snap.Users[0].ID)
}

func TestLoadFailureSurfacesMessage(t *testing.T) {
	api := &mockAPI{listErr: &upstream.APIError{StatusCode: 500, Message: "directory offline"}}
	ctrl := newTestController(api)
	defer ctrl.Close()

	err := ctrl.Load(context.Background(), true)
	require.Error(t, err)

	snap := ctrl.Snapshot()
	assert.Equal(t, FetchError, snap.FetchStatus)
	require.NotNil(t, snap.Banner)
	assert.Equal(t, "error", snap.Banner.Kind)
	assert.Equal(t, "directory offline", snap.Banner.Message)
}

func TestCreateValidationShortCircuits(t *testing.T) {
	api := &mockAPI{}
	ctrl := newTestController(api)
	defer ctrl.Close()

	tests := []struct {
		name  string
		mutil func(*UserInput)
	}{
		{name: "missing first name", mutil: func(i *UserInput) { i.FirstName = "" }},
		{name: "bad email", mutil: func(i *UserInput) { i.Email = "not-an-email" }},
		{name: "weak password", mutil: func(i *UserInput) { i.Password = "weak"; i.ConfirmPassword = "weak" }},
		{name: "missing password", mutil: func(i *UserInput) { i.Password = ""; i.ConfirmPassword = "" }},
		{name: "confirm mismatch", mutil: func(i *UserInput) { i.ConfirmPassword = "Different1" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutil(&input)

			err := ctrl.Create(context.Background(), input)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Zero(t, api.createCalls, "validation failures must not reach the network")
		})
	}
}

func TestCreateSuccessReloadsAndReturnsToList(t *testing.T) {
	api := &mockAPI{}
	ctrl := newTestController(api)
	defer ctrl.Close()

	ctrl.EnterAdd()
	require.NoError(t, ctrl.Create(context.Background(), validInput()))
	ctrl.FlushFilters()

	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, 1, api.listCalls, "success resynchronizes via a fresh fetch")

	snap := ctrl.Snapshot()
	assert.Equal(t, ModeList, snap.FormMode)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "generated", snap.Users[0].ID)
	require.NotNil(t, snap.Banner)
	assert.Equal(t, "success", snap.Banner.Kind)
}

func TestCreateNetworkFailureKeepsFormMode(t *testing.T) {
	api := &mockAPI{createErr: &upstream.APIError{StatusCode: 502, Message: "save failed upstream"}}
	ctrl := newTestController(api)
	defer ctrl.Close()

	ctrl.EnterAdd()
	err := ctrl.Create(context.Background(), validInput())
	require.Error(t, err)

	snap := ctrl.Snapshot()
	assert.Equal(t, ModeAdd, snap.FormMode, "in-progress input must survive a network failure")
	assert.False(t, snap.Mutating)
	require.NotNil(t, snap.Banner)
	assert.Equal(t, "save failed upstream", snap.Banner.Message)
}

func TestUpdateWithoutPasswordSkipsStrengthRule(t *testing.T) {
	api := &mockAPI{}
	ctrl := newTestController(api)
	defer ctrl.Close()

	input := validInput()
	input.Password = ""
	input.ConfirmPassword = ""
	require.NoError(t, ctrl.Update(context.Background(), "u1", input))
	assert.Equal(t, 1, api.updateCalls)
}

func TestDeleteFlow(t *testing.T) {
	target := User{ID: "u1", FirstName: "Asha", LastName: "Verma", Email: "asha@example.com"}
	api := &mockAPI{users: []User{target}}
	ctrl := newTestController(api)
	defer ctrl.Close()

	require.NoError(t, ctrl.Load(context.Background(), true))
	ctrl.FlushFilters()

	ctrl.DeleteRequest(target)
	snap := ctrl.Snapshot()
	require.NotNil(t, snap.DeleteTarget)
	assert.Equal(t, "u1", snap.DeleteTarget.ID)
	assert.Zero(t, api.deleteCalls, "requesting confirmation has no network effect")

	ctrl.DeleteCancel()
	assert.Nil(t, ctrl.Snapshot().DeleteTarget)
	assert.Zero(t, api.deleteCalls, "cancel has no network effect")

	ctrl.DeleteRequest(target)
	require.NoError(t, ctrl.DeleteConfirm(context.Background()))
	ctrl.FlushFilters()

	assert.Equal(t, 1, api.deleteCalls)
	snap = ctrl.Snapshot()
	assert.Nil(t, snap.DeleteTarget, "confirmation state closes after the call")
	assert.False(t, snap.DeletePending)
	for _, u := range snap.Users {
		assert.NotEqual(t, "u1", u.ID)
	}
}

func TestDeleteConfirmFailureStillClosesConfirmation(t *testing.T) {
	target := User{ID: "u1", FirstName: "Asha", LastName: "Verma", Email: "asha@example.com"}
	api := &mockAPI{users: []User{target}, deleteErr: &upstream.APIError{StatusCode: 500}}
	ctrl := newTestController(api)
	defer ctrl.Close()

	ctrl.DeleteRequest(target)
	err := ctrl.DeleteConfirm(context.Background())
	require.Error(t, err)

	snap := ctrl.Snapshot()
	assert.Nil(t, snap.DeleteTarget)
	assert.False(t, snap.DeletePending)
}

func TestDeleteConfirmWithoutTargetIsNoOp(t *testing.T) {
	api := &mockAPI{}
	ctrl := newTestController(api)
	defer ctrl.Close()

	require.NoError(t, ctrl.DeleteConfirm(context.Background()))
	assert.Zero(t, api.deleteCalls)
}

func TestFilterChangeResetsPageAndDebounces(t *testing.T) {
	users := make([]User, 13)
	for i := range users {
		users[i] = User{
			ID:        string(rune('a' + i)),
			FirstName: string(rune('a' + i)),
			LastName:  "User",
			Email:     string(rune('a'+i)) + "@example.com",
			Status:    StatusActive,
		}
	}
	api := &mockAPI{users: users}
	ctrl := NewController(nil, api, Options{DebounceDelay: time.Minute, BannerTTL: time.Minute})
	defer ctrl.Close()

	require.NoError(t, ctrl.Load(context.Background(), true))
	ctrl.FlushFilters()

	ctrl.SelectPage(3)
	assert.Equal(t, 3, ctrl.Snapshot().View.CurrentPage)

	ctrl.SetFilter(FilterActive)
	assert.True(t, ctrl.Snapshot().TableLoading, "table-loading covers the debounce window")
	ctrl.FlushFilters()

	snap := ctrl.Snapshot()
	assert.Equal(t, 1, snap.View.CurrentPage, "filter change resets the page")
	assert.False(t, snap.TableLoading)
	assert.Equal(t, 3, snap.Pagination.TotalPages)
}

func TestSearchDebounceCoalesces(t *testing.T) {
	api := &mockAPI{users: []User{
		{ID: "u1", FirstName: "Nina", LastName: "Rao", Email: "nina@example.com"},
		{ID: "u2", FirstName: "Omar", LastName: "Shaikh", Email: "omar@example.com"},
	}}
	ctrl := NewController(nil, api, Options{DebounceDelay: 20 * time.Millisecond, BannerTTL: time.Minute})
	defer ctrl.Close()

	require.NoError(t, ctrl.Load(context.Background(), true))
	ctrl.FlushFilters()

	// Each keystroke restarts the timer; only the final term applies.
	ctrl.SetSearch("n")
	ctrl.SetSearch("ni")
	ctrl.SetSearch("nina")

	assert.Eventually(t, func() bool {
		snap := ctrl.Snapshot()
		return !snap.TableLoading && len(snap.Users) == 1 && snap.Users[0].ID == "u1"
	}, time.Second, 5*time.Millisecond)
}

func TestBannerAutoDismisses(t *testing.T) {
	api := &mockAPI{listErr: &upstream.APIError{StatusCode: 500, Message: "boom"}}
	ctrl := NewController(nil, api, Options{DebounceDelay: time.Millisecond, BannerTTL: 20 * time.Millisecond})
	defer ctrl.Close()

	_ = ctrl.Load(context.Background(), true)
	require.NotNil(t, ctrl.Snapshot().Banner)

	assert.Eventually(t, func() bool {
		return ctrl.Snapshot().Banner == nil
	}, time.Second, 5*time.Millisecond)
}
