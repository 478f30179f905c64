package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ownerdesk/ownerdesk/internal/shared"
	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

// FetchStatus tracks the lifecycle of the collection fetch.
type FetchStatus string

const (
	FetchIdle    FetchStatus = "idle"
	FetchLoading FetchStatus = "loading"
	FetchLoaded  FetchStatus = "loaded"
	FetchError   FetchStatus = "error"
)

// FormMode tracks which form, if any, is active.
type FormMode string

const (
	ModeList FormMode = "list"
	ModeAdd  FormMode = "add"
	ModeEdit FormMode = "edit"
)

// Banner is a transient user-visible message. Banners clear themselves after
// the configured lifetime so stale messages never outlive the action that
// raised them.
type Banner struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidationError is a client-side rule failure. It never reaches the
// network and is always recoverable.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Options tune controller timing. Zero values take the defaults.
type Options struct {
	DebounceDelay time.Duration
	BannerTTL     time.Duration
}

const (
	defaultDebounceDelay = 500 * time.Millisecond
	defaultBannerTTL     = 3 * time.Second
)

// Controller orchestrates fetch, derived view state and mutations for one
// session's directory screen. All exported methods are safe for concurrent
// use.
type Controller struct {
	logger   *slog.Logger
	api      API
	validate *validator.Validate
	debounce *Debouncer

	bannerTTL time.Duration

	mu            sync.Mutex
	fetchStatus   FetchStatus
	userData      []User
	filtered      []User
	view          ViewState
	tableLoading  bool
	formMode      FormMode
	editID        string
	deleteTarget  *User
	deletePending bool
	mutating      bool
	banner        *Banner
	bannerSeq     int
	bannerTimer   *time.Timer
}

// NewController builds a Controller over the given API.
func NewController(logger *slog.Logger, api API, opts Options) *Controller {
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = defaultDebounceDelay
	}
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = defaultBannerTTL
	}
	return &Controller{
		logger:      logger,
		api:         api,
		validate:    shared.NewValidator(),
		debounce:    NewDebouncer(opts.DebounceDelay),
		bannerTTL:   opts.BannerTTL,
		fetchStatus: FetchIdle,
		view:        NewViewState(),
		formMode:    ModeList,
	}
}

// Close cancels pending timers.
func (c *Controller) Close() {
	c.debounce.Stop()
	c.mu.Lock()
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.mu.Unlock()
}

// Load fetches the full collection. Without an authenticated identity it is
// a no-op that leaves state unset. On failure the error is also recorded as
// a displayable banner.
func (c *Controller) Load(ctx context.Context, authenticated bool) error {
	if !authenticated {
		return nil
	}

	c.mu.Lock()
	c.fetchStatus = FetchLoading
	c.mu.Unlock()

	users, err := c.api.List(ctx)
	if err != nil {
		c.mu.Lock()
		c.fetchStatus = FetchError
		c.mu.Unlock()
		c.showBanner("error", upstream.Message(err, "Could not load users"))
		if c.logger != nil {
			c.logger.Error("load users", slog.Any("error", err))
		}
		return err
	}

	SortUsers(users)
	c.mu.Lock()
	c.userData = users
	c.fetchStatus = FetchLoaded
	// The underlying collection changed, so the page resets.
	c.view.CurrentPage = 1
	c.tableLoading = true
	c.mu.Unlock()
	c.debounce.Schedule(c.applyNow)
	return nil
}

// SetSearch updates the search term and schedules a recomputation.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	c.view.SearchTerm = term
	c.tableLoading = true
	c.mu.Unlock()
	c.debounce.Schedule(c.applyNow)
}

// SetFilter switches the active filter, resetting to the first page.
func (c *Controller) SetFilter(filter FilterKind) {
	c.mu.Lock()
	c.view.ActiveFilter = filter
	c.view.CurrentPage = 1
	c.tableLoading = true
	c.mu.Unlock()
	c.debounce.Schedule(c.applyNow)
}

// applyNow recomputes the derived collection. It runs on the debounce timer;
// the transient table-loading flag covers exactly the debounce window.
func (c *Controller) applyNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filtered = ApplyFilters(c.userData, c.view.ActiveFilter, c.view.SearchTerm)
	c.tableLoading = false
}

// FlushFilters forces an immediate recomputation, bypassing the debounce.
func (c *Controller) FlushFilters() {
	c.debounce.Stop()
	c.applyNow()
}

// EnterAdd switches to the create form.
func (c *Controller) EnterAdd() {
	c.mu.Lock()
	c.formMode = ModeAdd
	c.editID = ""
	c.mu.Unlock()
}

// EnterEdit switches to the edit form for the given user.
func (c *Controller) EnterEdit(id string) {
	c.mu.Lock()
	c.formMode = ModeEdit
	c.editID = id
	c.mu.Unlock()
}

// BackToList abandons any active form.
func (c *Controller) BackToList() {
	c.mu.Lock()
	c.formMode = ModeList
	c.editID = ""
	c.mu.Unlock()
}

// Create validates and submits a new user. Validation failures short-circuit
// before any network call. On success the collection is re-fetched and the
// form returns to list mode; on network failure the form mode is kept so
// in-progress input survives.
func (c *Controller) Create(ctx context.Context, input UserInput) error {
	if err := c.validateInput(input, true); err != nil {
		c.showBanner("warning", err.Message)
		return err
	}
	return c.submit(ctx, "User created", func() error {
		return c.api.Create(ctx, input)
	})
}

// Update validates and submits changes to an existing user.
func (c *Controller) Update(ctx context.Context, id string, input UserInput) error {
	if err := c.validateInput(input, false); err != nil {
		c.showBanner("warning", err.Message)
		return err
	}
	return c.submit(ctx, "User updated", func() error {
		return c.api.Update(ctx, id, input)
	})
}

func (c *Controller) submit(ctx context.Context, successMsg string, call func() error) error {
	c.mu.Lock()
	c.mutating = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.mutating = false
		c.mu.Unlock()
	}()

	if err := call(); err != nil {
		c.showBanner("error", upstream.Message(err, "Could not save user"))
		if c.logger != nil {
			c.logger.Error("save user", slog.Any("error", err))
		}
		return err
	}

	// Resynchronize rather than patching the cache in place.
	if err := c.Load(ctx, true); err != nil {
		return err
	}
	c.BackToList()
	c.showBanner("success", successMsg)
	return nil
}

// DeleteRequest opens the confirmation state for the given user. No network
// effect.
func (c *Controller) DeleteRequest(u User) {
	c.mu.Lock()
	target := u
	c.deleteTarget = &target
	c.deletePending = false
	c.mu.Unlock()
}

// DeleteCancel discards the pending target without a network call.
func (c *Controller) DeleteCancel() {
	c.mu.Lock()
	c.deleteTarget = nil
	c.deletePending = false
	c.mu.Unlock()
}

// DeleteConfirm issues the delete for the pending target. The confirmation
// state always closes, whatever the outcome.
func (c *Controller) DeleteConfirm(ctx context.Context) error {
	c.mu.Lock()
	if c.deleteTarget == nil {
		c.mu.Unlock()
		return nil
	}
	target := *c.deleteTarget
	c.deletePending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.deleteTarget = nil
		c.deletePending = false
		c.mu.Unlock()
	}()

	if err := c.api.Delete(ctx, target.ID); err != nil {
		c.showBanner("error", upstream.Message(err, "Could not delete user"))
		if c.logger != nil {
			c.logger.Error("delete user", slog.String("id", target.ID), slog.Any("error", err))
		}
		return err
	}

	if err := c.Load(ctx, true); err != nil {
		return err
	}
	c.showBanner("success", "User deleted")
	return nil
}

// UserByID finds a user in the fetched collection.
func (c *Controller) UserByID(id string) (User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.userData {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// NextPage advances a page; a no-op at the last page.
func (c *Controller) NextPage() {
	c.mu.Lock()
	c.view.Next(len(c.filtered))
	c.mu.Unlock()
}

// PrevPage steps back a page; a no-op at the first page.
func (c *Controller) PrevPage() {
	c.mu.Lock()
	c.view.Prev()
	c.mu.Unlock()
}

// SelectPage jumps to a page in range; out-of-range values are ignored.
func (c *Controller) SelectPage(page int) {
	c.mu.Lock()
	c.view.SetPage(page, len(c.filtered))
	c.mu.Unlock()
}

// Snapshot is the controller state a rendering shell needs.
type Snapshot struct {
	FetchStatus   FetchStatus       `json:"fetchStatus"`
	TableLoading  bool              `json:"tableLoading"`
	Mutating      bool              `json:"mutating"`
	Users         []User            `json:"users"`
	Pagination    shared.Pagination `json:"pagination"`
	View          ViewState         `json:"view"`
	FormMode      FormMode          `json:"formMode"`
	EditID        string            `json:"editId,omitempty"`
	DeleteTarget  *User             `json:"deleteTarget,omitempty"`
	DeletePending bool              `json:"deletePending"`
	Banner        *Banner           `json:"banner,omitempty"`
}

// Snapshot returns the current state with the visible page already sliced.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	pagination := shared.NewPagination(c.view.CurrentPage, ItemsPerPage, len(c.filtered))
	snap := Snapshot{
		FetchStatus:   c.fetchStatus,
		TableLoading:  c.tableLoading,
		Mutating:      c.mutating,
		Users:         Page(c.filtered, c.view.CurrentPage),
		Pagination:    pagination,
		View:          c.view,
		FormMode:      c.formMode,
		EditID:        c.editID,
		DeletePending: c.deletePending,
	}
	if c.deleteTarget != nil {
		target := *c.deleteTarget
		snap.DeleteTarget = &target
	}
	if c.banner != nil {
		banner := *c.banner
		snap.Banner = &banner
	}
	return snap
}

func (c *Controller) validateInput(input UserInput, create bool) *ValidationError {
	if err := c.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Tag() == "strongpassword" {
					return &ValidationError{Message: "Password must be at least 8 characters with an uppercase letter, a lowercase letter and a digit"}
				}
			}
		}
		return &ValidationError{Message: "First name, last name and a valid email are required"}
	}
	if create {
		if input.Password == "" {
			return &ValidationError{Message: "Password is required"}
		}
		if input.Password != input.ConfirmPassword {
			return &ValidationError{Message: "Password and confirmation do not match"}
		}
	} else if input.Password != "" && input.Password != input.ConfirmPassword {
		return &ValidationError{Message: "Password and confirmation do not match"}
	}
	return nil
}

func (c *Controller) showBanner(kind, message string) {
	c.mu.Lock()
	c.bannerSeq++
	seq := c.bannerSeq
	c.banner = &Banner{Kind: kind, Message: message}
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.bannerTimer = time.AfterFunc(c.bannerTTL, func() {
		c.mu.Lock()
		if c.bannerSeq == seq {
			c.banner = nil
		}
		c.mu.Unlock()
	})
	c.mu.Unlock()
}
