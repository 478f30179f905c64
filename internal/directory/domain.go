// Package directory manages the user list's fetch, filter, paginate and
// mutate lifecycle against the remote user API.
package directory

import "github.com/ownerdesk/ownerdesk/internal/identity"

// Status classifies a directory entry's account state.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusPending  Status = "Pending"
)

// User mirrors one remote user record. The local collection is a
// read-through cache: it is re-fetched after every mutation, never patched
// in place.
type User struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Role         identity.Role `json:"role"`
	Status       Status        `json:"status,omitempty"`
	IsVerified   bool          `json:"isVerified"`
	ProfileImage string        `json:"profileImage,omitempty"`
}

// DisplayName is the sort key base: "First Last".
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// UserInput carries a create or edit submission. Password rules are
// mode-dependent and enforced by the controller on top of the tags.
type UserInput struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Role            string `json:"role"`
	Status          string `json:"status"`
	Password        string `json:"password" validate:"omitempty,strongpassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
