package domain

import (
	"fmt"
	"time"

	"github.com/oapi-codegen/nullable"
)

// Role determines write capability across every collection.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleGuest }

// Status is the account status of a user profile.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusInactive }

// Identity is the resolved caller: who is logged in and with which role.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == RoleAdmin }

// UserProfile is the profile row linked to an identity-provider account.
// Credentials never live here.
type UserProfile struct {
	ID     string `json:"id" bson:"_id"`
	Name   string `json:"name" bson:"name"`
	Email  string `json:"email" bson:"email"`
	Role   Role   `json:"role" bson:"role"`
	Status Status `json:"status" bson:"status"`
}

func (u UserProfile) EntityID() string { return u.ID }

func (u *UserProfile) Stamp(id string, _ time.Time) { u.ID = id }

func (u UserProfile) LastUpdated() time.Time { return time.Time{} }

func (u UserProfile) UpdatedField() string { return "" }

func (u UserProfile) Validate() error {
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidInput, u.Role)
	}
	if !u.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidInput, u.Status)
	}
	return nil
}

// Identity projects the profile into the caller identity.
func (u UserProfile) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status}
}

type UserProfilePatch struct {
	Name   nullable.Nullable[string] `json:"name"`
	Email  nullable.Nullable[string] `json:"email"`
	Role   nullable.Nullable[Role]   `json:"role"`
	Status nullable.Nullable[Status] `json:"status"`
}

func (p UserProfilePatch) Fields() (map[string]any, error) {
	f := fieldSet{}
	f.text("name", p.Name)
	f.text("email", p.Email)
	if err := enumField(f, "role", p.Role, Role.Valid); err != nil {
		return nil, err
	}
	if err := enumField(f, "status", p.Status, Status.Valid); err != nil {
		return nil, err
	}
	return f, nil
}
