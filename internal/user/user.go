package user

import (
	"strings"

	"github.com/frahmantamala/admin-console/internal/core/jsontime"
)

type User struct {
	ID                     int64         `json:"id"`
	Username               string        `json:"username"`
	Email                  string        `json:"email"`
	FullName               string        `json:"fullName"`
	Phone                  string        `json:"phone,omitempty"`
	IsActive               *bool         `json:"isActive,omitempty"`
	PasswordChangeRequired bool          `json:"passwordChangeRequired"`
	Roles                  []RoleRef     `json:"roles,omitempty"`
	LastLogin              jsontime.Time `json:"lastLogin"`
	CreatedAt              jsontime.Time `json:"createdAt"`
	UpdatedAt              jsontime.Time `json:"updatedAt"`
}

func (u User) EntityID() int64 {
	return u.ID
}

func (u *User) SetEntityID(id int64) {
	u.ID = id
}

// IsActiveUser treats a missing flag as active, as the backend does.
func (u User) IsActiveUser() bool {
	return u.IsActive == nil || *u.IsActive
}

func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}

func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.RoleName, name) {
			return true
		}
	}
	return false
}

// RoleRef is a role as embedded in a user payload.
type RoleRef struct {
	ID          int64  `json:"id"`
	RoleName    string `json:"roleName"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}
