package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/frahmantamala/admin-console/internal/core/jsontime"
)

// Session is the client's view of who is logged in.
//
// IsAuthenticated implies both tokens are set. IsInitialized turns true once
// the startup check against the backend has resolved, whatever its outcome.
type Session struct {
	AccessToken          string
	RefreshToken         string
	User                 *UserProfile
	IsAuthenticated      bool
	IsInitialized        bool
	AccessTokenExpiresAt *time.Time
}

// Expired reports whether the access token's exp claim is before now. Tokens
// without a readable exp never report expired.
func (s Session) Expired(now time.Time) bool {
	return s.AccessTokenExpiresAt != nil && now.After(*s.AccessTokenExpiresAt)
}

type UserProfile struct {
	ID                     int64         `json:"id"`
	Username               string        `json:"username"`
	FullName               string        `json:"fullName"`
	Email                  string        `json:"email"`
	Phone                  string        `json:"phone,omitempty"`
	Roles                  RoleNames     `json:"roles"`
	IsActive               *bool         `json:"isActive,omitempty"`
	PasswordChangeRequired bool          `json:"passwordChangeRequired"`
	LastLogin              jsontime.Time `json:"lastLogin"`
	CreatedAt              jsontime.Time `json:"createdAt"`
	UpdatedAt              jsontime.Time `json:"updatedAt"`
}

func (u *UserProfile) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if strings.EqualFold(strings.TrimPrefix(r, "ROLE_"), strings.TrimPrefix(name, "ROLE_")) {
			return true
		}
	}
	return false
}

// RoleNames decodes roles sent either as names, as role objects, or as
// Spring authorities.
type RoleNames []string

func (r *RoleNames) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	names := make(RoleNames, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			names = append(names, name)
			continue
		}
		var obj struct {
			RoleName  string `json:"roleName"`
			Name      string `json:"name"`
			Authority string `json:"authority"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		switch {
		case obj.RoleName != "":
			names = append(names, obj.RoleName)
		case obj.Name != "":
			names = append(names, obj.Name)
		case obj.Authority != "":
			names = append(names, obj.Authority)
		}
	}
	*r = names
	return nil
}

// TokenResponse is the login and refresh payload after envelope unwrapping.
// Backends disagree on the token field name and on whether the user is nested.
type TokenResponse struct {
	Token        string       `json:"token"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Type         string       `json:"type"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *UserProfile `json:"user"`

	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Roles    RoleNames `json:"roles"`
}

// BearerToken picks the access token whichever name it came under.
func (r TokenResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Profile returns the nested user, or one assembled from top-level fields,
// falling back to the username used at login.
func (r TokenResponse) Profile(fallbackUsername string) *UserProfile {
	if r.User != nil {
		u := *r.User
		return &u
	}
	username := r.Username
	if username == "" {
		username = fallbackUsername
	}
	return &UserProfile{
		ID:       r.ID,
		Username: username,
		Email:    r.Email,
		FullName: r.FullName,
		Roles:    r.Roles,
	}
}
