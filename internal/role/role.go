package role

import "github.com/frahmantamala/admin-console/internal/core/jsontime"

type Role struct {
	ID          int64         `json:"id"`
	RoleName    string        `json:"roleName"`
	Description string        `json:"description,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
	CreatedAt   jsontime.Time `json:"createdAt"`
	UpdatedAt   jsontime.Time `json:"updatedAt"`
}

func (r Role) EntityID() int64 {
	return r.ID
}

func (r *Role) SetEntityID(id int64) {
	r.ID = id
}

func (r Role) IsActiveRole() bool {
	return r.IsActive == nil || *r.IsActive
}
