package menu

import (
	"github.com/frahmantamala/admin-console/internal/core/jsontime"
	"github.com/frahmantamala/admin-console/internal/core/tree"
)

type Menu struct {
	ID          int64         `json:"id"`
	MenuName    string        `json:"menuName"`
	ParentID    *int64        `json:"parentId"`
	URL         string        `json:"url,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	OrderNum    int           `json:"orderNum"`
	IsVisible   *bool         `json:"isVisible,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
	Description string        `json:"description,omitempty"`
	CreatedAt   jsontime.Time `json:"createdAt"`
	UpdatedAt   jsontime.Time `json:"updatedAt"`

	// Set only on nested and per-user responses.
	Children   []Menu  `json:"children,omitempty"`
	Permission *Access `json:"permission,omitempty"`
}

func (m Menu) EntityID() int64 {
	return m.ID
}

func (m *Menu) SetEntityID(id int64) {
	m.ID = id
}

func (m Menu) Visible() bool {
	return m.IsVisible == nil || *m.IsVisible
}

// Access is the caller's own rights on a menu, as returned by /menus/user.
type Access struct {
	CanRead   bool `json:"canRead"`
	CanWrite  bool `json:"canWrite"`
	CanDelete bool `json:"canDelete"`
}

type Node = tree.Node[Menu, int64]

func key(m Menu) (int64, *int64) {
	return m.ID, m.ParentID
}

// BuildTree nests flat menus under their parents. Siblings keep input order.
func BuildTree(menus []Menu) []*Node {
	return tree.Build[Menu, int64](menus, key)
}

// Cycles lists parent loops among menus, for diagnostics.
func Cycles(menus []Menu) [][]int64 {
	return tree.Cycles[Menu, int64](menus, key)
}

// FlattenNested turns a nested response into flat records in pre-order with
// Children cleared, ready for BuildTree.
func FlattenNested(menus []Menu) []Menu {
	var out []Menu
	var walk func(items []Menu, parent *int64)
	walk = func(items []Menu, parent *int64) {
		for _, m := range items {
			children := m.Children
			m.Children = nil
			if m.ParentID == nil && parent != nil {
				p := *parent
				m.ParentID = &p
			}
			out = append(out, m)
			id := m.ID
			walk(children, &id)
		}
	}
	walk(menus, nil)
	return out
}

// Code identifies a console area for permission checks.
type Code string

const (
	CodeDashboard            Code = "DASHBOARD"
	CodeUserManagement       Code = "USER_MANAGEMENT"
	CodeRoleManagement       Code = "ROLE_MANAGEMENT"
	CodeMenuManagement       Code = "MENU_MANAGEMENT"
	CodePermissionManagement Code = "PERMISSION_MANAGEMENT"
	CodeLogManagement        Code = "LOG_MANAGEMENT"
	CodeMyProfile            Code = "MY_PROFILE"
	CodeSystemManagement     Code = "SYSTEM_MANAGEMENT"
	CodeSystemMonitoring     Code = "SYSTEM_MONITORING"
	CodeAdvancedSearch       Code = "ADVANCED_SEARCH"
)
