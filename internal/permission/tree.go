package permission

import (
	"github.com/frahmantamala/admin-console/internal/core/tree"
	"github.com/frahmantamala/admin-console/internal/menu"
)

// MenuAccess is a menu annotated with one role's access row. Access is nil
// when the role has no row for the menu.
type MenuAccess struct {
	Menu   menu.Menu
	Access *Permission
}

func (m MenuAccess) Allows(action Action) bool {
	return m.Access != nil && m.Access.Allows(action)
}

type Node = tree.Node[MenuAccess, int64]

// RoleTree builds the menu forest with roleID's access on every node.
func RoleTree(menus []menu.Menu, set *Set, roleID int64) []*Node {
	items := make([]MenuAccess, 0, len(menus))
	for _, m := range menus {
		item := MenuAccess{Menu: m}
		if p, ok := set.Get(roleID, m.ID); ok {
			row := p
			item.Access = &row
		}
		items = append(items, item)
	}
	return tree.Build[MenuAccess, int64](items, func(m MenuAccess) (int64, *int64) {
		return m.Menu.ID, m.Menu.ParentID
	})
}
