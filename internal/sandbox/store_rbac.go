package sandbox

import (
	"context"
	"sort"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/role"
)

// ---- roles ----

func (s *Store) sortedRoles(filter func(role.Role) bool) []role.Role {
	out := make([]role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter == nil || filter(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Roles(pageNum, size int) ([]role.Role, slice.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.sortedRoles(nil), pageNum, size)
}

func (s *Store) ActiveRoles() []role.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedRoles(role.Role.IsActiveRole)
}

func (s *Store) CountRoles() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.roles))
}

func (s *Store) Role(id int64) (role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return role.Role{}, errRoleNotFound
	}
	return r, nil
}

func (s *Store) roleNameTaken(name string, except int64) bool {
	for _, r := range s.roles {
		if r.ID != except && strings.EqualFold(r.RoleName, name) {
			return true
		}
	}
	return false
}

func (s *Store) CreateRole(dto role.RoleDTO) (role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roleNameTaken(dto.RoleName, 0) {
		return role.Role{}, internal.NewConflictError("role name already exists", internal.ErrCodeResourceConflict)
	}
	active := dto.IsActive
	if active == nil {
		active = boolPtr(true)
	}
	now := s.stamp()
	r := role.Role{ID: s.id(seqRoles), RoleName: dto.RoleName, Description: dto.Description, IsActive: active, CreatedAt: now, UpdatedAt: now}
	s.roles[r.ID] = r
	return r, nil
}

func (s *Store) UpdateRole(id int64, dto role.RoleDTO) (role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return role.Role{}, errRoleNotFound
	}
	if s.roleNameTaken(dto.RoleName, id) {
		return role.Role{}, internal.NewConflictError("role name already exists", internal.ErrCodeResourceConflict)
	}
	r.RoleName = dto.RoleName
	r.Description = dto.Description
	if dto.IsActive != nil {
		r.IsActive = boolPtr(*dto.IsActive)
	}
	r.UpdatedAt = s.stamp()
	s.roles[id] = r
	return r, nil
}

// DeleteRole refuses roles still assigned to a user.
func (s *Store) DeleteRole(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return errRoleNotFound
	}
	if len(s.roleUserIDs(id)) > 0 {
		return internal.NewConflictError("Role is assigned to users", internal.ErrCodeResourceConflict)
	}
	delete(s.roles, id)
	for pid, p := range s.perms {
		if p.RoleID == id {
			delete(s.perms, pid)
		}
	}
	return nil
}

func (s *Store) SetRoleActive(id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return errRoleNotFound
	}
	r.IsActive = boolPtr(active)
	r.UpdatedAt = s.stamp()
	s.roles[id] = r
	return nil
}

func (s *Store) roleUserIDs(roleID int64) []int64 {
	var ids []int64
	for _, a := range s.accounts {
		for _, rid := range a.roleIDs {
			if rid == roleID {
				ids = append(ids, a.user.ID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) RoleUserIDs(roleID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.roles[roleID]; !ok {
		return nil, errRoleNotFound
	}
	ids := s.roleUserIDs(roleID)
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (s *Store) AssignUser(roleID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return errRoleNotFound
	}
	a, ok := s.accounts[userID]
	if !ok {
		return errUserNotFound
	}
	for _, rid := range a.roleIDs {
		if rid == roleID {
			return nil
		}
	}
	a.roleIDs = append(a.roleIDs, roleID)
	return nil
}

func (s *Store) RemoveUser(roleID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return errUserNotFound
	}
	kept := a.roleIDs[:0]
	for _, rid := range a.roleIDs {
		if rid != roleID {
			kept = append(kept, rid)
		}
	}
	a.roleIDs = kept
	return nil
}

// ---- menus ----

func (s *Store) sortedMenus() []menu.Menu {
	out := make([]menu.Menu, 0, len(s.menus))
	for _, m := range s.menus {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderNum != out[j].OrderNum {
			return out[i].OrderNum < out[j].OrderNum
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Menus(pageNum, size int) ([]menu.Menu, slice.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.sortedMenus(), pageNum, size)
}

// MenuTree returns every menu nested under its parent.
func (s *Store) MenuTree() []menu.Menu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nest(menu.BuildTree(s.sortedMenus()))
}

func nest(nodes []*menu.Node) []menu.Menu {
	out := make([]menu.Menu, 0, len(nodes))
	for _, n := range nodes {
		m := n.Item
		m.Children = nest(n.Children)
		if len(m.Children) == 0 {
			m.Children = nil
		}
		out = append(out, m)
	}
	return out
}

// UserMenus returns the visible menus the user may read, nested, each carrying
// the user's combined access.
func (s *Store) UserMenus(userID int64) ([]menu.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.accounts[userID]; !ok {
		return nil, errUserNotFound
	}

	var visible []menu.Menu
	for _, m := range s.sortedMenus() {
		if !m.Visible() || (m.IsActive != nil && !*m.IsActive) {
			continue
		}
		access := s.access(userID, m.ID)
		if !access.CanRead {
			continue
		}
		m.Permission = &access
		visible = append(visible, m)
	}
	// A readable child of an unreadable parent surfaces as a root.
	return nest(menu.BuildTree(visible)), nil
}

func (s *Store) Menu(id int64) (menu.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menus[id]
	if !ok {
		return menu.Menu{}, errMenuNotFound
	}
	return m, nil
}

func (s *Store) CountMenus() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.menus))
}

func (s *Store) SearchMenus(keyword string) []menu.Menu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	out := []menu.Menu{}
	for _, m := range s.sortedMenus() {
		if keyword == "" || strings.Contains(strings.ToLower(m.MenuName), keyword) || strings.Contains(strings.ToLower(m.URL), keyword) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) checkParent(id int64, parentID *int64) error {
	if parentID == nil || *parentID == 0 {
		return nil
	}
	if _, ok := s.menus[*parentID]; !ok {
		return internal.NewValidationFieldError("parentId", "parent menu does not exist", internal.ErrCodeValidationFailed)
	}
	for cur := *parentID; cur != 0; {
		if cur == id {
			return internal.NewValidationFieldError("parentId", "menu cannot be its own ancestor", internal.ErrCodeValidationFailed)
		}
		p := s.menus[cur].ParentID
		if p == nil {
			break
		}
		cur = *p
	}
	return nil
}

func (s *Store) CreateMenu(dto menu.MenuDTO) (menu.Menu, error) {
	return s.createMenu(dto, "")
}

func (s *Store) createMenu(dto menu.MenuDTO, code menu.Code) (menu.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkParent(0, dto.ParentID); err != nil {
		return menu.Menu{}, err
	}
	now := s.stamp()
	m := menu.Menu{ID: s.id(seqMenus), CreatedAt: now}
	applyMenu(&m, dto)
	m.UpdatedAt = now
	s.menus[m.ID] = m
	if code != "" {
		s.codes[code] = m.ID
	}
	return m, nil
}

func applyMenu(m *menu.Menu, dto menu.MenuDTO) {
	m.MenuName = dto.MenuName
	m.ParentID = nil
	if dto.ParentID != nil && *dto.ParentID != 0 {
		p := *dto.ParentID
		m.ParentID = &p
	}
	m.URL = dto.URL
	m.Icon = dto.Icon
	m.OrderNum = dto.OrderNum
	m.Description = dto.Description
	m.IsVisible = boolPtr(dto.IsVisible == nil || *dto.IsVisible)
	m.IsActive = boolPtr(dto.IsActive == nil || *dto.IsActive)
}

func (s *Store) UpdateMenu(id int64, dto menu.MenuDTO) (menu.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menus[id]
	if !ok {
		return menu.Menu{}, errMenuNotFound
	}
	if err := s.checkParent(id, dto.ParentID); err != nil {
		return menu.Menu{}, err
	}
	applyMenu(&m, dto)
	m.UpdatedAt = s.stamp()
	s.menus[id] = m
	return m, nil
}

// DeleteMenu refuses menus that still have children.
func (s *Store) DeleteMenu(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[id]; !ok {
		return errMenuNotFound
	}
	for _, m := range s.menus {
		if m.ParentID != nil && *m.ParentID == id {
			return internal.NewConflictError("menu has child menus", internal.ErrCodeResourceConflict)
		}
	}
	delete(s.menus, id)
	for code, mid := range s.codes {
		if mid == id {
			delete(s.codes, code)
		}
	}
	for pid, p := range s.perms {
		if p.MenuID == id {
			delete(s.perms, pid)
		}
	}
	return nil
}

func (s *Store) SetMenuOrder(id int64, orderNum int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menus[id]
	if !ok {
		return errMenuNotFound
	}
	m.OrderNum = orderNum
	m.UpdatedAt = s.stamp()
	s.menus[id] = m
	return nil
}

func (s *Store) ToggleMenuVisibility(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menus[id]
	if !ok {
		return errMenuNotFound
	}
	m.IsVisible = boolPtr(!m.Visible())
	m.UpdatedAt = s.stamp()
	s.menus[id] = m
	return nil
}

// ---- permissions ----

func (s *Store) set() *permission.Set {
	rows := make([]permission.Permission, 0, len(s.perms))
	for _, p := range s.perms {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return permission.NewSet(rows...)
}

// access merges the rows of every active role the user holds.
func (s *Store) access(userID int64, menuID int64) menu.Access {
	var out menu.Access
	a, ok := s.accounts[userID]
	if !ok {
		return out
	}
	set := s.set()
	for _, rid := range a.roleIDs {
		r, ok := s.roles[rid]
		if !ok || !r.IsActiveRole() {
			continue
		}
		if p, ok := set.Get(rid, menuID); ok {
			out.CanRead = out.CanRead || p.CanRead
			out.CanWrite = out.CanWrite || p.CanWrite
			out.CanDelete = out.CanDelete || p.CanDelete
		}
	}
	return out
}

func allows(a menu.Access, action permission.Action) bool {
	switch action {
	case permission.ActionRead:
		return a.CanRead
	case permission.ActionWrite:
		return a.CanWrite
	case permission.ActionDelete:
		return a.CanDelete
	}
	return false
}

// HasPermission resolves a menu code and checks the user's combined access.
func (s *Store) HasPermission(_ context.Context, userID int64, menuCode string, action permission.Action) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	menuID, ok := s.codes[menu.Code(menuCode)]
	if !ok {
		return false, nil
	}
	return allows(s.access(userID, menuID), action), nil
}

func (s *Store) Check(userID, menuID int64, action permission.Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allows(s.access(userID, menuID), action)
}

func (s *Store) detailed(p permission.Permission) permission.Permission {
	if m, ok := s.menus[p.MenuID]; ok {
		p.MenuName = m.MenuName
	}
	if r, ok := s.roles[p.RoleID]; ok {
		p.RoleName = r.RoleName
	}
	return p
}

func (s *Store) filterPerms(keep func(permission.Permission) bool, details bool) []permission.Permission {
	out := []permission.Permission{}
	for _, p := range s.perms {
		if keep(p) {
			if details {
				p = s.detailed(p)
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoleID != out[j].RoleID {
			return out[i].RoleID < out[j].RoleID
		}
		return out[i].MenuID < out[j].MenuID
	})
	return out
}

func (s *Store) Permissions(pageNum, size int) ([]permission.Permission, slice.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.filterPerms(func(permission.Permission) bool { return true }, false), pageNum, size)
}

func (s *Store) Permission(id int64) (permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.perms[id]
	if !ok {
		return permission.Permission{}, errPermissionNotFound
	}
	return p, nil
}

func (s *Store) PermissionsByRole(roleID int64, details bool) []permission.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterPerms(func(p permission.Permission) bool { return p.RoleID == roleID }, details)
}

func (s *Store) PermissionsByMenu(menuID int64) []permission.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterPerms(func(p permission.Permission) bool { return p.MenuID == menuID }, true)
}

func (s *Store) PermissionsByUser(userID int64) ([]permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, errUserNotFound
	}
	held := map[int64]bool{}
	for _, rid := range a.roleIDs {
		held[rid] = true
	}
	return s.filterPerms(func(p permission.Permission) bool { return held[p.RoleID] }, true), nil
}

func (s *Store) CountPermissions() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.perms))
}

// upsert keeps one row per role and menu; a second write replaces the first.
func (s *Store) upsert(p permission.Permission) (permission.Permission, error) {
	if _, ok := s.roles[p.RoleID]; !ok {
		return permission.Permission{}, errRoleNotFound
	}
	if _, ok := s.menus[p.MenuID]; !ok {
		return permission.Permission{}, errMenuNotFound
	}
	now := s.stamp()
	for id, existing := range s.perms {
		if existing.RoleID == p.RoleID && existing.MenuID == p.MenuID {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = now
			p.MenuName, p.RoleName = "", ""
			s.perms[id] = p
			return p, nil
		}
	}
	p.ID = s.id(seqPermissions)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.MenuName, p.RoleName = "", ""
	s.perms[p.ID] = p
	return p, nil
}

func (s *Store) CreatePermission(p permission.Permission) (permission.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(p)
}

func (s *Store) UpdatePermission(id int64, p permission.Permission) (permission.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.perms[id]
	if !ok {
		return permission.Permission{}, errPermissionNotFound
	}
	existing.CanRead, existing.CanWrite, existing.CanDelete = p.CanRead, p.CanWrite, p.CanDelete
	existing.UpdatedAt = s.stamp()
	s.perms[id] = existing
	return existing, nil
}

func (s *Store) DeletePermission(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perms[id]; !ok {
		return errPermissionNotFound
	}
	delete(s.perms, id)
	return nil
}

func (s *Store) DeleteRoleMenu(roleID, menuID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.perms {
		if p.RoleID == roleID && p.MenuID == menuID {
			delete(s.perms, id)
			return nil
		}
	}
	return errPermissionNotFound
}

func (s *Store) BatchCreate(perms []permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range perms {
		if _, err := s.upsert(p); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceForRole drops the role's rows and stores perms in their place.
// Rows granting nothing are not kept.
func (s *Store) ReplaceForRole(roleID int64, perms []permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return errRoleNotFound
	}
	for _, p := range perms {
		if _, ok := s.menus[p.MenuID]; !ok {
			return errMenuNotFound
		}
	}
	for id, p := range s.perms {
		if p.RoleID == roleID {
			delete(s.perms, id)
		}
	}
	for _, p := range perms {
		p.RoleID = roleID
		if p.Empty() {
			continue
		}
		if _, err := s.upsert(p); err != nil {
			return err
		}
	}
	return nil
}
