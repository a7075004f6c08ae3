package sandbox

import (
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"

	AdminUsername = "admin"
	AdminPassword = "admin123"
)

type seedMenu struct {
	code   menu.Code
	name   string
	url    string
	icon   string
	parent menu.Code
}

var seedMenus = []seedMenu{
	{code: menu.CodeDashboard, name: "Dashboard", url: "/dashboard", icon: "dashboard"},
	{code: menu.CodeSystemManagement, name: "System Management", icon: "setting"},
	{code: menu.CodeUserManagement, name: "User Management", url: "/system/users", icon: "user", parent: menu.CodeSystemManagement},
	{code: menu.CodeRoleManagement, name: "Role Management", url: "/system/roles", icon: "team", parent: menu.CodeSystemManagement},
	{code: menu.CodeMenuManagement, name: "Menu Management", url: "/system/menus", icon: "menu", parent: menu.CodeSystemManagement},
	{code: menu.CodePermissionManagement, name: "Permission Management", url: "/system/permissions", icon: "safety", parent: menu.CodeSystemManagement},
	{code: menu.CodeLogManagement, name: "Log Management", url: "/system/logs", icon: "file-text", parent: menu.CodeSystemManagement},
	{code: menu.CodeAdvancedSearch, name: "Advanced Search", url: "/system/logs/search", icon: "search", parent: menu.CodeLogManagement},
	{code: menu.CodeSystemMonitoring, name: "System Monitoring", url: "/monitoring", icon: "monitor"},
	{code: menu.CodeMyProfile, name: "My Profile", url: "/profile", icon: "idcard"},
}

// userReadable are the menus the USER role may open.
var userReadable = map[menu.Code]bool{
	menu.CodeDashboard: true,
	menu.CodeMyProfile: true,
}

// Seed loads the default roles, menus, permissions and the admin account.
func (s *Store) Seed() error {
	admin, err := s.CreateRole(role.RoleDTO{RoleName: RoleAdmin, Description: "Full access"})
	if err != nil {
		return err
	}
	basic, err := s.CreateRole(role.RoleDTO{RoleName: RoleUser, Description: "Dashboard and profile"})
	if err != nil {
		return err
	}

	ids := map[menu.Code]int64{}
	for i, sm := range seedMenus {
		dto := menu.MenuDTO{MenuName: sm.name, URL: sm.url, Icon: sm.icon, OrderNum: i + 1}
		if sm.parent != "" {
			parentID := ids[sm.parent]
			dto.ParentID = &parentID
		}
		m, err := s.createMenu(dto, sm.code)
		if err != nil {
			return err
		}
		ids[sm.code] = m.ID
	}

	var grants []permission.Permission
	for _, sm := range seedMenus {
		grants = append(grants, permission.Permission{RoleID: admin.ID, MenuID: ids[sm.code], CanRead: true, CanWrite: true, CanDelete: true})
		if userReadable[sm.code] {
			grants = append(grants, permission.Permission{RoleID: basic.ID, MenuID: ids[sm.code], CanRead: true, CanWrite: sm.code == menu.CodeMyProfile})
		}
	}
	if err := s.BatchCreate(grants); err != nil {
		return err
	}

	if _, err := s.CreateUser(user.CreateUserDTO{
		Username: AdminUsername,
		Password: AdminPassword,
		Email:    "admin@example.com",
		FullName: "System Administrator",
		RoleIDs:  []int64{admin.ID},
	}); err != nil {
		return err
	}

	s.AddLog(syslog.Entry{Level: syslog.LevelInfo, Username: "system", Action: "SEED", Message: "sandbox data seeded"})
	return nil
}
