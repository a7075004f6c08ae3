package sandbox

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/go-chi/chi"
)

func (s *Server) menuRoutes(r chi.Router) {
	// Every signed-in user may read their own navigation.
	r.Get("/user", s.userMenus)

	r.Group(func(g chi.Router) {
		g.Use(s.guard(string(menu.CodeMenuManagement)))
		g.Get("/", s.listMenus)
		g.Post("/", s.createMenu)
		g.Get("/tree", s.menuTree)
		g.Get("/search", s.searchMenus)
		g.Get("/count", s.countMenus)
		g.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", s.getMenu)
			ir.Put("/", s.updateMenu)
			ir.Delete("/", s.deleteMenu)
			ir.Put("/order", s.orderMenu)
			ir.Put("/visibility", s.toggleMenuVisibility)
		})
	})
}

func (s *Server) userMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := s.store.UserMenus(principal(r).UserID)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, menus)
}

func (s *Server) listMenus(w http.ResponseWriter, r *http.Request) {
	menus, p := s.store.Menus(s.QueryInt(r, "page", 0), s.QueryInt(r, "size", 0))
	s.WriteList(w, menus, p)
}

func (s *Server) menuTree(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.MenuTree())
}

func (s *Server) searchMenus(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.SearchMenus(r.URL.Query().Get("keyword")))
}

func (s *Server) countMenus(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.CountMenus())
}

func (s *Server) getMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := s.store.Menu(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, m)
}

func (s *Server) decodeMenu(w http.ResponseWriter, r *http.Request) (menu.MenuDTO, bool) {
	var dto menu.MenuDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return dto, false
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return dto, false
	}
	return dto, true
}

func (s *Server) createMenu(w http.ResponseWriter, r *http.Request) {
	dto, ok := s.decodeMenu(w, r)
	if !ok {
		return
	}
	m, err := s.store.CreateMenu(dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "CREATE_MENU", "created menu "+m.MenuName)
	s.WriteData(w, http.StatusCreated, m)
}

func (s *Server) updateMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	dto, ok := s.decodeMenu(w, r)
	if !ok {
		return
	}
	m, err := s.store.UpdateMenu(id, dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_MENU", "updated menu "+m.MenuName)
	s.WriteData(w, http.StatusOK, m)
}

func (s *Server) deleteMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteMenu(id); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelWarning, "DELETE_MENU", fmt.Sprintf("deleted menu %d", id))
	s.WriteNoContent(w)
}

func (s *Server) orderMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	orderNum, err := strconv.Atoi(r.URL.Query().Get("orderNum"))
	if err != nil || orderNum < 0 {
		s.WriteError(w, internal.NewValidationFieldError("orderNum", "orderNum must be a non-negative integer", internal.ErrCodeValidationFailed))
		return
	}
	if err := s.store.SetMenuOrder(id, orderNum); err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteNoContent(w)
}

func (s *Server) toggleMenuVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.ToggleMenuVisibility(id); err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteNoContent(w)
}

func (s *Server) permissionRoutes(r chi.Router) {
	r.Get("/check", s.checkPermission)

	r.Group(func(g chi.Router) {
		g.Use(s.guard(string(menu.CodePermissionManagement)))
		g.Get("/", s.listPermissions)
		g.Post("/", s.createPermission)
		g.Post("/batch", s.batchPermissions)
		g.Get("/count", s.countPermissions)
		g.Get("/role/{roleId}", s.rolePermissions(false))
		g.Get("/role/{roleId}/details", s.rolePermissions(true))
		g.Put("/role/{roleId}/batch", s.replaceRolePermissions)
		g.Delete("/role/{roleId}/menu/{menuId}", s.deleteRoleMenuPermission)
		g.Get("/menu/{menuId}", s.menuPermissions)
		g.Get("/user/{userId}", s.userPermissions)
		g.Get("/{id}", s.getPermission)
		g.Put("/{id}", s.updatePermission)
		g.Delete("/{id}", s.deletePermission)
	})
}

func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, uerr := strconv.ParseInt(q.Get("userId"), 10, 64)
	menuID, merr := strconv.ParseInt(q.Get("menuId"), 10, 64)
	action, ok := permission.ParseAction(q.Get("permissionType"))
	if uerr != nil || merr != nil || !ok {
		s.WriteError(w, internal.NewValidationError("userId, menuId and permissionType are required", internal.ErrCodeValidationFailed))
		return
	}
	s.WriteData(w, http.StatusOK, s.store.Check(userID, menuID, action))
}

func (s *Server) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, p := s.store.Permissions(s.QueryInt(r, "page", 0), s.QueryInt(r, "size", 0))
	s.WriteList(w, perms, p)
}

func (s *Server) countPermissions(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.CountPermissions())
}

func (s *Server) getPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.store.Permission(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, p)
}

func (s *Server) createPermission(w http.ResponseWriter, r *http.Request) {
	var p permission.Permission
	if err := s.DecodeJSON(r, &p); err != nil {
		s.WriteError(w, err)
		return
	}
	created, err := s.store.CreatePermission(p)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "CREATE_PERMISSION", fmt.Sprintf("role %d menu %d", created.RoleID, created.MenuID))
	s.WriteData(w, http.StatusCreated, created)
}

func (s *Server) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var p permission.Permission
	if err := s.DecodeJSON(r, &p); err != nil {
		s.WriteError(w, err)
		return
	}
	updated, err := s.store.UpdatePermission(id, p)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_PERMISSION", fmt.Sprintf("role %d menu %d", updated.RoleID, updated.MenuID))
	s.WriteData(w, http.StatusOK, updated)
}

func (s *Server) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeletePermission(id); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelWarning, "DELETE_PERMISSION", fmt.Sprintf("deleted permission %d", id))
	s.WriteNoContent(w)
}

func (s *Server) batchPermissions(w http.ResponseWriter, r *http.Request) {
	var perms []permission.Permission
	if err := s.DecodeJSON(r, &perms); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.BatchCreate(perms); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "BATCH_PERMISSIONS", fmt.Sprintf("%d rows written", len(perms)))
	s.WriteNoContent(w)
}

func (s *Server) rolePermissions(details bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roleID, ok := s.pathID(w, r, "roleId")
		if !ok {
			return
		}
		if _, err := s.store.Role(roleID); err != nil {
			s.WriteError(w, err)
			return
		}
		s.WriteData(w, http.StatusOK, s.store.PermissionsByRole(roleID, details))
	}
}

func (s *Server) replaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := s.pathID(w, r, "roleId")
	if !ok {
		return
	}
	var perms []permission.Permission
	if err := s.DecodeJSON(r, &perms); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.ReplaceForRole(roleID, perms); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_ROLE_PERMISSIONS", fmt.Sprintf("role %d now has %d rows", roleID, len(perms)))
	s.WriteNoContent(w)
}

func (s *Server) deleteRoleMenuPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := s.pathID(w, r, "roleId")
	if !ok {
		return
	}
	menuID, ok := s.pathID(w, r, "menuId")
	if !ok {
		return
	}
	if err := s.store.DeleteRoleMenu(roleID, menuID); err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteNoContent(w)
}

func (s *Server) menuPermissions(w http.ResponseWriter, r *http.Request) {
	menuID, ok := s.pathID(w, r, "menuId")
	if !ok {
		return
	}
	if _, err := s.store.Menu(menuID); err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, s.store.PermissionsByMenu(menuID))
}

func (s *Server) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}
	perms, err := s.store.PermissionsByUser(userID)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, perms)
}
