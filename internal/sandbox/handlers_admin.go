package sandbox

import (
	"fmt"
	"net/http"

	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
	"github.com/go-chi/chi"
)

const tempPasswordBytes = 6

// pathID writes the error itself, so callers only check ok.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := s.PathID(r, name)
	if err != nil {
		s.WriteError(w, err)
		return 0, false
	}
	return id, true
}

func (s *Server) userRoutes(r chi.Router) {
	r.Use(s.guard(string(menu.CodeUserManagement)))
	r.Get("/", s.listUsers)
	r.Post("/", s.createUser)
	r.Get("/count", s.countUsers)
	r.Route("/{id}", func(ir chi.Router) {
		ir.Get("/", s.getUser)
		ir.Put("/", s.updateUser)
		ir.Delete("/", s.deleteUser)
		ir.Get("/roles", s.userRoles)
		ir.Put("/roles", s.setUserRoles)
		ir.Put("/password", s.resetUserPassword)
		ir.Put("/reset-password", s.generateUserPassword)
		ir.Put("/toggle-status", s.toggleUserStatus)
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, p := s.store.Users(r.URL.Query().Get("keyword"), s.QueryInt(r, "page", 0), s.QueryInt(r, "size", 0))
	s.WriteList(w, users, p)
}

func (s *Server) countUsers(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.CountUsers())
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var dto user.CreateUserDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	u, err := s.store.CreateUser(dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "CREATE_USER", "created user "+u.Username)
	s.WriteData(w, http.StatusCreated, u)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := s.store.User(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto user.UpdateUserDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	u, err := s.store.UpdateUser(id, dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_USER", "updated user "+u.Username)
	s.WriteData(w, http.StatusOK, u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelWarning, "DELETE_USER", fmt.Sprintf("deleted user %d", id))
	s.WriteNoContent(w)
}

func (s *Server) userRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	roles, err := s.store.UserRoles(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, roles)
}

func (s *Server) setUserRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto user.UpdateRolesDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.SetUserRoles(id, dto.RoleIDs); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_USER_ROLES", fmt.Sprintf("user %d now holds %d roles", id, len(dto.RoleIDs)))
	s.WriteNoContent(w)
}

func (s *Server) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var dto user.ResetPasswordDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.SetPassword(id, dto.NewPassword, false); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "RESET_PASSWORD", fmt.Sprintf("password set for user %d", id))
	s.WriteNoContent(w)
}

// generateUserPassword issues a temporary password the user has to replace
// on next login.
func (s *Server) generateUserPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	temp, err := GenerateRandomToken(tempPasswordBytes)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.SetPassword(id, temp, true); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelWarning, "RESET_PASSWORD", fmt.Sprintf("temporary password issued for user %d", id))
	s.WriteData(w, http.StatusOK, temp)
}

func (s *Server) toggleUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := s.store.ToggleUserStatus(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "TOGGLE_USER_STATUS", fmt.Sprintf("user %s active=%t", u.Username, u.IsActiveUser()))
	s.WriteData(w, http.StatusOK, u)
}

func (s *Server) roleRoutes(r chi.Router) {
	r.Use(s.guard(string(menu.CodeRoleManagement)))
	r.Get("/", s.listRoles)
	r.Post("/", s.createRole)
	r.Get("/active", s.activeRoles)
	r.Get("/count", s.countRoles)
	r.Route("/{id}", func(ir chi.Router) {
		ir.Get("/", s.getRole)
		ir.Put("/", s.updateRole)
		ir.Delete("/", s.deleteRole)
		ir.Put("/activate", s.setRoleActive(true))
		ir.Put("/deactivate", s.setRoleActive(false))
		ir.Get("/users", s.roleUsers)
		ir.Post("/assign-user/{userId}", s.assignRoleUser)
		ir.Delete("/remove-user/{userId}", s.removeRoleUser)
	})
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, p := s.store.Roles(s.QueryInt(r, "page", 0), s.QueryInt(r, "size", 0))
	s.WriteList(w, roles, p)
}

func (s *Server) activeRoles(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.ActiveRoles())
}

func (s *Server) countRoles(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.CountRoles())
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	rl, err := s.store.Role(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, rl)
}

func (s *Server) decodeRole(w http.ResponseWriter, r *http.Request) (role.RoleDTO, bool) {
	var dto role.RoleDTO
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

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	dto, ok := s.decodeRole(w, r)
	if !ok {
		return
	}
	rl, err := s.store.CreateRole(dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "CREATE_ROLE", "created role "+rl.RoleName)
	s.WriteData(w, http.StatusCreated, rl)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	dto, ok := s.decodeRole(w, r)
	if !ok {
		return
	}
	rl, err := s.store.UpdateRole(id, dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_ROLE", "updated role "+rl.RoleName)
	s.WriteData(w, http.StatusOK, rl)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteRole(id); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelWarning, "DELETE_ROLE", fmt.Sprintf("deleted role %d", id))
	s.WriteNoContent(w)
}

func (s *Server) setRoleActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r, "id")
		if !ok {
			return
		}
		if err := s.store.SetRoleActive(id, active); err != nil {
			s.WriteError(w, err)
			return
		}
		s.audit(r, syslog.LevelInfo, "UPDATE_ROLE", fmt.Sprintf("role %d active=%t", id, active))
		s.WriteNoContent(w)
	}
}

func (s *Server) roleUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.store.RoleUserIDs(id)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, ids)
}

func (s *Server) assignRoleUser(w http.ResponseWriter, r *http.Request) {
	roleID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := s.store.AssignUser(roleID, userID); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "ASSIGN_ROLE", fmt.Sprintf("role %d assigned to user %d", roleID, userID))
	s.WriteNoContent(w)
}

func (s *Server) removeRoleUser(w http.ResponseWriter, r *http.Request) {
	roleID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := s.pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := s.store.RemoveUser(roleID, userID); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "REMOVE_ROLE", fmt.Sprintf("role %d removed from user %d", roleID, userID))
	s.WriteNoContent(w)
}
