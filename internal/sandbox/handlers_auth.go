package sandbox

import (
	"net/http"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
)

var errRefreshRequired = internal.NewValidationFieldError("refreshToken", "refreshToken is required", internal.ErrCodeValidationFailed)

func (s *Server) issue(u user.User) (map[string]interface{}, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Username)
	if err != nil {
		return nil, err
	}

	field := s.cfg.TokenField
	if field == "" {
		field = "token"
	}
	return map[string]interface{}{
		field:          access,
		"refreshToken": refresh,
		"type":         "Bearer",
		"expiresIn":    int64(s.tokens.AccessTokenTTL.Seconds()),
		"user":         u,
	}, nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var dto session.LoginDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}

	u, err := s.store.Authenticate(dto.Username, dto.Password)
	if err != nil {
		s.store.AddLog(syslog.Entry{Level: syslog.LevelWarning, Username: dto.Username, Action: "LOGIN_FAILED", Message: "login rejected", IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()})
		s.WriteError(w, err)
		return
	}

	resp, err := s.issue(u)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.store.AddLog(syslog.Entry{Level: syslog.LevelInfo, Username: u.Username, Action: "LOGIN", Message: "user logged in", IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()})
	s.WriteData(w, http.StatusOK, resp)
}

// refresh rotates the pair. The presented refresh token cannot be used again.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var dto session.RefreshTokenDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if dto.RefreshToken == "" {
		s.WriteError(w, errRefreshRequired)
		return
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	if s.store.Revoked(claims.ID) {
		s.WriteError(w, ErrInvalidToken)
		return
	}
	u, err := s.store.User(claims.UserID)
	if err != nil || !u.IsActiveUser() {
		s.WriteError(w, ErrInvalidToken)
		return
	}

	s.store.Revoke(claims.ID, claims.ExpiresAt.Time)
	resp, err := s.issue(u)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, resp)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	s.store.Revoke(p.TokenID, s.now().Add(s.tokens.AccessTokenTTL))
	s.audit(r, syslog.LevelInfo, "LOGOUT", "user logged out")
	s.WriteNoContent(w)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var dto session.RegisterDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	u, err := s.store.Register(dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.store.AddLog(syslog.Entry{Level: syslog.LevelInfo, Username: u.Username, Action: "REGISTER", Message: "user registered", IPAddress: r.RemoteAddr})
	s.WriteData(w, http.StatusCreated, u)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.User(principal(r).UserID)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteData(w, http.StatusOK, u)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var dto session.UpdateProfileDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	u, err := s.store.UpdateProfile(principal(r).UserID, dto)
	if err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "UPDATE_PROFILE", "profile updated")
	s.WriteData(w, http.StatusOK, u)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var dto session.ChangePasswordDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.ChangePassword(principal(r).UserID, dto.CurrentPassword, dto.NewPassword); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "CHANGE_PASSWORD", "password changed")
	s.WriteNoContent(w)
}

func (s *Server) forceChangePassword(w http.ResponseWriter, r *http.Request) {
	var dto session.ForceChangePasswordDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := s.store.SetPassword(principal(r).UserID, dto.NewPassword, false); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, syslog.LevelInfo, "FORCE_CHANGE_PASSWORD", "required password change completed")
	s.WriteNoContent(w)
}
