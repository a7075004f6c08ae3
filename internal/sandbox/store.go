package sandbox

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/core/jsontime"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/role"
	"github.com/frahmantamala/admin-console/internal/session"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/frahmantamala/admin-console/internal/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUserNotFound       = internal.NewNotFoundError("user not found", internal.ErrCodeResourceNotFound)
	errRoleNotFound       = internal.NewNotFoundError("role not found", internal.ErrCodeResourceNotFound)
	errMenuNotFound       = internal.NewNotFoundError("menu not found", internal.ErrCodeResourceNotFound)
	errPermissionNotFound = internal.NewNotFoundError("permission not found", internal.ErrCodeResourceNotFound)
	errLogNotFound        = internal.NewNotFoundError("log entry not found", internal.ErrCodeResourceNotFound)
	errUserInactive       = internal.NewUnauthorizedError("user is inactive", internal.ErrCodeInvalidCredentials)
	errBadCredentials     = internal.NewUnauthorizedError("Bad credentials", internal.ErrCodeInvalidCredentials)
	errWrongPassword      = internal.NewValidationFieldError("currentPassword", "current password is incorrect", internal.ErrCodeValidationFailed)
)

// sequence selects one of the per-kind id counters.
type sequence int

const (
	seqUsers sequence = iota
	seqRoles
	seqMenus
	seqPermissions
	seqLogs
	numSequences
)

type account struct {
	user         user.User
	passwordHash string
	roleIDs      []int64
}

// Store is the sandbox's in-memory data set. Every method is one critical
// section.
type Store struct {
	mu   sync.RWMutex
	now  func() time.Time
	cost int

	nextID   [numSequences]int64
	accounts map[int64]*account
	roles    map[int64]role.Role
	menus    map[int64]menu.Menu
	codes    map[menu.Code]int64
	perms    map[int64]permission.Permission
	logs     []syslog.Entry
	revoked  map[string]time.Time
}

func NewStore(now func() time.Time, bcryptCost int) *Store {
	if now == nil {
		now = time.Now
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{
		now:      now,
		cost:     bcryptCost,
		accounts: map[int64]*account{},
		roles:    map[int64]role.Role{},
		menus:    map[int64]menu.Menu{},
		codes:    map[menu.Code]int64{},
		perms:    map[int64]permission.Permission{},
		revoked:  map[string]time.Time{},
	}
}

func (s *Store) id(seq sequence) int64 {
	s.nextID[seq]++
	return s.nextID[seq]
}

func (s *Store) stamp() jsontime.Time {
	return jsontime.New(s.now().UTC().Truncate(time.Second))
}

func boolPtr(b bool) *bool {
	return &b
}

// page cuts items to the requested page. page is zero based; size <= 0
// returns everything.
func page[T any](items []T, pageNum, size int) ([]T, slice.Pagination) {
	total := int64(len(items))
	if size <= 0 {
		return items, slice.Pagination{Page: 0, PageSize: len(items), Total: total}
	}
	if pageNum < 0 {
		pageNum = 0
	}
	start := pageNum * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], slice.Pagination{Page: pageNum, PageSize: size, Total: total}
}

func (s *Store) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return string(h), nil
}

// ---- users ----

func (s *Store) view(a *account) user.User {
	u := a.user
	u.Roles = make([]user.RoleRef, 0, len(a.roleIDs))
	for _, id := range a.roleIDs {
		if r, ok := s.roles[id]; ok {
			u.Roles = append(u.Roles, user.RoleRef{ID: r.ID, RoleName: r.RoleName, Description: r.Description, IsActive: r.IsActive})
		}
	}
	return u
}

func (s *Store) findByUsername(username string) *account {
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Username, username) {
			return a
		}
	}
	return nil
}

func (s *Store) Authenticate(username, password string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findByUsername(username)
	if a == nil {
		return user.User{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return user.User{}, errBadCredentials
	}
	if !a.user.IsActiveUser() {
		return user.User{}, errUserInactive
	}
	a.user.LastLogin = s.stamp()
	return s.view(a), nil
}

func (s *Store) User(id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return user.User{}, errUserNotFound
	}
	return s.view(a), nil
}

func (s *Store) Users(keyword string, pageNum, size int) ([]user.User, slice.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword = strings.ToLower(keyword)
	out := make([]user.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(a.user.Username), keyword) &&
			!strings.Contains(strings.ToLower(a.user.FullName), keyword) &&
			!strings.Contains(strings.ToLower(a.user.Email), keyword) {
			continue
		}
		out = append(out, s.view(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, pageNum, size)
}

func (s *Store) CountUsers() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.accounts))
}

func (s *Store) createAccount(username, password, email, fullName, phone string, active *bool, roleIDs []int64) (user.User, error) {
	if s.findByUsername(username) != nil {
		return user.User{}, internal.NewConflictError("username already exists", internal.ErrCodeResourceConflict)
	}
	for _, rid := range roleIDs {
		if _, ok := s.roles[rid]; !ok {
			return user.User{}, errRoleNotFound
		}
	}
	hash, err := s.hash(password)
	if err != nil {
		return user.User{}, err
	}
	if active == nil {
		active = boolPtr(true)
	}
	now := s.stamp()
	a := &account{
		user: user.User{
			ID:        s.id(seqUsers),
			Username:  username,
			Email:     email,
			FullName:  fullName,
			Phone:     phone,
			IsActive:  active,
			CreatedAt: now,
			UpdatedAt: now,
		},
		passwordHash: hash,
		roleIDs:      append([]int64(nil), roleIDs...),
	}
	s.accounts[a.user.ID] = a
	return s.view(a), nil
}

func (s *Store) CreateUser(dto user.CreateUserDTO) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccount(dto.Username, dto.Password, dto.Email, dto.FullName, dto.Phone, dto.IsActive, dto.RoleIDs)
}

// Register creates an active account holding the USER role.
func (s *Store) Register(dto session.RegisterDTO) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var roleIDs []int64
	for _, r := range s.roles {
		if r.RoleName == RoleUser {
			roleIDs = append(roleIDs, r.ID)
		}
	}
	return s.createAccount(dto.Username, dto.Password, dto.Email, dto.FullName, dto.Phone, nil, roleIDs)
}

func (s *Store) UpdateUser(id int64, dto user.UpdateUserDTO) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return user.User{}, errUserNotFound
	}
	a.user.Email = dto.Email
	a.user.FullName = dto.FullName
	a.user.Phone = dto.Phone
	if dto.IsActive != nil {
		a.user.IsActive = boolPtr(*dto.IsActive)
	}
	a.user.UpdatedAt = s.stamp()
	return s.view(a), nil
}

func (s *Store) UpdateProfile(id int64, dto session.UpdateProfileDTO) (user.User, error) {
	return s.UpdateUser(id, user.UpdateUserDTO{Email: dto.Email, FullName: dto.FullName, Phone: dto.Phone})
}

func (s *Store) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return errUserNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) ToggleUserStatus(id int64) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return user.User{}, errUserNotFound
	}
	a.user.IsActive = boolPtr(!a.user.IsActiveUser())
	a.user.UpdatedAt = s.stamp()
	return s.view(a), nil
}

func (s *Store) UserRoles(id int64) ([]user.RoleRef, error) {
	u, err := s.User(id)
	if err != nil {
		return nil, err
	}
	return u.Roles, nil
}

func (s *Store) SetUserRoles(id int64, roleIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errUserNotFound
	}
	for _, rid := range roleIDs {
		if _, ok := s.roles[rid]; !ok {
			return errRoleNotFound
		}
	}
	a.roleIDs = append([]int64(nil), roleIDs...)
	a.user.UpdatedAt = s.stamp()
	return nil
}

// SetPassword replaces the password. requireChange forces a change at next
// login.
func (s *Store) SetPassword(id int64, password string, requireChange bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return errUserNotFound
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	a.passwordHash = hash
	a.user.PasswordChangeRequired = requireChange
	a.user.UpdatedAt = s.stamp()
	return nil
}

func (s *Store) ChangePassword(id int64, current, next string) error {
	s.mu.RLock()
	a, ok := s.accounts[id]
	var hash string
	if ok {
		hash = a.passwordHash
	}
	s.mu.RUnlock()
	if !ok {
		return errUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)); err != nil {
		return errWrongPassword
	}
	return s.SetPassword(id, next, false)
}

// ---- revoked tokens ----

func (s *Store) Revoke(tokenID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = expiresAt
}

func (s *Store) Revoked(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.revoked[tokenID]
	return ok && !exp.Before(s.now())
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accounts == nil {
		return internal.NewInternalError("store not initialized", nil)
	}
	return nil
}
