package permission

import (
	"sort"
	"strings"
	"sync"

	"github.com/frahmantamala/admin-console/internal/core/jsontime"
)

// Permission is one role×menu access row.
type Permission struct {
	ID        int64         `json:"id,omitempty"`
	RoleID    int64         `json:"roleId"`
	MenuID    int64         `json:"menuId"`
	CanRead   bool          `json:"canRead"`
	CanWrite  bool          `json:"canWrite"`
	CanDelete bool          `json:"canDelete"`
	CreatedAt jsontime.Time `json:"createdAt"`
	UpdatedAt jsontime.Time `json:"updatedAt"`

	// Filled by the details endpoints only.
	MenuName string `json:"menuName,omitempty"`
	RoleName string `json:"roleName,omitempty"`
}

func (p Permission) EntityID() int64 {
	return p.ID
}

func (p *Permission) SetEntityID(id int64) {
	p.ID = id
}

type Action string

const (
	ActionRead   Action = "READ"
	ActionWrite  Action = "WRITE"
	ActionDelete Action = "DELETE"
)

// ParseAction accepts any case.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionRead, ActionWrite, ActionDelete:
		return a, true
	}
	return "", false
}

func (p Permission) Allows(action Action) bool {
	switch action {
	case ActionRead:
		return p.CanRead
	case ActionWrite:
		return p.CanWrite
	case ActionDelete:
		return p.CanDelete
	}
	return false
}

// Empty reports a row that grants nothing.
func (p Permission) Empty() bool {
	return !p.CanRead && !p.CanWrite && !p.CanDelete
}

type pairKey struct {
	roleID int64
	menuID int64
}

// Set holds at most one row per (role, menu). A later row for the same pair
// replaces the earlier one. A missing row grants nothing.
type Set struct {
	mu   sync.RWMutex
	rows map[pairKey]Permission
}

func NewSet(perms ...Permission) *Set {
	s := &Set{rows: make(map[pairKey]Permission, len(perms))}
	for _, p := range perms {
		s.rows[pairKey{p.RoleID, p.MenuID}] = p
	}
	return s
}

func (s *Set) Put(p Permission) {
	s.mu.Lock()
	s.rows[pairKey{p.RoleID, p.MenuID}] = p
	s.mu.Unlock()
}

func (s *Set) Remove(roleID, menuID int64) {
	s.mu.Lock()
	delete(s.rows, pairKey{roleID, menuID})
	s.mu.Unlock()
}

func (s *Set) Get(roleID, menuID int64) (Permission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[pairKey{roleID, menuID}]
	return p, ok
}

func (s *Set) Allows(roleID, menuID int64, action Action) bool {
	p, ok := s.Get(roleID, menuID)
	return ok && p.Allows(action)
}

// ForRole returns the role's rows ordered by menu id.
func (s *Set) ForRole(roleID int64) []Permission {
	s.mu.RLock()
	out := make([]Permission, 0)
	for k, p := range s.rows {
		if k.roleID == roleID {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

type Stats struct {
	Total int `json:"total"`
	Roles int `json:"roles"`
	Menus int `json:"menus"`
}

// Stats counts rows and the distinct roles and menus they configure.
func (s *Set) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := map[int64]struct{}{}
	menus := map[int64]struct{}{}
	for k := range s.rows {
		roles[k.roleID] = struct{}{}
		menus[k.menuID] = struct{}{}
	}
	return Stats{Total: len(s.rows), Roles: len(roles), Menus: len(menus)}
}

// Grants collects edits to one role's access before they are submitted as a
// batch.
type Grants struct {
	roleID int64
	rows   map[int64]Permission
}

// NewGrants starts from the role's current rows in set.
func NewGrants(roleID int64, set *Set) *Grants {
	g := &Grants{roleID: roleID, rows: map[int64]Permission{}}
	if set != nil {
		for _, p := range set.ForRole(roleID) {
			g.rows[p.MenuID] = p
		}
	}
	return g
}

// Set updates one flag for menuID.
func (g *Grants) Set(menuID int64, action Action, allowed bool) *Grants {
	p := g.rows[menuID]
	p.RoleID = g.roleID
	p.MenuID = menuID
	switch action {
	case ActionRead:
		p.CanRead = allowed
	case ActionWrite:
		p.CanWrite = allowed
	case ActionDelete:
		p.CanDelete = allowed
	}
	g.rows[menuID] = p
	return g
}

// Batch returns the rows to submit ordered by menu id. Every touched menu is
// sent, including those with all flags cleared.
func (g *Grants) Batch() []Permission {
	out := make([]Permission, 0, len(g.rows))
	for _, p := range g.rows {
		out = append(out, Permission{RoleID: g.roleID, MenuID: p.MenuID, CanRead: p.CanRead, CanWrite: p.CanWrite, CanDelete: p.CanDelete})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out
}
