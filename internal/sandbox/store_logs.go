package sandbox

import (
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/admin-console/internal/core/jsontime"
	"github.com/frahmantamala/admin-console/internal/core/slice"
	"github.com/frahmantamala/admin-console/internal/dashboard"
	"github.com/frahmantamala/admin-console/internal/syslog"
)

// LogSearch is the decoded body of POST /logs/search.
type LogSearch struct {
	StartDate jsontime.Time `json:"startDate"`
	EndDate   jsontime.Time `json:"endDate"`
	Level     string        `json:"level"`
	Username  string        `json:"username"`
	Action    string        `json:"action"`
	Search    string        `json:"search"`
	Page      int           `json:"page"`
	Size      int           `json:"size"`
}

func (q LogSearch) matches(e syslog.Entry) bool {
	at := e.CreatedAt.Time
	switch {
	case !q.StartDate.IsZero() && at.Before(q.StartDate.Time):
		return false
	case !q.EndDate.IsZero() && at.After(q.EndDate.Time):
		return false
	case q.Level != "" && !strings.EqualFold(string(e.Level), q.Level):
		return false
	case q.Username != "" && !strings.EqualFold(e.Username, q.Username):
		return false
	case q.Action != "" && !strings.EqualFold(e.Action, q.Action):
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(e.Message), needle) ||
		strings.Contains(strings.ToLower(e.Action), needle) ||
		strings.Contains(strings.ToLower(e.Details), needle)
}

// AddLog appends an entry stamped now.
func (s *Store) AddLog(e syslog.Entry) syslog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id(seqLogs)
	e.CreatedAt = s.stamp()
	if e.Level == "" {
		e.Level = syslog.LevelInfo
	}
	s.logs = append(s.logs, e)
	return e
}

// newestFirst returns a copy of the log ordered newest first.
func (s *Store) newestFirst() []syslog.Entry {
	out := make([]syslog.Entry, len(s.logs))
	copy(out, s.logs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) Logs(pageNum, size int) ([]syslog.Entry, slice.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.newestFirst(), pageNum, size)
}

func (s *Store) SearchLogs(q LogSearch) ([]syslog.Entry, slice.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []syslog.Entry{}
	for _, e := range s.newestFirst() {
		if q.matches(e) {
			out = append(out, e)
		}
	}
	size := q.Size
	if size <= 0 {
		size = syslog.DefaultPageSize
	}
	return page(out, q.Page, size)
}

func (s *Store) LogStats() syslog.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := syslog.Stats{Total: int64(len(s.logs))}
	for _, e := range s.logs {
		switch e.Level {
		case syslog.LevelInfo:
			st.Info++
		case syslog.LevelWarning:
			st.Warning++
		case syslog.LevelError:
			st.Error++
		}
	}
	return st
}

func (s *Store) CountLogsByLevel(level syslog.Level) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (s *Store) DeleteLog(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.logs {
		if e.ID == id {
			s.logs = append(s.logs[:i], s.logs[i+1:]...)
			return nil
		}
	}
	return errLogNotFound
}

// CleanupLogs drops entries older than days and reports how many went.
func (s *Store) CleanupLogs(days int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	kept := s.logs[:0]
	for _, e := range s.logs {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(s.logs) - len(kept)
	s.logs = kept
	return removed
}

func (s *Store) RecentLogs(limit int) []syslog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.newestFirst()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) DashboardStats() dashboard.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st dashboard.Stats
	st.TotalUsers = int64(len(s.accounts))
	for _, a := range s.accounts {
		if a.user.IsActiveUser() {
			st.ActiveUsers++
		}
	}
	st.InactiveUsers = st.TotalUsers - st.ActiveUsers
	st.TotalRoles = int64(len(s.roles))
	for _, r := range s.roles {
		if r.IsActiveRole() {
			st.ActiveRoles++
		}
	}
	st.TotalMenus = int64(len(s.menus))
	for _, m := range s.menus {
		if m.Visible() {
			st.VisibleMenus++
		}
	}
	st.TotalPermissions = int64(len(s.perms))
	st.TotalLogs = int64(len(s.logs))

	y, mo, d := s.now().UTC().Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	for _, e := range s.logs {
		if !e.CreatedAt.Before(today) {
			st.TodayLogs++
		}
	}
	return st
}
