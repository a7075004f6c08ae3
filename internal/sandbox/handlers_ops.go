package sandbox

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/dashboard"
	"github.com/frahmantamala/admin-console/internal/menu"
	"github.com/frahmantamala/admin-console/internal/monitoring"
	"github.com/frahmantamala/admin-console/internal/syslog"
	"github.com/go-chi/chi"
)

const applicationName = "admin-console-sandbox"

func (s *Server) logRoutes(r chi.Router) {
	r.Use(s.guard(string(menu.CodeLogManagement)))
	r.Get("/", s.listLogs)
	r.Post("/search", s.searchLogs)
	r.Get("/stats", s.logStats)
	r.Get("/count", s.countLogs)
	r.Get("/count/level/{level}", s.countLogsByLevel)
	r.Delete("/cleanup", s.cleanupLogs)
	r.Post("/test", s.testLog)
	r.Delete("/{id}", s.deleteLog)
}

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	entries, p := s.store.Logs(s.QueryInt(r, "page", 0), s.QueryInt(r, "size", syslog.DefaultPageSize))
	s.WriteList(w, entries, p)
}

func (s *Server) searchLogs(w http.ResponseWriter, r *http.Request) {
	var q LogSearch
	if err := s.DecodeJSON(r, &q); err != nil {
		s.WriteError(w, err)
		return
	}
	if !q.StartDate.IsZero() && !q.EndDate.IsZero() && q.EndDate.Before(q.StartDate.Time) {
		s.WriteError(w, internal.NewValidationFieldError("endDate", "endDate must not be before startDate", internal.ErrCodeValidationFailed))
		return
	}
	entries, p := s.store.SearchLogs(q)
	s.WriteList(w, entries, p)
}

func (s *Server) logStats(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.LogStats())
}

func (s *Server) countLogs(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.LogStats().Total)
}

func (s *Server) countLogsByLevel(w http.ResponseWriter, r *http.Request) {
	level, ok := syslog.ParseLevel(chi.URLParam(r, "level"))
	if !ok {
		s.WriteError(w, internal.NewValidationFieldError("level", "level must be one of INFO, WARNING, ERROR", internal.ErrCodeValidationFailed))
		return
	}
	s.WriteData(w, http.StatusOK, s.store.CountLogsByLevel(level))
}

func (s *Server) cleanupLogs(w http.ResponseWriter, r *http.Request) {
	days := s.QueryInt(r, "days", syslog.DefaultCleanupDays)
	if days < 0 {
		s.WriteError(w, internal.NewValidationFieldError("days", "days must not be negative", internal.ErrCodeValidationFailed))
		return
	}
	removed := s.store.CleanupLogs(days)
	s.audit(r, syslog.LevelWarning, "CLEANUP_LOGS", fmt.Sprintf("removed %d entries older than %d days", removed, days))
	s.WriteNoContent(w)
}

func (s *Server) deleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteLog(id); err != nil {
		s.WriteError(w, err)
		return
	}
	s.WriteNoContent(w)
}

func (s *Server) testLog(w http.ResponseWriter, r *http.Request) {
	var dto syslog.TestLogDTO
	if err := s.DecodeJSON(r, &dto); err != nil {
		s.WriteError(w, err)
		return
	}
	if err := dto.Validate(); err != nil {
		s.WriteError(w, err)
		return
	}
	s.audit(r, dto.Level, strings.ToUpper(dto.Action), dto.Message)
	s.WriteNoContent(w)
}

func (s *Server) dashboardRoutes(r chi.Router) {
	r.Use(s.guard(string(menu.CodeDashboard)))
	r.Get("/stats", s.dashboardStats)
	r.Get("/recent-activities", s.recentActivities)
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.store.DashboardStats())
}

func (s *Server) recentActivities(w http.ResponseWriter, r *http.Request) {
	limit := s.QueryInt(r, "limit", dashboard.DefaultActivityLimit)
	if limit <= 0 {
		limit = dashboard.DefaultActivityLimit
	}
	s.WriteData(w, http.StatusOK, s.store.RecentLogs(limit))
}

func (s *Server) monitoringRoutes(r chi.Router) {
	r.Use(s.guard(string(menu.CodeSystemMonitoring)))
	r.Get("/api-statistics", s.apiStatistics)
	r.Get("/slow-apis", s.slowAPIs)
	r.Get("/error-apis", s.errorAPIs)
	r.Get("/system-status", s.systemStatus)
	r.Post("/reset-statistics", s.resetStatistics)
}

func (s *Server) apiStatistics(w http.ResponseWriter, r *http.Request) {
	s.WriteData(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) limit(r *http.Request) int {
	limit := s.QueryInt(r, "limit", monitoring.DefaultLimit)
	if limit <= 0 {
		limit = monitoring.DefaultLimit
	}
	return limit
}

func (s *Server) slowAPIs(w http.ResponseWriter, r *http.Request) {
	limit := s.limit(r)
	top := s.stats.Top(limit, func(x, y monitoring.EndpointStats) bool {
		return x.AverageResponseTime > y.AverageResponseTime
	})
	s.WriteData(w, http.StatusOK, map[string]interface{}{"slowApis": top, "limit": limit})
}

func (s *Server) errorAPIs(w http.ResponseWriter, r *http.Request) {
	limit := s.limit(r)
	top := s.stats.Top(limit, func(x, y monitoring.EndpointStats) bool {
		return x.ErrorRate > y.ErrorRate
	})
	s.WriteData(w, http.StatusOK, map[string]interface{}{"errorApis": top, "limit": limit})
}

func (s *Server) systemStatus(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	host, _ := os.Hostname()
	now := s.now()

	s.WriteData(w, http.StatusOK, monitoring.SystemStatus{
		System: map[string]any{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"hostname":   host,
			"processors": runtime.NumCPU(),
			"goVersion":  runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
			"heapAlloc":  mem.HeapAlloc,
			"heapSys":    mem.HeapSys,
			"gcCycles":   mem.NumGC,
			"totalAlloc": mem.TotalAlloc,
		},
		Application: map[string]any{
			"name":      applicationName,
			"startTime": s.started.UnixMilli(),
			"uptime":    now.Sub(s.started).Milliseconds(),
		},
		Health: map[string]any{
			"status": "UP",
		},
		Timestamp: now.UnixMilli(),
	})
}

func (s *Server) resetStatistics(w http.ResponseWriter, r *http.Request) {
	s.stats.Reset()
	s.audit(r, syslog.LevelInfo, "RESET_STATISTICS", "api statistics reset")
	s.WriteNoContent(w)
}
