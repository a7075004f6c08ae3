package sandbox

import (
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/admin-console/internal/monitoring"
)

type routeStats struct {
	total, success, errors int64
	sum, max, min          time.Duration
}

// APIStats aggregates request counters per route for the monitoring
// endpoints. It is fed by the metrics middleware.
type APIStats struct {
	mu     sync.Mutex
	routes map[string]*routeStats
	active atomic.Int64
}

func NewAPIStats() *APIStats {
	return &APIStats{routes: map[string]*routeStats{}}
}

func (a *APIStats) Observe(method, route string, status int, elapsed time.Duration) {
	key := method + " " + route
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.routes[key]
	if !ok {
		st = &routeStats{min: elapsed}
		a.routes[key] = st
	}
	st.total++
	if status >= 400 {
		st.errors++
	} else {
		st.success++
	}
	st.sum += elapsed
	if elapsed > st.max {
		st.max = elapsed
	}
	if elapsed < st.min {
		st.min = elapsed
	}
}

// Track counts requests in flight.
func (a *APIStats) Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.active.Add(1)
		defer a.active.Add(-1)
		next.ServeHTTP(w, r)
	})
}

func (a *APIStats) Reset() {
	a.mu.Lock()
	a.routes = map[string]*routeStats{}
	a.mu.Unlock()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func (a *APIStats) Snapshot() monitoring.APIStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := monitoring.APIStatistics{APIs: make(map[string]monitoring.EndpointStats, len(a.routes))}
	for key, st := range a.routes {
		out.Overall.TotalRequests += st.total
		out.Overall.TotalErrors += st.errors
		out.APIs[key] = monitoring.EndpointStats{
			TotalRequests:       st.total,
			SuccessCount:        st.success,
			ErrorCount:          st.errors,
			AverageResponseTime: ms(st.sum) / float64(st.total),
			MaxResponseTime:     ms(st.max),
			MinResponseTime:     ms(st.min),
			ErrorRate:           rate(st.errors, st.total),
		}
	}
	out.Overall.ErrorRate = rate(out.Overall.TotalErrors, out.Overall.TotalRequests)
	out.Overall.CurrentActiveRequests = a.active.Load()
	return out
}

// Top returns at most limit routes ordered by less.
func (a *APIStats) Top(limit int, less func(x, y monitoring.EndpointStats) bool) map[string]monitoring.EndpointStats {
	all := a.Snapshot().APIs
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if less(all[keys[i]], all[keys[j]]) {
			return true
		}
		if less(all[keys[j]], all[keys[i]]) {
			return false
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make(map[string]monitoring.EndpointStats, len(keys))
	for _, k := range keys {
		out[k] = all[k]
	}
	return out
}
