package snapshot

import "time"

// Snapshot is the last fetched listing of a resource, kept for offline
// display.
type Snapshot struct {
	Resource  string    `db:"resource"`
	Payload   string    `db:"payload"`
	FetchedAt time.Time `db:"fetched_at"`
}
