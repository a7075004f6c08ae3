package session

import "time"

// Entry is one persisted session value, keyed by its storage key.
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Entry) TableName() string {
	return "session_entries"
}
