// Package syslog reads and maintains the backend's system log.
package syslog

import (
	"strings"

	"github.com/frahmantamala/admin-console/internal/core/jsontime"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

func ParseLevel(s string) (Level, bool) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelInfo, LevelWarning, LevelError:
		return l, true
	case "WARN":
		return LevelWarning, true
	}
	return "", false
}

type Entry struct {
	ID        int64         `json:"id"`
	Level     Level         `json:"level"`
	Username  string        `json:"username,omitempty"`
	Action    string        `json:"action,omitempty"`
	Message   string        `json:"message"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	Details   string        `json:"details,omitempty"`
	CreatedAt jsontime.Time `json:"createdAt"`
}

func (e Entry) EntityID() int64 {
	return e.ID
}

type Stats struct {
	Total   int64 `json:"total"`
	Info    int64 `json:"info"`
	Warning int64 `json:"warning"`
	Error   int64 `json:"error"`
}
