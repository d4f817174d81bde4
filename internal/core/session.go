package core

import (
	"strings"
	"time"
)

// Session is one logged block of focused work.
type Session struct {
	ID       int64
	Name     string
	Duration time.Duration
	// When the session was logged
	Date time.Time
	Kind SessionKind
}

// SessionKind is the timer that produced a session.
type SessionKind string

const (
	SessionPomodoro   SessionKind = "Pomodoro"
	SessionStopwatch  SessionKind = "Stopwatch"
	SessionSmartFocus SessionKind = "Smart Focus"
)

var sessionAliases = map[string]SessionKind{
	"pomodoro":         SessionPomodoro,
	"stopwatch":        SessionStopwatch,
	"kronometre":       SessionStopwatch,
	"smart focus":      SessionSmartFocus,
	"akıllı odaklanma": SessionSmartFocus,
}

// ParseSessionKind normalises a timer name. Unknown names are kept as-is.
func ParseSessionKind(s string) SessionKind {
	if k, ok := sessionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k
	}
	return SessionKind(strings.TrimSpace(s))
}
