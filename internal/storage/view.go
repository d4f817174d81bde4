package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ViewState is what the calendar remembers between runs.
type ViewState struct {
	Date time.Time
	// day, week or month
	View string
	// Active category keys; nil means all
	Categories []string
}

// LoadView reads the view state. Missing or unreadable keys keep their zero
// value so a damaged entry never blocks startup.
func LoadView(kv *KV, loc *time.Location) ViewState {
	return viewFrom(kv.Raw, loc)
}

func viewFrom(get func(key string) (json.RawMessage, bool), loc *time.Location) ViewState {
	if loc == nil {
		loc = time.Local
	}
	var vs ViewState

	if raw, ok := get(KeyCurrentDate); ok {
		var s string
		if json.Unmarshal(unwrapString(raw), &s) == nil {
			if t, err := parseTime(s, loc); err == nil {
				vs.Date = t
			}
		}
	}
	if raw, ok := get(KeyView); ok {
		var s string
		if json.Unmarshal(unwrapString(raw), &s) == nil {
			vs.View = s
		}
	}
	if raw, ok := get(KeyActiveCategories); ok {
		var keys []string
		if json.Unmarshal(unwrapString(raw), &keys) == nil {
			vs.Categories = keys
		}
	}
	return vs
}

// SaveView writes the view state.
func SaveView(kv *KV, vs ViewState) error {
	var errs []error
	if !vs.Date.IsZero() {
		errs = append(errs, kv.Set(KeyCurrentDate, formatTime(vs.Date)))
	}
	if vs.View != "" {
		errs = append(errs, kv.Set(KeyView, vs.View))
	}
	if vs.Categories != nil {
		errs = append(errs, kv.Set(KeyActiveCategories, vs.Categories))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to save view state: %w", err)
	}
	return nil
}
