package core

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the unit a repeat rule advances by.
type Frequency int

const (
	FrequencyNone Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
	// FrequencyCustom advances like FrequencyDaily. A custom unit selector
	// was never implemented.
	FrequencyCustom
)

var frequencyKeys = [...]string{
	FrequencyNone:    "none",
	FrequencyDaily:   "daily",
	FrequencyWeekly:  "weekly",
	FrequencyMonthly: "monthly",
	FrequencyYearly:  "yearly",
	FrequencyCustom:  "custom",
}

func (f Frequency) String() string {
	if f < 0 || int(f) >= len(frequencyKeys) {
		return frequencyKeys[FrequencyNone]
	}
	return frequencyKeys[f]
}

// ParseFrequency accepts the persisted keys. An empty string means none.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FrequencyNone, nil
	}
	for i, k := range frequencyKeys {
		if k == s {
			return Frequency(i), nil
		}
	}
	return FrequencyNone, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRepeat, s)
}

func (f Frequency) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Frequency) UnmarshalText(b []byte) error {
	v, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// RepeatRule describes how an event repeats.
type RepeatRule struct {
	Frequency Frequency
	// Units of Frequency between occurrences; values below 1 act as 1
	Interval int
	// Inclusive bound on occurrence starts; zero means absent
	Until time.Time
}

// Active reports whether the rule generates anything beyond the base event.
func (r RepeatRule) Active() bool {
	return r.Frequency != FrequencyNone && !r.Until.IsZero()
}

// Step returns the interval clamped to at least 1.
func (r RepeatRule) Step() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// Describe renders the rule for humans, e.g. "every 2 weeks until Mar 3, 2026".
func (r RepeatRule) Describe() string {
	if r.Frequency == FrequencyNone {
		return ""
	}
	unit := map[Frequency]string{
		FrequencyDaily:   "day",
		FrequencyWeekly:  "week",
		FrequencyMonthly: "month",
		FrequencyYearly:  "year",
		FrequencyCustom:  "day",
	}[r.Frequency]

	var s string
	if n := r.Step(); n == 1 {
		s = "every " + unit
	} else {
		s = fmt.Sprintf("every %d %ss", n, unit)
	}
	if r.Until.IsZero() {
		return s + " (no end date)"
	}
	return s + " until " + r.Until.Format("Jan 2, 2006")
}
