package calendar

import (
	"strings"

	"github.com/theakshaypant/plan/internal/core"
)

// Filter selects which occurrences a view shows.
type Filter struct {
	// Active categories. A nil map means all are active.
	Categories map[core.Category]bool
	// Case-insensitive substring of title or description. Blank matches all.
	Query string
}

// AllCategories returns a set with every category active.
func AllCategories() map[core.Category]bool {
	m := make(map[core.Category]bool)
	for _, c := range core.Categories() {
		m[c] = true
	}
	return m
}

// CategorySet builds an active set from category keys. Unknown keys are
// skipped.
func CategorySet(keys []string) map[core.Category]bool {
	m := make(map[core.Category]bool)
	for _, k := range keys {
		if c, ok := core.LookupCategory(k); ok {
			m[c] = true
		}
	}
	return m
}

// Toggle flips c in the active set.
func (f *Filter) Toggle(c core.Category) {
	if f.Categories == nil {
		f.Categories = AllCategories()
	}
	f.Categories[c] = !f.Categories[c]
}

// Active reports whether c is shown.
func (f Filter) Active(c core.Category) bool {
	return f.Categories == nil || f.Categories[c]
}

// Keys returns the active category keys in display order.
func (f Filter) Keys() []string {
	var keys []string
	for _, c := range core.Categories() {
		if f.Active(c) {
			keys = append(keys, c.String())
		}
	}
	return keys
}

// Match reports whether ev passes the filter.
func (f Filter) Match(ev core.Event) bool {
	if !f.Active(ev.Category) {
		return false
	}
	if strings.TrimSpace(f.Query) == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(ev.Title), q) ||
		strings.Contains(strings.ToLower(ev.Description), q)
}

// Apply returns the occurrences that pass the filter, preserving order.
func (f Filter) Apply(occ []core.Occurrence) []core.Occurrence {
	out := make([]core.Occurrence, 0, len(occ))
	for _, o := range occ {
		if f.Match(o.Event) {
			out = append(out, o)
		}
	}
	return out
}
