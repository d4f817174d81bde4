package core

import (
	"fmt"
	"strings"
)

// Category is the closed set of event categories.
type Category int

const (
	CategoryWork Category = iota
	CategoryPersonal
	CategoryFitness
	CategoryMeeting
	CategoryEducation
	CategoryOther

	categoryCount
)

// CategoryInfo is the display metadata for a category.
type CategoryInfo struct {
	// Persisted key (e.g. "work")
	Key  string
	Name string
	Icon string
	// Hex color used by the TUI
	Color string
}

var categoryInfo = [categoryCount]CategoryInfo{
	CategoryWork:      {Key: "work", Name: "Work", Icon: "💼", Color: "#3B82F6"},
	CategoryPersonal:  {Key: "personal", Name: "Personal", Icon: "🏡", Color: "#10B981"},
	CategoryFitness:   {Key: "fitness", Name: "Fitness", Icon: "🏃", Color: "#F97316"},
	CategoryMeeting:   {Key: "meeting", Name: "Meeting", Icon: "👥", Color: "#8B5CF6"},
	CategoryEducation: {Key: "education", Name: "Education", Icon: "📚", Color: "#EAB308"},
	CategoryOther:     {Key: "other", Name: "Other", Icon: "📌", Color: "#64748B"},
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// Info returns the display metadata for c. Out-of-range values resolve to other.
func (c Category) Info() CategoryInfo {
	if c < 0 || c >= categoryCount {
		return categoryInfo[CategoryOther]
	}
	return categoryInfo[c]
}

func (c Category) String() string { return c.Info().Key }

// ParseCategory maps a key or display name to a category, falling back to
// CategoryOther for anything unknown.
func ParseCategory(s string) Category {
	c, ok := LookupCategory(s)
	if !ok {
		return CategoryOther
	}
	return c
}

// LookupCategory is like ParseCategory but reports whether s was recognised.
func LookupCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range categoryInfo {
		if s == info.Key || s == strings.ToLower(info.Name) {
			return Category(i), true
		}
	}
	return CategoryOther, false
}

func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || c >= categoryCount {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText never fails: unknown keys become CategoryOther.
func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
