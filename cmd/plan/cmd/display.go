package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/theakshaypant/plan/internal/core"
	"github.com/theakshaypant/plan/internal/util"
)

// displaySettings are the display.* keys, also accepted inside profiles.
var displaySettings = []string{
	"category",
	"time",
	"repeat",
	"link",
	"description",
	"status",
	"id",
	"in_progress",
}

// DisplayOptions controls how events are displayed
type DisplayOptions struct {
	Compact        bool   // Compact mode for list views
	ShowCategory   bool   // Show category label
	ShowTime       bool   // Show when/duration
	ShowRepeat     bool   // Show the repeat rule
	ShowLink       bool   // Show the first link in the description
	ShowDesc       bool   // Show description
	ShowStatus     bool   // Show completion
	ShowID         bool   // Show event ID
	ShowInProgress bool   // Show in-progress status
	Indent         string // Indentation prefix
}

// DefaultDisplayOptions returns options for list view
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		Compact:        true,
		ShowCategory:   true,
		ShowTime:       true,
		ShowRepeat:     true,
		ShowLink:       true,
		ShowDesc:       true,
		ShowStatus:     true,
		ShowID:         true,
		ShowInProgress: true,
		Indent:         "  ",
	}
}

// DetailedDisplayOptions returns options for detailed view (no in-progress since shown in header)
func DetailedDisplayOptions() DisplayOptions {
	opts := DefaultDisplayOptions()
	opts.Compact = false
	opts.ShowInProgress = false
	return opts
}

// DisplayOptionsFromConfig builds display options from viper config
func DisplayOptionsFromConfig(detailed bool) DisplayOptions {
	opts := DefaultDisplayOptions()
	if detailed {
		opts = DetailedDisplayOptions()
	}

	targets := map[string]*bool{
		"category":    &opts.ShowCategory,
		"time":        &opts.ShowTime,
		"repeat":      &opts.ShowRepeat,
		"link":        &opts.ShowLink,
		"description": &opts.ShowDesc,
		"status":      &opts.ShowStatus,
		"id":          &opts.ShowID,
		"in_progress": &opts.ShowInProgress,
	}
	for key, target := range targets {
		if viper.IsSet("display." + key) {
			*target = viper.GetBool("display." + key)
		}
	}

	return opts
}

// DisplayOccurrence prints an occurrence with the given options
func DisplayOccurrence(o core.Occurrence, now time.Time, opts DisplayOptions) {
	indent := opts.Indent
	info := o.Category.Info()

	title := o.Title
	if o.Completed {
		title = "✓ " + title
	}
	if opts.ShowCategory {
		fmt.Printf("%s%s %s\n", indent, info.Icon, title)
		fmt.Printf("%s🏷️  Category:    %s\n", indent, info.Name)
	} else {
		fmt.Printf("%s%s\n", indent, title)
	}

	if opts.ShowTime {
		fmt.Printf("%s🕐 When:        %s\n", indent, formatEventTime(o.Start, o.End))
		fmt.Printf("%s⏱️  Duration:    %s\n", indent, formatDurationCompact(o.Duration()))
	}

	if opts.ShowRepeat && o.Repeat.Frequency != core.FrequencyNone {
		repeat := o.Repeat.Describe()
		if !o.Editable() {
			repeat += fmt.Sprintf(" (occurrence %d)", o.Index+1)
		}
		fmt.Printf("%s↻  Repeats:     %s\n", indent, repeat)
	}

	if link := util.FirstURL(o.Description); opts.ShowLink && link != "" {
		fmt.Printf("%s🔗 Link:        %s\n", indent, util.MakeHyperlink(link, link))
	}

	if opts.ShowDesc && o.Description != "" {
		if opts.Compact {
			fmt.Printf("%s📝 Description: %s\n", indent, util.TruncateText(flatten(o.Description), 80))
		} else {
			fmt.Printf("%s📝 Description:\n", indent)
			for _, line := range wrapText(o.Description, 60) {
				fmt.Printf("%s   %s\n", indent, line)
			}
		}
	}

	if opts.ShowStatus && o.Completed {
		fmt.Printf("%s✅ Status:      done\n", indent)
	}

	if opts.ShowInProgress && o.InProgress(now) {
		remaining := o.End.Sub(now)
		fmt.Printf("%s🟢 IN PROGRESS (%s remaining)\n", indent, formatDurationCompact(remaining))
	}

	if opts.ShowID {
		if o.Editable() {
			fmt.Printf("%s🆔 ID:          %d\n", indent, o.ID)
		} else {
			fmt.Printf("%s🆔 Series ID:   %d\n", indent, o.SeriesID)
		}
	}
}

// wrapText wraps text to the given width
func wrapText(s string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			if len(line)+1+len(word) > width {
				lines = append(lines, line)
				line = word
			} else {
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatDurationCompact formats a duration in a compact way
func formatDurationCompact(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatEventTime(start, end time.Time) string {
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return fmt.Sprintf("%s, %s - %s", start.Format("Mon, Jan 2"), start.Format("15:04"), end.Format("15:04"))
	}
	return fmt.Sprintf("%s - %s", start.Format("Mon, Jan 2 15:04"), end.Format("Mon, Jan 2 15:04"))
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		return "NOW"
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}

	if len(parts) == 0 {
		return "less than a minute"
	}
	return strings.Join(parts, ", ")
}
