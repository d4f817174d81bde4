// Package recurrence expands repeating events into concrete occurrences.
//
// All arithmetic is local wall-clock: a daily event at 09:00 stays at 09:00
// across DST changes, and month steps clamp to the last valid day instead of
// rolling into the following month.
package recurrence

import (
	"iter"
	"slices"
	"time"

	"github.com/theakshaypant/plan/internal/core"
)

// MaxOccurrences caps how many occurrences ExpandAll walks per series,
// counted from the window start.
const MaxOccurrences = 5000

// IDs hands out synthesized occurrence identities.
type IDs struct {
	next int64
}

// NewIDs returns a counter whose first value is seed.
func NewIDs(seed int64) *IDs {
	return &IDs{next: seed}
}

// Next returns a fresh identity.
func (g *IDs) Next() int64 {
	id := g.next
	g.next++
	return id
}

// AddMonths adds n calendar months to t. When the target month is shorter
// than t's day of month the result lands on that month's last day
// (Jan 31 + 1 month = Feb 28, or Feb 29 in a leap year).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Step returns the start of the k-th occurrence (k = 0 is start itself).
// Each occurrence is computed from the base start, so clamped months do not
// drift: a monthly series from Jan 31 yields Feb 28, Mar 31, Apr 30.
func Step(start time.Time, freq core.Frequency, interval, k int) time.Time {
	if interval <= 0 {
		interval = 1
	}
	n := k * interval

	switch freq {
	case core.FrequencyDaily, core.FrequencyCustom:
		return start.AddDate(0, 0, n)
	case core.FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case core.FrequencyMonthly:
		return AddMonths(start, n)
	case core.FrequencyYearly:
		return AddMonths(start, 12*n)
	default:
		return start
	}
}

// Occurrences lazily yields base followed by every repetition whose start is
// on or before the rule's until. The first value is base itself with its
// identity intact; later values draw identities from ids.
func Occurrences(base core.Event, ids *IDs) iter.Seq[core.Occurrence] {
	return occurrences(base, ids, 1)
}

// occurrences yields base, then the repetitions from index first onwards.
func occurrences(base core.Event, ids *IDs, first int) iter.Seq[core.Occurrence] {
	return func(yield func(core.Occurrence) bool) {
		if !yield(core.Single(base)) {
			return
		}

		rule := base.Repeat
		if !rule.Active() {
			return
		}
		if ids == nil {
			ids = NewIDs(time.Now().UnixMilli())
		}

		duration := base.Duration()
		first = max(first, 1)
		prev := Step(base.Start, rule.Frequency, rule.Step(), first-1)
		for k := first; ; k++ {
			start := Step(base.Start, rule.Frequency, rule.Step(), k)
			if start.After(rule.Until) || !start.After(prev) {
				return
			}
			prev = start

			occ := core.Occurrence{Event: base, SeriesID: base.ID, Index: k}
			occ.ID = ids.Next()
			occ.Start = start
			occ.End = start.Add(duration)
			occ.Completed = false
			if !yield(occ) {
				return
			}
		}
	}
}

// Expand collects Occurrences into a slice.
func Expand(base core.Event, ids *IDs) []core.Occurrence {
	return slices.Collect(Occurrences(base, ids))
}

// Window bounds an expansion. A zero From or To leaves that side open.
type Window struct {
	From time.Time
	To   time.Time
}

// Day returns the window covering the local day containing t.
func Day(t time.Time) Window {
	y, m, d := t.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return Window{From: from, To: from.AddDate(0, 0, 1)}
}

// Days returns the window of n days starting at the local day containing t.
func Days(t time.Time, n int) Window {
	w := Day(t)
	w.To = w.From.AddDate(0, 0, n)
	return w
}

func (w Window) overlaps(o core.Occurrence) bool {
	if !w.To.IsZero() && !o.Start.Before(w.To) {
		return false
	}
	if !w.From.IsZero() && !o.End.After(w.From) && o.Start.Before(w.From) {
		return false
	}
	return true
}

// Expansion is the result of expanding a store snapshot.
type Expansion struct {
	// Sorted by start
	Occurrences []core.Occurrence
	// IDs of series that hit MaxOccurrences before reaching the window end
	Truncated []int64
}

// ExpandAll expands every event and keeps the occurrences overlapping w.
// Synthesized identities start above both now (in Unix milliseconds) and the
// largest stored ID, so they never collide with canonical events.
func ExpandAll(events []core.Event, w Window, now time.Time) Expansion {
	ids := NewIDs(seed(events, now))

	var out Expansion
	for _, ev := range events {
		n := 0
		for occ := range occurrences(ev, ids, firstIndex(ev, w.From)) {
			if !w.To.IsZero() && !occ.Start.Before(w.To) {
				break
			}
			if n++; n > MaxOccurrences {
				out.Truncated = append(out.Truncated, ev.ID)
				break
			}
			if w.overlaps(occ) {
				out.Occurrences = append(out.Occurrences, occ)
			}
		}
	}

	slices.SortStableFunc(out.Occurrences, func(a, b core.Occurrence) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// longestStep bounds one frequency unit from above, DST hour included.
func longestStep(freq core.Frequency) time.Duration {
	const day = 24 * time.Hour
	switch freq {
	case core.FrequencyDaily, core.FrequencyCustom:
		return day + time.Hour
	case core.FrequencyWeekly:
		return 7*day + time.Hour
	case core.FrequencyMonthly:
		return 31*day + time.Hour
	case core.FrequencyYearly:
		return 366*day + time.Hour
	default:
		return 0
	}
}

// firstIndex returns the index of the first repetition of base that ends
// after from. It starts from an estimate that cannot overshoot and walks
// forward, so a series with a long history is not cut off by MaxOccurrences.
func firstIndex(base core.Event, from time.Time) int {
	rule := base.Repeat
	span := longestStep(rule.Frequency) * time.Duration(rule.Step())
	if from.IsZero() || !rule.Active() || span <= 0 {
		return 1
	}

	duration := base.Duration()
	k := int((from.Sub(base.Start)-duration)/span) - 1
	if k < 1 {
		return 1
	}
	for {
		start := Step(base.Start, rule.Frequency, rule.Step(), k)
		if start.After(rule.Until) || start.Add(duration).After(from) || !start.Before(from) {
			return k
		}
		k++
	}
}

func seed(events []core.Event, now time.Time) int64 {
	s := now.UnixMilli()
	for _, ev := range events {
		if ev.ID >= s {
			s = ev.ID + 1
		}
	}
	return s
}
