package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/theakshaypant/plan/internal/core"
)

var toRRuleFreq = map[core.Frequency]rrule.Frequency{
	core.FrequencyDaily:   rrule.DAILY,
	core.FrequencyCustom:  rrule.DAILY,
	core.FrequencyWeekly:  rrule.WEEKLY,
	core.FrequencyMonthly: rrule.MONTHLY,
	core.FrequencyYearly:  rrule.YEARLY,
}

// FromRRule maps an RFC 5545 RRULE (with or without the "RRULE:" prefix) onto
// a repeat rule for an event starting at start.
//
// COUNT rules are converted to the start of their last occurrence. Rules
// with neither COUNT nor UNTIL are bounded by horizon. BYxxx parts have no
// local equivalent and are dropped, keeping FREQ and INTERVAL.
func FromRRule(s string, start, horizon time.Time) (core.RepeatRule, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := rrule.StrToROptionInLocation(s, start.Location())
	if err != nil {
		return core.RepeatRule{}, fmt.Errorf("%w: %v", core.ErrInvalidRepeat, err)
	}

	var freq core.Frequency
	switch opt.Freq {
	case rrule.DAILY:
		freq = core.FrequencyDaily
	case rrule.WEEKLY:
		freq = core.FrequencyWeekly
	case rrule.MONTHLY:
		freq = core.FrequencyMonthly
	case rrule.YEARLY:
		freq = core.FrequencyYearly
	default:
		return core.RepeatRule{}, fmt.Errorf("%w: unsupported frequency %v", core.ErrInvalidRepeat, opt.Freq)
	}

	rule := core.RepeatRule{Frequency: freq, Interval: opt.Interval}
	if rule.Interval <= 0 {
		rule.Interval = 1
	}

	switch {
	case !opt.Until.IsZero():
		rule.Until = opt.Until.In(start.Location())
	case opt.Count > 0:
		opt.Dtstart = start
		r, err := rrule.NewRRule(*opt)
		if err != nil {
			return core.RepeatRule{}, fmt.Errorf("%w: %v", core.ErrInvalidRepeat, err)
		}
		if all := r.All(); len(all) > 0 {
			rule.Until = all[len(all)-1].In(start.Location())
		} else {
			rule.Until = start
		}
	default:
		rule.Until = horizon
	}
	return rule, nil
}

// ToRRule renders r as an RRULE value (without the "RRULE:" prefix).
// Rules that do not repeat render as "".
func ToRRule(r core.RepeatRule) string {
	freq, ok := toRRuleFreq[r.Frequency]
	if !ok {
		return ""
	}
	opt := rrule.ROption{
		Freq:     freq,
		Interval: r.Step(),
	}
	if !r.Until.IsZero() {
		opt.Until = r.Until.UTC()
	}
	return opt.RRuleString()
}
