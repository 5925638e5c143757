// Package rules implements the rule-resolution engine (component C3):
// deciding which incremental tier runs today and whether the archive needs
// a fresh base snapshot.
package rules

import (
	"time"

	"github.com/rpienaar/vaultkeeper/internal/record"
)

// ResolveRule returns the rule to execute for dow. A non-empty force
// overrides the configured schedule entirely (the manager's --rule flag).
func ResolveRule(a *record.Archive, dow time.Weekday, force record.Rule) record.Rule {
	if force != "" {
		return force
	}
	if r, ok := a.Schedule[dow]; ok {
		return r
	}
	return record.RuleNone
}

// CanDoMonthly is true only in the first week of the month: monthly runs
// are meant to land early so the tape/volume swap happens with slack
// before the rest of the month's incrementals depend on it.
func CanDoMonthly(dayOfMonth int) bool {
	return dayOfMonth >= 1 && dayOfMonth <= 7
}

// IncrementalReset reports whether the archive needs a fresh base even
// though no monthly tier ran: archives with no monthly rule at all still
// need a month-boundary reset, since nothing else seeds one for them.
func IncrementalReset(a *record.Archive, date time.Time) bool {
	if a.Schedule.HasMonthly() {
		return false
	}
	if a.State.ArchiveDate == nil {
		return true
	}
	return a.State.ArchiveDate.Month() != date.Month() || a.State.ArchiveDate.Year() != date.Year()
}

// TierBase returns the incremental tier that rule r chains from, per the
// monthly -> weekly -> daily reference chain in spec §4.1. RuleMonthly and
// RuleNone have no base.
func TierBase(r record.Rule) (record.Rule, bool) {
	switch r {
	case record.RuleWeekly:
		return record.RuleMonthly, true
	case record.RuleDaily:
		return record.RuleWeekly, true
	default:
		return "", false
	}
}
