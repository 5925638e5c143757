package rules

import (
	"testing"
	"time"

	"github.com/rpienaar/vaultkeeper/internal/record"
)

func TestCanDoMonthly(t *testing.T) {
	tests := []struct {
		day  int
		want bool
	}{
		{1, true}, {7, true}, {8, false}, {14, false}, {31, false},
	}
	for _, tc := range tests {
		if got := CanDoMonthly(tc.day); got != tc.want {
			t.Errorf("CanDoMonthly(%d) = %v, want %v", tc.day, got, tc.want)
		}
	}
}

func TestResolveRule(t *testing.T) {
	a := &record.Archive{Schedule: record.Schedule{time.Wednesday: record.RuleDaily}}

	if got := ResolveRule(a, time.Wednesday, ""); got != record.RuleDaily {
		t.Fatalf("ResolveRule unforced = %q, want daily", got)
	}
	if got := ResolveRule(a, time.Thursday, ""); got != record.RuleNone {
		t.Fatalf("ResolveRule for unscheduled day = %q, want none", got)
	}
	if got := ResolveRule(a, time.Wednesday, record.RuleMonthly); got != record.RuleMonthly {
		t.Fatalf("ResolveRule forced = %q, want monthly", got)
	}
}

func TestIncrementalReset(t *testing.T) {
	noMonthly := &record.Archive{Schedule: record.Schedule{time.Monday: record.RuleDaily}}
	withMonthly := &record.Archive{Schedule: record.Schedule{time.Sunday: record.RuleMonthly}}

	aug := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

	// S5: no monthly tier, archiveDate in a prior month -> reset true.
	july := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)
	noMonthly.State.ArchiveDate = &july
	if !IncrementalReset(noMonthly, aug) {
		t.Fatal("expected reset across month boundary with no monthly tier")
	}

	// Same month -> no reset.
	sameMonth := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	noMonthly.State.ArchiveDate = &sameMonth
	if IncrementalReset(noMonthly, aug) {
		t.Fatal("expected no reset within the same month")
	}

	// Absent archiveDate -> reset true.
	noMonthly.State.ArchiveDate = nil
	if !IncrementalReset(noMonthly, aug) {
		t.Fatal("expected reset when archiveDate is absent")
	}

	// Archive with a monthly tier never needs this reset.
	withMonthly.State.ArchiveDate = &july
	if IncrementalReset(withMonthly, aug) {
		t.Fatal("archives with a monthly tier should never report incremental reset")
	}
}

func TestTierBase(t *testing.T) {
	if base, ok := TierBase(record.RuleDaily); !ok || base != record.RuleWeekly {
		t.Fatalf("TierBase(daily) = %q, %v, want weekly, true", base, ok)
	}
	if base, ok := TierBase(record.RuleWeekly); !ok || base != record.RuleMonthly {
		t.Fatalf("TierBase(weekly) = %q, %v, want monthly, true", base, ok)
	}
	if _, ok := TierBase(record.RuleMonthly); ok {
		t.Fatal("TierBase(monthly) should have no base")
	}
	if _, ok := TierBase(record.RuleNone); ok {
		t.Fatal("TierBase(none) should have no base")
	}
}
