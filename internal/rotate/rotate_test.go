package rotate

import (
	"testing"

	"github.com/rpienaar/vaultkeeper/internal/record"
)

func archiveWithDailySet(n, total int) *record.Archive {
	return &record.Archive{
		Storage: record.Storage{DailySets: total},
		State:   record.State{CurrentSet: map[record.Rule]int{record.RuleDaily: n}},
	}
}

func TestAdvanceFromUnset(t *testing.T) {
	a := &record.Archive{Storage: record.Storage{DailySets: 3}}
	got := Advance(a, record.RuleDaily)
	if got != 1 {
		t.Fatalf("Advance from unset = %d, want 1 (S2: 0->1)", got)
	}
}

func TestAdvanceRollover(t *testing.T) {
	a := archiveWithDailySet(2, 3)
	got := Advance(a, record.RuleDaily)
	if got != 0 {
		t.Fatalf("Advance rollover = %d, want 0 (S3)", got)
	}
}

func TestAdvanceSequence(t *testing.T) {
	a := archiveWithDailySet(1, 3)
	got := Advance(a, record.RuleDaily)
	if got != 2 {
		t.Fatalf("Advance from 1 = %d, want 2 (S2)", got)
	}
}

func TestAdvanceNoPool(t *testing.T) {
	a := &record.Archive{Storage: record.Storage{MonthlySets: 0}}
	if got := Advance(a, record.RuleMonthly); got != 0 {
		t.Fatalf("Advance with no pool = %d, want 0", got)
	}
}

func TestPeekNextDoesNotMutate(t *testing.T) {
	a := archiveWithDailySet(1, 3)
	peek := PeekNext(a, record.RuleDaily)
	if peek != 2 {
		t.Fatalf("PeekNext = %d, want 2", peek)
	}
	if a.State.CurrentSet[record.RuleDaily] != 1 {
		t.Fatal("PeekNext must not mutate currentSet")
	}
}

func TestAdvanceCycleProperty(t *testing.T) {
	a := &record.Archive{Storage: record.Storage{WeeklySets: 4}}
	for i := 1; i <= 9; i++ {
		Advance(a, record.RuleWeekly)
	}
	// After 9 consecutive successes from 0, expect 9 mod 4 = 1.
	if got := a.State.CurrentSet[record.RuleWeekly]; got != 9%4 {
		t.Fatalf("currentSet after 9 advances = %d, want %d", got, 9%4)
	}
}
