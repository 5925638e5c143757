// Package rotate implements the set-rotation state machine (component C4):
// a modular counter over each rule's fixed pool of destination sets.
package rotate

import "github.com/rpienaar/vaultkeeper/internal/record"

// Advance moves a's currentSet[rule] to the next slot in the pool and
// returns the new index. Call exactly once per successful archive
// completion, never per target. If totalSets(rule) is 0 the index is
// always 0 — the rule has no rotating pool to advance.
func Advance(a *record.Archive, rule record.Rule) int {
	total := a.Storage.TotalSets(rule)
	if total <= 0 {
		return 0
	}
	if a.State.CurrentSet == nil {
		a.State.CurrentSet = make(map[record.Rule]int)
	}
	next := (a.State.CurrentSet[rule] + 1) % total
	a.State.CurrentSet[rule] = next
	return next
}

// PeekNext previews the index Advance would produce, without mutating the
// record. Used by the Notifier to advertise tomorrow's volume.
func PeekNext(a *record.Archive, rule record.Rule) int {
	total := a.Storage.TotalSets(rule)
	if total <= 0 {
		return 0
	}
	return (a.State.CurrentSetFor(rule) + 1) % total
}
