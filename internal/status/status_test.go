package status

import (
	"errors"
	"testing"
	"time"
)

func TestExitCodeForTaxonomyKinds(t *testing.T) {
	tests := []struct {
		kind Kind
		want ExitCode
	}{
		{KindCLIArgs, ExitCLIArgs},
		{KindDirNotFound, ExitDirNotFound},
		{KindConfigLoad, ExitDocumentLoad},
		{KindStateSave, ExitStateSave},
		{KindRunAggregate, ExitRunFailed},
	}
	for _, tc := range tests {
		err := New(tc.kind, "ctx", errors.New("boom"))
		if got := ExitCodeFor(err); got != tc.want {
			t.Errorf("ExitCodeFor(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestExitCodeForNilIsOK(t *testing.T) {
	if got := ExitCodeFor(nil); got != ExitOK {
		t.Fatalf("ExitCodeFor(nil) = %d, want 0", got)
	}
}

func TestExitCodeForPlainErrorDefaultsToRunFailed(t *testing.T) {
	if got := ExitCodeFor(errors.New("unstructured")); got != ExitRunFailed {
		t.Fatalf("ExitCodeFor(plain error) = %d, want %d", got, ExitRunFailed)
	}
}

func TestErrorUnwraps(t *testing.T) {
	cause := errors.New("root cause")
	err := New(KindTransport, "running worker", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestSeverityPropagation(t *testing.T) {
	if KindPingHost.Severity() != SeverityWarnPerTarget {
		t.Fatalf("pingHost severity = %s, want warn-per-target", KindPingHost.Severity())
	}
	if KindRunAggregate.Severity() != SeverityFatalForRun {
		t.Fatalf("runAggregate severity = %s, want fatal-for-run", KindRunAggregate.Severity())
	}
}

func TestFormatBlock(t *testing.T) {
	at := time.Date(2026, time.August, 1, 3, 0, 0, 0, time.UTC)
	block := FormatBlock("vaultkeeper", "archiving nightly", "target unreachable", "host web1 did not answer ping", at)
	if !contains(block, "vaultkeeper ERROR") || !contains(block, "while archiving nightly") {
		t.Fatalf("FormatBlock() = %q", block)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
