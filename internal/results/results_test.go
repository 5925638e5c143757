package results

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSuccess(t *testing.T) {
	p := Parse([]byte("archiver: starting bytes 0 12345 done"))
	if p.Fatal {
		t.Fatalf("unexpected fatal: %s", p.FatalReason)
	}
	if p.TotalBytesWritten != 12345 {
		t.Fatalf("TotalBytesWritten = %d, want 12345", p.TotalBytesWritten)
	}
}

func TestParseMissingBytesIsFatal(t *testing.T) {
	p := Parse([]byte("archiver: something went wrong"))
	if !p.Fatal {
		t.Fatal("expected fatal when bytes token is absent")
	}
}

func TestParseKilledIsFatal(t *testing.T) {
	p := Parse([]byte("archiver: starting bytes 0 12345 killed: signal 9"))
	if !p.Fatal || !p.Killed {
		t.Fatal("expected fatal+killed when killed: token present")
	}
}

func TestParseTruncatedBytesTokenIsFatal(t *testing.T) {
	p := Parse([]byte("archiver: bytes written"))
	if !p.Fatal {
		t.Fatal("expected fatal when bytes token has no trailing count")
	}
}

func TestLogPaths(t *testing.T) {
	resultsPath, statusPath := LogPaths("/var/log/vk", "nightly", "daily", 2)
	if resultsPath != filepath.Join("/var/log/vk", "nightly.daily.2.results.log") {
		t.Fatalf("resultsPath = %q", resultsPath)
	}
	if statusPath != filepath.Join("/var/log/vk", "nightly.daily.2.status.log") {
		t.Fatalf("statusPath = %q", statusPath)
	}
}

func TestWriteLogs(t *testing.T) {
	dir := t.TempDir()
	p := Parse([]byte("bytes 0 12345"))
	resultsPath, statusPath := LogPaths(dir, "nightly", "daily", 2)
	if err := WriteResultsLog(resultsPath, p); err != nil {
		t.Fatalf("WriteResultsLog: %v", err)
	}
	if err := WriteStatusLog(statusPath, "nightly::h1:/etc-daily-09.14.2025", time.Now(), p); err != nil {
		t.Fatalf("WriteStatusLog: %v", err)
	}
	if _, err := os.Stat(resultsPath); err != nil {
		t.Fatalf("results log missing: %v", err)
	}
	data, err := os.ReadFile(statusPath)
	if err != nil {
		t.Fatalf("status log missing: %v", err)
	}
	if !contains(string(data), "totalBytesWritten: 12345") {
		t.Fatalf("status log missing byte count: %s", data)
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
