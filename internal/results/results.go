// Package results parses the whitespace-token output of the on-client
// archiver and writes the two derived per-target logs (component C8/C11,
// spec §4.8).
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// KilledToken marks a worker that was killed mid-run; its presence is
// always fatal regardless of whether a bytes token also appears.
const KilledToken = "killed:"

const bytesToken = "bytes"

// Parsed is the outcome of scanning one target's raw output.
type Parsed struct {
	Tokens           []string
	TotalBytesWritten int64
	Killed           bool
	Fatal            bool
	FatalReason      string
}

// Parse scans raw for the literal token "bytes" and, two tokens later,
// the byte count (spec §4.8: totalBytesWritten = token(index_of("bytes")+2)).
// Absence of "bytes", or presence of "killed:", is fatal.
func Parse(raw []byte) Parsed {
	tokens := strings.Fields(string(raw))
	p := Parsed{Tokens: tokens}

	for _, tok := range tokens {
		if strings.HasPrefix(tok, KilledToken) {
			p.Killed = true
			p.Fatal = true
			p.FatalReason = "worker killed"
			return p
		}
	}

	idx := indexOf(tokens, bytesToken)
	if idx < 0 || idx+2 >= len(tokens) {
		p.Fatal = true
		p.FatalReason = "no bytes token in worker output"
		return p
	}
	n, err := strconv.ParseInt(tokens[idx+2], 10, 64)
	if err != nil {
		p.Fatal = true
		p.FatalReason = fmt.Sprintf("bytes token not followed by a count: %v", err)
		return p
	}
	p.TotalBytesWritten = n
	return p
}

func indexOf(tokens []string, want string) int {
	for i, t := range tokens {
		if t == want {
			return i
		}
	}
	return -1
}

// LogPaths returns the two derived log paths for one target-run, per
// spec §4.8's naming: "<name>.<rule>.<setIndex>.results.log"/".status.log".
func LogPaths(logDir, archiveName, rule string, setIndex int) (resultsPath, statusPath string) {
	base := fmt.Sprintf("%s.%s.%d", archiveName, rule, setIndex)
	return filepath.Join(logDir, base+".results.log"), filepath.Join(logDir, base+".status.log")
}

// WriteResultsLog writes the raw tokens, one per line, to resultsPath.
func WriteResultsLog(resultsPath string, p Parsed) error {
	if err := os.MkdirAll(filepath.Dir(resultsPath), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(resultsPath), err)
	}
	content := strings.Join(p.Tokens, "\n")
	if err := os.WriteFile(resultsPath, []byte(content+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", resultsPath, err)
	}
	return nil
}

// WriteStatusLog writes a short summary: label, completion timestamp, and
// totalBytesWritten.
func WriteStatusLog(statusPath, lbl string, completed time.Time, p Parsed) error {
	if err := os.MkdirAll(filepath.Dir(statusPath), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(statusPath), err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "label: %s\n", lbl)
	fmt.Fprintf(&b, "completed: %s\n", completed.Format(time.RFC3339))
	fmt.Fprintf(&b, "totalBytesWritten: %d\n", p.TotalBytesWritten)
	if p.Fatal {
		fmt.Fprintf(&b, "fatal: %s\n", p.FatalReason)
	}
	if err := os.WriteFile(statusPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", statusPath, err)
	}
	return nil
}
