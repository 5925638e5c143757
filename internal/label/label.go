// Package label builds the length-bounded archive header label (component
// C5): "<archiveName>::<host>:<path-slug>-<rule>-<MM.DD.YYYY>".
package label

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rpienaar/vaultkeeper/internal/record"
)

// MaxLen is the default length bound from spec §4.3.
const MaxLen = 80

// Build produces the label for one target within archive.
func Build(archiveName string, target record.Target, rule record.Rule, date time.Time) string {
	full := build(archiveName, target.Host, target.Path, rule, date)
	if len(full) <= MaxLen {
		return full
	}
	return build(archiveName, target.Host, lastSegment(target.Path), rule, date)
}

func build(archiveName, host, pathSlug string, rule record.Rule, date time.Time) string {
	return fmt.Sprintf("%s::%s:%s-%s-%s", archiveName, host, pathSlug, rule, date.Format("01.02.2006"))
}

func lastSegment(p string) string {
	seg := path.Base(p)
	if seg == "." || seg == "/" {
		return p
	}
	return seg
}

// SanitizeForFilename replaces the characters that a raw label cannot carry
// through a filesystem path: ":" -> "_", "/" -> "." (spec §4.4/§6 S6).
func SanitizeForFilename(s string) string {
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "/", ".")
	return s
}

// TrimDateSuffix strips the trailing "-<MM.DD.YYYY>" this package's own
// Build appends, leaving "<archiveName>::<host>:<path-slug>-<rule>" for
// filename synthesis (spec §4.4/§6 S6), which reattaches its own
// weekday-based suffix instead of the date.
func TrimDateSuffix(lbl string, date time.Time) string {
	return strings.TrimSuffix(lbl, "-"+date.Format("01.02.2006"))
}
