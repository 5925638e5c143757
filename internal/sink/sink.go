// Package sink drives the receiving end on the manager host (component
// C7): deciding whether the destination is a block device or a plain
// directory, synthesising a filename for the latter, and issuing tape
// control verbs that are no-ops off a real device.
package sink

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpienaar/vaultkeeper/internal/label"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/transport"
)

// IsDevice reports whether dest is a block-device path, per spec §4.4.
// Requires the "/dev/" separator rather than a bare "/dev" prefix, so a
// directory named e.g. "/devfoo" is never mistaken for a device.
func IsDevice(dest string) bool {
	return strings.HasPrefix(dest, "/dev/")
}

// SynthesizeFilename builds the receiver-side filename for a non-device
// destination: "<labelSanitized>.<weekdayShort>.tgz", where labelSanitized
// is the label (minus its trailing date) with ":" -> "_" and "/" -> "."
// (spec §4.4 device rule, S6).
func SynthesizeFilename(lbl string, date time.Time) string {
	base := label.TrimDateSuffix(lbl, date)
	sanitized := label.SanitizeForFilename(base)
	return fmt.Sprintf("%s.%s.tgz", sanitized, record.WeekdayName(date.Weekday()))
}

// EffectivePath returns the path the receiver should write to: dest
// itself for a device, or dest joined with the synthesised filename for
// a directory.
func EffectivePath(dest, lbl string, date time.Time) string {
	if IsDevice(dest) {
		return dest
	}
	return filepath.Join(dest, SynthesizeFilename(lbl, date))
}

// Sink drives tape control verbs and reports the effective write target.
type Sink struct {
	Transport transport.Transport
	User      string
	Host      string
}

// Rewind issues the `rewind` control verb before each target stream
// begins. Off a real device it is a no-op implemented as `echo`, so it
// still returns a status without touching anything (spec §4.5).
func (s *Sink) Rewind(ctx context.Context, dest string) error {
	return s.verb(ctx, dest, "rewind")
}

// Offline issues the `offline` control verb after the last target of an
// archive succeeds, only meaningful for a real device.
func (s *Sink) Offline(ctx context.Context, dest string) error {
	return s.verb(ctx, dest, "offline")
}

func (s *Sink) verb(ctx context.Context, dest, verb string) error {
	var cmd transport.Command
	if IsDevice(dest) {
		cmd = transport.Command{"mt", "-f", dest, verb}
	} else {
		cmd = transport.Command{"echo", verb, dest}
	}
	if _, err := s.Transport.Run(ctx, s.User, s.Host, cmd); err != nil {
		return fmt.Errorf("sink %s on %s: %w", verb, dest, err)
	}
	return nil
}

// ReceiverCommand describes the receiver-side pipeline that consumes the
// stream and writes to EffectivePath, using buffer (default "cat") as the
// reader (spec §4.5 sink contract: one stream per target, default cat).
// This is descriptive only: nothing in this module calls it, and it is
// never executed by this package, since the redirection it names is shell
// syntax, not an argv vector.
func ReceiverCommand(buffer, dest, lbl string, date time.Time) string {
	if buffer == "" {
		buffer = "cat"
	}
	return fmt.Sprintf("%s > %s", buffer, EffectivePath(dest, lbl, date))
}
