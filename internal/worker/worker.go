// Package worker builds and runs the remote archiver command for one
// target (component C6): resolving the per-host worker path override,
// assembling the command contract from spec §4.4, checking liveness, and
// invoking the transport.
package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/transport"
)

// Verbose is the command contract's on/off flag, spelled per spec §4.4.
type Verbose string

const (
	VerboseOn  Verbose = "on"
	VerboseOff Verbose = "off"
)

// VerboseFor returns "off" for monthly runs (quieter) and "on" otherwise,
// per spec §4.4.
func VerboseFor(rule record.Rule) Verbose {
	if rule == record.RuleMonthly {
		return VerboseOff
	}
	return VerboseOn
}

// YesNo is the command contract's incReset flag spelling.
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

func yesNoFor(b bool) YesNo {
	if b {
		return Yes
	}
	return No
}

// Invocation is the fully-resolved command contract for one target,
// spec §4.4's option table.
type Invocation struct {
	User        string
	Host        string
	Device      string
	Label       string
	ListFileDir string
	Filesys     string
	CurrentRule record.Rule
	Buffer      string
	IncReset    YesNo
	Verbose     Verbose
}

// Build assembles the invocation for one target. It does not resolve the
// worker path; ResolveSpec does that. The buffer option is always "cat":
// the archive record has no field that configures the receiver-side reader.
func Build(a *record.Archive, target record.Target, rule record.Rule, lbl string, incReset bool) Invocation {
	return Invocation{
		User:        a.Manager.User,
		Host:        a.Manager.Host,
		Device:      a.Storage.RemoteDevice,
		Label:       lbl,
		ListFileDir: a.Storage.ListFileDir,
		Filesys:     target.Path,
		CurrentRule: rule,
		Buffer:      "cat",
		IncReset:    yesNoFor(incReset),
		Verbose:     VerboseFor(rule),
	}
}

// ResolveSpec returns the worker script directory and library path for
// the given target host: worker[host] overrides worker.default when
// present (spec §4.4 "override-then-fallback").
func ResolveSpec(a *record.Archive, host string) record.WorkerSpec {
	return a.Worker.Resolve(host)
}

// Argv renders the invocation as the argv vector the on-client archiver
// binary is invoked with: <scriptDir>/archiver --user=... --host=... ...
func Argv(scriptDir string, inv Invocation) transport.Command {
	return transport.Command{
		scriptDir + "/archiver",
		"--user=" + inv.User,
		"--host=" + inv.Host,
		"--device=" + inv.Device,
		"--label=" + inv.Label,
		"--listFileDir=" + inv.ListFileDir,
		"--filesys=" + inv.Filesys,
		"--currentRule=" + string(inv.CurrentRule),
		"--buffer=" + inv.Buffer,
		"--incReset=" + string(inv.IncReset),
		"--verbose=" + string(inv.Verbose),
	}
}

// StateFileSlug produces the "<pathSlug>-<rule>" part of a client-side
// incremental state file name, where pathSlug substitutes ":" for "/" in
// the filesystem path (spec §4.4). The archive-set and host prefix of the
// full name is not added here.
func StateFileSlug(path string, rule record.Rule) string {
	return strings.ReplaceAll(path, "/", ":") + "-" + string(rule)
}

// CheckLiveness runs the fixed three-probe ICMP pre-check (spec §4.4/§5).
// A false result means the target should be marked warn and skipped
// without invoking the worker.
func CheckLiveness(ctx context.Context, p transport.Pinger, host string) bool {
	return p.Alive(ctx, host)
}

// Invoke runs the archiver's argv vector on targetHost — the client whose
// filesystem is being archived, not the manager host named in the
// invocation's own --host option. The caller (Archive Executor) is
// responsible for the liveness pre-check before calling Invoke.
func Invoke(ctx context.Context, tr transport.Transport, scriptDir, targetUser, targetHost string, inv Invocation) ([]byte, error) {
	argv := Argv(scriptDir, inv)
	out, err := tr.Run(ctx, targetUser, targetHost, argv)
	if err != nil {
		return out, fmt.Errorf("worker invocation for %s: %w", targetHost, err)
	}
	return out, nil
}
