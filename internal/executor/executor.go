// Package executor implements the Archive Executor (component C8): the
// per-archive algorithm from spec §4.6 that resolves today's rule,
// dispatches tape control, loops over targets invoking C3-C7, and commits
// or diverts the archive's state.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rpienaar/vaultkeeper/internal/label"
	"github.com/rpienaar/vaultkeeper/internal/logging"
	"github.com/rpienaar/vaultkeeper/internal/notify"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/results"
	"github.com/rpienaar/vaultkeeper/internal/rotate"
	"github.com/rpienaar/vaultkeeper/internal/rules"
	"github.com/rpienaar/vaultkeeper/internal/sink"
	"github.com/rpienaar/vaultkeeper/internal/status"
	"github.com/rpienaar/vaultkeeper/internal/transport"
	"github.com/rpienaar/vaultkeeper/internal/worker"
)

// nopLogger absorbs per-target log calls when the Executor was built
// without a Logger, so targetLog never needs a nil check at the call site.
var nopLogger = &logging.Logger{SugaredLogger: zap.NewNop().Sugar()}

// Clock lets tests substitute a fixed "today".
type Clock func() time.Time

// Options carries per-run overrides (the manager's --rule/--day flags and
// --dry-run).
type Options struct {
	ForceRule record.Rule
	ForceDay  *time.Weekday
	DryRun    bool
}

// Executor wires C3-C7's collaborators together to run one archive,
// mirroring the orchestrator shape of a struct holding injected
// collaborators with Initialize/Execute-style methods.
type Executor struct {
	Transport transport.Transport
	Pinger    transport.Pinger
	Sink      *sink.Sink
	Notifier  *notify.Notifier
	LogDir    func(a *record.Archive) string
	Clock     Clock
	Log        *logging.Logger
}

// TargetOutcome is the per-target result of one archive run.
type TargetOutcome struct {
	Target record.Target
	Status string // "ok", "warn", "fail"
	Reason string
}

// Result summarizes one archive run for the Scheduler's aggregation.
type Result struct {
	Archive  string
	Rule     record.Rule
	Targets  []TargetOutcome
	Succeeded bool
	SetIndex int
}

func (e *Executor) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// Run executes the full algorithm from spec §4.6 against a clone of the
// archive. The caller is responsible for persisting the clone afterward
// (success -> canonical document, failure -> error document).
func (e *Executor) Run(ctx context.Context, a *record.Archive, opts Options) (*Result, error) {
	today := e.now()
	dow := today.Weekday()
	if opts.ForceDay != nil {
		dow = *opts.ForceDay
	}

	rule := rules.ResolveRule(a, dow, opts.ForceRule)
	a.State.CurrentRule = rule

	res := &Result{Archive: a.Meta.Name, Rule: rule}

	switch rule {
	case record.RuleNone:
		res.Succeeded = true
		return res, nil
	case record.RuleMonthly:
		if !rules.CanDoMonthly(today.Day()) && opts.ForceRule == "" {
			res.Succeeded = true
			res.Rule = record.RuleNone
			return res, nil
		}
	}

	if opts.DryRun {
		return e.dryRun(a, rule, today)
	}

	incReset := rules.IncrementalReset(a, today)

	if err := e.Sink.Rewind(ctx, a.Storage.RemoteDevice); err != nil {
		e.logf("rewind failed: %v", err)
	}

	if e.Notifier != nil {
		if err := e.Notifier.OnArchiveStart(ctx, a); err != nil {
			e.logf("onArchiveStart notification failed: %v", err)
		}
	}

	allOK := true
	for _, target := range a.Targets {
		outcome := e.runTarget(ctx, a, target, rule, incReset, today)
		res.Targets = append(res.Targets, outcome)
		if outcome.Status != "ok" {
			allOK = false
		}
	}

	if allOK {
		if err := e.Sink.Offline(ctx, a.Storage.RemoteDevice); err != nil {
			e.logf("offline failed: %v", err)
		}
		idx := rotate.Advance(a, rule)
		res.SetIndex = idx
		a.State.ArchiveDate = &today
		a.State.Status = record.StatusOK
		res.Succeeded = true
	} else {
		a.State.Status = record.StatusFailed
		res.Succeeded = false
		if e.Notifier != nil {
			if err := e.Notifier.OnArchiveError(ctx, a, fmt.Sprintf("archive %s", a.Meta.Name)); err != nil {
				e.logf("onArchiveError notification failed: %v", err)
			}
		}
	}

	return res, nil
}

func (e *Executor) dryRun(a *record.Archive, rule record.Rule, today time.Time) (*Result, error) {
	res := &Result{Archive: a.Meta.Name, Rule: rule, Succeeded: true}
	for _, target := range a.Targets {
		lbl := label.Build(a.Meta.Name, target, rule, today)
		spec := worker.ResolveSpec(a, target.Host)
		e.logf("dry-run: would invoke %s/archiver for %s label=%s device=%s", spec.ScriptDir, target.Host, lbl, a.Storage.RemoteDevice)
		res.Targets = append(res.Targets, TargetOutcome{Target: target, Status: "ok", Reason: "dry-run"})
	}
	return res, nil
}

func (e *Executor) runTarget(ctx context.Context, a *record.Archive, target record.Target, rule record.Rule, incReset bool, today time.Time) TargetOutcome {
	if !worker.CheckLiveness(ctx, e.Pinger, target.Host) {
		e.targetLog(target.Host, rule).Warnw("target unreachable, skipping")
		return TargetOutcome{Target: target, Status: "warn", Reason: "host unreachable"}
	}

	lbl := label.Build(a.Meta.Name, target, rule, today)
	spec := worker.ResolveSpec(a, target.Host)
	inv := worker.Build(a, target, rule, lbl, incReset)

	out, err := worker.Invoke(ctx, e.Transport, spec.ScriptDir, a.Manager.User, target.Host, inv)
	if err != nil {
		a.State.Command = fmt.Sprintf("%s/archiver --filesys=%s", spec.ScriptDir, target.Path)
		e.targetLog(target.Host, rule).Errorw("worker invocation failed", "err", err)
		return TargetOutcome{Target: target, Status: "fail", Reason: err.Error()}
	}

	parsed := results.Parse(out)
	if parsed.Fatal {
		e.targetLog(target.Host, rule).Errorw("worker reported fatal result", "reason", parsed.FatalReason)
		return TargetOutcome{Target: target, Status: "fail", Reason: parsed.FatalReason}
	}

	e.writeTargetLogs(a, target, rule, lbl, today, parsed)
	e.targetLog(target.Host, rule).Infow("target completed")
	return TargetOutcome{Target: target, Status: "ok"}
}

// targetLog returns a no-op logger when e.Log is nil, so call sites never
// need their own guard before logging a per-target event.
func (e *Executor) targetLog(host string, rule record.Rule) *logging.Logger {
	if e.Log == nil {
		return nopLogger
	}
	return e.Log.ForTarget(host, string(rule))
}

func (e *Executor) writeTargetLogs(a *record.Archive, target record.Target, rule record.Rule, lbl string, today time.Time, parsed results.Parsed) {
	if e.LogDir == nil {
		return
	}
	dir := e.LogDir(a)
	setIdx := a.State.CurrentSetFor(rule)
	resultsPath, statusPath := results.LogPaths(dir, a.Meta.Name, string(rule), setIdx)
	if err := results.WriteResultsLog(resultsPath, parsed); err != nil {
		e.logf("write results log for %s/%s: %v", a.Meta.Name, target.Host, err)
	}
	if err := results.WriteStatusLog(statusPath, lbl, today, parsed); err != nil {
		e.logf("write status log for %s/%s: %v", a.Meta.Name, target.Host, err)
	}
}

func (e *Executor) logf(format string, args ...interface{}) {
	if e.Log != nil {
		e.Log.Warnf(format, args...)
	}
}

// ErrorContext renders the standardized failure block for an archive run
// that could not be committed (spec §7).
func ErrorContext(self, archiveName, message, detail string, at time.Time) string {
	return status.FormatBlock(self, fmt.Sprintf("archiving %s", archiveName), message, detail, at)
}
