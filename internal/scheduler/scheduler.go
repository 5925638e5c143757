// Package scheduler implements the Scheduler/Dispatcher (component C9):
// discovering archives in a configuration directory, ordering them by
// priority, running each sequentially through the Archive Executor, and
// aggregating the run's outcome into an exit code.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rpienaar/vaultkeeper/internal/executor"
	"github.com/rpienaar/vaultkeeper/internal/history"
	"github.com/rpienaar/vaultkeeper/internal/logging"
	"github.com/rpienaar/vaultkeeper/internal/notify"
	"github.com/rpienaar/vaultkeeper/internal/persistence"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/rules"
	"github.com/rpienaar/vaultkeeper/internal/status"
)

// Options carries the manager's CLI flags that affect a run (spec §6).
type Options struct {
	ConfigDir   string
	ArchiveName string
	ForceRule   record.Rule
	ForceDay    *time.Weekday
	DryRun      bool
}

// ArchiveResult pairs one archive (the clone that was run) with its
// executor result and any error, for reporting.
type ArchiveResult struct {
	Archive *record.Archive
	Result  *executor.Result
	Err     error
}

// RunReport summarizes one full scheduler pass.
type RunReport struct {
	Results     []ArchiveResult
	LoadErrors  map[string]error
	AnyFailed   bool
}

// Scheduler discovers and sequentially runs archives.
type Scheduler struct {
	Executor *executor.Executor
	Notifier *notify.Notifier
	History  *history.Store
	Log      *logging.Logger
	Clock    func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

type entry struct {
	archive  *record.Archive
	priority int
	order    int
}

// priorityOf maps a rule to its scheduling priority, per spec §4.7:
// {none:0, daily:1, weekly:2, monthly:3}, ascending — higher-tier runs
// last so operator-attention tape ops finish the run.
func priorityOf(r record.Rule) int {
	return r.Priority()
}

// Run executes the full scheduler algorithm from spec §4.7.
func (s *Scheduler) Run(ctx context.Context, opts Options) (*RunReport, error) {
	archives, loadErrs := persistence.LoadAllRecords(opts.ConfigDir)
	report := &RunReport{LoadErrors: loadErrs}

	if opts.ArchiveName != "" {
		filtered := archives[:0]
		for _, a := range archives {
			if a.Meta.Name == opts.ArchiveName {
				filtered = append(filtered, a)
			}
		}
		archives = filtered
	}

	today := s.now()
	dow := today.Weekday()
	if opts.ForceDay != nil {
		dow = *opts.ForceDay
	}

	entries := make([]entry, len(archives))
	for i, a := range archives {
		r := rules.ResolveRule(a, dow, opts.ForceRule)
		entries[i] = entry{archive: a, priority: priorityOf(r), order: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})

	for _, en := range entries {
		a := en.archive
		clone := a.Clone()

		if s.Notifier != nil && !opts.DryRun {
			if err := s.Notifier.Preflight(ctx, clone); err != nil && s.Log != nil {
				s.Log.ForArchive("vaultkeeper", clone.Meta.Name).Warnw("preflight notification failed", "err", err)
			}
		}

		started := s.now()
		res, runErr := s.Executor.Run(ctx, clone, executor.Options{
			ForceRule: opts.ForceRule,
			ForceDay:  opts.ForceDay,
			DryRun:    opts.DryRun,
		})
		completed := s.now()

		// finalErr decides what gets reported for this archive; it is only
		// assigned after every branch below has had a chance to override it,
		// so a stateSave failure on the success path is never lost to a
		// struct already appended to report.Results.
		finalErr := runErr

		if runErr != nil || (res != nil && !res.Succeeded) {
			report.AnyFailed = true
			if !opts.DryRun {
				if saveErr := persistence.SaveError(opts.ConfigDir, clone); saveErr != nil && s.Log != nil {
					s.Log.ForArchive("vaultkeeper", clone.Meta.Name).Errorw("failed to write error document", "err", saveErr)
				}
			}
		} else if !opts.DryRun {
			if saveErr := persistence.SaveRecord(opts.ConfigDir, clone); saveErr != nil {
				report.AnyFailed = true
				finalErr = status.New(status.KindStateSave, clone.Meta.Name, saveErr)
			} else if s.Notifier != nil {
				if err := s.Notifier.NotifyTomorrow(clone, today); err != nil && s.Log != nil {
					s.Log.ForArchive("vaultkeeper", clone.Meta.Name).Warnw("notifyTomorrow failed", "err", err)
				}
			}
		}

		report.Results = append(report.Results, ArchiveResult{Archive: clone, Result: res, Err: finalErr})

		if !opts.DryRun && s.History != nil {
			s.recordHistory(ctx, clone, res, started, completed)
		}
	}

	if len(report.LoadErrors) > 0 && s.Log != nil {
		for name, err := range report.LoadErrors {
			s.Log.Warnw("skipping malformed archive document", "name", name, "err", err)
		}
	}

	return report, nil
}

// recordHistory upserts one run-history row for an archive that was
// actually executed (not a dry run). A failure to record is logged, never
// aggregated into report.AnyFailed: the audit trail is a domain-stack
// addition, not part of the run's own success criteria.
func (s *Scheduler) recordHistory(ctx context.Context, a *record.Archive, res *executor.Result, started, completed time.Time) {
	row := history.Run{
		Archive:     a.Meta.Name,
		Status:      a.State.Status,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if row.Status == "" {
		row.Status = record.StatusNone
	}
	if res != nil {
		row.Rule = res.Rule
		row.SetIndex = res.SetIndex
		row.TargetsTotal = len(res.Targets)
		for _, t := range res.Targets {
			if t.Status == "ok" {
				row.TargetsOK++
			}
		}
	}
	if err := s.History.RecordRun(ctx, row); err != nil && s.Log != nil {
		s.Log.ForArchive("vaultkeeper", a.Meta.Name).Warnw("failed to record run history", "err", err)
	}
}

// ExitCode aggregates a RunReport into the process exit code from spec §6.
func ExitCode(report *RunReport) status.ExitCode {
	if report.AnyFailed {
		return status.ExitRunFailed
	}
	return status.ExitOK
}

// Summary renders a one-line, human-readable recap of the run.
func Summary(report *RunReport) string {
	ok, failed := 0, 0
	for _, r := range report.Results {
		if r.Err == nil && r.Result != nil && r.Result.Succeeded {
			ok++
		} else {
			failed++
		}
	}
	return fmt.Sprintf("%d archive(s) ok, %d failed, %d skipped (load errors)", ok, failed, len(report.LoadErrors))
}
