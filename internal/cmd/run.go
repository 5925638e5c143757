package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpienaar/vaultkeeper/internal/config"
	"github.com/rpienaar/vaultkeeper/internal/executor"
	"github.com/rpienaar/vaultkeeper/internal/history"
	"github.com/rpienaar/vaultkeeper/internal/logging"
	"github.com/rpienaar/vaultkeeper/internal/notify"
	"github.com/rpienaar/vaultkeeper/internal/persistence"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/scheduler"
	"github.com/rpienaar/vaultkeeper/internal/sink"
	"github.com/rpienaar/vaultkeeper/internal/status"
	"github.com/rpienaar/vaultkeeper/internal/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler against every archive in the config directory",
	Long: `run discovers every archive record in the config directory, resolves
today's rule for each, and executes them in ascending scheduling priority
(daily before weekly before monthly), committing state on success and
diverting to an error document on failure.`,
	RunE: runRun,
}

var (
	runArchive string
	runRule    string
	runDay     string
	runDryRun  bool
)

func init() {
	runCmd.Flags().StringVar(&runArchive, "archive", "", "Run only the named archive")
	runCmd.Flags().StringVar(&runRule, "rule", "", "Force a rule instead of resolving from the schedule (monthly, weekly, daily, none)")
	runCmd.Flags().StringVar(&runDay, "day", "", "Force the day of week used for rule resolution (Sun, Mon, ...)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Resolve and log what would run without invoking any worker or mutating state")
}

func runRun(cmd *cobra.Command, args []string) error {
	rule := record.Rule(runRule)
	if rule != "" && !rule.Valid() {
		return status.New(status.KindCLIArgs, "--rule", fmt.Errorf("invalid rule %q", runRule))
	}
	var forceDay *time.Weekday
	if runDay != "" {
		wd, err := record.ParseWeekday(runDay)
		if err != nil {
			return status.New(status.KindCLIArgs, "--day", err)
		}
		forceDay = &wd
	}

	cfg, err := config.Load()
	if err != nil {
		return status.New(status.KindConfigLoad, "manager config", err)
	}
	dir, err := resolveConfigDir(cfg.ConfigDir)
	if err != nil {
		return status.New(status.KindDirNotFound, "config dir", err)
	}

	log, err := logging.New(verboseFlag)
	if err != nil {
		return status.New(status.KindConfigLoad, "logging", err)
	}
	defer log.Sync()

	ctx := context.Background()

	if cfg.LegacyImportEnabled {
		imported, importErrs := persistence.ImportLegacyArchives(dir)
		for _, name := range imported {
			fmt.Println(colorFor().Warn(name), "imported from legacy .object format")
		}
		for name, err := range importErrs {
			fmt.Println(colorFor().Warn(name), "legacy import failed:", err)
		}
	}

	var historyStore *history.Store
	if cfg.PostgresDSN != "" {
		hs, err := history.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return status.New(status.KindConfigLoad, "history store", err)
		}
		defer hs.Close()
		historyStore = hs
	}

	tr := &transport.SSHTransport{}
	pinger := &transport.SystemPinger{Timeout: cfg.PingTimeout}

	mailer := notify.Mailer(&notify.NoopMailer{})
	if cfg.SMTP.Host != "" {
		mailer = &notify.SMTPMailer{
			Host: cfg.SMTP.Host, Port: cfg.SMTP.Port,
			User: cfg.SMTP.User, Password: cfg.SMTP.Password, From: cfg.SMTP.From,
		}
	}
	notifier := &notify.Notifier{Transport: tr, Mailer: mailer}

	archives, _ := persistence.LoadAllRecords(dir)
	managerHost, managerUser := "", ""
	if len(archives) > 0 {
		managerHost, managerUser = archives[0].Manager.Host, archives[0].Manager.User
	}

	exec := &executor.Executor{
		Transport: tr,
		Pinger:    pinger,
		Sink:      &sink.Sink{Transport: tr, User: managerUser, Host: managerHost},
		Notifier:  notifier,
		Log:       log,
		LogDir:    func(a *record.Archive) string { return a.Storage.LogDir },
	}

	sched := &scheduler.Scheduler{Executor: exec, Notifier: notifier, History: historyStore, Log: log}

	report, err := sched.Run(ctx, scheduler.Options{
		ConfigDir:   dir,
		ArchiveName: runArchive,
		ForceRule:   rule,
		ForceDay:    forceDay,
		DryRun:      runDryRun,
	})
	if err != nil {
		return status.New(status.KindRunAggregate, "scheduler run", err)
	}

	printReport(report)

	if report.AnyFailed {
		return status.New(status.KindRunAggregate, "scheduler run", fmt.Errorf("%s", scheduler.Summary(report)))
	}
	return nil
}

func printReport(report *scheduler.RunReport) {
	c := colorFor()
	for _, r := range report.Results {
		label := fmt.Sprintf("%s (%s)", r.Archive.Meta.Name, r.Result.Rule)
		switch {
		case r.Err != nil || (r.Result != nil && !r.Result.Succeeded):
			fmt.Println(c.Fail(label), "failed")
		default:
			fmt.Println(c.OK(label), "ok")
		}
	}
	for name, err := range report.LoadErrors {
		fmt.Println(colorFor().Warn(name), "skipped:", err)
	}
	fmt.Println(scheduler.Summary(report))
}

// RunCommand returns the run command for registration.
func RunCommand() *cobra.Command {
	return runCmd
}
