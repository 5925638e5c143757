package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpienaar/vaultkeeper/internal/config"
	"github.com/rpienaar/vaultkeeper/internal/persistence"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/rotate"
	"github.com/rpienaar/vaultkeeper/internal/status"
)

var showErrorDoc bool

var showCmd = &cobra.Command{
	Use:   "show <archive>",
	Short: "Show one archive record's configuration and last-run state",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showErrorDoc, "error", false, "Show the sibling error document instead of the canonical record")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return status.New(status.KindConfigLoad, "manager config", err)
	}
	dir, err := resolveConfigDir(cfg.ConfigDir)
	if err != nil {
		return status.New(status.KindDirNotFound, "config dir", err)
	}

	name := args[0]
	var a *record.Archive
	if showErrorDoc {
		a, err = persistence.LoadError(dir, name)
	} else {
		a, err = persistence.LoadRecord(dir, name)
	}
	if err != nil {
		return status.New(status.KindConfigLoad, name, err)
	}

	c := colorFor()
	fmt.Printf("Name:        %s\n", a.Meta.Name)
	if a.Meta.Description != "" {
		fmt.Printf("Description: %s\n", a.Meta.Description)
	}
	fmt.Printf("Manager:     %s@%s\n", a.Manager.User, a.Manager.Host)
	fmt.Printf("Targets:     %s\n", a.Targets.String())
	fmt.Printf("Device:      %s\n", a.Storage.RemoteDevice)
	fmt.Printf("Sets:        daily=%d weekly=%d monthly=%d\n", a.Storage.DailySets, a.Storage.WeeklySets, a.Storage.MonthlySets)
	fmt.Println()
	fmt.Printf("Current set: daily=%d weekly=%d monthly=%d\n",
		a.State.CurrentSetFor(record.RuleDaily), a.State.CurrentSetFor(record.RuleWeekly), a.State.CurrentSetFor(record.RuleMonthly))
	fmt.Printf("Next set:    daily=%d weekly=%d monthly=%d\n",
		rotate.PeekNext(a, record.RuleDaily), rotate.PeekNext(a, record.RuleWeekly), rotate.PeekNext(a, record.RuleMonthly))

	switch a.State.Status {
	case record.StatusOK:
		fmt.Println("Last status:", c.OK(string(a.State.Status)))
	case record.StatusFailed:
		fmt.Println("Last status:", c.Fail(string(a.State.Status)))
	default:
		fmt.Println("Last status:", string(record.StatusNone))
	}
	if a.State.ArchiveDate != nil {
		fmt.Println("Last run:   ", a.State.ArchiveDate.Format("2006-01-02"))
	}
	return nil
}

// ShowCommand returns the show command for registration.
func ShowCommand() *cobra.Command {
	return showCmd
}
