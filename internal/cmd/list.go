package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpienaar/vaultkeeper/internal/config"
	"github.com/rpienaar/vaultkeeper/internal/persistence"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/rules"
	"github.com/rpienaar/vaultkeeper/internal/status"
	"github.com/rpienaar/vaultkeeper/internal/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every archive record in the config directory",
	RunE:  runList,
}

var (
	listName   string
	listStatus string
)

func init() {
	listCmd.Flags().StringVar(&listName, "name", "", "List only the named archive")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by last-run status: ok, failed, none")
}

// ListCommand returns the list command for registration.
func ListCommand() *cobra.Command {
	return listCmd
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return status.New(status.KindConfigLoad, "manager config", err)
	}
	dir, err := resolveConfigDir(cfg.ConfigDir)
	if err != nil {
		return status.New(status.KindDirNotFound, "config dir", err)
	}

	archives, loadErrs := persistence.LoadAllRecords(dir)
	if listName != "" {
		a, ok := utils.FindByName(archives, listName)
		if !ok {
			return status.New(status.KindCLIArgs, "--name", fmt.Errorf("archive %q not found", listName))
		}
		archives = []*record.Archive{a}
	}
	if listStatus != "" {
		var filtered []*record.Archive
		for _, a := range archives {
			if statusOrNone(a) == listStatus {
				filtered = append(filtered, a)
			}
		}
		archives = filtered
	}
	if len(archives) == 0 {
		fmt.Println("No archive records found.")
	} else {
		today := time.Now().Weekday()
		tp := utils.NewTablePrinter()
		tp.Header("NAME", "TODAY'S RULE", "STATUS", "TARGETS")
		for _, a := range archives {
			rule := rules.ResolveRule(a, today, "")
			tp.Row(a.Meta.Name, string(rule), statusOrNone(a), fmt.Sprintf("%d", len(a.Targets)))
		}
		tp.Flush()
	}

	for name, err := range loadErrs {
		fmt.Println(colorFor().Warn(name), "skipped:", err)
	}
	return nil
}

func statusOrNone(a *record.Archive) string {
	if a.State.Status == "" {
		return string(record.StatusNone)
	}
	return string(a.State.Status)
}
