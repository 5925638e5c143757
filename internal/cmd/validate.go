package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpienaar/vaultkeeper/internal/config"
	"github.com/rpienaar/vaultkeeper/internal/persistence"
	"github.com/rpienaar/vaultkeeper/internal/record"
	"github.com/rpienaar/vaultkeeper/internal/status"
)

var validateCmd = &cobra.Command{
	Use:   "validate [archive]",
	Short: "Validate archive records in the config directory",
	Long: `Without an argument, validate checks every archive document in the
config directory: YAML parses, the archive name matches its filename, no
archive exists in both the canonical and legacy .object format, and the
record satisfies the invariants from the archive schema.

With an archive name, validate checks only that one record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return status.New(status.KindConfigLoad, "manager config", err)
	}
	dir, err := resolveConfigDir(cfg.ConfigDir)
	if err != nil {
		return status.New(status.KindDirNotFound, "config dir", err)
	}

	c := colorFor()
	errorCount := 0

	check := func(name string, a *record.Archive, loadErr error) {
		if loadErr != nil {
			fmt.Printf("%-30s %s %v\n", name, c.Fail("PARSE"), loadErr)
			errorCount++
			return
		}
		if err := a.Validate(); err != nil {
			fmt.Printf("%-30s %s %v\n", name, c.Fail("INVALID"), err)
			errorCount++
			return
		}
		fmt.Printf("%-30s %s\n", name, c.OK("valid"))
	}

	if len(args) == 1 {
		a, err := persistence.LoadRecord(dir, args[0])
		check(args[0], a, err)
	} else {
		archives, loadErrs := persistence.LoadAllRecords(dir)
		for _, a := range archives {
			check(a.Meta.Name, a, nil)
		}
		for name, err := range loadErrs {
			check(name, nil, err)
		}
		if len(archives) == 0 && len(loadErrs) == 0 {
			fmt.Println("No archive records found.")
			return nil
		}
	}

	if errorCount > 0 {
		return status.New(status.KindConfigLoad, "validate", fmt.Errorf("%d invalid record(s)", errorCount))
	}
	fmt.Println("All archive records are valid.")
	return nil
}

// ValidateCommand returns the validate command for registration.
func ValidateCommand() *cobra.Command {
	return validateCmd
}
