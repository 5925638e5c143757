package cmd

import (
	"fmt"
	"os"
)

// configDirFlag overrides the manager config's configDir for a single
// invocation (--config-dir), taking precedence over VAULTKEEPER_CONFIGDIR
// and the vaultkeeper.yaml setting or its built-in default.
var configDirFlag string

// resolveConfigDir applies the flag-then-config precedence rule: an
// explicit --config-dir wins, otherwise fall back to the loaded manager
// configuration's configDir.
func resolveConfigDir(managerConfigDir string) (string, error) {
	dir := configDirFlag
	if dir == "" {
		dir = managerConfigDir
	}
	if dir == "" {
		return "", fmt.Errorf("no configDir configured; pass --config-dir or set configDir in vaultkeeper.yaml")
	}
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("config dir %s: %w", dir, err)
	}
	return dir, nil
}
