package main

import (
	"fmt"
	"os"

	"github.com/rpienaar/vaultkeeper/internal/cmd"
	"github.com/rpienaar/vaultkeeper/internal/status"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(status.ExitCodeFor(err)))
	}
}
