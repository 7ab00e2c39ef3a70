package main

import (
	"fmt"
	"os"

	"github.com/hellominers/statsupdater/cmd"
	"github.com/hellominers/statsupdater/internal/buildinfo"
	"github.com/hellominers/statsupdater/internal/conf"
	"github.com/hellominers/statsupdater/internal/logger"
)

// buildDate and version are injected at build time with -ldflags.
var (
	buildDate string
	version   string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	build := buildinfo.NewContext(version, buildDate)
	settings := &conf.Settings{}

	rootCmd := cmd.RootCommand(build, settings)
	err := rootCmd.Execute()

	// flush file logs before exit
	if closeErr := logger.Global().Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", closeErr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "statsupdater: %v\n", err)
		return 1
	}
	return 0
}
