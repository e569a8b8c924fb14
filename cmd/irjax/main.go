package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "irjax/internal/examples"
	"irjax/internal/program"
	"irjax/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "irjax",
	Short: "Inspect and trace registered irjax programs",
	Long: `irjax lists the program classes linked into this binary, prints their
metadata and traces them into modules for the compiler.`,
	SilenceUsage:       true,
	PersistentPreRunE:  prepare,
	PersistentPostRunE: finishRun,
}

// cleanupTracing and stopProfiling are set by prepare and run by finishRun.
var (
	cleanupTracing = func() {}
	stopProfiling  = func() {}
)

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "path to irjax.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file ('-' for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// prepare runs before every command: it loads irjax.toml, applies the colour
// mode, installs the tracer, starts profilers and closes program
// registration.
func prepare(cmd *cobra.Command, _ []string) error {
	if err := loadManifestFor(cmd); err != nil {
		return err
	}
	colorFlag, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	if err := applyColorMode(colorFlag, os.Stdout); err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	cleanupTracing = cleanup
	stop, err := setupProfiling(cmd)
	if err != nil {
		cleanup()
		return err
	}
	stopProfiling = stop
	program.Default.Seal()
	return nil
}

func finishRun(_ *cobra.Command, _ []string) error {
	stopProfiling()
	cleanupTracing()
	return nil
}
