package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/apigate/lint"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile string
	minSDK  string
	timeout time.Duration
	verbose bool
	noColor bool

	logger = zap.NewNop()
)

// errIssuesFound makes the process exit with status 1 without an error
// message; the issues have been printed already.
var errIssuesFound = errors.New("issues found")

var rootCmd = &cobra.Command{
	Use:              "apigate [paths...]",
	Short:            "apigate - checks that platform API calls are guarded by version checks",
	TraverseChildren: true, // Prioritize subcommands
	SilenceUsage:     true,
	SilenceErrors:    true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !isTerminal(os.Stdout) {
			color.NoColor = true
		}
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// no subcommand
		if len(args) == 0 {
			return cmd.Help()
		}
		// Format: apigate [path1 path2 ...] => behaves like the check subcommand
		return runCheck(cmd.Context(), cmd.OutOrStdout(), args, checkFlags())
	},
}

// Execute runs the command line and reports whether it succeeded.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errIssuesFound) {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	_ = logger.Sync()
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the configuration file (default ./"+lint.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&minSDK, "min-sdk", "", "Override min_sdk with a requirement expression, e.g. \"api >= 21\"")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Set a timeout for the check")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(watchCmd)
}

// configPath is the --config flag, or the default file when it exists in
// the working directory.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(lint.DefaultConfigFile); err == nil {
		return lint.DefaultConfigFile
	}
	return ""
}

func loadConfig(path string) (lint.Config, error) {
	if path == "" {
		return lint.DefaultConfig(), nil
	}
	return lint.LoadConfig(path)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
