package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/lint"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-check Go files whenever they are written",
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs := args
		if len(dirs) == 0 {
			dirs = []string{"."}
		}

		engine, err := lint.New(configPath(), lint.Options{Logger: logger, MinSDK: minSDK})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report := func(filename string, issues []tt.Issue) {
			if len(issues) == 0 {
				fmt.Fprintf(out, "%s: ok\n", filename)
				return
			}
			if err := printIssues(out, issues, false, ""); err != nil {
				logger.Error("Error printing issues", zap.String("file", filename), zap.Error(err))
			}
		}
		if err := engine.StartWatching(dirs, report); err != nil {
			return err
		}
		defer func() {
			if err := engine.StopWatching(); err != nil {
				logger.Warn("Error stopping watcher", zap.Error(err))
			}
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(out, "watching %v, press Ctrl+C to stop\n", dirs)
		<-ctx.Done()
		return nil
	},
}
