package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/apigate/internal/frontend"
	"github.com/gnoswap-labs/apigate/lint"
)

var (
	explainLine int
	explainCol  int
)

var explainCmd = &cobra.Command{
	Use:   "explain --line N file.go",
	Short: "Print the proven version context and the verdict of the calls on a line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExplain(cmd.OutOrStdout(), configPath(), minSDK, args[0], explainLine, explainCol)
	},
}

func init() {
	explainCmd.Flags().IntVar(&explainLine, "line", 0, "Line of the call (required)")
	explainCmd.Flags().IntVar(&explainCol, "col", 0, "Column inside the call; selects the enclosing calls only")
	_ = explainCmd.MarkFlagRequired("line")
}

func runExplain(w io.Writer, cfgPath, floor, filename string, line, col int) error {
	if line < 1 {
		return fmt.Errorf("invalid line %d", line)
	}
	config, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	analyzer, err := lint.NewAnalyzer(config, lint.Options{Logger: logger, MinSDK: floor})
	if err != nil {
		return err
	}
	pkg, err := frontend.LoadFile(filename, frontend.Options{NoReturn: config.NoReturn, Logger: logger})
	if pkg == nil {
		return err
	}
	res := analyzer.Analyze(pkg)

	name := filepath.Base(filename)
	calls := frontend.CallsAt(pkg, filename, line, col)
	if len(calls) == 0 {
		fmt.Fprintf(w, "%s:%d: no calls\n", name, line)
	}
	for _, call := range calls {
		pos := pkg.Fset.Position(call.Pos())
		v := res.Evaluate(call)
		fmt.Fprintf(w, "%s:%d:%d: %s\n", name, pos.Line, pos.Column, v.Name())

		if ctx, ok := res.Context(call); ok {
			fmt.Fprintf(w, "  context:  %s\n", ctx)
		} else {
			fmt.Fprintf(w, "  context:  unreachable\n")
		}
		if v.Required.Len() == 0 {
			fmt.Fprintf(w, "  requires: nothing\n")
		} else {
			fmt.Fprintf(w, "  requires: %s\n", v.Required)
		}
		if v.Pass {
			fmt.Fprintf(w, "  verdict:  PASS\n")
		} else {
			fmt.Fprintf(w, "  verdict:  FAIL: %s\n", v.Message())
		}
	}

	for _, fact := range res.Obsolete {
		pos := pkg.Fset.Position(fact.Site.Pos())
		if pos.Line == line && frontend.SameFile(pos.Filename, filename) {
			fmt.Fprintf(w, "%s:%d:%d: %s\n", name, pos.Line, pos.Column, fact.Message())
		}
	}
	return nil
}
