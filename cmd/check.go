package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/apigate/formatter"
	"github.com/gnoswap-labs/apigate/internal"
	tt "github.com/gnoswap-labs/apigate/internal/types"
	"github.com/gnoswap-labs/apigate/lint"
)

var (
	ignoreRules     string
	ignorePaths     string
	checkJsonOutput bool
	outPath         string
	cacheDir        string
	workers         int
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check Go files for calls that need a newer platform than the code proves",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context(), cmd.OutOrStdout(), args, checkFlags())
	},
}

func init() {
	checkCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of rules to ignore")
	checkCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	checkCmd.Flags().BoolVar(&checkJsonOutput, "json", false, "Output issues in JSON format")
	checkCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	checkCmd.Flags().StringVar(&cacheDir, "cache", "", "Directory to keep results between runs")
	checkCmd.Flags().IntVar(&workers, "workers", 0, "Number of files checked at once (default: number of CPUs)")
}

type checkOptions struct {
	configPath  string
	minSDK      string
	cacheDir    string
	ignoreRules []string
	ignorePaths []string
	json        bool
	outPath     string
	workers     int
	progress    io.Writer
}

func checkFlags() checkOptions {
	opts := checkOptions{
		configPath:  configPath(),
		minSDK:      minSDK,
		cacheDir:    cacheDir,
		ignoreRules: splitList(ignoreRules),
		ignorePaths: splitList(ignorePaths),
		json:        checkJsonOutput,
		outPath:     outPath,
		workers:     workers,
	}
	if !checkJsonOutput && isTerminal(os.Stderr) {
		opts.progress = os.Stderr
	}
	return opts
}

func runCheck(ctx context.Context, w io.Writer, paths []string, opts checkOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	engine, err := lint.New(opts.configPath, lint.Options{
		Logger:   logger,
		MinSDK:   opts.minSDK,
		CacheDir: opts.cacheDir,
	})
	if err != nil {
		logger.Error("Failed to initialize lint engine", zap.Error(err))
		return err
	}
	for _, rule := range opts.ignoreRules {
		engine.IgnoreRule(rule)
	}
	for _, path := range opts.ignorePaths {
		engine.IgnorePath(path)
	}

	var processOpts []lint.ProcessOption
	if opts.progress != nil {
		processOpts = append(processOpts, lint.WithProgress(opts.progress))
	}
	if opts.workers > 0 {
		processOpts = append(processOpts, lint.WithWorkers(opts.workers))
	}

	issues, err := lint.ProcessFiles(ctx, logger, engine, paths, lint.ProcessFile, processOpts...)
	if err != nil {
		return err
	}
	if err := printIssues(w, issues, opts.json, opts.outPath); err != nil {
		return err
	}
	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}

func printIssues(w io.Writer, issues []tt.Issue, isJson bool, jsonOutput string) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	if isJson {
		d, err := json.Marshal(issuesByFile)
		if err != nil {
			return fmt.Errorf("error marshalling issues to JSON: %w", err)
		}
		if jsonOutput == "" {
			_, err = fmt.Fprintln(w, string(d))
			return err
		}
		if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
			return fmt.Errorf("error writing JSON output file: %w", err)
		}
		return nil
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		sourceCode, err := internal.ReadSourceCode(filename)
		if err != nil {
			// still print the messages, without snippets
			logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
		}
		fmt.Fprint(w, formatter.GenerateFormattedIssue(issuesByFile[filename], sourceCode))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
