package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wflint/internal/actions"
	"wflint/internal/config"
	"wflint/internal/driver"
	"wflint/internal/engine"
	"wflint/internal/prof"
	"wflint/internal/rules"
	"wflint/internal/source"
	"wflint/internal/trace"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [paths...]",
	Short: "Check workflow files",
	Long: `Check GitHub Actions workflow files. Without paths the configured
workflows directory (.github/workflows by default) is scanned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args, false)
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [paths...]",
	Short: "Check workflow files and apply the available fixes",
	Long:  "Same as check --fix: fixes are written back and the files checked again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{checkCmd, fixCmd} {
		cmd.Flags().Int("max-warnings", 0, "exit with status 2 above this many warnings (-1 = unlimited, default from config)")
		cmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
		cmd.Flags().Int("jobs", 0, "max parallel files (0=auto)")
		cmd.Flags().Bool("no-network", false, "do not fetch action metadata")
		cmd.Flags().Bool("with-notes", false, "include notes and fix previews in output")
		cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
		cmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
		cmd.Flags().Bool("refresh-cache", false, "drop cached action metadata before checking")
	}
	checkCmd.Flags().Bool("fix", false, "apply fixes and write the files back")
	fixCmd.Flags().Bool("dry-run", false, "apply fixes in memory only and report what would change")
}

// runSettings is the merged view of flags and wflint.toml.
type runSettings struct {
	cfg         *config.Config
	format      outputFormat
	fix         bool
	write       bool
	maxWarnings int
	jobs        int
	maxDiags    int
	network     bool
	refresh     bool
	withNotes   bool
	fullPath    bool
	quiet       bool
	timings     bool
	color       bool
	ui          uiMode
}

func runCheck(cmd *cobra.Command, args []string, fixMode bool) (err error) {
	defer dumpTraceOnPanic()

	session, err := startProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := session.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	st, err := readSettings(cmd, fixMode)
	if err != nil {
		return err
	}
	color.NoColor = !st.color

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	paths, err := driver.Discover(args, st.cfg.WorkflowsDir(cwd))
	if err != nil {
		return err
	}

	resolver, closeResolver := newResolver(cmd, st)
	defer closeResolver()

	opts := driver.Options{
		Engine: engine.New(engine.Options{
			Disabled: st.cfg.Disabled(),
			Severity: st.cfg.Severities(),
		}),
		Resolver:       resolver,
		Rules:          rules.Config{Similarity: st.cfg.Check.Similarity},
		Fix:            st.fix,
		Write:          st.write,
		MaxDiagnostics: st.maxDiags,
		Jobs:           st.jobs,
	}

	ctx, span := trace.Begin(cmd.Context(), trace.ScopeDriver, "run")
	span.WithExtra("files", fmt.Sprint(len(paths)))
	defer span.End("")

	fs := source.NewFileSetWithBase(cwd)
	var results []*driver.FileResult
	if st.format.interactive() && !st.quiet && shouldUseTUI(st.ui) && len(paths) > 1 {
		results, err = runChecksWithUI(ctx, "checking workflows", fs, paths, opts)
	} else {
		results, err = driver.CheckPaths(ctx, fs, paths, opts)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("check interrupted: %w", err)
		}
		return err
	}

	sum := driver.Summarize(results)
	if err := render(cmd.OutOrStdout(), cmd.ErrOrStderr(), st, fs, results, sum); err != nil {
		return err
	}
	if code := driver.ExitCode(sum, st.maxWarnings); code != driver.ExitOK {
		return &exitCodeError{code: code}
	}
	return nil
}

func readSettings(cmd *cobra.Command, fixMode bool) (*runSettings, error) {
	root := cmd.Root().PersistentFlags()
	flags := cmd.Flags()

	configPath, err := root.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Discover(cwd, configPath)
	if err != nil {
		return nil, err
	}
	st := &runSettings{
		cfg:         cfg,
		maxWarnings: cfg.Check.MaxWarnings,
		jobs:        cfg.Check.Jobs,
		maxDiags:    cfg.Check.MaxDiagnostics,
		network:     cfg.Network.Enabled,
	}

	formatStr, err := flags.GetString("format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	if st.format, err = parseOutputFormat(formatStr); err != nil {
		return nil, err
	}

	if fixMode {
		dryRun, err := flags.GetBool("dry-run")
		if err != nil {
			return nil, fmt.Errorf("failed to get dry-run flag: %w", err)
		}
		st.fix, st.write = true, !dryRun
	} else {
		if st.fix, err = flags.GetBool("fix"); err != nil {
			return nil, fmt.Errorf("failed to get fix flag: %w", err)
		}
		st.write = st.fix
	}

	// флаги перекрывают конфиг только если заданы явно
	if flags.Changed("max-warnings") {
		if st.maxWarnings, err = flags.GetInt("max-warnings"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("jobs") {
		if st.jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, err
		}
	}
	if root.Changed("max-diagnostics") {
		if st.maxDiags, err = root.GetInt("max-diagnostics"); err != nil {
			return nil, err
		}
	}
	noNetwork, err := flags.GetBool("no-network")
	if err != nil {
		return nil, err
	}
	st.network = st.network && !noNetwork
	if st.refresh, err = flags.GetBool("refresh-cache"); err != nil {
		return nil, err
	}

	if st.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return nil, err
	}
	if st.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return nil, err
	}
	if st.quiet, err = root.GetBool("quiet"); err != nil {
		return nil, err
	}
	if st.timings, err = root.GetBool("timings"); err != nil {
		return nil, err
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return nil, err
	}
	if st.ui, err = readUIMode(uiStr); err != nil {
		return nil, err
	}
	colorStr, err := root.GetString("color")
	if err != nil {
		return nil, err
	}
	if st.color, err = readColor(colorStr); err != nil {
		return nil, err
	}
	return st, nil
}

func readColor(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return os.Getenv("NO_COLOR") == "" && isTerminal(os.Stdout), nil
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// newResolver builds the metadata resolver unless the network is off. A
// disk cache that cannot be opened only costs the cache.
func newResolver(cmd *cobra.Command, st *runSettings) (actions.Resolver, func()) {
	if !st.network {
		return nil, func() {}
	}
	opts := actions.Options{
		RawBaseURL: st.cfg.Network.RawBaseURL,
		APIBaseURL: st.cfg.Network.APIBaseURL,
		Token:      st.cfg.Token(),
		Timeout:    st.cfg.Network.Timeout.Duration,
		Retries:    st.cfg.Network.Retries,
	}
	if st.cfg.Cache.Enabled {
		disk, err := actions.OpenDiskCache("wflint", st.cfg.Cache.Dir, st.cfg.Cache.TTL.Duration)
		if err != nil {
			if !st.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: action cache disabled: %v\n", err)
			}
		} else {
			if st.refresh {
				if err := disk.DropAll(); err != nil && !st.quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: cannot clear action cache: %v\n", err)
				}
			}
			opts.Disk = disk
		}
	}
	r := actions.NewGitHubResolver(opts)
	return r, func() { _ = r.Close() }
}

func startProfiling(cmd *cobra.Command) (*prof.Session, error) {
	root := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = root.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = root.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = root.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return prof.Start(opts)
}
