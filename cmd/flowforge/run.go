package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowforge/bootstrap"
	"github.com/kbukum/flowforge/engine"
	"github.com/kbukum/flowforge/graph"
	"github.com/kbukum/flowforge/job"
	"github.com/kbukum/flowforge/nodes/output"
	"github.com/kbukum/flowforge/nodes/source"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type runOptions struct {
	input       string
	output      string
	dryRun      bool
	verbose     bool
	format      string
	concurrency int
	metricsFile string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Execute a pipeline",
		Long:  "Execute a pipeline file (.ffpipe, .json, .yaml). Exits 0 on success,\n1 when some files failed and 2 when all failed or the run could not start.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, root, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.input, "input", "", "override the first FolderInput node's folder")
	f.StringVar(&opts.output, "output", "", "override the first FolderOutput node's folder")
	f.BoolVar(&opts.dryRun, "dry-run", false, "simulate the pipeline without writing any files")
	f.BoolVar(&opts.verbose, "verbose", false, "print per-file node log entries")
	f.StringVar(&opts.format, "format", formatText, "output format: text or json")
	f.IntVar(&opts.concurrency, "concurrency", 0, "maximum concurrent output operations (0 = CPU count)")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	return cmd
}

func runPipeline(cmd *cobra.Command, root *rootOptions, opts *runOptions, path string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if opts.format != formatText && opts.format != formatJSON {
		return withCode(exitFatal, fmt.Errorf("invalid --format %q: must be text or json", opts.format))
	}
	if opts.concurrency < 0 {
		return withCode(exitFatal, fmt.Errorf("invalid --concurrency %d: must not be negative", opts.concurrency))
	}
	// JSON mode keeps stdout for the result document.
	status := stdout
	if opts.format == formatJSON {
		status = stderr
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if opts.concurrency > 0 {
		cfg.Engine.MaxConcurrency = opts.concurrency
	}
	if opts.metricsFile != "" {
		cfg.Telemetry.MetricsFile = opts.metricsFile
	}
	dryRun := opts.dryRun || cfg.Engine.DryRun
	quietLogging(cfg, opts.verbose)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(status, "Loading pipeline: %s\n", abs)
	g, err := graph.Load(abs)
	if err != nil {
		return err
	}
	fmt.Fprintf(status, "Pipeline '%s' loaded (%d nodes, %d connections)\n", g.Name, len(g.Nodes), len(g.Connections))

	if opts.input != "" {
		dir, err := overridePath(g, source.TypeFolderInput, opts.input)
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "Input override: %s\n", dir)
	}
	if opts.output != "" {
		dir, err := overridePath(g, output.TypeFolderOutput, opts.output)
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "Output override: %s\n", dir)
	}
	if dryRun {
		fmt.Fprintln(status, "Mode: DRY RUN (no files will be written)")
	}
	fmt.Fprintln(status)

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	var result *engine.Result
	err = app.RunTask(cmd.Context(), func(ctx context.Context) error {
		var runErr error
		result, runErr = app.Runner.Run(ctx, g,
			engine.WithDryRun(dryRun),
			engine.WithProgress(progressPrinter(status, stderr, opts.verbose)),
		)
		return runErr
	})
	if err != nil {
		return err
	}

	printSummary(status, result)
	if opts.format == formatJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
	}

	switch result.Outcome() {
	case engine.OutcomePartial:
		return withCode(exitPartial, nil)
	case engine.OutcomeFailure:
		return withCode(exitFatal, nil)
	}
	return nil
}

// overridePath points the first node of typeKey at dir and returns the
// absolute path it set.
func overridePath(g *graph.Graph, typeKey, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for i := range g.Nodes {
		if g.Nodes[i].TypeKey != typeKey {
			continue
		}
		if g.Nodes[i].Config == nil {
			g.Nodes[i].Config = make(map[string]any)
		}
		g.Nodes[i].Config["path"] = abs
		return abs, nil
	}
	return "", fmt.Errorf("no %s node found in pipeline to override", typeKey)
}

// progressPrinter renders one status line per finished job. Error details
// go to stderr.
func progressPrinter(status, stderr io.Writer, verbose bool) func(job.Job) {
	return func(j job.Job) {
		fmt.Fprintf(status, "  %s %s\n", statusTag(j.Status), filepath.Base(j.OriginalPath()))
		if verbose {
			for _, entry := range j.NodeLog {
				fmt.Fprintf(status, "        %s\n", entry)
			}
		}
		if j.Status == job.Failed && j.ErrorMessage != "" {
			fmt.Fprintf(stderr, "        Error: %s\n", j.ErrorMessage)
		}
	}
}

func statusTag(s job.Status) string {
	switch s {
	case job.Succeeded:
		return "[OK]"
	case job.Failed:
		return "[FAIL]"
	case job.Skipped:
		return "[SKIP]"
	}
	return "[??]"
}

func printSummary(w io.Writer, r *engine.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Pipeline Summary ---")
	fmt.Fprintf(w, "  Total files : %d\n", r.TotalFiles)
	fmt.Fprintf(w, "  Succeeded   : %d\n", r.Succeeded)
	fmt.Fprintf(w, "  Failed      : %d\n", r.Failed)
	fmt.Fprintf(w, "  Skipped     : %d\n", r.Skipped)
	fmt.Fprintf(w, "  Duration    : %d ms\n", r.Duration.Milliseconds())
	fmt.Fprintf(w, "  Dry run     : %t\n", r.DryRun)
}
