package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowforge/bootstrap"
	"github.com/kbukum/flowforge/graph"
	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/observability"
)

type validateOptions struct {
	skipHealth bool
	format     string
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <pipeline>",
		Short: "Check a pipeline without running it",
		Long: "Check the graph structure, order the nodes, configure every node and\n" +
			"probe the folders and storage it depends on. Exits 2 for an invalid\n" +
			"pipeline and 1 when a dependency is down.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validatePipeline(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.skipHealth, "skip-health", false, "skip folder and storage checks")
	cmd.Flags().StringVar(&opts.format, "format", formatText, "output format: text or json")
	return cmd
}

func validatePipeline(cmd *cobra.Command, root *rootOptions, opts *validateOptions, path string) error {
	out := cmd.OutOrStdout()
	if opts.format != formatText && opts.format != formatJSON {
		return withCode(exitFatal, fmt.Errorf("invalid --format %q: must be text or json", opts.format))
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	quietLogging(cfg, false)
	app, err := bootstrap.NewApp(cfg, bootstrap.WithoutTelemetry())
	if err != nil {
		return err
	}

	g, err := graph.Load(path)
	if err != nil {
		return err
	}
	if err := graph.Validate(g, app.Registry); err != nil {
		return err
	}
	order, err := graph.TopologicalSort(g)
	if err != nil {
		return err
	}

	built, err := instantiateAll(app.Registry, g, order)
	if err != nil {
		return err
	}

	var health *observability.PipelineHealth
	if !opts.skipHealth {
		health = checkHealth(cmd.Context(), g.Name, built)
	}

	if opts.format == formatJSON {
		report := struct {
			Pipeline string                        `json:"pipeline"`
			Nodes    int                           `json:"nodes"`
			Order    []string                      `json:"order"`
			Health   *observability.PipelineHealth `json:"health,omitempty"`
		}{g.Name, len(g.Nodes), typeKeys(built), health}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "Pipeline '%s' is valid (%d nodes, %d connections)\n", g.Name, len(g.Nodes), len(g.Connections))
		fmt.Fprintf(out, "Execution order: %s\n", strings.Join(typeKeys(built), " -> "))
		if health != nil {
			printHealth(out, health)
		}
	}

	if health != nil && !health.Healthy() {
		return withCode(exitPartial, nil)
	}
	return nil
}

type builtNode struct {
	id   string
	node node.Node
}

// instantiateAll configures every node in order and reports all failures
// together.
func instantiateAll(reg *node.Registry, g *graph.Graph, order []string) ([]builtNode, error) {
	built := make([]builtNode, 0, len(order))
	var errs []error
	for _, id := range order {
		def, _ := g.Node(id)
		n, err := reg.Instantiate(def)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		built = append(built, builtNode{id: id, node: n})
	}
	return built, errors.Join(errs...)
}

func checkHealth(ctx context.Context, pipeline string, built []builtNode) *observability.PipelineHealth {
	health := observability.NewPipelineHealth(pipeline)
	for _, b := range built {
		checker, ok := b.node.Body().(observability.HealthChecker)
		if !ok {
			continue
		}
		h := checker.CheckHealth(ctx)
		if h.Details == nil {
			h.Details = make(map[string]string)
		}
		h.Details["node_id"] = b.id
		health.AddComponent(h)
	}
	return health
}

func printHealth(w io.Writer, health *observability.PipelineHealth) {
	fmt.Fprintf(w, "Health: %s\n", health.Status)
	for _, h := range health.Components {
		line := fmt.Sprintf("  [%s] %s", strings.ToUpper(string(h.Status)), h.Name)
		if h.Message != "" {
			line += ": " + h.Message
		}
		fmt.Fprintln(w, line)
	}
}

func typeKeys(built []builtNode) []string {
	keys := make([]string, len(built))
	for i, b := range built {
		keys[i] = b.node.TypeKey()
	}
	return keys
}
