package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/flowforge/config"
	"github.com/kbukum/flowforge/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:     "flowforge",
		Short:   "Node-based file processing pipeline runner",
		Long:    "FlowForge runs pipelines of file-processing nodes: sources that list\nfiles, transforms that rename, filter, sort and re-encode them, and\noutputs that write the results.",
		Version: version.Get().Short(),
		// Failures are reported once, by exitCode.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "settings file (default: flowforge.yml search path)")

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newNodesCmd(),
		newTemplatesCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var loadOpts []config.LoaderOption
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	return config.Load(loadOpts...)
}

// quietLogging raises the log level to warn so that status lines are not
// interleaved with info logs. A stricter configured level is kept.
func quietLogging(cfg *config.Config, verbose bool) {
	if verbose {
		return
	}
	switch cfg.Logging.Level {
	case "", "trace", "debug", "info":
		cfg.Logging.Level = "warn"
	}
}
