package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowforge/graph"
)

func newTemplatesCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "templates [id]",
		Short: "List starter pipelines, or print or save one",
		Example: "  flowforge templates\n" +
			"  flowforge templates image-web-export --out web.ffpipe",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if outPath != "" {
					return withCode(exitFatal, fmt.Errorf("--out needs a template id"))
				}
				listTemplates(cmd)
				return nil
			}
			g, err := graph.FromTemplate(args[0])
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := graph.Save(g, outPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved '%s' to %s\n", g.Name, outPath)
				return nil
			}
			data, err := graph.Encode(g, graph.FormatJSON)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "save the template as a pipeline file")
	return cmd
}

func listTemplates(cmd *cobra.Command) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, t := range graph.Templates() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Description)
	}
	w.Flush()
}
