package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/flowforge/node"
	"github.com/kbukum/flowforge/nodes"
)

func newNodesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the available node types and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := nodes.NewRegistry()
			if err != nil {
				return err
			}
			switch format {
			case formatJSON:
				return printNodesJSON(cmd, reg.List())
			case formatText:
				printNodesText(cmd, reg.List())
				return nil
			}
			return withCode(exitFatal, fmt.Errorf("invalid --format %q: must be text or json", format))
		},
	}
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")
	return cmd
}

func printNodesText(cmd *cobra.Command, regs []node.Registration) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCATEGORY\tNAME\tSETTINGS")
	for _, r := range regs {
		keys := make([]string, len(r.Schema))
		for i, f := range r.Schema {
			keys[i] = f.Key
			if f.Required {
				keys[i] += "*"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.TypeKey, r.Category, r.DisplayName, strings.Join(keys, ", "))
	}
	w.Flush()
}

type fieldDoc struct {
	Key      string   `json:"key"`
	Kind     string   `json:"kind"`
	Label    string   `json:"label,omitempty"`
	Required bool     `json:"required,omitempty"`
	Default  any      `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type nodeDoc struct {
	TypeKey     string     `json:"typeKey"`
	DisplayName string     `json:"displayName"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Settings    []fieldDoc `json:"settings"`
}

func printNodesJSON(cmd *cobra.Command, regs []node.Registration) error {
	docs := make([]nodeDoc, 0, len(regs))
	for _, r := range regs {
		d := nodeDoc{
			TypeKey:     r.TypeKey,
			DisplayName: r.DisplayName,
			Description: r.Description,
			Category:    r.Category.String(),
			Settings:    make([]fieldDoc, 0, len(r.Schema)),
		}
		for _, f := range r.Schema {
			d.Settings = append(d.Settings, fieldDoc{
				Key:      f.Key,
				Kind:     f.Kind.String(),
				Label:    f.Label,
				Required: f.Required,
				Default:  f.Default,
				Options:  f.Options,
			})
		}
		docs = append(docs, d)
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
