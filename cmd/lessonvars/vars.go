package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/value"
)

func varsCmd() *cobra.Command {
	var (
		source string
		region string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "vars",
		Short: "List declared variables",
		Long: `List the variables a declaration document declares, in order.

Without --vars the built-in sine lesson is listed.

Examples:
  lessonvars vars
  lessonvars vars --vars=lesson/variables.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadDeclarations(cmd.Context(), source, region)
			if err != nil {
				return err
			}
			if asJSON {
				return printVarsJSON(cmd.OutOrStdout(), reg)
			}
			printVarsTable(cmd.OutOrStdout(), reg)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "vars", "", "Declaration file or s3://bucket/key")
	cmd.Flags().StringVar(&region, "region", "", "AWS region for s3:// sources")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

type varJSON struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Default value.Value `json:"default"`
	Label   string      `json:"label,omitempty"`
	Unit    string      `json:"unit,omitempty"`
	Min     *float64    `json:"min,omitempty"`
	Max     *float64    `json:"max,omitempty"`
	Step    *float64    `json:"step,omitempty"`
	Options []string    `json:"options,omitempty"`
}

func printVarsJSON(w io.Writer, reg *registry.Registry) error {
	out := make([]varJSON, 0, reg.Len())
	for _, e := range reg.Entries() {
		d := e.Definition
		out = append(out, varJSON{
			Name:    e.Name,
			Kind:    string(d.Kind),
			Default: d.Default,
			Label:   d.Label,
			Unit:    d.Unit,
			Min:     d.Min,
			Max:     d.Max,
			Step:    d.Step,
			Options: d.Options,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printVarsTable(w io.Writer, reg *registry.Registry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDEFAULT\tRANGE\tLABEL")
	for _, e := range reg.Entries() {
		d := e.Definition
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, d.Kind, d.Default.String()+d.Unit, describeRange(d), d.Label)
	}
	tw.Flush()
}

// describeRange summarizes the constraints of a definition.
func describeRange(d registry.Definition) string {
	if len(d.Options) > 0 {
		return strings.Join(d.Options, "|")
	}
	if d.Min == nil && d.Max == nil && d.Step == nil {
		return "-"
	}
	bound := func(f *float64) string {
		if f == nil {
			return ""
		}
		return strconv.FormatFloat(*f, 'g', -1, 64)
	}
	r := bound(d.Min) + ".." + bound(d.Max)
	if d.Step != nil {
		r += " step " + bound(d.Step)
	}
	return r
}
