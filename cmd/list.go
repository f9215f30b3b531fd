package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available checks and their flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := getAppContext(cmd).Registry

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFLAGS\tSUMMARY")
		for _, d := range registry.Descriptors() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, describeFlags(d), d.Summary)
		}
		return w.Flush()
	},
}

func describeFlags(d checker.Descriptor) string {
	if len(d.Options) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(d.Options))
	for _, opt := range d.Options {
		parts = append(parts, fmt.Sprintf("--%s=%s", opt.FlagName(d.FlagPrefix), formatDefault(opt.DefaultValue())))
	}
	return strings.Join(parts, " ")
}

func formatDefault(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []string:
		return "[" + strings.Join(val, ",") + "]"
	default:
		return fmt.Sprint(val)
	}
}
