package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/khanhnv2901/hapi-cli/internal/application/assessment"
	"github.com/khanhnv2901/hapi-cli/internal/checker"
)

// addCheckCommands registers one subcommand per check plus the `all` and
// `run` multi-check modes. Each check's flags are namespaced by its prefix.
func addCheckCommands(root *cobra.Command, registry *checker.Registry) {
	descriptors := registry.Descriptors()

	for _, d := range descriptors {
		c := &cobra.Command{
			Use:   d.Name,
			Short: d.Summary,
			Long:  fmt.Sprintf("%s\n\n%s", d.Title, d.Summary),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAssessment(cmd, []string{d.Name})
			},
		}
		bindCheckFlags(c.Flags(), d)
		root.AddCommand(c)
	}

	allCmd := &cobra.Command{
		Use:   assessment.SelectAll,
		Short: "Run every registered check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssessment(cmd, []string{assessment.SelectAll})
		},
	}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a selection of checks in the given order",
		Example: `  hapi run -u https://api.example.com -i openapi.json --checks cors,verb_tampering
  hapi run -u https://api.example.com -i openapi.json --checks all --rl-threshold 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, _ := cmd.Flags().GetStringSlice("checks")
			if len(selection) == 0 {
				return usageErrorf("--checks is required (available: %s)", strings.Join(registry.Names(), ", "))
			}
			return runAssessment(cmd, selection)
		},
	}
	runCmd.Flags().StringSlice("checks", nil, "comma-separated checks to run, or \"all\"")

	for _, d := range descriptors {
		bindCheckFlags(allCmd.Flags(), d)
		bindCheckFlags(runCmd.Flags(), d)
	}
	root.AddCommand(allCmd)
	root.AddCommand(runCmd)
}

func bindCheckFlags(flags *pflag.FlagSet, d checker.Descriptor) {
	for _, opt := range d.Options {
		name := opt.FlagName(d.FlagPrefix)
		switch opt.Type {
		case checker.OptionInt:
			flags.Int(name, opt.DefaultValue().(int), opt.Help)
		case checker.OptionBool:
			flags.Bool(name, opt.DefaultValue().(bool), opt.Help)
		case checker.OptionStringSlice:
			flags.StringSlice(name, opt.DefaultValue().([]string), opt.Help)
		default:
			flags.String(name, opt.DefaultValue().(string), opt.Help)
		}
	}
}

// collectOptions returns the options of d set explicitly on the command
// line. Unset options are left to the check's declared defaults.
func collectOptions(flags *pflag.FlagSet, d checker.Descriptor) (checker.OptionValues, error) {
	values := checker.OptionValues{}
	for _, opt := range d.Options {
		name := opt.FlagName(d.FlagPrefix)
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}

		var (
			value any
			err   error
		)
		switch opt.Type {
		case checker.OptionInt:
			value, err = flags.GetInt(name)
		case checker.OptionBool:
			value, err = flags.GetBool(name)
		case checker.OptionStringSlice:
			value, err = flags.GetStringSlice(name)
		default:
			value, err = flags.GetString(name)
		}
		if err != nil {
			return nil, fmt.Errorf("flag --%s: %w", name, err)
		}
		values[opt.Name] = value
	}
	return values, nil
}

// buildCheckConfigs decodes the typed configuration of every selected check.
// Flags of checks that are not selected are reported as ignored.
func buildCheckConfigs(flags *pflag.FlagSet, registry *checker.Registry, names []string) (map[string]checker.Config, []string, error) {
	selected := make(map[string]struct{}, len(names))
	configs := make(map[string]checker.Config, len(names))

	for _, name := range names {
		selected[name] = struct{}{}
		d, ok := registry.Lookup(name)
		if !ok {
			return nil, nil, &assessment.UnknownCheckError{Name: name, Available: registry.Names()}
		}
		values, err := collectOptions(flags, d)
		if err != nil {
			return nil, nil, &UsageError{Err: err}
		}
		cfg, err := d.Configure(values)
		if err != nil {
			return nil, nil, &UsageError{Err: err}
		}
		configs[name] = cfg
	}

	var ignored []string
	for _, d := range registry.Descriptors() {
		if _, ok := selected[d.Name]; ok {
			continue
		}
		for _, opt := range d.Options {
			if flag := flags.Lookup(opt.FlagName(d.FlagPrefix)); flag != nil && flag.Changed {
				ignored = append(ignored, "--"+flag.Name)
			}
		}
	}
	sort.Strings(ignored)
	return configs, ignored, nil
}
