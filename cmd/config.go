package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/hapi-cli/internal/report"
)

const (
	defaultHTTPTimeoutSeconds = 10
	defaultOutputDir          = "."
)

// CLIConfig captures the global settings shared by every assessment command.
type CLIConfig struct {
	Target      string
	Input       string
	Format      string
	Proxy       string
	IgnoreSSL   bool
	Headers     []string
	Cookies     []string
	TimeoutSecs int
	Rate        float64
	Seed        uint64
	OutputDir   string
	Verbose     bool
}

type defaultOverrides struct {
	TimeoutSecs *int
	Format      string
	Proxy       string
	IgnoreSSL   *bool
	OutputDir   string
	Rate        *float64
	Headers     []string
	Cookies     []string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Format:      string(report.FormatHTML),
		TimeoutSecs: defaultHTTPTimeoutSeconds,
		OutputDir:   defaultOutputDir,
	}
}

func loadDefaultOverrides() defaultOverrides {
	overrides := defaultOverrides{}

	if viper.IsSet("defaults.timeout_secs") {
		val := viper.GetInt("defaults.timeout_secs")
		overrides.TimeoutSecs = &val
	}
	if viper.IsSet("defaults.format") {
		overrides.Format = viper.GetString("defaults.format")
	}
	if viper.IsSet("defaults.proxy") {
		overrides.Proxy = viper.GetString("defaults.proxy")
	}
	if viper.IsSet("defaults.ignore_ssl") {
		val := viper.GetBool("defaults.ignore_ssl")
		overrides.IgnoreSSL = &val
	}
	if viper.IsSet("defaults.output_dir") {
		overrides.OutputDir = viper.GetString("defaults.output_dir")
	}
	if viper.IsSet("defaults.rate") {
		val := viper.GetFloat64("defaults.rate")
		overrides.Rate = &val
	}
	if viper.IsSet("defaults.headers") {
		overrides.Headers = viper.GetStringSlice("defaults.headers")
	}
	if viper.IsSet("defaults.cookies") {
		overrides.Cookies = viper.GetStringSlice("defaults.cookies")
	}

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadDefaultOverrides()
	flags := cmd.Flags()

	if overrides.TimeoutSecs != nil {
		applyDefault(flags, "timeout", *overrides.TimeoutSecs, func(v int) { cliConfig.TimeoutSecs = v })
	}
	if overrides.Format != "" {
		applyDefault(flags, "format", overrides.Format, func(v string) { cliConfig.Format = v })
	}
	if overrides.Proxy != "" {
		applyDefault(flags, "proxy", overrides.Proxy, func(v string) { cliConfig.Proxy = v })
	}
	if overrides.IgnoreSSL != nil {
		applyDefault(flags, "ignore-ssl", *overrides.IgnoreSSL, func(v bool) { cliConfig.IgnoreSSL = v })
	}
	if overrides.OutputDir != "" {
		applyDefault(flags, "output-dir", overrides.OutputDir, func(v string) { cliConfig.OutputDir = v })
	}
	if overrides.Rate != nil {
		applyDefault(flags, "rate", *overrides.Rate, func(v float64) { cliConfig.Rate = v })
	}
	// Config headers and cookies are sent in addition to the ones given on
	// the command line; flags win on name clashes.
	if len(overrides.Headers) > 0 {
		cliConfig.Headers = append(append([]string(nil), overrides.Headers...), cliConfig.Headers...)
	}
	if len(overrides.Cookies) > 0 {
		cliConfig.Cookies = append(append([]string(nil), overrides.Cookies...), cliConfig.Cookies...)
	}
}

func applyDefault[T any](flags *pflag.FlagSet, name string, value T, setter func(T)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

// parseHeaders turns repeated "Name: value" flags into a header map.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, raw := range values {
		name, value, ok := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (expected \"Name: value\")", raw)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parseCookies turns repeated "name=value" flags into a cookie map. A
// leading "Cookie:" is tolerated.
func parseCookies(values []string) (map[string]string, error) {
	cookies := make(map[string]string, len(values))
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) > len("cookie:") && strings.EqualFold(trimmed[:len("cookie:")], "cookie:") {
			trimmed = strings.TrimSpace(trimmed[len("cookie:"):])
		}
		name, value, ok := strings.Cut(trimmed, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid cookie %q (expected \"name=value\")", raw)
		}
		cookies[name] = strings.TrimSpace(value)
	}
	return cookies, nil
}
