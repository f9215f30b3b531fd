package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
	"github.com/khanhnv2901/hapi-cli/internal/report"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hapi",
	Short: "Security assessment of an HTTP API described by an OpenAPI document",
	Long: `hAPI runs independent security checks (verb tampering, CORS, basic auth,
security headers, rate limiting) against a live API using its OpenAPI
document, then writes the combined findings to a report.

Only assess APIs you are authorized to test.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".hapi")
			viper.SetConfigType("yaml")
		}

		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		applyConfigDefaults(cmd)

		logger, err := newLogger(cliConfig.Verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if !cmd.Flags().Changed("seed") {
			cliConfig.Seed = uint64(time.Now().UnixNano())
		}

		app := &AppContext{
			Logger:   logger,
			Config:   cliConfig,
			Registry: checker.Default(),
		}
		cmd.SetContext(withAppContext(cmd.Context(), app))
		return nil
	},
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Execute runs the command tree and exits with the documented status code.
func Execute() {
	os.Exit(executeCommand())
}

func executeCommand() int {
	err := rootCmd.Execute()
	var exitErr *ExitError
	if err != nil && (!errors.As(err, &exitErr) || exitErr.Err != nil) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), colorError("Error: "+err.Error()))
	}
	return exitCode(err)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hapi.yaml)")
	flags.StringVarP(&cliConfig.Target, "url", "u", "", "base URL of the API under test")
	flags.StringVarP(&cliConfig.Input, "input", "i", "", "OpenAPI document (JSON or YAML)")
	flags.StringVarP(&cliConfig.Format, "format", "f", cliConfig.Format, fmt.Sprintf("report format (%s)", joinFormats()))
	flags.StringVar(&cliConfig.Proxy, "proxy", "", "proxy URL for every request")
	flags.BoolVar(&cliConfig.IgnoreSSL, "ignore-ssl", false, "skip TLS certificate verification")
	flags.StringArrayVarP(&cliConfig.Headers, "header", "H", nil, `default header "Name: value" (repeatable)`)
	flags.StringArrayVarP(&cliConfig.Cookies, "cookie", "C", nil, `default cookie "name=value" (repeatable)`)
	flags.IntVarP(&cliConfig.TimeoutSecs, "timeout", "t", cliConfig.TimeoutSecs, "per-request timeout in seconds")
	flags.Float64Var(&cliConfig.Rate, "rate", 0, "maximum requests per second (0 = unpaced)")
	flags.Uint64Var(&cliConfig.Seed, "seed", 0, "seed for random endpoint selection (default: time based)")
	flags.StringVar(&cliConfig.OutputDir, "output-dir", cliConfig.OutputDir, "directory the report is written to")
	flags.BoolVarP(&cliConfig.Verbose, "verbose", "v", false, "verbose logging")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	addCheckCommands(rootCmd, checker.Default())
}

func joinFormats() string {
	return strings.Join(report.Formats(), "|")
}
