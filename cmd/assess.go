package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/hapi-cli/internal/application/assessment"
	"github.com/khanhnv2901/hapi-cli/internal/compliance"
	"github.com/khanhnv2901/hapi-cli/internal/openapi"
	"github.com/khanhnv2901/hapi-cli/internal/report"
	consts "github.com/khanhnv2901/hapi-cli/internal/shared/constants"
	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// runAssessment loads the schema, runs the selected checks against the
// target and writes the report.
func runAssessment(cmd *cobra.Command, selection []string) error {
	app := getAppContext(cmd)
	cfg := app.Config
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if strings.TrimSpace(cfg.Target) == "" {
		return usageErrorf("--url is required")
	}
	if strings.TrimSpace(cfg.Input) == "" {
		return usageErrorf("--input is required")
	}
	if cfg.TimeoutSecs <= 0 {
		return usageErrorf("--timeout must be positive, got %d", cfg.TimeoutSecs)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return &UsageError{Err: err}
	}
	renderer, err := report.NewRenderer(format)
	if err != nil {
		return &UsageError{Err: err}
	}
	headers, err := parseHeaders(cfg.Headers)
	if err != nil {
		return &UsageError{Err: err}
	}
	cookies, err := parseCookies(cfg.Cookies)
	if err != nil {
		return &UsageError{Err: err}
	}

	orchestrator := assessment.NewOrchestrator(app.Registry,
		assessment.WithLogger(app.Logger),
		assessment.WithProgress(newConsoleProgress(out)),
	)
	names, err := orchestrator.Resolve(selection)
	if err != nil {
		return err
	}
	configs, ignored, err := buildCheckConfigs(cmd.Flags(), app.Registry, names)
	if err != nil {
		return err
	}
	if len(ignored) > 0 {
		fmt.Fprintf(errOut, "%s ignoring flags of checks that are not selected: %s\n", colorWarn("[!]"), strings.Join(ignored, ", "))
	}

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go watchInterrupt(ctx, sigChan, cancel, errOut, signal.Stop)

	doc, err := openapi.Load(ctx, cfg.Input)
	if err != nil {
		return err
	}
	for _, warning := range doc.Warnings {
		app.Logger.Warnw("schema validation", "input", cfg.Input, "warning", warning)
	}

	client, err := transport.New(transport.Config{
		BaseURL:            cfg.Target,
		Headers:            headers,
		Cookies:            cookies,
		Proxy:              cfg.Proxy,
		InsecureSkipVerify: cfg.IgnoreSSL,
		Timeout:            time.Duration(cfg.TimeoutSecs) * time.Second,
		RatePerSecond:      cfg.Rate,
		Logger:             app.Logger,
	})
	if err != nil {
		return &UsageError{Err: err}
	}

	run := assessment.RunContext{
		Target:             client.BaseURL(),
		InsecureSkipVerify: cfg.IgnoreSSL,
		Proxy:              cfg.Proxy,
		Headers:            headers,
		Cookies:            cookies,
		Format:             string(format),
		Selection:          names,
		Configs:            configs,
		Seed:               cfg.Seed,
	}

	fmt.Fprintf(out, "%s Assessing %s (%s, %d paths) with seed %d\n",
		colorInfo("[*]"), run.Target, doc.Title, doc.Index.Len(), run.Seed)

	outcome, err := orchestrator.Execute(ctx, run, client, doc.Index)
	if err != nil {
		return err
	}

	reportDoc := report.Document{
		APITitle:    doc.Title,
		Target:      run.Target,
		GeneratedAt: time.Now().UTC(),
		ToolVersion: Version,
		Seed:        run.Seed,
		Modules:     outcome.Sections(),
		Compliance:  compliance.ForChecks(executedChecks(outcome)),
	}
	content, err := renderer.Render(reportDoc)
	if err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}

	path, err := report.Save(cfg.OutputDir, doc.Title, renderer.Extension(), content)
	if err != nil {
		fmt.Fprintln(errOut, colorError("Error: "+err.Error()))
		emitFallback(cmd, reportDoc)
		return &ExitError{Code: consts.ExitFailure}
	}
	fmt.Fprintf(out, "%s Report saved to %s\n", colorSuccess("[+]"), path)

	for _, exec := range outcome.Failed() {
		fmt.Fprintf(errOut, "%s %s did not complete: %v\n", colorWarn("[!]"), exec.Title(), exec.Err())
	}
	return nil
}

func executedChecks(outcome *assessment.Outcome) []string {
	names := make([]string, 0, len(outcome.Executions))
	for _, exec := range outcome.Executions {
		names = append(names, exec.Name())
	}
	return names
}

// emitFallback writes the findings to stdout as JSON when the report file
// could not be written.
func emitFallback(cmd *cobra.Command, doc report.Document) {
	renderer, err := report.NewRenderer(report.FormatJSON)
	if err == nil {
		var data []byte
		if data, err = renderer.Render(doc); err == nil {
			_, err = cmd.OutOrStdout().Write(data)
		}
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), colorError("Error: findings could not be written to stdout: "+err.Error()))
	}
}

// watchInterrupt cancels the run on the first signal, then hands signal
// delivery back to the runtime so a second Ctrl-C terminates immediately.
func watchInterrupt(ctx context.Context, sigChan chan os.Signal, cancel context.CancelFunc, errOut io.Writer, stop func(chan<- os.Signal)) {
	select {
	case sig := <-sigChan:
		fmt.Fprintf(errOut, "\n%s\n", colorWarn(fmt.Sprintf("Received %s, stopping after the current request...", sig)))
		cancel()
		stop(sigChan)
	case <-ctx.Done():
	}
}
