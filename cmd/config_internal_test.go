package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestApplyDefaultRespectsChangedFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("timeout", 0, "")

	var applied int
	applyDefault(flags, "timeout", 15, func(v int) {
		applied = v
	})
	if applied != 15 {
		t.Fatalf("expected setter to receive 15, got %d", applied)
	}

	// When flag already set, setter should not run.
	if err := flags.Set("timeout", "7"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	applied = 0
	applyDefault(flags, "timeout", 20, func(v int) {
		applied = v
	})
	if applied != 0 {
		t.Fatalf("setter should not run when flag overridden, got %d", applied)
	}
}

func TestApplyDefaultUnknownFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	applied := false
	applyDefault(flags, "ignore-ssl", true, func(v bool) {
		applied = v
	})
	if !applied {
		t.Fatal("expected setter to run when the flag is not declared")
	}

	applied = false
	applyDefault(nil, "ignore-ssl", true, func(v bool) {
		applied = v
	})
	if applied {
		t.Fatal("setter should not run without a flag set")
	}
}

func TestApplyConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	original := cliConfig
	cliConfig = newCLIConfig()
	t.Cleanup(func() { cliConfig = original })

	cfgPath := filepath.Join(t.TempDir(), "hapi.yaml")
	content := `defaults:
  timeout_secs: 30
  format: json
  rate: 2.5
  ignore_ssl: true
  output_dir: /tmp/reports
  headers:
    - "X-Team: red"
  cookies:
    - "session=abc"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	viper.SetConfigFile(cfgPath)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&cliConfig.TimeoutSecs, "timeout", 10, "")
	cmd.Flags().StringVar(&cliConfig.Format, "format", "html", "")
	cmd.Flags().StringArrayVar(&cliConfig.Headers, "header", nil, "")
	if err := cmd.Flags().Set("format", "md"); err != nil {
		t.Fatalf("set format: %v", err)
	}
	if err := cmd.Flags().Set("header", "X-Team: blue"); err != nil {
		t.Fatalf("set header: %v", err)
	}

	applyConfigDefaults(cmd)

	if cliConfig.TimeoutSecs != 30 {
		t.Fatalf("expected timeout from config, got %d", cliConfig.TimeoutSecs)
	}
	if cliConfig.Format != "md" {
		t.Fatalf("explicit --format should win, got %q", cliConfig.Format)
	}
	if cliConfig.Rate != 2.5 {
		t.Fatalf("expected rate 2.5, got %v", cliConfig.Rate)
	}
	if !cliConfig.IgnoreSSL {
		t.Fatal("expected ignore_ssl from config")
	}
	if cliConfig.OutputDir != "/tmp/reports" {
		t.Fatalf("expected output dir from config, got %q", cliConfig.OutputDir)
	}

	headers, err := parseHeaders(cliConfig.Headers)
	if err != nil {
		t.Fatalf("parse headers: %v", err)
	}
	if headers["X-Team"] != "blue" {
		t.Fatalf("command-line header should override config header, got %q", headers["X-Team"])
	}
	if len(cliConfig.Cookies) != 1 || cliConfig.Cookies[0] != "session=abc" {
		t.Fatalf("expected cookie from config, got %v", cliConfig.Cookies)
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Authorization: Bearer abc", "X-Empty:", " X-Trim :  v  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["Authorization"] != "Bearer abc" {
		t.Fatalf("unexpected Authorization header %q", headers["Authorization"])
	}
	if v, ok := headers["X-Empty"]; !ok || v != "" {
		t.Fatalf("expected empty X-Empty header, got %q (present=%v)", v, ok)
	}
	if headers["X-Trim"] != "v" {
		t.Fatalf("expected trimmed header, got %q", headers["X-Trim"])
	}

	for _, bad := range []string{"no-colon", ": value"} {
		if _, err := parseHeaders([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseCookies(t *testing.T) {
	cookies, err := parseCookies([]string{"session=abc", "Cookie: theme=dark", "token=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"session": "abc", "theme": "dark", "token": "a=b"}
	for name, value := range want {
		if cookies[name] != value {
			t.Fatalf("cookie %s = %q, want %q", name, cookies[name], value)
		}
	}

	for _, bad := range []string{"novalue", "=abc"} {
		if _, err := parseCookies([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
