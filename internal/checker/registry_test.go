package checker

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

type stubConfig struct {
	Label string `option:"label"`
}

func (stubConfig) CheckName() string { return "stub" }

type stubCheck struct{}

func (stubCheck) Run(context.Context) (Result, error) { return Result{}, nil }
func (stubCheck) Format(result Result) Section      { return newSection("Stub", nil, result) }

func stubDescriptor() Descriptor {
	return Descriptor{
		Name:       "stub",
		Title:      "Stub",
		FlagPrefix: "st",
		Options:    []OptionSpec{{Name: "label", Type: OptionString, Default: "x"}},
		Decode:     decodeOptions[stubConfig],
		New: newFactory(func(Env, stubConfig) (Check, error) {
			return stubCheck{}, nil
		}),
	}
}

func TestDefaultRegistryHasBuiltinChecks(t *testing.T) {
	want := []string{BasicAuthName, SecurityHeadersName, CORSName, RateLimitingName, VerbTamperingName}
	got := Default().Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i, d := range Default().Descriptors() {
		if d.Name != want[i] {
			t.Fatalf("Descriptors()[%d] = %s, want %s", i, d.Name, want[i])
		}
	}
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Descriptor)
		want   error
	}{
		{"valid", func(*Descriptor) {}, nil},
		{"bad name", func(d *Descriptor) { d.Name = "Bad Name" }, apperrors.ErrInvalidDescriptor},
		{"empty prefix", func(d *Descriptor) { d.FlagPrefix = "" }, apperrors.ErrInvalidDescriptor},
		{"missing title", func(d *Descriptor) { d.Title = "" }, apperrors.ErrInvalidDescriptor},
		{"nil factory", func(d *Descriptor) { d.New = nil }, apperrors.ErrInvalidDescriptor},
		{"nil decode", func(d *Descriptor) { d.Decode = nil }, apperrors.ErrInvalidDescriptor},
		{"duplicate option", func(d *Descriptor) {
			d.Options = append(d.Options, OptionSpec{Name: "label", Type: OptionString})
		}, apperrors.ErrInvalidDescriptor},
		{"unknown type", func(d *Descriptor) { d.Options[0].Type = "float" }, apperrors.ErrInvalidDescriptor},
		{"default type mismatch", func(d *Descriptor) { d.Options[0].Default = 3 }, apperrors.ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := stubDescriptor()
			tt.mutate(&d)
			err := NewRegistry().Register(d)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Register: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Register error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubDescriptor()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(stubDescriptor()); !errors.Is(err, apperrors.ErrDuplicateCheck) {
		t.Fatalf("expected ErrDuplicateCheck, got %v", err)
	}

	other := stubDescriptor()
	other.Name = "other"
	if err := r.Register(other); !errors.Is(err, apperrors.ErrInvalidDescriptor) {
		t.Fatalf("expected prefix collision error, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestMustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid descriptor")
		}
	}()
	NewRegistry().MustRegister(Descriptor{Name: "x"})
}

func TestConfigureDefaultsAndOverrides(t *testing.T) {
	d, _ := Default().Lookup(RateLimitingName)

	cfg, err := d.Configure(nil)
	if err != nil {
		t.Fatalf("Configure(nil): %v", err)
	}
	rl := cfg.(RateLimitingConfig)
	if rl.Threshold != defaultRateLimitThreshold || len(rl.Endpoints) != 0 {
		t.Fatalf("unexpected defaults: %+v", rl)
	}

	cfg, err = d.Configure(OptionValues{"threshold": "9", "endpoints": "/login,/token"})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	rl = cfg.(RateLimitingConfig)
	if rl.Threshold != 9 {
		t.Errorf("Threshold = %d, want 9", rl.Threshold)
	}
	if strings.Join(rl.Endpoints, "|") != "/login|/token" {
		t.Errorf("Endpoints = %v", rl.Endpoints)
	}
}

func TestConfigureRejectsForeignAndInvalidOptions(t *testing.T) {
	d, _ := Default().Lookup(CORSName)
	if _, err := d.Configure(OptionValues{"wordlist": "verbs.txt"}); !isInvalidOption(err) {
		t.Fatalf("expected invalid option for foreign key, got %v", err)
	}

	rl, _ := Default().Lookup(RateLimitingName)
	if _, err := rl.Configure(OptionValues{"threshold": 2}); !isInvalidOption(err) {
		t.Fatalf("expected invalid option for threshold 2, got %v", err)
	}
	if _, err := rl.Configure(OptionValues{"threshold": "many"}); !isInvalidOption(err) {
		t.Fatalf("expected invalid option for non-numeric threshold, got %v", err)
	}
}

func TestInstantiateWithWrongConfigType(t *testing.T) {
	d, _ := Default().Lookup(CORSName)
	if _, err := d.Instantiate(Env{}, VerbTamperingConfig{}); !isInvalidOption(err) {
		t.Fatalf("expected invalid option, got %v", err)
	}
}

func TestOptionFlagName(t *testing.T) {
	d, _ := Default().Lookup(VerbTamperingName)
	if got := d.Options[0].FlagName(d.FlagPrefix); got != "vt-wordlist" {
		t.Fatalf("FlagName = %q, want vt-wordlist", got)
	}
}
