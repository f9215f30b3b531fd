package checker

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/khanhnv2901/hapi-cli/internal/openapi"
	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// Row is one finding. Its shape is specific to the check that produced it.
type Row []any

// Result is the raw output of a single Run.
type Result []Row

// Check is the interface that all assessment modules must satisfy.
// An instance is used for exactly one Run.
type Check interface {
	// Run performs the check's requests. HTTP-level outcomes (4xx/5xx,
	// missing headers) are findings, not errors.
	Run(ctx context.Context) (Result, error)

	// Format renders a result produced by Run, including an empty one.
	Format(result Result) Section
}

// Sender is the transport capability checks depend on.
type Sender interface {
	Send(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Env holds the read-only collaborators shared by every check of a run.
type Env struct {
	Sender Sender
	Index  *openapi.Index
	Rand   *rand.Rand
	Logger *zap.SugaredLogger
}

func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = zap.NewNop().Sugar()
	}
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewPCG(0, 0))
	}
	if e.Index == nil {
		e.Index, _ = openapi.NewIndex(nil)
	}
	return e
}

// Config is a check's strongly-typed configuration, decoded once from its
// declared options.
type Config interface {
	CheckName() string
}

// Descriptor advertises a check to the registry and the CLI.
type Descriptor struct {
	// Name is the stable identifier used as registry key and CLI subcommand.
	Name string
	// Title is the human-readable module name used in reports.
	Title string
	// Summary is the one-line help text.
	Summary string
	// FlagPrefix namespaces the check's CLI flags (e.g. "vt" → --vt-wordlist).
	FlagPrefix string
	Options    []OptionSpec
	Decode     func(values OptionValues) (Config, error)
	New        func(env Env, cfg Config) (Check, error)
}

// Instantiate builds a check from a decoded configuration.
func (d Descriptor) Instantiate(env Env, cfg Config) (Check, error) {
	if cfg == nil {
		var err error
		if cfg, err = d.Configure(nil); err != nil {
			return nil, err
		}
	}
	return d.New(env.withDefaults(), cfg)
}
