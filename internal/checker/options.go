package checker

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

// OptionType is the value kind of a check option.
type OptionType string

const (
	OptionString      OptionType = "string"
	OptionInt         OptionType = "int"
	OptionBool        OptionType = "bool"
	OptionStringSlice OptionType = "stringSlice"
)

// OptionSpec declares one check option.
type OptionSpec struct {
	Name    string
	Type    OptionType
	Default any
	Help    string
}

// FlagName returns the namespaced CLI flag for this option.
func (o OptionSpec) FlagName(prefix string) string {
	return prefix + "-" + o.Name
}

// DefaultValue returns the declared default, or the zero value of the type.
func (o OptionSpec) DefaultValue() any {
	if o.Default != nil {
		return o.Default
	}
	switch o.Type {
	case OptionInt:
		return 0
	case OptionBool:
		return false
	case OptionStringSlice:
		return []string{}
	default:
		return ""
	}
}

func (o OptionSpec) accepts(value any) bool {
	switch o.Type {
	case OptionString:
		_, ok := value.(string)
		return ok
	case OptionInt:
		_, ok := value.(int)
		return ok
	case OptionBool:
		_, ok := value.(bool)
		return ok
	case OptionStringSlice:
		_, ok := value.([]string)
		return ok
	}
	return false
}

type validator interface {
	Validate() error
}

// OptionValues maps option names (without prefix) to values.
type OptionValues map[string]any

// Option looks up a declared option by name.
func (d Descriptor) Option(name string) (OptionSpec, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return OptionSpec{}, false
}

// Defaults returns every option at its declared default.
func (d Descriptor) Defaults() OptionValues {
	values := make(OptionValues, len(d.Options))
	for _, opt := range d.Options {
		values[opt.Name] = opt.DefaultValue()
	}
	return values
}

// Configure overlays overrides on the declared defaults and decodes the
// result into the check's typed configuration. Options another check
// declares are rejected, so a check only ever sees its own settings.
func (d Descriptor) Configure(overrides OptionValues) (Config, error) {
	values := d.Defaults()
	for name, value := range overrides {
		if _, ok := d.Option(name); !ok {
			return nil, fmt.Errorf("%w: check %s has no option %q", apperrors.ErrInvalidOption, d.Name, name)
		}
		values[name] = value
	}

	cfg, err := d.Decode(values)
	if err != nil {
		return nil, fmt.Errorf("%w: check %s: %v", apperrors.ErrInvalidOption, d.Name, err)
	}
	if cfg == nil || cfg.CheckName() != d.Name {
		return nil, fmt.Errorf("%w: check %s decoded a configuration for another check", apperrors.ErrInvalidOption, d.Name)
	}
	if v, ok := cfg.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("check %s: %w", d.Name, err)
		}
	}
	return cfg, nil
}

// decodeOptions decodes option values into T using the `option` struct tag.
// Comma-separated strings are accepted for slice options.
func decodeOptions[T Config](values OptionValues) (Config, error) {
	var cfg T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "option",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(values)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFactory adapts a constructor taking a concrete config to Descriptor.New.
func newFactory[T Config](build func(Env, T) (Check, error)) func(Env, Config) (Check, error) {
	return func(env Env, cfg Config) (Check, error) {
		typed, ok := cfg.(T)
		if !ok {
			return nil, fmt.Errorf("%w: expected %T configuration, got %T", apperrors.ErrInvalidOption, typed, cfg)
		}
		return build(env, typed)
	}
}
