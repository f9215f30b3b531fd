package checker

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

var (
	checkNamePattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	flagPrefixPattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
	optionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// Registry maps check names to their descriptors.
type Registry struct {
	mu       sync.RWMutex
	checks   map[string]Descriptor
	prefixes map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		checks:   make(map[string]Descriptor),
		prefixes: make(map[string]string),
	}
}

// Register validates d and adds it to the registry.
func (r *Registry) Register(d Descriptor) error {
	if err := validateDescriptor(d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[d.Name]; exists {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateCheck, d.Name)
	}
	if owner, exists := r.prefixes[d.FlagPrefix]; exists {
		return fmt.Errorf("%w: %s: flag prefix %q already used by %s", apperrors.ErrInvalidDescriptor, d.Name, d.FlagPrefix, owner)
	}
	r.checks[d.Name] = d
	r.prefixes[d.FlagPrefix] = d.Name
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.checks[name]
	return d, ok
}

// Names returns all registered check names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns all registered descriptors ordered by name.
func (r *Registry) Descriptors() []Descriptor {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.checks[name])
	}
	return out
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.checks)
}

func validateDescriptor(d Descriptor) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", apperrors.ErrInvalidDescriptor, d.Name, fmt.Sprintf(format, args...))
	}

	if !checkNamePattern.MatchString(d.Name) {
		return invalid("name must match %s", checkNamePattern)
	}
	if !flagPrefixPattern.MatchString(d.FlagPrefix) {
		return invalid("flag prefix %q must match %s", d.FlagPrefix, flagPrefixPattern)
	}
	if d.Title == "" {
		return invalid("title is required")
	}
	if d.Decode == nil || d.New == nil {
		return invalid("Decode and New are required")
	}

	seen := make(map[string]struct{}, len(d.Options))
	for _, opt := range d.Options {
		if !optionNamePattern.MatchString(opt.Name) {
			return invalid("option name %q must match %s", opt.Name, optionNamePattern)
		}
		if _, dup := seen[opt.Name]; dup {
			return invalid("option %q declared twice", opt.Name)
		}
		seen[opt.Name] = struct{}{}

		switch opt.Type {
		case OptionString, OptionInt, OptionBool, OptionStringSlice:
		default:
			return invalid("option %q has unknown type %q", opt.Name, opt.Type)
		}
		if opt.Default != nil && !opt.accepts(opt.Default) {
			return invalid("option %q default %v is not a %s", opt.Name, opt.Default, opt.Type)
		}
	}
	return nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry the built-in checks add
// themselves to.
func Default() *Registry {
	return defaultRegistry
}

// MustRegister adds d to the default registry, panicking on error.
func MustRegister(d Descriptor) {
	defaultRegistry.MustRegister(d)
}
