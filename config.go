package probemap

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLoadFactor matches the fill ratio most open addressing tables
	// with linear probing are tuned for.
	DefaultLoadFactor = 0.65

	// DefaultInitialCapacity is also the smallest capacity a table can have.
	DefaultInitialCapacity = minCapacity
)

// Config holds the construction parameters of a map. It can be decoded from
// YAML, e.g. as part of a larger service configuration document.
type Config struct {
	// InitialCapacity is rounded up to the next power of two, and to at least 8.
	InitialCapacity int `yaml:"initial_capacity"`

	// LoadFactor must lie strictly between 0 and 1.
	LoadFactor float64 `yaml:"load_factor"`

	// ReuseCursors makes every view hand out the same cursor on each
	// iteration, so traversal never allocates. Two traversals of the same
	// view can't run at the same time in this mode.
	ReuseCursors bool `yaml:"reuse_cursors"`
}

func DefaultConfig() Config {
	return Config{
		InitialCapacity: DefaultInitialCapacity,
		LoadFactor:      DefaultLoadFactor,
		ReuseCursors:    true,
	}
}

func (c Config) Validate() error {
	// Written this way to reject NaN as well.
	if !(c.LoadFactor > 0 && c.LoadFactor < 1) {
		return errors.Wrapf(ErrInvalidConfiguration, "load factor %v must be in (0, 1)", c.LoadFactor)
	}

	if c.InitialCapacity < 0 || c.InitialCapacity > MaxCapacity {
		return errors.Wrapf(ErrInvalidConfiguration, "initial capacity %d must be in [0, %d]", c.InitialCapacity, MaxCapacity)
	}

	return nil
}

// ParseConfig decodes a YAML document on top of DefaultConfig. Unknown fields
// are rejected. An empty document yields the defaults.
//
// Decode errors wrap ErrInvalidConfiguration; the yaml error itself is only
// kept as text, with the offending lines.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrapf(ErrInvalidConfiguration, "decode: %s", decodeErrorText(err))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// decodeErrorText flattens the per-field messages of a *yaml.TypeError, each
// of which names its line and field.
func decodeErrorText(err error) string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return strings.Join(typeErr.Errors, "; ")
	}

	return err.Error()
}

type options[K comparable, V comparable] struct {
	config   Config
	hashFunc HashFunc[K]
	logger   *zap.Logger
}

type Option[K comparable, V comparable] func(o *options[K, V])

// Override default hash function.
func WithHashFunc[K comparable, V comparable](f HashFunc[K]) Option[K, V] {
	return func(o *options[K, V]) {
		o.hashFunc = f
	}
}

// WithLogger sets the logger used to report table reallocations.
func WithLogger[K comparable, V comparable](logger *zap.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		o.logger = logger
	}
}

func WithInitialCapacity[K comparable, V comparable](capacity int) Option[K, V] {
	return func(o *options[K, V]) {
		o.config.InitialCapacity = capacity
	}
}

func WithLoadFactor[K comparable, V comparable](loadFactor float64) Option[K, V] {
	return func(o *options[K, V]) {
		o.config.LoadFactor = loadFactor
	}
}

func WithReuseCursors[K comparable, V comparable](reuse bool) Option[K, V] {
	return func(o *options[K, V]) {
		o.config.ReuseCursors = reuse
	}
}

// WithConfig replaces every setting covered by Config. Options given after
// it still apply on top.
func WithConfig[K comparable, V comparable](cfg Config) Option[K, V] {
	return func(o *options[K, V]) {
		o.config = cfg
	}
}
