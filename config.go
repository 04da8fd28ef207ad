package latch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance.
var validate = validator.New()

// Config describes a Session and its Refresher.
type Config struct {
	// Interval is the time between background samples.
	Interval time.Duration `yaml:"interval" json:"interval" toml:"interval" validate:"gt=0"`

	// Seed is the initial value.
	Seed int `yaml:"seed" json:"seed" toml:"seed"`

	// Min and Max bound the random sampler, half-open: [Min, Max).
	Min int `yaml:"min" json:"min" toml:"min"`
	Max int `yaml:"max" json:"max" toml:"max" validate:"gtfield=Min"`

	// SampleFile, when set, replaces the random sampler with the latest
	// integer written to this file.
	SampleFile string `yaml:"sample_file" json:"sample_file" toml:"sample_file"`

	// Source, when its Kind is set, replaces the sampler with the latest
	// integer stored under a key in a remote store. It takes precedence
	// over SampleFile.
	Source SourceConfig `yaml:"source" json:"source" toml:"source"`
}

// SourceConfig names a remote key whose value is sampled.
type SourceConfig struct {
	// Kind is one of redis, nats, etcd, consul or zookeeper. Empty disables
	// the remote source.
	Kind string `yaml:"kind" json:"kind" toml:"kind" validate:"omitempty,oneof=redis nats etcd consul zookeeper"`

	// Address is the server address, e.g. localhost:6379 or nats://localhost:4222.
	Address string `yaml:"address" json:"address" toml:"address" validate:"required_with=Kind"`

	// Key is the key, subject key or node path holding the sample.
	Key string `yaml:"key" json:"key" toml:"key" validate:"required_with=Kind"`

	// Bucket is the JetStream KV bucket. Required for nats.
	Bucket string `yaml:"bucket" json:"bucket" toml:"bucket" validate:"required_if=Kind nats"`
}

// Remote reports whether a remote source is configured.
func (s SourceConfig) Remote() bool {
	return s.Kind != ""
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Min:      DefaultMin,
		Max:      DefaultMax,
	}
}

// LoadConfig decodes data over DefaultConfig and validates the result.
// Fields absent from data keep their defaults.
func LoadConfig(data []byte, codec Codec) (Config, error) {
	cfg := DefaultConfig()
	if err := codec.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// NewSampler returns the local sampler described by c. A file sampler keeps
// watching until ctx is canceled. Remote sources are opened by the caller
// and installed with Refresher.Sampler; when one is configured SampleFile
// is ignored and the random sampler is returned.
func (c Config) NewSampler(ctx context.Context) (Sampler, error) {
	if c.SampleFile != "" && !c.Source.Remote() {
		return NewWatchSampler(ctx, NewFileWatcher(c.SampleFile))
	}
	return NewRandomSampler(c.Min, c.Max)
}

// Build validates c and constructs a Session and a Refresher writing into it.
// The Refresher is not started. With a remote source configured no local
// sampler is opened; the caller installs the remote one before Start.
func (c Config) Build(ctx context.Context) (*Session, *Refresher, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	session := NewSession().Seed(c.Seed)
	refresher := NewRefresher(session).Interval(c.Interval)
	if c.Source.Remote() {
		return session, refresher, nil
	}

	sampler, err := c.NewSampler(ctx)
	if err != nil {
		return nil, nil, err
	}
	refresher.Sampler(sampler)
	return session, refresher, nil
}
