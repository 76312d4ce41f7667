package proton

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Config is protonctl's on-disk tree configuration (spec.md section 5,
// "External Interfaces"). Grounded on the teacher's yaml-tagged
// resource structs (cuemby-warren cmd/warren/apply.go).
type Config struct {
	// NetworkID scopes content addresses: two trees with different
	// NetworkID never collide even if they hold identical blocks.
	NetworkID string `yaml:"networkID"`

	// StorePath is the bbolt database file backing the tree. Empty
	// means an in-memory store.
	StorePath string `yaml:"storePath,omitempty"`

	// Extent is the maximum footprint, in bytes, a node may reach
	// before it is split.
	Extent int `yaml:"extent"`

	// Contention is the fraction of Extent a freshly split node should
	// target, in (0, 1]. Lower values split more aggressively, leaving
	// more headroom for growth before the next split.
	Contention float64 `yaml:"contention"`

	// RotationEnabled gates HKDF secret derivation (crypto.DeriveSecret)
	// versus using freshly generated, independent secrets per node.
	RotationEnabled bool `yaml:"rotationEnabled,omitempty"`

	LogLevel Level `yaml:"logLevel,omitempty"`
}

// DefaultConfig matches the scenario fixtures in spec.md section 8.
func DefaultConfig() Config {
	return Config{
		NetworkID:  "proton-default",
		Extent:     4096,
		Contention: 0.5,
		LogLevel:   InfoLevel,
	}
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, xerrors.Errorf("proton: load config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, xerrors.Errorf("proton: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.NetworkID == "" {
		return xerrors.New("proton: config: networkID must not be empty")
	}
	if c.Extent <= 0 {
		return xerrors.New("proton: config: extent must be positive")
	}
	if c.Contention <= 0 || c.Contention > 1 {
		return xerrors.New("proton: config: contention must be in (0, 1]")
	}
	return nil
}
