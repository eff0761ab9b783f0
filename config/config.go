// Package config loads the small YAML configuration the ownertriebench
// command and any embedding service need: which storage backend to use,
// how aggressively to pre-size the trie's arena, and how verbose logging
// should be. Modeled on the wider iotaledger-trie.go-adjacent example
// pack's convention of a flat, yaml.v3-driven settings struct rather than
// a flag-only configuration surface.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Backend selects which storage.KVStore implementation a snapshot writes
// to or reads from.
type Backend string

const (
	BackendMemory Backend = "mem"
	BackendBadger Backend = "badger"
)

// Config is the top-level configuration document.
type Config struct {
	// Backend selects the snapshot storage implementation.
	Backend Backend `yaml:"backend"`
	// BadgerDir is the directory badger opens when Backend == BackendBadger.
	BadgerDir string `yaml:"badgerDir"`
	// ArenaSlabHint suggests how many inner forests to reserve per arena
	// slab; 0 means use the package default.
	ArenaSlabHint int `yaml:"arenaSlabHint"`
	// Verbosity is the glog -v level the command runs at.
	Verbosity int `yaml:"verbosity"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Backend:   BackendMemory,
		BadgerDir: "./ownertrie-db",
		Verbosity: 0,
	}
}

// Load reads and validates a YAML configuration file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports whether cfg is internally consistent.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendBadger:
	default:
		return errors.Newf("config: unknown backend %q", c.Backend)
	}
	if c.Backend == BackendBadger && c.BadgerDir == "" {
		return errors.New("config: badgerDir is required when backend is badger")
	}
	if c.ArenaSlabHint < 0 {
		return errors.New("config: arenaSlabHint must be >= 0")
	}
	return nil
}
