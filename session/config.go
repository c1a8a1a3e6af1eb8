package session

import (
	"errors"
	"fmt"
)

// DefaultMaxBlockSize is the splitting threshold used when none is configured.
const DefaultMaxBlockSize = 256

var ErrInvalidConfig = errors.New("invalid session config")

// Config represents the tunables of a Session.
type Config struct {
	// MaxBlockSize is the largest block, in runes, the translator produces.
	MaxBlockSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxBlockSize: DefaultMaxBlockSize}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MaxBlockSize <= 0 {
		return fmt.Errorf("%w: max block size must be positive, got %d", ErrInvalidConfig, c.MaxBlockSize)
	}
	return nil
}
