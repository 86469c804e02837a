package chunker

import (
	"errors"
	"fmt"
)

// ErrConfig marks an invalid chunker configuration. Configuration errors are
// programmer errors and fail fast at construction, before any document is
// processed.
var ErrConfig = errors.New("invalid chunker config")

// Config holds the size budget for chunk assembly. Sizes are in runes.
// Read-only after initialization.
type Config struct {
	// MaxChars is the soft upper bound on chunk content size. An atomic
	// segment larger than MaxChars still becomes its own oversized chunk.
	MaxChars int
	// OverlapChars is how many trailing runes of a closed chunk are copied
	// into the start of the next one.
	OverlapChars int
}

// DefaultConfig returns the budget used by the ingestion commands unless
// overridden.
func DefaultConfig() Config {
	return Config{MaxChars: 1000, OverlapChars: 200}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("%w: max_chars %d must be positive", ErrConfig, c.MaxChars)
	}
	if c.OverlapChars < 0 {
		return fmt.Errorf("%w: overlap_chars %d must not be negative", ErrConfig, c.OverlapChars)
	}
	if c.OverlapChars >= c.MaxChars {
		return fmt.Errorf("%w: overlap_chars %d must be smaller than max_chars %d", ErrConfig, c.OverlapChars, c.MaxChars)
	}
	return nil
}
