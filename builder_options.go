package tokenindex

import (
	"github.com/rs/zerolog"

	"github.com/tamirms/tokenindex/internal/ternary"
)

// DefaultGrowBy is the row increment of a growing mutable index.
const DefaultGrowBy = ternary.DefaultGrowBy

// BuildOption is a functional option for configuring builds.
type BuildOption func(*buildConfig)

type buildConfig struct {
	caseSensitive    bool
	alphabet         string // explicit alphabet, folded when the build runs
	explicitAlphabet bool
	maxCapacity      int // -1 for no ceiling
	growBy           int
	backend          BackendID
	logger           zerolog.Logger
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		caseSensitive: false, // Header names and most protocol tokens are case-insensitive
		maxCapacity:   -1,
		growBy:        DefaultGrowBy,
		backend:       BackendAuto,
		logger:        zerolog.Nop(),
	}
}

// CaseSensitive sets whether keys are compared exactly (true) or with ASCII
// letters folded to lower case (false, the default).
func CaseSensitive(b bool) BuildOption {
	return func(c *buildConfig) {
		c.caseSensitive = b
	}
}

// WithAlphabet promises that every key uses only bytes from alphabet. The
// bytes of the initial contents are added to it. A mutable index needs this
// promise before it can use the array backend.
func WithAlphabet(alphabet string) BuildOption {
	return func(c *buildConfig) {
		c.alphabet = alphabet
		c.explicitAlphabet = true
	}
}

// WithMaxCapacity sets a row ceiling. Building fails with
// ErrInsufficientCapacity if the contents need more; a mutable index is
// sized to the ceiling and never grows. A negative n removes the ceiling.
func WithMaxCapacity(n int) BuildOption {
	return func(c *buildConfig) {
		c.maxCapacity = max(n, -1)
	}
}

// WithGrowBy sets the row increment of a mutable index with no ceiling.
// Zero fixes the index at the size of its initial contents.
func WithGrowBy(n int) BuildOption {
	return func(c *buildConfig) {
		c.growBy = max(n, 0)
	}
}

// WithBackend forces a backend instead of letting SelectBackend choose.
func WithBackend(id BackendID) BuildOption {
	return func(c *buildConfig) {
		c.backend = id
	}
}

// WithLogger sets the logger for build decisions and index growth.
// The default discards everything.
func WithLogger(logger zerolog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}
