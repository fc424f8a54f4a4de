package trash

import (
	"fmt"
	"path/filepath"

	"github.com/poi-cli/poi/internal/env"
)

// Config holds the resolved configuration for a trash operation. Environment
// lookups happen once, in Validate, so that the rest of the call chain works
// from explicit values only.
type Config struct {
	// HomeTrashDir overrides the home trash location. When empty it is
	// resolved from $XDG_DATA_HOME/Trash, falling back to
	// ~/.local/share/Trash.
	HomeTrashDir string

	// HomeFallback retries against the home trash when a topdir trash
	// cannot be created. The resulting move may cross devices.
	HomeFallback bool

	// RunID correlates log records of a single invocation
	RunID string

	// OnWarning receives non-fatal warnings (size-cache failures).
	// When nil, warnings are logged and dropped.
	OnWarning func(error)
}

// Validate resolves defaults and checks the configuration
func (c *Config) Validate() error {
	if c.HomeTrashDir != "" {
		if !filepath.IsAbs(c.HomeTrashDir) {
			return fmt.Errorf("home trash directory must be an absolute path: %s", c.HomeTrashDir)
		}
		return nil
	}

	dataHome, err := env.DataHome()
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}
	c.HomeTrashDir = filepath.Join(dataHome, "Trash")
	return nil
}

func (c *Config) warn(err error) {
	if c.OnWarning != nil {
		c.OnWarning(err)
	}
}
