package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
)

// Put trashes each argument in turn. A failure aborts only that item; the
// remaining arguments are still processed and the first error is returned
// once the batch is done.
func (c *CLI) Put(args []string) error {
	slog.Debug("cli.put started", "run_id", c.runID)
	defer slog.Debug("cli.put finished")

	if len(args) == 0 {
		return errors.New("too few arguments")
	}

	var firstErr error
	for _, arg := range args {
		if err := c.putPath(arg); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", c.version.AppName, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to process %s: %w", arg, err)
			}
		}
	}
	return firstErr
}

func (c *CLI) putPath(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			if !c.option.Rm.Force {
				return fmt.Errorf("%s: no such file or directory", path)
			}
			return nil
		}
		return err
	}

	if err := c.guardPath(path); err != nil {
		return err
	}

	entry, err := c.op.Put(path)
	if err != nil {
		return err
	}

	if c.option.Rm.Verbose || c.config.Core.Verbose {
		if entry.IsDir {
			fmt.Printf("removed directory '%s' (%s)\n", path, humanize.Bytes(uint64(entry.Size)))
		} else {
			fmt.Printf("removed '%s' (%s)\n", path, humanize.Bytes(uint64(entry.Size)))
		}
	}

	return nil
}

// guardPath refuses paths that must never be trashed: the configured
// protected paths and anything matching a guard glob.
func (c *CLI) guardPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for _, p := range c.config.Guard.Protected {
		if absPath == p {
			return fmt.Errorf("cannot trash protected path: %s", path)
		}
	}

	for _, pattern := range c.config.Guard.Globs {
		g, err := glob.Compile(pattern)
		if err != nil {
			slog.Warn("skipping invalid guard glob", "pattern", pattern, "error", err)
			continue
		}
		if g.Match(absPath) {
			return fmt.Errorf("path matches guard pattern %q: %s", pattern, path)
		}
	}

	return nil
}
