package trash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/moby/sys/mountinfo"
	"github.com/samber/lo"
)

// source describes a path about to be trashed. OriginalPath is the absolute
// path as supplied by the caller; Canonical has symlinks in the parent
// directories resolved. The item itself is never dereferenced, a symlink is
// trashed as itself.
type source struct {
	OriginalPath string
	Canonical    string
	Info         os.FileInfo
	Device       uint64
}

// resolveSource classifies the path to be trashed: it must be absolute and
// exist. The returned device identifier is that of the filesystem holding
// the item itself (for a symlink, the link, not its target).
func resolveSource(path string) (*source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOpError("resolve", path, err)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return nil, NewOpError("resolve", path, classifyStatError(err))
	}

	canonical := abs
	if info.Mode()&os.ModeSymlink == 0 {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			canonical = resolved
		}
	} else {
		// Resolve the parent only; the symlink keeps its own identity.
		if parent, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
			canonical = filepath.Join(parent, filepath.Base(abs))
		}
	}

	dev, err := deviceOf(abs)
	if err != nil {
		return nil, NewOpError("resolve", path, err)
	}

	slog.Debug("resolved source",
		"path", abs,
		"canonical", canonical,
		"device", dev,
		"symlink", info.Mode()&os.ModeSymlink != 0)

	return &source{
		OriginalPath: abs,
		Canonical:    canonical,
		Info:         info,
		Device:       dev,
	}, nil
}

// classifyStatError maps a stat failure onto the error kinds callers
// dispatch on.
func classifyStatError(err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return err
	}
}

// deviceOf returns the device identifier of the filesystem holding path.
// Symlinks are not followed.
func deviceOf(path string) (uint64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, classifyStatError(err)
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("no device information for %s", path)
	}
	return uint64(stat.Dev), nil
}

// mountRootOf returns the mount point containing path, by longest-prefix
// match over the mount table. Falls back to "/" when nothing matches.
func mountRootOf(path string) (string, error) {
	mounts, err := mountinfo.GetMounts(nil)
	if err != nil {
		return "", fmt.Errorf("failed to get mount info: %w", err)
	}

	points := lo.Uniq(lo.Map(mounts, func(m *mountinfo.Info, _ int) string {
		return m.Mountpoint
	}))

	var longest string
	for _, point := range points {
		if pathHasPrefix(path, point) && len(point) > len(longest) {
			longest = point
		}
	}

	if longest == "" {
		return "/", nil
	}

	slog.Debug("found mount point", "path", path, "mountpoint", longest)
	return longest, nil
}

// pathHasPrefix reports whether path is inside root, comparing whole path
// components.
func pathHasPrefix(path, root string) bool {
	if root == "/" {
		return true
	}
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+"/")
}
