// Package trash implements trashing per the FreeDesktop.org Trash
// specification: trash directory resolution (home and per-filesystem topdir
// trashes), collision-free entry naming, .trashinfo metadata and the
// directorysizes cache.
package trash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poi-cli/poi/internal/fs"
)

// Entry is a single trashed item
type Entry struct {
	// Name is the entry's basename inside the trash's files/ directory.
	// The matching metadata file is info/<Name>.trashinfo.
	Name string

	// OriginalPath is the absolute path the item was trashed from
	OriginalPath string

	// TrashPath is where the payload now lives
	TrashPath string

	// Root is the trash directory holding the entry
	Root *Root

	// DeletedAt is the deletion timestamp, local time, second precision
	DeletedAt time.Time

	// Size is the original byte size: file size for files, recursive sum
	// for directories
	Size int64

	// IsDir indicates if this is a directory
	IsDir bool
}

// Sizer computes the byte size of a filesystem item. Swappable in tests.
type Sizer func(path string) (int64, error)

// Operation executes trash requests. A single Operation handles any number
// of sequential requests; each one re-resolves mounts and trash roots so
// that concurrent external mutation is tolerated.
type Operation struct {
	config *Config
	sizer  Sizer
	locate func(*Config, *source) (*Root, error)
}

// NewOperation creates an Operation with the given configuration
func NewOperation(cfg Config) (*Operation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Operation{
		config: &cfg,
		sizer:  fs.EntrySize,
		locate: locateTrash,
	}, nil
}

// Put moves the item at path to the appropriate trash directory:
// resolve, locate, name, write info, move, update size cache. The size
// cache step is best-effort; its failure is reported through the warning
// callback, not through the returned error.
func (o *Operation) Put(path string) (*Entry, error) {
	deletedAt := time.Now().Truncate(time.Second)

	src, err := resolveSource(path)
	if err != nil {
		return nil, err
	}

	root, err := o.locate(o.config, src)
	if err != nil {
		if !o.config.HomeFallback || !IsTrashUnavailable(err) {
			return nil, err
		}
		slog.Warn("topdir trash unavailable, falling back to home trash",
			"path", src.OriginalPath, "error", err)
		root, err = homeTrash(o.config, src)
		if err != nil {
			return nil, err
		}
	}

	size, err := o.sizer(src.OriginalPath)
	if err != nil {
		return nil, NewOpError("measure", src.OriginalPath, err)
	}

	name, err := claimName(root, filepath.Base(src.OriginalPath), Info{
		Path:         src.OriginalPath,
		DeletionDate: deletedAt,
	})
	if err != nil {
		return nil, NewOpError("name", src.OriginalPath, err)
	}

	dst := filepath.Join(root.FilesDir(), name)
	allowCopy := root.Device != src.Device
	if err := fs.Move(src.OriginalPath, dst, allowCopy); err != nil {
		// The info file now claims a name with no payload behind it.
		// Take it back out before surfacing the error.
		if rmErr := os.Remove(infoPath(root, name)); rmErr != nil {
			slog.Warn("failed to clean up orphaned info file",
				"path", infoPath(root, name), "error", rmErr)
		}
		return nil, NewOpError("move", src.OriginalPath, classifyStatError(err))
	}

	if err := updateSizeCache(root, name, size); err != nil {
		warning := &SizeCacheWarning{Root: root.Dir, Err: err}
		slog.Warn("size cache update failed", "root", root.Dir, "error", err)
		o.config.warn(warning)
	}

	entry := &Entry{
		Name:         name,
		OriginalPath: src.OriginalPath,
		TrashPath:    dst,
		Root:         root,
		DeletedAt:    deletedAt,
		Size:         size,
		IsDir:        src.Info.IsDir(),
	}
	slog.Info("trashed",
		"path", entry.OriginalPath,
		"trash", root.Dir,
		"name", name,
		"size", size,
		"run_id", o.config.RunID)
	return entry, nil
}
