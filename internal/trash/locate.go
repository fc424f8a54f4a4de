package trash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// RootKind tells a home trash from a per-filesystem topdir trash
type RootKind int

const (
	// KindHome is the trash under the user's data home
	KindHome RootKind = iota

	// KindTopDir is a trash rooted at the mount point of another filesystem
	KindTopDir
)

func (k RootKind) String() string {
	switch k {
	case KindHome:
		return "home"
	case KindTopDir:
		return "topdir"
	default:
		return "unknown"
	}
}

// Root is a ready-to-use trash directory. Its files/ and info/
// subdirectories exist by the time a Root is returned from locateTrash.
type Root struct {
	// Dir is the absolute root of the trash directory
	Dir string

	// Kind is home or topdir
	Kind RootKind

	// Device is the device identifier of the filesystem the root lives on
	Device uint64
}

// FilesDir returns the directory trashed payloads are moved into
func (r *Root) FilesDir() string {
	return filepath.Join(r.Dir, "files")
}

// InfoDir returns the directory .trashinfo files are written into
func (r *Root) InfoDir() string {
	return filepath.Join(r.Dir, "info")
}

// SizesPath returns the path of the directorysizes cache file
func (r *Root) SizesPath() string {
	return filepath.Join(r.Dir, "directorysizes")
}

// locateTrash determines the trash root responsible for src and ensures its
// directory structure exists. Roots are resolved fresh per operation.
func locateTrash(cfg *Config, src *source) (*Root, error) {
	homeDev, err := homeDevice()
	if err != nil {
		return nil, NewOpError("locate", src.OriginalPath, err)
	}

	if src.Device == homeDev {
		return homeTrash(cfg, src)
	}

	topdir, err := mountRootOf(src.Canonical)
	if err != nil {
		return nil, NewOpError("locate", src.OriginalPath,
			fmt.Errorf("%w: %v", ErrTrashUnavailable, err))
	}
	return topdirTrash(src, topdir)
}

// homeDevice returns the device identifier the home trash would live on
func homeDevice() (uint64, error) {
	// The trash root itself may not exist yet; the home directory does.
	home, err := os.UserHomeDir()
	if err != nil {
		return 0, fmt.Errorf("failed to get home directory: %w", err)
	}
	return deviceOf(home)
}

func homeTrash(cfg *Config, src *source) (*Root, error) {
	root := cfg.HomeTrashDir
	if err := ensureTrashDirs(root); err != nil {
		return nil, NewOpError("locate", src.OriginalPath, err)
	}

	// The home trash must never be world-writable. A pre-existing root with
	// loose permissions is tightened rather than rejected.
	if info, err := os.Lstat(root); err == nil && info.Mode().Perm()&0o002 != 0 {
		slog.Warn("home trash is world-writable, tightening", "root", root)
		if err := os.Chmod(root, 0o700); err != nil {
			return nil, NewOpError("locate", src.OriginalPath,
				fmt.Errorf("%w: %v", ErrTrashUnavailable, err))
		}
	}

	dev, err := deviceOf(root)
	if err != nil {
		return nil, NewOpError("locate", src.OriginalPath, err)
	}
	return &Root{Dir: root, Kind: KindHome, Device: dev}, nil
}

func topdirTrash(src *source, topdir string) (*Root, error) {
	uid := os.Getuid()

	// $topdir/.Trash is shared between users and only trusted when it
	// passes the anti-tamper checks. Anything else means fall through to
	// the per-user $topdir/.Trash-$uid.
	shared := filepath.Join(topdir, ".Trash")
	root := filepath.Join(topdir, fmt.Sprintf(".Trash-%d", uid))
	if info, err := os.Lstat(shared); err == nil && sharedTrashUsable(info) {
		root = filepath.Join(shared, strconv.Itoa(uid))
	}

	if err := ensureTrashDirs(root); err != nil {
		return nil, NewOpError("locate", src.OriginalPath, err)
	}
	dev, err := deviceOf(root)
	if err != nil {
		return nil, NewOpError("locate", src.OriginalPath, err)
	}
	return &Root{Dir: root, Kind: KindTopDir, Device: dev}, nil
}

// sharedTrashUsable is the anti-tamper predicate for $topdir/.Trash: it must
// be a real directory (not a symlink) with the sticky bit set, and must not
// be group- or world-writable without the sticky bit. Pure over the stat
// result so it can be tested with synthetic inputs.
func sharedTrashUsable(info os.FileInfo) bool {
	if !info.IsDir() {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	// Group/world-writable is the normal shape for a shared trash (1777),
	// but only with the sticky bit; without it anyone could swap entries.
	return info.Mode()&os.ModeSticky != 0
}

// ensureTrashDirs creates root, root/files and root/info with mode 0700.
// Idempotent: pre-existing structure is reused, never a failure.
func ensureTrashDirs(root string) error {
	for _, dir := range []string{root, filepath.Join(root, "files"), filepath.Join(root, "info")} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: failed to create %s: %v", ErrTrashUnavailable, dir, err)
		}
	}
	slog.Debug("trash directory ready", "root", root)
	return nil
}
