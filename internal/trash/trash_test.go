package trash

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestOperation returns an Operation pinned to a trash root inside the
// temp dir, so tests never depend on the host's mount layout.
func newTestOperation(t *testing.T) (*Operation, *Root) {
	t.Helper()

	root := newTestRoot(t)
	dev, err := deviceOf(root.Dir)
	if err != nil {
		t.Fatalf("Failed to get device of trash root: %v", err)
	}
	root.Device = dev

	op, err := NewOperation(Config{HomeTrashDir: root.Dir})
	if err != nil {
		t.Fatalf("NewOperation failed: %v", err)
	}
	op.locate = func(cfg *Config, src *source) (*Root, error) {
		return root, nil
	}
	return op, root
}

func createTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestPutFile(t *testing.T) {
	op, root := newTestOperation(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	createTestFile(t, src, "hello")

	before := time.Now().Truncate(time.Second)
	entry, err := op.Put(src)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if entry.Name != "doc.txt" {
		t.Errorf("Name = %q, want doc.txt", entry.Name)
	}
	if entry.OriginalPath != src {
		t.Errorf("OriginalPath = %q, want %q", entry.OriginalPath, src)
	}
	if entry.Size != 5 {
		t.Errorf("Size = %d, want 5", entry.Size)
	}
	if entry.DeletedAt.Before(before) {
		t.Errorf("DeletedAt %v is before the operation started", entry.DeletedAt)
	}

	// Payload moved
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Source should no longer exist")
	}
	got, err := os.ReadFile(filepath.Join(root.FilesDir(), "doc.txt"))
	if err != nil {
		t.Fatalf("Failed to read trashed payload: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Payload content = %q, want hello", got)
	}

	// Metadata decodes back to the exact original path
	info, err := loadInfoFile(root, "doc.txt")
	if err != nil {
		t.Fatalf("Failed to load info file: %v", err)
	}
	if info.Path != src {
		t.Errorf("Info path = %q, want %q", info.Path, src)
	}
	if !info.DeletionDate.Equal(entry.DeletedAt) {
		t.Errorf("Info date %v differs from entry date %v", info.DeletionDate, entry.DeletedAt)
	}

	// Size cache records the same size
	records, err := readSizeRecords(root.SizesPath())
	if err != nil {
		t.Fatalf("Failed to read size cache: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 size record, got %d", len(records))
	}
	if records[0].Name != "doc.txt" || records[0].Size != 5 {
		t.Errorf("Unexpected size record: %+v", records[0])
	}
}

func TestPutDirectory(t *testing.T) {
	op, root := newTestOperation(t)

	dir := t.TempDir()
	tree := filepath.Join(dir, "project")
	if err := os.MkdirAll(filepath.Join(tree, "sub"), 0o755); err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	createTestFile(t, filepath.Join(tree, "a.txt"), "aaa")
	createTestFile(t, filepath.Join(tree, "sub", "b.txt"), "bbbb")

	entry, err := op.Put(tree)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !entry.IsDir {
		t.Error("Expected IsDir")
	}
	if entry.Size != 7 {
		t.Errorf("Size = %d, want 7 (recursive sum)", entry.Size)
	}

	if _, err := os.Stat(filepath.Join(root.FilesDir(), "project", "sub", "b.txt")); err != nil {
		t.Errorf("Expected nested file in trash: %v", err)
	}

	records, err := readSizeRecords(root.SizesPath())
	if err != nil {
		t.Fatalf("Failed to read size cache: %v", err)
	}
	if len(records) != 1 || records[0].Size != 7 {
		t.Errorf("Unexpected size records: %+v", records)
	}
}

func TestPutSymlinkNotFollowed(t *testing.T) {
	op, root := newTestOperation(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	createTestFile(t, target, "target content")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	entry, err := op.Put(link)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// The link itself is trashed; its target stays put.
	if _, err := os.Stat(target); err != nil {
		t.Errorf("Target should remain: %v", err)
	}
	trashed, err := os.Lstat(filepath.Join(root.FilesDir(), entry.Name))
	if err != nil {
		t.Fatalf("Failed to lstat trashed entry: %v", err)
	}
	if trashed.Mode()&os.ModeSymlink == 0 {
		t.Error("Trashed entry should still be a symlink")
	}

	info, err := loadInfoFile(root, entry.Name)
	if err != nil {
		t.Fatalf("Failed to load info file: %v", err)
	}
	if info.Path != link {
		t.Errorf("Info path = %q, want %q", info.Path, link)
	}
}

func TestPutCollidingBasenames(t *testing.T) {
	op, root := newTestOperation(t)

	dirA := t.TempDir()
	dirB := t.TempDir()
	createTestFile(t, filepath.Join(dirA, "doc.txt"), "first")
	createTestFile(t, filepath.Join(dirB, "doc.txt"), "second!")

	entryA, err := op.Put(filepath.Join(dirA, "doc.txt"))
	if err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	entryB, err := op.Put(filepath.Join(dirB, "doc.txt"))
	if err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	if entryA.Name == entryB.Name {
		t.Fatalf("Both entries named %q", entryA.Name)
	}
	for _, entry := range []*Entry{entryA, entryB} {
		if _, err := os.Stat(filepath.Join(root.FilesDir(), entry.Name)); err != nil {
			t.Errorf("Missing payload for %s: %v", entry.Name, err)
		}
		if _, err := os.Stat(infoPath(root, entry.Name)); err != nil {
			t.Errorf("Missing info for %s: %v", entry.Name, err)
		}
	}

	records, err := readSizeRecords(root.SizesPath())
	if err != nil {
		t.Fatalf("Failed to read size cache: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 size records, got %d", len(records))
	}
}

func TestPutMissingSource(t *testing.T) {
	op, _ := newTestOperation(t)

	_, err := op.Put(filepath.Join(t.TempDir(), "nope"))
	if !IsNotFound(err) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestPutCleansUpInfoOnMoveFailure(t *testing.T) {
	op, root := newTestOperation(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	createTestFile(t, src, "hello")

	// Replace files/ with a regular file so the rename into it fails.
	if err := os.RemoveAll(root.FilesDir()); err != nil {
		t.Fatalf("Failed to remove files dir: %v", err)
	}
	if err := os.WriteFile(root.FilesDir(), []byte{}, 0o600); err != nil {
		t.Fatalf("Failed to block files dir: %v", err)
	}

	_, err := op.Put(src)
	if err == nil {
		t.Fatal("Expected Put to fail")
	}

	// Source untouched, and no orphaned metadata left behind.
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Source should be untouched: %v", err)
	}
	if _, err := os.Stat(infoPath(root, "doc.txt")); !os.IsNotExist(err) {
		t.Error("Orphaned info file left behind after failed move")
	}
}

func TestPutSizeCacheFailureIsWarning(t *testing.T) {
	root := newTestRoot(t)
	dev, err := deviceOf(root.Dir)
	if err != nil {
		t.Fatalf("Failed to get device: %v", err)
	}
	root.Device = dev

	var warnings []error
	op, err := NewOperation(Config{
		HomeTrashDir: root.Dir,
		OnWarning:    func(err error) { warnings = append(warnings, err) },
	})
	if err != nil {
		t.Fatalf("NewOperation failed: %v", err)
	}
	op.locate = func(cfg *Config, src *source) (*Root, error) {
		return root, nil
	}

	// A non-empty directory where directorysizes should live makes the
	// final rename fail, but only the cache update.
	if err := os.MkdirAll(filepath.Join(root.SizesPath(), "block"), 0o755); err != nil {
		t.Fatalf("Failed to block size cache: %v", err)
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	createTestFile(t, src, "hello")

	entry, err := op.Put(src)
	if err != nil {
		t.Fatalf("Put should succeed despite cache failure: %v", err)
	}
	if entry == nil || entry.Name != "doc.txt" {
		t.Fatalf("Unexpected entry: %+v", entry)
	}

	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(warnings))
	}
	var warning *SizeCacheWarning
	if !errors.As(warnings[0], &warning) {
		t.Fatalf("Expected SizeCacheWarning, got %T", warnings[0])
	}
}
