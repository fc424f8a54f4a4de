package trash

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poi-cli/poi/internal/fs"
	"github.com/samber/lo"
)

// sizeRecord is one line of the directorysizes cache: the entry name, the
// total byte size of the entry, and the modification time of its .trashinfo
// file as a liveness check for external readers.
type sizeRecord struct {
	Name  string
	Size  int64
	Mtime int64
}

func (r sizeRecord) encode() string {
	return fmt.Sprintf("%s\t%d\t%d", encodePath(r.Name), r.Size, r.Mtime)
}

// parseSizeRecord parses one directorysizes line. Corrupt lines are the
// caller's problem to skip, not a fatal condition.
func parseSizeRecord(line string) (sizeRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return sizeRecord{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	name, err := decodePath(fields[0])
	if err != nil {
		return sizeRecord{}, fmt.Errorf("invalid name encoding: %w", err)
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return sizeRecord{}, fmt.Errorf("invalid size: %w", err)
	}
	mtime, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return sizeRecord{}, fmt.Errorf("invalid mtime: %w", err)
	}
	return sizeRecord{Name: name, Size: size, Mtime: mtime}, nil
}

// readSizeRecords reads the directorysizes file at path. A missing file is
// an empty cache. Unparseable lines are skipped; the cache self-heals by
// being fully rewritten on every update.
func readSizeRecords(path string) ([]sizeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []sizeRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" {
			continue
		}
		rec, err := parseSizeRecord(line)
		if err != nil {
			slog.Warn("skipping corrupt directorysizes line", "path", path, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func encodeSizeRecords(records []sizeRecord) []byte {
	var buf bytes.Buffer
	for _, rec := range records {
		buf.WriteString(rec.encode())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// errCacheStale reports that the cache file changed between our read and
// rewrite, every retry. The loser of such a race drops its update; the
// cache is advisory.
var errCacheStale = errors.New("directorysizes changed concurrently")

// cacheSnapshot captures enough of the file's identity to notice that a
// concurrent writer replaced it under us.
type cacheSnapshot struct {
	exists  bool
	size    int64
	modTime time.Time
}

func snapshotCache(path string) cacheSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return cacheSnapshot{}
	}
	return cacheSnapshot{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// updateSizeCache records the entry called name in root's directorysizes
// via read-modify-write with an atomic rename. If the file changed between
// our read and the rewrite, the snapshot is stale and the whole cycle is
// retried a few times. The window between the final check and the rename
// stays open; a lost update there is accepted, the cache is advisory.
func updateSizeCache(root *Root, name string, size int64) error {
	infoStat, err := os.Stat(infoPath(root, name))
	if err != nil {
		return fmt.Errorf("failed to stat info file: %w", err)
	}
	rec := sizeRecord{Name: name, Size: size, Mtime: infoStat.ModTime().Unix()}

	path := root.SizesPath()
	const maxRetries = 3

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		snap := snapshotCache(path)

		records, err := readSizeRecords(path)
		if err != nil {
			return err
		}

		// At most one record per entry name; drop any stale one for ours.
		records = lo.Filter(records, func(r sizeRecord, _ int) bool {
			return r.Name != rec.Name
		})
		records = append(records, rec)

		if snapshotCache(path) != snap {
			lastErr = errCacheStale
			continue
		}
		if err := fs.WriteFileAtomic(path, encodeSizeRecords(records), 0o600); err != nil {
			return err
		}
		return nil
	}
	return lastErr
}
