package trash

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poi-cli/poi/internal/fs"
)

const (
	// According to XDG spec
	trashInfoHeader = "[Trash Info]"
	trashInfoExt    = ".trashinfo"
	timeFormat      = "2006-01-02T15:04:05"
)

// Info represents the contents of a .trashinfo file
type Info struct {
	// Path is the original absolute path of the item
	Path string

	// DeletionDate is when the item was moved to trash, local time,
	// second precision
	DeletionDate time.Time
}

// infoPath builds the path of the .trashinfo file for the entry called name
func infoPath(root *Root, name string) string {
	return filepath.Join(root.InfoDir(), name+trashInfoExt)
}

// writeInfoFile writes info/<name>.trashinfo exclusively. The file is created
// before the payload is moved: a crash may leave metadata with no payload,
// never payload with no metadata. Creation fails with os.ErrExist when the
// name is already claimed, which the caller uses to arbitrate concurrent
// name selection.
func writeInfoFile(root *Root, name string, info Info) error {
	content := new(strings.Builder)
	fmt.Fprintln(content, trashInfoHeader)
	fmt.Fprintf(content, "Path=%s\n", encodePath(info.Path))
	fmt.Fprintf(content, "DeletionDate=%s\n", info.DeletionDate.Format(timeFormat))

	path := infoPath(root, name)
	f, err := fs.CreateExclusive(path, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(content.String()); err != nil {
		// A half-written info file claims a name it cannot back. Take it
		// back out so the name becomes usable again.
		os.Remove(path)
		return fmt.Errorf("failed to write info file: %w", err)
	}
	return nil
}

// parseInfo reads a .trashinfo file
func parseInfo(r io.Reader) (*Info, error) {
	scanner := bufio.NewScanner(r)
	info := &Info{}
	var headerFound bool

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if line == trashInfoHeader {
			headerFound = true
			continue
		}
		if !headerFound {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "Path":
			path, err := decodePath(value)
			if err != nil {
				return nil, fmt.Errorf("invalid Path encoding: %w", err)
			}
			info.Path = path

		case "DeletionDate":
			date, err := time.ParseInLocation(timeFormat, value, time.Local)
			if err != nil {
				return nil, fmt.Errorf("invalid DeletionDate format: %w", err)
			}
			info.DeletionDate = date
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading info file: %w", err)
	}

	if !headerFound {
		return nil, fmt.Errorf("missing %s header", trashInfoHeader)
	}
	if info.Path == "" {
		return nil, fmt.Errorf("missing Path field")
	}
	if info.DeletionDate.IsZero() {
		return nil, fmt.Errorf("missing DeletionDate field")
	}
	return info, nil
}

// loadInfoFile loads and parses the .trashinfo file for name
func loadInfoFile(root *Root, name string) (*Info, error) {
	f, err := os.Open(infoPath(root, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseInfo(f)
}

// encodePath percent-encodes a path for the Path key and for directorysizes
// entry names. RFC 2396 unreserved characters and the path separator pass
// through, everything else is %XX-encoded byte-wise. The Path key and the
// size cache share this single encoder so the two can never diverge.
func encodePath(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// decodePath reverses encodePath
func decodePath(s string) (string, error) {
	return url.PathUnescape(s)
}

// isUnreserved reports whether c is in the RFC 2396 unreserved set
func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
