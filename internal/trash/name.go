package trash

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// maxNameAttempts bounds the collision retry loop. Reaching it means a
// hundred same-named entries already sit in one trash, or something is
// racing us pathologically; either way we give up.
const maxNameAttempts = 100

// candidateName produces the nth candidate entry name for an item
// originally called base: base itself, then base.1, base.2, ...
func candidateName(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, attempt)
}

// claimName picks a collision-free name for an entry in root and claims it
// by exclusively creating its .trashinfo file. The stat pre-checks are only
// an optimization; the exclusive create is what arbitrates between
// concurrent trashing processes, and a lost race simply advances to the
// next candidate.
func claimName(root *Root, base string, info Info) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := candidateName(base, attempt)

		if _, err := os.Lstat(filepath.Join(root.FilesDir(), name)); err == nil {
			continue
		}
		if _, err := os.Lstat(infoPath(root, name)); err == nil {
			continue
		}

		err := writeInfoFile(root, name, info)
		if err == nil {
			if attempt > 0 {
				slog.Debug("entry name disambiguated", "base", base, "name", name)
			}
			return name, nil
		}
		if os.IsExist(err) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w: no free name for %q in %s after %d attempts",
		ErrNameExhausted, base, root.Dir, maxNameAttempts)
}
