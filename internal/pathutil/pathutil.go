// internal/pathutil/pathutil.go
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeJoin joins an archive entry name onto destDir, rejecting names
// that would escape it (absolute paths, ".." traversal). Archive entry
// names are attacker-controlled input.
func SafeJoin(destDir, entryName string) (string, error) {
	name := filepath.FromSlash(entryName)
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute entry path: %s", entryName)
	}

	cleanDest := filepath.Clean(destDir)
	joined := filepath.Clean(filepath.Join(cleanDest, name))

	if joined != cleanDest && !strings.HasPrefix(joined, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry path outside destination directory: %s", entryName)
	}
	if joined == cleanDest {
		return "", fmt.Errorf("entry path resolves to destination directory: %s", entryName)
	}

	return joined, nil
}
