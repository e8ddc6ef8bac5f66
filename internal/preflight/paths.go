package preflight

import (
	"os"
	"path/filepath"
)

// nearestExisting walks up from path to the first directory that exists.
func nearestExisting(path string) string {
	if path == "" {
		return ""
	}
	current := filepath.Clean(path)
	for {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}
