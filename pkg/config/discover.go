package config

import (
	"os"
	"path/filepath"
)

// FindProjectConfig walks up from dir looking for a .cpick.yaml file. The
// search stops at the filesystem root or the home directory, whichever comes
// first.
func FindProjectConfig(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
