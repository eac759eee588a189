package util

import (
	"os"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CleanupFiles removes multiple files, ignoring errors
func CleanupFiles(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// MakeWorkspace creates a fresh directory under parent named after pattern
// (see os.MkdirTemp). An empty parent means the system temp dir.
func MakeWorkspace(parent, pattern string) (string, error) {
	if parent != "" {
		if err := EnsureDir(parent); err != nil {
			return "", err
		}
	}
	return os.MkdirTemp(parent, pattern)
}
