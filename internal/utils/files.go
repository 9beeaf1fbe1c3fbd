package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// Standard default permissions
// File: u=rw, g=rw, o=r
const PermFile os.FileMode = 0664

// Dir:  u=rwx, g=rwx, o=rx (Requires +x to traverse)
const PermDir os.FileMode = 0775

// Exec: u=rwx, g=rwx, o=rx. Run scripts and submitJobs.sh are written with this mode.
const PermExec os.FileMode = 0775

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir checks if a directory exists, and creates it if it doesn't.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, PermDir)
}

// WriteExecutable writes content to path and marks it executable (PermExec).
// An existing file is overwritten, so re-running a sweep refreshes its scripts.
func WriteExecutable(path, content string) error {
	if err := os.WriteFile(path, []byte(content), PermFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile does not change the mode of an existing file, so chmod explicitly.
	if err := os.Chmod(path, PermExec); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic writes content to a temporary sibling and renames it over path.
func WriteFileAtomic(path string, content []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, PermFile); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// AbsPath returns the absolute form of path, or path unchanged if it cannot be resolved.
func AbsPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
