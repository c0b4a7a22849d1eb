// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Output file suffixes.
const (
	OutputSuffix = ".qpp.json"
	ErrorSuffix  = ".err.json"
	ReportSuffix = ".err.html"
)

// Permissions for created files and directories.
const (
	DirPermissions  = 0o750
	FilePermissions = 0o644
)

// Sentinel errors for file utility operations.
var (
	ErrEmptyName         = errors.New("file name cannot be empty")
	ErrNamePathTraversal = errors.New("file name contains path separator or null byte")
)

// BaseName strips directories and the final extension from source.
//
// Examples:
//   - "dir/sample.xml" -> "sample"
//   - "sample" -> "sample"
//   - "archive.tar.xml" -> "archive.tar"
func BaseName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputPath returns the path of the success file for source inside dir.
func OutputPath(dir, source string) string {
	return filepath.Join(dir, BaseName(source)+OutputSuffix)
}

// ErrorPath returns the path of the error report for source inside dir.
func ErrorPath(dir, source string) string {
	return filepath.Join(dir, BaseName(source)+ErrorSuffix)
}

// ReportPath returns the path of the HTML error report for source inside dir.
func ReportPath(dir, source string) string {
	return filepath.Join(dir, BaseName(source)+ReportSuffix)
}

// ValidateName checks that name can be used as a single path element.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrNamePathTraversal
	}
	return nil
}

// WriteAtomic writes data to path through a temporary file in the same
// directory, so readers never observe a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := ValidateName(filepath.Base(path)); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, writeErr := tmpFile.Write(data); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, FilePermissions); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "batch" -> false (name)
//   - "./batch.yaml" -> true (relative path)
//   - "/etc/qrda2qpp.yaml" -> true (absolute)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
