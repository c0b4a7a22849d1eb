// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strconv"
	"strings"
)

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	// Find a user config path to suggest
	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "/go-qrda2qpp/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForInvalidXML returns a hint for inputs that are not well-formed XML.
func ForInvalidXML() string {
	return format("check the file is XML and not truncated or zipped")
}

// ForNotQRDA returns a hint for XML inputs without a QRDA-III document template.
func ForNotQRDA() string {
	return formatHints([]string{
		"the ClinicalDocument needs templateId 2.16.840.1.113883.10.20.27.1.1",
		"QRDA-I (patient level) files are not supported",
	})
}

// ForValidation returns a hint pointing at the error report for source.
func ForValidation(errPath string) string {
	if errPath == "" {
		return ""
	}
	return format("see " + errPath + " or run: qrda2qpp report " + errPath)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForWorkers returns hints for an out-of-range worker count.
func ForWorkers(limit int) string {
	return format("use a value between 0 (auto) and " + strconv.Itoa(limit))
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
