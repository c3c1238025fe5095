package util

import (
	"os"
	"path/filepath"
	"strings"
)

// UploadsPath is the backend route under which bare asset filenames are served
const UploadsPath = "/api/uploads/"

// NormalizeAssetURL turns a backend-supplied asset reference into an absolute URL.
//
//	""                      -> ""
//	"http(s)://..."         -> unchanged
//	"/path"                 -> base + "/path"
//	"dir/file.png"          -> base + "/dir/file.png"
//	"file.png"              -> base + "/api/uploads/file.png"
//
// The result for an absolute base is itself absolute, so the function is idempotent.
func NormalizeAssetURL(base, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if hasHTTPScheme(value) {
		return value
	}

	base = strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case strings.HasPrefix(value, "/"):
		return base + value
	case strings.Contains(value, "/"):
		return base + "/" + value
	default:
		return base + UploadsPath + value
	}
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
