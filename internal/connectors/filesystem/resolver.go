package filesystem

import (
	"path/filepath"
	"strings"
)

// ResolvePath converts a file:// URI or a bare path to a clean local path.
func ResolvePath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		uri = strings.TrimPrefix(uri, "file://")
	}
	if uri == "" {
		return ""
	}
	return filepath.Clean(uri)
}
