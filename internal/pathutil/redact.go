// Package pathutil shortens filesystem paths for user-facing messages.
package pathutil

import "path/filepath"

// RedactPath reduces a full path to .../<parent>/<basename> for error messages.
// For example, "/home/user/.countconf/config.yaml" becomes ".../.countconf/config.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}
