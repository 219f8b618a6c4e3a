package shared

import (
	"path/filepath"
	"strings"
)

func ToTitle(s string) string {
	if s == "" {
		return s
	}
	first := strings.ToUpper(s[:1])
	rest := s[1:]
	return first + rest
}

// SplitPath turns a relative host path into its segments. Both separators are
// accepted so the result does not depend on the host platform.
func SplitPath(rel string) []string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	rel = strings.ReplaceAll(rel, `\`, "/")

	var segments []string
	for _, part := range strings.Split(rel, "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}

// JoinSegments is the canonical segment join used for keys and artifact names.
func JoinSegments(segments []string, sep string) string {
	return strings.Join(segments, sep)
}

// TrimExt removes the last dot-delimited suffix only: "a.b.jsonc" -> "a.b".
func TrimExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
