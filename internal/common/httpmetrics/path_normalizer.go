package httpmetrics

import (
	"strings"
)

// routes whose second segment is a caller-chosen username
var parameterizedRoots = map[string]struct{}{
	"profile":  {},
	"relation": {},
}

// NormalizePath collapses path parameters so metric label cardinality stays
// bounded by the route table rather than by the set of usernames.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if isNumeric(part) {
			parts[i] = "{param}"
			continue
		}
		if i == 2 {
			if _, ok := parameterizedRoots[parts[1]]; ok {
				parts[i] = "{username}"
			}
		}
	}

	result := strings.Join(parts, "/")
	if result == "" {
		return "/"
	}
	return result
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
