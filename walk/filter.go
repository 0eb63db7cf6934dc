package walk

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Include reports whether path passes the three optional rule sets.
// exts is a suffix allow-list, match patterns must accept the path,
// skip patterns must all reject it. An empty rule set places no
// constraint on its axis. Patterns are doublestar globs evaluated
// against the slash-separated form of path.
func Include(path string, exts, match, skip []string) bool {
	if len(exts) > 0 && !hasAnySuffix(path, exts) {
		return false
	}
	if len(match) > 0 && !matchAny(path, match) {
		return false
	}
	if len(skip) > 0 && matchAny(path, skip) {
		return false
	}
	return true
}

// skipped is the prune test: only skip patterns can exclude a subtree
// from traversal. Extension and match rules filter what is emitted,
// never what is walked.
func skipped(path string, skip []string) bool {
	return len(skip) > 0 && matchAny(path, skip)
}

func hasAnySuffix(path string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func matchAny(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, slashed)
		if err == nil && matched {
			return true
		}
	}
	return false
}
