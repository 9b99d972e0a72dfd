// Package ignore decides which entries under the watch root are never
// watched or classified.
//
// Hidden entries are always ignored. node_modules and .git are ignored
// inside project directories; a project that is itself named node_modules
// still qualifies. Further gitignore-style patterns can be listed in a .nautwatchignore file at the
// watch root or passed in from configuration.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileName is the ignore file read from the watch root.
const FileName = ".nautwatchignore"

// DefaultPatterns are ignored at any depth below a project directory,
// regardless of configuration.
var DefaultPatterns = []string{"node_modules", ".git"}

// Parser reads and parses gitignore-style files.
type Parser struct {
	// IgnoreFiles is the list of ignore file names to look for.
	IgnoreFiles []string
}

// NewParser creates a new ignore file parser for the given file names.
func NewParser(ignoreFiles ...string) *Parser {
	return &Parser{IgnoreFiles: ignoreFiles}
}

// ParseRoot reads all ignore files from root and returns their patterns.
// Missing files are not an error.
func (p *Parser) ParseRoot(root string) ([]string, error) {
	var patterns []string
	for _, ignoreFile := range p.IgnoreFiles {
		filePatterns, err := parseFile(filepath.Join(root, ignoreFile))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}
	return deduplicate(patterns), nil
}

// parseFile reads a single gitignore-style file and returns patterns.
func parseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pattern := parseLine(scanner.Text()); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// parseLine parses a single line from an ignore file.
// Returns empty string for comments, blank lines and negations.
func parseLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ""
	}
	return normalize(line)
}

// normalize strips the anchoring and directory slashes gitignore allows;
// matching is by name or root-relative path either way.
func normalize(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "/")
	return strings.TrimSuffix(pattern, "/")
}

// deduplicate removes duplicate patterns while preserving order.
func deduplicate(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

// Matcher reports whether paths under a root are ignored.
type Matcher struct {
	root     string
	builtin  []string // DefaultPatterns, matched against segments below the project level
	names    []string // patterns without a slash, matched against each segment
	prefixes []string // patterns with a slash, matched against the relative path
}

// NewMatcher builds a matcher for root from DefaultPatterns plus patterns.
// Malformed glob patterns never match.
func NewMatcher(root string, patterns ...string) *Matcher {
	m := &Matcher{root: filepath.Clean(root), builtin: DefaultPatterns}
	for _, p := range deduplicate(patterns) {
		p = normalize(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			m.prefixes = append(m.prefixes, p)
		} else {
			m.names = append(m.names, p)
		}
	}
	return m
}

// Ignored reports whether p, or any directory between the root and p, is
// ignored. The root itself and paths outside it are never ignored.
func (m *Matcher) Ignored(p string) bool {
	rel, err := filepath.Rel(m.root, filepath.Clean(p))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ".") {
			return true
		}
		if i > 0 && matchAny(m.builtin, seg) {
			return true
		}
		if matchAny(m.names, seg) {
			return true
		}
	}

	for i := range segments {
		sub := strings.Join(segments[:i+1], "/")
		for _, prefix := range m.prefixes {
			if ok, _ := path.Match(prefix, sub); ok {
				return true
			}
		}
	}
	return false
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
