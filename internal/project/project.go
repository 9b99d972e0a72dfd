package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/nautwatch/internal/pathmap"
)

// Rule identifies which classification rule produced a candidate.
type Rule string

const (
	// RuleNone means the path is not a project signal.
	RuleNone Rule = "none"

	// RuleProjectDir matches a directory directly under the watch root.
	RuleProjectDir Rule = "project_dir"

	// RuleConceptFile matches <root>/<project>/docs/{concept,readme}.md.
	RuleConceptFile Rule = "concept_file"
)

// DocsDir is the directory holding concept documents.
const DocsDir = "docs"

// conceptNames lists accepted concept file names, lowercased, in precedence
// order.
var conceptNames = []string{"concept.md", "readme.md"}

// Candidate is a directory that plausibly represents a new project. It is
// built by the Classifier, completed by the registrar and never persisted.
type Candidate struct {
	// Name is the directory base name, used as the project name.
	Name string

	// ContainerPath is the directory as seen by this process.
	ContainerPath string

	// HostPath is the directory as recorded by the tracking API.
	HostPath string

	// ConceptText is the concept document content, once read.
	ConceptText string

	// ConceptFile is the container path of the document read.
	ConceptFile string

	// Summary is the first paragraph of the concept, if any.
	Summary string

	// GitRepo is the origin remote URL, if the directory is a repository.
	GitRepo string
}

// Classifier maps debounced paths to candidate project directories.
type Classifier struct {
	root pathmap.Root
	stat func(string) (os.FileInfo, error)
}

// NewClassifier creates a classifier for root.
func NewClassifier(root pathmap.Root) *Classifier {
	return &Classifier{root: root, stat: os.Stat}
}

// Classify inspects path as it exists now, not as it was when the event
// fired, and returns the candidate it implies. ok is false when the path is
// not a project signal or no longer exists.
func (c *Classifier) Classify(path string) (cand Candidate, rule Rule, ok bool) {
	path = filepath.Clean(path)
	if !c.root.Contains(path) || path == c.root.ContainerPath {
		return Candidate{}, RuleNone, false
	}

	info, err := c.stat(path)
	if err != nil {
		return Candidate{}, RuleNone, false
	}

	var dir string
	switch {
	case info.IsDir() && c.root.IsChild(path):
		dir, rule = path, RuleProjectDir
	case !info.IsDir() && IsConceptFile(path) && c.root.IsChild(filepath.Dir(filepath.Dir(path))):
		dir, rule = filepath.Dir(filepath.Dir(path)), RuleConceptFile
	default:
		return Candidate{}, RuleNone, false
	}

	if isHidden(filepath.Base(dir)) {
		return Candidate{}, RuleNone, false
	}

	hostPath, err := c.root.ToHost(dir)
	if err != nil {
		return Candidate{}, RuleNone, false
	}
	return Candidate{
		Name:          filepath.Base(dir),
		ContainerPath: dir,
		HostPath:      hostPath,
	}, rule, true
}

// IsConceptFile reports whether path names a concept document inside a
// docs directory. The file name match is case-insensitive.
func IsConceptFile(path string) bool {
	if filepath.Base(filepath.Dir(path)) != DocsDir {
		return false
	}
	return conceptRank(filepath.Base(path)) >= 0
}

// conceptRank returns the precedence of a file name, or -1.
func conceptRank(name string) int {
	lower := strings.ToLower(name)
	for i, n := range conceptNames {
		if lower == n {
			return i
		}
	}
	return -1
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
