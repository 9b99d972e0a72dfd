package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// ErrNoConcept indicates the project has no concept document yet.
var ErrNoConcept = errors.New("no concept document")

// Concept is a concept document read from a project's docs directory.
type Concept struct {
	// Path is the container path of the document.
	Path string

	// Text is the document content.
	Text string
}

// ReadConcept finds and reads the concept document of the project at dir.
// docs/concept.md wins over docs/README.md; names match case-insensitively.
// A missing docs directory or document yields ErrNoConcept. Any other
// failure is returned wrapped.
func ReadConcept(dir string) (Concept, error) {
	docs := filepath.Join(dir, DocsDir)
	entries, err := os.ReadDir(docs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return Concept{}, ErrNoConcept
		}
		return Concept{}, fmt.Errorf("listing %s: %w", docs, err)
	}

	best, bestRank := "", len(conceptNames)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if rank := conceptRank(e.Name()); rank >= 0 && rank < bestRank {
			best, bestRank = e.Name(), rank
		}
	}
	if best == "" {
		return Concept{}, ErrNoConcept
	}

	path := filepath.Join(docs, best)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Concept{}, ErrNoConcept
		}
		return Concept{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Concept{Path: path, Text: string(data)}, nil
}
