// Package pathmap translates paths between the watcher's filesystem view and
// the host view stored by the tracking API.
package pathmap

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot indicates a path that is not under the watch root.
var ErrOutsideRoot = errors.New("path is outside the watch root")

// Root pairs the container-side watch directory with its host-side location.
// It is fixed at startup and never mutated.
type Root struct {
	// ContainerPath is the directory as seen by this process.
	ContainerPath string

	// HostPath is the same directory as the tracking API should record it.
	HostPath string
}

// NewRoot validates and cleans a root pair.
func NewRoot(containerPath, hostPath string) (Root, error) {
	if containerPath == "" {
		return Root{}, fmt.Errorf("container path is required")
	}
	if hostPath == "" {
		return Root{}, fmt.Errorf("host path is required")
	}
	if !filepath.IsAbs(containerPath) {
		return Root{}, fmt.Errorf("container path must be absolute: %s", containerPath)
	}
	return Root{
		ContainerPath: filepath.Clean(containerPath),
		HostPath:      cleanHost(hostPath),
	}, nil
}

// Rel returns p relative to the container root, using slash separators.
// The root itself yields ".".
func (r Root) Rel(p string) (string, error) {
	rel, err := filepath.Rel(r.ContainerPath, filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return rel, nil
}

// Contains reports whether p is the root or lies beneath it.
func (r Root) Contains(p string) bool {
	_, err := r.Rel(p)
	return err == nil
}

// Depth returns the number of path segments between the root and p.
// The root has depth 0 and its direct children depth 1.
func (r Root) Depth(p string) (int, error) {
	rel, err := r.Rel(p)
	if err != nil {
		return 0, err
	}
	if rel == "." {
		return 0, nil
	}
	return strings.Count(rel, "/") + 1, nil
}

// IsChild reports whether p sits directly under the root.
func (r Root) IsChild(p string) bool {
	return filepath.Dir(filepath.Clean(p)) == r.ContainerPath
}

// ToHost maps a container path under the root to the host path the tracking
// API stores.
func (r Root) ToHost(containerPath string) (string, error) {
	rel, err := r.Rel(containerPath)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return r.HostPath, nil
	}
	return joinHost(r.HostPath, rel), nil
}

// cleanHost tidies a host path without assuming it follows this OS's rules.
// Windows host roots (C:\projects) keep their separator style.
func cleanHost(p string) string {
	if strings.Contains(p, `\`) && !strings.Contains(p, "/") {
		return strings.TrimRight(p, `\`)
	}
	if p == "/" {
		return p
	}
	return path.Clean(p)
}

func joinHost(hostRoot, rel string) string {
	if strings.Contains(hostRoot, `\`) && !strings.Contains(hostRoot, "/") {
		return hostRoot + `\` + strings.ReplaceAll(rel, "/", `\`)
	}
	return path.Join(hostRoot, rel)
}
