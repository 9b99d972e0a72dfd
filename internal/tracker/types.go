package tracker

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConflict indicates the API already holds a project with the same
// local path.
var ErrConflict = errors.New("project with this local path already exists")

// Project is a tracking API project record. Only the fields nautwatch reads
// or writes are modeled; the API returns more.
type Project struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LocalPath string `json:"local_path"`
	Concept   string `json:"concept,omitempty"`
	Summary   string `json:"summary,omitempty"`
	GitRepo   string `json:"git_repo,omitempty"`
}

// CreateRequest is the body of POST /projects.
type CreateRequest struct {
	Name      string `json:"name"`
	LocalPath string `json:"local_path"`
	Concept   string `json:"concept"`
	Summary   string `json:"summary,omitempty"`
	GitRepo   string `json:"git_repo,omitempty"`
}

// StatusError is returned when the API answers with an unexpected status.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrConflict) match a 409 response.
func (e *StatusError) Is(target error) bool {
	return target == ErrConflict && e.StatusCode == http.StatusConflict
}
