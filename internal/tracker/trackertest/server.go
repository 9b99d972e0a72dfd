// Package trackertest provides an in-memory tracking API for tests.
package trackertest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/nautwatch/internal/tracker"
)

// Server is a fake tracking API enforcing unique local paths.
type Server struct {
	srv *httptest.Server

	mu           sync.Mutex
	projects     []tracker.Project
	nextID       int64
	findCalls    int
	createCalls  int
	findStatus   int
	createStatus int
	createDelay  time.Duration
	listAll      bool
	requestIDs   []string
}

// NewServer starts a fake API and stops it when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()

	s := &Server{nextID: 1}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/projects", s.handleList)
	e.POST("/projects", s.handleCreate)

	s.srv = httptest.NewServer(e)
	tb.Cleanup(s.srv.Close)
	return s
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// Seed stores a project as if created earlier.
func (s *Server) Seed(p tracker.Project) tracker.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.projects = append(s.projects, p)
	return p
}

// Projects returns a copy of every stored project.
func (s *Server) Projects() []tracker.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tracker.Project(nil), s.projects...)
}

// FindCalls returns the number of GET /projects requests served.
func (s *Server) FindCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls
}

// CreateCalls returns the number of POST /projects requests served.
func (s *Server) CreateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls
}

// RequestIDs returns the X-Request-ID headers seen, in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// FailFind makes GET /projects answer with status; 0 restores normal
// behavior.
func (s *Server) FailFind(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findStatus = status
}

// FailCreate makes POST /projects answer with status; 0 restores normal
// behavior.
func (s *Server) FailCreate(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createStatus = status
}

// DelayCreate stalls POST /projects before answering.
func (s *Server) DelayCreate(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createDelay = d
}

// IgnoreLocalPathFilter makes GET /projects list every project regardless
// of the local_path query, like a server without filtering support.
func (s *Server) IgnoreLocalPathFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listAll = true
}

func (s *Server) handleList(c echo.Context) error {
	s.mu.Lock()
	s.findCalls++
	s.requestIDs = append(s.requestIDs, c.Request().Header.Get(tracker.HeaderRequestID))
	if s.findStatus != 0 {
		status := s.findStatus
		s.mu.Unlock()
		return c.JSON(status, map[string]string{"message": "injected failure"})
	}

	localPath, filter := c.QueryParams()["local_path"]
	matches := []tracker.Project{}
	for _, p := range s.projects {
		if s.listAll || !filter || p.LocalPath == localPath[0] {
			matches = append(matches, p)
		}
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, matches)
}

func (s *Server) handleCreate(c echo.Context) error {
	var req tracker.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
	}

	s.mu.Lock()
	s.createCalls++
	s.requestIDs = append(s.requestIDs, c.Request().Header.Get(tracker.HeaderRequestID))
	delay := s.createDelay
	status := s.createStatus
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}
	if status != 0 {
		return c.JSON(status, map[string]string{"message": "injected failure"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Project name is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.LocalPath == req.LocalPath {
			return c.JSON(http.StatusConflict, map[string]string{"message": "Project with this local path already exists"})
		}
	}
	p := tracker.Project{
		ID:        s.nextID,
		Name:      req.Name,
		LocalPath: req.LocalPath,
		Concept:   req.Concept,
		Summary:   req.Summary,
		GitRepo:   req.GitRepo,
	}
	s.nextID++
	s.projects = append(s.projects, p)
	return c.JSON(http.StatusCreated, p)
}
