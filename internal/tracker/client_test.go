package tracker_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
	"github.com/fyrsmithlabs/nautwatch/internal/tracker"
	"github.com/fyrsmithlabs/nautwatch/internal/tracker/trackertest"
)

func newClient(t *testing.T, baseURL string, m *metrics.Metrics) *tracker.Client {
	t.Helper()
	c, err := tracker.New(tracker.Options{
		BaseURL: baseURL,
		Timeout: time.Second,
		Metrics: m,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := tracker.New(tracker.Options{})
	assert.Error(t, err)

	_, err = tracker.New(tracker.Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	_, err = tracker.New(tracker.Options{BaseURL: "http://example.com/api/"})
	assert.NoError(t, err)
}

func TestClient_FindByPath(t *testing.T) {
	api := trackertest.NewServer(t)
	api.Seed(tracker.Project{Name: "alpha", LocalPath: "/srv/projects/alpha"})
	api.Seed(tracker.Project{Name: "beta", LocalPath: "/srv/projects/beta"})
	c := newClient(t, api.URL(), nil)

	found, err := c.FindByPath(context.Background(), "/srv/projects/alpha")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alpha", found[0].Name)

	none, err := c.FindByPath(context.Background(), "/srv/projects/gamma")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestClient_FindByPath_UnfilteredResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"name":"other","local_path":"/srv/projects/other"},{"id":9,"name":"fresh","local_path":"/srv/projects/fresh"}]`))
	}))
	t.Cleanup(srv.Close)
	c := newClient(t, srv.URL, nil)

	none, err := c.FindByPath(context.Background(), "/srv/projects/new")
	require.NoError(t, err)
	assert.Empty(t, none)

	found, err := c.FindByPath(context.Background(), "/srv/projects/fresh")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(9), found[0].ID)
}

func TestClient_FindByPath_ServerError(t *testing.T) {
	api := trackertest.NewServer(t)
	api.FailFind(http.StatusInternalServerError)
	c := newClient(t, api.URL(), nil)

	_, err := c.FindByPath(context.Background(), "/srv/projects/alpha")
	require.Error(t, err)

	var statusErr *tracker.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.False(t, errors.Is(err, tracker.ErrConflict))
}

func TestClient_ErrorBodyTruncatedOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", 255) + "é" + strings.Repeat("b", 40)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv.URL, nil).FindByPath(context.Background(), "/srv/projects/alpha")
	var statusErr *tracker.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, utf8.ValidString(statusErr.Body))
	assert.Equal(t, strings.Repeat("a", 255)+"...", statusErr.Body)
}

func TestClient_Create(t *testing.T) {
	api := trackertest.NewServer(t)
	m := metrics.New()
	c := newClient(t, api.URL(), m)

	project, err := c.Create(context.Background(), tracker.CreateRequest{
		Name:      "alpha",
		LocalPath: "/srv/projects/alpha",
		Concept:   "# Alpha\n",
		GitRepo:   "git@github.com:me/alpha.git",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), project.ID)
	assert.Equal(t, "alpha", project.Name)

	stored := api.Projects()
	require.Len(t, stored, 1)
	assert.Equal(t, "# Alpha\n", stored[0].Concept)
	assert.Equal(t, "git@github.com:me/alpha.git", stored[0].GitRepo)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIRequests.WithLabelValues("create", "201")))
}

func TestClient_Create_Conflict(t *testing.T) {
	api := trackertest.NewServer(t)
	api.Seed(tracker.Project{Name: "alpha", LocalPath: "/srv/projects/alpha"})
	c := newClient(t, api.URL(), nil)

	_, err := c.Create(context.Background(), tracker.CreateRequest{Name: "alpha", LocalPath: "/srv/projects/alpha"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tracker.ErrConflict))
}

func TestClient_SendsRequestIDs(t *testing.T) {
	api := trackertest.NewServer(t)
	c := newClient(t, api.URL(), nil)

	_, err := c.FindByPath(context.Background(), "/a")
	require.NoError(t, err)
	_, err = c.FindByPath(context.Background(), "/b")
	require.NoError(t, err)

	ids := api.RequestIDs()
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestClient_Timeout(t *testing.T) {
	api := trackertest.NewServer(t)
	api.DelayCreate(2 * time.Second)

	c, err := tracker.New(tracker.Options{BaseURL: api.URL(), Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Create(context.Background(), tracker.CreateRequest{Name: "slow", LocalPath: "/slow"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := metrics.New()
	c := newClient(t, url, m)

	_, err := c.FindByPath(context.Background(), "/a")
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIRequests.WithLabelValues("find", "0")))
}

func TestClient_BasePathPreserved(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("local_path")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL+"/api/", nil)
	_, err := c.FindByPath(context.Background(), "/srv/projects/with space")
	require.NoError(t, err)
	assert.Equal(t, "/api/projects", gotPath)
	assert.Equal(t, "/srv/projects/with space", gotQuery)
}

func TestClient_RateLimitCanceled(t *testing.T) {
	api := trackertest.NewServer(t)
	c, err := tracker.New(tracker.Options{BaseURL: api.URL(), RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.FindByPath(context.Background(), "/a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FindByPath(ctx, "/b")
	assert.Error(t, err)
	assert.Equal(t, 1, api.FindCalls())
}
