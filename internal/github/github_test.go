package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves the endpoints the PR flow uses. failStep names a step
// that answers 422; readmeExists controls the contents lookup. The default
// branch is "trunk" unless defaultBranch is set.
type fakeGitHub struct {
	t             *testing.T
	failStep      string
	readmeExists  bool
	defaultBranch string

	mu       sync.Mutex
	calls    []string
	newRef   map[string]string
	uploaded map[string]string
	pull     map[string]string
}

func (f *fakeGitHub) base() string {
	if f.defaultBranch == "" {
		return "trunk"
	}
	return f.defaultBranch
}

func (f *fakeGitHub) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "Bearer tok", r.Header.Get("Authorization"))
	assert.Equal(f.t, "application/vnd.github+json", r.Header.Get("Accept"))

	step := ""
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/repos/o/r":
		step = "get repository"
	case r.Method == http.MethodGet && r.URL.EscapedPath() == "/repos/o/r/git/ref/heads/"+f.base():
		step = "get base ref"
	case r.Method == http.MethodPost && r.URL.Path == "/repos/o/r/git/refs":
		step = "create branch"
	case r.Method == http.MethodGet && r.URL.Path == "/repos/o/r/contents/README.md":
		step = "get readme"
	case r.Method == http.MethodPut && r.URL.Path == "/repos/o/r/contents/README.md":
		step = "upload readme"
	case r.Method == http.MethodPost && r.URL.Path == "/repos/o/r/pulls":
		step = "open pull request"
	default:
		f.t.Errorf("unexpected %s %s", r.Method, r.URL.EscapedPath())
		http.NotFound(w, r)
		return
	}
	f.record(step)

	if step == f.failStep {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch step {
	case "get repository":
		_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": f.base()})
	case "get base ref":
		_, _ = w.Write([]byte(`{"object":{"sha":"abc123"}}`))
	case "create branch":
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.newRef))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	case "get readme":
		assert.Equal(f.t, "readme-update-1700000000", r.URL.Query().Get("ref"))
		if !f.readmeExists {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"sha":"blob1"}`))
	case "upload readme":
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.uploaded))
		_, _ = w.Write([]byte(`{}`))
	case "open pull request":
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.pull))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":42,"html_url":"https://github.com/o/r/pull/42"}`))
	}
}

var runAt = time.Unix(1700000000, 0)

func newTestClient(t *testing.T, f *fakeGitHub) *Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", "o/r")
}

func TestCreateReadmePR_FullFlow(t *testing.T) {
	f := &fakeGitHub{readmeExists: true}
	c := newTestClient(t, f)

	pr, err := c.CreateReadmePR(context.Background(), "# New README\n", runAt)
	require.NoError(t, err)

	assert.Equal(t, PullRequest{Number: 42, URL: "https://github.com/o/r/pull/42", Branch: "readme-update-1700000000"}, pr)
	assert.Equal(t, []string{
		"get repository", "get base ref", "create branch", "get readme", "upload readme", "open pull request",
	}, f.calls)

	assert.Equal(t, map[string]string{"ref": "refs/heads/readme-update-1700000000", "sha": "abc123"}, f.newRef)

	decoded, err := base64.StdEncoding.DecodeString(f.uploaded["content"])
	require.NoError(t, err)
	assert.Equal(t, "# New README\n", string(decoded))
	assert.Equal(t, "readme-update-1700000000", f.uploaded["branch"])
	assert.Equal(t, "blob1", f.uploaded["sha"])

	assert.Equal(t, "readme-update-1700000000", f.pull["head"])
	assert.Equal(t, "trunk", f.pull["base"])
}

func TestCreateReadmePR_SlashedDefaultBranch(t *testing.T) {
	f := &fakeGitHub{defaultBranch: "release/v1"}
	c := newTestClient(t, f)

	_, err := c.CreateReadmePR(context.Background(), "x", runAt)
	require.NoError(t, err)
	assert.Equal(t, "get base ref", f.calls[1])
	assert.Equal(t, "release/v1", f.pull["base"])
}

func TestEscapeRef(t *testing.T) {
	assert.Equal(t, "main", escapeRef("main"))
	assert.Equal(t, "release/v1", escapeRef("release/v1"))
	assert.Equal(t, "feat/a%20b/c%23d", escapeRef("feat/a b/c#d"))
}

func TestCreateReadmePR_NoExistingReadme(t *testing.T) {
	f := &fakeGitHub{}
	c := newTestClient(t, f)

	_, err := c.CreateReadmePR(context.Background(), "x", runAt)
	require.NoError(t, err)
	_, hasSHA := f.uploaded["sha"]
	assert.False(t, hasSHA)
}

func TestCreateReadmePR_FailureAtEachStep(t *testing.T) {
	steps := []struct {
		step        string
		branchLeft  bool
		callsWanted int
	}{
		{"get repository", false, 1},
		{"get base ref", false, 2},
		{"create branch", false, 3},
		{"get readme", true, 4},
		{"upload readme", true, 5},
		{"open pull request", true, 6},
	}

	for _, tt := range steps {
		t.Run(tt.step, func(t *testing.T) {
			f := &fakeGitHub{failStep: tt.step, readmeExists: true}
			c := newTestClient(t, f)

			_, err := c.CreateReadmePR(context.Background(), "x", runAt)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.step, apiErr.Step)
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
			assert.Contains(t, apiErr.Body, "Validation Failed")
			assert.Len(t, f.calls, tt.callsWanted, "flow stops at the failing call")

			var be *BranchError
			assert.Equal(t, tt.branchLeft, errors.As(err, &be))
		})
	}
}

func TestCreateReadmePR_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL, "tok", "o/r").CreateReadmePR(context.Background(), "x", runAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get repository")
}

func TestBranchName(t *testing.T) {
	assert.Equal(t, "readme-update-1700000000", BranchName(runAt))
}
