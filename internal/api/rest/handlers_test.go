package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/prbranches/internal/github"
	"github.com/clintrovert/prbranches/internal/prbranches"
)

type fakeGitHub struct {
	data     map[string]*github.PullRequestBranches
	fetchErr error
	queries  atomic.Int32
}

func (f *fakeGitHub) PullRequestBranches(context.Context, string) (map[string]*github.PullRequestBranches, error) {
	f.queries.Add(1)
	return f.data, f.fetchErr
}

func (f *fakeGitHub) DefaultBranch(context.Context, string, string) (string, error) {
	return "main", nil
}

const upstreamPage = `<html><body>
<div class="js-issue-row" id="issue_1"><div class="text-small text-gray">#1 opened</div></div>
<div class="js-issue-row" id="issue_2"><div class="text-small text-gray">#2 opened</div></div>
</body></html>`

func testData() map[string]*github.PullRequestBranches {
	return map[string]*github.PullRequestBranches{
		"issue_1": {
			BaseRefName:    "release",
			BaseRef:        &github.RefMarker{},
			HeadRefName:    "feature",
			HeadRef:        &github.RefMarker{},
			HeadOwner:      &github.HeadOwner{Login: "acme"},
			HeadRepository: &github.HeadRepository{URL: "https://github.com/acme/repo"},
		},
		"issue_2": {
			BaseRefName: "main",
			BaseRef:     &github.RefMarker{},
			HeadRefName: "patch",
			HeadOwner:   &github.HeadOwner{Login: "other"},
		},
	}
}

func newTestServer(t *testing.T, gh *fakeGitHub, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	annotator := prbranches.NewAnnotator(gh, gh, zap.NewNop())
	handler := NewHandler(annotator, up.Client(), up.URL, zap.NewNop())

	srv := httptest.NewServer(NewRouter(handler, []string{"https://github.com"}))
	t.Cleanup(srv.Close)
	return srv
}

func servePage(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acme/repo/pulls", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, upstreamPage)
	}
}

func TestPullListAnnotatesPage(t *testing.T) {
	gh := &fakeGitHub{data: testData()}
	srv := newTestServer(t, gh, servePage(t))

	resp, err := http.Get(srv.URL + "/acme/repo/pulls?q=is%3Aopen")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(body), "issue-meta-section"))
	assert.Contains(t, string(body), `href="https://github.com/acme/repo/tree/feature"`)
	assert.Contains(t, string(body), `href="/acme/repo/tree/release"`)
	assert.Equal(t, int32(1), gh.queries.Load())
}

func TestPullListUpstreamFailure(t *testing.T) {
	gh := &fakeGitHub{data: testData()}
	srv := newTestServer(t, gh, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	resp, err := http.Get(srv.URL + "/acme/repo/pulls")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(0), gh.queries.Load())
}

func TestPullListFetchFailure(t *testing.T) {
	gh := &fakeGitHub{fetchErr: errors.New("boom")}
	srv := newTestServer(t, gh, servePage(t))

	resp, err := http.Get(srv.URL + "/acme/repo/pulls")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPullListMarkupMismatch(t *testing.T) {
	gh := &fakeGitHub{data: testData()}
	srv := newTestServer(t, gh, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><div class="js-issue-row" id="issue_1"></div></body></html>`)
	})

	resp, err := http.Get(srv.URL + "/acme/repo/pulls")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAnnotations(t *testing.T) {
	gh := &fakeGitHub{data: testData()}
	srv := newTestServer(t, gh, servePage(t))

	resp, err := http.Get(srv.URL + "/api/repos/acme/repo/annotations?ids=issue_1,issue_2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got AnnotationsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "acme/repo", got.Repository)
	require.Len(t, got.Annotations, 1)
	assert.Contains(t, string(got.Annotations["issue_1"]), "From ")
	assert.Contains(t, string(got.Annotations["issue_1"]), " into ")
}

func TestAnnotationsRejectsInvalidInput(t *testing.T) {
	gh := &fakeGitHub{data: testData()}
	srv := newTestServer(t, gh, servePage(t))

	for _, path := range []string{
		"/api/repos/acme/repo/annotations",
		"/api/repos/acme/repo/annotations?ids=issue_1,bogus",
		"/api/repos/acme/repo/annotations?ids=issue_1)%7B",
		"/api/repos/ac%22me/repo/annotations?ids=issue_1",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
	assert.Equal(t, int32(0), gh.queries.Load())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeGitHub{}, servePage(t))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
