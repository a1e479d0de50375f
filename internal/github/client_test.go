package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradientwolf/github-multi-dashboard/internal/cache"
	"github.com/gradientwolf/github-multi-dashboard/internal/core"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-token", cache.New(5*time.Minute), zap.NewNop())
	c.baseURL = srv.URL
	c.graphqlURL = srv.URL + "/graphql"
	return c, srv
}

func TestProfileSuccess(t *testing.T) {
	var gotAuth, gotAccept string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		assert.Equal(t, "/users/alice", r.URL.Path)
		w.Write([]byte(`{"login":"alice","name":"Alice","avatar_url":"https://a.example/x.png","bio":"hi","public_repos":4,"followers":7,"following":2}`))
	}))

	p, err := c.Profile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, core.Profile{
		Login:       "alice",
		Name:        "Alice",
		AvatarURL:   "https://a.example/x.png",
		Bio:         "hi",
		PublicRepos: 4,
		Followers:   7,
		Following:   2,
	}, p)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
}

func TestProfileFallsBackToLogin(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"alice"}`))
	}))

	p, err := c.Profile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Name)
}

func TestProfileStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		wantErr error
	}{
		{http.StatusNotFound, core.ErrNotFound},
		{http.StatusForbidden, core.ErrRateLimited},
	}
	for _, tc := range cases {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := c.Profile(context.Background(), "alice")
		assert.ErrorIs(t, err, tc.wantErr, "status %d", tc.status)
	}

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.Profile(context.Background(), "alice")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestProfileNetworkFailure(t *testing.T) {
	c := NewClient("", cache.New(time.Minute), zap.NewNop())
	c.baseURL = "http://127.0.0.1:1" // nothing listens here

	_, err := c.Profile(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestSuccessfulResponsesAreCached(t *testing.T) {
	var hits int
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"login":"alice"}`))
	}))

	_, err := c.Profile(context.Background(), "alice")
	require.NoError(t, err)
	_, err = c.Profile(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second call must be served from cache")
}

func TestFailedResponsesAreNotCached(t *testing.T) {
	var hits int
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, _ = c.Profile(context.Background(), "alice")
	_, _ = c.Profile(context.Background(), "alice")

	assert.Equal(t, 2, hits, "failures must retry on the next call")
}

func TestRepositories(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/repos", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		w.Write([]byte(`[{"name":"dotfiles","full_name":"alice/dotfiles","updated_at":"2024-05-01T10:00:00Z"},{"name":"blog","full_name":"alice/blog","updated_at":"2024-04-01T10:00:00Z"}]`))
	}))

	repos, err := c.Repositories(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "dotfiles", repos[0].Name)
	assert.Equal(t, "alice/blog", repos[1].FullName)
}

func TestRepositoriesRateLimited(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.Repositories(context.Background(), "alice")
	assert.ErrorIs(t, err, core.ErrRateLimited)
}

func TestCommits(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/dotfiles/commits", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "alice", q.Get("author"))
		assert.Equal(t, "2024-01-01T00:00:00Z", q.Get("since"))
		assert.Equal(t, "2024-12-31T23:59:59Z", q.Get("until"))
		w.Write([]byte(`[{"sha":"abc","commit":{"author":{"name":"Alice","date":"2024-03-04T09:00:00Z"}}}]`))
	}))

	commits, err := c.Commits(context.Background(), "alice", "dotfiles", since, until)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "abc", commits[0].SHA)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), commits[0].AuthoredAt)
}

func TestCommitsErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict) // empty repository
	}))

	_, err := c.Commits(context.Background(), "alice", "empty", time.Time{}, time.Time{})
	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
}
