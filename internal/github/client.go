package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/gradientwolf/github-multi-dashboard/internal/cache"
	"github.com/gradientwolf/github-multi-dashboard/internal/core"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
	defaultUserAgent  = "ghdash/0.1"
)

// ErrNetwork marks transport-level failures (no response at all), as opposed
// to upstream responses with a bad status.
var ErrNetwork = errors.New("github: network failure")

// StatusError is an upstream response outside the 2xx range that has no more
// specific mapping.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: unexpected status %d from %s", e.Status, e.URL)
}

// Client talks to the GitHub REST and GraphQL APIs. Every call goes through
// the response cache keyed by full request identity; only successful
// responses are cached, so transient failures retry on the next call.
type Client struct {
	http       *http.Client
	baseURL    string
	graphqlURL string
	token      string
	cache      *cache.Cache
	log        *zap.Logger
}

func NewClient(token string, store *cache.Cache, log *zap.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		graphqlURL: defaultGraphQLURL,
		token:      token,
		cache:      store,
		log:        log,
	}
}

type githubProfile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

type githubRepo struct {
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Profile fetches one user's profile. 404 maps to core.ErrNotFound, 403 to
// core.ErrRateLimited; anything else non-2xx is a StatusError.
func (c *Client) Profile(ctx context.Context, username string) (core.Profile, error) {
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username))

	payload, status, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return core.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		return core.Profile{}, fmt.Errorf("profile %q: %w", username, core.ErrNotFound)
	case status == http.StatusForbidden:
		return core.Profile{}, fmt.Errorf("profile %q: %w", username, core.ErrRateLimited)
	case status < 200 || status >= 300:
		return core.Profile{}, &StatusError{Status: status, URL: endpoint}
	}

	var p githubProfile
	if err := json.Unmarshal(payload, &p); err != nil {
		return core.Profile{}, fmt.Errorf("decode profile response: %w", err)
	}

	return core.Profile{
		Login:       p.Login,
		Name:        pickName(p),
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		PublicRepos: p.PublicRepos,
		Followers:   p.Followers,
		Following:   p.Following,
	}, nil
}

// Repositories lists a user's repositories in most-recently-updated order.
func (c *Client) Repositories(ctx context.Context, username string) ([]core.Repository, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=updated", c.baseURL, url.PathEscape(username))

	payload, status, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch repos: %w", err)
	}
	switch {
	case status == http.StatusForbidden:
		return nil, fmt.Errorf("repos for %q: %w", username, core.ErrRateLimited)
	case status < 200 || status >= 300:
		return nil, &StatusError{Status: status, URL: endpoint}
	}

	var repos []githubRepo
	if err := json.Unmarshal(payload, &repos); err != nil {
		return nil, fmt.Errorf("decode repos response: %w", err)
	}

	out := make([]core.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, core.Repository{
			Name:      r.Name,
			FullName:  r.FullName,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// Commits lists commits authored by username in one repository within the
// since/until window.
func (c *Client) Commits(ctx context.Context, username, repo string, since, until time.Time) ([]core.Commit, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?author=%s&since=%s&until=%s&per_page=100",
		c.baseURL,
		url.PathEscape(username),
		url.PathEscape(repo),
		url.QueryEscape(username),
		url.QueryEscape(since.UTC().Format(time.RFC3339)),
		url.QueryEscape(until.UTC().Format(time.RFC3339)),
	)

	payload, status, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch commits: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{Status: status, URL: endpoint}
	}

	var commits []githubCommit
	if err := json.Unmarshal(payload, &commits); err != nil {
		return nil, fmt.Errorf("decode commits response: %w", err)
	}

	out := make([]core.Commit, 0, len(commits))
	for _, gc := range commits {
		out = append(out, core.Commit{
			SHA:        gc.SHA,
			AuthoredAt: gc.Commit.Author.Date,
		})
	}
	return out, nil
}

// getJSON performs a cached GET. Cache hits within the TTL short-circuit the
// network entirely, returning the stored payload and status.
func (c *Client) getJSON(ctx context.Context, endpoint string) (json.RawMessage, int, error) {
	if e, ok := c.cache.Get(endpoint); ok {
		return e.Payload, e.Status, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.cache.Put(endpoint, body, resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func pickName(p githubProfile) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}
