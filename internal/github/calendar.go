package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/gradientwolf/github-multi-dashboard/internal/core"
)

const calendarQuery = `query($login: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

type calendarResponse struct {
	Data struct {
		User struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ContributionCalendar queries the calendar-graph endpoint for one user and
// year. It reports ok=false whenever the source cannot serve the request:
// no credential, non-2xx status, application-level errors, or transport
// failure. Success flattens weeks into a per-day map, keeping explicit zero
// days since the source reports every day in range.
func (c *Client) ContributionCalendar(ctx context.Context, username string, year int) (core.ContributionMap, bool) {
	if c.token == "" {
		return nil, false
	}

	key := fmt.Sprintf("graphql:contributions:%s:%d", username, year)

	payload, cached := c.cachedCalendar(key)
	if !cached {
		var err error
		payload, err = c.queryCalendar(ctx, username, year)
		if err != nil {
			c.log.Warn("contribution calendar unavailable",
				zap.String("user", username), zap.Int("year", year), zap.Error(err))
			return nil, false
		}
	}

	var resp calendarResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.log.Warn("contribution calendar decode failed",
			zap.String("user", username), zap.Error(err))
		return nil, false
	}
	if len(resp.Errors) > 0 {
		c.log.Warn("contribution calendar query rejected",
			zap.String("user", username), zap.String("message", resp.Errors[0].Message))
		return nil, false
	}
	if !cached {
		c.cache.Put(key, payload, http.StatusOK)
	}

	m := core.ContributionMap{}
	for _, week := range resp.Data.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			m[day.Date] = day.ContributionCount
		}
	}
	return m, true
}

func (c *Client) cachedCalendar(key string) (json.RawMessage, bool) {
	e, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return e.Payload, true
}

func (c *Client) queryCalendar(ctx context.Context, username string, year int) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"query": calendarQuery,
		"variables": map[string]any{
			"login": username,
			"from":  fmt.Sprintf("%d-01-01T00:00:00Z", year),
			"to":    fmt.Sprintf("%d-12-31T23:59:59Z", year),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, URL: c.graphqlURL}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return payload, nil
}
