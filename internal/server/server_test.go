package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradientwolf/github-multi-dashboard/internal/core"
)

type fixedSource struct {
	profileErr error
	calendar   map[int]core.ContributionMap
}

func (f *fixedSource) Profile(_ context.Context, username string) (core.Profile, error) {
	if f.profileErr != nil {
		return core.Profile{}, f.profileErr
	}
	return core.Profile{Login: username, Name: username}, nil
}

func (f *fixedSource) ContributionCalendar(_ context.Context, _ string, year int) (core.ContributionMap, bool) {
	m, ok := f.calendar[year]
	return m, ok
}

func (f *fixedSource) Repositories(context.Context, string) ([]core.Repository, error) {
	return nil, nil
}

func (f *fixedSource) Commits(context.Context, string, string, time.Time, time.Time) ([]core.Commit, error) {
	return nil, nil
}

func newTestServer(src core.Source) *httptest.Server {
	agg := core.NewAggregator(src, zap.NewNop(), 5, 0)
	s := New(agg, []string{"alice", "bob"}, []int{2024, 2023}, zap.NewNop())
	return httptest.NewServer(s.Router())
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(&fixedSource{
		calendar: map[int]core.ContributionMap{
			2024: {"2024-02-10": 3},
			2023: {},
		},
	})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Profiles []core.Profile `json:"profiles"`
		Years    []struct {
			Year  int           `json:"year"`
			Total int           `json:"total"`
			Grid  core.YearGrid `json:"grid"`
		} `json:"years"`
		PerUserTotals map[string]int `json:"perUserTotals"`
		GrandTotal    int            `json:"grandTotal"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Profiles, 2)
	require.Len(t, body.Years, 1, "the zero 2023 year must be dropped")
	assert.Equal(t, 2024, body.Years[0].Year)
	assert.Equal(t, 6, body.Years[0].Total) // two users, 3 each
	assert.Len(t, body.Years[0].Grid.Months, 12)
	assert.Equal(t, 6, body.GrandTotal)
	assert.Equal(t, map[string]int{"alice": 3, "bob": 3}, body.PerUserTotals)
}

func TestDashboardUserNotFound(t *testing.T) {
	srv := newTestServer(&fixedSource{profileErr: core.ErrNotFound})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "USER_NOT_FOUND", body.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fixedSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
