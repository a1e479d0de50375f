package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Source is the upstream data access the aggregator depends on. The GitHub
// client implements it; tests substitute fakes.
type Source interface {
	Profile(ctx context.Context, username string) (Profile, error)
	// ContributionCalendar reports ok=false when the calendar-graph endpoint
	// cannot serve the request (missing credential, upstream failure).
	ContributionCalendar(ctx context.Context, username string, year int) (ContributionMap, bool)
	Repositories(ctx context.Context, username string) ([]Repository, error)
	Commits(ctx context.Context, username, repo string, since, until time.Time) ([]Commit, error)
}

type Aggregator struct {
	src Source
	log *zap.Logger

	repoScanLimit int
	commitDelay   time.Duration
	sleep         func(time.Duration)
}

func NewAggregator(src Source, log *zap.Logger, repoScanLimit int, commitDelay time.Duration) *Aggregator {
	if repoScanLimit <= 0 {
		repoScanLimit = 5
	}
	return &Aggregator{
		src:           src,
		log:           log,
		repoScanLimit: repoScanLimit,
		commitDelay:   commitDelay,
		sleep:         time.Sleep,
	}
}

// Contributions resolves one user's per-day counts for a year. It never
// fails: the calendar-graph source wins when available, otherwise commits are
// enumerated from the most recently updated repositories, otherwise the map
// is empty. An empty map is an honest answer, never a fabricated one.
func (a *Aggregator) Contributions(ctx context.Context, username string, year int) ContributionMap {
	if m, ok := a.src.ContributionCalendar(ctx, username, year); ok {
		return m
	}

	repos, err := a.src.Repositories(ctx, username)
	if err != nil {
		a.log.Warn("repository listing failed, treating year as empty",
			zap.String("user", username), zap.Int("year", year), zap.Error(err))
		return ContributionMap{}
	}
	if len(repos) == 0 {
		return ContributionMap{}
	}

	// Upstream returns repositories in updated order; scanning only the most
	// recent few keeps request volume bounded at the cost of undercounting
	// activity in older repositories.
	if len(repos) > a.repoScanLimit {
		repos = repos[:a.repoScanLimit]
	}

	since := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	counts := ContributionMap{}
	for i, repo := range repos {
		if i > 0 && a.commitDelay > 0 {
			a.sleep(a.commitDelay)
		}
		commits, err := a.src.Commits(ctx, username, repo.Name, since, until)
		if err != nil {
			a.log.Warn("commit fetch failed, skipping repository",
				zap.String("user", username), zap.String("repo", repo.Name), zap.Error(err))
			continue
		}
		for _, c := range commits {
			if c.AuthoredAt.IsZero() || c.AuthoredAt.Year() != year {
				continue
			}
			counts[c.AuthoredAt.Format(DateFormat)]++
		}
	}

	if len(counts) == 0 {
		return ContributionMap{}
	}
	return counts
}

// YearData is one year's merged activity across all users.
type YearData struct {
	Year     int                        `json:"year"`
	Combined ContributionMap            `json:"combined"`
	PerUser  map[string]ContributionMap `json:"perUser"`
	Total    int                        `json:"total"`
}

// DashboardData is the complete payload a presentation layer renders from.
type DashboardData struct {
	Profiles      []Profile      `json:"profiles"`
	Years         []YearData     `json:"years"`
	PerUserTotals map[string]int `json:"perUserTotals"`
	GrandTotal    int            `json:"grandTotal"`
	Notices       []string       `json:"notices,omitempty"`
}

// LoadAllYears fetches and merges contributions for every (user, year) pair,
// sequentially. Years whose combined total is zero are dropped from the
// output list; their zero still counts toward the grand total.
func (a *Aggregator) LoadAllYears(ctx context.Context, users []string, years []int) ([]YearData, map[string]int, int) {
	perUserTotals := make(map[string]int, len(users))
	for _, user := range users {
		perUserTotals[user] = 0
	}

	var out []YearData
	var grandTotal int

	for _, year := range years {
		yd := YearData{
			Year:     year,
			Combined: ContributionMap{},
			PerUser:  make(map[string]ContributionMap, len(users)),
		}
		for _, user := range users {
			m := a.Contributions(ctx, user, year)
			yd.PerUser[user] = m
			MergeInto(yd.Combined, m)
			perUserTotals[user] += CountContributions(m)
		}
		yd.Total = CountContributions(yd.Combined)
		grandTotal += yd.Total

		if yd.Total > 0 {
			out = append(out, yd)
		} else {
			a.log.Info("dropping year with no combined activity", zap.Int("year", year))
		}
	}

	return out, perUserTotals, grandTotal
}

// LoadProfiles resolves the configured roster. A missing user aborts the
// whole load; a rate-limited lookup degrades to a zeroed placeholder profile
// and a notice for the caller to surface.
func (a *Aggregator) LoadProfiles(ctx context.Context, users []string) ([]Profile, []string, error) {
	profiles := make([]Profile, 0, len(users))
	var notices []string

	for _, user := range users {
		p, err := a.src.Profile(ctx, user)
		switch {
		case err == nil:
			profiles = append(profiles, p)
		case errors.Is(err, ErrRateLimited):
			a.log.Warn("profile fetch rate limited, using placeholder", zap.String("user", user))
			profiles = append(profiles, Profile{Login: user, Name: user})
			notices = append(notices, fmt.Sprintf("rate limited fetching %s; showing partial data", user))
		default:
			return nil, nil, fmt.Errorf("load profile %s: %w", user, err)
		}
	}

	return profiles, notices, nil
}

// LoadDashboard runs a full load cycle: profiles first (the only fatal
// phase), then every year's contributions.
func (a *Aggregator) LoadDashboard(ctx context.Context, users []string, years []int) (*DashboardData, error) {
	profiles, notices, err := a.LoadProfiles(ctx, users)
	if err != nil {
		return nil, err
	}

	yearData, perUserTotals, grandTotal := a.LoadAllYears(ctx, users, years)

	return &DashboardData{
		Profiles:      profiles,
		Years:         yearData,
		PerUserTotals: perUserTotals,
		GrandTotal:    grandTotal,
		Notices:       notices,
	}, nil
}
