package core

import (
	"errors"
	"time"
)

// DateFormat is the calendar-date key format used throughout the dashboard.
const DateFormat = "2006-01-02"

var (
	ErrNotFound    = errors.New("user not found")
	ErrRateLimited = errors.New("rate limited")
)

// ContributionMap counts contributions per calendar date (YYYY-MM-DD) for one
// user in one year. Absent dates mean zero.
type ContributionMap map[string]int

type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"publicRepos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

type Repository struct {
	Name      string
	FullName  string
	UpdatedAt time.Time
}

type Commit struct {
	SHA        string
	AuthoredAt time.Time
}

// MergeInto adds every count in src to dst and returns dst. Merging any
// number of maps in any order yields the same result.
func MergeInto(dst, src ContributionMap) ContributionMap {
	for date, count := range src {
		dst[date] += count
	}
	return dst
}

func CountContributions(m ContributionMap) int {
	var total int
	for _, count := range m {
		total += count
	}
	return total
}
