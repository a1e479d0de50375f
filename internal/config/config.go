package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the dashboard needs from the environment. The
// token is optional: without it the calendar-graph source is disabled and
// contributions fall back to commit enumeration.
type Config struct {
	Token string

	Users []string
	Years []int

	RepoScanLimit int
	CommitDelay   time.Duration
	CacheTTL      time.Duration

	Addr string
}

// Default two-account roster; override with GHDASH_USERS.
const defaultUsers = "octocat,defunkt"

func Load(envFiles ...string) (*Config, error) {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load(envFiles...)

	users := splitList(getEnvWithDefault("GHDASH_USERS", defaultUsers))
	if len(users) == 0 {
		return nil, fmt.Errorf("GHDASH_USERS must name at least one user")
	}

	years, err := parseYears(os.Getenv("GHDASH_YEARS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Token:         os.Getenv("GHDASH_TOKEN"),
		Users:         users,
		Years:         years,
		RepoScanLimit: getEnvAsInt("GHDASH_REPO_SCAN_LIMIT", 5),
		CommitDelay:   getEnvAsDuration("GHDASH_COMMIT_DELAY", 300*time.Millisecond),
		CacheTTL:      getEnvAsDuration("GHDASH_CACHE_TTL", 5*time.Minute),
		Addr:          getEnvWithDefault("GHDASH_ADDR", ":8080"),
	}, nil
}

// parseYears reads a comma list of years, defaulting to the current calendar
// year and the one before it.
func parseYears(raw string) ([]int, error) {
	if raw == "" {
		current := time.Now().Year()
		return []int{current, current - 1}, nil
	}

	var years []int
	for _, part := range splitList(raw) {
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("GHDASH_YEARS: invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return duration
}
