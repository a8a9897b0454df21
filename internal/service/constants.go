package service

import "time"

// Timeout and limit constants for service operations
const (
	// DefaultCommandTimeout is the timeout for tracked shell commands
	DefaultCommandTimeout = 5 * time.Minute
	// DefaultAnalysisMaxTokens is the completion budget for analysis calls
	DefaultAnalysisMaxTokens = 2000
	// DefaultAnalysisTemperature is the sampling temperature for analysis calls
	DefaultAnalysisTemperature = 0.7
	// DefaultDocsFetchTimeout is the per-request timeout for registry lookups
	DefaultDocsFetchTimeout = 10 * time.Second
	// DefaultDocsCacheTTL is how long cached registry metadata stays fresh
	DefaultDocsCacheTTL = time.Hour
	// DefaultDocsRetryCount is the number of registry lookup retries
	DefaultDocsRetryCount = 3
	// DefaultDocsRetryDelay is the initial delay for registry retry backoff
	DefaultDocsRetryDelay = 500 * time.Millisecond
)
