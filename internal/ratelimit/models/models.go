package models

import "time"

// Policy is a request budget over a sliding window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// RateLimitResult is the outcome of one budget check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in whole seconds and only set when the request is denied.
	RetryAfter int
}

// Key namespaces a client address for one limited endpoint.
func Key(endpoint, clientIP string) string {
	return "paralelogram:ratelimit:" + endpoint + ":" + clientIP
}
