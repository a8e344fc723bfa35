package providers

import "strings"

// FailureReason categorizes why a provider call failed.
type FailureReason int

const (
	ReasonUnknown     FailureReason = iota
	ReasonAuth                      // 401/403 — invalid key
	ReasonRateLimit                 // 429 — rate limited
	ReasonFormat                    // bad request / invalid input
	ReasonOverloaded                // 529 — backend at capacity
	ReasonUnavailable               // 503 — temporarily unavailable
	ReasonServerError               // 500+ — transient server error
	ReasonTimeout                   // context deadline / network timeout
)

func (r FailureReason) String() string {
	switch r {
	case ReasonAuth:
		return "auth"
	case ReasonRateLimit:
		return "rate_limit"
	case ReasonFormat:
		return "format"
	case ReasonOverloaded:
		return "overloaded"
	case ReasonUnavailable:
		return "unavailable"
	case ReasonServerError:
		return "server_error"
	case ReasonTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RateLimited reports whether the provider signalled overload rather
// than a hard failure. These are never surfaced raw to callers; the
// gateway retries or fails over instead.
func (r FailureReason) RateLimited() bool {
	return r == ReasonRateLimit || r == ReasonOverloaded || r == ReasonUnavailable
}

// Retryable reports whether the same provider is worth retrying within
// one gateway call. Rate limits and plain 503s are; a 529 overload
// fails over to the next candidate immediately.
func (r FailureReason) Retryable() bool {
	return r == ReasonRateLimit || r == ReasonUnavailable
}

// ClassifyError pattern-matches on error strings and HTTP status codes
// to determine the failure reason.
func ClassifyError(err error) FailureReason {
	if err == nil {
		return ReasonUnknown
	}
	msg := err.Error()

	if containsAny(msg, "status 401", "status 403", "unauthorized", "forbidden", "invalid api key", "authentication_error") {
		return ReasonAuth
	}
	if containsAny(msg, "status 429", "rate limit", "rate_limit_error", "too many requests", "quota exceeded") {
		return ReasonRateLimit
	}
	if containsAny(msg, "status 400", "bad request", "invalid request", "malformed") {
		return ReasonFormat
	}
	if containsAny(msg, "status 529", "overloaded", "capacity") {
		return ReasonOverloaded
	}
	if containsAny(msg, "status 503", "service unavailable") {
		return ReasonUnavailable
	}
	if containsAny(msg, "status 500", "status 502", "status 504", "internal server error", "bad gateway") {
		return ReasonServerError
	}
	if containsAny(msg, "timeout", "deadline exceeded", "context canceled", "connection refused") {
		return ReasonTimeout
	}

	return ReasonUnknown
}

func containsAny(s string, patterns ...string) bool {
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
