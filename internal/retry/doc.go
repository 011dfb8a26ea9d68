// Package retry provides an exponential-backoff wrapper over fallible
// operations (spec §4.2).
//
// Successive delays follow min(maxDelay, base*exponentialBase^attempt).
// Succeeding after one or more retries is logged at info; every failed
// attempt is logged at warning. RateLimited returns the specialization
// used for upstream-provider rate limiting (5 attempts, 60s base, 300s cap).
package retry
