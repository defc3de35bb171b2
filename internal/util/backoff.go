package util

import "time"

const (
	backoffBase = time.Second
	backoffCap  = 10 * time.Second
)

// Backoff returns the capped exponential delay before retry attempt n
// (zero-based): 1s, 2s, 4s, 8s, then 10s.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := backoffBase << uint(attempt)
	if delay <= 0 || delay > backoffCap {
		return backoffCap
	}
	return delay
}
