package bar

import "time"

// NextBoundary returns the smallest multiple of interval strictly greater than t.
func NextBoundary(t time.Time, interval time.Duration) time.Time {
	return t.Truncate(interval).Add(interval)
}

// FloorBoundary returns the greatest multiple of interval not after t.
func FloorBoundary(t time.Time, interval time.Duration) time.Time {
	return t.Truncate(interval)
}
