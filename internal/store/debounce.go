package store

import "time"

// debouncedWrite runs a write action at most once per interval. This is a
// write-coalescing policy, not a durability guarantee: a skipped write is
// not an error, and callers must not assume every mutation hits the backend
// immediately.
type debouncedWrite struct {
	interval time.Duration
	last     time.Time
}

// run invokes write when the interval has elapsed since the last successful
// write, or when no write has happened yet. It reports whether the write ran.
// A failed write does not advance the timestamp, so the next call retries.
func (d *debouncedWrite) run(now time.Time, write func() error) (bool, error) {
	if !d.last.IsZero() && now.Sub(d.last) < d.interval {
		return false, nil
	}
	if err := write(); err != nil {
		return false, err
	}
	d.last = now
	return true, nil
}
