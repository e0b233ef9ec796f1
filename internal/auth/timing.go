package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// FailureDelay pads failed authentication attempts to a minimum duration so
// that "no such user" and "wrong password" are not told apart by latency
type FailureDelay struct {
	min    time.Duration
	jitter time.Duration
	sleep  func(time.Duration)
}

// NewFailureDelay creates a FailureDelay. A zero min disables padding.
func NewFailureDelay(min, jitter time.Duration) *FailureDelay {
	return &FailureDelay{min: min, jitter: jitter, sleep: time.Sleep}
}

// cryptoRandDuration returns a uniform duration in [0, max)
func cryptoRandDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(max))
}

// WaitFrom sleeps until at least min+jitter has elapsed since start.
// Safe to call on a nil receiver.
func (d *FailureDelay) WaitFrom(start time.Time) {
	if d == nil || d.min <= 0 {
		return
	}
	target := d.min + cryptoRandDuration(d.jitter)
	if elapsed := time.Since(start); elapsed < target {
		d.sleep(target - elapsed)
	}
}
