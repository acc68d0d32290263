package fetch

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff doubles the wait from Base before each retry, capped at Max, and
// adds uniform jitter in [0, Jitter).
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter time.Duration

	// jitterFn returns a value in [0, n); nil uses math/rand.
	jitterFn func(n int64) int64
	retry    int
}

var _ backoff.BackOff = (*Backoff)(nil)

func NewBackoff(base, max, jitter time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max, Jitter: jitter}
}

// Delay is the wait before retry number n (1-based), without jitter.
func (b *Backoff) Delay(n int) time.Duration {
	if n < 1 || b.Base <= 0 {
		return 0
	}
	d := b.Base
	for i := 1; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

func (b *Backoff) NextBackOff() time.Duration {
	b.retry++
	return b.Delay(b.retry) + b.jitter()
}

func (b *Backoff) Reset() {
	b.retry = 0
}

func (b *Backoff) jitter() time.Duration {
	if b.Jitter <= 0 {
		return 0
	}
	if b.jitterFn != nil {
		return time.Duration(b.jitterFn(int64(b.Jitter)))
	}
	return time.Duration(rand.Int64N(int64(b.Jitter)))
}
