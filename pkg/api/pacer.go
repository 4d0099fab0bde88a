package api

import (
	"context"
	"math/rand"
	"time"
)

// Pacer spaces consecutive batches: base delay plus uniform jitter in [0, jitter).
type Pacer struct {
	base    time.Duration
	jitter  time.Duration
	sleeper Sleeper
	rand    func() float64
}

// NewPacer creates a pacer. A nil sleeper uses RealSleeper.
func NewPacer(base, jitter time.Duration, sleeper Sleeper) *Pacer {
	if sleeper == nil {
		sleeper = RealSleeper
	}
	if base < 0 {
		base = 0
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Pacer{base: base, jitter: jitter, sleeper: sleeper, rand: rand.Float64}
}

// DefaultPacer waits 5s plus up to 1.5s.
func DefaultPacer(sleeper Sleeper) *Pacer {
	return NewPacer(5*time.Second, 1500*time.Millisecond, sleeper)
}

// Next returns the next pause without sleeping.
func (p *Pacer) Next() time.Duration {
	if p.jitter == 0 {
		return p.base
	}
	return p.base + time.Duration(p.rand()*float64(p.jitter))
}

// Wait sleeps for the next pause and returns it.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	d := p.Next()
	return d, p.sleeper.Sleep(ctx, d)
}
