// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit applies a token bucket per host to every outbound call.
// Institutional repositories are fragile, so the default is one request per
// second per host; hosts never block each other.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultPerSecond is the rate applied to hosts without an override.
const DefaultPerSecond = 1.0

// Limiter holds one token bucket per host. Buckets refill continuously
// from elapsed time, capped at a capacity equal to the per-second rate.
// A waiting caller proceeds as soon as its reservation matures; there is
// no fairness guarantee between callers waiting on the same host.
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*rate.Limiter
	defaultRate float64
}

// New creates a Limiter. A non-positive defaultPerSecond falls back to
// DefaultPerSecond.
func New(defaultPerSecond float64) *Limiter {
	if defaultPerSecond <= 0 {
		defaultPerSecond = DefaultPerSecond
	}
	return &Limiter{
		buckets:     make(map[string]*rate.Limiter),
		defaultRate: defaultPerSecond,
	}
}

// SetRate overrides the rate for host. Existing buckets are adjusted in place.
func (l *Limiter) SetRate(host string, perSecond float64) {
	if perSecond <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[host]; ok {
		b.SetLimit(rate.Limit(perSecond))
		b.SetBurst(burstFor(perSecond))
		return
	}
	l.buckets[host] = rate.NewLimiter(rate.Limit(perSecond), burstFor(perSecond))
}

// Acquire consumes one token from the bucket of rawURL's host, waiting
// for the computed refill time when the bucket is empty. It returns early
// only when ctx is done.
func (l *Limiter) Acquire(ctx context.Context, rawURL string) error {
	if err := l.bucket(HostOf(rawURL)).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// Rate returns the configured rate for host.
func (l *Limiter) Rate(host string) float64 {
	return float64(l.bucket(host).Limit())
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(rate.Limit(l.defaultRate), burstFor(l.defaultRate))
		l.buckets[host] = b
	}
	return b
}

// burstFor returns the bucket capacity for a rate: the rate itself,
// rounded up, and never below one token.
func burstFor(perSecond float64) int {
	return int(math.Max(1, math.Ceil(perSecond)))
}

// HostOf returns the hostname of rawURL, or rawURL itself when it does
// not parse as an absolute URL.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
