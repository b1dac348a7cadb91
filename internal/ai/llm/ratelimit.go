// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package llm

import (
	"sync"
	"time"
)

// rpmLimiter admits at most maxRPM calls inside any rolling 60 s window.
// Same sliding-window semantics as the scrape throttle, keyed by provider
// instead of by host.
type rpmLimiter struct {
	mu         sync.Mutex
	maxRPM     int
	admissions []time.Time

	sleep func(time.Duration)
	now   func() time.Time
}

const rpmWindow = 60 * time.Second

func newRPMLimiter(maxRPM int) *rpmLimiter {
	return &rpmLimiter{
		maxRPM: maxRPM,
		sleep:  time.Sleep,
		now:    time.Now,
	}
}

// acquire blocks until a slot is free, then records the admission.
func (limiter *rpmLimiter) acquire() {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for {
		now := limiter.now()
		cutoff := now.Add(-rpmWindow)
		idx := 0
		for idx < len(limiter.admissions) && !limiter.admissions[idx].After(cutoff) {
			idx++
		}
		limiter.admissions = limiter.admissions[idx:]

		if limiter.maxRPM <= 0 || len(limiter.admissions) < limiter.maxRPM {
			break
		}
		limiter.sleep(limiter.admissions[0].Add(rpmWindow).Sub(now) + 50*time.Millisecond)
	}

	limiter.admissions = append(limiter.admissions, limiter.now())
}
