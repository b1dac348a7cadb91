// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

/*
Package throttle enforces per-host politeness limits for outbound scraping.

Two invariants hold for every host:

  - No two admissions are separated by less than the host's minimum interval.
  - The admission count inside any rolling 60 s window never exceeds the
    host's RPM ceiling.

Rules match hostnames by suffix, so a rule for "example.com" also governs
"news.example.com". Hosts without a rule get the global default of 1 s
between requests at 30 RPM.
*/
package throttle

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// Rule is the politeness budget for one host.
type Rule struct {
	MinInterval time.Duration
	MaxRPM      int
}

// DefaultRule governs hosts with no explicit entry.
var DefaultRule = Rule{MinInterval: time.Second, MaxRPM: 30}

// window is the span over which MaxRPM applies.
const window = 60 * time.Second

// safetyMargin pads window-expiry sleeps so a wakeup never lands exactly on
// the boundary and re-admits early.
const safetyMargin = 50 * time.Millisecond

type hostState struct {
	mu         sync.Mutex
	lastWait   time.Time
	admissions []time.Time
}

// Throttle coordinates request pacing across concurrent callers.
type Throttle struct {
	mu    sync.Mutex
	rules map[string]Rule
	hosts map[string]*hostState

	// sleep is swappable for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// New constructs a [Throttle] with the given per-host rules. The map may be
// nil; all hosts then fall back to [DefaultRule].
func New(rules map[string]Rule) *Throttle {
	if rules == nil {
		rules = map[string]Rule{}
	}
	return &Throttle{
		rules: rules,
		hosts: map[string]*hostState{},
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// RuleFor resolves the rule for a hostname by exact match, then by suffix.
func (throttle *Throttle) RuleFor(host string) Rule {
	host = strings.ToLower(host)
	if rule, ok := throttle.rules[host]; ok {
		return rule
	}
	for suffix, rule := range throttle.rules {
		if strings.HasSuffix(host, "."+suffix) {
			return rule
		}
	}
	return DefaultRule
}

/*
Wait blocks until the URL's host may be contacted again, then records the
admission.

Description: Serialization is per host, so concurrent callers targeting
different hosts never wait on each other. Cancellation is deliberately
absent; callers bound total latency with their own fetch timeouts.
*/
func (throttle *Throttle) Wait(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return &InvalidURLError{URL: rawURL}
	}
	host := strings.ToLower(parsed.Hostname())
	rule := throttle.RuleFor(host)

	state := throttle.stateFor(host)
	state.mu.Lock()
	defer state.mu.Unlock()

	// 1. Minimum interval since the previous admission.
	if !state.lastWait.IsZero() {
		if deficit := rule.MinInterval - throttle.now().Sub(state.lastWait); deficit > 0 {
			throttle.sleep(deficit)
		}
	}

	// 2. Rolling window ceiling. Re-evaluate after each sleep since the
	// window keeps moving while we do.
	for {
		now := throttle.now()
		state.admissions = prune(state.admissions, now.Add(-window))
		if rule.MaxRPM <= 0 || len(state.admissions) < rule.MaxRPM {
			break
		}
		oldest := state.admissions[0]
		throttle.sleep(oldest.Add(window).Sub(now) + safetyMargin)
	}

	// 3. Record the admission.
	now := throttle.now()
	state.admissions = append(state.admissions, now)
	state.lastWait = now
	return nil
}

func (throttle *Throttle) stateFor(host string) *hostState {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	state, ok := throttle.hosts[host]
	if !ok {
		state = &hostState{}
		throttle.hosts[host] = state
	}
	return state
}

// prune drops admissions at or before the cutoff. The slice is ordered, so
// a single scan from the front suffices.
func prune(admissions []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(admissions) && !admissions[idx].After(cutoff) {
		idx++
	}
	return admissions[idx:]
}

// InvalidURLError reports a URL whose hostname could not be extracted.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return "throttle: cannot extract hostname from " + e.URL
}
