// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances virtual time on every sleep so tests never block.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time { return clock.current }

func (clock *fakeClock) Sleep(d time.Duration) {
	clock.slept = append(clock.slept, d)
	clock.current = clock.current.Add(d)
}

func (clock *fakeClock) totalSlept() time.Duration {
	var total time.Duration
	for _, d := range clock.slept {
		total += d
	}
	return total
}

func newTestThrottle(rules map[string]Rule) (*Throttle, *fakeClock) {
	clock := newFakeClock()
	throttle := New(rules)
	throttle.now = clock.Now
	throttle.sleep = clock.Sleep
	return throttle, clock
}

/*
TestRuleFor tests host rule resolution by exact match and suffix.
*/
func TestRuleFor(t *testing.T) {
	rules := map[string]Rule{
		"example.com": {MinInterval: 2 * time.Second, MaxRPM: 10},
	}
	throttle := New(rules)

	tests := []struct {
		name string
		host string
		want Rule
	}{
		{"exact_match", "example.com", rules["example.com"]},
		{"subdomain_match", "news.example.com", rules["example.com"]},
		{"case_insensitive", "News.Example.COM", rules["example.com"]},
		{"no_match_falls_back", "other.net", DefaultRule},
		{"suffix_not_substring", "badexample.com", DefaultRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, throttle.RuleFor(tt.host))
		})
	}
}

/*
TestWait_MinInterval verifies that back-to-back admissions to one host are
separated by at least the rule's minimum interval.
*/
func TestWait_MinInterval(t *testing.T) {
	throttle, clock := newTestThrottle(map[string]Rule{
		"example.com": {MinInterval: 2 * time.Second, MaxRPM: 0},
	})

	require.NoError(t, throttle.Wait("https://example.com/a"))
	assert.Empty(t, clock.slept, "first admission must not sleep")

	require.NoError(t, throttle.Wait("https://example.com/b"))
	assert.Equal(t, 2*time.Second, clock.totalSlept())
}

/*
TestWait_MinInterval_ElapsedTime verifies that time already spent elsewhere
counts against the interval.
*/
func TestWait_MinInterval_ElapsedTime(t *testing.T) {
	throttle, clock := newTestThrottle(map[string]Rule{
		"example.com": {MinInterval: 2 * time.Second, MaxRPM: 0},
	})

	require.NoError(t, throttle.Wait("https://example.com/a"))
	clock.current = clock.current.Add(1500 * time.Millisecond)

	require.NoError(t, throttle.Wait("https://example.com/b"))
	assert.Equal(t, 500*time.Millisecond, clock.totalSlept())
}

/*
TestWait_WindowCeiling verifies the rolling 60 s RPM cap: the admission past
the ceiling waits until the oldest admission ages out of the window.
*/
func TestWait_WindowCeiling(t *testing.T) {
	throttle, clock := newTestThrottle(map[string]Rule{
		"example.com": {MinInterval: 0, MaxRPM: 3},
	})

	for range 3 {
		require.NoError(t, throttle.Wait("https://example.com/"))
	}
	assert.Empty(t, clock.slept)

	first := clock.current
	require.NoError(t, throttle.Wait("https://example.com/"))

	// The fourth admission must land at least a full window after the first.
	assert.GreaterOrEqual(t, clock.current.Sub(first), 60*time.Second)
}

/*
TestWait_IndependentHosts verifies hosts do not contend with each other.
*/
func TestWait_IndependentHosts(t *testing.T) {
	throttle, clock := newTestThrottle(nil)

	require.NoError(t, throttle.Wait("https://alpha.test/"))
	require.NoError(t, throttle.Wait("https://beta.test/"))
	assert.Empty(t, clock.slept, "different hosts must not wait on each other")
}

/*
TestWait_InvalidURL tests rejection of URLs without an extractable hostname.
*/
func TestWait_InvalidURL(t *testing.T) {
	throttle, _ := newTestThrottle(nil)

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"relative_path", "/just/a/path"},
		{"garbage", "::not a url::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := throttle.Wait(tt.url)
			require.Error(t, err)
			var invalid *InvalidURLError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

/*
TestPrune tests the admission window cutoff scan.
*/
func TestPrune(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	admissions := []time.Time{base, base.Add(time.Second), base.Add(2 * time.Second)}

	got := prune(admissions, base.Add(time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, base.Add(2*time.Second), got[0])

	assert.Empty(t, prune(admissions, base.Add(time.Hour)))
	assert.Len(t, prune(admissions, base.Add(-time.Hour)), 3)
}
