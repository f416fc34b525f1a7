package scheduler

import (
	"testing"
	"time"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

func testScheduleConfig() *config.ScheduleConfig {
	return &config.ScheduleConfig{
		QuietStart:        config.ClockTime{Hour: 8},
		QuietEnd:          config.ClockTime{Hour: 20},
		WarmupStart:       config.ClockTime{Hour: 12},
		WarmupEnd:         config.ClockTime{Hour: 19},
		ChannelsPerDay:    15,
		JoinDelay:         7 * time.Minute,
		DefaultWarmupDays: 7,
		ScanInterval:      time.Minute,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestPolicyQuietPeriod(t *testing.T) {
	p := NewPolicy(testScheduleConfig())

	cases := []struct {
		name  string
		t     time.Time
		quiet bool
	}{
		{"before start", at(7, 59), false},
		{"at start", at(8, 0), true},
		{"midday", at(14, 30), true},
		{"just before end", at(19, 59), true},
		{"at end", at(20, 0), false},
		{"night", at(2, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.InQuietPeriod(tc.t); got != tc.quiet {
				t.Errorf("InQuietPeriod(%v) = %v, want %v", tc.t, got, tc.quiet)
			}
		})
	}
}

func TestPolicyQuietPeriodWrapsMidnight(t *testing.T) {
	cfg := testScheduleConfig()
	cfg.QuietStart = config.ClockTime{Hour: 22}
	cfg.QuietEnd = config.ClockTime{Hour: 6}
	p := NewPolicy(cfg)

	if !p.InQuietPeriod(at(23, 0)) {
		t.Error("expected 23:00 to be quiet")
	}
	if !p.InQuietPeriod(at(3, 0)) {
		t.Error("expected 03:00 to be quiet")
	}
	if p.InQuietPeriod(at(12, 0)) {
		t.Error("expected 12:00 to be outside the quiet period")
	}
}

func TestPolicyWarmupWindow(t *testing.T) {
	p := NewPolicy(testScheduleConfig())

	if p.InWarmupWindow(at(11, 59)) {
		t.Error("expected 11:59 to be outside the window")
	}
	if !p.InWarmupWindow(at(12, 0)) {
		t.Error("expected 12:00 to open the window")
	}
	if !p.InWarmupWindow(at(18, 59)) {
		t.Error("expected 18:59 to be inside the window")
	}
	if p.InWarmupWindow(at(19, 0)) {
		t.Error("expected 19:00 to close the window")
	}
}

func TestPolicyNeedsDailyReset(t *testing.T) {
	p := NewPolicy(testScheduleConfig())
	now := at(13, 0)

	yesterday := now.AddDate(0, 0, -1)
	account := &domain.Account{WarmupLastJoin: &yesterday, WarmupJoinedToday: 5}
	if !p.NeedsDailyReset(account, now) {
		t.Error("expected reset after a day boundary")
	}

	today := at(12, 5)
	account = &domain.Account{WarmupLastJoin: &today, WarmupJoinedToday: 5}
	if p.NeedsDailyReset(account, now) {
		t.Error("expected no reset within the same day")
	}

	// Stale counter without a recorded join date.
	account = &domain.Account{WarmupJoinedToday: 3}
	if !p.NeedsDailyReset(account, now) {
		t.Error("expected reset for a counter with no join date")
	}

	account = &domain.Account{}
	if p.NeedsDailyReset(account, now) {
		t.Error("expected no reset for a fresh account")
	}
}

func TestPolicyQuota(t *testing.T) {
	p := NewPolicy(testScheduleConfig())

	if p.QuotaReached(&domain.Account{WarmupJoinedToday: 14}) {
		t.Error("expected quota not reached at 14 of 15")
	}
	if !p.QuotaReached(&domain.Account{WarmupJoinedToday: 15}) {
		t.Error("expected quota reached at 15 of 15")
	}
}

func TestPolicyWarmupExpired(t *testing.T) {
	p := NewPolicy(testScheduleConfig())
	now := at(13, 0)

	past := now.Add(-time.Hour)
	if !p.WarmupExpired(&domain.Account{WarmupEndAt: &past}, now) {
		t.Error("expected expired warmup")
	}

	future := now.Add(time.Hour)
	if p.WarmupExpired(&domain.Account{WarmupEndAt: &future}, now) {
		t.Error("expected active warmup")
	}

	if p.WarmupExpired(&domain.Account{}, now) {
		t.Error("expected no expiry without an end timestamp")
	}
}

func TestPolicyJoinDue(t *testing.T) {
	p := NewPolicy(testScheduleConfig())
	now := at(13, 0)

	if !p.JoinDue(&domain.Account{}, now) {
		t.Error("expected a never-joined account to be due")
	}

	future := now.Add(3 * time.Minute)
	if p.JoinDue(&domain.Account{WarmupNextJoinAt: &future}, now) {
		t.Error("expected join not due before the scheduled time")
	}

	past := now.Add(-time.Minute)
	if !p.JoinDue(&domain.Account{WarmupNextJoinAt: &past}, now) {
		t.Error("expected join due after the scheduled time")
	}
}

func TestPolicyNextWindowStart(t *testing.T) {
	p := NewPolicy(testScheduleConfig())

	next := p.NextWindowStart(at(13, 0))
	want := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextWindowStart inside window = %v, want %v", next, want)
	}

	next = p.NextWindowStart(at(9, 0))
	want = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextWindowStart before window = %v, want %v", next, want)
	}
}
