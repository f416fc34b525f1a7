package scheduler

import (
	"time"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// Policy answers the clock and quota questions the workers and the warmup
// scanner ask. All calendar arithmetic is in UTC.
type Policy struct {
	cfg *config.ScheduleConfig
}

// NewPolicy creates a policy over the schedule configuration.
func NewPolicy(cfg *config.ScheduleConfig) *Policy {
	return &Policy{cfg: cfg}
}

// inRange reports whether the minute-of-day t falls inside [start, end),
// handling ranges that wrap past midnight.
func inRange(t, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return t >= start && t < end
	}
	return t >= start || t < end
}

// InQuietPeriod reports whether comments are suppressed at t.
func (p *Policy) InQuietPeriod(t time.Time) bool {
	t = t.UTC()
	minute := t.Hour()*60 + t.Minute()
	return inRange(minute, p.cfg.QuietStart.MinuteOfDay(), p.cfg.QuietEnd.MinuteOfDay())
}

// InWarmupWindow reports whether warmup joins are allowed at t.
func (p *Policy) InWarmupWindow(t time.Time) bool {
	t = t.UTC()
	minute := t.Hour()*60 + t.Minute()
	return inRange(minute, p.cfg.WarmupStart.MinuteOfDay(), p.cfg.WarmupEnd.MinuteOfDay())
}

// NeedsDailyReset reports whether the account's per-day join counter belongs
// to an earlier UTC day than t.
func (p *Policy) NeedsDailyReset(account *domain.Account, t time.Time) bool {
	if account.WarmupLastJoin == nil {
		return account.WarmupJoinedToday > 0
	}
	y1, m1, d1 := account.WarmupLastJoin.UTC().Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// QuotaReached reports whether the account exhausted today's join quota.
func (p *Policy) QuotaReached(account *domain.Account) bool {
	return account.WarmupJoinedToday >= p.cfg.ChannelsPerDay
}

// WarmupExpired reports whether the account's warmup period has ended.
func (p *Policy) WarmupExpired(account *domain.Account, t time.Time) bool {
	return account.WarmupEndAt != nil && !t.Before(*account.WarmupEndAt)
}

// JoinDue reports whether enough time has passed since the last join for the
// next one. An unset schedule means the account has never joined and is due.
func (p *Policy) JoinDue(account *domain.Account, t time.Time) bool {
	return account.WarmupNextJoinAt == nil || !t.Before(*account.WarmupNextJoinAt)
}

// NextJoinTime returns when the join after one at t should happen.
func (p *Policy) NextJoinTime(t time.Time) time.Time {
	return t.Add(p.cfg.JoinDelay)
}

// NextWindowStart returns the next opening of the warmup window at or after
// t. Used to schedule the first join of the following day once the daily
// quota is exhausted.
func (p *Policy) NextWindowStart(t time.Time) time.Time {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(),
		p.cfg.WarmupStart.Hour, p.cfg.WarmupStart.Minute, 0, 0, time.UTC)
	if !start.After(t) {
		start = start.AddDate(0, 0, 1)
	}
	return start
}
