package rotation

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
)

// Trigger decides when the active segment rotates and what token names the
// rotated file.
type Trigger interface {
	// Reset arms the trigger for a freshly opened active segment.
	Reset(info domain.SegmentInfo, now time.Time)

	// ShouldRotate reports whether the active segment must rotate now.
	ShouldRotate(info domain.SegmentInfo, now time.Time) bool

	// Token returns the suffix for the segment being retired at now.
	Token(now time.Time) string
}

// NewTrigger builds the trigger for policy. The policy is normalized and
// validated first.
func NewTrigger(policy *domain.RotationPolicy) (Trigger, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}

	policy = prepareDefaults(policy)
	if err := Validate(policy); err != nil {
		return nil, err
	}

	if policy.Kind == domain.RotateBySize {
		return NewSizeTrigger(policy.MaxBytes), nil
	}
	return NewTimeTrigger(policy.When, policy.Interval, policy.UTC)
}

// SizeTrigger rotates once the active segment holds at least maxBytes.
//
// Its tokens combine wall-clock seconds with a per-trigger counter, so two
// rotations within the same second still get distinct names.
type SizeTrigger struct {
	maxBytes int64
	seq      atomic.Uint64
}

func NewSizeTrigger(maxBytes int64) *SizeTrigger {
	return &SizeTrigger{maxBytes: maxBytes}
}

func (t *SizeTrigger) Reset(domain.SegmentInfo, time.Time) {}

func (t *SizeTrigger) ShouldRotate(info domain.SegmentInfo, _ time.Time) bool {
	return t.maxBytes > 0 && info.Size >= t.maxBytes
}

func (t *SizeTrigger) Token(now time.Time) string {
	return fmt.Sprintf("%d-%04d", now.Unix(), t.seq.Add(1))
}

// TimeTrigger rotates on a wall-clock interval.
//
// For S, M, H and D units the next rollover is the segment's start time plus
// the interval. MIDNIGHT rolls at the next midnight and Wn at the midnight
// that ends weekday n; both ignore the interval count.
type TimeTrigger struct {
	when     string
	weekday  int
	interval time.Duration
	layout   string
	location *time.Location

	rolloverAt time.Time
}

func NewTimeTrigger(when string, interval int, utc bool) (*TimeTrigger, error) {
	policy := prepareDefaults(&domain.RotationPolicy{Kind: domain.RotateByTime, When: when, Interval: interval})
	if err := Validate(policy); err != nil {
		return nil, err
	}

	weekday, _ := parseWhen(policy.When)
	t := &TimeTrigger{when: policy.When, weekday: weekday, location: time.Local}
	if utc {
		t.location = time.UTC
	}

	unit := time.Hour * 24
	switch policy.When {
	case domain.WhenSecond:
		unit, t.layout = time.Second, "2006-01-02_15-04-05"
	case domain.WhenMinute:
		unit, t.layout = time.Minute, "2006-01-02_15-04"
	case domain.WhenHour:
		unit, t.layout = time.Hour, "2006-01-02_15"
	case domain.WhenDay:
		t.layout = "2006-01-02"
	case domain.WhenMidnight:
		t.layout, policy.Interval = "2006-01-02", 1
	default:
		t.layout, unit, policy.Interval = "2006-01-02", time.Hour*24*7, 1
	}

	t.interval = unit * time.Duration(policy.Interval)
	return t, nil
}

// Reset computes the next rollover from the segment's start time, so a file
// that already existed at startup keeps its original schedule and an overdue
// one rotates on the first write.
func (t *TimeTrigger) Reset(info domain.SegmentInfo, now time.Time) {
	base := info.CreatedAt
	if base.IsZero() {
		base = now
	}
	t.rolloverAt = t.computeRollover(base)
}

func (t *TimeTrigger) ShouldRotate(_ domain.SegmentInfo, now time.Time) bool {
	return !t.rolloverAt.IsZero() && !now.Before(t.rolloverAt)
}

// Token names the interval that just ended by its start time.
func (t *TimeTrigger) Token(now time.Time) string {
	start := now.Add(-t.interval)
	if !t.rolloverAt.IsZero() && !t.rolloverAt.After(now) {
		start = t.rolloverAt.Add(-t.interval)
	}
	return start.In(t.location).Format(t.layout)
}

// RolloverAt returns the instant of the next rotation.
func (t *TimeTrigger) RolloverAt() time.Time {
	return t.rolloverAt
}

func (t *TimeTrigger) isFixedInterval() bool {
	return t.weekday < 0 && t.when != domain.WhenMidnight
}

func (t *TimeTrigger) computeRollover(from time.Time) time.Time {
	if t.isFixedInterval() {
		return from.Add(t.interval)
	}

	local := from.In(t.location)
	year, month, day := local.Date()
	next := time.Date(year, month, day+1, 0, 0, 0, 0, t.location)

	if t.weekday >= 0 {
		// time.Weekday counts from Sunday; policies count from Monday.
		today := (int(local.Weekday()) + 6) % 7
		if today != t.weekday {
			wait := t.weekday - today
			if wait < 0 {
				wait += 7
			}
			next = next.AddDate(0, 0, wait)
		}
	}

	return next
}
