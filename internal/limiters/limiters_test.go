package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/store"
)

type fakeCounter struct {
	attempts  int
	lockUntil *time.Time
	err       error
}

func (f *fakeCounter) IncrementLoginAttempts(_ context.Context, _ string, p store.LockPolicy, now time.Time) (store.LockState, error) {
	if f.err != nil {
		return store.LockState{}, f.err
	}
	if f.lockUntil != nil && !f.lockUntil.After(now) {
		f.attempts = 0
		f.lockUntil = nil
	}
	f.attempts++
	if f.attempts >= p.Threshold && f.lockUntil == nil {
		until := now.Add(p.Duration)
		f.lockUntil = &until
	}
	return store.LockState{Attempts: f.attempts, LockUntil: f.lockUntil}, nil
}

func (f *fakeCounter) ResetLoginAttempts(context.Context, string) error {
	f.attempts = 0
	f.lockUntil = nil
	return f.err
}

func TestLockoutLimiterOpensWindowAtThreshold(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	c := &fakeCounter{}
	l := NewLockoutLimiter(c, LockoutConfig{Enabled: true, Threshold: 3, Duration: 30 * time.Minute})

	for i := 1; i <= 2; i++ {
		locked, err := l.RecordFailure(ctx, "u1", now)
		if err != nil || locked {
			t.Fatalf("failure %d: locked=%v err=%v", i, locked, err)
		}
	}
	locked, err := l.RecordFailure(ctx, "u1", now)
	if err != nil || !locked {
		t.Fatalf("expected lock at threshold, locked=%v err=%v", locked, err)
	}

	u := &store.User{LockUntil: c.lockUntil}
	if !l.IsLocked(u, now.Add(29*time.Minute)) {
		t.Fatal("expected locked inside window")
	}
	if l.IsLocked(u, now.Add(30*time.Minute)) {
		t.Fatal("expected unlocked once window elapsed")
	}

	if err := l.Reset(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if c.attempts != 0 || c.lockUntil != nil {
		t.Fatalf("expected cleared counter, got %d %v", c.attempts, c.lockUntil)
	}
}

func TestLockoutLimiterWrapsStoreErrors(t *testing.T) {
	c := &fakeCounter{err: store.ErrUnavailable}
	l := NewLockoutLimiter(c, LockoutConfig{Enabled: true, Threshold: 3, Duration: time.Minute})
	_, err := l.RecordFailure(context.Background(), "u1", time.Now())
	if !errors.Is(err, ErrLockoutUnavailable) || !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected wrapped unavailable error, got %v", err)
	}
}

func TestLockoutLimiterDisabled(t *testing.T) {
	c := &fakeCounter{}
	l := NewLockoutLimiter(c, LockoutConfig{Enabled: false})
	locked, err := l.RecordFailure(context.Background(), "u1", time.Now())
	if err != nil || locked || c.attempts != 0 {
		t.Fatalf("disabled limiter must not count: locked=%v err=%v attempts=%d", locked, err, c.attempts)
	}
	until := time.Now().Add(time.Hour)
	if l.IsLocked(&store.User{LockUntil: &until}, time.Now()) {
		t.Fatal("disabled limiter must not report locks")
	}
}

func TestRequestLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRequestLimiter(rate.New(rdb, rate.Config{}), RequestConfig{
		EnableIdentifierThrottle: true,
		EnableIPThrottle:         true,
		Window:                   time.Hour,
		MaxAttempts:              2,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Check(ctx, "reset", "a@example.com", "1.1.1.1"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := l.Check(ctx, "reset", "a@example.com", "2.2.2.2"); !errors.Is(err, ErrRequestRateLimited) {
		t.Fatalf("expected identifier throttle, got %v", err)
	}
	if err := l.Check(ctx, "verify", "a@example.com", "3.3.3.3"); err != nil {
		t.Fatalf("purposes are independent, got %v", err)
	}
}

func TestAccountCreationLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewAccountCreationLimiter(rdb, AccountConfig{Enabled: true, MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()
	if err := l.Enforce(ctx, "9.9.9.9"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := l.Enforce(ctx, "9.9.9.9"); !errors.Is(err, ErrAccountRateLimited) {
		t.Fatalf("expected ErrAccountRateLimited, got %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if err := l.Enforce(ctx, "9.9.9.9"); err != nil {
		t.Fatalf("after window: %v", err)
	}
}
