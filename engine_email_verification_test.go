package authcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/notify"
)

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "verify@example.com")
	mail := env.mail.waitFor(t, notify.KindEmailVerification, "verify@example.com")

	u, err := env.engine.VerifyEmail(ctx, mail.Token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if !u.IsEmailVerified || u.ID != res.User.ID {
		t.Fatalf("unexpected user %+v", u)
	}
	if stored := env.user(t, res.User.ID); stored.EmailVerificationTokenHash != "" || stored.EmailVerificationExpiresAt != nil {
		t.Fatal("verification token must be cleared once consumed")
	}

	if _, err := env.engine.VerifyEmail(ctx, mail.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token reuse: expected ErrInvalidToken, got %v", err)
	}
	if err := env.engine.RequestEmailVerification(ctx, "verify@example.com"); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestVerifyEmailInputErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.engine.VerifyEmail(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := env.engine.VerifyEmail(ctx, "not-issued"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricEmailVerificationFailure]; got != 2 {
		t.Fatalf("expected 2 verification failures, got %d", got)
	}
}

func TestVerificationTokenExpiresAfterADay(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "slow@example.com")
	mail := env.mail.waitFor(t, notify.KindEmailVerification, "slow@example.com")

	env.clock.Advance(24*time.Hour + time.Second)
	if _, err := env.engine.VerifyEmail(context.Background(), mail.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequestEmailVerificationReplacesToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.register(t, "again@example.com")
	first := env.mail.waitFor(t, notify.KindEmailVerification, "again@example.com")

	if err := env.engine.RequestEmailVerification(ctx, "again@example.com"); err != nil {
		t.Fatalf("RequestEmailVerification: %v", err)
	}
	var second notify.Notification
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if env.mail.count(notify.KindEmailVerification, "again@example.com") == 2 {
			second = env.mail.waitFor(t, notify.KindEmailVerification, "again@example.com")
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if second.Token == "" || second.Token == first.Token {
		t.Fatal("expected a second, different verification token")
	}

	if _, err := env.engine.VerifyEmail(ctx, first.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replaced token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := env.engine.VerifyEmail(ctx, second.Token); err != nil {
		t.Fatalf("newest token: %v", err)
	}
}

func TestRequestEmailVerificationUnknownAddressIsSilent(t *testing.T) {
	env := newTestEnv(t, nil)

	if err := env.engine.RequestEmailVerification(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if env.mail.count(notify.KindEmailVerification, "ghost@example.com") != 0 {
		t.Fatal("no mail may be sent to an unregistered address")
	}
}
