package authcore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/internal"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	res := env.register(t, "alice@example.com")

	claims, err := env.engine.VerifyAccessToken(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != res.User.ID || claims.Email != "alice@example.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if res.Tokens.ExpiresIn != (15 * time.Minute).Milliseconds() {
		t.Fatalf("expected ExpiresIn 900000, got %d", res.Tokens.ExpiresIn)
	}
	if len(res.Tokens.RefreshToken) != 128 {
		t.Fatalf("expected 128 hex chars, got %d", len(res.Tokens.RefreshToken))
	}

	env.clock.Advance(15*time.Minute + time.Second)
	if _, err := env.engine.VerifyAccessToken(res.Tokens.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, tok := range []string{"not-a-jwt", "a.b.c"} {
		if _, err := env.engine.VerifyAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
	if _, err := env.engine.VerifyAccessToken(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestRefreshStoresOnlyHash(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := WithDevice(WithClientIP(context.Background(), "203.0.113.7"), "test-agent")

	res, err := env.engine.Register(ctx, RegisterInput{Email: "hash@example.com", Password: testPassword, Name: "H"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	u := env.user(t, res.User.ID)
	if len(u.RefreshTokens) != 1 {
		t.Fatalf("expected one refresh record, got %d", len(u.RefreshTokens))
	}
	rec := u.RefreshTokens[0]
	if rec.TokenHash != internal.HashToken(res.Tokens.RefreshToken) || rec.TokenHash == res.Tokens.RefreshToken {
		t.Fatal("refresh record must hold the SHA-256 of the raw token")
	}
	if rec.IP != "203.0.113.7" || rec.Device != "test-agent" {
		t.Fatalf("unexpected record metadata %+v", rec)
	}
	if !rec.ExpiresAt.Equal(env.clock.Now().Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", rec.ExpiresAt)
	}
	if u.LastLogin == nil {
		t.Fatal("expected LastLogin to be stamped")
	}
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "rotate@example.com")

	next, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.Tokens.RefreshToken == res.Tokens.RefreshToken {
		t.Fatal("refresh must mint a new token")
	}
	if next.User.ID != res.User.ID {
		t.Fatalf("expected same user, got %s", next.User.ID)
	}

	if _, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected replay to fail with ErrInvalidToken, got %v", err)
	}
	if _, err := env.engine.Refresh(ctx, next.Tokens.RefreshToken); err != nil {
		t.Fatalf("rotated token should work once: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t, nil)
	res := env.register(t, "race@example.com")

	const workers = 16
	var wins, invalid atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := env.engine.Refresh(context.Background(), res.Tokens.RefreshToken)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrInvalidToken):
				invalid.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 || invalid.Load() != workers-1 {
		t.Fatalf("expected 1 winner and %d rejections, got %d/%d", workers-1, wins.Load(), invalid.Load())
	}
}

func TestRefreshWindowKeepsNewestFive(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	first := env.register(t, "window@example.com")

	var last *SignInResult
	for i := 0; i < 5; i++ {
		env.clock.Advance(time.Second)
		res, err := env.engine.Login(ctx, "window@example.com", testPassword)
		if err != nil {
			t.Fatalf("Login %d: %v", i, err)
		}
		last = res
	}

	u := env.user(t, first.User.ID)
	if len(u.RefreshTokens) != 5 {
		t.Fatalf("expected 5 refresh records, got %d", len(u.RefreshTokens))
	}
	for _, rt := range u.RefreshTokens {
		if rt.TokenHash == internal.HashToken(first.Tokens.RefreshToken) {
			t.Fatal("oldest refresh token should have been evicted")
		}
	}

	if _, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("evicted token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := env.engine.Refresh(ctx, last.Tokens.RefreshToken); err != nil {
		t.Fatalf("newest token: %v", err)
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	env := newTestEnv(t, nil)
	res := env.register(t, "expired@example.com")

	env.clock.Advance(7*24*time.Hour + time.Second)
	if _, err := env.engine.Refresh(context.Background(), res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "revoke@example.com")

	if err := env.engine.RevokeRefreshToken(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
	if err := env.engine.RevokeRefreshToken(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("second revoke should be a no-op: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRevokeAllRefreshTokens(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	first := env.register(t, "all@example.com")
	second, err := env.engine.Login(ctx, "all@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := env.engine.RevokeAllRefreshTokens(ctx, first.User.ID); err != nil {
		t.Fatalf("RevokeAllRefreshTokens: %v", err)
	}
	for _, tok := range []string{first.Tokens.RefreshToken, second.Tokens.RefreshToken} {
		if _, err := env.engine.Refresh(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	}
	if err := env.engine.RevokeAllRefreshTokens(ctx, "missing"); err != nil {
		t.Fatalf("unknown user should be a no-op: %v", err)
	}
}

func TestIssueTokenPairRequiresUser(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.engine.IssueTokenPair(context.Background(), nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIssueTokenPairUnknownUserReturnsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "ghost@example.com").User
	u.ID = "does-not-exist"

	pair, err := env.engine.IssueTokenPair(context.Background(), u)
	if err == nil {
		t.Fatal("expected failure when the store update fails")
	}
	if pair.AccessToken != "" || pair.RefreshToken != "" {
		t.Fatal("no tokens may be returned without a committed record")
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("expected INTERNAL, got %s", KindOf(err))
	}
}
