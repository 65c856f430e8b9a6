package authcore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/provider"
	"github.com/MrEthical07/authcore/store/memory"
)

func googleIdentity(email, sub string) provider.Identity {
	return provider.Identity{
		Provider: provider.Google,
		Subject:  sub,
		Email:    email,
		Name:     "Gina",
		Picture:  "https://example.com/gina.png",
	}
}

func TestGoogleSignInCreatesAccountOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.google.identity = googleIdentity("Gina@Example.com", "g-1")

	first, err := env.engine.ResolveGoogleSignIn(ctx, "id-token")
	if err != nil {
		t.Fatalf("ResolveGoogleSignIn: %v", err)
	}
	if !first.Created {
		t.Fatal("first sign-in should create the account")
	}
	u := first.User
	if u.Email != "gina@example.com" || u.GoogleID != "g-1" || !u.IsEmailVerified || u.Avatar == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if u.PasswordHash == "" {
		t.Fatal("federated accounts still carry a password hash")
	}
	if _, err := env.engine.Authenticate(ctx, first.Tokens.AccessToken); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	env.mail.waitFor(t, notify.KindWelcome, "gina@example.com")

	second, err := env.engine.ResolveGoogleSignIn(ctx, "id-token")
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if second.Created || second.User.ID != u.ID {
		t.Fatalf("expected existing account %s, got %s (created=%v)", u.ID, second.User.ID, second.Created)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricFederatedAccountCreated]; got != 1 {
		t.Fatalf("expected one created account, got %d", got)
	}
}

func TestGoogleSignInLinksPasswordAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "link@example.com")
	env.google.identity = googleIdentity("link@example.com", "g-link")

	out, err := env.engine.ResolveGoogleSignIn(ctx, "id-token")
	if err != nil {
		t.Fatalf("ResolveGoogleSignIn: %v", err)
	}
	if out.Created || out.User.ID != res.User.ID {
		t.Fatal("existing account should be linked, not duplicated")
	}
	if out.User.GoogleID != "g-link" || !out.User.IsEmailVerified {
		t.Fatalf("unexpected linked user %+v", out.User)
	}
	if _, err := env.engine.Login(ctx, "link@example.com", testPassword); err != nil {
		t.Fatalf("password login must keep working: %v", err)
	}
}

func TestFederatedSignInClearsLockout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "locked@example.com")
	for i := 0; i < 5; i++ {
		_, _ = env.engine.Login(ctx, "locked@example.com", "Wr0ng!Password")
	}
	if env.user(t, res.User.ID).LockUntil == nil {
		t.Fatal("expected the account to be locked")
	}

	env.google.identity = googleIdentity("locked@example.com", "g-lock")
	if _, err := env.engine.ResolveGoogleSignIn(ctx, "id-token"); err != nil {
		t.Fatalf("ResolveGoogleSignIn: %v", err)
	}
	u := env.user(t, res.User.ID)
	if u.LoginAttempts != 0 || u.LockUntil != nil {
		t.Fatalf("expected lockout cleared, got %d / %v", u.LoginAttempts, u.LockUntil)
	}
}

func TestFederatedSignInRejectsOtherSubject(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.google.identity = googleIdentity("mix@example.com", "g-original")
	if _, err := env.engine.ResolveGoogleSignIn(ctx, "id-token"); err != nil {
		t.Fatalf("ResolveGoogleSignIn: %v", err)
	}

	env.google.identity = googleIdentity("mix@example.com", "g-impostor")
	if _, err := env.engine.ResolveGoogleSignIn(ctx, "id-token"); !errors.Is(err, ErrProviderAuthFailed) {
		t.Fatalf("expected ErrProviderAuthFailed, got %v", err)
	}
}

func TestFederatedSignInDisabledAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "gone@example.com")
	if _, err := env.engine.SetAccountActive(ctx, res.User.ID, false); err != nil {
		t.Fatalf("SetAccountActive: %v", err)
	}

	env.google.identity = googleIdentity("gone@example.com", "g-gone")
	if _, err := env.engine.ResolveGoogleSignIn(ctx, "id-token"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestGitHubSignIn(t *testing.T) {
	env := newTestEnv(t, nil)
	env.github.identity = provider.Identity{
		Provider: provider.GitHub,
		Subject:  "4242",
		Email:    "octo@example.com",
	}

	out, err := env.engine.ResolveGithubSignIn(context.Background(), "oauth-code")
	if err != nil {
		t.Fatalf("ResolveGithubSignIn: %v", err)
	}
	if !out.Created || out.User.GitHubID != "4242" || out.User.Name != "octo@example.com" {
		t.Fatalf("unexpected result %+v", out.User)
	}
}

func TestFederatedProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rejected token", errors.New("bad signature"), ErrProviderAuthFailed},
		{"missing email", fmt.Errorf("userinfo: %w", provider.ErrEmailRequired), ErrEmailRequired},
		{"timeout", fmt.Errorf("fetch keys: %w", context.DeadlineExceeded), ErrServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.google.err = tc.err
			env.github.err = tc.err

			_, gerr := env.engine.ResolveGoogleSignIn(context.Background(), "id-token")
			_, herr := env.engine.ResolveGithubSignIn(context.Background(), "code")
			if !errors.Is(gerr, tc.want) || !errors.Is(herr, tc.want) {
				t.Fatalf("expected %v, got %v / %v", tc.want, gerr, herr)
			}
			if Public(gerr).Error() != tc.want.Error() {
				t.Fatalf("provider detail leaked: %q", Public(gerr).Error())
			}
		})
	}
}

func TestFederatedInputErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.engine.ResolveGoogleSignIn(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := env.engine.ResolveGithubSignIn(ctx, ""); !errors.Is(err, ErrMissingCode) {
		t.Fatalf("expected ErrMissingCode, got %v", err)
	}

	env.google.identity = provider.Identity{Provider: provider.Google, Subject: "g-x", Email: "  "}
	if _, err := env.engine.ResolveGoogleSignIn(ctx, "id-token"); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
}

func TestFederatedProviderNotConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := New().
		WithConfig(testConfig()).
		WithUserStore(memory.New()).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.ResolveGoogleSignIn(context.Background(), "id-token"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
	if _, err := engine.ResolveGithubSignIn(context.Background(), "code"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestGoogleVerifierBuiltFromClientIDs(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.Providers.GoogleClientIDs = []string{"cms-web.apps.googleusercontent.com"}
	engine, err := New().
		WithConfig(cfg).
		WithUserStore(memory.New()).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	if !engine.SecurityReport().GoogleSignIn {
		t.Fatal("client ids should enable Google sign-in")
	}
	if _, err := engine.ResolveGoogleSignIn(context.Background(), "not-a-jwt"); !errors.Is(err, ErrProviderAuthFailed) {
		t.Fatalf("expected ErrProviderAuthFailed, got %v", err)
	}
}
