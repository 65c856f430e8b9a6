package authcore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/notify"
)

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	reg, err := env.engine.Register(ctx, RegisterInput{
		Email:    "  Bob@Example.COM ",
		Password: testPassword,
		Name:     "Bob",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Email != "bob@example.com" || reg.User.Role != "user" || !reg.User.IsActive || reg.User.IsEmailVerified {
		t.Fatalf("unexpected user %+v", reg.User)
	}
	if reg.User.PasswordHash == testPassword {
		t.Fatal("password must be stored hashed")
	}

	verify := env.mail.waitFor(t, notify.KindEmailVerification, "bob@example.com")
	if len(verify.Token) != 64 {
		t.Fatalf("expected 64 hex char verification token, got %d", len(verify.Token))
	}

	login, err := env.engine.Login(ctx, "BOB@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.Tokens.ExpiresIn != env.engine.jwtManager.AccessTTL().Milliseconds() {
		t.Fatalf("ExpiresIn %d does not match access TTL", login.Tokens.ExpiresIn)
	}
	if login.User.ID != reg.User.ID {
		t.Fatal("login resolved a different user")
	}
}

func TestRegisterRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.register(t, "taken@example.com")

	tests := []struct {
		name string
		in   RegisterInput
		want error
		kind Kind
	}{
		{"duplicate email", RegisterInput{Email: "TAKEN@example.com", Password: testPassword, Name: "x"}, ErrEmailExists, KindEmailExists},
		{"malformed email", RegisterInput{Email: "not-an-email", Password: testPassword, Name: "x"}, ErrValidation, KindValidation},
		{"display name email", RegisterInput{Email: "X <x@example.com>", Password: testPassword, Name: "x"}, ErrValidation, KindValidation},
		{"missing name", RegisterInput{Email: "n@example.com", Password: testPassword, Name: "  "}, ErrValidation, KindValidation},
		{"weak password", RegisterInput{Email: "w@example.com", Password: "password", Name: "x"}, ErrWeakPassword, KindValidation},
		{"short password", RegisterInput{Email: "s@example.com", Password: "Aa1!", Name: "x"}, ErrWeakPassword, KindValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Register(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if KindOf(err) != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, KindOf(err))
			}
		})
	}
}

func TestRegisterRateLimitedPerIP(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.RateLimit.MaxRegistrations = 2
	})
	ctx := WithClientIP(context.Background(), "198.51.100.1")

	for i, email := range []string{"r1@example.com", "r2@example.com"} {
		if _, err := env.engine.Register(ctx, RegisterInput{Email: email, Password: testPassword, Name: "r"}); err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
	}
	_, err := env.engine.Register(ctx, RegisterInput{Email: "r3@example.com", Password: testPassword, Name: "r"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestLoginRejectsUnknownAndWrongPasswordAlike(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.register(t, "carol@example.com")

	_, unknownErr := env.engine.Login(ctx, "nobody@example.com", testPassword)
	_, wrongErr := env.engine.Login(ctx, "carol@example.com", "Wr0ng!Password")
	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", unknownErr, wrongErr)
	}
	if Public(unknownErr).Message != Public(wrongErr).Message {
		t.Fatal("unknown email and wrong password must look identical")
	}
	if _, err := env.engine.Login(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}

func TestLoginLockoutAfterThreshold(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "dave@example.com").User.ID

	for i := 1; i <= 4; i++ {
		if _, err := env.engine.Login(ctx, "dave@example.com", "Wr0ng!Password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := env.engine.Login(ctx, "dave@example.com", "Wr0ng!Password"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("attempt 5: expected ErrAccountLocked, got %v", err)
	}

	u := env.user(t, id)
	if u.LoginAttempts != 5 || u.LockUntil == nil {
		t.Fatalf("expected 5 attempts and a lock, got %d / %v", u.LoginAttempts, u.LockUntil)
	}
	if !u.LockUntil.Equal(env.clock.Now().Add(30 * time.Minute)) {
		t.Fatalf("unexpected lock window end %v", u.LockUntil)
	}

	if _, err := env.engine.Login(ctx, "dave@example.com", testPassword); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("correct password during lock: expected ErrAccountLocked, got %v", err)
	}

	env.clock.Advance(30*time.Minute + time.Second)
	if _, err := env.engine.Login(ctx, "dave@example.com", testPassword); err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	u = env.user(t, id)
	if u.LoginAttempts != 0 || u.LockUntil != nil {
		t.Fatalf("expected counters reset, got %d / %v", u.LoginAttempts, u.LockUntil)
	}

	snap := env.engine.MetricsSnapshot()
	if snap.Counters[MetricAccountLocked] != 1 || snap.Counters[MetricLoginRejectedLocked] != 1 {
		t.Fatalf("unexpected lockout counters %+v", snap.Counters)
	}
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	id := env.register(t, "erin@example.com").User.ID

	for i := 0; i < 3; i++ {
		_, _ = env.engine.Login(ctx, "erin@example.com", "Wr0ng!Password")
	}
	if got := env.user(t, id).LoginAttempts; got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if _, err := env.engine.Login(ctx, "erin@example.com", testPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := env.user(t, id).LoginAttempts; got != 0 {
		t.Fatalf("expected counter reset, got %d", got)
	}
}

func TestLoginReturnsCurrentLastLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.register(t, "gail@example.com")

	env.clock.Advance(time.Hour)
	res, err := env.engine.Login(ctx, "gail@example.com", testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.LastLogin == nil || !res.User.LastLogin.Equal(env.clock.Now()) {
		t.Fatalf("expected last login %v, got %v", env.clock.Now(), res.User.LastLogin)
	}
}

func TestLoginExpiredLockRestartsCount(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Lockout.Threshold = 2
	})
	ctx := context.Background()
	id := env.register(t, "frank@example.com").User.ID

	for i := 0; i < 2; i++ {
		_, _ = env.engine.Login(ctx, "frank@example.com", "Wr0ng!Password")
	}
	env.clock.Advance(31 * time.Minute)

	if _, err := env.engine.Login(ctx, "frank@example.com", "Wr0ng!Password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("first failure after expiry: expected ErrInvalidCredentials, got %v", err)
	}
	if got := env.user(t, id).LoginAttempts; got != 1 {
		t.Fatalf("expected count restarted at 1, got %d", got)
	}
}

func TestLoginRateLimitedPerIP(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.RateLimit.MaxLoginAttempts = 3
	})
	ctx := WithClientIP(context.Background(), "192.0.2.10")

	for i := 0; i < 3; i++ {
		if _, err := env.engine.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := env.engine.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	other := WithClientIP(context.Background(), "192.0.2.11")
	if _, err := env.engine.Login(other, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("another IP keeps its own budget, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "grace@example.com")
	const next = "N3w!Passw0rd-x"

	if err := env.engine.ChangePassword(ctx, res.User.ID, "Wr0ng!Password", next); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := env.engine.ChangePassword(ctx, res.User.ID, testPassword, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := env.engine.ChangePassword(ctx, res.User.ID, testPassword, next); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("existing sessions must be revoked, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "grace@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := env.engine.Login(ctx, "grace@example.com", next); err != nil {
		t.Fatalf("new password: %v", err)
	}
}

func TestSetAccountActive(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "heidi@example.com")

	u, err := env.engine.SetAccountActive(ctx, res.User.ID, false)
	if err != nil {
		t.Fatalf("SetAccountActive: %v", err)
	}
	if u.IsActive || len(u.RefreshTokens) != 0 {
		t.Fatalf("expected inactive user without refresh tokens, got %+v", u)
	}

	if _, err := env.engine.Login(ctx, "heidi@example.com", testPassword); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if _, err := env.engine.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if _, err := env.engine.SetAccountActive(ctx, res.User.ID, true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if _, err := env.engine.Login(ctx, "heidi@example.com", testPassword); err != nil {
		t.Fatalf("login after re-enable: %v", err)
	}
	if _, err := env.engine.SetAccountActive(ctx, "missing", true); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown user, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	res := env.register(t, "ivan@example.com")

	u, err := env.engine.GetUser(ctx, res.User.ID)
	if err != nil || u.Email != "ivan@example.com" {
		t.Fatalf("GetUser: %+v, %v", u, err)
	}
	if _, err := env.engine.GetUser(ctx, "missing"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
