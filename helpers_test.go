package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/provider"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/memory"
)

const testPassword = "Str0ng!Passw0rd"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// mailbox records notifications delivered by the async dispatcher.
type mailbox struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (m *mailbox) Send(_ context.Context, n notify.Notification) error {
	m.mu.Lock()
	m.got = append(m.got, n)
	m.mu.Unlock()
	return nil
}

func (m *mailbox) count(kind notify.Kind, to string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := 0
	for _, n := range m.got {
		if n.Kind == kind && n.To == to {
			c++
		}
	}
	return c
}

// waitFor returns the newest notification of kind sent to `to`.
func (m *mailbox) waitFor(t *testing.T, kind notify.Kind, to string) notify.Notification {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		for i := len(m.got) - 1; i >= 0; i-- {
			if m.got[i].Kind == kind && m.got[i].To == to {
				n := m.got[i]
				m.mu.Unlock()
				return n
			}
		}
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s notification for %s", kind, to)
	return notify.Notification{}
}

type fakeGoogle struct {
	identity provider.Identity
	err      error
}

func (f *fakeGoogle) Verify(_ context.Context, idToken string) (provider.Identity, error) {
	if f.err != nil {
		return provider.Identity{}, f.err
	}
	return f.identity, nil
}

type fakeGitHub struct {
	identity provider.Identity
	err      error
}

func (f *fakeGitHub) Exchange(_ context.Context, code string) (provider.Identity, error) {
	if f.err != nil {
		return provider.Identity{}, f.err
	}
	return f.identity, nil
}

type testEnv struct {
	engine *Engine
	users  *memory.Store
	mr     *miniredis.Miniredis
	clock  *testClock
	mail   *mailbox
	google *fakeGoogle
	github *fakeGitHub
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		users:  memory.New(),
		mr:     mr,
		clock:  newTestClock(),
		mail:   &mailbox{},
		google: &fakeGoogle{},
		github: &fakeGitHub{},
	}

	engine, err := New().
		WithConfig(cfg).
		WithUserStore(env.users).
		WithRedis(rdb).
		WithNotifier(env.mail).
		WithGoogleVerifier(env.google).
		WithGitHubExchanger(env.github).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

func (env *testEnv) register(t *testing.T, email string) *SignInResult {
	t.Helper()
	res, err := env.engine.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: testPassword,
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return res
}

func (env *testEnv) user(t *testing.T, id string) *store.User {
	t.Helper()
	u, err := env.users.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s): %v", id, err)
	}
	return u
}
