package authcore

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var (
	testAccessKey  = []byte("test-access-signing-key")
	testRefreshKey = []byte("test-refresh-signing-key")
)

// mockUserStore is a map-backed UserStore for engine tests. When failWith
// is set, every operation returns it, simulating a backing-store outage.
type mockUserStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[string]UserRecord
	failWith error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users: make(map[string]UserRecord),
	}
}

func (m *mockUserStore) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return UserRecord{}, m.failWith
	}
	if _, exists := m.users[input.Username]; exists {
		return UserRecord{}, ErrAccountExists
	}

	m.nextID++
	record := UserRecord{
		UserID:       m.nextID,
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: input.PasswordHash,
		Active:       input.Active,
	}
	m.users[input.Username] = record

	return record, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return UserRecord{}, m.failWith
	}
	record, ok := m.users[username]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}

	return record, nil
}

func (m *mockUserStore) setActive(username string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.users[username]
	if !ok {
		return
	}
	record.Active = active
	m.users[username] = record
}

func (m *mockUserStore) setFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessKey = testAccessKey
	cfg.JWT.RefreshKey = testRefreshKey
	// Minimum bcrypt cost keeps the suite fast.
	cfg.Password.Cost = 4
	return cfg
}

// newTestEngine builds an engine on a fresh mock store. Mutators run on
// the config before Build.
func newTestEngine(t *testing.T, mutators ...func(*Config)) (*Engine, *mockUserStore) {
	t.Helper()

	cfg := testConfig()
	for _, mutate := range mutators {
		mutate(&cfg)
	}

	store := newMockUserStore()
	builder := New().WithConfig(cfg).WithUserStore(store)

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

// newThrottledEngine wires a miniredis-backed engine with the login and
// refresh throttles enabled.
func newThrottledEngine(t *testing.T, mutators ...func(*Config)) (*Engine, *mockUserStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.Security.EnableLoginThrottle = true
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.EnableRefreshThrottle = true
	cfg.Security.MaxRefreshAttempts = 3
	for _, mutate := range mutators {
		mutate(&cfg)
	}

	store := newMockUserStore()
	engine, err := New().
		WithConfig(cfg).
		WithUserStore(store).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store, mr
}

// seedAccount registers a user through the signup path and returns the
// assigned id.
func seedAccount(t *testing.T, engine *Engine, username, password string) int64 {
	t.Helper()

	result, err := engine.CreateAccount(context.Background(), CreateAccountRequest{
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  password,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%q) failed: %v", username, err)
	}

	return result.UserID
}
