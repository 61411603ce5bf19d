// Command authcore-loadtest measures engine throughput for the three hot
// operations: login, validate, and refresh. It runs fully in-process
// against miniredis (or a real Redis via -redis-addr) and the bundled
// Redis user store.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authcore "github.com/pkalnins/authcore"
	"github.com/pkalnins/authcore/userstore"
)

const seedPassword = "loadtest-password"

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase")
		cost        = flag.Int("bcrypt-cost", 4, "bcrypt cost used for seeding and login")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.JWT.AccessKey = []byte("loadtest-access-signing-key")
	cfg.JWT.RefreshKey = []byte("loadtest-refresh-signing-key")
	cfg.Password.Cost = *cost

	engine, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(userstore.New(client, "lt")).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	usernames := make([]string, *accounts)
	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := range usernames {
		usernames[i] = "user-" + uuid.NewString()
		_, err := engine.CreateAccount(ctx, authcore.CreateAccountRequest{
			Username:  usernames[i],
			FirstName: "Load",
			LastName:  "Test",
			Password:  seedPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	// One token pair per account feeds the validate and refresh phases.
	pairs := make([]*authcore.TokenPair, *accounts)
	for i, username := range usernames {
		pair, err := engine.Login(ctx, username, seedPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warmup login failed: %v\n", err)
			os.Exit(1)
		}
		pairs[i] = pair
	}

	loginStats := runPhase(ctx, *ops, *concurrency, func(ctx context.Context, r *rand.Rand) error {
		_, err := engine.Login(ctx, usernames[r.Intn(len(usernames))], seedPassword)
		return err
	})
	validateStats := runPhase(ctx, *ops, *concurrency, func(ctx context.Context, r *rand.Rand) error {
		_, err := engine.Validate(ctx, pairs[r.Intn(len(pairs))].AccessToken)
		return err
	})
	refreshStats := runPhase(ctx, *ops, *concurrency, func(ctx context.Context, r *rand.Rand) error {
		_, err := engine.Refresh(ctx, pairs[r.Intn(len(pairs))].RefreshToken)
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Println("---- engine counters ----")
	fmt.Printf("login success=%d failure=%d\n",
		snap.Counters[authcore.MetricLoginSuccess],
		snap.Counters[authcore.MetricLoginFailure])
	fmt.Printf("validate success=%d failure=%d\n",
		snap.Counters[authcore.MetricValidateSuccess],
		snap.Counters[authcore.MetricValidateFailure])
	fmt.Printf("refresh success=%d failure=%d\n",
		snap.Counters[authcore.MetricRefreshSuccess],
		snap.Counters[authcore.MetricRefreshFailure])
}

func runPhase(ctx context.Context, ops, concurrency int, op func(context.Context, *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(ctx, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
