package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/pkalnins/authcore/internal/rate"
	"github.com/pkalnins/authcore/jwt"
	"github.com/pkalnins/authcore/password"
)

// Builder assembles an [Engine]. Construction is allocation-only; all
// validation happens in [Builder.Build], which fails fast on any
// configuration fault so a misconfigured process never serves traffic.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore UserStore
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the user store the engine authenticates against.
// Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithRedis sets the Redis client backing the optional throttles.
// Required only when a throttle is enabled in [SecurityConfig].
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the sink receiving audit events. Ignored unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. The builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	throttling := cfg.Security.EnableLoginThrottle || cfg.Security.EnableRefreshThrottle
	if throttling && b.redis == nil {
		return nil, errors.New("throttling requires redis client")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessKey:  cfg.JWT.AccessKey,
		RefreshKey: cfg.JWT.RefreshKey,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewBcrypt(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if throttling {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			EnableRefreshThrottle:   cfg.Security.EnableRefreshThrottle,
			MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
			MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		})
	}

	b.built = true

	return &Engine{
		config:       cfg,
		userStore:    b.userStore,
		rateLimiter:  limiter,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
		passwordHash: hasher,
		jwtManager:   jwtManager,
	}, nil
}
