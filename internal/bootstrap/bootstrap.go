// Package bootstrap builds the application service from configuration for the
// server and the terminal entrypoints.
package bootstrap

import (
	"context"
	"time"

	"retail-erp/internal/ai"
	"retail-erp/internal/app"
	"retail-erp/internal/auth"
	"retail-erp/internal/backend/postgres"
	"retail-erp/internal/backend/supabase"
	"retail-erp/internal/config"
	"retail-erp/internal/core"
	"retail-erp/internal/db"
	"retail-erp/internal/metrics"
	"retail-erp/internal/session"

	"go.uber.org/zap"
)

// Runtime is a wired application service and the resources behind it.
type Runtime struct {
	Service app.ApplicationService
	closers []func()
}

// Close releases pools and connections in reverse order of creation.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Build wires the backend, session store and assistant. Auth always goes
// through the hosted auth service; data goes over REST or a direct pool.
// m may be nil.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{}

	client, err := supabase.New(supabase.Config{
		URL:     cfg.Backend.URL,
		AnonKey: cfg.Backend.AnonKey,
		Timeout: cfg.Backend.Timeout,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	var backend core.Backend = client
	if cfg.Backend.Driver == config.DriverPostgres {
		pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.Backend.DatabaseURL})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		backend = postgres.New(pool, auth.NewParser(cfg.Backend.JWTSecret), cfg.Backend.Timeout, m, log)
	}

	var store session.Store
	if cfg.Redis.Addr != "" {
		rs, err := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = rs.Close() })
		store = rs
	} else {
		ms := session.NewMemoryStore()
		ms.StartPurge(ctx, time.Minute)
		store = ms
	}
	sessions := session.NewManager(store, client, cfg.Server.SessionTTL, log)

	var assistant ai.Assistant = ai.Disabled{}
	if cfg.AIEnabled() {
		assistant = ai.NewAgent(cfg.AI.APIKey, cfg.AI.Model)
	} else {
		log.Warn("OPENAI_API_KEY is not set; the order assistant is disabled")
	}

	rt.Service = app.NewAppService(backend, sessions, assistant, cfg.Backend.RecentLimit, log)
	return rt, nil
}
