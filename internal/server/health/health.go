// Package health serves liveness and readiness probes over the server's
// dependencies: the database, Redis and object storage.
package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/respond"
	"github.com/redis/go-redis/v9"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// StoragePinger reports object storage reachability.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

type Status struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

type DependencyStatus struct {
	Status    string  `json:"status"`
	LatencyMs float64 `json:"latency_ms"`
}

// Checker probes whichever dependencies are configured; nil ones are
// skipped. The database is required for readiness, Redis and storage only
// degrade it.
type Checker struct {
	db      *sql.DB
	redis   *redis.Client
	storage StoragePinger
	timeout time.Duration
	logger  logging.Logger
}

// NewChecker builds a checker. Probe errors go to logger only; the probe
// responses carry statuses and latencies.
func NewChecker(db *sql.DB, rdb *redis.Client, storage StoragePinger, logger logging.Logger) *Checker {
	return &Checker{
		db:      db,
		redis:   rdb,
		storage: storage,
		timeout: 5 * time.Second,
		logger:  logger.With("module", "health"),
	}
}

// NewRedisClient builds a client for addr, or returns nil when addr is empty.
func NewRedisClient(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]DependencyStatus),
	}

	if c.db != nil {
		dep := c.probe(ctx, "database", c.db.PingContext)
		status.Dependencies["database"] = dep
		if dep.Status != StatusHealthy {
			status.Status = StatusUnhealthy
		}
	}

	if c.redis != nil {
		dep := c.probe(ctx, "redis", func(ctx context.Context) error { return c.redis.Ping(ctx).Err() })
		status.Dependencies["redis"] = dep
		status.degradeIf(dep)
	}

	if c.storage != nil {
		dep := c.probe(ctx, "storage", c.storage.Ping)
		status.Dependencies["storage"] = dep
		status.degradeIf(dep)
	}

	return status
}

func (s *Status) degradeIf(dep DependencyStatus) {
	if dep.Status != StatusHealthy && s.Status == StatusHealthy {
		s.Status = StatusDegraded
	}
}

func (c *Checker) probe(ctx context.Context, name string, ping func(context.Context) error) DependencyStatus {
	start := time.Now()
	err := ping(ctx)
	dep := DependencyStatus{
		Status:    StatusHealthy,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		dep.Status = StatusUnhealthy
		c.logger.Warn(ctx, "dependency check failed", "dependency", name, "error", err)
	}
	return dep
}

// Liveness answers 200 while the process runs.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":    StatusHealthy,
		"timestamp": time.Now().UTC(),
	})
}

// Readiness answers 503 when unhealthy and 200 otherwise.
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	status := c.Check(ctx)

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(w, code, status)
}
