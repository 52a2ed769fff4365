package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fisiotrack/clinic-api/internal/config"
	"github.com/fisiotrack/clinic-api/pkg/metrics"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// instrumented records per-operation counters and latency. Embedded by
// every repository; a nil metrics handle disables recording.
type instrumented struct {
	metrics *metrics.Metrics
}

func (i instrumented) observe(op string, start time.Time, err error) {
	if i.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	i.metrics.DatabaseOperations.WithLabelValues(op, status).Inc()
	i.metrics.DatabaseLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
