package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics engine.
type Metrics struct {
	BarsLoaded       *prometheus.CounterVec // labels: ticker
	SeriesTrimmed    prometheus.Counter
	IndicatorsTotal  *prometheus.CounterVec // labels: kind
	ResultsPublished prometheus.Counter

	EvalDur         prometheus.Histogram // full indicator walk per series
	StepDur         prometheus.Histogram // single online step
	SQLiteCommitDur prometheus.Histogram
	RedisWriteDur   prometheus.Histogram

	// Ring buffer overflow (results dropped between walker and writers)
	RingBufOverflow prometheus.Counter
	SQLiteDropped   prometheus.Counter

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisBufferedWrites      prometheus.Counter

	// Snapshot lifecycle
	SnapshotsSaved    prometheus.Counter
	SnapshotsRestored prometheus.Counter

	// WebSocket fan-out
	StreamClients prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		BarsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_bars_loaded_total",
			Help: "Total OHLCV bars loaded from SQLite (by ticker)",
		}, []string{"ticker"}),
		SeriesTrimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_series_trimmed_total",
			Help: "Series trimmed to a calendar window before evaluation",
		}),
		IndicatorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_indicator_steps_total",
			Help: "Total indicator steps evaluated (by kind)",
		}, []string{"kind"}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_results_published_total",
			Help: "Indicator results pushed to the publish ring",
		}),

		EvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_eval_duration_seconds",
			Help:    "Full indicator walk duration per series",
			Buckets: prometheus.DefBuckets,
		}),
		StepDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_step_duration_seconds",
			Help:    "Single online indicator step latency",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_sqlite_commit_duration_seconds",
			Help:    "SQLite batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		RedisWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_redis_write_duration_seconds",
			Help:    "Redis result publish latency",
			Buckets: prometheus.DefBuckets,
		}),

		RingBufOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_ringbuf_overflow_total",
			Help: "Ring buffer push overflows (dropped results)",
		}),
		SQLiteDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_sqlite_drops_total",
			Help: "Results dropped because the SQLite write queue was full",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisBufferedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_redis_buffered_writes_total",
			Help: "Results buffered locally during Redis circuit breaker open state",
		}),

		SnapshotsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_snapshots_saved_total",
			Help: "Indicator run snapshots persisted to SQLite",
		}),
		SnapshotsRestored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_snapshots_restored_total",
			Help: "Indicators resumed from a persisted snapshot",
		}),

		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_stream_clients",
			Help: "Connected WebSocket result-stream clients",
		}),
	}

	prometheus.MustRegister(
		m.BarsLoaded,
		m.SeriesTrimmed,
		m.IndicatorsTotal,
		m.ResultsPublished,
		m.EvalDur,
		m.StepDur,
		m.SQLiteCommitDur,
		m.RedisWriteDur,
		m.RingBufOverflow,
		m.SQLiteDropped,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisBufferedWrites,
		m.SnapshotsSaved,
		m.SnapshotsRestored,
		m.StreamClients,
	)

	return m
}

// HealthStatus represents the engine health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastEvalTime   time.Time `json:"last_eval_time"`
	Tickers        []string  `json:"tickers"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastEvalTime(t time.Time) {
	h.mu.Lock()
	h.LastEvalTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetTickers(tickers []string) {
	h.mu.Lock()
	h.Tickers = tickers
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overallStatus = "unhealthy"
	}

	evalAge := ""
	if !h.LastEvalTime.IsZero() {
		evalAge = time.Since(h.LastEvalTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		LastEvalTime    string   `json:"last_eval_time"`
		EvalAge         string   `json:"eval_age"`
		Tickers         []string `json:"tickers"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastEvalTime:    h.LastEvalTime.Format(time.RFC3339),
		EvalAge:         evalAge,
		Tickers:         h.Tickers,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// NewServerWithMux creates the metrics server with extra routes, used
// by the evaluate command to mount the WebSocket stream endpoint on
// the same listener.
func NewServerWithMux(addr string, health *HealthStatus, extra map[string]http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)
	for pattern, handler := range extra {
		mux.Handle(pattern, handler)
	}

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
