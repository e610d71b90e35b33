// cmd/evaluate walks stored OHLCV series through the indicator engine
// and publishes every evaluated step to SQLite, Redis and an optional
// WebSocket stream.
//
// Usage:
//
//	go run ./cmd/evaluate --tickers=RELIANCE,TCS --indicators=sma:20,macd:26 --mode=online
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quant-analytics/config"
	"quant-analytics/internal/calendar"
	"quant-analytics/internal/indicator"
	"quant-analytics/internal/logger"
	"quant-analytics/internal/metrics"
	"quant-analytics/internal/model"
	"quant-analytics/internal/ringbuf"
	"quant-analytics/internal/series"
	redisstore "quant-analytics/internal/store/redis"
	sqlitestore "quant-analytics/internal/store/sqlite"
	"quant-analytics/internal/stream"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[evaluate] starting...")

	cfg := config.Load()

	// Flags override env config.
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	tickersStr := flag.String("tickers", cfg.Tickers, "Comma-separated tickers to evaluate")
	indicatorsStr := flag.String("indicators", cfg.Indicators, "Indicator specs: kind:window,...")
	fromStr := flag.String("from", "", "Start date YYYY-MM-DD (inclusive, empty=series start)")
	toStr := flag.String("to", "", "End date YYYY-MM-DD (inclusive, empty=series end)")
	modeStr := flag.String("mode", "online", "Evaluation mode: bulk or online")
	resume := flag.Bool("resume", false, "Resume online walks from the latest persisted snapshot")
	serve := flag.Bool("serve", false, "Expose evaluated results on ws at the metrics address")
	redisAddr := flag.String("redis", cfg.RedisAddr, "Redis address (empty=disable redis publishing)")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Metrics/health listen address")
	flag.Parse()

	tickers := splitList(*tickersStr)
	specs := splitList(*indicatorsStr)
	if len(tickers) == 0 {
		log.Fatal("[evaluate] no tickers specified (set --tickers or TICKERS)")
	}
	if len(specs) == 0 {
		log.Fatal("[evaluate] no indicator specs specified")
	}

	logger.Init("evaluate", slog.LevelInfo)

	mode, err := parseMode(*modeStr)
	if err != nil {
		log.Fatalf("[evaluate] %v", err)
	}
	if *resume && mode != indicator.Online {
		log.Fatal("[evaluate] --resume requires --mode=online")
	}

	from, to, err := parseDateRange(*fromStr, *toStr)
	if err != nil {
		log.Fatalf("[evaluate] %v", err)
	}

	// Snap the requested bounds to business days so weekend bounds
	// behave the same as their nearest trading day.
	cal := calendar.New(nil)
	if !from.IsZero() && !cal.IsBusinessDay(from) {
		from = cal.Next(from)
		log.Printf("[evaluate] --from snapped forward to %s", from.Format("2006-01-02"))
	}
	if !to.IsZero() && !cal.IsBusinessDay(to) {
		to = cal.Previous(to)
		log.Printf("[evaluate] --to snapped back to %s", to.Format("2006-01-02"))
	}

	// ---- Metrics, health, optional WS stream ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetTickers(tickers)

	var hub *stream.Hub
	var metricsSrv *metrics.Server
	if *serve {
		hub = stream.NewHub()
		metricsSrv = metrics.NewServerWithMux(*metricsAddr, health, map[string]http.Handler{
			"/ws": http.HandlerFunc(hub.HandleWS),
		})
	} else {
		metricsSrv = metrics.NewServer(*metricsAddr, health)
	}
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// ---- SQLite (bars in, results + snapshots out) ----
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[evaluate] sqlite open failed: %v", err)
	}
	defer reader.Close()

	sqlWriter, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[evaluate] sqlite writer init failed: %v", err)
	}
	defer sqlWriter.Close()
	health.SetSQLiteOK(true)

	// ---- Redis (optional) behind a circuit breaker ----
	var bufWriter *redisstore.BufferedWriter
	if *redisAddr != "" {
		redisWriter, err := redisstore.New(redisstore.WriterConfig{
			Addr:     *redisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[evaluate] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
		} else {
			health.SetRedisConnected(true)
			cb := redisstore.NewCircuitBreaker(5, 10*time.Second)
			cb.OnStateChange = func(from, to redisstore.State) {
				log.Printf("[evaluate] redis circuit breaker: %v -> %v", from, to)
				prom.RedisCircuitBreakerState.Set(float64(to))
				if to == redisstore.StateOpen {
					prom.RedisCircuitBreakerTrips.Inc()
				}
			}
			bufWriter = redisstore.NewBufferedWriter(ctx, redisWriter, cb, 10000)
			bufWriter.OnBuffer = func() { prom.RedisBufferedWrites.Inc() }
			defer redisWriter.Close()

			health.StartLivenessChecker(ctx, redisWriter.Client(), sqlWriter.DB(), 10*time.Second)
		}
	}
	if bufWriter == nil {
		health.StartLivenessChecker(ctx, nil, sqlWriter.DB(), 10*time.Second)
	}

	// ---- Publish pipeline: ring buffer decouples the walk from IO ----
	ring := ringbuf.New(8192)
	sqliteResultCh := make(chan model.IndicatorResult, 4096)
	sqlDone := make(chan struct{})
	go func() {
		defer close(sqlDone)
		sqlWriter.Run(ctx, sqliteResultCh)
	}()

	pubDone := make(chan struct{})
	walkDone := make(chan struct{})
	go func() {
		defer close(pubDone)
		for {
			res, ok := ring.Pop()
			if !ok {
				select {
				case <-walkDone:
					if ring.Len() == 0 {
						return
					}
				case <-ctx.Done():
					return
				default:
				}
				time.Sleep(time.Millisecond)
				continue
			}
			prom.ResultsPublished.Inc()
			select {
			case sqliteResultCh <- res:
			default:
				prom.SQLiteDropped.Inc()
				log.Printf("[evaluate] sqlite queue full, dropping %s %s", res.Ticker, res.Name)
			}
			if bufWriter != nil {
				start := time.Now()
				bufWriter.WriteResult(res)
				prom.RedisWriteDur.Observe(time.Since(start).Seconds())
			}
			if hub != nil {
				hub.Broadcast(res)
			}
		}
	}()

	// ---- Walk every ticker ----
	totalSteps := 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		steps, err := evaluateTicker(ctx, evalParams{
			ticker:  ticker,
			specs:   specs,
			mode:    mode,
			from:    from,
			to:      to,
			resume:  *resume,
			reader:  reader,
			writer:  sqlWriter,
			ring:    ring,
			metrics: prom,
		})
		if err != nil {
			log.Printf("[evaluate] %s: %v", ticker, err)
			continue
		}
		totalSteps += steps
		health.SetLastEvalTime(time.Now())
	}
	close(walkDone)
	<-pubDone
	// Closing the channel makes the batched writer flush and return.
	close(sqliteResultCh)
	<-sqlDone

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║       EVALUATION COMPLETE            ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Tickers:           %-16d ║\n", len(tickers))
	fmt.Printf("║  Indicators:        %-16d ║\n", len(specs))
	fmt.Printf("║  Steps evaluated:   %-16d ║\n", totalSteps)
	fmt.Printf("║  Ring overflows:    %-16d ║\n", ring.Overflow())
	fmt.Println("╚══════════════════════════════════════╝")

	if *serve {
		log.Printf("[evaluate] serving results on ws://%s/ws (ctrl-c to stop)", *metricsAddr)
		<-ctx.Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)
}

type evalParams struct {
	ticker  string
	specs   []string
	mode    indicator.Mode
	from    time.Time
	to      time.Time
	resume  bool
	reader  *sqlitestore.Reader
	writer  *sqlitestore.Writer
	ring    *ringbuf.Ring
	metrics *metrics.Metrics
}

// evaluateTicker loads one ticker's bars, walks every indicator spec
// over them and pushes each step into the publish ring. Returns the
// number of steps evaluated.
func evaluateTicker(ctx context.Context, p evalParams) (int, error) {
	ctx = logger.WithRunID(ctx, logger.GenerateRunID(p.ticker, time.Now()))

	bars, err := p.reader.ReadBars(p.ticker, 0)
	if err != nil {
		return 0, fmt.Errorf("read bars: %w", err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no bars stored")
	}
	p.metrics.BarsLoaded.WithLabelValues(p.ticker).Add(float64(len(bars)))

	dates, in := barColumns(bars)

	// Trim to the requested date window.
	if !p.from.IsZero() || !p.to.IsZero() {
		lo, hi := series.SearchTrimRange(dates, p.from, p.to)
		if lo >= hi {
			return 0, fmt.Errorf("no bars in [%s, %s]", p.from.Format("2006-01-02"), p.to.Format("2006-01-02"))
		}
		dates = dates[lo:hi]
		in = trimInput(in, lo, hi)
		p.metrics.SeriesTrimmed.Inc()
	}

	// Build every requested indicator against the trimmed columns.
	inds := make([]indicator.Indicator, 0, len(p.specs))
	labels := make([]string, 0, len(p.specs))
	for _, spec := range p.specs {
		ind, err := indicator.Build(spec, in, p.mode)
		if err != nil {
			log.Printf("[evaluate] %s: skipping %q: %v", p.ticker, spec, err)
			continue
		}
		inds = append(inds, ind)
		labels = append(labels, indicator.Label(spec))
	}
	if len(inds) == 0 {
		return 0, fmt.Errorf("no valid indicator specs")
	}

	for _, ind := range inds {
		if err := ind.Start(ind.MinLength()); err != nil {
			return 0, fmt.Errorf("%s start: %w", ind.Name(), err)
		}
	}

	// Resume matched indicators from the latest snapshot; unmatched
	// ones keep the cold start above.
	if p.resume {
		snap, err := p.reader.ReadLatestSnapshot(p.ticker)
		if err != nil {
			log.Printf("[evaluate] %s: snapshot read failed: %v (cold start)", p.ticker, err)
		} else if snap != nil {
			restored, err := indicator.RestoreRun(inds, snap)
			if err != nil {
				return 0, fmt.Errorf("snapshot restore: %w", err)
			}
			p.metrics.SnapshotsRestored.Add(float64(restored))
			log.Printf("[evaluate] %s: resumed %d/%d indicators from snapshot", p.ticker, restored, len(inds))
		}
	}

	steps := 0
	evalStart := time.Now()
	for i, ind := range inds {
		outputs := indicator.OutputNames(ind.Name())
		for {
			select {
			case <-ctx.Done():
				return steps, ctx.Err()
			default:
			}

			stepStart := time.Now()
			t, vals, ok := ind.Next()
			if !ok {
				break
			}
			p.metrics.StepDur.Observe(time.Since(stepStart).Seconds())
			p.metrics.IndicatorsTotal.WithLabelValues(ind.Name()).Inc()

			values := make(map[string]float64, len(vals))
			for j, v := range vals {
				values[outputs[j]] = v
			}
			res := model.IndicatorResult{
				Ticker: p.ticker,
				Name:   labels[i],
				Date:   dates[t],
				T:      t,
				Values: values,
			}
			if !p.ring.Push(res) {
				p.metrics.RingBufOverflow.Inc()
			}
			steps++
		}
	}
	p.metrics.EvalDur.Observe(time.Since(evalStart).Seconds())

	// Persist the run state so a later --resume continues the online
	// walks where this one stopped.
	if p.mode == indicator.Online {
		snap := indicator.CaptureRun(p.ticker, inds)
		if len(snap.Indicators) > 0 {
			if err := p.writer.SaveSnapshot(snap); err != nil {
				log.Printf("[evaluate] %s: snapshot save failed: %v", p.ticker, err)
			} else {
				p.metrics.SnapshotsSaved.Inc()
			}
		}
	}

	args := []any{
		slog.String("ticker", p.ticker),
		slog.Int("steps", steps),
		slog.Int("indicators", len(inds)),
		slog.Int("bars", len(dates)),
	}
	args = append(args, logger.LogWithRun(ctx)...)
	slog.Info("ticker evaluated", args...)
	return steps, nil
}

// barColumns splits bars into the date index and aligned value columns.
func barColumns(bars []model.Bar) ([]time.Time, indicator.SeriesInput) {
	n := len(bars)
	dates := make([]time.Time, n)
	in := indicator.SeriesInput{
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range bars {
		dates[i] = b.Date
		in.High[i] = b.High
		in.Low[i] = b.Low
		in.Close[i] = b.Close
		in.Volume[i] = b.Volume
	}
	return dates, in
}

func trimInput(in indicator.SeriesInput, lo, hi int) indicator.SeriesInput {
	return indicator.SeriesInput{
		High:   in.High[lo:hi],
		Low:    in.Low[lo:hi],
		Close:  in.Close[lo:hi],
		Volume: in.Volume[lo:hi],
	}
}

func parseMode(s string) (indicator.Mode, error) {
	switch strings.ToLower(s) {
	case "bulk":
		return indicator.Bulk, nil
	case "online":
		return indicator.Online, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want bulk or online)", s)
	}
}

// parseDateRange parses inclusive YYYY-MM-DD bounds; empty strings
// leave the corresponding bound open (zero time).
func parseDateRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("bad --from: %w", err)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("bad --to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("--to %s before --from %s", toStr, fromStr)
	}
	return from, to, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
