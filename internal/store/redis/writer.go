package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"quant-analytics/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: a few years of daily results per stream.
	streamMaxLen     = 2048
	defaultLatestTTL = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes evaluated indicator results to Redis: one stream
// per ticker+indicator, a latest-value key with TTL and a pubsub
// channel for live subscribers.
type Writer struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// Run reads results from resultCh and publishes them.
// Blocks until ctx is cancelled or resultCh is closed.
func (w *Writer) Run(ctx context.Context, resultCh <-chan model.IndicatorResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-resultCh:
			if !ok {
				return
			}
			w.writeResult(ctx, res)
		}
	}
}

// WriteResultBatch publishes multiple results in a single Redis
// pipeline, batching XADD + SET + PUBLISH into one network roundtrip.
func (w *Writer) WriteResultBatch(ctx context.Context, results []model.IndicatorResult) {
	if len(results) == 0 {
		return
	}

	pipe := w.client.Pipeline()
	for i := range results {
		res := &results[i]
		jsonData := string(res.JSON())

		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: streamKey(res),
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": jsonData},
		})
		pipe.Set(ctx, latestKey(res), jsonData, defaultLatestTTL)
		pipe.Publish(ctx, pubsubChannel(res), jsonData)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] result batch pipeline error (%d results): %v", len(results), err)
	}
}

// writeResult publishes a single result: XADD + SET + PUBLISH in one
// pipeline.
func (w *Writer) writeResult(ctx context.Context, res model.IndicatorResult) {
	jsonData := string(res.JSON())

	pipe := w.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey(&res),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Set(ctx, latestKey(&res), jsonData, defaultLatestTTL)
	pipe.Publish(ctx, pubsubChannel(&res), jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] result pipeline error for %s: %v", res.Key(), err)
	}
}

func streamKey(res *model.IndicatorResult) string {
	return "ind:" + res.Key()
}

func latestKey(res *model.IndicatorResult) string {
	return "ind:latest:" + res.Key()
}

func pubsubChannel(res *model.IndicatorResult) string {
	return "pub:ind:" + res.Key()
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
