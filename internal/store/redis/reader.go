package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quant-analytics/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader provides read access to published indicator results: the
// latest-value keys, stream history and the live pubsub channels.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// GetLatest returns the most recently published result for
// ticker+name, or nil without error when none exists.
func (r *Reader) GetLatest(ctx context.Context, ticker, name string) (*model.IndicatorResult, error) {
	data, err := r.client.Get(ctx, "ind:latest:"+ticker+":"+name).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET latest: %w", err)
	}

	var res model.IndicatorResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, fmt.Errorf("unmarshal latest result: %w", err)
	}
	return &res, nil
}

// ReadResults returns up to count results from the ticker+name stream,
// newest first.
func (r *Reader) ReadResults(ctx context.Context, ticker, name string, count int64) ([]model.IndicatorResult, error) {
	msgs, err := r.client.XRevRangeN(ctx, "ind:"+ticker+":"+name, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("redis XREVRANGE: %w", err)
	}

	results := make([]model.IndicatorResult, 0, len(msgs))
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			log.Printf("[redis-reader] stream %s:%s entry %s has no data field", ticker, name, msg.ID)
			continue
		}
		var res model.IndicatorResult
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			log.Printf("[redis-reader] stream %s:%s entry %s: %v", ticker, name, msg.ID, err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// SubscribeResults subscribes to the live result channel for
// ticker+name. The caller owns the returned PubSub and must close it.
func (r *Reader) SubscribeResults(ctx context.Context, ticker, name string) *goredis.PubSub {
	return r.client.Subscribe(ctx, "pub:ind:"+ticker+":"+name)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.client.Close()
}
