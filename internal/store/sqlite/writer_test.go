package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quant-analytics/internal/model"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := New(WriterConfig{DBPath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func countValues(t *testing.T, w *Writer) int {
	t.Helper()
	var n int
	if err := w.DB().QueryRow(`SELECT COUNT(*) FROM indicator_values`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// Closing the result channel must flush whatever is still batched and
// make Run return, so callers can wait on it instead of sleeping.
func TestRun_FlushesOnChannelClose(t *testing.T) {
	w := newTestWriter(t)

	resultCh := make(chan model.IndicatorResult, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(context.Background(), resultCh)
	}()

	for i := 0; i < 3; i++ {
		resultCh <- model.IndicatorResult{
			Ticker: "AAPL",
			Name:   "sma_10",
			Date:   time.Date(2020, time.January, i+1, 0, 0, 0, 0, time.UTC),
			T:      i,
			Values: map[string]float64{"sma": float64(100 + i)},
		}
	}
	close(resultCh)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}

	if got := countValues(t, w); got != 3 {
		t.Errorf("rows after close: got %d, want 3", got)
	}
}

func TestRun_FlushesOnContextCancel(t *testing.T) {
	w := newTestWriter(t)

	ctx, cancel := context.WithCancel(context.Background())
	resultCh := make(chan model.IndicatorResult, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, resultCh)
	}()

	resultCh <- model.IndicatorResult{
		Ticker: "MSFT",
		Name:   "rsiwilder_14",
		Date:   time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC),
		T:      14,
		Values: map[string]float64{"rsi": 55.5},
	}
	// Let Run drain the buffered send before cancelling.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if got := countValues(t, w); got != 1 {
		t.Errorf("rows after cancel: got %d, want 1", got)
	}
}
