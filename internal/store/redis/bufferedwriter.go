package redis

import (
	"context"
	"log"
	"sync"

	"quant-analytics/internal/model"
)

// BufferedWriter wraps a Redis Writer with a circuit breaker. While
// the circuit is open, results are buffered locally and replayed when
// it closes again, so a Redis outage mid-evaluation loses nothing up
// to the buffer cap.
type BufferedWriter struct {
	writer *Writer
	cb     *CircuitBreaker
	ctx    context.Context

	mu     sync.Mutex
	buffer []model.IndicatorResult
	maxBuf int // oldest entries drop beyond this

	// Callbacks
	OnBuffer func()          // called when a result is buffered (for metrics)
	OnFlush  func(count int) // called after flushing buffered results
}

// NewBufferedWriter creates a BufferedWriter wrapping the given Writer.
func NewBufferedWriter(ctx context.Context, w *Writer, cb *CircuitBreaker, maxBufferSize int) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bw := &BufferedWriter{
		writer: w,
		cb:     cb,
		ctx:    ctx,
		buffer: make([]model.IndicatorResult, 0, 256),
		maxBuf: maxBufferSize,
	}

	// Register flush on circuit close
	prevCallback := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prevCallback != nil {
			prevCallback(from, to)
		}
		if to == StateClosed {
			go bw.flush()
		}
	}

	return bw
}

// WriteResult publishes a result through the circuit breaker. If the
// circuit is open, the result is buffered locally instead of lost.
func (bw *BufferedWriter) WriteResult(res model.IndicatorResult) error {
	err := bw.cb.Execute(func() error {
		bw.writer.writeResult(bw.ctx, res)
		return nil // writeResult logs errors internally
	})
	if err == ErrCircuitOpen {
		bw.bufferResult(res)
		return nil // buffered, not lost
	}
	return err
}

func (bw *BufferedWriter) bufferResult(res model.IndicatorResult) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if len(bw.buffer) >= bw.maxBuf {
		// Buffer full — drop oldest
		bw.buffer = bw.buffer[1:]
	}
	bw.buffer = append(bw.buffer, res)

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// flush replays all buffered results through the underlying writer.
func (bw *BufferedWriter) flush() {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return
	}
	// Take ownership of the buffer
	toFlush := bw.buffer
	bw.buffer = make([]model.IndicatorResult, 0, 256)
	bw.mu.Unlock()

	bw.writer.WriteResultBatch(bw.ctx, toFlush)

	log.Printf("[buffered-writer] flushed %d buffered results", len(toFlush))
	if bw.OnFlush != nil {
		bw.OnFlush(len(toFlush))
	}
}

// PendingCount returns the number of buffered results waiting to be flushed.
func (bw *BufferedWriter) PendingCount() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

// Underlying returns the wrapped Redis writer for direct access.
func (bw *BufferedWriter) Underlying() *Writer {
	return bw.writer
}
