package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"quant-analytics/internal/indicator"
	"quant-analytics/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to SQLite for series loading and
// snapshot restore.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars reads the stored bars of a ticker after the given unix
// timestamp, ordered by timestamp ascending. NULL fields come back as
// NaN.
func (r *Reader) ReadBars(ticker string, afterTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT ticker, ts, open, high, low, close, volume
		FROM bars
		WHERE ticker = ? AND ts > ?
		ORDER BY ts ASC
	`, ticker, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		var open, high, low, close, volume sql.NullFloat64
		if err := rows.Scan(&b.Ticker, &tsUnix, &open, &high, &low, &close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.Date = time.Unix(tsUnix, 0).UTC()
		b.Open = floatOrNaN(open)
		b.High = floatOrNaN(high)
		b.Low = floatOrNaN(low)
		b.Close = floatOrNaN(close)
		b.Volume = floatOrNaN(volume)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ReadCloseSeries loads a ticker's full close series as the parallel
// date/value slices the analytics packages consume.
func (r *Reader) ReadCloseSeries(ticker string) ([]time.Time, []float64, error) {
	rows, err := r.db.Query(`
		SELECT ts, close FROM bars
		WHERE ticker = ?
		ORDER BY ts ASC
	`, ticker)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite query close series: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var tsUnix int64
		var close sql.NullFloat64
		if err := rows.Scan(&tsUnix, &close); err != nil {
			return nil, nil, fmt.Errorf("sqlite scan close series: %w", err)
		}
		dates = append(dates, time.Unix(tsUnix, 0).UTC())
		values = append(values, floatOrNaN(close))
	}
	return dates, values, rows.Err()
}

// ReadLatestSnapshot loads the most recent run snapshot for a ticker.
// Returns nil without error when no snapshot exists.
func (r *Reader) ReadLatestSnapshot(ticker string) (*indicator.RunSnapshot, error) {
	var data string
	err := r.db.QueryRow(`
		SELECT data FROM run_snapshots
		WHERE ticker = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, ticker).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // no snapshot
		}
		return nil, fmt.Errorf("sqlite read snapshot: %w", err)
	}

	var snap indicator.RunSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
