package stream

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"quant-analytics/internal/model"
)

// envelope is the parsed WS message structure.
type envelope struct {
	Key     string          `json:"key"`
	Data    json.RawMessage `json:"data"`
	TS      string          `json:"ts"`
	Seq     int64           `json:"seq"`
	Initial bool            `json:"initial"`
}

// addFakeClient registers a client with a buffered send channel and no
// connection. Broadcast never touches conn, so this exercises the full
// fan-out path.
func addFakeClient(h *Hub, tickers ...string) *Client {
	c := &Client{send: make(chan []byte, 16), hub: h}
	if len(tickers) > 0 {
		c.tickers = make(map[string]bool, len(tickers))
		for _, t := range tickers {
			c.tickers[t] = true
		}
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func recvEnvelope(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case buf := <-c.send:
		var env envelope
		if err := json.Unmarshal(buf, &env); err != nil {
			t.Fatalf("envelope is not valid JSON: %v\nraw: %s", err, buf)
		}
		return env
	default:
		t.Fatal("no envelope delivered")
		return envelope{}
	}
}

func TestBroadcast_EnvelopeFormat(t *testing.T) {
	h := NewHub()
	c := addFakeClient(h)

	res := model.IndicatorResult{
		Ticker: "RELIANCE",
		Name:   "sma_10",
		Date:   time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		T:      42,
		Values: map[string]float64{"ma": 103.5},
	}
	h.Broadcast(res)

	env := recvEnvelope(t, c)
	if env.Key != "RELIANCE:sma_10" {
		t.Errorf("key: got %q, want RELIANCE:sma_10", env.Key)
	}
	if env.Seq != 1 {
		t.Errorf("seq: got %d, want 1", env.Seq)
	}
	if _, err := time.Parse(time.RFC3339Nano, env.TS); err != nil {
		t.Errorf("ts is not valid RFC3339Nano: %v", err)
	}

	var data struct {
		Ticker string              `json:"ticker"`
		T      int                 `json:"t"`
		Values map[string]*float64 `json:"values"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("data is not valid JSON: %v", err)
	}
	if data.Ticker != "RELIANCE" || data.T != 42 {
		t.Errorf("data: got ticker=%q t=%d", data.Ticker, data.T)
	}
	if v := data.Values["ma"]; v == nil || *v != 103.5 {
		t.Errorf("values.ma: got %v, want 103.5", v)
	}
}

// NaN outputs must serialize as JSON null, not break the envelope.
func TestBroadcast_NaNValueIsNull(t *testing.T) {
	h := NewHub()
	c := addFakeClient(h)

	h.Broadcast(model.IndicatorResult{
		Ticker: "TCS",
		Name:   "bollinger_20",
		T:      5,
		Values: map[string]float64{"bperc": math.NaN(), "mean": 7},
	})

	env := recvEnvelope(t, c)
	var data struct {
		Values map[string]*float64 `json:"values"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("data is not valid JSON: %v", err)
	}
	if data.Values["bperc"] != nil {
		t.Errorf("NaN value: got %v, want null", *data.Values["bperc"])
	}
	if v := data.Values["mean"]; v == nil || *v != 7 {
		t.Errorf("values.mean: got %v, want 7", v)
	}
}

func TestBroadcast_TickerFilter(t *testing.T) {
	h := NewHub()
	all := addFakeClient(h)
	onlyTCS := addFakeClient(h, "TCS")

	h.Broadcast(model.IndicatorResult{Ticker: "RELIANCE", Name: "sma_10", T: 1})

	if len(all.send) != 1 {
		t.Errorf("unfiltered client: got %d envelopes, want 1", len(all.send))
	}
	if len(onlyTCS.send) != 0 {
		t.Errorf("filtered client: got %d envelopes, want 0", len(onlyTCS.send))
	}

	h.Broadcast(model.IndicatorResult{Ticker: "TCS", Name: "sma_10", T: 1})
	if len(onlyTCS.send) != 1 {
		t.Errorf("filtered client after matching broadcast: got %d, want 1", len(onlyTCS.send))
	}
}

func TestBroadcast_SeqMonotonicAndLatest(t *testing.T) {
	h := NewHub()
	c := addFakeClient(h)

	for i := 1; i <= 3; i++ {
		h.Broadcast(model.IndicatorResult{Ticker: "INFY", Name: "ewma_10", T: i})
		env := recvEnvelope(t, c)
		if env.Seq != int64(i) {
			t.Errorf("seq: got %d, want %d", env.Seq, i)
		}
	}

	// Only the newest envelope per key is retained.
	latest := h.LatestAll()
	if len(latest) != 1 {
		t.Fatalf("LatestAll: got %d keys, want 1", len(latest))
	}
	var data struct {
		T int `json:"t"`
	}
	if err := json.Unmarshal(latest["INFY:ewma_10"], &data); err != nil {
		t.Fatalf("latest data is not valid JSON: %v", err)
	}
	if data.T != 3 {
		t.Errorf("latest t: got %d, want 3", data.T)
	}
}

// A client with a full send queue must not stall the broadcast loop.
func TestBroadcast_SlowClientDropped(t *testing.T) {
	h := NewHub()
	slow := &Client{send: make(chan []byte, 1), hub: h}
	h.mu.Lock()
	h.clients[slow] = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Broadcast(model.IndicatorResult{Ticker: "HDFC", Name: "rsi_14", T: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	if len(slow.send) != 1 {
		t.Errorf("slow client queue: got %d, want 1 (overflow dropped)", len(slow.send))
	}
}

func TestRemoveClient_Idempotent(t *testing.T) {
	h := NewHub()
	c := addFakeClient(h)

	h.RemoveClient(c)
	h.RemoveClient(c) // second call must not close the channel twice

	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount: got %d, want 0", got)
	}
}
