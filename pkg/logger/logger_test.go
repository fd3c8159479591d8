package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).With(String("component", "form"))
	l.Info("session created", String("session_id", "abc"), Int("units", 2), Duration("took", 1500*time.Millisecond))
	l.Debug("dropped")

	var got map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if got["component"] != "form" || got["session_id"] != "abc" || got["units"] != float64(2) || got["took"] != float64(1500) {
		t.Fatalf("unexpected entry %v", got)
	}
}

type capture struct {
	mu      sync.Mutex
	batches [][]DigestEntry
	topic   string
}

func (c *capture) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
	c.batches = append(c.batches, payload.([]DigestEntry))
	return nil
}

func TestDigestFoldsRepeats(t *testing.T) {
	pub := &capture{}
	d := NewDigest(DigestConfig{Interval: time.Hour, Threshold: 10, Topic: "logs", Publisher: pub})
	l := Nop()
	l.AttachDigest(d)

	for i := 0; i < 3; i++ {
		l.Error("upstream failed", Error(errors.New("boom")))
	}
	if n := d.Pending(); n != 1 {
		t.Fatalf("expected one folded entry, got %d", n)
	}
	l.DetachDigest()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || pub.topic != "logs" {
		t.Fatalf("expected one batch on logs, got %d on %q", len(pub.batches), pub.topic)
	}
	if e := pub.batches[0][0]; e.Count != 3 || e.Fields["error"] != "boom" {
		t.Fatalf("unexpected entry %+v", e)
	}
}
