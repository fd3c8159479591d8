package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
)

var ErrInvalidStatusEvent = errors.New("invalid training status event")

type lastStatus struct {
	status models.AgentStatus
	at     time.Time
}

// StatusPipeline sits between the training status consumer and the websocket
// hub. It validates events, drops repeats of the same status for an agent
// inside the dedupe window and fans the rest out.
type StatusPipeline struct {
	sink     domrepo.StatusBroadcaster
	metrics  domrepo.Metrics
	window   time.Duration
	onChange func(ctx context.Context, ev models.TrainingStatusEvent)
	now      func() time.Time

	mu       sync.Mutex
	lastSeen map[int64]lastStatus
}

type PipelineOption func(*StatusPipeline)

// WithDedupeWindow sets how long an identical status is suppressed.
func WithDedupeWindow(d time.Duration) PipelineOption {
	return func(p *StatusPipeline) {
		if d >= 0 {
			p.window = d
		}
	}
}

// WithChangeHook runs fn for every accepted event before it is broadcast.
func WithChangeHook(fn func(ctx context.Context, ev models.TrainingStatusEvent)) PipelineOption {
	return func(p *StatusPipeline) { p.onChange = fn }
}

func NewStatusPipeline(sink domrepo.StatusBroadcaster, metrics domrepo.Metrics, opts ...PipelineOption) *StatusPipeline {
	p := &StatusPipeline{
		sink:     sink,
		metrics:  metrics,
		window:   5 * time.Second,
		now:      time.Now,
		lastSeen: make(map[int64]lastStatus),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process forwards ev unless it is invalid or a duplicate. Duplicates are not
// errors.
func (p *StatusPipeline) Process(ctx context.Context, ev *models.TrainingStatusEvent) error {
	start := p.now()
	if err := validateStatus(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if ev.UpdatedAt.IsZero() {
		ev.UpdatedAt = start.UTC()
	}
	if !p.accept(ev.AgentID, ev.Status, start) {
		p.metrics.RecordError("pipeline_duplicate")
		return nil
	}

	if p.onChange != nil {
		p.onChange(ctx, *ev)
	}
	p.sink.Broadcast(*ev)
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

// Forget drops dedupe state older than the window.
func (p *StatusPipeline) Forget() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := p.now().Add(-p.window)
	n := 0
	for id, ls := range p.lastSeen {
		if ls.at.Before(cutoff) {
			delete(p.lastSeen, id)
			n++
		}
	}
	return n
}

func (p *StatusPipeline) accept(agentID int64, status models.AgentStatus, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[agentID]
	if ok && last.status == status && now.Sub(last.at) < p.window {
		return false
	}
	p.lastSeen[agentID] = lastStatus{status: status, at: now}
	return true
}

func validateStatus(ev *models.TrainingStatusEvent) error {
	switch {
	case ev == nil:
		return fmt.Errorf("%w: nil", ErrInvalidStatusEvent)
	case ev.AgentID <= 0:
		return fmt.Errorf("%w: agent id %d", ErrInvalidStatusEvent, ev.AgentID)
	case !ev.Status.Valid():
		return fmt.Errorf("%w: status %q", ErrInvalidStatusEvent, ev.Status)
	}
	return nil
}
