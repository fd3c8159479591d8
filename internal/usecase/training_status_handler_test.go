package usecase

import (
	"context"
	"testing"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	applogger "AgentDesk/pkg/logger"
)

type recordingProcessor struct {
	got []models.TrainingStatusEvent
}

func (p *recordingProcessor) Process(_ context.Context, ev *models.TrainingStatusEvent) error {
	p.got = append(p.got, *ev)
	return nil
}

func TestTrainingStatusHandler_Handle(t *testing.T) {
	next := &recordingProcessor{}
	h := NewTrainingStatusHandler("agent.training_status", next, domrepo.NopMetrics{}, applogger.Nop())
	ctx := context.Background()

	if err := h.Handle(ctx, []byte(`{"agentId":4,"status":"COMPLETED"}`)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(next.got) != 1 || next.got[0].AgentID != 4 || next.got[0].Status != models.AgentCompleted {
		t.Fatalf("unexpected forwarded events %+v", next.got)
	}

	for _, msg := range []string{
		`{"agentId":4`,
		`{"agentId":0,"status":"COMPLETED"}`,
		`{"agentId":4,"status":"DONE"}`,
		`{"agentId":4}`,
	} {
		if err := h.Handle(ctx, []byte(msg)); err == nil {
			t.Fatalf("expected %s to be rejected", msg)
		}
	}
	if len(next.got) != 1 {
		t.Fatalf("rejected messages must not reach the pipeline, got %+v", next.got)
	}
}
