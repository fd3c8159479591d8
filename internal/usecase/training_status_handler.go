package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	xhttp "AgentDesk/pkg/http"
	pkgkafka "AgentDesk/pkg/kafka"
	applogger "AgentDesk/pkg/logger"
)

// StatusProcessor accepts decoded training status events.
type StatusProcessor interface {
	Process(ctx context.Context, ev *models.TrainingStatusEvent) error
}

// TrainingStatusHandler consumes training status updates from Kafka.
type TrainingStatusHandler struct {
	topic   string
	next    StatusProcessor
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewTrainingStatusHandler(topic string, next StatusProcessor, metrics domrepo.Metrics, log *applogger.Logger) *TrainingStatusHandler {
	return &TrainingStatusHandler{topic: topic, next: next, metrics: metrics, log: log}
}

func (h *TrainingStatusHandler) Topic() string { return h.topic }

// incoming message schema: {agentId, status, userId?, updatedAt?}
func (h *TrainingStatusHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.TrainingStatusEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode training status: %w", err)
	}
	if verr := xhttp.ValidateStruct(&ev); verr != nil {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("invalid training status: %s", verr[0].Message)
	}
	if err := h.next.Process(ctx, &ev); err != nil {
		return err
	}
	h.log.Debug("training status received",
		applogger.Int64("agent_id", ev.AgentID),
		applogger.String("status", string(ev.Status)),
		applogger.String("trace_id", pkgkafka.TraceID(ctx)))
	return nil
}

var _ pkgkafka.MessageHandler = (*TrainingStatusHandler)(nil)
