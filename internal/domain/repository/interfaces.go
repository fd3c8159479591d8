package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"AgentDesk/internal/domain/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrSessionBusy = errors.New("session is being edited by another request")
)

// AgentBackend is the agent REST API that owns users, agents, features and
// predictions. Every call forwards the caller's cookies untouched.
type AgentBackend interface {
	CreateAgent(ctx context.Context, cookies []*http.Cookie, p models.AgentPayload) (bool, error)
	Features(ctx context.Context, cookies []*http.Cookie) (models.FeatureCatalog, error)
	AgentsByUser(ctx context.Context, cookies []*http.Cookie) ([]models.Agent, error)
	Predict(ctx context.Context, cookies []*http.Cookie, req models.PredictionRequest) (*models.Prediction, error)
	UserPredictions(ctx context.Context, cookies []*http.Cookie) ([]models.Prediction, error)
	AgentPredictions(ctx context.Context, cookies []*http.Cookie, agentID int64) ([]models.Prediction, error)
}

// AuthRelay passes authentication calls through to the backend verbatim.
type AuthRelay interface {
	Relay(ctx context.Context, req models.RelayRequest) (*models.RelayResponse, error)
}

// SessionStore keeps in-progress agent forms between requests.
type SessionStore interface {
	Create(ctx context.Context, s *models.FormSession) error
	Get(ctx context.Context, id string) (*models.FormSession, error)
	Save(ctx context.Context, s *models.FormSession) error
	Delete(ctx context.Context, id string) error
	// Lock serialises edits of one session; the returned func releases it.
	Lock(ctx context.Context, id string) (func(), error)
}

// EventPublisher announces domain events to the broker.
type EventPublisher interface {
	PublishAgentCreated(ctx context.Context, ev models.AgentCreatedEvent) error
	Close() error
}

// PredictionArchive keeps every prediction served so charts can be rebuilt
// without asking the backend again.
type PredictionArchive interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, p models.ArchivedPrediction) error
	Get(ctx context.Context, predictionID int64) (*models.ArchivedPrediction, error)
	Health(ctx context.Context) error
}

// StatusBroadcaster fans training status changes out to live subscribers.
type StatusBroadcaster interface {
	Broadcast(ev models.TrainingStatusEvent)
}

type Metrics interface {
	RecordFormEvent(event, result string)
	RecordSubmission(scale, result string)
	RecordPrediction(result string)
	RecordUpstream(method, path string, status int, took time.Duration)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetRealtimeClients(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFormEvent(string, string) {}
func (NopMetrics) RecordSubmission(string, string) {}
func (NopMetrics) RecordPrediction(string) {}
func (NopMetrics) RecordUpstream(string, string, int, time.Duration) {}
func (NopMetrics) RecordError(string) {}
func (NopMetrics) RecordLatency(string, float64) {}
func (NopMetrics) SetRealtimeClients(int) {}
