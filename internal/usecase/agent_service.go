package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"AgentDesk/internal/dashboard"
	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/timeslot"
	"AgentDesk/pkg/cache"
	xhttp "AgentDesk/pkg/http"
	applogger "AgentDesk/pkg/logger"
)

const agentsCachePrefix = "agents"

// SubmitResult is returned once the backend accepted a new agent.
type SubmitResult struct {
	EventID string              `json:"eventId"`
	Payload models.AgentPayload `json:"agent"`
}

// AgentService submits agent forms to the backend and lists the user's agents.
type AgentService struct {
	backend   domrepo.AgentBackend
	sessions  domrepo.SessionStore
	features  *FeatureService
	publisher domrepo.EventPublisher
	cache     cache.Service
	agentsTTL time.Duration
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

func NewAgentService(
	backend domrepo.AgentBackend,
	sessions domrepo.SessionStore,
	features *FeatureService,
	publisher domrepo.EventPublisher,
	c cache.Service,
	agentsTTL time.Duration,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *AgentService {
	return &AgentService{
		backend:   backend,
		sessions:  sessions,
		features:  features,
		publisher: publisher,
		cache:     c,
		agentsTTL: agentsTTL,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Submit builds the creation payload from a stored session or an inline form
// and sends it to the backend. The session is removed once the agent exists.
func (s *AgentService) Submit(ctx context.Context, cookies []*http.Cookie, req *models.SubmitAgentRequest) (*SubmitResult, error) {
	start := time.Now()
	res, scale, err := s.submit(ctx, cookies, req)
	label := string(scale)
	if label == "" {
		label = "unknown"
	}
	s.metrics.RecordSubmission(label, result(err))
	s.metrics.RecordLatency("agent_submit", time.Since(start).Seconds())
	return res, err
}

func (s *AgentService) submit(ctx context.Context, cookies []*http.Cookie, req *models.SubmitAgentRequest) (*SubmitResult, timeslot.PredictionScale, error) {
	name, market, features := req.Name, req.TargetMarket, req.Features
	var form *timeslot.Form

	if req.SessionID != "" {
		unlock, err := s.sessions.Lock(ctx, req.SessionID)
		if err != nil {
			return nil, "", toAppError(err)
		}
		defer unlock()

		sess, err := s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return nil, "", toAppError(err)
		}
		if form, err = timeslot.Restore(sess.Form); err != nil {
			return nil, "", toAppError(err)
		}
		if name == "" {
			name = sess.Name
		}
		if market == "" {
			market = sess.TargetMarket
		}
		if features == nil {
			features = sess.Features
		}
	} else {
		var err error
		form, err = timeslot.Restore(timeslot.State{
			Scale:      timeslot.PredictionScale(req.PredictionScale),
			Frequency:  timeslot.Frequency(req.Frequency),
			Boundaries: req.Boundaries,
		})
		if err != nil {
			return nil, "", toAppError(err)
		}
	}
	scale := form.Scale()

	name, market = strings.TrimSpace(name), strings.TrimSpace(market)
	if name == "" {
		return nil, scale, xhttp.ValidationFailed("ERR_NAME_REQUIRED", "agent name is required").WithField("name")
	}
	if market == "" {
		return nil, scale, xhttp.ValidationFailed("ERR_MARKET_REQUIRED", "target market is required").WithField("targetMarket")
	}
	if scale == "" {
		return nil, scale, toAppError(timeslot.ErrScaleRequired)
	}

	slots, err := form.Slots()
	if err != nil {
		return nil, scale, toAppError(err)
	}
	resolved, err := s.features.Resolve(ctx, cookies, features)
	if err != nil {
		return nil, scale, err
	}

	payload := models.AgentPayload{
		Name:            name,
		TargetMarket:    market,
		InputStartTime:  slots.InputStart,
		InputEndTime:    slots.InputEnd,
		OutputStartTime: slots.OutputStart,
		OutputEndTime:   slots.OutputEnd,
		Frequency:       form.Frequency(),
		PredictionScale: scale,
		Features:        resolved,
	}
	ok, err := s.backend.CreateAgent(ctx, cookies, payload)
	if err != nil {
		s.log.Warn("agent creation failed upstream",
			applogger.String("name", name), applogger.Error(err))
		return nil, scale, err
	}
	if !ok {
		return nil, scale, xhttp.NewAppError("ERR_AGENT_REJECTED", "", "the backend refused to create the agent", http.StatusUnprocessableEntity)
	}

	ev := models.AgentCreatedEvent{
		EventID:         uuid.NewString(),
		SessionID:       req.SessionID,
		Name:            name,
		TargetMarket:    market,
		PredictionScale: scale,
		Frequency:       form.Frequency(),
		Slots:           slots,
		Features:        sortedKeys(resolved),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.publisher.PublishAgentCreated(ctx, ev); err != nil {
		s.metrics.RecordError("publish_agent_created")
		s.log.Error("failed to publish agent created event",
			applogger.String("event_id", ev.EventID), applogger.Error(err))
	}
	s.InvalidateAgents(ctx)
	if req.SessionID != "" {
		if err := s.sessions.Delete(ctx, req.SessionID); err != nil {
			s.log.Warn("failed to drop submitted session",
				applogger.String("session_id", req.SessionID), applogger.Error(err))
		}
	}

	s.log.Info("agent submitted",
		applogger.String("event_id", ev.EventID),
		applogger.String("market", market),
		applogger.String("scale", string(scale)))
	return &SubmitResult{EventID: ev.EventID, Payload: payload}, scale, nil
}

// List returns the caller's agents grouped for the dashboard. Lists are cached
// per cookie set.
func (s *AgentService) List(ctx context.Context, cookies []*http.Cookie) (dashboard.Groups, error) {
	agents, err := s.agents(ctx, cookies)
	if err != nil {
		return dashboard.Groups{}, err
	}
	return dashboard.GroupAgents(agents), nil
}

// Find returns one of the caller's agents.
func (s *AgentService) Find(ctx context.Context, cookies []*http.Cookie, id int64) (models.Agent, error) {
	agents, err := s.agents(ctx, cookies)
	if err != nil {
		return models.Agent{}, err
	}
	a, ok := dashboard.FindAgent(agents, id)
	if !ok {
		return models.Agent{}, xhttp.NotFoundErrorf("agent %d not found", id).WithParam("agentId", id)
	}
	return a, nil
}

func (s *AgentService) AgentPredictions(ctx context.Context, cookies []*http.Cookie, id int64) ([]models.Prediction, error) {
	preds, err := s.backend.AgentPredictions(ctx, cookies, id)
	if err != nil {
		return nil, err
	}
	if preds == nil {
		preds = []models.Prediction{}
	}
	dashboard.SortNewestFirst(preds)
	return preds, nil
}

// InvalidateAgents drops every cached agent list. Failures only cost a stale
// list until the TTL runs out.
func (s *AgentService) InvalidateAgents(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, cache.BuildPattern(agentsCachePrefix)); err != nil {
		s.log.Warn("failed to invalidate agent lists", applogger.Error(err))
	}
}

func (s *AgentService) agents(ctx context.Context, cookies []*http.Cookie) ([]models.Agent, error) {
	key := cache.GenerateKey(agentsCachePrefix, cookieDigest(cookies))
	return cache.GetOrLoad(ctx, s.cache, key, s.agentsTTL, func(ctx context.Context) ([]models.Agent, error) {
		agents, err := s.backend.AgentsByUser(ctx, cookies)
		if err != nil {
			return nil, err
		}
		if agents == nil {
			agents = []models.Agent{}
		}
		return agents, nil
	})
}

// cookieDigest identifies a caller without keeping their cookies in cache keys.
func cookieDigest(cookies []*http.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, ";")))
	return hex.EncodeToString(sum[:16])
}
