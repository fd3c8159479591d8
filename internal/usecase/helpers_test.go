package usecase

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/repository"
	"AgentDesk/internal/timeslot"
	"AgentDesk/pkg/cache"
	applogger "AgentDesk/pkg/logger"
)

type fakeBackend struct {
	mu          sync.Mutex
	created     []models.AgentPayload
	accept      bool
	createErr   error
	catalog     models.FeatureCatalog
	featureHits int
	agents      []models.Agent
	agentsBy    map[string][]models.Agent // by session cookie, when set
	agentHits   int
	predictions []models.Prediction
	predictReqs []models.PredictionRequest
}

func (f *fakeBackend) CreateAgent(_ context.Context, _ []*http.Cookie, p models.AgentPayload) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	f.created = append(f.created, p)
	return f.accept, nil
}

func (f *fakeBackend) Features(context.Context, []*http.Cookie) (models.FeatureCatalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.featureHits++
	return f.catalog, nil
}

func (f *fakeBackend) AgentsByUser(_ context.Context, cookies []*http.Cookie) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agentHits++
	if f.agentsBy != nil {
		session := ""
		if len(cookies) > 0 {
			session = cookies[0].Value
		}
		return f.agentsBy[session], nil
	}
	return f.agents, nil
}

func (f *fakeBackend) Predict(_ context.Context, _ []*http.Cookie, req models.PredictionRequest) (*models.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictReqs = append(f.predictReqs, req)
	return &models.Prediction{
		PredictionID:   int64(100 + len(f.predictReqs)),
		AgentID:        req.AgentID,
		PredictionDate: req.PredictionDate,
		Prediction:     []float64{1, 2, 3},
	}, nil
}

func (f *fakeBackend) UserPredictions(context.Context, []*http.Cookie) ([]models.Prediction, error) {
	return f.predictions, nil
}

func (f *fakeBackend) AgentPredictions(_ context.Context, _ []*http.Cookie, id int64) ([]models.Prediction, error) {
	out := []models.Prediction{}
	for _, p := range f.predictions {
		if p.AgentID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakePublisher struct {
	events []models.AgentCreatedEvent
	err    error
}

func (p *fakePublisher) PublishAgentCreated(_ context.Context, ev models.AgentCreatedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	cache      *cache.MemoryCache
	backend    *fakeBackend
	publisher  *fakePublisher
	sessions   domrepo.SessionStore
	archive    domrepo.PredictionArchive
	forms      *FormService
	features   *FeatureService
	agents     *AgentService
	dashboards *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem, err := cache.NewMemoryCache(cache.WithMemoryMaxSize(100))
	if err != nil {
		t.Fatalf("memory cache: %v", err)
	}
	t.Cleanup(func() { _ = mem.Close() })

	fx := &fixture{
		cache: mem,
		backend: &fakeBackend{
			accept: true,
			catalog: models.FeatureCatalog{Features: []models.Feature{
				{Name: "rsi", Parameters: map[string]string{"period": "14"}},
				{Name: "macd", Parameters: map[string]string{"fast": "12", "slow": "26"}},
			}},
		},
		publisher: &fakePublisher{},
		sessions:  repository.NewCacheSessionStore(mem, time.Hour),
		archive:   repository.NewCachePredictionArchive(mem, time.Hour),
	}
	log := applogger.Nop()
	fx.forms = NewFormService(fx.sessions, domrepo.NopMetrics{}, log, []string{"EURUSD", "BTCUSD"})
	fx.features = NewFeatureService(fx.backend, mem, time.Hour, log)
	fx.agents = NewAgentService(fx.backend, fx.sessions, fx.features, fx.publisher, mem, time.Minute, domrepo.NopMetrics{}, log)
	fx.dashboards = NewDashboardService(fx.agents, time.UTC)
	return fx
}

// fillMonthlyDaily walks a MONTHLY/DAY_1 form to slots {2, 9, 10, 11}.
func fillMonthlyDaily(t *testing.T, fx *fixture, id string) *models.FormView {
	t.Helper()
	ctx := context.Background()
	if _, err := fx.forms.SetScale(ctx, id, timeslot.ScaleMonthly); err != nil {
		t.Fatalf("set scale: %v", err)
	}
	if _, err := fx.forms.SetFrequency(ctx, id, timeslot.FreqDay1); err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	v, err := fx.forms.UpdateFields(ctx, &models.UpdateFieldsRequest{ID: id, Fields: []models.FieldChange{
		change(timeslot.InputStart, timeslot.UnitWeek, 1),
		change(timeslot.InputStart, timeslot.UnitDay, 2),
		change(timeslot.InputEnd, timeslot.UnitWeek, 2),
		change(timeslot.InputEnd, timeslot.UnitDay, 4),
		change(timeslot.OutputStart, timeslot.UnitWeek, 2),
		change(timeslot.OutputStart, timeslot.UnitDay, 5),
		change(timeslot.OutputEnd, timeslot.UnitWeek, 3),
		change(timeslot.OutputEnd, timeslot.UnitDay, 1),
	}})
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}
	return v
}

func change(kind timeslot.BoundaryKind, unit timeslot.TimeUnit, v int) models.FieldChange {
	return models.FieldChange{Boundary: kind, Unit: unit, Value: &v}
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
