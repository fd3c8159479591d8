package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/repository"
	"AgentDesk/internal/service/realtime"
	"AgentDesk/internal/usecase"
	"AgentDesk/pkg/cache"
	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

type stubBackend struct {
	cookies   []*http.Cookie
	created   []models.AgentPayload
	agents    []models.Agent
	agentsErr error
}

func (b *stubBackend) CreateAgent(_ context.Context, cookies []*http.Cookie, p models.AgentPayload) (bool, error) {
	b.cookies = cookies
	b.created = append(b.created, p)
	return true, nil
}

func (b *stubBackend) Features(context.Context, []*http.Cookie) (models.FeatureCatalog, error) {
	return models.FeatureCatalog{Features: []models.Feature{{Name: "rsi", Parameters: map[string]string{"period": "14"}}}}, nil
}

func (b *stubBackend) AgentsByUser(_ context.Context, cookies []*http.Cookie) ([]models.Agent, error) {
	b.cookies = cookies
	if b.agentsErr != nil {
		return nil, b.agentsErr
	}
	return b.agents, nil
}

func (b *stubBackend) Predict(_ context.Context, _ []*http.Cookie, req models.PredictionRequest) (*models.Prediction, error) {
	return &models.Prediction{PredictionID: 5, AgentID: req.AgentID, PredictionDate: req.PredictionDate, Prediction: []float64{1, 2}}, nil
}

func (b *stubBackend) UserPredictions(context.Context, []*http.Cookie) ([]models.Prediction, error) {
	return []models.Prediction{{PredictionID: 5, AgentID: 1, Prediction: []float64{1, 2}}}, nil
}

func (b *stubBackend) AgentPredictions(context.Context, []*http.Cookie, int64) ([]models.Prediction, error) {
	return nil, &xhttp.UpstreamError{Status: http.StatusUnauthorized, Body: "login required"}
}

type stubRelay struct {
	got models.RelayRequest
}

func (r *stubRelay) Relay(_ context.Context, req models.RelayRequest) (*models.RelayResponse, error) {
	r.got = req
	return &models.RelayResponse{
		Status:      http.StatusOK,
		Body:        []byte("welcome"),
		ContentType: "text/plain",
		SetCookies:  []string{"JSESSIONID=abc; Path=/; HttpOnly"},
	}, nil
}

type testEnv struct {
	server  *xhttp.Server
	backend *stubBackend
	relay   *stubRelay
	hub     *realtime.Hub
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	mem, err := cache.NewMemoryCache()
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	log := xlogger.Nop()
	metrics := domrepo.NopMetrics{}
	backend := &stubBackend{agents: []models.Agent{{ID: 1, PredictionScale: "DAILY", TrainingStatus: models.AgentCompleted}}}
	relay := &stubRelay{}

	sessions := repository.NewCacheSessionStore(mem, time.Hour)
	archive := repository.NewCachePredictionArchive(mem, time.Hour)
	forms := usecase.NewFormService(sessions, metrics, log, []string{"EURUSD"})
	features := usecase.NewFeatureService(backend, mem, time.Hour, log)
	agents := usecase.NewAgentService(backend, sessions, features, repository.NopEventPublisher{}, mem, time.Minute, metrics, log)
	predictions := usecase.NewPredictionService(backend, agents, archive, nil, metrics, log, time.UTC)
	dashboards := usecase.NewDashboardService(agents, time.UTC)
	hub := realtime.NewHub(metrics, log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	t.Cleanup(stopHub)

	srv := xhttp.NewServer([]xhttp.Handler{
		NewFormHandler(log, forms),
		NewAgentsHandler(log, agents, features, hub),
		NewPredictionsHandler(log, predictions, dashboards),
		NewAuthHandler(log, relay),
		NewHealthHandler(log, archive),
	}, xhttp.WithMetricsPath(""))
	return &testEnv{server: srv, backend: backend, relay: relay, hub: hub}
}

func (env *testEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.server.Echo().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if dest != nil {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			t.Fatalf("decode data: %v (%s)", err, env.Data)
		}
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var errs []xhttp.AppError
	decode(t, rec, &errs)
	if len(errs) == 0 {
		t.Fatalf("expected an error list, got %s", rec.Body.String())
	}
	return errs[0].Code
}

func TestFormLookups(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodGet, "/api/form/frequencies?scale=DAILY", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("frequencies: %d %s", rec.Code, rec.Body.String())
	}
	var freqs []string
	decode(t, rec, &freqs)
	if len(freqs) != 5 || freqs[4] != "HOUR_1" {
		t.Fatalf("unexpected frequencies %v", freqs)
	}

	if rec := env.do(t, http.MethodGet, "/api/form/frequencies?scale=YEARLY", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scale, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/form/options?unit=MINUTE&frequency=MIN_15", "")
	var opts []struct {
		Value int    `json:"value"`
		Label string `json:"label"`
	}
	decode(t, rec, &opts)
	if len(opts) != 4 || opts[3].Label != "Minute 45" {
		t.Fatalf("unexpected options %v", opts)
	}

	rec = env.do(t, http.MethodGet, "/api/form/options?unit=HOUR", "")
	decode(t, rec, &opts)
	if len(opts) != 24 {
		t.Fatalf("frequency should default, got %d options", len(opts))
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/api/form/sessions", `{"name":"alpha","targetMarket":"EURUSD","predictionScale":"HOURLY","frequency":"MIN_30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var view models.FormView
	decode(t, rec, &view)
	if !view.Visible || len(view.Hierarchy) != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	base := "/api/form/sessions/" + view.ID

	rec = env.do(t, http.MethodPut, base+"/fields", `{"fields":[
		{"boundary":"inputStart","unit":"MINUTE","value":1},
		{"boundary":"inputEnd","unit":"MINUTE","value":1},
		{"boundary":"outputStart","unit":"MINUTE","value":2},
		{"boundary":"outputEnd","unit":"MINUTE","value":2}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("fields: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, base+"/slots", "")
	var slots struct {
		InputStart  int `json:"inputStartTime"`
		OutputStart int `json:"outputStartTime"`
	}
	decode(t, rec, &slots)
	if slots.InputStart != 1 || slots.OutputStart != 2 {
		t.Fatalf("unexpected slots %+v", slots)
	}

	rec = env.do(t, http.MethodPut, base+"/frequency", `{"frequency":"DAY_1"}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "ERR_FREQUENCY_NOT_SELECTABLE" {
		t.Fatalf("expected frequency rejection, got %d %s", rec.Code, rec.Body.String())
	}

	session := &http.Cookie{Name: "JSESSIONID", Value: "s1"}
	rec = env.do(t, http.MethodPost, "/api/agents", `{"sessionId":"`+view.ID+`","features":{"rsi":{}}}`, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	if len(env.backend.created) != 1 || env.backend.created[0].Features["rsi"]["period"] != "14" {
		t.Fatalf("unexpected payload %+v", env.backend.created)
	}
	if len(env.backend.cookies) != 1 || env.backend.cookies[0].Value != "s1" {
		t.Fatalf("cookies were not forwarded")
	}

	if rec := env.do(t, http.MethodGet, base, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("submitted session should be gone, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/form/sessions/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestAgentsAndPredictions(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodGet, "/api/agents", "")
	var groups struct {
		Ready []models.Agent `json:"ready"`
	}
	decode(t, rec, &groups)
	if len(groups.Ready) != 1 {
		t.Fatalf("unexpected groups %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/agents/1/predictions", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("upstream status should pass through, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/predictions", `{"agentId":1,"date":"2024-03-06"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("predict: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/api/predictions", `{"agentId":1,"date":"March 6"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/predictions/5/chart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("chart: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/predictions/5/chart?scales=separate", "")
	var view struct {
		Chart struct {
			Separate bool `json:"separate"`
			Series   []struct {
				Min string `json:"min"`
			} `json:"series"`
		} `json:"chart"`
	}
	decode(t, rec, &view)
	if !view.Chart.Separate || len(view.Chart.Series) != 1 || view.Chart.Series[0].Min != "1.00" {
		t.Fatalf("expected separately scaled chart, got %s", rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/predictions/5/chart?scales=log", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown scales, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/dashboard/calendar?year=2024&month=3&agentId=1&date=2024-03-06", "")
	var cal struct {
		Label string `json:"label"`
		Days  []any  `json:"days"`
	}
	decode(t, rec, &cal)
	if cal.Label != "Day: 2024-03-06" || len(cal.Days) != 36 {
		t.Fatalf("unexpected calendar %s", rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/dashboard/calendar?hour=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hour, got %d", rec.Code)
	}
}

func TestHealthReady(t *testing.T) {
	env := newEnv(t)
	if rec := env.do(t, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected liveness, got %d", rec.Code)
	}
}

func TestAuthPassThrough(t *testing.T) {
	env := newEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/signup", `{"email":"a@b.c"}`, &http.Cookie{Name: "x", Value: "1"})
	if rec.Code != http.StatusOK || rec.Body.String() != "welcome" {
		t.Fatalf("unexpected relay response %d %q", rec.Code, rec.Body.String())
	}
	if env.relay.got.Path != "/auth/inscription" || string(env.relay.got.Body) != `{"email":"a@b.c"}` {
		t.Fatalf("unexpected relayed request %+v", env.relay.got)
	}
	if len(env.relay.got.Cookies) != 1 {
		t.Fatalf("cookies were not relayed")
	}
	if sc := rec.Header().Get("Set-Cookie"); !strings.HasPrefix(sc, "JSESSIONID=abc") {
		t.Fatalf("set-cookie was not relayed: %q", sc)
	}

	_ = env.do(t, http.MethodGet, "/api/auth/me", "")
	if env.relay.got.Method != http.MethodGet || env.relay.got.Path != "/user/me" {
		t.Fatalf("unexpected relayed request %+v", env.relay.got)
	}
}

func TestAgentEventsScopedToCaller(t *testing.T) {
	env := newEnv(t)
	session := &http.Cookie{Name: "JSESSIONID", Value: "s1"}

	if rec := env.do(t, http.MethodGet, "/api/agents/events?agentId=2", "", session); rec.Code != http.StatusNotFound {
		t.Fatalf("subscribing to someone else's agent: expected 404, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/agents/events?agentId=abc", "", session); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad agent id, got %d", rec.Code)
	}

	env.backend.agentsErr = &xhttp.UpstreamError{Status: http.StatusUnauthorized, Body: "login required"}
	if rec := env.do(t, http.MethodGet, "/api/agents/events", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous subscriber: expected 401, got %d", rec.Code)
	}
	env.backend.agentsErr = nil

	srv := httptest.NewServer(env.server.Echo())
	defer srv.Close()
	header := http.Header{}
	header.Set("Cookie", session.String())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/agents/events", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	env.hub.Broadcast(models.TrainingStatusEvent{AgentID: 2, Status: models.AgentCompleted})
	env.hub.Broadcast(models.TrainingStatusEvent{AgentID: 1, Status: models.AgentCompleted})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev models.TrainingStatusEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.AgentID != 1 {
		t.Fatalf("received another user's agent event %+v", ev)
	}
}
