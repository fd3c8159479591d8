package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"AgentDesk/internal/dashboard"
	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/service/ratelimit"
	xhttp "AgentDesk/pkg/http"
	applogger "AgentDesk/pkg/logger"
)

// ChartView pairs a prediction with its drawable chart.
type ChartView struct {
	Prediction models.Prediction `json:"prediction"`
	Chart      *dashboard.Chart  `json:"chart"`
}

// PredictionService requests forecasts from ready agents and keeps a copy of
// every one served.
type PredictionService struct {
	backend domrepo.AgentBackend
	agents  *AgentService
	archive domrepo.PredictionArchive
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	log     *applogger.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewPredictionService builds the service. limiter may be nil to disable
// per-agent rate limiting.
func NewPredictionService(
	backend domrepo.AgentBackend,
	agents *AgentService,
	archive domrepo.PredictionArchive,
	limiter *ratelimit.Limiter,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	loc *time.Location,
) *PredictionService {
	if loc == nil {
		loc = time.UTC
	}
	return &PredictionService{
		backend: backend,
		agents:  agents,
		archive: archive,
		limiter: limiter,
		metrics: metrics,
		log:     log,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *PredictionService) Predict(ctx context.Context, cookies []*http.Cookie, req *models.PredictRequest) (*models.Prediction, error) {
	start := time.Now()
	p, err := s.predict(ctx, cookies, req)
	s.metrics.RecordPrediction(result(err))
	s.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return p, err
}

func (s *PredictionService) predict(ctx context.Context, cookies []*http.Cookie, req *models.PredictRequest) (*models.Prediction, error) {
	if s.limiter != nil {
		key := strconv.FormatInt(req.AgentID, 10)
		if !s.limiter.Allow(key) {
			wait := int(math.Ceil(s.limiter.RetryAfter(key).Seconds()))
			return nil, xhttp.TooManyRequestsError("too many prediction requests for this agent").
				WithParam("retryAfter", wait)
		}
	}

	agent, err := s.agents.Find(ctx, cookies, req.AgentID)
	if err != nil {
		return nil, err
	}
	date, err := dashboard.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, xhttp.ValidationFailed("ERR_INVALID_DATE", "date must be YYYY-MM-DD").WithField("date").WithError(err)
	}
	if err := dashboard.CheckPredict(&agent, &date, req.Hour); err != nil {
		return nil, toAppError(err)
	}

	pred, err := s.backend.Predict(ctx, cookies, models.PredictionRequest{
		AgentID:        agent.ID,
		PredictionDate: dashboard.PredictionDate(agent.PredictionScale, date, req.Hour),
	})
	if err != nil {
		return nil, err
	}
	if pred.AgentID == 0 {
		pred.AgentID = agent.ID
	}
	if pred.TargetMarket == "" {
		pred.TargetMarket = agent.TargetMarket
	}

	if err := s.archive.Store(ctx, models.ArchivedPrediction{Prediction: *pred, ServedAt: s.now().UTC()}); err != nil {
		s.metrics.RecordError("archive_prediction")
		s.log.Warn("failed to archive prediction",
			applogger.Int64("prediction_id", pred.PredictionID), applogger.Error(err))
	}
	return pred, nil
}

// List returns the caller's predictions, optionally only those of one agent.
func (s *PredictionService) List(ctx context.Context, cookies []*http.Cookie, agentID int64) ([]models.Prediction, error) {
	preds, err := s.backend.UserPredictions(ctx, cookies)
	if err != nil {
		return nil, err
	}
	if agentID > 0 {
		preds = dashboard.FilterPredictions(preds, agentID)
	}
	if preds == nil {
		preds = []models.Prediction{}
	}
	dashboard.SortNewestFirst(preds)
	return preds, nil
}

// Chart draws one of the caller's predictions. The local archive is tried
// first; predictions served before it existed are looked up in the user's
// history.
func (s *PredictionService) Chart(ctx context.Context, cookies []*http.Cookie, id int64, opts ...dashboard.ChartOption) (*ChartView, error) {
	pred, err := s.lookup(ctx, cookies, id)
	if err != nil {
		return nil, err
	}
	chart, err := dashboard.NewChart(pred.Prediction, pred.ActualMarket, opts...)
	if err != nil {
		return nil, toAppError(err)
	}
	return &ChartView{Prediction: *pred, Chart: chart}, nil
}

func (s *PredictionService) lookup(ctx context.Context, cookies []*http.Cookie, id int64) (*models.Prediction, error) {
	archived, err := s.archive.Get(ctx, id)
	if err == nil {
		// the archive is shared by every user; only the agent's owner may read it
		if _, err := s.agents.Find(ctx, cookies, archived.AgentID); err != nil {
			var appErr *xhttp.AppError
			if errors.As(err, &appErr) && appErr.Status == http.StatusNotFound {
				return nil, predictionNotFound(id)
			}
			return nil, err
		}
		return &archived.Prediction, nil
	}
	if !errors.Is(err, domrepo.ErrNotFound) {
		s.log.Warn("prediction archive lookup failed",
			applogger.Int64("prediction_id", id), applogger.Error(err))
	}

	preds, err := s.backend.UserPredictions(ctx, cookies)
	if err != nil {
		return nil, err
	}
	for i := range preds {
		if preds[i].PredictionID == id {
			return &preds[i], nil
		}
	}
	return nil, predictionNotFound(id)
}

func predictionNotFound(id int64) *xhttp.AppError {
	return xhttp.NotFoundErrorf("prediction %d not found", id).WithParam("predictionId", id)
}
