package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/pkg/cache"
	applogger "AgentDesk/pkg/logger"
)

// PredictionSchema creates the archive table in database.
func PredictionSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.predictions (
			prediction_id   UInt64,
			agent_id        UInt64,
			target_market   LowCardinality(String),
			prediction_date String,
			prediction      Array(Float64),
			actual_market   Array(Float64),
			served_at       DateTime64(3)
		) ENGINE = ReplacingMergeTree(served_at)
		ORDER BY prediction_id`, database),
	}
}

// CHPredictionArchive implements PredictionArchive backed by ClickHouse.
type CHPredictionArchive struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPredictionArchive(db *sql.DB, database string, l *applogger.Logger) *CHPredictionArchive {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPredictionArchive{db: db, table: database + ".predictions", l: l}
}

// Init is a no-op; the schema is created when the client is provided.
func (s *CHPredictionArchive) Init(context.Context) error { return nil }

func (s *CHPredictionArchive) Store(ctx context.Context, p models.ArchivedPrediction) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(prediction_id, agent_id, target_market, prediction_date, prediction, actual_market, served_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		uint64(p.PredictionID),
		uint64(p.AgentID),
		p.TargetMarket,
		p.PredictionDate,
		nonNil(p.Prediction.Prediction),
		nonNil(p.ActualMarket),
		p.ServedAt,
	)
	if err != nil {
		s.l.Error("clickhouse store prediction",
			applogger.Int64("prediction_id", p.PredictionID),
			applogger.Error(err))
		return fmt.Errorf("store prediction: %w", err)
	}
	return nil
}

func (s *CHPredictionArchive) Get(ctx context.Context, predictionID int64) (*models.ArchivedPrediction, error) {
	q := fmt.Sprintf(`SELECT prediction_id, agent_id, target_market, prediction_date, prediction, actual_market, served_at
		FROM %s FINAL
		WHERE prediction_id = ?
		LIMIT 1`, s.table)

	var (
		p       models.ArchivedPrediction
		id, aid uint64
	)
	err := s.db.QueryRowContext(ctx, q, uint64(predictionID)).Scan(
		&id, &aid, &p.TargetMarket, &p.PredictionDate, &p.Prediction.Prediction, &p.ActualMarket, &p.ServedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	p.PredictionID = int64(id)
	p.AgentID = int64(aid)
	return &p, nil
}

func (s *CHPredictionArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CachePredictionArchive keeps predictions in the cache for a bounded time.
// It backs the chart endpoint when ClickHouse is disabled.
type CachePredictionArchive struct {
	c   cache.Service
	ttl time.Duration
}

func NewCachePredictionArchive(c cache.Service, ttl time.Duration) *CachePredictionArchive {
	return &CachePredictionArchive{c: c, ttl: ttl}
}

func (s *CachePredictionArchive) Init(context.Context) error { return nil }

func (s *CachePredictionArchive) Store(ctx context.Context, p models.ArchivedPrediction) error {
	return s.c.Set(ctx, predictionKey(p.PredictionID), p, s.ttl)
}

func (s *CachePredictionArchive) Get(ctx context.Context, predictionID int64) (*models.ArchivedPrediction, error) {
	var p models.ArchivedPrediction
	if err := s.c.Get(ctx, predictionKey(predictionID), &p); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *CachePredictionArchive) Health(context.Context) error { return nil }

func predictionKey(id int64) string {
	return cache.GenerateKeyWithParams("prediction", id)
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

var (
	_ domrepo.PredictionArchive = (*CHPredictionArchive)(nil)
	_ domrepo.PredictionArchive = (*CachePredictionArchive)(nil)
)
