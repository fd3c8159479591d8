package usecase

import (
	"context"
	"net/http"
	"sort"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/pkg/cache"
	xhttp "AgentDesk/pkg/http"
	applogger "AgentDesk/pkg/logger"
)

const featureCatalogKey = "features:catalog"

// FeatureService serves the backend feature catalog and resolves a user's
// feature selection into the payload map.
type FeatureService struct {
	backend domrepo.AgentBackend
	cache   cache.Service
	ttl     time.Duration
	log     *applogger.Logger
}

func NewFeatureService(backend domrepo.AgentBackend, c cache.Service, ttl time.Duration, log *applogger.Logger) *FeatureService {
	return &FeatureService{backend: backend, cache: c, ttl: ttl, log: log}
}

// Catalog is shared by every user, so it is cached under one key.
func (s *FeatureService) Catalog(ctx context.Context, cookies []*http.Cookie) (models.FeatureCatalog, error) {
	return cache.GetOrLoad(ctx, s.cache, featureCatalogKey, s.ttl, func(ctx context.Context) (models.FeatureCatalog, error) {
		cat, err := s.backend.Features(ctx, cookies)
		if err != nil {
			return models.FeatureCatalog{}, err
		}
		if cat.Features == nil {
			cat.Features = []models.Feature{}
		}
		s.log.Debug("feature catalog loaded", applogger.Int("features", len(cat.Features)))
		return cat, nil
	})
}

// Resolve checks selected against the catalog. Every feature must exist and
// every parameter must be declared; missing parameters get their defaults.
func (s *FeatureService) Resolve(ctx context.Context, cookies []*http.Cookie, selected map[string]map[string]string) (map[string]map[string]string, error) {
	if len(selected) == 0 {
		return map[string]map[string]string{}, nil
	}
	cat, err := s.Catalog(ctx, cookies)
	if err != nil {
		return nil, err
	}
	return ResolveFeatures(cat, selected)
}

// ResolveFeatures is Resolve against an already loaded catalog.
func ResolveFeatures(cat models.FeatureCatalog, selected map[string]map[string]string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(selected))
	for _, name := range sortedKeys(selected) {
		f, ok := cat.Find(name)
		if !ok {
			return nil, xhttp.ValidationFailed("ERR_UNKNOWN_FEATURE", "unknown feature").
				WithField("features").WithParam("feature", name)
		}
		params := f.DefaultParams()
		for k, v := range selected[name] {
			if _, ok := f.Parameters[k]; !ok {
				return nil, xhttp.ValidationFailed("ERR_UNKNOWN_PARAMETER", "unknown feature parameter").
					WithField("features").WithParam("feature", f.Name).WithParam("parameter", k)
			}
			params[k] = v
		}
		out[f.Name] = params
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
