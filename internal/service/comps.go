package service

import (
	"context"
	"time"

	"compcore/internal/engine"
	"compcore/internal/model"

	"go.uber.org/zap"
)

// ComparableStore is the persistence collaborator the comps service
// depends on. The engine itself never touches storage; the service
// materializes collections here and hands them to the engine.
type ComparableStore interface {
	FetchComparables(ctx context.Context, f *model.SearchFilters) ([]model.Comparable, error)
	GetComparables(ctx context.Context, ids []int64) ([]model.Comparable, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
	NearestByEmbedding(ctx context.Context, embedding []float32, limit int) ([]model.Comparable, error)
}

// CompsService handles comparable search and scoring business logic.
type CompsService struct {
	store        ComparableStore
	orchestrator *engine.Orchestrator
	logger       *zap.Logger
}

// NewCompsService creates a new comps service
func NewCompsService(store ComparableStore, orchestrator *engine.Orchestrator, logger *zap.Logger) *CompsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompsService{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Search materializes the comparable collection (cheap predicates
// pushed to the store) and runs the full engine pipeline over it.
func (s *CompsService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	start := time.Now()

	comps, err := s.store.FetchComparables(ctx, &req.Filters)
	if err != nil {
		return nil, err
	}

	resp, err := s.orchestrator.Search(comps, *req)
	if err != nil {
		return nil, err
	}
	resp.Took = time.Since(start).Milliseconds()

	s.logger.Info("comparable search",
		zap.Int("candidates", len(comps)),
		zap.Int("total", resp.Total),
		zap.Float64("density", resp.Density),
		zap.Int64("took_ms", resp.Took),
	)
	return resp, nil
}

// Normalize returns the adjusted price for each of the given stored
// comparables relative to the subject.
func (s *CompsService) Normalize(ctx context.Context, ids []int64, rules model.NormalizeRules, subject model.SubjectRef) (map[int64]float64, error) {
	comps, err := s.store.GetComparables(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	adjusted := make(map[int64]float64, len(comps))
	for i := range comps {
		annotateDistance(&comps[i], &subject)
		adjusted[comps[i].ID] = engine.Normalize(comps[i], rules, subject, now)
	}
	return adjusted, nil
}

// Score computes similarity (and KNN weights when requested) for the
// given stored comparables against the subject.
func (s *CompsService) Score(ctx context.Context, ids []int64, params model.ScoreParams, subject model.SubjectRef) ([]model.Comparable, error) {
	if err := engine.ValidateScoreParams(params); err != nil {
		return nil, err
	}
	comps, err := s.store.GetComparables(ctx, ids)
	if err != nil {
		return nil, err
	}

	var knn map[int64]float64
	if params.Method == model.ScoreKNN {
		knn, err = engine.KNNWeights(comps, subject, params)
		if err != nil {
			return nil, err
		}
	}
	for i := range comps {
		annotateDistance(&comps[i], &subject)
		sim := engine.Cosine(comps[i], subject, params.Weights)
		comps[i].Similarity = &sim
		if w, ok := knn[comps[i].ID]; ok {
			weight := w
			comps[i].KNNWeight = &weight
		}
	}
	return comps, nil
}

// Comparables fetches stored comparables by ID in request order.
func (s *CompsService) Comparables(ctx context.Context, ids []int64) ([]model.Comparable, error) {
	return s.store.GetComparables(ctx, ids)
}

// Dedup runs the deduplicator over a stored comparable set. It is an
// independent stage, invoked explicitly rather than as part of search.
func (s *CompsService) Dedup(ctx context.Context, ids []int64, strategy model.DedupStrategy, opts engine.DedupOptions) (engine.DedupResult, error) {
	comps, err := s.store.GetComparables(ctx, ids)
	if err != nil {
		return engine.DedupResult{}, err
	}
	return engine.Dedup(comps, strategy, opts)
}

// UpdateEmbeddings recomputes and persists the feature vector of each
// given comparable relative to the subject. Failures are collected per
// comparable; the batch continues.
func (s *CompsService) UpdateEmbeddings(ctx context.Context, ids []int64, subject model.SubjectRef) (int, []string) {
	comps, err := s.store.GetComparables(ctx, ids)
	if err != nil {
		return 0, []string{err.Error()}
	}
	success := 0
	var errs []string
	for i := range comps {
		annotateDistance(&comps[i], &subject)
		vec := engine.FeatureVector(comps[i], subject)
		if err := s.store.UpdateEmbedding(ctx, comps[i].ID, vec); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		success++
	}
	return success, errs
}

// Nearest returns stored comparables whose persisted feature vectors
// are closest to the given comparable's vector.
func (s *CompsService) Nearest(ctx context.Context, comp model.Comparable, subject model.SubjectRef, limit int) ([]model.Comparable, error) {
	annotateDistance(&comp, &subject)
	vec := engine.FeatureVector(comp, subject)
	return s.store.NearestByEmbedding(ctx, vec, limit)
}

func (s *CompsService) now() time.Time {
	if s.orchestrator != nil && s.orchestrator.Clock != nil {
		return s.orchestrator.Clock()
	}
	return time.Now()
}

func annotateDistance(c *model.Comparable, subject *model.SubjectRef) {
	if c.DistanceM != nil || !subject.HasCoords() {
		return
	}
	d := engine.Haversine(*subject.Lat, *subject.Lng, c.Lat, c.Lng)
	c.DistanceM = &d
}
