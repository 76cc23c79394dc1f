package cached

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/cache/redis"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/metrics"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/models"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/config"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

// Reader serves the dashboard's list/detail queries through the tag cache.
// A nil cache (or a failing redis) degrades to direct store reads.
type Reader struct {
	store *store.Store
	cache *redis.Cache
	cfg   config.CacheConfig
}

func NewReader(st *store.Store, cache *redis.Cache, cfg config.CacheConfig) *Reader {
	return &Reader{store: st, cache: cache, cfg: cfg}
}

func (r *Reader) ListModels(ctx context.Context) ([]models.Model, error) {
	var result []models.Model
	err := r.readThrough(ctx, "models:list", "models", ttl(r.cfg.ModelsTTLSec), &result,
		redis.TagModels,
		func() (interface{}, error) { return r.store.ListModels(ctx) },
	)
	return result, err
}

func (r *Reader) ListClassifications(ctx context.Context, limit int) ([]models.Classification, error) {
	var result []models.Classification
	key := fmt.Sprintf("classifications:list:%d", limit)
	err := r.readThrough(ctx, key, "classifications", ttl(r.cfg.ClassificationsTTLSec), &result,
		redis.TagClassifications,
		func() (interface{}, error) { return r.store.ListClassifications(ctx, limit) },
	)
	return result, err
}

func (r *Reader) GetClassification(ctx context.Context, id string) (*models.Classification, error) {
	var result models.Classification
	err := r.readThrough(ctx, "classifications:id:"+id, "classification", ttl(r.cfg.ClassificationsTTLSec), &result,
		redis.TagClassifications,
		func() (interface{}, error) { return r.store.GetClassification(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *Reader) ListDatasetRecords(ctx context.Context, datasetType string, limit int) ([]models.DatasetRecord, error) {
	var result []models.DatasetRecord
	key := fmt.Sprintf("dataset-records:list:%s:%d", datasetType, limit)
	err := r.readThrough(ctx, key, "dataset_records", ttl(r.cfg.DatasetRecordsTTLSec), &result,
		redis.TagDatasetRecords,
		func() (interface{}, error) { return r.store.ListDatasetRecords(ctx, datasetType, limit) },
	)
	return result, err
}

func (r *Reader) ListHistory(ctx context.Context) ([]models.ClassificationHistory, error) {
	var result []models.ClassificationHistory
	err := r.readThrough(ctx, "history:list", "history", ttl(r.cfg.HistoryTTLSec), &result,
		redis.TagHistory,
		func() (interface{}, error) { return r.store.ListHistory(ctx) },
	)
	return result, err
}

func (r *Reader) GetHistory(ctx context.Context, id string) (*models.ClassificationHistory, error) {
	var result models.ClassificationHistory
	err := r.readThrough(ctx, "history:id:"+id, "history", ttl(r.cfg.HistoryTTLSec), &result,
		redis.TagHistory,
		func() (interface{}, error) { return r.store.GetHistory(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// readThrough fills dest from the cache, or from load() on a miss, caching
// the loaded value under the query's tag. Not-found errors from load() are
// never cached.
func (r *Reader) readThrough(ctx context.Context, key, queryLabel string, ttl time.Duration, dest interface{}, tag string, load func() (interface{}, error)) error {
	if r.cache != nil {
		hit, err := r.cache.Get(ctx, key, dest)
		if err != nil {
			logger.Debug("Cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues(queryLabel).Inc()
			return nil
		}
		metrics.CacheMisses.WithLabelValues(queryLabel).Inc()
	}

	value, err := load()
	if err != nil {
		return err
	}

	if err := assign(dest, value); err != nil {
		return err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, value, ttl, tag); err != nil {
			logger.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return nil
}

func assign(dest, value interface{}) error {
	switch d := dest.(type) {
	case *[]models.Model:
		*d = value.([]models.Model)
	case *[]models.Classification:
		*d = value.([]models.Classification)
	case *models.Classification:
		*d = *value.(*models.Classification)
	case *[]models.DatasetRecord:
		*d = value.([]models.DatasetRecord)
	case *[]models.ClassificationHistory:
		*d = value.([]models.ClassificationHistory)
	case *models.ClassificationHistory:
		*d = *value.(*models.ClassificationHistory)
	default:
		return fmt.Errorf("unsupported cached read target %T", dest)
	}
	return nil
}

func ttl(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
