package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/cache/redis"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/evaluation"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/ingestion"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/metrics"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/models"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

// Engine sequences the train/classify workflows: best-effort dataset
// ingestion, the backend call, result persistence, cache invalidation.
type Engine struct {
	store    *store.Store
	cache    *redis.Cache
	backend  *mlbackend.Client
	pipeline *ingestion.Pipeline
}

type TrainInput struct {
	File           []byte
	FileName       string
	ModelName      string
	TargetColumn   string
	FeatureColumns []string
}

type ClassifyInput struct {
	File      []byte
	FileName  string
	ModelName string
}

func NewEngine(st *store.Store, cache *redis.Cache, backend *mlbackend.Client, pipeline *ingestion.Pipeline) *Engine {
	return &Engine{
		store:    st,
		cache:    cache,
		backend:  backend,
		pipeline: pipeline,
	}
}

// Train forwards a training request to the backend and persists the returned
// model together with its metrics. The uploaded file is also ingested as
// training dataset records first; that step never blocks training.
func (e *Engine) Train(ctx context.Context, in TrainInput) (*models.Model, error) {
	if len(in.File) > 0 {
		res := e.pipeline.Ingest(ctx, in.File, in.FileName, models.DatasetTypeTraining, 0)
		if res.Err != nil {
			logger.Warn("Training dataset ingestion degraded",
				zap.String("file_name", in.FileName),
				zap.Int("failed", res.Failed),
				zap.Error(res.Err),
			)
		}
	}

	resp, err := e.backend.Train(ctx, mlbackend.TrainRequest{
		File:           in.File,
		FileName:       in.FileName,
		ModelName:      in.ModelName,
		TargetColumn:   in.TargetColumn,
		FeatureColumns: in.FeatureColumns,
	})
	if err != nil {
		metrics.TrainingsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	name := resp.ModelName
	if name == "" {
		name = in.ModelName
	}

	model := &models.Model{
		ID:               uuid.New().String(),
		Name:             name,
		TargetColumn:     resp.TargetColumn,
		FeatureColumns:   datatypes.NewJSONSlice(resp.FeatureColumns),
		Classes:          datatypes.NewJSONSlice(resp.Classes),
		Accuracy:         resp.Accuracy,
		ModelData:        resp.ModelData,
		EncodersData:     resp.EncodersData,
		LabelEncoderData: resp.LabelEncoderData,
		CreatedAt:        time.Now(),
	}

	if err := e.store.CreateModel(ctx, model, toModelMetrics(resp.Metrics, model.ID)); err != nil {
		metrics.TrainingsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.TrainingsTotal.WithLabelValues("success").Inc()
	e.invalidate(ctx, redis.OpTrain)

	logger.Info("Model trained",
		zap.String("model_name", model.Name),
		zap.Float64("accuracy", model.Accuracy),
	)

	return model, nil
}

// Classify forwards an inference request and persists one Classification row
// per result when the named model exists locally. It returns the raw backend
// payload; history snapshots are recorded separately via SaveHistory.
func (e *Engine) Classify(ctx context.Context, in ClassifyInput) (*mlbackend.ClassifyResponse, error) {
	if len(in.File) > 0 {
		res := e.pipeline.Ingest(ctx, in.File, in.FileName, models.DatasetTypeTesting, 0)
		if res.Err != nil {
			logger.Warn("Testing dataset ingestion degraded",
				zap.String("file_name", in.FileName),
				zap.Int("failed", res.Failed),
				zap.Error(res.Err),
			)
		}
	}

	resp, err := e.backend.Classify(ctx, mlbackend.ClassifyRequest{
		File:      in.File,
		FileName:  in.FileName,
		ModelName: in.ModelName,
	})
	if err != nil {
		metrics.ClassificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	model, err := e.store.GetModelByName(ctx, in.ModelName)
	switch err {
	case nil:
		if err := e.persistClassifications(ctx, model, resp); err != nil {
			metrics.ClassificationsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	case store.ErrNotFound:
		// The backend knows models this dashboard never trained; their
		// predictions are returned but not persisted.
		logger.Warn("Classify results not persisted, model unknown locally",
			zap.String("model_name", in.ModelName),
		)
	default:
		metrics.ClassificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ClassificationsTotal.WithLabelValues("success").Inc()
	e.invalidate(ctx, redis.OpClassify)

	return resp, nil
}

func (e *Engine) persistClassifications(ctx context.Context, model *models.Model, resp *mlbackend.ClassifyResponse) error {
	rows := make([]models.Classification, 0, len(resp.Results))
	for _, result := range resp.Results {
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize classification result: %w", err)
		}
		rows = append(rows, models.Classification{
			ID:             uuid.New().String(),
			ModelID:        model.ID,
			Payload:        string(payload),
			PredictedClass: result.PredictedClass(),
			ActualClass:    result.ActualClass(),
			Confidence:     result.Confidence(),
			CreatedAt:      time.Now(),
		})
	}

	return e.store.CreateClassifications(ctx, rows, toModelMetrics(resp.Metrics, model.ID))
}

// DeleteModel removes the model locally (cascading to its classifications and
// metrics) and tells the backend to drop its artifacts. The backend-side
// delete is best-effort: the local row is already gone.
func (e *Engine) DeleteModel(ctx context.Context, name string) error {
	if err := e.store.DeleteModel(ctx, name); err != nil {
		return err
	}

	if err := e.backend.DeleteModel(ctx, name); err != nil {
		logger.Warn("Backend-side model delete failed",
			zap.String("model_name", name),
			zap.Error(err),
		)
	}

	e.invalidate(ctx, redis.OpDeleteModel)

	logger.Info("Model deleted", zap.String("model_name", name))
	return nil
}

// SaveHistory records a standalone snapshot of one classify run.
func (e *Engine) SaveHistory(ctx context.Context, fileName, modelName string, resp *mlbackend.ClassifyResponse) (*models.ClassificationHistory, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize classify results: %w", err)
	}

	entry := &models.ClassificationHistory{
		ID:           uuid.New().String(),
		FileName:     fileName,
		ModelName:    modelName,
		TotalRecords: len(resp.Results),
		Payload:      string(payload),
		CreatedAt:    time.Now(),
	}
	if resp.Metrics != nil {
		accuracy := resp.Metrics.Accuracy
		entry.Accuracy = &accuracy
	} else {
		// Some backends omit metrics on classify. When the uploaded rows
		// carried ground-truth labels we can still score the run locally.
		entry.Accuracy = evaluation.Evaluate(resp.Results).Accuracy
	}

	if err := e.store.CreateHistory(ctx, entry); err != nil {
		return nil, err
	}

	e.invalidate(ctx, redis.OpCreateHistory)
	return entry, nil
}

func (e *Engine) DeleteHistory(ctx context.Context, id string) error {
	if err := e.store.DeleteHistory(ctx, id); err != nil {
		return err
	}
	e.invalidate(ctx, redis.OpDeleteHistory)
	return nil
}

func (e *Engine) invalidate(ctx context.Context, op string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateFor(ctx, op); err != nil {
		logger.Warn("Cache invalidation failed", zap.String("op", op), zap.Error(err))
	}
}

func toModelMetrics(m *mlbackend.Metrics, modelID string) *models.ModelMetrics {
	if m == nil {
		return nil
	}

	classMetrics := make(map[string]models.ClassMetric, len(m.ClassMetrics))
	for class, cm := range m.ClassMetrics {
		classMetrics[class] = models.ClassMetric{
			Precision: cm.Precision,
			Recall:    cm.Recall,
			F1:        cm.F1,
			Support:   cm.Support,
		}
	}

	return &models.ModelMetrics{
		ID:              uuid.New().String(),
		ModelID:         modelID,
		Accuracy:        m.Accuracy,
		Precision:       m.Precision,
		Recall:          m.Recall,
		F1:              m.F1,
		ClassMetrics:    datatypes.NewJSONType(classMetrics),
		ConfusionMatrix: datatypes.NewJSONType(m.ConfusionMatrix),
		CreatedAt:       time.Now(),
	}
}
