package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/models"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *gorm.DB
}

func New(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("Store initialized", zap.String("path", dbPath))

	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open gorm handle. Used by tests with an
// in-memory database.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&models.Model{},
		&models.Classification{},
		&models.ModelMetrics{},
		&models.ClassificationHistory{},
		&models.DatasetRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Schema migrated")
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateModel persists a model and its optional metrics in one transaction,
// so a trained model is never stored half-written. A model whose feature
// columns include its own target column is rejected.
func (s *Store) CreateModel(ctx context.Context, model *models.Model, metrics *models.ModelMetrics) error {
	for _, col := range model.FeatureColumns {
		if col == model.TargetColumn {
			return fmt.Errorf("feature columns must not include target column %q", model.TargetColumn)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to create model: %w", err)
		}
		if metrics != nil {
			metrics.ModelID = model.ID
			if err := tx.Create(metrics).Error; err != nil {
				return fmt.Errorf("failed to create model metrics: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetModelByName(ctx context.Context, name string) (*models.Model, error) {
	var model models.Model
	err := s.db.WithContext(ctx).Preload("Metrics").Where("name = ?", name).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return &model, nil
}

func (s *Store) ListModels(ctx context.Context) ([]models.Model, error) {
	var result []models.Model
	err := s.db.WithContext(ctx).Preload("Metrics").Order("created_at DESC").Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return result, nil
}

// DeleteModel removes a model together with its classifications and metrics.
// Dataset records are independent of any model and are never touched here.
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	model, err := s.GetModelByName(ctx, name)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("model_id = ?", model.ID).Delete(&models.Classification{}).Error; err != nil {
			return fmt.Errorf("failed to delete classifications: %w", err)
		}
		if err := tx.Where("model_id = ?", model.ID).Delete(&models.ModelMetrics{}).Error; err != nil {
			return fmt.Errorf("failed to delete model metrics: %w", err)
		}
		if err := tx.Delete(&models.Model{}, "id = ?", model.ID).Error; err != nil {
			return fmt.Errorf("failed to delete model: %w", err)
		}
		return nil
	})
}

// CreateClassifications bulk-inserts prediction rows and the optional metrics
// of the classify run in one transaction.
func (s *Store) CreateClassifications(ctx context.Context, rows []models.Classification, metrics *models.ModelMetrics) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to create classifications: %w", err)
			}
		}
		if metrics != nil {
			if err := tx.Create(metrics).Error; err != nil {
				return fmt.Errorf("failed to create model metrics: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListClassifications(ctx context.Context, limit int) ([]models.Classification, error) {
	var result []models.Classification
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	return result, nil
}

func (s *Store) GetClassification(ctx context.Context, id string) (*models.Classification, error) {
	var row models.Classification
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}
	return &row, nil
}

func (s *Store) CreateHistory(ctx context.Context, entry *models.ClassificationHistory) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context) ([]models.ClassificationHistory, error) {
	var result []models.ClassificationHistory
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return result, nil
}

func (s *Store) GetHistory(ctx context.Context, id string) (*models.ClassificationHistory, error) {
	var entry models.ClassificationHistory
	err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return &entry, nil
}

func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.ClassificationHistory{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete history entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DatasetRecordExists reports whether a record with the given natural key is
// already persisted. Used by the ingestion pipeline for deduplication.
func (s *Store) DatasetRecordExists(ctx context.Context, recordID, fileName string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.DatasetRecord{}).
		Where("record_id = ? AND file_name = ?", recordID, fileName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check dataset record: %w", err)
	}
	return count > 0, nil
}

func (s *Store) CreateDatasetRecords(ctx context.Context, rows []models.DatasetRecord) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create dataset records: %w", err)
	}
	return nil
}

func (s *Store) ListDatasetRecords(ctx context.Context, datasetType string, limit int) ([]models.DatasetRecord, error) {
	var result []models.DatasetRecord
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if datasetType != "" {
		q = q.Where("dataset_type = ?", datasetType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list dataset records: %w", err)
	}
	return result, nil
}

func (s *Store) CountDatasetRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.DatasetRecord{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count dataset records: %w", err)
	}
	return count, nil
}

func (s *Store) CountModels(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Model{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count models: %w", err)
	}
	return count, nil
}

func (s *Store) CountClassifications(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Classification{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count classifications: %w", err)
	}
	return count, nil
}
