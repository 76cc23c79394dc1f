package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DatasetTypeTraining   = "training"
	DatasetTypeTesting    = "testing"
	DatasetTypeValidation = "validation"
)

// Model is one trained classifier as returned by the external backend.
// The three *Data fields are opaque serialized artifacts; the dashboard
// never interprets them, it only ships them back for inspection/export.
type Model struct {
	ID               string                      `gorm:"primaryKey" json:"id"`
	Name             string                      `gorm:"uniqueIndex;not null" json:"name"`
	TargetColumn     string                      `gorm:"not null" json:"target_column"`
	FeatureColumns   datatypes.JSONSlice[string] `json:"feature_columns"`
	Classes          datatypes.JSONSlice[string] `json:"classes"`
	Accuracy         float64                     `json:"accuracy"`
	ModelData        string                      `gorm:"type:text" json:"-"`
	EncodersData     string                      `gorm:"type:text" json:"-"`
	LabelEncoderData string                      `gorm:"type:text" json:"-"`
	CreatedAt        time.Time                   `json:"created_at"`

	Classifications []Classification `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE" json:"-"`
	Metrics         []ModelMetrics   `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE" json:"metrics,omitempty"`
}

// Classification is one stored prediction. Confidence is a fraction in [0,1];
// the UI renders it as a percentage.
type Classification struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ModelID        string    `gorm:"index;not null" json:"model_id"`
	Payload        string    `gorm:"type:text" json:"payload"`
	PredictedClass string    `json:"predicted_class"`
	ActualClass    *string   `json:"actual_class,omitempty"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClassMetric struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type ModelMetrics struct {
	ID              string                                      `gorm:"primaryKey" json:"id"`
	ModelID         string                                      `gorm:"index;not null" json:"model_id"`
	Accuracy        float64                                     `json:"accuracy"`
	Precision       float64                                     `json:"precision"`
	Recall          float64                                     `json:"recall"`
	F1              float64                                     `json:"f1"`
	ClassMetrics    datatypes.JSONType[map[string]ClassMetric]  `json:"class_metrics"`
	ConfusionMatrix datatypes.JSONType[[][]int]                 `json:"confusion_matrix"`
	CreatedAt       time.Time                                   `json:"created_at"`
}

// ClassificationHistory is a denormalized snapshot of one classify run.
// ModelName is a plain string so snapshots outlive model deletion.
type ClassificationHistory struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	FileName     string    `json:"file_name"`
	ModelName    string    `json:"model_name"`
	TotalRecords int       `json:"total_records"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Payload      string    `gorm:"type:text" json:"payload"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// DatasetRecord is one ingested CSV row. The (record_id, file_name) pair is
// the natural key: re-ingesting the same file must never create duplicates.
type DatasetRecord struct {
	ID          string                      `gorm:"primaryKey" json:"id"`
	RecordID    string                      `gorm:"uniqueIndex:idx_record_file;not null" json:"record_id"`
	FileName    string                      `gorm:"uniqueIndex:idx_record_file;not null" json:"file_name"`
	DatasetType string                      `gorm:"index" json:"dataset_type"`
	Row         datatypes.JSONMap           `json:"row"`
	Columns     datatypes.JSONSlice[string] `json:"columns"`
	CreatedAt   time.Time                   `json:"created_at"`
}
