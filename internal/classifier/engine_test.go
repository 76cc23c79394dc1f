package classifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/ingestion"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/config"
)

func newTestEngine(t *testing.T, handler http.Handler) (*Engine, *store.Store, *httptest.Server) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	st := store.NewWithDB(db)
	require.NoError(t, st.Migrate())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := mlbackend.NewClient(config.BackendConfig{
		BaseURL:            srv.URL,
		TrainTimeoutSec:    5,
		ClassifyTimeoutSec: 5,
		DeleteTimeoutSec:   5,
		HealthTimeoutSec:   5,
	})

	engine := NewEngine(st, nil, backend, ingestion.NewPipeline(st))
	return engine, st, srv
}

func fakeBackend(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/train", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"modelName": "passenger-v1",
			"targetColumn": "satisfaction",
			"featureColumns": ["Class", "Age"],
			"classes": ["satisfied", "neutral or dissatisfied"],
			"accuracy": 0.91,
			"modelData": "blob",
			"metrics": {
				"accuracy": 0.91,
				"f1": 0.9,
				"class_metrics": {"satisfied": {"precision": 0.92, "recall": 0.89, "f1": 0.9, "support": 120}},
				"confusion_matrix": [[100, 20], [11, 109]]
			}
		}`)
	})
	mux.HandleFunc("/api/classify", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"results": [
				{"predicted_class": "satisfied", "actual_class": "satisfied", "confidence": 0.93},
				{"predicted_class": "satisfied", "actual_class": "neutral or dissatisfied", "confidence": 0.55}
			]
		}`)
	})
	mux.HandleFunc("/api/models/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

const trainCSV = "id,Class,Age,satisfaction\n1,Eco,30,satisfied\n2,Business,41,neutral or dissatisfied\n"

func TestTrainPersistsModelAndIngestsFile(t *testing.T) {
	engine, st, _ := newTestEngine(t, fakeBackend(t))
	ctx := context.Background()

	model, err := engine.Train(ctx, TrainInput{
		File:           []byte(trainCSV),
		FileName:       "train.csv",
		ModelName:      "passenger-v1",
		TargetColumn:   "satisfaction",
		FeatureColumns: []string{"Class", "Age"},
	})
	require.NoError(t, err)
	assert.Equal(t, "passenger-v1", model.Name)
	assert.Equal(t, 0.91, model.Accuracy)
	assert.NotEmpty(t, model.ID)

	stored, err := st.GetModelByName(ctx, "passenger-v1")
	require.NoError(t, err)
	require.Len(t, stored.Metrics, 1)
	assert.Equal(t, 0.91, stored.Metrics[0].Accuracy)

	// The uploaded file doubles as training dataset records.
	records, err := st.CountDatasetRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), records)
}

func TestTrainBackendFailure(t *testing.T) {
	engine, st, _ := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"training crashed"}`)
	}))

	_, err := engine.Train(context.Background(), TrainInput{
		File:      []byte(trainCSV),
		FileName:  "train.csv",
		ModelName: "passenger-v1",
	})
	require.Error(t, err)
	assert.Equal(t, "training crashed", err.Error())

	count, err := st.CountModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestClassifyPersistsRowsForKnownModel(t *testing.T) {
	engine, st, _ := newTestEngine(t, fakeBackend(t))
	ctx := context.Background()

	_, err := engine.Train(ctx, TrainInput{
		File:      []byte(trainCSV),
		FileName:  "train.csv",
		ModelName: "passenger-v1",
	})
	require.NoError(t, err)

	resp, err := engine.Classify(ctx, ClassifyInput{
		File:      []byte("id,Class,Age\n10,Eco,25\n"),
		FileName:  "test.csv",
		ModelName: "passenger-v1",
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	rows, err := st.ListClassifications(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "satisfied", rows[0].PredictedClass)
	assert.NotEmpty(t, rows[0].Payload)
}

func TestClassifyUnknownLocalModelNotPersisted(t *testing.T) {
	engine, st, _ := newTestEngine(t, fakeBackend(t))
	ctx := context.Background()

	resp, err := engine.Classify(ctx, ClassifyInput{
		File:      []byte("id,Class\n10,Eco\n"),
		FileName:  "test.csv",
		ModelName: "never-trained-here",
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)

	count, err := st.CountClassifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteModelSurvivesBackendFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/train", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"modelName":"passenger-v1","targetColumn":"satisfaction","accuracy":0.9,"modelData":"blob"}`)
	})
	mux.HandleFunc("/api/models/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail":"backend exploded"}`)
	})

	engine, st, _ := newTestEngine(t, mux)
	ctx := context.Background()

	_, err := engine.Train(ctx, TrainInput{ModelName: "passenger-v1"})
	require.NoError(t, err)

	require.NoError(t, engine.DeleteModel(ctx, "passenger-v1"))

	_, err = st.GetModelByName(ctx, "passenger-v1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteModelNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t, fakeBackend(t))
	err := engine.DeleteModel(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveHistoryUsesBackendAccuracy(t *testing.T) {
	engine, st, _ := newTestEngine(t, fakeBackend(t))
	ctx := context.Background()

	accuracy := 0.91
	resp := &mlbackend.ClassifyResponse{
		Results: []mlbackend.ClassifyResult{{"predicted_class": "satisfied"}},
		Metrics: &mlbackend.Metrics{Accuracy: accuracy},
	}

	entry, err := engine.SaveHistory(ctx, "batch.csv", "passenger-v1", resp)
	require.NoError(t, err)
	require.NotNil(t, entry.Accuracy)
	assert.Equal(t, accuracy, *entry.Accuracy)
	assert.Equal(t, 1, entry.TotalRecords)

	got, err := st.GetHistory(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, strings.Contains(got.Payload, "satisfied"))
}

func TestSaveHistoryScoresLabeledRunsLocally(t *testing.T) {
	engine, _, _ := newTestEngine(t, fakeBackend(t))

	resp := &mlbackend.ClassifyResponse{
		Results: []mlbackend.ClassifyResult{
			{"predicted_class": "satisfied", "actual_class": "satisfied"},
			{"predicted_class": "satisfied", "actual_class": "neutral or dissatisfied"},
		},
	}

	entry, err := engine.SaveHistory(context.Background(), "batch.csv", "passenger-v1", resp)
	require.NoError(t, err)
	require.NotNil(t, entry.Accuracy)
	assert.Equal(t, 0.5, *entry.Accuracy)
}

func TestSaveHistoryUnlabeledRunHasNoAccuracy(t *testing.T) {
	engine, _, _ := newTestEngine(t, fakeBackend(t))

	resp := &mlbackend.ClassifyResponse{
		Results: []mlbackend.ClassifyResult{{"predicted_class": "satisfied"}},
	}

	entry, err := engine.SaveHistory(context.Background(), "batch.csv", "passenger-v1", resp)
	require.NoError(t, err)
	assert.Nil(t, entry.Accuracy)
}

func TestDeleteHistory(t *testing.T) {
	engine, _, _ := newTestEngine(t, fakeBackend(t))
	ctx := context.Background()

	entry, err := engine.SaveHistory(ctx, "batch.csv", "passenger-v1", &mlbackend.ClassifyResponse{})
	require.NoError(t, err)

	require.NoError(t, engine.DeleteHistory(ctx, entry.ID))
	assert.ErrorIs(t, engine.DeleteHistory(ctx, entry.ID), store.ErrNotFound)
}
