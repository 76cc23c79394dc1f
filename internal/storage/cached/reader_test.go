package cached

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/models"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/config"
)

func newTestReader(t *testing.T) (*Reader, *store.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	st := store.NewWithDB(db)
	require.NoError(t, st.Migrate())

	// nil cache exercises the degraded path the server runs in when redis
	// is unreachable at startup.
	return NewReader(st, nil, config.CacheConfig{}), st
}

func TestReaderWithoutCacheServesFromStore(t *testing.T) {
	reader, st := newTestReader(t)
	ctx := context.Background()

	require.NoError(t, st.CreateModel(ctx, &models.Model{
		ID:           uuid.New().String(),
		Name:         "passenger-v1",
		TargetColumn: "satisfaction",
	}, nil))

	result, err := reader.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "passenger-v1", result[0].Name)
}

func TestReaderGetHistoryNotFound(t *testing.T) {
	reader, _ := newTestReader(t)

	_, err := reader.GetHistory(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReaderListDatasetRecordsFiltered(t *testing.T) {
	reader, st := newTestReader(t)
	ctx := context.Background()

	require.NoError(t, st.CreateDatasetRecords(ctx, []models.DatasetRecord{
		{ID: uuid.New().String(), RecordID: "1", FileName: "a.csv", DatasetType: models.DatasetTypeTraining},
		{ID: uuid.New().String(), RecordID: "2", FileName: "a.csv", DatasetType: models.DatasetTypeTesting},
	}))

	result, err := reader.ListDatasetRecords(ctx, models.DatasetTypeTesting, 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "2", result[0].RecordID)
}
