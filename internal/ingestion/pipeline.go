package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/metrics"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/models"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

const (
	defaultRowLimit = 100
	batchSize       = 10
)

// naturalKeyColumns are checked in priority order when deriving a record's
// natural identifier from its own values.
var naturalKeyColumns = []string{"id", "record_id", "RecordId"}

type Pipeline struct {
	store *store.Store
}

// Result reports what one ingestion run did. Ingestion is best-effort
// enrichment of the primary train/classify action: the caller logs the
// result and moves on, it never fails the action on it.
type Result struct {
	Inserted         int
	SkippedExisting  int
	SkippedDuplicate int
	Failed           int
	Err              error
}

func NewPipeline(st *store.Store) *Pipeline {
	return &Pipeline{store: st}
}

// Ingest parses a delimited text file (header row of comma-separated column
// names, then data rows), deduplicates against persisted records and within
// the upload itself by (recordID, fileName), and bulk-inserts survivors in
// batches. A file without data rows is a no-op.
func (p *Pipeline) Ingest(ctx context.Context, file []byte, fileName, datasetType string, limit int) Result {
	if limit <= 0 {
		limit = defaultRowLimit
	}

	header, rows := parse(file)
	if len(rows) == 0 {
		return Result{}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	var result Result
	seen := make(map[string]bool, len(rows))
	startedAt := time.Now()

	for batchStart := 0; batchStart < len(rows); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(rows) {
			batchEnd = len(rows)
		}

		var survivors []models.DatasetRecord
		for i := batchStart; i < batchEnd; i++ {
			row := rows[i]
			recordID := naturalID(row, datasetType, startedAt, i)

			// The (recordID, fileName) pair is unique absolutely, so a
			// duplicate inside the same upload is skipped just like one
			// already persisted.
			if seen[recordID] {
				result.SkippedDuplicate++
				metrics.DatasetRowsSkipped.WithLabelValues("duplicate").Inc()
				continue
			}
			seen[recordID] = true

			exists, err := p.store.DatasetRecordExists(ctx, recordID, fileName)
			if err != nil {
				result.Failed++
				result.Err = err
				continue
			}
			if exists {
				result.SkippedExisting++
				metrics.DatasetRowsSkipped.WithLabelValues("existing").Inc()
				continue
			}

			survivors = append(survivors, models.DatasetRecord{
				ID:          uuid.New().String(),
				RecordID:    recordID,
				FileName:    fileName,
				DatasetType: datasetType,
				Row:         row,
				Columns:     datatypes.NewJSONSlice(header),
				CreatedAt:   time.Now(),
			})
		}

		if len(survivors) == 0 {
			continue
		}

		if err := p.store.CreateDatasetRecords(ctx, survivors); err != nil {
			result.Failed += len(survivors)
			result.Err = err
			continue
		}

		result.Inserted += len(survivors)
		metrics.DatasetRowsIngested.Add(float64(len(survivors)))
	}

	logger.Info("Dataset ingestion finished",
		zap.String("file_name", fileName),
		zap.String("dataset_type", datasetType),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped_existing", result.SkippedExisting),
		zap.Int("skipped_duplicate", result.SkippedDuplicate),
		zap.Int("failed", result.Failed),
	)

	return result
}

// parse splits the file into a trimmed header and one map per data row.
// Values are paired with headers by position; rows shorter than the header
// simply omit the trailing columns.
func parse(file []byte) ([]string, []datatypes.JSONMap) {
	lines := strings.Split(strings.ReplaceAll(string(file), "\r\n", "\n"), "\n")

	var nonEmpty []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}
	if len(nonEmpty) < 2 {
		return nil, nil
	}

	header := splitTrim(nonEmpty[0])

	rows := make([]datatypes.JSONMap, 0, len(nonEmpty)-1)
	for _, line := range nonEmpty[1:] {
		values := splitTrim(line)
		row := make(datatypes.JSONMap, len(header))
		for i, col := range header {
			if i >= len(values) {
				break
			}
			row[col] = values[i]
		}
		rows = append(rows, row)
	}

	return header, rows
}

func splitTrim(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// naturalID derives the record's business key from its id/record_id/RecordId
// value, or synthesizes one from the dataset type, the ingestion timestamp
// and the row ordinal when none is present.
func naturalID(row datatypes.JSONMap, datasetType string, startedAt time.Time, ordinal int) string {
	for _, col := range naturalKeyColumns {
		if v, ok := row[col].(string); ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("%s-%d-%d", datasetType, startedAt.UnixNano(), ordinal)
}
