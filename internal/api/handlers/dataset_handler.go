package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/ingestion"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/cached"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/models"
)

type DatasetHandler struct {
	pipeline *ingestion.Pipeline
	reader   *cached.Reader
}

func NewDatasetHandler(pipeline *ingestion.Pipeline, reader *cached.Reader) *DatasetHandler {
	return &DatasetHandler{pipeline: pipeline, reader: reader}
}

func (h *DatasetHandler) List(c *fiber.Ctx) error {
	datasetType := c.Query("type")
	switch datasetType {
	case "", models.DatasetTypeTraining, models.DatasetTypeTesting, models.DatasetTypeValidation:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type must be one of training, testing, validation",
		})
	}

	limit := c.QueryInt("limit", 100)
	result, err := h.reader.ListDatasetRecords(c.Context(), datasetType, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"records": result})
}

// Upload ingests a CSV directly, without triggering training or
// classification. Unlike the best-effort ingestion inside train/classify,
// this endpoint reports the full ingestion result to the caller.
func (h *DatasetHandler) Upload(c *fiber.Ctx) error {
	file, fileName, err := formFileBytes(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A dataset file is required",
		})
	}

	datasetType := c.FormValue("dataset_type", models.DatasetTypeTraining)
	switch datasetType {
	case models.DatasetTypeTraining, models.DatasetTypeTesting, models.DatasetTypeValidation:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "dataset_type must be one of training, testing, validation",
		})
	}

	limit := c.QueryInt("limit", 0)
	result := h.pipeline.Ingest(c.Context(), file, fileName, datasetType, limit)

	body := fiber.Map{
		"inserted":          result.Inserted,
		"skipped_existing":  result.SkippedExisting,
		"skipped_duplicate": result.SkippedDuplicate,
		"failed":            result.Failed,
	}
	if result.Err != nil {
		body["error_detail"] = result.Err.Error()
	}

	return c.JSON(body)
}
