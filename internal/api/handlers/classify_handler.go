package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/classifier"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/cached"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

type ClassifyHandler struct {
	engine *classifier.Engine
	reader *cached.Reader
}

func NewClassifyHandler(engine *classifier.Engine, reader *cached.Reader) *ClassifyHandler {
	return &ClassifyHandler{engine: engine, reader: reader}
}

func (h *ClassifyHandler) Classify(c *fiber.Ctx) error {
	file, fileName, err := formFileBytes(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file to classify is required",
		})
	}

	modelName := c.FormValue("model_name")

	resp, err := h.engine.Classify(c.Context(), classifier.ClassifyInput{
		File:      file,
		FileName:  fileName,
		ModelName: modelName,
	})
	if err != nil {
		logger.Error("Classification failed", zap.String("model_name", modelName), zap.Error(err))
		return respondError(c, err)
	}

	// Snapshot the run for later review, independent of the model's
	// lifecycle. A failed snapshot does not void the classify results.
	entry, err := h.engine.SaveHistory(c.Context(), fileName, modelName, resp)
	if err != nil {
		logger.Warn("Failed to save classification history", zap.Error(err))
	}

	body := fiber.Map{
		"results": resp.Results,
	}
	if resp.Metrics != nil {
		body["metrics"] = resp.Metrics
	}
	if entry != nil {
		body["history_id"] = entry.ID
	}

	return c.JSON(body)
}

func (h *ClassifyHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	result, err := h.reader.ListClassifications(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"classifications": result})
}

func (h *ClassifyHandler) Get(c *fiber.Ctx) error {
	result, err := h.reader.GetClassification(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
