package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/classifier"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/cached"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

type ModelHandler struct {
	engine *classifier.Engine
	reader *cached.Reader
}

func NewModelHandler(engine *classifier.Engine, reader *cached.Reader) *ModelHandler {
	return &ModelHandler{engine: engine, reader: reader}
}

func (h *ModelHandler) Train(c *fiber.Ctx) error {
	file, fileName, err := formFileBytes(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A training file is required",
		})
	}

	var featureColumns []string
	if raw := c.FormValue("feature_columns"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &featureColumns); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "feature_columns must be a JSON array of column names",
			})
		}
	}

	model, err := h.engine.Train(c.Context(), classifier.TrainInput{
		File:           file,
		FileName:       fileName,
		ModelName:      c.FormValue("model_name"),
		TargetColumn:   c.FormValue("target_column"),
		FeatureColumns: featureColumns,
	})
	if err != nil {
		logger.Error("Training failed", zap.String("model_name", c.FormValue("model_name")), zap.Error(err))
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(model)
}

func (h *ModelHandler) List(c *fiber.Ctx) error {
	result, err := h.reader.ListModels(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"models": result})
}

func (h *ModelHandler) Get(c *fiber.Ctx) error {
	result, err := h.reader.ListModels(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	name := c.Params("name")
	for i := range result {
		if result[i].Name == name {
			return c.JSON(result[i])
		}
	}

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not found",
	})
}

func (h *ModelHandler) Delete(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := h.engine.DeleteModel(c.Context(), name); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Model deleted", "name": name})
}
