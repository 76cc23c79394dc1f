package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/store"
	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

// respondError maps workflow errors onto HTTP responses. Backend failures
// surface their extracted message; classify failures caused by missing
// feature columns additionally carry the column list for the UI.
func respondError(c *fiber.Ctx, err error) error {
	var backendErr *mlbackend.BackendError
	switch {
	case errors.Is(err, mlbackend.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not found",
		})
	case errors.As(err, &backendErr):
		body := fiber.Map{"error": backendErr.Message}
		if len(backendErr.MissingColumns) > 0 {
			body["missing_columns"] = backendErr.MissingColumns
		}
		status := fiber.StatusBadGateway
		if backendErr.Status == fiber.StatusNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(body)
	default:
		logger.Error("Request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func formFileBytes(c *fiber.Ctx, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}

	return buf, fileHeader.Filename, nil
}
