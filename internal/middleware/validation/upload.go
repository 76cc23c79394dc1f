package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-dashboard/pkg/logger"
)

type Config struct {
	MaxFileSize         int
	AllowedContentTypes []string
}

// UploadMiddleware rejects malformed train/classify submissions before they
// reach the orchestration engine.
func UploadMiddleware(cfg Config) fiber.Handler {
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"multipart/form-data"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		contentType := c.Get("Content-Type")
		allowed := false
		for _, allowedType := range cfg.AllowedContentTypes {
			if strings.Contains(contentType, allowedType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		if c.FormValue("model_name") == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "model_name is required",
			})
		}

		if file, err := c.FormFile("file"); err == nil && file.Size > int64(cfg.MaxFileSize) {
			logger.Warn("Oversized upload rejected",
				zap.String("file_name", file.Filename),
				zap.Int64("size", file.Size),
			)
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Uploaded file exceeds maximum size",
			})
		}

		return c.Next()
	}
}
