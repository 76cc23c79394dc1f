package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/classifier"
	"github.com/hauntmuskie/naivebayes-dashboard/internal/storage/cached"
)

type HistoryHandler struct {
	engine *classifier.Engine
	reader *cached.Reader
}

func NewHistoryHandler(engine *classifier.Engine, reader *cached.Reader) *HistoryHandler {
	return &HistoryHandler{engine: engine, reader: reader}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	result, err := h.reader.ListHistory(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"history": result})
}

func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	result, err := h.reader.GetHistory(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.engine.DeleteHistory(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "History entry deleted"})
}
