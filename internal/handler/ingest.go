package handler

import (
	"smart-practice/internal/domain"
	"smart-practice/internal/dto"
	"smart-practice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IngestHandler handles topic ingestion HTTP requests
type IngestHandler struct {
	service service.IngestionService
}

// NewIngestHandler creates a new IngestHandler instance
func NewIngestHandler(service service.IngestionService) *IngestHandler {
	return &IngestHandler{service: service}
}

// IngestTopic godoc
// @Summary Ingest a topic
// @Description Generates and stores the knowledge tree for a topic from corpus text
// @Tags ingest
// @Accept json
// @Produce json
// @Param topic body dto.IngestRequest true "Ingest Request"
// @Success 200 {object} dto.IngestResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /ingest [post]
func (h *IngestHandler) IngestTopic(c *fiber.Ctx) error {
	var req dto.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.service.IngestTopic(c.Context(), req.TopicName, req.Corpus)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
