package handler

import (
	"smart-practice/internal/domain"
	"smart-practice/internal/dto"
	"smart-practice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TutorHandler handles practice session HTTP requests
type TutorHandler struct {
	service service.TutorService
}

// NewTutorHandler creates a new TutorHandler instance
func NewTutorHandler(service service.TutorService) *TutorHandler {
	return &TutorHandler{service: service}
}

// StartSession godoc
// @Summary Start a practice session
// @Description Starts (or restarts) a session for a user on an ingested topic
// @Tags session
// @Accept json
// @Produce json
// @Param session body dto.StartSessionRequest true "Session Request"
// @Success 200 {object} dto.StartSessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *TutorHandler) StartSession(c *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.service.StartSession(c.Context(), req.UserID, req.TopicName)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetNextQuestion godoc
// @Summary Get the next question
// @Description Returns the next adaptive question, or done=true when the topic is mastered
// @Tags session
// @Produce json
// @Param user_id query string true "User ID"
// @Param topic query string true "Topic Name"
// @Success 200 {object} dto.QuestionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /sessions/next [get]
func (h *TutorHandler) GetNextQuestion(c *fiber.Ctx) error {
	userID, topicName, err := sessionKey(c)
	if err != nil {
		return err
	}

	resp, err := h.service.GetNextQuestion(c.Context(), userID, topicName)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitAnswer godoc
// @Summary Submit an answer
// @Description Grades the answer for the active concept and updates skill state
// @Tags session
// @Accept json
// @Produce json
// @Param user_id query string true "User ID"
// @Param topic query string true "Topic Name"
// @Param answer body dto.SubmitAnswerRequest true "Answer Request"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/submit [post]
func (h *TutorHandler) SubmitAnswer(c *fiber.Ctx) error {
	userID, topicName, err := sessionKey(c)
	if err != nil {
		return err
	}

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.service.SubmitAnswer(c.Context(), userID, topicName, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSessionStatus godoc
// @Summary Get session status
// @Description Returns the active breadcrumb and streak progress
// @Tags session
// @Produce json
// @Param user_id query string true "User ID"
// @Param topic query string true "Topic Name"
// @Success 200 {object} dto.SessionStatusResponse
// @Router /sessions/status [get]
func (h *TutorHandler) GetSessionStatus(c *fiber.Ctx) error {
	userID, topicName, err := sessionKey(c)
	if err != nil {
		return err
	}

	resp, err := h.service.GetSessionStatus(c.Context(), userID, topicName)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetGraphSnapshot godoc
// @Summary Get the knowledge graph snapshot
// @Description Returns the tree with each node tagged pending, active or mastered
// @Tags graph
// @Produce json
// @Param user_id query string true "User ID"
// @Param topic query string true "Topic Name"
// @Success 200 {object} dto.GraphSnapshotResponse
// @Router /kb/graph [get]
func (h *TutorHandler) GetGraphSnapshot(c *fiber.Ctx) error {
	userID, topicName, err := sessionKey(c)
	if err != nil {
		return err
	}

	resp, err := h.service.GetGraphSnapshot(c.Context(), userID, topicName)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func sessionKey(c *fiber.Ctx) (string, string, error) {
	userID := c.Query("user_id")
	topicName := c.Query("topic")
	if userID == "" || topicName == "" {
		return "", "", domain.NewInvalidInputError("user_id and topic query parameters are required")
	}
	return userID, topicName, nil
}
