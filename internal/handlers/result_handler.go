package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/creative-evaluator/internal/models"
	"alfredoptarigan/creative-evaluator/internal/repositories"
)

type ResultHandler struct {
	evalRepo repositories.EvaluationRepository
	logger   *zap.Logger
}

func NewResultHandler(evalRepo repositories.EvaluationRepository, logger *zap.Logger) *ResultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultHandler{
		evalRepo: evalRepo,
		logger:   logger.Named("results"),
	}
}

// HandleGetResult handles GET /creative/result/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	evalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid evaluation ID format")
	}

	evaluation, err := h.evalRepo.FindByID(evalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Evaluation not found")
		}
		return err
	}

	response := models.ResultResponse{
		ID:     evaluation.ID.String(),
		Status: string(evaluation.Status),
	}

	if evaluation.Status == models.StatusCompleted && evaluation.Result != nil {
		var result models.EvaluationResult
		if err := json.Unmarshal([]byte(*evaluation.Result), &result); err != nil {
			h.logger.Error("❌ Stored result is unreadable",
				zap.String("evaluation_id", evalID.String()),
				zap.Error(err),
			)
			return errorJSON(c, fiber.StatusInternalServerError, "Stored result is unreadable")
		}
		response.Result = &result
	}

	if evaluation.Status == models.StatusFailed && evaluation.ErrorMessage != nil {
		response.ErrorMessage = evaluation.ErrorMessage
	}

	return c.JSON(response)
}
