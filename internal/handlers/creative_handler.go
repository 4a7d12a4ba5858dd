package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"alfredoptarigan/creative-evaluator/internal/framework"
	"alfredoptarigan/creative-evaluator/internal/models"
	"alfredoptarigan/creative-evaluator/internal/repositories"
	"alfredoptarigan/creative-evaluator/internal/services"
)

// ModelBackend is the language model the handlers evaluate with.
type ModelBackend interface {
	Query(ctx context.Context, messages []services.Message) (*services.Response, error)
	ActiveBackend() string
}

type CreativeHandler struct {
	evaluator services.EvaluatorService
	model     ModelBackend
	evalRepo  repositories.EvaluationRepository
	docRepo   repositories.DocumentRepository
	worker    services.Worker
	logger    *zap.Logger
}

func NewCreativeHandler(
	evaluator services.EvaluatorService,
	model ModelBackend,
	evalRepo repositories.EvaluationRepository,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
	logger *zap.Logger,
) *CreativeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreativeHandler{
		evaluator: evaluator,
		model:     model,
		evalRepo:  evalRepo,
		docRepo:   docRepo,
		worker:    worker,
		logger:    logger.Named("creative"),
	}
}

// HandleConfig handles GET /creative/config
func (h *CreativeHandler) HandleConfig(c *fiber.Ctx) error {
	roles := framework.AllRoles()
	summaries := make([]models.RoleSummary, 0, len(roles))
	for _, r := range roles {
		summaries = append(summaries, models.RoleSummary{
			ID:              r.ID,
			Name:            r.Name,
			ShortName:       r.ShortName,
			IsHardGate:      r.IsHardGate,
			FrameworkLayers: r.FrameworkLayers,
			Weight:          r.Weight,
		})
	}

	layers := framework.AllLayers()
	infos := make([]models.LayerInfo, 0, len(layers))
	for _, l := range layers {
		subs := make([]string, 0, len(l.SubCriteria))
		for _, sc := range l.SubCriteria {
			subs = append(subs, fmt.Sprintf("%s. %s", sc.ID, sc.Name))
		}
		infos = append(infos, models.LayerInfo{ID: l.ID, Name: l.Name, SubCriteria: subs})
	}

	return c.JSON(models.ConfigResponse{
		LLMBackend: h.model.ActiveBackend(),
		Roles:      summaries,
		Layers:     infos,
	})
}

// HandleValidate handles POST /creative/validate
func (h *CreativeHandler) HandleValidate(c *fiber.Ctx) error {
	input, err := h.decodeInput(c)
	if err != nil {
		return err
	}
	return c.JSON(services.ValidateInput(input))
}

// HandleEvaluate handles POST /creative/evaluate
func (h *CreativeHandler) HandleEvaluate(c *fiber.Ctx) error {
	input, err := h.decodeValidInput(c)
	if input == nil || err != nil {
		return err
	}

	result, err := h.evaluator.RunEvaluation(c.UserContext(), *input, h.model.Query, nil)
	if err != nil {
		if services.IsRateLimitError(err) {
			return errorJSON(c, fiber.StatusTooManyRequests, "Model rate limit reached. Please retry later.")
		}
		return fmt.Errorf("failed to run evaluation: %w", err)
	}

	h.persist(*input, result)
	return c.JSON(result)
}

type sseEvent struct {
	name string
	data any
}

// HandleEvaluateStream handles POST /creative/evaluate/stream as Server-Sent
// Events: start, role_progress, hard_gate_failed, then complete or error.
func (h *CreativeHandler) HandleEvaluateStream(c *fiber.Ctx) error {
	input, err := h.decodeValidInput(c)
	if input == nil || err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events := make(chan sseEvent, 16)
		go func() {
			defer close(events)
			send := func(ev sseEvent) {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			}

			result, err := h.evaluator.RunEvaluation(ctx, *input, h.model.Query, func(ev services.ProgressEvent) {
				send(sseEvent{name: "role_progress", data: ev})
			})
			if err != nil {
				send(sseEvent{name: "error", data: fiber.Map{
					"message":      err.Error(),
					"rate_limited": services.IsRateLimitError(err),
				}})
				return
			}

			if result.HardGateFailed && result.FailedHardGateRole != nil {
				send(sseEvent{name: "hard_gate_failed", data: fiber.Map{"role": *result.FailedHardGateRole}})
			}
			h.persist(*input, result)
			send(sseEvent{name: "complete", data: fiber.Map{"result": result}})
		}()

		if err := writeSSE(w, sseEvent{name: "start", data: fiber.Map{"total_roles": len(framework.AllRoles())}}); err != nil {
			cancel()
		}
		for ev := range events {
			if ctx.Err() != nil {
				continue
			}
			if err := writeSSE(w, ev); err != nil {
				h.logger.Debug("stream client went away", zap.Error(err))
				cancel()
			}
		}
	}))

	return nil
}

func writeSSE(w *bufio.Writer, ev sseEvent) error {
	payload, err := json.Marshal(ev.data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", ev.name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, payload); err != nil {
		return err
	}
	return w.Flush()
}

// HandleSubmitJob handles POST /creative/jobs
func (h *CreativeHandler) HandleSubmitJob(c *fiber.Ctx) error {
	input, err := h.decodeValidInput(c)
	if input == nil || err != nil {
		return err
	}

	record, err := services.NewEvaluationRecord(*input)
	if err != nil {
		return err
	}
	if err := h.evalRepo.Create(record); err != nil {
		h.logger.Error("❌ Failed to create evaluation job", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create evaluation job")
	}

	h.worker.EnqueueJob(record.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.JobResponse{
		ID:     record.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// decodeInput parses the body and folds a referenced document into the
// creative description.
func (h *CreativeHandler) decodeInput(c *fiber.Ctx) (models.EvaluationInput, error) {
	var input models.EvaluationInput
	if err := c.BodyParser(&input); err != nil {
		return input, fiber.NewError(fiber.StatusBadRequest, "Invalid request payload")
	}

	docRef := strings.TrimSpace(input.Creative.DocumentID)
	if docRef == "" {
		return input, nil
	}

	docID, err := uuid.Parse(docRef)
	if err != nil {
		return input, fiber.NewError(fiber.StatusBadRequest, "Invalid document_id format")
	}
	doc, err := h.docRepo.FindByID(docID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return input, fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return input, err
	}

	input.Creative.FilePath = doc.FilePath
	input.Creative.FileType = doc.ContentType
	if text := strings.TrimSpace(doc.ExtractedText); text != "" {
		extracted := fmt.Sprintf("[Extracted from %s]:\n%s", doc.OriginalFileName, text)
		if strings.TrimSpace(input.Creative.Description) == "" {
			input.Creative.Description = extracted
		} else {
			input.Creative.Description += "\n\n" + extracted
		}
	}
	return input, nil
}

// decodeValidInput returns nil input once it has written the 400 response for an
// incomplete submission.
func (h *CreativeHandler) decodeValidInput(c *fiber.Ctx) (*models.EvaluationInput, error) {
	input, err := h.decodeInput(c)
	if err != nil {
		return nil, err
	}
	if v := services.ValidateInput(input); !v.Valid {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "Input is incomplete",
			"validation": v,
		})
	}
	return &input, nil
}

// persist stores a finished synchronous run. Failures are logged only; the
// caller already has the result.
func (h *CreativeHandler) persist(input models.EvaluationInput, result *models.EvaluationResult) {
	record, err := services.NewEvaluationRecord(input)
	if err != nil {
		h.logger.Warn("⚠️ Could not encode evaluation for storage", zap.Error(err))
		return
	}
	record.ID = result.EvaluationID
	record.Status = models.StatusProcessing

	if err := h.evalRepo.Create(record); err != nil {
		h.logger.Warn("⚠️ Could not store evaluation", zap.Error(err))
		return
	}
	if err := h.evalRepo.UpdateResult(record.ID, result); err != nil {
		h.logger.Warn("⚠️ Could not store evaluation result", zap.Error(err))
	}
}
