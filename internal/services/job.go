package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/creative-evaluator/internal/models"
	"alfredoptarigan/creative-evaluator/internal/repositories"
)

// JobProcessor runs one stored evaluation record to completion.
type JobProcessor interface {
	ProcessJob(ctx context.Context, evalID uuid.UUID) error
}

type jobProcessor struct {
	evalRepo  repositories.EvaluationRepository
	evaluator EvaluatorService
	query     QueryFunc
	logger    *zap.Logger
}

func NewJobProcessor(evalRepo repositories.EvaluationRepository, evaluator EvaluatorService, query QueryFunc, logger *zap.Logger) JobProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jobProcessor{
		evalRepo:  evalRepo,
		evaluator: evaluator,
		query:     query,
		logger:    logger.Named("jobs"),
	}
}

// NewEvaluationRecord builds the queued record for input.
func NewEvaluationRecord(input models.EvaluationInput) (*models.Evaluation, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}
	return &models.Evaluation{
		ID:                uuid.New(),
		BrandName:         input.BrandName,
		Category:          input.Category,
		CampaignObjective: string(input.CampaignObjective),
		Status:            models.StatusQueued,
		Input:             string(encoded),
	}, nil
}

func (p *jobProcessor) ProcessJob(ctx context.Context, evalID uuid.UUID) error {
	log := p.logger.With(zap.String("evaluation_id", evalID.String()))

	claimed, err := p.evalRepo.ClaimQueued(evalID)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if !claimed {
		log.Debug("job already claimed, skipping")
		return nil
	}

	log.Info("🔄 Starting evaluation job")

	record, err := p.evalRepo.FindByID(evalID)
	if err != nil {
		p.recordError(log, evalID, err.Error())
		return fmt.Errorf("failed to get evaluation: %w", err)
	}

	var input models.EvaluationInput
	if err := json.Unmarshal([]byte(record.Input), &input); err != nil {
		p.recordError(log, evalID, fmt.Sprintf("Stored input is unreadable: %v", err))
		return fmt.Errorf("failed to decode stored input: %w", err)
	}

	if v := ValidateInput(input); !v.Valid {
		p.recordError(log, evalID, v.Feedback)
		return fmt.Errorf("stored input is invalid: missing %v, incomplete %v", v.MissingFields, v.IncompleteFields)
	}

	sink := func(ev ProgressEvent) {
		if ev.Status == RoleComplete {
			log.Debug("role complete", zap.Int("role_id", ev.RoleID), zap.String("role", ev.RoleName))
		}
	}

	result, err := p.evaluator.RunEvaluation(ctx, input, p.query, sink)
	if err != nil {
		p.recordError(log, evalID, err.Error())
		return fmt.Errorf("failed to run evaluation: %w", err)
	}
	result.EvaluationID = evalID

	log.Info("💾 Saving evaluation result")
	if err := p.evalRepo.UpdateResult(evalID, result); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	log.Info("✅ Evaluation job completed",
		zap.Float64("fei", result.FinalEffectivenessIndex),
		zap.String("verdict", string(result.FinalReport.Verdict)),
	)
	return nil
}

func (p *jobProcessor) recordError(log *zap.Logger, evalID uuid.UUID, msg string) {
	if err := p.evalRepo.UpdateError(evalID, msg); err != nil {
		log.Error("❌ Failed to record job error", zap.Error(err))
	}
}
