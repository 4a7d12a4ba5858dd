package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/creative-evaluator/internal/models"
)

var ErrNotFound = errors.New("record not found")

type EvaluationRepository interface {
	Create(eval *models.Evaluation) error
	FindByID(id uuid.UUID) (*models.Evaluation, error)
	UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error
	// ClaimQueued moves a queued record to processing. It reports false when the
	// record was not queued, so a job picked up twice runs once.
	ClaimQueued(id uuid.UUID) (bool, error)
	UpdateResult(id uuid.UUID, result *models.EvaluationResult) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(eval *models.Evaluation) error {
	if err := r.db.Create(eval).Error; err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}
	return nil
}

func (r *evaluationRepository) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	var eval models.Evaluation
	if err := r.db.Where("id = ?", id).First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

func (r *evaluationRepository) UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error {
	return r.update(id, map[string]any{"status": status})
}

func (r *evaluationRepository) ClaimQueued(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Evaluation{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]any{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim evaluation: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *evaluationRepository) UpdateResult(id uuid.UUID, res *models.EvaluationResult) error {
	encoded, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	resultJSON := string(encoded)
	verdict := string(res.FinalReport.Verdict)
	fei := res.FinalEffectivenessIndex

	return r.update(id, map[string]any{
		"status":                    models.StatusCompleted,
		"result":                    &resultJSON,
		"final_effectiveness_index": &fei,
		"verdict":                   &verdict,
		"hard_gate_failed":          res.HardGateFailed,
		"error_message":             nil,
	})
}

func (r *evaluationRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]any{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	})
}

func (r *evaluationRepository) FindPendingJobs(limit int) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&evals).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return evals, nil
}

func (r *evaluationRepository) update(id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.Evaluation{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update evaluation: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
	}

	return nil
}
