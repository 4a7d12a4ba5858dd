package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"alfredoptarigan/creative-evaluator/internal/models"
	"alfredoptarigan/creative-evaluator/internal/repositories"
)

// memoryEvalRepo is an in-memory EvaluationRepository.
type memoryEvalRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.Evaluation
	results map[uuid.UUID]*models.EvaluationResult
	pollErr error
}

func newMemoryEvalRepo() *memoryEvalRepo {
	return &memoryEvalRepo{
		records: map[uuid.UUID]*models.Evaluation{},
		results: map[uuid.UUID]*models.EvaluationResult{},
	}
}

func (r *memoryEvalRepo) Create(eval *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *eval
	r.records[eval.ID] = &cp
	return nil
}

func (r *memoryEvalRepo) FindByID(id uuid.UUID) (*models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("evaluation %s: %w", id, repositories.ErrNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryEvalRepo) UpdateStatus(id uuid.UUID, status models.EvaluationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (r *memoryEvalRepo) ClaimQueued(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != models.StatusQueued {
		return false, nil
	}
	rec.Status = models.StatusProcessing
	return true, nil
}

func (r *memoryEvalRepo) UpdateResult(id uuid.UUID, result *models.EvaluationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	s := string(encoded)
	fei := result.FinalEffectivenessIndex
	verdict := string(result.FinalReport.Verdict)
	rec.Status = models.StatusCompleted
	rec.Result = &s
	rec.FinalEffectivenessIndex = &fei
	rec.Verdict = &verdict
	rec.HardGateFailed = result.HardGateFailed
	r.results[id] = result
	return nil
}

func (r *memoryEvalRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return repositories.ErrNotFound
	}
	rec.Status = models.StatusFailed
	rec.ErrorMessage = &errorMsg
	return nil
}

func (r *memoryEvalRepo) FindPendingJobs(limit int) ([]models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pollErr != nil {
		return nil, r.pollErr
	}
	var out []models.Evaluation
	for _, rec := range r.records {
		if rec.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *memoryEvalRepo) status(id uuid.UUID) models.EvaluationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id].Status
}

func queueRecord(t *testing.T, repo *memoryEvalRepo, input models.EvaluationInput) uuid.UUID {
	t.Helper()
	record, err := NewEvaluationRecord(input)
	require.NoError(t, err)
	require.NoError(t, repo.Create(record))
	return record.ID
}

func TestNewEvaluationRecord(t *testing.T) {
	input := sampleInput()

	record, err := NewEvaluationRecord(input)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, models.StatusQueued, record.Status)
	assert.Equal(t, "Tealwave", record.BrandName)
	assert.Equal(t, string(models.ObjectiveLongTermBrand), record.CampaignObjective)

	var decoded models.EvaluationInput
	require.NoError(t, json.Unmarshal([]byte(record.Input), &decoded))
	assert.Equal(t, input, decoded)
}

func TestProcessJob_Completes(t *testing.T) {
	repo := newMemoryEvalRepo()
	id := queueRecord(t, repo, sampleInput())
	processor := NewJobProcessor(repo, NewEvaluatorService(nil, EvaluatorOptions{}), newScriptedModel().Query, zaptest.NewLogger(t))

	require.NoError(t, processor.ProcessJob(context.Background(), id))

	assert.Equal(t, models.StatusCompleted, repo.status(id))
	result := repo.results[id]
	require.NotNil(t, result)
	assert.Equal(t, id, result.EvaluationID, "stored result carries the job id")
	assert.Len(t, result.RoleEvaluations, 8)
}

func TestProcessJob_SkipsClaimedJob(t *testing.T) {
	repo := newMemoryEvalRepo()
	id := queueRecord(t, repo, sampleInput())
	require.NoError(t, repo.UpdateStatus(id, models.StatusProcessing))
	model := newScriptedModel()

	processor := NewJobProcessor(repo, NewEvaluatorService(nil, EvaluatorOptions{}), model.Query, nil)
	require.NoError(t, processor.ProcessJob(context.Background(), id))

	assert.Equal(t, models.StatusProcessing, repo.status(id))
	assert.Zero(t, model.callCount(1))
}

func TestProcessJob_InvalidStoredInput(t *testing.T) {
	repo := newMemoryEvalRepo()
	input := sampleInput()
	input.BrandName = ""
	id := queueRecord(t, repo, input)

	processor := NewJobProcessor(repo, NewEvaluatorService(nil, EvaluatorOptions{}), newScriptedModel().Query, nil)
	err := processor.ProcessJob(context.Background(), id)

	require.Error(t, err)
	rec, _ := repo.FindByID(id)
	assert.Equal(t, models.StatusFailed, rec.Status)
	require.NotNil(t, rec.ErrorMessage)
	assert.Contains(t, *rec.ErrorMessage, "Brand Name")
}

func TestProcessJob_RateLimitMarksFailed(t *testing.T) {
	repo := newMemoryEvalRepo()
	id := queueRecord(t, repo, sampleInput())
	model := newScriptedModel().on(1, func(context.Context) (*Response, error) {
		return nil, fmt.Errorf("%w: quota", ErrRateLimited)
	})

	processor := NewJobProcessor(repo, NewEvaluatorService(nil, EvaluatorOptions{}), model.Query, nil)
	err := processor.ProcessJob(context.Background(), id)

	assert.True(t, errors.Is(err, ErrRateLimited))
	rec, _ := repo.FindByID(id)
	assert.Equal(t, models.StatusFailed, rec.Status)
}

func TestProcessJob_UnknownID(t *testing.T) {
	processor := NewJobProcessor(newMemoryEvalRepo(), NewEvaluatorService(nil, EvaluatorOptions{}), newScriptedModel().Query, nil)

	assert.NoError(t, processor.ProcessJob(context.Background(), uuid.New()), "nothing to claim")
}
