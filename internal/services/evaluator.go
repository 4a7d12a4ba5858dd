package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/creative-evaluator/internal/framework"
	"alfredoptarigan/creative-evaluator/internal/models"
)

const (
	degradedScore           = 5.0
	noResponseConfidence    = 0.3
	callErrorConfidence     = 0.2
	noResponseJustification = "Model query failed. Defaulting to neutral score with low confidence."
	timeoutJustification    = "Model query timed out. Defaulting to neutral score with low confidence."
	callErrorFormat         = "Evaluation error: %v"
)

type runState string

const (
	stateInitialized      runState = "initialized"
	stateBaselineLocked   runState = "baseline_locked"
	stateRolesDispatched  runState = "roles_dispatched"
	stateAllRolesComplete runState = "all_roles_complete"
	stateHardGateFailed   runState = "hard_gate_short_circuited"
	stateAggregated       runState = "aggregated"
	stateReported         runState = "reported"
)

type EvaluatorService interface {
	// RunEvaluation scores input with every registered role. It returns an error
	// only when ctx is cancelled or a model call is rate limited; in the latter
	// case the error satisfies IsRateLimitError and no result is produced.
	RunEvaluation(ctx context.Context, input models.EvaluationInput, query QueryFunc, sink ProgressSink) (*models.EvaluationResult, error)
}

type EvaluatorOptions struct {
	// CallTimeout bounds each model call. Zero disables the bound.
	CallTimeout time.Duration
	Scoring     ScoringConfig
}

type evaluatorService struct {
	logger        *zap.Logger
	promptBuilder *PromptBuilder
	opts          EvaluatorOptions
}

func NewEvaluatorService(logger *zap.Logger, opts EvaluatorOptions) EvaluatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Scoring.MaxPossible <= 0 {
		opts.Scoring = DefaultScoringConfig()
	}
	return &evaluatorService{
		logger:        logger.Named("evaluator"),
		promptBuilder: NewPromptBuilder(),
		opts:          opts,
	}
}

func (e *evaluatorService) RunEvaluation(ctx context.Context, input models.EvaluationInput, query QueryFunc, sink ProgressSink) (*models.EvaluationResult, error) {
	if query == nil {
		return nil, errors.New("query function is required")
	}

	evalID := uuid.New()
	log := e.logger.With(zap.String("evaluation_id", evalID.String()))
	transition := func(s runState) { log.Debug("evaluation state", zap.String("state", string(s))) }

	transition(stateInitialized)
	log.Info("🚀 Starting creative evaluation",
		zap.String("brand", input.BrandName),
		zap.String("objective", string(input.CampaignObjective)),
	)

	baseline := LockBaseline(input)
	transition(stateBaselineLocked)

	progress := newProgressNotifier(sink)
	defer progress.Close()

	roles := framework.AllRoles()
	for _, role := range roles {
		progress.notify(ProgressEvent{RoleID: role.ID, RoleName: role.Name, Status: RoleQueued})
	}

	// Each task owns one slot; results stay in role-id order whatever the
	// completion order.
	evaluations := make([]models.RoleEvaluation, len(roles))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, role := range roles {
		g.Go(func() error {
			progress.notify(ProgressEvent{RoleID: role.ID, RoleName: role.Name, Status: RoleProcessing})

			eval, err := e.evaluateRole(groupCtx, role, input, baseline, query, progress)
			if err != nil {
				return err
			}
			evaluations[i] = eval

			progress.notify(ProgressEvent{RoleID: role.ID, RoleName: role.Name, Status: RoleComplete, Evaluation: &eval})
			return nil
		})
	}
	transition(stateRolesDispatched)

	if err := g.Wait(); err != nil {
		if IsRateLimitError(err) {
			log.Error("❌ Evaluation aborted: model rate limited", zap.Error(err))
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("⚠️ Evaluation cancelled", zap.Error(ctxErr))
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to evaluate roles: %w", err)
	}

	var failedGate *string
	for _, ev := range evaluations {
		if ev.IsHardGate && !ev.Passed() {
			name := ev.RoleName
			failedGate = &name
			break
		}
	}

	fei := 0.0
	if failedGate != nil {
		transition(stateHardGateFailed)
		log.Warn("⛔ Hard gate failed", zap.String("role", *failedGate))
	} else {
		transition(stateAllRolesComplete)
		fei = CalculateFEI(evaluations, e.opts.Scoring)
	}

	report := GenerateFinalReport(evaluations, fei, input.CampaignObjective)
	if failedGate != nil {
		applyHardGateOverride(&report, *failedGate)
	}
	appendix := GenerateAnalysisAppendix(evaluations, baseline, e.opts.Scoring)
	transition(stateAggregated)

	result := &models.EvaluationResult{
		EvaluationID: evalID,
		CreatedAt:    time.Now().UTC(),
		InputSummary: map[string]any{
			"brand":     input.BrandName,
			"category":  input.Category,
			"objective": string(input.CampaignObjective),
		},
		RoleEvaluations:         evaluations,
		FinalEffectivenessIndex: fei,
		FinalReport:             report,
		AnalysisAppendix:        appendix,
		HardGateFailed:          failedGate != nil,
		FailedHardGateRole:      failedGate,
	}
	transition(stateReported)

	log.Info("✅ Creative evaluation completed",
		zap.Float64("fei", fei),
		zap.String("verdict", string(report.Verdict)),
		zap.Bool("hard_gate_failed", result.HardGateFailed),
	)
	return result, nil
}

// evaluateRole produces exactly one evaluation for role. Only rate limiting and
// cancellation of ctx escape as errors; every other failure degrades.
func (e *evaluatorService) evaluateRole(
	ctx context.Context,
	role framework.RoleDefinition,
	input models.EvaluationInput,
	baseline models.ContextualBaseline,
	query QueryFunc,
	progress *progressNotifier,
) (eval models.RoleEvaluation, err error) {
	log := e.logger.With(zap.Int("role_id", role.ID), zap.String("role", role.Name))
	note := func(text string) {
		progress.notify(ProgressEvent{RoleID: role.ID, RoleName: role.Name, Status: RoleProcessing, Note: text})
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("❌ Role evaluation panicked", zap.Any("panic", r))
			eval, err = degradedEvaluation(role, callErrorConfidence, fmt.Sprintf(callErrorFormat, r)), nil
		}
	}()

	note(noteBuildingFramework)
	messages := []Message{
		{Role: MessageRoleSystem, Content: role.SystemPrompt},
		{Role: MessageRoleUser, Content: e.promptBuilder.BuildEvaluationPrompt(role, input, baseline)},
	}

	note(noteQueryingModel)
	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	resp, err := query(callCtx, messages)
	switch {
	case err != nil && IsRateLimitError(err):
		return models.RoleEvaluation{}, err
	case ctx.Err() != nil:
		return models.RoleEvaluation{}, ctx.Err()
	case err != nil && callCtx.Err() != nil:
		log.Warn("⚠️ Model call timed out", zap.Duration("timeout", e.opts.CallTimeout))
		return degradedEvaluation(role, noResponseConfidence, timeoutJustification), nil
	case err != nil:
		log.Warn("⚠️ Model call failed", zap.Error(err))
		return degradedEvaluation(role, callErrorConfidence, fmt.Sprintf(callErrorFormat, err)), nil
	case resp == nil:
		log.Warn("⚠️ Model returned no response")
		return degradedEvaluation(role, noResponseConfidence, noResponseJustification), nil
	}

	note(noteParsingResponse)
	parsed := ParseVerdict(resp.Content)
	if parsed.Unparsed {
		log.Warn("⚠️ Could not parse model response", zap.Int("response_chars", len(resp.Content)))
	}

	return models.RoleEvaluation{
		RoleID:        role.ID,
		RoleName:      role.Name,
		IsHardGate:    role.IsHardGate,
		Result:        parsed.Result,
		Score:         parsed.Score,
		Confidence:    parsed.Confidence,
		Justification: parsed.Justification,
		LayerScores:   parsed.LayerScores,
	}, nil
}

func (e *evaluatorService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.opts.CallTimeout)
}

func degradedEvaluation(role framework.RoleDefinition, confidence float64, justification string) models.RoleEvaluation {
	score := degradedScore
	return models.RoleEvaluation{
		RoleID:        role.ID,
		RoleName:      role.Name,
		IsHardGate:    role.IsHardGate,
		Result:        models.ResultPass,
		Score:         &score,
		Confidence:    confidence,
		Justification: justification,
		LayerScores:   []models.LayerScore{},
	}
}
