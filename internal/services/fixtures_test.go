package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"alfredoptarigan/creative-evaluator/internal/framework"
	"alfredoptarigan/creative-evaluator/internal/models"
)

func sampleInput() models.EvaluationInput {
	return models.EvaluationInput{
		Creative: models.CreativeAsset{
			Description: strings.Repeat("A rainy bus stop, a stranger shares an umbrella branded in the signature teal. ", 3),
		},
		BrandName:         "Tealwave",
		Category:          "Outdoor apparel",
		CampaignObjective: models.ObjectiveLongTermBrand,
		PrimaryChannels:   []string{"OOH", "Social"},
		TargetAudience:    "Urban commuters aged 25-40 who walk or cycle to work in wet climates",
		BrandStatus:       models.BrandStrongChallenger,
		MarketContext: models.MarketContext{
			MarketMaturity:      models.MaturityMature,
			CategoryClutter:     models.LevelHigh,
			PurchaseFrequency:   models.LevelLow,
			DecisionInvolvement: models.LevelMedium,
		},
	}
}

func verdictJSON(result string, score, confidence float64, justification string) string {
	return fmt.Sprintf(`{"result": %q, "score": %v, "confidence": %v, "justification": %q, "layer_scores": {}}`,
		result, score, confidence, justification)
}

// roleOf identifies the role a conversation was built for by its system prompt.
func roleOf(messages []Message) int {
	if len(messages) == 0 {
		return 0
	}
	for _, r := range framework.AllRoles() {
		if messages[0].Content == r.SystemPrompt {
			return r.ID
		}
	}
	return 0
}

// scriptedModel answers per role id. Roles without a script get a default PASS.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[int]func(ctx context.Context) (*Response, error)
	calls   map[int]int
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{
		replies: map[int]func(ctx context.Context) (*Response, error){},
		calls:   map[int]int{},
	}
}

func (m *scriptedModel) on(roleID int, reply func(ctx context.Context) (*Response, error)) *scriptedModel {
	m.replies[roleID] = reply
	return m
}

func (m *scriptedModel) reply(roleID int, content string) *scriptedModel {
	return m.on(roleID, func(context.Context) (*Response, error) {
		return &Response{Content: content}, nil
	})
}

func (m *scriptedModel) Query(ctx context.Context, messages []Message) (*Response, error) {
	id := roleOf(messages)
	m.mu.Lock()
	m.calls[id]++
	reply, ok := m.replies[id]
	m.mu.Unlock()

	if ok {
		return reply(ctx)
	}
	return &Response{Content: verdictJSON("PASS", 8, 0.9, fmt.Sprintf("Role %d is satisfied", id))}, nil
}

func (m *scriptedModel) callCount(roleID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[roleID]
}

func scoreOf(v float64) *float64 {
	return &v
}

func passEval(roleID int, score, confidence float64) models.RoleEvaluation {
	role, _ := framework.RoleByID(roleID)
	return models.RoleEvaluation{
		RoleID:        roleID,
		RoleName:      role.Name,
		IsHardGate:    role.IsHardGate,
		Result:        models.ResultPass,
		Score:         scoreOf(score),
		Confidence:    confidence,
		Justification: fmt.Sprintf("%s justification", role.ShortName),
		LayerScores:   []models.LayerScore{},
	}
}

func failEval(roleID int, confidence float64) models.RoleEvaluation {
	e := passEval(roleID, 0, confidence)
	e.Result = models.ResultFail
	e.Score = nil
	return e
}

// uniformEvals returns all eight roles at score/confidence with the pattern
// breaker at pbScore.
func uniformEvals(score, confidence, pbScore float64) []models.RoleEvaluation {
	evals := make([]models.RoleEvaluation, 0, 8)
	for _, r := range framework.AllRoles() {
		s := score
		if r.ID == framework.PatternBreakerRoleID {
			s = pbScore
		}
		evals = append(evals, passEval(r.ID, s, confidence))
	}
	return evals
}
