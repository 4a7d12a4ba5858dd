package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"alfredoptarigan/creative-evaluator/internal/framework"
	"alfredoptarigan/creative-evaluator/internal/models"
)

const (
	strengthThreshold      = 7.0
	weakScoreThreshold     = 5.0
	revisionThreshold      = 6.0
	recommendThreshold     = 70.0
	reviseThreshold        = 40.0
	maxReportItems         = 3
	strengthSummaryChars   = 200
	riskSummaryChars       = 150
	patternBreakerChars    = 200
	failRegisterChars      = 100
	noStrengthsPlaceholder = "Insufficient data for strength identification"
	noRisksPlaceholder     = "No material risks identified"
)

// ScoringConfig holds the tunable FEI constants. MaxPossible is a configured
// ceiling and is not recomputed from the role weights.
type ScoringConfig struct {
	MaxPossible           float64
	PatternBreakerPenalty float64
	DampenerThreshold     float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		MaxPossible:           76,
		PatternBreakerPenalty: 0.5,
		DampenerThreshold:     0.7,
	}
}

// CalculateFEI computes the Final Effectiveness Index. FAIL roles are skipped
// and the pattern breaker only subtracts.
func CalculateFEI(evals []models.RoleEvaluation, cfg ScoringConfig) float64 {
	if cfg.MaxPossible <= 0 {
		return 0
	}
	weights := framework.RoleWeights()

	var total, penalty float64
	for _, e := range evals {
		if !e.Passed() {
			continue
		}
		if e.RoleID == framework.PatternBreakerRoleID {
			penalty = e.ScoreValue() * e.Confidence * cfg.PatternBreakerPenalty
			continue
		}
		weight, ok := weights[e.RoleID]
		if !ok {
			weight = 1.0
		}
		total += e.ScoreValue() * e.Confidence * weight
	}

	normalized := math.Max(0, total-penalty) / cfg.MaxPossible * 100
	return roundTo1(clamp(normalized, 0, 100))
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

// GenerateFinalReport builds the executive summary. Evaluations must be in
// role-id order.
func GenerateFinalReport(evals []models.RoleEvaluation, fei float64, objective models.CampaignObjective) models.FinalReport {
	verdict := reportVerdict(evals, fei)

	strengths := topStrengths(evals)
	if len(strengths) == 0 {
		strengths = []string{noStrengthsPlaceholder}
	}
	risks := topRisks(evals)
	if len(risks) == 0 {
		risks = []string{noRisksPlaceholder}
	}

	return models.FinalReport{
		Verdict:                 verdict,
		TopStrengths:            strengths,
		TopRisks:                risks,
		PredictedCommercialRole: predictCommercialRole(objective),
		RevisionGuidance:        revisionGuidance(evals, verdict),
		ConfidenceLevel:         confidenceTier(evals),
	}
}

func reportVerdict(evals []models.RoleEvaluation, fei float64) models.ReportVerdict {
	for _, e := range evals {
		if !e.Passed() {
			return models.VerdictDoNotRecommend
		}
	}
	switch {
	case fei >= recommendThreshold:
		return models.VerdictRecommend
	case fei >= reviseThreshold:
		return models.VerdictRevise
	default:
		return models.VerdictDoNotRecommend
	}
}

func topStrengths(evals []models.RoleEvaluation) []string {
	passing := make([]models.RoleEvaluation, 0, len(evals))
	for _, e := range evals {
		if e.Passed() && e.Score != nil && *e.Score >= strengthThreshold {
			passing = append(passing, e)
		}
	}
	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].ScoreValue()*passing[i].Confidence > passing[j].ScoreValue()*passing[j].Confidence
	})

	out := make([]string, 0, maxReportItems)
	for _, e := range passing {
		if len(out) == maxReportItems {
			break
		}
		out = append(out, truncate(e.Justification, strengthSummaryChars))
	}
	return out
}

func topRisks(evals []models.RoleEvaluation) []string {
	var risks []string
	for _, e := range evals {
		switch {
		case e.RoleID == framework.PatternBreakerRoleID:
			risks = append(risks, truncate(e.Justification, patternBreakerChars))
		case isWeak(e):
			risks = append(risks, fmt.Sprintf("%s: %s", e.RoleName, truncate(e.Justification, riskSummaryChars)))
		}
	}
	if len(risks) > maxReportItems {
		risks = risks[:maxReportItems]
	}
	return risks
}

func isWeak(e models.RoleEvaluation) bool {
	return e.Score != nil && *e.Score < weakScoreThreshold
}

func predictCommercialRole(objective models.CampaignObjective) models.CommercialRole {
	o := strings.ToLower(string(objective))
	switch {
	case strings.Contains(o, "long-term"):
		return models.CommercialBrandGrowth
	case strings.Contains(o, "short-term"):
		return models.CommercialActivation
	case strings.Contains(o, "mixed"):
		return models.CommercialBoth
	default:
		return models.CommercialBrandGrowth
	}
}

func revisionGuidance(evals []models.RoleEvaluation, verdict models.ReportVerdict) *string {
	if verdict != models.VerdictRevise {
		return nil
	}
	var weak []string
	for _, e := range evals {
		if e.Score != nil && *e.Score < revisionThreshold {
			weak = append(weak, e.RoleName)
		}
		if len(weak) == maxReportItems {
			break
		}
	}
	if len(weak) == 0 {
		return nil
	}
	guidance := "Focus improvement on: " + strings.Join(weak, ", ")
	return &guidance
}

func confidenceTier(evals []models.RoleEvaluation) models.ConfidenceTier {
	if len(evals) == 0 {
		return models.ConfidenceLow
	}
	var sum float64
	for _, e := range evals {
		sum += e.Confidence
	}
	switch avg := sum / float64(len(evals)); {
	case avg >= 0.8:
		return models.ConfidenceHigh
	case avg >= 0.5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// applyHardGateOverride forces the non-recommend outcome and puts the failed
// gate in the first risk slot.
func applyHardGateOverride(report *models.FinalReport, failedRole string) {
	report.Verdict = models.VerdictDoNotRecommend

	risks := []string{"HARD GATE FAILED: " + failedRole}
	for _, r := range report.TopRisks {
		if r == noRisksPlaceholder {
			continue
		}
		risks = append(risks, r)
	}
	if len(risks) > maxReportItems {
		risks = risks[:maxReportItems]
	}
	report.TopRisks = risks
}

// GenerateAnalysisAppendix collects the diagnostic detail behind a report.
func GenerateAnalysisAppendix(evals []models.RoleEvaluation, baseline models.ContextualBaseline, cfg ScoringConfig) models.AnalysisAppendix {
	appendix := models.AnalysisAppendix{
		ContextualBaseline:  baseline,
		LayerMatrices:       map[string]models.LayerScore{},
		FailRegister:        []string{},
		RiskRegister:        []string{},
		RawScoreSummary:     map[string]float64{},
		ConfidenceDampeners: []string{},
		VerdictTraceability: map[string][]string{
			"verdict":   {},
			"strengths": {},
			"risks":     {},
		},
	}

	seenRisks := map[string]struct{}{}
	for _, e := range evals {
		for _, ls := range e.LayerScores {
			appendix.LayerMatrices[ls.LayerID] = ls
			for _, fc := range ls.FailConditions {
				if _, dup := seenRisks[fc]; dup {
					continue
				}
				seenRisks[fc] = struct{}{}
				appendix.RiskRegister = append(appendix.RiskRegister, fc)
			}
		}

		if !e.Passed() {
			appendix.FailRegister = append(appendix.FailRegister,
				fmt.Sprintf("%s: %s", e.RoleName, truncate(e.Justification, failRegisterChars)))
		}
		if e.Score != nil {
			appendix.RawScoreSummary[e.RoleName] = *e.Score
		}
		if e.Confidence < cfg.DampenerThreshold {
			appendix.ConfidenceDampeners = append(appendix.ConfidenceDampeners,
				fmt.Sprintf("%s: confidence %.1f%%", e.RoleName, e.Confidence*100))
		}

		trace := appendix.VerdictTraceability
		trace["verdict"] = append(trace["verdict"], e.RoleName)
		if e.Score != nil && *e.Score >= strengthThreshold {
			trace["strengths"] = append(trace["strengths"], e.RoleName)
		}
		if e.RoleID == framework.PatternBreakerRoleID || isWeak(e) {
			trace["risks"] = append(trace["risks"], e.RoleName)
		}
	}

	appendix.RevisionSensitivity = revisionSensitivity(appendix.LayerMatrices)
	return appendix
}

func revisionSensitivity(matrices map[string]models.LayerScore) map[string]string {
	out := map[string]string{}
	for id, ls := range matrices {
		switch ls.Verdict {
		case models.LayerFail:
			out[id] = fmt.Sprintf("High: %s judged Fail", ls.LayerName)
		case models.LayerWeakPass:
			out[id] = fmt.Sprintf("Moderate: %s judged Weak Pass", ls.LayerName)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
