package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/creative-evaluator/internal/framework"
	"alfredoptarigan/creative-evaluator/internal/models"
)

const maxExtractionChars = 15000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildEvaluationPrompt creates the user prompt for one role. Output is
// deterministic for a given role, input and baseline.
func (pb *PromptBuilder) BuildEvaluationPrompt(role framework.RoleDefinition, input models.EvaluationInput, baseline models.ContextualBaseline) string {
	bullets := make([]string, len(baseline.SummaryBullets))
	for i, b := range baseline.SummaryBullets {
		bullets[i] = "• " + b
	}

	creativeDesc := input.Creative.Description
	if input.Creative.HasFile() {
		creativeDesc += fmt.Sprintf("\n[File attached: %s]", input.Creative.FileType)
	}

	return fmt.Sprintf(`# CREATIVE EFFECTIVENESS EVALUATION

## CONTEXTUAL BASELINE (LOCKED - DO NOT CONTRADICT)
%s

## CREATIVE BEING EVALUATED
**Brand**: %s
**Category**: %s
**Objective**: %s
**Channels**: %s
**Target Audience**: %s

**Creative Description**:
%s
%s
---

## YOUR EVALUATION FRAMEWORK
%s

---

%s

---

## YOUR TASK
Evaluate this creative deeply.
1. Identify KEY DISCOVERIES in the creative execution.
2. Provide COMPREHENSIVE REASONING for your score in the 'justification' field.
3. Be analytical, critical, and specific. Explain what you found and why it matters.

Return ONLY the JSON output. No preamble.
`,
		strings.Join(bullets, "\n"),
		input.BrandName,
		input.Category,
		input.CampaignObjective,
		strings.Join(input.PrimaryChannels, ", "),
		input.TargetAudience,
		creativeDesc,
		supportingContext(input),
		framework.RenderLayers(framework.LayersFor(role.FrameworkLayers)),
		framework.ScoringInstructions(),
	)
}

// supportingContext renders the optional market sections. Empty sections are
// omitted entirely.
func supportingContext(input models.EvaluationInput) string {
	var b strings.Builder

	if lf := input.LocalFactors; lf != nil {
		lines := labelled(
			"Cultural Notes", lf.CulturalNotes,
			"Media Behaviours", lf.MediaBehaviours,
			"Regulatory Constraints", lf.RegulatoryConstraints,
		)
		if lines != "" {
			b.WriteString("\n## LOCAL MARKET FACTORS\n")
			b.WriteString(lines)
		}
	}

	if cc := input.CompetitiveContext; cc != nil {
		lines := labelled(
			"Competitor Themes", cc.CompetitorThemes,
			"Competitor Assets", cc.CompetitorAssets,
		)
		if lines != "" {
			b.WriteString("\n## COMPETITIVE CONTEXT\n")
			b.WriteString(lines)
		}
	}

	if research := strings.TrimSpace(input.ExistingResearch); research != "" {
		b.WriteString("\n## EXISTING RESEARCH\n")
		b.WriteString(research)
		b.WriteString("\n")
	}

	return b.String()
}

func labelled(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		value := strings.TrimSpace(pairs[i+1])
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "**%s**: %s\n", pairs[i], value)
	}
	return b.String()
}

// BuildExtractionPrompt asks the model to turn a marketing brief into an
// EvaluationInput draft.
func (pb *PromptBuilder) BuildExtractionPrompt(documentText string) string {
	if runes := []rune(documentText); len(runes) > maxExtractionChars {
		documentText = string(runes[:maxExtractionChars])
	}

	return fmt.Sprintf(`You are a smart assistant that extracts structured marketing brief data from documents.

DOCUMENT TEXT:
%s

The document is a marketing brief or creative asset.
Extract the following fields into a JSON object:

- brand_name (String)
- category (String, e.g. "Automotive", "CPG")
- campaign_objective (One of: "%s", "%s", "%s")
- target_audience (String, detailed description)
- brand_status (One of: "%s", "%s", "%s", "%s")
- market_context (Object with fields):
    - market_maturity (One of: "Mature", "Growing", "Emerging")
    - category_clutter (One of: "Low", "Medium", "High")
    - purchase_frequency (One of: "High", "Medium", "Low")
    - decision_involvement (One of: "Low", "Medium", "High")
- creative_description (String, concise summary of the creative idea/execution if mentioned)

If a field is not explicitly stated, infer it from context.
If you absolutely cannot infer it, leave it as null.

Respond ONLY with valid JSON.`,
		documentText,
		models.ObjectiveLongTermBrand, models.ObjectiveShortTermActivation, models.ObjectiveMixed,
		models.BrandMarketLeader, models.BrandStrongChallenger, models.BrandEmergingGrowth, models.BrandNewLowAwareness,
	)
}
