package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"alfredoptarigan/creative-evaluator/internal/models"
)

const (
	minCreativeDescription = 100
	minTargetAudience      = 50
	readyMessage           = "✓ All required inputs provided. Ready to evaluate."
)

// ValidateInput checks that a submission is complete enough to spend model calls
// on. It never dispatches anything.
func ValidateInput(input models.EvaluationInput) models.ValidationResult {
	missing := []string{}
	incomplete := []string{}
	warnings := []string{}

	requireText := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	requireEnum := func(field, value string, valid bool) {
		switch {
		case strings.TrimSpace(value) == "":
			missing = append(missing, field)
		case !valid:
			incomplete = append(incomplete, field)
			warnings = append(warnings, fmt.Sprintf("Unrecognised value %q for %s.", value, field))
		}
	}

	requireText("brand_name", input.BrandName)
	requireText("category", input.Category)
	requireEnum("campaign_objective", string(input.CampaignObjective), input.CampaignObjective.Valid())
	if len(nonBlank(input.PrimaryChannels)) == 0 {
		missing = append(missing, "primary_channels")
	}
	requireText("target_audience", input.TargetAudience)
	requireEnum("brand_status", string(input.BrandStatus), input.BrandStatus.Valid())

	market := input.MarketContext
	if market == (models.MarketContext{}) {
		missing = append(missing, "market_context")
	} else {
		checkMarket := func(field, value string, valid bool) {
			if strings.TrimSpace(value) == "" || !valid {
				incomplete = append(incomplete, "market_context."+field)
			}
		}
		checkMarket("market_maturity", string(market.MarketMaturity), market.MarketMaturity.Valid())
		checkMarket("category_clutter", string(market.CategoryClutter), market.CategoryClutter.Valid())
		checkMarket("purchase_frequency", string(market.PurchaseFrequency), market.PurchaseFrequency.Valid())
		checkMarket("decision_involvement", string(market.DecisionInvolvement), market.DecisionInvolvement.Valid())
	}

	description := strings.TrimSpace(input.Creative.Description)
	descLen := utf8.RuneCountInString(description)
	if !input.Creative.HasFile() && descLen < minCreativeDescription {
		if descLen > 0 {
			incomplete = append(incomplete, "creative")
			warnings = append(warnings, fmt.Sprintf(
				"Creative description too short (%d chars). Need at least %d characters or upload a file.",
				descLen, minCreativeDescription))
		} else {
			missing = append(missing, "creative")
		}
	}

	if audience := strings.TrimSpace(input.TargetAudience); audience != "" {
		if n := utf8.RuneCountInString(audience); n < minTargetAudience {
			incomplete = append(incomplete, "target_audience")
			warnings = append(warnings, fmt.Sprintf(
				"Target audience description is brief (%d chars). Recommend at least %d characters for accurate evaluation.",
				n, minTargetAudience))
		}
	}

	if cc := input.CompetitiveContext; cc == nil || *cc == (models.CompetitiveContext{}) {
		warnings = append(warnings, "No competitive context provided. Evaluation will assume medium competitive noise.")
	}
	if lf := input.LocalFactors; lf == nil || *lf == (models.LocalFactors{}) {
		warnings = append(warnings, "No local market factors provided. Evaluation will use general market assumptions.")
	}

	valid := len(missing) == 0 && len(incomplete) == 0
	ready := valid
	for _, w := range warnings {
		if strings.Contains(strings.ToLower(w), "too short") {
			ready = false
		}
	}

	result := models.ValidationResult{
		Valid:            valid,
		MissingFields:    missing,
		IncompleteFields: incomplete,
		Warnings:         warnings,
		ReadyToEvaluate:  ready,
	}
	result.Feedback = FormatValidationFeedback(result)
	return result
}

// FormatValidationFeedback renders a result as a short human-readable list.
func FormatValidationFeedback(result models.ValidationResult) string {
	if result.ReadyToEvaluate {
		return readyMessage
	}

	title := cases.Title(language.English)
	label := func(field string) string {
		return title.String(strings.ReplaceAll(field, "_", " "))
	}

	var sections []string
	if len(result.MissingFields) > 0 {
		lines := []string{"Missing required fields:"}
		for _, f := range result.MissingFields {
			lines = append(lines, "  • "+label(f))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(result.IncompleteFields) > 0 {
		lines := []string{"Incomplete fields:"}
		for _, f := range result.IncompleteFields {
			lines = append(lines, "  • "+label(f))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(result.Warnings) > 0 {
		lines := []string{"Warnings:"}
		for _, w := range result.Warnings {
			lines = append(lines, "  ⚠ "+w)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
