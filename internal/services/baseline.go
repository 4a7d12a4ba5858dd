package services

import (
	"fmt"

	"alfredoptarigan/creative-evaluator/internal/models"
)

// LockBaseline derives the contextual baseline every role in a run is scored
// against. It is a pure function of the input.
func LockBaseline(input models.EvaluationInput) models.ContextualBaseline {
	market := input.MarketContext

	noise := string(models.LevelMedium)
	noiseBullet := "Competitive noise: Medium (assumed)"
	if cc := input.CompetitiveContext; cc != nil {
		if cc.CompetitiveNoise != "" {
			noise = string(cc.CompetitiveNoise)
		}
		noiseBullet = fmt.Sprintf("Competitive noise: %s", noise)
	}

	// At most five bullets.
	bullets := []string{
		fmt.Sprintf("Brand Status: %s", input.BrandStatus),
		fmt.Sprintf("Market: %s maturity, %s clutter", market.MarketMaturity, market.CategoryClutter),
		fmt.Sprintf("Purchase: %s frequency, %s involvement", market.PurchaseFrequency, market.DecisionInvolvement),
		noiseBullet,
		fmt.Sprintf("Objective: %s", input.CampaignObjective),
	}

	return models.ContextualBaseline{
		BrandStatus:         string(input.BrandStatus),
		MarketMaturity:      string(market.MarketMaturity),
		CategoryClutter:     string(market.CategoryClutter),
		PurchaseFrequency:   string(market.PurchaseFrequency),
		DecisionInvolvement: string(market.DecisionInvolvement),
		CompetitiveNoise:    noise,
		SummaryBullets:      bullets,
	}
}
