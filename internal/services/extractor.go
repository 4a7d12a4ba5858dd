package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/creative-evaluator/internal/models"
)

const extractionSystemPrompt = "You are a data extraction specialist. Output only valid JSON."

var ErrExtractionFailed = errors.New("brief extraction failed")

type BriefExtractor interface {
	// ExtractBrief drafts an EvaluationInput from free document text. Fields the
	// model could not infer are left empty.
	ExtractBrief(ctx context.Context, documentText string, query QueryFunc) (*models.EvaluationInput, error)
}

type briefExtractor struct {
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewBriefExtractor(logger *zap.Logger) BriefExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &briefExtractor{
		promptBuilder: NewPromptBuilder(),
		logger:        logger.Named("extractor"),
	}
}

// briefDraft mirrors the extraction prompt's field list.
type briefDraft struct {
	BrandName           string               `json:"brand_name"`
	Category            string               `json:"category"`
	CampaignObjective   string               `json:"campaign_objective"`
	TargetAudience      string               `json:"target_audience"`
	BrandStatus         string               `json:"brand_status"`
	MarketContext       models.MarketContext `json:"market_context"`
	CreativeDescription string               `json:"creative_description"`
	PrimaryChannels     []string             `json:"primary_channels"`
}

func (b *briefExtractor) ExtractBrief(ctx context.Context, documentText string, query QueryFunc) (*models.EvaluationInput, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, fmt.Errorf("%w: document has no text", ErrExtractionFailed)
	}

	resp, err := query(ctx, []Message{
		{Role: MessageRoleSystem, Content: extractionSystemPrompt},
		{Role: MessageRoleUser, Content: b.promptBuilder.BuildExtractionPrompt(documentText)},
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: model returned no response", ErrExtractionFailed)
	}

	obj, ok := ExtractJSONObject(resp.Content)
	if !ok {
		b.logger.Warn("⚠️ Extraction reply held no JSON object", zap.Int("response_chars", len(resp.Content)))
		return nil, fmt.Errorf("%w: response was not JSON", ErrExtractionFailed)
	}

	// Round-trip through JSON so nulls and missing keys land as zero values.
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	var draft briefDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return &models.EvaluationInput{
		Creative:          models.CreativeAsset{Description: draft.CreativeDescription},
		BrandName:         draft.BrandName,
		Category:          draft.Category,
		CampaignObjective: models.CampaignObjective(draft.CampaignObjective),
		PrimaryChannels:   draft.PrimaryChannels,
		TargetAudience:    draft.TargetAudience,
		BrandStatus:       models.BrandStatus(draft.BrandStatus),
		MarketContext:     draft.MarketContext,
	}, nil
}
