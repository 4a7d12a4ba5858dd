package models

import (
	"time"

	"github.com/google/uuid"
)

type BrandStatus string

const (
	BrandMarketLeader     BrandStatus = "Market Leader"
	BrandStrongChallenger BrandStatus = "Strong Challenger"
	BrandEmergingGrowth   BrandStatus = "Emerging / Growth Brand"
	BrandNewLowAwareness  BrandStatus = "New or Low-Awareness Brand"
)

type MarketMaturity string

const (
	MaturityMature   MarketMaturity = "Mature"
	MaturityGrowing  MarketMaturity = "Growing"
	MaturityEmerging MarketMaturity = "Emerging"
)

// Level is the Low/Medium/High scale shared by clutter, purchase frequency,
// decision involvement and competitive noise.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

type CampaignObjective string

const (
	ObjectiveLongTermBrand       CampaignObjective = "Long-term brand growth"
	ObjectiveShortTermActivation CampaignObjective = "Short-term activation"
	ObjectiveMixed               CampaignObjective = "Mixed"
)

func (s BrandStatus) Valid() bool {
	switch s {
	case BrandMarketLeader, BrandStrongChallenger, BrandEmergingGrowth, BrandNewLowAwareness:
		return true
	}
	return false
}

func (m MarketMaturity) Valid() bool {
	switch m {
	case MaturityMature, MaturityGrowing, MaturityEmerging:
		return true
	}
	return false
}

func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

func (o CampaignObjective) Valid() bool {
	switch o {
	case ObjectiveLongTermBrand, ObjectiveShortTermActivation, ObjectiveMixed:
		return true
	}
	return false
}

// CreativeAsset is the work under evaluation. DocumentID refers to a previously
// uploaded file whose extracted text is folded into Description by the handlers.
type CreativeAsset struct {
	Description string `json:"description"`
	FilePath    string `json:"file_path,omitempty"`
	FileType    string `json:"file_type,omitempty"`
	DocumentID  string `json:"document_id,omitempty"`
}

func (c CreativeAsset) HasFile() bool {
	return c.FilePath != ""
}

type MarketContext struct {
	MarketMaturity      MarketMaturity `json:"market_maturity"`
	CategoryClutter     Level          `json:"category_clutter"`
	PurchaseFrequency   Level          `json:"purchase_frequency"`
	DecisionInvolvement Level          `json:"decision_involvement"`
}

type LocalFactors struct {
	CulturalNotes         string `json:"cultural_notes,omitempty"`
	MediaBehaviours       string `json:"media_behaviours,omitempty"`
	RegulatoryConstraints string `json:"regulatory_constraints,omitempty"`
}

type CompetitiveContext struct {
	CompetitorThemes string `json:"competitor_themes,omitempty"`
	CompetitorAssets string `json:"competitor_assets,omitempty"`
	CompetitiveNoise Level  `json:"competitive_noise,omitempty"`
}

// EvaluationInput is the complete, caller-validated submission for one run.
type EvaluationInput struct {
	Creative           CreativeAsset       `json:"creative"`
	BrandName          string              `json:"brand_name"`
	Category           string              `json:"category"`
	CampaignObjective  CampaignObjective   `json:"campaign_objective"`
	PrimaryChannels    []string            `json:"primary_channels"`
	TargetAudience     string              `json:"target_audience"`
	BrandStatus        BrandStatus         `json:"brand_status"`
	MarketContext      MarketContext       `json:"market_context"`
	LocalFactors       *LocalFactors       `json:"local_factors,omitempty"`
	CompetitiveContext *CompetitiveContext `json:"competitive_context,omitempty"`
	ExistingResearch   string              `json:"existing_research,omitempty"`
}

// ContextualBaseline is locked once per run and shared verbatim by every role.
type ContextualBaseline struct {
	BrandStatus         string   `json:"brand_status"`
	MarketMaturity      string   `json:"market_maturity"`
	CategoryClutter     string   `json:"category_clutter"`
	PurchaseFrequency   string   `json:"purchase_frequency"`
	DecisionInvolvement string   `json:"decision_involvement"`
	CompetitiveNoise    string   `json:"competitive_noise"`
	SummaryBullets      []string `json:"summary_bullets"`
}

type RoleResult string

const (
	ResultPass RoleResult = "PASS"
	ResultFail RoleResult = "FAIL"
)

type LayerVerdict string

const (
	LayerPass     LayerVerdict = "Pass"
	LayerWeakPass LayerVerdict = "Weak Pass"
	LayerFail     LayerVerdict = "Fail"
)

type LayerScore struct {
	LayerID        string         `json:"layer_id"`
	LayerName      string         `json:"layer_name"`
	SubScores      map[string]any `json:"sub_scores"`
	FailConditions []string       `json:"fail_conditions"`
	EvidenceNotes  []string       `json:"evidence_notes"`
	Verdict        LayerVerdict   `json:"verdict"`
}

// RoleEvaluation is one specialist's verdict. Score is nil unless Result is PASS.
type RoleEvaluation struct {
	RoleID        int          `json:"role_id"`
	RoleName      string       `json:"role_name"`
	IsHardGate    bool         `json:"is_hard_gate"`
	Result        RoleResult   `json:"result"`
	Score         *float64     `json:"score"`
	Confidence    float64      `json:"confidence"`
	Justification string       `json:"justification"`
	LayerScores   []LayerScore `json:"layer_scores"`
}

// ScoreValue returns the score, or 0 when none was given.
func (r RoleEvaluation) ScoreValue() float64 {
	if r.Score == nil {
		return 0
	}
	return *r.Score
}

func (r RoleEvaluation) Passed() bool {
	return r.Result == ResultPass
}

type ReportVerdict string

const (
	VerdictRecommend      ReportVerdict = "RECOMMEND"
	VerdictRevise         ReportVerdict = "REVISE BEFORE RECOMMENDATION"
	VerdictDoNotRecommend ReportVerdict = "DO NOT RECOMMEND"
)

type CommercialRole string

const (
	CommercialBrandGrowth CommercialRole = "Brand growth"
	CommercialActivation  CommercialRole = "Activation"
	CommercialBoth        CommercialRole = "Both"
	CommercialNeither     CommercialRole = "Neither"
)

type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "Low"
	ConfidenceMedium ConfidenceTier = "Medium"
	ConfidenceHigh   ConfidenceTier = "High"
)

type FinalReport struct {
	Verdict                 ReportVerdict  `json:"verdict"`
	TopStrengths            []string       `json:"top_strengths"`
	TopRisks                []string       `json:"top_risks"`
	PredictedCommercialRole CommercialRole `json:"predicted_commercial_role"`
	RevisionGuidance        *string        `json:"revision_guidance"`
	ConfidenceLevel         ConfidenceTier `json:"confidence_level"`
}

type AnalysisAppendix struct {
	ContextualBaseline  ContextualBaseline    `json:"contextual_baseline"`
	LayerMatrices       map[string]LayerScore `json:"layer_matrices"`
	FailRegister        []string              `json:"fail_register"`
	RiskRegister        []string              `json:"risk_register"`
	RawScoreSummary     map[string]float64    `json:"raw_score_summary"`
	ConfidenceDampeners []string              `json:"confidence_dampeners"`
	VerdictTraceability map[string][]string   `json:"verdict_traceability"`
	RevisionSensitivity map[string]string     `json:"revision_sensitivity,omitempty"`
}

// EvaluationResult is the terminal artifact of a run.
type EvaluationResult struct {
	EvaluationID            uuid.UUID        `json:"evaluation_id"`
	CreatedAt               time.Time        `json:"created_at"`
	InputSummary            map[string]any   `json:"input_summary"`
	RoleEvaluations         []RoleEvaluation `json:"role_evaluations"`
	FinalEffectivenessIndex float64          `json:"final_effectiveness_index"`
	FinalReport             FinalReport      `json:"final_report"`
	AnalysisAppendix        AnalysisAppendix `json:"analysis_appendix"`
	HardGateFailed          bool             `json:"hard_gate_failed"`
	FailedHardGateRole      *string          `json:"failed_hard_gate_role"`
}
