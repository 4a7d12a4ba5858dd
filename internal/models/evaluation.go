package models

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	StatusQueued     EvaluationStatus = "queued"
	StatusProcessing EvaluationStatus = "processing"
	StatusCompleted  EvaluationStatus = "completed"
	StatusFailed     EvaluationStatus = "failed"
)

// Evaluation is the stored record of one run. Input and Result hold the JSON
// encodings of EvaluationInput and EvaluationResult.
type Evaluation struct {
	ID                      uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BrandName               string           `gorm:"type:text" json:"brand_name"`
	Category                string           `gorm:"type:text" json:"category"`
	CampaignObjective       string           `gorm:"type:text" json:"campaign_objective"`
	Status                  EvaluationStatus `gorm:"not null;default:'queued';index" json:"status"`
	Input                   string           `gorm:"type:text;not null" json:"-"`
	Result                  *string          `gorm:"type:text" json:"-"`
	FinalEffectivenessIndex *float64         `gorm:"type:decimal(4,1)" json:"final_effectiveness_index,omitempty"`
	Verdict                 *string          `gorm:"type:text" json:"verdict,omitempty"`
	HardGateFailed          bool             `gorm:"not null;default:false" json:"hard_gate_failed"`
	ErrorMessage            *string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt               time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt               time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Evaluation) TableName() string {
	return "creative_evaluations"
}
