package models

type UploadResponse struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	OriginalName  string `json:"original_name"`
	ContentType   string `json:"content_type"`
	ExtractedText string `json:"extracted_text"`
}

type ExtractRequest struct {
	DocumentID string `json:"document_id"`
}

// ValidationResult reports whether an EvaluationInput is complete enough to run.
type ValidationResult struct {
	Valid            bool     `json:"valid"`
	MissingFields    []string `json:"missing_fields"`
	IncompleteFields []string `json:"incomplete_fields"`
	Warnings         []string `json:"warnings"`
	ReadyToEvaluate  bool     `json:"ready_to_evaluate"`
	Feedback         string   `json:"feedback"`
}

type JobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Result       *EvaluationResult `json:"result,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
}

type RoleSummary struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	ShortName       string   `json:"short_name"`
	IsHardGate      bool     `json:"is_hard_gate"`
	FrameworkLayers []string `json:"framework_layers"`
	Weight          float64  `json:"weight"`
}

type ConfigResponse struct {
	LLMBackend string        `json:"llm_backend"`
	Roles      []RoleSummary `json:"roles"`
	Layers     []LayerInfo   `json:"layers"`
}

type LayerInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	SubCriteria []string `json:"sub_criteria"`
}
