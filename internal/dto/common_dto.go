package dto

type ErrorResponse struct {
	Error   bool         `json:"error"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DB          string `json:"db"`
	DBLatencyMs int64  `json:"dbLatencyMs"`
	DBError     string `json:"dbError,omitempty"`
}
