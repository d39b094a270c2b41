package api

import "llmaniac/internal/domain"

type ClassifyRequest struct {
	Text        string        `json:"text"`
	Sender      domain.Sender `json:"sender"`
	ContainerID string        `json:"containerId"`
	SessionID   string        `json:"sessionId"`
}

// Confidence is always null: no numeric confidence is computed, the field
// exists for wire compatibility.
type ClassifyResponse struct {
	Event      *string       `json:"event"`
	Confidence *float64      `json:"confidence"`
	ShouldPush bool          `json:"shouldPush"`
	Sender     domain.Sender `json:"sender"`
}

type PushRequest struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	Sender     domain.Sender  `json:"sender"`
}

type PushResponse struct {
	Status    string      `json:"status"`
	EventData PushRequest `json:"event_data"`
}

type HealthResponse struct {
	Status         string  `json:"status"`
	LLMStatus      string  `json:"llm_status"`
	TracingStatus  string  `json:"tracing_status"`
	TracingProject *string `json:"tracing_project"`
}

type errorResponse struct {
	Error string `json:"error"`
}
