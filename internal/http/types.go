package http

import (
	"time"

	"github.com/quirelabs/orderd/internal/jobs"
	"github.com/quirelabs/orderd/internal/resolver"
	"github.com/quirelabs/orderd/internal/sections"
)

// PagePayload is one extracted page in the inbound request.
type PagePayload struct {
	PageNumber           int     `json:"page_number"`
	Text                 string  `json:"text"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
}

// CreateOrderingRequest is the request body for POST /api/v1/orderings.
type CreateOrderingRequest struct {
	Pages []PagePayload `json:"pages"`
}

// CreateOrderingResponse is the response body for POST /api/v1/orderings.
type CreateOrderingResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatusResponse is the response body for GET /api/v1/jobs/:id.
type JobStatusResponse struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Logs      []jobs.LogEntry `json:"logs"`
	Error     string          `json:"error,omitempty"`
}

// JobResultResponse is the response body for GET /api/v1/jobs/:id/result.
type JobResultResponse struct {
	JobID  string                   `json:"job_id"`
	Result *resolver.OrderingResult `json:"result"`
	TOC    []sections.TOCEntry      `json:"toc,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
