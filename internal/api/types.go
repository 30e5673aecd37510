package api

import "github.com/pwstrength/pwstrength/internal/store"

// PasswordRequest is the body of /score, /entropy and /analyze.
type PasswordRequest struct {
	Password string `json:"password"`
}

// LabelRequest is the body of POST /api/v1/label.
type LabelRequest struct {
	Score *int `json:"score"`
}

// BenchmarkRequest is the body of POST /api/v1/benchmark. A nil Iterations
// selects the configured default.
type BenchmarkRequest struct {
	Password   string  `json:"password"`
	Iterations *uint32 `json:"iterations"`
}

// RunRequest is the body of POST /api/v1/benchmarks. Nil fields select the
// configured defaults.
type RunRequest struct {
	Password     string  `json:"password"`
	Iterations   *uint32 `json:"iterations"`
	Rounds       *int    `json:"rounds"`
	WarmupRounds *int    `json:"warmup_rounds"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	HistoryCount int    `json:"history_count"`
}

// ScoreResponse is the payload for POST /api/v1/score.
type ScoreResponse struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// LabelResponse is the payload for POST /api/v1/label.
type LabelResponse struct {
	StrengthLevel string `json:"strength_level"`
}

// EntropyResponse is the payload for POST /api/v1/entropy.
type EntropyResponse struct {
	Entropy float64 `json:"entropy"`
}

// BenchmarkResponse is the payload for POST /api/v1/benchmark.
type BenchmarkResponse struct {
	ElapsedMs  float64 `json:"elapsed_ms"`
	Iterations uint32  `json:"iterations"`
}

// HistoryResponse is the payload for GET /api/v1/benchmarks.
type HistoryResponse struct {
	Reports     []*store.Entry `json:"reports"`
	GeneratedAt string         `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
