package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pwstrength/pwstrength/internal/config"
	"github.com/pwstrength/pwstrength/internal/metrics"
	"github.com/pwstrength/pwstrength/internal/store"
	"github.com/pwstrength/pwstrength/pkg/bench"
	"github.com/pwstrength/pwstrength/pkg/strength"
)

const (
	// maxBodyBytes caps every request body.
	maxBodyBytes = 64 << 10

	// maxRounds bounds rounds and warmup_rounds per request.
	maxRounds = 1000

	benchmarksPath = "/api/v1/benchmarks"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	history store.History
	metrics *metrics.Registry
	mux     *http.ServeMux

	mu    sync.RWMutex
	bench config.BenchConfig
}

// New creates a Handler wired to the history store and metrics registry and
// registers all routes. bc supplies benchmark defaults and limits.
func New(history store.History, reg *metrics.Registry, bc config.BenchConfig) *Handler {
	h := &Handler{history: history, metrics: reg, bench: bc, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/score", h.score)
	h.mux.HandleFunc("/api/v1/label", h.label)
	h.mux.HandleFunc("/api/v1/entropy", h.entropy)
	h.mux.HandleFunc("/api/v1/analyze", h.analyze)
	h.mux.HandleFunc("/api/v1/benchmark", h.benchmark)
	h.mux.HandleFunc(benchmarksPath, h.benchmarks)
	h.mux.HandleFunc(benchmarksPath+"/", h.getBenchmark) // subtree, extracts {id}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetBenchConfig replaces the benchmark defaults, e.g. after a config reload.
func (h *Handler) SetBenchConfig(bc config.BenchConfig) {
	h.mu.Lock()
	h.bench = bc
	h.mu.Unlock()
}

func (h *Handler) benchConfig() config.BenchConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bench
}

// BuildHistory returns the live history entries, newest first. It never
// returns a nil slice so the JSON encoding is always an array.
func BuildHistory(ctx context.Context, history store.History) ([]*store.Entry, error) {
	entries, err := history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("api: list history: %w", err)
	}
	if entries == nil {
		entries = []*store.Entry{}
	}
	return entries, nil
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := h.history.List(r.Context())
	if err != nil {
		slog.Warn("api: history unavailable", "err", err)
		jsonResp(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", HistoryCount: len(entries)})
}

// score returns POST /api/v1/score.
func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decodePost(w, r, &req) {
		return
	}
	jsonResp(w, http.StatusOK, ScoreResponse{
		Score:    strength.Score(req.Password),
		MaxScore: strength.MaxScore,
	})
}

// label returns POST /api/v1/label. Any integer is accepted.
func (h *Handler) label(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Score == nil {
		jsonErr(w, http.StatusBadRequest, "score is required")
		return
	}
	jsonResp(w, http.StatusOK, LabelResponse{StrengthLevel: strength.StrengthLabel(*req.Score)})
}

// entropy returns POST /api/v1/entropy.
func (h *Handler) entropy(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decodePost(w, r, &req) {
		return
	}
	jsonResp(w, http.StatusOK, EntropyResponse{Entropy: strength.Entropy(req.Password)})
}

// analyze returns POST /api/v1/analyze.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decodePost(w, r, &req) {
		return
	}
	a := strength.Analyze(req.Password)
	h.metrics.ObserveAnalysis(a.StrengthLevel)
	jsonResp(w, http.StatusOK, a)
}

// benchmark returns POST /api/v1/benchmark, a single timed call.
func (h *Handler) benchmark(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if !decodePost(w, r, &req) {
		return
	}

	bc := h.benchConfig()
	iterations := bc.Iterations
	if req.Iterations != nil {
		iterations = *req.Iterations
	} else if iterations == 0 {
		iterations = bench.SuggestIterations(req.Password)
	}
	if bc.MaxIterations > 0 && iterations > bc.MaxIterations {
		jsonErr(w, http.StatusBadRequest,
			fmt.Sprintf("iterations %d exceeds limit %d", iterations, bc.MaxIterations))
		return
	}

	elapsed := bench.Benchmark(req.Password, iterations)
	h.metrics.ObserveBenchmark(iterations)
	jsonResp(w, http.StatusOK, BenchmarkResponse{ElapsedMs: elapsed, Iterations: iterations})
}

// benchmarks dispatches /api/v1/benchmarks: POST runs, GET lists.
func (h *Handler) benchmarks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.runBenchmark(w, r)
	case http.MethodGet:
		h.listBenchmarks(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) runBenchmark(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bc := h.benchConfig()
	opts := bench.Options{
		Iterations:    bc.Iterations,
		Rounds:        bc.Rounds,
		WarmupRounds:  bc.WarmupRounds,
		MaxIterations: bc.MaxIterations,
	}
	if req.Iterations != nil {
		opts.Iterations = *req.Iterations
	}
	if req.Rounds != nil {
		opts.Rounds = *req.Rounds
	}
	if req.WarmupRounds != nil {
		opts.WarmupRounds = *req.WarmupRounds
	}
	if opts.Rounds > maxRounds || opts.WarmupRounds < 0 || opts.WarmupRounds > maxRounds {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("rounds and warmup_rounds must be within 0..%d", maxRounds))
		return
	}

	rep, err := bench.Run(r.Context(), req.Password, opts)
	switch {
	case errors.Is(err, bench.ErrNoRounds), errors.Is(err, bench.ErrTooManyIterations):
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// Client went away mid-run.
		slog.Debug("api: benchmark run aborted", "err", err)
		jsonErr(w, http.StatusServiceUnavailable, "benchmark aborted")
		return
	}
	h.metrics.ObserveReport(rep)

	if err := h.history.Put(r.Context(), rep); err != nil {
		slog.Error("api: failed to store report", "id", rep.ID, "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to store report")
		return
	}

	slog.Info("api: benchmark run stored",
		"id", rep.ID,
		"iterations", rep.Iterations,
		"rounds", rep.Rounds,
		"median_ms", rep.Stats.Median,
	)
	jsonResp(w, http.StatusCreated, rep)
}

func (h *Handler) listBenchmarks(w http.ResponseWriter, r *http.Request) {
	entries, err := BuildHistory(r.Context(), h.history)
	if err != nil {
		slog.Error("api: failed to list history", "err", err)
		jsonErr(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	jsonResp(w, http.StatusOK, HistoryResponse{
		Reports:     entries,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// getBenchmark returns GET /api/v1/benchmarks/{id}.
func (h *Handler) getBenchmark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, benchmarksPath+"/")
	if id == "" {
		h.listBenchmarks(w, r)
		return
	}

	e, ok, err := h.history.Get(r.Context(), id)
	if err != nil {
		slog.Error("api: failed to read report", "id", id, "err", err)
		jsonErr(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if !ok {
		jsonErr(w, http.StatusNotFound, "report not found")
		return
	}
	jsonResp(w, http.StatusOK, e)
}

// --- helpers ----------------------------------------------------------------

// decodePost rejects non-POST methods, then decodes the body into v.
func decodePost(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return decodeBody(w, r, v)
}

// decodeBody decodes a single JSON object into v, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			jsonErr(w, http.StatusBadRequest, "empty request body")
			return false
		}
		jsonErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
