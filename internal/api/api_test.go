package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pwstrength/pwstrength/internal/api"
	"github.com/pwstrength/pwstrength/internal/config"
	"github.com/pwstrength/pwstrength/internal/metrics"
	"github.com/pwstrength/pwstrength/internal/store"
	"github.com/pwstrength/pwstrength/pkg/bench"
	"github.com/pwstrength/pwstrength/pkg/strength"
)

// --- test helpers -----------------------------------------------------------

var testBench = config.BenchConfig{
	Iterations:    100,
	MaxIterations: 10_000,
	Rounds:        3,
	WarmupRounds:  1,
}

func newHandler(t *testing.T) (*api.Handler, *store.Store, *metrics.Registry) {
	t.Helper()
	st := store.New(5 * time.Minute)
	reg := metrics.New()
	return api.New(st, reg, testBench), st, reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}

// brokenHistory fails every call.
type brokenHistory struct{}

var errBroken = errors.New("backend down")

func (brokenHistory) Put(context.Context, *bench.Report) error { return errBroken }
func (brokenHistory) Get(context.Context, string) (*store.Entry, bool, error) {
	return nil, false, errBroken
}
func (brokenHistory) List(context.Context) ([]*store.Entry, error) { return nil, errBroken }
func (brokenHistory) TTL() time.Duration { return time.Minute }
func (brokenHistory) Run(context.Context) {}

// --- scoring endpoints ------------------------------------------------------

func TestScore(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/score", `{"password":"Password123"}`)
	wantStatus(t, rr, http.StatusOK)

	var resp api.ScoreResponse
	decode(t, rr, &resp)
	if resp.Score != 35 || resp.MaxScore != 100 {
		t.Errorf("got %+v, want score 35 max 100", resp)
	}
}

func TestScore_EmptyPassword(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/score", `{"password":""}`)
	wantStatus(t, rr, http.StatusOK)

	var resp api.ScoreResponse
	decode(t, rr, &resp)
	if resp.Score != 0 {
		t.Errorf("score: got %d, want 0", resp.Score)
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"score":72}`, strength.LabelStrong},
		{`{"score":-5}`, strength.LabelVeryWeak},
		{`{"score":1000}`, strength.LabelVeryStrong},
	}
	h, _, _ := newHandler(t)
	for _, tc := range cases {
		rr := do(t, h, http.MethodPost, "/api/v1/label", tc.body)
		wantStatus(t, rr, http.StatusOK)
		var resp api.LabelResponse
		decode(t, rr, &resp)
		if resp.StrengthLevel != tc.want {
			t.Errorf("%s: got %q, want %q", tc.body, resp.StrengthLevel, tc.want)
		}
	}
}

func TestLabel_MissingScore(t *testing.T) {
	h, _, _ := newHandler(t)
	wantStatus(t, do(t, h, http.MethodPost, "/api/v1/label", `{}`), http.StatusBadRequest)
}

func TestEntropy(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/entropy", `{"password":"abc"}`)
	wantStatus(t, rr, http.StatusOK)

	var resp api.EntropyResponse
	decode(t, rr, &resp)
	if resp.Entropy != 12 {
		t.Errorf("entropy: got %v, want 12", resp.Entropy)
	}
}

func TestAnalyze_CountsMetric(t *testing.T) {
	h, _, reg := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/analyze", `{"password":"Password123"}`)
	wantStatus(t, rr, http.StatusOK)

	var a strength.Analysis
	decode(t, rr, &a)
	if a.Score != 35 || a.StrengthLevel != strength.LabelWeak {
		t.Errorf("got score %d level %q, want 35 Weak", a.Score, a.StrengthLevel)
	}
	if a.Feedback == nil {
		t.Error("feedback must encode as an array")
	}

	var found bool
	for _, mf := range reg.Gather() {
		if mf.GetName() != metrics.AnalysesTotal {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetLabel()[0].GetValue() == strength.LabelWeak && m.GetCounter().GetValue() == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("%s{strength_level=Weak} not incremented", metrics.AnalysesTotal)
	}
}

func TestBadRequests(t *testing.T) {
	cases := []struct {
		name string
		path string
		body string
	}{
		{"malformed", "/api/v1/score", `{"password":`},
		{"empty body", "/api/v1/entropy", ``},
		{"unknown field", "/api/v1/analyze", `{"pass":"x"}`},
		{"wrong type", "/api/v1/label", `{"score":"high"}`},
	}
	h, _, _ := newHandler(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tc.path, tc.body)
			wantStatus(t, rr, http.StatusBadRequest)
			var resp map[string]string
			decode(t, rr, &resp)
			if resp["error"] == "" {
				t.Error("error message empty")
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/score"},
		{http.MethodGet, "/api/v1/label"},
		{http.MethodGet, "/api/v1/entropy"},
		{http.MethodGet, "/api/v1/analyze"},
		{http.MethodGet, "/api/v1/benchmark"},
		{http.MethodPost, "/api/v1/health"},
		{http.MethodDelete, "/api/v1/benchmarks"},
		{http.MethodPost, "/api/v1/benchmarks/abc"},
	}
	h, _, _ := newHandler(t)
	for _, tc := range cases {
		rr := do(t, h, tc.method, tc.path, `{}`)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: got %d, want 405", tc.method, tc.path, rr.Code)
		}
	}
}

// --- benchmark endpoints ----------------------------------------------------

func TestBenchmark(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/benchmark", `{"password":"abc","iterations":50}`)
	wantStatus(t, rr, http.StatusOK)

	var resp api.BenchmarkResponse
	decode(t, rr, &resp)
	if resp.Iterations != 50 {
		t.Errorf("iterations: got %d, want 50", resp.Iterations)
	}
	if resp.ElapsedMs < 0 {
		t.Errorf("elapsed_ms negative: %v", resp.ElapsedMs)
	}
}

func TestBenchmark_DefaultAndZeroIterations(t *testing.T) {
	h, _, _ := newHandler(t)

	rr := do(t, h, http.MethodPost, "/api/v1/benchmark", `{"password":"abc"}`)
	wantStatus(t, rr, http.StatusOK)
	var def api.BenchmarkResponse
	decode(t, rr, &def)
	if def.Iterations != testBench.Iterations {
		t.Errorf("default iterations: got %d, want %d", def.Iterations, testBench.Iterations)
	}

	rr = do(t, h, http.MethodPost, "/api/v1/benchmark", `{"password":"abc","iterations":0}`)
	wantStatus(t, rr, http.StatusOK)
	var zero api.BenchmarkResponse
	decode(t, rr, &zero)
	if zero.Iterations != 0 {
		t.Errorf("explicit zero: got %d iterations", zero.Iterations)
	}
}

func TestBenchmark_OverLimit(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/benchmark", `{"password":"abc","iterations":10001}`)
	wantStatus(t, rr, http.StatusBadRequest)
}

func TestBenchmarks_RunStoreAndFetch(t *testing.T) {
	h, st, reg := newHandler(t)

	rr := do(t, h, http.MethodPost, "/api/v1/benchmarks", `{"password":"abc","rounds":4,"warmup_rounds":0}`)
	wantStatus(t, rr, http.StatusCreated)
	var rep bench.Report
	decode(t, rr, &rep)
	if rep.ID == "" || rep.Rounds != 4 || len(rep.Times) != 4 {
		t.Fatalf("report: got id=%q rounds=%d times=%d", rep.ID, rep.Rounds, len(rep.Times))
	}
	if rep.Iterations != testBench.Iterations {
		t.Errorf("iterations: got %d, want configured %d", rep.Iterations, testBench.Iterations)
	}
	if rep.StrengthLevel != strength.LabelWeak {
		t.Errorf("strength_level: got %q, want Weak", rep.StrengthLevel)
	}
	if strings.Contains(rr.Body.String(), `"password"`) {
		t.Error("report leaks the password field")
	}
	if st.Count() != 1 {
		t.Errorf("store count: got %d, want 1", st.Count())
	}

	rr = do(t, h, http.MethodGet, "/api/v1/benchmarks/"+rep.ID, "")
	wantStatus(t, rr, http.StatusOK)
	var e store.Entry
	decode(t, rr, &e)
	if e.Report.ID != rep.ID {
		t.Errorf("fetched id: got %q, want %q", e.Report.ID, rep.ID)
	}

	for _, mf := range reg.Gather() {
		if mf.GetName() == metrics.BenchmarksTotal {
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 4 {
				t.Errorf("%s = %v, want 4", metrics.BenchmarksTotal, got)
			}
		}
	}
}

func TestBenchmarks_Defaults(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodPost, "/api/v1/benchmarks", `{"password":"Password123"}`)
	wantStatus(t, rr, http.StatusCreated)
	var rep bench.Report
	decode(t, rr, &rep)
	if rep.Rounds != testBench.Rounds || rep.WarmupRounds != testBench.WarmupRounds {
		t.Errorf("got rounds=%d warmup=%d, want %d/%d",
			rep.Rounds, rep.WarmupRounds, testBench.Rounds, testBench.WarmupRounds)
	}
}

func TestBenchmarks_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero rounds", `{"password":"x","rounds":0}`},
		{"negative rounds", `{"password":"x","rounds":-1}`},
		{"too many rounds", `{"password":"x","rounds":1001}`},
		{"negative warmup", `{"password":"x","warmup_rounds":-1}`},
		{"iterations over limit", `{"password":"x","iterations":20000}`},
	}
	h, st, _ := newHandler(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wantStatus(t, do(t, h, http.MethodPost, "/api/v1/benchmarks", tc.body), http.StatusBadRequest)
		})
	}
	if st.Count() != 0 {
		t.Errorf("rejected runs were stored: count %d", st.Count())
	}
}

func TestBenchmarks_ListNewestFirst(t *testing.T) {
	h, _, _ := newHandler(t)
	var ids []string
	for i := 0; i < 3; i++ {
		rr := do(t, h, http.MethodPost, "/api/v1/benchmarks", `{"password":"abc","rounds":1,"warmup_rounds":0}`)
		wantStatus(t, rr, http.StatusCreated)
		var rep bench.Report
		decode(t, rr, &rep)
		ids = append(ids, rep.ID)
		time.Sleep(2 * time.Millisecond)
	}

	rr := do(t, h, http.MethodGet, "/api/v1/benchmarks", "")
	wantStatus(t, rr, http.StatusOK)
	var resp api.HistoryResponse
	decode(t, rr, &resp)
	if len(resp.Reports) != 3 {
		t.Fatalf("reports: got %d, want 3", len(resp.Reports))
	}
	if resp.Reports[0].Report.ID != ids[2] || resp.Reports[2].Report.ID != ids[0] {
		t.Errorf("order: got %s..%s, want newest first", resp.Reports[0].Report.ID, resp.Reports[2].Report.ID)
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		t.Errorf("generated_at: %v", err)
	}
}

func TestBenchmarks_ListEmptyIsArray(t *testing.T) {
	h, _, _ := newHandler(t)
	rr := do(t, h, http.MethodGet, "/api/v1/benchmarks", "")
	wantStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"reports":[]`) {
		t.Errorf("body: got %s, want empty reports array", rr.Body.String())
	}
}

func TestGetBenchmark_NotFound(t *testing.T) {
	h, _, _ := newHandler(t)
	wantStatus(t, do(t, h, http.MethodGet, "/api/v1/benchmarks/nope", ""), http.StatusNotFound)
}

func TestGetBenchmark_Expired(t *testing.T) {
	st := store.New(time.Nanosecond)
	h := api.New(st, metrics.New(), testBench)
	if err := st.Put(context.Background(), &bench.Report{ID: "old"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	time.Sleep(time.Millisecond)
	wantStatus(t, do(t, h, http.MethodGet, "/api/v1/benchmarks/old", ""), http.StatusNotFound)
}

func TestSetBenchConfig(t *testing.T) {
	h, _, _ := newHandler(t)
	h.SetBenchConfig(config.BenchConfig{Iterations: 7, MaxIterations: 10, Rounds: 2})

	rr := do(t, h, http.MethodPost, "/api/v1/benchmarks", `{"password":"abc"}`)
	wantStatus(t, rr, http.StatusCreated)
	var rep bench.Report
	decode(t, rr, &rep)
	if rep.Iterations != 7 || rep.Rounds != 2 || rep.WarmupRounds != 0 {
		t.Errorf("got iterations=%d rounds=%d warmup=%d, want 7/2/0", rep.Iterations, rep.Rounds, rep.WarmupRounds)
	}

	wantStatus(t, do(t, h, http.MethodPost, "/api/v1/benchmark", `{"password":"abc","iterations":11}`), http.StatusBadRequest)
}

// --- health and failures ----------------------------------------------------

func TestHealth(t *testing.T) {
	h, st, _ := newHandler(t)
	st.Put(context.Background(), &bench.Report{ID: "a"}) //nolint:errcheck

	rr := do(t, h, http.MethodGet, "/api/v1/health", "")
	wantStatus(t, rr, http.StatusOK)
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || resp.HistoryCount != 1 {
		t.Errorf("got %+v, want ok/1", resp)
	}
}

func TestBrokenHistory(t *testing.T) {
	h := api.New(brokenHistory{}, metrics.New(), testBench)

	wantStatus(t, do(t, h, http.MethodGet, "/api/v1/health", ""), http.StatusServiceUnavailable)
	wantStatus(t, do(t, h, http.MethodGet, "/api/v1/benchmarks", ""), http.StatusInternalServerError)
	wantStatus(t, do(t, h, http.MethodGet, "/api/v1/benchmarks/x", ""), http.StatusInternalServerError)
	wantStatus(t, do(t, h, http.MethodPost, "/api/v1/benchmarks", `{"password":"a","rounds":1}`),
		http.StatusInternalServerError)
}

func TestBuildHistory(t *testing.T) {
	entries, err := api.BuildHistory(context.Background(), store.New(time.Minute))
	if err != nil {
		t.Fatalf("BuildHistory: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("got %v, want empty non-nil slice", entries)
	}

	if _, err := api.BuildHistory(context.Background(), brokenHistory{}); !errors.Is(err, errBroken) {
		t.Errorf("err: got %v, want wrapped errBroken", err)
	}
}
