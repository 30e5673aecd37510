package metrics

import (
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/pwstrength/pwstrength/pkg/bench"
)

// Metric names exposed on /metrics.
const (
	AnalysesTotal            = "pwstrength_analyses_total"
	BenchmarksTotal          = "pwstrength_benchmarks_total"
	BenchmarkIterationsTotal = "pwstrength_benchmark_iterations_total"
	BenchmarkLastMedianMs    = "pwstrength_benchmark_last_median_ms"

	labelStrengthLevel = "strength_level"
)

// Registry holds the service counters. All methods are safe for concurrent use.
type Registry struct {
	mu              sync.Mutex
	analyses        map[string]float64 // by strength level
	benchmarks      float64
	iterations      float64
	lastMedianMs    float64
	hasLastBenchRun bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{analyses: make(map[string]float64)}
}

// ObserveAnalysis counts one scored password under its strength level.
func (r *Registry) ObserveAnalysis(level string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses[level]++
}

// ObserveBenchmark counts one benchmark call of the given iteration count.
func (r *Registry) ObserveBenchmark(iterations uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.benchmarks++
	r.iterations += float64(iterations)
}

// ObserveReport counts every timed round of rep and records its median.
func (r *Registry) ObserveReport(rep *bench.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.benchmarks += float64(rep.Rounds)
	r.iterations += float64(rep.Iterations) * float64(rep.Rounds)
	r.lastMedianMs = rep.Stats.Median
	r.hasLastBenchRun = true
}

// Gather returns the current values as metric families, sorted by name.
func (r *Registry) Gather() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	levels := make([]string, 0, len(r.analyses))
	for l := range r.analyses {
		levels = append(levels, l)
	}
	sort.Strings(levels)

	analyses := &dto.MetricFamily{
		Name: proto.String(AnalysesTotal),
		Help: proto.String("Passwords analysed, by strength level."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, l := range levels {
		analyses.Metric = append(analyses.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String(labelStrengthLevel), Value: proto.String(l)}},
			Counter: &dto.Counter{Value: proto.Float64(r.analyses[l])},
		})
	}

	out := []*dto.MetricFamily{
		counter(BenchmarkIterationsTotal, "Benchmark loop iterations executed.", r.iterations),
		counter(BenchmarksTotal, "Timed benchmark calls executed.", r.benchmarks),
	}
	if len(analyses.Metric) > 0 {
		out = append(out, analyses)
	}
	if r.hasLastBenchRun {
		out = append(out, &dto.MetricFamily{
			Name:   proto.String(BenchmarkLastMedianMs),
			Help:   proto.String("Median round time of the most recent multi-round run."),
			Type:   dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(r.lastMedianMs)}}},
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// ServeHTTP writes all families in the text exposition format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.Gather() {
		if err := enc.Encode(mf); err != nil {
			return
		}
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}
