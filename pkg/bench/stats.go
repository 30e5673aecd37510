package bench

import "sort"

// minSamplesForIQR is the smallest sample count the outlier filter runs on.
const minSamplesForIQR = 4

// iqrFence is the Tukey fence multiplier.
const iqrFence = 1.5

// Stats summarises the timed rounds of a Report. All times are milliseconds.
type Stats struct {
	Mean     float64 `json:"mean_ms"`
	Median   float64 `json:"median_ms"`
	Min      float64 `json:"min_ms"`
	Max      float64 `json:"max_ms"`
	Count    int     `json:"count"`
	Outliers int     `json:"outliers"`
}

// RemoveOutliers returns the sorted samples that fall within the Tukey
// fences q1 − 1.5·IQR and q3 + 1.5·IQR. With fewer than four samples
// nothing is removed. times is not modified.
func RemoveOutliers(times []float64) []float64 {
	sorted := append([]float64(nil), times...)
	sort.Float64s(sorted)
	if len(sorted) < minSamplesForIQR {
		return sorted
	}

	n := float64(len(sorted))
	q1 := sorted[int(n*0.25)]
	q3 := sorted[int(n*0.75)]
	iqr := q3 - q1
	lower := q1 - iqrFence*iqr
	upper := q3 + iqrFence*iqr

	out := sorted[:0]
	for _, v := range sorted {
		if v >= lower && v <= upper {
			out = append(out, v)
		}
	}
	return out
}

// Summarize filters outliers from times and computes the summary.
// An empty input yields the zero Stats.
func Summarize(times []float64) Stats {
	filtered := RemoveOutliers(times)
	if len(filtered) == 0 {
		return Stats{Outliers: len(times)}
	}

	var sum float64
	for _, v := range filtered {
		sum += v
	}
	return Stats{
		Mean:     sum / float64(len(filtered)),
		Median:   filtered[len(filtered)/2],
		Min:      filtered[0],
		Max:      filtered[len(filtered)-1],
		Count:    len(filtered),
		Outliers: len(times) - len(filtered),
	}
}
