// Package bench times a synthetic password-scoring workload.
//
// bench.go provides Benchmark(password, iterations), which repeats a
// per-character variant of the strength score plus a 64-bit
// multiply-add hash over the password bytes and returns the elapsed wall
// time in milliseconds. Measure exposes the same loop with its checksum so
// callers and tests can observe the work that was done.
//
// rounds.go runs warm-up and timed rounds of Benchmark and reduces them into
// a Report; stats.go holds the IQR outlier filter and summary statistics.
//
// The variant score deliberately differs from strength.Score: every
// matching character adds one point instead of one bonus per class, and the
// result is not clamped.
package bench
