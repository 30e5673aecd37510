package bench

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pwstrength/pwstrength/pkg/strength"
)

// Mixing constants for the per-byte hash step.
const (
	hashMultiplier = 31
	lcgMultiplier  = 1103515245
	lcgIncrement   = 12345
)

// sink receives every checksum produced by Benchmark so the loop has an
// observable result.
var sink atomic.Uint64

// Sample is the outcome of one Measure call.
type Sample struct {
	Elapsed    time.Duration
	Iterations uint32

	// Checksum is the wrapping sum of each iteration's final hash.
	Checksum uint64

	// Spin is the sum of the square-root side computation.
	Spin float64
}

// Millis returns Elapsed in fractional milliseconds.
func (s Sample) Millis() float64 {
	return float64(s.Elapsed) / float64(time.Millisecond)
}

// Benchmark runs the workload iterations times over password and returns
// the elapsed wall time in milliseconds. The result is never negative.
// With zero iterations no scoring work is done.
func Benchmark(password string, iterations uint32) float64 {
	s := Measure(password, iterations)
	sink.Add(s.Checksum)
	return s.Millis()
}

// Measure is Benchmark with the full Sample returned.
func Measure(password string, iterations uint32) Sample {
	start := time.Now()

	chars := []rune(password)
	raw := []byte(password)
	lower := strings.ToLower(password)

	var checksum uint64
	var spin float64
	for i := uint32(0); i < iterations; i++ {
		h := uint64(int64(tallyScore(chars, lower)))
		for j, b := range raw {
			h = h*hashMultiplier + uint64(b)
			h = h*lcgMultiplier + lcgIncrement
			spin += math.Sqrt(float64(b) * float64(j+1))
		}
		checksum += h
	}

	return Sample{
		Elapsed:    time.Since(start),
		Iterations: iterations,
		Checksum:   checksum,
		Spin:       spin,
	}
}

// tallyScore is the benchmark's score variant. The length term counts
// characters, each matching character adds one point to its class, and both
// pattern penalties are checked against the lower-cased text. It is not
// clamped and may be negative.
func tallyScore(chars []rune, lower string) int {
	score := strength.LengthScore(len(chars))
	for _, c := range chars {
		if c >= 'a' && c <= 'z' {
			score++
		}
		if c >= 'A' && c <= 'Z' {
			score++
		}
		if c >= '0' && c <= '9' {
			score++
		}
		if !strength.IsAlphanumeric(c) {
			score++
		}
	}
	if strings.Contains(lower, strength.CommonWord) {
		score -= strength.CommonWordPenalty
	}
	if strings.Contains(lower, strength.CommonSequence) {
		score -= strength.CommonSequencePenalty
	}
	return score
}
