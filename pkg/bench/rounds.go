package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pwstrength/pwstrength/pkg/strength"
)

// Adaptive iteration bounds used by SuggestIterations.
const (
	baseIterations    = 5000
	maxAutoIterations = 50000
	referenceLength   = 20

	// maxWarmupIterations caps the iterations of each warm-up round.
	maxWarmupIterations = 2000
)

var (
	// ErrNoRounds is returned when Options.Rounds is not positive.
	ErrNoRounds = errors.New("bench: rounds must be positive")

	// ErrTooManyIterations is returned when the iteration count exceeds
	// Options.MaxIterations.
	ErrTooManyIterations = errors.New("bench: iteration count exceeds limit")
)

// Options controls a multi-round Run.
type Options struct {
	// Iterations per timed round. Zero selects SuggestIterations.
	Iterations uint32

	// Rounds is the number of timed Benchmark calls.
	Rounds int

	// WarmupRounds are untimed calls made before the timed rounds.
	WarmupRounds int

	// MaxIterations rejects larger iteration counts when non-zero.
	MaxIterations uint32
}

// Report is the result of a Run. It never contains the password.
type Report struct {
	ID            string    `json:"id"`
	Length        int       `json:"length"`
	StrengthLevel string    `json:"strength_level"`
	Iterations    uint32    `json:"iterations"`
	Rounds        int       `json:"rounds"`
	WarmupRounds  int       `json:"warmup_rounds"`
	Times         []float64 `json:"times_ms"`
	Stats         Stats     `json:"stats"`
	CreatedAt     time.Time `json:"created_at"`
}

// SuggestIterations scales the iteration count inversely with password
// length so short and long passwords take similar wall time:
// max(5000, min(50000, 5000 × 20 / length)).
func SuggestIterations(password string) uint32 {
	n := utf8.RuneCountInString(password)
	if n < 1 {
		n = 1
	}
	it := baseIterations * referenceLength / n
	if it > maxAutoIterations {
		it = maxAutoIterations
	}
	if it < baseIterations {
		it = baseIterations
	}
	return uint32(it)
}

// Run performs opts.WarmupRounds untimed and opts.Rounds timed calls to
// Benchmark and summarises the timings. ctx is checked between rounds; a
// round in progress always runs to completion.
func Run(ctx context.Context, password string, opts Options) (*Report, error) {
	if opts.Rounds <= 0 {
		return nil, ErrNoRounds
	}
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = SuggestIterations(password)
	}
	if opts.MaxIterations > 0 && iterations > opts.MaxIterations {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIterations, iterations, opts.MaxIterations)
	}

	warm := iterations / 2
	if warm > maxWarmupIterations {
		warm = maxWarmupIterations
	}
	for i := 0; i < opts.WarmupRounds; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		Benchmark(password, warm)
	}

	times := make([]float64, 0, opts.Rounds)
	for i := 0; i < opts.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		times = append(times, Benchmark(password, iterations))
	}

	rep := &Report{
		ID:            uuid.NewString(),
		Length:        utf8.RuneCountInString(password),
		StrengthLevel: strength.StrengthLabel(strength.Score(password)),
		Iterations:    iterations,
		Rounds:        opts.Rounds,
		WarmupRounds:  opts.WarmupRounds,
		Times:         times,
		Stats:         Summarize(times),
		CreatedAt:     time.Now().UTC(),
	}

	slog.Debug("bench: run complete",
		"id", rep.ID,
		"iterations", rep.Iterations,
		"rounds", rep.Rounds,
		"median_ms", rep.Stats.Median,
		"outliers", rep.Stats.Outliers,
	)
	return rep, nil
}
