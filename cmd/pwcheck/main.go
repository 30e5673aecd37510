// Command pwcheck scores a password and optionally benchmarks the scorer.
//
//	pwcheck [-bench] [-iterations N] [-rounds N] [-warmup N] [-config path] [password]
//
// Without a password argument the first line of stdin is used. The result is
// printed as indented JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pwstrength/pwstrength/internal/config"
	"github.com/pwstrength/pwstrength/pkg/bench"
	"github.com/pwstrength/pwstrength/pkg/strength"
)

// output is what pwcheck prints.
type output struct {
	Analysis strength.Analysis `json:"analysis"`
	Report   *bench.Report     `json:"benchmark,omitempty"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pwcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	runBench := fs.Bool("bench", false, "run a multi-round benchmark of the scorer")
	iterations := fs.Uint("iterations", 0, "iterations per round (0 = config or adaptive)")
	rounds := fs.Int("rounds", 0, "timed rounds (0 = config default)")
	warmup := fs.Int("warmup", -1, "warm-up rounds (-1 = config default)")
	configPath := fs.String("config", "", "optional config file for benchmark defaults and log level")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "pwcheck: expected at most one password argument")
		fs.Usage()
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "pwcheck: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	password, err := readPassword(fs.Args(), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "pwcheck: %v\n", err)
		return 1
	}

	out := output{Analysis: strength.Analyze(password)}
	slog.Debug("pwcheck: analysed", "score", out.Analysis.Score, "strength_level", out.Analysis.StrengthLevel)

	if *runBench {
		opts := bench.Options{
			Iterations:    cfg.Bench.Iterations,
			Rounds:        cfg.Bench.Rounds,
			WarmupRounds:  cfg.Bench.WarmupRounds,
			MaxIterations: cfg.Bench.MaxIterations,
		}
		if *iterations > 0 {
			opts.Iterations = uint32(*iterations)
			if uint(opts.Iterations) != *iterations {
				fmt.Fprintf(stderr, "pwcheck: iterations %d out of range\n", *iterations)
				return 1
			}
		}
		if *rounds != 0 {
			opts.Rounds = *rounds
		}
		if *warmup >= 0 {
			opts.WarmupRounds = *warmup
		}

		rep, err := bench.Run(ctx, password, opts)
		if err != nil {
			fmt.Fprintf(stderr, "pwcheck: benchmark: %v\n", err)
			return 1
		}
		out.Report = rep
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "pwcheck: write output: %v\n", err)
		return 1
	}
	return 0
}

// readPassword returns the argument if given, else the first line of stdin
// without its line terminator. An empty stdin yields an error.
func readPassword(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	sc := bufio.NewScanner(stdin)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return "", errors.New("no password given on the command line or stdin")
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}
