package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/simulstream/simulstream/metrics"
	"github.com/simulstream/simulstream/score"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	scorerName := flag.String("scorer", "stats", "Scorer to run (one of: "+strings.Join(score.Names(), ", ")+")")
	evalConfig := flag.String("eval-config", "", "Path to evaluation configuration YAML")
	logFile := flag.String("log-file", "", "JSONL metrics log to score")
	referenceFile := flag.String("reference", "", "Reference text file, one line per session")
	allowMixed := flag.Bool("allow-mixed", false, "Allow logs containing multiple runs")
	flag.Parse()

	if *logFile == "" {
		slog.Error("--log-file must be provided")
		flag.Usage()
		os.Exit(1)
	}

	var eval *score.EvalConfig
	if *evalConfig != "" {
		var err error
		eval, err = score.LoadEvalConfig(*evalConfig)
		if err != nil {
			slog.Error("Failed to load eval config", "error", err)
			os.Exit(1)
		}
	}

	scorer, err := score.Build(*scorerName, eval)
	if err != nil {
		slog.Error("Failed to build scorer", "error", err)
		os.Exit(1)
	}

	run, err := metrics.ReadRun(*logFile)
	if err != nil {
		slog.Error("Failed to read metrics log", "error", err)
		os.Exit(1)
	}
	if run.Mixed() && !*allowMixed {
		slog.Error("Log contains multiple runs; pass --allow-mixed to score it anyway")
		os.Exit(1)
	}

	var references []string
	if scorer.RequiresReference() {
		if *referenceFile == "" {
			slog.Error("Scorer requires --reference", "scorer", *scorerName)
			os.Exit(1)
		}
		references, err = readLines(*referenceFile)
		if err != nil {
			slog.Error("Failed to read reference file", "error", err)
			os.Exit(1)
		}
	}

	result, err := scorer.Score(score.Inputs{
		Run:        run,
		Eval:       eval,
		References: references,
	})
	if err != nil {
		slog.Error("Scoring failed", "error", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s\t%g\n", name, result[name])
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
