// Package batch applies one compiled script to many documents, writing the
// patched documents to an output directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/jacoelho/jsonpatcher"
	"github.com/jacoelho/jsonpatcher/internal/config"
	"github.com/jacoelho/jsonpatcher/internal/ratelimit"
	"github.com/jacoelho/jsonpatcher/internal/report"
)

var errOutputExists = errors.New("output file already exists")

// Decode parses a document in the given format.
func Decode(data []byte, format config.DocumentFormat) (jsonpatcher.Value, error) {
	if format == config.FormatYAML {
		return jsonpatcher.ParseYAML(data)
	}
	return jsonpatcher.ParseJSON(data)
}

// Encode renders a document in the given format. JSON is indented and ends
// with a newline.
func Encode(v jsonpatcher.Value, format config.DocumentFormat) ([]byte, error) {
	if format == config.FormatYAML {
		return jsonpatcher.EncodeYAML(v)
	}
	out, err := jsonpatcher.EncodeJSON(v, "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

type job struct {
	input  string
	output string
}

// Run patches cfg.Documents with program. Per-document failures are recorded
// in the summary; the returned error reports problems with the run itself,
// such as cancellation.
func Run(ctx context.Context, cfg config.Config, program *jsonpatcher.Program, logger *slog.Logger) (report.Summary, error) {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return report.Summary{}, fmt.Errorf("create output directory: %w", err)
		}
	}

	planner := NewPlanner()
	jobs := make([]job, len(cfg.Documents))
	for i, doc := range cfg.Documents {
		jobs[i] = job{input: doc, output: planner.Next(doc)}
	}

	limiter := ratelimit.New(cfg.RateLimit)
	results := make([]report.DocumentResult, len(jobs))
	queue := make(chan int)

	var wg sync.WaitGroup
	for range max(1, min(cfg.Workers, len(jobs))) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				results[i] = process(ctx, cfg, program, jobs[i], logger)
			}
		}()
	}

	var err error
feed:
	for i := range jobs {
		if err = limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case queue <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(queue)
	wg.Wait()

	if err != nil {
		return report.Summary{}, fmt.Errorf("batch interrupted: %w", err)
	}

	summary := report.Summary{RunID: runID, Script: cfg.ScriptFile}
	for _, result := range results {
		summary.Add(result)
	}
	logger.Info("batch finished", "total", summary.Total, "changed", summary.Changed, "failed", summary.Failed)
	return summary, nil
}

func process(ctx context.Context, cfg config.Config, program *jsonpatcher.Program, j job, logger *slog.Logger) report.DocumentResult {
	result := report.DocumentResult{Input: j.input, Output: j.output}
	fail := func(format string, args ...any) report.DocumentResult {
		result.Failed = true
		result.Error = fmt.Sprintf(format, args...)
		logger.Warn("document failed", "input", j.input, "error", result.Error)
		return result
	}

	data, err := os.ReadFile(j.input)
	if err != nil {
		return fail("read document: %v", err)
	}

	format := cfg.FormatFor(j.input)
	doc, err := Decode(data, format)
	if err != nil {
		return fail("parse document: %v", err)
	}

	patched, diags := program.Run(ctx, doc)
	result.Diagnostics = diags
	if jsonpatcher.HasErrors(diags) {
		result.Failed = true
		logger.Warn("document failed", "input", j.input, "diagnostics", len(diags))
		return result
	}
	result.Changed = !jsonpatcher.Equal(doc, patched)

	if cfg.DryRun {
		return result
	}

	payload, err := Encode(patched, format)
	if err != nil {
		return fail("encode document: %v", err)
	}
	target := filepath.Join(cfg.OutputDir, j.output)
	if err := writeDocument(target, cfg.Overwrite, payload); err != nil {
		if errors.Is(err, errOutputExists) {
			return fail("output file exists and --overwrite is false: %s", target)
		}
		return fail("write document: %v", err)
	}

	result.Written = true
	logger.Debug("document patched", "input", j.input, "output", target, "changed", result.Changed)
	return result
}

func writeDocument(filename string, overwrite bool, payload []byte) error {
	if !overwrite {
		if _, err := os.Stat(filename); err == nil {
			return errOutputExists
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat output file: %w", err)
		}
	}

	if err := os.WriteFile(filename, payload, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
