package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/jsonpatcher"
	"github.com/jacoelho/jsonpatcher/internal/batch"
	"github.com/jacoelho/jsonpatcher/internal/config"
	"github.com/jacoelho/jsonpatcher/internal/exit"
	"github.com/jacoelho/jsonpatcher/internal/report"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Parse(args)
	if err != nil {
		result := exit.Usage(fmt.Sprintf("Error: %v\n\n%s\n", err, config.Usage())).To(stderr)
		if errors.Is(err, config.ErrHelp) {
			result = exit.Success(config.Usage() + "\n").To(stdout)
		}
		result.Print()
		return result.ExitCode
	}

	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel})),
	}

	var result *exit.Result
	switch cfg.Command {
	case config.CommandRun:
		result = a.run(ctx)
	case config.CommandCheck:
		result = a.check()
	case config.CommandBatch:
		result = a.batch(ctx)
	case config.CommandREPL:
		result = a.repl(ctx)
	}
	result.To(stderr).Print()
	return result.ExitCode
}

func (a *app) options() ([]jsonpatcher.Option, error) {
	variables := make(map[string]jsonpatcher.Value, len(a.cfg.Variables))
	for name, raw := range a.cfg.Variables {
		v, err := jsonpatcher.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		variables[name] = v
	}

	opts := []jsonpatcher.Option{
		jsonpatcher.WithLogger(a.logger),
		jsonpatcher.WithVariables(variables),
		jsonpatcher.WithMaxDepth(a.cfg.MaxDepth),
		jsonpatcher.WithWarnUnused(a.cfg.WarnUnused),
	}
	if a.cfg.Libraries != nil {
		opts = append(opts, jsonpatcher.WithLibraries(a.cfg.Libraries))
	}
	if a.cfg.ScriptFile != "" {
		opts = append(opts, jsonpatcher.WithFileName(a.cfg.ScriptFile))
	}
	return opts, nil
}

func (a *app) compile() (*jsonpatcher.Program, *exit.Result) {
	opts, err := a.options()
	if err != nil {
		return nil, exit.Errorf("Error: %v\n", err)
	}
	src, err := os.ReadFile(a.cfg.ScriptFile)
	if err != nil {
		return nil, exit.Errorf("Error: read script: %v\n", err)
	}

	program, diags := jsonpatcher.Compile(string(src), opts...)
	if err := report.WriteDiagnostics(a.stderr, report.FormatText, diags, nil); err != nil {
		return nil, exit.Errorf("Error: write diagnostics: %v\n", err)
	}
	if program.HasErrors() {
		return nil, exit.Error("")
	}
	return program, nil
}

func (a *app) readInput(path string) (jsonpatcher.Value, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	doc, err := batch.Decode(data, a.cfg.FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return doc, nil
}

func (a *app) run(ctx context.Context) *exit.Result {
	program, result := a.compile()
	if result != nil {
		return result
	}

	doc, err := a.readInput(a.cfg.InputFile)
	if err != nil {
		return exit.Errorf("Error: %v\n", err)
	}

	patched, diags := program.Run(ctx, doc)
	if err := report.WriteDiagnostics(a.stderr, report.FormatText, diags, nil); err != nil {
		return exit.Errorf("Error: write diagnostics: %v\n", err)
	}
	if jsonpatcher.HasErrors(diags) {
		return exit.Error("")
	}

	outputFormat := a.cfg.FormatFor(a.cfg.InputFile)
	if a.cfg.OutputFile != "" {
		outputFormat = a.cfg.FormatFor(a.cfg.OutputFile)
	}
	payload, err := batch.Encode(patched, outputFormat)
	if err != nil {
		return exit.Errorf("Error: encode output: %v\n", err)
	}

	if a.cfg.OutputFile == "" {
		if _, err := a.stdout.Write(payload); err != nil {
			return exit.Errorf("Error: write output: %v\n", err)
		}
		return exit.Success("")
	}
	if err := os.WriteFile(a.cfg.OutputFile, payload, 0644); err != nil {
		return exit.Errorf("Error: write output: %v\n", err)
	}
	return exit.Success("")
}

func (a *app) check() *exit.Result {
	opts, err := a.options()
	if err != nil {
		return exit.Errorf("Error: %v\n", err)
	}
	src, err := os.ReadFile(a.cfg.ScriptFile)
	if err != nil {
		return exit.Errorf("Error: read script: %v\n", err)
	}

	analysis, diags := jsonpatcher.Analyze(string(src), opts...)
	var decls []jsonpatcher.Declaration
	if a.cfg.Outline {
		decls = analysis.Declarations()
	}
	if err := report.WriteDiagnostics(a.stdout, a.cfg.ReportFormat, diags, decls); err != nil {
		return exit.Errorf("Error: failed to write report: %v\n", err)
	}
	if jsonpatcher.HasErrors(diags) {
		return exit.Error("")
	}
	return exit.Success("")
}

func (a *app) batch(ctx context.Context) *exit.Result {
	program, result := a.compile()
	if result != nil {
		return result
	}

	summary, err := batch.Run(ctx, *a.cfg, program, a.logger)
	if err != nil {
		return exit.Errorf("Error: %v\n", err)
	}
	if err := summary.Write(a.stdout, a.cfg.ReportFormat); err != nil {
		return exit.Errorf("Error: failed to write report: %v\n", err)
	}
	if summary.HasErrors() {
		return exit.Error("")
	}
	return exit.Success("")
}
