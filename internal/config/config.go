package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/jsonpatcher/internal/report"
)

var (
	ErrNoArguments           = errors.New("no arguments provided")
	ErrHelp                  = errors.New("help requested")
	ErrUnknownCommand        = errors.New("unknown command")
	ErrMissingScript         = errors.New("--script is required")
	ErrMissingInput          = errors.New("--input is required")
	ErrMissingOutputDir      = errors.New("--out is required")
	ErrNoDocuments           = errors.New("no documents specified")
	ErrInvalidFormat         = errors.New("--format must be one of: json, yaml")
	ErrInvalidReportFormat   = errors.New("--report must be one of: text, json")
	ErrInvalidWorkers        = errors.New("--workers must be positive")
	ErrInvalidVariableFormat = errors.New("variable must be in format name=value")
	ErrEmptyVariableName     = errors.New("variable name cannot be empty")
)

// Command selects what jpatch does.
type Command string

const (
	CommandRun   Command = "run"
	CommandCheck Command = "check"
	CommandBatch Command = "batch"
	CommandREPL  Command = "repl"
)

// DocumentFormat is the encoding of input and output documents.
type DocumentFormat string

const (
	FormatJSON DocumentFormat = "json"
	FormatYAML DocumentFormat = "yaml"
)

// Config is the parsed command line merged with the optional config file.
type Config struct {
	Command Command

	ScriptFile string
	InputFile  string
	OutputFile string
	Format     DocumentFormat

	ReportFormat report.Format
	Outline      bool
	WarnUnused   bool

	OutputDir string
	Documents []string
	Workers   int
	RateLimit float64 // Documents per second (0 = unlimited)
	Overwrite bool
	DryRun    bool

	Variables map[string]any
	Libraries map[string]string
	MaxDepth  int
	LogLevel  slog.Level
}

// FormatFor returns the document format for path: the --format flag when
// set, otherwise YAML for .yaml and .yml files and JSON for the rest.
func (c *Config) FormatFor(path string) DocumentFormat {
	if c.Format != "" {
		return c.Format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// File is the YAML config file given with --config. Library paths are
// relative to the directory of the config file.
type File struct {
	Variables  map[string]any    `yaml:"variables"`
	Libraries  map[string]string `yaml:"libraries"`
	MaxDepth   int               `yaml:"max_depth"`
	WarnUnused bool              `yaml:"warn_unused"`
	LogLevel   string            `yaml:"log_level"`
	Workers    int               `yaml:"workers"`
	RateLimit  float64           `yaml:"rate_limit"`
}

// LoadFile reads a config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &file, nil
}

// loadLibraries reads library sources, resolving paths against dir.
func loadLibraries(dir string, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	libraries := make(map[string]string, len(paths))
	for name, path := range paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read library %s: %w", name, err)
		}
		libraries[name] = string(data)
	}
	return libraries, nil
}

// variablesFlag implements flag.Value for parsing multiple --var flags.
type variablesFlag map[string]any

func (v variablesFlag) String() string {
	var pairs []string
	for k, val := range v {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, val))
	}
	return strings.Join(pairs, ",")
}

// Set parses and stores a variable in name=value format.
func (v variablesFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w, got: %s", ErrInvalidVariableFormat, value)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return ErrEmptyVariableName
	}

	v[name] = parts[1]
	return nil
}

// Parse parses `jpatch <command> [options]`.
func Parse(args []string) (*Config, error) {
	if len(args) < 2 {
		return nil, ErrNoArguments
	}

	command := Command(args[1])
	switch command {
	case CommandRun, CommandCheck, CommandBatch, CommandREPL:
	case "-h", "--help", "help":
		return nil, ErrHelp
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, args[1])
	}

	fs := flag.NewFlagSet(args[0]+" "+args[1], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var (
		configFile   = fs.String("config", "", "Path to YAML config file")
		logLevel     = fs.String("log-level", "", "Log level: debug, info, warn or error")
		script       = fs.String("script", "", "Path to the patch script")
		input        = fs.String("input", "", "Input document, - for stdin")
		output       = fs.String("output", "", "Output file (default: stdout)")
		format       = fs.String("format", "", "Document format: json or yaml")
		reportFormat = fs.String("report", "text", "Report format: text or json")
		outline      = fs.Bool("outline", false, "Print the declaration outline")
		warnUnused   = fs.Bool("warn-unused", false, "Warn about unused declarations")
		outDir       = fs.String("out", "", "Output directory for patched documents")
		workers      = fs.Int("workers", 0, "Number of documents patched in parallel")
		rateLimit    = fs.Float64("rate", 0, "Documents per second (0 for unlimited)")
		overwrite    = fs.Bool("overwrite", false, "Overwrite existing output files")
		dryRun       = fs.Bool("dry-run", false, "Patch without writing files")
		maxDepth     = fs.Int("max-depth", 0, "Maximum nested function calls")
		variables    = make(variablesFlag)
	)
	fs.Var(variables, "var", "Host variable in format name=value (can be used multiple times)")

	if err := fs.Parse(args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	cfg := &Config{
		Command:    command,
		ScriptFile: *script,
		InputFile:  *input,
		OutputFile: *output,
		Outline:    *outline,
		WarnUnused: *warnUnused,
		OutputDir:  *outDir,
		Documents:  fs.Args(),
		Workers:    1,
		Overwrite:  *overwrite,
		DryRun:     *dryRun,
		LogLevel:   slog.LevelInfo,
	}

	// Command-line values take precedence over the config file.
	if *configFile != "" {
		if err := cfg.apply(*configFile); err != nil {
			return nil, err
		}
	}
	if len(variables) > 0 {
		if cfg.Variables == nil {
			cfg.Variables = make(map[string]any)
		}
		maps.Copy(cfg.Variables, variables)
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *rateLimit != 0 {
		cfg.RateLimit = *rateLimit
	}
	if *maxDepth != 0 {
		cfg.MaxDepth = *maxDepth
	}
	if *logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
			return nil, fmt.Errorf("parse --log-level: %w", err)
		}
	}

	var err error
	if cfg.Format, err = parseFormat(*format); err != nil {
		return nil, err
	}
	if cfg.ReportFormat, err = parseReportFormat(*reportFormat); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(path string) error {
	file, err := LoadFile(path)
	if err != nil {
		return err
	}

	libraries, err := loadLibraries(filepath.Dir(path), file.Libraries)
	if err != nil {
		return err
	}

	c.Variables = file.Variables
	c.Libraries = libraries
	c.MaxDepth = file.MaxDepth
	c.WarnUnused = c.WarnUnused || file.WarnUnused
	c.RateLimit = file.RateLimit
	if file.Workers > 0 {
		c.Workers = file.Workers
	}
	if file.LogLevel != "" {
		if err := c.LogLevel.UnmarshalText([]byte(file.LogLevel)); err != nil {
			return fmt.Errorf("parse log_level in %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the options required by the command.
func (c *Config) Validate() error {
	if c.Command == CommandREPL {
		return nil
	}

	if c.ScriptFile == "" {
		return ErrMissingScript
	}
	if _, err := os.Stat(c.ScriptFile); err != nil {
		return fmt.Errorf("script file not accessible: %w", err)
	}

	switch c.Command {
	case CommandRun:
		if c.InputFile == "" {
			return ErrMissingInput
		}
	case CommandBatch:
		if c.OutputDir == "" && !c.DryRun {
			return ErrMissingOutputDir
		}
		if len(c.Documents) == 0 {
			return ErrNoDocuments
		}
		if c.Workers <= 0 {
			return ErrInvalidWorkers
		}
	}
	return nil
}

func parseFormat(input string) (DocumentFormat, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return "", nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidFormat, input)
	}
}

func parseReportFormat(input string) (report.Format, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", string(report.FormatText):
		return report.FormatText, nil
	case string(report.FormatJSON):
		return report.FormatJSON, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidReportFormat, input)
	}
}

// Usage returns command usage text.
func Usage() string {
	return `jpatch - patch JSON and YAML documents with scripts

Usage:
  jpatch run --script FILE --input FILE [--output FILE] [--format json|yaml]
  jpatch check --script FILE [--report text|json] [--outline] [--warn-unused]
  jpatch batch --script FILE --out DIR [--workers N] [--rate N] [--overwrite] [--dry-run] [--report text|json] DOCS...
  jpatch repl [--input FILE]

Options:
  --config FILE         YAML config file with variables, libraries and defaults
  --log-level LEVEL     Log level for debug.log output: debug, info, warn, error
  --script FILE         Path to the patch script
  --input FILE          Input document, - for stdin
  --output FILE         Output file (default: stdout)
  --format FORMAT       Document format: json or yaml (default: by file extension)
  --report FORMAT       Report format: text or json (default: text)
  --outline             Print the declaration outline (check)
  --warn-unused         Warn about unused declarations
  --out DIR             Output directory for patched documents (batch)
  --workers N           Documents patched in parallel (batch, default: 1)
  --rate N              Documents per second, 0 for unlimited (batch)
  --overwrite           Overwrite existing output files (batch)
  --dry-run             Patch without writing files (batch)
  --max-depth N         Maximum nested function calls
  --var NAME=VALUE      Host variable (can be used multiple times)
  -h, --help            Show this help message

Examples:
  jpatch run --script fix.jp --input doc.json
  jpatch check --script fix.jp --outline
  jpatch batch --script fix.jp --out ./patched --workers 4 data/*.json
  jpatch run --script fix.jp --input - --var region=eu < doc.json`
}
