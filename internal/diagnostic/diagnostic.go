package diagnostic

import (
	"fmt"
	"slices"

	"github.com/jacoelho/jsonpatcher/internal/source"
)

// Code classifies a diagnostic with a stable, machine-readable kind tag.
type Code string

const (
	CodeUnexpectedCharacter Code = "lex.unexpected_character"
	CodeUnterminatedString  Code = "lex.unterminated_string"
	CodeInvalidEscape       Code = "lex.invalid_escape"
	CodeMalformedNumber     Code = "lex.malformed_number"

	CodeUnexpectedToken   Code = "syntax.unexpected_token"
	CodeUnexpectedEnd     Code = "syntax.unexpected_end"
	CodeInvalidParameters Code = "syntax.invalid_parameters"
	CodeInvalidMetadata   Code = "syntax.invalid_metadata"

	CodeUnresolvedName       Code = "resolve.unresolved_name"
	CodeDuplicateDeclaration Code = "resolve.duplicate_declaration"
	CodeArityMismatch        Code = "resolve.arity_mismatch"
	CodeInvalidPath          Code = "resolve.invalid_path"
	CodeInvalidAssignment    Code = "resolve.invalid_assignment"
	CodeMisplacedControl     Code = "resolve.misplaced_control"
	CodeUnknownMember        Code = "resolve.unknown_member"
	CodeUnknownLibrary       Code = "resolve.unknown_library"
	CodeInvalidJSONPath      Code = "resolve.invalid_jsonpath"
	CodeUnusedSymbol         Code = "resolve.unused_symbol"

	CodeTypeMismatch        Code = "runtime.type_mismatch"
	CodeMissingPath         Code = "runtime.missing_path"
	CodePathTypeMismatch    Code = "runtime.path_type_mismatch"
	CodeDivisionByZero      Code = "runtime.division_by_zero"
	CodeRaised              Code = "runtime.raised"
	CodeUnboundVariable     Code = "runtime.unbound_variable"
	CodeNotCallable         Code = "runtime.not_callable"
	CodeCallArity           Code = "runtime.arity_mismatch"
	CodeStackOverflow       Code = "runtime.stack_overflow"
	CodeCancelled           Code = "runtime.cancelled"
	CodeImportFailed        Code = "runtime.import_failed"
	CodeInvalidProgram      Code = "runtime.invalid_program"
	CodeUnserializableValue Code = "runtime.unserializable_value"
	CodeNumericOverflow     Code = "runtime.numeric_overflow"
	CodeLimitExceeded       Code = "runtime.limit_exceeded"
)

// Stage identifies the pipeline stage where a diagnostic was raised.
type Stage string

const (
	StageLex     Stage = "lex"
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
	StageEval    Stage = "eval"
)

// Severity indicates diagnostic impact.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Definition is canonical metadata for one diagnostic code.
type Definition struct {
	Code            Code
	DefaultStage    Stage
	DefaultSeverity Severity
}

var definitions = map[Code]Definition{
	CodeUnexpectedCharacter: {Code: CodeUnexpectedCharacter, DefaultStage: StageLex, DefaultSeverity: SeverityError},
	CodeUnterminatedString:  {Code: CodeUnterminatedString, DefaultStage: StageLex, DefaultSeverity: SeverityError},
	CodeInvalidEscape:       {Code: CodeInvalidEscape, DefaultStage: StageLex, DefaultSeverity: SeverityError},
	CodeMalformedNumber:     {Code: CodeMalformedNumber, DefaultStage: StageLex, DefaultSeverity: SeverityError},

	CodeUnexpectedToken:   {Code: CodeUnexpectedToken, DefaultStage: StageParse, DefaultSeverity: SeverityError},
	CodeUnexpectedEnd:     {Code: CodeUnexpectedEnd, DefaultStage: StageParse, DefaultSeverity: SeverityError},
	CodeInvalidParameters: {Code: CodeInvalidParameters, DefaultStage: StageParse, DefaultSeverity: SeverityError},
	CodeInvalidMetadata:   {Code: CodeInvalidMetadata, DefaultStage: StageParse, DefaultSeverity: SeverityError},

	CodeUnresolvedName:       {Code: CodeUnresolvedName, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeDuplicateDeclaration: {Code: CodeDuplicateDeclaration, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeArityMismatch:        {Code: CodeArityMismatch, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeInvalidPath:          {Code: CodeInvalidPath, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeInvalidAssignment:    {Code: CodeInvalidAssignment, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeMisplacedControl:     {Code: CodeMisplacedControl, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeUnknownMember:        {Code: CodeUnknownMember, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeUnknownLibrary:       {Code: CodeUnknownLibrary, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeInvalidJSONPath:      {Code: CodeInvalidJSONPath, DefaultStage: StageResolve, DefaultSeverity: SeverityError},
	CodeUnusedSymbol:         {Code: CodeUnusedSymbol, DefaultStage: StageResolve, DefaultSeverity: SeverityWarning},

	CodeTypeMismatch:        {Code: CodeTypeMismatch, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeMissingPath:         {Code: CodeMissingPath, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodePathTypeMismatch:    {Code: CodePathTypeMismatch, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeDivisionByZero:      {Code: CodeDivisionByZero, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeRaised:              {Code: CodeRaised, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeUnboundVariable:     {Code: CodeUnboundVariable, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeNotCallable:         {Code: CodeNotCallable, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeCallArity:           {Code: CodeCallArity, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeStackOverflow:       {Code: CodeStackOverflow, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeCancelled:           {Code: CodeCancelled, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeImportFailed:        {Code: CodeImportFailed, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeInvalidProgram:      {Code: CodeInvalidProgram, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeUnserializableValue: {Code: CodeUnserializableValue, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeNumericOverflow:     {Code: CodeNumericOverflow, DefaultStage: StageEval, DefaultSeverity: SeverityError},
	CodeLimitExceeded:       {Code: CodeLimitExceeded, DefaultStage: StageEval, DefaultSeverity: SeverityError},
}

// DefinitionFor resolves canonical metadata for a diagnostic code.
func DefinitionFor(code Code) Definition {
	if definition, ok := definitions[code]; ok {
		return definition
	}

	return Definition{
		Code:            code,
		DefaultStage:    StageEval,
		DefaultSeverity: SeverityError,
	}
}

// Codes lists every known code in a stable order.
func Codes() []Code {
	codes := make([]Code, 0, len(definitions))
	for code := range definitions {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Related points at a secondary location, such as an earlier declaration or
// a call site in a runtime stack trace.
type Related struct {
	Message string       `json:"message"`
	Span    source.Span  `json:"span"`
	Range   source.Range `json:"range"`
}

// Diagnostic is a single positioned error or warning.
type Diagnostic struct {
	Code     Code         `json:"code"`
	Stage    Stage        `json:"stage"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	Span     source.Span  `json:"span"`
	Range    source.Range `json:"range"`
	Related  []Related    `json:"related,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Range.Start, d.Severity, d.Message, d.Code)
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// HasErrors reports whether any diagnostic is error-severity.
func HasErrors(diagnostics []Diagnostic) bool {
	for _, d := range diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics raised by one stage, preserving order.
func Filter(diagnostics []Diagnostic, stage Stage) []Diagnostic {
	var out []Diagnostic
	for _, d := range diagnostics {
		if d.Stage == stage {
			out = append(out, d)
		}
	}
	return out
}
