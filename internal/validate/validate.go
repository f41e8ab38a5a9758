package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/scout/internal/catalog"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Fails `scout validate`
	SeverityWarning                 // Reported only
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

// Known modality values.
var knownModalities = map[string]bool{
	"text":  true,
	"image": true,
	"audio": true,
	"video": true,
	"file":  true,
}

// Known request parameters (warn on unknown, don't block).
var knownParameters = map[string]bool{
	"tools":               true,
	"tool_choice":         true,
	"parallel_tool_calls": true,
	"max_tokens":          true,
	"temperature":         true,
	"top_p":               true,
	"top_k":               true,
	"top_a":               true,
	"min_p":               true,
	"stop":                true,
	"seed":                true,
	"frequency_penalty":   true,
	"presence_penalty":    true,
	"repetition_penalty":  true,
	"logit_bias":          true,
	"logprobs":            true,
	"top_logprobs":        true,
	"response_format":     true,
	"structured_outputs":  true,
	"reasoning":           true,
	"include_reasoning":   true,
	"web_search_options":  true,
	"verbosity":           true,
}

// Pricing above this per-million figure is almost certainly a unit error.
var maxPlausiblePer1M = decimal.NewFromInt(1000)

const maxContextLength = 10_000_000

// ValidateModel checks a single normalized record for consistency.
func ValidateModel(m catalog.ModelRecord) *Result {
	r := &Result{}
	name := m.ID
	if name == "" {
		name = m.DisplayName
	}

	// Required fields
	if m.ID == "" {
		r.Issues = append(r.Issues, Issue{SeverityError, name, "id", "required field is empty"})
	} else if m.Provider == "" {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "id", "id has no provider namespace"})
	}

	// Pricing sanity
	p := m.Pricing
	if p.PromptPer1M().GreaterThan(maxPlausiblePer1M) {
		r.Issues = append(r.Issues, Issue{SeverityError, name, "pricing.prompt",
			fmt.Sprintf("$%s per 1M tokens outside expected range [0, %s]", p.PromptPer1M(), maxPlausiblePer1M)})
	}
	if p.CompletionPer1M().GreaterThan(maxPlausiblePer1M) {
		r.Issues = append(r.Issues, Issue{SeverityError, name, "pricing.completion",
			fmt.Sprintf("$%s per 1M tokens outside expected range [0, %s]", p.CompletionPer1M(), maxPlausiblePer1M)})
	}
	if p.CompletionPerToken.IsZero() && !p.PromptPerToken.IsZero() && slices.Contains(m.OutputModalities, "text") {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "pricing.completion",
			"text model has prompt price but zero completion price"})
	}

	// Limits sanity
	if m.ContextLength == 0 {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "context_length", "context length is unknown"})
	} else if m.ContextLength > maxContextLength {
		r.Issues = append(r.Issues, Issue{SeverityError, name, "context_length",
			fmt.Sprintf("value %d outside expected range [1, %d]", m.ContextLength, maxContextLength)})
	}
	if m.MaxCompletionTokens != nil && m.ContextLength > 0 && *m.MaxCompletionTokens > m.ContextLength {
		r.Issues = append(r.Issues, Issue{SeverityError, name, "max_completion_tokens",
			fmt.Sprintf("value %d exceeds context_length %d", *m.MaxCompletionTokens, m.ContextLength)})
	}

	// Modality taxonomy
	for _, mod := range m.InputModalities {
		if !knownModalities[mod] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "input_modalities",
				fmt.Sprintf("unknown modality %q", mod)})
		}
	}
	for _, mod := range m.OutputModalities {
		if !knownModalities[mod] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "output_modalities",
				fmt.Sprintf("unknown modality %q", mod)})
		}
	}
	if m.Modality != "" && !strings.Contains(m.Modality, "->") {
		r.Issues = append(r.Issues, Issue{SeverityWarning, name, "modality",
			fmt.Sprintf("modality %q is not of the form input->output", m.Modality)})
	}

	// Parameter taxonomy
	for _, param := range m.SupportedParameters {
		if !knownParameters[param] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "supported_parameters",
				fmt.Sprintf("unknown parameter %q", param)})
		}
	}

	return r
}

// ValidateCatalog validates every record and flags duplicate ids.
func ValidateCatalog(records []catalog.ModelRecord) *Result {
	r := &Result{}
	seen := make(map[string]bool, len(records))
	for _, m := range records {
		if m.ID != "" && seen[m.ID] {
			r.Issues = append(r.Issues, Issue{SeverityError, m.ID, "id", "duplicate id in snapshot"})
		}
		seen[m.ID] = true
		r.Issues = append(r.Issues, ValidateModel(m).Issues...)
	}
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		b.WriteString(fmt.Sprintf("Errors (%d):\n", len(errors)))
		for _, e := range errors {
			b.WriteString(fmt.Sprintf("  %s\n", e))
		}
	}

	if len(warnings) > 0 {
		b.WriteString(fmt.Sprintf("Warnings (%d):\n", len(warnings)))
		for _, w := range warnings {
			b.WriteString(fmt.Sprintf("  %s\n", w))
		}
	}

	return b.String()
}
