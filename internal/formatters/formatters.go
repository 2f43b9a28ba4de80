package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvforge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ProcessResult", &ProcessTextFormatter{})
	registry.RegisterFormatter("markdown", "ProcessResult", &ProcessMarkdownFormatter{})
	registry.RegisterFormatter("text", "StructuredJob", &StructuredJobTextFormatter{})
	registry.RegisterFormatter("markdown", "StructuredJob", &StructuredJobMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ProcessResult, *types.ProcessResult:
		return "ProcessResult"
	case types.StructuredJob, *types.StructuredJob:
		return "StructuredJob"
	default:
		return "any"
	}
}

// asProcessResult normalizes pointer and value forms
func asProcessResult(data any) (*types.ProcessResult, bool) {
	switch v := data.(type) {
	case *types.ProcessResult:
		return v, v != nil
	case types.ProcessResult:
		return &v, true
	}
	return nil, false
}

// asStructuredJob normalizes pointer and value forms
func asStructuredJob(data any) (*types.StructuredJob, bool) {
	switch v := data.(type) {
	case *types.StructuredJob:
		return v, v != nil
	case types.StructuredJob:
		return &v, true
	}
	return nil, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ProcessTextFormatter handles text formatting for full pipeline results
type ProcessTextFormatter struct{}

func (ptf *ProcessTextFormatter) Format(data any) (string, error) {
	result, ok := asProcessResult(data)
	if !ok {
		return "", fmt.Errorf("expected ProcessResult, got %T", data)
	}

	var output strings.Builder

	if result.Resume != nil {
		output.WriteString("=== RESUME ===\n\n")
		output.WriteString(result.Resume.Personal.Name)
		if result.Resume.Personal.Title != "" {
			output.WriteString(" - " + result.Resume.Personal.Title)
		}
		output.WriteString("\n\n")

		output.WriteString("Profile:\n")
		output.WriteString(result.Resume.Profile)
		output.WriteString("\n\n")

		output.WriteString("Experience:\n")
		for _, exp := range result.Resume.Experience {
			output.WriteString(fmt.Sprintf("%s | %s | %s to %s\n", exp.Role, exp.Company, exp.StartDate, exp.EndDate))
			if exp.Context != "" {
				output.WriteString(exp.Context + "\n")
			}
			for _, bullet := range exp.Bullets {
				output.WriteString(fmt.Sprintf("- %s\n", bullet))
			}
			output.WriteString("\n")
		}

		output.WriteString("Technical Skills: ")
		output.WriteString(strings.Join(result.Resume.Skills.Technical, ", "))
		output.WriteString("\n")
		if len(result.Resume.Skills.Soft) > 0 {
			output.WriteString("Soft Skills: ")
			output.WriteString(strings.Join(result.Resume.Skills.Soft, ", "))
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	output.WriteString("=== COVER LETTER ===\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	output.WriteString("=== SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Language: %s\n", result.Metadata.Language))
	output.WriteString(fmt.Sprintf("Average ATS score: %.1f/100\n", result.Metadata.AverageATSScore))
	output.WriteString(fmt.Sprintf("Experiences: %d total (%d enhanced, %d direct)\n",
		result.Metadata.Experiences.Total,
		result.Metadata.Experiences.Enhanced,
		result.Metadata.Experiences.Direct))
	output.WriteString(fmt.Sprintf("Cover letter: %d words\n", result.Metadata.CoverLetterWordCount))
	output.WriteString(fmt.Sprintf("Processing time: %.2fs\n", result.Metadata.ProcessingTimeSeconds))

	return output.String(), nil
}

func (ptf *ProcessTextFormatter) SupportedType() string {
	return "ProcessResult"
}

// ProcessMarkdownFormatter handles markdown formatting for full pipeline results
type ProcessMarkdownFormatter struct{}

func (pmf *ProcessMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asProcessResult(data)
	if !ok {
		return "", fmt.Errorf("expected ProcessResult, got %T", data)
	}

	var output strings.Builder

	if result.Resume != nil {
		output.WriteString("# " + result.Resume.Personal.Name + "\n\n")
		if result.Resume.Personal.Title != "" {
			output.WriteString("*" + result.Resume.Personal.Title + "*\n\n")
		}

		output.WriteString("## Profile\n\n")
		output.WriteString(result.Resume.Profile)
		output.WriteString("\n\n")

		output.WriteString("## Experience\n\n")
		for _, exp := range result.Resume.Experience {
			output.WriteString(fmt.Sprintf("### %s, %s\n\n", exp.Role, exp.Company))
			output.WriteString(fmt.Sprintf("*%s to %s", exp.StartDate, exp.EndDate))
			if exp.Location != "" {
				output.WriteString(", " + exp.Location)
			}
			output.WriteString("*\n\n")
			if exp.Context != "" {
				output.WriteString(exp.Context + "\n\n")
			}
			for _, bullet := range exp.Bullets {
				output.WriteString(fmt.Sprintf("- %s\n", bullet))
			}
			output.WriteString("\n")
		}

		output.WriteString("## Skills\n\n")
		output.WriteString("**Technical:** ")
		output.WriteString(strings.Join(result.Resume.Skills.Technical, ", "))
		output.WriteString("\n\n")
		if len(result.Resume.Skills.Soft) > 0 {
			output.WriteString("**Soft:** ")
			output.WriteString(strings.Join(result.Resume.Skills.Soft, ", "))
			output.WriteString("\n\n")
		}
	}

	output.WriteString("## Cover Letter\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	output.WriteString("## Summary\n\n")
	output.WriteString(fmt.Sprintf("- **Language:** %s\n", result.Metadata.Language))
	output.WriteString(fmt.Sprintf("- **Average ATS score:** %.1f/100\n", result.Metadata.AverageATSScore))
	output.WriteString(fmt.Sprintf("- **Experiences:** %d total (%d enhanced, %d direct)\n",
		result.Metadata.Experiences.Total,
		result.Metadata.Experiences.Enhanced,
		result.Metadata.Experiences.Direct))
	output.WriteString(fmt.Sprintf("- **Cover letter:** %d words\n", result.Metadata.CoverLetterWordCount))
	output.WriteString(fmt.Sprintf("- **Processing time:** %.2fs\n", result.Metadata.ProcessingTimeSeconds))

	return output.String(), nil
}

func (pmf *ProcessMarkdownFormatter) SupportedType() string {
	return "ProcessResult"
}

// StructuredJobTextFormatter handles text formatting for structured jobs
type StructuredJobTextFormatter struct{}

func (sjf *StructuredJobTextFormatter) Format(data any) (string, error) {
	job, ok := asStructuredJob(data)
	if !ok {
		return "", fmt.Errorf("expected StructuredJob, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== STRUCTURED JOB ===\n\n")
	output.WriteString(fmt.Sprintf("Title: %s\n", job.Title))
	output.WriteString(fmt.Sprintf("Company: %s\n", job.Company))
	if job.Location.City != "" {
		output.WriteString(fmt.Sprintf("Location: %s (%s)\n", job.Location.City, job.Location.RemotePolicy))
	}
	output.WriteString(fmt.Sprintf("Language: %s\n\n", job.Language))

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		output.WriteString(title + ":\n")
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}

	writeList("Required Skills", job.RequiredSkills)
	writeList("Must Have", job.TechnicalPriorities.MustHave)
	writeList("Preferred", job.TechnicalPriorities.Preferred)
	writeList("Keywords", job.Keywords)
	writeList("Soft Skills", job.SoftSkills)
	writeList("Responsibilities", job.Responsibilities)
	writeList("Action Verbs", job.ActionVerbs)

	return output.String(), nil
}

func (sjf *StructuredJobTextFormatter) SupportedType() string {
	return "StructuredJob"
}

// StructuredJobMarkdownFormatter handles markdown formatting for structured jobs
type StructuredJobMarkdownFormatter struct{}

func (sjmf *StructuredJobMarkdownFormatter) Format(data any) (string, error) {
	job, ok := asStructuredJob(data)
	if !ok {
		return "", fmt.Errorf("expected StructuredJob, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n", job.Title))
	output.WriteString(fmt.Sprintf("**Company:** %s\n\n", job.Company))
	if job.Location.City != "" {
		output.WriteString(fmt.Sprintf("**Location:** %s (%s)\n\n", job.Location.City, job.Location.RemotePolicy))
	}
	output.WriteString(fmt.Sprintf("**Language:** %s\n\n", job.Language))

	writeSection := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		output.WriteString("## " + title + "\n\n")
		for _, item := range items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}

	writeSection("Required Skills", job.RequiredSkills)
	writeSection("Must Have", job.TechnicalPriorities.MustHave)
	writeSection("Preferred", job.TechnicalPriorities.Preferred)
	writeSection("Keywords", job.Keywords)
	writeSection("Soft Skills", job.SoftSkills)
	writeSection("Responsibilities", job.Responsibilities)
	writeSection("Action Verbs", job.ActionVerbs)

	return output.String(), nil
}

func (sjmf *StructuredJobMarkdownFormatter) SupportedType() string {
	return "StructuredJob"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
