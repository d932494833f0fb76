package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayushhunt/jobhelp-sub000/internal/types"
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
	registry.RegisterFormatter("text", "CompanyResearchResponse", &ResearchTextFormatter{})
	registry.RegisterFormatter("markdown", "CompanyResearchResponse", &ResearchMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResearchProgress", &ProgressTextFormatter{})
	registry.RegisterFormatter("markdown", "ResearchProgress", &ProgressTextFormatter{})
	registry.RegisterFormatter("text", "QuickCheckResult", &QuickCheckTextFormatter{})
	registry.RegisterFormatter("markdown", "QuickCheckResult", &QuickCheckMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResearchCostEstimate", &CostTextFormatter{})
	registry.RegisterFormatter("markdown", "ResearchCostEstimate", &CostMarkdownFormatter{})

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
	case *types.CompanyResearchResponse:
		return "CompanyResearchResponse"
	case *types.ResearchProgress:
		return "ResearchProgress"
	case *types.QuickCheckResult:
		return "QuickCheckResult"
	case *types.ResearchCostEstimate:
		return "ResearchCostEstimate"
	default:
		return "any"
	}
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

// ResearchTextFormatter handles text formatting for research results
type ResearchTextFormatter struct{}

func (rtf *ResearchTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.CompanyResearchResponse)
	if !ok {
		return "", fmt.Errorf("expected *CompanyResearchResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== COMPANY RESEARCH ===\n\n")
	output.WriteString(fmt.Sprintf("Company: %s\n", result.CompanyName))
	if result.CompanyDomain != "" {
		output.WriteString(fmt.Sprintf("Domain: %s\n", result.CompanyDomain))
	}
	output.WriteString(fmt.Sprintf("Status: %s\n", result.ResearchStatus))
	output.WriteString(fmt.Sprintf("Depth: %s\n", result.ResearchDepth))
	output.WriteString(fmt.Sprintf("Authenticity Score: %.0f/100\n\n", result.AuthenticityScore))

	if result.ExecutiveSummary != "" {
		output.WriteString("=== EXECUTIVE SUMMARY ===\n")
		output.WriteString(result.ExecutiveSummary)
		output.WriteString("\n\n")
	}

	if len(result.KeyInsights) > 0 {
		output.WriteString("=== KEY INSIGHTS ===\n")
		for _, insight := range result.KeyInsights {
			output.WriteString(fmt.Sprintf("- %s\n", insight))
		}
		output.WriteString("\n")
	}

	if result.RiskAssessment != "" {
		output.WriteString("=== RISK ASSESSMENT ===\n")
		output.WriteString(result.RiskAssessment)
		output.WriteString("\n\n")
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n")
		for _, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		output.WriteString("\n")
	}

	if result.WHOISData != nil {
		output.WriteString("=== DOMAIN REGISTRATION ===\n")
		output.WriteString(fmt.Sprintf("Registrar: %s\n", result.WHOISData.Registrar))
		if result.WHOISData.CreationDate != nil {
			output.WriteString(fmt.Sprintf("Registered: %s\n", result.WHOISData.CreationDate.Format("2006-01-02")))
		}
		if len(result.WHOISData.NameServers) > 0 {
			output.WriteString(fmt.Sprintf("Name Servers: %s\n", strings.Join(result.WHOISData.NameServers, ", ")))
		}
		output.WriteString("\n")
	}

	if result.PortfolioData != nil {
		output.WriteString("=== PORTFOLIO ===\n")
		output.WriteString(fmt.Sprintf("Domain: %s\n", result.PortfolioData.Domain))
		if len(result.PortfolioData.Technologies) > 0 {
			output.WriteString(fmt.Sprintf("Technologies: %s\n", strings.Join(result.PortfolioData.Technologies, ", ")))
		}
		if len(result.PortfolioData.Industries) > 0 {
			output.WriteString(fmt.Sprintf("Industries: %s\n", strings.Join(result.PortfolioData.Industries, ", ")))
		}
		output.WriteString("\n")
	}

	output.WriteString("=== SOURCES ===\n")
	output.WriteString(fmt.Sprintf("Used: %s\n", joinSources(result.SourcesUsed)))
	if len(result.FailedSources) > 0 {
		output.WriteString(fmt.Sprintf("Failed: %s\n", joinSources(result.FailedSources)))
	}
	output.WriteString(fmt.Sprintf("Processing Time: %.1fs\n", result.TotalProcessingTime))
	if result.TotalCost != nil {
		output.WriteString(fmt.Sprintf("Cost: $%.4f\n", *result.TotalCost))
	}

	return output.String(), nil
}

func (rtf *ResearchTextFormatter) SupportedType() string {
	return "CompanyResearchResponse"
}

// ResearchMarkdownFormatter handles markdown formatting for research results
type ResearchMarkdownFormatter struct{}

func (rmf *ResearchMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.CompanyResearchResponse)
	if !ok {
		return "", fmt.Errorf("expected *CompanyResearchResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString(fmt.Sprintf("# Company Research: %s\n\n", result.CompanyName))
	if result.CompanyDomain != "" {
		output.WriteString(fmt.Sprintf("**Domain:** %s  \n", result.CompanyDomain))
	}
	output.WriteString(fmt.Sprintf("**Status:** %s  \n", result.ResearchStatus))
	output.WriteString(fmt.Sprintf("**Depth:** %s  \n", result.ResearchDepth))
	output.WriteString(fmt.Sprintf("**Authenticity Score:** %.0f/100\n\n", result.AuthenticityScore))

	if result.ExecutiveSummary != "" {
		output.WriteString("## Executive Summary\n\n")
		output.WriteString(result.ExecutiveSummary)
		output.WriteString("\n\n")
	}

	if len(result.KeyInsights) > 0 {
		output.WriteString("## Key Insights\n\n")
		for _, insight := range result.KeyInsights {
			output.WriteString(fmt.Sprintf("- %s\n", insight))
		}
		output.WriteString("\n")
	}

	if result.RiskAssessment != "" {
		output.WriteString("## Risk Assessment\n\n")
		output.WriteString(result.RiskAssessment)
		output.WriteString("\n\n")
	}

	if len(result.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for _, rec := range result.Recommendations {
			output.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		output.WriteString("\n")
	}

	if auth := result.CompanyAuthenticity; auth != nil {
		output.WriteString("## Authenticity\n\n")
		output.WriteString(fmt.Sprintf("**Assessment:** %s\n\n", auth.OverallAssessment))
		for _, indicator := range auth.TrustIndicators {
			output.WriteString(fmt.Sprintf("- Trust: %s\n", indicator))
		}
		for _, risk := range auth.RiskFactors {
			output.WriteString(fmt.Sprintf("- Risk: %s\n", risk))
		}
		output.WriteString("\n")
	}

	output.WriteString("## Sources\n\n")
	output.WriteString(fmt.Sprintf("**Used:** %s  \n", joinSources(result.SourcesUsed)))
	if len(result.FailedSources) > 0 {
		output.WriteString(fmt.Sprintf("**Failed:** %s  \n", joinSources(result.FailedSources)))
	}
	output.WriteString(fmt.Sprintf("**Processing Time:** %.1fs\n", result.TotalProcessingTime))

	return output.String(), nil
}

func (rmf *ResearchMarkdownFormatter) SupportedType() string {
	return "CompanyResearchResponse"
}

// ProgressTextFormatter renders a one-line progress snapshot, used for
// both text and markdown output
type ProgressTextFormatter struct{}

func (ptf *ProgressTextFormatter) Format(data any) (string, error) {
	progress, ok := data.(*types.ResearchProgress)
	if !ok {
		return "", fmt.Errorf("expected *ResearchProgress, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("[%5.1f%%] %s", progress.OverallProgress, progress.Status))
	if progress.CurrentTask != nil {
		output.WriteString(fmt.Sprintf(" (current: %s)", *progress.CurrentTask))
	}
	if len(progress.CompletedTasks) > 0 {
		output.WriteString(fmt.Sprintf(" (done: %s)", joinSources(progress.CompletedTasks)))
	}
	return output.String(), nil
}

func (ptf *ProgressTextFormatter) SupportedType() string {
	return "ResearchProgress"
}

// QuickCheckTextFormatter handles text formatting for quick checks
type QuickCheckTextFormatter struct{}

func (qtf *QuickCheckTextFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.QuickCheckResult)
	if !ok {
		return "", fmt.Errorf("expected *QuickCheckResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== QUICK COMPANY CHECK ===\n\n")
	output.WriteString(fmt.Sprintf("Company: %s\n", result.CompanyName))
	if result.CompanyDomain != "" {
		output.WriteString(fmt.Sprintf("Domain: %s\n", result.CompanyDomain))
	}
	output.WriteString(fmt.Sprintf("Domain Verified: %s\n", yesNo(result.DomainVerified)))
	output.WriteString(fmt.Sprintf("Web Presence: %s\n", yesNo(result.WebPresence)))
	output.WriteString(fmt.Sprintf("Basic Authenticity: %s\n", result.BasicAuthenticity))
	output.WriteString(fmt.Sprintf("Processing Time: %.1fs\n", result.ProcessingTime))
	return output.String(), nil
}

func (qtf *QuickCheckTextFormatter) SupportedType() string {
	return "QuickCheckResult"
}

// QuickCheckMarkdownFormatter handles markdown formatting for quick checks
type QuickCheckMarkdownFormatter struct{}

func (qmf *QuickCheckMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(*types.QuickCheckResult)
	if !ok {
		return "", fmt.Errorf("expected *QuickCheckResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# Quick Check: %s\n\n", result.CompanyName))
	output.WriteString("| Check | Result |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Domain verified | %s |\n", yesNo(result.DomainVerified)))
	output.WriteString(fmt.Sprintf("| Web presence | %s |\n", yesNo(result.WebPresence)))
	output.WriteString(fmt.Sprintf("| Basic authenticity | %s |\n", result.BasicAuthenticity))
	return output.String(), nil
}

func (qmf *QuickCheckMarkdownFormatter) SupportedType() string {
	return "QuickCheckResult"
}

// CostTextFormatter handles text formatting for cost estimates
type CostTextFormatter struct{}

func (ctf *CostTextFormatter) Format(data any) (string, error) {
	estimate, ok := data.(*types.ResearchCostEstimate)
	if !ok {
		return "", fmt.Errorf("expected *ResearchCostEstimate, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== RESEARCH COST ESTIMATE ===\n\n")
	output.WriteString(fmt.Sprintf("Estimated Total: $%.4f\n\n", estimate.EstimatedTotalCost))
	if len(estimate.CostBreakdown) > 0 {
		output.WriteString("Breakdown:\n")
		for _, source := range orderedSources(estimate.CostBreakdown) {
			output.WriteString(fmt.Sprintf("  %-22s $%.4f\n", source, estimate.CostBreakdown[source]))
		}
		output.WriteString("\n")
	}
	if len(estimate.CostOptimizationTips) > 0 {
		output.WriteString("Tips:\n")
		for _, tip := range estimate.CostOptimizationTips {
			output.WriteString(fmt.Sprintf("- %s\n", tip))
		}
	}
	return output.String(), nil
}

func (ctf *CostTextFormatter) SupportedType() string {
	return "ResearchCostEstimate"
}

// CostMarkdownFormatter handles markdown formatting for cost estimates
type CostMarkdownFormatter struct{}

func (cmf *CostMarkdownFormatter) Format(data any) (string, error) {
	estimate, ok := data.(*types.ResearchCostEstimate)
	if !ok {
		return "", fmt.Errorf("expected *ResearchCostEstimate, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Research Cost Estimate\n\n")
	output.WriteString(fmt.Sprintf("**Estimated Total:** $%.4f\n\n", estimate.EstimatedTotalCost))
	if len(estimate.CostBreakdown) > 0 {
		output.WriteString("| Source | Cost |\n|---|---|\n")
		for _, source := range orderedSources(estimate.CostBreakdown) {
			output.WriteString(fmt.Sprintf("| %s | $%.4f |\n", source, estimate.CostBreakdown[source]))
		}
		output.WriteString("\n")
	}
	for _, tip := range estimate.CostOptimizationTips {
		output.WriteString(fmt.Sprintf("- %s\n", tip))
	}
	return output.String(), nil
}

func (cmf *CostMarkdownFormatter) SupportedType() string {
	return "ResearchCostEstimate"
}

func joinSources(sources []types.ResearchSource) string {
	if len(sources) == 0 {
		return "none"
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// orderedSources returns breakdown keys in the catalog's canonical
// order so output is stable across runs
func orderedSources(breakdown map[types.ResearchSource]float64) []types.ResearchSource {
	canonical := []types.ResearchSource{
		types.SourceWHOIS,
		types.SourceWebSearch,
		types.SourceKnowledgeGraph,
		types.SourceAIAnalysis,
		types.SourceLocationVerification,
		types.SourcePortfolioResearch,
	}
	ordered := make([]types.ResearchSource, 0, len(breakdown))
	for _, source := range canonical {
		if _, ok := breakdown[source]; ok {
			ordered = append(ordered, source)
		}
	}
	for source := range breakdown {
		known := false
		for _, o := range ordered {
			if o == source {
				known = true
				break
			}
		}
		if !known {
			ordered = append(ordered, source)
		}
	}
	return ordered
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var GlobalRegistry = NewFormatterRegistry()
