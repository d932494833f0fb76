package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

func sampleResult() *types.CompanyResearchResponse {
	cost := 0.0425
	return &types.CompanyResearchResponse{
		RequestID:           "req-1",
		CompanyName:         "Acme Corp",
		CompanyDomain:       "acme.example",
		ExecutiveSummary:    "Acme Corp appears to be an established company.",
		KeyInsights:         []string{"Domain registered 12 years ago", "Strong web presence"},
		RiskAssessment:      "Low risk profile based on available signals.",
		Recommendations:     []string{"Proceed with standard due diligence"},
		ResearchDepth:       types.DepthStandard,
		ResearchStatus:      types.StatusCompleted,
		TotalProcessingTime: 7.5,
		TotalCost:           &cost,
		SourcesUsed:         []types.ResearchSource{types.SourceWHOIS, types.SourceWebSearch},
		FailedSources:       []types.ResearchSource{types.SourceKnowledgeGraph},
		AuthenticityScore:   82,
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleResult(), "json")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded types.CompanyResearchResponse
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.CompanyName != "Acme Corp" {
		t.Errorf("company_name = %q, want %q", decoded.CompanyName, "Acme Corp")
	}
	if !strings.Contains(out, "\n  ") {
		t.Error("expected indented JSON output")
	}
}

func TestResearchTextFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleResult(), "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, want := range []string{
		"=== COMPANY RESEARCH ===",
		"Company: Acme Corp",
		"Authenticity Score: 82/100",
		"=== EXECUTIVE SUMMARY ===",
		"=== KEY INSIGHTS ===",
		"- Domain registered 12 years ago",
		"=== RECOMMENDATIONS ===",
		"Used: whois, web_search",
		"Failed: knowledge_graph",
		"Cost: $0.0425",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestResearchMarkdownFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleResult(), "markdown")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, want := range []string{
		"# Company Research: Acme Corp",
		"## Executive Summary",
		"## Key Insights",
		"**Used:** whois, web_search",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestProgressFormatter(t *testing.T) {
	registry := NewFormatterRegistry()
	current := types.SourceWebSearch
	progress := &types.ResearchProgress{
		RequestID:       "req-1",
		CompanyName:     "Acme Corp",
		OverallProgress: 42.5,
		CompletedTasks:  []types.ResearchSource{types.SourceWHOIS},
		CurrentTask:     &current,
		Status:          types.StatusInProgress,
	}

	out, err := registry.Format(progress, "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	for _, want := range []string{"42.5%", "in_progress", "(current: web_search)", "done: whois"} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output missing %q in %q", want, out)
		}
	}
}

func TestQuickCheckFormatters(t *testing.T) {
	registry := NewFormatterRegistry()
	result := &types.QuickCheckResult{
		CompanyName:       "Acme Corp",
		CompanyDomain:     "acme.example",
		DomainVerified:    true,
		WebPresence:       false,
		BasicAuthenticity: "verified",
		ResearchStatus:    types.StatusCompleted,
		ProcessingTime:    1.2,
	}

	text, err := registry.Format(result, "text")
	if err != nil {
		t.Fatalf("Format(text) error = %v", err)
	}
	if !strings.Contains(text, "Domain Verified: yes") || !strings.Contains(text, "Web Presence: no") {
		t.Errorf("unexpected quick check text output:\n%s", text)
	}

	md, err := registry.Format(result, "markdown")
	if err != nil {
		t.Fatalf("Format(markdown) error = %v", err)
	}
	if !strings.Contains(md, "| Domain verified | yes |") {
		t.Errorf("unexpected quick check markdown output:\n%s", md)
	}
}

func TestCostFormatterStableOrder(t *testing.T) {
	registry := NewFormatterRegistry()
	estimate := &types.ResearchCostEstimate{
		EstimatedTotalCost: 0.09,
		CostBreakdown: map[types.ResearchSource]float64{
			types.SourceKnowledgeGraph: 0.03,
			types.SourceWHOIS:          0.01,
			types.SourceWebSearch:      0.05,
		},
		CostOptimizationTips: []string{"Use basic depth for a first pass"},
	}

	out, err := registry.Format(estimate, "text")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	whoisIdx := strings.Index(out, "whois")
	webIdx := strings.Index(out, "web_search")
	kgIdx := strings.Index(out, "knowledge_graph")
	if whoisIdx == -1 || webIdx == -1 || kgIdx == -1 {
		t.Fatalf("breakdown entries missing:\n%s", out)
	}
	if !(whoisIdx < webIdx && webIdx < kgIdx) {
		t.Errorf("breakdown not in canonical order:\n%s", out)
	}
}

func TestFallbackToJSONForUnknownType(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(map[string]string{"key": "value"}, "json")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(out, `"key": "value"`) {
		t.Errorf("unexpected fallback output: %s", out)
	}
}

func TestUnknownFormatFails(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, err := registry.Format(sampleResult(), "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
