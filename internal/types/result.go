package types

import (
	"encoding/json"
	"time"
)

// CompanyResearchResponse is the full synthesized research payload.
// It is fetched once after a job reaches a terminal Completed status
// and is not mutated afterwards.
type CompanyResearchResponse struct {
	RequestID string `json:"request_id"`

	CompanyName   string `json:"company_name"`
	CompanyDomain string `json:"company_domain,omitempty"`

	WHOISData                *WHOISData                `json:"whois_data,omitempty"`
	WebSearchResults         []WebSearchResult         `json:"web_search_results,omitempty"`
	KnowledgeGraphData       *KnowledgeGraphData       `json:"knowledge_graph_data,omitempty"`
	LocationVerificationData *LocationVerificationData `json:"location_verification_data,omitempty"`

	CompanyAuthenticity *CompanyAuthenticity `json:"company_authenticity,omitempty"`
	EmployeeInsights    *EmployeeInsights    `json:"employee_insights,omitempty"`
	PortfolioData       *PortfolioData       `json:"portfolio_data,omitempty"`

	ExecutiveSummary string   `json:"executive_summary"`
	KeyInsights      []string `json:"key_insights"`
	RiskAssessment   string   `json:"risk_assessment"`
	Recommendations  []string `json:"recommendations"`

	ResearchDepth       ResearchDepth    `json:"research_depth"`
	ResearchStatus      ResearchStatus   `json:"research_status"`
	TotalProcessingTime float64          `json:"total_processing_time"`
	TotalCost           *float64         `json:"total_cost,omitempty"`
	SourcesUsed         []ResearchSource `json:"sources_used"`
	FailedSources       []ResearchSource `json:"failed_sources"`
	Timestamp           time.Time        `json:"timestamp"`

	AuthenticityScore float64 `json:"authenticity_score"`

	TaskResults []ResearchTaskResult `json:"task_results"`
}

// UnmarshalJSON decodes the response and resolves the portfolio payload
// from whichever of the known locations the backend used. The shape
// probing happens exactly once here, at the wire boundary; everything
// downstream sees only the canonical PortfolioData field.
func (r *CompanyResearchResponse) UnmarshalJSON(b []byte) error {
	type plain CompanyResearchResponse
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = CompanyResearchResponse(p)

	if r.PortfolioData == nil || r.PortfolioData.Domain == "" {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(b, &raw); err == nil {
			if pd := ResolvePortfolio(raw, r.TaskResults); pd != nil {
				r.PortfolioData = pd
			}
		}
	}
	return nil
}

// QuickCheck reduces a basic-depth research result to the short
// verification summary
func (r *CompanyResearchResponse) QuickCheck() QuickCheckResult {
	authenticity := "unknown"
	if r.WHOISData != nil {
		authenticity = "verified"
	}

	return QuickCheckResult{
		CompanyName:       r.CompanyName,
		CompanyDomain:     r.CompanyDomain,
		DomainVerified:    r.WHOISData != nil,
		WebPresence:       len(r.WebSearchResults) > 0,
		BasicAuthenticity: authenticity,
		ResearchStatus:    r.ResearchStatus,
		ProcessingTime:    r.TotalProcessingTime,
	}
}

// ResolvePortfolio probes the known portfolio payload locations in a
// fixed fallback order and returns the first one that decodes:
//
//  1. top-level "portfolio_data" (current shape)
//  2. top-level "portfolio" (pre-rename shape)
//  3. "research_data" object, either key (aggregation passthrough)
//  4. the portfolio_research task result's data field
//
// A location only wins if it yields a payload with at least a domain,
// so an empty stub under a newer key does not shadow real data under
// an older one.
func ResolvePortfolio(raw map[string]json.RawMessage, tasks []ResearchTaskResult) *PortfolioData {
	for _, key := range []string{"portfolio_data", "portfolio"} {
		if pd := decodePortfolio(raw[key]); pd != nil {
			return pd
		}
	}

	if nested, ok := raw["research_data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			for _, key := range []string{"portfolio_data", "portfolio"} {
				if pd := decodePortfolio(inner[key]); pd != nil {
					return pd
				}
			}
		}
	}

	for _, task := range tasks {
		if task.Source != SourcePortfolioResearch || task.Data == nil {
			continue
		}
		b, err := json.Marshal(task.Data)
		if err != nil {
			continue
		}
		if pd := decodePortfolio(b); pd != nil {
			return pd
		}
	}

	return nil
}

func decodePortfolio(b json.RawMessage) *PortfolioData {
	if len(b) == 0 {
		return nil
	}
	var pd PortfolioData
	if err := json.Unmarshal(b, &pd); err != nil {
		return nil
	}
	if pd.Domain == "" {
		return nil
	}
	return &pd
}
