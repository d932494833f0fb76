package types

import (
	"encoding/json"
	"testing"
)

func TestResolvePortfolioFallbackOrder(t *testing.T) {
	t.Run("CanonicalKey", func(t *testing.T) {
		payload := `{
			"request_id": "req-1",
			"company_name": "Acme",
			"research_status": "completed",
			"portfolio_data": {"domain": "acme.com", "technologies": ["go", "react"]}
		}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData == nil {
			t.Fatal("expected portfolio data to be resolved")
		}
		if resp.PortfolioData.Domain != "acme.com" {
			t.Errorf("expected domain 'acme.com', got '%s'", resp.PortfolioData.Domain)
		}
	})

	t.Run("LegacyTopLevelKey", func(t *testing.T) {
		payload := `{
			"request_id": "req-2",
			"company_name": "Acme",
			"research_status": "completed",
			"portfolio": {"domain": "acme.io", "industries": ["saas"]}
		}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData == nil {
			t.Fatal("expected portfolio data from legacy key")
		}
		if resp.PortfolioData.Domain != "acme.io" {
			t.Errorf("expected domain 'acme.io', got '%s'", resp.PortfolioData.Domain)
		}
	})

	t.Run("NestedResearchData", func(t *testing.T) {
		payload := `{
			"request_id": "req-3",
			"company_name": "Acme",
			"research_status": "completed",
			"research_data": {"portfolio_data": {"domain": "nested.dev"}}
		}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData == nil || resp.PortfolioData.Domain != "nested.dev" {
			t.Fatalf("expected nested portfolio data, got %+v", resp.PortfolioData)
		}
	})

	t.Run("TaskResultFallback", func(t *testing.T) {
		payload := `{
			"request_id": "req-4",
			"company_name": "Acme",
			"research_status": "completed",
			"task_results": [
				{"source": "web_search", "status": "completed", "processing_time": 0.4, "timestamp": "2024-01-01T00:00:00Z"},
				{"source": "portfolio_research", "status": "completed", "processing_time": 1.2, "timestamp": "2024-01-01T00:00:00Z",
				 "data": {"domain": "task.example", "projects": ["alpha"]}}
			]
		}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData == nil || resp.PortfolioData.Domain != "task.example" {
			t.Fatalf("expected task-result portfolio data, got %+v", resp.PortfolioData)
		}
	})

	t.Run("CanonicalWinsOverLegacy", func(t *testing.T) {
		payload := `{
			"request_id": "req-5",
			"company_name": "Acme",
			"research_status": "completed",
			"portfolio_data": {"domain": "new.example"},
			"portfolio": {"domain": "old.example"}
		}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData.Domain != "new.example" {
			t.Errorf("expected canonical key to win, got '%s'", resp.PortfolioData.Domain)
		}
	})

	t.Run("EmptyStubDoesNotShadow", func(t *testing.T) {
		payload := `{
			"request_id": "req-6",
			"company_name": "Acme",
			"research_status": "completed",
			"portfolio_data": {},
			"portfolio": {"domain": "real.example"}
		}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData == nil || resp.PortfolioData.Domain != "real.example" {
			t.Fatalf("expected legacy data to win over empty stub, got %+v", resp.PortfolioData)
		}
	})

	t.Run("NoPortfolioAnywhere", func(t *testing.T) {
		payload := `{"request_id": "req-7", "company_name": "Acme", "research_status": "completed"}`

		var resp CompanyResearchResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.PortfolioData != nil {
			t.Errorf("expected nil portfolio data, got %+v", resp.PortfolioData)
		}
	})
}

func TestResearchStatusTerminal(t *testing.T) {
	terminal := []ResearchStatus{StatusCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	nonTerminal := []ResearchStatus{StatusPending, StatusInProgress, StatusPartial}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestCompanyResearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request CompanyResearchRequest
		wantErr bool
	}{
		{"NameOnly", CompanyResearchRequest{CompanyName: "Acme"}, false},
		{"DomainOnly", CompanyResearchRequest{CompanyDomain: "acme.com"}, false},
		{"Both", CompanyResearchRequest{CompanyName: "Acme", CompanyDomain: "acme.com", ResearchDepth: DepthStandard}, false},
		{"Neither", CompanyResearchRequest{ResearchDepth: DepthBasic}, true},
		{"BadDepth", CompanyResearchRequest{CompanyName: "Acme", ResearchDepth: "extreme"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
