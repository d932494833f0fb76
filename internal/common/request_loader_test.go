package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

func TestLoadResearchRequest(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid request file", func(t *testing.T) {
		path := filepath.Join(dir, "request.json")
		payload := `{"company_name": "Acme Corp", "company_domain": "acme.example", "research_depth": "comprehensive", "include_employee_reviews": true}`
		if err := os.WriteFile(path, []byte(payload), 0600); err != nil {
			t.Fatal(err)
		}

		req, err := LoadResearchRequest(nil, path)
		if err != nil {
			t.Fatalf("LoadResearchRequest() error = %v", err)
		}
		if req.CompanyName != "Acme Corp" {
			t.Errorf("CompanyName = %q, want %q", req.CompanyName, "Acme Corp")
		}
		if req.ResearchDepth != types.DepthComprehensive {
			t.Errorf("ResearchDepth = %q, want %q", req.ResearchDepth, types.DepthComprehensive)
		}
		if !req.IncludeEmployeeReviews {
			t.Error("IncludeEmployeeReviews = false, want true")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadResearchRequest(nil, filepath.Join(dir, "missing.json"))
		if err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadResearchRequest(nil, path)
		if err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

func TestOutputHandlerWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "result.json")

	handler := NewOutputHandler(nil)
	err := handler.fileProcessor.ValidateOutputFile(path)
	if err != nil {
		t.Fatalf("ValidateOutputFile() error = %v", err)
	}
	if err := handler.fileProcessor.WriteFile(path, "{}"); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "{}" {
		t.Errorf("file content = %q, want %q", string(content), "{}")
	}
}
