package stubserver

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

func testRegistry() *JobRegistry {
	r := NewJobRegistry(nil, nil)
	r.sourceDuration = 5 * time.Millisecond
	return r
}

func testRequest() types.CompanyResearchRequest {
	return types.CompanyResearchRequest{
		CompanyName:   "Acme Corp",
		CompanyDomain: "acme.example",
		ResearchDepth: types.DepthStandard,
	}
}

func waitForDone(t *testing.T, r *JobRegistry, id string) {
	t.Helper()

	r.mu.Lock()
	job := r.jobs[id]
	r.mu.Unlock()

	if job == nil {
		t.Fatalf("job %s not registered", id)
	}

	select {
	case <-job.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("job %s did not finish in time", id)
	}
}

func TestResearchRunsFullPipeline(t *testing.T) {
	r := testRegistry()

	result, err := r.Research(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Research failed: %v", err)
	}

	if result.CompanyName != "Acme Corp" {
		t.Errorf("CompanyName = %q, want %q", result.CompanyName, "Acme Corp")
	}
	if result.ResearchStatus != types.StatusCompleted {
		t.Errorf("ResearchStatus = %q, want %q", result.ResearchStatus, types.StatusCompleted)
	}
	if len(result.SourcesUsed) != 3 {
		t.Errorf("SourcesUsed = %v, want 3 sources for standard depth", result.SourcesUsed)
	}
	if result.AuthenticityScore <= 0 || result.AuthenticityScore > 100 {
		t.Errorf("AuthenticityScore = %v, want a value in (0, 100]", result.AuthenticityScore)
	}
	if result.TotalCost == nil || *result.TotalCost != 0.05 {
		t.Errorf("TotalCost = %v, want 0.05 for standard depth", result.TotalCost)
	}
}

func TestSetMetricsKeepsRegistryUsable(t *testing.T) {
	r := testRegistry()

	// A nil argument must not clobber the attached instruments; the
	// pipeline records through r.metrics on every ai_analysis task.
	r.SetMetrics(nil)
	if r.metrics == nil {
		t.Fatal("SetMetrics(nil) left the registry without metrics")
	}

	req := testRequest()
	req.ResearchDepth = types.DepthComprehensive

	result, err := r.Research(context.Background(), req)
	if err != nil {
		t.Fatalf("Research failed: %v", err)
	}
	if !slices.Contains(result.SourcesUsed, types.SourceAIAnalysis) {
		t.Errorf("SourcesUsed = %v, want ai_analysis for comprehensive depth", result.SourcesUsed)
	}
}

func TestResearchRespectsContextCancellation(t *testing.T) {
	r := NewJobRegistry(nil, nil)
	r.sourceDuration = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Research(ctx, testRequest()); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestAsyncJobProgressAccounting(t *testing.T) {
	r := testRegistry()

	id := r.StartAsync(testRequest())
	waitForDone(t, r, id)

	progress, ok := r.Progress(id)
	if !ok {
		t.Fatalf("Progress(%s) not found", id)
	}
	if progress.Status != types.StatusCompleted {
		t.Errorf("Status = %q, want %q", progress.Status, types.StatusCompleted)
	}
	if progress.OverallProgress != 100 {
		t.Errorf("OverallProgress = %v, want 100", progress.OverallProgress)
	}
	if progress.CurrentTask != nil {
		t.Errorf("CurrentTask = %v, want nil after completion", *progress.CurrentTask)
	}
	if len(progress.CompletedTasks) != 3 {
		t.Errorf("CompletedTasks = %v, want 3 entries", progress.CompletedTasks)
	}
	if len(progress.FailedTasks) != 0 {
		t.Errorf("FailedTasks = %v, want none", progress.FailedTasks)
	}

	result, ok := r.Result(id)
	if !ok {
		t.Fatalf("Result(%s) not available after completion", id)
	}
	if result.RequestID != id {
		t.Errorf("RequestID = %q, want %q", result.RequestID, id)
	}
}

func TestWHOISFailsWithoutDomain(t *testing.T) {
	r := testRegistry()

	req := testRequest()
	req.CompanyDomain = ""

	id := r.StartAsync(req)
	waitForDone(t, r, id)

	progress, _ := r.Progress(id)
	if !slices.Contains(progress.FailedTasks, types.SourceWHOIS) {
		t.Errorf("FailedTasks = %v, want whois failure without a domain", progress.FailedTasks)
	}

	result, ok := r.Result(id)
	if !ok {
		t.Fatal("result should still be produced when one source fails")
	}
	if result.ResearchStatus != types.StatusPartial {
		t.Errorf("ResearchStatus = %q, want %q", result.ResearchStatus, types.StatusPartial)
	}
}

func TestCancelMarksJobFailed(t *testing.T) {
	r := NewJobRegistry(nil, nil)
	r.sourceDuration = time.Minute

	id := r.StartAsync(testRequest())

	if !r.Cancel(id) {
		t.Fatalf("Cancel(%s) = false, want true", id)
	}
	waitForDone(t, r, id)

	progress, ok := r.Progress(id)
	if !ok {
		t.Fatalf("Progress(%s) not found after cancel", id)
	}
	if progress.Status != types.StatusFailed {
		t.Errorf("Status = %q, want %q after cancellation", progress.Status, types.StatusFailed)
	}
	if progress.OverallProgress != 0 {
		t.Errorf("OverallProgress = %v, want 0 after cancellation", progress.OverallProgress)
	}

	if _, ok := r.Result(id); ok {
		t.Error("Result should not be available for a cancelled job")
	}
}

func TestCancelUnknownJob(t *testing.T) {
	r := testRegistry()

	if r.Cancel("no-such-id") {
		t.Error("Cancel of unknown request ID should return false")
	}
}

func TestActiveCount(t *testing.T) {
	r := NewJobRegistry(nil, nil)
	r.sourceDuration = time.Minute

	if got := r.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount = %d, want 0", got)
	}

	id := r.StartAsync(testRequest())
	if got := r.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount = %d, want 1 with a running job", got)
	}

	r.Cancel(id)
	waitForDone(t, r, id)
	if got := r.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount = %d, want 0 after cancellation", got)
	}
}

func TestCostEstimateValues(t *testing.T) {
	r := testRegistry()

	estimate := r.CostEstimate(types.DepthComprehensive)
	if estimate.EstimatedTotalCost != 0.07 {
		t.Errorf("EstimatedTotalCost = %v, want 0.07", estimate.EstimatedTotalCost)
	}
	if got := estimate.CostBreakdown[types.SourceWebSearch]; got != 0.05 {
		t.Errorf("web_search cost = %v, want 0.05", got)
	}
	if got := estimate.CostBreakdown[types.SourceAIAnalysis]; got != 0.02 {
		t.Errorf("ai_analysis cost = %v, want 0.02", got)
	}

	if !slices.Contains(estimate.CostOptimizationTips, "AI analysis adds cost but provides valuable insights") {
		t.Errorf("tips = %v, want AI analysis tip for comprehensive depth", estimate.CostOptimizationTips)
	}
	if len(estimate.AlternativeResearchOptions) != 2 {
		t.Errorf("AlternativeResearchOptions = %v, want basic and standard entries", estimate.AlternativeResearchOptions)
	}

	basic := r.CostEstimate(types.DepthBasic)
	if basic.EstimatedTotalCost != 0.05 {
		t.Errorf("basic EstimatedTotalCost = %v, want 0.05", basic.EstimatedTotalCost)
	}
	if len(basic.CostBreakdown) != 1 {
		t.Errorf("basic CostBreakdown = %v, want web_search only", basic.CostBreakdown)
	}
}

func TestSourceCatalog(t *testing.T) {
	r := testRegistry()

	catalog := r.SourceCatalog()
	if len(catalog.AvailableSources) != 6 {
		t.Errorf("AvailableSources has %d entries, want 6", len(catalog.AvailableSources))
	}

	portfolio, ok := catalog.AvailableSources[types.SourcePortfolioResearch]
	if !ok {
		t.Fatal("portfolio_research missing from catalog")
	}
	if !portfolio.Premium {
		t.Error("portfolio_research should be marked premium")
	}

	whois, ok := catalog.AvailableSources[types.SourceWHOIS]
	if !ok {
		t.Fatal("whois missing from catalog")
	}
	if whois.Premium {
		t.Error("whois should not be marked premium")
	}

	if got := catalog.ResearchDepths[types.DepthBasic]; len(got) != 1 {
		t.Errorf("basic pipeline = %v, want web_search only", got)
	}
	if got := catalog.ResearchDepths[types.DepthComprehensive]; len(got) != 4 {
		t.Errorf("comprehensive pipeline = %v, want 4 sources", got)
	}
}
