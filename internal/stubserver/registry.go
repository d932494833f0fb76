package stubserver

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/observability"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

// defaultSourceDuration is how long each simulated research source takes.
// Long enough that a client polling every two seconds observes at least
// one intermediate progress snapshot for standard depth.
const defaultSourceDuration = 3 * time.Second

// pipelineConfig maps research depth to the sources that run for it
var pipelineConfig = map[types.ResearchDepth][]types.ResearchSource{
	types.DepthBasic:    {types.SourceWebSearch},
	types.DepthStandard: {types.SourceWHOIS, types.SourceWebSearch, types.SourceKnowledgeGraph},
	types.DepthComprehensive: {
		types.SourceWHOIS,
		types.SourceWebSearch,
		types.SourceKnowledgeGraph,
		types.SourceAIAnalysis,
	},
}

// sourceCosts holds the per-request cost estimate for each source
var sourceCosts = map[types.ResearchSource]float64{
	types.SourceWHOIS:                0.0,
	types.SourceWebSearch:            0.05,
	types.SourceKnowledgeGraph:       0.0,
	types.SourceAIAnalysis:           0.02,
	types.SourceLocationVerification: 0.017,
	types.SourcePortfolioResearch:    0.07,
}

var sourceDescriptions = map[types.ResearchSource]string{
	types.SourceWHOIS:                "Domain registration lookup (registrar, age, name servers)",
	types.SourceWebSearch:            "Web search for company mentions, news and reviews",
	types.SourceKnowledgeGraph:       "Knowledge graph entity lookup (industry, size, leadership)",
	types.SourceAIAnalysis:           "AI synthesis of collected data into insights and risk assessment",
	types.SourceLocationVerification: "Cross-provider office location verification",
	types.SourcePortfolioResearch:    "Company portfolio and technology stack analysis",
}

// researchJob tracks one simulated research run
type researchJob struct {
	request     types.CompanyResearchRequest
	progress    types.ResearchProgress
	result      *types.CompanyResearchResponse
	taskResults []types.ResearchTaskResult
	cancel      context.CancelFunc
	done        chan struct{}
	started     time.Time
}

// JobRegistry manages simulated research jobs keyed by request ID.
// It mirrors the behavior of the production research orchestrator:
// jobs advance source by source, progress snapshots accumulate
// completed and failed tasks, and cancellation marks the job failed.
type JobRegistry struct {
	mu             sync.Mutex
	jobs           map[string]*researchJob
	sourceDuration time.Duration
	insights       *InsightsGenerator
	metrics        *observability.Metrics
	logger         *errors.Logger
}

// NewJobRegistry creates a registry. insights may be nil, in which case
// the ai_analysis source falls back to canned output.
func NewJobRegistry(insights *InsightsGenerator, logger *errors.Logger) *JobRegistry {
	return &JobRegistry{
		jobs:           make(map[string]*researchJob),
		sourceDuration: defaultSourceDuration,
		insights:       insights,
		metrics:        &observability.Metrics{},
		logger:         logger,
	}
}

// SetMetrics attaches observability instruments to the registry. The
// zero-value Metrics used before attachment makes every recording a
// no-op.
func (r *JobRegistry) SetMetrics(m *observability.Metrics) {
	if m != nil {
		r.metrics = m
	}
}

// pipelineFor returns the sources to run for a depth, defaulting to standard
func pipelineFor(depth types.ResearchDepth) []types.ResearchSource {
	if sources, ok := pipelineConfig[depth]; ok {
		return sources
	}
	return pipelineConfig[types.DepthStandard]
}

// StartAsync registers a new job and runs its pipeline in the background
func (r *JobRegistry) StartAsync(req types.CompanyResearchRequest) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	job := &researchJob{
		request: req,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
		progress: types.ResearchProgress{
			RequestID:      id,
			CompanyName:    req.DisplayName(),
			CompletedTasks: []types.ResearchSource{},
			FailedTasks:    []types.ResearchSource{},
			Status:         types.StatusPending,
		},
	}

	r.mu.Lock()
	r.jobs[id] = job
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("Research job started",
			"request_id", id,
			"company", req.DisplayName(),
			"depth", string(req.ResearchDepth))
	}

	go r.run(ctx, id, job)
	return id
}

// run executes the simulated research pipeline for a job
func (r *JobRegistry) run(ctx context.Context, id string, job *researchJob) {
	defer close(job.done)

	sources := pipelineFor(job.request.ResearchDepth)
	total := len(sources)

	for i, source := range sources {
		current := source
		remaining := float64(total-i) * r.sourceDuration.Seconds()

		r.mu.Lock()
		job.progress.Status = types.StatusInProgress
		job.progress.CurrentTask = &current
		job.progress.EstimatedCompletionTime = &remaining
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			r.markCancelled(job)
			return
		case <-time.After(r.sourceDuration):
		}

		task := simulateSource(ctx, source, job.request, r.insights, r.metrics)

		r.mu.Lock()
		job.taskResults = append(job.taskResults, task)
		job.progress.OverallProgress = float64(i+1) / float64(total) * 100
		job.progress.CompletedTasks = append(job.progress.CompletedTasks, source)
		if task.Status == types.StatusFailed {
			job.progress.FailedTasks = append(job.progress.FailedTasks, source)
		}
		r.mu.Unlock()
	}

	result := buildResearchResponse(id, job.request, job.taskResults, job.started)

	r.mu.Lock()
	job.result = result
	job.progress.Status = types.StatusCompleted
	job.progress.OverallProgress = 100
	job.progress.CurrentTask = nil
	job.progress.EstimatedCompletionTime = nil
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("Research job completed",
			"request_id", id,
			"duration", time.Since(job.started).String())
	}
}

// markCancelled records a cancelled job. Matches the production
// orchestrator, which reports cancellation as a failed job with zero
// progress.
func (r *JobRegistry) markCancelled(job *researchJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.progress.Status = types.StatusFailed
	job.progress.OverallProgress = 0
	job.progress.CurrentTask = nil
	job.progress.EstimatedCompletionTime = nil
}

// Research runs a job synchronously and returns its result
func (r *JobRegistry) Research(ctx context.Context, req types.CompanyResearchRequest) (*types.CompanyResearchResponse, error) {
	id := r.StartAsync(req)

	r.mu.Lock()
	job := r.jobs[id]
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		job.cancel()
		return nil, ctx.Err()
	case <-job.done:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if job.result == nil {
		return nil, context.Canceled
	}
	return job.result, nil
}

// Progress returns the latest progress snapshot for a job
func (r *JobRegistry) Progress(id string) (types.ResearchProgress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return types.ResearchProgress{}, false
	}
	return job.progress, true
}

// Result returns the final result for a completed job
func (r *JobRegistry) Result(id string) (*types.CompanyResearchResponse, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.result == nil {
		return nil, false
	}
	return job.result, true
}

// Cancel stops a running job. Returns false for unknown request IDs.
func (r *JobRegistry) Cancel(id string) bool {
	r.mu.Lock()
	job, ok := r.jobs[id]
	r.mu.Unlock()

	if !ok {
		return false
	}

	job.cancel()

	if r.logger != nil {
		r.logger.Info("Research job cancelled", "request_id", id)
	}
	return true
}

// ActiveCount returns the number of jobs that have not reached a
// terminal status
func (r *JobRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, job := range r.jobs {
		if !job.progress.Status.Terminal() {
			count++
		}
	}
	return count
}

// CostEstimate builds the cost breakdown for a research depth
func (r *JobRegistry) CostEstimate(depth types.ResearchDepth) types.ResearchCostEstimate {
	sources := pipelineFor(depth)

	breakdown := make(map[types.ResearchSource]float64, len(sources))
	total := 0.0
	hasAIAnalysis := false
	for _, source := range sources {
		cost := sourceCosts[source]
		breakdown[source] = cost
		total += cost
		if source == types.SourceAIAnalysis {
			hasAIAnalysis = true
		}
	}

	var tips []string
	if total > 0.10 {
		tips = append(tips, "Consider using 'basic' research depth for cost savings")
	}
	if hasAIAnalysis {
		tips = append(tips, "AI analysis adds cost but provides valuable insights")
	}

	return types.ResearchCostEstimate{
		EstimatedTotalCost:   total,
		CostBreakdown:        breakdown,
		CostOptimizationTips: tips,
		AlternativeResearchOptions: []map[string]any{
			{
				"depth":       string(types.DepthBasic),
				"cost":        depthCost(types.DepthBasic),
				"description": "Basic domain and web search only",
			},
			{
				"depth":       string(types.DepthStandard),
				"cost":        depthCost(types.DepthStandard),
				"description": "Standard research with knowledge graph",
			},
		},
	}
}

func depthCost(depth types.ResearchDepth) float64 {
	total := 0.0
	for _, source := range pipelineFor(depth) {
		total += sourceCosts[source]
	}
	return total
}

// SourceCatalog describes the available sources and depth pipelines
func (r *JobRegistry) SourceCatalog() types.SourceCatalog {
	available := make(map[types.ResearchSource]types.SourceInfo, len(sourceDescriptions))
	for source, description := range sourceDescriptions {
		available[source] = types.SourceInfo{
			Description:  description,
			CostEstimate: sourceCosts[source],
			Premium:      source == types.SourceLocationVerification || source == types.SourcePortfolioResearch,
		}
	}

	depths := make(map[types.ResearchDepth][]types.ResearchSource, len(pipelineConfig))
	for depth, sources := range pipelineConfig {
		depths[depth] = sources
	}

	return types.SourceCatalog{
		AvailableSources: available,
		ResearchDepths:   depths,
	}
}
