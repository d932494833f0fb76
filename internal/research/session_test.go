package research

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	appErrors "github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

// fakeScheduler lets tests advance time manually. Each Tick fires
// every job whose token has not been stopped, simulating one poll
// interval elapsing.
type fakeScheduler struct {
	jobs []*fakeJob
}

type fakeJob struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

func (j *fakeJob) Stop() { j.stopped = true }

func (f *fakeScheduler) Every(interval time.Duration, fn func()) Token {
	job := &fakeJob{interval: interval, fn: fn}
	f.jobs = append(f.jobs, job)
	return job
}

func (f *fakeScheduler) Tick() {
	for _, job := range f.jobs {
		if !job.stopped {
			job.fn()
		}
	}
}

func (f *fakeScheduler) activeJobs() int {
	n := 0
	for _, job := range f.jobs {
		if !job.stopped {
			n++
		}
	}
	return n
}

// pollStep scripts one progress poll response
type pollStep struct {
	progress *types.ResearchProgress
	err      error
}

// scriptedBackend is a call-counting Backend double
type scriptedBackend struct {
	submitCalls int
	pollCalls   int
	fetchCalls  int
	cancelCalls int

	submitErr    error
	steps        []pollStep
	fetchResult  *types.CompanyResearchResponse
	fetchErr     error
	cancelErr    error
	lastCancelID string
}

func (b *scriptedBackend) SubmitResearch(_ context.Context, req *types.CompanyResearchRequest) (*types.JobHandle, error) {
	b.submitCalls++
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	return &types.JobHandle{RequestID: "req-1", CompanyName: req.DisplayName()}, nil
}

func (b *scriptedBackend) ResearchProgress(_ context.Context, requestID string) (*types.ResearchProgress, error) {
	step := b.steps[len(b.steps)-1]
	if b.pollCalls < len(b.steps) {
		step = b.steps[b.pollCalls]
	}
	b.pollCalls++
	if step.err != nil {
		return nil, step.err
	}
	progress := *step.progress
	progress.RequestID = requestID
	return &progress, nil
}

func (b *scriptedBackend) Research(_ context.Context, req *types.CompanyResearchRequest) (*types.CompanyResearchResponse, error) {
	b.fetchCalls++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	if b.fetchResult != nil {
		return b.fetchResult, nil
	}
	return &types.CompanyResearchResponse{
		RequestID:      "req-1",
		CompanyName:    req.DisplayName(),
		ResearchStatus: types.StatusCompleted,
	}, nil
}

func (b *scriptedBackend) CancelResearch(_ context.Context, requestID string) (*types.CancelAck, error) {
	b.cancelCalls++
	b.lastCancelID = requestID
	if b.cancelErr != nil {
		return nil, b.cancelErr
	}
	return &types.CancelAck{Message: "cancelled", RequestID: requestID}, nil
}

func inProgress(progress float64) pollStep {
	return pollStep{progress: &types.ResearchProgress{
		Status:          types.StatusInProgress,
		OverallProgress: progress,
	}}
}

func terminal(status types.ResearchStatus) pollStep {
	return pollStep{progress: &types.ResearchProgress{
		Status:          status,
		OverallProgress: 100,
	}}
}

// captured collects hook invocations
type captured struct {
	progress []float64
	results  int
	errs     []error
}

func (c *captured) hooks() Hooks {
	return Hooks{
		OnProgress: func(p *types.ResearchProgress) { c.progress = append(c.progress, p.OverallProgress) },
		OnResult:   func(*types.CompanyResearchResponse) { c.results++ },
		OnError:    func(err error) { c.errs = append(c.errs, err) },
	}
}

func (c *captured) errCode(t *testing.T, i int) string {
	t.Helper()
	if len(c.errs) <= i {
		t.Fatalf("expected at least %d errors, got %d", i+1, len(c.errs))
	}
	var appErr *appErrors.AppError
	if !errors.As(c.errs[i], &appErr) {
		t.Fatalf("expected AppError, got %T: %v", c.errs[i], c.errs[i])
	}
	return appErr.Code
}

func newTestSession(t *testing.T, backend *scriptedBackend, hooks Hooks) (*Session, *fakeScheduler) {
	t.Helper()

	logger, err := appErrors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	session := NewSession(backend, config.PollConfig{Interval: 2 * time.Second}, logger, hooks)
	scheduler := &fakeScheduler{}
	session.scheduler = scheduler
	return session, scheduler
}

func standardRequest() *types.CompanyResearchRequest {
	return &types.CompanyResearchRequest{
		CompanyName:   "Acme",
		ResearchDepth: types.DepthStandard,
	}
}

func TestStartProducesOneHandleAndOneTimer(t *testing.T) {
	backend := &scriptedBackend{steps: []pollStep{inProgress(10)}}
	session, scheduler := newTestSession(t, backend, Hooks{})

	handle, err := session.Start(context.Background(), standardRequest())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if handle.RequestID != "req-1" {
		t.Errorf("expected request ID 'req-1', got %q", handle.RequestID)
	}
	if backend.submitCalls != 1 {
		t.Errorf("expected 1 submission, got %d", backend.submitCalls)
	}
	if scheduler.activeJobs() != 1 {
		t.Errorf("expected exactly 1 active timer, got %d", scheduler.activeJobs())
	}
	if session.State() != StatePolling {
		t.Errorf("expected polling state, got %s", session.State())
	}

	// No polls until the interval elapses
	if backend.pollCalls != 0 {
		t.Errorf("expected 0 polls before first tick, got %d", backend.pollCalls)
	}
	scheduler.Tick()
	if backend.pollCalls != 1 {
		t.Errorf("expected 1 poll after first tick, got %d", backend.pollCalls)
	}
}

func TestSubmissionFailureLeavesIdle(t *testing.T) {
	backend := &scriptedBackend{submitErr: fmt.Errorf("backend rejected request")}
	session, scheduler := newTestSession(t, backend, Hooks{})

	_, err := session.Start(context.Background(), standardRequest())
	if err == nil {
		t.Fatal("expected submission error")
	}
	if session.State() != StateIdle {
		t.Errorf("expected idle state after failed submission, got %s", session.State())
	}
	if scheduler.activeJobs() != 0 {
		t.Errorf("expected no timers after failed submission, got %d", scheduler.activeJobs())
	}
}

// Scenario: three polls at 30, 70, then completed at 100. The result
// fetch happens exactly once and no poll is issued after the terminal
// snapshot, no matter how much more time elapses.
func TestCompletedJobFetchesResultOnce(t *testing.T) {
	backend := &scriptedBackend{
		steps: []pollStep{inProgress(30), inProgress(70), terminal(types.StatusCompleted)},
	}
	events := &captured{}
	session, scheduler := newTestSession(t, backend, events.hooks())

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	scheduler.Tick()
	scheduler.Tick()
	scheduler.Tick()

	if backend.pollCalls != 3 {
		t.Fatalf("expected 3 polls, got %d", backend.pollCalls)
	}
	if backend.fetchCalls != 1 {
		t.Fatalf("expected exactly 1 result fetch, got %d", backend.fetchCalls)
	}
	if events.results != 1 {
		t.Errorf("expected 1 result delivery, got %d", events.results)
	}
	if session.State() != StateDone {
		t.Errorf("expected done state, got %s", session.State())
	}
	if session.Result() == nil {
		t.Error("expected result to be retained")
	}

	// Time keeps passing; the timer must already be gone
	for i := 0; i < 5; i++ {
		scheduler.Tick()
	}
	if backend.pollCalls != 3 {
		t.Errorf("expected no polls after terminal status, got %d total", backend.pollCalls)
	}
	if backend.fetchCalls != 1 {
		t.Errorf("expected no further fetches, got %d total", backend.fetchCalls)
	}

	want := []float64{30, 70, 100}
	if len(events.progress) != len(want) {
		t.Fatalf("expected %d progress events, got %d", len(want), len(events.progress))
	}
	for i, p := range want {
		if events.progress[i] != p {
			t.Errorf("progress event %d: expected %.0f, got %.0f", i, p, events.progress[i])
		}
	}
}

// Scenario: the first poll request itself fails. The session becomes
// idle with a poll error, zero further polls, and the fetcher never runs.
func TestPollTransportFailureIsFatal(t *testing.T) {
	backend := &scriptedBackend{
		steps: []pollStep{{err: fmt.Errorf("connection refused")}},
	}
	events := &captured{}
	session, scheduler := newTestSession(t, backend, events.hooks())

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	scheduler.Tick()

	if session.State() != StateIdle {
		t.Errorf("expected idle state after poll failure, got %s", session.State())
	}
	if scheduler.activeJobs() != 0 {
		t.Errorf("expected timer cleared after poll failure, got %d active", scheduler.activeJobs())
	}

	for i := 0; i < 5; i++ {
		scheduler.Tick()
	}
	if backend.pollCalls != 1 {
		t.Errorf("expected exactly 1 poll, got %d", backend.pollCalls)
	}
	if backend.fetchCalls != 0 {
		t.Errorf("result fetcher must not run after poll failure, got %d calls", backend.fetchCalls)
	}
	if len(events.errs) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(events.errs))
	}
}

// Scenario: the job reports terminal status failed. This is a job
// outcome, not a transport error, and must not trigger a result fetch.
func TestJobFailedStatusStopsPolling(t *testing.T) {
	backend := &scriptedBackend{
		steps: []pollStep{inProgress(40), terminal(types.StatusFailed)},
	}
	events := &captured{}
	session, scheduler := newTestSession(t, backend, events.hooks())

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	scheduler.Tick()
	scheduler.Tick()

	if session.State() != StateFailed {
		t.Errorf("expected failed state, got %s", session.State())
	}
	if code := events.errCode(t, 0); code != appErrors.ErrCodeJobFailed {
		t.Errorf("expected code %s, got %s", appErrors.ErrCodeJobFailed, code)
	}

	for i := 0; i < 5; i++ {
		scheduler.Tick()
	}
	if backend.pollCalls != 2 {
		t.Errorf("expected 2 polls, got %d", backend.pollCalls)
	}
	if backend.fetchCalls != 0 {
		t.Errorf("result fetcher must not run for a failed job, got %d calls", backend.fetchCalls)
	}
}

// Scenario: user cancels mid-poll. The cancel endpoint is called with
// the job's request_id, the timer is cleared, and zero polls happen
// afterwards even though intervals keep elapsing.
func TestCancelWhilePolling(t *testing.T) {
	backend := &scriptedBackend{steps: []pollStep{inProgress(25)}}
	events := &captured{}
	session, scheduler := newTestSession(t, backend, events.hooks())

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Tick()

	if err := session.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if backend.cancelCalls != 1 {
		t.Errorf("expected 1 cancel call, got %d", backend.cancelCalls)
	}
	if backend.lastCancelID != "req-1" {
		t.Errorf("expected cancel for 'req-1', got %q", backend.lastCancelID)
	}
	if session.State() != StateIdle {
		t.Errorf("expected idle state after cancel, got %s", session.State())
	}
	if session.Handle() != nil {
		t.Error("expected handle cleared after cancel")
	}

	for i := 0; i < 5; i++ {
		scheduler.Tick()
	}
	if backend.pollCalls != 1 {
		t.Errorf("expected no polls after cancel, got %d total", backend.pollCalls)
	}
}

// Local teardown is unconditional: a failing server-side cancel still
// clears the timer and state.
func TestCancelServerFailureStillTearsDown(t *testing.T) {
	backend := &scriptedBackend{
		steps:     []pollStep{inProgress(25)},
		cancelErr: fmt.Errorf("cancel endpoint unavailable"),
	}
	session, scheduler := newTestSession(t, backend, Hooks{})

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Tick()

	err := session.Cancel(context.Background())
	if err == nil {
		t.Fatal("expected cancel error to be surfaced")
	}

	if session.State() != StateIdle {
		t.Errorf("expected idle state despite cancel failure, got %s", session.State())
	}
	if scheduler.activeJobs() != 0 {
		t.Errorf("expected timer cleared despite cancel failure, got %d active", scheduler.activeJobs())
	}
	for i := 0; i < 5; i++ {
		scheduler.Tick()
	}
	if backend.pollCalls != 1 {
		t.Errorf("expected no polls after cancel, got %d total", backend.pollCalls)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	backend := &scriptedBackend{steps: []pollStep{inProgress(25)}}
	session, scheduler := newTestSession(t, backend, Hooks{})

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Tick()

	if err := session.Cancel(context.Background()); err != nil {
		t.Fatalf("first Cancel failed: %v", err)
	}
	if err := session.Cancel(context.Background()); err != nil {
		t.Fatalf("second Cancel must be a no-op, got: %v", err)
	}

	if backend.cancelCalls != 1 {
		t.Errorf("expected exactly 1 cancel call, got %d", backend.cancelCalls)
	}
}

func TestCancelWithoutStartIsNoOp(t *testing.T) {
	backend := &scriptedBackend{steps: []pollStep{inProgress(25)}}
	session, _ := newTestSession(t, backend, Hooks{})

	if err := session.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel on idle session must be a no-op, got: %v", err)
	}
	if backend.cancelCalls != 0 {
		t.Errorf("expected no cancel calls, got %d", backend.cancelCalls)
	}
}

// Starting a new session while one is active tears the old timer down
// first, so ticks never produce duplicate polls from stale handles.
func TestRestartTearsDownPreviousTimer(t *testing.T) {
	backend := &scriptedBackend{steps: []pollStep{inProgress(25)}}
	session, scheduler := newTestSession(t, backend, Hooks{})

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	if scheduler.activeJobs() != 1 {
		t.Fatalf("expected exactly 1 active timer after restart, got %d", scheduler.activeJobs())
	}

	scheduler.Tick()
	if backend.pollCalls != 1 {
		t.Errorf("expected 1 poll per tick after restart, got %d", backend.pollCalls)
	}
}

// A timer callback that was already queued when the session was
// cancelled must not issue a poll: the epoch check discards it.
func TestLateTickAfterCancelIsDiscarded(t *testing.T) {
	backend := &scriptedBackend{steps: []pollStep{inProgress(25)}}
	session, scheduler := newTestSession(t, backend, Hooks{})

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	job := scheduler.jobs[0]

	if err := session.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// Fire the stale callback directly, as a tick dispatched before
	// Stop took effect would.
	job.fn()

	if backend.pollCalls != 0 {
		t.Errorf("expected stale tick to be discarded, got %d polls", backend.pollCalls)
	}
	if session.State() != StateIdle {
		t.Errorf("expected session to stay idle, got %s", session.State())
	}
}

// A fetch failure is reported separately and does not retract the
// terminal progress state.
func TestFetchFailureReportedSeparately(t *testing.T) {
	backend := &scriptedBackend{
		steps:    []pollStep{terminal(types.StatusCompleted)},
		fetchErr: fmt.Errorf("result endpoint unavailable"),
	}
	events := &captured{}
	session, scheduler := newTestSession(t, backend, events.hooks())

	if _, err := session.Start(context.Background(), standardRequest()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Tick()

	if session.State() != StateDone {
		t.Errorf("expected done state despite fetch failure, got %s", session.State())
	}
	if code := events.errCode(t, 0); code != appErrors.ErrCodeFetchFailed {
		t.Errorf("expected code %s, got %s", appErrors.ErrCodeFetchFailed, code)
	}
	if len(events.progress) != 1 || events.progress[0] != 100 {
		t.Errorf("expected completed progress snapshot to be delivered, got %v", events.progress)
	}
	if events.results != 0 {
		t.Errorf("expected no result delivery, got %d", events.results)
	}
	if session.Result() != nil {
		t.Error("expected no retained result after fetch failure")
	}
}

// The result fetch re-sends the original request parameters to the
// synchronous endpoint.
func TestFetchUsesOriginalRequestParams(t *testing.T) {
	var fetched *types.CompanyResearchRequest
	backend := &scriptedBackend{steps: []pollStep{terminal(types.StatusCompleted)}}
	session, scheduler := newTestSession(t, backend, Hooks{})

	req := &types.CompanyResearchRequest{
		CompanyName:   "Acme",
		CompanyDomain: "acme.com",
		ResearchDepth: types.DepthComprehensive,
	}

	// Wrap the backend to capture the fetch request
	session.backend = &fetchCapturingBackend{scriptedBackend: backend, captured: &fetched}

	if _, err := session.Start(context.Background(), req); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Tick()

	if fetched == nil {
		t.Fatal("expected result fetch to happen")
	}
	if fetched.CompanyDomain != "acme.com" || fetched.ResearchDepth != types.DepthComprehensive {
		t.Errorf("expected original request params to be re-sent, got %+v", fetched)
	}
}

type fetchCapturingBackend struct {
	*scriptedBackend
	captured **types.CompanyResearchRequest
}

func (b *fetchCapturingBackend) Research(ctx context.Context, req *types.CompanyResearchRequest) (*types.CompanyResearchResponse, error) {
	*b.captured = req
	return b.scriptedBackend.Research(ctx, req)
}
