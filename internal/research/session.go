package research

import (
	"context"
	"sync"
	"time"

	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

// DefaultPollInterval is the fixed delay between progress polls when
// the configuration does not override it.
const DefaultPollInterval = 2 * time.Second

// State is the lifecycle state of a polling session
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateFetching   State = "fetching"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Backend is the subset of the API client a session drives
type Backend interface {
	SubmitResearch(ctx context.Context, req *types.CompanyResearchRequest) (*types.JobHandle, error)
	ResearchProgress(ctx context.Context, requestID string) (*types.ResearchProgress, error)
	Research(ctx context.Context, req *types.CompanyResearchRequest) (*types.CompanyResearchResponse, error)
	CancelResearch(ctx context.Context, requestID string) (*types.CancelAck, error)
}

// Hooks receive session events. Callbacks run on the scheduler
// goroutine and must not call back into the session.
type Hooks struct {
	OnProgress func(*types.ResearchProgress)
	OnResult   func(*types.CompanyResearchResponse)
	OnError    func(error)
}

// Session drives one submit → poll → (fetch | fail | cancel) cycle
// against the research backend.
//
// Lifecycle: Idle → Submitting → Polling → {Fetching → Done, Failed,
// Idle on poll error, Idle on cancel}. There is no automatic retry
// from any error state; every error path leaves the session with no
// active timer, and the caller starts over with a new Start.
//
// A session owns at most one scheduler token at a time. Each
// generation of the session is identified by an epoch counter;
// callbacks capture the epoch they were started under and discard
// their results if the session has since been cancelled or restarted.
type Session struct {
	backend   Backend
	scheduler Scheduler
	logger    *errors.Logger
	hooks     Hooks

	interval    time.Duration
	pollTimeout time.Duration

	mu       sync.Mutex
	epoch    uint64
	state    State
	request  *types.CompanyResearchRequest
	handle   *types.JobHandle
	progress *types.ResearchProgress
	result   *types.CompanyResearchResponse
	token    Token
	inFlight bool
}

// NewSession creates a session polling at the configured interval
func NewSession(backend Backend, cfg config.PollConfig, logger *errors.Logger, hooks Hooks) *Session {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Session{
		backend:     backend,
		scheduler:   TickerScheduler{},
		logger:      logger,
		hooks:       hooks,
		interval:    interval,
		pollTimeout: cfg.RequestTimeout,
		state:       StateIdle,
	}
}

// Start submits a research job and begins polling its progress. If a
// previous session is still active its timer is torn down first, so
// at most one timer exists at any time. The returned handle is the
// caller's reference to the job for its whole lifetime.
func (s *Session) Start(ctx context.Context, req *types.CompanyResearchRequest) (*types.JobHandle, error) {
	s.mu.Lock()
	s.resetLocked()
	s.epoch++
	epoch := s.epoch
	s.state = StateSubmitting
	s.mu.Unlock()

	handle, err := s.backend.SubmitResearch(ctx, req)
	if err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.state = StateIdle
		}
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Cancelled or restarted while the submission round trip was
		// in flight. The job may run server-side but this session no
		// longer tracks it.
		return handle, nil
	}

	s.request = req
	s.handle = handle
	s.state = StatePolling
	s.token = s.scheduler.Every(s.interval, func() {
		s.poll(ctx, epoch)
	})

	s.logger.Info("Polling session started",
		"request_id", handle.RequestID,
		"company", handle.CompanyName,
		"interval", s.interval)

	return handle, nil
}

// poll performs one progress query. It is a no-op when the session
// epoch has moved on, the session left the polling state, or a prior
// poll is still in flight.
func (s *Session) poll(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch || s.state != StatePolling || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	requestID := s.handle.RequestID
	s.mu.Unlock()

	pollCtx := ctx
	if s.pollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, s.pollTimeout)
		defer cancel()
	}
	progress, err := s.backend.ResearchProgress(pollCtx, requestID)

	s.mu.Lock()
	if s.epoch != epoch {
		// Response arrived after cancellation or restart; discard.
		s.mu.Unlock()
		return
	}
	s.inFlight = false

	if err != nil {
		// A failed progress query is fatal to the session. This is a
		// transport failure, not the job failing: the job may still
		// be running server-side.
		s.resetLocked()
		s.state = StateIdle
		s.mu.Unlock()

		s.logger.LogError(err, "Progress polling failed", "request_id", requestID)
		s.emitError(err)
		return
	}

	// Last snapshot wins, no merging
	s.progress = progress

	switch {
	case progress.Status == types.StatusFailed:
		s.stopTimerLocked()
		s.state = StateFailed
		s.mu.Unlock()

		s.emitProgress(progress)
		s.emitError(errors.NewJobFailedError("Research job failed").
			WithContext("request_id", requestID).
			WithContext("failed_tasks", progress.FailedTasks))

	case progress.Status == types.StatusCompleted:
		s.stopTimerLocked()
		s.state = StateFetching
		req := s.request
		s.mu.Unlock()

		s.emitProgress(progress)
		s.fetch(ctx, epoch, req)

	default:
		s.mu.Unlock()
		s.emitProgress(progress)
	}
}

// fetch retrieves the final result for a completed job. The backend
// has no fetch-by-request_id call, so the original request parameters
// are re-sent to the synchronous endpoint.
func (s *Session) fetch(ctx context.Context, epoch uint64, req *types.CompanyResearchRequest) {
	result, err := s.backend.Research(ctx, req)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.state = StateDone
	if err == nil {
		s.result = result
	}
	s.mu.Unlock()

	if err != nil {
		// The job still completed; only the result retrieval failed.
		// Reported separately so callers can show "completed, but
		// failed to load results".
		fetchErr := errors.NewFetchError("Failed to fetch research result", err)
		s.logger.LogError(fetchErr, "Result fetch failed")
		s.emitError(fetchErr)
		return
	}

	if s.hooks.OnResult != nil {
		s.hooks.OnResult(result)
	}
}

// Cancel aborts the active session. Local teardown (timer, handle,
// progress) always happens, and happens first; the server-side cancel
// is best effort and its failure is informational only. Calling
// Cancel on an inactive session is a no-op.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	active := s.state == StateSubmitting || s.state == StatePolling || s.state == StateFetching
	var requestID string
	if s.handle != nil {
		requestID = s.handle.RequestID
	}
	s.resetLocked()
	s.epoch++ // invalidate any in-flight callbacks
	s.state = StateIdle
	s.mu.Unlock()

	if !active || requestID == "" {
		return nil
	}

	if _, err := s.backend.CancelResearch(ctx, requestID); err != nil {
		s.logger.LogError(err, "Server-side cancellation failed, local session already cleared",
			"request_id", requestID)
		return err
	}

	s.logger.Info("Research session cancelled", "request_id", requestID)
	return nil
}

// State returns the session's current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Handle returns the active job handle, nil when no job is tracked
func (s *Session) Handle() *types.JobHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// Progress returns the most recent progress snapshot
func (s *Session) Progress() *types.ResearchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Result returns the fetched research result, nil until Done
func (s *Session) Result() *types.CompanyResearchResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// stopTimerLocked stops the poll timer, leaving handle and progress
// in place for terminal states
func (s *Session) stopTimerLocked() {
	if s.token != nil {
		s.token.Stop()
		s.token = nil
	}
	s.inFlight = false
}

// resetLocked clears all session state and stops the timer
func (s *Session) resetLocked() {
	s.stopTimerLocked()
	s.request = nil
	s.handle = nil
	s.progress = nil
	s.result = nil
}

func (s *Session) emitProgress(progress *types.ResearchProgress) {
	if s.hooks.OnProgress != nil {
		s.hooks.OnProgress(progress)
	}
}

func (s *Session) emitError(err error) {
	if s.hooks.OnError != nil {
		s.hooks.OnError(err)
	}
}
