// Package orchestrator drives one generation job from submission to a
// terminal state and publishes the run state the UI observes.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wan2gp/wanctl/pkg/assets"
	"github.com/wan2gp/wanctl/pkg/logging"
	"github.com/wan2gp/wanctl/pkg/models"
	"github.com/wan2gp/wanctl/pkg/remote"
)

const defaultPollInterval = 2 * time.Second

// HistoryAppender records successful completions
type HistoryAppender interface {
	Add(jobID string, savedLocators []string) error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPollInterval overrides the fixed delay between status polls
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// WithClientFactory overrides how transport clients are constructed
func WithClientFactory(f func(addr string) (*remote.Client, error)) Option {
	return func(o *Orchestrator) { o.newClient = f }
}

// Orchestrator owns the run lifecycle: it is the only writer of the
// published RunState, and at most one poll loop is active at any time.
// A new SubmitGeneration cancels the previous loop before starting, so
// published transitions are totally ordered and never interleave runs.
type Orchestrator struct {
	history      HistoryAppender
	saver        assets.Saver
	logger       *logging.Logger
	pollInterval time.Duration
	newClient    func(addr string) (*remote.Client, error)

	mu     sync.Mutex
	state  RunState
	subs   []chan RunState
	gen    uint64             // current run generation; stale publishes are discarded
	cancel context.CancelFunc // cancels the active run loop
	done   chan struct{}      // closed when the active run goroutine exits

	lastAddr     string
	lastSettings models.GenerationSettings
}

// New creates an orchestrator in the Idle state
func New(history HistoryAppender, saver assets.Saver, logger *logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		history:      history,
		saver:        saver,
		logger:       logger,
		pollInterval: defaultPollInterval,
		newClient:    remote.NewClient,
		state:        RunState{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current published run state
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe returns a channel receiving every published state change.
// The channel is buffered; a subscriber that stops draining misses
// updates rather than blocking the orchestrator.
func (o *Orchestrator) Subscribe() <-chan RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan RunState, 64)
	o.subs = append(o.subs, ch)
	return ch
}

// publish installs a new state if gen still identifies the active run.
// A publish from a superseded run is discarded, which is how a stale
// status update after cancellation disappears.
func (o *Orchestrator) publish(gen uint64, state RunState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return
	}
	o.state = state
	for _, ch := range o.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// beginRun supersedes any in-flight run and returns the context and
// generation token for the new one. The returned start function must
// be called to launch the run body; it waits for the previous run
// goroutine to exit first so two loops never execute concurrently.
func (o *Orchestrator) beginRun() (context.Context, uint64, func(body func(context.Context, uint64))) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	prevDone := o.done

	o.gen++
	gen := o.gen
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	done := make(chan struct{})
	o.done = done

	start := func(body func(context.Context, uint64)) {
		go func() {
			defer close(done)
			if prevDone != nil {
				<-prevDone
			}
			body(ctx, gen)
		}()
	}
	return ctx, gen, start
}

// SubmitGeneration starts a fresh run: build the payload, submit the
// job and poll it to a terminal state. Any previous run is cancelled
// first. The call returns immediately; progress is published through
// the run state.
func (o *Orchestrator) SubmitGeneration(addr string, settings models.GenerationSettings) {
	o.mu.Lock()
	o.lastAddr = addr
	o.lastSettings = settings
	o.mu.Unlock()

	_, _, start := o.beginRun()
	start(func(ctx context.Context, gen uint64) {
		o.publish(gen, RunState{Phase: PhaseSubmitting, Message: "Submitting job..."})

		payload, err := models.BuildPayload(settings)
		if err != nil {
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: false})
			return
		}

		client, err := o.newClient(addr)
		if err != nil {
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: remote.Retryable(err)})
			return
		}

		jobID, err := client.Submit(ctx, payload)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: remote.Retryable(err)})
			return
		}
		o.logger.Info("job submitted", map[string]interface{}{"job_id": jobID})
		o.publish(gen, RunState{Phase: PhaseRunning, JobID: jobID, Status: models.StatusQueued})

		o.pollToTerminal(ctx, gen, client, jobID)
	})
}

// CancelRunningJob asks the server to stop the current job. It is a
// no-op unless the run state is Running. The local poll loop is
// stopped first so the cancel outcome is the next published state.
func (o *Orchestrator) CancelRunningJob() {
	o.mu.Lock()
	if o.state.Phase != PhaseRunning {
		o.mu.Unlock()
		return
	}
	jobID := o.state.JobID
	addr := o.lastAddr
	o.mu.Unlock()

	_, _, start := o.beginRun()
	start(func(ctx context.Context, gen uint64) {
		client, err := o.newClient(addr)
		if err != nil {
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: false, JobID: jobID})
			return
		}
		if err := client.Cancel(ctx, jobID); err != nil {
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: remote.Retryable(err), JobID: jobID})
			return
		}
		o.logger.Info("job cancelled", map[string]interface{}{"job_id": jobID})
		o.publish(gen, RunState{Phase: PhaseIdle})
	})
}

// RetryFailedJob re-runs the job recorded in the current Failed state.
// A failure that never reached the server has no job id; retrying it
// is the same as submitting from scratch.
func (o *Orchestrator) RetryFailedJob() {
	o.mu.Lock()
	if o.state.Phase != PhaseFailed {
		o.mu.Unlock()
		return
	}
	prevJobID := o.state.JobID
	addr := o.lastAddr
	settings := o.lastSettings
	o.mu.Unlock()

	if prevJobID == "" {
		o.SubmitGeneration(addr, settings)
		return
	}

	_, _, start := o.beginRun()
	start(func(ctx context.Context, gen uint64) {
		o.publish(gen, RunState{Phase: PhaseSubmitting, Message: "Retrying job..."})

		client, err := o.newClient(addr)
		if err != nil {
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: false, JobID: prevJobID})
			return
		}

		jobID, err := client.Retry(ctx, prevJobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: remote.Retryable(err), JobID: prevJobID})
			return
		}
		o.logger.Info("job retried", map[string]interface{}{"job_id": prevJobID, "new_job_id": jobID})
		o.publish(gen, RunState{Phase: PhaseRunning, JobID: jobID, Status: models.StatusRunning})

		o.pollToTerminal(ctx, gen, client, jobID)
	})
}

// pollToTerminal checks the job status on a fixed interval until it is
// terminal or the run is superseded. Cancellation is cooperative: an
// in-flight poll completes, and its result is discarded by the
// generation check inside publish.
func (o *Orchestrator) pollToTerminal(ctx context.Context, gen uint64, client *remote.Client, jobID string) {
	for {
		status, err := client.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: remote.Retryable(err), JobID: jobID})
			return
		}

		if models.IsTerminalStatus(status.Status) {
			if models.IsCompleted(status.Status) {
				o.completeRun(ctx, gen, client, jobID)
			} else {
				msg := status.Error
				if msg == "" {
					msg = "Job " + strings.ToLower(status.Status)
				}
				o.publish(gen, RunState{Phase: PhaseFailed, Message: msg, CanRetry: true, JobID: jobID})
			}
			return
		}

		running := RunState{Phase: PhaseRunning, JobID: jobID, Status: status.Status, Progress: status.Progress}
		if running.Status == "" {
			running.Status = models.StatusRunning
		}
		o.publish(gen, running)

		select {
		case <-ctx.Done():
			return
		case <-time.After(o.pollInterval):
		}
	}
}

// completeRun materializes the assets of a completed job and records
// the result in history
func (o *Orchestrator) completeRun(ctx context.Context, gen uint64, client *remote.Client, jobID string) {
	locators, err := assets.NewMaterializer(client, o.saver).Materialize(ctx, jobID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		o.publish(gen, RunState{Phase: PhaseFailed, Message: err.Error(), CanRetry: true, JobID: jobID})
		return
	}

	if o.history != nil {
		if err := o.history.Add(jobID, locators); err != nil {
			o.logger.Warn("failed to record history entry", map[string]interface{}{"job_id": jobID, "error": err.Error()})
		}
	}
	o.logger.Info("generation completed", map[string]interface{}{"job_id": jobID, "assets": len(locators)})
	o.publish(gen, RunState{Phase: PhaseCompleted, JobID: jobID, SavedLocators: locators})
}

// Close cancels any in-flight run and waits for it to stop
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	done := o.done
	o.gen++ // discard any publish still in flight
	o.mu.Unlock()

	if done != nil {
		<-done
	}
}
