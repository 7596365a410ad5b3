// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunOnce for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a function run on a fixed interval.
//
// Timeout bounds each run when set. SkipImmediate waits one Interval
// before the first run instead of running at Start.
type Job struct {
	Name          string
	Interval      time.Duration
	Timeout       time.Duration
	SkipImmediate bool
	Run           func(ctx context.Context) error
}

// Observer receives the outcome of every run. *metrics.Metrics implements it.
type Observer interface {
	JobRun(name string, d time.Duration, err error)
}

// JobStatus is a point-in-time view of one job.
type JobStatus struct {
	Name         string        `json:"name"`
	Running      bool          `json:"running"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	LastRun      time.Time     `json:"lastRun,omitzero"`
	LastDuration time.Duration `json:"lastDurationNs,omitempty"`
	LastError    string        `json:"lastError,omitempty"`
}

// Runner schedules registered jobs and tracks their last outcome.
type Runner struct {
	logger   *zap.Logger
	observer Observer

	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	status map[string]*JobStatus
}

// New creates a Runner. observer may be nil.
func New(logger *zap.Logger, observer Observer) *Runner {
	return &Runner{
		logger:   logger,
		observer: observer,
		status:   make(map[string]*JobStatus),
	}
}

// Register adds a job. Jobs registered after Start are not scheduled.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &JobStatus{Name: job.Name}
	r.mu.Unlock()
}

// Start schedules every registered job until Stop.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("background task runner started", zap.Int("job_count", len(r.jobs)))
}

// Stop cancels all jobs and waits for in-flight runs until ctx is done.
// It returns ctx.Err() if a run outlives ctx.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		var busy []string
		for _, st := range r.Status() {
			if st.Running {
				busy = append(busy, st.Name)
			}
		}
		r.logger.Warn("background task runner shutdown timed out", zap.Strings("jobs_still_running", busy))
		return ctx.Err()
	}
}

// Status returns every job's state, sorted by name.
func (r *Runner) Status() []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]JobStatus, 0, len(r.status))
	for _, st := range r.status {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunOnce runs a registered job now, outside its schedule. The run is
// recorded like a scheduled one.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return r.execute(ctx, job)
		}
	}
	return ErrUnknownJob
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	if !job.SkipImmediate {
		r.scheduled(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scheduled(ctx, job)
		}
	}
}

// scheduled runs job and logs failures. Errors caused by shutdown are not failures.
func (r *Runner) scheduled(ctx context.Context, job Job) {
	err := r.execute(ctx, job)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		r.logger.Debug("job cancelled during shutdown", zap.String("job", job.Name))
	default:
		r.logger.Error("job failed", zap.String("job", job.Name), zap.Error(err))
	}
}

func (r *Runner) execute(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	r.mark(job.Name, func(st *JobStatus) { st.Running = true })
	start := time.Now()
	err := job.Run(ctx)
	d := time.Since(start)

	r.mark(job.Name, func(st *JobStatus) {
		st.Running = false
		st.Runs++
		st.LastRun = start
		st.LastDuration = d
		st.LastError = ""
		if err != nil {
			st.Failures++
			st.LastError = err.Error()
		}
	})
	if r.observer != nil {
		r.observer.JobRun(job.Name, d, err)
	}
	r.logger.Debug("job finished", zap.String("job", job.Name), zap.Duration("duration", d), zap.Error(err))
	return err
}

func (r *Runner) mark(name string, f func(*JobStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.status[name]
	if !ok {
		st = &JobStatus{Name: name}
		r.status[name] = st
	}
	f(st)
}
