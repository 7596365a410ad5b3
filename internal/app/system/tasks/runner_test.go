package tasks_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/system/tasks"
	"go.uber.org/zap"
)

type recordingObserver struct {
	mu   sync.Mutex
	runs map[string][]error
}

func (o *recordingObserver) JobRun(name string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runs == nil {
		o.runs = make(map[string][]error)
	}
	o.runs[name] = append(o.runs[name], err)
}

func stop(t *testing.T, r *tasks.Runner, within time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), within)
	defer cancel()
	return r.Stop(ctx)
}

func TestRunner_RunsImmediatelyThenOnInterval(t *testing.T) {
	runner := tasks.New(zap.NewNop(), nil)

	var a, b atomic.Int32
	runner.Register(tasks.Job{Name: "a", Interval: 30 * time.Millisecond, Run: func(context.Context) error { a.Add(1); return nil }})
	runner.Register(tasks.Job{Name: "b", Interval: time.Hour, Run: func(context.Context) error { b.Add(1); return nil }})

	runner.Start()
	time.Sleep(120 * time.Millisecond)
	if err := stop(t, runner, 5*time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if a.Load() < 2 {
		t.Errorf("job a ran %d times, want at least 2", a.Load())
	}
	if b.Load() != 1 {
		t.Errorf("job b ran %d times, want exactly 1 (start only)", b.Load())
	}
}

func TestRunner_SkipImmediate(t *testing.T) {
	runner := tasks.New(zap.NewNop(), nil)

	var n atomic.Int32
	runner.Register(tasks.Job{
		Name:          "deferred",
		Interval:      time.Hour,
		SkipImmediate: true,
		Run:           func(context.Context) error { n.Add(1); return nil },
	})

	runner.Start()
	time.Sleep(50 * time.Millisecond)
	if err := stop(t, runner, time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if n.Load() != 0 {
		t.Errorf("deferred job ran %d times before its first interval", n.Load())
	}
}

func TestRunner_StopCancelsJobContext(t *testing.T) {
	runner := tasks.New(zap.NewNop(), nil)

	cancelled := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "waits",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		},
	})

	runner.Start()
	time.Sleep(30 * time.Millisecond)
	if err := stop(t, runner, 5*time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled")
	}
}

func TestRunner_StopTimesOutOnStuckJob(t *testing.T) {
	runner := tasks.New(zap.NewNop(), nil)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	runner.Register(tasks.Job{
		Name:     "stuck",
		Interval: time.Hour,
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	})

	runner.Start()
	<-started
	if err := stop(t, runner, 50*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop() = %v, want DeadlineExceeded", err)
	}

	st := runner.Status()
	if len(st) != 1 || !st[0].Running {
		t.Errorf("Status() = %+v, want stuck job running", st)
	}
}

func TestRunner_RunOnce(t *testing.T) {
	tests := []struct {
		name    string
		job     tasks.Job
		run     string
		wantErr error
	}{
		{
			name: "registered",
			job:  tasks.Job{Name: "manual", Interval: time.Hour, Run: func(context.Context) error { return nil }},
			run:  "manual",
		},
		{
			name:    "unknown",
			job:     tasks.Job{Name: "manual", Interval: time.Hour, Run: func(context.Context) error { return nil }},
			run:     "other",
			wantErr: tasks.ErrUnknownJob,
		},
		{
			name: "timeout bounds the run",
			job: tasks.Job{Name: "bounded", Interval: time.Hour, Timeout: 20 * time.Millisecond, Run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}},
			run:     "bounded",
			wantErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := tasks.New(zap.NewNop(), nil)
			runner.Register(tt.job)
			err := runner.RunOnce(context.Background(), tt.run)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RunOnce() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunner_StatusAndObserver(t *testing.T) {
	obs := &recordingObserver{}
	runner := tasks.New(zap.NewNop(), obs)

	fail := true
	runner.Register(tasks.Job{Name: "refresh", Interval: time.Hour, Run: func(context.Context) error {
		if fail {
			return errors.New("source unavailable")
		}
		return nil
	}})
	runner.Register(tasks.Job{Name: "prune", Interval: time.Hour, Run: func(context.Context) error { return nil }})

	ctx := context.Background()
	_ = runner.RunOnce(ctx, "refresh")
	fail = false
	_ = runner.RunOnce(ctx, "refresh")

	st := runner.Status()
	if len(st) != 2 || st[0].Name != "prune" || st[1].Name != "refresh" {
		t.Fatalf("Status() = %+v, want prune then refresh", st)
	}
	if st[0].Runs != 0 || !st[0].LastRun.IsZero() {
		t.Errorf("prune status = %+v, want never run", st[0])
	}
	refresh := st[1]
	if refresh.Runs != 2 || refresh.Failures != 1 || refresh.LastError != "" || refresh.LastRun.IsZero() {
		t.Errorf("refresh status = %+v", refresh)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	got := obs.runs["refresh"]
	if len(got) != 2 || got[0] == nil || got[1] != nil {
		t.Errorf("observed runs = %v, want [error, nil]", got)
	}
}
