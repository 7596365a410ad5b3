package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Request: 3 * time.Second, Commit: -1})
	if got := Request(); got != 3*time.Second {
		t.Errorf("Request() = %v, want 3s", got)
	}
	if got := Commit(); got != DefaultCommit {
		t.Errorf("Commit() = %v, want default %v", got, DefaultCommit)
	}

	Reset()
	if got := Current(); got.Request != DefaultRequest || got.Upload != DefaultUpload {
		t.Errorf("Current() after Reset = %+v", got)
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}
