package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := New()
	var runs atomic.Int32
	svc.Every(ctx, "probe", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("still scheduled after failure")
	})

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	svc.Wait()
	settled := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, runs.Load())
}

func TestEveryIgnoresDisabledInterval(t *testing.T) {
	svc := New()
	svc.Every(context.Background(), "disabled", 0, func(context.Context) error {
		t.Fatal("disabled job must not run")
		return nil
	})
	svc.Wait()
}

func TestRunNowReturnsError(t *testing.T) {
	svc := New()
	want := errors.New("reload failed")
	err := svc.RunNow(context.Background(), "once", func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}
