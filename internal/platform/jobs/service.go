package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service runs named background jobs on fixed intervals until its context
// ends.
type Service struct {
	wg sync.WaitGroup
}

func New() *Service {
	return &Service{}
}

// Every runs fn each interval. A non-positive interval disables the job.
// Failures are logged and the job keeps its schedule.
func (s *Service) Every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx, name, fn)
			}
		}
	}()
}

// RunNow runs fn once in the caller's goroutine with the same logging as a
// scheduled run.
func (s *Service) RunNow(ctx context.Context, name string, fn func(context.Context) error) error {
	return s.run(ctx, name, fn)
}

// Wait blocks until every scheduled job has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if err != nil {
		slog.Warn("job run failed", "job", name, "err", err, "durationMs", time.Since(start).Milliseconds())
		return err
	}
	slog.Debug("job run completed", "job", name, "durationMs", time.Since(start).Milliseconds())
	return nil
}
