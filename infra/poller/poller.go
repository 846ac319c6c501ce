// Package poller refreshes the timeline on a fixed schedule.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/CrestNiraj12/twiddle/domain"
)

// Job is the periodic work, normally timeline.Store.FetchRefresh.
type Job func(ctx context.Context) ([]domain.Post, error)

// Poller runs Job every interval. Runs never overlap: a tick that fires
// while the previous refresh is still in flight is skipped.
type Poller struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration
	logger  *slog.Logger
}

// New schedules job at "@every interval". timeout bounds each run; zero
// means the interval itself.
func New(interval, timeout time.Duration, job Job, logger *slog.Logger) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid refresh interval %s", interval)
	}
	if timeout <= 0 {
		timeout = interval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Poller{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		job:     job,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "poller")),
	}
	if _, err := p.cron.AddFunc("@every "+interval.String(), p.run); err != nil {
		return nil, fmt.Errorf("scheduling refresh: %w", err)
	}
	p.logger.Debug("refresh scheduled", slog.Duration("interval", interval))
	return p, nil
}

func (p *Poller) run() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	added, err := p.job(ctx)
	switch {
	case err == nil:
		p.logger.Debug("background refresh done", slog.Int("added", len(added)), slog.Duration("elapsed", time.Since(start)))
	case errors.Is(err, domain.ErrUnauthenticated):
		p.logger.Debug("background refresh skipped", slog.Any("err", err))
	default:
		p.logger.Warn("background refresh failed", slog.Int("added", len(added)), slog.Any("err", err))
	}
}

// Start begins running the schedule in its own goroutine.
func (p *Poller) Start() {
	p.cron.Start()
}

// Stop halts the schedule. The returned context is done once a running
// refresh has finished.
func (p *Poller) Stop() context.Context {
	return p.cron.Stop()
}
