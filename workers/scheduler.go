// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartReplayScheduler runs the replay worker every interval. A run that
// overlaps the next tick pushes it back instead of running twice.
func StartReplayScheduler(w *ReplayWorker, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if _, err := w.Drain(ctx); err != nil {
				log.Printf("[REPLAY] Run stopped: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduling replay job: %w", err)
	}

	sched.Start()
	return sched, nil
}
