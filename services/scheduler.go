// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartLifecycleScheduler runs PromoteByWindow every interval until the
// returned scheduler is shut down.
func (s *EventService) StartLifecycleScheduler(interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			moved, err := s.PromoteByWindow(ctx)
			if err != nil {
				log.Printf("[Scheduler] lifecycle pass failed: %v", err)
				return
			}
			if moved > 0 {
				log.Printf("✅ [Scheduler] moved %d event(s) along their lifecycle", moved)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
