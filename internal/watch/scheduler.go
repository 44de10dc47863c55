package watch

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
)

// schedule starts a periodic job that asks the watch loop for a run. A
// request is dropped when one is already pending.
func (w *Watcher) schedule(requests chan<- string) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			select {
			case requests <- "scheduled":
			default:
			}
		}),
		gocron.WithName("periodic-regeneration"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule periodic regeneration: %w", err)
	}
	s.Start()
	return s, nil
}
