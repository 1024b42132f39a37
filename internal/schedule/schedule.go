// Package schedule runs cancellable repeating tasks on a shared gocron scheduler.
package schedule

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

type Scheduler struct {
	s gocron.Scheduler
}

func New(clock clockwork.Clock) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	s.Start()
	return &Scheduler{s: s}, nil
}

// Every runs fn once per interval, starting one interval from now. Runs of
// the same task never overlap. The returned stop function may be called any
// number of times.
func (s *Scheduler) Every(interval time.Duration, name string, fn func()) (stop func(), err error) {
	job, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduling %s: %w", name, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := s.s.RemoveJob(job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
				log.Printf("[Schedule] RemoveJob %s error: %v\n", name, err)
			}
		})
	}, nil
}

// Jobs reports how many tasks are currently scheduled.
func (s *Scheduler) Jobs() int {
	return len(s.s.Jobs())
}

func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}
