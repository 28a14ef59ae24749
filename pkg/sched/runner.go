package sched

import (
	"sync"
	"time"
)

// Task is the cancel handle for a repeating scheduled callback. Loops that
// would otherwise live as bare goroutines with tickers hold one of these so
// teardown can prove no further work is pending.
type Task struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Every runs fn once per interval until the task is stopped. The first run
// fires after one full interval. fn executes on the task's own goroutine;
// a slow fn delays subsequent ticks rather than stacking them.
func Every(interval time.Duration, fn func(now time.Time)) *Task {
	t := &Task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				fn(now)
			case <-t.stop:
				return
			}
		}
	}()

	return t
}

// Stop cancels the task and blocks until its goroutine has exited. After
// Stop returns, fn will not run again. Stop is safe to call more than once.
func (t *Task) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}
