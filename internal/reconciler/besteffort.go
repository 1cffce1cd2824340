package reconciler

import (
	"log"
	"sync"
)

type task struct {
	name string
	fn   func() error
}

// BestEffort runs fire-and-forget side-channel work (typing updates, presence
// heartbeats, exit revokes). Failures are logged and never reach the command
// path; ephemeral signals are not worth retrying.
type BestEffort struct {
	mu     sync.Mutex
	tasks  chan task
	closed bool
	wg     sync.WaitGroup
}

// NewBestEffort starts a single worker draining the queue.
func NewBestEffort(buffer int) *BestEffort {
	b := &BestEffort{tasks: make(chan task, buffer)}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for t := range b.tasks {
			if err := t.fn(); err != nil {
				log.Printf("best-effort %s failed: %v", t.name, err)
			}
		}
	}()
	return b
}

// Do enqueues work without blocking. When the queue is full or closed the
// task is dropped and logged.
func (b *BestEffort) Do(name string, fn func() error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		log.Printf("best-effort %s dropped: queue closed", name)
		return
	}
	select {
	case b.tasks <- task{name: name, fn: fn}:
	default:
		log.Printf("best-effort %s dropped: queue full", name)
	}
}

// Close drains outstanding tasks and stops the worker.
func (b *BestEffort) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.tasks)
	b.mu.Unlock()
	b.wg.Wait()
}
