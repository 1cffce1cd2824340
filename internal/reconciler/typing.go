package reconciler

import (
	"sync"
	"time"
)

const (
	// typingThrottleFor suppresses repeat typing:start publishes.
	typingThrottleFor = 800 * time.Millisecond
	// typingIdleAfter is keystroke inactivity before a typing:stop.
	typingIdleAfter = 1000 * time.Millisecond
)

// TypingThrottle turns raw keystrokes into at most one typing:start per
// throttle window and exactly one typing:stop per pause. State is scoped to
// the owning reconciler instance, never shared process-wide, so concurrent
// chat views cannot bleed into each other.
type TypingThrottle struct {
	mu            sync.Mutex
	publish       func(isTyping bool)
	isTyping      bool
	throttled     bool
	throttleTimer *time.Timer
	idleTimer     *time.Timer
	throttleFor   time.Duration
	idleAfter     time.Duration
}

// NewTypingThrottle constructs a throttle publishing through the given
// callback. The callback must not block; route it through a BestEffort queue.
func NewTypingThrottle(publish func(isTyping bool)) *TypingThrottle {
	return &TypingThrottle{
		publish:     publish,
		throttleFor: typingThrottleFor,
		idleAfter:   typingIdleAfter,
	}
}

// Keystroke records input activity. The first keystroke publishes
// typing:start immediately; followups inside the throttle window are
// suppressed. Each keystroke re-arms the inactivity timer.
func (t *TypingThrottle) Keystroke() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	t.idleTimer = time.AfterFunc(t.idleAfter, t.Stop)

	if t.throttled || t.isTyping {
		return
	}
	t.isTyping = true
	t.throttled = true
	t.publish(true)

	t.throttleTimer = time.AfterFunc(t.throttleFor, func() {
		t.mu.Lock()
		t.throttled = false
		t.mu.Unlock()
	})
}

// Stop publishes typing:stop if a start is outstanding. Submitting a message
// or clearing the input calls this ahead of any other side effect so a stale
// indicator never outlives the message.
func (t *TypingThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	if !t.isTyping {
		return
	}
	t.isTyping = false
	t.publish(false)
}

// Close stops all timers without publishing.
func (t *TypingThrottle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	if t.throttleTimer != nil {
		t.throttleTimer.Stop()
		t.throttleTimer = nil
	}
	t.isTyping = false
	t.throttled = false
}
