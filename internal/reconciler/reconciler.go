package reconciler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arcade-chat/internal/models"
)

// tempIDPrefix marks optimistic placeholders awaiting server confirmation.
const tempIDPrefix = "temp-"

// defaultReconcileEvery is the background full-list refresh interval. The
// broadcast channel is the primary update path; this is a consistency
// backstop against missed events.
const defaultReconcileEvery = 60 * time.Second

// Commander issues chat commands against the server.
type Commander interface {
	ListRecentMessages(ctx context.Context) ([]models.MessageWithUser, error)
	ListOnlineUsers(ctx context.Context) ([]models.OnlineUser, error)
	Send(ctx context.Context, content string, replyToID *string) (models.MessageWithUser, error)
	SetTyping(ctx context.Context, isTyping bool) error
	SetOnline(ctx context.Context) error
	SetOffline(ctx context.Context) error
	RevokeSolved(ctx context.Context) error
}

// State is the lifecycle of a chat view.
type State int

const (
	StateLoading State = iota
	StateReady
	StateErrored
)

// Reconciler owns the local view of one open chat: the message list, the
// typing and online sets, the typing throttle, and the reconcile timer. It
// merges the periodic full fetch, optimistic local mutations and broadcast
// events through id-keyed idempotent patches.
type Reconciler struct {
	api  Commander
	self models.UserSummary

	mu       sync.Mutex
	state    State
	messages []models.MessageWithUser
	typing   map[string]models.UserSummary
	online   map[string]models.OnlineUser
	enabled  bool

	side     *BestEffort
	throttle *TypingThrottle

	reconcileEvery time.Duration
	onError        func(error)

	cancel context.CancelFunc
	closed sync.Once
}

// Option tunes a Reconciler.
type Option func(*Reconciler)

// WithReconcileInterval overrides the backstop refresh interval.
func WithReconcileInterval(d time.Duration) Option {
	return func(r *Reconciler) { r.reconcileEvery = d }
}

// WithErrorHandler installs the user-facing failure notification hook.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Reconciler) { r.onError = fn }
}

// New constructs a Reconciler for the given identity.
func New(api Commander, self models.UserSummary, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:            api,
		self:           self,
		state:          StateLoading,
		typing:         make(map[string]models.UserSummary),
		online:         make(map[string]models.OnlineUser),
		enabled:        true,
		side:           NewBestEffort(32),
		reconcileEvery: defaultReconcileEvery,
		onError:        func(err error) { log.Printf("chat error: %v", err) },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.throttle = NewTypingThrottle(func(isTyping bool) {
		r.side.Do("typing update", func() error {
			return r.api.SetTyping(context.Background(), isTyping)
		})
	})
	return r
}

// Start performs the initial fetch, seeds the online set from the
// authoritative projection, announces presence and launches the reconcile
// timer. A failed initial fetch leaves the reconciler in StateErrored.
func (r *Reconciler) Start(ctx context.Context) error {
	msgs, err := r.api.ListRecentMessages(ctx)
	if err != nil {
		r.mu.Lock()
		r.state = StateErrored
		r.mu.Unlock()
		return fmt.Errorf("initial fetch: %w", err)
	}

	online, err := r.api.ListOnlineUsers(ctx)
	if err != nil {
		// Cold-start fallback only; broadcast events will fill the set.
		online = nil
	}

	r.mu.Lock()
	r.messages = msgs
	for _, u := range online {
		if u.ID != r.self.ID {
			r.online[u.ID] = u
		}
	}
	r.state = StateReady
	r.mu.Unlock()

	r.side.Do("announce online", func() error {
		return r.api.SetOnline(context.Background())
	})

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.reconcileLoop(loopCtx)
	return nil
}

func (r *Reconciler) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(r.reconcileEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile refetches the full list and replaces local message state. Drift
// from missed or reordered events heals here.
func (r *Reconciler) Reconcile(ctx context.Context) {
	msgs, err := r.api.ListRecentMessages(ctx)
	if err != nil {
		log.Printf("reconcile fetch failed: %v", err)
		return
	}
	r.mu.Lock()
	r.messages = msgs
	r.state = StateReady
	r.mu.Unlock()
}

// ApplyEvent folds one broadcast event into local state. Patches are keyed by
// id and idempotent, so duplicate or reordered deliveries cannot corrupt the
// view; edits and deletes for ids not present locally are dropped.
func (r *Reconciler) ApplyEvent(event models.ChatEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case models.EventMessageNew:
		if event.Payload.Message == nil {
			return
		}
		r.upsertMessage(*event.Payload.Message)

	case models.EventMessageEdit:
		for i := range r.messages {
			if r.messages[i].ID == event.Payload.ID {
				r.messages[i].Content = event.Payload.Content
				r.messages[i].IsEdited = true
				r.messages[i].UpdatedAt = time.Now()
				return
			}
		}

	case models.EventMessageDelete:
		for i := range r.messages {
			if r.messages[i].ID == event.Payload.ID {
				r.messages[i].IsDeleted = true
				r.messages[i].Content = ""
				return
			}
		}

	case models.EventTypingStart:
		if event.Payload.User == nil || event.Payload.User.ID == r.self.ID {
			return
		}
		r.typing[event.Payload.User.ID] = *event.Payload.User

	case models.EventTypingStop:
		delete(r.typing, event.Payload.UserID)

	case models.EventUserOnline:
		if event.Payload.OnlineUser == nil || event.Payload.OnlineUser.ID == r.self.ID {
			return
		}
		r.online[event.Payload.OnlineUser.ID] = *event.Payload.OnlineUser

	case models.EventUserOffline:
		delete(r.online, event.Payload.UserID)

	case models.EventChatCleared:
		r.messages = r.messages[:0]
		if event.Payload.Message != nil {
			r.messages = append(r.messages, *event.Payload.Message)
		}

	case models.EventChatToggled:
		if event.Payload.IsEnabled != nil {
			r.enabled = *event.Payload.IsEnabled
		}
		if event.Payload.Message != nil {
			r.upsertMessage(*event.Payload.Message)
		}
	}
}

// upsertMessage appends a message after dropping optimistic placeholders and
// any existing copy with the same id. Callers hold r.mu.
func (r *Reconciler) upsertMessage(msg models.MessageWithUser) {
	kept := r.messages[:0]
	for _, m := range r.messages {
		if m.ID == msg.ID || strings.HasPrefix(m.ID, tempIDPrefix) {
			continue
		}
		kept = append(kept, m)
	}
	r.messages = append(kept, msg)
}

// SendMessage performs an optimistic send: typing stops immediately, a
// placeholder lands in local state, and the command goes out asynchronously.
// A failure surfaces through the error handler; the placeholder is left for
// the next broadcast or reconcile to correct, trading strict consistency for
// latency.
func (r *Reconciler) SendMessage(ctx context.Context, content string, replyTo *models.MessageWithUser) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return
	}

	r.throttle.Stop()

	now := time.Now()
	placeholder := models.MessageWithUser{
		Message: models.Message{
			ID:        tempIDPrefix + uuid.NewString(),
			UserID:    r.self.ID,
			Content:   trimmed,
			CreatedAt: now,
			UpdatedAt: now,
		},
		User: r.self,
	}
	var replyToID *string
	if replyTo != nil {
		id := replyTo.ID
		replyToID = &id
		placeholder.ReplyToID = &id
	}

	r.mu.Lock()
	r.messages = append(r.messages, placeholder)
	r.mu.Unlock()

	go func() {
		if _, err := r.api.Send(ctx, trimmed, replyToID); err != nil {
			r.onError(fmt.Errorf("send message: %w", err))
		}
	}()
}

// InputChanged feeds the typing throttle. An emptied input forces an
// immediate typing:stop.
func (r *Reconciler) InputChanged(content string) {
	if content == "" {
		r.throttle.Stop()
		return
	}
	r.throttle.Keystroke()
}

// State reports the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ChatEnabled reports the last observed chat-enabled flag.
func (r *Reconciler) ChatEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Messages returns a copy of the current message list, oldest first.
func (r *Reconciler) Messages() []models.MessageWithUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MessageWithUser, len(r.messages))
	copy(out, r.messages)
	return out
}

// TypingUsers returns who is typing, excluding the local user.
func (r *Reconciler) TypingUsers() []models.UserSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.UserSummary, 0, len(r.typing))
	for _, u := range r.typing {
		out = append(out, u)
	}
	return out
}

// OnlineUsers returns the ephemeral online set.
func (r *Reconciler) OnlineUsers() []models.OnlineUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.OnlineUser, 0, len(r.online))
	for _, u := range r.online {
		out = append(out, u)
	}
	return out
}

// Close tears down timers and announces departure: typing stop, offline, and
// the chess-gate revoke all go out best-effort before the queue drains.
// In-flight fire-and-forget commands are never cancelled, only ignored.
func (r *Reconciler) Close() {
	r.closed.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.throttle.Stop()
		r.throttle.Close()
		r.side.Do("announce offline", func() error {
			return r.api.SetOffline(context.Background())
		})
		r.side.Do("revoke puzzle access", func() error {
			return r.api.RevokeSolved(context.Background())
		})
		r.side.Close()
	})
}
