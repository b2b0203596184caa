package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
)

// State is the lifecycle of one conversation turn.
type State int32

const (
	StateIdle State = iota
	StateAwaitingCompletion
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateCancelling:
		return "cancelling"
	}
	return "unknown"
}

var (
	// ErrEmptyMessage rejects blank submissions before any side effect.
	ErrEmptyMessage = errors.New("session: message is empty")

	// ErrBusy rejects a submit while a turn is still in flight. Turns are
	// never queued or interleaved.
	ErrBusy = errors.New("session: a turn is already in flight")
)

// Entry is one transcript line in the transient list. It mirrors a persisted
// Message but exists before (or without) the persistence write confirming.
type Entry struct {
	Id        uuid.UUID
	Role      entity.MessageRole
	Content   string
	CreatedAt time.Time
}

// TurnResult is the terminal outcome of one submitted turn. Exactly one of
// the three shapes occurs: a reply (Err nil, Cancelled false), a cancellation
// notice (Cancelled true), or a failure notice (Err non-nil).
type TurnResult struct {
	Reply     Entry
	Cancelled bool
	Err       error
}

// Store persists transcript turns. Writes for user turns are fire-and-forget
// relative to the visible turn; failures are logged, never surfaced.
type Store interface {
	AppendMessage(ctx context.Context, chatId uuid.UUID, content string, role entity.MessageRole, metadata map[string]interface{}) error
	ListMessages(ctx context.Context, chatId uuid.UUID) ([]*entity.Message, error)
}

// Completer produces one assistant reply for an ordered history.
type Completer interface {
	Complete(ctx context.Context, history []llm.Message, model string) (string, error)
}

// Session owns the transient transcript and the single outstanding
// completion request for one open chat. All state transitions are guarded by
// the session mutex; adapter calls run outside the lock.
type Session struct {
	chatId uuid.UUID
	userId uuid.UUID

	store     Store
	completer Completer
	log       logger.ILogger

	mu      sync.Mutex
	state   State
	entries []Entry
	model   string
	cancel  context.CancelFunc
	turn    uint64 // generation counter; finishTurn only lands for the matching turn
}

func New(chatId, userId uuid.UUID, model string, store Store, completer Completer, log logger.ILogger) *Session {
	return &Session{
		chatId:    chatId,
		userId:    userId,
		model:     model,
		store:     store,
		completer: completer,
		log:       log,
	}
}

func (s *Session) ChatId() uuid.UUID {
	return s.chatId
}

func (s *Session) UserId() uuid.UUID {
	return s.userId
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Entries returns a copy of the transient list in append order.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reload wholly replaces the transient list from persisted truth. Rejected
// while a turn is in flight so optimistic and persisted views never merge.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.mu.Unlock()

	messages, err := s.store.ListMessages(ctx, s.chatId)
	if err != nil {
		return err
	}

	entries := make([]Entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, Entry{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		// A turn started while we were fetching; keep the live view.
		return ErrBusy
	}
	s.entries = entries
	return nil
}

// Submit starts one turn: the user entry is appended to the transient list
// synchronously, its persistence write is issued without being awaited, and
// the completion request runs on its own goroutine. The returned channel
// delivers exactly one TurnResult when the turn reaches a terminal state.
func (s *Session) Submit(ctx context.Context, text, model string) (Entry, <-chan TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return Entry{}, nil, ErrBusy
	}

	userEntry := Entry{
		Id:        uuid.New(),
		Role:      entity.MessageRoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	s.entries = append(s.entries, userEntry)
	s.state = StateAwaitingCompletion
	s.turn++
	turn := s.turn

	if model != "" {
		s.model = model
	}
	selectedModel := s.model

	history := make([]llm.Message, 0, len(s.entries))
	for _, e := range s.entries {
		history = append(history, llm.Message{Role: string(e.Role), Content: e.Content})
	}

	// The completion must outlive the triggering request: the turn resolves
	// into the transcript even if the submitting HTTP exchange goes away.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()

	// Persistence of the user turn is fire-and-forget: the optimistic entry
	// already exists, so a failed write is logged, not surfaced.
	go func() {
		pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer pcancel()
		if err := s.store.AppendMessage(pctx, s.chatId, text, entity.MessageRoleUser, nil); err != nil {
			s.log.Warn("Session", "Failed to persist user turn", map[string]interface{}{
				"chat_id": s.chatId.String(),
				"error":   err.Error(),
			})
		}
	}()

	done := make(chan TurnResult, 1)
	go s.runTurn(runCtx, turn, history, selectedModel, done)

	return userEntry, done, nil
}

// Cancel withdraws the outstanding completion request. A no-op outside
// AwaitingCompletion. Cancel never appends the terminal entry itself; the
// turn goroutine is the sole writer of terminal entries, which is what keeps
// the resolved-vs-cancelled race down to exactly one entry per turn.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingCompletion {
		return false
	}
	s.state = StateCancelling
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

func (s *Session) runTurn(ctx context.Context, turn uint64, history []llm.Message, model string, done chan<- TurnResult) {
	reply, err := s.completer.Complete(ctx, history, model)

	var result TurnResult
	switch {
	case err == nil:
		// If Cancel lost the race to an already-resolved completion, the
		// reply still wins: one terminal entry, no cancellation notice.
		result = s.finishTurn(ctx, turn, Entry{
			Id:        uuid.New(),
			Role:      entity.MessageRoleAssistant,
			Content:   reply,
			CreatedAt: time.Now(),
		}, map[string]interface{}{"model": model})

	case llm.IsCancelled(err):
		result = s.finishTurn(ctx, turn, Entry{
			Id:        uuid.New(),
			Role:      entity.MessageRoleAssistant,
			Content:   constant.CancelNotice,
			CreatedAt: time.Now(),
		}, nil)
		result.Cancelled = true

	default:
		s.log.Error("Session", "Completion failed", map[string]interface{}{
			"chat_id": s.chatId.String(),
			"model":   model,
			"error":   err.Error(),
		})
		result = s.finishTurn(ctx, turn, Entry{
			Id:        uuid.New(),
			Role:      entity.MessageRoleAssistant,
			Content:   constant.FailureNotice,
			CreatedAt: time.Now(),
		}, map[string]interface{}{"error": true})
		result.Err = err
	}

	done <- result
}

// finishTurn appends the single terminal entry for the turn and returns the
// session to Idle. Metadata non-nil means the entry is persisted as an
// assistant turn (success and failure notices survive a reload); the
// cancellation notice stays transient.
func (s *Session) finishTurn(ctx context.Context, turn uint64, e Entry, metadata map[string]interface{}) TurnResult {
	s.mu.Lock()
	if s.turn != turn || s.state == StateIdle {
		// The turn was already resolved; never append a second terminal.
		s.mu.Unlock()
		return TurnResult{Reply: e}
	}
	s.entries = append(s.entries, e)
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()

	if metadata != nil {
		pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer pcancel()
		if err := s.store.AppendMessage(pctx, s.chatId, e.Content, e.Role, metadata); err != nil {
			s.log.Warn("Session", "Failed to persist assistant turn", map[string]interface{}{
				"chat_id": s.chatId.String(),
				"error":   err.Error(),
			})
		}
	}

	return TurnResult{Reply: e}
}
