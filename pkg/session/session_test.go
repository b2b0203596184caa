package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"

	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	appended []*entity.Message
	listed   []*entity.Message
	listErr  error
}

func (f *fakeStore) AppendMessage(ctx context.Context, chatId uuid.UUID, content string, role entity.MessageRole, metadata map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, &entity.Message{
		Id:        uuid.New(),
		ChatId:    chatId,
		Content:   content,
		Role:      role,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) ListMessages(ctx context.Context, chatId uuid.UUID) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listed, f.listErr
}

func (f *fakeStore) appendedByRole(role entity.MessageRole) []*entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.appended {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

type fakeCompleter struct {
	reply   string
	err     error
	started chan struct{} // closed when Complete begins, if non-nil
	release chan struct{} // Complete blocks until closed or ctx done, if non-nil

	mu        sync.Mutex
	histories [][]llm.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, history []llm.Message, model string) (string, error) {
	f.mu.Lock()
	f.histories = append(f.histories, history)
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeCompleter) receivedHistories() [][]llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]llm.Message, len(f.histories))
	copy(out, f.histories)
	return out
}

func newTestSession(t *testing.T, store Store, completer Completer) *Session {
	t.Helper()
	log := logger.NewNopLogger()
	return New(uuid.New(), uuid.New(), "gpt-5.1", store, completer, log)
}

func TestSubmitAppendsUserEntrySynchronously(t *testing.T) {
	store := &fakeStore{}
	completer := &fakeCompleter{reply: "Hi there", release: make(chan struct{})}
	s := newTestSession(t, store, completer)

	sent, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)
	assert.Equal(t, entity.MessageRoleUser, sent.Role)
	assert.Equal(t, "Hello", sent.Content)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, sent.Id, entries[0].Id)
	assert.Equal(t, StateAwaitingCompletion, s.State())

	close(completer.release)
	<-done
}

func TestSubmitProjectsSingleUserMessageOnFreshSession(t *testing.T) {
	completer := &fakeCompleter{reply: "Hi!"}
	s := newTestSession(t, &fakeStore{}, completer)

	_, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)
	<-done

	histories := completer.receivedHistories()
	require.Len(t, histories, 1)
	require.Len(t, histories[0], 1)
	assert.Equal(t, llm.Message{Role: "user", Content: "Hello"}, histories[0][0])
}

func TestSubmitHistoryIncludesPriorTurns(t *testing.T) {
	completer := &fakeCompleter{reply: "second answer"}
	s := newTestSession(t, &fakeStore{}, completer)

	_, done, err := s.Submit(context.Background(), "first question", "")
	require.NoError(t, err)
	<-done

	_, done, err = s.Submit(context.Background(), "second question", "")
	require.NoError(t, err)
	<-done

	histories := completer.receivedHistories()
	require.Len(t, histories, 2)
	// The second call sees the whole transcript in order, ending with the
	// freshly appended user entry.
	require.Len(t, histories[1], 3)
	assert.Equal(t, "first question", histories[1][0].Content)
	assert.Equal(t, "assistant", histories[1][1].Role)
	assert.Equal(t, llm.Message{Role: "user", Content: "second question"}, histories[1][2])
}

func TestSubmitRejectsEmptyText(t *testing.T) {
	s := newTestSession(t, &fakeStore{}, &fakeCompleter{})

	_, _, err := s.Submit(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, s.Entries())
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitRejectsWhileTurnInFlight(t *testing.T) {
	completer := &fakeCompleter{reply: "ok", release: make(chan struct{})}
	s := newTestSession(t, &fakeStore{}, completer)

	_, done, err := s.Submit(context.Background(), "first", "")
	require.NoError(t, err)

	_, _, err = s.Submit(context.Background(), "second", "")
	assert.ErrorIs(t, err, ErrBusy)

	close(completer.release)
	<-done
}

func TestSuccessfulTurnAppendsOneAssistantEntry(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store, &fakeCompleter{reply: "The answer is 42."})

	_, done, err := s.Submit(context.Background(), "What is the answer?", "")
	require.NoError(t, err)

	result := <-done
	require.NoError(t, result.Err)
	assert.False(t, result.Cancelled)
	assert.Equal(t, "The answer is 42.", result.Reply.Content)
	assert.Equal(t, entity.MessageRoleAssistant, result.Reply.Role)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, entity.MessageRoleUser, entries[0].Role)
	assert.Equal(t, entity.MessageRoleAssistant, entries[1].Role)
	assert.Equal(t, StateIdle, s.State())
}

func TestFailedTurnAppendsFailureNotice(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store, &fakeCompleter{err: &llm.ProviderError{Status: 500, Detail: "upstream exploded"}})

	_, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)

	result := <-done
	require.Error(t, result.Err)
	assert.False(t, result.Cancelled)
	assert.Equal(t, constant.FailureNotice, result.Reply.Content)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, constant.FailureNotice, entries[1].Content)
	assert.Equal(t, StateIdle, s.State())

	// The failure notice is persisted so it survives a reload.
	assert.Eventually(t, func() bool {
		for _, m := range store.appendedByRole(entity.MessageRoleAssistant) {
			if m.Content == constant.FailureNotice {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestCancelledTurnAppendsTransientNotice(t *testing.T) {
	store := &fakeStore{}
	completer := &fakeCompleter{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(t, store, completer)

	_, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)

	<-completer.started
	require.True(t, s.Cancel())
	assert.Equal(t, StateCancelling, s.State())

	result := <-done
	assert.True(t, result.Cancelled)
	assert.Equal(t, constant.CancelNotice, result.Reply.Content)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, constant.CancelNotice, entries[1].Content)
	assert.Equal(t, StateIdle, s.State())

	// The cancellation notice never reaches the store.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.appendedByRole(entity.MessageRoleAssistant))
}

func TestCancelIsNoOpWhenIdle(t *testing.T) {
	s := newTestSession(t, &fakeStore{}, &fakeCompleter{})
	assert.False(t, s.Cancel())
	assert.Equal(t, StateIdle, s.State())
}

func TestResolvedCompletionWinsOverLateCancel(t *testing.T) {
	completer := &fakeCompleter{reply: "done already"}
	s := newTestSession(t, &fakeStore{}, completer)

	_, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)

	result := <-done
	require.NoError(t, result.Err)

	// The turn resolved; a late cancel must not produce a second terminal.
	assert.False(t, s.Cancel())

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "done already", entries[1].Content)
}

func TestTurnOutlivesSubmittingContext(t *testing.T) {
	completer := &fakeCompleter{reply: "still here", started: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(t, &fakeStore{}, completer)

	ctx, cancel := context.WithCancel(context.Background())
	_, done, err := s.Submit(ctx, "Hello", "")
	require.NoError(t, err)

	<-completer.started
	cancel() // the submitting request goes away
	close(completer.release)

	result := <-done
	require.NoError(t, result.Err)
	assert.Equal(t, "still here", result.Reply.Content)
}

func TestModelOverridePersistsForFollowingTurns(t *testing.T) {
	s := newTestSession(t, &fakeStore{}, &fakeCompleter{reply: "ok"})

	_, done, err := s.Submit(context.Background(), "Hello", "claude-sonnet")
	require.NoError(t, err)
	<-done

	assert.Equal(t, "claude-sonnet", s.Model())
}

func TestReloadReplacesEntriesFromStore(t *testing.T) {
	chatId := uuid.New()
	store := &fakeStore{listed: []*entity.Message{
		{Id: uuid.New(), ChatId: chatId, Content: "persisted question", Role: entity.MessageRoleUser, CreatedAt: time.Now()},
		{Id: uuid.New(), ChatId: chatId, Content: "persisted answer", Role: entity.MessageRoleAssistant, CreatedAt: time.Now()},
	}}
	s := newTestSession(t, store, &fakeCompleter{})

	require.NoError(t, s.Reload(context.Background()))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "persisted question", entries[0].Content)
	assert.Equal(t, "persisted answer", entries[1].Content)
}

func TestReloadRejectedWhileTurnInFlight(t *testing.T) {
	completer := &fakeCompleter{reply: "ok", release: make(chan struct{})}
	s := newTestSession(t, &fakeStore{}, completer)

	_, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Reload(context.Background()), ErrBusy)

	close(completer.release)
	<-done
}

func TestUserTurnPersistedInBackground(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store, &fakeCompleter{reply: "ok"})

	_, done, err := s.Submit(context.Background(), "Hello", "")
	require.NoError(t, err)
	<-done

	assert.Eventually(t, func() bool {
		users := store.appendedByRole(entity.MessageRoleUser)
		return len(users) == 1 && users[0].Content == "Hello"
	}, time.Second, 10*time.Millisecond)
}
