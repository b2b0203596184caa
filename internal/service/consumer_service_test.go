package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name string
		seed string
		want string
	}{
		{"short seed kept whole", "What is Go?", "What is Go?"},
		{"whitespace trimmed", "  hello  ", "hello"},
		{"long seed truncated with ellipsis", strings.Repeat("a", 80), strings.Repeat("a", constant.SeedTitleMaxLen) + "..."},
		{"exactly at cap kept whole", strings.Repeat("b", constant.SeedTitleMaxLen), strings.Repeat("b", constant.SeedTitleMaxLen)},
		{"empty seed stays empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveTitle(tc.seed))
		})
	}
}

func TestConsumerRetitlesPlaceholderChat(t *testing.T) {
	factory := newFakeUowFactory()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "RETITLE_CHAT_TEST"

	chat := &entity.Chat{Id: uuid.New(), UserId: uuid.New(), Title: constant.DefaultChatTitle, CreatedAt: time.Now()}
	require.NoError(t, factory.uow.chatRepo.Create(context.Background(), chat))

	consumer := NewConsumerService(pubSub, topic, factory, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(context.Background()))

	publisher := NewPublisherService(pubSub, topic)
	payload, err := json.Marshal(dto.PublishRetitleChatMessage{ChatId: chat.Id, Seed: "How do goroutines work?"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	assert.Eventually(t, func() bool {
		stored, _ := factory.uow.chatRepo.FindOne(context.Background(), specification.ByID{ID: chat.Id})
		return stored != nil && stored.Title == "How do goroutines work?"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConsumerSkipsUserTitledChat(t *testing.T) {
	factory := newFakeUowFactory()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	topic := "RETITLE_CHAT_TEST_SKIP"

	chat := &entity.Chat{Id: uuid.New(), UserId: uuid.New(), Title: "My own title", CreatedAt: time.Now()}
	require.NoError(t, factory.uow.chatRepo.Create(context.Background(), chat))

	consumer := NewConsumerService(pubSub, topic, factory, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(context.Background()))

	publisher := NewPublisherService(pubSub, topic)
	payload, err := json.Marshal(dto.PublishRetitleChatMessage{ChatId: chat.Id, Seed: "replacement"})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), payload))

	time.Sleep(100 * time.Millisecond)
	stored, _ := factory.uow.chatRepo.FindOne(context.Background(), specification.ByID{ID: chat.Id})
	require.NotNil(t, stored)
	assert.Equal(t, "My own title", stored.Title)
}
