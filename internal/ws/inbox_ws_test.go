package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/mocks"
	"marketplace-service/internal/models"
)

func TestNotifyPresenceReachesCounterparts(t *testing.T) {
	hub := NewHub()
	server, client := newConnPair(t)
	hub.AddInboxClient("bob", server, ConnInfo{})

	convRepo := new(mocks.ConversationRepositoryMock)
	convRepo.On("ListConversations", mock.Anything, "alice").Return([]models.Conversation{
		{ID: 1, User1ID: "alice", User2ID: "bob"},
	}, nil).Once()

	handler := NewInboxWebSocketHandler(hub, nil, convRepo, nil)
	handler.notifyPresence(context.Background(), "alice", true)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var event models.ChatEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "presence", event.Type)
	assert.Equal(t, "alice", event.UserID)
	assert.True(t, event.Online)
	convRepo.AssertExpectations(t)
}

func TestNotifyPresenceOfflineEvent(t *testing.T) {
	hub := NewHub()
	server, client := newConnPair(t)
	hub.AddInboxClient("bob", server, ConnInfo{})

	convRepo := new(mocks.ConversationRepositoryMock)
	convRepo.On("ListConversations", mock.Anything, "alice").Return([]models.Conversation{
		{ID: 1, User1ID: "bob", User2ID: "alice"},
	}, nil).Once()

	handler := NewInboxWebSocketHandler(hub, nil, convRepo, nil)
	handler.notifyPresence(context.Background(), "alice", false)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var event models.ChatEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "presence", event.Type)
	assert.Equal(t, "alice", event.UserID)
	assert.False(t, event.Online)
	convRepo.AssertExpectations(t)
}

func TestNotifyPresenceSurvivesRepositoryError(t *testing.T) {
	hub := NewHub()

	convRepo := new(mocks.ConversationRepositoryMock)
	convRepo.On("ListConversations", mock.Anything, "alice").Return(nil, assert.AnError).Once()

	handler := NewInboxWebSocketHandler(hub, nil, convRepo, nil)
	handler.notifyPresence(context.Background(), "alice", true)
	convRepo.AssertExpectations(t)
}
