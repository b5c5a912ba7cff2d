package chat_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/akolanti/studyfellow/internal/chat"
	"github.com/akolanti/studyfellow/internal/data/store"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(messages chatModel.MessageStore, provider *MockProvider) *chat.Engine {
	assembler := chat.NewAssembler(messages, newMetadata(physicsDoc()))
	return chat.NewEngine(assembler, messages, provider)
}

func TestRespond_AnswersLatestUserTurn(t *testing.T) {
	messages := store.InitMessageStore()
	conv := chatModel.RoomConversation("room-1")
	seedMessages(t, messages, conv,
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "q1"},
		chatModel.Message{Role: chatModel.RoleModel, Type: chatModel.TypeText, Content: "a1"},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "q2"},
		chatModel.Message{Role: chatModel.RoleModel, Type: chatModel.TypeText, Content: "a2"},
	)
	provider := &MockProvider{}

	reply, err := newEngine(messages, provider).Respond(traceCtx(), conv, nil, "student-7")
	require.NoError(t, err)
	assert.Equal(t, "mocked tutor reply", reply)

	assert.Equal(t, []chatModel.Part{chatModel.TextPart("q2")}, provider.LastInput)
	require.Len(t, provider.LastHistory, 2)
	assert.Equal(t, "q1", provider.LastHistory[0].Parts[0].Text)
	assert.Equal(t, "a1", provider.LastHistory[1].Parts[0].Text)

	stored, err := messages.ListMessages(context.Background(), conv)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	last := stored[4]
	assert.Equal(t, chatModel.RoleModel, last.Role)
	assert.Equal(t, chatModel.TypeText, last.Type)
	assert.Equal(t, "mocked tutor reply", last.Content)
	assert.Equal(t, "student-7", last.UserID)
	assert.Equal(t, "room-1", last.ConversationID)
}

func TestRespond_NoUserTurnIsBadRequest(t *testing.T) {
	tests := []struct {
		name string
		msgs []chatModel.Message
	}{
		{"empty conversation", nil},
		{"only model messages", []chatModel.Message{
			{Role: chatModel.RoleModel, Type: chatModel.TypeText, Content: "hello"},
			{Role: chatModel.RoleModel, Type: chatModel.TypeText, Content: "anyone?"},
		}},
		{"user messages all dropped", []chatModel.Message{
			{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: " "},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := store.InitMessageStore()
			conv := chatModel.RoomConversation("room-empty")
			seedMessages(t, messages, conv, tt.msgs...)
			provider := &MockProvider{}

			_, err := newEngine(messages, provider).Respond(traceCtx(), conv, nil, "")
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, chat.StatusCode(err))
			assert.Equal(t, 0, provider.Calls)

			stored, _ := messages.ListMessages(context.Background(), conv)
			assert.Len(t, stored, len(tt.msgs))
		})
	}
}

func TestRespond_ModelFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name     string
		generate func(ctx context.Context, h []chatModel.Turn, in []chatModel.Part) ([]chatModel.Candidate, error)
	}{
		{"provider error", func(ctx context.Context, h []chatModel.Turn, in []chatModel.Part) ([]chatModel.Candidate, error) {
			return nil, errors.New("quota exhausted")
		}},
		{"no candidates", func(ctx context.Context, h []chatModel.Turn, in []chatModel.Part) ([]chatModel.Candidate, error) {
			return []chatModel.Candidate{}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := store.InitMessageStore()
			conv := chatModel.RoomConversation("room-fail")
			seedMessages(t, messages, conv, chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "q"})

			_, err := newEngine(messages, &MockProvider{OnGenerate: tt.generate}).Respond(traceCtx(), conv, nil, "")
			require.Error(t, err)
			assert.Equal(t, http.StatusInternalServerError, chat.StatusCode(err))
			assert.Equal(t, "Failed to get response from AI model", chat.PublicMessage(err))

			stored, _ := messages.ListMessages(context.Background(), conv)
			assert.Len(t, stored, 1)
		})
	}
}

func TestRespond_AppendFailure(t *testing.T) {
	inner := store.InitMessageStore()
	conv := chatModel.RoomConversation("room-append")
	seedMessages(t, inner, conv, chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "q"})
	messages := &MockMessageStore{
		OnListMessages: inner.ListMessages,
		OnAppendMessage: func(ctx context.Context, conv chatModel.Conversation, msg chatModel.Message) error {
			return errors.New("write refused")
		},
	}

	_, err := newEngine(messages, &MockProvider{}).Respond(traceCtx(), conv, nil, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, chat.StatusCode(err))
}

func TestRespond_SeedLeadsHistory(t *testing.T) {
	messages := store.InitMessageStore()
	conv := chatModel.PostConversation("post-1")
	provider := &MockProvider{}
	seed := chatModel.Turn{Role: chatModel.RoleUser, Parts: []chatModel.Part{chatModel.TextPart("post body")}}

	t.Run("seed alone is the active turn", func(t *testing.T) {
		_, err := newEngine(messages, provider).Respond(traceCtx(), conv, &seed, "owner")
		require.NoError(t, err)
		assert.Empty(t, provider.LastHistory)
		assert.Equal(t, seed.Parts, provider.LastInput)
	})

	t.Run("follow up question", func(t *testing.T) {
		require.NoError(t, messages.AppendMessage(context.Background(), conv, chatModel.Message{
			Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "and why?", CreatedAt: time.Now().Add(time.Hour),
		}))
		_, err := newEngine(messages, provider).Respond(traceCtx(), conv, &seed, "owner")
		require.NoError(t, err)
		require.Len(t, provider.LastHistory, 2)
		assert.Equal(t, seed, provider.LastHistory[0])
		assert.Equal(t, chatModel.RoleModel, provider.LastHistory[1].Role)
		assert.Equal(t, "and why?", provider.LastInput[0].Text)
	})
}

func TestReplyText(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  string
	}{
		{"first part text", []string{"first", "second"}, "first"},
		{"first part not text", []string{"", "second", "third"}, "second third"},
		{"whitespace only", []string{"", "  "}, "The AI response did not contain any text."},
		{"no parts", nil, "The AI response did not contain any text."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chat.ReplyText(chatModel.Candidate{Texts: tt.texts}))
		})
	}
}
