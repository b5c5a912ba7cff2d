package chat_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/akolanti/studyfellow/internal/chat"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/data/redisStore"
	"github.com/akolanti/studyfellow/internal/data/store"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redisStore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redisStore.NewTestStore(client)
}

func traceCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "chat-test")
}

func physicsDoc() documentModel.DocumentMetadata {
	return documentModel.DocumentMetadata{
		ID:         "doc-physics",
		Path:       "raw_documents/physics/intro.pdf",
		FileName:   "intro.pdf",
		Subject:    "physics",
		TotalPages: 5,
		Status:     documentModel.StatusUnprocessed,
	}
}

func newMetadata(records ...documentModel.DocumentMetadata) *MockMetadataStore {
	m := &MockMetadataStore{Records: map[string]documentModel.DocumentMetadata{}}
	for _, r := range records {
		m.Records[r.ID] = r
	}
	return m
}

// seedMessages appends msgs one second apart starting at baseTime.
func seedMessages(t *testing.T, messages chatModel.MessageStore, conv chatModel.Conversation, msgs ...chatModel.Message) {
	t.Helper()
	for i, msg := range msgs {
		msg.CreatedAt = baseTime.Add(time.Duration(i) * time.Second)
		require.NoError(t, messages.AppendMessage(context.Background(), conv, msg))
	}
}

func blobPaths(parts []chatModel.Part) []string {
	var paths []string
	for _, p := range parts {
		if p.IsBlob() {
			paths = append(paths, p.Blob.Path)
		}
	}
	return paths
}

func TestAssemble_ContextRangeResolvesToPages(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantParts int
		wantLead  bool
	}{
		{"with lead text", "Explain these pages", 4, true},
		{"blank lead", "   ", 3, false},
		{"no lead", "", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := store.InitMessageStore()
			conv := chatModel.RoomConversation("room-1")
			seedMessages(t, messages, conv, chatModel.Message{
				Role:       chatModel.RoleUser,
				Type:       chatModel.TypeContext,
				Content:    tt.content,
				DocumentID: "doc-physics",
				StartPage:  intPtr(2),
				EndPage:    intPtr(4),
			})

			turns, err := chat.NewAssembler(messages, newMetadata(physicsDoc())).Assemble(traceCtx(), conv)
			require.NoError(t, err)
			require.Len(t, turns, 1)

			parts := turns[0].Parts
			require.Len(t, parts, tt.wantParts)
			assert.Equal(t, tt.wantLead, !parts[0].IsBlob())
			assert.Equal(t, []string{
				"split_documents/physics/intro/page2.pdf",
				"split_documents/physics/intro/page3.pdf",
				"split_documents/physics/intro/page4.pdf",
			}, blobPaths(parts))
			for _, p := range parts {
				if p.IsBlob() {
					assert.Equal(t, "application/pdf", p.Blob.MimeType)
				}
			}
		})
	}
}

func TestAssemble_MessageMapping(t *testing.T) {
	noSubject := physicsDoc()
	noSubject.ID = "doc-nosubject"
	noSubject.Subject = ""

	messages := store.InitMessageStore()
	conv := chatModel.RoomConversation("room-42")
	seedMessages(t, messages, conv,
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "hello"},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "  "},
		chatModel.Message{Role: "system", Content: "untyped reads as text"},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeImage, Content: "look", UserID: "u1", FileName: "graph.png", MimeType: "image/png"},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeFile, UserID: "u1", FileName: "notes.pdf"},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: "doc-missing", StartPage: intPtr(1), EndPage: intPtr(1)},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, Content: "lead", DocumentID: "doc-nosubject", StartPage: intPtr(1), EndPage: intPtr(1)},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, Content: "backwards", DocumentID: "doc-physics", StartPage: intPtr(4), EndPage: intPtr(2)},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: "doc-physics", StartPage: intPtr(3), EndPage: intPtr(1)},
		chatModel.Message{Role: chatModel.RoleUser, Type: "video", Content: "unsupported"},
		chatModel.Message{Role: chatModel.RoleModel, Type: chatModel.TypeText, Content: "reply"},
	)

	turns, err := chat.NewAssembler(messages, newMetadata(physicsDoc(), noSubject)).Assemble(traceCtx(), conv)
	require.NoError(t, err)
	require.Len(t, turns, 5)

	assert.Equal(t, chatModel.Turn{Role: chatModel.RoleUser, Parts: []chatModel.Part{chatModel.TextPart("hello")}}, turns[0])
	assert.Equal(t, chatModel.Turn{Role: chatModel.RoleUser, Parts: []chatModel.Part{chatModel.TextPart("untyped reads as text")}}, turns[1])

	assert.Equal(t, chatModel.RoleUser, turns[2].Role)
	require.Len(t, turns[2].Parts, 2)
	assert.Equal(t, "look", turns[2].Parts[0].Text)
	assert.Equal(t, &chatModel.BlobRef{Path: "chat_attachments/u1/room-42/graph.png", MimeType: "image/png"}, turns[2].Parts[1].Blob)

	// inverted range keeps only the lead text
	assert.Equal(t, []chatModel.Part{chatModel.TextPart("backwards")}, turns[3].Parts)

	assert.Equal(t, chatModel.RoleModel, turns[4].Role)
}

func TestAssemble_OutOfRangePagesAreSkipped(t *testing.T) {
	messages := store.InitMessageStore()
	conv := chatModel.RoomConversation("room-1")
	seedMessages(t, messages, conv, chatModel.Message{
		Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: "doc-physics", StartPage: intPtr(0), EndPage: intPtr(9),
	})

	turns, err := chat.NewAssembler(messages, newMetadata(physicsDoc())).Assemble(traceCtx(), conv)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Len(t, blobPaths(turns[0].Parts), 5)
}

func TestAssemble_ZeroPageDocumentContributesNoPages(t *testing.T) {
	unreadable := physicsDoc()
	unreadable.ID = "doc-unreadable"
	unreadable.TotalPages = 0

	messages := store.InitMessageStore()
	conv := chatModel.RoomConversation("room-1")
	seedMessages(t, messages, conv,
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: "doc-unreadable", StartPage: intPtr(1), EndPage: intPtr(3)},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, Content: "what does this say?", DocumentID: "doc-unreadable", StartPage: intPtr(1), EndPage: intPtr(1)},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "hello"},
	)

	turns, err := chat.NewAssembler(messages, newMetadata(unreadable)).Assemble(traceCtx(), conv)
	require.NoError(t, err)
	require.Len(t, turns, 2, "a page-only context message on a zero page document is dropped")

	assert.Equal(t, []chatModel.Part{chatModel.TextPart("what does this say?")}, turns[0].Parts)
	assert.Empty(t, blobPaths(turns[0].Parts))
	assert.Equal(t, []chatModel.Part{chatModel.TextPart("hello")}, turns[1].Parts)
}

func TestAssemble_PreservesOrderWithSlowLookups(t *testing.T) {
	docs := []documentModel.DocumentMetadata{}
	for _, subject := range []string{"a", "b", "c", "d"} {
		docs = append(docs, documentModel.DocumentMetadata{
			ID:         "doc-" + subject,
			Path:       "raw_documents/" + subject + "/book.pdf",
			FileName:   "book.pdf",
			Subject:    subject,
			TotalPages: 1,
		})
	}
	meta := newMetadata(docs...)
	delays := map[string]time.Duration{"doc-a": 40 * time.Millisecond, "doc-b": 0, "doc-c": 20 * time.Millisecond, "doc-d": 5 * time.Millisecond}
	meta.OnGetByID = func(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
		time.Sleep(delays[id])
		r, ok := meta.Records[id]
		return r, ok, nil
	}

	messages := store.InitMessageStore()
	conv := chatModel.RoomConversation("room-order")
	var msgs []chatModel.Message
	for _, d := range docs {
		msgs = append(msgs,
			chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "before " + d.Subject},
			chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: d.ID, StartPage: intPtr(1), EndPage: intPtr(1)},
		)
	}
	seedMessages(t, messages, conv, msgs...)

	turns, err := chat.NewAssembler(messages, meta).Assemble(traceCtx(), conv)
	require.NoError(t, err)
	require.Len(t, turns, 8)
	for i, d := range docs {
		assert.Equal(t, "before "+d.Subject, turns[2*i].Parts[0].Text)
		assert.Equal(t, []string{"split_documents/" + d.Subject + "/book/page1.pdf"}, blobPaths(turns[2*i+1].Parts))
	}
}

func TestAssemble_IsDeterministic(t *testing.T) {
	_, internalStore := newTestRedis(t)
	messages := store.NewRedisMessageStore(internalStore)
	conv := chatModel.RoomConversation("room-det")
	seedMessages(t, messages, conv,
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "first"},
		chatModel.Message{Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: "doc-physics", StartPage: intPtr(1), EndPage: intPtr(2)},
		chatModel.Message{Role: chatModel.RoleModel, Type: chatModel.TypeText, Content: "answer"},
	)
	// two messages sharing a timestamp
	require.NoError(t, messages.AppendMessage(context.Background(), conv, chatModel.Message{
		ID: "tie-b", Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "tie b", CreatedAt: baseTime.Add(time.Hour),
	}))
	require.NoError(t, messages.AppendMessage(context.Background(), conv, chatModel.Message{
		ID: "tie-a", Role: chatModel.RoleUser, Type: chatModel.TypeText, Content: "tie a", CreatedAt: baseTime.Add(time.Hour),
	}))

	assembler := chat.NewAssembler(messages, newMetadata(physicsDoc()))
	first, err := assembler.Assemble(traceCtx(), conv)
	require.NoError(t, err)
	second, err := assembler.Assemble(traceCtx(), conv)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "tie a", first[3].Parts[0].Text)
}

func TestAssemble_StorageErrors(t *testing.T) {
	conv := chatModel.RoomConversation("room-err")

	t.Run("message read", func(t *testing.T) {
		messages := &MockMessageStore{OnListMessages: func(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Message, error) {
			return nil, errors.New("redis down")
		}}
		_, err := chat.NewAssembler(messages, newMetadata()).Assemble(traceCtx(), conv)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, chat.StatusCode(err))
	})

	t.Run("metadata lookup", func(t *testing.T) {
		messages := store.InitMessageStore()
		seedMessages(t, messages, conv, chatModel.Message{
			Role: chatModel.RoleUser, Type: chatModel.TypeContext, DocumentID: "doc-physics", StartPage: intPtr(1), EndPage: intPtr(1),
		})
		meta := newMetadata()
		meta.OnGetByID = func(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
			return documentModel.DocumentMetadata{}, false, errors.New("timeout")
		}
		_, err := chat.NewAssembler(messages, meta).Assemble(traceCtx(), conv)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, chat.StatusCode(err))
	})
}

func TestSeedFromPost(t *testing.T) {
	assembler := chat.NewAssembler(store.InitMessageStore(), newMetadata(physicsDoc()))

	t.Run("document range", func(t *testing.T) {
		seed, err := assembler.SeedFromPost(traceCtx(), chatModel.Post{
			ID: "p1", Content: "Help with this", DocumentID: "doc-physics", StartPage: intPtr(1), EndPage: intPtr(2),
		})
		require.NoError(t, err)
		assert.Equal(t, chatModel.RoleUser, seed.Role)
		require.Len(t, seed.Parts, 3)
		assert.Equal(t, "Help with this", seed.Parts[0].Text)
		assert.Equal(t, []string{
			"split_documents/physics/intro/page1.pdf",
			"split_documents/physics/intro/page2.pdf",
		}, blobPaths(seed.Parts))
	})

	t.Run("text only", func(t *testing.T) {
		seed, err := assembler.SeedFromPost(traceCtx(), chatModel.Post{ID: "p2", Content: "Just a question"})
		require.NoError(t, err)
		assert.Equal(t, []chatModel.Part{chatModel.TextPart("Just a question")}, seed.Parts)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := assembler.SeedFromPost(traceCtx(), chatModel.Post{
			ID: "p3", DocumentID: "doc-gone", StartPage: intPtr(1), EndPage: intPtr(1),
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, chat.StatusCode(err))
	})
}
