package chat_test

import (
	"context"

	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
)

// MockProvider implements llm.Provider and records what it was sent.
type MockProvider struct {
	OnGenerate func(ctx context.Context, history []chatModel.Turn, input []chatModel.Part) ([]chatModel.Candidate, error)

	Calls       int
	LastHistory []chatModel.Turn
	LastInput   []chatModel.Part
}

func (m *MockProvider) Generate(ctx context.Context, history []chatModel.Turn, input []chatModel.Part) ([]chatModel.Candidate, error) {
	m.Calls++
	m.LastHistory = history
	m.LastInput = input
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, history, input)
	}
	return []chatModel.Candidate{{Texts: []string{"mocked tutor reply"}}}, nil
}

// MockMetadataStore implements documentModel.MetadataStore over a map.
type MockMetadataStore struct {
	Records   map[string]documentModel.DocumentMetadata
	OnGetByID func(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error)
}

func (m *MockMetadataStore) UpsertByPath(ctx context.Context, meta documentModel.DocumentMetadata) (documentModel.DocumentMetadata, error) {
	m.Records[meta.ID] = meta
	return meta, nil
}

func (m *MockMetadataStore) FindByPath(ctx context.Context, path string) (documentModel.DocumentMetadata, bool, error) {
	for _, r := range m.Records {
		if r.Path == path {
			return r, true, nil
		}
	}
	return documentModel.DocumentMetadata{}, false, nil
}

func (m *MockMetadataStore) GetByID(ctx context.Context, id string) (documentModel.DocumentMetadata, bool, error) {
	if m.OnGetByID != nil {
		return m.OnGetByID(ctx, id)
	}
	r, ok := m.Records[id]
	return r, ok, nil
}

func (m *MockMetadataStore) MarkDeleted(ctx context.Context, id string) error {
	return nil
}

// MockMessageStore implements chatModel.MessageStore with failure hooks.
type MockMessageStore struct {
	OnListMessages  func(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Message, error)
	OnAppendMessage func(ctx context.Context, conv chatModel.Conversation, msg chatModel.Message) error
}

func (m *MockMessageStore) ListMessages(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Message, error) {
	if m.OnListMessages != nil {
		return m.OnListMessages(ctx, conv)
	}
	return nil, nil
}

func (m *MockMessageStore) AppendMessage(ctx context.Context, conv chatModel.Conversation, msg chatModel.Message) error {
	if m.OnAppendMessage != nil {
		return m.OnAppendMessage(ctx, conv, msg)
	}
	return nil
}
