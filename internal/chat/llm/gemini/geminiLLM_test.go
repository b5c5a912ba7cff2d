package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToContents(t *testing.T) {
	history := []chatModel.Turn{
		{Role: chatModel.RoleUser, Parts: []chatModel.Part{
			chatModel.TextPart("read this"),
			chatModel.BlobPart("split_documents/physics/intro/page2.pdf", "application/pdf"),
		}},
		{Role: chatModel.RoleModel, Parts: []chatModel.Part{chatModel.TextPart("done")}},
	}
	input := []chatModel.Part{chatModel.TextPart("what is inertia?")}

	contents := ToContents(history, input, "gs://studyfellow-documents/")
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "read this", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].FileData)
	assert.Equal(t, "gs://studyfellow-documents/split_documents/physics/intro/page2.pdf", contents[0].Parts[1].FileData.FileURI)
	assert.Equal(t, "application/pdf", contents[0].Parts[1].FileData.MIMEType)

	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)
	assert.Equal(t, "what is inertia?", contents[2].Parts[0].Text)
}

func TestToCandidates(t *testing.T) {
	assert.Nil(t, ToCandidates(nil))
	assert.Empty(t, ToCandidates(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{FileData: &genai.FileData{FileURI: "gs://x", MIMEType: "image/png"}},
				{Text: "answer"},
			}}},
			{},
		},
	}
	candidates := ToCandidates(resp)
	require.Len(t, candidates, 2)
	assert.Equal(t, []string{"", "answer"}, candidates[0].Texts)
	assert.Empty(t, candidates[1].Texts)
}

func TestBlobURI(t *testing.T) {
	assert.Equal(t, "gs://b/a/b.pdf", BlobURI("gs://b", "a/b.pdf"))
	assert.Equal(t, "gs://b/a/b.pdf", BlobURI("gs://b/", "/a/b.pdf"))
}

func TestGenerate_ClientClosedDuringRequests(t *testing.T) {
	logger = logger_i.NewLogger("llm_gemini")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hi"}]}}]}`))
	}))
	defer srv.Close()

	c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	require.NoError(t, err)

	provider := &llmClient{modelName: "gemini-test"}
	provider.client.Store(c)
	input := []chatModel.Part{chatModel.TextPart("hello")}

	candidates, err := provider.Generate(context.Background(), nil, input)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"hi"}, candidates[0].Texts)

	ctx, cancel := context.WithCancel(context.Background())
	closed := make(chan struct{})
	go func() {
		closeClient(ctx, provider)
		close(closed)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := provider.Generate(context.Background(), nil, input); err != nil {
				assert.ErrorIs(t, err, errClientClosed)
			}
		}()
	}
	cancel()
	wg.Wait()
	<-closed

	_, err = provider.Generate(context.Background(), nil, input)
	assert.ErrorIs(t, err, errClientClosed)
}
