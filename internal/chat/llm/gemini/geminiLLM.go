package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/akolanti/studyfellow/internal/chat/llm"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/customHttpClient"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	// cleared on shutdown while requests may still be in flight
	client      atomic.Pointer[genai.Client]
	modelName   string
	prompt      string
	blobURIBase string
}

var errClientClosed = errors.New("gemini client closed")

var (
	logger       *logger_i.Logger
	geminiClient *llmClient
	once         sync.Once
)

// GetGeminiClient returns the process wide provider, or nil when the client
// could not be created. A configured project selects the Vertex backend,
// which can read gs:// page blobs directly; otherwise the API key is used.
func GetGeminiClient(ctx context.Context, settings config.Settings) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, settings)
	})

	if geminiClient == nil {
		return nil
	}
	return geminiClient
}

func newGeminiClient(ctx context.Context, settings config.Settings) {
	clientConfig := &genai.ClientConfig{
		HTTPClient: customHttpClient.GetHTTPClient(),
	}
	if settings.VertexProject != "" {
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = settings.VertexProject
		clientConfig.Location = settings.VertexLocation
	} else {
		clientConfig.Backend = genai.BackendGeminiAPI
		clientConfig.APIKey = settings.GeminiAPIKey
	}

	c, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	geminiClient = &llmClient{
		modelName:   settings.GeminiModel,
		prompt:      config.ModelContext,
		blobURIBase: settings.BlobURIBase,
	}
	geminiClient.client.Store(c)
	logger.Info("Gemini client created", "model", settings.GeminiModel, "vertex", settings.VertexProject != "")
	go closeClient(ctx, geminiClient)
}

func (c *llmClient) Generate(ctx context.Context, history []chatModel.Turn, input []chatModel.Part) ([]chatModel.Candidate, error) {
	client := c.client.Load()
	if client == nil {
		return nil, errClientClosed
	}
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: c.prompt}},
		},
		Temperature: genai.Ptr(config.ModelTemperature),
	}

	contents := ToContents(history, input, c.blobURIBase)
	logger.Debug("Calling Gemini", "traceId", ctx.Value(config.TRACE_ID_KEY), "contents", len(contents))

	result, err := client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		return nil, err
	}
	return ToCandidates(result), nil
}

// ToContents converts history plus the active input into the request
// contents; the active input is always sent as the final user content.
func ToContents(history []chatModel.Turn, input []chatModel.Part, blobURIBase string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, &genai.Content{
			Role:  string(turn.Role),
			Parts: toParts(turn.Parts, blobURIBase),
		})
	}
	contents = append(contents, &genai.Content{
		Role:  string(chatModel.RoleUser),
		Parts: toParts(input, blobURIBase),
	})
	return contents
}

func toParts(parts []chatModel.Part, blobURIBase string) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, &genai.Part{FileData: &genai.FileData{
				FileURI:  BlobURI(blobURIBase, p.Blob.Path),
				MIMEType: p.Blob.MimeType,
			}})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

// BlobURI joins a bucket URI such as gs://bucket with an object path.
func BlobURI(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

func ToCandidates(resp *genai.GenerateContentResponse) []chatModel.Candidate {
	if resp == nil {
		return nil
	}
	candidates := make([]chatModel.Candidate, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		var texts []string
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				if p == nil {
					texts = append(texts, "")
					continue
				}
				texts = append(texts, p.Text)
			}
		}
		candidates = append(candidates, chatModel.Candidate{Texts: texts})
	}
	return candidates
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	llm.client.Store(nil)
}
