package chat

import (
	"context"
	"strings"
	"time"

	"github.com/akolanti/studyfellow/internal/chat/llm"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

// Engine drives one model turn for a conversation and persists the reply.
type Engine struct {
	assembler *Assembler
	messages  chatModel.MessageStore
	provider  llm.Provider
	now       func() time.Time
	logger    *logger_i.Logger
}

func NewEngine(assembler *Assembler, messages chatModel.MessageStore, provider llm.Provider) *Engine {
	return &Engine{
		assembler: assembler,
		messages:  messages,
		provider:  provider,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger_i.NewLogger("Turn Engine"),
	}
}

// Respond answers the most recent user turn. seed, when it has parts, is
// placed ahead of the stored history. Nothing is written unless the model
// produced a candidate.
func (e *Engine) Respond(ctx context.Context, conv chatModel.Conversation, seed *chatModel.Turn, replyUserID string) (string, error) {
	log := e.logger.WithTrace(ctx).With("conversation", conv.Key())

	assembled, err := e.assembler.Assemble(ctx, conv)
	if err != nil {
		return "", err
	}

	history := make([]chatModel.Turn, 0, len(assembled)+1)
	if seed != nil && len(seed.Parts) > 0 {
		history = append(history, *seed)
	}
	history = append(history, assembled...)

	active, ok := activeTurnIndex(history)
	if !ok {
		return "", badRequest("No user message to respond to")
	}
	if active != len(history)-1 {
		log.Warn("History did not end on a user turn, answering the latest user turn", "excluded", len(history)-1-active)
	}

	start := time.Now()
	candidates, err := e.provider.Generate(ctx, history[:active], history[active].Parts)
	metrics.CaptureExecutionMetrics("gemini", time.Since(start))
	if err != nil {
		return "", internal("Failed to get response from AI model", err)
	}
	if len(candidates) == 0 {
		return "", internal("Failed to get response from AI model", nil)
	}

	reply := ReplyText(candidates[0])
	err = e.messages.AppendMessage(ctx, conv, chatModel.Message{
		Role:      chatModel.RoleModel,
		Type:      chatModel.TypeText,
		Content:   reply,
		UserID:    replyUserID,
		CreatedAt: e.now(),
	})
	if err != nil {
		return "", internal("Failed to save AI response", err)
	}

	log.Info("Reply saved", "historyTurns", active, "replyLength", len(reply))
	return reply, nil
}

// activeTurnIndex is the last user turn that has parts.
func activeTurnIndex(history []chatModel.Turn) (int, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == chatModel.RoleUser && len(history[i].Parts) > 0 {
			return i, true
		}
	}
	return 0, false
}

// ReplyText prefers the first part's text, then every text part joined,
// then a fixed placeholder.
func ReplyText(candidate chatModel.Candidate) string {
	if len(candidate.Texts) > 0 && candidate.Texts[0] != "" {
		return candidate.Texts[0]
	}
	if joined := strings.TrimSpace(strings.Join(candidate.Texts, " ")); joined != "" {
		return joined
	}
	return config.EmptyReplyPlaceholder
}
