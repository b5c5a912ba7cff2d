package llm

import (
	"context"

	"github.com/akolanti/studyfellow/internal/domain/chatModel"
)

// Provider runs one generative turn: history holds the earlier turns and
// input the parts of the turn being answered.
type Provider interface {
	Generate(ctx context.Context, history []chatModel.Turn, input []chatModel.Part) ([]chatModel.Candidate, error)
}
