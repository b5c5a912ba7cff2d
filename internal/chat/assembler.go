package chat

import (
	"context"
	"strings"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	"github.com/akolanti/studyfellow/internal/layout"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

// Assembler rebuilds a stored conversation into model turns.
type Assembler struct {
	messages chatModel.MessageStore
	metadata documentModel.MetadataStore
	logger   *logger_i.Logger
}

func NewAssembler(messages chatModel.MessageStore, metadata documentModel.MetadataStore) *Assembler {
	return &Assembler{
		messages: messages,
		metadata: metadata,
		logger:   logger_i.NewLogger("Context Assembler"),
	}
}

// draft is the output of the classification pass: either a finished turn or
// a context reference still waiting on its document lookup.
type draft interface {
	isDraft()
}

type readyDraft struct {
	turn chatModel.Turn
}

type contextDraft struct {
	messageID  string
	role       chatModel.Role
	lead       string
	documentID string
	start      *int
	end        *int
}

func (readyDraft) isDraft()   {}
func (contextDraft) isDraft() {}

type lookupResult struct {
	meta  documentModel.DocumentMetadata
	found bool
	err   error
}

// Assemble returns one turn per usable message, in message order. Messages
// that cannot be turned into at least one part are dropped and logged;
// storage failures are returned.
func (a *Assembler) Assemble(ctx context.Context, conv chatModel.Conversation) ([]chatModel.Turn, error) {
	log := a.logger.WithTrace(ctx).With("conversation", conv.Key())

	messages, err := a.messages.ListMessages(ctx, conv)
	if err != nil {
		return nil, internal("Failed to load conversation", err)
	}

	drafts := make([]draft, 0, len(messages))
	for _, msg := range messages {
		if d, ok := a.classify(log, conv, msg); ok {
			drafts = append(drafts, d)
		}
	}

	return a.resolve(ctx, log, drafts)
}

func (a *Assembler) classify(log *logger_i.Logger, conv chatModel.Conversation, msg chatModel.Message) (draft, bool) {
	role := chatModel.NormalizeRole(msg.Role)
	msgType := msg.Type
	if msgType == "" {
		msgType = chatModel.TypeText
	}

	switch msgType {
	case chatModel.TypeText:
		if isBlank(msg.Content) {
			drop(log, msg, "blank_text")
			return nil, false
		}
		return readyDraft{turn: chatModel.Turn{Role: role, Parts: []chatModel.Part{chatModel.TextPart(msg.Content)}}}, true

	case chatModel.TypeImage, chatModel.TypeFile:
		var parts []chatModel.Part
		if !isBlank(msg.Content) {
			parts = append(parts, chatModel.TextPart(msg.Content))
		}
		if msg.FileName == "" || msg.MimeType == "" || msg.UserID == "" {
			drop(log, msg, "incomplete_attachment")
			return nil, false
		}
		parts = append(parts, chatModel.BlobPart(layout.AttachmentPath(msg.UserID, conv.ID, msg.FileName), msg.MimeType))
		return readyDraft{turn: chatModel.Turn{Role: role, Parts: parts}}, true

	case chatModel.TypeContext:
		if msg.DocumentID == "" || msg.StartPage == nil || msg.EndPage == nil {
			drop(log, msg, "incomplete_context")
			return nil, false
		}
		return contextDraft{
			messageID:  msg.ID,
			role:       role,
			lead:       msg.Content,
			documentID: msg.DocumentID,
			start:      msg.StartPage,
			end:        msg.EndPage,
		}, true

	default:
		drop(log, msg, "unknown_type")
		return nil, false
	}
}

// resolve starts every document lookup at once, then walks the drafts in
// their original order and waits on each lookup in place.
func (a *Assembler) resolve(ctx context.Context, log *logger_i.Logger, drafts []draft) ([]chatModel.Turn, error) {
	pending := make([]chan lookupResult, len(drafts))
	for i, d := range drafts {
		cd, ok := d.(contextDraft)
		if !ok {
			continue
		}
		ch := make(chan lookupResult, 1)
		pending[i] = ch
		go func(documentID string) {
			meta, found, err := a.metadata.GetByID(ctx, documentID)
			ch <- lookupResult{meta: meta, found: found, err: err}
		}(cd.documentID)
	}

	turns := make([]chatModel.Turn, 0, len(drafts))
	for i, d := range drafts {
		switch d := d.(type) {
		case readyDraft:
			turns = append(turns, d.turn)
		case contextDraft:
			var res lookupResult
			select {
			case res = <-pending[i]:
			case <-ctx.Done():
				return nil, internal("Conversation lookup cancelled", ctx.Err())
			}
			if res.err != nil {
				return nil, internal("Failed to load document metadata", res.err)
			}
			if !res.found {
				log.Warn("Dropping context message", "messageId", d.messageID, "documentId", d.documentID, "reason", "missing_metadata")
				metrics.CountDroppedMessage("missing_metadata")
				continue
			}
			turn, ok := contextTurn(d.role, d.lead, res.meta, *d.start, *d.end)
			if !ok {
				reason := "no_parts"
				if !res.meta.HasPageSource() {
					reason = "missing_page_source"
				}
				log.Warn("Dropping context message", "messageId", d.messageID, "documentId", d.documentID, "reason", reason)
				metrics.CountDroppedMessage(reason)
				continue
			}
			turns = append(turns, turn)
		}
	}
	log.Debug("Assembled conversation", "turns", len(turns))
	return turns, nil
}

// SeedFromPost builds the synthetic opening user turn of a post
// conversation. A post without a document range seeds with its text only.
func (a *Assembler) SeedFromPost(ctx context.Context, post chatModel.Post) (chatModel.Turn, error) {
	seed := chatModel.Turn{Role: chatModel.RoleUser}

	if post.DocumentID == "" || post.StartPage == nil || post.EndPage == nil {
		if !isBlank(post.Content) {
			seed.Parts = []chatModel.Part{chatModel.TextPart(post.Content)}
		}
		return seed, nil
	}

	meta, found, err := a.metadata.GetByID(ctx, post.DocumentID)
	if err != nil {
		return seed, internal("Failed to load document metadata", err)
	}
	if !found {
		return seed, notFound("document not found")
	}
	turn, ok := contextTurn(chatModel.RoleUser, post.Content, meta, *post.StartPage, *post.EndPage)
	if !ok {
		a.logger.WithTrace(ctx).Warn("Post seed has no usable parts", "postId", post.ID, "documentId", post.DocumentID)
		return seed, nil
	}
	return turn, nil
}

// contextTurn reports false when the turn would carry no parts. Only pages
// that exist in the document become parts, so an inverted or out of range
// request yields no page parts.
func contextTurn(role chatModel.Role, lead string, meta documentModel.DocumentMetadata, start, end int) (chatModel.Turn, bool) {
	if !meta.HasPageSource() {
		return chatModel.Turn{}, false
	}

	source := meta.Path
	if source == "" {
		source = config.SourcePrefix + meta.Subject + "/" + meta.FileName
	}

	var parts []chatModel.Part
	if !isBlank(lead) {
		parts = append(parts, chatModel.TextPart(lead))
	}
	start = max(start, 1)
	end = min(end, meta.TotalPages)
	for page := start; page <= end; page++ {
		parts = append(parts, chatModel.BlobPart(layout.SplitPagePath(source, page), config.PDFContentType))
	}
	if len(parts) == 0 {
		return chatModel.Turn{}, false
	}
	return chatModel.Turn{Role: role, Parts: parts}, true
}

func drop(log *logger_i.Logger, msg chatModel.Message, reason string) {
	log.Warn("Dropping message", "messageId", msg.ID, "type", msg.Type, "reason", reason)
	metrics.CountDroppedMessage(reason)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
