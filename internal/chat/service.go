package chat

import (
	"context"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

// Target names the conversation to answer. PostID wins when both ids are set.
type Target struct {
	RoomID string
	PostID string
	UserID string
}

// Service is the chat surface the HTTP handlers and the MCP tool call.
type Service interface {
	Respond(ctx context.Context, target Target) (string, error)
}

type service struct {
	engine    *Engine
	assembler *Assembler
	posts     chatModel.PostStore
	logger    *logger_i.Logger
}

func NewService(engine *Engine, assembler *Assembler, posts chatModel.PostStore) Service {
	return &service{
		engine:    engine,
		assembler: assembler,
		posts:     posts,
		logger:    logger_i.NewLogger("Chat Service"),
	}
}

func (s *service) Respond(ctx context.Context, target Target) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ChatTimeout)
	defer cancel()

	switch {
	case target.PostID != "":
		return s.respondToPost(ctx, target.PostID)
	case target.RoomID != "":
		return s.engine.Respond(ctx, chatModel.RoomConversation(target.RoomID), nil, target.UserID)
	default:
		return "", badRequest("room_id or post_id is required")
	}
}

// respondToPost seeds the thread with the post itself and stores the reply
// under the post owner.
func (s *service) respondToPost(ctx context.Context, postID string) (string, error) {
	post, found, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return "", internal("Failed to load post", err)
	}
	if !found {
		return "", notFound("post not found")
	}

	seed, err := s.assembler.SeedFromPost(ctx, post)
	if err != nil {
		return "", err
	}
	s.logger.WithTrace(ctx).Debug("Seeded post conversation", "postId", postID, "seedParts", len(seed.Parts))
	return s.engine.Respond(ctx, chatModel.PostConversation(postID), &seed, post.UserID)
}
