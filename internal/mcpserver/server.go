// Package mcpserver exposes the tutor turn to MCP clients over SSE.
package mcpserver

import (
	"context"
	"net/http"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/chat"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "studyfellow"
	serverVersion = "1.0.0"
	toolName      = "generate_tutor_reply"
)

type TutorReplyInput struct {
	RoomID string `json:"room_id,omitempty" jsonschema:"room conversation to answer"`
	PostID string `json:"post_id,omitempty" jsonschema:"post conversation to answer, wins over room_id"`
	UserID string `json:"user_id,omitempty" jsonschema:"user id stored on the reply in room mode"`
}

type TutorReplyOutput struct {
	Success    bool   `json:"success" jsonschema:"whether a reply was generated and stored"`
	AIResponse string `json:"ai_response,omitempty" jsonschema:"the tutor reply"`
	Error      string `json:"error,omitempty" jsonschema:"caller facing failure message"`
}

type Server struct {
	server  *mcp.Server
	handler http.Handler
	chat    chat.Service
	logger  *logger_i.Logger
}

func NewServer(chatService chat.Service) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
		chat:   chatService,
		logger: logger_i.NewLogger("MCPServer"),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name: toolName,
		Description: `Generate the study tutor's reply to the latest user message of a conversation and store it.
Parameters:
- room_id (string, optional): room conversation id
- post_id (string, optional): post conversation id, takes precedence over room_id
- user_id (string, optional): user id stored on the reply in room mode
One of room_id or post_id is required.
Returns: success flag and ai_response, or error.`,
	}, s.generateTutorReply)

	s.handler = mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) generateTutorReply(ctx context.Context, req *mcp.CallToolRequest, input TutorReplyInput) (*mcp.CallToolResult, TutorReplyOutput, error) {
	if _, ok := ctx.Value(config.TRACE_ID_KEY).(string); !ok {
		ctx = context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())
	}
	log := s.logger.WithTrace(ctx)

	reply, err := s.chat.Respond(ctx, chat.Target{
		RoomID: input.RoomID,
		PostID: input.PostID,
		UserID: input.UserID,
	})
	if err != nil {
		log.Warn("Tutor reply failed", "error", err, "code", chat.StatusCode(err))
		message := chat.PublicMessage(err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: message}},
		}, TutorReplyOutput{Success: false, Error: message}, nil
	}

	log.Info("Tutor reply generated", "roomId", input.RoomID, "postId", input.PostID)
	return nil, TutorReplyOutput{Success: true, AIResponse: reply}, nil
}
