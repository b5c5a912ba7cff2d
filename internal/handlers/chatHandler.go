package handlers

import (
	"net/http"

	"github.com/akolanti/studyfellow/internal/adapter"
	"github.com/akolanti/studyfellow/internal/api"
	"github.com/akolanti/studyfellow/internal/chat"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

type ChatHandler struct {
	service chat.Service
	logger  *logger_i.Logger
}

func NewChatHandler(chatService chat.Service) *ChatHandler {
	return &ChatHandler{
		service: chatService,
		logger:  logger_i.NewLogger("ChatHandler"),
	}
}

// ChatHandler godoc
// @Summary      Generate the tutor reply
// @Description  Answers the latest user turn of a room or post conversation and stores the reply. post_id wins when both ids are sent.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      api.ChatRequest   true  "Conversation to answer"
// @Success      200      {object}  api.ChatResponse  "Reply generated"
// @Failure      400      {object}  api.ChatResponse  "Missing ids or no user turn"
// @Failure      404      {object}  api.ChatResponse  "Post not found"
// @Failure      405      {object}  api.ChatResponse  "Method not allowed"
// @Failure      500      {object}  api.ChatResponse  "Model or storage failure"
// @Router       /chat [post]
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		WriteChatErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if !validateContext(r.Context(), h.logger) {
		return
	}
	log := h.logger.WithTrace(r.Context())

	var requestData api.ChatRequest
	if err := decodeJSON(r, &requestData); err != nil {
		log.Warn("Bad Chat Request", "error", err, "request data", requestData)
		WriteChatErrorResponse(w, http.StatusBadRequest, "room_id or post_id is required")
		return
	}

	reply, err := h.service.Respond(r.Context(), chat.Target{
		RoomID: requestData.RoomID,
		PostID: requestData.PostID,
		UserID: requestData.UserID,
	})
	if err != nil {
		code := chat.StatusCode(err)
		if code >= http.StatusInternalServerError {
			log.Error("Chat turn failed", "error", err, "roomId", requestData.RoomID, "postId", requestData.PostID)
		} else {
			log.Warn("Chat turn rejected", "error", err, "code", code)
		}
		WriteChatErrorResponse(w, code, chat.PublicMessage(err))
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(reply))
}
