package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akolanti/studyfellow/internal/adapter"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/go-playground/validator/v10"
)

const maxBodySize = 1 << 20

var validate = validator.New()

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logger_i.NewLogger("RequestHandler").Error("Error encoding response", "error", err)
	}
}

// decodeJSON reads a size limited JSON body into dst and runs its validate
// tags.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(r.Body)

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return validate.Struct(dst)
}

func validateContext(ctx context.Context, log *logger_i.Logger) bool {
	if ctx.Err() != nil {
		log.WithTrace(ctx).Warn("context error", "error", ctx.Err())
		return false
	}
	return true
}

func traceID(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// WriteChatErrorResponse writes the {success:false,error} shape the chat
// clients expect.
func WriteChatErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.ToChatError(message))
}
