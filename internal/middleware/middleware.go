package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/handlers"
	"github.com/akolanti/studyfellow/internal/metrics"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// errorWriter renders a rejected request in the caller's response shape.
type errorWriter func(w http.ResponseWriter, httpCode int, message string)

type step func(Chain, requestResponseStruct) requestResponseStruct

// Chain wraps handlers with trace injection, bearer auth and, optionally,
// per-IP rate limiting.
type Chain struct {
	authToken    string
	noAuthBypass bool
	limiter      *IPRateLimiter
}

func NewChain(settings config.Settings) Chain {
	return Chain{
		authToken:    settings.AuthToken,
		noAuthBypass: settings.NoAuthBypass,
		limiter:      NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND),
	}
}

// Wrap is used for the storage event and status routes.
func (c Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, jobErrorWriter, injectTrace, authenticate)
}

// WrapChat adds CORS and rate limiting, and answers failures in the chat
// response shape. Preflight requests skip auth.
func (c Chain) WrapChat(next http.HandlerFunc) http.HandlerFunc {
	return cors(c.wrap(next, handlers.WriteChatErrorResponse, injectTrace, authenticate, rateLimiter))
}

func (c Chain) wrap(next http.HandlerFunc, writeErr errorWriter, steps ...step) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc()
		}()

		re := requestResponseStruct{req: r, writer: rec, logger: logger_i.NewLogger("middleware")}
		re.logger.Debug("New request received", "method", r.Method, "path", r.URL.Path)
		for _, s := range steps {
			re = s(c, re)
			if re.badRequest.isBadRequest {
				handleBadRequest(re, writeErr)
				return
			}
		}
		next(rec, re.req)
	}
}

func jobErrorWriter(w http.ResponseWriter, httpCode int, message string) {
	handlers.WriteErrorResponse(w, httpCode, "", message)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
