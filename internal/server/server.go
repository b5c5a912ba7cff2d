package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/akolanti/studyfellow/internal/adapter/utils"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/handlers"
	"github.com/akolanti/studyfellow/internal/middleware"
	"github.com/akolanti/studyfellow/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var server *http.Server

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes holds everything mounted on the router.
type Routes struct {
	Chain middleware.Chain
	Jobs  *handlers.JobHandler
	Chat  *handlers.ChatHandler
	MCP   http.Handler
}

func RegisterRoutes(r *chi.Mux, routes Routes) {
	r.Get("/health", handlers.GetHandler)

	r.Post("/events/storage/finalize", routes.Chain.Wrap(routes.Jobs.FinalizeEventHandler))
	r.Post("/events/storage/delete", routes.Chain.Wrap(routes.Jobs.DeleteEventHandler))
	r.Get("/status/{id}", routes.Chain.Wrap(routes.Jobs.GetStatusHandler))

	r.HandleFunc("/chat", routes.Chain.WrapChat(routes.Chat.ChatHandler))

	if routes.MCP != nil {
		r.Handle("/mcp", routes.Chain.Wrap(streaming(routes.MCP)))
	}
}

// streaming lifts the server write timeout for long lived SSE sessions.
func streaming(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			logger_i.NewLogger("Server").Warn("Could not clear write deadline", "error", err)
		}
		next.ServeHTTP(w, r)
	}
}

func CreateServer(listenAddr string, routes Routes) {
	_logger := logger_i.NewLogger("Server")

	r := utils.GetRouter()
	RegisterRoutes(r.Router, routes)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger := logger_i.NewLogger("Server")
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
