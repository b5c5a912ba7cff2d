// @title           StudyFellow API
// @version         1.0
// @description     Storage event ingestion for study documents and the tutor chat turn.
// @host      localhost:3000
// @BasePath  /
// @schemes   http https
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/studyfellow/internal/blob"
	"github.com/akolanti/studyfellow/internal/chat"
	"github.com/akolanti/studyfellow/internal/chat/llm/gemini"
	"github.com/akolanti/studyfellow/internal/config"
	"github.com/akolanti/studyfellow/internal/data/pgStore"
	"github.com/akolanti/studyfellow/internal/data/redisStore"
	"github.com/akolanti/studyfellow/internal/data/store"
	"github.com/akolanti/studyfellow/internal/domain/chatModel"
	"github.com/akolanti/studyfellow/internal/domain/documentModel"
	jobmodel "github.com/akolanti/studyfellow/internal/domain/jobModel"
	"github.com/akolanti/studyfellow/internal/handlers"
	"github.com/akolanti/studyfellow/internal/ingest"
	"github.com/akolanti/studyfellow/internal/job"
	"github.com/akolanti/studyfellow/internal/listener"
	"github.com/akolanti/studyfellow/internal/mcpserver"
	"github.com/akolanti/studyfellow/internal/middleware"
	"github.com/akolanti/studyfellow/internal/server"
	"github.com/akolanti/studyfellow/internal/worker"
	"github.com/akolanti/studyfellow/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

type stores struct {
	jobs     jobmodel.JobStore
	metadata documentModel.MetadataStore
	messages chatModel.MessageStore
	posts    chatModel.PostStore
}

func main() {
	settings := config.Load()
	logger_i.Init(settings)
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	st := openStores(serviceContext, settings, logger)
	blobs := openBlobStore(serviceContext, settings, logger)

	llmProvider := gemini.GetGeminiClient(serviceContext, settings)
	if llmProvider == nil {
		logger.Error("Gemini provider failed to initialize. Shutting down.")
		return
	}

	//init job service
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          st.jobs,
	})
	logger.Info("Starting job service")

	ingestService := ingest.NewService(
		ingest.NewSplitter(blobs, st.metadata, ingest.NewPDFEngine()),
		ingest.NewCascade(blobs, st.metadata),
	)

	assembler := chat.NewAssembler(st.messages, st.metadata)
	chatService := chat.NewService(chat.NewEngine(assembler, st.messages, llmProvider), assembler, st.posts)

	//init worker pool
	worker.InitServices(service, ingestService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	if minioBlobs, ok := blobs.(*blob.MinioStore); ok && settings.ListenToBucket {
		go listener.NewBucketListener(minioBlobs.Client(), minioBlobs.Bucket(), service).Run(serviceContext)
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	routes := server.Routes{
		Chain: middleware.NewChain(settings),
		Jobs:  handlers.NewJobHandler(service),
		Chat:  handlers.NewChatHandler(chatService),
		MCP:   mcpserver.NewServer(chatService).Handler(),
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, routes)

	<-stopExecution
	logger.Info("Server stopped")
}

// openStores picks the configured backend. Redis falls back to postgres when
// a DSN is set and to memory otherwise.
func openStores(ctx context.Context, settings config.Settings, logger *logger_i.Logger) stores {
	opts := redisStore.Options{Addr: settings.RedisAddr, Password: settings.RedisPassword}
	var st stores

	if jobs := store.GetRedisJobStore(ctx, opts); jobs != nil {
		st.jobs = jobs
	} else {
		logger.Error("Redis job store is offline, using memory")
		st.jobs = store.InitInMemoryJobStore()
	}

	backend := settings.StoreBackend
	if backend == config.StoreRedis {
		metadata := store.GetRedisMetadataStore(ctx, opts)
		messages := store.GetRedisMessageStore(ctx, opts)
		posts := store.GetRedisPostStore(ctx, opts)
		if metadata != nil && messages != nil && posts != nil {
			st.metadata, st.messages, st.posts = metadata, messages, posts
		} else if settings.DatabaseURL != "" {
			logger.Error("Redis stores are offline, falling back to postgres")
			backend = config.StorePostgres
		} else {
			logger.Error("Redis stores are offline, falling back to memory")
			backend = config.StoreMemory
		}
	}

	if backend == config.StorePostgres {
		db, err := pgStore.Open(settings.DatabaseURL)
		if err != nil {
			logger.Error("Postgres is offline, falling back to memory", "error", err)
			backend = config.StoreMemory
		} else {
			st.metadata = pgStore.NewMetadataStore(db)
			st.messages = pgStore.NewMessageStore(db)
			st.posts = pgStore.NewPostStore(db)
			go func() {
				<-ctx.Done()
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()
		}
	}

	if backend == config.StoreMemory || st.metadata == nil {
		st.metadata = store.InitInMemoryMetadataStore()
		st.messages = store.InitMessageStore()
		st.posts = store.InitInMemoryPostStore()
	}

	st.metadata = store.NewCachedMetadataStore(st.metadata, config.MetadataCacheTTL, config.MetadataCacheCleanup)
	logger.Info("Stores ready", "backend", backend)
	return st
}

func openBlobStore(ctx context.Context, settings config.Settings, logger *logger_i.Logger) blob.Store {
	minioStore, err := blob.NewMinioStore(ctx, settings)
	if err != nil {
		logger.Error("Blob store is offline, using memory", "error", err)
		return blob.NewMemoryStore()
	}
	return minioStore
}
