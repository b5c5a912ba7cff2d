package config

import (
	"log/slog"
	"time"
)

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//storage events are redelivered by the worker this many times before giving up
	MaxJobAttempts  = 3
	JobRetryBackoff = 5 * time.Second
	JobTimeout      = 60 * time.Second

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//blob layout
	SourcePrefix     = "raw_documents/"
	SplitPrefix      = "split_documents/"
	AttachmentPrefix = "chat_attachments/"
	PDFContentType   = "application/pdf"

	//pdf processing
	PDFReadTimeout           = 20 * time.Second
	CascadeDeleteConcurrency = 8

	//llm
	GeminiModelName          = "gemini-2.0-flash"
	ModelTemperature float32 = 0.7
	ModelContext             = "You are a patient study tutor. Ground your answers in the attached document pages when they are provided, keep the tone friendly and professional, and say you don't know when the material does not cover the question."
	EmptyReplyPlaceholder    = "The AI response did not contain any text."
	ChatTimeout              = 45 * time.Second
	VertexLocation           = "us-central1"

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisDocumentDB   = 1
	RedisMessageStore = 2

	RedisJobStoreTTL = 24 * time.Hour

	//metadata lookups from the context assembler
	MetadataCacheTTL     = 5 * time.Minute
	MetadataCacheCleanup = 10 * time.Minute

	//minio
	MinioEndpoint = "127.0.0.1:9000"
	StorageBucket = "studyfellow-documents"

	//log rotation
	LogFileMaxSizeMB  = 10
	LogFileMaxBackups = 5
	LogFileMaxAgeDays = 30
)
