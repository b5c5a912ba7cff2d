package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	StoreRedis    StoreBackend = "redis"
	StorePostgres StoreBackend = "postgres"
	StoreMemory   StoreBackend = "memory"
)

// Settings holds everything that differs between deployments. Defaults come
// from the constants in this package.
type Settings struct {
	IsProd  bool
	LogFile string

	AuthToken    string
	NoAuthBypass bool

	GeminiAPIKey   string
	GeminiModel    string
	VertexProject  string
	VertexLocation string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	Bucket         string
	//prefix used when handing blob locations to the model, e.g. gs://bucket
	BlobURIBase    string
	ListenToBucket bool

	StoreBackend  StoreBackend
	RedisAddr     string
	RedisPassword string
	DatabaseURL   string
}

var (
	settings     Settings
	settingsOnce sync.Once
)

// Load reads an optional .env file once and overlays the environment on top
// of the compiled defaults.
func Load() Settings {
	settingsOnce.Do(func() {
		_ = godotenv.Load()
		settings = fromEnv()
	})
	return settings
}

func fromEnv() Settings {
	s := Settings{
		IsProd:  strings.EqualFold(os.Getenv("APP_ENV"), "production"),
		LogFile: os.Getenv("LOG_FILE"),

		AuthToken:    os.Getenv("AUTH_TOKEN"),
		NoAuthBypass: getBool("NO_AUTH_BYPASS", false),

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getString("GEMINI_MODEL", GeminiModelName),
		VertexProject:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		VertexLocation: getString("GOOGLE_CLOUD_LOCATION", VertexLocation),

		MinioEndpoint:  getString("MINIO_ENDPOINT", MinioEndpoint),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    getBool("MINIO_USE_SSL", false),
		Bucket:         getString("STORAGE_BUCKET", StorageBucket),
		ListenToBucket: getBool("LISTEN_BUCKET_EVENTS", false),

		StoreBackend:  StoreBackend(strings.ToLower(getString("STORE_BACKEND", string(StoreRedis)))),
		RedisAddr:     getString("REDIS_ADDR", RedisAddr),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}
	s.BlobURIBase = getString("BLOB_URI_BASE", "gs://"+s.Bucket)
	return s
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
