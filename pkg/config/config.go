package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	NATS     NATSConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Model    ModelConfig
	Cache    CacheConfig
	Log      LogConfig
	Alert    AlertConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NATSConfig configuration for the JetStream job queue
type NATSConfig struct {
	URL            string // nats://localhost:4222
	PublishTimeout time.Duration
}

// RedisConfig for the shared prediction cache tier. Optional - the service
// degrades to the in-process tier when URL is empty or the server is down.
type RedisConfig struct {
	URL      string // redis://localhost:6379
	Password string
	DB       int
}

type StorageConfig struct {
	Type     string // local, s3
	BasePath string // for local: ./uploads

	S3 S3Config
}

type S3Config struct {
	Endpoint  string // minio:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// ModelConfig locates the ONNX model files. Paths are probed in order;
// a missing model is not fatal (the service runs in mock mode).
type ModelConfig struct {
	ImageModelPaths   []string // candidate paths for the leaf disease model
	SymptomModelPaths []string // candidate paths for the symptom model
	ORTLibraryPath    string   // onnxruntime shared library (empty = system default)
	InputSize         int      // model spatial size, default 224
	SessionPoolSize   int
}

type CacheConfig struct {
	FastTTL   time.Duration // in-process tier, clamped to <= 1h
	SharedTTL time.Duration // redis tier
}

type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

type AlertConfig struct {
	Enabled        bool
	DiscordWebhook string
}

type WorkerConfig struct {
	ID              string
	Concurrency     int
	ShutdownTimeout time.Duration
	StuckAfter      time.Duration // processing rows older than this are marked failed
}

func LoadConfig() (*Config, error) {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	logMaxSize, _ := strconv.Atoi(getEnv("LOG_MAX_SIZE", "100"))
	logMaxBackups, _ := strconv.Atoi(getEnv("LOG_MAX_BACKUPS", "5"))
	logMaxAge, _ := strconv.Atoi(getEnv("LOG_MAX_AGE", "30"))
	logCompress, _ := strconv.ParseBool(getEnv("LOG_COMPRESS", "true"))

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	useSSL, _ := strconv.ParseBool(getEnv("S3_USE_SSL", "false"))

	inputSize, _ := strconv.Atoi(getEnv("MODEL_INPUT_SIZE", "224"))
	poolSize, _ := strconv.Atoi(getEnv("MODEL_SESSION_POOL", "2"))

	fastTTL, _ := time.ParseDuration(getEnv("CACHE_FAST_TTL", "30m"))
	sharedTTL, _ := time.ParseDuration(getEnv("CACHE_SHARED_TTL", "24h"))
	publishTimeout, _ := time.ParseDuration(getEnv("NATS_PUBLISH_TIMEOUT", "5s"))
	shutdownTimeout, _ := time.ParseDuration(getEnv("WORKER_SHUTDOWN_TIMEOUT", "60s"))
	stuckAfter, _ := time.ParseDuration(getEnv("WORKER_STUCK_AFTER", "15m"))

	concurrency, _ := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "2"))
	alertEnabled, _ := strconv.ParseBool(getEnv("ALERT_ENABLED", "false"))

	return &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "coffee-analysis"),
			Port: getEnv("APP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "coffee_analysis"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			PublishTimeout: publishTimeout,
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			Type:     getEnv("STORAGE_TYPE", "local"),
			BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", ""),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				Bucket:    getEnv("S3_BUCKET", "leaf-images"),
				UseSSL:    useSSL,
				Region:    getEnv("S3_REGION", ""),
			},
		},
		Model: ModelConfig{
			ImageModelPaths:   getEnvList("MODEL_IMAGE_PATHS", "models/coffee_leaf.onnx,/opt/models/coffee_leaf.onnx"),
			SymptomModelPaths: getEnvList("MODEL_SYMPTOM_PATHS", "models/symptom.onnx,/opt/models/symptom.onnx"),
			ORTLibraryPath:    getEnv("ORT_LIBRARY_PATH", ""),
			InputSize:         inputSize,
			SessionPoolSize:   poolSize,
		},
		Cache: CacheConfig{
			FastTTL:   fastTTL,
			SharedTTL: sharedTTL,
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
			Compress:   logCompress,
		},
		Alert: AlertConfig{
			Enabled:        alertEnabled,
			DiscordWebhook: getEnv("ALERT_DISCORD_WEBHOOK", ""),
		},
		Worker: WorkerConfig{
			ID:              getEnv("WORKER_ID", "predict-worker-1"),
			Concurrency:     concurrency,
			ShutdownTimeout: shutdownTimeout,
			StuckAfter:      stuckAfter,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
