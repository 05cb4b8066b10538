package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	ServerPort string

	JWTSecret string

	// GeminiAPIKey is the single credential for the AI capability. Its
	// absence degrades every AI-dependent operation to a visible failure.
	GeminiAPIKey     string
	GeminiModel      string
	GeminiTTSModel   string
	GeminiImageModel string
	GeminiLiveModel  string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	SyncWorkerCount int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-3-flash-preview"
	}

	geminiTTSModel := os.Getenv("GEMINI_TTS_MODEL")
	if geminiTTSModel == "" {
		geminiTTSModel = "gemini-2.5-flash-preview-tts"
	}

	geminiImageModel := os.Getenv("GEMINI_IMAGE_MODEL")
	if geminiImageModel == "" {
		geminiImageModel = "gemini-2.5-flash-image"
	}

	geminiLiveModel := os.Getenv("GEMINI_LIVE_MODEL")
	if geminiLiveModel == "" {
		geminiLiveModel = "gemini-2.5-flash-native-audio-preview-12-2025"
	}

	syncWorkerCount, err := strconv.Atoi(os.Getenv("SYNC_WORKER_COUNT"))
	if err != nil || syncWorkerCount <= 0 {
		syncWorkerCount = 2
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: redisURL,

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      geminiModel,
		GeminiTTSModel:   geminiTTSModel,
		GeminiImageModel: geminiImageModel,
		GeminiLiveModel:  geminiLiveModel,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		SyncWorkerCount: syncWorkerCount,
	}, nil
}
