package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string

	// Gemini API
	GeminiAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string
	GeminiQCModel    string

	// Vertex AI (IMAGE_BACKEND=vertex 일 때만 사용)
	ImageBackend   string
	VertexProject  string
	VertexLocation string

	// Server
	Port string

	// Pipeline
	MaxRetries            int     // QC 재생성 한도 (phase 2-3 루프)
	AcceptThreshold       float64 // QC 합격 기준 confidence
	StyleLibraryLimit     int     // 스타일 라이브러리 최대 개수
	ProviderTimeout       time.Duration
	AsyncRetryBase        time.Duration // 일시 오류 재시도 기본 대기
	AsyncRetryMaxAttempts int
}

var globalConfig *Config

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini API
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiQCModel:    getEnv("GEMINI_QC_MODEL", "gemini-2.5-flash"),

		// Vertex AI
		ImageBackend:   getEnv("IMAGE_BACKEND", "gemini"),
		VertexProject:  getEnv("VERTEXAI_PROJECT", ""),
		VertexLocation: getEnv("VERTEXAI_LOCATION", "us-central1"),

		// Server
		Port: getEnv("PORT", "8080"),

		// Pipeline
		MaxRetries:            getEnvInt("PIPELINE_MAX_RETRIES", 2),
		AcceptThreshold:       getEnvFloat("QC_ACCEPT_THRESHOLD", 0.7),
		StyleLibraryLimit:     getEnvInt("STYLE_LIBRARY_LIMIT", 20),
		ProviderTimeout:       time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 90)) * time.Second,
		AsyncRetryBase:        time.Duration(getEnvInt("ASYNC_RETRY_BASE_SECONDS", 15)) * time.Second,
		AsyncRetryMaxAttempts: getEnvInt("ASYNC_RETRY_MAX_ATTEMPTS", 5),
	}

	// 필수 환경변수 검증
	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Supabase: %s", globalConfig.SupabaseURL)
	log.Printf("   Image backend: %s (model: %s)", globalConfig.ImageBackend, globalConfig.GeminiImageModel)
	log.Printf("   Pipeline: maxRetries=%d, acceptThreshold=%.2f, styleLimit=%d",
		globalConfig.MaxRetries, globalConfig.AcceptThreshold, globalConfig.StyleLibraryLimit)

	return globalConfig, nil
}

// GetConfig - 로드된 설정 가져오기
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.ImageBackend == "vertex" && c.VertexProject == "" {
		return fmt.Errorf("VERTEXAI_PROJECT is required when IMAGE_BACKEND=vertex")
	}
	if c.AcceptThreshold < 0 || c.AcceptThreshold > 1 {
		return fmt.Errorf("QC_ACCEPT_THRESHOLD must be in [0,1]")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("PIPELINE_MAX_RETRIES must be >= 0")
	}
	if c.StyleLibraryLimit <= 0 {
		return fmt.Errorf("STYLE_LIBRARY_LIMIT must be > 0")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt - 정수 환경변수 (기본값 지원)
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat - 실수 환경변수 (기본값 지원)
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
