package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"poppiconni-pipeline-server/modules/common/config"
	"poppiconni-pipeline-server/modules/common/database"
	redisutil "poppiconni-pipeline-server/modules/common/redis"
	"poppiconni-pipeline-server/modules/common/storage"
	"poppiconni-pipeline-server/modules/generate"
	"poppiconni-pipeline-server/modules/progress"
	"poppiconni-pipeline-server/modules/promptsynth"
	"poppiconni-pipeline-server/modules/provider"
	"poppiconni-pipeline-server/modules/provider/gemini"
	"poppiconni-pipeline-server/modules/provider/vertex"
	"poppiconni-pipeline-server/modules/publish"
	"poppiconni-pipeline-server/modules/qc"
	"poppiconni-pipeline-server/modules/style"
)

// enableCORS - CORS 미들웨어
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthCheck - 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "poppiconni-pipeline-server",
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Redis 연결
	rdb := redisutil.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}

	// Supabase 클라이언트
	dbClient := database.NewClient()
	if dbClient == nil {
		log.Fatal("❌ Failed to initialize database client")
	}
	storageClient := storage.NewClient()

	// Gemini 클라이언트 (phase 1 텍스트 + phase 3 비전은 항상 Gemini)
	geminiClient := gemini.NewClient(ctx)
	if geminiClient == nil {
		log.Fatal("❌ Failed to initialize Gemini client")
	}

	// 이미지 백엔드 선택 (phase 2)
	var imageGen provider.ImageGenerator = geminiClient
	if cfg.ImageBackend == "vertex" {
		vertexClient := vertex.NewClient(ctx)
		if vertexClient == nil {
			log.Fatal("❌ Failed to initialize Vertex AI client")
		}
		defer vertexClient.Close()
		imageGen = vertexClient
		log.Println("🎨 Image backend: Vertex AI")
	} else {
		log.Println("🎨 Image backend: Gemini")
	}

	// 스타일 라이브러리
	styleRepo := style.NewRepository(style.NewSupabaseStore(dbClient), cfg.StyleLibraryLimit)

	// 진행 상태 websocket hub
	hub := progress.NewHub()

	// 파이프라인 구성
	orchestrator := generate.NewOrchestrator(generate.Deps{
		Records:     dbClient,
		Blobs:       storageClient,
		Styles:      styleRepo,
		Synthesizer: promptsynth.NewSynthesizer(geminiClient),
		ImageGen:    imageGen,
		Evaluator:   qc.NewEvaluator(geminiClient, cfg.AcceptThreshold),
		Publisher:   publish.NewPublisher(dbClient),
		Scheduler:   generate.NewRedisScheduler(rdb),
		IsCancelled: func(generationID string) bool {
			return redisutil.IsCancelled(rdb, generationID)
		},
		Notifier: hub,
	}, generate.Settings{
		MaxRetries:            cfg.MaxRetries,
		ProviderTimeout:       cfg.ProviderTimeout,
		AsyncRetryBase:        cfg.AsyncRetryBase,
		AsyncRetryMaxAttempts: cfg.AsyncRetryMaxAttempts,
	})

	// Worker + retry poller 시작 (백그라운드)
	go generate.StartWorker(rdb, orchestrator)
	go generate.StartRetryPoller(rdb)

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	generate.NewHandler(dbClient, styleRepo, generate.NewRedisQueue(rdb)).RegisterRoutes(r)
	style.NewHandler(styleRepo, storageClient).RegisterRoutes(r)
	hub.RegisterRoutes(r)

	log.Printf("🚀 Poppiconni Pipeline Server starting on port %s", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📡 Progress feed: ws://localhost:%s/ws/pipeline/{generationId}", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
