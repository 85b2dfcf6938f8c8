package gemini

import (
	"context"
	"log"

	"google.golang.org/genai"
	"poppiconni-pipeline-server/modules/common/config"
)

// Client - Gemini 기반 공급자 (text / image / vision 모두 담당)
type Client struct {
	genaiClient *genai.Client
	textModel   string
	imageModel  string
	qcModel     string
}

// NewClient - Genai 클라이언트 초기화
func NewClient(ctx context.Context) *Client {
	cfg := config.GetConfig()

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("❌ Failed to create Genai client: %v", err)
		return nil
	}

	log.Println("✅ Genai client initialized")
	return &Client{
		genaiClient: genaiClient,
		textModel:   cfg.GeminiTextModel,
		imageModel:  cfg.GeminiImageModel,
		qcModel:     cfg.GeminiQCModel,
	}
}
