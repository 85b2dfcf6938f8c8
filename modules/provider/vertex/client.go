package vertex

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
	"poppiconni-pipeline-server/modules/common/config"
)

// Client - Vertex AI 이미지 백엔드 (IMAGE_BACKEND=vertex)
type Client struct {
	genaiClient *genai.Client
	imageModel  string
}

// NewClient - Vertex AI 클라이언트 생성 (환경 변수 자동 처리)
func NewClient(ctx context.Context) *Client {
	cfg := config.GetConfig()

	var opts []option.ClientOption

	// 1. 환경 변수 VERTEXAI_CREDENTIALS_JSON 확인 (Render 배포용)
	if credsJSON := os.Getenv("VERTEXAI_CREDENTIALS_JSON"); credsJSON != "" {
		log.Println("✅ [VertexAI] Using VERTEXAI_CREDENTIALS_JSON from environment")
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	} else if credsPath := os.Getenv("VERTEXAI_CREDENTIALS_PATH"); credsPath != "" {
		// 2. 환경 변수 VERTEXAI_CREDENTIALS_PATH 확인 (로컬 테스트용)
		log.Printf("✅ [VertexAI] Using credentials from file: %s\n", credsPath)
		credsData, err := os.ReadFile(credsPath)
		if err != nil {
			log.Printf("❌ [VertexAI] Failed to read credentials file: %v", err)
			return nil
		}
		// JSON 유효성 검사
		var creds map[string]interface{}
		if err := json.Unmarshal(credsData, &creds); err != nil {
			log.Printf("❌ [VertexAI] Invalid JSON credentials: %v", err)
			return nil
		}
		opts = append(opts, option.WithCredentialsJSON(credsData))
	} else {
		// 3. Application Default Credentials (ADC) 사용
		log.Println("⚠️  [VertexAI] No explicit credentials found, using Application Default Credentials")
	}

	genaiClient, err := genai.NewClient(ctx, cfg.VertexProject, cfg.VertexLocation, opts...)
	if err != nil {
		log.Printf("❌ [VertexAI] Failed to create client: %v", err)
		return nil
	}

	log.Printf("✅ [VertexAI] Client initialized for project=%s, location=%s\n",
		cfg.VertexProject, cfg.VertexLocation)
	return &Client{
		genaiClient: genaiClient,
		imageModel:  cfg.GeminiImageModel,
	}
}

// Close - gRPC 연결 정리
func (c *Client) Close() error {
	if c.genaiClient == nil {
		return nil
	}
	return c.genaiClient.Close()
}

// errNoClient - nil 클라이언트 방어용
var errNoClient = fmt.Errorf("vertex client not initialized")
