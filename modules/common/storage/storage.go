package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"poppiconni-pipeline-server/modules/common/config"
)

// BucketName - 생성물 저장 버킷
const BucketName = "artworks"

type Client struct{}

// NewClient - Storage 클라이언트 생성
func NewClient() *Client {
	return &Client{}
}

// StyleReferencePath - 스타일 참조 이미지 저장 경로
func StyleReferencePath(styleID string) string {
	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	return fmt.Sprintf("styles/%s/reference_%d.png", styleID, timestamp)
}

// CandidatePath - phase 2 후보 이미지 경로 (재시도마다 덮어쓰지 않고 attempt별 보관)
func CandidatePath(generationID string, attempt int) string {
	return fmt.Sprintf("generations/%s/candidate_%d.png", generationID, attempt)
}

// FinalPath - phase 4 인쇄 정규화본 경로
func FinalPath(generationID string) string {
	return fmt.Sprintf("generations/%s/final.png", generationID)
}

// ThumbnailPath - phase 4 썸네일 경로
func ThumbnailPath(generationID string) string {
	return fmt.Sprintf("generations/%s/thumb.webp", generationID)
}

// Upload - Supabase Storage에 바이너리 업로드
func (c *Client) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	cfg := config.GetConfig()

	log.Printf("📤 Uploading to storage: %s (%d bytes)", filePath, len(data))

	// Supabase Storage API URL
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", cfg.SupabaseURL, BucketName, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)
	// 재시도 경로에서 같은 attempt 경로를 덮어쓸 수 있게 upsert 허용
	req.Header.Set("x-upsert", "true")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ Uploaded successfully: %s", filePath)
	return nil
}

// Download - Supabase Storage에서 바이너리 다운로드
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	cfg := config.GetConfig()

	fullURL := fmt.Sprintf("%s%s/%s", cfg.SupabaseStorageBaseURL, BucketName, filePath)
	log.Printf("📥 Downloading from storage: %s", fullURL)

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("❌ HTTP GET failed: %v", err)
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		log.Printf("❌ Download failed - Status: %d, Path: %s", httpResp.StatusCode, filePath)
		return nil, fmt.Errorf("failed to download: status %d, body: %s", httpResp.StatusCode, string(body))
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloaded data: %w", err)
	}

	log.Printf("✅ Downloaded successfully: %d bytes", len(data))
	return data, nil
}
