package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"
	"poppiconni-pipeline-server/modules/common/config"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil
	}

	return &Client{
		supabase: supabaseClient,
	}
}

// CreateGenerationRecord - poppi_generation_jobs에 레코드 생성
func (c *Client) CreateGenerationRecord(ctx context.Context, record *model.GenerationRecord) error {
	log.Printf("💾 Creating generation record: %s", record.GenerationID)

	_, _, err := c.supabase.From("poppi_generation_jobs").
		Insert(record, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert generation record: %w", err)
	}

	log.Printf("✅ Generation record created: %s", record.GenerationID)
	return nil
}

// GetGenerationRecord - generation id로 레코드 조회
func (c *Client) GetGenerationRecord(ctx context.Context, generationID string) (*model.GenerationRecord, error) {
	var records []model.GenerationRecord

	data, _, err := c.supabase.From("poppi_generation_jobs").
		Select("*", "exact", false).
		Eq("generation_id", generationID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query generation record: %w", err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse generation record: %w", err)
	}

	if len(records) == 0 {
		return nil, &errs.NotFoundError{Kind: "generation", ID: generationID}
	}

	return &records[0], nil
}

// UpdateGenerationRecord - 레코드 전체 갱신 (Orchestrator 전용)
func (c *Client) UpdateGenerationRecord(ctx context.Context, record *model.GenerationRecord) error {
	log.Printf("📝 Updating generation %s (status: %s, retry: %d)",
		record.GenerationID, record.Status, record.RetryCount)

	_, _, err := c.supabase.From("poppi_generation_jobs").
		Update(record, "", "").
		Eq("generation_id", record.GenerationID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update generation record: %w", err)
	}

	return nil
}

// CountStyles - 스타일 라이브러리 현재 개수 조회
func (c *Client) CountStyles(ctx context.Context) (int, error) {
	var entries []model.StyleLibraryEntry

	data, _, err := c.supabase.From("poppi_style_library").
		Select("style_id", "exact", false).
		Execute()

	if err != nil {
		return 0, fmt.Errorf("failed to count styles: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse style entries: %w", err)
	}

	return len(entries), nil
}

// InsertStyle - 스타일 엔트리 생성
func (c *Client) InsertStyle(ctx context.Context, entry *model.StyleLibraryEntry) error {
	log.Printf("💾 Creating style entry: %s (%s)", entry.StyleID, entry.StyleName)

	_, _, err := c.supabase.From("poppi_style_library").
		Insert(entry, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to insert style entry: %w", err)
	}

	return nil
}

// GetStyle - 스타일 엔트리 조회
func (c *Client) GetStyle(ctx context.Context, styleID string) (*model.StyleLibraryEntry, error) {
	var entries []model.StyleLibraryEntry

	data, _, err := c.supabase.From("poppi_style_library").
		Select("*", "exact", false).
		Eq("style_id", styleID).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to query style: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse style entry: %w", err)
	}

	if len(entries) == 0 {
		return nil, &errs.NotFoundError{Kind: "style", ID: styleID}
	}

	return &entries[0], nil
}

// UpdateStyleReference - 스타일의 참조 이미지 경로 갱신
func (c *Client) UpdateStyleReference(ctx context.Context, styleID string, referencePath string) error {
	log.Printf("📎 Attaching reference to style %s: %s", styleID, referencePath)

	updateData := map[string]interface{}{
		"reference_image_path": referencePath,
	}

	_, _, err := c.supabase.From("poppi_style_library").
		Update(updateData, "", "").
		Eq("style_id", styleID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to update style reference: %w", err)
	}

	return nil
}

// DeleteStyle - 스타일 엔트리 삭제
func (c *Client) DeleteStyle(ctx context.Context, styleID string) error {
	log.Printf("🗑️  Deleting style entry: %s", styleID)

	_, _, err := c.supabase.From("poppi_style_library").
		Delete("", "").
		Eq("style_id", styleID).
		Execute()

	if err != nil {
		return fmt.Errorf("failed to delete style entry: %w", err)
	}

	return nil
}

// ListStyles - 전체 스타일 목록 조회
func (c *Client) ListStyles(ctx context.Context) ([]model.StyleLibraryEntry, error) {
	var entries []model.StyleLibraryEntry

	data, _, err := c.supabase.From("poppi_style_library").
		Select("*", "exact", false).
		Execute()

	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse style entries: %w", err)
	}

	return entries, nil
}

// InsertIllustration - 완성 일러스트를 카탈로그 테이블에 등록, 카탈로그 id 반환
func (c *Client) InsertIllustration(ctx context.Context, meta map[string]interface{}) (string, error) {
	log.Printf("📚 Publishing illustration to catalog")

	data, _, err := c.supabase.From("poppi_illustrations").
		Insert(meta, false, "", "", "").
		Execute()

	if err != nil {
		return "", fmt.Errorf("failed to insert illustration: %w", err)
	}

	var rows []struct {
		IllustrationID string `json:"illustration_id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", fmt.Errorf("failed to parse illustration response: %w", err)
	}

	if len(rows) == 0 {
		return "", fmt.Errorf("no illustration record returned")
	}

	log.Printf("✅ Illustration published: %s", rows[0].IllustrationID)
	return rows[0].IllustrationID, nil
}
