package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	"poppiconni-pipeline-server/modules/common/model"
)

// Catalog - 일러스트 카탈로그 협력자 계약
type Catalog interface {
	InsertIllustration(ctx context.Context, meta map[string]interface{}) (string, error)
}

// Publisher - 완성된 생성물을 카탈로그에 등록
type Publisher struct {
	catalog Catalog
}

// NewPublisher - Publisher 생성
func NewPublisher(catalog Catalog) *Publisher {
	return &Publisher{catalog: catalog}
}

// Publish - completed 상태 레코드를 카탈로그에 등록하고 카탈로그 참조 id 반환
// 실패해도 레코드 상태는 완료 유지 (호출측에서 별도 보고)
func (p *Publisher) Publish(ctx context.Context, record *model.GenerationRecord) (string, error) {
	if record.Status != model.StatusCompleted {
		return "", fmt.Errorf("cannot publish record in status %s", record.Status)
	}
	if record.FinalImagePath == nil || record.ThumbnailPath == nil {
		return "", fmt.Errorf("record %s missing final artifacts", record.GenerationID)
	}

	meta := map[string]interface{}{
		"generation_id":  record.GenerationID,
		"title":          record.RequestText,
		"image_path":     *record.FinalImagePath,
		"thumbnail_path": *record.ThumbnailPath,
		"created_at":     time.Now().Format(time.RFC3339),
	}
	if record.ThemeID != nil {
		meta["theme_id"] = *record.ThemeID
	}
	if record.StyleID != nil {
		meta["style_id"] = *record.StyleID
	}
	if record.QCReport != nil {
		meta["confidence_score"] = record.QCReport.ConfidenceScore
	}

	catalogRef, err := p.catalog.InsertIllustration(ctx, meta)
	if err != nil {
		log.Printf("⚠️ [Publish] Catalog insert failed for %s (artifact preserved): %v", record.GenerationID, err)
		return "", fmt.Errorf("catalog publish failed: %w", err)
	}

	log.Printf("📚 [Publish] Catalogued %s → %s", record.GenerationID, catalogRef)
	return catalogRef, nil
}
