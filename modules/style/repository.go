package style

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
)

// Store - 스타일 라이브러리 영속화 계약
type Store interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, entry *model.StyleLibraryEntry) error
	Get(ctx context.Context, styleID string) (*model.StyleLibraryEntry, error)
	UpdateReference(ctx context.Context, styleID string, referencePath string) error
	Delete(ctx context.Context, styleID string) error
	List(ctx context.Context) ([]model.StyleLibraryEntry, error)
}

// Repository - 정원 제한이 걸린 스타일 라이브러리
// create 경로는 mutex로 직렬화: 정원 체크와 삽입이 원자적으로 묶여야
// 경계에서 동시 생성 두 건이 모두 성공하는 일이 없음
type Repository struct {
	store Store
	limit int
	mu    sync.Mutex
}

// NewRepository - Repository 생성
func NewRepository(store Store, limit int) *Repository {
	return &Repository{
		store: store,
		limit: limit,
	}
}

// Limit - 설정된 정원
func (r *Repository) Limit() int {
	return r.limit
}

// Create - 스타일 엔트리 생성, 정원 초과 시 QuotaExceeded
// 정원에 도달하면 절대 기존 엔트리를 밀어내지 않음
func (r *Repository) Create(ctx context.Context, name string, description string) (*model.StyleLibraryEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &errs.ValidationError{Field: "name", Message: "style name is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	if count >= r.limit {
		log.Printf("⚠️  Style library full: %d/%d", count, r.limit)
		return nil, &errs.QuotaExceededError{Limit: r.limit}
	}

	entry := &model.StyleLibraryEntry{
		StyleID:   uuid.New().String(),
		StyleName: name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if description = strings.TrimSpace(description); description != "" {
		entry.Description = &description
	}

	if err := r.store.Insert(ctx, entry); err != nil {
		return nil, err
	}

	log.Printf("✅ Style entry created: %s (%s) [%d/%d]", entry.StyleID, entry.StyleName, count+1, r.limit)
	return entry, nil
}

// AttachReference - 참조 이미지 경로를 스타일에 연결
func (r *Repository) AttachReference(ctx context.Context, styleID string, referencePath string) (*model.StyleLibraryEntry, error) {
	entry, err := r.store.Get(ctx, styleID)
	if err != nil {
		return nil, err
	}

	if err := r.store.UpdateReference(ctx, styleID, referencePath); err != nil {
		return nil, err
	}

	entry.ReferenceImagePath = &referencePath
	return entry, nil
}

// Resolve - 스타일 id를 엔트리로 해석 (미존재 시 NotFound)
func (r *Repository) Resolve(ctx context.Context, styleID string) (*model.StyleLibraryEntry, error) {
	return r.store.Get(ctx, styleID)
}

// Delete - 스타일 삭제
func (r *Repository) Delete(ctx context.Context, styleID string) error {
	// 존재 확인 후 삭제 (미존재 404 구분용)
	if _, err := r.store.Get(ctx, styleID); err != nil {
		return err
	}
	return r.store.Delete(ctx, styleID)
}

// List - 전체 스타일 목록
func (r *Repository) List(ctx context.Context) ([]model.StyleLibraryEntry, error) {
	return r.store.List(ctx)
}
