package style

import (
	"context"

	"poppiconni-pipeline-server/modules/common/database"
	"poppiconni-pipeline-server/modules/common/model"
)

// SupabaseStore - poppi_style_library 테이블 기반 Store 구현
type SupabaseStore struct {
	db *database.Client
}

// NewSupabaseStore - SupabaseStore 생성
func NewSupabaseStore(db *database.Client) *SupabaseStore {
	return &SupabaseStore{db: db}
}

func (s *SupabaseStore) Count(ctx context.Context) (int, error) {
	return s.db.CountStyles(ctx)
}

func (s *SupabaseStore) Insert(ctx context.Context, entry *model.StyleLibraryEntry) error {
	return s.db.InsertStyle(ctx, entry)
}

func (s *SupabaseStore) Get(ctx context.Context, styleID string) (*model.StyleLibraryEntry, error) {
	return s.db.GetStyle(ctx, styleID)
}

func (s *SupabaseStore) UpdateReference(ctx context.Context, styleID string, referencePath string) error {
	return s.db.UpdateStyleReference(ctx, styleID, referencePath)
}

func (s *SupabaseStore) Delete(ctx context.Context, styleID string) error {
	return s.db.DeleteStyle(ctx, styleID)
}

func (s *SupabaseStore) List(ctx context.Context) ([]model.StyleLibraryEntry, error) {
	return s.db.ListStyles(ctx)
}
