package generate

import (
	"context"
	"sync"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
)

// RecordStore - GenerationRecord 영속화 계약
// 프로덕션은 database.Client, 테스트는 MemoryRecordStore
type RecordStore interface {
	CreateGenerationRecord(ctx context.Context, record *model.GenerationRecord) error
	GetGenerationRecord(ctx context.Context, generationID string) (*model.GenerationRecord, error)
	UpdateGenerationRecord(ctx context.Context, record *model.GenerationRecord) error
}

// BlobStore - 이미지 blob 저장 계약 (프로덕션은 storage.Client)
type BlobStore interface {
	Upload(ctx context.Context, filePath string, data []byte, contentType string) error
	Download(ctx context.Context, filePath string) ([]byte, error)
}

// MemoryRecordStore - 인메모리 RecordStore (테스트용)
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]model.GenerationRecord
}

// NewMemoryRecordStore - MemoryRecordStore 생성
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]model.GenerationRecord),
	}
}

func (s *MemoryRecordStore) CreateGenerationRecord(ctx context.Context, record *model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.GenerationID] = copyRecord(record)
	return nil
}

func (s *MemoryRecordStore) GetGenerationRecord(ctx context.Context, generationID string) (*model.GenerationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[generationID]
	if !ok {
		return nil, &errs.NotFoundError{Kind: "generation", ID: generationID}
	}
	copied := copyRecord(&record)
	return &copied, nil
}

func (s *MemoryRecordStore) UpdateGenerationRecord(ctx context.Context, record *model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.GenerationID]; !ok {
		return &errs.NotFoundError{Kind: "generation", ID: record.GenerationID}
	}
	s.records[record.GenerationID] = copyRecord(record)
	return nil
}

// copyRecord - 포인터 필드까지 복사해 저장본과 호출측의 공유를 끊음
func copyRecord(r *model.GenerationRecord) model.GenerationRecord {
	out := *r
	out.ThemeID = copyStr(r.ThemeID)
	out.ThemeName = copyStr(r.ThemeName)
	out.StyleID = copyStr(r.StyleID)
	out.OptimizedPrompt = copyStr(r.OptimizedPrompt)
	out.CandidateImagePath = copyStr(r.CandidateImagePath)
	out.FinalImagePath = copyStr(r.FinalImagePath)
	out.ThumbnailPath = copyStr(r.ThumbnailPath)
	out.CatalogReference = copyStr(r.CatalogReference)
	out.FailureReason = copyStr(r.FailureReason)
	if r.LastFailedPhase != nil {
		phase := *r.LastFailedPhase
		out.LastFailedPhase = &phase
	}
	if r.NextEligibleAt != nil {
		t := *r.NextEligibleAt
		out.NextEligibleAt = &t
	}
	if r.QCReport != nil {
		report := *r.QCReport
		report.Issues = append([]string(nil), r.QCReport.Issues...)
		out.QCReport = &report
	}
	return out
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// MemoryBlobStore - 인메모리 BlobStore (테스트용)
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore - MemoryBlobStore 생성
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[filePath] = copied
	return nil
}

func (s *MemoryBlobStore) Download(ctx context.Context, filePath string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[filePath]
	if !ok {
		return nil, &errs.NotFoundError{Kind: "blob", ID: filePath}
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}
