package model

import "time"

// GenerationStatus - 파이프라인 상태 (닫힌 집합, 자유 문자열 금지)
type GenerationStatus string

const (
	StatusPending          GenerationStatus = "pending"
	StatusPhase1Prompt     GenerationStatus = "phase1_prompt"
	StatusPhase2Generation GenerationStatus = "phase2_generation"
	StatusPhase3QC         GenerationStatus = "phase3_qc"
	StatusPhase4Postprod   GenerationStatus = "phase4_postprod"
	StatusCompleted        GenerationStatus = "completed"
	StatusLowConfidence    GenerationStatus = "low_confidence"
	StatusFailed           GenerationStatus = "failed"
	StatusAsyncRetry       GenerationStatus = "async_retry"
	StatusCancelled        GenerationStatus = "cancelled"
)

// IsTerminal - 종료 상태 여부 (종료 후에는 어떤 전이도 불가)
func (s GenerationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusLowConfidence, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsPhase - 실제 작업 중인 phase 상태 여부
func (s GenerationStatus) IsPhase() bool {
	switch s {
	case StatusPhase1Prompt, StatusPhase2Generation, StatusPhase3QC, StatusPhase4Postprod:
		return true
	}
	return false
}

// transitions - 허용된 상태 전이 테이블
var transitions = map[GenerationStatus][]GenerationStatus{
	StatusPending:          {StatusPhase1Prompt, StatusFailed, StatusCancelled},
	StatusPhase1Prompt:     {StatusPhase2Generation, StatusAsyncRetry, StatusFailed, StatusCancelled},
	StatusPhase2Generation: {StatusPhase3QC, StatusAsyncRetry, StatusFailed},
	StatusPhase3QC:         {StatusPhase4Postprod, StatusPhase2Generation, StatusLowConfidence, StatusAsyncRetry, StatusFailed},
	StatusPhase4Postprod:   {StatusCompleted, StatusFailed},
	StatusAsyncRetry:       {StatusPhase1Prompt, StatusPhase2Generation, StatusPhase3QC, StatusFailed},
}

// CanTransitionTo - from → to 전이가 허용되는지 확인
func (s GenerationStatus) CanTransitionTo(next GenerationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// QCChecks - 고정 루브릭 체크 항목 (phase 3)
type QCChecks struct {
	BrandMarkPresent bool `json:"brand_mark_present"` // Poppiconni 브랜드 마크 존재
	BrandTextLegible bool `json:"brand_text_legible"` // 브랜드 텍스트 가독성
	LineArtStyle     bool `json:"line_art_style"`     // 라인아트 스타일 준수
	Colorability     bool `json:"colorability"`       // 색칠 가능한 영역 구성
	ContentSafe      bool `json:"content_safe"`       // 금지 콘텐츠 없음
}

// AllPassed - 모든 체크 통과 여부
func (c QCChecks) AllPassed() bool {
	return c.BrandMarkPresent && c.BrandTextLegible && c.LineArtStyle && c.Colorability && c.ContentSafe
}

// QCReport - phase 3 평가 결과 (마지막 시도만 보존)
type QCReport struct {
	ConfidenceScore float64  `json:"confidence_score"` // [0,1]
	Checks          QCChecks `json:"checks"`
	Issues          []string `json:"issues,omitempty"`
}

// GenerationRecord - poppi_generation_jobs 테이블 구조
// Orchestrator만 쓰기, 상태 조회는 읽기 전용
type GenerationRecord struct {
	GenerationID  string  `json:"generation_id"`
	RequestText   string  `json:"request_text"`
	ThemeID       *string `json:"theme_id"`
	ThemeName     *string `json:"theme_name"`
	StyleID       *string `json:"style_id"`
	StyleLock     bool    `json:"style_lock"`
	SaveToGallery bool    `json:"save_to_gallery"`

	Status     GenerationStatus `json:"status"`
	RetryCount int              `json:"retry_count"` // QC 재생성 횟수 (async retry와 별개)

	// async_retry 메타데이터
	AsyncAttempts   int               `json:"async_attempts"`
	LastFailedPhase *GenerationStatus `json:"last_failed_phase"`
	NextEligibleAt  *time.Time        `json:"next_eligible_at"`

	OptimizedPrompt    *string   `json:"optimized_prompt"`
	CandidateImagePath *string   `json:"candidate_image_path"`
	QCReport           *QCReport `json:"qc_report"`
	FinalImagePath     *string   `json:"final_image_path"`
	ThumbnailPath      *string   `json:"thumbnail_path"`
	CatalogReference   *string   `json:"catalog_reference"`
	FailureReason      *string   `json:"failure_reason"`

	CreatedAt   time.Time  `json:"created_at"`
	PromptedAt  *time.Time `json:"prompted_at"`
	GeneratedAt *time.Time `json:"generated_at"`
	EvaluatedAt *time.Time `json:"evaluated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatusProjection - GET /pipeline-status/{id} 응답용 projection
type StatusProjection struct {
	GenerationID     string           `json:"generation_id"`
	Status           GenerationStatus `json:"status"`
	RetryCount       int              `json:"retry_count"`
	OptimizedPrompt  *string          `json:"optimized_prompt,omitempty"`
	QCReport         *QCReport        `json:"qc_report,omitempty"`
	ThumbnailPath    *string          `json:"thumbnail,omitempty"`
	CatalogReference *string          `json:"catalog_reference,omitempty"`
	FailureReason    *string          `json:"failure_reason,omitempty"`
}

// Projection - 레코드를 외부 공개용 projection으로 변환
func (r *GenerationRecord) Projection() StatusProjection {
	return StatusProjection{
		GenerationID:     r.GenerationID,
		Status:           r.Status,
		RetryCount:       r.RetryCount,
		OptimizedPrompt:  r.OptimizedPrompt,
		QCReport:         r.QCReport,
		ThumbnailPath:    r.ThumbnailPath,
		CatalogReference: r.CatalogReference,
		FailureReason:    r.FailureReason,
	}
}

// StyleLibraryEntry - poppi_style_library 테이블 구조
type StyleLibraryEntry struct {
	StyleID            string    `json:"style_id"`
	StyleName          string    `json:"style_name"`
	Description        *string   `json:"description"`
	ReferenceImagePath *string   `json:"reference_image_path"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

// HasReference - 참조 이미지가 붙어있는지 (있어야 conditioning 대상)
func (e *StyleLibraryEntry) HasReference() bool {
	return e.ReferenceImagePath != nil && *e.ReferenceImagePath != ""
}
