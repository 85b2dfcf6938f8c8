package generate

import (
	"context"
	"fmt"
	"log"
	"time"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
	"poppiconni-pipeline-server/modules/common/storage"
	"poppiconni-pipeline-server/modules/postprod"
	"poppiconni-pipeline-server/modules/promptsynth"
	"poppiconni-pipeline-server/modules/provider"
	"poppiconni-pipeline-server/modules/publish"
	"poppiconni-pipeline-server/modules/qc"
	"poppiconni-pipeline-server/modules/style"
)

// CancelChecker - 취소 플래그 확인 (Redis cancel flag)
type CancelChecker func(generationID string) bool

// Notifier - 상태 전이 알림 (websocket hub), nil 허용
type Notifier interface {
	NotifyStatus(record *model.GenerationRecord)
}

// Settings - 파이프라인 동작 파라미터 (config에서 주입)
type Settings struct {
	MaxRetries            int
	ProviderTimeout       time.Duration
	AsyncRetryBase        time.Duration
	AsyncRetryMaxAttempts int
}

// Deps - Orchestrator 의존성 (테스트는 인메모리/스텁 구현 주입)
type Deps struct {
	Records     RecordStore
	Blobs       BlobStore
	Styles      *style.Repository
	Synthesizer *promptsynth.Synthesizer
	ImageGen    provider.ImageGenerator
	Evaluator   *qc.Evaluator
	Publisher   *publish.Publisher
	Scheduler   Scheduler
	IsCancelled CancelChecker
	Notifier    Notifier
}

// Orchestrator - 4단계 파이프라인 상태 머신
// GenerationRecord의 유일한 쓰기 주체
type Orchestrator struct {
	deps     Deps
	settings Settings
}

// NewOrchestrator - Orchestrator 생성
func NewOrchestrator(deps Deps, settings Settings) *Orchestrator {
	return &Orchestrator{deps: deps, settings: settings}
}

// Run - 레코드 상태에서 이어서 파이프라인 실행
// pending이면 처음부터, async_retry면 실패한 phase부터 재진입
func (o *Orchestrator) Run(ctx context.Context, generationID string) error {
	record, err := o.deps.Records.GetGenerationRecord(ctx, generationID)
	if err != nil {
		return fmt.Errorf("failed to load generation %s: %w", generationID, err)
	}

	if record.Status.IsTerminal() {
		log.Printf("⚠️ [Pipeline] %s already terminal (%s), skipping", generationID, record.Status)
		return nil
	}

	// 재진입 지점 결정
	phase := model.StatusPhase1Prompt
	switch {
	case record.Status == model.StatusPending:
		phase = model.StatusPhase1Prompt
	case record.Status == model.StatusAsyncRetry:
		if record.LastFailedPhase == nil {
			return o.fail(ctx, record, "async retry record missing failed phase")
		}
		phase = *record.LastFailedPhase
		log.Printf("🔁 [Pipeline] %s resuming at %s (async attempt %d)", generationID, phase, record.AsyncAttempts)
	case record.Status.IsPhase():
		phase = record.Status
	}

	// 스타일 해석 - 모든 실행마다 처리 (conditioning에 필요)
	// 미존재 스타일 id는 즉시 실패, 재시도 없음
	var styleEntry *model.StyleLibraryEntry
	if record.StyleID != nil {
		styleEntry, err = o.deps.Styles.Resolve(ctx, *record.StyleID)
		if err != nil {
			return o.fail(ctx, record, fmt.Sprintf("style resolution failed: %v", err))
		}
		if !styleEntry.HasReference() {
			return o.fail(ctx, record, fmt.Sprintf("style %s has no reference image attached", *record.StyleID))
		}
	}

	var candidate []byte

	for {
		switch phase {

		case model.StatusPhase1Prompt:
			if o.cancelled(record) {
				return o.cancel(ctx, record)
			}
			if err := o.transition(ctx, record, model.StatusPhase1Prompt); err != nil {
				return err
			}

			prompt, err := o.runPhase1(ctx, record, styleEntry)
			if err != nil {
				return o.handlePhaseError(ctx, record, model.StatusPhase1Prompt, err)
			}

			now := time.Now()
			record.OptimizedPrompt = &prompt
			record.PromptedAt = &now

			// phase 2 디스패치 전 마지막 취소 창구
			if o.cancelled(record) {
				return o.cancel(ctx, record)
			}
			phase = model.StatusPhase2Generation

		case model.StatusPhase2Generation:
			if record.OptimizedPrompt == nil {
				// 크래시 복구 등으로 프롬프트가 비어 있으면 phase 1부터 다시
				phase = model.StatusPhase1Prompt
				continue
			}
			if err := o.transition(ctx, record, model.StatusPhase2Generation); err != nil {
				return err
			}

			img, err := o.runPhase2(ctx, record, styleEntry)
			if err != nil {
				return o.handlePhaseError(ctx, record, model.StatusPhase2Generation, err)
			}

			candidatePath := storage.CandidatePath(record.GenerationID, record.RetryCount)
			if err := o.deps.Blobs.Upload(ctx, candidatePath, img, "image/png"); err != nil {
				classified := errs.ClassifyProviderError(provider.PhaseImageGeneration, err)
				return o.handlePhaseError(ctx, record, model.StatusPhase2Generation, classified)
			}

			now := time.Now()
			record.CandidateImagePath = &candidatePath
			record.GeneratedAt = &now
			candidate = img
			phase = model.StatusPhase3QC

		case model.StatusPhase3QC:
			if err := o.transition(ctx, record, model.StatusPhase3QC); err != nil {
				return err
			}

			if candidate == nil {
				if record.CandidateImagePath == nil {
					phase = model.StatusPhase2Generation
					continue
				}
				candidate, err = o.deps.Blobs.Download(ctx, *record.CandidateImagePath)
				if err != nil {
					classified := errs.ClassifyProviderError(provider.PhaseQCEvaluation, err)
					return o.handlePhaseError(ctx, record, model.StatusPhase3QC, classified)
				}
			}

			report, err := o.runPhase3(ctx, candidate)
			if err != nil {
				return o.handlePhaseError(ctx, record, model.StatusPhase3QC, err)
			}

			now := time.Now()
			record.QCReport = report
			record.EvaluatedAt = &now

			if o.deps.Evaluator.Accept(report) {
				log.Printf("✅ [Pipeline] %s QC accepted (score: %.2f)", record.GenerationID, report.ConfidenceScore)
				phase = model.StatusPhase4Postprod
				continue
			}

			// QC 거절은 오류가 아니라 정상 흐름: 예산 내면 phase 2 재생성
			if record.RetryCount < o.settings.MaxRetries {
				record.RetryCount++
				candidate = nil
				log.Printf("🔄 [Pipeline] %s QC rejected (score: %.2f), regenerating (retry %d/%d)",
					record.GenerationID, report.ConfidenceScore, record.RetryCount, o.settings.MaxRetries)
				phase = model.StatusPhase2Generation
				continue
			}

			log.Printf("⚠️ [Pipeline] %s reached retry limit, marking low_confidence", record.GenerationID)
			return o.terminal(ctx, record, model.StatusLowConfidence)

		case model.StatusPhase4Postprod:
			if err := o.transition(ctx, record, model.StatusPhase4Postprod); err != nil {
				return err
			}

			if candidate == nil {
				if record.CandidateImagePath == nil {
					return o.fail(ctx, record, "post-production entered without a candidate image")
				}
				candidate, err = o.deps.Blobs.Download(ctx, *record.CandidateImagePath)
				if err != nil {
					return o.fail(ctx, record, fmt.Sprintf("candidate download failed: %v", err))
				}
			}

			result, err := postprod.Process(candidate)
			if err != nil {
				// 결정적 단계 실패는 재시도하지 않음
				return o.fail(ctx, record, err.Error())
			}

			finalPath := storage.FinalPath(record.GenerationID)
			thumbPath := storage.ThumbnailPath(record.GenerationID)
			if err := o.deps.Blobs.Upload(ctx, finalPath, result.FinalImage, "image/png"); err != nil {
				return o.fail(ctx, record, fmt.Sprintf("final image upload failed: %v", err))
			}
			if err := o.deps.Blobs.Upload(ctx, thumbPath, result.Thumbnail, "image/webp"); err != nil {
				return o.fail(ctx, record, fmt.Sprintf("thumbnail upload failed: %v", err))
			}

			now := time.Now()
			record.FinalImagePath = &finalPath
			record.ThumbnailPath = &thumbPath
			record.CompletedAt = &now

			if err := o.transition(ctx, record, model.StatusCompleted); err != nil {
				return err
			}
			log.Printf("🎉 [Pipeline] %s completed (retries: %d)", record.GenerationID, record.RetryCount)

			// 카탈로그 등록 실패는 completed를 되돌리지 않음
			if record.SaveToGallery {
				catalogRef, err := o.deps.Publisher.Publish(ctx, record)
				if err == nil {
					record.CatalogReference = &catalogRef
					record.UpdatedAt = time.Now()
					if err := o.deps.Records.UpdateGenerationRecord(ctx, record); err != nil {
						log.Printf("⚠️ [Pipeline] %s catalog reference not persisted: %v", record.GenerationID, err)
					}
				}
			}
			return nil

		default:
			return o.fail(ctx, record, fmt.Sprintf("unexpected pipeline phase %s", phase))
		}
	}
}

// runPhase1 - 프롬프트 최적화
func (o *Orchestrator) runPhase1(ctx context.Context, record *model.GenerationRecord, styleEntry *model.StyleLibraryEntry) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.settings.ProviderTimeout)
	defer cancel()
	return o.deps.Synthesizer.Synthesize(callCtx, record.RequestText, record.ThemeName, styleEntry)
}

// runPhase2 - 이미지 생성
// styleLock=true면 모든 재시도에서 동일한 레퍼런스로 conditioning,
// false면 재시도부터 conditioning 생략
func (o *Orchestrator) runPhase2(ctx context.Context, record *model.GenerationRecord, styleEntry *model.StyleLibraryEntry) ([]byte, error) {
	var conditioning []byte
	if styleEntry != nil && styleEntry.HasReference() {
		if record.StyleLock || record.RetryCount == 0 {
			ref, err := o.deps.Blobs.Download(ctx, *styleEntry.ReferenceImagePath)
			if err != nil {
				return nil, errs.ClassifyProviderError(provider.PhaseImageGeneration, err)
			}
			conditioning = ref
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.settings.ProviderTimeout)
	defer cancel()

	img, err := o.deps.ImageGen.Generate(callCtx, *record.OptimizedPrompt, conditioning)
	if err != nil {
		return nil, errs.ClassifyProviderError(provider.PhaseImageGeneration, err)
	}
	return img, nil
}

// runPhase3 - QC 평가
func (o *Orchestrator) runPhase3(ctx context.Context, candidate []byte) (*model.QCReport, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.settings.ProviderTimeout)
	defer cancel()
	return o.deps.Evaluator.Evaluate(callCtx, candidate)
}

// handlePhaseError - 분류된 오류에 따라 async_retry 또는 failed로 귀결
func (o *Orchestrator) handlePhaseError(ctx context.Context, record *model.GenerationRecord, phase model.GenerationStatus, err error) error {
	if errs.IsTransient(err) {
		record.AsyncAttempts++
		if record.AsyncAttempts > o.settings.AsyncRetryMaxAttempts {
			return o.fail(ctx, record, fmt.Sprintf("transient provider errors exhausted after %d attempts: %v",
				o.settings.AsyncRetryMaxAttempts, err))
		}

		delay := backoffDelay(o.settings.AsyncRetryBase, record.AsyncAttempts)
		eligibleAt := time.Now().Add(delay)
		record.LastFailedPhase = &phase
		record.NextEligibleAt = &eligibleAt

		if terr := o.transition(ctx, record, model.StatusAsyncRetry); terr != nil {
			return terr
		}
		log.Printf("⏳ [Pipeline] %s transient failure in %s, retry %d/%d in %s: %v",
			record.GenerationID, phase, record.AsyncAttempts, o.settings.AsyncRetryMaxAttempts, delay, err)

		if serr := o.deps.Scheduler.Schedule(ctx, record.GenerationID, eligibleAt); serr != nil {
			return o.fail(ctx, record, fmt.Sprintf("retry scheduling failed: %v", serr))
		}
		return nil
	}

	return o.fail(ctx, record, err.Error())
}

// transition - 상태 전이 + 영속화 + 알림
// 같은 상태로의 재진입(크래시 복구)은 no-op
func (o *Orchestrator) transition(ctx context.Context, record *model.GenerationRecord, next model.GenerationStatus) error {
	if record.Status == next {
		return nil
	}
	if !record.Status.CanTransitionTo(next) {
		return fmt.Errorf("illegal status transition %s → %s for %s", record.Status, next, record.GenerationID)
	}

	record.Status = next
	record.UpdatedAt = time.Now()
	if err := o.deps.Records.UpdateGenerationRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to persist status %s: %w", next, err)
	}
	o.notify(record)
	return nil
}

// fail - failed 종결 + 사유 기록
func (o *Orchestrator) fail(ctx context.Context, record *model.GenerationRecord, reason string) error {
	record.FailureReason = &reason
	log.Printf("❌ [Pipeline] %s failed: %s", record.GenerationID, reason)
	return o.terminal(ctx, record, model.StatusFailed)
}

// terminal - 종료 상태 전이
func (o *Orchestrator) terminal(ctx context.Context, record *model.GenerationRecord, status model.GenerationStatus) error {
	return o.transition(ctx, record, status)
}

// cancel - 취소 종결 (pending/phase1에서만 도달)
func (o *Orchestrator) cancel(ctx context.Context, record *model.GenerationRecord) error {
	log.Printf("🛑 [Pipeline] %s cancelled by caller", record.GenerationID)
	return o.transition(ctx, record, model.StatusCancelled)
}

func (o *Orchestrator) cancelled(record *model.GenerationRecord) bool {
	return o.deps.IsCancelled != nil && o.deps.IsCancelled(record.GenerationID)
}

func (o *Orchestrator) notify(record *model.GenerationRecord) {
	if o.deps.Notifier != nil {
		o.deps.Notifier.NotifyStatus(record)
	}
}
