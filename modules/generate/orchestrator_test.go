package generate

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppiconni-pipeline-server/modules/common/model"
	"poppiconni-pipeline-server/modules/promptsynth"
	"poppiconni-pipeline-server/modules/publish"
	"poppiconni-pipeline-server/modules/qc"
	"poppiconni-pipeline-server/modules/style"
)

const acceptJSON = `{"confidence_score": 0.9, "checks": {"brand_mark_present": true, "brand_text_legible": true, "line_art_style": true, "colorability": true, "content_safe": true}, "issues": []}`

const rejectJSON = `{"confidence_score": 0.4, "checks": {"brand_mark_present": true, "brand_text_legible": false, "line_art_style": true, "colorability": true, "content_safe": true}, "issues": ["brand text illegible"]}`

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(16, 24, color.Black)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeText struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeText) Complete(ctx context.Context, promptContext string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "optimized line-art prompt", nil
}

type fakeImageGen struct {
	mu           sync.Mutex
	image        []byte
	errs         []error // 호출 순서대로 소비, 소진되면 성공
	conditioning [][]byte
}

func (f *fakeImageGen) Generate(ctx context.Context, prompt string, conditioningImage []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditioning = append(f.conditioning, conditioningImage)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.image, nil
}

type fakeVision struct {
	mu      sync.Mutex
	replies []string // 호출 순서대로 소비, 마지막 응답 반복
	errs    []error
	calls   int
}

func (f *fakeVision) Evaluate(ctx context.Context, imageData []byte, rubricPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(f.replies) == 0 {
		return acceptJSON, nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type fakeCatalog struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCatalog) InsertIllustration(ctx context.Context, meta map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "catalog-ref-1", nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []time.Time
}

func (f *fakeScheduler) Schedule(ctx context.Context, generationID string, eligibleAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, eligibleAt)
	return nil
}

type pipelineFixture struct {
	orch      *Orchestrator
	records   *MemoryRecordStore
	blobs     *MemoryBlobStore
	styles    *style.Repository
	text      *fakeText
	imageGen  *fakeImageGen
	vision    *fakeVision
	catalog   *fakeCatalog
	scheduler *fakeScheduler
	cancelled map[string]bool
}

func newFixture(t *testing.T) *pipelineFixture {
	f := &pipelineFixture{
		records:   NewMemoryRecordStore(),
		blobs:     NewMemoryBlobStore(),
		styles:    style.NewRepository(style.NewMemoryStore(), 20),
		text:      &fakeText{},
		imageGen:  &fakeImageGen{image: testPNG(t)},
		vision:    &fakeVision{},
		catalog:   &fakeCatalog{},
		scheduler: &fakeScheduler{},
		cancelled: map[string]bool{},
	}

	f.orch = NewOrchestrator(Deps{
		Records:     f.records,
		Blobs:       f.blobs,
		Styles:      f.styles,
		Synthesizer: promptsynth.NewSynthesizer(f.text),
		ImageGen:    f.imageGen,
		Evaluator:   qc.NewEvaluator(f.vision, 0.7),
		Publisher:   publish.NewPublisher(f.catalog),
		Scheduler:   f.scheduler,
		IsCancelled: func(id string) bool { return f.cancelled[id] },
	}, Settings{
		MaxRetries:            2,
		ProviderTimeout:       30 * time.Second,
		AsyncRetryBase:        time.Millisecond,
		AsyncRetryMaxAttempts: 5,
	})
	return f
}

func (f *pipelineFixture) accept(t *testing.T, req GenerateRequest) *model.GenerationRecord {
	t.Helper()
	now := time.Now()
	record := &model.GenerationRecord{
		GenerationID:  "gen-" + t.Name(),
		RequestText:   req.RequestText,
		ThemeName:     req.ThemeName,
		StyleID:       req.StyleID,
		StyleLock:     req.StyleLock,
		SaveToGallery: req.SaveToGallery,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.records.CreateGenerationRecord(context.Background(), record))
	return record
}

func (f *pipelineFixture) get(t *testing.T, id string) *model.GenerationRecord {
	t.Helper()
	record, err := f.records.GetGenerationRecord(context.Background(), id)
	require.NoError(t, err)
	return record
}

func (f *pipelineFixture) addStyleWithReference(t *testing.T, refBytes []byte) string {
	t.Helper()
	entry, err := f.styles.Create(context.Background(), "test style", "")
	require.NoError(t, err)
	refPath := "styles/" + entry.StyleID + "/reference.png"
	require.NoError(t, f.blobs.Upload(context.Background(), refPath, refBytes, "image/png"))
	_, err = f.styles.AttachReference(context.Background(), entry.StyleID, refPath)
	require.NoError(t, err)
	return entry.StyleID
}

func TestPipelineCompletesFirstTry(t *testing.T) {
	f := newFixture(t)
	record := f.accept(t, GenerateRequest{
		RequestText:   "Poppiconni pompiere che salva un gattino",
		SaveToGallery: true,
	})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	require.NotNil(t, got.QCReport)
	assert.GreaterOrEqual(t, got.QCReport.ConfidenceScore, 0.7)
	require.NotNil(t, got.FinalImagePath)
	require.NotNil(t, got.ThumbnailPath)
	require.NotNil(t, got.CatalogReference)
	assert.Equal(t, "catalog-ref-1", *got.CatalogReference)

	// 최종 산출물이 blob store에 존재
	_, err := f.blobs.Download(context.Background(), *got.FinalImagePath)
	assert.NoError(t, err)
}

func TestPipelineSkipsCatalogWhenNotSaving(t *testing.T) {
	f := newFixture(t)
	record := f.accept(t, GenerateRequest{RequestText: "un prato fiorito", SaveToGallery: false})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Nil(t, got.CatalogReference)
	assert.Equal(t, 0, f.catalog.calls)
}

func TestPipelineRetriesUntilAccepted(t *testing.T) {
	f := newFixture(t)
	f.vision.replies = []string{rejectJSON, rejectJSON, acceptJSON}
	record := f.accept(t, GenerateRequest{RequestText: "Poppiconni astronauta"})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.RetryCount)
	// phase 1은 한 번만 실행
	assert.Equal(t, 1, f.text.calls)
	assert.Equal(t, 3, f.vision.calls)
}

func TestPipelineLowConfidenceAtRetryCap(t *testing.T) {
	f := newFixture(t)
	f.vision.replies = []string{rejectJSON}
	record := f.accept(t, GenerateRequest{RequestText: "Poppiconni pirata"})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusLowConfidence, got.Status)
	assert.Equal(t, 2, got.RetryCount)
	require.NotNil(t, got.QCReport)
	assert.Nil(t, got.FinalImagePath)
	assert.Equal(t, 0, f.catalog.calls)
}

func TestPipelineAsyncRetryOnRateLimit(t *testing.T) {
	f := newFixture(t)
	f.imageGen.errs = []error{errors.New("429 rate limit exceeded")}
	record := f.accept(t, GenerateRequest{RequestText: "Poppiconni cuoco"})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusAsyncRetry, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	assert.Equal(t, 1, got.AsyncAttempts)
	require.NotNil(t, got.LastFailedPhase)
	assert.Equal(t, model.StatusPhase2Generation, *got.LastFailedPhase)
	require.NotNil(t, got.NextEligibleAt)
	assert.Len(t, f.scheduler.scheduled, 1)

	// 재진입: phase 1은 다시 실행되지 않고 phase 2부터 재개
	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got = f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 0, got.RetryCount)
	assert.Equal(t, 1, f.text.calls)
}

func TestPipelineAsyncRetryExhaustion(t *testing.T) {
	f := newFixture(t)
	f.orch.settings.AsyncRetryMaxAttempts = 2
	f.imageGen.errs = []error{
		errors.New("503 unavailable"),
		errors.New("503 unavailable"),
		errors.New("503 unavailable"),
	}
	record := f.accept(t, GenerateRequest{RequestText: "Poppiconni marinaio"})

	for i := 0; i < 3; i++ {
		require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))
	}

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Contains(t, *got.FailureReason, "transient provider errors exhausted")
}

func TestPipelinePermanentRejectionFails(t *testing.T) {
	f := newFixture(t)
	f.text.err = errors.New("content policy violation")
	record := f.accept(t, GenerateRequest{RequestText: "scena vietata"})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Len(t, f.scheduler.scheduled, 0)
}

func TestPipelineStyleLockKeepsConditioningAcrossRetries(t *testing.T) {
	f := newFixture(t)
	ref := []byte("reference-image-bytes")
	styleID := f.addStyleWithReference(t, ref)
	f.vision.replies = []string{rejectJSON, acceptJSON}

	record := f.accept(t, GenerateRequest{
		RequestText: "Poppiconni giardiniere",
		StyleID:     &styleID,
		StyleLock:   true,
	})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.Len(t, f.imageGen.conditioning, 2)
	assert.Equal(t, ref, f.imageGen.conditioning[0])
	assert.Equal(t, ref, f.imageGen.conditioning[1])
}

func TestPipelineUnlockedStyleDropsConditioningOnRetry(t *testing.T) {
	f := newFixture(t)
	ref := []byte("reference-image-bytes")
	styleID := f.addStyleWithReference(t, ref)
	f.vision.replies = []string{rejectJSON, acceptJSON}

	record := f.accept(t, GenerateRequest{
		RequestText: "Poppiconni postino",
		StyleID:     &styleID,
		StyleLock:   false,
	})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	require.Len(t, f.imageGen.conditioning, 2)
	assert.Equal(t, ref, f.imageGen.conditioning[0])
	assert.Nil(t, f.imageGen.conditioning[1])
}

func TestPipelineUnknownStyleFailsImmediately(t *testing.T) {
	f := newFixture(t)
	missing := "no-such-style"
	record := f.accept(t, GenerateRequest{RequestText: "scena", StyleID: &missing})

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Contains(t, *got.FailureReason, "style resolution failed")
	assert.Equal(t, 0, f.text.calls)
}

func TestPipelineCancelBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	record := f.accept(t, GenerateRequest{RequestText: "scena"})
	f.cancelled[record.GenerationID] = true

	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	got := f.get(t, record.GenerationID)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, 0, f.vision.calls)
}

func TestPipelineTerminalRecordIsUntouched(t *testing.T) {
	f := newFixture(t)
	record := f.accept(t, GenerateRequest{RequestText: "scena", SaveToGallery: true})
	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))

	before := f.get(t, record.GenerationID)
	require.True(t, before.Status.IsTerminal())

	// 종료 후 재실행은 no-op
	require.NoError(t, f.orch.Run(context.Background(), record.GenerationID))
	after := f.get(t, record.GenerationID)
	assert.Equal(t, before, after)
}
