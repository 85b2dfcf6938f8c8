package postprod

import (
	"fmt"
	"log"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/utils"
)

// A4 portrait @ 300 DPI
const (
	PrintWidth  = 2480
	PrintHeight = 3508

	thumbnailWidth   = 512
	thumbnailQuality = 80
)

// Result - phase 4 산출물
type Result struct {
	FinalImage []byte // print-normalized PNG
	Thumbnail  []byte // webp preview
}

// Process - QC 통과한 후보 이미지를 인쇄 규격으로 정규화하고 썸네일 생성
// 결정적 단계: 외부 AI 호출 없음, 실패는 ProcessingError로 종결 (재시도 없음)
func Process(candidateImage []byte) (*Result, error) {
	img, err := utils.DecodeImage(candidateImage)
	if err != nil {
		return nil, &errs.ProcessingError{Err: fmt.Errorf("decode candidate: %w", err)}
	}

	// 흰 여백 포함 A4 세로 캔버스에 맞춤
	printImg := utils.FitOnWhiteCanvas(img, PrintWidth, PrintHeight)

	finalPNG, err := utils.EncodePNG(printImg)
	if err != nil {
		return nil, &errs.ProcessingError{Err: fmt.Errorf("encode final: %w", err)}
	}

	thumbImg := utils.ScaleToWidth(printImg, thumbnailWidth)
	thumbWebP, err := utils.EncodeWebP(thumbImg, thumbnailQuality)
	if err != nil {
		return nil, &errs.ProcessingError{Err: fmt.Errorf("encode thumbnail: %w", err)}
	}

	log.Printf("🖨️ [PostProd] Normalized to %dx%d (final: %d bytes, thumbnail: %d bytes)",
		PrintWidth, PrintHeight, len(finalPNG), len(thumbWebP))

	return &Result{FinalImage: finalPNG, Thumbnail: thumbWebP}, nil
}
