package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // JPEG 디코더 등록
	"image/png"
	"log"
	"math"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// DecodeImage - 이미지 바이너리 디코드 (PNG, JPEG, WebP)
func DecodeImage(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// WebP는 표준 디코더에 등록되지 않으므로 별도 시도
		webpImg, webpErr := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if webpErr != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return webpImg, nil
	}
	log.Printf("🔍 Decoded image format: %s (%dx%d)", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// EncodePNG - PNG 인코딩
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeWebP - WebP 인코딩 (썸네일용)
func EncodeWebP(img image.Image, quality float32) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	log.Printf("✅ Encoded WebP: %d bytes (quality: %.1f)", webpBuffer.Len(), quality)
	return webpBuffer.Bytes(), nil
}

// FitOnWhiteCanvas - 비율 유지하며 목표 크기 흰색 캔버스에 중앙 배치
// 컬러링북 인쇄용이라 여백은 항상 흰색
func FitOnWhiteCanvas(src image.Image, targetWidth, targetHeight int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()

	// 비율 계산
	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := math.Min(scaleX, scaleY)

	// 스케일된 크기 계산
	newWidth := int(float64(srcWidth) * scale)
	newHeight := int(float64(srcHeight) * scale)

	// 중앙 정렬을 위한 오프셋 계산
	xOffset := (targetWidth - newWidth) / 2
	yOffset := (targetHeight - newHeight) / 2

	// Nearest Neighbor 방식으로 리사이즈
	for y := 0; y < newHeight; y++ {
		for x := 0; x < newWidth; x++ {
			srcX := srcBounds.Min.X + int(float64(x)/scale)
			srcY := srcBounds.Min.Y + int(float64(y)/scale)
			dst.Set(x+xOffset, y+yOffset, src.At(srcX, srcY))
		}
	}

	return dst
}

// ScaleToWidth - 비율 유지하며 목표 너비로 축소 (썸네일용)
func ScaleToWidth(src image.Image, targetWidth int) image.Image {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()

	if srcWidth <= targetWidth {
		return src
	}

	scale := float64(targetWidth) / float64(srcWidth)
	targetHeight := int(float64(srcHeight) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < targetHeight; y++ {
		for x := 0; x < targetWidth; x++ {
			srcX := srcBounds.Min.X + int(float64(x)/scale)
			srcY := srcBounds.Min.Y + int(float64(y)/scale)
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}

	return dst
}

// ConvertImageToBase64 - 이미지 바이너리를 base64로 변환
func ConvertImageToBase64(imageData []byte) string {
	return base64.StdEncoding.EncodeToString(imageData)
}

// DecodeBase64Image - base64 문자열을 바이트 배열로 디코딩 (data URL 접두어 허용)
func DecodeBase64Image(s string) ([]byte, error) {
	// data:image/png;base64, 접두어 제거
	if idx := indexOfComma(s); idx >= 0 && len(s) > 5 && s[:5] == "data:" {
		s = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}

func indexOfComma(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			return i
		}
	}
	return -1
}
