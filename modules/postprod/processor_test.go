package postprod

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppiconni-pipeline-server/modules/common/errs"
)

func makeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	// 테두리에 검은 선
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.Black)
		img.Set(x, h-1, color.Black)
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessNormalizesToPrintSize(t *testing.T) {
	result, err := Process(makeTestPNG(t, 768, 1024))
	require.NoError(t, err)
	require.NotEmpty(t, result.FinalImage)
	require.NotEmpty(t, result.Thumbnail)

	decoded, err := png.Decode(bytes.NewReader(result.FinalImage))
	require.NoError(t, err)
	assert.Equal(t, PrintWidth, decoded.Bounds().Dx())
	assert.Equal(t, PrintHeight, decoded.Bounds().Dy())
}

func TestProcessIsDeterministic(t *testing.T) {
	src := makeTestPNG(t, 300, 400)

	first, err := Process(src)
	require.NoError(t, err)
	second, err := Process(src)
	require.NoError(t, err)

	assert.Equal(t, first.FinalImage, second.FinalImage)
	assert.Equal(t, first.Thumbnail, second.Thumbnail)
}

func TestProcessCorruptBufferIsProcessingError(t *testing.T) {
	_, err := Process([]byte("not an image"))
	require.Error(t, err)

	var perr *errs.ProcessingError
	assert.ErrorAs(t, err, &perr)
	assert.False(t, errs.IsTransient(err))
}
