package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: 90, B: uint8(y * 255 / h), A: 255})
		}
	}
	return img
}

func noisyJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func encodedJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestCompressImageFitsBudget(t *testing.T) {
	raw := noisyJPEG(t, 1600, 1200)
	require.Greater(t, len(raw), DefaultImageBudget)

	out, err := CompressImage(raw, DefaultImageBudget)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), DefaultImageBudget)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, cfg.Width, 600)
	assert.LessOrEqual(t, cfg.Height, 600)
}

func TestCompressImageKeepsAspectRatio(t *testing.T) {
	out, err := CompressImage(encodedJPEG(t, gradientImage(1200, 400)), DefaultImageBudget)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCompressImageDoesNotUpscale(t *testing.T) {
	out, err := CompressImage(encodedJPEG(t, gradientImage(300, 200)), DefaultImageBudget)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCompressImageAcceptsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradientImage(900, 900)))

	out, err := CompressImage(buf.Bytes(), DefaultImageBudget)
	require.NoError(t, err)
	contentType, ext := DetectImageContentType(out)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, ".jpg", ext)
}

func TestCompressImageTooLarge(t *testing.T) {
	_, err := CompressImage(noisyJPEG(t, 800, 600), 100)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestCompressImageInvalidInput(t *testing.T) {
	_, err := CompressImage(nil, DefaultImageBudget)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = CompressImage([]byte("definitely not pixels"), DefaultImageBudget)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDetectImageContentType(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, gradientImage(4, 4)))

	contentType, ext := DetectImageContentType(pngBuf.Bytes())
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	contentType, ext = DetectImageContentType(encodedJPEG(t, gradientImage(4, 4)))
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, ".jpg", ext)
}

func TestWhitenBackgroundFeathered(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 245, G: 245, B: 245, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := WhitenBackgroundFeathered(buf.Bytes(), 200, 240, 0.4)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)

	// the centre is protected
	r, _, _, _ = decoded.At(50, 50).RGBA()
	assert.Equal(t, uint32(245)*0x101, r)

	_, err = WhitenBackgroundFeathered(buf.Bytes(), 240, 200, 0.4)
	assert.Error(t, err)
}
