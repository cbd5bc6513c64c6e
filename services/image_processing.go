package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"net/http"

	"github.com/disintegration/imaging"
)

const DefaultImageBudget = 200 * 1024

// CompressionOptions drive CompressImage. Qualities are on the 1-100 JPEG scale.
type CompressionOptions struct {
	MaxDimension         int
	StartQuality         int
	QualityStep          int
	FallbackDimension    int
	FallbackStartQuality int
	FallbackQualityStep  int
	MinQuality           int
}

func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		MaxDimension:         600,
		StartQuality:         20,
		QualityStep:          2,
		FallbackDimension:    400,
		FallbackStartQuality: 10,
		FallbackQualityStep:  1,
		MinQuality:           5,
	}
}

// CompressImage bounds raw to budget bytes using the default options.
func CompressImage(raw []byte, budget int) ([]byte, error) {
	return DefaultCompressionOptions().Compress(raw, budget)
}

// Compress downsizes and re-encodes raw as JPEG until it fits in budget bytes.
// The result is never larger than budget; when no setting gets there the
// call fails with ErrImageTooLarge.
func (o CompressionOptions) Compress(raw []byte, budget int) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	resized := fitLongEdge(img, o.MaxDimension)
	data, err := encodeDescending(resized, o.StartQuality, o.QualityStep, o.MinQuality, budget)
	if err != nil {
		return nil, err
	}
	if len(data) <= budget {
		return data, nil
	}

	resized = fitLongEdge(resized, o.FallbackDimension)
	data, err = encodeDescending(resized, o.FallbackStartQuality, o.FallbackQualityStep, o.MinQuality, budget)
	if err != nil {
		return nil, err
	}
	if len(data) <= budget {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %d bytes at lowest quality, budget %d", ErrImageTooLarge, len(data), budget)
}

// encodeDescending lowers quality by step while the output is over budget
// and quality is still above floor. It returns the last encoding.
func encodeDescending(img image.Image, quality, step, floor, budget int) ([]byte, error) {
	data, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, err
	}
	for len(data) > budget && quality > floor {
		quality -= step
		if data, err = encodeJPEG(img, quality); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 {
		quality = 1
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func fitLongEdge(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	if maxDimension <= 0 || (b.Dx() <= maxDimension && b.Dy() <= maxDimension) {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}

// DetectImageContentType sniffs the payload and maps it to a content type
// and file extension for storage keys.
func DetectImageContentType(data []byte) (contentType string, ext string) {
	switch mime := http.DetectContentType(data); mime {
	case "image/png":
		return mime, ".png"
	case "image/webp":
		return mime, ".webp"
	case "image/gif":
		return mime, ".gif"
	default:
		return "image/jpeg", ".jpg"
	}
}

// WhitenBackgroundFeathered pushes bright pixels outside a protected centre
// towards white. Pixels with luminance at or below lower are kept, at or
// above upper become white, and the band in between is blended linearly.
// centralProtectionRatio is the share of each side left untouched.
// The result is PNG encoded.
func WhitenBackgroundFeathered(imageBytes []byte, lower, upper uint8, centralProtectionRatio float64) ([]byte, error) {
	if lower >= upper {
		return nil, fmt.Errorf("lower threshold must be less than upper threshold")
	}
	if centralProtectionRatio < 0 || centralProtectionRatio > 1 {
		return nil, fmt.Errorf("centralProtectionRatio must be between 0.0 and 1.0")
	}

	src, err := imaging.Decode(bytes.NewReader(imageBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img := imaging.Clone(src)

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	protectedW := int(float64(width) * centralProtectionRatio)
	protectedH := int(float64(height) * centralProtectionRatio)
	x0, y0 := (width-protectedW)/2, (height-protectedH)/2
	protected := image.Rect(x0, y0, x0+protectedW, y0+protectedH)

	band := float64(upper - lower)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if image.Pt(x, y).In(protected) {
				continue
			}
			c := img.NRGBAAt(x, y)
			luminance := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			switch {
			case luminance <= float64(lower):
				continue
			case luminance >= float64(upper):
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: c.A})
			default:
				f := (luminance - float64(lower)) / band
				img.SetNRGBA(x, y, color.NRGBA{
					R: blendTowardsWhite(c.R, f),
					G: blendTowardsWhite(c.G, f),
					B: blendTowardsWhite(c.B, f),
					A: c.A,
				})
			}
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func blendTowardsWhite(v uint8, f float64) uint8 {
	return uint8(math.Round(float64(v)*(1-f) + 255*f))
}
