package forensics

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"

	// register decoders for DecodeConfig / Decode
	_ "image/gif"
	_ "image/png"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
)

const (
	// elaQuality is the fixed JPEG re-encoding quality for error level
	// analysis. Authentic images re-encode with small, uniform loss;
	// edited regions diverge more.
	elaQuality = 90

	extractedTextPreviewLen = 500
)

// computeELA re-encodes the image at the given JPEG quality and returns the
// mean and standard deviation of the per-pixel, per-channel absolute
// difference. The temporary re-encoded file is removed on all exit paths.
func computeELA(path string, quality int) (claim.TamperingSignal, error) {
	original, err := decodeImage(path)
	if err != nil {
		return claim.TamperingSignal{}, err
	}

	tmp, err := os.CreateTemp("", "ela-*.jpg")
	if err != nil {
		return claim.TamperingSignal{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	encodeErr := jpeg.Encode(tmp, original, &jpeg.Options{Quality: quality})
	closeErr := tmp.Close()
	if encodeErr != nil {
		return claim.TamperingSignal{}, fmt.Errorf("re-encoding image: %w", encodeErr)
	}
	if closeErr != nil {
		return claim.TamperingSignal{}, fmt.Errorf("closing temp file: %w", closeErr)
	}

	reencoded, err := decodeImage(tmpPath)
	if err != nil {
		return claim.TamperingSignal{}, fmt.Errorf("decoding re-encoded image: %w", err)
	}

	return pixelDifference(original, reencoded)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// pixelDifference computes mean and standard deviation of |a-b| over the
// RGB channels of every pixel in the shared bounds.
func pixelDifference(a, b image.Image) (claim.TamperingSignal, error) {
	bounds := a.Bounds()
	if bounds != b.Bounds() {
		bounds = bounds.Intersect(b.Bounds())
	}
	if bounds.Empty() {
		return claim.TamperingSignal{}, fmt.Errorf("images share no bounds")
	}

	var sum, sumSq float64
	n := float64(bounds.Dx()*bounds.Dy()) * 3

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab := rgb8(a.At(x, y))
			br, bg, bb := rgb8(b.At(x, y))

			for _, d := range [3]float64{
				math.Abs(ar - br),
				math.Abs(ag - bg),
				math.Abs(ab - bb),
			} {
				sum += d
				sumSq += d * d
			}
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	return claim.TamperingSignal{
		Mean:   mean,
		StdDev: math.Sqrt(variance),
	}, nil
}

func rgb8(c color.Color) (float64, float64, float64) {
	r, g, b, _ := c.RGBA()
	return float64(r >> 8), float64(g >> 8), float64(b >> 8)
}

func colorModeName(model color.Model) string {
	switch model {
	case color.RGBAModel, color.RGBA64Model:
		return "RGBA"
	case color.NRGBAModel, color.NRGBA64Model:
		return "NRGBA"
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	default:
		return "unknown"
	}
}
