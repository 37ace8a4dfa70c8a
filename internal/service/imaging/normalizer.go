package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"math"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ContentType is the media type of every normalized blob.
const ContentType = "image/jpeg"

// EncodingError reports that a capture could not be decoded, scaled or re-encoded.
// The orchestrator never uploads after this error.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("image encoding failed: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Normalizer downsizes and recompresses captures before network transfer.
type Normalizer struct {
	maxWidth int
	quality  float64
}

// NewNormalizer builds a normalizer. quality is a factor in (0, 1].
func NewNormalizer(maxWidth int, quality float64) *Normalizer {
	if maxWidth <= 0 {
		maxWidth = 1200
	}
	if quality <= 0 || quality > 1 {
		quality = 0.8
	}
	return &Normalizer{maxWidth: maxWidth, quality: quality}
}

// Normalize scales img down to the configured maximum width, preserving aspect ratio,
// and encodes it as JPEG at the configured quality.
func (n *Normalizer) Normalize(img image.Image) ([]byte, error) {
	return n.encode(img, n.quality)
}

// NormalizeBytes decodes a raw capture and normalizes it.
func (n *Normalizer) NormalizeBytes(data []byte, contentType string) ([]byte, error) {
	img, err := Decode(data, contentType)
	if err != nil {
		return nil, err
	}
	return n.Normalize(img)
}

func (n *Normalizer) encode(img image.Image, quality float64) ([]byte, error) {
	if img == nil {
		return nil, &EncodingError{Err: fmt.Errorf("nil image")}
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &EncodingError{Err: fmt.Errorf("empty image surface %dx%d", bounds.Dx(), bounds.Dy())}
	}

	width, height := TargetSize(bounds.Dx(), bounds.Dy(), n.maxWidth)

	var src image.Image = img
	if width != bounds.Dx() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return nil, &EncodingError{Err: err}
	}

	return buf.Bytes(), nil
}

// TargetSize returns the output dimensions for a width x height capture.
func TargetSize(width, height, maxWidth int) (int, int) {
	if width <= maxWidth {
		return width, height
	}
	scaled := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if scaled < 1 {
		scaled = 1
	}
	return maxWidth, scaled
}

func jpegQuality(factor float64) int {
	q := int(math.Round(factor * 100))
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return q
}

// Decode turns a raw capture into an image. Besides the standard formats it accepts
// HEIC/HEIF (iPhone cameras) and the first page of a PDF scan.
func Decode(data []byte, contentType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, &EncodingError{Err: fmt.Errorf("empty capture")}
	}

	mimeType := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case mimeType == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF")):
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, &EncodingError{Err: fmt.Errorf("opening PDF: %w", err)}
		}
		defer doc.Close()

		img, err := doc.Image(0)
		if err != nil {
			return nil, &EncodingError{Err: fmt.Errorf("rendering PDF page: %w", err)}
		}
		return img, nil
	case isHEIC(data) || strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif"):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, &EncodingError{Err: fmt.Errorf("decoding HEIC image: %w", err)}
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, &EncodingError{Err: fmt.Errorf("decoding image: %w", err)}
		}
		return img, nil
	}
}

// isHEIC checks for an ftyp box with a HEIF-family brand.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}
