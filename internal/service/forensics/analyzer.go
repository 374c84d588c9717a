package forensics

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
)

// documentKind is the capability variant resolved once at analysis entry.
// Format-specific steps (metadata, tampering signal) dispatch on it instead
// of re-sniffing the file.
type documentKind int

const (
	kindUnknown documentKind = iota
	kindImage
	kindPDF
)

var acceptedMIMETypes = map[string]documentKind{
	"image/jpeg":      kindImage,
	"image/png":       kindImage,
	"image/tiff":      kindImage,
	"application/pdf": kindPDF,
}

// analyzer implements Analyzer
type analyzer struct {
	extractor TextExtractor
	logger    *slog.Logger
}

// NewAnalyzer creates the document forensic analyzer. A nil extractor
// disables OCR; text analysis then runs over empty text.
func NewAnalyzer(extractor TextExtractor, logger *slog.Logger) Analyzer {
	if extractor == nil {
		extractor = NoopExtractor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &analyzer{
		extractor: extractor,
		logger:    logger,
	}
}

// Analyze validates and inspects one document
func (a *analyzer) Analyze(ctx context.Context, path string) (*claim.ForensicReport, error) {
	filename := filepath.Base(path)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("document not readable: %w", err)
	}

	kind, detected := a.resolveKind(path)
	if kind == kindUnknown {
		a.logger.WarnContext(ctx, "rejected document",
			"file", filename, "mime_type", detected)
		report := claim.InvalidReport(filename, "invalid file type")
		return &report, nil
	}

	report := &claim.ForensicReport{
		Valid:    true,
		Filename: filename,
	}

	// Metadata extraction degrades to an unknown record
	meta, err := extractMetadata(path, kind)
	if err != nil {
		a.logger.WarnContext(ctx, "metadata extraction degraded",
			"file", filename, "error", err)
		meta = claim.UnknownMetadata()
	}
	report.Metadata = meta

	// Tampering signal is image-only; failure silently yields zero
	if kind == kindImage {
		if signal, err := computeELA(path, elaQuality); err != nil {
			a.logger.WarnContext(ctx, "tampering signal degraded",
				"file", filename, "error", err)
		} else {
			report.Tampering = signal
		}
	}

	// OCR failure degrades to empty text
	text, err := a.extractor.ExtractText(ctx, path)
	if err != nil {
		a.logger.WarnContext(ctx, "text extraction degraded",
			"file", filename, "error", err)
		text = ""
	}

	report.Text = analyzeText(text)
	report.Complexity = complexityScore(text, meta)
	report.ExtractedText = preview(text, extractedTextPreviewLen)

	return report, nil
}

// resolveKind sniffs the MIME type by magic numbers and maps it to the
// capability variant. Returns the detected type for logging.
func (a *analyzer) resolveKind(path string) (documentKind, string) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return kindUnknown, ""
	}

	for accepted, kind := range acceptedMIMETypes {
		if mtype.Is(accepted) {
			return kind, mtype.String()
		}
	}
	return kindUnknown, mtype.String()
}

// extractMetadata reads format and pixel dimensions without decoding the
// full image. PDFs carry no pixel metadata.
func extractMetadata(path string, kind documentKind) (claim.ImageMetadata, error) {
	if kind != kindImage {
		return claim.ImageMetadata{Format: "pdf"}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return claim.ImageMetadata{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return claim.ImageMetadata{}, fmt.Errorf("decoding image config: %w", err)
	}

	return claim.ImageMetadata{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Mode:   colorModeName(cfg.ColorModel),
	}, nil
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return truncate(text, n) + "..."
}
