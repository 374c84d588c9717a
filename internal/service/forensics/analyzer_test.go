package forensics

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return s.text, s.err
}

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7 % 256), G: uint8(y * 13 % 256), B: uint8((x + y) % 256), A: 255})
		}
	}

	path := filepath.Join(dir, "doc.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func writeTestPDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "doc.pdf")
	content := "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzer_InvalidFileType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a document scan"), 0o644))

	a := NewAnalyzer(nil, nil)
	report, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.Equal(t, "invalid file type", report.Reason)
	assert.Equal(t, "notes.txt", report.Filename)
}

func TestAnalyzer_MissingFile(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	_, err := a.Analyze(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestAnalyzer_ImageDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 120, 80)

	a := NewAnalyzer(stubExtractor{text: "claim for water damage to kitchen floor\nreceipt attached"}, nil)
	report, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, "png", report.Metadata.Format)
	assert.Equal(t, 120, report.Metadata.Width)
	assert.Equal(t, 80, report.Metadata.Height)

	// re-encoding a lossless source at JPEG q90 always perturbs pixels
	assert.Greater(t, report.Tampering.Mean, 0.0)

	assert.Equal(t, 9, report.Text.WordCount)
	assert.Equal(t, 2, report.Text.LineCount)
	assert.Greater(t, report.Complexity, 0.0)
}

func TestAnalyzer_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 64, 64)

	a := NewAnalyzer(stubExtractor{text: "identical input text"}, nil)

	first, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.Metadata, second.Metadata)
	assert.Equal(t, first.Tampering, second.Tampering)
	assert.Equal(t, first.Complexity, second.Complexity)
}

func TestAnalyzer_PDFDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir)

	a := NewAnalyzer(nil, nil)
	report, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, "pdf", report.Metadata.Format)
	// tampering signal is image-only
	assert.Zero(t, report.Tampering.Mean)
	assert.Zero(t, report.Tampering.StdDev)
}

func TestAnalyzer_OCRFailureDegrades(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 32, 32)

	a := NewAnalyzer(stubExtractor{err: errors.New("ocr engine offline")}, nil)
	report, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Equal(t, claim.NeutralTextAnalysis(), report.Text)
	assert.Empty(t, report.ExtractedText)
}

func TestAnalyzeText(t *testing.T) {
	t.Run("empty text is neutral", func(t *testing.T) {
		got := analyzeText("")
		assert.Equal(t, claim.NeutralTextAnalysis(), got)
		assert.Equal(t, "neutral", got.Sentiment)
		assert.Equal(t, 0.5, got.SentimentScore)
	})

	t.Run("statistics", func(t *testing.T) {
		got := analyzeText("one two two\nthree")
		assert.Equal(t, 4, got.WordCount)
		assert.Equal(t, 2, got.LineCount)
		assert.Equal(t, 3, got.UniqueWords)
		assert.InDelta(t, 3.5, got.AvgWordLength, 0.001)
	})

	t.Run("negative sentiment", func(t *testing.T) {
		got := analyzeText("the fire destroyed everything and the damage was terrible")
		assert.Equal(t, "negative", got.Sentiment)
		assert.Greater(t, got.SentimentScore, 0.5)
	})

	t.Run("positive sentiment", func(t *testing.T) {
		got := analyzeText("thank you, the repair was prompt and I am satisfied")
		assert.Equal(t, "positive", got.Sentiment)
	})
}

func TestComplexityScore(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		// 4 words, all unique, avg length (3+3+5+5)/4 = 4
		// text score = (4*0.3 + 1.0*0.7) * 10 = 19; image 0; mean 9.5
		got := complexityScore("one two three seven", claim.ImageMetadata{})
		assert.InDelta(t, 9.5, got, 0.001)
	})

	t.Run("image only caps at 10", func(t *testing.T) {
		got := complexityScore("", claim.ImageMetadata{Width: 8000, Height: 8000})
		assert.InDelta(t, 5.0, got, 0.001)
	})

	t.Run("empty everything", func(t *testing.T) {
		assert.Zero(t, complexityScore("", claim.ImageMetadata{}))
	})
}

func TestTruncate_RuneBoundary(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "abc", truncate("abc", 10))
	})

	t.Run("never splits a rune", func(t *testing.T) {
		// Each é is 2 bytes; cutting at 5 lands mid-rune.
		s := strings.Repeat("é", 4)
		got := truncate(s, 5)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, "ééé", got)
	})

	t.Run("preview stays valid UTF-8", func(t *testing.T) {
		s := strings.Repeat("口", 200) // 3 bytes each, 600 total
		got := preview(s, extractedTextPreviewLen)
		assert.True(t, utf8.ValidString(got))
		assert.True(t, strings.HasSuffix(got, "..."))
	})
}

func TestClassifySentiment_Ties(t *testing.T) {
	label, score := classifySentiment("good damage")
	assert.Equal(t, "neutral", label)
	assert.Equal(t, 0.5, score)
}
