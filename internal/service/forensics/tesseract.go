package forensics

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// TesseractExtractor shells out to the tesseract binary for OCR.
type TesseractExtractor struct {
	binary string
}

// NewTesseractExtractor builds an extractor around the given binary path.
// An empty path falls back to "tesseract" on PATH.
func NewTesseractExtractor(binary string) *TesseractExtractor {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractExtractor{binary: binary}
}

func (t *TesseractExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	// "stdout" makes tesseract print recognized text instead of writing
	// an output file.
	cmd := exec.CommandContext(ctx, t.binary, path, "stdout")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	return out.String(), nil
}
