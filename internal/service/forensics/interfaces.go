package forensics

import (
	"context"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
)

// Analyzer inspects a single uploaded document and produces the forensic
// signals the risk engine consumes.
type Analyzer interface {
	// Analyze validates the document and computes its forensic report.
	// Unrecognized file types yield an invalid report, not an error;
	// sub-step failures degrade to documented neutral defaults.
	Analyze(ctx context.Context, path string) (*claim.ForensicReport, error)
}

// TextExtractor runs optical character recognition over a document. The
// concrete engine is an external collaborator; extraction failure is a
// degradation, never a hard error.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NoopExtractor is the default extractor when no OCR engine is wired. It
// returns empty text, which the analyzer treats as the neutral case.
type NoopExtractor struct{}

func (NoopExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return "", nil
}
