package claim

// ForensicReport holds the structured forensic signals extracted from one
// submitted document. Invariant: either Valid is false and Reason explains
// why, or every section is populated (possibly with documented neutral
// defaults when a sub-step degraded).
type ForensicReport struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`

	Filename string `json:"filename,omitempty"`

	Metadata   ImageMetadata   `json:"metadata"`
	Tampering  TamperingSignal `json:"tampering"`
	Text       TextAnalysis    `json:"text_analysis"`
	Complexity float64         `json:"complexity_score"`

	// First 500 characters of extracted text, for reviewer display
	ExtractedText string `json:"extracted_text,omitempty"`
}

// ImageMetadata describes the decoded image, or a zeroed record with
// Format "unknown" when extraction failed.
type ImageMetadata struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mode   string `json:"mode"`
}

// TamperingSignal is the error-level-analysis result: the mean and standard
// deviation of the per-pixel difference between the document image and a
// re-encoded copy. A higher mean suggests post-hoc editing. Zero for
// non-image inputs.
type TamperingSignal struct {
	Mean   float64 `json:"ela_mean"`
	StdDev float64 `json:"ela_std"`
}

// TextAnalysis carries statistics and sentiment over extracted text.
type TextAnalysis struct {
	WordCount      int     `json:"word_count"`
	LineCount      int     `json:"line_count"`
	UniqueWords    int     `json:"unique_words"`
	AvgWordLength  float64 `json:"avg_word_length"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
}

// InvalidReport builds the failure shape used when a document cannot be
// analyzed at all.
func InvalidReport(filename, reason string) ForensicReport {
	return ForensicReport{
		Valid:    false,
		Reason:   reason,
		Filename: filename,
	}
}

// NeutralTextAnalysis is the documented default for empty or unextractable
// text: neutral sentiment at 0.5 confidence, zeroed statistics.
func NeutralTextAnalysis() TextAnalysis {
	return TextAnalysis{
		Sentiment:      "neutral",
		SentimentScore: 0.5,
	}
}

// UnknownMetadata is the non-fatal degradation result for metadata
// extraction failure.
func UnknownMetadata() ImageMetadata {
	return ImageMetadata{Format: "unknown"}
}
