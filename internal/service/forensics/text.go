package forensics

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/claimguard/insurance-fraud-backend/internal/domain/claim"
)

// sentimentWindow bounds how much text feeds the sentiment classifier,
// matching the upstream classifier's input limit.
const sentimentWindow = 512

// analyzeText computes word statistics over the full text and sentiment
// over the leading window. Empty text short-circuits to the neutral result.
func analyzeText(text string) claim.TextAnalysis {
	if strings.TrimSpace(text) == "" {
		return claim.NeutralTextAnalysis()
	}

	words := strings.Fields(text)
	lines := strings.Split(text, "\n")

	unique := make(map[string]struct{}, len(words))
	totalLen := 0
	for _, w := range words {
		unique[w] = struct{}{}
		totalLen += len(w)
	}

	avgLen := 0.0
	if len(words) > 0 {
		avgLen = float64(totalLen) / float64(len(words))
	}

	label, score := classifySentiment(truncate(text, sentimentWindow))

	return claim.TextAnalysis{
		WordCount:      len(words),
		LineCount:      len(lines),
		UniqueWords:    len(unique),
		AvgWordLength:  avgLen,
		Sentiment:      label,
		SentimentScore: score,
	}
}

// truncate cuts s to at most n bytes, backing up so a multi-byte rune is
// never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// complexityScore combines a text score (unique-word ratio weighted 0.7,
// average word length 0.3, scaled by 10) with an image-resolution score
// capped at 10, averaged and rounded to 2 decimal places.
func complexityScore(text string, meta claim.ImageMetadata) float64 {
	words := strings.Fields(text)

	textScore := 0.0
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		totalLen := 0
		for _, w := range words {
			unique[w] = struct{}{}
			totalLen += len(w)
		}
		avgLen := float64(totalLen) / float64(len(words))
		uniqueRatio := float64(len(unique)) / float64(len(words))
		textScore = (avgLen*0.3 + uniqueRatio*0.7) * 10
	}

	imageScore := 0.0
	if meta.Width > 0 && meta.Height > 0 {
		resolution := float64(meta.Width) * float64(meta.Height)
		imageScore = math.Min(resolution/1e6, 10)
	}

	return math.Round((textScore+imageScore)/2*100) / 100
}
