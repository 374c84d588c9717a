package forensics

import (
	"strings"
	"unicode"
)

// Lexicon-based sentiment classification over extracted document text.
// Word lists are tuned for insurance correspondence: loss descriptions,
// dispute language, adjuster notes.

var positiveLexicon = wordSet(
	"good", "great", "excellent", "satisfied", "resolved", "repaired",
	"covered", "approved", "thank", "thanks", "appreciate", "helpful",
	"prompt", "fair", "honest", "complete", "confirmed", "agreed",
	"settled", "recovered", "safe", "secure", "accurate", "valid",
)

var negativeLexicon = wordSet(
	"bad", "terrible", "awful", "damage", "damaged", "destroyed", "loss",
	"lost", "stolen", "theft", "fraud", "fraudulent", "accident", "crash",
	"fire", "flood", "injured", "injury", "denied", "dispute", "disputed",
	"refuse", "refused", "fake", "false", "suspicious", "unauthorized",
	"complaint", "angry", "furious", "unacceptable", "fail", "failed",
	"broken", "missing", "wrong", "error", "lie", "lied", "threat",
)

// classifySentiment labels text positive, negative, or neutral with a
// confidence score. No lexicon hits yields the neutral default of 0.5.
func classifySentiment(text string) (string, float64) {
	var pos, neg int
	for _, word := range tokenize(text) {
		if positiveLexicon[word] {
			pos++
		}
		if negativeLexicon[word] {
			neg++
		}
	}

	total := pos + neg
	if total == 0 || pos == neg {
		return "neutral", 0.5
	}

	if pos > neg {
		return "positive", float64(pos) / float64(total)
	}
	return "negative", float64(neg) / float64(total)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
