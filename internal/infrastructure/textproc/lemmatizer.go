package textproc

import "strings"

// Russian inflection endings ordered longest-first so the most specific
// suffix is stripped.
var inflectionSuffixes = []string{
	"иями", "ями", "ами", "иям", "ием",
	"ого", "его", "ому", "ему", "ыми", "ими",
	"ешь", "ете", "ишь", "ите", "ует", "уют",
	"ая", "яя", "ое", "ее", "ые", "ие", "ый", "ий", "ой",
	"ам", "ям", "ах", "ях", "ом", "ем", "ов", "ев", "ей",
	"ет", "ит", "ут", "ют", "ат", "ят",
	"а", "я", "о", "е", "ы", "и", "у", "ю", "ь",
}

const minStemRunes = 3

// SuffixLemmatizer is a lightweight stemmer standing in for a full
// morphological analyzer. It strips inflection endings until the stem is
// stable and leaves short tokens untouched.
type SuffixLemmatizer struct{}

func NewSuffixLemmatizer() *SuffixLemmatizer {
	return &SuffixLemmatizer{}
}

// Lemma returns a fixed point: Lemma(Lemma(token)) == Lemma(token), so
// already-lemmatized text survives another normalization pass unchanged.
func (s *SuffixLemmatizer) Lemma(token string) string {
	for {
		stripped := stripSuffix(token)
		if stripped == token {
			return token
		}
		token = stripped
	}
}

func stripSuffix(token string) string {
	runes := []rune(token)
	for _, suffix := range inflectionSuffixes {
		suffixRunes := []rune(suffix)
		if len(runes)-len(suffixRunes) < minStemRunes {
			continue
		}
		if strings.HasSuffix(token, suffix) {
			return string(runes[:len(runes)-len(suffixRunes)])
		}
	}
	return token
}
