package textproc

import (
	"regexp"
	"strings"
)

// Flags gate the individual normalization steps. The zero value disables
// everything; use DefaultFlags for the classifier pipeline.
type Flags struct {
	RedactPersonalData bool
	StripPunctuation   bool
	StripDigits        bool
	RemoveStopWords    bool
	Lemmatize          bool
}

func DefaultFlags() Flags {
	return Flags{
		RedactPersonalData: true,
		StripPunctuation:   true,
		StripDigits:        true,
		RemoveStopWords:    true,
		Lemmatize:          true,
	}
}

// Lemmatizer is the morphological-analysis capability. Whether one is
// available is resolved once at startup; a nil lemmatizer means tokens pass
// through unchanged, it is never probed at call time.
type Lemmatizer interface {
	Lemma(token string) string
}

var (
	// \w is ASCII in RE2, so punctuation stripping must keep Unicode
	// letters and digits explicitly.
	rePunct      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	reDigits     = regexp.MustCompile(`\p{N}+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Normalizer turns raw letter text into the token stream the vectorizers
// were trained on. Deterministic for fixed flags.
type Normalizer struct {
	extractor  *Extractor
	lemmatizer Lemmatizer
}

func NewNormalizer(extractor *Extractor, lemmatizer Lemmatizer) *Normalizer {
	return &Normalizer{extractor: extractor, lemmatizer: lemmatizer}
}

func (n *Normalizer) Normalize(text string, flags Flags) string {
	// Redaction runs first: the extraction patterns need original casing.
	if flags.RedactPersonalData {
		text = n.extractor.RedactPersonalData(text)
	}

	text = strings.ToLower(text)

	if flags.StripPunctuation {
		text = rePunct.ReplaceAllString(text, " ")
		text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
	}
	if flags.StripDigits {
		text = reDigits.ReplaceAllString(text, "")
		text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
	}

	tokens := strings.Fields(text)

	if flags.RemoveStopWords {
		kept := tokens[:0]
		for _, token := range tokens {
			if !isStopWord(token) {
				kept = append(kept, token)
			}
		}
		tokens = kept
	}

	if flags.Lemmatize && n.lemmatizer != nil {
		for i, token := range tokens {
			tokens[i] = n.lemmatizer.Lemma(token)
		}
	}

	return strings.Join(tokens, " ")
}
