package textproc

import (
	"strings"
	"testing"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NewExtractor(), nil)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	normalizers := map[string]*Normalizer{
		"without lemmatizer": newTestNormalizer(),
		"with lemmatizer":    NewNormalizer(NewExtractor(), NewSuffixLemmatizer()),
	}
	flags := DefaultFlags()

	texts := []string{
		"Прошу предоставить копию договора №Д-12345 от 01.02.2023!",
		"Уважаемый банк, срочно требуется ответ на обращение.",
		"Иванов Иван Иванович, счет № 40817810099910004312",
		"Ответы банка клиентам",
	}
	for name, n := range normalizers {
		for _, text := range texts {
			once := n.Normalize(text, flags)
			twice := n.Normalize(once, flags)
			if once != twice {
				t.Errorf("%s: normalize not idempotent:\nonce:  %q\ntwice: %q", name, once, twice)
			}
		}
	}
}

func TestNormalizeLowercasesAndStripsPunctuation(t *testing.T) {
	n := newTestNormalizer()
	got := n.Normalize("Добрый ДЕНЬ!!! Банк,   работает?", Flags{StripPunctuation: true})
	if got != "добрый день банк работает" {
		t.Fatalf("normalize = %q", got)
	}
}

func TestNormalizeStripsDigits(t *testing.T) {
	n := newTestNormalizer()
	got := n.Normalize("перевод 1000 рублей", Flags{StripDigits: true})
	if strings.ContainsAny(got, "0123456789") {
		t.Fatalf("digits survived: %q", got)
	}
}

func TestNormalizeDropsStopWords(t *testing.T) {
	n := newTestNormalizer()
	got := n.Normalize("мы и вы не будем в банке", Flags{RemoveStopWords: true})
	for _, token := range strings.Fields(got) {
		if isStopWord(token) {
			t.Fatalf("stop word %q survived in %q", token, got)
		}
	}
}

func TestNormalizeRedactsBeforeLowercasing(t *testing.T) {
	n := newTestNormalizer()
	flags := Flags{RedactPersonalData: true}
	got := n.Normalize("Обращение от Иванов Иван Иванович", flags)

	if strings.Contains(got, "иванов") {
		t.Fatalf("name survived redaction: %q", got)
	}
	if !strings.Contains(got, strings.ToLower(PlaceholderName)) {
		t.Fatalf("placeholder missing: %q", got)
	}
}

func TestNormalizeLemmatizerPassThroughWhenAbsent(t *testing.T) {
	n := newTestNormalizer()
	flags := Flags{Lemmatize: true}
	got := n.Normalize("документами", flags)
	if got != "документами" {
		t.Fatalf("nil lemmatizer must pass tokens through, got %q", got)
	}
}

func TestSuffixLemmatizerStripsInflection(t *testing.T) {
	lem := NewSuffixLemmatizer()
	if got := lem.Lemma("договорами"); got == "договорами" {
		t.Errorf("expected suffix stripped from договорами, got %q", got)
	}
	// Tokens too short to carry an ending stay untouched.
	if got := lem.Lemma("да"); got != "да" {
		t.Errorf("short token changed: %q", got)
	}
}

func TestSuffixLemmatizerIsFixedPoint(t *testing.T) {
	lem := NewSuffixLemmatizer()
	for _, token := range []string{"ответы", "договорами", "клиентам", "банка", "обращение"} {
		once := lem.Lemma(token)
		twice := lem.Lemma(once)
		if once != twice {
			t.Errorf("lemma of %q not stable: once %q, twice %q", token, once, twice)
		}
	}
}
