package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

// Placeholders substituted for personal data during redaction.
const (
	PlaceholderName     = "[NAME]"
	PlaceholderDate     = "[DATE]"
	PlaceholderContract = "[CONTRACT]"
	PlaceholderAccount  = "[ACCOUNT]"
)

// Cyrillic classes are spelled out because RE2 treats \w and \b as ASCII.
var (
	reFullName = regexp.MustCompile(`[А-ЯЁ][а-яё]{2,}(?:ов|ев|ин|ын|ая|ья|ий|ой)?\s+[А-ЯЁ][а-яё]{2,}\s+[А-ЯЁ][а-яё]{2,}(?:ич|вна|вич|овна|евич|ельевна)?`)
	reInitials = regexp.MustCompile(`[А-ЯЁ][а-яё]{2,}(?:ов|ев|ин|ын|ая|ья|ий|ой)?\s+[А-ЯЁ]\.\s*[А-ЯЁ]\.`)

	// Evaluation order matters: the later, shorter numeric forms must not
	// double-count a date already captured with a month name.
	reDates = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d{1,2}-\d{1,2}\s+[а-яё]+\s+\d{4}\s+года?`),
		regexp.MustCompile(`(?i)\d{1,2}\s+[а-яё]+\s+\d{4}\s+года?`),
		regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`),
		regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
	}

	reContracts = []*regexp.Regexp{
		regexp.MustCompile(`(?i)№+[А-ЯЁ]{1,3}-?\d{1,6}`),
		regexp.MustCompile(`(?i)договор[ауе]?\s+№+[А-ЯЁ]{0,3}-?\d{1,6}`),
	}
	reContractKeyword = regexp.MustCompile(`(?i)договор[ауе]?\s+`)

	reAccounts = []*regexp.Regexp{
		regexp.MustCompile(`(?i)счет[ауе]?\s+№?\s*\d{5,}`),
		regexp.MustCompile(`№\s*\d{16,}`),
		regexp.MustCompile(`\b\d{16,}\b`),
	}
	reDigitRun = regexp.MustCompile(`\d{5,}`)

	reSenderName = []*regexp.Regexp{
		regexp.MustCompile(`(?i:с\s+уважением|уважаем[а-яё]*|здравствуйте|добрый\s+(?:день|вечер|утро)),?\s+([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)`),
		regexp.MustCompile(`(?m)^([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)`),
		regexp.MustCompile(`(?i:подпис[а-яё]*|от\s+лица|инициатор):\s*([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)`),
	}

	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	rePhones = []*regexp.Regexp{
		regexp.MustCompile(`\+7\s?\(?\d{3}\)?\s?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}`),
		regexp.MustCompile(`8\s?\(?\d{3}\)?\s?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}`),
		regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{2,9}`),
	}

	reAmounts = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d{1,3}(?:\s?\d{3})*(?:[.,]\d{2})?\s*(?:руб(?:лей)?\.?|₽|RUB)`),
		regexp.MustCompile(`(?i)\d{1,3}(?:\s?\d{3})*(?:[.,]\d{2})?\s*(?:usd|доллар[а-яё]*|долл\.?|\$)`),
		regexp.MustCompile(`(?i)\d{1,3}(?:\s?\d{3})*(?:[.,]\d{2})?\s*(?:eur|евро|€)`),
	}

	reSentenceEnd = regexp.MustCompile(`[.!?]\s+`)
)

// Words that start sentences shaped like a full name but are not one.
var nameExclusions = map[string]struct{}{
	"уважаемый":    {},
	"просим":       {},
	"требуем":      {},
	"сообщаем":     {},
	"информируем":  {},
	"подтверждаем": {},
}

var importanceKeywords = []string{
	"срочно", "важно", "необходимо", "требуется", "прошу",
	"жалоба", "претензия", "требование", "запрос", "обращение",
}

const (
	minAccountDigits = 16
	maxKeyPhrases    = 10
	maxSenderNameLen = 50
)

// Extractor recovers structured facts from raw letter text. Patterns rely on
// original casing and punctuation, so it must run before any normalization.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(text string) domain.ExtractedFields {
	fields := domain.ExtractedFields{
		Names:           e.extractNames(text),
		Dates:           e.extractDates(text),
		ContractNumbers: e.extractContracts(text),
		AccountNumbers:  e.extractAccounts(text),
		Amounts:         e.extractAmounts(text),
		KeyPhrases:      e.extractKeyPhrases(text),
		Email:           firstMatch(reEmail, text),
		Phone:           e.extractPhone(text),
	}

	if len(fields.Names) > 0 {
		fields.SenderName = fields.Names[0]
	} else {
		fields.SenderName = e.extractSenderName(text)
	}
	return fields
}

// Entities exposes the redactable categories as classifier hints.
func (e *Extractor) Entities(text string) map[string][]string {
	fields := e.Extract(text)
	return map[string][]string{
		domain.EntityNames:     fields.Names,
		domain.EntityDates:     fields.Dates,
		domain.EntityContracts: fields.ContractNumbers,
		domain.EntityAccounts:  fields.AccountNumbers,
	}
}

// RedactPersonalData substitutes every extracted identity-bearing span with
// its category placeholder. The persisted original text is never altered.
func (e *Extractor) RedactPersonalData(text string) string {
	fields := e.Extract(text)

	out := text
	for _, name := range fields.Names {
		out = strings.ReplaceAll(out, name, PlaceholderName)
	}
	for _, date := range fields.Dates {
		out = strings.ReplaceAll(out, date, PlaceholderDate)
	}
	for _, contract := range fields.ContractNumbers {
		out = strings.ReplaceAll(out, contract, PlaceholderContract)
	}
	for _, account := range fields.AccountNumbers {
		out = strings.ReplaceAll(out, account, PlaceholderAccount)
	}
	return out
}

func (e *Extractor) extractNames(text string) []string {
	var names []string
	seen := map[string]struct{}{}

	for _, match := range reFullName.FindAllString(text, -1) {
		first := strings.ToLower(strings.Fields(match)[0])
		if _, excluded := nameExclusions[first]; excluded {
			continue
		}
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		names = append(names, match)
	}

	for _, match := range reInitials.FindAllString(text, -1) {
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		names = append(names, match)
	}
	return names
}

func (e *Extractor) extractDates(text string) []string {
	var dates []string
	for _, re := range reDates {
		for _, match := range re.FindAllString(text, -1) {
			if overlapsAccepted(match, dates) {
				continue
			}
			dates = append(dates, match)
		}
	}
	return dates
}

// overlapsAccepted drops a match that is a substring of, equal to, or a
// superstring of an already-accepted date, so overlapping short/long patterns
// never double-count the same date.
func overlapsAccepted(match string, accepted []string) bool {
	for _, d := range accepted {
		if strings.Contains(d, match) || strings.Contains(match, d) {
			return true
		}
	}
	return false
}

func (e *Extractor) extractContracts(text string) []string {
	var contracts []string
	seen := map[string]struct{}{}
	for _, re := range reContracts {
		for _, match := range re.FindAllString(text, -1) {
			clean := strings.TrimSpace(reContractKeyword.ReplaceAllString(match, ""))
			if _, dup := seen[clean]; dup {
				continue
			}
			seen[clean] = struct{}{}
			contracts = append(contracts, clean)
		}
	}
	return contracts
}

func (e *Extractor) extractAccounts(text string) []string {
	var accounts []string
	seen := map[string]struct{}{}
	for _, re := range reAccounts {
		for _, match := range re.FindAllString(text, -1) {
			for _, run := range reDigitRun.FindAllString(match, -1) {
				if len(run) < minAccountDigits {
					continue
				}
				if _, dup := seen[run]; dup {
					continue
				}
				seen[run] = struct{}{}
				accounts = append(accounts, run)
			}
		}
	}
	return accounts
}

func (e *Extractor) extractAmounts(text string) []string {
	var amounts []string
	seen := map[string]struct{}{}
	for _, re := range reAmounts {
		for _, match := range re.FindAllString(text, -1) {
			clean := strings.TrimSpace(match)
			if _, dup := seen[clean]; dup {
				continue
			}
			seen[clean] = struct{}{}
			amounts = append(amounts, clean)
		}
	}
	return amounts
}

func (e *Extractor) extractKeyPhrases(text string) []string {
	var phrases []string
	for _, sentence := range reSentenceEnd.Split(text, -1) {
		trimmed := strings.TrimSpace(sentence)
		if utf8.RuneCountInString(trimmed) <= 10 {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, keyword := range importanceKeywords {
			if strings.Contains(lower, keyword) {
				phrases = append(phrases, trimmed)
				break
			}
		}
		if len(phrases) == maxKeyPhrases {
			break
		}
	}
	return phrases
}

func (e *Extractor) extractSenderName(text string) string {
	for _, re := range reSenderName {
		match := re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(strings.Fields(name)) <= 3 && utf8.RuneCountInString(name) < maxSenderNameLen {
			return name
		}
	}
	return ""
}

func (e *Extractor) extractPhone(text string) string {
	for _, re := range rePhones {
		if match := re.FindString(text); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

func firstMatch(re *regexp.Regexp, text string) string {
	return re.FindString(text)
}
