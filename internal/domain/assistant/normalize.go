package assistant

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	parentheticalRE = regexp.MustCompile(`\(.*?\)`)
	multiSpaceRE    = regexp.MustCompile(`\s{2,}`)
)

// Normalizer condenses a raw search snippet into a single speakable sentence.
type Normalizer struct {
	labels []string
}

// NewNormalizer constructs a normalizer that strips the given boilerplate
// section labels (e.g. "Biografia.") before any other cleanup.
func NewNormalizer(labels []string) *Normalizer {
	return &Normalizer{labels: append([]string(nil), labels...)}
}

// Normalize turns a noisy snippet into one clean sentence. It may return an
// empty string when the whole snippet was boilerplate or parenthetical.
// Applying Normalize to its own output is a no-op.
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for _, label := range n.labels {
		text = strings.ReplaceAll(text, label, "")
	}
	text = strings.TrimSpace(text)

	text = parentheticalRE.ReplaceAllString(text, "")
	text = multiSpaceRE.ReplaceAllString(text, " ")

	text = FirstSentence(text)

	// A parenthetical that opened after the sentence cut, or was never
	// closed, is dropped together with everything that follows it.
	if open := strings.IndexRune(text, '('); open >= 0 {
		text = text[:open]
	}

	text = strings.ReplaceAll(text, ", ,", ",")
	text = strings.ReplaceAll(text, " ,", ",")
	text = strings.ReplaceAll(text, "...", "")
	text = strings.TrimSpace(text)

	// A lone trailing "e" is a conjunction left dangling by the cut above.
	runes := []rune(text)
	if len(runes) >= 2 && runes[len(runes)-1] == 'e' && unicode.IsSpace(runes[len(runes)-2]) {
		text = strings.TrimSpace(string(runes[:len(runes)-1]))
	}
	if strings.HasSuffix(text, ",") {
		text = strings.TrimSpace(strings.TrimSuffix(text, ","))
	}
	return text
}

// FirstSentence returns the first complete sentence of a paragraph.
// A '.' only terminates the sentence when it is not followed by whitespace
// plus a lowercase letter, the signature of abbreviations such as "Dr. mario".
// '!' and '?' always terminate. Without a qualifying terminator the whole
// paragraph is returned unchanged.
func FirstSentence(paragraph string) string {
	runes := []rune(paragraph)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.':
			if i < len(runes)-2 && unicode.IsSpace(runes[i+1]) && unicode.IsLower(runes[i+2]) {
				continue
			}
			if i < len(runes)-1 && unicode.IsSpace(runes[i+1]) {
				return string(runes[:i+1])
			}
		case '!', '?':
			return string(runes[:i+1])
		}
	}
	return paragraph
}

// canonicalizeQuery reduces a query to a stable cache key: lowercase, letters
// and digits only, single spaces.
func canonicalizeQuery(q string) string {
	lowered := strings.ToLower(strings.TrimSpace(q))
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			builder.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(builder.String())
}
