package pii

import (
	"regexp"
	"strings"
	"unicode"
)

// span is a candidate match in byte offsets, before overlap resolution and
// rune conversion.
type span struct {
	start, end int
}

// detector finds candidate spans for one category.
type detector interface {
	category() Category
	detect(text string) []span
}

// regexDetector is the common case: every regex match is a finding.
type regexDetector struct {
	cat     Category
	pattern *regexp.Regexp
}

func (d *regexDetector) category() Category { return d.cat }

func (d *regexDetector) detect(text string) []span {
	var spans []span
	for _, loc := range d.pattern.FindAllStringIndex(text, -1) {
		spans = append(spans, span{start: loc[0], end: loc[1]})
	}
	return spans
}

var (
	// 9-digit identifiers with separators, e.g. 123-45-6789 or 123 45 6789.
	// A separator is required so that plain digit runs fall through to the
	// phone and card detectors instead.
	ssnPattern = regexp.MustCompile(`\b\d{3}[-. ]\d{2}[-. ]\d{4}\b`)

	// Broad candidate pattern for 13-19 digit runs with optional separators.
	// Intentionally loose; the Luhn checksum does the real filtering.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

	// North American 10/11-digit numbers with optional country code. The
	// capture group is the finding; the outer non-digit (or start-of-text)
	// anchor keeps matches from starting inside a longer digit run. A plain
	// \b cannot anchor here because there is no word boundary between a
	// space and a leading "+" or "(", which would drop those characters
	// from the span.
	phonePattern = regexp.MustCompile(`(?:^|[^\d])((?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4})\b`)

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Known secret prefixes followed by a long token body.
	keyPrefixPattern = regexp.MustCompile(`\b(?:sk-[A-Za-z0-9_-]{20,}|ghp_[A-Za-z0-9]{20,}|gho_[A-Za-z0-9]{20,}|xox[bp]-[A-Za-z0-9-]{20,}|AKIA[A-Z0-9]{16}|AIza[A-Za-z0-9_-]{30,})`)

	// Long opaque tokens in a key=/token=/secret= assignment context.
	keyContextPattern = regexp.MustCompile(`(?i)\b(?:api[_-]?key|access[_-]?token|auth[_-]?token|token|secret|password)\s*[=:]\s*"?[A-Za-z0-9_\-/+.]{20,}`)

	// PEM-framed private key material. Not redactable: a placeholder cannot
	// make a leaked key safe, so the gate hard-blocks this category.
	privateKeyPattern = regexp.MustCompile(`(?s)-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----.*?-----END (?:[A-Z]+ )*PRIVATE KEY-----`)
)

// cardDetector verifies broad digit-run candidates with the Luhn checksum.
// Runs that fail the checksum are not findings, which keeps order numbers,
// tracking codes and similar long digit sequences out of the report.
type cardDetector struct {
	regexDetector
}

func newCardDetector() *cardDetector {
	return &cardDetector{regexDetector{cat: CategoryCreditCard, pattern: cardPattern}}
}

func (d *cardDetector) detect(text string) []span {
	var verified []span
	for _, s := range d.regexDetector.detect(text) {
		digits := digitsOf(text[s.start:s.end])
		if len(digits) < 13 || len(digits) > 19 {
			continue
		}
		if luhnValid(digits) {
			verified = append(verified, s)
		}
	}
	return verified
}

// phoneDetector reports the capture group of phonePattern, not the whole
// match, so the anchoring prefix character stays out of the span while the
// optional country code and opening parenthesis stay in it.
type phoneDetector struct{}

func newPhoneDetector() *phoneDetector { return &phoneDetector{} }

func (d *phoneDetector) category() Category { return CategoryPhone }

func (d *phoneDetector) detect(text string) []span {
	var spans []span
	for _, loc := range phonePattern.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, span{start: loc[2], end: loc[3]})
	}
	return spans
}

// keyDetector combines the prefix and assignment-context patterns.
type keyDetector struct {
	patterns []*regexp.Regexp
}

func newKeyDetector() *keyDetector {
	return &keyDetector{patterns: []*regexp.Regexp{keyPrefixPattern, keyContextPattern}}
}

func (d *keyDetector) category() Category { return CategoryAPIKey }

func (d *keyDetector) detect(text string) []span {
	var spans []span
	for _, p := range d.patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1]})
		}
	}
	return spans
}

// digitsOf strips separators from a card candidate.
func digitsOf(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// luhnValid reports whether a digit string passes the Luhn checksum.
func luhnValid(digits string) bool {
	sum := 0
	alternate := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n = (n % 10) + 1
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}
