package pii

import (
	"sort"
	"unicode/utf8"
)

// Scanner runs a fixed detector set over text. Construct with NewScanner,
// or NewDisabledScanner for a scanner that reports nothing.
type Scanner struct {
	detectors []detector
}

// NewScanner returns a scanner with the default detector set. Detectors are
// ordered by category ordinal; the order matters only for overlap
// tie-breaking, which prefers the lower ordinal.
func NewScanner() *Scanner {
	return &Scanner{
		detectors: []detector{
			&regexDetector{cat: CategorySSN, pattern: ssnPattern},
			newCardDetector(),
			newKeyDetector(),
			newPhoneDetector(),
			&regexDetector{cat: CategoryEmail, pattern: emailPattern},
			&regexDetector{cat: CategoryCustom, pattern: privateKeyPattern},
		},
	}
}

// NewDisabledScanner returns a scanner with no detectors. It still rejects
// malformed input but never reports a finding; used when outbound scanning
// is configured off.
func NewDisabledScanner() *Scanner {
	return &Scanner{}
}

// Scan reports all sensitive spans in text. It is deterministic, makes no
// external calls, and never mutates its input. Findings are sorted by start
// offset and do not overlap: where candidate matches overlap, the longest
// match at the earliest offset wins, with ties broken by category ordinal.
//
// Returns a *ScanError if text is not valid UTF-8; the caller must then
// treat the text as unvalidated.
func (s *Scanner) Scan(text string) (Report, error) {
	if idx := firstInvalidUTF8(text); idx >= 0 {
		return Report{}, &ScanError{Offset: idx}
	}

	type candidate struct {
		cat  Category
		span span
	}
	var candidates []candidate
	for _, d := range s.detectors {
		for _, sp := range d.detect(text) {
			candidates = append(candidates, candidate{cat: d.category(), span: sp})
		}
	}

	// Longest match first at each offset, then lowest category ordinal.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.span.start != b.span.start {
			return a.span.start < b.span.start
		}
		alen, blen := a.span.end-a.span.start, b.span.end-b.span.start
		if alen != blen {
			return alen > blen
		}
		return a.cat < b.cat
	})

	report := Report{Length: utf8.RuneCountInString(text)}
	lastEnd := 0
	for _, c := range candidates {
		if c.span.start < lastEnd {
			continue
		}
		report.Findings = append(report.Findings, Finding{
			Category:   c.cat,
			Start:      utf8.RuneCountInString(text[:c.span.start]),
			End:        utf8.RuneCountInString(text[:c.span.end]),
			Match:      text[c.span.start:c.span.end],
			Confidence: 1.0,
		})
		lastEnd = c.span.end
	}
	return report, nil
}

// firstInvalidUTF8 returns the byte offset of the first invalid sequence,
// or -1 if the string is valid.
func firstInvalidUTF8(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
