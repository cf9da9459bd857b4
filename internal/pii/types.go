package pii

import "fmt"

// Category identifies the kind of sensitive data a finding belongs to.
// The ordinal order is significant: when two findings of equal length start
// at the same offset, the lower ordinal wins.
type Category int

const (
	CategorySSN Category = iota
	CategoryCreditCard
	CategoryAPIKey
	CategoryPhone
	CategoryEmail
	CategoryCustom
)

// String returns the audit label used in placeholders and reports.
func (c Category) String() string {
	switch c {
	case CategorySSN:
		return "SSN"
	case CategoryCreditCard:
		return "CREDIT_CARD"
	case CategoryAPIKey:
		return "API_KEY"
	case CategoryPhone:
		return "PHONE"
	case CategoryEmail:
		return "EMAIL"
	case CategoryCustom:
		return "CUSTOM"
	default:
		return fmt.Sprintf("CATEGORY_%d", int(c))
	}
}

// Finding is a single detected span of sensitive text. Offsets are rune
// offsets into the scanned string, end exclusive, so spans are stable across
// byte encodings of the same text.
type Finding struct {
	Category   Category
	Start      int
	End        int
	Match      string
	Confidence float64
}

// Placeholder returns the redaction token substituted for this finding.
func (f Finding) Placeholder() string {
	return "[" + f.Category.String() + "_REDACTED]"
}

// SpanLength returns the length of the finding in runes. Log and UI output
// must use this together with the category instead of the matched text.
func (f Finding) SpanLength() int {
	return f.End - f.Start
}

// Report is the result of scanning one piece of text. Findings are ordered
// by start offset and never overlap.
type Report struct {
	Findings []Finding
	// Length is the rune length of the scanned text.
	Length int
}

// Empty reports whether the scan produced no findings.
func (r Report) Empty() bool {
	return len(r.Findings) == 0
}

// Categories returns the distinct categories present, in finding order.
func (r Report) Categories() []Category {
	seen := make(map[Category]bool, len(r.Findings))
	var cats []Category
	for _, f := range r.Findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			cats = append(cats, f.Category)
		}
	}
	return cats
}

// ScanError reports that the input could not be scanned because it is not
// valid UTF-8. Callers must treat the text as unvalidated: it must never be
// auto-approved for sending.
type ScanError struct {
	// Offset is the byte offset of the first invalid sequence.
	Offset int
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("pii: invalid UTF-8 at byte %d, text cannot be scanned", e.Offset)
}
