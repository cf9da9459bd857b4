package pii

// Redacted pairs a sanitized string with the report that produced it.
type Redacted struct {
	Sanitized string
	Report    Report
}

// Redact replaces every finding in text with its category placeholder.
// Replacement runs from the highest start offset to the lowest so that the
// rune offsets of earlier findings stay valid while the string changes
// length. No matched substring survives in the output.
func Redact(text string, report Report) Redacted {
	if report.Empty() {
		return Redacted{Sanitized: text, Report: report}
	}

	runes := []rune(text)
	for i := len(report.Findings) - 1; i >= 0; i-- {
		f := report.Findings[i]
		if f.Start < 0 || f.End > len(runes) || f.Start > f.End {
			continue
		}
		placeholder := []rune(f.Placeholder())
		rest := append(placeholder, runes[f.End:]...)
		runes = append(runes[:f.Start:f.Start], rest...)
	}
	return Redacted{Sanitized: string(runes), Report: report}
}
