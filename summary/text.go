package summary

import (
	"strings"
	"time"
)

const (
	isoDateLayout     = "2006-01-02"
	displayDateLayout = "02-Jan-2006"
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

// orNA returns s trimmed, or NA when it is blank.
func orNA(s string) string {
	if s = trim(s); s == "" {
		return NA
	}
	return s
}

// firstNonBlank returns the first trimmed non-blank value, or NA.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = trim(v); v != "" {
			return v
		}
	}
	return NA
}

// ParseMultiline splits text into lines, trims each one and drops blanks.
func ParseMultiline(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = trim(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// FormatMultiline joins items with newlines, the form used in review
// textareas and in template fields.
func FormatMultiline(items []string) string {
	return strings.Join(items, "\n")
}

// Dedupe returns items without repeats, keeping the first occurrence of each
// and the original order. Comparison is exact.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// EnsureAdvisory returns diagnosis deduplicated with exactly one entry
// containing AdvisoryLiteral (case-insensitive). The first such entry is kept
// as written; if there is none, the literal is appended.
func EnsureAdvisory(diagnosis []string) []string {
	out := make([]string, 0, len(diagnosis)+1)
	found := false
	for _, d := range Dedupe(diagnosis) {
		if strings.Contains(strings.ToUpper(d), AdvisoryLiteral) {
			if found {
				continue
			}
			found = true
		}
		out = append(out, d)
	}
	if !found {
		out = append(out, AdvisoryLiteral)
	}
	return out
}

// FormatDisplayDate turns 2024-01-05 into 05-Jan-2024. Values that are not ISO
// dates, including "N/A", come back unchanged.
func FormatDisplayDate(value string) string {
	t, err := time.Parse(isoDateLayout, trim(value))
	if err != nil {
		return value
	}
	return t.Format(displayDateLayout)
}
