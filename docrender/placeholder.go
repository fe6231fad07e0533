package docrender

import (
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches {{ key }}. In DOCX XML the braces and the key
// may be split across runs, so tags are allowed anywhere inside.
var placeholderPattern = regexp.MustCompile(`\{(?:<[^>]*>)*\{((?:[^{}<]|<[^>]*>)*?)\}(?:<[^>]*>)*\}`)

var (
	xmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	keyPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_/]*$`)
)

// placeholderKey returns the key inside a placeholder match, or "" when the
// match is not a simple key or crosses a paragraph.
func placeholderKey(inner string) string {
	if strings.Contains(inner, "<w:p>") || strings.Contains(inner, "<w:p ") || strings.Contains(inner, "</w:p>") {
		return ""
	}
	key := strings.TrimSpace(xmlTagPattern.ReplaceAllString(inner, ""))
	if !keyPattern.MatchString(key) {
		return ""
	}
	return key
}

// replacePlaceholders substitutes every placeholder in text. Unknown keys
// become empty, matching how a missing variable renders in a Jinja template.
func replacePlaceholders(text string, values Context, escape func(string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := placeholderPattern.FindStringSubmatch(match)
		key := placeholderKey(sub[1])
		if key == "" {
			return match
		}
		return escape(values[key])
	})
}

// findPlaceholders collects the keys of all placeholders in text into keys.
func findPlaceholders(text string, keys map[string]struct{}) {
	for _, sub := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if key := placeholderKey(sub[1]); key != "" {
			keys[key] = struct{}{}
		}
	}
}

func sortedKeys(keys map[string]struct{}) []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
