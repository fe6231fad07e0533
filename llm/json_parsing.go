package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// JSON parsing errors
var (
	// ErrNoJSONFound is returned when the response text holds no {...} span.
	ErrNoJSONFound = errors.New("no JSON object found in text")
	// ErrInvalidJSON is returned when the located span does not parse as an object.
	ErrInvalidJSON = errors.New("invalid JSON")
)

// ExtractJSONFromText returns the span from the first '{' to the last '}' in
// text. The match is greedy: if the model emits two objects, the span covers
// both and the text between them, and parsing it fails.
//
// Example:
//
//	span, err := llm.ExtractJSONFromText(`Sure! Here's the JSON: {"name":"A"} done.`)
//	// span == `{"name":"A"}`
func ExtractJSONFromText(text string) (string, error) {
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")

	if startIdx == -1 || endIdx == -1 || startIdx > endIdx {
		return "", ErrNoJSONFound
	}
	return text[startIdx : endIdx+1], nil
}

// ParseJSONToMap parses a JSON object. Numbers are kept as json.Number so
// that values such as "98.6" or 45 round-trip without float formatting.
func ParseJSONToMap(jsonStr string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()

	var result map[string]interface{}
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidJSON)
	}
	if rest := strings.TrimSpace(jsonStr[dec.InputOffset():]); rest != "" {
		return nil, fmt.Errorf("%w: unexpected data after object: %.20q", ErrInvalidJSON, rest)
	}
	return result, nil
}

// ExtractJSONObject locates and parses the JSON object in a model response.
func ExtractJSONObject(text string) (map[string]interface{}, error) {
	span, err := ExtractJSONFromText(text)
	if err != nil {
		return nil, err
	}
	return ParseJSONToMap(span)
}
