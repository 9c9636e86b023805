package generation

import "errors"

var errNoJSONObject = errors.New("no JSON object found in generated text")

// ExtractJSONObject returns the first balanced {...} block in text. Braces inside JSON string
// literals are not counted.
func ExtractJSONObject(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		char := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}

		switch char {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	if start != -1 {
		return "", errors.New("unbalanced JSON object in generated text")
	}
	return "", errNoJSONObject
}
