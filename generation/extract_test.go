package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare", `{"table": "leads"}`, `{"table": "leads"}`},
		{"fenced", "```json\n{\"table\": \"leads\"}\n```", `{"table": "leads"}`},
		{"surrounded", `Sure! {"a": {"b": 1}} Hope that helps {"c": 2}`, `{"a": {"b": 1}}`},
		{"braces in strings", `{"explanation": "count {all} \"}\" leads"}`, `{"explanation": "count {all} \"}\" leads"}`},
		{"quote before object", `He said "hi" {"a": 1}`, `{"a": 1}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			object, err := ExtractJSONObject(test.text)
			if assert.NoError(t, err) {
				assert.Equal(t, test.want, object)
			}
		})
	}
}

func TestExtractJSONObjectFailures(t *testing.T) {
	_, err := ExtractJSONObject("I cannot answer that question.")
	assert.ErrorIs(t, err, errNoJSONObject)

	_, err = ExtractJSONObject(`{"table": "leads"`)
	assert.Error(t, err)

	_, err = ExtractJSONObject("")
	assert.ErrorIs(t, err, errNoJSONObject)
}
