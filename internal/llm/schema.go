package llm

// BuildLetterJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to OpenAI as a structured output constraint and also use it locally to validate.
func BuildLetterJSONSchema() map[string]any {
	props := map[string]any{
		"sender":             map[string]any{"type": "string", "minLength": 1},
		"receiver":           map[string]any{"type": "string", "minLength": 1},
		"organisation":       map[string]any{"type": "string"},
		"date_of_writing":    map[string]any{"type": "string", "minLength": 1},
		"letter_type":        map[string]any{"type": "string", "minLength": 1},
		"responsible_person": map[string]any{"type": "string"},
	}
	required := []string{"sender", "receiver", "date_of_writing", "letter_type"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
