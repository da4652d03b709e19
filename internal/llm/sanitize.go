package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// optionalFields may be dropped entirely when the model returns null or an
// empty value for them; the schema does not require them.
var optionalFields = []string{"organisation", "responsible_person"}

// knownFields guards against additionalProperties violations: anything else
// the model invents is removed before validation.
var knownFields = map[string]struct{}{
	"sender":             {},
	"receiver":           {},
	"organisation":       {},
	"date_of_writing":    {},
	"letter_type":        {},
	"responsible_person": {},
}

// NormalizeAttributes repairs common model output defects so the document can
// still validate: trims strings, drops null/empty optionals, removes unknown
// keys. Required fields are left alone — if they are missing or empty the
// schema validation should fail loudly.
func NormalizeAttributes(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string

	for k, v := range m {
		if _, ok := knownFields[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		if s, ok := v.(string); ok {
			m[k] = strings.TrimSpace(s)
		}
	}

	// Light date repair: models occasionally emit a non-ISO layout despite
	// the prompt. Reformat the common ones; leave anything else untouched.
	if s, ok := m["date_of_writing"].(string); ok {
		if iso, repaired := normalizeDate(s); repaired {
			m["date_of_writing"] = iso
		}
	}

	for _, k := range optionalFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k)
		case string:
			if strings.TrimSpace(t) == "" || strings.EqualFold(strings.TrimSpace(t), "null") {
				delete(m, k)
				dropped = append(dropped, k)
			}
		default:
			delete(m, k)
			dropped = append(dropped, k)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}

// dateLayouts are the non-ISO layouts seen in model output often enough to
// be worth repairing.
var dateLayouts = []string{
	"2006/01/02",
	"2006.01.02",
	"02.01.2006",
	"02/01/2006",
	"January 2, 2006",
	"2 January 2006",
}

// normalizeDate reformats s to ISO 2006-01-02 when it matches a known
// layout. Returns false when s is already ISO or unrecognizable.
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return s, false
}
