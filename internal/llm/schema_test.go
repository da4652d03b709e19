package llm

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateAcceptsCompleteAttributes(t *testing.T) {
	doc := []byte(`{
		"sender": "ACME GmbH",
		"receiver": "Bob Smith",
		"organisation": "ACME GmbH",
		"date_of_writing": "2024-01-10",
		"letter_type": "Invoice",
		"responsible_person": "John_Doe"
	}`)
	if err := ValidateJSONAgainstSchema(BuildLetterJSONSchema(), doc); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
}

func TestValidateAcceptsOmittedOptionals(t *testing.T) {
	doc := []byte(`{
		"sender": "Jane Roe",
		"receiver": "Bob Smith",
		"date_of_writing": "2024-01-10",
		"letter_type": "Invoice"
	}`)
	if err := ValidateJSONAgainstSchema(BuildLetterJSONSchema(), doc); err != nil {
		t.Fatalf("document without optionals rejected: %v", err)
	}
}

func TestValidateRejectsMissingReceiver(t *testing.T) {
	doc := []byte(`{
		"sender": "Jane Roe",
		"date_of_writing": "2024-01-10",
		"letter_type": "Invoice"
	}`)
	if err := ValidateJSONAgainstSchema(BuildLetterJSONSchema(), doc); err == nil {
		t.Fatal("document without receiver must fail validation")
	}
}

func TestValidateRejectsUnknownField(t *testing.T) {
	doc := []byte(`{
		"sender": "Jane Roe",
		"receiver": "Bob Smith",
		"date_of_writing": "2024-01-10",
		"letter_type": "Invoice",
		"mood": "cheerful"
	}`)
	if err := ValidateJSONAgainstSchema(BuildLetterJSONSchema(), doc); err == nil {
		t.Fatal("unknown field must fail validation")
	}
}

func TestNormalizeAttributesRepairsOptionals(t *testing.T) {
	raw := []byte(`{
		"sender": " Jane Roe ",
		"receiver": "Bob Smith",
		"organisation": null,
		"date_of_writing": "2024-01-10",
		"letter_type": "Invoice",
		"responsible_person": "  ",
		"mood": "cheerful"
	}`)

	cleaned, dropped, err := NormalizeAttributes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateJSONAgainstSchema(BuildLetterJSONSchema(), cleaned); err != nil {
		t.Fatalf("normalized document still invalid: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(cleaned, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["organisation"]; ok {
		t.Fatal("null organisation should be dropped")
	}
	if _, ok := m["responsible_person"]; ok {
		t.Fatal("blank responsible_person should be dropped")
	}
	if _, ok := m["mood"]; ok {
		t.Fatal("unknown field should be dropped")
	}
	if m["sender"] != "Jane Roe" {
		t.Fatalf("sender not trimmed: %q", m["sender"])
	}
	if len(dropped) == 0 || !strings.Contains(strings.Join(dropped, ","), "organisation") {
		t.Fatalf("dropped list should mention organisation: %v", dropped)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in       string
		want     string
		repaired bool
	}{
		{"2024-01-10", "2024-01-10", false},
		{"2024/01/10", "2024-01-10", true},
		{"2024.01.10", "2024-01-10", true},
		{"10.01.2024", "2024-01-10", true},
		{"January 10, 2024", "2024-01-10", true},
		{"sometime last week", "sometime last week", false},
	}
	for _, c := range cases {
		got, repaired := normalizeDate(c.in)
		if got != c.want || repaired != c.repaired {
			t.Errorf("normalizeDate(%q) = (%q, %v), want (%q, %v)",
				c.in, got, repaired, c.want, c.repaired)
		}
	}
}

func TestNormalizeAttributesBadJSON(t *testing.T) {
	if _, _, err := NormalizeAttributes([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
