package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("required", map[string]string{"path": "title"}); msg != "title is a required field" {
		t.Fatalf("unexpected message %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", map[string]string{"path": "title"}); msg != "titleは必須項目です" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownKeyFallsBack(t *testing.T) {
	if msg := T("no_such_key", nil); msg != "no_such_key" {
		t.Fatalf("expected key echo, got %q", msg)
	}
	SetLanguage("fr")
	if msg := T("array.max", map[string]string{"path": "pets", "max": "3"}); msg != "pets field must have less than or equal to 3 items" {
		t.Fatalf("unexpected message %q", msg)
	}
	SetLanguage("en")
}

type upper struct{}

func (upper) Message(key string, _ map[string]string) string { return "X:" + key }

func TestSetTranslator_Custom(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("required", nil); msg != "X:required" {
		t.Fatalf("expected custom translator, got %q", msg)
	}
}

func TestRender_LeavesUnknownPlaceholders(t *testing.T) {
	if got := Render("{path} {other}", map[string]string{"path": "a"}); got != "a {other}" {
		t.Fatalf("unexpected render %q", got)
	}
}
