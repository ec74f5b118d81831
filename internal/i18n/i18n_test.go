package i18n

import (
	"strings"
	"testing"
)

func TestEnglishMessages(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init(en) error = %v", err)
	}

	if got := T("SessionExpired"); got != "Session expired. Please login again." {
		t.Errorf("T(SessionExpired) = %q", got)
	}
	if got := T("NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("missing id should fall back to the id, got %q", got)
	}
}

func TestRussianMessages(t *testing.T) {
	if err := Init("ru"); err != nil {
		t.Fatalf("Init(ru) error = %v", err)
	}
	if got := T("SessionExpired"); got == "" || got == "Session expired. Please login again." {
		t.Errorf("T(SessionExpired) in ru = %q, want a translation", got)
	}

	// Back to English so other package state is predictable.
	if err := Init("en"); err != nil {
		t.Fatalf("Init(en) error = %v", err)
	}
}

func TestPluralForms(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init(en) error = %v", err)
	}

	one := Tp("UnansweredConfirm", 1)
	if !strings.Contains(one, "1 unanswered question.") {
		t.Errorf("Tp(1) = %q, want singular form", one)
	}
	many := Tp("UnansweredConfirm", 3)
	if !strings.Contains(many, "3 unanswered questions.") {
		t.Errorf("Tp(3) = %q, want plural form", many)
	}
}

func TestInitRejectsBadLanguage(t *testing.T) {
	if err := Init("no-such-lang-tag!"); err == nil {
		t.Error("Init should reject an unparseable language tag")
	}
}
