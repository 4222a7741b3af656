package deskema_test

import (
	"strings"
	"testing"

	deskema "github.com/reoring/deskema"
)

func TestIssues_ErrorSummarizesFirstThree(t *testing.T) {
	iss := deskema.Issues{
		{Path: "/a", Code: deskema.CodeRequired},
		{Path: "/b", Code: deskema.CodeInvalidType},
		{Path: "/c", Code: deskema.CodeTooShort},
		{Path: "/d", Code: deskema.CodePattern},
	}
	msg := iss.Error()
	if !strings.Contains(msg, "required at /a") || !strings.Contains(msg, "too_short at /c") {
		t.Fatalf("summary missing leading issues: %q", msg)
	}
	if strings.Contains(msg, "/d") {
		t.Fatalf("summary should truncate after three issues: %q", msg)
	}
	if !strings.Contains(msg, "(total 4)") {
		t.Fatalf("summary should report the total: %q", msg)
	}
}

func TestIssues_ErrorShort(t *testing.T) {
	iss := deskema.Issues{{Path: "/x", Code: deskema.CodeRequired}}
	if got := iss.Error(); got != "required at /x" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if got := (deskema.Issues{}).Error(); got != "" {
		t.Fatalf("empty issues should render empty: %q", got)
	}
}

func TestRebase(t *testing.T) {
	iss := deskema.Issues{
		{Path: "/", Code: deskema.CodeInvalidType},
		{Path: "/city", Code: deskema.CodeRequired},
		{Path: "zip", Code: deskema.CodePattern},
	}
	got := deskema.Rebase("/address", iss)
	want := []string{"/address", "/address/city", "/address/zip"}
	for i, p := range want {
		if got[i].Path != p {
			t.Fatalf("rebase %d: want %q, got %q", i, p, got[i].Path)
		}
	}
	// The input slice is not mutated.
	if iss[0].Path != "/" {
		t.Fatalf("rebase must not mutate its input")
	}
}

func TestAsIssues(t *testing.T) {
	var err error = deskema.Issues{{Path: "/x", Code: deskema.CodeRequired}}
	iss, ok := deskema.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected extraction to succeed, got %v %v", iss, ok)
	}
	if _, ok := deskema.AsIssues(nil); ok {
		t.Fatalf("nil error must not extract")
	}
}
