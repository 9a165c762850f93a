package command

import (
	"errors"
	"testing"
	"time"

	"github.com/vikflow/vikflow/internal/vikunja"
)

func mustParse(t *testing.T, raw string) Command {
	t.Helper()
	cmd, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", raw, err)
	}
	return cmd
}

func mustFail(t *testing.T, raw string) *ParseError {
	t.Helper()
	cmd, err := Parse(raw)
	if err == nil {
		t.Fatalf("Parse(%q) = %+v, expected error", raw, cmd)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse(%q) returned %T, expected *ParseError", raw, err)
	}
	if cmd != nil {
		t.Fatalf("Parse(%q) returned a partial command alongside an error", raw)
	}
	return parseErr
}

func TestParseEmptyReturnsHelp(t *testing.T) {
	for _, raw := range []string{"", "   ", "help"} {
		if _, ok := mustParse(t, raw).(Help); !ok {
			t.Errorf("Parse(%q) should return Help", raw)
		}
	}
}

func TestParseUnknownVerb(t *testing.T) {
	mustFail(t, "frobnicate something")
}

func TestParseLoginWithToken(t *testing.T) {
	cmd := mustParse(t, "login work --url https://tasks.example.com --token tk-1 --verify-tls false --default-list 42")
	login, ok := cmd.(Login)
	if !ok {
		t.Fatalf("expected Login, got %T", cmd)
	}

	if login.Profile != "work" {
		t.Errorf("expected profile work, got %q", login.Profile)
	}
	if login.BaseURL != "https://tasks.example.com" {
		t.Errorf("unexpected BaseURL %q", login.BaseURL)
	}
	if login.Token != "tk-1" {
		t.Errorf("unexpected Token %q", login.Token)
	}
	if login.VerifyTLS == nil || *login.VerifyTLS {
		t.Error("expected VerifyTLS false")
	}
	if login.DefaultList != 42 {
		t.Errorf("expected DefaultList 42, got %d", login.DefaultList)
	}
}

func TestParseLoginWithCredentials(t *testing.T) {
	cmd := mustParse(t, "login home --url https://v.example.com --username alice --password s3cret")
	login := cmd.(Login)
	if login.Username != "alice" || login.Password != "s3cret" {
		t.Errorf("credentials not parsed: %+v", login)
	}
	if login.VerifyTLS != nil {
		t.Error("VerifyTLS should be nil when the flag is absent")
	}
}

func TestParseLoginValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "no profile name", raw: "login"},
		{name: "token and username", raw: "login w --token t --username u --password p"},
		{name: "username without password", raw: "login w --username u"},
		{name: "password without username", raw: "login w --password p"},
		{name: "no auth at all", raw: "login w --url https://x.example.com"},
		{name: "bad verify-tls", raw: "login w --token t --verify-tls maybe"},
		{name: "non-numeric default list", raw: "login w --token t --default-list inbox"},
		{name: "dangling flag value", raw: "login w --token"},
		{name: "unknown flag", raw: "login w --token t --color red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, tt.raw)
		})
	}
}

func TestParseVerifyTLSCaseInsensitive(t *testing.T) {
	cmd := mustParse(t, "login w --token t --verify-tls TRUE")
	login := cmd.(Login)
	if login.VerifyTLS == nil || !*login.VerifyTLS {
		t.Error("expected VerifyTLS true for TRUE")
	}
}

func TestParseUse(t *testing.T) {
	cmd := mustParse(t, "use home")
	if use, ok := cmd.(Use); !ok || use.Profile != "home" {
		t.Errorf("unexpected result %+v", cmd)
	}

	mustFail(t, "use")
	mustFail(t, "use one two")
}

func TestParseAdd(t *testing.T) {
	cmd := mustParse(t, `add "Write report" --list "Work stuff" --due 2025-12-31 --desc "quarterly numbers"`)
	add, ok := cmd.(Add)
	if !ok {
		t.Fatalf("expected Add, got %T", cmd)
	}

	if add.Title != "Write report" {
		t.Errorf("quoted title not preserved: %q", add.Title)
	}
	if add.List != "Work stuff" {
		t.Errorf("quoted list not preserved: %q", add.List)
	}
	if add.Description != "quarterly numbers" {
		t.Errorf("unexpected description %q", add.Description)
	}
	want := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	if !add.Due.Equal(want) {
		t.Errorf("expected due %v, got %v", want, add.Due)
	}
}

func TestParseAddInvalidDate(t *testing.T) {
	// Impossible calendar dates must fail at parse time.
	mustFail(t, `add "Write report" --due 2025-13-40`)
	mustFail(t, `add "Write report" --due 2025-02-30`)
	mustFail(t, `add "Write report" --due tomorrow`)
}

func TestParseFind(t *testing.T) {
	cmd := mustParse(t, `find "buy milk" --page 2`)
	find, ok := cmd.(Find)
	if !ok {
		t.Fatalf("expected Find, got %T", cmd)
	}
	if find.Terms != "buy milk" {
		t.Errorf("unexpected terms %q", find.Terms)
	}
	if find.Page != 2 {
		t.Errorf("expected page 2, got %d", find.Page)
	}

	// Page defaults to 0 and bare terms join with spaces.
	cmd = mustParse(t, "find groceries for dinner")
	find = cmd.(Find)
	if find.Terms != "groceries for dinner" || find.Page != 0 {
		t.Errorf("unexpected result %+v", find)
	}
}

func TestParseFindValidation(t *testing.T) {
	mustFail(t, "find")
	mustFail(t, "find --page 1")
	mustFail(t, "find milk --page -1")
	mustFail(t, "find milk --page soon")
}

func TestParseDue(t *testing.T) {
	cmd := mustParse(t, "due tomorrow --page 1")
	due, ok := cmd.(Due)
	if !ok {
		t.Fatalf("expected Due, got %T", cmd)
	}
	if due.Period != vikunja.DueTomorrow || due.Page != 1 {
		t.Errorf("unexpected result %+v", due)
	}

	mustFail(t, "due")
	mustFail(t, "due someday")
	mustFail(t, "due today extra")
}

func TestParseTaskIDCommands(t *testing.T) {
	if done := mustParse(t, "done 31").(Done); done.TaskID != 31 {
		t.Errorf("expected task id 31, got %d", done.TaskID)
	}
	if open := mustParse(t, "open 7").(Open); open.TaskID != 7 {
		t.Errorf("expected task id 7, got %d", open.TaskID)
	}

	mustFail(t, "done")
	mustFail(t, "done abc")
	mustFail(t, "open 0")
	mustFail(t, "open -3")
}

func TestParseUnbalancedQuotes(t *testing.T) {
	mustFail(t, `add "unterminated`)
}
