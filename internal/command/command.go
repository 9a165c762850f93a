// Package command parses free-text launcher queries into typed commands.
package command

import (
	"time"

	"github.com/vikflow/vikflow/internal/vikunja"
)

// Verb identifies a command.
type Verb string

const (
	VerbLogin Verb = "login"
	VerbUse   Verb = "use"
	VerbLists Verb = "lists"
	VerbAdd   Verb = "add"
	VerbFind  Verb = "find"
	VerbDue   Verb = "due"
	VerbDone  Verb = "done"
	VerbOpen  Verb = "open"
	VerbHelp  Verb = "help"
)

// Command is a parsed launcher query. Implementations are the per-verb
// structs below; a Command is created per invocation and discarded after
// dispatch.
type Command interface {
	Verb() Verb
}

// Login creates or updates a profile and acquires a token, either supplied
// directly or exchanged from a username/password pair.
type Login struct {
	Profile     string
	BaseURL     string
	Token       string
	Username    string
	Password    string
	DefaultList int64
	// VerifyTLS is nil when the flag was not given, so an existing
	// profile's setting can carry over.
	VerifyTLS *bool
}

func (Login) Verb() Verb { return VerbLogin }

// Use switches the active profile.
type Use struct {
	Profile string
}

func (Use) Verb() Verb { return VerbUse }

// Lists shows the profile's task lists.
type Lists struct{}

func (Lists) Verb() Verb { return VerbLists }

// Add creates a task.
type Add struct {
	Title       string
	List        string
	Description string
	// Due is zero when no --due flag was given.
	Due time.Time
}

func (Add) Verb() Verb { return VerbAdd }

// Find searches tasks. Page is 0-based in the command surface.
type Find struct {
	Terms string
	Page  int
}

func (Find) Verb() Verb { return VerbFind }

// Due shows tasks due within a period. Page is 0-based.
type Due struct {
	Period vikunja.DuePeriod
	Page   int
}

func (Due) Verb() Verb { return VerbDue }

// Done marks a task complete.
type Done struct {
	TaskID int64
}

func (Done) Verb() Verb { return VerbDone }

// Open shows a single task.
type Open struct {
	TaskID int64
}

func (Open) Verb() Verb { return VerbOpen }

// Help is returned for empty input.
type Help struct{}

func (Help) Verb() Verb { return VerbHelp }
