package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/vikflow/vikflow/internal/vikunja"
)

// ParseError describes a query that could not be parsed or validated. The
// message is written for display to the user.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return e.msg }

func parseErrorf(format string, args ...any) error {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// Parse turns a raw query line into a typed command. Quoted strings count
// as single tokens. Errors are always *ParseError; no partial command is
// ever returned alongside one.
func Parse(raw string) (Command, error) {
	tokens, err := shellquote.Split(strings.TrimSpace(raw))
	if err != nil {
		return nil, parseErrorf("unbalanced quotes in query")
	}
	if len(tokens) == 0 {
		return Help{}, nil
	}

	verb := strings.ToLower(tokens[0])
	rest := tokens[1:]

	switch Verb(verb) {
	case VerbLogin:
		return parseLogin(rest)
	case VerbUse:
		return parseUse(rest)
	case VerbLists:
		if len(rest) > 0 {
			return nil, parseErrorf("lists takes no arguments")
		}
		return Lists{}, nil
	case VerbAdd:
		return parseAdd(rest)
	case VerbFind:
		return parseFind(rest)
	case VerbDue:
		return parseDue(rest)
	case VerbDone:
		id, err := parseTaskID("done", rest)
		if err != nil {
			return nil, err
		}
		return Done{TaskID: id}, nil
	case VerbOpen:
		id, err := parseTaskID("open", rest)
		if err != nil {
			return nil, err
		}
		return Open{TaskID: id}, nil
	case VerbHelp:
		return Help{}, nil
	}

	return nil, parseErrorf("unknown command %q", verb)
}

func parseUse(tokens []string) (Command, error) {
	if len(tokens) < 1 {
		return nil, parseErrorf("use expects a profile name")
	}
	if len(tokens) > 1 {
		return nil, parseErrorf("use takes a single profile name")
	}
	return Use{Profile: tokens[0]}, nil
}

func parseLogin(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return nil, parseErrorf("login expects a profile name")
	}

	cmd := Login{Profile: tokens[0]}
	options := tokens[1:]

	for i := 0; i < len(options); i++ {
		key := strings.ToLower(options[i])
		switch key {
		case "--url", "--base", "--base-url":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			cmd.BaseURL, i = value, n
		case "--token":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			cmd.Token, i = value, n
		case "--username", "--user":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			cmd.Username, i = value, n
		case "--password", "--pass":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			cmd.Password, i = value, n
		case "--verify-tls", "--verify":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			verify, err := parseBool(value)
			if err != nil {
				return nil, err
			}
			cmd.VerifyTLS, i = &verify, n
		case "--default-list", "--list":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			listID, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, parseErrorf("--default-list must be a numeric list id")
			}
			cmd.DefaultList, i = listID, n
		default:
			return nil, parseErrorf("unknown option for login: %s", options[i])
		}
	}

	hasToken := cmd.Token != ""
	hasCredentials := cmd.Username != "" || cmd.Password != ""
	switch {
	case hasToken && hasCredentials:
		return nil, parseErrorf("login accepts either --token or --username/--password, not both")
	case hasCredentials && (cmd.Username == "" || cmd.Password == ""):
		return nil, parseErrorf("login requires both --username and --password")
	case !hasToken && !hasCredentials:
		return nil, parseErrorf("login requires either --token or --username/--password")
	}

	return cmd, nil
}

func parseAdd(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return nil, parseErrorf("add expects a task title")
	}

	cmd := Add{Title: tokens[0]}
	options := tokens[1:]

	for i := 0; i < len(options); i++ {
		key := strings.ToLower(options[i])
		switch key {
		case "--list":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			cmd.List, i = value, n
		case "--desc":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			cmd.Description, i = value, n
		case "--due":
			value, n, err := expectValue(options, i, key)
			if err != nil {
				return nil, err
			}
			due, err := parseDate(value)
			if err != nil {
				return nil, err
			}
			cmd.Due, i = due, n
		default:
			return nil, parseErrorf("unknown option for add: %s", options[i])
		}
	}

	return cmd, nil
}

func parseFind(tokens []string) (Command, error) {
	var terms []string
	page := 0

	for i := 0; i < len(tokens); i++ {
		if tokens[i] == "--page" {
			value, n, err := expectValue(tokens, i, "--page")
			if err != nil {
				return nil, err
			}
			page, err = parsePage(value)
			if err != nil {
				return nil, err
			}
			i = n
			continue
		}
		terms = append(terms, tokens[i])
	}

	if len(terms) == 0 {
		return nil, parseErrorf("find expects search terms")
	}

	return Find{Terms: strings.Join(terms, " "), Page: page}, nil
}

func parseDue(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return nil, parseErrorf("due expects a period (today, tomorrow, week)")
	}

	period := vikunja.DuePeriod(strings.ToLower(tokens[0]))
	switch period {
	case vikunja.DueToday, vikunja.DueTomorrow, vikunja.DueWeek:
	default:
		return nil, parseErrorf("due period must be today, tomorrow, or week")
	}

	page := 0
	for i := 1; i < len(tokens); i++ {
		if tokens[i] != "--page" {
			return nil, parseErrorf("unknown option for due: %s", tokens[i])
		}
		value, n, err := expectValue(tokens, i, "--page")
		if err != nil {
			return nil, err
		}
		page, err = parsePage(value)
		if err != nil {
			return nil, err
		}
		i = n
	}

	return Due{Period: period, Page: page}, nil
}

func parseTaskID(verb string, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, parseErrorf("%s expects a task id", verb)
	}
	id, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, parseErrorf("task id must be a positive integer")
	}
	return id, nil
}

// expectValue returns the value following a flag and the index it was
// consumed at.
func expectValue(tokens []string, i int, key string) (string, int, error) {
	if i+1 >= len(tokens) {
		return "", 0, parseErrorf("option %s expects a value", key)
	}
	return tokens[i+1], i + 1, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, parseErrorf("invalid boolean value: %s", value)
}

// parseDate parses a strict YYYY-MM-DD calendar date. time.Parse rejects
// impossible dates like 2025-13-40.
func parseDate(value string) (time.Time, error) {
	due, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, parseErrorf("--due must be a valid YYYY-MM-DD date")
	}
	return due, nil
}

func parsePage(value string) (int, error) {
	page, err := strconv.Atoi(value)
	if err != nil || page < 0 {
		return 0, parseErrorf("--page must be a non-negative integer")
	}
	return page, nil
}
