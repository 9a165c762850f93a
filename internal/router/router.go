// Package router maps parsed commands onto profile store operations and
// API calls, and translates every outcome into displayable result items.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vikflow/vikflow/internal/command"
	"github.com/vikflow/vikflow/internal/profile"
	"github.com/vikflow/vikflow/internal/result"
	"github.com/vikflow/vikflow/internal/vikunja"
)

// DefaultKeyword is the launcher action keyword used in autocomplete
// queries and help text.
const DefaultKeyword = "vik"

// errValidation marks a command that parsed but failed semantic checks.
var errValidation = errors.New("invalid command")

// API is the surface of the Vikunja client the router depends on.
type API interface {
	Login(ctx context.Context, baseURL, username, password string, verifyTLS bool) (string, error)
	VerifyToken(ctx context.Context, conn vikunja.Connection) error
	Lists(ctx context.Context, conn vikunja.Connection) ([]vikunja.List, error)
	SearchTasks(ctx context.Context, conn vikunja.Connection, query string, page int) (vikunja.TaskPage, error)
	DueTasks(ctx context.Context, conn vikunja.Connection, period vikunja.DuePeriod, page int) (vikunja.TaskPage, error)
	CreateTask(ctx context.Context, conn vikunja.Connection, listID int64, title, description string, due time.Time) (vikunja.Task, error)
	CompleteTask(ctx context.Context, conn vikunja.Connection, taskID int64) (vikunja.Task, error)
	Task(ctx context.Context, conn vikunja.Connection, taskID int64) (vikunja.Task, error)
}

// Session holds the per-process state shared across invocations: the
// profile store, the API client and the list cache. It is created at
// process start and discarded at exit.
type Session struct {
	profiles *profile.Store
	client   API
	cache    *listCache
	keyword  string
}

// NewSession creates a Session around a profile store and API client.
func NewSession(profiles *profile.Store, client API) *Session {
	return &Session{
		profiles: profiles,
		client:   client,
		cache:    newListCache(ListCacheTTL),
		keyword:  DefaultKeyword,
	}
}

// Handle parses and dispatches one raw query. Every failure, including
// parse failures, comes back as a single displayable item; Handle never
// returns an error to the caller.
func (s *Session) Handle(ctx context.Context, raw string) []result.Item {
	cmd, err := command.Parse(raw)
	if err != nil {
		return []result.Item{s.errorItem(err)}
	}

	items, err := s.dispatch(ctx, cmd)
	if err != nil {
		return []result.Item{s.errorItem(err)}
	}
	return items
}

func (s *Session) dispatch(ctx context.Context, cmd command.Command) ([]result.Item, error) {
	switch c := cmd.(type) {
	case command.Login:
		return s.login(ctx, c)
	case command.Use:
		return s.use(c)
	case command.Lists:
		return s.lists(ctx)
	case command.Add:
		return s.add(ctx, c)
	case command.Find:
		return s.find(ctx, c)
	case command.Due:
		return s.due(ctx, c)
	case command.Done:
		return s.done(ctx, c)
	case command.Open:
		return s.open(ctx, c)
	case command.Help:
		return s.help(), nil
	}
	return s.help(), nil
}

// login creates or updates a profile. Settings not supplied as flags carry
// over from an existing profile of the same name. The token is verified
// against the server before anything is persisted.
func (s *Session) login(ctx context.Context, cmd command.Login) ([]result.Item, error) {
	var existing *profile.Profile
	if prof, err := s.profiles.Get(cmd.Profile); err == nil {
		existing = &prof
	}

	baseURL := cmd.BaseURL
	if baseURL == "" && existing != nil {
		baseURL = existing.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%w: login requires --url when creating a new profile", errValidation)
	}
	if err := profile.ValidateBaseURL(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", errValidation, err)
	}

	verifyTLS := true
	if existing != nil {
		verifyTLS = existing.VerifyTLS()
	}
	if cmd.VerifyTLS != nil {
		verifyTLS = *cmd.VerifyTLS
	}

	defaultListID := int64(0)
	if existing != nil {
		defaultListID = existing.DefaultListID
	}
	if cmd.DefaultList != 0 {
		defaultListID = cmd.DefaultList
	}

	token := cmd.Token
	authMethod := profile.AuthMethodToken
	if cmd.Username != "" {
		// The credential pair lives only for this exchange.
		exchanged, err := s.client.Login(ctx, baseURL, cmd.Username, cmd.Password, verifyTLS)
		if err != nil {
			return nil, err
		}
		token = exchanged
		authMethod = profile.AuthMethodLogin
	}

	conn := vikunja.Connection{BaseURL: baseURL, Token: token, TLSSkipVerify: !verifyTLS}
	if err := s.client.VerifyToken(ctx, conn); err != nil {
		return nil, err
	}

	prof := profile.Profile{
		Name:          cmd.Profile,
		BaseURL:       baseURL,
		AuthMethod:    authMethod,
		TLSSkipVerify: !verifyTLS,
		DefaultListID: defaultListID,
	}
	if err := s.profiles.Save(prof, token); err != nil {
		return nil, err
	}
	if err := s.profiles.SetActive(prof.Name); err != nil {
		return nil, err
	}
	s.cache.Invalidate(prof.Name)

	return []result.Item{result.Info("Profile saved", "Active profile: "+prof.Name)}, nil
}

// use switches the active profile and drops the previous profile's cached
// data so nothing leaks across the switch.
func (s *Session) use(cmd command.Use) ([]result.Item, error) {
	previous := s.profiles.ActiveName()
	if err := s.profiles.SetActive(cmd.Profile); err != nil {
		return nil, err
	}
	if previous != "" {
		s.cache.Invalidate(previous)
	}
	return []result.Item{result.Info("Switched profile", "Active profile: "+cmd.Profile)}, nil
}

func (s *Session) lists(ctx context.Context) ([]result.Item, error) {
	prof, conn, err := s.activeConnection()
	if err != nil {
		return nil, err
	}

	lists, err := s.cachedLists(ctx, prof.Name, conn)
	if err != nil {
		return nil, err
	}

	if len(lists) == 0 {
		return []result.Item{result.Info("No lists found", "Profile: "+prof.Name)}, nil
	}

	items := make([]result.Item, 0, len(lists))
	for _, list := range lists {
		items = append(items, result.ListItem(list))
	}
	return items, nil
}

func (s *Session) add(ctx context.Context, cmd command.Add) ([]result.Item, error) {
	prof, conn, err := s.activeConnection()
	if err != nil {
		return nil, err
	}

	listID, err := s.resolveListID(ctx, prof, conn, cmd.List)
	if err != nil {
		return nil, err
	}

	task, err := s.client.CreateTask(ctx, conn, listID, cmd.Title, cmd.Description, cmd.Due)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(prof.Name)

	return []result.Item{result.TaskItem(task)}, nil
}

func (s *Session) find(ctx context.Context, cmd command.Find) ([]result.Item, error) {
	_, conn, err := s.activeConnection()
	if err != nil {
		return nil, err
	}

	// Command pages are 0-based; the API is 1-based.
	page, err := s.client.SearchTasks(ctx, conn, cmd.Terms, cmd.Page+1)
	if err != nil {
		return nil, err
	}

	items := s.taskItems(page.Tasks)
	if page.HasMore {
		next := fmt.Sprintf("%s find %s --page %d", s.keyword, quoteTerms(cmd.Terms), cmd.Page+1)
		items = append(items, result.ShowMore(next))
	}
	if len(items) == 0 {
		items = append(items, result.Info("No tasks found", "Query: "+cmd.Terms))
	}
	return items, nil
}

func (s *Session) due(ctx context.Context, cmd command.Due) ([]result.Item, error) {
	_, conn, err := s.activeConnection()
	if err != nil {
		return nil, err
	}

	page, err := s.client.DueTasks(ctx, conn, cmd.Period, cmd.Page+1)
	if err != nil {
		return nil, err
	}

	items := s.taskItems(page.Tasks)
	if page.HasMore {
		next := fmt.Sprintf("%s due %s --page %d", s.keyword, cmd.Period, cmd.Page+1)
		items = append(items, result.ShowMore(next))
	}
	if len(items) == 0 {
		items = append(items, result.Info("Nothing due", result.DueSubtitle(cmd.Period)))
	}
	return items, nil
}

func (s *Session) done(ctx context.Context, cmd command.Done) ([]result.Item, error) {
	task, err := s.MarkComplete(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	return []result.Item{result.Info("Task completed", fmt.Sprintf("Marked %q done", task.Title))}, nil
}

func (s *Session) open(ctx context.Context, cmd command.Open) ([]result.Item, error) {
	_, conn, err := s.activeConnection()
	if err != nil {
		return nil, err
	}
	task, err := s.client.Task(ctx, conn, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	return []result.Item{result.TaskItem(task)}, nil
}

func (s *Session) help() []result.Item {
	k := s.keyword
	usages := [][2]string{
		{k + " login <profile> --url https://host --token <token>", "Save a profile (or --username/--password)"},
		{k + " use <profile>", "Switch the active profile"},
		{k + ` add "Title" --list "Inbox" --due 2025-12-31`, "Create a task"},
		{k + " find <terms>", "Search tasks"},
		{k + " due today|tomorrow|week", "Show due tasks"},
		{k + " lists", "Show task lists"},
		{k + " done <task_id>", "Mark a task complete"},
		{k + " open <task_id>", "Show a single task"},
	}

	items := make([]result.Item, 0, len(usages))
	for _, usage := range usages {
		items = append(items, result.Info(usage[0], usage[1]))
	}
	return items
}

// MarkComplete marks a task done on the active profile. It also backs the
// launcher's complete_task action.
func (s *Session) MarkComplete(ctx context.Context, taskID int64) (vikunja.Task, error) {
	_, conn, err := s.activeConnection()
	if err != nil {
		return vikunja.Task{}, err
	}
	return s.client.CompleteTask(ctx, conn, taskID)
}

// TaskLink returns the frontend URL for a task on the active profile.
func (s *Session) TaskLink(taskID int64) (string, error) {
	prof, err := s.profiles.Active()
	if err != nil {
		return "", err
	}
	return vikunja.TaskURL(prof.BaseURL, taskID), nil
}

// activeConnection resolves the active profile and its token into a
// ready-to-use connection.
func (s *Session) activeConnection() (profile.Profile, vikunja.Connection, error) {
	prof, err := s.profiles.Active()
	if err != nil {
		return profile.Profile{}, vikunja.Connection{}, err
	}

	token, err := s.profiles.Secret(prof.Name)
	if err != nil {
		return profile.Profile{}, vikunja.Connection{}, fmt.Errorf("no token for profile %q: %w", prof.Name, err)
	}

	return prof, vikunja.Connection{
		BaseURL:       prof.BaseURL,
		Token:         token,
		TLSSkipVerify: prof.TLSSkipVerify,
	}, nil
}

// cachedLists returns the profile's lists, fetching and refreshing the
// cache when the snapshot is missing or stale.
func (s *Session) cachedLists(ctx context.Context, profileName string, conn vikunja.Connection) ([]vikunja.List, error) {
	if lists, ok := s.cache.Get(profileName); ok {
		return lists, nil
	}

	lists, err := s.client.Lists(ctx, conn)
	if err != nil {
		return nil, err
	}
	s.cache.Set(profileName, lists)
	return lists, nil
}

// resolveListID picks the target list for task creation: a named list
// first (exact title match, then substring), the profile default second.
func (s *Session) resolveListID(ctx context.Context, prof profile.Profile, conn vikunja.Connection, listName string) (int64, error) {
	if listName == "" {
		if prof.DefaultListID != 0 {
			return prof.DefaultListID, nil
		}
		return 0, fmt.Errorf("%w: no list specified and no default list configured; pass --list or set one with %s login %s --default-list <list_id>",
			errValidation, s.keyword, prof.Name)
	}

	lists, err := s.cachedLists(ctx, prof.Name, conn)
	if err != nil {
		return 0, err
	}

	var matches []vikunja.List
	for _, list := range lists {
		if strings.EqualFold(list.Title, listName) {
			matches = append(matches, list)
		}
	}
	if len(matches) == 0 {
		lower := strings.ToLower(listName)
		for _, list := range lists {
			if strings.Contains(strings.ToLower(list.Title), lower) {
				matches = append(matches, list)
			}
		}
	}

	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("%w: list %q not found", errValidation, listName)
	case 1:
		return matches[0].ID, nil
	default:
		return 0, fmt.Errorf("%w: multiple lists match %q", errValidation, listName)
	}
}

// quoteTerms re-quotes search terms containing spaces so the autocomplete
// query round-trips through the parser.
func quoteTerms(terms string) string {
	if strings.ContainsAny(terms, " \t") {
		return `"` + terms + `"`
	}
	return terms
}
