package router

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vikflow/vikflow/internal/command"
	"github.com/vikflow/vikflow/internal/profile"
	"github.com/vikflow/vikflow/internal/secrets"
	"github.com/vikflow/vikflow/internal/vikunja"
)

// fakeAPI counts calls and returns canned responses so tests can assert
// what the router dispatched without a server.
type fakeAPI struct {
	loginCalls    int
	verifyCalls   int
	listsCalls    int
	searchCalls   int
	dueCalls      int
	createCalls   int
	completeCalls int
	taskCalls     int

	loginToken  string
	loginErr    error
	verifyErr   error
	lists       []vikunja.List
	listsErr    error
	searchPage  vikunja.TaskPage
	searchErr   error
	duePage     vikunja.TaskPage
	createTask  vikunja.Task
	createErr   error
	completeErr error

	lastSearchQuery string
	lastSearchPage  int
	lastDuePage     int
	lastCreateList  int64
	lastConn        vikunja.Connection
}

func (f *fakeAPI) Login(ctx context.Context, baseURL, username, password string, verifyTLS bool) (string, error) {
	f.loginCalls++
	return f.loginToken, f.loginErr
}

func (f *fakeAPI) VerifyToken(ctx context.Context, conn vikunja.Connection) error {
	f.verifyCalls++
	f.lastConn = conn
	return f.verifyErr
}

func (f *fakeAPI) Lists(ctx context.Context, conn vikunja.Connection) ([]vikunja.List, error) {
	f.listsCalls++
	f.lastConn = conn
	return f.lists, f.listsErr
}

func (f *fakeAPI) SearchTasks(ctx context.Context, conn vikunja.Connection, query string, page int) (vikunja.TaskPage, error) {
	f.searchCalls++
	f.lastConn = conn
	f.lastSearchQuery = query
	f.lastSearchPage = page
	return f.searchPage, f.searchErr
}

func (f *fakeAPI) DueTasks(ctx context.Context, conn vikunja.Connection, period vikunja.DuePeriod, page int) (vikunja.TaskPage, error) {
	f.dueCalls++
	f.lastDuePage = page
	return f.duePage, nil
}

func (f *fakeAPI) CreateTask(ctx context.Context, conn vikunja.Connection, listID int64, title, description string, due time.Time) (vikunja.Task, error) {
	f.createCalls++
	f.lastCreateList = listID
	if f.createErr != nil {
		return vikunja.Task{}, f.createErr
	}
	task := f.createTask
	if task.ID == 0 {
		task = vikunja.Task{ID: 1, Title: title, ListID: listID}
	}
	return task, nil
}

func (f *fakeAPI) CompleteTask(ctx context.Context, conn vikunja.Connection, taskID int64) (vikunja.Task, error) {
	f.completeCalls++
	if f.completeErr != nil {
		return vikunja.Task{}, f.completeErr
	}
	return vikunja.Task{ID: taskID, Title: "done task", Done: true}, nil
}

func (f *fakeAPI) Task(ctx context.Context, conn vikunja.Connection, taskID int64) (vikunja.Task, error) {
	f.taskCalls++
	return vikunja.Task{ID: taskID, Title: "some task"}, nil
}

func newTestSession(t *testing.T, api *fakeAPI) (*Session, *profile.Store) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	store, err := profile.NewStore(path, secrets.NewMemoryStore())
	if err != nil {
		t.Fatalf("failed to create profile store: %v", err)
	}
	return NewSession(store, api), store
}

func seedProfile(t *testing.T, store *profile.Store, name string) {
	t.Helper()

	prof := profile.Profile{Name: name, BaseURL: "https://tasks.example.com", AuthMethod: profile.AuthMethodToken}
	if err := store.Save(prof, "tk-"+name); err != nil {
		t.Fatalf("failed to seed profile %q: %v", name, err)
	}
}

func TestHandleParseErrorNoAPICalls(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "login work --url https://x --token t --username u --password p")
	if len(items) != 1 || items[0].Title != "Invalid command" {
		t.Fatalf("expected single invalid-command item, got %+v", items)
	}
	if api.loginCalls+api.verifyCalls+api.listsCalls != 0 {
		t.Error("expected no API calls for a parse failure")
	}
}

func TestHandleNoProfile(t *testing.T) {
	session, _ := newTestSession(t, &fakeAPI{})

	items := session.Handle(context.Background(), "lists")
	if len(items) != 1 || items[0].Title != "Profile not found" {
		t.Fatalf("expected profile-not-found item, got %+v", items)
	}
}

func TestLoginWithToken(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)

	items := session.Handle(context.Background(), "login work --url https://tasks.example.com --token tk-abc")
	if len(items) != 1 || items[0].Title != "Profile saved" {
		t.Fatalf("expected profile-saved item, got %+v", items)
	}

	if api.loginCalls != 0 {
		t.Error("token login must not call the credential exchange")
	}
	if api.verifyCalls != 1 {
		t.Errorf("expected exactly one token verification, got %d", api.verifyCalls)
	}

	token, err := store.Secret("work")
	if err != nil || token != "tk-abc" {
		t.Errorf("expected token in secret store, got %q, %v", token, err)
	}
	if store.ActiveName() != "work" {
		t.Errorf("expected work to become active, got %q", store.ActiveName())
	}

	data, err := os.ReadFile(store.FilePath())
	if err != nil {
		t.Fatalf("failed to read profiles file: %v", err)
	}
	if strings.Contains(string(data), "tk-abc") {
		t.Error("token leaked into the profiles file")
	}
}

func TestLoginWithCredentials(t *testing.T) {
	api := &fakeAPI{loginToken: "tk-exchanged"}
	session, store := newTestSession(t, api)

	items := session.Handle(context.Background(), "login work --url https://tasks.example.com --username alice --password s3cret")
	if len(items) != 1 || items[0].Title != "Profile saved" {
		t.Fatalf("expected profile-saved item, got %+v", items)
	}
	if api.loginCalls != 1 || api.verifyCalls != 1 {
		t.Errorf("expected one exchange and one verification, got %d and %d", api.loginCalls, api.verifyCalls)
	}

	token, err := store.Secret("work")
	if err != nil || token != "tk-exchanged" {
		t.Errorf("expected exchanged token stored, got %q, %v", token, err)
	}

	prof, err := store.Get("work")
	if err != nil {
		t.Fatalf("failed to read profile: %v", err)
	}
	if prof.AuthMethod != profile.AuthMethodLogin {
		t.Errorf("expected login auth method, got %q", prof.AuthMethod)
	}
}

func TestLoginRejectedTokenNotSaved(t *testing.T) {
	api := &fakeAPI{verifyErr: &vikunja.APIError{Status: 401, Message: "invalid token"}}
	session, store := newTestSession(t, api)

	items := session.Handle(context.Background(), "login work --url https://tasks.example.com --token tk-bad")
	if len(items) != 1 || items[0].Title != "Access denied" {
		t.Fatalf("expected access-denied item, got %+v", items)
	}
	if _, err := store.Get("work"); !errors.Is(err, profile.ErrNotFound) {
		t.Error("rejected token must not create a profile")
	}
}

func TestLoginMergesExistingSettings(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)

	session.Handle(context.Background(), "login work --url https://tasks.example.com --token tk-1 --default-list 7 --verify-tls false")
	// Re-login with only a fresh token keeps URL, default list and TLS policy.
	session.Handle(context.Background(), "login work --token tk-2")

	prof, err := store.Get("work")
	if err != nil {
		t.Fatalf("failed to read profile: %v", err)
	}
	if prof.BaseURL != "https://tasks.example.com" {
		t.Errorf("base URL not carried over, got %q", prof.BaseURL)
	}
	if prof.DefaultListID != 7 {
		t.Errorf("default list not carried over, got %d", prof.DefaultListID)
	}
	if prof.VerifyTLS() {
		t.Error("TLS opt-out not carried over")
	}

	token, _ := store.Secret("work")
	if token != "tk-2" {
		t.Errorf("expected refreshed token, got %q", token)
	}
}

func TestListsCachedWithinTTL(t *testing.T) {
	api := &fakeAPI{lists: []vikunja.List{{ID: 1, Title: "Inbox"}}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	session.Handle(context.Background(), "lists")
	session.Handle(context.Background(), "lists")
	if api.listsCalls != 1 {
		t.Errorf("expected second call to hit the cache, got %d fetches", api.listsCalls)
	}
}

func TestListsCacheExpires(t *testing.T) {
	api := &fakeAPI{lists: []vikunja.List{{ID: 1, Title: "Inbox"}}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	current := time.Now()
	session.cache.now = func() time.Time { return current }

	session.Handle(context.Background(), "lists")
	current = current.Add(ListCacheTTL + time.Second)
	session.Handle(context.Background(), "lists")

	if api.listsCalls != 2 {
		t.Errorf("expected refetch after TTL, got %d fetches", api.listsCalls)
	}
}

func TestUseInvalidatesPreviousProfileCache(t *testing.T) {
	api := &fakeAPI{lists: []vikunja.List{{ID: 1, Title: "Inbox"}}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")
	seedProfile(t, store, "home")
	if err := store.SetActive("work"); err != nil {
		t.Fatal(err)
	}

	session.Handle(context.Background(), "lists")
	session.Handle(context.Background(), "use home")
	session.Handle(context.Background(), "use work")
	session.Handle(context.Background(), "lists")

	if api.listsCalls != 2 {
		t.Errorf("expected cache dropped on profile switch, got %d fetches", api.listsCalls)
	}
}

func TestUseUnknownProfile(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "use nosuch")
	if len(items) != 1 || items[0].Title != "Profile not found" {
		t.Fatalf("expected profile-not-found item, got %+v", items)
	}
	if store.ActiveName() != "work" {
		t.Error("active profile must not change on a failed switch")
	}
}

func TestAddResolvesNamedList(t *testing.T) {
	api := &fakeAPI{lists: []vikunja.List{{ID: 1, Title: "Inbox"}, {ID: 2, Title: "Work stuff"}}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), `add "Buy milk" --list inbox`)
	if len(items) != 1 || !items[0].IsTask() {
		t.Fatalf("expected a task item, got %+v", items)
	}
	if api.lastCreateList != 1 {
		t.Errorf("expected exact-match list 1, got %d", api.lastCreateList)
	}

	// Substring match when no exact title matches.
	session.Handle(context.Background(), `add "File report" --list stuff`)
	if api.lastCreateList != 2 {
		t.Errorf("expected substring-match list 2, got %d", api.lastCreateList)
	}
}

func TestAddAmbiguousList(t *testing.T) {
	api := &fakeAPI{lists: []vikunja.List{{ID: 1, Title: "Work inbox"}, {ID: 2, Title: "Home inbox"}}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), `add "Buy milk" --list inbox`)
	if len(items) != 1 || items[0].Title != "Invalid command" {
		t.Fatalf("expected ambiguity error, got %+v", items)
	}
	if api.createCalls != 0 {
		t.Error("ambiguous list must not create a task")
	}
}

func TestAddWithoutListOrDefault(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), `add "Buy milk"`)
	if len(items) != 1 || items[0].Title != "Invalid command" {
		t.Fatalf("expected validation error, got %+v", items)
	}
	if api.createCalls != 0 || api.listsCalls != 0 {
		t.Error("missing list must fail before any API call")
	}
}

func TestAddUsesDefaultList(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)
	prof := profile.Profile{Name: "work", BaseURL: "https://tasks.example.com", AuthMethod: profile.AuthMethodToken, DefaultListID: 9}
	if err := store.Save(prof, "tk-work"); err != nil {
		t.Fatal(err)
	}

	session.Handle(context.Background(), `add "Buy milk"`)
	if api.lastCreateList != 9 {
		t.Errorf("expected default list 9, got %d", api.lastCreateList)
	}
	if api.listsCalls != 0 {
		t.Error("default list must not fetch lists")
	}
}

func TestAddInvalidatesListCache(t *testing.T) {
	api := &fakeAPI{lists: []vikunja.List{{ID: 1, Title: "Inbox"}}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	session.Handle(context.Background(), "lists")
	session.Handle(context.Background(), `add "Buy milk" --list Inbox`)
	session.Handle(context.Background(), "lists")

	if api.listsCalls != 2 {
		t.Errorf("expected refetch after task creation, got %d fetches", api.listsCalls)
	}
}

func TestFindTranslatesPageAndShowsMore(t *testing.T) {
	tasks := make([]vikunja.Task, 20)
	for i := range tasks {
		tasks[i] = vikunja.Task{ID: int64(i + 1), Title: fmt.Sprintf("task %d", i+1)}
	}
	api := &fakeAPI{searchPage: vikunja.TaskPage{Tasks: tasks, Page: 1, TotalPages: 3, HasMore: true}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "find milk")
	if api.lastSearchPage != 1 {
		t.Errorf("expected first user page to hit wire page 1, got %d", api.lastSearchPage)
	}

	last := items[len(items)-1]
	if last.IsTask() {
		t.Error("show-more row must not carry task context")
	}
	if last.AutoComplete != "vik find milk --page 1" {
		t.Errorf("unexpected show-more query %q", last.AutoComplete)
	}
	if !last.KeepOpen {
		t.Error("show-more row must keep the launcher open")
	}
	if len(items) != len(tasks)+1 {
		t.Errorf("expected %d items, got %d", len(tasks)+1, len(items))
	}
}

func TestFindQuotesSpacedTerms(t *testing.T) {
	api := &fakeAPI{searchPage: vikunja.TaskPage{Tasks: []vikunja.Task{{ID: 1, Title: "t"}}, HasMore: true}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), `find "buy milk" --page 2`)
	if api.lastSearchPage != 3 {
		t.Errorf("expected wire page 3 for user page 2, got %d", api.lastSearchPage)
	}

	last := items[len(items)-1]
	if last.AutoComplete != `vik find "buy milk" --page 3` {
		t.Errorf("show-more query must round-trip quoting, got %q", last.AutoComplete)
	}

	// The next-page query must parse back to the same terms.
	next := strings.TrimPrefix(last.AutoComplete, "vik ")
	cmd, err := command.Parse(next)
	if err != nil {
		t.Fatalf("show-more query does not round-trip: %v", err)
	}
	find, ok := cmd.(command.Find)
	if !ok || find.Terms != "buy milk" || find.Page != 3 {
		t.Errorf("round-tripped command = %+v", cmd)
	}
}

func TestFindNoResults(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "find nothing")
	if len(items) != 1 || items[0].Title != "No tasks found" {
		t.Fatalf("expected empty-state item, got %+v", items)
	}
}

func TestDuePaging(t *testing.T) {
	api := &fakeAPI{duePage: vikunja.TaskPage{Tasks: []vikunja.Task{{ID: 1, Title: "t"}}, HasMore: true}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "due week")
	if api.lastDuePage != 1 {
		t.Errorf("expected wire page 1, got %d", api.lastDuePage)
	}
	last := items[len(items)-1]
	if last.AutoComplete != "vik due week --page 1" {
		t.Errorf("unexpected show-more query %q", last.AutoComplete)
	}
}

func TestDoneNotFound(t *testing.T) {
	api := &fakeAPI{completeErr: &vikunja.APIError{Status: 404, Message: "task does not exist"}}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "done 999")
	if len(items) != 1 || items[0].Title != "Not found" {
		t.Fatalf("expected not-found item, got %+v", items)
	}
}

func TestDone(t *testing.T) {
	api := &fakeAPI{}
	session, store := newTestSession(t, api)
	seedProfile(t, store, "work")

	items := session.Handle(context.Background(), "done 12")
	if len(items) != 1 || items[0].Title != "Task completed" {
		t.Fatalf("expected completion item, got %+v", items)
	}
	if api.completeCalls != 1 {
		t.Errorf("expected one complete call, got %d", api.completeCalls)
	}
}

func TestHelpOnEmptyQuery(t *testing.T) {
	session, _ := newTestSession(t, &fakeAPI{})

	items := session.Handle(context.Background(), "")
	if len(items) < 5 {
		t.Fatalf("expected usage rows, got %d", len(items))
	}
	for _, item := range items {
		if item.IsTask() {
			t.Errorf("help row %q must not carry task context", item.Title)
		}
	}
}

func TestTaskLink(t *testing.T) {
	session, store := newTestSession(t, &fakeAPI{})
	seedProfile(t, store, "work")

	link, err := session.TaskLink(42)
	if err != nil {
		t.Fatalf("TaskLink() failed: %v", err)
	}
	if link != "https://tasks.example.com/tasks/42" {
		t.Errorf("unexpected link %q", link)
	}
}

func TestErrorItemTaxonomy(t *testing.T) {
	session, _ := newTestSession(t, &fakeAPI{})

	tests := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{"auth", &vikunja.APIError{Status: 401}, "Access denied"},
		{"forbidden", &vikunja.APIError{Status: 403}, "Access denied"},
		{"not found", &vikunja.APIError{Status: 404}, "Not found"},
		{"tls", fmt.Errorf("request: %w", vikunja.ErrTLS), "TLS validation failed"},
		{"timeout", fmt.Errorf("request: %w", vikunja.ErrTimeout), "Request timed out"},
		{"network", fmt.Errorf("request: %w", vikunja.ErrNetwork), "Network error"},
		{"no profile", profile.ErrNotFound, "Profile not found"},
		{"no secret", fmt.Errorf("no token: %w", secrets.ErrNotFound), "No stored token"},
		{"store down", secrets.ErrUnavailable, "Secure storage error"},
		{"validation", fmt.Errorf("%w: list not found", errValidation), "Invalid command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := session.errorItem(tt.err)
			if item.Title != tt.wantTitle {
				t.Errorf("errorItem(%v) title = %q, want %q", tt.err, item.Title, tt.wantTitle)
			}
			if item.IsTask() {
				t.Error("error items must not carry task context")
			}
		})
	}
}
