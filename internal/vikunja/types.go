package vikunja

import (
	"strconv"
	"strings"
	"time"
)

// Connection carries everything one API call needs: where to talk, how to
// authenticate, and the TLS policy. It is assembled per call from the
// profile record plus the secret store, so the token never rests in any
// longer-lived structure.
type Connection struct {
	BaseURL       string
	Token         string
	TLSSkipVerify bool
}

// List is a Vikunja task list summary.
type List struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Task is a Vikunja task.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ListID      int64      `json:"list_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Done        bool       `json:"done"`
	URL         string     `json:"-"`
}

// TaskPage is one page of task results.
type TaskPage struct {
	Tasks      []Task
	Page       int
	TotalPages int
	TotalCount int
	HasMore    bool
}

// DuePeriod selects the due-date window for due-task queries.
type DuePeriod string

const (
	// DueToday covers the current calendar day.
	DueToday DuePeriod = "today"
	// DueTomorrow covers the next calendar day.
	DueTomorrow DuePeriod = "tomorrow"
	// DueWeek covers the next seven days from now.
	DueWeek DuePeriod = "week"
)

// TaskURL returns the frontend URL for a task.
func TaskURL(baseURL string, taskID int64) string {
	return strings.TrimRight(baseURL, "/") + "/tasks/" + strconv.FormatInt(taskID, 10)
}
