// Package result defines the selectable items returned to the host
// launcher and the mappers that build them from API objects.
package result

import (
	"fmt"
	"strings"

	"github.com/vikflow/vikflow/internal/vikunja"
)

// IconApp is the icon shipped with the plugin, used for every item.
const IconApp = "Images/app.png"

// Method names bound to item actions. The host launcher calls the plugin
// back with these when an item is selected.
const (
	MethodOpenTask     = "open_task"
	MethodCompleteTask = "complete_task"
	MethodCopyTaskLink = "copy_task_link"
	MethodChangeQuery  = "change_query"
	MethodNoop         = "noop"
)

// Action is a JSON-RPC callback bound to an item.
type Action struct {
	Method     string `json:"method"`
	Parameters []any  `json:"parameters"`
}

// TaskContext is attached to task items so the context menu can offer
// open / complete / copy actions.
type TaskContext struct {
	TaskID int64  `json:"task_id"`
	URL    string `json:"url"`
}

// Item is one selectable row in the launcher result list. Field names
// follow the launcher's wire format.
type Item struct {
	Title        string       `json:"Title"`
	Subtitle     string       `json:"SubTitle,omitempty"`
	IcoPath      string       `json:"IcoPath,omitempty"`
	Action       *Action      `json:"JsonRPCAction,omitempty"`
	Context      *TaskContext `json:"ContextData,omitempty"`
	AutoComplete string       `json:"AutoCompleteText,omitempty"`
	KeepOpen     bool         `json:"DontHideAfterAction,omitempty"`
}

// IsTask reports whether the item represents a real task, as opposed to an
// informational or synthetic entry.
func (i Item) IsTask() bool {
	return i.Context != nil
}

// TaskItem builds the result row for a task. Selecting it opens the task
// in the browser; the context menu offers complete and copy-link.
func TaskItem(task vikunja.Task) Item {
	var parts []string
	if task.DueDate != nil && task.DueDate.Year() > 1 {
		parts = append(parts, "Due "+task.DueDate.UTC().Format("2006-01-02 15:04 UTC"))
	}
	if task.ListID != 0 {
		parts = append(parts, fmt.Sprintf("List #%d", task.ListID))
	}
	if task.Done {
		parts = append(parts, "Completed")
	}

	subtitle := strings.Join(parts, " | ")
	if subtitle == "" {
		subtitle = "Enter: open • Context menu: complete, copy link"
	}

	return Item{
		Title:    task.Title,
		Subtitle: subtitle,
		IcoPath:  IconApp,
		Action:   &Action{Method: MethodOpenTask, Parameters: []any{task.ID}},
		Context:  &TaskContext{TaskID: task.ID, URL: task.URL},
	}
}

// ListItem builds the result row for a task list.
func ListItem(list vikunja.List) Item {
	return Item{
		Title:    list.Title,
		Subtitle: fmt.Sprintf("List #%d", list.ID),
		IcoPath:  IconApp,
	}
}

// Info builds an informational row with no action.
func Info(title, subtitle string) Item {
	return Item{
		Title:    title,
		Subtitle: subtitle,
		IcoPath:  IconApp,
	}
}

// Error builds the single displayable row for a failure.
func Error(title, subtitle string) Item {
	return Info(title, subtitle)
}

// ShowMore builds the synthetic trailing row appended when a result page
// is full. Selecting it replaces the query with the next page's query; it
// carries no task context, so complete/open actions can never target it.
func ShowMore(nextQuery string) Item {
	return Item{
		Title:        "Show more…",
		Subtitle:     "Load more results",
		IcoPath:      IconApp,
		Action:       &Action{Method: MethodChangeQuery, Parameters: []any{nextQuery}},
		AutoComplete: nextQuery,
		KeepOpen:     true,
	}
}

// DueSubtitle describes a due period for empty-state rows.
func DueSubtitle(period vikunja.DuePeriod) string {
	switch period {
	case vikunja.DueToday:
		return "Tasks due today"
	case vikunja.DueTomorrow:
		return "Tasks due tomorrow"
	case vikunja.DueWeek:
		return "Tasks due this week"
	}
	return ""
}
