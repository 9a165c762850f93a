// Package launcher implements the host launcher's plugin protocol: the
// binary is invoked as `vikflow <method> <json_payload>` and writes a JSON
// result list to stdout.
package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/vikflow/vikflow/internal/debuglog"
	"github.com/vikflow/vikflow/internal/result"
	"github.com/vikflow/vikflow/internal/router"
)

// pluginMethods are the entry points the host launcher may invoke.
var pluginMethods = map[string]bool{
	"query":                   true,
	"context_menu":            true,
	result.MethodOpenTask:     true,
	result.MethodCompleteTask: true,
	result.MethodCopyTaskLink: true,
	result.MethodChangeQuery:  true,
	result.MethodNoop:         true,
}

// IsPluginInvocation reports whether args look like a launcher callback
// rather than a maintenance CLI command.
func IsPluginInvocation(args []string) bool {
	return len(args) >= 1 && pluginMethods[args[0]]
}

// Plugin dispatches launcher callbacks to the router session.
type Plugin struct {
	session *router.Session
	stdout  io.Writer
	log     *debuglog.Logger
}

// New creates a Plugin writing protocol responses to stdout.
func New(session *router.Session, stdout io.Writer, log *debuglog.Logger) *Plugin {
	return &Plugin{session: session, stdout: stdout, log: log}
}

// Run handles one launcher invocation: args[0] is the method, args[1] the
// optional JSON payload.
func (p *Plugin) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing plugin method")
	}

	method := args[0]
	var payload json.RawMessage
	if len(args) > 1 {
		payload = json.RawMessage(args[1])
	}
	p.log.Debugf("dispatch %s", method)

	switch method {
	case "query":
		return p.query(ctx, payload)
	case "context_menu":
		return p.contextMenu(payload)
	case result.MethodOpenTask:
		return p.openTask(payload)
	case result.MethodCompleteTask:
		return p.completeTask(ctx, payload)
	case result.MethodCopyTaskLink:
		return p.copyTaskLink(payload)
	case result.MethodChangeQuery:
		return p.changeQuery(payload)
	case result.MethodNoop:
		return nil
	}
	return fmt.Errorf("unknown plugin method %q", method)
}

// query runs the router on the typed query and writes the result list.
func (p *Plugin) query(ctx context.Context, payload json.RawMessage) error {
	raw := decodeQuery(payload)
	items := p.session.Handle(ctx, raw)
	return p.writeResponse(items)
}

// contextMenu returns per-task actions for a selected task item.
func (p *Plugin) contextMenu(payload json.RawMessage) error {
	var data result.TaskContext
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &data); err != nil || data.TaskID == 0 {
			return p.writeResponse([]result.Item{})
		}
	} else {
		return p.writeResponse([]result.Item{})
	}

	items := []result.Item{
		{
			Title:   "Open in browser",
			IcoPath: result.IconApp,
			Action:  &result.Action{Method: result.MethodOpenTask, Parameters: []any{data.TaskID}},
		},
		{
			Title:   "Mark complete",
			IcoPath: result.IconApp,
			Action:  &result.Action{Method: result.MethodCompleteTask, Parameters: []any{data.TaskID}},
		},
		{
			Title:   "Copy link",
			IcoPath: result.IconApp,
			Action:  &result.Action{Method: result.MethodCopyTaskLink, Parameters: []any{data.URL}},
		},
	}
	return p.writeResponse(items)
}

func (p *Plugin) openTask(payload json.RawMessage) error {
	taskID, ok := decodeTaskID(payload)
	if !ok {
		return nil
	}
	url, err := p.session.TaskLink(taskID)
	if err != nil {
		p.log.Warnf("open_task %d: %v", taskID, err)
		return nil
	}
	if err := openURL(url); err != nil {
		p.log.Warnf("open_task %d: %v", taskID, err)
	}
	return nil
}

func (p *Plugin) completeTask(ctx context.Context, payload json.RawMessage) error {
	taskID, ok := decodeTaskID(payload)
	if !ok {
		return nil
	}
	task, err := p.session.MarkComplete(ctx, taskID)
	if err != nil {
		p.log.Warnf("complete_task %d: %v", taskID, err)
		notify("Vikflow", "Could not complete the task")
		return nil
	}
	notify("Task completed", fmt.Sprintf("Marked %q done", task.Title))
	return nil
}

func (p *Plugin) copyTaskLink(payload json.RawMessage) error {
	var params []string
	if err := json.Unmarshal(payload, &params); err != nil || len(params) == 0 || params[0] == "" {
		return nil
	}
	if err := copyToClipboard(params[0]); err != nil {
		p.log.Warnf("copy_task_link: %v", err)
	}
	return nil
}

// changeQuery asks the launcher to replace the query box contents. It is
// bound to the synthetic show-more item.
func (p *Plugin) changeQuery(payload json.RawMessage) error {
	var params []string
	if err := json.Unmarshal(payload, &params); err != nil || len(params) == 0 {
		return nil
	}
	response := map[string]any{"method": "Flow.Launcher.ChangeQuery", "parameters": []any{params[0], true}}
	return json.NewEncoder(p.stdout).Encode(response)
}

func (p *Plugin) writeResponse(items []result.Item) error {
	response := map[string]any{"result": items}
	return json.NewEncoder(p.stdout).Encode(response)
}

// decodeQuery accepts both payload shapes the launcher sends: a plain
// string and an object carrying the search text.
func decodeQuery(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}

	var raw string
	if err := json.Unmarshal(payload, &raw); err == nil {
		return raw
	}

	var obj struct {
		Search string `json:"search"`
		Query  string `json:"Query"`
	}
	if err := json.Unmarshal(payload, &obj); err == nil {
		if obj.Search != "" {
			return obj.Search
		}
		return obj.Query
	}

	var params []string
	if err := json.Unmarshal(payload, &params); err == nil && len(params) > 0 {
		return params[0]
	}

	return ""
}

// decodeTaskID reads a task id from an action parameter list.
func decodeTaskID(payload json.RawMessage) (int64, bool) {
	var params []json.Number
	if err := json.Unmarshal(payload, &params); err == nil && len(params) > 0 {
		if id, err := strconv.ParseInt(params[0].String(), 10, 64); err == nil && id > 0 {
			return id, true
		}
		return 0, false
	}

	var id int64
	if err := json.Unmarshal(payload, &id); err == nil && id > 0 {
		return id, true
	}
	return 0, false
}
