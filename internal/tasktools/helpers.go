// Package tasktools exposes the task hierarchy engine as MCP tools.
//
// Each tool is a thin adapter: argument extraction, a single engine call,
// and result rendering. Constraint rejections (violations, reorder
// refusals) are normal tool results, never protocol errors — upstream
// consumers surface the messages verbatim.
package tasktools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// dateLayout is the wire format for due dates.
const dateLayout = "2006-01-02"

func parseDateArg(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return &t, nil
}

func renderJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("rendering result: %v", err)
	}
	return string(data)
}

// optionalString returns a pointer to s, or nil when empty, for params where
// empty means "leave unchanged".
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
