package bridge

// DefaultEntries returns the built-in tool table of the wayland-mcp bridge.
//
// execute_task is the generic forward route to the automation backend. The
// remaining names cover the controller-visible tool surface; their logic
// (screenshot capture, VLM analysis, input simulation) lives outside this
// process, so they answer not-implemented until a backend route exists.
// Adding a forwarding route is a new entry here, never a dispatcher change.
func DefaultEntries() []ToolEntry {
	return []ToolEntry{
		{Name: "execute_task", Action: ActionForward, Path: "/execute"},
		{Name: "capture_screenshot", Action: ActionNotImplemented},
		{Name: "compare_images", Action: ActionNotImplemented},
		{Name: "analyze_screenshot", Action: ActionNotImplemented},
		{Name: "capture_and_analyze", Action: ActionNotImplemented},
		{Name: "move_mouse", Action: ActionNotImplemented},
		{Name: "click_mouse", Action: ActionNotImplemented},
		{Name: "drag_mouse", Action: ActionNotImplemented},
		{Name: "scroll_mouse", Action: ActionNotImplemented},
		{Name: "execute_action", Action: ActionNotImplemented},
	}
}
