package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
)

func (s *Server) registerSetBreakpoint() {
	tool := mcp.NewTool("set_breakpoint",
		mcp.WithDescription("Set a breakpoint at a file:line, optionally conditional. Can be called before or after start_debug_session."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Local path to the source file")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line number")),
		mcp.WithString("condition", mcp.Description("Optional conditional expression in the debuggee's language")),
	)
	s.mcpServer.AddTool(tool, s.handleSetBreakpoint)
}

func (s *Server) handleSetBreakpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	file, _ := args["file"].(string)
	line := intArg(args, "line")
	condition, _ := args["condition"].(string)

	if file == "" {
		return asToolResult(nil, bridgeerr.Validation("file is required"))
	}
	if line < 1 {
		return asToolResult(nil, bridgeerr.Validation("line must be >= 1"))
	}

	result, err := s.runtime.SetBreakpoint(file, line, condition)
	return asToolResult(result, err)
}

func (s *Server) registerStartDebugSession() {
	tool := mcp.NewTool("start_debug_session",
		mcp.WithDescription("Start a debug session: spawns the trigger command and listens for the debuggee to connect."),
		mcp.WithString("command", mcp.Required(), mcp.Description("Trigger command to execute, e.g. a curl against the target endpoint")),
		mcp.WithBoolean("stop_on_entry", mcp.Description("Pause on the first executable line")),
		mcp.WithBoolean("stop_on_exception", mcp.Description("Pause on any thrown exception")),
		mcp.WithString("working_directory", mcp.Description("Working directory for the trigger command")),
	)
	s.mcpServer.AddTool(tool, s.handleStartDebugSession)
}

func (s *Server) handleStartDebugSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	command, _ := args["command"].(string)
	stopOnEntry, _ := args["stop_on_entry"].(bool)
	stopOnException, _ := args["stop_on_exception"].(bool)
	workingDirectory, _ := args["working_directory"].(string)

	if command == "" {
		return asToolResult(nil, bridgeerr.Validation("command is required"))
	}

	result, err := s.runtime.StartSession(command, stopOnEntry, stopOnException, workingDirectory)
	return asToolResult(result, err)
}

func (s *Server) registerControlExecution() {
	tool := mcp.NewTool("control_execution",
		mcp.WithDescription("Control a paused or running debug session: step, continue, or stop."),
		mcp.WithString("action", mcp.Required(), mcp.Description("One of step_over, step_into, step_out, continue, stop")),
	)
	s.mcpServer.AddTool(tool, s.handleControlExecution)
}

func (s *Server) handleControlExecution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	action, _ := args["action"].(string)

	switch action {
	case "step_over", "step_into", "step_out", "continue", "stop":
	default:
		return asToolResult(nil, bridgeerr.Validation("action must be one of step_over, step_into, step_out, continue, stop"))
	}

	result, err := s.runtime.ControlExecution(action)
	return asToolResult(result, err)
}

func (s *Server) registerInspectVariable() {
	tool := mcp.NewTool("inspect_variable",
		mcp.WithDescription("Inspect a variable in the paused debuggee. Without a filter, returns a budget-preserving structural summary; with a filter, returns the exact filtered value."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Variable name, e.g. $order")),
		mcp.WithString("filter", mcp.Description("Path-query expression, e.g. $.items[*].sku")),
		mcp.WithNumber("depth", mcp.Description("Recursion depth, 1-3 (default 1)")),
	)
	s.mcpServer.AddTool(tool, s.handleInspectVariable)
}

func (s *Server) handleInspectVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	filter, _ := args["filter"].(string)
	depth := intArg(args, "depth")
	if depth == 0 {
		depth = 1
	}

	if name == "" {
		return asToolResult(nil, bridgeerr.Validation("name is required"))
	}

	result, err := s.runtime.InspectVariable(name, filter, depth)
	return asToolResult(result, err)
}

func (s *Server) registerGetSessionStatus() {
	tool := mcp.NewTool("get_session_status",
		mcp.WithDescription("Get the current debug session status, location, and available actions."),
	)
	s.mcpServer.AddTool(tool, s.handleGetSessionStatus)
}

func (s *Server) handleGetSessionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.runtime.GetSessionStatus()
	return asToolResult(result, nil)
}

func (s *Server) registerQueryHistory() {
	tool := mcp.NewTool("query_history",
		mcp.WithDescription("Query the recorded history of a variable's value across past steps (time-travel)."),
		mcp.WithString("variable_name", mcp.Required(), mcp.Description("Variable name, e.g. $state")),
		mcp.WithNumber("steps_ago", mcp.Description("0 = current step inclusive (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Max entries to return, 1-20 (default 5)")),
	)
	s.mcpServer.AddTool(tool, s.handleQueryHistory)
}

func (s *Server) handleQueryHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	variableName, _ := args["variable_name"].(string)
	stepsAgo := intArgDefault(args, "steps_ago", 1)
	limit := intArgDefault(args, "limit", 5)

	if variableName == "" {
		return asToolResult(nil, bridgeerr.Validation("variable_name is required"))
	}
	if stepsAgo < 0 {
		return asToolResult(nil, bridgeerr.Validation("steps_ago must be >= 0"))
	}

	result, err := s.runtime.GetHistory(variableName, stepsAgo, limit)
	return asToolResult(result, err)
}

func intArg(args map[string]interface{}, key string) int {
	return intArgDefault(args, key, 0)
}

func intArgDefault(args map[string]interface{}, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}
