// Package mcptools implements the agent-facing tool dispatch layer: thin
// contract translation between MCP tool calls and the session runtime.
// No protocol or state logic lives here — every handler decodes
// arguments, calls exactly one Runtime method, and encodes the result or
// *bridgeerr.BridgeError back into the documented shape.
package mcptools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
	"github.com/wallter/smart-xdebug-mcp/internal/session"
)

// Server binds a session.Runtime to an MCP server exposing the six
// debugging tools.
type Server struct {
	mcpServer *server.MCPServer
	runtime   *session.Runtime
}

// New constructs the MCP server and registers its tools.
func New(runtime *session.Runtime) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("smart-xdebug-mcp", "1.0.0"),
		runtime:   runtime,
	}
	s.registerTools()
	return s
}

// ServeStdio runs the MCP server over stdio until the transport closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.registerSetBreakpoint()
	s.registerStartDebugSession()
	s.registerControlExecution()
	s.registerInspectVariable()
	s.registerGetSessionStatus()
	s.registerQueryHistory()
}

// errorEnvelope is the standard {error, code, recoverable, hint?, issues?}
// shape every tool failure is encoded into.
type errorEnvelope struct {
	Error         string   `json:"error"`
	Code          string   `json:"code"`
	Recoverable   bool     `json:"recoverable"`
	Hint          string   `json:"hint,omitempty"`
	Issues        []string `json:"issues,omitempty"`
	AvailableKeys []string `json:"available_keys,omitempty"`
}

func toEnvelope(be *bridgeerr.BridgeError) errorEnvelope {
	return errorEnvelope{
		Error:         be.Message,
		Code:          string(be.Code),
		Recoverable:   be.Recoverable,
		Hint:          be.Hint,
		Issues:        be.Issues,
		AvailableKeys: be.AvailableKeys,
	}
}

// asToolResult marshals either a success payload or a BridgeError into
// the matching envelope, as mcp.CallToolResult text content.
func asToolResult(payload interface{}, be *bridgeerr.BridgeError) (*mcp.CallToolResult, error) {
	var out interface{} = payload
	if be != nil {
		out = toEnvelope(be)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
