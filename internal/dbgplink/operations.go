package dbgplink

import (
	"context"
	"strconv"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
)

// dbgpErrNotFound is the DBGp protocol error code for "property does not
// exist", which GetProperty converts to a structured nil rather than an
// error.
const dbgpErrNotFound = 300

// BreakpointSpec is the input to SetBreakpoint.
type BreakpointSpec struct {
	Type       string // "line", "exception", "conditional"
	Filename   string // remote file URI or path, for line/conditional
	Lineno     int
	Function   string
	Exception  string
	Expression string // condition expression, base64-encoded as a command payload
}

// SetBreakpoint wraps breakpoint_set, encoding the filename as a file:// URI
// and the condition expression as a base64 payload.
func (l *Link) SetBreakpoint(ctx context.Context, spec BreakpointSpec) (string, error) {
	typ := spec.Type
	if typ == "" {
		typ = "line"
	}
	flags := []dbgpcodec.Flag{{Letter: "t", Value: typ}}
	if spec.Filename != "" {
		flags = append(flags, dbgpcodec.Flag{Letter: "f", Value: "file://" + spec.Filename})
	}
	if spec.Lineno > 0 {
		flags = append(flags, dbgpcodec.Flag{Letter: "n", Value: strconv.Itoa(spec.Lineno)})
	}
	if spec.Exception != "" {
		flags = append(flags, dbgpcodec.Flag{Letter: "x", Value: spec.Exception})
	}

	var payload *string
	if spec.Expression != "" {
		payload = &spec.Expression
	}

	root, err := l.SendCommand(ctx, "breakpoint_set", flags, payload)
	if err != nil {
		return "", err
	}
	id, _ := root.Attr("id")
	return id, nil
}

// RemoveBreakpoint wraps breakpoint_remove.
func (l *Link) RemoveBreakpoint(ctx context.Context, id string) error {
	_, err := l.SendCommand(ctx, "breakpoint_remove", []dbgpcodec.Flag{{Letter: "d", Value: id}}, nil)
	return err
}

// GetProperty wraps property_get. It returns (nil, nil) when the debuggee
// reports DBGp error 300 (not found).
func (l *Link) GetProperty(ctx context.Context, name string, depth, maxChildren int) (*dbgpcodec.VariableInfo, error) {
	flags := []dbgpcodec.Flag{
		{Letter: "n", Value: name},
		{Letter: "d", Value: strconv.Itoa(depth)},
		{Letter: "m", Value: strconv.Itoa(maxChildren)},
	}
	root, err := l.SendCommand(ctx, "property_get", flags, nil)
	if err != nil {
		if bridgeerr.IsPropertyNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	prop := root.Find("property")
	if prop == nil {
		return nil, nil
	}
	return dbgpcodec.DecodeProperty(prop), nil
}

// GetContextVariables wraps context_get.
func (l *Link) GetContextVariables(ctx context.Context, contextID, depth int) ([]*dbgpcodec.VariableInfo, error) {
	flags := []dbgpcodec.Flag{
		{Letter: "c", Value: strconv.Itoa(contextID)},
		{Letter: "d", Value: strconv.Itoa(depth)},
	}
	root, err := l.SendCommand(ctx, "context_get", flags, nil)
	if err != nil {
		return nil, err
	}
	var out []*dbgpcodec.VariableInfo
	for _, prop := range root.FindAll("property") {
		out = append(out, dbgpcodec.DecodeProperty(prop))
	}
	return out, nil
}

// StackFrame mirrors one <stack> entry from stack_get.
type StackFrame struct {
	Level    int
	Type     string
	Filename string
	Lineno   int
	Where    string
	CmdBegin string
}

// GetStackFrames wraps stack_get.
func (l *Link) GetStackFrames(ctx context.Context) ([]StackFrame, error) {
	root, err := l.SendCommand(ctx, "stack_get", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []StackFrame
	for _, s := range root.FindAll("stack") {
		var f StackFrame
		if lvl, ok := s.Attr("level"); ok {
			f.Level, _ = strconv.Atoi(lvl)
		}
		f.Type, _ = s.Attr("type")
		if fn, ok := s.Attr("filename"); ok {
			f.Filename = dbgpcodec.DecodeFileURI(fn)
		}
		if ln, ok := s.Attr("lineno"); ok {
			f.Lineno, _ = strconv.Atoi(ln)
		}
		f.Where, _ = s.Attr("where")
		f.CmdBegin, _ = s.Attr("cmdbegin")
		out = append(out, f)
	}
	return out, nil
}

// Evaluate wraps eval.
func (l *Link) Evaluate(ctx context.Context, expr string) (*dbgpcodec.VariableInfo, error) {
	payload := expr
	root, err := l.SendCommand(ctx, "eval", nil, &payload)
	if err != nil {
		return nil, err
	}
	prop := root.Find("property")
	if prop == nil {
		return nil, nil
	}
	return dbgpcodec.DecodeProperty(prop), nil
}

// SetFeature wraps feature_set and records the acknowledged value in the
// feature table.
func (l *Link) SetFeature(ctx context.Context, name, value string) error {
	flags := []dbgpcodec.Flag{{Letter: "n", Value: name}, {Letter: "v", Value: value}}
	_, err := l.SendCommand(ctx, "feature_set", flags, nil)
	if err == nil {
		l.features.record(name, value)
	}
	return err
}

// Feature returns a previously acknowledged feature value, if any.
func (l *Link) Feature(name string) (string, bool) {
	return l.features.get(name)
}

// BreakOnException wraps breakpoint_set -t exception -x <name>.
func (l *Link) BreakOnException(ctx context.Context, name string) error {
	_, err := l.SetBreakpoint(ctx, BreakpointSpec{Type: "exception", Exception: name})
	return err
}

// Run, StepOver, StepInto, StepOut, Stop issue the named stepping
// command and return its parsed response (the response to these commands
// carries the same break/stopped status as an unsolicited event; the
// caller observes it via WaitForBreak/Closed rather than this return
// value directly, but the raw node is returned for diagnostics).
func (l *Link) Run(ctx context.Context) (*dbgpcodec.Node, error) {
	return l.SendCommand(ctx, "run", nil, nil)
}

func (l *Link) StepOver(ctx context.Context) (*dbgpcodec.Node, error) {
	return l.SendCommand(ctx, "step_over", nil, nil)
}

func (l *Link) StepInto(ctx context.Context) (*dbgpcodec.Node, error) {
	return l.SendCommand(ctx, "step_into", nil, nil)
}

func (l *Link) StepOut(ctx context.Context) (*dbgpcodec.Node, error) {
	return l.SendCommand(ctx, "step_out", nil, nil)
}

func (l *Link) Stop(ctx context.Context) (*dbgpcodec.Node, error) {
	return l.SendCommand(ctx, "stop", nil, nil)
}
