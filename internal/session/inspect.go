package session

import (
	"fmt"
	"time"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
	"github.com/wallter/smart-xdebug-mcp/internal/inspect"
)

// InspectVariable runs the variable inspection pipeline: depth clamping,
// property_get, ledger recording against the current step, and finally
// either a structural summary or a surgical filter evaluation.
func (r *Runtime) InspectVariable(name string, filter string, depth int) (interface{}, *bridgeerr.BridgeError) {
	if depth <= 0 {
		depth = 1
	}
	if depth > 3 {
		return nil, bridgeerr.Validation(fmt.Sprintf("depth must be <= 3 (agent-facing contract), got %d", depth))
	}
	clamped := depth
	if clamped > r.cfg.MaxDepth {
		clamped = r.cfg.MaxDepth
	}

	r.touch()

	r.mu.Lock()
	sess := r.session
	link := r.link
	r.mu.Unlock()

	if sess == nil || sess.Status == statusPending {
		return nil, bridgeerr.NoSession()
	}
	if sess.Status != StatusPaused {
		return nil, bridgeerr.NotPaused()
	}

	ctx, cancel := r.cmdTimeout()
	defer cancel()

	vi, err := link.GetProperty(ctx, name, clamped, r.cfg.DefaultMaxChildren)
	if err != nil {
		if bridgeErr, ok := err.(*bridgeerr.BridgeError); ok {
			return nil, bridgeErr
		}
		return nil, bridgeerr.Unknown(err.Error())
	}
	if vi == nil {
		return &InspectNotFoundResult{
			Variable: name,
			Found:    false,
			Message:  fmt.Sprintf("variable %s not found in the current scope", name),
			Hint:     "check the variable name and that the session is paused at the expected frame",
		}, nil
	}

	r.mu.Lock()
	step := sess.StepNumber
	loc := sess.Location
	r.mu.Unlock()

	plain := inspect.ToPlain(vi)
	if loc != nil {
		_ = r.store.RecordVariable(sess.ID, step, loc.File, loc.Line, name, plain)
	}

	if filter != "" {
		value, ferr := inspect.Evaluate(plain, filter)
		if ferr != nil {
			ferr.Variable = name
			ferr.Type = vi.Type
			return ferr, nil
		}
		return &InspectFilteredResult{
			Variable:  name,
			Filter:    filter,
			Type:      vi.Type,
			Value:     value,
			Truncated: false,
		}, nil
	}

	if len(vi.Children) == 0 {
		return &InspectFilteredResult{
			Variable:  name,
			Filter:    "",
			Type:      vi.Type,
			Value:     vi.Value,
			Truncated: vi.Truncated,
		}, nil
	}

	structure := inspect.Summarize(vi)
	return &InspectStructuralResult{
		Variable:  name,
		Type:      vi.Type,
		ClassName: vi.ClassName,
		Structure: structure,
	}, nil
}

// GetHistory implements query_history: steps_ago=0 is current step
// inclusive.
func (r *Runtime) GetHistory(name string, stepsAgo, limit int) (*QueryHistoryResult, *bridgeerr.BridgeError) {
	r.touch()

	r.mu.Lock()
	sess := r.session
	r.mu.Unlock()

	if sess == nil || sess.Status == statusPending {
		return nil, bridgeerr.NoSession()
	}
	if limit <= 0 {
		limit = 5
	}
	if limit > 20 {
		limit = 20
	}

	r.mu.Lock()
	fromStep := sess.StepNumber - stepsAgo
	r.mu.Unlock()
	if fromStep < 1 {
		return &QueryHistoryResult{Variable: name, StepsAgo: stepsAgo, History: nil, Message: "no steps recorded yet at that offset"}, nil
	}

	entries, err := r.store.GetVariableHistory(sess.ID, name, fromStep, limit)
	if err != nil {
		return nil, bridgeerr.Unknown(err.Error())
	}

	out := make([]HistoryEntryOut, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryOut{
			Step:      e.StepNumber,
			Value:     e.Value,
			Location:  LocationOut{File: e.File, Line: e.Line},
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
		})
	}

	return &QueryHistoryResult{
		Variable: name,
		StepsAgo: stepsAgo,
		History:  out,
		Message:  fmt.Sprintf("%d historical value(s) found", len(out)),
	}, nil
}

// GetSessionStatus implements get_session_status.
func (r *Runtime) GetSessionStatus() *SessionStatusResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || r.session.Status == statusPending {
		return &SessionStatusResult{Active: false, AvailableActions: []string{}}
	}

	sess := r.session
	var bps *BreakpointsOut
	if len(sess.Breakpoints) > 0 {
		list := make([]BreakpointListEntry, 0, len(sess.Breakpoints))
		for _, bp := range sess.Breakpoints {
			list = append(list, BreakpointListEntry{File: bp.LocalFile, Line: bp.Line, Condition: bp.Condition})
		}
		bps = &BreakpointsOut{Count: len(list), List: list}
	}

	return &SessionStatusResult{
		Active:           true,
		SessionID:        sess.ID,
		Status:           string(sess.Status),
		StartedAt:        sess.StartedAt.Format(time.RFC3339Nano),
		LastActivity:     sess.LastActivityAt.Format(time.RFC3339Nano),
		Location:         locationOut(sess.Location),
		CodeSnippet:      sess.CodeSnippet,
		PauseReason:      string(sess.PauseReason),
		Breakpoints:      bps,
		AvailableActions: AvailableActions(sess.Status),
	}
}
