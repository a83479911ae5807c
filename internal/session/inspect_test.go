package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadSnippetReturnsThreeLineWindow(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.php")
	content := "line1\nline2\nline3\nline4\nline5\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	snippet := readSnippet(file, 3)
	if !strings.Contains(snippet, "> 3: line3") {
		t.Errorf("snippet missing marked current line: %q", snippet)
	}
	if !strings.Contains(snippet, "2: line2") || !strings.Contains(snippet, "4: line4") {
		t.Errorf("snippet missing context lines: %q", snippet)
	}
	if strings.Contains(snippet, "line1") || strings.Contains(snippet, "line5") {
		t.Errorf("snippet should only contain a 3-line window: %q", snippet)
	}
}

func TestReadSnippetMissingFileReturnsEmpty(t *testing.T) {
	if got := readSnippet("/no/such/file.php", 1); got != "" {
		t.Errorf("readSnippet(missing file) = %q, want empty string", got)
	}
}

func TestInspectVariableRequiresSession(t *testing.T) {
	rt := newTestRuntime(t)
	_, ferr := rt.InspectVariable("$x", "", 1)
	if ferr == nil {
		t.Fatalf("expected an error with no session")
	}
	if ferr.Code != "NO_ACTIVE_SESSION" {
		t.Errorf("Code = %q, want NO_ACTIVE_SESSION", ferr.Code)
	}
}

func TestInspectVariableRejectsDepthAboveThree(t *testing.T) {
	rt := newTestRuntime(t)
	rt.mu.Lock()
	rt.session = newSession("s1")
	rt.session.Status = StatusPaused
	rt.mu.Unlock()

	_, ferr := rt.InspectVariable("$x", "", 4)
	if ferr == nil {
		t.Fatalf("expected an error for depth > 3")
	}
	if ferr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", ferr.Code)
	}
}

func TestInspectVariableRequiresPausedStatus(t *testing.T) {
	rt := newTestRuntime(t)
	rt.mu.Lock()
	rt.session = newSession("s1")
	rt.session.Status = StatusRunning
	rt.mu.Unlock()

	_, ferr := rt.InspectVariable("$x", "", 1)
	if ferr == nil {
		t.Fatalf("expected an error when not paused")
	}
	if ferr.Code != "SESSION_NOT_PAUSED" {
		t.Errorf("Code = %q, want SESSION_NOT_PAUSED", ferr.Code)
	}
}

func TestGetHistoryRequiresSession(t *testing.T) {
	rt := newTestRuntime(t)
	_, ferr := rt.GetHistory("$x", 1, 5)
	if ferr == nil {
		t.Fatalf("expected an error with no session")
	}
	if ferr.Code != "NO_ACTIVE_SESSION" {
		t.Errorf("Code = %q, want NO_ACTIVE_SESSION", ferr.Code)
	}
}

func TestGetHistoryBeforeAnyStepsReturnsEmptyMessage(t *testing.T) {
	rt := newTestRuntime(t)
	rt.mu.Lock()
	rt.session = newSession("s1")
	rt.session.Status = StatusPaused
	rt.mu.Unlock()

	res, ferr := rt.GetHistory("$x", 5, 5)
	if ferr != nil {
		t.Fatalf("GetHistory: %+v", ferr)
	}
	if len(res.History) != 0 {
		t.Errorf("expected no history entries before any steps, got %v", res.History)
	}
}

func TestGetSessionStatusInactiveWhenNoSession(t *testing.T) {
	rt := newTestRuntime(t)
	status := rt.GetSessionStatus()
	if status.Active {
		t.Errorf("Active = true, want false with no session")
	}
	if len(status.AvailableActions) != 0 {
		t.Errorf("AvailableActions = %v, want empty", status.AvailableActions)
	}
}

func TestGetSessionStatusInactiveWhenPending(t *testing.T) {
	rt := newTestRuntime(t)
	rt.mu.Lock()
	rt.session = newSession("pending")
	rt.mu.Unlock()

	status := rt.GetSessionStatus()
	if status.Active {
		t.Errorf("Active = true, want false for a pending session")
	}
}

func TestGetSessionStatusReportsActiveSessionDetails(t *testing.T) {
	rt := newTestRuntime(t)
	rt.mu.Lock()
	rt.session = newSession("s1")
	rt.session.Status = StatusPaused
	rt.session.Breakpoints[BreakpointKey{File: "/a.php", Line: 10}] = &Breakpoint{LocalFile: "/a.php", Line: 10}
	rt.mu.Unlock()

	status := rt.GetSessionStatus()
	if !status.Active {
		t.Fatalf("Active = false, want true")
	}
	if status.SessionID != "s1" {
		t.Errorf("SessionID = %q, want s1", status.SessionID)
	}
	if status.Breakpoints == nil || status.Breakpoints.Count != 1 {
		t.Errorf("Breakpoints = %+v, want a single entry", status.Breakpoints)
	}
	wantActions := AvailableActions(StatusPaused)
	if len(status.AvailableActions) != len(wantActions) {
		t.Errorf("AvailableActions = %v, want %v", status.AvailableActions, wantActions)
	}
}
