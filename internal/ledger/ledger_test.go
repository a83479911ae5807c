package ledger

import (
	"strings"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestInitSessionIsIdempotent(t *testing.T) {
	l := openTestLedger(t)
	if err := l.InitSession("s1"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if err := l.InitSession("s1"); err != nil {
		t.Fatalf("InitSession (repeat): %v", err)
	}
	h, err := l.GetHeader("s1")
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	if h.TotalSteps != 0 {
		t.Errorf("TotalSteps = %d, want 0 for a fresh session", h.TotalSteps)
	}
}

func TestRecordStepIncrementsCounters(t *testing.T) {
	l := openTestLedger(t)
	if err := l.InitSession("s1"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}

	if err := l.RecordStep("s1", 1, "/a.php", 10, "main", "breakpoint_hit"); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	if err := l.RecordStep("s1", 2, "/a.php", 20, "main", "exception"); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}

	h, err := l.GetHeader("s1")
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	if h.TotalSteps != 2 {
		t.Errorf("TotalSteps = %d, want 2", h.TotalSteps)
	}
	if h.BreakpointsHit != 1 {
		t.Errorf("BreakpointsHit = %d, want 1", h.BreakpointsHit)
	}
	if h.ExceptionsThrown != 1 {
		t.Errorf("ExceptionsThrown = %d, want 1", h.ExceptionsThrown)
	}
}

func TestGetVariableHistoryOrderingAndOffset(t *testing.T) {
	l := openTestLedger(t)
	if err := l.InitSession("s1"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	for step := 1; step <= 3; step++ {
		if err := l.RecordVariable("s1", step, "/a.php", step, "$x", step*10); err != nil {
			t.Fatalf("RecordVariable(step=%d): %v", step, err)
		}
	}

	entries, err := l.GetVariableHistory("s1", "$x", 3, 10)
	if err != nil {
		t.Fatalf("GetVariableHistory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []int{3, 2, 1} {
		if entries[i].StepNumber != want {
			t.Errorf("entries[%d].StepNumber = %d, want %d (descending order)", i, entries[i].StepNumber, want)
		}
	}

	// fromStep=2 should exclude step 3.
	entries, err = l.GetVariableHistory("s1", "$x", 2, 10)
	if err != nil {
		t.Fatalf("GetVariableHistory: %v", err)
	}
	if len(entries) != 2 || entries[0].StepNumber != 2 {
		t.Fatalf("got %+v, want steps [2, 1]", entries)
	}
}

func TestFinalizeSessionWritesSummary(t *testing.T) {
	l := openTestLedger(t)
	if err := l.InitSession("s1"); err != nil {
		t.Fatalf("InitSession: %v", err)
	}
	if err := l.RecordStep("s1", 1, "/a.php", 10, "main", "breakpoint_hit"); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}

	path, err := l.FinalizeSession("s1")
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if !strings.Contains(path, "session_s1") {
		t.Errorf("summary path = %q, want it to contain the session id prefix", path)
	}

	h, err := l.GetHeader("s1")
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	if h.EndedAt == nil {
		t.Fatalf("expected ended_at to be set after finalize")
	}
	if !strings.Contains(h.SummaryMD, "Total steps") {
		t.Errorf("summary missing expected section: %q", h.SummaryMD)
	}
}
