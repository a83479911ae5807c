package dbgplink

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

func TestMapReason(t *testing.T) {
	cases := map[string]string{
		"ok":        "step_complete",
		"error":     "exception",
		"exception": "exception",
		"breakpoint": "breakpoint_hit",
		"":          "breakpoint_hit",
	}
	for raw, want := range cases {
		if got := mapReason(raw); got != want {
			t.Errorf("mapReason(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestLinkListenBindsWithinRange(t *testing.T) {
	l := New()
	defer l.Close()

	port, err := l.Listen(19341, 19345)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if port < 19341 || port > 19345 {
		t.Errorf("Listen returned port %d, want within [19341, 19345]", port)
	}
	if l.Port() != port {
		t.Errorf("Port() = %d, want %d", l.Port(), port)
	}
}

func frameBytes(xmlPayload string) []byte {
	return []byte(fmt.Sprintf("%d\x00%s\x00", len(xmlPayload), xmlPayload))
}

// TestLinkRoundTripSendCommandAndBreakEvent exercises the real socket path:
// a loopback TCP connection stands in for the debuggee, issuing the wire
// bytes a live XDebug engine would send.
func TestLinkRoundTripSendCommandAndBreakEvent(t *testing.T) {
	link := New()
	defer link.Close()

	port, err := link.Listen(19351, 19360)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	acceptErrCh := make(chan error, 1)
	go func() {
		acceptErrCh <- link.WaitForConnection(ctx)
	}()

	debuggeeConn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer debuggeeConn.Close()

	if err := <-acceptErrCh; err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	initXML := `<init xmlns="urn:debugger_protocol_v1" fileuri="file:///a.php"/>`
	if _, err := debuggeeConn.Write(frameBytes(initXML)); err != nil {
		t.Fatalf("writing init frame: %v", err)
	}

	cmdCtx, cmdCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cmdCancel()

	type cmdResult struct {
		err error
	}
	resultCh := make(chan cmdResult, 1)
	go func() {
		_, err := link.SendCommand(cmdCtx, "step_over", nil, nil)
		resultCh <- cmdResult{err: err}
	}()

	buf := make([]byte, 256)
	debuggeeConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := debuggeeConn.Read(buf)
	if err != nil {
		t.Fatalf("reading command from the link: %v", err)
	}
	received := string(buf[:n])
	if !strings.HasPrefix(received, "step_over -i 1") {
		t.Fatalf("unexpected command wire form: %q", received)
	}
	if received[len(received)-1] != 0 {
		t.Errorf("command not NUL-terminated: %q", received)
	}

	respXML := `<response xmlns="urn:debugger_protocol_v1" command="step_over" transaction_id="1" status="break" reason="ok"><message filename="file:///a.php" lineno="12"/></response>`
	if _, err := debuggeeConn.Write(frameBytes(respXML)); err != nil {
		t.Fatalf("writing response frame: %v", err)
	}

	select {
	case r := <-resultCh:
		if r.err != nil {
			t.Fatalf("SendCommand returned an error: %v", r.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for SendCommand to resolve")
	}

	ev, err := link.WaitForBreak(context.Background())
	if err != nil {
		t.Fatalf("WaitForBreak: %v", err)
	}
	if ev.Line != 12 {
		t.Errorf("ev.Line = %d, want 12", ev.Line)
	}
	if ev.Reason != "step_complete" {
		t.Errorf("ev.Reason = %q, want step_complete", ev.Reason)
	}
	if ev.RemoteFile != "/a.php" {
		t.Errorf("ev.RemoteFile = %q, want /a.php", ev.RemoteFile)
	}
}

func TestLinkSendCommandWithoutConnectionFails(t *testing.T) {
	link := New()
	defer link.Close()

	_, err := link.SendCommand(context.Background(), "status", nil, nil)
	if err == nil {
		t.Fatalf("expected an error when sending before any connection is established")
	}
}

func TestLinkCloseIsIdempotent(t *testing.T) {
	link := New()
	if _, err := link.Listen(19361, 19365); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if err := link.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := link.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
