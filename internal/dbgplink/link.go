// Package dbgplink implements the DBGp link: the TCP listener that
// accepts the debuggee's inbound connection, the trigger process
// lifecycle, transaction-correlated command dispatch, and event dispatch
// for break/stopped notifications. It is the only package that ever
// touches the raw socket or the XML parser state — callers only see the
// awaitable surfaces documented below.
package dbgplink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
	"github.com/wallter/smart-xdebug-mcp/internal/dbgpcodec"
	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

// BreakEvent carries the data of a `break`-status response, whether it
// arrived as the response to a stepping command or as an unsolicited
// status push.
type BreakEvent struct {
	RemoteFile string
	Line       int
	Reason     string // mapped reason: breakpoint_hit, step_complete, or exception
	RawReason  string // the debuggee's literal, unmapped reason string
	Exception  *ExceptionInfo
}

// ExceptionInfo is populated when the break response carries an
// "exception" attribute.
type ExceptionInfo struct {
	Name    string
	Message string
}

type pendingCmd struct {
	resolve chan *dbgpcodec.Node
}

// Link owns one TCP listener/connection pair for the lifetime of a single
// session. It is created per session and destroyed with it; never shared.
type Link struct {
	writeMu sync.Mutex
	connMu  sync.RWMutex

	listener net.Listener
	conn     net.Conn
	port     int

	txSeq   int64
	pending sync.Map // int -> *pendingCmd

	breakCh chan BreakEvent
	closeCh chan struct{}
	closeOnce sync.Once

	trigger  *triggerProcess
	features *featureTable
}

// New constructs an unconnected Link.
func New() *Link {
	return &Link{
		breakCh:  make(chan BreakEvent, 8),
		closeCh:  make(chan struct{}),
		features: newFeatureTable(),
	}
}

// Listen binds on the configured base port, retrying sequentially through
// [basePort, rangeEnd] on EADDRINUSE. The actually bound port is returned;
// any sockets opened during the walk that were not the final bind are
// closed before returning.
func (l *Link) Listen(basePort, rangeEnd int) (int, error) {
	for port := basePort; port <= rangeEnd; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			l.listener = ln
			l.port = port
			return port, nil
		}
		if !isAddrInUse(err) {
			return 0, bridgeerr.New(bridgeerr.UnknownError, false, err.Error(), "check network configuration")
		}
	}
	return 0, bridgeerr.NoPort()
}

// Port returns the bound port (valid after a successful Listen).
func (l *Link) Port() int {
	return l.port
}

// WaitForConnection blocks until the debuggee dials in, or timeout
// elapses.
func (l *Link) WaitForConnection(ctx context.Context) error {
	type acceptResult struct {
		conn net.Conn
		err  error
	}
	ch := make(chan acceptResult, 1)
	go func() {
		conn, err := l.listener.Accept()
		ch <- acceptResult{conn, err}
	}()

	select {
	case <-ctx.Done():
		return bridgeerr.Timeout("the debuggee never dialed into the configured port; check XDEBUG_CONFIG on the debuggee")
	case r := <-ch:
		if r.err != nil {
			return bridgeerr.New(bridgeerr.UnknownError, false, r.err.Error(), "")
		}
		l.connMu.Lock()
		l.conn = r.conn
		l.connMu.Unlock()
		go l.readLoop(r.conn)
		return nil
	}
}

func (l *Link) readLoop(conn net.Conn) {
	var dec dbgpcodec.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, msg := range dec.Feed(buf[:n]) {
				l.handleMessage(msg)
			}
		}
		if err != nil {
			l.signalClosed()
			return
		}
	}
}

func (l *Link) handleMessage(raw []byte) {
	xlog.Inbound("debuggee -> bridge: %s", xlog.Truncate(string(raw), 300))

	root, err := dbgpcodec.ParseXML(raw)
	if err != nil {
		xlog.Warn("dbgplink: malformed XML frame ignored: %v", err)
		return
	}

	if root.Name == "init" {
		xlog.Inbound("dbgplink: received <init> from debuggee")
		return
	}
	if root.Name != "response" {
		return
	}

	meta := dbgpcodec.ParseResponseMeta(root)

	if meta.TransactionID >= 0 {
		if v, ok := l.pending.LoadAndDelete(meta.TransactionID); ok {
			v.(*pendingCmd).resolve <- root
		}
	}

	switch meta.Status {
	case "break":
		l.emitBreak(root, meta)
	case "stopped":
		l.signalClosed()
	}
}

func (l *Link) emitBreak(root *dbgpcodec.Node, meta dbgpcodec.ResponseMeta) {
	var remoteFile string
	var line int
	var exc *ExceptionInfo

	if msgNode := root.Find("message"); msgNode != nil {
		if fn, ok := msgNode.Attr("filename"); ok {
			remoteFile = dbgpcodec.DecodeFileURI(fn)
		}
		if ln, ok := msgNode.Attr("lineno"); ok {
			line, _ = strconv.Atoi(ln)
		}
	}
	if excName, ok := root.Attr("exception"); ok {
		msg := ""
		if m, ok := root.Attr("message"); ok {
			msg = m
		}
		exc = &ExceptionInfo{Name: excName, Message: msg}
	}

	ev := BreakEvent{
		RemoteFile: remoteFile,
		Line:       line,
		Reason:     mapReason(meta.Reason),
		RawReason:  meta.Reason,
		Exception:  exc,
	}

	select {
	case l.breakCh <- ev:
	default:
		xlog.Warn("dbgplink: break event channel full, dropping oldest")
		select {
		case <-l.breakCh:
		default:
		}
		l.breakCh <- ev
	}
}

func mapReason(raw string) string {
	switch raw {
	case "ok":
		return "step_complete"
	case "error", "exception":
		return "exception"
	default:
		return "breakpoint_hit"
	}
}

// WaitForBreak resolves on the next break event, or fails with *timeout*
// or *not-connected*.
func (l *Link) WaitForBreak(ctx context.Context) (BreakEvent, error) {
	select {
	case ev := <-l.breakCh:
		return ev, nil
	case <-l.closeCh:
		return BreakEvent{}, bridgeerr.NotConnectedErr()
	case <-ctx.Done():
		return BreakEvent{}, bridgeerr.Timeout("no break observed before the timeout; execution may simply be ongoing")
	}
}

// Closed returns a channel closed once the connection has gone away.
func (l *Link) Closed() <-chan struct{} {
	return l.closeCh
}

func (l *Link) signalClosed() {
	l.closeOnce.Do(func() {
		close(l.closeCh)
		l.pending.Range(func(key, value interface{}) bool {
			l.pending.Delete(key)
			close(value.(*pendingCmd).resolve)
			return true
		})
	})
}

// SendCommand issues a command and awaits its correlated response. Fails
// with *timeout*, *not-connected*, or *dbgp(code)*.
func (l *Link) SendCommand(ctx context.Context, verb string, flags []dbgpcodec.Flag, payload *string) (*dbgpcodec.Node, error) {
	l.connMu.RLock()
	conn := l.conn
	l.connMu.RUnlock()
	if conn == nil {
		return nil, bridgeerr.NotConnectedErr()
	}

	select {
	case <-l.closeCh:
		return nil, bridgeerr.NotConnectedErr()
	default:
	}

	txid := int(atomic.AddInt64(&l.txSeq, 1))
	cmd := dbgpcodec.Command{Verb: verb, Txid: txid, Flags: flags, Payload: payload}
	wire := cmd.Encode()

	waiter := &pendingCmd{resolve: make(chan *dbgpcodec.Node, 1)}
	l.pending.Store(txid, waiter)

	l.writeMu.Lock()
	xlog.Outbound("bridge -> debuggee: %s", xlog.Truncate(string(wire), 300))
	_, err := conn.Write(wire)
	l.writeMu.Unlock()
	if err != nil {
		l.pending.Delete(txid)
		return nil, bridgeerr.NotConnectedErr()
	}

	select {
	case root, ok := <-waiter.resolve:
		if !ok {
			return nil, bridgeerr.NotConnectedErr()
		}
		if errInfo, hasErr := dbgpcodec.FindError(root); hasErr {
			return nil, bridgeerr.DBGP(errInfo.Code, errInfo.Message)
		}
		return root, nil
	case <-ctx.Done():
		// The command remains pending: it resolves later (discarded) or
		// the session stop path tears everything down. We do not remove
		// the waiter here so a late response can still be matched.
		return nil, bridgeerr.Timeout("the debuggee did not respond in time")
	}
}

// Close is idempotent: it kills the trigger process (best effort),
// rejects all pending commands with "connection closed", and closes the
// socket and listener.
func (l *Link) Close() error {
	l.signalClosed()
	if l.trigger != nil {
		l.trigger.kill()
	}
	l.connMu.RLock()
	conn := l.conn
	l.connMu.RUnlock()
	if conn != nil {
		conn.Close()
	}
	if l.listener != nil {
		l.listener.Close()
	}
	return nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
