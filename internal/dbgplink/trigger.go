package dbgplink

import (
	"bufio"
	"io"
	"os/exec"
	"strings"
	"syscall"

	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

type triggerProcess struct {
	cmd *exec.Cmd
}

// ExecuteTrigger spawns the configured trigger command through a shell (to
// honor user-provided pipelines and URL quoting) and detaches it so the
// bridge can terminate without blocking on its exit. Child exit never
// feeds back into session state: a break event from an already-connected
// debuggee is the only authoritative signal. The command is never
// correlated with any exec.CommandContext lifetime.
func (l *Link) ExecuteTrigger(command string, cwd string, env []string) error {
	argv0 := firstToken(command)
	xlog.Warn("dbgplink: executing trigger command (argv0=%s): %s", argv0, xlog.Truncate(command, 300))

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = cwd
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return err
	}

	go drainToLog("stdout", stdout)
	go drainToLog("stderr", stderr)
	go cmd.Wait() // reap; never block the bridge on the child's exit

	l.trigger = &triggerProcess{cmd: cmd}
	return nil
}

func drainToLog(stream string, r io.Reader) {
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		xlog.Warn("trigger[%s]: %s", stream, xlog.Truncate(scanner.Text(), 300))
	}
}

func (t *triggerProcess) kill() {
	if t == nil || t.cmd == nil || t.cmd.Process == nil {
		return
	}
	// Negative pid signals the whole detached process group.
	_ = syscall.Kill(-t.cmd.Process.Pid, syscall.SIGKILL)
}

// firstToken recovers a readable argv0 for diagnostics via a quote-aware
// split; the actual execution always goes through the shell with the
// full command string.
func firstToken(command string) string {
	tokens := SplitQuoted(command)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// SplitQuoted splits a command string on whitespace while respecting
// single and double quoted spans.
func SplitQuoted(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			flush()
		default:
			inToken = true
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
