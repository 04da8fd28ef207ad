package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zoobzio/latch"
)

const help = "commands: edit | type <value> | commit | cancel | show | quit\n"

// console maps line commands onto Session operations.
type console struct {
	session *latch.Session
	out     *syncWriter
}

func newConsole(session *latch.Session, out *syncWriter) *console {
	return &console{session: session, out: out}
}

// handle executes one line. Returns true when the user asked to quit.
func (c *console) handle(line string) bool {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch strings.ToLower(verb) {
	case "":
	case "edit":
		c.session.BeginEdit()
	case "type":
		if !c.session.ApplyInteractiveInput(rest) {
			c.out.printf("rejected: %q\n", rest)
		}
	case "commit":
		c.session.CommitEdit()
	case "cancel":
		c.session.CancelEdit()
	case "show":
		snap := c.session.Snapshot()
		c.out.printf("value=%d state=%s\n", snap.Value, c.session.State())
	case "quit", "exit":
		return true
	default:
		c.out.printf("unknown command %q\n%s", verb, help)
	}
	return false
}

// scanLines reads lines from r until EOF or ctx ends.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// syncWriter serializes writes from observers, hooks and the console.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, format, args...)
}
