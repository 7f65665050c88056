// Package termtest runs a terminal program inside a pseudo terminal so
// end-to-end tests can type keys and inspect what was drawn.
package termtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const (
	defaultCols    = 120
	defaultRows    = 32
	defaultTimeout = 10 * time.Second
	pollInterval   = 20 * time.Millisecond
)

// Options describes the program to start and its terminal.
type Options struct {
	Command []string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
	// Timeout bounds the whole session, from start to exit.
	Timeout time.Duration
}

// Session is a running program attached to a pseudo terminal.
type Session struct {
	cmd     *exec.Cmd
	ptmx    *os.File
	cancel  context.CancelFunc
	ctx     context.Context
	started time.Time

	mu     sync.Mutex
	output bytes.Buffer

	drained chan struct{}
	exited  chan struct{}
	waitErr error
}

// Start launches the program. Terminal queries the program sends (cursor
// position, colours) are answered so it does not stall waiting for them.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("termtest: command is required")
	}
	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = environment(opts.Env)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("termtest: start program: %w", err)
	}
	s := &Session{
		cmd:     cmd,
		ptmx:    ptmx,
		cancel:  cancel,
		ctx:     ctx,
		started: time.Now(),
		drained: make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go s.pump()
	go func() {
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()
	return s, nil
}

func (s *Session) pump() {
	defer close(s.drained)
	replies := newResponder(s.ptmx)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			replies.Feed(chunk)
			s.mu.Lock()
			s.output.Write(chunk)
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Send writes raw input, such as keys, to the program.
func (s *Session) Send(input []byte) error {
	if _, err := s.ptmx.Write(input); err != nil {
		return fmt.Errorf("termtest: write input: %w", err)
	}
	return nil
}

// Type sends text one key at a time.
func (s *Session) Type(text string) error {
	for _, r := range text {
		if err := s.Send([]byte(string(r))); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

// Screen returns everything drawn so far with escape sequences removed.
func (s *Session) Screen() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stripANSI(strings.ReplaceAll(s.output.String(), "\r", ""))
}

// WaitFor blocks until the rendered output contains text.
func (s *Session) WaitFor(text string, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if strings.Contains(s.Screen(), text) {
			return nil
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return fmt.Errorf("termtest: %q did not appear within %s", text, timeout)
		case <-s.exited:
			if strings.Contains(s.Screen(), text) {
				return nil
			}
			return fmt.Errorf("termtest: program exited before %q appeared", text)
		case <-s.ctx.Done():
			return fmt.Errorf("termtest: waiting for %q: %w", text, s.ctx.Err())
		}
	}
}

// Wait blocks until the program exits and returns what it drew. Exit
// codes other than zero are errors unless listed in allowed.
func (s *Session) Wait(allowed ...int) (*Recording, error) {
	defer s.cancel()
	select {
	case <-s.exited:
	case <-s.ctx.Done():
		_ = s.ptmx.Close()
		return nil, fmt.Errorf("termtest: timeout waiting for program exit: %w", s.ctx.Err())
	}
	_ = s.ptmx.Close()
	<-s.drained

	if err := s.waitErr; err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || !containsCode(allowed, exitErr.ExitCode()) {
			return nil, fmt.Errorf("termtest: program exited with error: %w", err)
		}
	}
	s.mu.Lock()
	raw := append([]byte(nil), s.output.Bytes()...)
	s.mu.Unlock()
	return &Recording{Raw: raw, Frames: splitFrames(raw), Duration: time.Since(s.started)}, nil
}

// Close kills the program if it is still running.
func (s *Session) Close() {
	s.cancel()
	_ = s.ptmx.Close()
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func environment(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}

// Key sequences understood by Bubble Tea programs.
var (
	KeyEnter = []byte{'\r'}
	KeyEsc   = []byte{27}
	KeyTab   = []byte{'\t'}
	KeyCtrlC = []byte{3}
	KeyRight = []byte("\x1b[C")
	KeyLeft  = []byte("\x1b[D")
)
