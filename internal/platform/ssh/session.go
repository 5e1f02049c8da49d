package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// promptRe matches CLI prompts such as "sw1>", "sw1#" and "sw1(config-if-range)#".
var promptRe = regexp.MustCompile(`^[A-Za-z0-9._\-]+(\([A-Za-z0-9._\-]+\))?[>#]$`)

// errPromptTimeout is returned when no prompt arrives within the command timeout.
var errPromptTimeout = errors.New("timed out waiting for prompt")

// Session is an interactive CLI session on a switch.
type Session struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	timeout time.Duration

	chunks  chan []byte
	done    chan struct{}
	readErr error
	buf     bytes.Buffer
	prompt  string

	closeOnce sync.Once
}

func newSession(client *ssh.Client, timeout time.Duration) (*Session, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := session.RequestPty("vt100", 0, 511, modes); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	if err := session.Shell(); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	s := &Session{
		client:  client,
		session: session,
		stdin:   stdin,
		timeout: timeout,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
	}
	go s.pump(stdout)
	return s, nil
}

// pump copies device output into chunks until EOF or Close.
func (s *Session) pump(r io.Reader) {
	defer close(s.chunks)
	b := make([]byte, 4096)
	for {
		n, err := r.Read(b)
		if n > 0 {
			chunk := append([]byte(nil), b[:n]...)
			select {
			case s.chunks <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

// init waits for the login prompt, enters privileged mode if needed and
// disables paging.
func (s *Session) init(ctx context.Context, enableSecret string) error {
	if _, err := s.readUntil(ctx, isPrompt); err != nil {
		return &CommandError{Command: "<login>", Err: err}
	}

	if strings.HasSuffix(s.prompt, ">") {
		if err := s.enable(ctx, enableSecret); err != nil {
			return err
		}
	}

	_, err := s.Run(ctx, "terminal length 0")
	return err
}

func (s *Session) enable(ctx context.Context, secret string) error {
	if err := s.write("enable"); err != nil {
		return &CommandError{Command: "enable", Err: err}
	}
	out, err := s.readUntil(ctx, func(b string) bool { return isPrompt(b) || isPasswordPrompt(b) })
	if err != nil {
		return &CommandError{Command: "enable", Err: err}
	}

	if isPasswordPrompt(out) {
		if err := s.write(secret); err != nil {
			return &CommandError{Command: "enable", Err: err}
		}
		// A wrong secret re-prompts for the password.
		out, err = s.readUntil(ctx, func(b string) bool { return isPrompt(b) || isPasswordPrompt(b) })
		if err != nil {
			return &CommandError{Command: "enable", Err: err}
		}
	}

	if !strings.HasSuffix(s.prompt, "#") || isPasswordPrompt(out) {
		return &AuthError{Addr: s.client.RemoteAddr().String(), User: s.client.User(), Err: errors.New("enable secret rejected")}
	}
	return nil
}

// Prompt returns the last prompt seen, such as "sw1(config)#".
func (s *Session) Prompt() string {
	return s.prompt
}

// Run sends one command and returns its output without the echo and the
// trailing prompt. Output lines starting with "%" mark a rejected command.
func (s *Session) Run(ctx context.Context, command string) (string, error) {
	if err := s.write(command); err != nil {
		return "", &CommandError{Command: command, Err: err}
	}

	raw, err := s.readUntil(ctx, isPrompt)
	if err != nil {
		return raw, &CommandError{Command: command, Output: raw, Err: err}
	}

	out := cleanOutput(raw, command)
	if msg := deviceError(out); msg != "" {
		return out, &CommandError{Command: command, Output: msg}
	}
	return out, nil
}

// RunAll runs commands in order and stops at the first failure. The
// returned transcript covers every command that was sent.
func (s *Session) RunAll(ctx context.Context, commands []string) (string, error) {
	var transcript strings.Builder
	for _, cmd := range commands {
		prompt := s.prompt
		out, err := s.Run(ctx, cmd)
		fmt.Fprintf(&transcript, "%s %s\n", prompt, cmd)
		if out != "" {
			transcript.WriteString(out)
			transcript.WriteString("\n")
		}
		if err != nil {
			return transcript.String(), err
		}
	}
	return transcript.String(), nil
}

// Close ends the session and the connection.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.session.Close()
		err = s.client.Close()
	})
	return err
}

func (s *Session) write(line string) error {
	_, err := io.WriteString(s.stdin, line+"\n")
	return err
}

// readUntil accumulates device output until match accepts it.
func (s *Session) readUntil(ctx context.Context, match func(string) bool) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		if text := s.buf.String(); match(text) {
			s.buf.Reset()
			if last := lastLine(text); isPrompt(last) {
				s.prompt = last
			}
			return text, nil
		}

		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				err := s.readErr
				if err == nil || errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				return s.buf.String(), fmt.Errorf("session closed by switch: %w", err)
			}
			s.buf.Write(chunk)
		case <-timer.C:
			return s.buf.String(), errPromptTimeout
		case <-ctx.Done():
			return s.buf.String(), ctx.Err()
		}
	}
}

func lastLine(text string) string {
	text = strings.TrimRight(text, " \t")
	if i := strings.LastIndexAny(text, "\r\n"); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}

func isPrompt(text string) bool {
	return promptRe.MatchString(lastLine(text))
}

func isPasswordPrompt(text string) bool {
	return strings.HasSuffix(strings.ToLower(lastLine(text)), "password:")
}

// cleanOutput strips the command echo and the trailing prompt.
func cleanOutput(raw, command string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r", ""), "\n")
	if len(lines) > 0 && isPrompt(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == command {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// deviceError returns the "%"-prefixed lines of out, if any.
func deviceError(out string) string {
	var msgs []string
	for _, line := range strings.Split(out, "\n") {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "%") {
			msgs = append(msgs, t)
		}
	}
	return strings.Join(msgs, "; ")
}
