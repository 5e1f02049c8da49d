package testing

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// FakeSwitch is an in-process SSH server that behaves like a Cisco IOS CLI
// closely enough for VLAN and access-port configuration.
type FakeSwitch struct {
	Host     string
	Port     int
	User     string
	Password string

	hostname     string
	enableSecret string
	rejected     map[string]string

	listener net.Listener
	wg       sync.WaitGroup
	conns    []net.Conn

	mu       sync.Mutex
	commands []string
	logins   int
}

// FakeSwitchOption configures a FakeSwitch.
type FakeSwitchOption func(*FakeSwitch)

// WithEnableSecret starts sessions in user EXEC mode, requiring "enable".
func WithEnableSecret(secret string) FakeSwitchOption {
	return func(f *FakeSwitch) { f.enableSecret = secret }
}

// WithRejectedCommand makes commands starting with prefix fail with msg.
func WithRejectedCommand(prefix, msg string) FakeSwitchOption {
	return func(f *FakeSwitch) { f.rejected[prefix] = msg }
}

// WithCredentials sets the accepted login.
func WithCredentials(user, password string) FakeSwitchOption {
	return func(f *FakeSwitch) { f.User, f.Password = user, password }
}

// NewFakeSwitch starts a FakeSwitch on a loopback port. It is closed when
// the test ends.
func NewFakeSwitch(t *testing.T, opts ...FakeSwitchOption) *FakeSwitch {
	t.Helper()

	f := &FakeSwitch{
		User:     "admin",
		Password: "admin",
		hostname: "lab-sw1",
		rejected: map[string]string{},
	}
	for _, opt := range opts {
		opt(f)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("failed to create host key signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if meta.User() == f.User && string(password) == f.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", meta.User())
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	f.listener = ln
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	f.Host = host
	f.Port, _ = strconv.Atoi(port)

	f.wg.Add(1)
	go f.serve(config)
	t.Cleanup(f.Close)

	return f
}

// Commands returns every command received in privileged mode, in order.
func (f *FakeSwitch) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Logins returns the number of shells opened.
func (f *FakeSwitch) Logins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

// Close stops the listener, drops open connections and waits for their
// handlers to return.
func (f *FakeSwitch) Close() {
	_ = f.listener.Close()
	f.mu.Lock()
	for _, c := range f.conns {
		_ = c.Close()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *FakeSwitch) serve(config *ssh.ServerConfig) {
	defer f.wg.Done()
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()

		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			f.handleConn(conn, config)
		}()
	}
}

func (f *FakeSwitch) handleConn(conn net.Conn, config *ssh.ServerConfig) {
	defer func() { _ = conn.Close() }()

	sconn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	defer func() { _ = sconn.Close() }()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "only sessions are supported")
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			for req := range chReqs {
				switch req.Type {
				case "pty-req":
					_ = req.Reply(true, nil)
				case "shell":
					_ = req.Reply(true, nil)
					go f.runCLI(ch)
				default:
					_ = req.Reply(false, nil)
				}
			}
		}()
	}
}

// runCLI emulates the IOS command modes used for VLAN configuration.
func (f *FakeSwitch) runCLI(ch ssh.Channel) {
	defer func() { _ = ch.Close() }()

	f.mu.Lock()
	f.logins++
	f.mu.Unlock()

	mode := "#"
	if f.enableSecret != "" {
		mode = ">"
	}
	prompt := func() { _, _ = io.WriteString(ch, "\r\n"+f.hostname+mode) }

	_, _ = io.WriteString(ch, "\r\nUser Access Verification\r\n")
	prompt()

	r := bufio.NewReader(ch)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)

		if mode == ">" {
			if cmd == "enable" {
				_, _ = io.WriteString(ch, "\r\nPassword: ")
				secret, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimSpace(secret) == f.enableSecret {
					mode = "#"
				} else {
					_, _ = io.WriteString(ch, "\r\n% Access denied")
				}
			}
			prompt()
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd)
		f.mu.Unlock()

		if msg, ok := f.rejection(cmd); ok {
			_, _ = io.WriteString(ch, "\r\n"+msg)
			prompt()
			continue
		}

		switch {
		case cmd == "":
		case cmd == "configure terminal" && mode == "#":
			_, _ = io.WriteString(ch, "\r\nEnter configuration commands, one per line.  End with CNTL/Z.")
			mode = "(config)#"
		case cmd == "end":
			mode = "#"
		case cmd == "exit" && mode == "#":
			return
		case cmd == "exit" && mode == "(config)#":
			mode = "#"
		case cmd == "exit":
			mode = "(config)#"
		case cmd == "write memory" && mode == "#":
			_, _ = io.WriteString(ch, "\r\nBuilding configuration...\r\n[OK]")
		case strings.HasPrefix(cmd, "vlan ") && mode != "#":
			mode = "(config-vlan)#"
		case strings.HasPrefix(cmd, "interface range ") && mode != "#":
			mode = "(config-if-range)#"
		case strings.HasPrefix(cmd, "interface ") && mode != "#":
			mode = "(config-if)#"
		}
		prompt()
	}
}

func (f *FakeSwitch) rejection(cmd string) (string, bool) {
	for prefix, msg := range f.rejected {
		if strings.HasPrefix(cmd, prefix) {
			return msg, true
		}
	}
	return "", false
}
