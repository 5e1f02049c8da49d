package ssh

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	testutil "github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/testing"
)

func clientFor(t *testing.T, sw *testutil.FakeSwitch, mutate func(*Config)) *Client {
	t.Helper()
	cfg := &Config{
		Host:           sw.Host,
		Port:           sw.Port,
		User:           sw.User,
		Password:       sw.Password,
		CommandTimeout: 5 * time.Second,
		MaxRetries:     -1,
	}
	if mutate != nil {
		mutate(cfg)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want string
	}{
		{"nil config", nil, "config cannot be nil"},
		{"empty host", &Config{User: "admin", Password: "x"}, "config host cannot be empty"},
		{"empty user", &Config{Host: "10.0.0.1", Password: "x"}, "config user cannot be empty"},
		{"no credentials", &Config{Host: "10.0.0.1", User: "admin"}, "config needs a password or a private key"},
		{"bad key", &Config{Host: "10.0.0.1", User: "admin", PrivateKey: []byte("nope")}, "failed to parse private key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	cfg := &Config{Host: "10.0.0.1", User: "admin", Password: "secret"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if client.config.Port != defaultPort {
		t.Errorf("expected port %d, got %d", defaultPort, client.config.Port)
	}
	if client.config.CommandTimeout != defaultCommandTimeout {
		t.Errorf("expected command timeout %v, got %v", defaultCommandTimeout, client.config.CommandTimeout)
	}
	if client.config.MaxRetries != defaultMaxRetries {
		t.Errorf("expected max retries %d, got %d", defaultMaxRetries, client.config.MaxRetries)
	}
	if client.config.EnableSecret != "secret" {
		t.Errorf("expected enable secret to default to the password, got %q", client.config.EnableSecret)
	}
	if cfg.Port != 0 {
		t.Error("caller config must not be mutated")
	}
	if got := client.Address(); got != "10.0.0.1:22" {
		t.Errorf("Address() = %q", got)
	}
}

func TestSession_RunsConfiguration(t *testing.T) {
	sw := testutil.NewFakeSwitch(t)
	client := clientFor(t, sw, nil)
	ctx := testutil.TestContext(t)

	s, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = s.Close() }()

	if s.Prompt() != "lab-sw1#" {
		t.Errorf("expected privileged prompt, got %q", s.Prompt())
	}

	transcript, err := s.RunAll(ctx, []string{
		"configure terminal",
		"vlan 1234",
		"name restart_alice_1748520000",
		"exit",
		"interface range Twe1/0/1-2",
		"switchport mode access",
		"switchport access vlan 1234",
		"no shutdown",
		"exit",
		"end",
		"write memory",
	})
	if err != nil {
		t.Fatalf("RunAll() error = %v\n%s", err, transcript)
	}

	if !strings.Contains(transcript, "lab-sw1(config-if-range)# switchport access vlan 1234") {
		t.Errorf("transcript does not show interface range mode:\n%s", transcript)
	}
	if !strings.Contains(transcript, "[OK]") {
		t.Errorf("transcript does not show the save:\n%s", transcript)
	}
	if s.Prompt() != "lab-sw1#" {
		t.Errorf("expected to be back in privileged mode, got %q", s.Prompt())
	}

	cmds := sw.Commands()
	if cmds[0] != "terminal length 0" || cmds[len(cmds)-1] != "write memory" {
		t.Errorf("unexpected command log: %v", cmds)
	}
}

func TestSession_Enable(t *testing.T) {
	sw := testutil.NewFakeSwitch(t, testutil.WithEnableSecret("en4ble"))

	t.Run("correct secret", func(t *testing.T) {
		client := clientFor(t, sw, func(c *Config) { c.EnableSecret = "en4ble" })
		s, err := client.Open(testutil.TestContext(t))
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = s.Close() }()
		if !strings.HasSuffix(s.Prompt(), "#") {
			t.Errorf("expected privileged prompt, got %q", s.Prompt())
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		client := clientFor(t, sw, func(c *Config) { c.EnableSecret = "wrong" })
		_, err := client.Open(testutil.TestContext(t))
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
	})
}

func TestSession_RejectedCommand(t *testing.T) {
	sw := testutil.NewFakeSwitch(t,
		testutil.WithRejectedCommand("vlan 9999", "% Invalid input detected at '^' marker."),
	)
	client := clientFor(t, sw, nil)
	ctx := testutil.TestContext(t)

	s, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = s.Close() }()

	_, err = s.RunAll(ctx, []string{"configure terminal", "vlan 9999", "name never-sent"})

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Command != "vlan 9999" {
		t.Errorf("expected failing command to be reported, got %q", cmdErr.Command)
	}
	if !strings.Contains(cmdErr.Output, "Invalid input") {
		t.Errorf("expected device message in error, got %q", cmdErr.Output)
	}
	for _, c := range sw.Commands() {
		if c == "name never-sent" {
			t.Error("commands after a rejected one must not be sent")
		}
	}
}

func TestOpen_AuthFailureIsNotRetried(t *testing.T) {
	sw := testutil.NewFakeSwitch(t)
	client := clientFor(t, sw, func(c *Config) {
		c.Password = "wrong"
		c.MaxRetries = 3
		c.RetryDelay = time.Hour
	})

	_, err := client.Open(testutil.TestContext(t))

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if sw.Logins() != 0 {
		t.Errorf("expected no shell, got %d", sw.Logins())
	}
}

func TestOpen_ConnectionRefused(t *testing.T) {
	sw := testutil.NewFakeSwitch(t)
	sw.Close()

	client := clientFor(t, sw, nil)
	_, err := client.Open(testutil.TestContext(t))

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
}

func TestOpen_ContextCancellation(t *testing.T) {
	client, err := NewClient(&Config{
		Host:       "192.0.2.1", // TEST-NET-1, never routable
		User:       "admin",
		Password:   "admin",
		MaxRetries: 5,
		RetryDelay: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Open(ctx)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("Open() ignored the context deadline, took %v", time.Since(start))
	}
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		raw, cmd, want string
	}{
		{"\r\nlab-sw1#", "end", ""},
		{"write memory\r\nBuilding configuration...\r\n[OK]\r\nlab-sw1#", "write memory", "Building configuration...\n[OK]"},
		{"\r\n% Invalid input detected at '^' marker.\r\nlab-sw1(config)#", "vlan x", "% Invalid input detected at '^' marker."},
	}
	for _, tt := range tests {
		if got := cleanOutput(tt.raw, tt.cmd); got != tt.want {
			t.Errorf("cleanOutput(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestIsPrompt(t *testing.T) {
	for _, p := range []string{"sw1>", "sw1#", "lab-sw1(config)#", "lab-sw1(config-if-range)#", "x\r\nsw.core-01#  "} {
		if !isPrompt(p) {
			t.Errorf("isPrompt(%q) = false", p)
		}
	}
	for _, p := range []string{"Password:", "Building configuration...", "lab-sw1(config", ""} {
		if isPrompt(p) {
			t.Errorf("isPrompt(%q) = true", p)
		}
	}
}
