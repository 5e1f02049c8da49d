package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/util/retry"
)

const (
	defaultPort           = 22
	defaultDialTimeout    = 10 * time.Second
	defaultCommandTimeout = 30 * time.Second
	defaultMaxRetries     = 2
	defaultRetryDelay     = 2 * time.Second
	defaultMaxDelay       = 10 * time.Second
)

// Config holds switch connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// EnableSecret is sent when the device asks for a password after "enable".
	// Empty falls back to Password.
	EnableSecret string
	// PrivateKey enables public key authentication in addition to Password.
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// CommandTimeout bounds the wait for a prompt after each command.
	// If zero, defaultCommandTimeout is used.
	CommandTimeout time.Duration

	// MaxRetries is the number of additional connection attempts.
	// Negative disables retries; zero uses defaultMaxRetries.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Client opens CLI sessions on one switch.
type Client struct {
	config *Config
	auth   []ssh.AuthMethod
}

// NewClient validates the configuration and creates a Client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if cfg.Password == "" && len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config needs a password or a private key")
	}

	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.CommandTimeout == 0 {
		configCopy.CommandTimeout = defaultCommandTimeout
	}
	switch {
	case configCopy.MaxRetries == 0:
		configCopy.MaxRetries = defaultMaxRetries
	case configCopy.MaxRetries < 0:
		configCopy.MaxRetries = 0
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.EnableSecret == "" {
		configCopy.EnableSecret = configCopy.Password
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // pin keys through HostKeyCallback
	}

	var auth []ssh.AuthMethod
	if len(configCopy.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if configCopy.Password != "" {
		password := configCopy.Password
		auth = append(auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	return &Client{config: &configCopy, auth: auth}, nil
}

// Address returns the host:port the client dials.
func (c *Client) Address() string {
	return net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
}

// Open connects to the switch and returns a privileged CLI session.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	s, err := newSession(conn, c.config.CommandTimeout)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := s.init(ctx, c.config.EnableSecret); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// connect establishes the SSH connection with retry logic. Authentication
// failures are not retried.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            c.auth,
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := c.Address()
	var client *ssh.Client

	err := retry.WithExponentialBackoff(ctx, func() error {
		var dialErr error
		client, dialErr = dial(ctx, addr, config)
		if dialErr != nil && isAuthFailure(dialErr) {
			return retry.Fatal(&AuthError{Addr: addr, User: c.config.User, Err: dialErr})
		}
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	return client, nil
}

// dial is ssh.Dial with a context-aware TCP dial.
func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func isAuthFailure(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}
