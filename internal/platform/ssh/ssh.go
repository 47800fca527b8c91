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

	"github.com/imamik/k3sforge/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultUser        = "root"
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 3
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config holds SSH client configuration. Zero fields take defaults.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// JumpHost, when set, is dialed first and the connection to Host is
	// tunnelled through it. Host is then resolved by the jump host, so it
	// may be a private address.
	JumpHost string
	JumpPort int

	DialTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	// HostKeyCallback defaults to accepting any host key.
	HostKeyCallback ssh.HostKeyCallback
}

// Client runs commands on one host. The key is parsed once; every Execute
// opens its own connection.
type Client struct {
	config Config
	signer ssh.Signer
}

// NewClient validates cfg and parses the private key.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("ssh host is required")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, errors.New("ssh private key is required")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.JumpHost != "" && cfg.JumpPort == 0 {
		cfg.JumpPort = defaultPort
	}
	if cfg.User == "" {
		cfg.User = defaultUser
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // node host keys are not known ahead of time
	}

	signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &Client{config: cfg, signer: signer}, nil
}

// Execute runs command and returns its combined output. A non-zero exit
// status is an error carrying the output.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("command failed on %s: %w", c.config.Host, err)
	}
	return string(output), nil
}

func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}
	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	dial := func() (*ssh.Client, error) { return ssh.Dial("tcp", addr, config) }
	if c.config.JumpHost != "" {
		jumpAddr := net.JoinHostPort(c.config.JumpHost, strconv.Itoa(c.config.JumpPort))
		dial = func() (*ssh.Client, error) { return dialVia(jumpAddr, addr, config) }
	}

	var client *ssh.Client
	err := retry.WithExponentialBackoff(ctx, func() error {
		var dialErr error
		client, dialErr = dial()
		if isAuthError(dialErr) {
			return retry.Fatal(dialErr)
		}
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return client, nil
}

// dialVia opens a session to addr over a direct-tcpip channel of the jump
// host. The jump connection closes with the returned client.
func dialVia(jumpAddr, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	jump, err := ssh.Dial("tcp", jumpAddr, config)
	if err != nil {
		return nil, fmt.Errorf("jump host %s: %w", jumpAddr, err)
	}
	conn, err := jump.Dial("tcp", addr)
	if err != nil {
		_ = jump.Close()
		return nil, fmt.Errorf("failed to reach %s through %s: %w", addr, jumpAddr, err)
	}
	sc, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		_ = jump.Close()
		return nil, err
	}
	client := ssh.NewClient(sc, chans, reqs)
	go func() {
		_ = client.Wait()
		_ = jump.Close()
	}()
	return client, nil
}

// isAuthError reports a rejected key, which no retry can fix. The client
// returns it untyped.
func isAuthError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}
