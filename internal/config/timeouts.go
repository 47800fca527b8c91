package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts bounds the provisioner's calls against the cloud API and its
// readiness barriers. Values come from the environment.
type Timeouts struct {
	ServerCreate      time.Duration // Per-server create call, including action wait
	ServerIP          time.Duration // Waiting for an address to be assigned
	NodeReadyAttempts int           // Poll attempts for a node's public address to answer
	NodeReadyInterval time.Duration // Spacing between node readiness polls
	RetryMaxAttempts  int           // Retries for transient API errors
	RetryInitialDelay time.Duration // First backoff delay for transient API errors
}

// LoadTimeouts reads timeout configuration from the environment, falling
// back to defaults for unset or unparsable values.
//
// Environment Variables:
//   - K3SFORGE_TIMEOUT_SERVER_CREATE (default: 10m)
//   - K3SFORGE_TIMEOUT_SERVER_IP (default: 60s)
//   - K3SFORGE_NODE_READY_ATTEMPTS (default: 60)
//   - K3SFORGE_NODE_READY_INTERVAL (default: 10s)
//   - K3SFORGE_RETRY_MAX_ATTEMPTS (default: 5)
//   - K3SFORGE_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      envDuration("K3SFORGE_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		ServerIP:          envDuration("K3SFORGE_TIMEOUT_SERVER_IP", 60*time.Second),
		NodeReadyAttempts: envInt("K3SFORGE_NODE_READY_ATTEMPTS", 60),
		NodeReadyInterval: envDuration("K3SFORGE_NODE_READY_INTERVAL", 10*time.Second),
		RetryMaxAttempts:  envInt("K3SFORGE_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: envDuration("K3SFORGE_RETRY_INITIAL_DELAY", time.Second),
	}
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func envInt(key string, def int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return def
}
