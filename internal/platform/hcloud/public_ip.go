package hcloud

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

const defaultPublicIPURL = "https://ipv4.icanhazip.com"

// GetPublicIP returns the IPv4 address the operator's machine is seen from,
// used to suggest a /32 for ssh_allowed_cidrs.
func (c *RealClient) GetPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.publicIPURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to look up public IP: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("public IP lookup returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("failed to read public IP: %w", err)
	}
	ip := net.ParseIP(strings.TrimSpace(string(body)))
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("public IP lookup returned %q, not an IPv4 address", strings.TrimSpace(string(body)))
	}
	return ip.String(), nil
}
