package handlers

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/plan"
	"github.com/imamik/k3sforge/internal/provisioning"
)

func TestRenderSummary(t *testing.T) {
	saveAndRestoreFactories(t)

	out := renderSummary(plan.Summary{
		Cluster:  "lab",
		Warnings: []string{"[warning] server_count: even"},
		Nodes: []plan.NodeSummary{
			{Hostname: "lab-server-0", Role: "server", PrivateIP: "10.0.1.10", Steps: []string{"a", "b"}},
		},
		Claims: []plan.ClaimSummary{
			{Name: "lab-cluster-token", Kind: "credential", Created: true},
			{Name: "lab-storage-backups", Kind: "object-container", Adopted: true},
		},
	}, "out")

	assert.Contains(t, out, "k3sforge plan: lab")
	assert.Contains(t, out, "Nodes (1)")
	assert.Contains(t, out, "lab-server-0")
	assert.Contains(t, out, " 2 steps")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "kept existing")
	assert.Contains(t, out, "    none")
	assert.Contains(t, out, "! [warning] server_count: even")
	assert.Contains(t, out, "Artifacts written to out")
	assert.NotContains(t, out, "\x1b[", "no escape codes outside a terminal")
}

func TestRenderFindings_ErrorsFirst(t *testing.T) {
	saveAndRestoreFactories(t)

	var buf bytes.Buffer
	renderFindings(&buf, []errdefs.ValidationError{
		{Field: "server_count", Message: "even", Severity: errdefs.SeverityWarning},
		{Field: "hcloud_token", Message: "required", Severity: errdefs.SeverityError},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "hcloud_token")
	assert.Contains(t, lines[1], "server_count")
}

func TestRenderNodeResults(t *testing.T) {
	saveAndRestoreFactories(t)

	out := renderNodeResults([]provisioning.NodeResult{
		{Hostname: "a", PublicIP: "192.0.2.1", Ready: true},
		{Hostname: "b", Existed: true},
		{Hostname: "c"},
		{Hostname: "d", Err: errors.New("quota")},
	})

	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "unchanged")
	assert.Contains(t, out, "created, not ready yet")
	assert.Contains(t, out, "failed: quota")
}
