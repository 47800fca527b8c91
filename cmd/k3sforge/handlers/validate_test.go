package handlers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/config"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		spec      *config.Spec
		wantErr   string
		wantLines []string
	}{
		{
			name:      "valid",
			spec:      k3stesting.NewSpecBuilder().WithClusterName("lab").Build(),
			wantLines: []string{"k3sforge.yaml is valid: cluster lab with 3 servers and 3 agents"},
		},
		{
			name: "missing token",
			spec: k3stesting.NewSpecBuilder().With(func(s *config.Spec) {
				s.HCloudToken = ""
			}).Build(),
			wantErr:   "validation errors",
			wantLines: []string{"k3sforge.yaml is invalid", "hcloud_token"},
		},
		{
			name:      "even server count only warns",
			spec:      k3stesting.NewSpecBuilder().WithServers(2).Build(),
			wantLines: []string{"server_count=2 is even", "is valid"},
		},
		{
			name:      "too many servers",
			spec:      k3stesting.NewSpecBuilder().WithServers(9).Build(),
			wantErr:   "validation errors",
			wantLines: []string{"server_count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saveAndRestoreFactories(t)
			useSpec(tt.spec)

			var out bytes.Buffer
			err := Validate(k3stesting.TestContext(t), &out, "k3sforge.yaml")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, line := range tt.wantLines {
				assert.Contains(t, out.String(), line)
			}
		})
	}
}
