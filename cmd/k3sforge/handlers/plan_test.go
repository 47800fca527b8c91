package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/credentials"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/platform/hcloud"
	"github.com/imamik/k3sforge/internal/platform/s3"
	"github.com/imamik/k3sforge/internal/plan"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

func TestPlan_OfflineWritesArtifacts(t *testing.T) {
	saveAndRestoreFactories(t)
	useSpec(k3stesting.NewSpecBuilder().WithClusterName("lab").Build())
	newInfraClient = func(string) hcloud.InfrastructureManager {
		t.Fatal("offline plan must not build an infrastructure client")
		return nil
	}

	dir := t.TempDir()
	var out bytes.Buffer
	err := Plan(k3stesting.TestContext(t), logr.Discard(), &out, PlanOptions{
		ConfigPath: "k3sforge.yaml",
		OutDir:     dir,
		Offline:    true,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "k3sforge plan: lab")
	assert.Contains(t, out.String(), "Artifacts written to "+dir)
	assert.FileExists(t, filepath.Join(dir, plan.ScriptsDir, "lab-server-0.sh"))
	assert.FileExists(t, filepath.Join(dir, plan.ScriptsDir, "lab-agent-2.sh"))
	assert.FileExists(t, filepath.Join(dir, plan.RulesFile))
	assert.FileExists(t, filepath.Join(dir, plan.ClaimsFile))

	info, err := os.Stat(filepath.Join(dir, plan.ClaimsFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPlan_InvalidSpecPrintsFindings(t *testing.T) {
	saveAndRestoreFactories(t)
	useSpec(k3stesting.NewSpecBuilder().With(func(s *config.Spec) { s.HCloudToken = "" }).Build())

	dir := t.TempDir()
	var out bytes.Buffer
	err := Plan(k3stesting.TestContext(t), logr.Discard(), &out, PlanOptions{
		ConfigPath: "k3sforge.yaml",
		OutDir:     dir,
		Offline:    true,
	})
	require.Error(t, err)

	var verrs errdefs.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Contains(t, out.String(), "hcloud_token")
	assert.NoFileExists(t, filepath.Join(dir, plan.RulesFile))
}

func TestPlan_LoadError(t *testing.T) {
	saveAndRestoreFactories(t)
	loadSpecFile = func(string) (*config.Spec, error) { return nil, errors.New("boom") }

	err := Plan(k3stesting.TestContext(t), logr.Discard(), &bytes.Buffer{}, PlanOptions{ConfigPath: "x.yaml", Offline: true})
	assert.EqualError(t, err, "boom")
}

func TestPlan_NoConfigFound(t *testing.T) {
	saveAndRestoreFactories(t)
	findConfigFile = func(string) (string, error) { return "", errors.New("no spec file found") }

	err := Plan(k3stesting.TestContext(t), logr.Discard(), &bytes.Buffer{}, PlanOptions{Offline: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k3sforge init")
}

func TestPlan_WatchComposesOfflineAndWatches(t *testing.T) {
	saveAndRestoreFactories(t)
	useSpec(k3stesting.NewSpecBuilder().WithClusterName("lab").Build())
	newInfraClient = func(string) hcloud.InfrastructureManager {
		t.Fatal("watch mode must compose offline")
		return nil
	}

	var watched string
	runs := 0
	watchFile = func(_ context.Context, path string, debounce time.Duration, _ logr.Logger, onChange func()) error {
		watched = path
		assert.Positive(t, debounce)
		onChange()
		runs++
		return nil
	}

	var out bytes.Buffer
	err := Plan(k3stesting.TestContext(t), logr.Discard(), &out, PlanOptions{
		ConfigPath: "k3sforge.yaml",
		OutDir:     t.TempDir(),
		Watch:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "k3sforge.yaml", watched)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("k3sforge plan: lab")))
}

func TestOnlineOptions(t *testing.T) {
	t.Run("memory token without object storage", func(t *testing.T) {
		saveAndRestoreFactories(t)
		newS3Client = func(context.Context, string, string, string, string) (*s3.Client, error) {
			t.Fatal("no object storage client expected")
			return nil, nil
		}

		opts, err := onlineOptions(k3stesting.TestContext(t), localSpec(), &hcloud.MockClient{}, logr.Discard())
		require.NoError(t, err)
		assert.NotNil(t, opts.Resolver)
		assert.Nil(t, opts.Issuer)
	})

	t.Run("object storage client failure", func(t *testing.T) {
		saveAndRestoreFactories(t)
		newS3Client = func(_ context.Context, endpoint, region, _, _ string) (*s3.Client, error) {
			assert.Equal(t, "https://fsn1.your-objectstorage.com", endpoint)
			assert.Equal(t, "fsn1", region)
			return nil, errors.New("bad endpoint")
		}

		_, err := onlineOptions(k3stesting.TestContext(t), k3stesting.NewSpecBuilder().Build(), &hcloud.MockClient{}, logr.Discard())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object storage client")
	})

	t.Run("overlay issuer", func(t *testing.T) {
		saveAndRestoreFactories(t)
		var gotTailnet, gotKey string
		newOverlayIssuer = func(tailnet, apiKey string, _ logr.Logger) (credentials.Issuer, error) {
			gotTailnet, gotKey = tailnet, apiKey
			return credentials.Offline{Tailnet: tailnet}, nil
		}

		spec := k3stesting.NewSpecBuilder().WithOverlayVPN(true).With(func(s *config.Spec) {
			s.EnableStorageBackup = false
			s.BackupS3Endpoint = ""
		}).Build()
		opts, err := onlineOptions(k3stesting.TestContext(t), spec, &hcloud.MockClient{}, logr.Discard())
		require.NoError(t, err)
		assert.Equal(t, "example.com", gotTailnet)
		assert.Equal(t, "tskey-api-test", gotKey)
		assert.NotNil(t, opts.Issuer)
	})

	t.Run("overlay without credentials is left to validation", func(t *testing.T) {
		saveAndRestoreFactories(t)
		newOverlayIssuer = func(string, string, logr.Logger) (credentials.Issuer, error) {
			t.Fatal("issuer needs credentials")
			return nil, nil
		}

		spec := localSpec()
		spec.EnableOverlayVPN = true
		opts, err := onlineOptions(k3stesting.TestContext(t), spec, &hcloud.MockClient{}, logr.Discard())
		require.NoError(t, err)
		assert.Nil(t, opts.Issuer)
	})
}

func TestPlan_OnlineCreatesVolumeClaims(t *testing.T) {
	saveAndRestoreFactories(t)
	useSpec(localSpec())

	var created []string
	mock := &hcloud.MockClient{
		CreateVolumeFunc: func(_ context.Context, opts hcloud.VolumeCreateOpts) (*hcloudgo.Volume, error) {
			created = append(created, opts.Name)
			return nil, errors.New("quota exceeded")
		},
	}
	tokens := useInfra(mock)

	err := Plan(k3stesting.TestContext(t), logr.Discard(), &bytes.Buffer{}, PlanOptions{
		ConfigPath: "k3sforge.yaml",
		OutDir:     t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, []string{"test-hcloud-token"}, *tokens)
	assert.NotEmpty(t, created)
}
