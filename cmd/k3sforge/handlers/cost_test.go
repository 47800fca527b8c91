package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/platform/hcloud"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
)

func TestCost_Offline(t *testing.T) {
	saveAndRestoreFactories(t)
	useSpec(k3stesting.NewSpecBuilder().WithClusterName("lab").Build())
	newInfraClient = func(string) hcloud.InfrastructureManager {
		t.Fatal("offline cost must not call the API")
		return nil
	}

	var out bytes.Buffer
	require.NoError(t, Cost(k3stesting.TestContext(t), logr.Discard(), &out, CostOptions{ConfigPath: "k3sforge.yaml", Offline: true}))
	assert.Contains(t, out.String(), "k3sforge cost estimate")
	assert.Contains(t, out.String(), "server:cx32")
	assert.Contains(t, out.String(), "built-in list")
}

func TestCost_LivePricesAsJSON(t *testing.T) {
	saveAndRestoreFactories(t)
	useSpec(k3stesting.NewSpecBuilder().WithClusterName("lab").WithStorageEngine(false).With(func(s *config.Spec) {
		s.AgentType = "cx32"
	}).Build())

	price := func(net, gross string) []hcloudgo.ServerTypeLocationPricing {
		return []hcloudgo.ServerTypeLocationPricing{{
			Location: &hcloudgo.Location{Name: "nbg1"},
			Monthly:  hcloudgo.Price{Net: net, Gross: gross},
		}}
	}
	tokens := useInfra(&hcloud.MockClient{
		GetPricingFunc: func(context.Context) (hcloudgo.Pricing, error) {
			return hcloudgo.Pricing{
				Currency: "EUR",
				ServerTypes: []hcloudgo.ServerTypePricing{
					{ServerType: &hcloudgo.ServerType{Name: "cx32"}, Pricings: price("10", "11.9")},
				},
			}, nil
		},
	})

	var out bytes.Buffer
	require.NoError(t, Cost(k3stesting.TestContext(t), logr.Discard(), &out, CostOptions{ConfigPath: "k3sforge.yaml", JSON: true}))
	assert.Equal(t, []string{"test-hcloud-token"}, *tokens)

	var decoded struct {
		Source string `json:"source"`
		Total  struct {
			Net float64 `json:"net"`
		} `json:"total"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "hetzner", decoded.Source)
	assert.InDelta(t, 60.0, decoded.Total.Net, 1e-9)
}

func TestCost_Errors(t *testing.T) {
	t.Run("price list unavailable", func(t *testing.T) {
		saveAndRestoreFactories(t)
		useSpec(k3stesting.NewSpecBuilder().Build())
		useInfra(&hcloud.MockClient{
			GetPricingFunc: func(context.Context) (hcloudgo.Pricing, error) {
				return hcloudgo.Pricing{}, errors.New("unauthorized")
			},
		})

		err := Cost(k3stesting.TestContext(t), logr.Discard(), &bytes.Buffer{}, CostOptions{ConfigPath: "k3sforge.yaml"})
		assert.EqualError(t, err, "unauthorized")
	})

	t.Run("server type not sold in location", func(t *testing.T) {
		saveAndRestoreFactories(t)
		useSpec(k3stesting.NewSpecBuilder().Build())
		useInfra(&hcloud.MockClient{})

		err := Cost(k3stesting.TestContext(t), logr.Discard(), &bytes.Buffer{}, CostOptions{ConfigPath: "k3sforge.yaml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing pricing")
	})

	t.Run("invalid spec", func(t *testing.T) {
		saveAndRestoreFactories(t)
		useSpec(k3stesting.NewSpecBuilder().WithServers(0).Build())

		var out bytes.Buffer
		err := Cost(k3stesting.TestContext(t), logr.Discard(), &out, CostOptions{ConfigPath: "k3sforge.yaml", Offline: true})
		require.Error(t, err)
		assert.Contains(t, out.String(), "server_count")
	})
}
