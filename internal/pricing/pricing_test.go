package pricing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3sforge/internal/claims"
	k3stesting "github.com/imamik/k3sforge/internal/testing"
	"github.com/imamik/k3sforge/internal/topology"
)

func planFor(t *testing.T, b *k3stesting.SpecBuilder) (*topology.Topology, []claims.Request) {
	t.Helper()
	cfg := b.Resolve(t)
	topo, err := topology.Compute(cfg)
	require.NoError(t, err)
	return topo, claims.Requests(cfg, topo)
}

func item(t *testing.T, e *Estimate, name string) LineItem {
	t.Helper()
	for _, it := range e.Items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("no line item %s", name)
	return LineItem{}
}

func TestCalculate_DefaultCluster(t *testing.T) {
	t.Parallel()
	topo, reqs := planFor(t, k3stesting.NewSpecBuilder().WithClusterName("lab"))

	e, err := Calculate("lab", topo, reqs, DefaultPrices("nbg1"))
	require.NoError(t, err)

	names := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"primary-ipv4", "server:cx32", "server:cx42", "volume"}, names)

	assert.Equal(t, 3, item(t, e, "server:cx32").Count)
	assert.InDelta(t, 3*8.09, item(t, e, "server:cx32").Monthly.Net, 1e-9)
	assert.Equal(t, 6, item(t, e, "primary-ipv4").Count)
	assert.Equal(t, 150, item(t, e, "volume").Count)

	want := 3*8.09 + 3*15.59 + 6*0.50 + 150*0.044
	assert.InDelta(t, want, e.Total.Net, 1e-9)
	assert.InDelta(t, want*(1+VATRate), e.Total.Gross, 1e-9)
	assert.InDelta(t, want*(1+VATRate)*12, e.Annual().Gross, 1e-9)
	assert.Equal(t, "built-in", e.Source)
}

func TestCalculate_NoStorageNoVolumes(t *testing.T) {
	t.Parallel()
	topo, reqs := planFor(t, k3stesting.NewSpecBuilder().WithStorageEngine(false).WithBastion(true))

	e, err := Calculate("lab", topo, reqs, DefaultPrices("nbg1"))
	require.NoError(t, err)
	for _, it := range e.Items {
		assert.NotEqual(t, "volume", it.Name)
	}
	assert.Equal(t, 1, item(t, e, "server:cx22").Count)
	assert.Equal(t, 7, item(t, e, "primary-ipv4").Count)
}

func TestCalculate_UnknownServerType(t *testing.T) {
	t.Parallel()
	topo, reqs := planFor(t, k3stesting.NewSpecBuilder())
	prices := DefaultPrices("nbg1")
	delete(prices.Servers, "cx42")

	_, err := Calculate("lab", topo, reqs, prices)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cx42 in nbg1")
}

func TestFromHCloud(t *testing.T) {
	t.Parallel()
	list := hcloud.Pricing{
		Currency: "EUR",
		Volume:   hcloud.VolumePricing{PerGBMonthly: hcloud.Price{Net: "0.044", Gross: "0.0524"}},
		ServerTypes: []hcloud.ServerTypePricing{
			{
				ServerType: &hcloud.ServerType{Name: "cx32"},
				Pricings: []hcloud.ServerTypeLocationPricing{
					{Location: &hcloud.Location{Name: "fsn1"}, Monthly: hcloud.Price{Net: "8.00", Gross: "9.52"}},
					{Location: &hcloud.Location{Name: "ash"}, Monthly: hcloud.Price{Net: "9.00", Gross: "9.00"}},
				},
			},
			{
				ServerType: &hcloud.ServerType{Name: "cx52"},
				Pricings: []hcloud.ServerTypeLocationPricing{
					{Location: &hcloud.Location{Name: "ash"}, Monthly: hcloud.Price{Net: "30.00", Gross: "30.00"}},
				},
			},
		},
		PrimaryIPs: []hcloud.PrimaryIPPricing{
			{
				Type: "ipv6",
				Pricings: []hcloud.PrimaryIPTypePricing{
					{Location: "fsn1", Monthly: hcloud.PrimaryIPPrice{Net: "0.00", Gross: "0.00"}},
				},
			},
			{
				Type: "ipv4",
				Pricings: []hcloud.PrimaryIPTypePricing{
					{Location: "fsn1", Monthly: hcloud.PrimaryIPPrice{Net: "0.50", Gross: "0.595"}},
				},
			},
		},
	}

	p := FromHCloud(list, "fsn1")
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, "hetzner", p.Source)
	assert.Equal(t, Price{Net: 8, Gross: 9.52}, p.Servers["cx32"])
	assert.NotContains(t, p.Servers, "cx52")
	assert.Equal(t, Price{Net: 0.5, Gross: 0.595}, p.PrimaryIPv4)
	assert.Equal(t, Price{Net: 0.044, Gross: 0.0524}, p.VolumeGiB)
}

func TestFormat(t *testing.T) {
	t.Parallel()
	topo, reqs := planFor(t, k3stesting.NewSpecBuilder())
	e, err := Calculate("lab", topo, reqs, DefaultPrices("nbg1"))
	require.NoError(t, err)

	out := Format(e)
	assert.Contains(t, out, "k3sforge cost estimate")
	assert.Contains(t, out, "Cluster: lab  Location: nbg1")
	assert.Contains(t, out, "server:cx42")
	assert.Contains(t, out, "Annual estimate")
	assert.Contains(t, out, "built-in list (EUR)")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "│") {
			assert.Equal(t, boxWidth, len([]rune(line)), line)
		}
	}

	js, err := FormatJSON(e)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	assert.Equal(t, "lab", decoded["cluster"])
	assert.Contains(t, decoded, "annual")
	assert.Len(t, decoded["items"], 4)
}
