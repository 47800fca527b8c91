package pricing

import (
	"fmt"
	"sort"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/topology"
)

// LineItem is one billed resource group.
type LineItem struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Unit      Price  `json:"unit"`
	Monthly   Price  `json:"monthly"`
	UnitLabel string `json:"unit_label"`
}

// Estimate is the monthly cost of a plan.
type Estimate struct {
	Cluster  string     `json:"cluster"`
	Location string     `json:"location"`
	Currency string     `json:"currency"`
	Source   string     `json:"source"`
	Items    []LineItem `json:"items"`
	Total    Price      `json:"total"`
}

// Annual returns twelve times the monthly total.
func (e *Estimate) Annual() Price {
	return Price{Net: e.Total.Net * 12, Gross: e.Total.Gross * 12}
}

// Calculate prices every planned node and volume request. A server type
// missing from the list is an error, not a free node.
func Calculate(cluster string, topo *topology.Topology, requests []claims.Request, prices *Prices) (*Estimate, error) {
	e := &Estimate{
		Cluster:  cluster,
		Location: prices.Location,
		Currency: prices.Currency,
		Source:   prices.Source,
	}

	for _, n := range topo.Nodes() {
		p, ok := prices.Servers[n.ServerType]
		if !ok {
			return nil, fmt.Errorf("missing pricing for server type %s in %s", n.ServerType, prices.Location)
		}
		addOrMerge(&e.Items, LineItem{Name: "server:" + n.ServerType, Count: 1, Unit: p, Monthly: p, UnitLabel: "server"})
	}
	if nodes := topo.Len(); nodes > 0 {
		ip := prices.PrimaryIPv4
		addOrMerge(&e.Items, LineItem{
			Name: "primary-ipv4", Count: nodes, Unit: ip,
			Monthly: Price{Net: ip.Net * float64(nodes), Gross: ip.Gross * float64(nodes)}, UnitLabel: "address",
		})
	}

	var gib int
	for _, r := range requests {
		if r.Kind == claims.KindVolume {
			gib += r.SizeGiB
		}
	}
	if gib > 0 {
		v := prices.VolumeGiB
		addOrMerge(&e.Items, LineItem{
			Name: "volume", Count: gib, Unit: v,
			Monthly: Price{Net: v.Net * float64(gib), Gross: v.Gross * float64(gib)}, UnitLabel: "GiB",
		})
	}

	sort.Slice(e.Items, func(i, j int) bool { return e.Items[i].Name < e.Items[j].Name })
	for _, item := range e.Items {
		e.Total.Net += item.Monthly.Net
		e.Total.Gross += item.Monthly.Gross
	}
	return e, nil
}

func addOrMerge(items *[]LineItem, next LineItem) {
	for i := range *items {
		if (*items)[i].Name == next.Name {
			(*items)[i].Count += next.Count
			(*items)[i].Monthly.Net += next.Monthly.Net
			(*items)[i].Monthly.Gross += next.Monthly.Gross
			return
		}
	}
	*items = append(*items, next)
}
