package pricing

import (
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// VATRate is applied to the built-in table, which lists net prices.
const VATRate = 0.19

// Price is a monthly amount in the list's currency.
type Price struct {
	Net   float64 `json:"net"`
	Gross float64 `json:"gross"`
}

// Prices is a price list for one location.
type Prices struct {
	Currency    string
	Location    string
	Source      string // "hetzner" or "built-in"
	Servers     map[string]Price
	VolumeGiB   Price
	PrimaryIPv4 Price
}

func gross(net float64) Price {
	return Price{Net: net, Gross: net * (1 + VATRate)}
}

// DefaultPrices returns the built-in net prices in EUR. They drift from the
// live list; use FromHCloud when a token is available.
func DefaultPrices(location string) *Prices {
	return &Prices{
		Currency: "EUR",
		Location: location,
		Source:   "built-in",
		Servers: map[string]Price{
			"cx22":  gross(4.35),
			"cx32":  gross(8.09),
			"cx42":  gross(15.59),
			"cx52":  gross(29.59),
			"cpx22": gross(4.49),
			"cpx32": gross(8.49),
			"cpx42": gross(15.49),
			"cpx52": gross(29.49),
			"cax21": gross(7.25),
			"cax31": gross(14.49),
			"ccx23": gross(28.49),
			"ccx33": gross(56.49),
		},
		VolumeGiB:   gross(0.044),
		PrimaryIPv4: gross(0.50),
	}
}

// FromHCloud picks the prices for location out of a Hetzner price list.
// Server types not sold there are left out.
func FromHCloud(p hcloud.Pricing, location string) *Prices {
	prices := &Prices{
		Currency:  p.Currency,
		Location:  location,
		Source:    "hetzner",
		Servers:   make(map[string]Price),
		VolumeGiB: Price{Net: parseFloat(p.Volume.PerGBMonthly.Net), Gross: parseFloat(p.Volume.PerGBMonthly.Gross)},
	}

	for _, st := range p.ServerTypes {
		if st.ServerType == nil {
			continue
		}
		for _, lp := range st.Pricings {
			if lp.Location != nil && lp.Location.Name == location {
				prices.Servers[st.ServerType.Name] = Price{
					Net:   parseFloat(lp.Monthly.Net),
					Gross: parseFloat(lp.Monthly.Gross),
				}
			}
		}
	}

	for _, ip := range p.PrimaryIPs {
		if ip.Type != "ipv4" {
			continue
		}
		for _, lp := range ip.Pricings {
			if lp.Location == location {
				prices.PrimaryIPv4 = Price{Net: parseFloat(lp.Monthly.Net), Gross: parseFloat(lp.Monthly.Gross)}
			}
		}
	}
	return prices
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
