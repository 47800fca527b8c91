package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/pricing"
	"github.com/imamik/k3sforge/internal/topology"
)

// CostOptions holds the cost command's flags.
type CostOptions struct {
	ConfigPath string
	Offline    bool
	JSON       bool
}

// Cost prints the monthly cost of the planned cluster. Without --offline
// the live price list for the cluster's location is used.
func Cost(ctx context.Context, log logr.Logger, out io.Writer, opts CostOptions) error {
	spec, _, err := loadSpec(opts.ConfigPath)
	if err != nil {
		return err
	}

	cfg, _, err := config.Resolve(spec)
	if err != nil {
		var verrs errdefs.ValidationErrors
		if errors.As(err, &verrs) {
			renderFindings(out, verrs)
		}
		return err
	}
	topo, err := topology.Compute(cfg)
	if err != nil {
		return fmt.Errorf("compute topology: %w", err)
	}

	location := cfg.Cluster().Location
	prices := pricing.DefaultPrices(location)
	if !opts.Offline {
		list, err := newInfraClient(cfg.Cluster().CloudToken).GetPricing(ctx)
		if err != nil {
			return err
		}
		prices = pricing.FromHCloud(list, location)
		log.V(1).Info("fetched price list", "location", location, "server_types", len(prices.Servers))
	}

	estimate, err := pricing.Calculate(cfg.Name(), topo, claims.Requests(cfg, topo), prices)
	if err != nil {
		return err
	}

	if opts.JSON {
		js, err := pricing.FormatJSON(estimate)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, js)
		return nil
	}
	fmt.Fprint(out, pricing.Format(estimate))
	return nil
}
