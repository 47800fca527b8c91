package provisioning

import (
	"fmt"
	"time"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// RunPhases executes all provisioning phases sequentially and stops at the
// first failing phase.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	ctx.Log.Info("starting provisioning", "phases", len(phases), "cluster", ctx.Plan.Config.Name())

	for i, phase := range phases {
		phaseStart := time.Now()
		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))
		log := ctx.Log.WithValues("phase", name)

		log.Info("starting")
		if err := phase.Provision(ctx); err != nil {
			log.Error(err, "failed")
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}
		log.Info("completed", "duration", time.Since(phaseStart).Round(time.Millisecond).String())
	}

	ctx.Log.Info("provisioning completed", "duration", time.Since(start).Round(time.Millisecond).String())
	return nil
}
