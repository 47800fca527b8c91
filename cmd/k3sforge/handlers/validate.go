package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/errdefs"
)

// Validate resolves the spec and prints every finding. Only errors fail.
func Validate(_ context.Context, out io.Writer, configPath string) error {
	spec, path, err := loadSpec(configPath)
	if err != nil {
		return err
	}

	cfg, warnings, err := config.Resolve(spec)
	if err != nil {
		var verrs errdefs.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fmt.Fprintf(out, "%s is invalid:\n", path)
		renderFindings(out, append(append([]errdefs.ValidationError(nil), verrs...), warnings...))
		return fmt.Errorf("%s: %d validation errors", path, len(verrs))
	}

	renderFindings(out, warnings)
	fmt.Fprintln(out, style(okStyle, fmt.Sprintf("%s is valid: cluster %s with %d servers and %d agents",
		path, cfg.Name(), cfg.Sizing().ServerCount, cfg.Sizing().AgentCount)))
	return nil
}
