package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	fileExists       = wizard.FileExists
	confirmOverwrite = wizard.ConfirmOverwrite
	runWizard        = wizard.RunWizard
	writeSpec        = wizard.WriteSpec
)

// Init runs the configuration wizard and writes the result to outputPath.
func Init(ctx context.Context, log logr.Logger, out io.Writer, outputPath string, advanced, full bool) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted; existing file kept.")
			return nil
		}
	}

	var suggested string
	ip, err := newInfraClient("").GetPublicIP(ctx)
	if err != nil {
		log.V(1).Info("could not detect public IP", "error", err.Error())
	} else {
		suggested = ip + "/32"
	}

	printWelcome(out)

	result, err := runWizard(ctx, advanced, suggested)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	spec := wizard.BuildSpec(result)
	if err := writeSpec(spec, outputPath, full); err != nil {
		return fmt.Errorf("failed to write spec: %w", err)
	}

	printInitSuccess(out, outputPath, spec)
	return nil
}

func printWelcome(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, style(titleStyle, "k3sforge - k3s clusters on Hetzner Cloud"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This wizard writes a feature spec with sensible defaults.")
	fmt.Fprintln(out)
}

func printInitSuccess(out io.Writer, outputPath string, spec *config.Spec) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, style(okStyle, "Spec saved: "+outputPath))
	fmt.Fprintln(out)
	fmt.Fprintln(out, style(sectionStyle, "Cluster Summary"))
	fmt.Fprintf(out, "  Name:     %s\n", spec.ClusterName)
	fmt.Fprintf(out, "  Location: %s\n", spec.Location)
	fmt.Fprintf(out, "  Servers:  %d x %s\n", spec.ServerCount, spec.ServerType)
	fmt.Fprintf(out, "  Agents:   %d x %s\n", spec.AgentCount, spec.AgentType)
	fmt.Fprintln(out)
	fmt.Fprintln(out, style(sectionStyle, "Next Steps"))
	fmt.Fprintln(out, "  1. Export the secrets the spec needs:")
	fmt.Fprintf(out, "     export %s=<token>\n", config.EnvHCloudToken)
	fmt.Fprintf(out, "     (%s, %s and %s when those features are on)\n",
		config.EnvTailscaleAPIKey, config.EnvBackupAccessKey, config.EnvBackupSecretKey)
	fmt.Fprintln(out, "  2. Preview the artifacts:")
	fmt.Fprintln(out, "     k3sforge plan --offline")
	fmt.Fprintln(out, "  3. Create the cluster:")
	fmt.Fprintln(out, "     k3sforge apply")
	fmt.Fprintln(out)
}
