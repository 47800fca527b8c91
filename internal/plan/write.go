package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k3sforge/internal/claims"
	"github.com/imamik/k3sforge/internal/netpolicy"
)

// Output layout below the plan directory.
const (
	ScriptsDir   = "scripts"
	ManifestsDir = "manifests"
	RulesFile    = "rules.yaml"
	ClaimsFile   = "claims.yaml"
)

type claimsDocument struct {
	// The resolver never deletes; resources left behind by force-recreate
	// and the backup container must be removed by hand.
	Note   string         `yaml:"note"`
	Claims []claims.Claim `yaml:"claims"`
}

type rulesDocument struct {
	Rules []netpolicy.Rule `yaml:"rules"`
}

// Write stores every artifact under dir. Scripts and manifests carry
// secrets and are written owner-only.
func (p *Plan) Write(dir string) error {
	for _, sub := range []string{ScriptsDir, ManifestsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	for _, s := range p.Scripts {
		if err := os.WriteFile(filepath.Join(dir, ScriptsDir, s.Filename()), s.Content, 0o700); err != nil {
			return fmt.Errorf("failed to write script %s: %w", s.Filename(), err)
		}
	}
	for _, e := range p.Manifests.Entries() {
		if err := os.WriteFile(filepath.Join(dir, ManifestsDir, e.Filename()), e.Content, 0o600); err != nil {
			return fmt.Errorf("failed to write manifest %s: %w", e.Filename(), err)
		}
	}

	if err := writeYAML(filepath.Join(dir, RulesFile), rulesDocument{Rules: p.Rules}); err != nil {
		return err
	}
	return writeYAML(filepath.Join(dir, ClaimsFile), claimsDocument{
		Note:   "claims are never deleted by k3sforge; adopted claims asked for a new resource but kept the existing one",
		Claims: p.Claims.All(),
	})
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
