package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/provide-io/styrene/pkg/launcher"
)

// Report summarizes one spec's build.
type Report struct {
	Spec           string           `yaml:"spec"`
	StubName       string           `yaml:"stub_name,omitempty"`
	Arch           string           `yaml:"arch,omitempty"`
	Version        string           `yaml:"version,omitempty"`
	DisplayName    string           `yaml:"display_name,omitempty"`
	Publisher      string           `yaml:"publisher,omitempty"`
	URL            string           `yaml:"url,omitempty"`
	Icon           string           `yaml:"icon,omitempty"`
	Launchers      []LauncherReport `yaml:"launchers,omitempty"`
	Distributables []string         `yaml:"distributables,omitempty"`
	Error          string           `yaml:"error,omitempty"`
}

type LauncherReport struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Mode         string   `yaml:"mode"`
	ResolvedPath string   `yaml:"resolved_path,omitempty"`
	Args         []string `yaml:"args,omitempty"`
	Terminal     bool     `yaml:"terminal"`
	Icon         string   `yaml:"icon,omitempty"`
	Exe          string   `yaml:"exe,omitempty"`
}

// Report describes the bundle after Build. Distributable paths are
// reduced to base names.
func (b *Bundle) Report(dist []string) Report {
	r := Report{
		Spec:        b.Spec.Path,
		StubName:    b.StubName,
		Arch:        b.Arch.String(),
		Version:     b.Version,
		DisplayName: b.DisplayName,
		Publisher:   b.Publisher,
		URL:         b.URL,
		Icon:        b.Icon,
	}
	for _, l := range b.Launchers {
		lr := LauncherReport{
			ID:       l.Entry.ID,
			Name:     l.Entry.Name,
			Mode:     l.Strategy.Mode.String(),
			Terminal: l.Strategy.Terminal,
			Icon:     l.Icon,
		}
		if l.Exe != "" {
			lr.Exe = filepath.Base(l.Exe)
		}
		if l.Strategy.Mode == launcher.Direct {
			lr.ResolvedPath = l.Strategy.ResolvedPath
			lr.Args = l.Strategy.Args
		}
		r.Launchers = append(r.Launchers, lr)
	}
	for _, d := range dist {
		r.Distributables = append(r.Distributables, filepath.Base(d))
	}
	return r
}

// WriteReport writes reports to path as YAML.
func WriteReport(path string, reports []Report) error {
	data, err := yaml.Marshal(map[string][]Report{"bundles": reports})
	if err != nil {
		return fmt.Errorf("failed to encode build report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write build report: %w", err)
	}
	return nil
}
