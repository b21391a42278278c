package profile

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/IronGate-Business-Advisors/additional-companies-linker/pkg/errors"
)

// FromFile loads a profile from a YAML file. The file's name field selects
// the base profile (standard when omitted); every other field present in
// the file overrides the base. Environment overrides still apply on top.
func FromFile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.NewConfigError("profile",
			fmt.Sprintf("cannot read profile file %q", path), err)
	}

	var peek struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(raw, &peek); err != nil {
		return Profile{}, errors.NewConfigError("profile",
			fmt.Sprintf("invalid profile file %q", path), err)
	}

	p, err := ByName(peek.Name)
	if err != nil {
		return Profile{}, err
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, errors.NewConfigError("profile",
			fmt.Sprintf("invalid profile file %q", path), err)
	}

	p.applyEnvOverrides()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
