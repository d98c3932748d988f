package config

import (
	"embed"
	"fmt"
)

//go:embed profiles/*.yaml
var profilesFS embed.FS

// ProfileYAML returns the embedded YAML for a normalized profile name
func ProfileYAML(profile string) ([]byte, error) {
	data, err := profilesFS.ReadFile("profiles/" + profile + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, profile)
	}
	return data, nil
}
