package checks

import (
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

// RegisterAll loads the full built-in catalog into the registry. Call
// once at startup, before freezing the registry.
func RegisterAll(registry *policy.Registry) error {
	for _, p := range AWS() {
		if err := registry.Register(p); err != nil {
			return err
		}
	}
	for _, p := range Azure() {
		if err := registry.Register(p); err != nil {
			return err
		}
	}
	return nil
}
