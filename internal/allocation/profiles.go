package allocation

import (
	"fmt"
	"sort"

	"etfbot/pkg/types"
)

// Profiles is a registry of named risk profiles. It is built once at startup
// and injected into whatever needs to resolve a profile name, so tests can
// substitute their own targets without touching shared state.
type Profiles map[string]types.AllocationTarget

// DefaultProfiles returns the built-in risk profiles, ordered on the
// conservative to aggressive spectrum via the bond (BND) weight.
func DefaultProfiles() Profiles {
	return Profiles{
		"very_conservative": {
			"VTI": 0.15, "VOO": 0.10, "VXUS": 0.10, "VTWO": 0.05, "BND": 0.60,
		},
		"conservative": {
			"VTI": 0.20, "VOO": 0.15, "VXUS": 0.15, "VTWO": 0.10, "BND": 0.40,
		},
		"moderate": {
			"VTI": 0.20, "VOO": 0.25, "VXUS": 0.15, "VTWO": 0.10, "BND": 0.30,
		},
		"aggressive": {
			"VUG": 0.25, "VOO": 0.40, "VXUS": 0.15, "VTWO": 0.10, "BND": 0.10,
		},
		"aggressive_growth": {
			"VUG": 0.45, "VOO": 0.30, "VXUS": 0.10, "VTWO": 0.10, "BND": 0.05,
		},
	}
}

// Get resolves a profile by name.
func (p Profiles) Get(name string) (types.AllocationTarget, error) {
	target, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown risk profile %q (valid: %v)", types.ErrInvalidAllocation, name, p.Names())
	}
	return target, nil
}

// Names returns the registered profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every registered profile and returns the first failure.
func (p Profiles) Validate() error {
	for _, name := range p.Names() {
		if err := ValidateTarget(p[name]); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}
