package domain

import (
	"fmt"
	"slices"
)

// Capability is the atomic unit of authorization an operation requires.
// The vocabulary is closed: values are only produced by the constants below
// or by ParseCapability.
type Capability uint8

const (
	// CapabilityCreate allows creating resources.
	CapabilityCreate Capability = iota + 1
	// CapabilityRead allows reading and listing resources.
	CapabilityRead
	// CapabilityUpdate allows modifying resources.
	CapabilityUpdate
	// CapabilityDelete allows removing resources.
	CapabilityDelete
)

var capabilityNames = map[Capability]string{
	CapabilityCreate: "Create",
	CapabilityRead:   "Read",
	CapabilityUpdate: "Update",
	CapabilityDelete: "Delete",
}

// AllCapabilities returns the full capability set in canonical order.
func AllCapabilities() []Capability {
	return []Capability{CapabilityCreate, CapabilityRead, CapabilityUpdate, CapabilityDelete}
}

// String returns the wire name of the capability.
func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Capability(%d)", uint8(c))
}

// IsValid reports whether c belongs to the vocabulary.
func (c Capability) IsValid() bool {
	_, ok := capabilityNames[c]
	return ok
}

// MarshalText encodes the capability as its wire name.
func (c Capability) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, ErrUnknownCapability
	}
	return []byte(capabilityNames[c]), nil
}

// UnmarshalText decodes a wire name, rejecting anything outside the vocabulary.
func (c *Capability) UnmarshalText(text []byte) error {
	parsed, err := ParseCapability(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCapability converts a wire name ("Create", "Read", "Update", "Delete")
// into a Capability. Matching is case-sensitive.
func ParseCapability(name string) (Capability, error) {
	for capability, capabilityName := range capabilityNames {
		if capabilityName == name {
			return capability, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
}

// ParseCapabilities converts a list of wire names into a capability set.
// The list must be non-empty, free of duplicates and drawn from the vocabulary.
func ParseCapabilities(names []string) ([]Capability, error) {
	if len(names) == 0 {
		return nil, ErrEmptyCapabilities
	}

	capabilities := make([]Capability, 0, len(names))
	for _, name := range names {
		capability, err := ParseCapability(name)
		if err != nil {
			return nil, err
		}
		if slices.Contains(capabilities, capability) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCapability, name)
		}
		capabilities = append(capabilities, capability)
	}

	return capabilities, nil
}

// ValidateCapabilities applies the same rules as ParseCapabilities to an
// already-typed set.
func ValidateCapabilities(capabilities []Capability) error {
	if len(capabilities) == 0 {
		return ErrEmptyCapabilities
	}
	for i, capability := range capabilities {
		if !capability.IsValid() {
			return ErrUnknownCapability
		}
		if slices.Contains(capabilities[:i], capability) {
			return fmt.Errorf("%w: %q", ErrDuplicateCapability, capability.String())
		}
	}
	return nil
}

// CapabilityNames returns the wire names of the given capabilities.
func CapabilityNames(capabilities []Capability) []string {
	names := make([]string, 0, len(capabilities))
	for _, capability := range capabilities {
		names = append(names, capability.String())
	}
	return names
}
