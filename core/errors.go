package core

import (
	"errors"
	"fmt"
)

// Error families. Specific errors below wrap one of these, so callers can
// match either the exact condition or the whole family with errors.Is.
var (
	// ErrStructuralConflict covers attempts to create graph structure that
	// contradicts existing structure.
	ErrStructuralConflict = errors.New("structural conflict")

	// ErrConfigurationMismatch covers inputs that are individually valid but
	// inconsistent with each other or with the existing configuration.
	ErrConfigurationMismatch = errors.New("configuration mismatch")

	// ErrReferenceIntegrity covers dangling or wrong-kind references met
	// while reading the document.
	ErrReferenceIntegrity = errors.New("reference integrity violation")
)

// Structural conflicts.
var (
	ErrAlreadyConnected     = fmt.Errorf("%w: already connected", ErrStructuralConflict)
	ErrClusterMismatch      = fmt.Errorf("%w: channel belongs to a different cluster", ErrStructuralConflict)
	ErrDuplicateVlan        = fmt.Errorf("%w: vlan already in use on this cluster", ErrStructuralConflict)
	ErrInvalidAddressConfig = fmt.Errorf("%w: invalid network endpoint address configuration", ErrStructuralConflict)
)

// Configuration mismatches.
var (
	ErrNotConnected          = fmt.Errorf("%w: ecu is not connected to the channel", ErrConfigurationMismatch)
	ErrSocketChannelMismatch = fmt.Errorf("%w: socket address belongs to a different channel", ErrConfigurationMismatch)
	ErrPortMismatch          = fmt.Errorf("%w: socket port configuration mismatch", ErrConfigurationMismatch)
	ErrInvalidRemotePort     = fmt.Errorf("%w: remote socket must use port 0 or a dynamically assigned port", ErrConfigurationMismatch)
	ErrInvalidRemoteAddress  = fmt.Errorf("%w: remote socket must use wildcard addresses only", ErrConfigurationMismatch)
	ErrProtocolMismatch      = fmt.Errorf("%w: transport protocol mismatch", ErrConfigurationMismatch)
	ErrSocketRoleMismatch    = fmt.Errorf("%w: socket address has the wrong unicast/multicast role", ErrConfigurationMismatch)
	ErrIdentifierSetRequired = fmt.Errorf("%w: static connection wiring requires a pdu identifier set", ErrConfigurationMismatch)
)

// ErrInvalidParameter covers arguments that are malformed on their own,
// independent of document state.
var ErrInvalidParameter = errors.New("invalid parameter")
