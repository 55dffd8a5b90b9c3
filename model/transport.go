package model

// TransportProtocol is the L4 protocol of a socket address.
type TransportProtocol string

const (
	ProtocolTCP TransportProtocol = "TCP"
	ProtocolUDP TransportProtocol = "UDP"
)

// TpConfig is the transport-layer configuration of a socket address.
// PortNumber and PortDynamicallyAssigned are mutually exclusive ways of
// stating the local port; both unset means an unconfigured port.
type TpConfig struct {
	Protocol                TransportProtocol `json:"protocol"`
	PortNumber              *uint16           `json:"portNumber,omitempty"`
	PortDynamicallyAssigned *bool             `json:"portDynamicallyAssigned,omitempty"`
}

// DynamicallyAssigned reports whether the port is marked dynamic.
func (c TpConfig) DynamicallyAssigned() bool {
	return c.PortDynamicallyAssigned != nil && *c.PortDynamicallyAssigned
}

// StaticPort returns the configured fixed port number, if any.
func (c TpConfig) StaticPort() (uint16, bool) {
	if c.PortNumber == nil {
		return 0, false
	}
	return *c.PortNumber, true
}
