package model

// AddressFamily distinguishes IPv4 from IPv6 endpoint addresses.
type AddressFamily string

const (
	FamilyIPv4 AddressFamily = "IPV4"
	FamilyIPv6 AddressFamily = "IPV6"
)

// IPv4AddressSource states how an IPv4 address is obtained.
type IPv4AddressSource string

const (
	IPv4SourceAutoIP     IPv4AddressSource = "AUTO-IP"
	IPv4SourceAutoIPDoIP IPv4AddressSource = "AUTO-IP-DOIP"
	IPv4SourceDHCPv4     IPv4AddressSource = "DHCPV4"
	IPv4SourceFixed      IPv4AddressSource = "FIXED"
)

// IPv6AddressSource states how an IPv6 address is obtained.
type IPv6AddressSource string

const (
	IPv6SourceDHCPv6              IPv6AddressSource = "DHCPV6"
	IPv6SourceLinkLocal           IPv6AddressSource = "LINK-LOCAL"
	IPv6SourceLinkLocalDoIP       IPv6AddressSource = "LINK-LOCAL-DOIP"
	IPv6SourceRouterAdvertisement IPv6AddressSource = "ROUTER-ADVERTISEMENT"
	IPv6SourceFixed               IPv6AddressSource = "FIXED"
)

// NetworkEndpointAddress is one address record of a network endpoint.
// Exactly the fields of the stated family are meaningful; "ANY" as the
// address string stands for the wildcard address.
type NetworkEndpointAddress struct {
	Family AddressFamily `json:"family"`

	Address        string            `json:"address,omitempty"`
	SourceV4       IPv4AddressSource `json:"sourceV4,omitempty"`
	NetworkMask    string            `json:"networkMask,omitempty"`
	DefaultGateway string            `json:"defaultGateway,omitempty"`

	SourceV6     IPv6AddressSource `json:"sourceV6,omitempty"`
	PrefixLength *uint8            `json:"prefixLength,omitempty"`
}

// IsFixed reports whether the record uses a fixed (statically configured)
// address source.
func (a NetworkEndpointAddress) IsFixed() bool {
	switch a.Family {
	case FamilyIPv4:
		return a.SourceV4 == IPv4SourceFixed
	case FamilyIPv6:
		return a.SourceV6 == IPv6SourceFixed
	}
	return false
}

// IsWildcard reports whether the record stands for the unspecified ("ANY")
// address. Unset address strings count as wildcard.
func (a NetworkEndpointAddress) IsWildcard() bool {
	return a.Address == "" || a.Address == "ANY"
}
