package model

// VlanInfo tags an Ethernet channel with an IEEE 802.1Q VLAN.
// A channel without VlanInfo carries untagged traffic.
type VlanInfo struct {
	Name string `json:"name"`
	ID   uint16 `json:"id"`
}
