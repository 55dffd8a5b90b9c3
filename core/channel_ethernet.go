package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

// EthernetChannel is one VLAN (or the untagged segment) of an Ethernet
// cluster. It owns the channel-local network endpoints, socket addresses,
// connection wiring, and PDU triggerings.
type EthernetChannel struct {
	sys  *System
	elem *tree.Element
}

func (ch EthernetChannel) Name() string { return ch.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (ch EthernetChannel) Element() *tree.Element { return ch.elem }

// Cluster returns the owning Ethernet cluster.
func (ch EthernetChannel) Cluster() (EthernetCluster, error) {
	elem, err := channelCluster(ch.elem, KindEthernetCluster)
	if err != nil {
		return EthernetCluster{}, err
	}
	return EthernetCluster{sys: ch.sys, elem: elem}, nil
}

// Vlan returns the channel's VLAN tag, or nil for the untagged channel.
func (ch EthernetChannel) Vlan() *model.VlanInfo {
	v := ch.elem.GetChild(KindVlan)
	if v == nil {
		return nil
	}
	id, ok := v.Uint()
	if !ok {
		return nil
	}
	return &model.VlanInfo{Name: v.Name(), ID: uint16(id)}
}

// SetVlan re-tags the channel, revalidating VLAN uniqueness in the cluster.
func (ch EthernetChannel) SetVlan(vlan model.VlanInfo) error {
	channels := ch.elem.Parent()
	if channels == nil {
		return fmt.Errorf("channel %q: %w", ch.Name(), ErrReferenceIntegrity)
	}
	if err := checkVlanAvailable(channels, &vlan, ch.elem); err != nil {
		return err
	}
	if old := ch.elem.GetChild(KindVlan); old != nil {
		if err := ch.elem.RemoveChild(old); err != nil {
			return err
		}
	}
	return ch.setVlan(vlan)
}

func (ch EthernetChannel) setVlan(vlan model.VlanInfo) error {
	v, err := ch.elem.CreateNamedChild(KindVlan, vlan.Name)
	if err != nil {
		return err
	}
	return v.SetUint(uint64(vlan.ID))
}

// Connectors lists the ECU connectors attached to the channel.
func (ch EthernetChannel) Connectors() []EthernetConnector {
	var out []EthernetConnector
	for _, conn := range channelConnectorElems(ch.elem) {
		if conn.Kind() != KindEthernetConnector {
			continue
		}
		out = append(out, EthernetConnector{sys: ch.sys, elem: conn})
	}
	return out
}

// EcuConnector finds the connector of the given ECU on this channel.
func (ch EthernetChannel) EcuConnector(ecu EcuInstance) (EthernetConnector, bool) {
	conn := channelEcuConnectorElem(ch.elem, ecu)
	if conn == nil || conn.Kind() != KindEthernetConnector {
		return EthernetConnector{}, false
	}
	return EthernetConnector{sys: ch.sys, elem: conn}, true
}

// CreateNetworkEndpoint adds an L3 endpoint with an initial address record.
// When the record is rejected the endpoint is not created.
func (ch EthernetChannel) CreateNetworkEndpoint(name string, addr model.NetworkEndpointAddress) (NetworkEndpoint, error) {
	endpoints, err := ch.elem.GetOrCreateChild(KindNetworkEndpoints)
	if err != nil {
		return NetworkEndpoint{}, err
	}
	elem, err := endpoints.CreateNamedChild(KindNetworkEndpoint, name)
	if err != nil {
		return NetworkEndpoint{}, fmt.Errorf("create network endpoint: %w", err)
	}
	ep := NetworkEndpoint{sys: ch.sys, elem: elem}
	if err := ep.AddAddress(addr); err != nil {
		// Roll the empty endpoint back so a failed creation leaves no trace.
		_ = endpoints.RemoveChild(elem)
		return NetworkEndpoint{}, err
	}
	return ep, nil
}

// NetworkEndpoints lists the channel's endpoints.
func (ch EthernetChannel) NetworkEndpoints() []NetworkEndpoint {
	endpoints := ch.elem.GetChild(KindNetworkEndpoints)
	if endpoints == nil {
		return nil
	}
	var out []NetworkEndpoint
	for _, e := range endpoints.ChildrenOfKind(KindNetworkEndpoint) {
		out = append(out, NetworkEndpoint{sys: ch.sys, elem: e})
	}
	return out
}

// SocketAddresses lists the channel's socket addresses.
func (ch EthernetChannel) SocketAddresses() []SocketAddress {
	sockets := ch.elem.GetChild(KindSocketAddresses)
	if sockets == nil {
		return nil
	}
	var out []SocketAddress
	for _, e := range sockets.ChildrenOfKind(KindSocketAddress) {
		out = append(out, SocketAddress{sys: ch.sys, elem: e})
	}
	return out
}

// Bundles lists the channel's legacy socket connection bundles.
func (ch EthernetChannel) Bundles() []SocketConnectionBundle {
	bundles := ch.elem.GetChild(KindConnectionBundles)
	if bundles == nil {
		return nil
	}
	var out []SocketConnectionBundle
	for _, e := range bundles.ChildrenOfKind(KindSocketConnectionBundle) {
		out = append(out, SocketConnectionBundle{sys: ch.sys, elem: e})
	}
	return out
}

// PduTriggerings lists the PDU triggerings of the channel.
func (ch EthernetChannel) PduTriggerings() []PduTriggering {
	pts := ch.elem.GetChild(KindPduTriggerings)
	if pts == nil {
		return nil
	}
	var out []PduTriggering
	for _, e := range pts.ChildrenOfKind(KindPduTriggering) {
		out = append(out, PduTriggering{sys: ch.sys, elem: e})
	}
	return out
}

// HasLegacyConnections reports whether any bundle on the channel carries a
// bundled connection.
func (ch EthernetChannel) HasLegacyConnections() bool {
	for _, b := range ch.Bundles() {
		if len(b.Connections()) > 0 {
			return true
		}
	}
	return false
}

// HasStaticConnections reports whether any socket of the channel carries a
// static socket connection.
func (ch EthernetChannel) HasStaticConnections() bool {
	for _, sa := range ch.SocketAddresses() {
		if len(sa.StaticConnections()) > 0 {
			return true
		}
	}
	return false
}
