package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

const categoryWired = "WIRED"

// EthernetCluster groups the Ethernet channels of one physical network.
type EthernetCluster struct {
	sys  *System
	elem *tree.Element
}

func (c EthernetCluster) Name() string { return c.elem.Name() }

// CreatePhysicalChannel adds a channel to the cluster. vlan may be nil for
// the untagged channel. Each VLAN id may appear once per cluster, and only
// one channel may be untagged; violations fail with ErrDuplicateVlan.
func (c EthernetCluster) CreatePhysicalChannel(name string, vlan *model.VlanInfo) (EthernetChannel, error) {
	channels, err := c.elem.GetOrCreateChild(KindPhysicalChannels)
	if err != nil {
		return EthernetChannel{}, err
	}
	if err := checkVlanAvailable(channels, vlan, nil); err != nil {
		return EthernetChannel{}, err
	}
	elem, err := channels.CreateNamedChild(KindEthernetPhysicalChannel, name)
	if err != nil {
		return EthernetChannel{}, fmt.Errorf("create physical channel: %w", err)
	}
	cat, err := elem.GetOrCreateChild(KindCategory)
	if err != nil {
		return EthernetChannel{}, err
	}
	if err := cat.SetValue(categoryWired); err != nil {
		return EthernetChannel{}, err
	}
	ch := EthernetChannel{sys: c.sys, elem: elem}
	if vlan != nil {
		if err := ch.setVlan(*vlan); err != nil {
			return EthernetChannel{}, err
		}
	}
	return ch, nil
}

// Channels lists the cluster's physical channels.
func (c EthernetCluster) Channels() []EthernetChannel {
	channels := c.elem.GetChild(KindPhysicalChannels)
	if channels == nil {
		return nil
	}
	var out []EthernetChannel
	for _, e := range channels.ChildrenOfKind(KindEthernetPhysicalChannel) {
		out = append(out, EthernetChannel{sys: c.sys, elem: e})
	}
	return out
}

// checkVlanAvailable scans sibling channels for a VLAN id collision or a
// second untagged channel. skip is exempted from the scan (used when
// re-tagging an existing channel).
func checkVlanAvailable(channels *tree.Element, vlan *model.VlanInfo, skip *tree.Element) error {
	for _, sibling := range channels.ChildrenOfKind(KindEthernetPhysicalChannel) {
		if sibling == skip {
			continue
		}
		v := sibling.GetChild(KindVlan)
		if vlan == nil {
			if v == nil {
				return fmt.Errorf("second untagged channel: %w", ErrDuplicateVlan)
			}
			continue
		}
		if v == nil {
			continue
		}
		id, ok := v.Uint()
		if ok && uint16(id) == vlan.ID {
			return fmt.Errorf("vlan %d: %w", vlan.ID, ErrDuplicateVlan)
		}
	}
	return nil
}

// CanCluster groups the channels of one CAN bus.
type CanCluster struct {
	sys  *System
	elem *tree.Element
}

func (c CanCluster) Name() string { return c.elem.Name() }

// CreatePhysicalChannel adds the channel of the CAN cluster. A CAN cluster
// carries exactly one channel.
func (c CanCluster) CreatePhysicalChannel(name string) (CanChannel, error) {
	channels, err := c.elem.GetOrCreateChild(KindPhysicalChannels)
	if err != nil {
		return CanChannel{}, err
	}
	if len(channels.ChildrenOfKind(KindCanPhysicalChannel)) > 0 {
		return CanChannel{}, fmt.Errorf("can cluster %q already has a channel: %w", c.Name(), ErrStructuralConflict)
	}
	elem, err := channels.CreateNamedChild(KindCanPhysicalChannel, name)
	if err != nil {
		return CanChannel{}, fmt.Errorf("create physical channel: %w", err)
	}
	return CanChannel{sys: c.sys, elem: elem}, nil
}

// FlexrayCluster groups the (up to two) channels of one FlexRay bus.
type FlexrayCluster struct {
	sys  *System
	elem *tree.Element
}

func (c FlexrayCluster) Name() string { return c.elem.Name() }

// CreatePhysicalChannel adds a channel to the FlexRay cluster.
func (c FlexrayCluster) CreatePhysicalChannel(name string) (FlexrayChannel, error) {
	channels, err := c.elem.GetOrCreateChild(KindPhysicalChannels)
	if err != nil {
		return FlexrayChannel{}, err
	}
	if len(channels.ChildrenOfKind(KindFlexrayPhysicalChannel)) >= 2 {
		return FlexrayChannel{}, fmt.Errorf("flexray cluster %q already has two channels: %w", c.Name(), ErrStructuralConflict)
	}
	elem, err := channels.CreateNamedChild(KindFlexrayPhysicalChannel, name)
	if err != nil {
		return FlexrayChannel{}, fmt.Errorf("create physical channel: %w", err)
	}
	return FlexrayChannel{sys: c.sys, elem: elem}, nil
}

// Channels lists the cluster's physical channels.
func (c FlexrayCluster) Channels() []FlexrayChannel {
	channels := c.elem.GetChild(KindPhysicalChannels)
	if channels == nil {
		return nil
	}
	var out []FlexrayChannel
	for _, e := range channels.ChildrenOfKind(KindFlexrayPhysicalChannel) {
		out = append(out, FlexrayChannel{sys: c.sys, elem: e})
	}
	return out
}

// channelCluster resolves the cluster element owning a channel element.
func channelCluster(elem *tree.Element, clusterKind tree.Kind) (*tree.Element, error) {
	parent := elem.NamedParent()
	if parent == nil || parent.Kind() != clusterKind {
		return nil, fmt.Errorf("channel %q has no owning cluster: %w", elem.Name(), ErrReferenceIntegrity)
	}
	return parent, nil
}

// channelConnectorElems resolves the connector elements registered on a
// channel, skipping dangling references.
func channelConnectorElems(elem *tree.Element) []*tree.Element {
	commConns := elem.GetChild(KindCommConnectors)
	if commConns == nil {
		return nil
	}
	var out []*tree.Element
	for _, ref := range commConns.ChildrenOfKind(KindConnectorRef) {
		target := ref.Reference()
		if target == nil {
			continue
		}
		out = append(out, target)
	}
	return out
}

// channelEcuConnectorElem finds the connector of the given ECU on the
// channel, or nil.
func channelEcuConnectorElem(elem *tree.Element, ecu EcuInstance) *tree.Element {
	for _, conn := range channelConnectorElems(elem) {
		owner := conn.NamedParent()
		if owner == ecu.elem {
			return conn
		}
	}
	return nil
}
