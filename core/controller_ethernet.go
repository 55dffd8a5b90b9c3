package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/tree"
)

// EthernetController is an Ethernet communication controller of an ECU.
// One controller may attach to several channels, but only within a single
// cluster, with at most one connector per channel.
type EthernetController struct {
	sys  *System
	elem *tree.Element
}

func (c EthernetController) Name() string           { return c.elem.Name() }
func (c EthernetController) element() *tree.Element { return c.elem }

// Ecu returns the ECU node owning the controller.
func (c EthernetController) Ecu() (EcuInstance, error) {
	return controllerEcu(c.sys, c.elem)
}

// Connect attaches the controller to an Ethernet channel, creating a named
// connector on the owning ECU. Connecting the same channel twice fails with
// ErrAlreadyConnected; connecting a channel of another cluster fails with
// ErrClusterMismatch.
func (c EthernetController) Connect(connectorName string, channel EthernetChannel) (EthernetConnector, error) {
	cluster, err := channel.Cluster()
	if err != nil {
		return EthernetConnector{}, err
	}
	existing, err := c.ConnectedChannels()
	if err != nil {
		return EthernetConnector{}, err
	}
	for _, ch := range existing {
		if ch.elem == channel.elem {
			return EthernetConnector{}, fmt.Errorf("controller %q, channel %q: %w", c.Name(), channel.Name(), ErrAlreadyConnected)
		}
		chCluster, err := ch.Cluster()
		if err != nil {
			return EthernetConnector{}, err
		}
		if chCluster.elem != cluster.elem {
			return EthernetConnector{}, fmt.Errorf("controller %q, channel %q: %w", c.Name(), channel.Name(), ErrClusterMismatch)
		}
	}
	ecu, err := c.Ecu()
	if err != nil {
		return EthernetConnector{}, err
	}
	conn, err := attachConnector(ecu, c.elem, KindEthernetConnector, connectorName, channel.elem)
	if err != nil {
		return EthernetConnector{}, err
	}
	cat, err := conn.GetOrCreateChild(KindCategory)
	if err != nil {
		return EthernetConnector{}, err
	}
	if err := cat.SetValue(categoryWired); err != nil {
		return EthernetConnector{}, err
	}
	return EthernetConnector{sys: c.sys, elem: conn}, nil
}

// ConnectedChannels lists the channels the controller is attached to.
// Connectors whose channel has been removed are skipped.
func (c EthernetController) ConnectedChannels() ([]EthernetChannel, error) {
	conns, err := controllerConnectors(c.sys, c.elem, KindEthernetConnector)
	if err != nil {
		return nil, err
	}
	var out []EthernetChannel
	for _, conn := range conns {
		ch := connectorChannelElem(conn)
		if ch == nil || ch.Kind() != KindEthernetPhysicalChannel {
			continue
		}
		out = append(out, EthernetChannel{sys: c.sys, elem: ch})
	}
	return out, nil
}

// EthernetConnector is the attachment of an Ethernet controller to a channel.
type EthernetConnector struct {
	sys  *System
	elem *tree.Element
}

func (c EthernetConnector) Name() string { return c.elem.Name() }

// Ecu returns the ECU node owning the connector.
func (c EthernetConnector) Ecu() (EcuInstance, error) {
	parent := c.elem.NamedParent()
	if parent == nil || parent.Kind() != KindEcuInstance {
		return EcuInstance{}, fmt.Errorf("connector %q has no owning ecu: %w", c.elem.Name(), ErrReferenceIntegrity)
	}
	return EcuInstance{sys: c.sys, elem: parent}, nil
}

// Controller resolves the controller the connector belongs to.
func (c EthernetConnector) Controller() (EthernetController, error) {
	ref := c.elem.GetChild(KindControllerRef)
	if ref == nil {
		return EthernetController{}, fmt.Errorf("connector %q has no controller reference: %w", c.elem.Name(), ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindEthernetController {
		return EthernetController{}, fmt.Errorf("connector %q controller reference is dangling: %w", c.elem.Name(), ErrReferenceIntegrity)
	}
	return EthernetController{sys: c.sys, elem: target}, nil
}

// Channel resolves the channel the connector is attached to, if it still
// exists.
func (c EthernetConnector) Channel() (EthernetChannel, bool) {
	ch := connectorChannelElem(c.elem)
	if ch == nil || ch.Kind() != KindEthernetPhysicalChannel {
		return EthernetChannel{}, false
	}
	return EthernetChannel{sys: c.sys, elem: ch}, true
}
