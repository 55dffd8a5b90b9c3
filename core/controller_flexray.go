package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/tree"
)

// FlexrayController is a FlexRay communication controller. Like Ethernet,
// it may attach to several channels of a single cluster (FlexRay clusters
// carry up to two channels).
type FlexrayController struct {
	sys  *System
	elem *tree.Element
}

func (c FlexrayController) Name() string           { return c.elem.Name() }
func (c FlexrayController) element() *tree.Element { return c.elem }

// Ecu returns the ECU node owning the controller.
func (c FlexrayController) Ecu() (EcuInstance, error) {
	return controllerEcu(c.sys, c.elem)
}

// Connect attaches the controller to a FlexRay channel.
func (c FlexrayController) Connect(connectorName string, channel FlexrayChannel) (FlexrayConnector, error) {
	cluster, err := channel.Cluster()
	if err != nil {
		return FlexrayConnector{}, err
	}
	existing, err := c.ConnectedChannels()
	if err != nil {
		return FlexrayConnector{}, err
	}
	for _, ch := range existing {
		if ch.elem == channel.elem {
			return FlexrayConnector{}, fmt.Errorf("controller %q, channel %q: %w", c.Name(), channel.Name(), ErrAlreadyConnected)
		}
		chCluster, err := ch.Cluster()
		if err != nil {
			return FlexrayConnector{}, err
		}
		if chCluster.elem != cluster.elem {
			return FlexrayConnector{}, fmt.Errorf("controller %q, channel %q: %w", c.Name(), channel.Name(), ErrClusterMismatch)
		}
	}
	ecu, err := c.Ecu()
	if err != nil {
		return FlexrayConnector{}, err
	}
	conn, err := attachConnector(ecu, c.elem, KindFlexrayConnector, connectorName, channel.elem)
	if err != nil {
		return FlexrayConnector{}, err
	}
	return FlexrayConnector{sys: c.sys, elem: conn}, nil
}

// ConnectedChannels lists the channels the controller is attached to.
func (c FlexrayController) ConnectedChannels() ([]FlexrayChannel, error) {
	conns, err := controllerConnectors(c.sys, c.elem, KindFlexrayConnector)
	if err != nil {
		return nil, err
	}
	var out []FlexrayChannel
	for _, conn := range conns {
		ch := connectorChannelElem(conn)
		if ch == nil || ch.Kind() != KindFlexrayPhysicalChannel {
			continue
		}
		out = append(out, FlexrayChannel{sys: c.sys, elem: ch})
	}
	return out, nil
}

// FlexrayConnector is the attachment of a FlexRay controller to a channel.
type FlexrayConnector struct {
	sys  *System
	elem *tree.Element
}

func (c FlexrayConnector) Name() string { return c.elem.Name() }

// Ecu returns the ECU node owning the connector.
func (c FlexrayConnector) Ecu() (EcuInstance, error) {
	parent := c.elem.NamedParent()
	if parent == nil || parent.Kind() != KindEcuInstance {
		return EcuInstance{}, fmt.Errorf("connector %q has no owning ecu: %w", c.elem.Name(), ErrReferenceIntegrity)
	}
	return EcuInstance{sys: c.sys, elem: parent}, nil
}
