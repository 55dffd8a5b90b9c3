package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/tree"
)

// CanController is a CAN communication controller. A CAN controller attaches
// to at most one channel.
type CanController struct {
	sys  *System
	elem *tree.Element
}

func (c CanController) Name() string           { return c.elem.Name() }
func (c CanController) element() *tree.Element { return c.elem }

// Ecu returns the ECU node owning the controller.
func (c CanController) Ecu() (EcuInstance, error) {
	return controllerEcu(c.sys, c.elem)
}

// Connect attaches the controller to a CAN channel. A second attachment
// fails: with ErrAlreadyConnected for the same channel, ErrClusterMismatch
// for any other.
func (c CanController) Connect(connectorName string, channel CanChannel) (CanConnector, error) {
	existing, err := c.ConnectedChannel()
	if err != nil {
		return CanConnector{}, err
	}
	if existing != nil {
		if existing.elem == channel.elem {
			return CanConnector{}, fmt.Errorf("controller %q, channel %q: %w", c.Name(), channel.Name(), ErrAlreadyConnected)
		}
		return CanConnector{}, fmt.Errorf("controller %q, channel %q: %w", c.Name(), channel.Name(), ErrClusterMismatch)
	}
	ecu, err := c.Ecu()
	if err != nil {
		return CanConnector{}, err
	}
	conn, err := attachConnector(ecu, c.elem, KindCanConnector, connectorName, channel.elem)
	if err != nil {
		return CanConnector{}, err
	}
	return CanConnector{sys: c.sys, elem: conn}, nil
}

// ConnectedChannel returns the attached channel, or nil when the controller
// is unattached or its connector dangles.
func (c CanController) ConnectedChannel() (*CanChannel, error) {
	conns, err := controllerConnectors(c.sys, c.elem, KindCanConnector)
	if err != nil {
		return nil, err
	}
	for _, conn := range conns {
		ch := connectorChannelElem(conn)
		if ch == nil || ch.Kind() != KindCanPhysicalChannel {
			continue
		}
		return &CanChannel{sys: c.sys, elem: ch}, nil
	}
	return nil, nil
}

// CanConnector is the attachment of a CAN controller to a channel.
type CanConnector struct {
	sys  *System
	elem *tree.Element
}

func (c CanConnector) Name() string { return c.elem.Name() }

// Ecu returns the ECU node owning the connector.
func (c CanConnector) Ecu() (EcuInstance, error) {
	parent := c.elem.NamedParent()
	if parent == nil || parent.Kind() != KindEcuInstance {
		return EcuInstance{}, fmt.Errorf("connector %q has no owning ecu: %w", c.elem.Name(), ErrReferenceIntegrity)
	}
	return EcuInstance{sys: c.sys, elem: parent}, nil
}
