package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/tree"
)

// Controller is the closed union of communication controllers. The concrete
// types carry bus-specific Connect methods; this interface covers the
// bus-agnostic surface.
type Controller interface {
	Name() string
	// Ecu returns the ECU node owning the controller.
	Ecu() (EcuInstance, error)
	element() *tree.Element
}

func controllerEcu(sys *System, elem *tree.Element) (EcuInstance, error) {
	parent := elem.NamedParent()
	if parent == nil || parent.Kind() != KindEcuInstance {
		return EcuInstance{}, fmt.Errorf("controller %q has no owning ecu: %w", elem.Name(), ErrReferenceIntegrity)
	}
	return EcuInstance{sys: sys, elem: parent}, nil
}

// controllerConnectors returns the connector elements of the owning ECU that
// reference the given controller.
func controllerConnectors(sys *System, ctrl *tree.Element, connectorKind tree.Kind) ([]*tree.Element, error) {
	ecu, err := controllerEcu(sys, ctrl)
	if err != nil {
		return nil, err
	}
	var out []*tree.Element
	for _, conn := range ecu.connectorElems() {
		if conn.Kind() != connectorKind {
			continue
		}
		ref := conn.GetChild(KindControllerRef)
		if ref == nil || ref.Reference() != ctrl {
			continue
		}
		out = append(out, conn)
	}
	return out, nil
}

// connectorChannelElem recovers the physical channel that holds a reference
// to the connector. Dangling connectors (for instance after a channel was
// removed) yield nil.
func connectorChannelElem(conn *tree.Element) *tree.Element {
	for _, ref := range conn.Referrers() {
		if ref.Kind() != KindConnectorRef {
			continue
		}
		ch := ref.NamedParent()
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case KindEthernetPhysicalChannel, KindCanPhysicalChannel, KindFlexrayPhysicalChannel:
			return ch
		}
	}
	return nil
}

// attachConnector creates the connector element on the ECU, points it at the
// controller, and registers it on the channel's connector list.
func attachConnector(ecu EcuInstance, ctrl *tree.Element, connectorKind tree.Kind, name string, channel *tree.Element) (*tree.Element, error) {
	conns, err := ecu.elem.GetOrCreateChild(KindConnectors)
	if err != nil {
		return nil, err
	}
	conn, err := conns.CreateNamedChild(connectorKind, name)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	ctrlRef, err := conn.CreateChild(KindControllerRef)
	if err != nil {
		return nil, err
	}
	if err := ctrlRef.SetReference(ctrl); err != nil {
		return nil, err
	}
	commConns, err := channel.GetOrCreateChild(KindCommConnectors)
	if err != nil {
		return nil, err
	}
	chRef, err := commConns.CreateChild(KindConnectorRef)
	if err != nil {
		return nil, err
	}
	if err := chRef.SetReference(conn); err != nil {
		return nil, err
	}
	return conn, nil
}
