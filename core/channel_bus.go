package core

import "github.com/signalworks/ecutopo/tree"

// CanChannel is the single physical channel of a CAN cluster.
type CanChannel struct {
	sys  *System
	elem *tree.Element
}

func (ch CanChannel) Name() string { return ch.elem.Name() }

// Cluster returns the owning CAN cluster.
func (ch CanChannel) Cluster() (CanCluster, error) {
	elem, err := channelCluster(ch.elem, KindCanCluster)
	if err != nil {
		return CanCluster{}, err
	}
	return CanCluster{sys: ch.sys, elem: elem}, nil
}

// Connectors lists the ECU connectors attached to the channel.
func (ch CanChannel) Connectors() []CanConnector {
	var out []CanConnector
	for _, conn := range channelConnectorElems(ch.elem) {
		if conn.Kind() != KindCanConnector {
			continue
		}
		out = append(out, CanConnector{sys: ch.sys, elem: conn})
	}
	return out
}

// EcuConnector finds the connector of the given ECU on this channel.
func (ch CanChannel) EcuConnector(ecu EcuInstance) (CanConnector, bool) {
	conn := channelEcuConnectorElem(ch.elem, ecu)
	if conn == nil || conn.Kind() != KindCanConnector {
		return CanConnector{}, false
	}
	return CanConnector{sys: ch.sys, elem: conn}, true
}

// FlexrayChannel is one of the two physical channels of a FlexRay cluster.
type FlexrayChannel struct {
	sys  *System
	elem *tree.Element
}

func (ch FlexrayChannel) Name() string { return ch.elem.Name() }

// Cluster returns the owning FlexRay cluster.
func (ch FlexrayChannel) Cluster() (FlexrayCluster, error) {
	elem, err := channelCluster(ch.elem, KindFlexrayCluster)
	if err != nil {
		return FlexrayCluster{}, err
	}
	return FlexrayCluster{sys: ch.sys, elem: elem}, nil
}

// Connectors lists the ECU connectors attached to the channel.
func (ch FlexrayChannel) Connectors() []FlexrayConnector {
	var out []FlexrayConnector
	for _, conn := range channelConnectorElems(ch.elem) {
		if conn.Kind() != KindFlexrayConnector {
			continue
		}
		out = append(out, FlexrayConnector{sys: ch.sys, elem: conn})
	}
	return out
}

// EcuConnector finds the connector of the given ECU on this channel.
func (ch FlexrayChannel) EcuConnector(ecu EcuInstance) (FlexrayConnector, bool) {
	conn := channelEcuConnectorElem(ch.elem, ecu)
	if conn == nil || conn.Kind() != KindFlexrayConnector {
		return FlexrayConnector{}, false
	}
	return FlexrayConnector{sys: ch.sys, elem: conn}, true
}
