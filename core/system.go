// Package core models vehicle communication topologies: ECU nodes, bus
// controllers and their channel attachments, Ethernet clusters with VLAN'd
// physical channels, socket-level addressing, PDU routing, and the
// service-discovery wiring engine that ties them together.
//
// All types are thin handles over elements of a tree.Model document; copying
// a handle is cheap and two handles are interchangeable when they wrap the
// same element.
package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/tree"
)

// System is the root handle of a topology document.
type System struct {
	model *tree.Model
	root  *tree.Element

	staticConnectionsSupported bool
	wiringStyles               map[*tree.Element]WiringStyle
}

// SystemOption configures a System at creation.
type SystemOption func(*System)

// WithStaticConnections declares that the target platform understands
// static socket connections and shared PDU identifier sets. Without it the
// service-discovery engine always falls back to connection bundles.
func WithStaticConnections() SystemOption {
	return func(s *System) { s.staticConnectionsSupported = true }
}

// NewSystem creates an empty topology document.
func NewSystem(opts ...SystemOption) *System {
	m := tree.NewModel(KindSystem)
	s := &System{
		model:        m,
		root:         m.Root(),
		wiringStyles: make(map[*tree.Element]WiringStyle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model exposes the underlying tree document.
func (s *System) Model() *tree.Model { return s.model }

// StaticConnectionsSupported reports the platform capability set at
// construction.
func (s *System) StaticConnectionsSupported() bool { return s.staticConnectionsSupported }

func (s *System) container(kind tree.Kind) (*tree.Element, error) {
	return s.root.GetOrCreateChild(kind)
}

// CreateEcuInstance adds a new ECU node. Names are unique per system.
func (s *System) CreateEcuInstance(name string) (EcuInstance, error) {
	ecus, err := s.container(KindEcuInstances)
	if err != nil {
		return EcuInstance{}, err
	}
	elem, err := ecus.CreateNamedChild(KindEcuInstance, name)
	if err != nil {
		return EcuInstance{}, fmt.Errorf("create ecu instance: %w", err)
	}
	return EcuInstance{sys: s, elem: elem}, nil
}

// EcuInstances lists every ECU node of the system.
func (s *System) EcuInstances() []EcuInstance {
	ecus := s.root.GetChild(KindEcuInstances)
	if ecus == nil {
		return nil
	}
	var out []EcuInstance
	for _, e := range ecus.ChildrenOfKind(KindEcuInstance) {
		out = append(out, EcuInstance{sys: s, elem: e})
	}
	return out
}

// EcuInstance looks up an ECU node by name.
func (s *System) EcuInstance(name string) (EcuInstance, bool) {
	ecus := s.root.GetChild(KindEcuInstances)
	if ecus == nil {
		return EcuInstance{}, false
	}
	e := ecus.GetNamedChild(KindEcuInstance, name)
	if e == nil {
		return EcuInstance{}, false
	}
	return EcuInstance{sys: s, elem: e}, true
}

// CreateEthernetCluster adds an Ethernet cluster.
func (s *System) CreateEthernetCluster(name string) (EthernetCluster, error) {
	elem, err := s.createCluster(KindEthernetCluster, name)
	if err != nil {
		return EthernetCluster{}, err
	}
	return EthernetCluster{sys: s, elem: elem}, nil
}

// CreateCanCluster adds a CAN cluster.
func (s *System) CreateCanCluster(name string) (CanCluster, error) {
	elem, err := s.createCluster(KindCanCluster, name)
	if err != nil {
		return CanCluster{}, err
	}
	return CanCluster{sys: s, elem: elem}, nil
}

// CreateFlexrayCluster adds a FlexRay cluster.
func (s *System) CreateFlexrayCluster(name string) (FlexrayCluster, error) {
	elem, err := s.createCluster(KindFlexrayCluster, name)
	if err != nil {
		return FlexrayCluster{}, err
	}
	return FlexrayCluster{sys: s, elem: elem}, nil
}

func (s *System) createCluster(kind tree.Kind, name string) (*tree.Element, error) {
	clusters, err := s.container(KindClusters)
	if err != nil {
		return nil, err
	}
	elem, err := clusters.CreateNamedChild(kind, name)
	if err != nil {
		return nil, fmt.Errorf("create cluster: %w", err)
	}
	return elem, nil
}

// CreateGeneralPurposePdu adds a PDU definition with the given category and
// payload length in bytes.
func (s *System) CreateGeneralPurposePdu(name, category string, length uint32) (GeneralPurposePdu, error) {
	pdus, err := s.container(KindPdus)
	if err != nil {
		return GeneralPurposePdu{}, err
	}
	elem, err := pdus.CreateNamedChild(KindGeneralPurposePdu, name)
	if err != nil {
		return GeneralPurposePdu{}, fmt.Errorf("create pdu: %w", err)
	}
	cat, err := elem.GetOrCreateChild(KindCategory)
	if err != nil {
		return GeneralPurposePdu{}, err
	}
	if err := cat.SetValue(category); err != nil {
		return GeneralPurposePdu{}, err
	}
	lengthElem, err := elem.GetOrCreateChild(KindLength)
	if err != nil {
		return GeneralPurposePdu{}, err
	}
	if err := lengthElem.SetUint(uint64(length)); err != nil {
		return GeneralPurposePdu{}, err
	}
	return GeneralPurposePdu{sys: s, elem: elem}, nil
}

// CreateIpduIdentifierSet adds a shared PDU identifier set for static
// connection wiring.
func (s *System) CreateIpduIdentifierSet(name string) (SocketConnectionIpduIdentifierSet, error) {
	sets, err := s.container(KindIPduIdentifierSets)
	if err != nil {
		return SocketConnectionIpduIdentifierSet{}, err
	}
	elem, err := sets.CreateNamedChild(KindIPduIdentifierSet, name)
	if err != nil {
		return SocketConnectionIpduIdentifierSet{}, fmt.Errorf("create ipdu identifier set: %w", err)
	}
	return SocketConnectionIpduIdentifierSet{sys: s, elem: elem}, nil
}
