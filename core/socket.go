package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

// SocketRole distinguishes unicast from multicast socket addresses.
type SocketRole string

const (
	RoleUnicast   SocketRole = "UNICAST"
	RoleMulticast SocketRole = "MULTICAST"
)

// SocketAddress binds a transport-layer port to a network endpoint on an
// Ethernet channel. Unicast sockets belong to at most one ECU; multicast
// sockets carry the set of receiving ECUs.
type SocketAddress struct {
	sys  *System
	elem *tree.Element
}

// CreateUnicastSocketAddress adds a unicast socket address to the channel.
// ecu may be nil for a socket not yet bound to a node; a non-nil ecu must be
// connected to the channel.
func (ch EthernetChannel) CreateUnicastSocketAddress(name string, endpoint NetworkEndpoint, tp model.TpConfig, ecu *EcuInstance) (SocketAddress, error) {
	sa, err := ch.createSocketAddress(name, endpoint, tp, RoleUnicast)
	if err != nil {
		return SocketAddress{}, err
	}
	if ecu != nil {
		if err := sa.SetUnicastEcu(*ecu); err != nil {
			sockets := sa.elem.Parent()
			_ = sockets.RemoveChild(sa.elem)
			return SocketAddress{}, err
		}
	}
	return sa, nil
}

// CreateMulticastSocketAddress adds a multicast socket address to the
// channel. TCP multicast is rejected; every listed ECU must be connected to
// the channel.
func (ch EthernetChannel) CreateMulticastSocketAddress(name string, endpoint NetworkEndpoint, tp model.TpConfig, ecus []EcuInstance) (SocketAddress, error) {
	if tp.Protocol == model.ProtocolTCP {
		return SocketAddress{}, fmt.Errorf("multicast socket %q cannot use tcp: %w", name, ErrInvalidParameter)
	}
	sa, err := ch.createSocketAddress(name, endpoint, tp, RoleMulticast)
	if err != nil {
		return SocketAddress{}, err
	}
	for _, ecu := range ecus {
		if err := sa.AddMulticastEcu(ecu); err != nil {
			sockets := sa.elem.Parent()
			_ = sockets.RemoveChild(sa.elem)
			return SocketAddress{}, err
		}
	}
	return sa, nil
}

func (ch EthernetChannel) createSocketAddress(name string, endpoint NetworkEndpoint, tp model.TpConfig, role SocketRole) (SocketAddress, error) {
	epChannel, err := endpoint.Channel()
	if err != nil {
		return SocketAddress{}, err
	}
	if epChannel.elem != ch.elem {
		return SocketAddress{}, fmt.Errorf("socket %q: endpoint %q: %w", name, endpoint.Name(), ErrSocketChannelMismatch)
	}
	sockets, err := ch.elem.GetOrCreateChild(KindSocketAddresses)
	if err != nil {
		return SocketAddress{}, err
	}
	elem, err := sockets.CreateNamedChild(KindSocketAddress, name)
	if err != nil {
		return SocketAddress{}, fmt.Errorf("create socket address: %w", err)
	}
	roleElem, err := elem.GetOrCreateChild(KindSocketRole)
	if err != nil {
		return SocketAddress{}, err
	}
	if err := roleElem.SetValue(string(role)); err != nil {
		return SocketAddress{}, err
	}
	epRef, err := elem.CreateChild(KindNetworkEndpointRef)
	if err != nil {
		return SocketAddress{}, err
	}
	if err := epRef.SetReference(endpoint.elem); err != nil {
		return SocketAddress{}, err
	}
	sa := SocketAddress{sys: ch.sys, elem: elem}
	if err := sa.setTpConfig(tp); err != nil {
		return SocketAddress{}, err
	}
	return sa, nil
}

func (sa SocketAddress) Name() string { return sa.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (sa SocketAddress) Element() *tree.Element { return sa.elem }

// SameAs reports whether two handles wrap the same socket address.
func (sa SocketAddress) SameAs(other SocketAddress) bool { return sa.elem == other.elem }

// Channel returns the Ethernet channel owning the socket address.
func (sa SocketAddress) Channel() (EthernetChannel, error) {
	ch := sa.elem.NamedParent()
	if ch == nil || ch.Kind() != KindEthernetPhysicalChannel {
		return EthernetChannel{}, fmt.Errorf("socket %q has no owning channel: %w", sa.Name(), ErrReferenceIntegrity)
	}
	return EthernetChannel{sys: sa.sys, elem: ch}, nil
}

// Role returns the socket's unicast/multicast role.
func (sa SocketAddress) Role() SocketRole {
	r := sa.elem.GetChild(KindSocketRole)
	if r == nil {
		return RoleUnicast
	}
	v, _ := r.Value()
	return SocketRole(v)
}

// NetworkEndpoint resolves the endpoint the socket is bound to.
func (sa SocketAddress) NetworkEndpoint() (NetworkEndpoint, error) {
	ref := sa.elem.GetChild(KindNetworkEndpointRef)
	if ref == nil {
		return NetworkEndpoint{}, fmt.Errorf("socket %q has no endpoint reference: %w", sa.Name(), ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindNetworkEndpoint {
		return NetworkEndpoint{}, fmt.Errorf("socket %q endpoint reference is dangling: %w", sa.Name(), ErrReferenceIntegrity)
	}
	return NetworkEndpoint{sys: sa.sys, elem: target}, nil
}

func (sa SocketAddress) setTpConfig(tp model.TpConfig) error {
	cfg, err := sa.elem.GetOrCreateChild(KindTpConfiguration)
	if err != nil {
		return err
	}
	proto, err := cfg.GetOrCreateChild(KindProtocol)
	if err != nil {
		return err
	}
	if err := proto.SetValue(string(tp.Protocol)); err != nil {
		return err
	}
	if port, ok := tp.StaticPort(); ok {
		p, err := cfg.GetOrCreateChild(KindPortNumber)
		if err != nil {
			return err
		}
		if err := p.SetUint(uint64(port)); err != nil {
			return err
		}
	}
	if tp.PortDynamicallyAssigned != nil {
		d, err := cfg.GetOrCreateChild(KindDynamicallyAssigned)
		if err != nil {
			return err
		}
		if err := d.SetBool(*tp.PortDynamicallyAssigned); err != nil {
			return err
		}
	}
	return nil
}

// TpConfig returns the socket's transport-layer configuration.
func (sa SocketAddress) TpConfig() model.TpConfig {
	var tp model.TpConfig
	cfg := sa.elem.GetChild(KindTpConfiguration)
	if cfg == nil {
		return tp
	}
	if proto := cfg.GetChild(KindProtocol); proto != nil {
		v, _ := proto.Value()
		tp.Protocol = model.TransportProtocol(v)
	}
	if p := cfg.GetChild(KindPortNumber); p != nil {
		if v, ok := p.Uint(); ok {
			port := uint16(v)
			tp.PortNumber = &port
		}
	}
	if d := cfg.GetChild(KindDynamicallyAssigned); d != nil {
		if v, ok := d.Bool(); ok {
			tp.PortDynamicallyAssigned = &v
		}
	}
	return tp
}

// SetUnicastEcu binds a unicast socket to the ECU's connector on the
// socket's channel. Rebinding to the same ECU is a no-op.
func (sa SocketAddress) SetUnicastEcu(ecu EcuInstance) error {
	if sa.Role() != RoleUnicast {
		return fmt.Errorf("socket %q: %w", sa.Name(), ErrSocketRoleMismatch)
	}
	ch, err := sa.Channel()
	if err != nil {
		return err
	}
	conn := channelEcuConnectorElem(ch.elem, ecu)
	if conn == nil {
		return fmt.Errorf("socket %q, ecu %q: %w", sa.Name(), ecu.Name(), ErrNotConnected)
	}
	ref, err := sa.elem.GetOrCreateChild(KindConnectorRef)
	if err != nil {
		return err
	}
	return ref.SetReference(conn)
}

// UnicastEcu returns the ECU a unicast socket is bound to, if any.
func (sa SocketAddress) UnicastEcu() (EcuInstance, bool) {
	ref := sa.elem.GetChild(KindConnectorRef)
	if ref == nil {
		return EcuInstance{}, false
	}
	conn := ref.Reference()
	if conn == nil {
		return EcuInstance{}, false
	}
	owner := conn.NamedParent()
	if owner == nil || owner.Kind() != KindEcuInstance {
		return EcuInstance{}, false
	}
	return EcuInstance{sys: sa.sys, elem: owner}, true
}

// AddMulticastEcu adds an ECU to the receiver set of a multicast socket.
// Adding an ECU twice is a no-op.
func (sa SocketAddress) AddMulticastEcu(ecu EcuInstance) error {
	if sa.Role() != RoleMulticast {
		return fmt.Errorf("socket %q: %w", sa.Name(), ErrSocketRoleMismatch)
	}
	ch, err := sa.Channel()
	if err != nil {
		return err
	}
	conn := channelEcuConnectorElem(ch.elem, ecu)
	if conn == nil {
		return fmt.Errorf("socket %q, ecu %q: %w", sa.Name(), ecu.Name(), ErrNotConnected)
	}
	for _, ref := range sa.elem.ChildrenOfKind(KindMulticastConnectorRef) {
		if ref.Reference() == conn {
			return nil
		}
	}
	ref, err := sa.elem.CreateChild(KindMulticastConnectorRef)
	if err != nil {
		return err
	}
	return ref.SetReference(conn)
}

// MulticastEcus returns the receiver set of a multicast socket.
func (sa SocketAddress) MulticastEcus() []EcuInstance {
	var out []EcuInstance
	for _, ref := range sa.elem.ChildrenOfKind(KindMulticastConnectorRef) {
		conn := ref.Reference()
		if conn == nil {
			continue
		}
		owner := conn.NamedParent()
		if owner == nil || owner.Kind() != KindEcuInstance {
			continue
		}
		out = append(out, EcuInstance{sys: sa.sys, elem: owner})
	}
	return out
}
