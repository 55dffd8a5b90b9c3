package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

// StaticSocketConnection is the modern connection wiring: a directed link
// from a local socket to a remote socket, referencing PDU identifiers that
// live in a shared identifier set.
type StaticSocketConnection struct {
	sys  *System
	elem *tree.Element
}

// CreateStaticConnection adds a static connection from this socket to the
// remote socket. Both sockets must use the same transport protocol. tcpRole
// and connectTimeout are optional TCP attributes.
func (sa SocketAddress) CreateStaticConnection(name string, remote SocketAddress, tcpRole *model.TcpRole, connectTimeout *float64) (StaticSocketConnection, error) {
	if sa.TpConfig().Protocol != remote.TpConfig().Protocol {
		return StaticSocketConnection{}, fmt.Errorf("static connection %q: %w", name, ErrProtocolMismatch)
	}
	conns, err := sa.elem.GetOrCreateChild(KindStaticConnections)
	if err != nil {
		return StaticSocketConnection{}, err
	}
	elem, err := conns.CreateNamedChild(KindStaticSocketConnection, name)
	if err != nil {
		return StaticSocketConnection{}, fmt.Errorf("create static connection: %w", err)
	}
	ref, err := elem.CreateChild(KindRemoteSocketRef)
	if err != nil {
		return StaticSocketConnection{}, err
	}
	if err := ref.SetReference(remote.elem); err != nil {
		return StaticSocketConnection{}, err
	}
	if tcpRole != nil {
		r, err := elem.GetOrCreateChild(KindTcpRole)
		if err != nil {
			return StaticSocketConnection{}, err
		}
		if err := r.SetValue(string(*tcpRole)); err != nil {
			return StaticSocketConnection{}, err
		}
	}
	if connectTimeout != nil {
		t, err := elem.GetOrCreateChild(KindTcpConnectTimeout)
		if err != nil {
			return StaticSocketConnection{}, err
		}
		if err := t.SetFloat(*connectTimeout); err != nil {
			return StaticSocketConnection{}, err
		}
	}
	return StaticSocketConnection{sys: sa.sys, elem: elem}, nil
}

// CreateStaticConnectionPair creates the two directed connections between a
// local and a remote socket in one step, with mirrored TCP roles.
func (sa SocketAddress) CreateStaticConnectionPair(name string, remote SocketAddress, connectTimeout *float64) (StaticSocketConnection, StaticSocketConnection, error) {
	localRole, remoteRole := model.TcpRoleConnect, model.TcpRoleListen
	local, err := sa.CreateStaticConnection(name, remote, &localRole, connectTimeout)
	if err != nil {
		return StaticSocketConnection{}, StaticSocketConnection{}, err
	}
	back, err := remote.CreateStaticConnection(name, sa, &remoteRole, connectTimeout)
	if err != nil {
		return StaticSocketConnection{}, StaticSocketConnection{}, err
	}
	return local, back, nil
}

// StaticConnections lists the socket's static connections.
func (sa SocketAddress) StaticConnections() []StaticSocketConnection {
	conns := sa.elem.GetChild(KindStaticConnections)
	if conns == nil {
		return nil
	}
	var out []StaticSocketConnection
	for _, e := range conns.ChildrenOfKind(KindStaticSocketConnection) {
		out = append(out, StaticSocketConnection{sys: sa.sys, elem: e})
	}
	return out
}

func (c StaticSocketConnection) Name() string { return c.elem.Name() }

// Socket returns the local socket owning the connection.
func (c StaticSocketConnection) Socket() (SocketAddress, error) {
	sa := c.elem.NamedParent()
	if sa == nil || sa.Kind() != KindSocketAddress {
		return SocketAddress{}, fmt.Errorf("static connection %q has no owning socket: %w", c.Name(), ErrReferenceIntegrity)
	}
	return SocketAddress{sys: c.sys, elem: sa}, nil
}

// RemoteSocket resolves the remote end of the connection.
func (c StaticSocketConnection) RemoteSocket() (SocketAddress, error) {
	ref := c.elem.GetChild(KindRemoteSocketRef)
	if ref == nil {
		return SocketAddress{}, fmt.Errorf("static connection %q has no remote socket reference: %w", c.Name(), ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindSocketAddress {
		return SocketAddress{}, fmt.Errorf("static connection %q remote socket reference is dangling: %w", c.Name(), ErrReferenceIntegrity)
	}
	return SocketAddress{sys: c.sys, elem: target}, nil
}

// TcpRole returns the connection's TCP role, if set.
func (c StaticSocketConnection) TcpRole() (model.TcpRole, bool) {
	r := c.elem.GetChild(KindTcpRole)
	if r == nil {
		return "", false
	}
	v, ok := r.Value()
	return model.TcpRole(v), ok
}

// AddIpduIdentifier routes the identifier's PDU over the connection. Adding
// the same identifier twice is a no-op.
func (c StaticSocketConnection) AddIpduIdentifier(id SoConIpduIdentifier) error {
	for _, ref := range c.elem.ChildrenOfKind(KindIPduIdentifierRef) {
		if ref.Reference() == id.elem {
			return nil
		}
	}
	ref, err := c.elem.CreateChild(KindIPduIdentifierRef)
	if err != nil {
		return err
	}
	return ref.SetReference(id.elem)
}

// IpduIdentifiers lists the identifiers routed over the connection,
// skipping dangling references.
func (c StaticSocketConnection) IpduIdentifiers() []SoConIpduIdentifier {
	var out []SoConIpduIdentifier
	for _, ref := range c.elem.ChildrenOfKind(KindIPduIdentifierRef) {
		target := ref.Reference()
		if target == nil || target.Kind() != KindSoConIPduIdentifier {
			continue
		}
		out = append(out, SoConIpduIdentifier{sys: c.sys, elem: target})
	}
	return out
}

// SocketConnectionIpduIdentifierSet is a shared pool of PDU identifiers
// referenced by static socket connections.
type SocketConnectionIpduIdentifierSet struct {
	sys  *System
	elem *tree.Element
}

func (s SocketConnectionIpduIdentifierSet) Name() string { return s.elem.Name() }

// CreateIpduIdentifier adds a named identifier to the set, creating a
// triggering for the PDU on the given channel.
func (s SocketConnectionIpduIdentifierSet) CreateIpduIdentifier(name string, pdu GeneralPurposePdu, ch EthernetChannel, headerID uint32, timeout *float64, trigger *model.PduCollectionTrigger) (SoConIpduIdentifier, error) {
	elem, err := s.elem.CreateNamedChild(KindSoConIPduIdentifier, name)
	if err != nil {
		return SoConIpduIdentifier{}, fmt.Errorf("create ipdu identifier: %w", err)
	}
	if err := writeIdentifierAttrs(elem, headerID, timeout, trigger); err != nil {
		return SoConIpduIdentifier{}, err
	}
	id := SoConIpduIdentifier{sys: s.sys, elem: elem}
	if err := id.SetPdu(pdu, ch); err != nil {
		return SoConIpduIdentifier{}, err
	}
	return id, nil
}

// IpduIdentifiers lists the identifiers of the set.
func (s SocketConnectionIpduIdentifierSet) IpduIdentifiers() []SoConIpduIdentifier {
	var out []SoConIpduIdentifier
	for _, e := range s.elem.ChildrenOfKind(KindSoConIPduIdentifier) {
		out = append(out, SoConIpduIdentifier{sys: s.sys, elem: e})
	}
	return out
}

// SoConIpduIdentifier identifies one PDU on the wire, shared between the
// static connections that reference it.
type SoConIpduIdentifier struct {
	sys  *System
	elem *tree.Element
}

func (id SoConIpduIdentifier) Name() string { return id.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (id SoConIpduIdentifier) Element() *tree.Element { return id.elem }

// HeaderID returns the wire header id.
func (id SoConIpduIdentifier) HeaderID() (uint32, bool) {
	e := id.elem.GetChild(KindHeaderId)
	if e == nil {
		return 0, false
	}
	v, ok := e.Uint()
	return uint32(v), ok
}

// PduTriggering resolves the identifier's triggering.
func (id SoConIpduIdentifier) PduTriggering() (PduTriggering, error) {
	return resolveTriggeringRef(id.sys, id.elem)
}

// Timeout returns the PDU collection timeout in seconds, if set.
func (id SoConIpduIdentifier) Timeout() (float64, bool) {
	return identifierTimeout(id.elem)
}

// CollectionTrigger returns the collection trigger policy, if set.
func (id SoConIpduIdentifier) CollectionTrigger() (model.PduCollectionTrigger, bool) {
	return identifierTrigger(id.elem)
}

// SetPdu binds the identifier to a PDU on the given channel, replacing any
// previous triggering reference.
func (id SoConIpduIdentifier) SetPdu(pdu GeneralPurposePdu, ch EthernetChannel) error {
	pt, err := createPduTriggering(ch, pdu)
	if err != nil {
		return err
	}
	ref, err := id.elem.GetOrCreateChild(KindPduTriggeringRef)
	if err != nil {
		return err
	}
	return ref.SetReference(pt.elem)
}
