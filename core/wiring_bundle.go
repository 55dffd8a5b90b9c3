package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

// SocketConnectionBundle is the legacy connection wiring: one server socket
// with a set of client connections, each carrying its PDU identifiers.
type SocketConnectionBundle struct {
	sys  *System
	elem *tree.Element
}

// CreateBundle adds a legacy connection bundle for the given server socket.
func (ch EthernetChannel) CreateBundle(name string, serverPort SocketAddress) (SocketConnectionBundle, error) {
	saChannel, err := serverPort.Channel()
	if err != nil {
		return SocketConnectionBundle{}, err
	}
	if saChannel.elem != ch.elem {
		return SocketConnectionBundle{}, fmt.Errorf("bundle %q, server socket %q: %w", name, serverPort.Name(), ErrSocketChannelMismatch)
	}
	bundles, err := ch.elem.GetOrCreateChild(KindConnectionBundles)
	if err != nil {
		return SocketConnectionBundle{}, err
	}
	elem, err := bundles.CreateNamedChild(KindSocketConnectionBundle, name)
	if err != nil {
		return SocketConnectionBundle{}, fmt.Errorf("create bundle: %w", err)
	}
	ref, err := elem.CreateChild(KindServerPortRef)
	if err != nil {
		return SocketConnectionBundle{}, err
	}
	if err := ref.SetReference(serverPort.elem); err != nil {
		return SocketConnectionBundle{}, err
	}
	return SocketConnectionBundle{sys: ch.sys, elem: elem}, nil
}

func (b SocketConnectionBundle) Name() string { return b.elem.Name() }

// Channel returns the channel owning the bundle.
func (b SocketConnectionBundle) Channel() (EthernetChannel, error) {
	ch := b.elem.NamedParent()
	if ch == nil || ch.Kind() != KindEthernetPhysicalChannel {
		return EthernetChannel{}, fmt.Errorf("bundle %q has no owning channel: %w", b.Name(), ErrReferenceIntegrity)
	}
	return EthernetChannel{sys: b.sys, elem: ch}, nil
}

// ServerPort resolves the bundle's server socket.
func (b SocketConnectionBundle) ServerPort() (SocketAddress, error) {
	ref := b.elem.GetChild(KindServerPortRef)
	if ref == nil {
		return SocketAddress{}, fmt.Errorf("bundle %q has no server port reference: %w", b.Name(), ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindSocketAddress {
		return SocketAddress{}, fmt.Errorf("bundle %q server port reference is dangling: %w", b.Name(), ErrReferenceIntegrity)
	}
	return SocketAddress{sys: b.sys, elem: target}, nil
}

// CreateConnection adds a client connection to the bundle. The client socket
// must use the same transport protocol as the server socket.
func (b SocketConnectionBundle) CreateConnection(clientPort SocketAddress) (SocketConnection, error) {
	server, err := b.ServerPort()
	if err != nil {
		return SocketConnection{}, err
	}
	if server.TpConfig().Protocol != clientPort.TpConfig().Protocol {
		return SocketConnection{}, fmt.Errorf("bundle %q, client socket %q: %w", b.Name(), clientPort.Name(), ErrProtocolMismatch)
	}
	conns, err := b.elem.GetOrCreateChild(KindBundledConnections)
	if err != nil {
		return SocketConnection{}, err
	}
	elem, err := conns.CreateChild(KindSocketConnection)
	if err != nil {
		return SocketConnection{}, err
	}
	ref, err := elem.CreateChild(KindClientPortRef)
	if err != nil {
		return SocketConnection{}, err
	}
	if err := ref.SetReference(clientPort.elem); err != nil {
		return SocketConnection{}, err
	}
	return SocketConnection{sys: b.sys, elem: elem}, nil
}

// Connections lists the bundle's client connections.
func (b SocketConnectionBundle) Connections() []SocketConnection {
	conns := b.elem.GetChild(KindBundledConnections)
	if conns == nil {
		return nil
	}
	var out []SocketConnection
	for _, e := range conns.ChildrenOfKind(KindSocketConnection) {
		out = append(out, SocketConnection{sys: b.sys, elem: e})
	}
	return out
}

// SocketConnection is one client connection inside a bundle.
type SocketConnection struct {
	sys  *System
	elem *tree.Element
}

// Bundle returns the owning bundle.
func (c SocketConnection) Bundle() (SocketConnectionBundle, error) {
	b := c.elem.NamedParent()
	if b == nil || b.Kind() != KindSocketConnectionBundle {
		return SocketConnectionBundle{}, fmt.Errorf("socket connection has no owning bundle: %w", ErrReferenceIntegrity)
	}
	return SocketConnectionBundle{sys: c.sys, elem: b}, nil
}

// ClientPort resolves the connection's client socket.
func (c SocketConnection) ClientPort() (SocketAddress, error) {
	ref := c.elem.GetChild(KindClientPortRef)
	if ref == nil {
		return SocketAddress{}, fmt.Errorf("socket connection has no client port reference: %w", ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindSocketAddress {
		return SocketAddress{}, fmt.Errorf("socket connection client port reference is dangling: %w", ErrReferenceIntegrity)
	}
	return SocketAddress{sys: c.sys, elem: target}, nil
}

// SetClientIpFromRequest marks the client IP as taken from the incoming
// connection request at runtime.
func (c SocketConnection) SetClientIpFromRequest(v bool) error {
	e, err := c.elem.GetOrCreateChild(KindClientIpFromRequest)
	if err != nil {
		return err
	}
	return e.SetBool(v)
}

// ClientIpFromRequest reports the runtime client-IP flag.
func (c SocketConnection) ClientIpFromRequest() bool {
	e := c.elem.GetChild(KindClientIpFromRequest)
	if e == nil {
		return false
	}
	v, _ := e.Bool()
	return v
}

// SetClientPortFromRequest marks the client port as taken from the incoming
// connection request at runtime.
func (c SocketConnection) SetClientPortFromRequest(v bool) error {
	e, err := c.elem.GetOrCreateChild(KindClientPortFromRequest)
	if err != nil {
		return err
	}
	return e.SetBool(v)
}

// ClientPortFromRequest reports the runtime client-port flag.
func (c SocketConnection) ClientPortFromRequest() bool {
	e := c.elem.GetChild(KindClientPortFromRequest)
	if e == nil {
		return false
	}
	v, _ := e.Bool()
	return v
}

// CreateIpduIdentifier routes a PDU over the connection: it creates a
// triggering for the PDU on the bundle's channel and attaches the wire
// identification (header id, timeout, collection trigger) to the connection.
func (c SocketConnection) CreateIpduIdentifier(pdu GeneralPurposePdu, headerID uint32, timeout *float64, trigger *model.PduCollectionTrigger) (SocketConnectionIpduIdentifier, error) {
	bundle, err := c.Bundle()
	if err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	ch, err := bundle.Channel()
	if err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	pt, err := createPduTriggering(ch, pdu)
	if err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	ids, err := c.elem.GetOrCreateChild(KindPduIdentifiers)
	if err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	elem, err := ids.CreateChild(KindSocketConnectionIPduId)
	if err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	id := SocketConnectionIpduIdentifier{sys: c.sys, elem: elem}
	if err := writeIdentifierAttrs(elem, headerID, timeout, trigger); err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	ref, err := elem.CreateChild(KindPduTriggeringRef)
	if err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	if err := ref.SetReference(pt.elem); err != nil {
		return SocketConnectionIpduIdentifier{}, err
	}
	return id, nil
}

// IpduIdentifiers lists the PDU identifiers carried by the connection.
func (c SocketConnection) IpduIdentifiers() []SocketConnectionIpduIdentifier {
	ids := c.elem.GetChild(KindPduIdentifiers)
	if ids == nil {
		return nil
	}
	var out []SocketConnectionIpduIdentifier
	for _, e := range ids.ChildrenOfKind(KindSocketConnectionIPduId) {
		out = append(out, SocketConnectionIpduIdentifier{sys: c.sys, elem: e})
	}
	return out
}

// SocketConnectionIpduIdentifier identifies one PDU on the wire within a
// bundled connection.
type SocketConnectionIpduIdentifier struct {
	sys  *System
	elem *tree.Element
}

// HeaderID returns the wire header id.
func (id SocketConnectionIpduIdentifier) HeaderID() (uint32, bool) {
	e := id.elem.GetChild(KindHeaderId)
	if e == nil {
		return 0, false
	}
	v, ok := e.Uint()
	return uint32(v), ok
}

// PduTriggering resolves the identifier's triggering.
func (id SocketConnectionIpduIdentifier) PduTriggering() (PduTriggering, error) {
	return resolveTriggeringRef(id.sys, id.elem)
}

// Timeout returns the PDU collection timeout in seconds, if set.
func (id SocketConnectionIpduIdentifier) Timeout() (float64, bool) {
	return identifierTimeout(id.elem)
}

// CollectionTrigger returns the collection trigger policy, if set.
func (id SocketConnectionIpduIdentifier) CollectionTrigger() (model.PduCollectionTrigger, bool) {
	return identifierTrigger(id.elem)
}

func identifierTimeout(elem *tree.Element) (float64, bool) {
	e := elem.GetChild(KindTimeout)
	if e == nil {
		return 0, false
	}
	return e.Float()
}

func identifierTrigger(elem *tree.Element) (model.PduCollectionTrigger, bool) {
	e := elem.GetChild(KindCollectionTrigger)
	if e == nil {
		return "", false
	}
	v, ok := e.Value()
	if !ok {
		return "", false
	}
	return model.PduCollectionTrigger(v), true
}

func writeIdentifierAttrs(elem *tree.Element, headerID uint32, timeout *float64, trigger *model.PduCollectionTrigger) error {
	h, err := elem.GetOrCreateChild(KindHeaderId)
	if err != nil {
		return err
	}
	if err := h.SetUint(uint64(headerID)); err != nil {
		return err
	}
	if timeout != nil {
		t, err := elem.GetOrCreateChild(KindTimeout)
		if err != nil {
			return err
		}
		if err := t.SetFloat(*timeout); err != nil {
			return err
		}
	}
	if trigger != nil {
		ct, err := elem.GetOrCreateChild(KindCollectionTrigger)
		if err != nil {
			return err
		}
		if err := ct.SetValue(string(*trigger)); err != nil {
			return err
		}
	}
	return nil
}

func resolveTriggeringRef(sys *System, elem *tree.Element) (PduTriggering, error) {
	ref := elem.GetChild(KindPduTriggeringRef)
	if ref == nil {
		return PduTriggering{}, fmt.Errorf("pdu identifier has no triggering reference: %w", ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindPduTriggering {
		return PduTriggering{}, fmt.Errorf("pdu identifier triggering reference is dangling: %w", ErrReferenceIntegrity)
	}
	return PduTriggering{sys: sys, elem: target}, nil
}
