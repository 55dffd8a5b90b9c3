package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
)

// SdHeaderID is the wire header id shared by all service-discovery PDUs.
const SdHeaderID uint32 = 0xFFFF_8100

// WiringStyle selects how connections are represented on a channel.
type WiringStyle int

const (
	// WiringStyleBundle is the legacy representation: socket connection
	// bundles with per-connection PDU identifiers.
	WiringStyleBundle WiringStyle = iota
	// WiringStyleStatic is the modern representation: static socket
	// connections referencing a shared PDU identifier set.
	WiringStyleStatic
)

func (s WiringStyle) String() string {
	if s == WiringStyleStatic {
		return "static"
	}
	return "bundle"
}

// CommonServiceDiscoveryConfig carries the channel-wide parts of a
// service-discovery setup, shared by every ECU configured on the channel.
type CommonServiceDiscoveryConfig struct {
	// MulticastRxSocket is the shared multicast socket on which all ECUs
	// receive SD offers.
	MulticastRxSocket SocketAddress
	// MulticastRxPdu is the PDU received on the multicast socket.
	MulticastRxPdu GeneralPurposePdu
	// RemoteSocket stands for the unknown remote partners: wildcard
	// addresses and a dynamic (or zero) port.
	RemoteSocket SocketAddress
	// PreferStaticConnections requests the modern wiring when the platform
	// supports it and the channel is not already wired the legacy way.
	PreferStaticConnections bool
	// IpduIdentifierSet receives the PDU identifiers of static connection
	// wiring. Required only for the modern mechanism.
	IpduIdentifierSet *SocketConnectionIpduIdentifierSet
	// NamePrefix is prepended to every element name the engine creates.
	NamePrefix string
}

// ResolvedWiringStyle returns the channel's wiring style if it has been
// resolved by a previous configuration run.
func (ch EthernetChannel) ResolvedWiringStyle() (WiringStyle, bool) {
	style, ok := ch.sys.wiringStyles[ch.elem]
	return style, ok
}

// resolveWiringStyle picks the wiring style for the channel. Existing wiring
// always wins over the caller preference. The result is not cached here; the
// engine pins it only once a run passes all preconditions, so a failed run
// leaves the selection open.
func (ch EthernetChannel) resolveWiringStyle(preferStatic bool) WiringStyle {
	if style, ok := ch.sys.wiringStyles[ch.elem]; ok {
		return style
	}
	switch {
	case ch.HasLegacyConnections():
		return WiringStyleBundle
	case ch.HasStaticConnections():
		return WiringStyleStatic
	case ch.sys.staticConnectionsSupported && preferStatic:
		return WiringStyleStatic
	}
	return WiringStyleBundle
}

// ConfigureServiceDiscovery wires service discovery for one ECU on the
// channel: the ECU's unicast rx/tx PDUs over its unicast socket, and the
// shared multicast rx PDU over the common multicast socket.
//
// Every precondition is checked before the document is touched; on error the
// document is unchanged. Re-running a completed configuration is a no-op, as
// long as invocations are not interleaved with conflicting edits.
func (ch EthernetChannel) ConfigureServiceDiscovery(ecu EcuInstance, unicastSocket SocketAddress, unicastRxPdu, unicastTxPdu GeneralPurposePdu, cfg CommonServiceDiscoveryConfig) error {
	if channelEcuConnectorElem(ch.elem, ecu) == nil {
		return fmt.Errorf("configure sd for %q: %w", ecu.Name(), ErrNotConnected)
	}
	style := ch.resolveWiringStyle(cfg.PreferStaticConnections)

	for _, sa := range []SocketAddress{unicastSocket, cfg.MulticastRxSocket, cfg.RemoteSocket} {
		saChannel, err := sa.Channel()
		if err != nil {
			return fmt.Errorf("configure sd for %q: %w", ecu.Name(), err)
		}
		if saChannel.elem != ch.elem {
			return fmt.Errorf("configure sd for %q, socket %q: %w", ecu.Name(), sa.Name(), ErrSocketChannelMismatch)
		}
	}

	if unicastSocket.Role() != RoleUnicast {
		return fmt.Errorf("configure sd for %q, socket %q: %w", ecu.Name(), unicastSocket.Name(), ErrSocketRoleMismatch)
	}
	if bound, ok := unicastSocket.UnicastEcu(); ok && bound.elem != ecu.elem {
		return fmt.Errorf("configure sd for %q: unicast socket %q is bound to %q: %w",
			ecu.Name(), unicastSocket.Name(), bound.Name(), ErrConfigurationMismatch)
	}
	if cfg.MulticastRxSocket.Role() != RoleMulticast {
		return fmt.Errorf("configure sd for %q, socket %q: %w", ecu.Name(), cfg.MulticastRxSocket.Name(), ErrSocketRoleMismatch)
	}

	unicastTp := unicastSocket.TpConfig()
	multicastTp := cfg.MulticastRxSocket.TpConfig()
	remoteTp := cfg.RemoteSocket.TpConfig()
	for _, tp := range []model.TpConfig{unicastTp, multicastTp, remoteTp} {
		if tp.Protocol != model.ProtocolUDP {
			return fmt.Errorf("configure sd for %q: service discovery requires udp: %w", ecu.Name(), ErrProtocolMismatch)
		}
	}
	unicastPort, uok := unicastTp.StaticPort()
	multicastPort, mok := multicastTp.StaticPort()
	if !uok || !mok || unicastPort != multicastPort {
		return fmt.Errorf("configure sd for %q: %w", ecu.Name(), ErrPortMismatch)
	}
	if !remoteTp.DynamicallyAssigned() {
		port, ok := remoteTp.StaticPort()
		if !ok || port != 0 {
			return fmt.Errorf("configure sd for %q, socket %q: %w", ecu.Name(), cfg.RemoteSocket.Name(), ErrInvalidRemotePort)
		}
	}
	remoteEndpoint, err := cfg.RemoteSocket.NetworkEndpoint()
	if err != nil {
		return fmt.Errorf("configure sd for %q: %w: %w", ecu.Name(), ErrInvalidRemoteAddress, err)
	}
	if !remoteEndpoint.AllWildcard() {
		return fmt.Errorf("configure sd for %q, socket %q: %w", ecu.Name(), cfg.RemoteSocket.Name(), ErrInvalidRemoteAddress)
	}
	if style == WiringStyleStatic && cfg.IpduIdentifierSet == nil {
		return fmt.Errorf("configure sd for %q: %w", ecu.Name(), ErrIdentifierSetRequired)
	}

	// All preconditions hold; pin the style so later runs with a different
	// preference cannot mix mechanisms on this channel, then modify the
	// document.
	ch.sys.wiringStyles[ch.elem] = style
	if err := unicastSocket.SetUnicastEcu(ecu); err != nil {
		return fmt.Errorf("configure sd for %q: %w", ecu.Name(), err)
	}
	if err := cfg.MulticastRxSocket.AddMulticastEcu(ecu); err != nil {
		return fmt.Errorf("configure sd for %q: %w", ecu.Name(), err)
	}

	if style == WiringStyleStatic {
		err = ch.sdWireStatic(ecu, unicastSocket, unicastRxPdu, unicastTxPdu, cfg)
	} else {
		err = ch.sdWireBundles(ecu, unicastSocket, unicastRxPdu, unicastTxPdu, cfg)
	}
	if err != nil {
		return fmt.Errorf("configure sd for %q: %w", ecu.Name(), err)
	}
	return nil
}

// sdWireBundles realizes the SD routing with legacy connection bundles.
func (ch EthernetChannel) sdWireBundles(ecu EcuInstance, unicastSocket SocketAddress, unicastRxPdu, unicastTxPdu GeneralPurposePdu, cfg CommonServiceDiscoveryConfig) error {
	trigger := model.TriggerAlways

	conn, ok := ch.findSdConnection(unicastSocket, cfg.RemoteSocket, 2)
	if !ok {
		bundle, err := ch.CreateBundle(cfg.NamePrefix+"SD_Unicast_"+ecu.Name(), unicastSocket)
		if err != nil {
			return err
		}
		conn, err = bundle.CreateConnection(cfg.RemoteSocket)
		if err != nil {
			return err
		}
		if err := conn.SetClientIpFromRequest(true); err != nil {
			return err
		}
		if err := conn.SetClientPortFromRequest(true); err != nil {
			return err
		}
		if _, err := conn.CreateIpduIdentifier(unicastTxPdu, SdHeaderID, nil, &trigger); err != nil {
			return err
		}
		if _, err := conn.CreateIpduIdentifier(unicastRxPdu, SdHeaderID, nil, &trigger); err != nil {
			return err
		}
	}
	for _, id := range conn.IpduIdentifiers() {
		pt, err := id.PduTriggering()
		if err != nil {
			return err
		}
		if err := attachSdPort(pt, ecu, unicastTxPdu); err != nil {
			return err
		}
	}

	mconn, ok := ch.findSdConnection(cfg.MulticastRxSocket, cfg.RemoteSocket, 1)
	if !ok {
		bundle, err := ch.CreateBundle(cfg.NamePrefix+"SD_Multicast_Rx", cfg.MulticastRxSocket)
		if err != nil {
			return err
		}
		mconn, err = bundle.CreateConnection(cfg.RemoteSocket)
		if err != nil {
			return err
		}
		if err := mconn.SetClientIpFromRequest(true); err != nil {
			return err
		}
		if err := mconn.SetClientPortFromRequest(true); err != nil {
			return err
		}
		if _, err := mconn.CreateIpduIdentifier(cfg.MulticastRxPdu, SdHeaderID, nil, &trigger); err != nil {
			return err
		}
	}
	ids := mconn.IpduIdentifiers()
	if len(ids) != 1 {
		return fmt.Errorf("multicast sd connection carries %d identifiers: %w", len(ids), ErrReferenceIntegrity)
	}
	pt, err := ids[0].PduTriggering()
	if err != nil {
		return err
	}
	_, err = pt.CreatePduPort(ecu, model.DirectionIn)
	return err
}

// findSdConnection searches the channel's bundles for an SD connection:
// server socket, remote client socket taken from the connection request, and
// the expected number of PDU identifiers.
func (ch EthernetChannel) findSdConnection(server, remote SocketAddress, identifierCount int) (SocketConnection, bool) {
	for _, b := range ch.Bundles() {
		sp, err := b.ServerPort()
		if err != nil || !sp.SameAs(server) {
			continue
		}
		for _, conn := range b.Connections() {
			cp, err := conn.ClientPort()
			if err != nil || !cp.SameAs(remote) {
				continue
			}
			if !conn.ClientIpFromRequest() || !conn.ClientPortFromRequest() {
				continue
			}
			if len(conn.IpduIdentifiers()) != identifierCount {
				continue
			}
			return conn, true
		}
	}
	return SocketConnection{}, false
}

// sdWireStatic realizes the SD routing with static socket connections and
// the shared PDU identifier set.
func (ch EthernetChannel) sdWireStatic(ecu EcuInstance, unicastSocket SocketAddress, unicastRxPdu, unicastTxPdu GeneralPurposePdu, cfg CommonServiceDiscoveryConfig) error {
	set := *cfg.IpduIdentifierSet
	trigger := model.TriggerAlways

	conn, ok := findStaticSdConnection(unicastSocket, cfg.RemoteSocket, 2)
	if !ok {
		var err error
		conn, err = unicastSocket.CreateStaticConnection(cfg.NamePrefix+"SD_Unicast_"+ecu.Name(), cfg.RemoteSocket, nil, nil)
		if err != nil {
			return err
		}
		idRx, err := set.CreateIpduIdentifier(cfg.NamePrefix+"SD_Unicast_Rx_"+ecu.Name(), unicastRxPdu, ch, SdHeaderID, nil, &trigger)
		if err != nil {
			return err
		}
		idTx, err := set.CreateIpduIdentifier(cfg.NamePrefix+"SD_Unicast_Tx_"+ecu.Name(), unicastTxPdu, ch, SdHeaderID, nil, &trigger)
		if err != nil {
			return err
		}
		if err := conn.AddIpduIdentifier(idRx); err != nil {
			return err
		}
		if err := conn.AddIpduIdentifier(idTx); err != nil {
			return err
		}
	}
	for _, id := range conn.IpduIdentifiers() {
		pt, err := id.PduTriggering()
		if err != nil {
			return err
		}
		if err := attachSdPort(pt, ecu, unicastTxPdu); err != nil {
			return err
		}
	}

	mconn, ok := findStaticSdConnection(cfg.MulticastRxSocket, cfg.RemoteSocket, 1)
	if !ok {
		var err error
		mconn, err = cfg.MulticastRxSocket.CreateStaticConnection(cfg.NamePrefix+"SD_Multicast_Rx", cfg.RemoteSocket, nil, nil)
		if err != nil {
			return err
		}
		id, err := set.CreateIpduIdentifier(cfg.NamePrefix+"SD_Multicast_Rx", cfg.MulticastRxPdu, ch, SdHeaderID, nil, &trigger)
		if err != nil {
			return err
		}
		if err := mconn.AddIpduIdentifier(id); err != nil {
			return err
		}
	}
	ids := mconn.IpduIdentifiers()
	if len(ids) != 1 {
		return fmt.Errorf("multicast sd connection carries %d identifiers: %w", len(ids), ErrReferenceIntegrity)
	}
	pt, err := ids[0].PduTriggering()
	if err != nil {
		return err
	}
	_, err = pt.CreatePduPort(ecu, model.DirectionIn)
	return err
}

// findStaticSdConnection searches a socket's static connections for one that
// targets the remote socket with the expected number of identifiers.
func findStaticSdConnection(local, remote SocketAddress, identifierCount int) (StaticSocketConnection, bool) {
	for _, conn := range local.StaticConnections() {
		rs, err := conn.RemoteSocket()
		if err != nil || !rs.SameAs(remote) {
			continue
		}
		if len(conn.IpduIdentifiers()) != identifierCount {
			continue
		}
		return conn, true
	}
	return StaticSocketConnection{}, false
}

// attachSdPort adds the ECU's port to a unicast SD triggering, outbound for
// the tx PDU and inbound otherwise.
func attachSdPort(pt PduTriggering, ecu EcuInstance, txPdu GeneralPurposePdu) error {
	pdu, err := pt.Pdu()
	if err != nil {
		return err
	}
	dir := model.DirectionIn
	if pdu.elem == txPdu.elem {
		dir = model.DirectionOut
	}
	_, err = pt.CreatePduPort(ecu, dir)
	return err
}
