package core

import (
	"fmt"
	"testing"

	"github.com/signalworks/ecutopo/model"
)

// sdFixture is a small two-ECU Ethernet topology ready for service-discovery
// configuration.
type sdFixture struct {
	sys     *System
	cluster EthernetCluster
	channel EthernetChannel

	ecus           []EcuInstance
	unicastSockets []SocketAddress
	rxPdus         []GeneralPurposePdu
	txPdus         []GeneralPurposePdu

	multicast SocketAddress
	remote    SocketAddress
	mPdu      GeneralPurposePdu

	cfg CommonServiceDiscoveryConfig
}

func uint16p(v uint16) *uint16 { return &v }
func boolp(v bool) *bool       { return &v }

func fixedV4(address string) model.NetworkEndpointAddress {
	return model.NetworkEndpointAddress{
		Family:   model.FamilyIPv4,
		Address:  address,
		SourceV4: model.IPv4SourceFixed,
	}
}

func wildcardV4() model.NetworkEndpointAddress {
	return model.NetworkEndpointAddress{
		Family:   model.FamilyIPv4,
		Address:  "ANY",
		SourceV4: model.IPv4SourceDHCPv4,
	}
}

// newSdFixture builds the fixture. staticCapable controls the platform
// capability; preferStatic the caller preference handed to the engine.
func newSdFixture(t *testing.T, ecuCount int, staticCapable, preferStatic bool) *sdFixture {
	t.Helper()

	var opts []SystemOption
	if staticCapable {
		opts = append(opts, WithStaticConnections())
	}
	sys := NewSystem(opts...)

	cluster, err := sys.CreateEthernetCluster("Cluster")
	if err != nil {
		t.Fatalf("CreateEthernetCluster: %v", err)
	}
	channel, err := cluster.CreatePhysicalChannel("Channel", &model.VlanInfo{Name: "VLAN_10", ID: 10})
	if err != nil {
		t.Fatalf("CreatePhysicalChannel: %v", err)
	}

	f := &sdFixture{sys: sys, cluster: cluster, channel: channel}

	for i := 0; i < ecuCount; i++ {
		name := string(rune('A' + i))
		ecu, err := sys.CreateEcuInstance("Ecu" + name)
		if err != nil {
			t.Fatalf("CreateEcuInstance: %v", err)
		}
		ctrl, err := ecu.CreateEthernetController("Eth0")
		if err != nil {
			t.Fatalf("CreateEthernetController: %v", err)
		}
		if _, err := ctrl.Connect("Conn"+name, channel); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		ep, err := channel.CreateNetworkEndpoint("Ep"+name, fixedV4(fmt.Sprintf("10.0.0.%d", i+1)))
		if err != nil {
			t.Fatalf("CreateNetworkEndpoint: %v", err)
		}
		sock, err := channel.CreateUnicastSocketAddress("Unicast"+name, ep, model.TpConfig{
			Protocol:   model.ProtocolUDP,
			PortNumber: uint16p(30490),
		}, nil)
		if err != nil {
			t.Fatalf("CreateUnicastSocketAddress: %v", err)
		}
		rx, err := sys.CreateGeneralPurposePdu("SdRx"+name, "SD", 0)
		if err != nil {
			t.Fatalf("CreateGeneralPurposePdu: %v", err)
		}
		tx, err := sys.CreateGeneralPurposePdu("SdTx"+name, "SD", 0)
		if err != nil {
			t.Fatalf("CreateGeneralPurposePdu: %v", err)
		}

		f.ecus = append(f.ecus, ecu)
		f.unicastSockets = append(f.unicastSockets, sock)
		f.rxPdus = append(f.rxPdus, rx)
		f.txPdus = append(f.txPdus, tx)
	}

	mEp, err := channel.CreateNetworkEndpoint("EpMulticast", fixedV4("239.0.0.1"))
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	f.multicast, err = channel.CreateMulticastSocketAddress("Multicast", mEp, model.TpConfig{
		Protocol:   model.ProtocolUDP,
		PortNumber: uint16p(30490),
	}, nil)
	if err != nil {
		t.Fatalf("CreateMulticastSocketAddress: %v", err)
	}

	rEp, err := channel.CreateNetworkEndpoint("EpRemote", wildcardV4())
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	f.remote, err = channel.CreateUnicastSocketAddress("Remote", rEp, model.TpConfig{
		Protocol:                model.ProtocolUDP,
		PortDynamicallyAssigned: boolp(true),
	}, nil)
	if err != nil {
		t.Fatalf("CreateUnicastSocketAddress: %v", err)
	}

	f.mPdu, err = sys.CreateGeneralPurposePdu("SdMulticastRx", "SD", 0)
	if err != nil {
		t.Fatalf("CreateGeneralPurposePdu: %v", err)
	}

	f.cfg = CommonServiceDiscoveryConfig{
		MulticastRxSocket:       f.multicast,
		MulticastRxPdu:          f.mPdu,
		RemoteSocket:            f.remote,
		PreferStaticConnections: preferStatic,
	}
	if staticCapable {
		set, err := sys.CreateIpduIdentifierSet("SdIdentifiers")
		if err != nil {
			t.Fatalf("CreateIpduIdentifierSet: %v", err)
		}
		f.cfg.IpduIdentifierSet = &set
	}
	return f
}

// configure runs the engine for ECU i and fails the test on error.
func (f *sdFixture) configure(t *testing.T, i int) {
	t.Helper()
	err := f.channel.ConfigureServiceDiscovery(f.ecus[i], f.unicastSockets[i], f.rxPdus[i], f.txPdus[i], f.cfg)
	if err != nil {
		t.Fatalf("ConfigureServiceDiscovery(%s): %v", f.ecus[i].Name(), err)
	}
}

// portCount tallies the ports of every triggering on the channel.
func (f *sdFixture) portCount(t *testing.T) int {
	t.Helper()
	total := 0
	for _, pt := range f.channel.PduTriggerings() {
		total += len(pt.PduPorts())
	}
	return total
}
