package core

import (
	"errors"
	"testing"

	"github.com/signalworks/ecutopo/model"
)

func TestMulticastSocketRejectsTcp(t *testing.T) {
	f := newSdFixture(t, 1, false, false)
	ep, err := f.channel.CreateNetworkEndpoint("EpTcp", fixedV4("239.0.0.2"))
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	_, err = f.channel.CreateMulticastSocketAddress("TcpMulticast", ep, model.TpConfig{
		Protocol:   model.ProtocolTCP,
		PortNumber: uint16p(30490),
	}, nil)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("tcp multicast error = %v, want ErrInvalidParameter", err)
	}
}

func TestSetUnicastEcuRequiresChannelConnection(t *testing.T) {
	f := newSdFixture(t, 1, false, false)
	stranger, err := f.sys.CreateEcuInstance("Stranger")
	if err != nil {
		t.Fatalf("CreateEcuInstance: %v", err)
	}
	err = f.unicastSockets[0].SetUnicastEcu(stranger)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("unconnected ecu error = %v, want ErrNotConnected", err)
	}
	if err := f.unicastSockets[0].SetUnicastEcu(f.ecus[0]); err != nil {
		t.Fatalf("SetUnicastEcu: %v", err)
	}
	ecu, ok := f.unicastSockets[0].UnicastEcu()
	if !ok || !ecu.SameAs(f.ecus[0]) {
		t.Errorf("UnicastEcu = %v, %v; want EcuA", ecu, ok)
	}
}

func TestRoleMismatchOnEcuBinding(t *testing.T) {
	f := newSdFixture(t, 1, false, false)
	if err := f.multicast.SetUnicastEcu(f.ecus[0]); !errors.Is(err, ErrSocketRoleMismatch) {
		t.Errorf("SetUnicastEcu on multicast = %v, want ErrSocketRoleMismatch", err)
	}
	if err := f.unicastSockets[0].AddMulticastEcu(f.ecus[0]); !errors.Is(err, ErrSocketRoleMismatch) {
		t.Errorf("AddMulticastEcu on unicast = %v, want ErrSocketRoleMismatch", err)
	}
}

func TestAddMulticastEcuIsIdempotent(t *testing.T) {
	f := newSdFixture(t, 2, false, false)
	for i := 0; i < 2; i++ {
		if err := f.multicast.AddMulticastEcu(f.ecus[0]); err != nil {
			t.Fatalf("AddMulticastEcu: %v", err)
		}
	}
	if err := f.multicast.AddMulticastEcu(f.ecus[1]); err != nil {
		t.Fatalf("AddMulticastEcu: %v", err)
	}
	if got := len(f.multicast.MulticastEcus()); got != 2 {
		t.Errorf("MulticastEcus = %d, want 2", got)
	}
}

func TestBundleConnectionRejectsProtocolMismatch(t *testing.T) {
	f := newSdFixture(t, 1, false, false)
	ep, err := f.channel.CreateNetworkEndpoint("EpTcpClient", fixedV4("10.0.0.100"))
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	tcpSock, err := f.channel.CreateUnicastSocketAddress("TcpClient", ep, model.TpConfig{
		Protocol:   model.ProtocolTCP,
		PortNumber: uint16p(8080),
	}, nil)
	if err != nil {
		t.Fatalf("CreateUnicastSocketAddress: %v", err)
	}
	bundle, err := f.channel.CreateBundle("Bundle", f.unicastSockets[0])
	if err != nil {
		t.Fatalf("CreateBundle: %v", err)
	}
	if _, err := bundle.CreateConnection(tcpSock); !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("mixed-protocol connection = %v, want ErrProtocolMismatch", err)
	}
}

func TestBundleRejectsForeignChannelSocket(t *testing.T) {
	f := newSdFixture(t, 1, false, false)
	other, err := f.cluster.CreatePhysicalChannel("Other", &model.VlanInfo{Name: "V20", ID: 20})
	if err != nil {
		t.Fatalf("CreatePhysicalChannel: %v", err)
	}
	ep, err := other.CreateNetworkEndpoint("EpOther", fixedV4("10.1.0.1"))
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	sock, err := other.CreateUnicastSocketAddress("OtherSock", ep, model.TpConfig{
		Protocol:   model.ProtocolUDP,
		PortNumber: uint16p(30490),
	}, nil)
	if err != nil {
		t.Fatalf("CreateUnicastSocketAddress: %v", err)
	}
	if _, err := f.channel.CreateBundle("Bundle", sock); !errors.Is(err, ErrSocketChannelMismatch) {
		t.Errorf("foreign server port = %v, want ErrSocketChannelMismatch", err)
	}
}

func TestStaticConnectionRejectsProtocolMismatch(t *testing.T) {
	f := newSdFixture(t, 1, true, true)
	ep, err := f.channel.CreateNetworkEndpoint("EpTcpPeer", fixedV4("10.0.0.200"))
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	tcpSock, err := f.channel.CreateUnicastSocketAddress("TcpPeer", ep, model.TpConfig{
		Protocol:   model.ProtocolTCP,
		PortNumber: uint16p(8080),
	}, nil)
	if err != nil {
		t.Fatalf("CreateUnicastSocketAddress: %v", err)
	}
	_, err = f.unicastSockets[0].CreateStaticConnection("Bad", tcpSock, nil, nil)
	if !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("mixed-protocol static connection = %v, want ErrProtocolMismatch", err)
	}
}

func TestStaticConnectionPairCreatesBothEnds(t *testing.T) {
	f := newSdFixture(t, 2, true, true)
	local, peer := f.unicastSockets[0], f.unicastSockets[1]
	cLocal, cPeer, err := local.CreateStaticConnectionPair("Link", peer, nil)
	if err != nil {
		t.Fatalf("CreateStaticConnectionPair: %v", err)
	}
	if got, err := cLocal.RemoteSocket(); err != nil || !got.SameAs(peer) {
		t.Errorf("local remote = %v, %v; want peer", got, err)
	}
	if got, err := cPeer.RemoteSocket(); err != nil || !got.SameAs(local) {
		t.Errorf("peer remote = %v, %v; want local", got, err)
	}
	if got := len(local.StaticConnections()); got != 1 {
		t.Errorf("local StaticConnections = %d, want 1", got)
	}
	if got := len(peer.StaticConnections()); got != 1 {
		t.Errorf("peer StaticConnections = %d, want 1", got)
	}
}

func TestTpConfigRoundTrip(t *testing.T) {
	f := newSdFixture(t, 1, false, false)
	tp := f.unicastSockets[0].TpConfig()
	if tp.Protocol != model.ProtocolUDP {
		t.Errorf("Protocol = %v, want UDP", tp.Protocol)
	}
	if tp.PortNumber == nil || *tp.PortNumber != 30490 {
		t.Errorf("PortNumber = %v, want 30490", tp.PortNumber)
	}
	if tp.DynamicallyAssigned() {
		t.Error("DynamicallyAssigned = true, want false")
	}
	remote := f.remote.TpConfig()
	if !remote.DynamicallyAssigned() {
		t.Error("remote DynamicallyAssigned = false, want true")
	}
}
