package core

import (
	"errors"
	"testing"

	"github.com/signalworks/ecutopo/model"
)

func TestVlanIDsAreUniquePerCluster(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	if _, err := cluster.CreatePhysicalChannel("Ch1", &model.VlanInfo{Name: "V10", ID: 10}); err != nil {
		t.Fatalf("Ch1: %v", err)
	}
	if _, err := cluster.CreatePhysicalChannel("Ch2", &model.VlanInfo{Name: "V10b", ID: 10}); !errors.Is(err, ErrDuplicateVlan) {
		t.Errorf("duplicate vlan error = %v, want ErrDuplicateVlan", err)
	}
	// A different id on the same cluster is fine, and the same id on a
	// different cluster is fine too.
	if _, err := cluster.CreatePhysicalChannel("Ch3", &model.VlanInfo{Name: "V20", ID: 20}); err != nil {
		t.Errorf("Ch3: %v", err)
	}
	other, _ := sys.CreateEthernetCluster("Other")
	if _, err := other.CreatePhysicalChannel("Ch1", &model.VlanInfo{Name: "V10", ID: 10}); err != nil {
		t.Errorf("other cluster, same vlan: %v", err)
	}
}

func TestOnlyOneUntaggedChannelPerCluster(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	if _, err := cluster.CreatePhysicalChannel("Untagged", nil); err != nil {
		t.Fatalf("first untagged: %v", err)
	}
	if _, err := cluster.CreatePhysicalChannel("Untagged2", nil); !errors.Is(err, ErrDuplicateVlan) {
		t.Errorf("second untagged error = %v, want ErrDuplicateVlan", err)
	}
}

func TestSetVlanRevalidatesUniqueness(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch1, _ := cluster.CreatePhysicalChannel("Ch1", &model.VlanInfo{Name: "V10", ID: 10})
	ch2, _ := cluster.CreatePhysicalChannel("Ch2", &model.VlanInfo{Name: "V20", ID: 20})

	if err := ch2.SetVlan(model.VlanInfo{Name: "V10", ID: 10}); !errors.Is(err, ErrDuplicateVlan) {
		t.Errorf("SetVlan to taken id error = %v, want ErrDuplicateVlan", err)
	}
	if err := ch2.SetVlan(model.VlanInfo{Name: "V30", ID: 30}); err != nil {
		t.Fatalf("SetVlan: %v", err)
	}
	if v := ch2.Vlan(); v == nil || v.ID != 30 {
		t.Errorf("Vlan = %+v, want id 30", v)
	}
	// Re-tagging to one's own current id is allowed.
	if err := ch1.SetVlan(model.VlanInfo{Name: "V10", ID: 10}); err != nil {
		t.Errorf("re-tag to own id: %v", err)
	}
}

func TestEndpointRejectsMixedAddressFamilies(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch, _ := cluster.CreatePhysicalChannel("Ch", nil)
	ep, err := ch.CreateNetworkEndpoint("Ep", fixedV4("10.0.0.1"))
	if err != nil {
		t.Fatalf("CreateNetworkEndpoint: %v", err)
	}
	err = ep.AddAddress(model.NetworkEndpointAddress{
		Family:   model.FamilyIPv6,
		Address:  "fd00::1",
		SourceV6: model.IPv6SourceLinkLocal,
	})
	if !errors.Is(err, ErrInvalidAddressConfig) {
		t.Errorf("mixed family error = %v, want ErrInvalidAddressConfig", err)
	}
}

func TestEndpointRejectsSecondFixedAddress(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch, _ := cluster.CreatePhysicalChannel("Ch", nil)
	ep, _ := ch.CreateNetworkEndpoint("Ep", fixedV4("10.0.0.1"))

	if err := ep.AddAddress(fixedV4("10.0.0.2")); !errors.Is(err, ErrInvalidAddressConfig) {
		t.Errorf("second fixed error = %v, want ErrInvalidAddressConfig", err)
	}
	// A non-fixed record alongside the fixed one is fine.
	if err := ep.AddAddress(model.NetworkEndpointAddress{
		Family:   model.FamilyIPv4,
		SourceV4: model.IPv4SourceDHCPv4,
	}); err != nil {
		t.Errorf("dhcp record: %v", err)
	}
	if got := len(ep.Addresses()); got != 2 {
		t.Errorf("addresses = %d, want 2", got)
	}
}

func TestFailedEndpointCreationLeavesNoTrace(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch, _ := cluster.CreatePhysicalChannel("Ch", nil)

	_, err := ch.CreateNetworkEndpoint("Bad", model.NetworkEndpointAddress{Family: "IPX"})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("bad family error = %v, want ErrInvalidParameter", err)
	}
	if got := len(ch.NetworkEndpoints()); got != 0 {
		t.Errorf("endpoints after failed create = %d, want 0", got)
	}
	// The name is free again.
	if _, err := ch.CreateNetworkEndpoint("Bad", fixedV4("10.0.0.1")); err != nil {
		t.Errorf("re-create with valid record: %v", err)
	}
}
