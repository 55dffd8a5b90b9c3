package core

import (
	"errors"
	"testing"

	"github.com/signalworks/ecutopo/model"
)

func TestEthernetControllerRejectsDuplicateChannel(t *testing.T) {
	sys := NewSystem()
	ecu, _ := sys.CreateEcuInstance("EcuA")
	ctrl, _ := ecu.CreateEthernetController("Eth0")
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch, _ := cluster.CreatePhysicalChannel("Ch", nil)

	if _, err := ctrl.Connect("Conn1", ch); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if _, err := ctrl.Connect("Conn2", ch); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect error = %v, want ErrAlreadyConnected", err)
	}
	if got := len(ch.Connectors()); got != 1 {
		t.Errorf("channel connectors = %d, want 1", got)
	}
}

func TestEthernetControllerRejectsForeignCluster(t *testing.T) {
	sys := NewSystem()
	ecu, _ := sys.CreateEcuInstance("EcuA")
	ctrl, _ := ecu.CreateEthernetController("Eth0")
	clusterA, _ := sys.CreateEthernetCluster("ClusterA")
	chA, _ := clusterA.CreatePhysicalChannel("ChA", nil)
	clusterB, _ := sys.CreateEthernetCluster("ClusterB")
	chB, _ := clusterB.CreatePhysicalChannel("ChB", nil)

	if _, err := ctrl.Connect("ConnA", chA); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := ctrl.Connect("ConnB", chB); !errors.Is(err, ErrClusterMismatch) {
		t.Errorf("foreign cluster Connect error = %v, want ErrClusterMismatch", err)
	}
}

func TestEthernetControllerAllowsSecondChannelOfSameCluster(t *testing.T) {
	sys := NewSystem()
	ecu, _ := sys.CreateEcuInstance("EcuA")
	ctrl, _ := ecu.CreateEthernetController("Eth0")
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch1, _ := cluster.CreatePhysicalChannel("Ch1", &model.VlanInfo{Name: "V1", ID: 1})
	ch2, _ := cluster.CreatePhysicalChannel("Ch2", &model.VlanInfo{Name: "V2", ID: 2})

	if _, err := ctrl.Connect("Conn1", ch1); err != nil {
		t.Fatalf("Connect ch1: %v", err)
	}
	if _, err := ctrl.Connect("Conn2", ch2); err != nil {
		t.Fatalf("Connect ch2: %v", err)
	}
	channels, err := ctrl.ConnectedChannels()
	if err != nil {
		t.Fatalf("ConnectedChannels: %v", err)
	}
	if len(channels) != 2 {
		t.Errorf("connected channels = %d, want 2", len(channels))
	}
}

func TestCanControllerAllowsOnlyOneChannel(t *testing.T) {
	sys := NewSystem()
	ecu, _ := sys.CreateEcuInstance("EcuA")
	ctrl, _ := ecu.CreateCanController("Can0")
	clusterA, _ := sys.CreateCanCluster("CanA")
	chA, _ := clusterA.CreatePhysicalChannel("ChA")
	clusterB, _ := sys.CreateCanCluster("CanB")
	chB, _ := clusterB.CreatePhysicalChannel("ChB")

	if _, err := ctrl.Connect("ConnA", chA); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := ctrl.Connect("ConnA2", chA); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("same channel error = %v, want ErrAlreadyConnected", err)
	}
	if _, err := ctrl.Connect("ConnB", chB); !errors.Is(err, ErrClusterMismatch) {
		t.Errorf("second channel error = %v, want ErrClusterMismatch", err)
	}
}

func TestConnectedChannelsSkipsDanglingConnectors(t *testing.T) {
	sys := NewSystem()
	ecu, _ := sys.CreateEcuInstance("EcuA")
	ctrl, _ := ecu.CreateEthernetController("Eth0")
	cluster, _ := sys.CreateEthernetCluster("Cluster")
	ch, _ := cluster.CreatePhysicalChannel("Ch", nil)

	if _, err := ctrl.Connect("Conn", ch); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	// Remove the channel; the connector on the ECU now dangles.
	channels := ch.Element().Parent()
	if err := channels.RemoveChild(ch.Element()); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}

	got, err := ctrl.ConnectedChannels()
	if err != nil {
		t.Fatalf("ConnectedChannels: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("connected channels = %d, want 0", len(got))
	}
}

func TestControllersListsAllBusKinds(t *testing.T) {
	sys := NewSystem()
	ecu, _ := sys.CreateEcuInstance("EcuA")
	if _, err := ecu.CreateEthernetController("Eth0"); err != nil {
		t.Fatalf("CreateEthernetController: %v", err)
	}
	if _, err := ecu.CreateCanController("Can0"); err != nil {
		t.Fatalf("CreateCanController: %v", err)
	}
	if _, err := ecu.CreateFlexrayController("Fr0"); err != nil {
		t.Fatalf("CreateFlexrayController: %v", err)
	}

	ctrls := ecu.Controllers()
	if len(ctrls) != 3 {
		t.Fatalf("controllers = %d, want 3", len(ctrls))
	}
	for _, c := range ctrls {
		owner, err := c.Ecu()
		if err != nil {
			t.Fatalf("Ecu(%s): %v", c.Name(), err)
		}
		if !owner.SameAs(ecu) {
			t.Errorf("controller %s owner = %s, want EcuA", c.Name(), owner.Name())
		}
	}
}

func TestFlexrayClusterLimitsChannels(t *testing.T) {
	sys := NewSystem()
	cluster, _ := sys.CreateFlexrayCluster("Fr")
	if _, err := cluster.CreatePhysicalChannel("ChA"); err != nil {
		t.Fatalf("ChA: %v", err)
	}
	if _, err := cluster.CreatePhysicalChannel("ChB"); err != nil {
		t.Fatalf("ChB: %v", err)
	}
	if _, err := cluster.CreatePhysicalChannel("ChC"); !errors.Is(err, ErrStructuralConflict) {
		t.Errorf("third channel error = %v, want ErrStructuralConflict", err)
	}
}
