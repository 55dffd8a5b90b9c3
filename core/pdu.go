package core

import (
	"fmt"

	"github.com/signalworks/ecutopo/model"
	"github.com/signalworks/ecutopo/tree"
)

// GeneralPurposePdu is a PDU definition usable on any channel.
type GeneralPurposePdu struct {
	sys  *System
	elem *tree.Element
}

func (p GeneralPurposePdu) Name() string { return p.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (p GeneralPurposePdu) Element() *tree.Element { return p.elem }

// Category returns the PDU's category string.
func (p GeneralPurposePdu) Category() string {
	c := p.elem.GetChild(KindCategory)
	if c == nil {
		return ""
	}
	v, _ := c.Value()
	return v
}

// Length returns the PDU payload length in bytes.
func (p GeneralPurposePdu) Length() uint32 {
	c := p.elem.GetChild(KindLength)
	if c == nil {
		return 0
	}
	v, _ := c.Uint()
	return uint32(v)
}

// PduTriggering is the occurrence of a PDU on one channel, together with the
// per-ECU ports that send or receive it there.
type PduTriggering struct {
	sys  *System
	elem *tree.Element
}

// createPduTriggering adds a triggering for the PDU on the channel. The
// triggering name is derived from the PDU name and uniquified within the
// channel.
func createPduTriggering(ch EthernetChannel, pdu GeneralPurposePdu) (PduTriggering, error) {
	pts, err := ch.elem.GetOrCreateChild(KindPduTriggerings)
	if err != nil {
		return PduTriggering{}, err
	}
	base := "PT_" + pdu.Name()
	name := base
	for i := 1; pts.GetNamedChild(KindPduTriggering, name) != nil; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	elem, err := pts.CreateNamedChild(KindPduTriggering, name)
	if err != nil {
		return PduTriggering{}, fmt.Errorf("create pdu triggering: %w", err)
	}
	ref, err := elem.CreateChild(KindPduRef)
	if err != nil {
		return PduTriggering{}, err
	}
	if err := ref.SetReference(pdu.elem); err != nil {
		return PduTriggering{}, err
	}
	return PduTriggering{sys: ch.sys, elem: elem}, nil
}

func (pt PduTriggering) Name() string { return pt.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (pt PduTriggering) Element() *tree.Element { return pt.elem }

// Pdu resolves the triggered PDU.
func (pt PduTriggering) Pdu() (GeneralPurposePdu, error) {
	ref := pt.elem.GetChild(KindPduRef)
	if ref == nil {
		return GeneralPurposePdu{}, fmt.Errorf("triggering %q has no pdu reference: %w", pt.Name(), ErrReferenceIntegrity)
	}
	target := ref.Reference()
	if target == nil || target.Kind() != KindGeneralPurposePdu {
		return GeneralPurposePdu{}, fmt.Errorf("triggering %q pdu reference is dangling: %w", pt.Name(), ErrReferenceIntegrity)
	}
	return GeneralPurposePdu{sys: pt.sys, elem: target}, nil
}

// Channel returns the channel element owning the triggering.
func (pt PduTriggering) Channel() (EthernetChannel, error) {
	ch := pt.elem.NamedParent()
	if ch == nil || ch.Kind() != KindEthernetPhysicalChannel {
		return EthernetChannel{}, fmt.Errorf("triggering %q has no owning channel: %w", pt.Name(), ErrReferenceIntegrity)
	}
	return EthernetChannel{sys: pt.sys, elem: ch}, nil
}

// CreatePduPort attaches a per-ECU send or receive port to the triggering.
// An existing port of the same ECU and direction is returned unchanged, so
// repeated calls are idempotent. The ECU must be connected to the
// triggering's channel.
func (pt PduTriggering) CreatePduPort(ecu EcuInstance, dir model.CommunicationDirection) (IPduPort, error) {
	for _, port := range pt.PduPorts() {
		owner, err := port.Ecu()
		if err != nil {
			continue
		}
		if owner.elem == ecu.elem && port.Direction() == dir {
			return port, nil
		}
	}
	ch, err := pt.Channel()
	if err != nil {
		return IPduPort{}, err
	}
	conn := channelEcuConnectorElem(ch.elem, ecu)
	if conn == nil {
		return IPduPort{}, fmt.Errorf("triggering %q, ecu %q: %w", pt.Name(), ecu.Name(), ErrNotConnected)
	}
	suffix := "_Tx"
	if dir == model.DirectionIn {
		suffix = "_Rx"
	}
	ports, err := conn.GetOrCreateChild(KindCommPortInstances)
	if err != nil {
		return IPduPort{}, err
	}
	port, err := ports.CreateNamedChild(KindIPduPort, pt.Name()+suffix)
	if err != nil {
		return IPduPort{}, fmt.Errorf("create pdu port: %w", err)
	}
	dirElem, err := port.GetOrCreateChild(KindDirection)
	if err != nil {
		return IPduPort{}, err
	}
	if err := dirElem.SetValue(string(dir)); err != nil {
		return IPduPort{}, err
	}
	refs, err := pt.elem.GetOrCreateChild(KindPortRefs)
	if err != nil {
		return IPduPort{}, err
	}
	ref, err := refs.CreateChild(KindPortRef)
	if err != nil {
		return IPduPort{}, err
	}
	if err := ref.SetReference(port); err != nil {
		return IPduPort{}, err
	}
	return IPduPort{sys: pt.sys, elem: port}, nil
}

// PduPorts lists the ports attached to the triggering, skipping dangling
// references.
func (pt PduTriggering) PduPorts() []IPduPort {
	refs := pt.elem.GetChild(KindPortRefs)
	if refs == nil {
		return nil
	}
	var out []IPduPort
	for _, ref := range refs.ChildrenOfKind(KindPortRef) {
		target := ref.Reference()
		if target == nil || target.Kind() != KindIPduPort {
			continue
		}
		out = append(out, IPduPort{sys: pt.sys, elem: target})
	}
	return out
}

// IPduPort is the per-ECU send or receive attachment of a PDU triggering.
type IPduPort struct {
	sys  *System
	elem *tree.Element
}

func (p IPduPort) Name() string { return p.elem.Name() }

// Element exposes the backing tree element for identity comparisons.
func (p IPduPort) Element() *tree.Element { return p.elem }

// Direction returns the port's direction relative to its ECU.
func (p IPduPort) Direction() model.CommunicationDirection {
	d := p.elem.GetChild(KindDirection)
	if d == nil {
		return ""
	}
	v, _ := d.Value()
	return model.CommunicationDirection(v)
}

// Ecu returns the ECU node owning the port. Ports live on connectors, so
// this walks two named levels up.
func (p IPduPort) Ecu() (EcuInstance, error) {
	conn := p.elem.NamedParent()
	if conn == nil {
		return EcuInstance{}, fmt.Errorf("pdu port %q has no owning connector: %w", p.Name(), ErrReferenceIntegrity)
	}
	owner := conn.NamedParent()
	if owner == nil || owner.Kind() != KindEcuInstance {
		return EcuInstance{}, fmt.Errorf("pdu port %q has no owning ecu: %w", p.Name(), ErrReferenceIntegrity)
	}
	return EcuInstance{sys: p.sys, elem: owner}, nil
}
